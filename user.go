package mideployer

import (
	"github.com/jpalmerr/mideployer/internal/deploy"
)

// User is someone who can be selected on a server card.
type User struct {
	ID        string
	FirstName string
	LastName  string
}

// DisplayName returns "First Last".
func (u User) DisplayName() string {
	return deploy.User{FirstName: u.FirstName, LastName: u.LastName}.DisplayName()
}

// ParseUsers decodes a JSON array of {id, first_name, last_name} objects.
// Ids may be JSON strings or numbers.
func ParseUsers(data []byte) ([]User, error) {
	dir, err := deploy.ParseDirectory(data)
	if err != nil {
		return nil, err
	}
	return fromDirectory(dir), nil
}

func fromDirectory(dir *deploy.Directory) []User {
	du := dir.Users()
	users := make([]User, len(du))
	for i, u := range du {
		users[i] = User{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName}
	}
	return users
}

func toDirectory(users []User) (*deploy.Directory, error) {
	du := make([]deploy.User, len(users))
	for i, u := range users {
		du[i] = deploy.User{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName}
	}
	return deploy.NewDirectory(du)
}
