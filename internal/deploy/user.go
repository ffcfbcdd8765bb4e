package deploy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// User is an entry in the static user directory.
type User struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// DisplayName returns "First Last".
func (u User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// UnmarshalJSON accepts the id as either a JSON string or a JSON number.
func (u *User) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        json.RawMessage `json:"id"`
		FirstName string          `json:"first_name"`
		LastName  string          `json:"last_name"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	id, err := decodeID(raw.ID)
	if err != nil {
		return err
	}

	u.ID = id
	u.FirstName = raw.FirstName
	u.LastName = raw.LastName
	return nil
}

func decodeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("user id must be a string or number: %w", err)
	}
	return n.String(), nil
}

// Directory is the immutable list of users a card can select from.
type Directory struct {
	users []User
	byID  map[string]User
}

// NewDirectory builds a [Directory], keeping the given order.
//
// Returns an error if any id is empty or duplicated.
func NewDirectory(users []User) (*Directory, error) {
	d := &Directory{
		users: make([]User, 0, len(users)),
		byID:  make(map[string]User, len(users)),
	}

	for i, u := range users {
		if u.ID == "" {
			return nil, fmt.Errorf("users[%d]: id is required", i)
		}
		if _, exists := d.byID[u.ID]; exists {
			return nil, fmt.Errorf("users[%d]: duplicate id %q", i, u.ID)
		}
		d.users = append(d.users, u)
		d.byID[u.ID] = u
	}

	return d, nil
}

// ParseDirectory decodes a JSON array of users into a [Directory].
func ParseDirectory(data []byte) (*Directory, error) {
	var users []User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("failed to parse users: %w", err)
	}
	if users == nil {
		return nil, errors.New("users must be a JSON array")
	}
	return NewDirectory(users)
}

// Lookup returns the user with the given id.
func (d *Directory) Lookup(id string) (User, bool) {
	u, ok := d.byID[id]
	return u, ok
}

// Users returns a copy of all users in directory order.
func (d *Directory) Users() []User {
	cp := make([]User, len(d.users))
	copy(cp, d.users)
	return cp
}

// Len returns the number of users.
func (d *Directory) Len() int {
	return len(d.users)
}
