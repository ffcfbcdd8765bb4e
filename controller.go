package mideployer

import (
	"time"

	"github.com/jpalmerr/mideployer/internal/deploy"
	"github.com/jpalmerr/mideployer/internal/server"
	"github.com/jpalmerr/mideployer/internal/store"
)

// boardController adapts a deploy board to the HTTP server.
type boardController struct {
	board *deploy.Board
	title string
}

func (c *boardController) Board() server.Board {
	groups := c.board.Groups()
	products := make([]server.Product, len(groups))
	for i, g := range groups {
		products[i] = server.Product{Name: g.Product, Servers: g.Hostnames}
	}

	du := c.board.Directory().Users()
	users := make([]server.User, len(du))
	for i, u := range du {
		users[i] = server.User{
			ID:          u.ID,
			FirstName:   u.FirstName,
			LastName:    u.LastName,
			DisplayName: u.DisplayName(),
		}
	}

	return server.Board{Title: c.title, Products: products, Users: users}
}

func (c *boardController) SelectUser(hostname, userID string) (store.CardState, error) {
	return cardResult(c.board.SelectUser(hostname, userID))
}

func (c *boardController) SetBranch(hostname, branch string) (store.CardState, error) {
	return cardResult(c.board.SetBranch(hostname, branch))
}

func (c *boardController) SetRunTests(hostname string, on bool) (store.CardState, error) {
	return cardResult(c.board.SetRunTests(hostname, on))
}

func (c *boardController) Deploy(hostname string) (store.CardState, error) {
	return cardResult(c.board.Deploy(hostname))
}

func cardResult(s deploy.Snapshot, err error) (store.CardState, error) {
	if err != nil {
		return store.CardState{}, err
	}
	return toCardState(s), nil
}

// toCardState converts a card snapshot to its stored JSON form.
func toCardState(s deploy.Snapshot) store.CardState {
	var req *store.DeployRequest
	if s.Request != nil {
		req = &store.DeployRequest{
			ID:          s.Request.ID,
			UserID:      s.Request.UserID,
			Branch:      s.Request.Branch,
			RunTests:    s.Request.RunTests,
			RequestedAt: s.Request.RequestedAt,
		}
	}

	return store.CardState{
		Product:   s.Product,
		Hostname:  s.Hostname,
		Link:      s.Link(),
		Position:  s.Position,
		UserID:    s.UserID,
		Branch:    s.Branch,
		RunTests:  s.RunTests,
		Phase:     s.State.Phase.String(),
		Countdown: s.State.Countdown,
		Overlay:   s.Overlay(),
		CanDeploy: s.CanDeploy,
		JobLink:   s.JobLink(),
		Request:   req,
		UpdatedAt: s.UpdatedAt,
	}
}

// toDeployEvent converts a transition snapshot to the public event type.
// The snapshot must carry a request.
func toDeployEvent(s deploy.Snapshot) DeployEvent {
	return DeployEvent{
		DeployID:    s.Request.ID,
		Product:     s.Product,
		Hostname:    s.Hostname,
		UserID:      s.Request.UserID,
		Branch:      s.Request.Branch,
		RunTests:    s.Request.RunTests,
		Phase:       Phase(s.State.Phase),
		RequestedAt: s.Request.RequestedAt,
		At:          time.Now(),
	}
}
