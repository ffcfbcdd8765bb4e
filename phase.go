package mideployer

import "time"

// Phase is the deploy phase of a server card.
type Phase string

const (
	// PhaseIdle means the server has not been deployed yet.
	PhaseIdle Phase = "idle"

	// PhaseDeploying means the simulated countdown is running.
	PhaseDeploying Phase = "deploying"

	// PhaseDeployed means the last countdown finished.
	PhaseDeployed Phase = "deployed"
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	return string(p)
}

// DeployEvent describes a deploy starting or finishing on one server.
//
// A deploy produces exactly two events with the same DeployID: one with
// [PhaseDeploying] when Deploy is pressed and one with [PhaseDeployed]
// when the countdown completes. A card closed mid-countdown produces only
// the first.
type DeployEvent struct {
	// DeployID identifies the deploy run.
	DeployID string

	// Product is the product the server belongs to.
	Product string

	// Hostname is the server that was deployed.
	Hostname string

	// UserID is the user selected when Deploy was pressed.
	UserID string

	// Branch is the branch entered when Deploy was pressed.
	Branch string

	// RunTests is the run-tests flag when Deploy was pressed.
	RunTests bool

	// Phase is PhaseDeploying for the start event, PhaseDeployed for the end.
	Phase Phase

	// RequestedAt is when Deploy was pressed.
	RequestedAt time.Time

	// At is when this event happened.
	At time.Time
}
