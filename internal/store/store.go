package store

import "time"

// DeployRequest is the storage representation of the request captured when
// Deploy was pressed on a card.
type DeployRequest struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Branch      string    `json:"branch"`
	RunTests    bool      `json:"run_tests"`
	RequestedAt time.Time `json:"requested_at"`
}

// CardState is the current view of one server card.
//
// CardState is what the REST API and the update streams send to the
// dashboard. It carries everything needed to render the card without the
// client knowing the deploy rules.
type CardState struct {
	// Product is the name of the product the server belongs to.
	Product string `json:"product"`

	// Hostname identifies the server and keys the store.
	Hostname string `json:"hostname"`

	// Link is the server URL, https://{hostname}/.
	Link string `json:"link"`

	// Position is the card's index on the board, used for ordering.
	Position int `json:"position"`

	// UserID is the selected user, empty when unassigned.
	UserID string `json:"user_id"`

	// Branch is the branch text as typed.
	Branch string `json:"branch"`

	// RunTests is the run-tests checkbox.
	RunTests bool `json:"run_tests"`

	// Phase is "idle", "deploying" or "deployed".
	Phase string `json:"phase"`

	// Countdown is the remaining simulated seconds.
	Countdown int `json:"countdown"`

	// Overlay is the deploying overlay text, empty unless deploying.
	Overlay string `json:"overlay"`

	// CanDeploy reports whether the Deploy button is enabled.
	CanDeploy bool `json:"can_deploy"`

	// JobLink is the placeholder job link, set only when deployed.
	JobLink string `json:"job_link,omitempty"`

	// Request is the most recent deploy request, nil before the first deploy.
	Request *DeployRequest `json:"request,omitempty"`

	// UpdatedAt is when the card last changed.
	UpdatedAt time.Time `json:"updated_at"`
}

// Store defines the interface for storing and subscribing to card updates.
//
// Store implementations must be safe for concurrent access.
type Store interface {
	// Update stores a card state and notifies all subscribers.
	// States are keyed by Hostname, so later updates replace earlier ones.
	Update(state CardState)

	// GetAll returns all stored card states ordered by Position.
	// The returned slice is a snapshot; modifications do not affect the store.
	GetAll() []CardState

	// Get returns the stored state for a hostname.
	Get(hostname string) (CardState, bool)

	// Subscribe returns a channel that receives card updates.
	// The returned channel has a buffer; slow consumers may miss updates.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan CardState

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan CardState)
}
