package deploy

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jpalmerr/mideployer/internal/countdown"
)

// placeholderJobLink is shown once a card is deployed. It goes nowhere.
const placeholderJobLink = "#"

// Request is captured when Deploy is pressed. It is never sent anywhere.
type Request struct {
	ID          string
	Hostname    string
	UserID      string
	Branch      string
	RunTests    bool
	RequestedAt time.Time
}

// Snapshot is a point-in-time copy of a card.
type Snapshot struct {
	Product   string
	Hostname  string
	Position  int
	UserID    string
	Branch    string
	RunTests  bool
	State     State
	CanDeploy bool
	Request   *Request
	UpdatedAt time.Time
}

// Link returns the server URL, https://{hostname}/.
func (s Snapshot) Link() string {
	return ServerLink(s.Hostname)
}

// Overlay returns the deploying overlay text, or "" when not deploying.
func (s Snapshot) Overlay() string {
	if s.State.Phase != PhaseDeploying {
		return ""
	}
	return OverlayText(s.State.Countdown)
}

// JobLink returns the placeholder job link, or "" when not deployed.
func (s Snapshot) JobLink() string {
	if s.State.Phase != PhaseDeployed {
		return ""
	}
	return placeholderJobLink
}

// ServerLink returns the URL a card links to for hostname.
func ServerLink(hostname string) string {
	return "https://" + hostname + "/"
}

// Hooks receive card changes. Both may be nil.
type Hooks struct {
	// OnChange is called with every new snapshot, in order, while the
	// card's lock is held. It must not block or call back into the card.
	OnChange func(Snapshot)

	// OnTransition is called when a deploy starts and when it finishes,
	// outside the card's lock.
	OnTransition func(Snapshot)
}

// CardConfig describes one card.
type CardConfig struct {
	Product      string
	Hostname     string
	Position     int
	Directory    *Directory
	Countdown    int
	TickInterval time.Duration
	Logger       *slog.Logger
	Hooks        Hooks
}

// Card is one server's deploy control.
//
// A Card owns at most one running [countdown.Timer]. The timer is stopped
// when the countdown completes and when the card is closed.
type Card struct {
	product      string
	hostname     string
	position     int
	directory    *Directory
	start        int
	tickInterval time.Duration
	logger       *slog.Logger
	hooks        Hooks

	mu        sync.Mutex
	userID    string
	branch    string
	runTests  bool
	state     State
	request   *Request
	run       uint64
	timer     *countdown.Timer
	closed    bool
	updatedAt time.Time
}

// NewCard creates an idle card. Zero Countdown and TickInterval fall back
// to [DefaultCountdown] and one second.
func NewCard(cfg CardConfig) *Card {
	start := cfg.Countdown
	if start <= 0 {
		start = DefaultCountdown
	}
	interval := cfg.TickInterval
	if interval <= 0 {
		interval = time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	directory := cfg.Directory
	if directory == nil {
		directory, _ = NewDirectory(nil)
	}

	return &Card{
		product:      cfg.Product,
		hostname:     cfg.Hostname,
		position:     cfg.Position,
		directory:    directory,
		start:        start,
		tickInterval: interval,
		logger:       logger.With("hostname", cfg.Hostname),
		hooks:        cfg.Hooks,
		state:        InitialState(start),
		updatedAt:    time.Now(),
	}
}

// Hostname returns the server hostname.
func (c *Card) Hostname() string {
	return c.hostname
}

// Product returns the product the server belongs to.
func (c *Card) Product() string {
	return c.product
}

// SelectUser sets the selected user. An empty id unassigns.
func (c *Card) SelectUser(id string) (Snapshot, error) {
	if id != "" {
		if _, ok := c.directory.Lookup(id); !ok {
			return c.Snapshot(), ErrUnknownUser
		}
	}

	return c.mutate(func() {
		c.userID = id
	})
}

// SetBranch sets the branch text. Any text is accepted.
func (c *Card) SetBranch(branch string) (Snapshot, error) {
	return c.mutate(func() {
		c.branch = branch
	})
}

// SetRunTests sets the run-tests flag carried by the next deploy request.
func (c *Card) SetRunTests(on bool) (Snapshot, error) {
	return c.mutate(func() {
		c.runTests = on
	})
}

// CanDeploy reports whether Deploy would be accepted right now.
func (c *Card) CanDeploy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed && c.deployErrLocked() == nil
}

// Deploy starts a simulated deploy.
//
// It requires a selected user, a non-empty branch and no running countdown.
// On success the card is deploying with the countdown at its start value
// and a fresh [Request] is captured.
func (c *Card) Deploy() (Snapshot, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Snapshot{}, ErrCardClosed
	}
	if err := c.deployErrLocked(); err != nil {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, err
	}

	c.state = Next(c.state, EventDeploy, c.start)
	c.run++
	run := c.run
	c.request = &Request{
		ID:          uuid.NewString(),
		Hostname:    c.hostname,
		UserID:      c.userID,
		Branch:      c.branch,
		RunTests:    c.runTests,
		RequestedAt: time.Now(),
	}
	c.updatedAt = c.request.RequestedAt

	prev := c.timer
	timer := countdown.NewTimer(c.tickInterval, c.logger)
	c.timer = timer

	snap := c.snapshotLocked()
	c.emitChangeLocked(snap)
	c.mu.Unlock()

	if prev != nil {
		prev.Stop()
	}
	// a Close between Unlock and here stops the timer first, making Start a no-op
	timer.Start(context.Background(), func() bool {
		return c.tick(run)
	})

	c.logger.Info("deploy started",
		"deploy_id", snap.Request.ID,
		"user_id", snap.Request.UserID,
		"branch", snap.Request.Branch,
		"run_tests", snap.Request.RunTests,
	)
	c.emitTransition(snap)

	return snap, nil
}

// tick advances the countdown for run. It returns false when the timer
// should stop.
func (c *Card) tick(run uint64) bool {
	c.mu.Lock()
	if c.closed || run != c.run || c.state.Phase != PhaseDeploying {
		c.mu.Unlock()
		return false
	}

	c.state = Next(c.state, EventTick, c.start)
	c.updatedAt = time.Now()
	finished := c.state.Phase == PhaseDeployed
	if finished {
		c.timer = nil
	}

	snap := c.snapshotLocked()
	c.emitChangeLocked(snap)
	c.mu.Unlock()

	if !finished {
		return true
	}

	c.logger.Info("deploy finished", "deploy_id", snap.Request.ID)
	c.emitTransition(snap)
	return false
}

// Snapshot returns the current state of the card.
func (c *Card) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Close stops any running countdown and rejects further operations.
// It blocks until the countdown goroutine has exited. Safe to call twice.
func (c *Card) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	timer := c.timer
	c.timer = nil
	c.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}
}

// mutate applies fn under the lock and publishes the result.
func (c *Card) mutate(fn func()) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Snapshot{}, ErrCardClosed
	}

	fn()
	c.updatedAt = time.Now()

	snap := c.snapshotLocked()
	c.emitChangeLocked(snap)
	return snap, nil
}

func (c *Card) deployErrLocked() error {
	switch {
	case c.state.Phase == PhaseDeploying:
		return ErrDeployInProgress
	case c.userID == "":
		return ErrMissingUser
	case c.branch == "":
		return ErrMissingBranch
	}
	return nil
}

func (c *Card) snapshotLocked() Snapshot {
	var req *Request
	if c.request != nil {
		cp := *c.request
		req = &cp
	}

	return Snapshot{
		Product:   c.product,
		Hostname:  c.hostname,
		Position:  c.position,
		UserID:    c.userID,
		Branch:    c.branch,
		RunTests:  c.runTests,
		State:     c.state,
		CanDeploy: !c.closed && c.deployErrLocked() == nil,
		Request:   req,
		UpdatedAt: c.updatedAt,
	}
}

func (c *Card) emitChangeLocked(snap Snapshot) {
	if c.hooks.OnChange != nil {
		c.hooks.OnChange(snap)
	}
}

func (c *Card) emitTransition(snap Snapshot) {
	if c.hooks.OnTransition != nil {
		c.hooks.OnTransition(snap)
	}
}
