package mideployer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jpalmerr/mideployer/catalog"
	"github.com/jpalmerr/mideployer/dashboard"
	"github.com/jpalmerr/mideployer/internal/deploy"
	"github.com/jpalmerr/mideployer/internal/server"
	"github.com/jpalmerr/mideployer/internal/store"
)

const (
	defaultPort         = 8080
	defaultTickInterval = time.Second
	defaultTitle        = "miDeployer"
)

// MiDeployer serves the deploy board.
//
// It is created using [New] with functional options and started with
// [MiDeployer.Start]. Every call to Start builds a fresh board: card state
// lives only as long as the run.
type MiDeployer struct {
	title           string
	products        []Product
	users           []User
	directory       *deploy.Directory
	port            int
	tickInterval    time.Duration
	countdown       int
	logger          *slog.Logger
	deployCallbacks []func(DeployEvent)
}

// New creates a new [MiDeployer] instance with the given options.
//
// Defaults:
//   - Products and users: the built-in catalog
//   - Port: 8080
//   - Tick interval: 1 second
//   - Countdown: 9 ticks
//
// Returns an error if any option is invalid or a hostname appears in more
// than one product.
func New(opts ...Option) (*MiDeployer, error) {
	cfg := &config{
		port:         defaultPort,
		tickInterval: defaultTickInterval,
		countdown:    deploy.DefaultCountdown,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if len(cfg.products) == 0 {
		products, err := DefaultProducts()
		if err != nil {
			return nil, fmt.Errorf("built-in catalog: %w", err)
		}
		cfg.products = products
	}

	// hostnames key the cards, so they must be unique across products
	seen := make(map[string]string)
	for _, p := range cfg.products {
		for _, host := range p.servers {
			if other, exists := seen[host]; exists {
				return nil, fmt.Errorf("duplicate server %q in products %q and %q", host, other, p.name)
			}
			seen[host] = p.name
		}
	}

	users := cfg.users
	if !cfg.usersSet {
		var err error
		users, err = DefaultUsers()
		if err != nil {
			return nil, fmt.Errorf("built-in users: %w", err)
		}
	}
	directory, err := toDirectory(users)
	if err != nil {
		return nil, err
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	title := cfg.title
	if title == "" {
		title = defaultTitle
	}

	return &MiDeployer{
		title:           title,
		products:        cfg.products,
		users:           fromDirectory(directory),
		directory:       directory,
		port:            cfg.port,
		tickInterval:    cfg.tickInterval,
		countdown:       cfg.countdown,
		logger:          logger,
		deployCallbacks: cfg.deployCallbacks,
	}, nil
}

// DefaultProducts returns the built-in product catalog.
func DefaultProducts() ([]Product, error) {
	entries := catalog.Products()
	products := make([]Product, 0, len(entries))
	for _, e := range entries {
		p, err := NewProduct(e.Name, e.Servers...)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

// DefaultUsers returns the built-in user directory.
func DefaultUsers() ([]User, error) {
	return ParseUsers(catalog.Users)
}

// Start builds the board and serves the dashboard.
//
// Start is a blocking call that runs until the provided context is
// cancelled. On return every card has been closed, so no countdown is left
// running.
//
// Returns nil on graceful shutdown. Returns an error if the HTTP server
// fails to start.
func (m *MiDeployer) Start(ctx context.Context) error {
	m.logger.Info("mideployer starting",
		"products", len(m.products),
		"servers", m.serverCount(),
		"users", m.directory.Len(),
	)
	m.logger.Info("countdown configured",
		"ticks", m.countdown,
		"tick_interval", m.tickInterval.String(),
	)

	if ctx.Err() != nil {
		return nil
	}

	cardStore := store.NewMemoryStore()
	board, err := m.newBoard(cardStore)
	if err != nil {
		return err
	}
	defer board.Close()

	ctrl := &boardController{board: board, title: m.title}
	httpServer := server.NewServer(cardStore, ctrl, m.port, dashboard.Assets, m.title, m.logger)
	if err := httpServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	m.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", m.port))

	<-ctx.Done()
	m.logger.Info("mideployer stopped")
	return nil
}

// newBoard creates the cards and seeds st with their initial snapshots.
func (m *MiDeployer) newBoard(st store.Store) (*deploy.Board, error) {
	groups := make([]deploy.Group, len(m.products))
	for i, p := range m.products {
		groups[i] = deploy.Group{Product: p.name, Hostnames: p.Servers()}
	}

	board, err := deploy.NewBoard(deploy.BoardConfig{
		Groups:       groups,
		Directory:    m.directory,
		Countdown:    m.countdown,
		TickInterval: m.tickInterval,
		Logger:       m.logger,
		Hooks: deploy.Hooks{
			OnChange: func(s deploy.Snapshot) {
				st.Update(toCardState(s))
			},
			OnTransition: m.dispatchDeployEvent,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build board: %w", err)
	}

	for _, snap := range board.Snapshots() {
		st.Update(toCardState(snap))
	}
	return board, nil
}

// dispatchDeployEvent hands a deploy start or finish to the callbacks.
func (m *MiDeployer) dispatchDeployEvent(s deploy.Snapshot) {
	if len(m.deployCallbacks) == 0 || s.Request == nil {
		return
	}

	event := toDeployEvent(s)
	for _, cb := range m.deployCallbacks {
		invokeCallbackSafe(cb, event, m.logger)
	}
}

// Products returns a copy of the configured products.
func (m *MiDeployer) Products() []Product {
	cp := make([]Product, len(m.products))
	copy(cp, m.products)
	return cp
}

// Users returns a copy of the user directory.
func (m *MiDeployer) Users() []User {
	cp := make([]User, len(m.users))
	copy(cp, m.users)
	return cp
}

// Port returns the configured HTTP port for the dashboard server.
func (m *MiDeployer) Port() int {
	return m.port
}

// Title returns the dashboard title.
func (m *MiDeployer) Title() string {
	return m.title
}

// TickInterval returns the duration of one countdown step.
func (m *MiDeployer) TickInterval() time.Duration {
	return m.tickInterval
}

// Countdown returns the number of ticks a deploy takes.
func (m *MiDeployer) Countdown() int {
	return m.countdown
}

func (m *MiDeployer) serverCount() int {
	n := 0
	for _, p := range m.products {
		n += len(p.servers)
	}
	return n
}

// invokeCallbackSafe calls a deploy callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(cb func(DeployEvent), event DeployEvent, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("deploy callback panicked",
				"panic", r,
				"hostname", event.Hostname,
				"deploy_id", event.DeployID,
			)
		}
	}()
	cb(event)
}
