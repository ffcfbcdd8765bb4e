package mideployer

import (
	"errors"
	"log/slog"
	"time"
)

// config holds mutable state during MiDeployer construction.
type config struct {
	title           string
	products        []Product
	users           []User
	usersSet        bool
	port            int
	tickInterval    time.Duration
	countdown       int
	logger          *slog.Logger
	deployCallbacks []func(DeployEvent)
}

// Option is a function that configures a [MiDeployer] instance during construction.
//
// Options return an error if validation fails.
type Option func(*config) error

// WithProduct adds a [Product] to the board.
//
// Can be called multiple times; products are shown in the order added.
// When no product is added, the built-in catalog is used.
func WithProduct(p Product) Option {
	return func(cfg *config) error {
		if p.name == "" {
			return errors.New("product must be created with NewProduct")
		}
		cfg.products = append(cfg.products, p)
		return nil
	}
}

// WithProducts adds several products to the board.
// Equivalent to calling [WithProduct] for each.
func WithProducts(products ...Product) Option {
	return func(cfg *config) error {
		for _, p := range products {
			if err := WithProduct(p)(cfg); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithUsers replaces the user directory offered on every card.
//
// When not used, the built-in users.json is used. Passing no users is
// allowed but leaves every Deploy button disabled.
func WithUsers(users ...User) Option {
	return func(cfg *config) error {
		cfg.users = append([]User(nil), users...)
		cfg.usersSet = true
		return nil
	}
}

// WithPort sets the HTTP port for the dashboard server.
//
// Defaults to 8080 if not specified.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *config) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithTitle sets the dashboard title displayed in the browser tab and header.
//
// If not specified, defaults to "miDeployer".
func WithTitle(title string) Option {
	return func(cfg *config) error {
		cfg.title = title
		return nil
	}
}

// WithLogger sets a custom [slog.Logger].
//
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithTickInterval sets how long one countdown step takes.
//
// Defaults to one second. Shorter intervals are mostly useful in tests
// and demos.
//
// Returns an error if the duration is zero or negative.
func WithTickInterval(d time.Duration) Option {
	return func(cfg *config) error {
		if d <= 0 {
			return errors.New("tick interval must be positive")
		}
		cfg.tickInterval = d
		return nil
	}
}

// WithCountdown sets how many ticks a simulated deploy takes.
//
// Defaults to 9.
//
// Returns an error if n is less than 1.
func WithCountdown(n int) Option {
	return func(cfg *config) error {
		if n < 1 {
			return errors.New("countdown must be at least 1")
		}
		cfg.countdown = n
		return nil
	}
}

// WithDeployCallback registers a function called when a deploy starts and
// when it finishes.
//
// Multiple callbacks may be registered; they execute in registration order.
//
// IMPORTANT: Callbacks must be non-blocking. The finish event is delivered
// from the card's countdown goroutine. Panics within callbacks are
// recovered and logged.
//
// Nil callbacks are silently ignored.
func WithDeployCallback(cb func(DeployEvent)) Option {
	return func(cfg *config) error {
		if cb == nil {
			return nil
		}
		cfg.deployCallbacks = append(cfg.deployCallbacks, cb)
		return nil
	}
}
