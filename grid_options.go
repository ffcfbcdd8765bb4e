package mideployer

import (
	"errors"
	"fmt"
)

// gridConfig holds configuration during product grid construction.
type gridConfig struct {
	hostTemplate string
	dimensions   map[string][]string
}

// GridOption configures product grid generation.
// GridOption implements the functional options pattern for [NewProductGrid].
type GridOption func(*gridConfig) error

// WithHostTemplate sets the hostname template for server generation.
// The template uses Go's text/template syntax with dimension keys as variables.
//
// Example:
//
//	WithHostTemplate("test.{{.env}}.corporate.tube")
//
// Returns an error if the template string is empty.
func WithHostTemplate(tmpl string) GridOption {
	return func(cfg *gridConfig) error {
		if tmpl == "" {
			return errors.New("host template required")
		}
		cfg.hostTemplate = tmpl
		return nil
	}
}

// WithDimensions sets the dimension values for cartesian product expansion.
// Each key in the map becomes a template variable.
//
// Example:
//
//	WithDimensions(map[string][]string{
//	    "env": {"qa1", "qa2", "qa3"},
//	})
//
// Returns an error if the map is empty, any dimension has no values,
// or any value is an empty string.
func WithDimensions(dims map[string][]string) GridOption {
	return func(cfg *gridConfig) error {
		if len(dims) == 0 {
			return errors.New("at least one dimension required")
		}
		for k, vals := range dims {
			if len(vals) == 0 {
				return fmt.Errorf("dimension '%s' has no values", k)
			}
			for i, v := range vals {
				if v == "" {
					return fmt.Errorf("dimension '%s' contains empty value at index %d", k, i)
				}
			}
		}
		cfg.dimensions = dims
		return nil
	}
}
