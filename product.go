package mideployer

import (
	"errors"
	"fmt"
	"strings"
)

// Product is a named group of servers, shown together on the board.
//
// Product is immutable after creation via [NewProduct] or [NewProductGrid].
type Product struct {
	name    string
	servers []string
}

// Name returns the product's display name.
func (p Product) Name() string {
	return p.name
}

// Servers returns a copy of the product's hostnames in display order.
func (p Product) Servers() []string {
	cp := make([]string, len(p.servers))
	copy(cp, p.servers)
	return cp
}

// NewProduct creates a [Product] from a name and its hostnames.
//
// Hostnames are bare hosts such as "test.qa1.corporate.tube"; the card
// links to https://{hostname}/.
//
// Returns an error if the name is empty, no hostnames are given, or a
// hostname is invalid or repeated.
func NewProduct(name string, servers ...string) (Product, error) {
	if strings.TrimSpace(name) == "" {
		return Product{}, errors.New("product name cannot be empty")
	}
	if len(servers) == 0 {
		return Product{}, fmt.Errorf("product %q: at least one server is required", name)
	}

	seen := make(map[string]struct{}, len(servers))
	for _, s := range servers {
		if err := validateHostname(s); err != nil {
			return Product{}, fmt.Errorf("product %q: %w", name, err)
		}
		if _, dup := seen[s]; dup {
			return Product{}, fmt.Errorf("product %q: duplicate server %q", name, s)
		}
		seen[s] = struct{}{}
	}

	cp := make([]string, len(servers))
	copy(cp, servers)
	return Product{name: name, servers: cp}, nil
}

// validateHostname rejects values that cannot be used as https://{host}/.
func validateHostname(host string) error {
	switch {
	case host == "":
		return errors.New("hostname cannot be empty")
	case strings.Contains(host, "://"):
		return fmt.Errorf("hostname %q must not include a scheme", host)
	case strings.ContainsAny(host, "/?# \t\r\n"):
		return fmt.Errorf("hostname %q contains invalid characters", host)
	}
	return nil
}
