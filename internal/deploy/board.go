package deploy

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Group is a product and its servers, in display order.
type Group struct {
	Product   string
	Hostnames []string
}

// BoardConfig describes a [Board].
type BoardConfig struct {
	Groups       []Group
	Directory    *Directory
	Countdown    int
	TickInterval time.Duration
	Logger       *slog.Logger
	Hooks        Hooks
}

// Board holds one [Card] per configured hostname.
//
// The board itself has no deploy state; it only routes operations to the
// card for a hostname.
type Board struct {
	groups    []Group
	directory *Directory
	cards     []*Card
	byHost    map[string]*Card

	closeOnce sync.Once
}

// NewBoard creates a board and all of its cards.
//
// Returns an error if there are no groups, a product has no name or no
// servers, or a hostname appears twice.
func NewBoard(cfg BoardConfig) (*Board, error) {
	if len(cfg.Groups) == 0 {
		return nil, errors.New("at least one product is required")
	}
	if cfg.Directory == nil {
		return nil, errors.New("user directory is required")
	}

	b := &Board{
		groups:    make([]Group, 0, len(cfg.Groups)),
		directory: cfg.Directory,
		byHost:    make(map[string]*Card),
	}

	position := 0
	for i, g := range cfg.Groups {
		if strings.TrimSpace(g.Product) == "" {
			return nil, fmt.Errorf("products[%d]: name is required", i)
		}
		if len(g.Hostnames) == 0 {
			return nil, fmt.Errorf("products[%d] (%s): at least one server is required", i, g.Product)
		}

		hosts := make([]string, len(g.Hostnames))
		copy(hosts, g.Hostnames)

		for _, host := range hosts {
			if strings.TrimSpace(host) == "" {
				return nil, fmt.Errorf("products[%d] (%s): hostname cannot be empty", i, g.Product)
			}
			if _, exists := b.byHost[host]; exists {
				return nil, fmt.Errorf("products[%d] (%s): duplicate server %q", i, g.Product, host)
			}

			card := NewCard(CardConfig{
				Product:      g.Product,
				Hostname:     host,
				Position:     position,
				Directory:    cfg.Directory,
				Countdown:    cfg.Countdown,
				TickInterval: cfg.TickInterval,
				Logger:       cfg.Logger,
				Hooks:        cfg.Hooks,
			})
			b.cards = append(b.cards, card)
			b.byHost[host] = card
			position++
		}

		b.groups = append(b.groups, Group{Product: g.Product, Hostnames: hosts})
	}

	return b, nil
}

// Card returns the card for hostname.
func (b *Board) Card(hostname string) (*Card, error) {
	card, ok := b.byHost[hostname]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownServer, hostname)
	}
	return card, nil
}

// Cards returns all cards in board order.
func (b *Board) Cards() []*Card {
	cp := make([]*Card, len(b.cards))
	copy(cp, b.cards)
	return cp
}

// Groups returns a copy of the product groups.
func (b *Board) Groups() []Group {
	cp := make([]Group, len(b.groups))
	for i, g := range b.groups {
		hosts := make([]string, len(g.Hostnames))
		copy(hosts, g.Hostnames)
		cp[i] = Group{Product: g.Product, Hostnames: hosts}
	}
	return cp
}

// Directory returns the board's user directory.
func (b *Board) Directory() *Directory {
	return b.directory
}

// Snapshots returns a snapshot of every card in board order.
func (b *Board) Snapshots() []Snapshot {
	snaps := make([]Snapshot, len(b.cards))
	for i, card := range b.cards {
		snaps[i] = card.Snapshot()
	}
	return snaps
}

// SelectUser selects a user on the card for hostname.
func (b *Board) SelectUser(hostname, userID string) (Snapshot, error) {
	card, err := b.Card(hostname)
	if err != nil {
		return Snapshot{}, err
	}
	return card.SelectUser(userID)
}

// SetBranch sets the branch on the card for hostname.
func (b *Board) SetBranch(hostname, branch string) (Snapshot, error) {
	card, err := b.Card(hostname)
	if err != nil {
		return Snapshot{}, err
	}
	return card.SetBranch(branch)
}

// SetRunTests sets the run-tests flag on the card for hostname.
func (b *Board) SetRunTests(hostname string, on bool) (Snapshot, error) {
	card, err := b.Card(hostname)
	if err != nil {
		return Snapshot{}, err
	}
	return card.SetRunTests(on)
}

// Deploy starts a deploy on the card for hostname.
func (b *Board) Deploy(hostname string) (Snapshot, error) {
	card, err := b.Card(hostname)
	if err != nil {
		return Snapshot{}, err
	}
	return card.Deploy()
}

// Close closes every card, stopping all running countdowns.
func (b *Board) Close() {
	b.closeOnce.Do(func() {
		for _, card := range b.cards {
			card.Close()
		}
	})
}
