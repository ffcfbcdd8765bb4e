package deploy

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func testGroups() []Group {
	return []Group{
		{Product: "CorporateTube", Hostnames: []string{"test.qa1.corporate.tube", "test.qa2.corporate.tube"}},
		{Product: "WebCast", Hostnames: []string{"webcast-stg.movingimage.com"}},
	}
}

func newTestBoard(t *testing.T) *Board {
	t.Helper()
	board, err := NewBoard(BoardConfig{
		Groups:       testGroups(),
		Directory:    testDirectory(t),
		TickInterval: testTick,
		Logger:       testLogger(),
	})
	if err != nil {
		t.Fatalf("NewBoard() error = %v", err)
	}
	t.Cleanup(board.Close)
	return board
}

func TestNewBoard(t *testing.T) {
	board := newTestBoard(t)

	cards := board.Cards()
	if len(cards) != 3 {
		t.Fatalf("Cards() = %d, want 3", len(cards))
	}

	snaps := board.Snapshots()
	wantHosts := []string{"test.qa1.corporate.tube", "test.qa2.corporate.tube", "webcast-stg.movingimage.com"}
	for i, host := range wantHosts {
		if snaps[i].Hostname != host {
			t.Errorf("Snapshots()[%d].Hostname = %q, want %q", i, snaps[i].Hostname, host)
		}
		if snaps[i].Position != i {
			t.Errorf("Snapshots()[%d].Position = %d, want %d", i, snaps[i].Position, i)
		}
	}
	if snaps[2].Product != "WebCast" {
		t.Errorf("Snapshots()[2].Product = %q, want WebCast", snaps[2].Product)
	}
}

func TestNewBoard_Errors(t *testing.T) {
	dir, _ := NewDirectory(nil)

	tests := []struct {
		name    string
		cfg     BoardConfig
		wantErr string
	}{
		{
			name:    "no groups",
			cfg:     BoardConfig{Directory: dir},
			wantErr: "at least one product",
		},
		{
			name:    "no directory",
			cfg:     BoardConfig{Groups: testGroups()},
			wantErr: "user directory",
		},
		{
			name:    "empty product name",
			cfg:     BoardConfig{Directory: dir, Groups: []Group{{Hostnames: []string{"a"}}}},
			wantErr: "products[0]: name is required",
		},
		{
			name:    "no servers",
			cfg:     BoardConfig{Directory: dir, Groups: []Group{{Product: "P"}}},
			wantErr: "at least one server",
		},
		{
			name:    "empty hostname",
			cfg:     BoardConfig{Directory: dir, Groups: []Group{{Product: "P", Hostnames: []string{" "}}}},
			wantErr: "hostname cannot be empty",
		},
		{
			name: "duplicate hostname across products",
			cfg: BoardConfig{Directory: dir, Groups: []Group{
				{Product: "A", Hostnames: []string{"h"}},
				{Product: "B", Hostnames: []string{"h"}},
			}},
			wantErr: `products[1] (B): duplicate server "h"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBoard(tt.cfg)
			if err == nil {
				t.Fatal("NewBoard() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestBoard_UnknownServer(t *testing.T) {
	board := newTestBoard(t)

	if _, err := board.Deploy("nope"); !errors.Is(err, ErrUnknownServer) {
		t.Errorf("Deploy(nope) error = %v, want ErrUnknownServer", err)
	}
	if _, err := board.SelectUser("nope", "1"); !errors.Is(err, ErrUnknownServer) {
		t.Errorf("SelectUser(nope) error = %v, want ErrUnknownServer", err)
	}
	if _, err := board.SetBranch("nope", "main"); !errors.Is(err, ErrUnknownServer) {
		t.Errorf("SetBranch(nope) error = %v, want ErrUnknownServer", err)
	}
	if _, err := board.SetRunTests("nope", true); !errors.Is(err, ErrUnknownServer) {
		t.Errorf("SetRunTests(nope) error = %v, want ErrUnknownServer", err)
	}
}

// TestBoard_CardsAreIndependent verifies that deploying one server does not
// change any other card.
func TestBoard_CardsAreIndependent(t *testing.T) {
	board := newTestBoard(t)
	target := "test.qa1.corporate.tube"

	before := board.Snapshots()

	if _, err := board.SelectUser(target, "3"); err != nil {
		t.Fatalf("SelectUser() error = %v", err)
	}
	if _, err := board.SetBranch(target, "release/1.2"); err != nil {
		t.Fatalf("SetBranch() error = %v", err)
	}
	if _, err := board.Deploy(target); err != nil {
		t.Fatalf("Deploy() error = %v", err)
	}

	card, _ := board.Card(target)
	waitForPhase(t, card, PhaseDeployed, 2*time.Second)

	after := board.Snapshots()
	for i := range after {
		if after[i].Hostname == target {
			continue
		}
		if after[i].State != before[i].State || after[i].UserID != "" || after[i].Branch != "" {
			t.Errorf("card %s changed: %+v", after[i].Hostname, after[i])
		}
	}
}

func TestBoard_GroupsReturnsCopy(t *testing.T) {
	board := newTestBoard(t)

	groups := board.Groups()
	groups[0].Hostnames[0] = "changed"

	if board.Groups()[0].Hostnames[0] != "test.qa1.corporate.tube" {
		t.Error("mutation of Groups() leaked into board")
	}
}

func TestBoard_CloseStopsAllCards(t *testing.T) {
	board := newTestBoard(t)

	for _, card := range board.Cards() {
		readyCard(t, card)
		if _, err := card.Deploy(); err != nil {
			t.Fatalf("Deploy() error = %v", err)
		}
	}

	board.Close()
	board.Close()

	for _, card := range board.Cards() {
		if _, err := card.Deploy(); !errors.Is(err, ErrCardClosed) {
			t.Errorf("%s: Deploy() after Close() error = %v, want ErrCardClosed", card.Hostname(), err)
		}
	}
}
