package deploy

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

const testTick = 10 * time.Millisecond

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testDirectory(t *testing.T) *Directory {
	t.Helper()
	dir, err := NewDirectory([]User{
		{ID: "1", FirstName: "Ada", LastName: "Lovelace"},
		{ID: "3", FirstName: "Grace", LastName: "Hopper"},
	})
	if err != nil {
		t.Fatalf("NewDirectory() error = %v", err)
	}
	return dir
}

// recorder collects snapshots from card hooks.
type recorder struct {
	mu          sync.Mutex
	changes     []Snapshot
	transitions []Snapshot
}

func (r *recorder) hooks() Hooks {
	return Hooks{
		OnChange: func(s Snapshot) {
			r.mu.Lock()
			r.changes = append(r.changes, s)
			r.mu.Unlock()
		},
		OnTransition: func(s Snapshot) {
			r.mu.Lock()
			r.transitions = append(r.transitions, s)
			r.mu.Unlock()
		},
	}
}

func (r *recorder) snapshotChanges() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]Snapshot, len(r.changes))
	copy(cp, r.changes)
	return cp
}

func (r *recorder) snapshotTransitions() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]Snapshot, len(r.transitions))
	copy(cp, r.transitions)
	return cp
}

func newTestCard(t *testing.T, hooks Hooks) *Card {
	t.Helper()
	card := NewCard(CardConfig{
		Product:      "CorporateTube",
		Hostname:     "test.qa1.corporate.tube",
		Directory:    testDirectory(t),
		TickInterval: testTick,
		Logger:       testLogger(),
		Hooks:        hooks,
	})
	t.Cleanup(card.Close)
	return card
}

// waitForPhase polls until the card reaches phase or the timeout expires.
func waitForPhase(t *testing.T, card *Card, phase Phase, timeout time.Duration) Snapshot {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		snap := card.Snapshot()
		if snap.State.Phase == phase {
			return snap
		}
		time.Sleep(testTick / 2)
	}
	t.Fatalf("card did not reach phase %s within %s (at %+v)", phase, timeout, card.Snapshot().State)
	return Snapshot{}
}

func readyCard(t *testing.T, card *Card) {
	t.Helper()
	if _, err := card.SelectUser("3"); err != nil {
		t.Fatalf("SelectUser() error = %v", err)
	}
	if _, err := card.SetBranch("release/1.2"); err != nil {
		t.Fatalf("SetBranch() error = %v", err)
	}
}

func TestNewCard_Defaults(t *testing.T) {
	card := NewCard(CardConfig{Hostname: "h"})
	defer card.Close()

	snap := card.Snapshot()
	if snap.State != InitialState(DefaultCountdown) {
		t.Errorf("initial state = %+v, want idle at %d", snap.State, DefaultCountdown)
	}
	if snap.CanDeploy {
		t.Error("CanDeploy = true on a fresh card")
	}
	if snap.Link() != "https://h/" {
		t.Errorf("Link() = %q, want %q", snap.Link(), "https://h/")
	}
	if snap.Overlay() != "" || snap.JobLink() != "" {
		t.Errorf("idle card has overlay %q / job link %q", snap.Overlay(), snap.JobLink())
	}
	if card.tickInterval != time.Second {
		t.Errorf("tick interval = %s, want 1s", card.tickInterval)
	}
}

func TestCard_SelectUser(t *testing.T) {
	card := newTestCard(t, Hooks{})

	if _, err := card.SelectUser("99"); !errors.Is(err, ErrUnknownUser) {
		t.Errorf("SelectUser(99) error = %v, want ErrUnknownUser", err)
	}

	snap, err := card.SelectUser("3")
	if err != nil {
		t.Fatalf("SelectUser(3) error = %v", err)
	}
	if snap.UserID != "3" {
		t.Errorf("UserID = %q, want 3", snap.UserID)
	}

	// unassign
	snap, err = card.SelectUser("")
	if err != nil {
		t.Fatalf("SelectUser(\"\") error = %v", err)
	}
	if snap.UserID != "" {
		t.Errorf("UserID = %q after unassign, want empty", snap.UserID)
	}
}

func TestCard_CanDeployRequiresUserAndBranch(t *testing.T) {
	tests := []struct {
		name    string
		user    string
		branch  string
		want    bool
		wantErr error
	}{
		{name: "nothing set", want: false, wantErr: ErrMissingUser},
		{name: "user only", user: "1", want: false, wantErr: ErrMissingBranch},
		{name: "branch only", branch: "main", want: false, wantErr: ErrMissingUser},
		{name: "both set", user: "1", branch: "main", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := newTestCard(t, Hooks{})
			_, _ = card.SelectUser(tt.user)
			_, _ = card.SetBranch(tt.branch)

			if got := card.CanDeploy(); got != tt.want {
				t.Errorf("CanDeploy() = %v, want %v", got, tt.want)
			}
			if got := card.Snapshot().CanDeploy; got != tt.want {
				t.Errorf("Snapshot().CanDeploy = %v, want %v", got, tt.want)
			}

			if tt.wantErr == nil {
				return
			}
			snap, err := card.Deploy()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Deploy() error = %v, want %v", err, tt.wantErr)
			}
			if snap.State.Phase != PhaseIdle {
				t.Errorf("rejected Deploy() changed phase to %s", snap.State.Phase)
			}
		})
	}
}

func TestCard_DeployRunsCountdown(t *testing.T) {
	rec := &recorder{}
	card := newTestCard(t, rec.hooks())
	readyCard(t, card)
	if _, err := card.SetRunTests(true); err != nil {
		t.Fatalf("SetRunTests() error = %v", err)
	}

	snap, err := card.Deploy()
	if err != nil {
		t.Fatalf("Deploy() error = %v", err)
	}
	if snap.State != (State{Phase: PhaseDeploying, Countdown: 9}) {
		t.Errorf("state after Deploy() = %+v, want deploying at 9", snap.State)
	}
	if snap.CanDeploy {
		t.Error("CanDeploy = true while deploying")
	}
	if snap.Overlay() != "Deploying... 00:00:09" {
		t.Errorf("Overlay() = %q", snap.Overlay())
	}
	if snap.Request == nil {
		t.Fatal("Request = nil after Deploy()")
	}
	if snap.Request.UserID != "3" || snap.Request.Branch != "release/1.2" || !snap.Request.RunTests {
		t.Errorf("Request = %+v, want user 3, branch release/1.2, run tests", snap.Request)
	}
	if snap.Request.ID == "" {
		t.Error("Request.ID is empty")
	}

	done := waitForPhase(t, card, PhaseDeployed, 2*time.Second)
	if done.State.Countdown != DefaultCountdown {
		t.Errorf("countdown after completion = %d, want %d", done.State.Countdown, DefaultCountdown)
	}
	if done.JobLink() != "#" {
		t.Errorf("JobLink() = %q, want #", done.JobLink())
	}
	if done.Overlay() != "" {
		t.Errorf("Overlay() = %q after completion, want empty", done.Overlay())
	}
	if !done.CanDeploy {
		t.Error("CanDeploy = false after completion")
	}

	// deploying snapshots must count 9..1 strictly by one
	var countdowns []int
	for _, s := range rec.snapshotChanges() {
		if s.State.Phase == PhaseDeploying {
			countdowns = append(countdowns, s.State.Countdown)
		}
	}
	if len(countdowns) != 9 {
		t.Fatalf("deploying snapshots = %v, want 9 values", countdowns)
	}
	for i, c := range countdowns {
		if c != 9-i {
			t.Errorf("countdowns[%d] = %d, want %d", i, c, 9-i)
		}
	}

	transitions := rec.snapshotTransitions()
	if len(transitions) != 2 {
		t.Fatalf("transitions = %d, want 2", len(transitions))
	}
	if transitions[0].State.Phase != PhaseDeploying || transitions[1].State.Phase != PhaseDeployed {
		t.Errorf("transition phases = %s, %s", transitions[0].State.Phase, transitions[1].State.Phase)
	}
	if transitions[0].Request.ID != transitions[1].Request.ID {
		t.Error("start and finish transitions carry different request ids")
	}
}

func TestCard_DeployWhileDeployingRejected(t *testing.T) {
	card := newTestCard(t, Hooks{})
	readyCard(t, card)

	first, err := card.Deploy()
	if err != nil {
		t.Fatalf("Deploy() error = %v", err)
	}

	snap, err := card.Deploy()
	if !errors.Is(err, ErrDeployInProgress) {
		t.Errorf("second Deploy() error = %v, want ErrDeployInProgress", err)
	}
	if snap.Request.ID != first.Request.ID {
		t.Error("rejected Deploy() replaced the request")
	}
}

func TestCard_RedeployClearsDeployed(t *testing.T) {
	card := newTestCard(t, Hooks{})
	readyCard(t, card)

	if _, err := card.Deploy(); err != nil {
		t.Fatalf("Deploy() error = %v", err)
	}
	first := waitForPhase(t, card, PhaseDeployed, 2*time.Second)

	snap, err := card.Deploy()
	if err != nil {
		t.Fatalf("redeploy error = %v", err)
	}
	if snap.State.Phase != PhaseDeploying || snap.State.Countdown != 9 {
		t.Errorf("state after redeploy = %+v, want deploying at 9", snap.State)
	}
	if snap.JobLink() != "" {
		t.Error("job link still shown after redeploy")
	}
	if snap.Request.ID == first.Request.ID {
		t.Error("redeploy reused the previous request id")
	}

	waitForPhase(t, card, PhaseDeployed, 2*time.Second)
}

func TestCard_CloseStopsCountdown(t *testing.T) {
	rec := &recorder{}
	card := newTestCard(t, rec.hooks())
	readyCard(t, card)

	if _, err := card.Deploy(); err != nil {
		t.Fatalf("Deploy() error = %v", err)
	}
	time.Sleep(3 * testTick)

	card.Close()
	after := len(rec.snapshotChanges())

	time.Sleep(15 * testTick)
	if got := len(rec.snapshotChanges()); got != after {
		t.Errorf("card changed %d times after Close()", got-after)
	}
	if card.Snapshot().State.Phase != PhaseDeploying {
		t.Errorf("closed card phase = %s, want frozen at deploying", card.Snapshot().State.Phase)
	}

	if _, err := card.Deploy(); !errors.Is(err, ErrCardClosed) {
		t.Errorf("Deploy() after Close() error = %v, want ErrCardClosed", err)
	}
	if _, err := card.SetBranch("x"); !errors.Is(err, ErrCardClosed) {
		t.Errorf("SetBranch() after Close() error = %v, want ErrCardClosed", err)
	}
	if card.CanDeploy() {
		t.Error("CanDeploy() = true on closed card")
	}

	// idempotent
	card.Close()
}

func TestCard_StaleTickIgnored(t *testing.T) {
	card := newTestCard(t, Hooks{})
	readyCard(t, card)

	if _, err := card.Deploy(); err != nil {
		t.Fatalf("Deploy() error = %v", err)
	}

	// a tick from an earlier run must not touch the card
	if card.tick(0) {
		t.Error("tick(stale run) = true, want false")
	}
	if got := card.Snapshot().State.Countdown; got != 9 {
		t.Errorf("countdown = %d after stale tick, want 9", got)
	}
}

func TestCard_SettingsDuringDeployKeepRequest(t *testing.T) {
	card := newTestCard(t, Hooks{})
	readyCard(t, card)

	started, err := card.Deploy()
	if err != nil {
		t.Fatalf("Deploy() error = %v", err)
	}

	snap, err := card.SetBranch("feature/other")
	if err != nil {
		t.Fatalf("SetBranch() error = %v", err)
	}
	if snap.Request.Branch != started.Request.Branch {
		t.Errorf("in-flight request branch = %q, want %q", snap.Request.Branch, started.Request.Branch)
	}
}
