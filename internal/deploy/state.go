package deploy

import "fmt"

// DefaultCountdown is the number of ticks a simulated deploy takes.
const DefaultCountdown = 9

// Phase is the deploy phase of a card.
type Phase string

const (
	// PhaseIdle means the card has never been deployed.
	PhaseIdle Phase = "idle"

	// PhaseDeploying means a countdown is running.
	PhaseDeploying Phase = "deploying"

	// PhaseDeployed means the last countdown finished.
	PhaseDeployed Phase = "deployed"
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	return string(p)
}

// Event is an input to the card state machine.
type Event int

const (
	// EventDeploy is the operator pressing Deploy.
	EventDeploy Event = iota

	// EventTick is one countdown interval elapsing.
	EventTick
)

// String returns a readable event name for logs.
func (e Event) String() string {
	switch e {
	case EventDeploy:
		return "deploy"
	case EventTick:
		return "tick"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// State is the deploy state of a card.
type State struct {
	Phase     Phase
	Countdown int
}

// InitialState returns the idle state with the countdown at start.
func InitialState(start int) State {
	return State{Phase: PhaseIdle, Countdown: start}
}

// Next returns the state that follows s on event ev. start is the value the
// countdown begins from and is reset to.
//
// Deploy is ignored while deploying. Ticks are ignored unless deploying.
// The tick that would take the countdown to zero moves the card straight
// to deployed, so a deploying state never carries a zero countdown.
func Next(s State, ev Event, start int) State {
	switch ev {
	case EventDeploy:
		if s.Phase == PhaseDeploying {
			return s
		}
		return State{Phase: PhaseDeploying, Countdown: start}

	case EventTick:
		if s.Phase != PhaseDeploying {
			return s
		}
		if s.Countdown <= 1 {
			return State{Phase: PhaseDeployed, Countdown: start}
		}
		return State{Phase: PhaseDeploying, Countdown: s.Countdown - 1}
	}

	return s
}

// OverlayText formats the deploying overlay for a countdown value, e.g.
// "Deploying... 00:00:07".
func OverlayText(countdown int) string {
	if countdown < 0 {
		countdown = 0
	}
	h := countdown / 3600
	m := (countdown % 3600) / 60
	s := countdown % 60
	return fmt.Sprintf("Deploying... %02d:%02d:%02d", h, m, s)
}
