// ABOUTME: Engine state as a tagged value
// ABOUTME: Phase enum plus the stop boundary carried while awaiting stop
package looper

import (
	"fmt"
	"time"
)

// Phase enumerates the engine states.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRecording
	PhaseAwaitingStop
	PhaseLooping
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRecording:
		return "recording"
	case PhaseAwaitingStop:
		return "awaitingStop"
	case PhaseLooping:
		return "looping"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// State is the engine's tagged state value: the phase plus the data that
// phase carries. StopAt is meaningful only while awaiting stop, where it
// holds the host time the loop window ends.
type State struct {
	Phase  Phase
	StopAt time.Duration
}

// String renders the state, including the stop boundary when it applies.
func (s State) String() string {
	if s.Phase == PhaseAwaitingStop {
		return fmt.Sprintf("awaitingStop(%v)", s.StopAt)
	}
	return s.Phase.String()
}
