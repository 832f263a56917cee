package dictation

import "fmt"

// Phase is the workflow position of the orchestrator. It is a closed set;
// Message on State carries the human-readable detail for PhaseError.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRecording
	PhaseProcessing
	PhaseSuccess
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRecording:
		return "recording"
	case PhaseProcessing:
		return "processing"
	case PhaseSuccess:
		return "success"
	case PhaseError:
		return "error"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// State is the single source of truth for workflow progress. Exactly one
// State exists per orchestrator; all reads and writes are serialized
// through the orchestrator's run loop.
type State struct {
	Phase   Phase
	Message string
}

func (s State) String() string {
	if s.Message == "" {
		return s.Phase.String()
	}
	return s.Phase.String() + ": " + s.Message
}

// validEdges is the complete set of admissible transitions. Success and
// Error both admit Recording so a hotkey press can immediately re-trigger
// or retry without waiting for the timed revert to Idle.
var validEdges = map[Phase][]Phase{
	PhaseIdle:       {PhaseRecording},
	PhaseRecording:  {PhaseProcessing, PhaseIdle, PhaseError},
	PhaseProcessing: {PhaseSuccess, PhaseError},
	PhaseSuccess:    {PhaseIdle, PhaseRecording},
	PhaseError:      {PhaseIdle, PhaseRecording},
}

// CanTransition reports whether moving from to next is admissible. A
// rejected transition is a silent no-op for the caller; nothing in the
// core panics or surfaces a fault for attempting one.
func CanTransition(from, to Phase) bool {
	for _, next := range validEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}
