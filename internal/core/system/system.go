package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput   Phase = iota // 0: drain queued player commands
	PhaseAI                   // 1: mob AI, own velocity only
	PhasePhysics              // 2: advance backend + dispatch contacts
	PhaseTimers               // 3: fire due deferred events
	PhaseOutput               // 4: deliver signals to the embedder
	PhaseCleanup              // 5: consistency checks
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhaseAI:
		return "ai"
	case PhasePhysics:
		return "physics"
	case PhaseTimers:
		return "timers"
	case PhaseOutput:
		return "output"
	case PhaseCleanup:
		return "cleanup"
	}
	return "unknown"
}

// System is the interface every tick system implements. A returned error
// aborts the rest of the tick.
type System interface {
	Phase() Phase
	Update(dt time.Duration) error
}
