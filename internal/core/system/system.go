package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput     Phase = iota // 0: sessions in/out, drain input queues
	PhasePreUpdate              // 1: dispatch last tick's events
	PhaseUpdate                 // 2: advance the world
	PhaseOutput                 // 3: publish the frame sessions reply with
	PhasePersist                // 4: hand journal rows to the writer
	PhaseCleanup                // 5: destroy queued entities
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhasePreUpdate:
		return "pre-update"
	case PhaseUpdate:
		return "update"
	case PhaseOutput:
		return "output"
	case PhasePersist:
		return "persist"
	case PhaseCleanup:
		return "cleanup"
	}
	return "unknown"
}

// System is the interface every tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
