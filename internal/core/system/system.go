package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: drain session command queues
	PhasePreUpdate               // 1: deliver last tick's events
	PhaseUpdate                  // 2: NPC behavior, combat, movement effects
	PhasePostUpdate              // 3: regen, hunger, respawn, visibility
	PhaseOutput                  // 4: flush per-session output buffers
	PhasePersist                 // 5: batch save dirty characters
	PhaseCleanup                 // 6: expire ground items, sweep corpses
)

// System is one unit of per-tick work. Name is used in logs when a system
// panics and is skipped for the rest of the tick.
type System interface {
	Name() string
	Phase() Phase
	Update(dt time.Duration)
}
