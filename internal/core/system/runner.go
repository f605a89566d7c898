package system

import (
	"sort"
	"time"

	"go.uber.org/zap"
)

// Runner executes registered systems in phase order each tick. A panic in
// one system is logged and contained so the rest of the tick still runs;
// one failing effect must not take the whole world down.
type Runner struct {
	log     *zap.Logger
	systems []System
	sorted  bool
}

func NewRunner(log *zap.Logger) *Runner {
	return &Runner{
		log:     log,
		systems: make([]System, 0, 16),
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

func (r *Runner) Tick(dt time.Duration) {
	r.ensureSorted()
	for _, s := range r.systems {
		r.run(s, dt)
	}
}

// TickPhase runs only systems of the given phase. Used between full ticks
// to poll the input phase at higher frequency than the tick rate.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	r.ensureSorted()
	for _, s := range r.systems {
		if s.Phase() == phase {
			r.run(s, dt)
		}
	}
}

func (r *Runner) run(s System, dt time.Duration) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("system panicked, continuing tick",
				zap.String("system", s.Name()),
				zap.Any("panic", rec),
				zap.Stack("stack"))
		}
	}()
	s.Update(dt)
}

// Guard runs one entity's slice of an effect under its own recover. A panic
// while updating entity N is logged and skipped without aborting the same
// effect for entities N+1.. of the tick; the runner-level recover then only
// catches faults outside any entity loop.
func Guard(log *zap.Logger, system string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("effect panicked for one entity, continuing",
				zap.String("system", system),
				zap.Any("panic", rec),
				zap.Stack("stack"))
		}
	}()
	fn()
}

func (r *Runner) ensureSorted() {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Phase() < r.systems[j].Phase()
		})
		r.sorted = true
	}
}
