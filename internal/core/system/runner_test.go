package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type recordingSystem struct {
	name  string
	phase Phase
	log   *[]string
	panic bool
}

func (s *recordingSystem) Name() string  { return s.name }
func (s *recordingSystem) Phase() Phase  { return s.phase }
func (s *recordingSystem) Update(time.Duration) {
	*s.log = append(*s.log, s.name)
	if s.panic {
		panic("boom")
	}
}

func TestRunnerPhaseOrdering(t *testing.T) {
	var order []string
	r := NewRunner(zap.NewNop())
	// Registered out of order on purpose.
	r.Register(&recordingSystem{name: "output", phase: PhaseOutput, log: &order})
	r.Register(&recordingSystem{name: "input", phase: PhaseInput, log: &order})
	r.Register(&recordingSystem{name: "update", phase: PhaseUpdate, log: &order})
	r.Register(&recordingSystem{name: "cleanup", phase: PhaseCleanup, log: &order})

	r.Tick(time.Millisecond)
	assert.Equal(t, []string{"input", "update", "output", "cleanup"}, order)
}

func TestRunnerStableWithinPhase(t *testing.T) {
	var order []string
	r := NewRunner(zap.NewNop())
	r.Register(&recordingSystem{name: "a", phase: PhaseUpdate, log: &order})
	r.Register(&recordingSystem{name: "b", phase: PhaseUpdate, log: &order})
	r.Register(&recordingSystem{name: "c", phase: PhaseUpdate, log: &order})

	r.Tick(time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestRunnerContainsPanic(t *testing.T) {
	var order []string
	r := NewRunner(zap.NewNop())
	r.Register(&recordingSystem{name: "bad", phase: PhaseUpdate, log: &order, panic: true})
	r.Register(&recordingSystem{name: "after", phase: PhasePostUpdate, log: &order})

	assert.NotPanics(t, func() { r.Tick(time.Millisecond) })
	assert.Equal(t, []string{"bad", "after"}, order, "later systems still run")
}

func TestRunnerTickPhase(t *testing.T) {
	var order []string
	r := NewRunner(zap.NewNop())
	r.Register(&recordingSystem{name: "input", phase: PhaseInput, log: &order})
	r.Register(&recordingSystem{name: "update", phase: PhaseUpdate, log: &order})

	r.TickPhase(PhaseInput, time.Millisecond)
	assert.Equal(t, []string{"input"}, order)
}
