package system

import (
	"time"

	"github.com/duskhollow/server/internal/core/event"
	coresys "github.com/duskhollow/server/internal/core/system"
)

// EventDispatchSystem rotates the event bus at tick start and delivers last
// tick's events to their handlers.
type EventDispatchSystem struct {
	bus *event.Bus
}

func NewEventDispatchSystem(bus *event.Bus) *EventDispatchSystem {
	return &EventDispatchSystem{bus: bus}
}

func (s *EventDispatchSystem) Name() string         { return "event_dispatch" }
func (s *EventDispatchSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *EventDispatchSystem) Update(time.Duration) {
	s.bus.Swap()
	s.bus.DispatchAll()
}
