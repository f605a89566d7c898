package system

import (
	"time"

	coresys "github.com/duskhollow/server/internal/core/system"
	"github.com/duskhollow/server/internal/net"
)

// OutputSystem hands every session's buffered frames to its write loop at
// the end of the tick. Nothing earlier in the tick touches a socket.
type OutputSystem struct {
	registry *SessionRegistry
}

func NewOutputSystem(registry *SessionRegistry) *OutputSystem {
	return &OutputSystem{registry: registry}
}

func (s *OutputSystem) Name() string         { return "output" }
func (s *OutputSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *OutputSystem) Update(time.Duration) {
	s.registry.ForEach(func(sess *net.Session) {
		sess.FlushOutput()
	})
}
