package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/duskhollow/server/internal/core/system"
	"github.com/duskhollow/server/internal/handler"
	"github.com/duskhollow/server/internal/net"
)

// InputSystem is the only bridge between the network goroutines and the
// game loop. Each tick it accepts fresh connections, reaps dead ones, and
// drains every session's command queue through the dispatcher.
type InputSystem struct {
	server   *net.Server
	registry *SessionRegistry
	deps     *handler.Deps
	log      *zap.Logger
	maxCmds  int
}

func NewInputSystem(server *net.Server, registry *SessionRegistry, deps *handler.Deps, log *zap.Logger) *InputSystem {
	maxCmds := deps.Config.Network.MaxCommandsPerTick
	if maxCmds <= 0 {
		maxCmds = 32
	}
	return &InputSystem{
		server:   server,
		registry: registry,
		deps:     deps,
		log:      log,
		maxCmds:  maxCmds,
	}
}

func (s *InputSystem) Name() string         { return "input" }
func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(time.Duration) {
	// Accept new sessions.
	draining := true
	for draining {
		select {
		case sess := <-s.server.NewSessions:
			s.registry.Add(sess)
		default:
			draining = false
		}
	}

	// Reap dead sessions before reading commands, so nothing dispatches on
	// behalf of a closed connection.
	draining = true
	for draining {
		select {
		case sess := <-s.server.DeadSessions:
			s.registry.Remove(sess.ID)
			handler.HandleDisconnect(sess, s.deps)
		default:
			draining = false
		}
	}

	s.registry.ForEach(func(sess *net.Session) {
		if sess.Closed() {
			return
		}
		for _, env := range sess.DrainCommands(s.maxCmds) {
			handler.Dispatch(sess, env, s.deps)
		}
	})
}
