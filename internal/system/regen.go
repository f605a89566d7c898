package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/duskhollow/server/internal/core/system"
	"github.com/duskhollow/server/internal/handler"
	"github.com/duskhollow/server/internal/world"
)

const regenInterval = 5 * time.Second

// RegenSystem restores HP and MP on a fixed cadence. Regeneration is gated
// on satiety: a starving character (food 0) does not recover at all.
type RegenSystem struct {
	ws   *world.State
	deps *handler.Deps
	acc  time.Duration
	log  *zap.Logger
}

func NewRegenSystem(deps *handler.Deps) *RegenSystem {
	return &RegenSystem{ws: deps.World, deps: deps, log: deps.Log}
}

func (s *RegenSystem) Name() string         { return "regen" }
func (s *RegenSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *RegenSystem) Update(dt time.Duration) {
	s.acc += dt
	if s.acc < regenInterval {
		return
	}
	s.acc -= regenInterval

	s.ws.AllPlayers(func(p *world.PlayerInfo) {
		coresys.Guard(s.log, s.Name(), func() {
			s.regenPlayer(p)
		})
	})
}

func (s *RegenSystem) regenPlayer(p *world.PlayerInfo) {
	if p.Dead || p.Food <= 0 {
		return
	}
	changed := false
	if p.HP < p.MaxHP {
		gain := int16(1 + int(p.Con)/8)
		p.HP += gain
		if p.HP > p.MaxHP {
			p.HP = p.MaxHP
		}
		changed = true
	}
	if p.MP < p.MaxMP {
		p.MP++
		changed = true
	}
	if changed {
		p.Dirty = true
		handler.BroadcastStatChange(s.deps, p)
	}
}
