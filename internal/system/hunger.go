package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/duskhollow/server/internal/core/system"
	"github.com/duskhollow/server/internal/handler"
	"github.com/duskhollow/server/internal/net"
	"github.com/duskhollow/server/internal/world"
)

// HungerSystem drains satiety on a per-player wall-clock deadline. Running
// dry does not hurt the character; it only stops regeneration.
type HungerSystem struct {
	ws       *world.State
	interval time.Duration
	now      func() time.Time
	log      *zap.Logger
}

func NewHungerSystem(deps *handler.Deps) *HungerSystem {
	return &HungerSystem{
		ws:       deps.World,
		interval: deps.Config.Gameplay.HungerInterval,
		now:      deps.Now,
		log:      deps.Log,
	}
}

func (s *HungerSystem) Name() string         { return "hunger" }
func (s *HungerSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *HungerSystem) Update(time.Duration) {
	now := s.now()
	s.ws.AllPlayers(func(p *world.PlayerInfo) {
		coresys.Guard(s.log, s.Name(), func() {
			if p.Dead || p.Food <= 0 {
				return
			}
			if now.Sub(p.LastHungerAt) < s.interval {
				return
			}
			p.LastHungerAt = now
			p.Food--
			p.Dirty = true
			p.Session.Send(net.EvStatChanged, net.StatChangedEvent{
				ObjectID: p.CharID, HP: p.HP, MaxHP: p.MaxHP, Food: p.Food,
			})
		})
	})
}
