package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/duskhollow/server/internal/core/system"
	"github.com/duskhollow/server/internal/handler"
	"github.com/duskhollow/server/internal/world"
)

// NpcRespawnSystem runs the back half of the NPC lifecycle: the corpse
// countdown after death, then the respawn attempt once the deadline passes.
// A respawn onto an occupied spawn tile is never forced; the deadline is
// pushed and retried until the tile frees up.
type NpcRespawnSystem struct {
	ws    *world.State
	deps  *handler.Deps
	retry time.Duration
	now   func() time.Time
	log   *zap.Logger
}

func NewNpcRespawnSystem(deps *handler.Deps, log *zap.Logger) *NpcRespawnSystem {
	return &NpcRespawnSystem{
		ws:    deps.World,
		deps:  deps,
		retry: deps.Config.Gameplay.RespawnRetry,
		now:   deps.Now,
		log:   log,
	}
}

func (s *NpcRespawnSystem) Name() string         { return "npc_respawn" }
func (s *NpcRespawnSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *NpcRespawnSystem) Update(time.Duration) {
	now := s.now()
	for _, npc := range s.ws.NpcList() {
		s.step(npc, now)
	}
}

func (s *NpcRespawnSystem) step(npc *world.NpcInfo, now time.Time) {
	coresys.Guard(s.log, s.Name(), func() {
		switch npc.State {
		case world.StateDead:
			if npc.CorpseTicks > 0 {
				npc.CorpseTicks--
				if npc.CorpseTicks > 0 {
					return
				}
			}
			s.ws.RemoveNpcCorpse(npc)
			npc.State = world.StateRespawning

		case world.StateRespawning:
			if now.Before(npc.RespawnAt) {
				return
			}
			if err := s.ws.RespawnNpc(npc, npc.SpawnMapID, npc.SpawnX, npc.SpawnY); err != nil {
				npc.RespawnAt = now.Add(s.retry)
				return
			}
			npc.HP = npc.Tmpl.HP
			npc.State = world.StateIdle
			npc.TargetSession = 0
			npc.NextAttackAt = time.Time{}
			s.log.Debug("npc respawned",
				zap.Int32("npc", npc.ID), zap.Int32("tmpl", npc.Tmpl.NpcID))
		}
	})
}
