package system

import (
	"errors"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/duskhollow/server/internal/combat"
	"github.com/duskhollow/server/internal/config"
	"github.com/duskhollow/server/internal/core/event"
	coresys "github.com/duskhollow/server/internal/core/system"
	"github.com/duskhollow/server/internal/handler"
	"github.com/duskhollow/server/internal/net"
	"github.com/duskhollow/server/internal/world"
)

const (
	wanderLeash    = 4 // max Chebyshev distance from spawn while idling
	wanderMinPause = 3 * time.Second
	wanderMaxPause = 8 * time.Second
)

// NpcAISystem drives the per-NPC behavior state machine. Each live NPC is
// stepped exactly once per tick: acquire or validate a target, close the
// distance by one pathfinded step, and swing when in range and off cooldown.
// Paths are replanned from scratch every tick, so a stale plan can never
// walk an NPC into a tile that was free last tick.
type NpcAISystem struct {
	ws    *world.State
	deps  *handler.Deps
	bus   *event.Bus
	cfg   *config.Config
	rng   *rand.Rand
	now   func() time.Time
	log   *zap.Logger
}

func NewNpcAISystem(deps *handler.Deps, bus *event.Bus, rng *rand.Rand, log *zap.Logger) *NpcAISystem {
	return &NpcAISystem{
		ws:   deps.World,
		deps: deps,
		bus:  bus,
		cfg:  deps.Config,
		rng:  rng,
		now:  deps.Now,
		log:  log,
	}
}

func (s *NpcAISystem) Name() string         { return "npc_ai" }
func (s *NpcAISystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *NpcAISystem) Update(time.Duration) {
	for _, npc := range s.ws.NpcList() {
		coresys.Guard(s.log, s.Name(), func() {
			switch npc.State {
			case world.StateIdle:
				s.stepIdle(npc)
			case world.StateAggroed:
				s.stepAggroed(npc)
			case world.StateAttacking:
				s.stepAttacking(npc)
			}
		})
	}
}

func (s *NpcAISystem) stepIdle(npc *world.NpcInfo) {
	if npc.Tmpl.Hostile && npc.Tmpl.AggroRange > 0 {
		if target := s.nearestTarget(npc, npc.Tmpl.AggroRange); target != nil {
			npc.TargetSession = target.SessionID
			npc.State = world.StateAggroed
			s.stepAggroed(npc)
			return
		}
	}
	s.wander(npc)
}

func (s *NpcAISystem) stepAggroed(npc *world.NpcInfo) {
	target := s.validTarget(npc)
	if target == nil {
		npc.TargetSession = 0
		npc.State = world.StateIdle
		return
	}
	dist := world.Chebyshev(npc.X, npc.Y, target.X, target.Y)
	if dist > npc.Tmpl.DisengageRange {
		npc.TargetSession = 0
		npc.State = world.StateIdle
		return
	}
	if dist <= npc.Tmpl.AttackRange {
		// Attacking is entered only with the cooldown elapsed; until then
		// the NPC holds position in Aggroed.
		if s.now().Before(npc.NextAttackAt) {
			return
		}
		npc.State = world.StateAttacking
		s.stepAttacking(npc)
		return
	}

	path, err := world.FindPath(s.ws, npc.MapID, npc.X, npc.Y,
		target.X, target.Y, npc.ID, s.cfg.Gameplay.PathNodeBudget)
	if err != nil {
		if !errors.Is(err, world.ErrNoPath) {
			s.log.Warn("npc pathfinding failed",
				zap.Int32("npc", npc.ID), zap.Error(err))
		}
		// Unreachable this tick; hold position and replan next tick.
		return
	}
	if len(path) == 0 {
		return
	}
	step := path[0]
	heading := headingToward(npc.X, npc.Y, step.X, step.Y)
	if err := s.ws.MoveNpc(npc.ID, step.X, step.Y, heading); err != nil {
		// Another mover claimed the tile between planning and this step.
		return
	}
}

func (s *NpcAISystem) stepAttacking(npc *world.NpcInfo) {
	target := s.validTarget(npc)
	if target == nil {
		npc.TargetSession = 0
		npc.State = world.StateIdle
		return
	}
	dist := world.Chebyshev(npc.X, npc.Y, target.X, target.Y)
	if dist > npc.Tmpl.AttackRange {
		npc.State = world.StateAggroed
		s.stepAggroed(npc)
		return
	}

	now := s.now()
	if now.Before(npc.NextAttackAt) {
		npc.State = world.StateAggroed
		return
	}
	npc.NextAttackAt = now.Add(npc.AttackCooldown())
	npc.Heading = headingToward(npc.X, npc.Y, target.X, target.Y)
	// One swing per visit: drop back to Aggroed after the attack; the kill
	// branch below overrides with Idle.
	npc.State = world.StateAggroed

	out := combat.Resolve(npc.AttackStats(), target.DefenseStats(), s.rng)
	ev := net.AttackedEvent{
		AttackerID: npc.ID,
		TargetID:   target.CharID,
		Damage:     out.Damage,
		Critical:   out.Critical,
		Miss:       !out.Hit,
	}
	target.Session.Send(net.EvAttacked, ev)
	handler.BroadcastNearPosition(s.deps, npc.MapID, npc.X, npc.Y,
		target.SessionID, net.EvAttacked, ev)
	if !out.Hit {
		return
	}

	target.HP -= int16(out.Damage)
	if target.HP > 0 {
		handler.BroadcastStatChange(s.deps, target)
		return
	}

	target.HP = 0
	target.Dead = true
	target.Dirty = true
	s.ws.VacatePlayerTile(target)
	npc.TargetSession = 0
	npc.State = world.StateIdle

	died := net.EntityDiedEvent{ObjectID: target.CharID, KillerID: npc.ID}
	target.Session.Send(net.EvEntityDied, died)
	handler.BroadcastNearPosition(s.deps, target.MapID, target.X, target.Y,
		target.SessionID, net.EvEntityDied, died)
	event.Emit(s.bus, event.PlayerDied{
		SessionID: target.SessionID,
		CharID:    target.CharID,
		KillerID:  npc.ID,
	})
}

// validTarget resolves the NPC's target session, nil when it is gone, dead,
// or on another map.
func (s *NpcAISystem) validTarget(npc *world.NpcInfo) *world.PlayerInfo {
	if npc.TargetSession == 0 {
		return nil
	}
	p := s.ws.GetBySession(npc.TargetSession)
	if p == nil || p.Dead || p.MapID != npc.MapID {
		return nil
	}
	return p
}

// nearestTarget returns the closest live player within radius, ties broken
// by lowest session ID so the scan is deterministic.
func (s *NpcAISystem) nearestTarget(npc *world.NpcInfo, radius int32) *world.PlayerInfo {
	var best *world.PlayerInfo
	var bestDist int32
	for _, p := range s.ws.NearbyPlayers(npc.MapID, npc.X, npc.Y, radius, 0) {
		if p.Dead {
			continue
		}
		d := world.Chebyshev(npc.X, npc.Y, p.X, p.Y)
		if best == nil || d < bestDist || (d == bestDist && p.SessionID < best.SessionID) {
			best = p
			bestDist = d
		}
	}
	return best
}

// wander takes one random cardinal step inside the spawn leash, at a lazy
// cadence.
func (s *NpcAISystem) wander(npc *world.NpcInfo) {
	now := s.now()
	if now.Before(npc.NextWanderAt) {
		return
	}
	pause := wanderMinPause + time.Duration(s.rng.Int63n(int64(wanderMaxPause-wanderMinPause)))
	npc.NextWanderAt = now.Add(pause)

	dirs := [4][2]int32{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}
	d := dirs[s.rng.Intn(4)]
	nx, ny := npc.X+d[0], npc.Y+d[1]
	if npc.MapID != npc.SpawnMapID ||
		world.Chebyshev(nx, ny, npc.SpawnX, npc.SpawnY) > wanderLeash {
		return
	}
	heading := headingToward(npc.X, npc.Y, nx, ny)
	_ = s.ws.MoveNpc(npc.ID, nx, ny, heading) // blocked tiles just skip the step
}

// headingToward maps a step direction onto the 0-7 clockwise-from-north
// heading encoding.
func headingToward(fromX, fromY, toX, toY int32) int16 {
	dx, dy := sign(toX-fromX), sign(toY-fromY)
	switch {
	case dx == 0 && dy < 0:
		return 0
	case dx > 0 && dy < 0:
		return 1
	case dx > 0 && dy == 0:
		return 2
	case dx > 0 && dy > 0:
		return 3
	case dx == 0 && dy > 0:
		return 4
	case dx < 0 && dy > 0:
		return 5
	case dx < 0 && dy == 0:
		return 6
	case dx < 0 && dy < 0:
		return 7
	}
	return 0
}

func sign(v int32) int32 {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}
