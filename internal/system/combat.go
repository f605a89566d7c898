package system

import (
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/duskhollow/server/internal/combat"
	"github.com/duskhollow/server/internal/core/event"
	coresys "github.com/duskhollow/server/internal/core/system"
	"github.com/duskhollow/server/internal/handler"
	"github.com/duskhollow/server/internal/net"
	"github.com/duskhollow/server/internal/world"
)

// Base interval between player melee swings. Spells use their template
// cooldown instead.
const playerAttackCooldown = 1500 * time.Millisecond

// CombatSystem resolves the attacks queued during the input phase. Commands
// were validated at queue time, but the world has moved since, so every
// request is revalidated against current positions before it lands. Damage,
// deaths and kill credit are all applied here, in queue order.
type CombatSystem struct {
	ws   *world.State
	deps *handler.Deps
	bus  *event.Bus
	rng  *rand.Rand
	now  func() time.Time
	log  *zap.Logger
}

func NewCombatSystem(deps *handler.Deps, bus *event.Bus, rng *rand.Rand) *CombatSystem {
	return &CombatSystem{
		ws:   deps.World,
		deps: deps,
		bus:  bus,
		rng:  rng,
		now:  deps.Now,
		log:  deps.Log,
	}
}

func (s *CombatSystem) Name() string         { return "combat" }
func (s *CombatSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *CombatSystem) Update(time.Duration) {
	for _, req := range s.deps.Actions.DrainAttacks() {
		coresys.Guard(s.log, s.Name(), func() {
			s.resolve(req)
		})
	}
}

func (s *CombatSystem) resolve(req handler.AttackRequest) {
	p := s.ws.GetBySession(req.SessionID)
	if p == nil || p.Dead {
		return
	}
	npc := s.ws.GetNpc(req.TargetID)
	if npc == nil || !npc.Alive() || npc.MapID != p.MapID {
		return
	}

	now := s.now()
	var att combat.Stats
	var spellID int32

	if req.SpellID != 0 {
		spell := s.deps.Spells.Get(req.SpellID)
		if spell == nil {
			return
		}
		if now.Before(p.SpellReadyAt) || p.MP < spell.MpCost {
			return
		}
		if world.Chebyshev(p.X, p.Y, npc.X, npc.Y) > spell.Range {
			return
		}
		p.MP -= spell.MpCost
		p.SpellReadyAt = now.Add(time.Duration(spell.Cooldown) * time.Millisecond)
		p.Dirty = true
		att = combat.Stats{
			Accuracy:  spell.Accuracy,
			CritBonus: int(p.Dex) / 4,
			DmgMin:    spell.DmgMin,
			DmgMax:    spell.DmgMax,
		}
		spellID = spell.SpellID
	} else {
		if now.Before(p.NextAttackAt) {
			return
		}
		if world.Chebyshev(p.X, p.Y, npc.X, npc.Y) > 1 {
			return
		}
		p.NextAttackAt = now.Add(playerAttackCooldown)
		att = p.AttackStats()
	}

	p.Heading = headingToward(p.X, p.Y, npc.X, npc.Y)
	out := combat.Resolve(att, npc.DefenseStats(), s.rng)

	ev := net.AttackedEvent{
		AttackerID: p.CharID,
		TargetID:   npc.ID,
		Damage:     out.Damage,
		Critical:   out.Critical,
		Miss:       !out.Hit,
		SpellID:    spellID,
	}
	p.Session.Send(net.EvAttacked, ev)
	handler.BroadcastNearPosition(s.deps, p.MapID, p.X, p.Y, p.SessionID, net.EvAttacked, ev)
	if spellID != 0 {
		handler.BroadcastStatChange(s.deps, p) // MP spent
	}
	if !out.Hit {
		return
	}

	// Fighting back pulls an idle NPC onto the attacker even outside its
	// aggro range.
	if npc.TargetSession == 0 && npc.State == world.StateIdle {
		npc.TargetSession = p.SessionID
		npc.State = world.StateAggroed
	}

	npc.HP -= out.Damage
	if npc.HP > 0 {
		return
	}

	// Death fires exactly once; the state flip is the guard.
	npc.HP = 0
	npc.State = world.StateDead
	npc.TargetSession = 0
	npc.CorpseTicks = s.deps.Config.Gameplay.CorpseLingerTicks
	npc.RespawnAt = now.Add(npc.RespawnDelay())
	s.ws.NpcDied(npc)

	died := net.EntityDiedEvent{ObjectID: npc.ID, KillerID: p.CharID}
	p.Session.Send(net.EvEntityDied, died)
	handler.BroadcastNearPosition(s.deps, npc.MapID, npc.X, npc.Y, p.SessionID, net.EvEntityDied, died)

	event.Emit(s.bus, event.NpcKilled{
		NpcID:         npc.ID,
		KillerSession: p.SessionID,
	})
}
