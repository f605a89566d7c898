package system

import (
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/duskhollow/server/internal/core/event"
	"github.com/duskhollow/server/internal/data"
	"github.com/duskhollow/server/internal/handler"
	"github.com/duskhollow/server/internal/net"
	"github.com/duskhollow/server/internal/world"
)

// RegisterDeathHandlers wires kill rewards and player death consequences
// onto the event bus. Both run one tick after the killing blow, so they
// always observe fully-applied combat state.
func RegisterDeathHandlers(deps *handler.Deps, bus *event.Bus, rng *rand.Rand, log *zap.Logger) {
	event.Subscribe(bus, func(ev event.NpcKilled) {
		handleNpcKilled(deps, ev, rng, log)
	})
	event.Subscribe(bus, func(ev event.PlayerDied) {
		handlePlayerDied(deps, ev, log)
	})
	event.Subscribe(bus, func(ev event.PlayerLeveledUp) {
		handlePlayerLeveledUp(deps, ev)
	})
}

func handleNpcKilled(deps *handler.Deps, ev event.NpcKilled, rng *rand.Rand, log *zap.Logger) {
	npc := deps.World.GetNpc(ev.NpcID)
	killer := deps.World.GetBySession(ev.KillerSession)
	if npc == nil || killer == nil {
		return
	}

	reward := deps.Scripting.CalcKillReward(
		int(npc.Tmpl.Level), int(killer.Level),
		int64(npc.Tmpl.Exp), rollGold(npc.Tmpl, rng))
	exp := int64(float64(reward.Exp) * deps.Config.Rates.ExpRate)
	gold := int64(float64(reward.Gold) * deps.Config.Rates.GoldRate)

	shareReward(deps, killer, exp, gold)
	dropLoot(deps, npc, killer, rng, log)
}

func rollGold(tmpl *data.NpcTemplate, rng *rand.Rand) int64 {
	lo, hi := tmpl.GoldMin, tmpl.GoldMax
	if hi <= lo {
		return int64(lo)
	}
	return int64(lo + rng.Int31n(hi-lo+1))
}

// shareReward splits exp and gold evenly across the killer's group members
// who are close enough to have participated. Solo killers keep it all.
func shareReward(deps *handler.Deps, killer *world.PlayerInfo, exp, gold int64) {
	recipients := []*world.PlayerInfo{killer}
	if g := deps.World.Groups.GroupOf(killer.CharID); g != nil {
		recipients = recipients[:0]
		for _, id := range g.Members {
			m := deps.World.GetByCharID(id)
			if m == nil || m.Dead || m.MapID != killer.MapID {
				continue
			}
			if world.Chebyshev(m.X, m.Y, killer.X, killer.Y) > deps.Config.Gameplay.GroupShareRadius {
				continue
			}
			recipients = append(recipients, m)
		}
		if len(recipients) == 0 {
			recipients = append(recipients, killer)
		}
	}

	n := int64(len(recipients))
	for _, m := range recipients {
		grantExp(deps, m, exp/n)
		m.Gold += gold / n
		m.Dirty = true
		handler.BroadcastStatChange(deps, m)
	}
}

// grantExp adds experience and applies any level-ups the new total crosses.
func grantExp(deps *handler.Deps, p *world.PlayerInfo, exp int64) {
	if exp <= 0 {
		return
	}
	p.Exp += exp
	before := p.Level
	newLevel := int16(deps.Scripting.LevelFromExp(p.Exp))
	for newLevel > p.Level {
		p.Level++
		p.MaxHP += int16(4 + int(p.Con)/4)
		p.MaxMP += int16(2 + int(p.Con)/8)
		p.HP = p.MaxHP
		p.MP = p.MaxMP
		p.Session.Send(net.EvSystemMsg, net.SystemMsgEvent{Text: "level up!"})
	}
	if p.Level > before {
		event.Emit(deps.Bus, event.PlayerLeveledUp{
			SessionID: p.SessionID,
			CharID:    p.CharID,
			NewLevel:  p.Level,
		})
	}
}

// handlePlayerLeveledUp announces the new level to everyone who can see the
// character.
func handlePlayerLeveledUp(deps *handler.Deps, ev event.PlayerLeveledUp) {
	p := deps.World.GetBySession(ev.SessionID)
	if p == nil {
		return
	}
	handler.BroadcastNearPosition(deps, p.MapID, p.X, p.Y, p.SessionID,
		net.EvSystemMsg, net.SystemMsgEvent{
			Text: fmt.Sprintf("%s has reached level %d", p.Name, ev.NewLevel),
		})
}

// dropLoot rolls the NPC's drop table and lays winners on and around the
// corpse with pickup priority for the killer.
func dropLoot(deps *handler.Deps, npc *world.NpcInfo, killer *world.PlayerInfo, rng *rand.Rand, log *zap.Logger) {
	drops := deps.Drops.Get(npc.Tmpl.NpcID)
	now := deps.Now()
	for _, d := range drops {
		chance := int(float64(d.Chance) * deps.Config.Rates.DropRate)
		if rng.Intn(data.DropChanceScale) >= chance {
			continue
		}
		count := int32(d.Min)
		if d.Max > d.Min {
			count = int32(d.Min + rng.Intn(d.Max-d.Min+1))
		}
		gi := &world.GroundItem{
			ID:        world.NextGroundItemID(),
			ItemID:    d.ItemID,
			Count:     count,
			X:         npc.X,
			Y:         npc.Y,
			MapID:     npc.MapID,
			OwnerID:   killer.CharID,
			DroppedAt: now,
			ExpiresAt: now.Add(deps.Config.Gameplay.GroundItemTTL),
		}
		if err := deps.World.AddGroundItem(gi); err != nil {
			log.Warn("loot drop rejected", zap.Int32("npc", npc.ID), zap.Error(err))
		}
	}
}

// handlePlayerDied applies the death penalty and revives the player at the
// start map's spawn point.
func handlePlayerDied(deps *handler.Deps, ev event.PlayerDied, log *zap.Logger) {
	p := deps.World.GetBySession(ev.SessionID)
	if p == nil || !p.Dead {
		return
	}

	loss := deps.Scripting.CalcDeathPenalty(int(p.Level), p.Exp)
	p.Exp -= loss

	info := deps.Maps.Get(deps.Config.Gameplay.StartMapID)
	if info == nil {
		log.Error("start map missing, cannot respawn player",
			zap.Int32("char_id", p.CharID))
		return
	}
	x, y, ok := handler.FindFreeTile(deps.World, info.MapID, info.SpawnX, info.SpawnY, 4)
	if !ok {
		log.Warn("respawn area full", zap.Int32("char_id", p.CharID))
		return
	}

	if err := deps.World.TransferPlayer(p.SessionID, info.MapID, x, y, 0); err != nil {
		log.Error("respawn transfer failed",
			zap.Int32("char_id", p.CharID), zap.Error(err))
		return
	}
	p.Dead = false
	p.HP = p.MaxHP / 2
	if p.HP < 1 {
		p.HP = 1
	}
	p.Dirty = true
	p.Known.Reset()

	p.Session.Send(net.EvEntityRevived, net.EntityRevivedEvent{
		ObjectID: p.CharID, MapID: p.MapID, X: p.X, Y: p.Y, HP: p.HP,
	})
	handler.BroadcastStatChange(deps, p)
}
