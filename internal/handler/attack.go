package handler

import (
	"github.com/duskhollow/server/internal/net"
	"github.com/duskhollow/server/internal/world"
)

// HandleAttack validates a melee swing against a live adjacent NPC and
// queues it for the combat system. Resolution never happens here; all damage
// is applied in tick order during the update phase.
func HandleAttack(p *world.PlayerInfo, cmd net.AttackCmd, deps *Deps) {
	if p.Dead {
		return
	}
	npc := deps.World.GetNpc(cmd.TargetID)
	if npc == nil || !npc.Alive() || npc.MapID != p.MapID {
		return
	}
	if world.Chebyshev(p.X, p.Y, npc.X, npc.Y) > 1 {
		return
	}
	deps.Actions.QueueAttack(AttackRequest{
		SessionID: p.SessionID,
		TargetID:  cmd.TargetID,
	})
}

// HandleCast validates a spell cast (known spell, MP, range, cooldown) and
// queues it. MP is deducted at resolution time, not here, so a cast that
// dies in the queue costs nothing.
func HandleCast(p *world.PlayerInfo, cmd net.CastCmd, deps *Deps) {
	if p.Dead {
		return
	}
	spell := deps.Spells.Get(cmd.SpellID)
	if spell == nil {
		return
	}
	if deps.Now().Before(p.SpellReadyAt) {
		return
	}
	if p.MP < spell.MpCost {
		p.Session.Send(net.EvSystemMsg, net.SystemMsgEvent{Text: "not enough mana"})
		return
	}
	npc := deps.World.GetNpc(cmd.TargetID)
	if npc == nil || !npc.Alive() || npc.MapID != p.MapID {
		return
	}
	if world.Chebyshev(p.X, p.Y, npc.X, npc.Y) > spell.Range {
		return
	}
	deps.Actions.QueueAttack(AttackRequest{
		SessionID: p.SessionID,
		TargetID:  cmd.TargetID,
		SpellID:   cmd.SpellID,
	})
}
