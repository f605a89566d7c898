package handler

import (
	"go.uber.org/zap"

	"github.com/duskhollow/server/internal/net"
	"github.com/duskhollow/server/internal/world"
)

// Admin commands go through the exact same index operations as everything
// else; a teleport onto an occupied tile fails the same way a move does.

func HandleTeleport(p *world.PlayerInfo, cmd net.TeleportCmd, deps *Deps) {
	if !p.Admin {
		return
	}
	if err := deps.World.TransferPlayer(p.SessionID, cmd.MapID, cmd.X, cmd.Y, p.Heading); err != nil {
		p.Session.Send(net.EvSystemMsg, net.SystemMsgEvent{Text: "teleport failed: " + err.Error()})
		return
	}
	// Everything previously in view must be re-learned at the new spot.
	p.Known.Reset()
	p.Session.Send(net.EvEntityRevived, net.EntityRevivedEvent{
		ObjectID: p.CharID, MapID: p.MapID, X: p.X, Y: p.Y, HP: p.HP,
	})
	p.Dirty = true
	deps.Log.Info("admin teleport",
		zap.String("name", p.Name), zap.Int16("map", cmd.MapID),
		zap.Int32("x", cmd.X), zap.Int32("y", cmd.Y))
}

func HandleSpawn(p *world.PlayerInfo, cmd net.SpawnCmd, deps *Deps) {
	if !p.Admin {
		return
	}
	tmpl := deps.Npcs.Get(cmd.NpcID)
	if tmpl == nil {
		p.Session.Send(net.EvSystemMsg, net.SystemMsgEvent{Text: "unknown npc template"})
		return
	}
	count := int(cmd.Count)
	if count <= 0 {
		count = 1
	}
	spawned := 0
	for i := 0; i < count; i++ {
		x, y, ok := FindFreeTile(deps.World, p.MapID, p.X, p.Y, 5)
		if !ok {
			break
		}
		npc := &world.NpcInfo{
			ID:         world.NextNpcID(),
			Tmpl:       tmpl,
			X:          x,
			Y:          y,
			MapID:      p.MapID,
			HP:         tmpl.HP,
			State:      world.StateIdle,
			SpawnX:     x,
			SpawnY:     y,
			SpawnMapID: p.MapID,
		}
		if err := deps.World.AddNpc(npc); err != nil {
			break
		}
		spawned++
	}
	deps.Log.Info("admin spawn",
		zap.String("name", p.Name), zap.Int32("npc", cmd.NpcID), zap.Int("count", spawned))
}

func HandleDespawn(p *world.PlayerInfo, cmd net.DespawnCmd, deps *Deps) {
	if !p.Admin {
		return
	}
	npc := deps.World.GetNpc(cmd.ObjectID)
	if npc == nil || !npc.Alive() {
		return
	}
	// Skip the corpse phase entirely; the visibility diff despawns it for
	// every viewer next tick.
	deps.World.NpcDied(npc)
	deps.World.RemoveNpcCorpse(npc)
	npc.State = world.StateDead
	npc.CorpseTicks = 0
	npc.RespawnAt = deps.Now().Add(npc.RespawnDelay())
	deps.Log.Info("admin despawn",
		zap.String("name", p.Name), zap.Int32("object", cmd.ObjectID))
}
