package handler

import (
	"github.com/duskhollow/server/internal/net"
	"github.com/duskhollow/server/internal/world"
)

// BroadcastNearPosition sends an event to every session within its own
// visibility radius of (x,y). excludeSession 0 sends to everyone in range.
func BroadcastNearPosition(deps *Deps, mapID int16, x, y int32, excludeSession uint64, typ string, payload any) {
	viewers := deps.World.NearbyPlayers(mapID, x, y, deps.Config.Gameplay.VisibilityRadius, excludeSession)
	for _, viewer := range viewers {
		if world.Chebyshev(viewer.X, viewer.Y, x, y) <= viewer.VisRadius {
			viewer.Session.Send(typ, payload)
		}
	}
}

// BroadcastStatChange reports a player's vitals to the player and everyone
// who can see them.
func BroadcastStatChange(deps *Deps, p *world.PlayerInfo) {
	ev := net.StatChangedEvent{
		ObjectID: p.CharID,
		HP:       p.HP, MaxHP: p.MaxHP,
		MP: p.MP, MaxMP: p.MaxMP,
		Level: p.Level, Exp: p.Exp, Food: p.Food,
	}
	p.Session.Send(net.EvStatChanged, ev)
	BroadcastNearPosition(deps, p.MapID, p.X, p.Y, p.SessionID, net.EvStatChanged, ev)
}

// BroadcastGroupUpdate pushes the current roster to every member still
// in-world. A dissolved group (≤1 member) is announced with an empty roster.
func BroadcastGroupUpdate(g *world.GroupInfo, deps *Deps) {
	members := g.Members
	ev := net.GroupUpdateEvent{LeaderID: g.LeaderID, Members: members}
	if len(members) <= 1 {
		ev = net.GroupUpdateEvent{}
	}
	for _, id := range members {
		if m := deps.World.GetByCharID(id); m != nil {
			m.Session.Send(net.EvGroupUpdate, ev)
		}
	}
}
