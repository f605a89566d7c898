package handler

import (
	"github.com/duskhollow/server/internal/net"
	"github.com/duskhollow/server/internal/world"
)

// HandleGroup processes group invites and leaves. Invites join the target
// immediately; there is no pending-accept handshake.
func HandleGroup(p *world.PlayerInfo, cmd net.GroupCmd, deps *Deps) {
	switch cmd.Action {
	case "invite":
		target := deps.World.GetByName(cmd.Target)
		if target == nil || target.CharID == p.CharID {
			p.Session.Send(net.EvSystemMsg, net.SystemMsgEvent{Text: "no such player"})
			return
		}
		gm := deps.World.Groups
		if g := gm.GroupOf(p.CharID); g != nil {
			if g.LeaderID != p.CharID {
				p.Session.Send(net.EvSystemMsg, net.SystemMsgEvent{Text: "only the leader can invite"})
				return
			}
			if !gm.AddMember(g.LeaderID, target.CharID) {
				p.Session.Send(net.EvSystemMsg, net.SystemMsgEvent{Text: "cannot invite that player"})
				return
			}
			target.GroupID = g.LeaderID
			BroadcastGroupUpdate(g, deps)
			return
		}
		g := gm.Create(p.CharID, target.CharID)
		if g == nil {
			p.Session.Send(net.EvSystemMsg, net.SystemMsgEvent{Text: "cannot invite that player"})
			return
		}
		p.GroupID = g.LeaderID
		target.GroupID = g.LeaderID
		BroadcastGroupUpdate(g, deps)

	case "leave":
		g := deps.World.Groups.RemoveMember(p.CharID)
		if g == nil {
			return
		}
		p.GroupID = 0
		p.Session.Send(net.EvGroupUpdate, net.GroupUpdateEvent{})
		// Remaining members of a dissolved group lose their group ID too.
		if len(g.Members) <= 1 {
			for _, id := range g.Members {
				if m := deps.World.GetByCharID(id); m != nil {
					m.GroupID = 0
				}
			}
		}
		BroadcastGroupUpdate(g, deps)

	default:
		p.Session.Send(net.EvSystemMsg, net.SystemMsgEvent{Text: "unknown group action"})
	}
}
