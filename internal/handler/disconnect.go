package handler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/duskhollow/server/internal/core/event"
	"github.com/duskhollow/server/internal/net"
	"github.com/duskhollow/server/internal/world"
)

const saveTimeout = 5 * time.Second

// HandleDisconnect clears a dead session out of the world synchronously, so
// no tick after this call can touch it. NPCs that were hunting the player
// drop their target; other sessions learn of the departure through the
// normal visibility diff. The character is saved best-effort.
func HandleDisconnect(sess *net.Session, deps *Deps) {
	p := deps.World.RemovePlayer(sess.ID)
	if p == nil {
		return
	}

	for _, npc := range deps.World.NpcList() {
		if npc.TargetSession == sess.ID {
			npc.TargetSession = 0
			if npc.State == world.StateAggroed || npc.State == world.StateAttacking {
				npc.State = world.StateIdle
			}
		}
	}

	if g := deps.World.Groups.RemoveMember(p.CharID); g != nil {
		BroadcastGroupUpdate(g, deps)
	}

	deps.Log.Info("player left world",
		zap.String("name", p.Name), zap.Int32("char_id", p.CharID))
	event.Emit(deps.Bus, event.PlayerDisconnected{SessionID: sess.ID, CharID: p.CharID})

	if deps.Chars != nil {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		if err := deps.Chars.Save(ctx, SnapshotPlayer(p)); err != nil {
			deps.Log.Error("save on disconnect failed",
				zap.String("name", p.Name), zap.Error(err))
		}
	}
}
