package handler

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/duskhollow/server/internal/config"
	"github.com/duskhollow/server/internal/core/event"
	"github.com/duskhollow/server/internal/data"
	"github.com/duskhollow/server/internal/net"
	"github.com/duskhollow/server/internal/persist"
	"github.com/duskhollow/server/internal/scripting"
	"github.com/duskhollow/server/internal/world"
)

// Deps holds shared dependencies injected into all command handlers.
type Deps struct {
	Config    *config.Config
	Log       *zap.Logger
	World     *world.State
	Scripting *scripting.Engine
	Npcs      *data.NpcTable
	Items     *data.ItemTable
	Spells    *data.SpellTable
	Drops     *data.DropTable
	Maps      *data.MapTable
	Chars     *persist.CharacterStore // nil when the database is disabled

	// Bus carries cross-system world events; handlers emit, systems
	// subscribe. Delivery happens at the start of the next tick.
	Bus *event.Bus

	// Attack and cast commands queue here; the combat system consumes the
	// queue during the update phase so cooldowns and damage are applied in
	// tick order.
	Actions *ActionQueue

	// NextCharID allocates IDs for new characters; seeded past the highest
	// persisted ID at boot.
	NextCharID func() int32

	// Injected clock, so deadline behavior is testable.
	Now func() time.Time
}

// Dispatch routes one decoded command envelope. A panic in a handler is
// contained here so one bad command cannot break the input phase for the
// remaining sessions.
func Dispatch(sess *net.Session, env net.Envelope, deps *Deps) {
	defer func() {
		if rec := recover(); rec != nil {
			deps.Log.Error("command handler panicked",
				zap.Uint64("session", sess.ID),
				zap.String("type", env.Type),
				zap.Any("panic", rec),
				zap.Stack("stack"))
		}
	}()

	// Until login completes there is no character; every other command is
	// silently dropped.
	player := deps.World.GetBySession(sess.ID)
	if env.Type == net.CmdLogin {
		if player == nil {
			var cmd net.LoginCmd
			if decode(sess, env, &cmd, deps) {
				HandleLogin(sess, cmd, deps)
			}
		}
		return
	}
	if player == nil {
		return
	}

	switch env.Type {
	case net.CmdMove:
		var cmd net.MoveCmd
		if decode(sess, env, &cmd, deps) {
			HandleMove(player, cmd, deps)
		}
	case net.CmdAttack:
		var cmd net.AttackCmd
		if decode(sess, env, &cmd, deps) {
			HandleAttack(player, cmd, deps)
		}
	case net.CmdCast:
		var cmd net.CastCmd
		if decode(sess, env, &cmd, deps) {
			HandleCast(player, cmd, deps)
		}
	case net.CmdPickup:
		var cmd net.PickupCmd
		if decode(sess, env, &cmd, deps) {
			HandlePickup(player, cmd, deps)
		}
	case net.CmdDrop:
		var cmd net.DropCmd
		if decode(sess, env, &cmd, deps) {
			HandleDrop(player, cmd, deps)
		}
	case net.CmdSay:
		var cmd net.SayCmd
		if decode(sess, env, &cmd, deps) {
			HandleSay(player, cmd, deps)
		}
	case net.CmdGroup:
		var cmd net.GroupCmd
		if decode(sess, env, &cmd, deps) {
			HandleGroup(player, cmd, deps)
		}
	case net.CmdTeleport:
		var cmd net.TeleportCmd
		if decode(sess, env, &cmd, deps) {
			HandleTeleport(player, cmd, deps)
		}
	case net.CmdSpawn:
		var cmd net.SpawnCmd
		if decode(sess, env, &cmd, deps) {
			HandleSpawn(player, cmd, deps)
		}
	case net.CmdDespawn:
		var cmd net.DespawnCmd
		if decode(sess, env, &cmd, deps) {
			HandleDespawn(player, cmd, deps)
		}
	default:
		deps.Log.Debug("unknown command type",
			zap.Uint64("session", sess.ID), zap.String("type", env.Type))
	}
}

func decode(sess *net.Session, env net.Envelope, out any, deps *Deps) bool {
	if err := json.Unmarshal(env.Data, out); err != nil {
		deps.Log.Warn("malformed command payload",
			zap.Uint64("session", sess.ID),
			zap.String("type", env.Type), zap.Error(err))
		return false
	}
	return true
}
