package handler

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/duskhollow/server/internal/core/event"
	"github.com/duskhollow/server/internal/net"
	"github.com/duskhollow/server/internal/persist"
	"github.com/duskhollow/server/internal/world"
)

const loadTimeout = 3 * time.Second

// HandleLogin loads or creates the named character and places it in the
// world. On any failure the session is told why and closed.
func HandleLogin(sess *net.Session, cmd net.LoginCmd, deps *Deps) {
	name := cmd.Name
	if name == "" || utf8.RuneCountInString(name) > 16 {
		sess.Send(net.EvSystemMsg, net.SystemMsgEvent{Text: "invalid character name"})
		sess.FlushOutput()
		sess.Close()
		return
	}
	if deps.World.GetByName(name) != nil {
		sess.Send(net.EvSystemMsg, net.SystemMsgEvent{Text: "character already in world"})
		sess.FlushOutput()
		sess.Close()
		return
	}

	p := loadOrCreate(sess, name, deps)
	if p == nil {
		return
	}

	if err := deps.World.AddPlayer(p); err != nil {
		// Saved tile is taken or stale; fall back to a free tile near the
		// map spawn point.
		if !placeAtSpawn(p, deps) {
			deps.Log.Error("no free tile for login",
				zap.String("name", name), zap.Int16("map", p.MapID))
			sess.Send(net.EvSystemMsg, net.SystemMsgEvent{Text: "world is full, try again"})
			sess.FlushOutput()
			sess.Close()
			return
		}
	}

	deps.Log.Info("player entered world",
		zap.String("name", p.Name), zap.Int32("char_id", p.CharID),
		zap.Int16("map", p.MapID), zap.Int32("x", p.X), zap.Int32("y", p.Y))
	event.Emit(deps.Bus, event.PlayerEnteredWorld{SessionID: p.SessionID, CharID: p.CharID})

	sess.Send(net.EvWelcome, net.WelcomeEvent{
		CharID: p.CharID, Name: p.Name, MapID: p.MapID, X: p.X, Y: p.Y,
		Level: p.Level, HP: p.HP, MaxHP: p.MaxHP, MP: p.MP, MaxMP: p.MaxMP,
	})
	for i, st := range p.Inv.Slots() {
		sess.Send(net.EvInventory, net.InventoryEvent{
			Slot: int32(i), ItemID: st.ItemID, Count: st.Count, Gold: p.Gold,
		})
	}
}

func loadOrCreate(sess *net.Session, name string, deps *Deps) *world.PlayerInfo {
	var rec *persist.CharacterRecord
	if deps.Chars != nil {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		loaded, err := deps.Chars.Load(ctx, name)
		switch {
		case err == nil:
			rec = loaded
		case errors.Is(err, persist.ErrCharacterNotFound):
			// fresh character
		default:
			deps.Log.Error("character load failed", zap.String("name", name), zap.Error(err))
			sess.Send(net.EvSystemMsg, net.SystemMsgEvent{Text: "login failed, try again"})
			sess.FlushOutput()
			sess.Close()
			return nil
		}
	}

	now := deps.Now()
	p := &world.PlayerInfo{
		SessionID:    sess.ID,
		Session:      sess,
		Name:         name,
		VisRadius:    deps.Config.Gameplay.VisibilityRadius,
		Inv:          world.NewInventory(),
		Known:        world.NewKnownEntities(),
		LastHungerAt: now,
	}
	for _, admin := range deps.Config.Server.Admins {
		if admin == name {
			p.Admin = true
		}
	}

	if rec != nil {
		p.CharID = rec.CharID
		p.Level, p.Exp = rec.Level, rec.Exp
		p.MapID, p.X, p.Y, p.Heading = rec.MapID, rec.X, rec.Y, rec.Heading
		p.HP, p.MaxHP, p.MP, p.MaxMP = rec.HP, rec.MaxHP, rec.MP, rec.MaxMP
		p.Str, p.Dex, p.Con = rec.Str, rec.Dex, rec.Con
		p.Gold, p.Food = rec.Gold, rec.Food
		if p.HP <= 0 {
			p.HP = 1
		}
		for _, it := range rec.Items {
			tmpl := deps.Items.Get(it.ItemID)
			stackable := tmpl != nil && tmpl.Stackable
			p.Inv.Add(it.ItemID, it.Count, stackable)
		}
		return p
	}

	p.CharID = deps.NextCharID()
	p.Level = 1
	p.Str, p.Dex, p.Con = 12, 12, 12
	p.MaxHP = int16(16 + int(p.Con)/2)
	p.HP = p.MaxHP
	p.MaxMP = 10
	p.MP = p.MaxMP
	p.Food = deps.Config.Gameplay.InitialFood
	p.MapID = deps.Config.Gameplay.StartMapID
	if info := deps.Maps.Get(p.MapID); info != nil {
		p.X, p.Y = info.SpawnX, info.SpawnY
	}
	p.Dirty = true
	return p
}

// placeAtSpawn puts the player on the map spawn point or the nearest free
// tile around it. Returns false when nothing within the search radius is
// free.
func placeAtSpawn(p *world.PlayerInfo, deps *Deps) bool {
	info := deps.Maps.Get(deps.Config.Gameplay.StartMapID)
	if info == nil {
		return false
	}
	p.MapID = info.MapID
	if x, y, ok := FindFreeTile(deps.World, info.MapID, info.SpawnX, info.SpawnY, 4); ok {
		p.X, p.Y = x, y
		return deps.World.AddPlayer(p) == nil
	}
	return false
}

// FindFreeTile searches outward from (x,y) in growing Chebyshev rings for a
// walkable unoccupied tile.
func FindFreeTile(s *world.State, mapID int16, x, y, maxRadius int32) (int32, int32, bool) {
	if s.Walkable(mapID, x, y) && s.OccupantAt(mapID, x, y) == 0 {
		return x, y, true
	}
	for r := int32(1); r <= maxRadius; r++ {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if world.Chebyshev(0, 0, dx, dy) != r {
					continue
				}
				nx, ny := x+dx, y+dy
				if s.Walkable(mapID, nx, ny) && s.OccupantAt(mapID, nx, ny) == 0 {
					return nx, ny, true
				}
			}
		}
	}
	return 0, 0, false
}
