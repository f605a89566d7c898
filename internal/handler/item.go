package handler

import (
	"github.com/duskhollow/server/internal/net"
	"github.com/duskhollow/server/internal/world"
)

// HandlePickup moves a ground item into the player's inventory. The item
// must be on or next to the player's tile, and a killer's pickup priority is
// honored while it lasts.
func HandlePickup(p *world.PlayerInfo, cmd net.PickupCmd, deps *Deps) {
	if p.Dead {
		return
	}
	item := deps.World.GetGroundItem(cmd.ObjectID)
	if item == nil || item.MapID != p.MapID {
		return
	}
	if world.Chebyshev(p.X, p.Y, item.X, item.Y) > 1 {
		return
	}
	if item.OwnerID != 0 && item.OwnerID != p.CharID {
		p.Session.Send(net.EvSystemMsg, net.SystemMsgEvent{Text: "that belongs to someone else"})
		return
	}

	deps.World.RemoveGroundItem(item.ID)

	if item.ItemID == GoldItemID {
		p.Gold += int64(item.Count)
		p.Session.Send(net.EvInventory, net.InventoryEvent{Slot: -1, Gold: p.Gold})
	} else {
		tmpl := deps.Items.Get(item.ItemID)
		stackable := tmpl != nil && tmpl.Stackable
		slot := p.Inv.Add(item.ItemID, item.Count, stackable)
		st := p.Inv.At(slot)
		p.Session.Send(net.EvInventory, net.InventoryEvent{
			Slot: int32(slot), ItemID: st.ItemID, Count: st.Count, Gold: p.Gold,
		})
	}
	p.Dirty = true
}

// GoldItemID is the reserved template ID for currency drops.
const GoldItemID = 1

// HandleDrop takes a stack out of the player's inventory and puts it on the
// ground at their feet with the configured lifetime.
func HandleDrop(p *world.PlayerInfo, cmd net.DropCmd, deps *Deps) {
	if p.Dead || cmd.Count <= 0 {
		return
	}
	st := p.Inv.At(int(cmd.Slot))
	if st == nil {
		return
	}
	itemID := st.ItemID
	removed := p.Inv.Remove(int(cmd.Slot), cmd.Count)
	if removed == 0 {
		return
	}

	now := deps.Now()
	gi := &world.GroundItem{
		ID:        world.NextGroundItemID(),
		ItemID:    itemID,
		Count:     removed,
		X:         p.X,
		Y:         p.Y,
		MapID:     p.MapID,
		DroppedAt: now,
		ExpiresAt: now.Add(deps.Config.Gameplay.GroundItemTTL),
	}
	if err := deps.World.AddGroundItem(gi); err != nil {
		// Index refused the drop; put the stack back.
		tmpl := deps.Items.Get(itemID)
		p.Inv.Add(itemID, removed, tmpl != nil && tmpl.Stackable)
		return
	}

	remaining := p.Inv.At(int(cmd.Slot))
	ev := net.InventoryEvent{Slot: cmd.Slot, Gold: p.Gold}
	if remaining != nil {
		ev.ItemID = remaining.ItemID
		ev.Count = remaining.Count
	}
	p.Session.Send(net.EvInventory, ev)
	p.Dirty = true
}
