package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duskhollow/server/internal/net"
	"github.com/duskhollow/server/internal/world"
)

func dropAt(t *testing.T, deps *Deps, itemID, count, x, y int32, owner int32) *world.GroundItem {
	t.Helper()
	gi := &world.GroundItem{
		ID:      world.NextGroundItemID(),
		ItemID:  itemID,
		Count:   count,
		X:       x,
		Y:       y,
		MapID:   1,
		OwnerID: owner,
	}
	require.NoError(t, deps.World.AddGroundItem(gi))
	return gi
}

func TestPickupGold(t *testing.T) {
	deps, _ := newTestDeps(t)
	p := enterWorld(t, deps, "alice")
	gi := dropAt(t, deps, GoldItemID, 75, p.X, p.Y, 0)

	HandlePickup(p, net.PickupCmd{ObjectID: gi.ID}, deps)
	assert.Equal(t, int64(75), p.Gold)
	assert.Zero(t, p.Inv.Len(), "gold goes to the wallet, not a slot")
	assert.Nil(t, deps.World.GetGroundItem(gi.ID))
}

func TestPickupItem(t *testing.T) {
	deps, _ := newTestDeps(t)
	p := enterWorld(t, deps, "alice")
	gi := dropAt(t, deps, 40001, 3, p.X+1, p.Y, 0)

	HandlePickup(p, net.PickupCmd{ObjectID: gi.ID}, deps)
	require.Equal(t, 1, p.Inv.Len())
	assert.Equal(t, int32(40001), p.Inv.At(0).ItemID)
	assert.Equal(t, int32(3), p.Inv.At(0).Count)
	assert.True(t, p.Dirty)
}

func TestPickupRangeAndOwnership(t *testing.T) {
	deps, _ := newTestDeps(t)
	p := enterWorld(t, deps, "alice")

	far := dropAt(t, deps, 40001, 1, p.X+2, p.Y, 0)
	HandlePickup(p, net.PickupCmd{ObjectID: far.ID}, deps)
	assert.Zero(t, p.Inv.Len(), "two tiles away is out of reach")
	assert.NotNil(t, deps.World.GetGroundItem(far.ID))

	owned := dropAt(t, deps, 40001, 1, p.X, p.Y, p.CharID+500)
	HandlePickup(p, net.PickupCmd{ObjectID: owned.ID}, deps)
	assert.Zero(t, p.Inv.Len(), "killer priority holds")
	assert.NotNil(t, deps.World.GetGroundItem(owned.ID))

	// The owner themselves may take it.
	owned.OwnerID = p.CharID
	HandlePickup(p, net.PickupCmd{ObjectID: owned.ID}, deps)
	assert.Equal(t, 1, p.Inv.Len())
}

func TestDropCreatesGroundItem(t *testing.T) {
	deps, clock := newTestDeps(t)
	p := enterWorld(t, deps, "alice")
	p.Inv.Add(40001, 5, true)

	HandleDrop(p, net.DropCmd{Slot: 0, Count: 2}, deps)
	assert.Equal(t, int32(3), p.Inv.At(0).Count)

	items := deps.World.GroundItemsAt(1, p.X, p.Y)
	require.Len(t, items, 1)
	assert.Equal(t, int32(40001), items[0].ItemID)
	assert.Equal(t, int32(2), items[0].Count)
	assert.Equal(t, clock.Now().Add(deps.Config.Gameplay.GroundItemTTL), items[0].ExpiresAt)
	assert.Zero(t, items[0].OwnerID, "player drops carry no pickup priority")
}

func TestDropValidation(t *testing.T) {
	deps, _ := newTestDeps(t)
	p := enterWorld(t, deps, "alice")
	p.Inv.Add(40001, 5, true)

	HandleDrop(p, net.DropCmd{Slot: 3, Count: 1}, deps)
	HandleDrop(p, net.DropCmd{Slot: 0, Count: 0}, deps)
	HandleDrop(p, net.DropCmd{Slot: 0, Count: -2}, deps)
	assert.Equal(t, int32(5), p.Inv.At(0).Count)
	assert.Empty(t, deps.World.GroundItemsAt(1, p.X, p.Y))

	p.Dead = true
	HandleDrop(p, net.DropCmd{Slot: 0, Count: 1}, deps)
	assert.Equal(t, int32(5), p.Inv.At(0).Count)
}

func TestAttackQueuesAdjacentTarget(t *testing.T) {
	deps, _ := newTestDeps(t)
	p := enterWorld(t, deps, "alice")
	adj := spawnTestNpc(t, deps, p.X+1, p.Y+1)
	far := spawnTestNpc(t, deps, p.X+5, p.Y)

	HandleAttack(p, net.AttackCmd{TargetID: adj.ID}, deps)
	HandleAttack(p, net.AttackCmd{TargetID: far.ID}, deps)
	HandleAttack(p, net.AttackCmd{TargetID: 9999}, deps)

	reqs := deps.Actions.DrainAttacks()
	require.Len(t, reqs, 1, "only the adjacent live target queues")
	assert.Equal(t, p.SessionID, reqs[0].SessionID)
	assert.Equal(t, adj.ID, reqs[0].TargetID)
	assert.Zero(t, reqs[0].SpellID)
}

func TestCastValidation(t *testing.T) {
	deps, clock := newTestDeps(t)
	p := enterWorld(t, deps, "alice")
	npc := spawnTestNpc(t, deps, p.X+4, p.Y)

	HandleCast(p, net.CastCmd{SpellID: 1, TargetID: npc.ID}, deps)
	reqs := deps.Actions.DrainAttacks()
	require.Len(t, reqs, 1)
	assert.Equal(t, int32(1), reqs[0].SpellID)

	// Unknown spell, out of range, cooldown, and MP are all gates.
	HandleCast(p, net.CastCmd{SpellID: 9, TargetID: npc.ID}, deps)
	assert.Empty(t, deps.Actions.DrainAttacks())

	farNpc := spawnTestNpc(t, deps, p.X+10, p.Y)
	HandleCast(p, net.CastCmd{SpellID: 1, TargetID: farNpc.ID}, deps)
	assert.Empty(t, deps.Actions.DrainAttacks())

	p.SpellReadyAt = clock.Now().Add(time.Second)
	HandleCast(p, net.CastCmd{SpellID: 1, TargetID: npc.ID}, deps)
	assert.Empty(t, deps.Actions.DrainAttacks())
	clock.Advance(2 * time.Second)

	p.MP = 1
	HandleCast(p, net.CastCmd{SpellID: 1, TargetID: npc.ID}, deps)
	assert.Empty(t, deps.Actions.DrainAttacks())
}
