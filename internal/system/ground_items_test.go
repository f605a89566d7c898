package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duskhollow/server/internal/world"
)

func dropItem(t *testing.T, h *harness, ownerID int32, ttl time.Duration) *world.GroundItem {
	t.Helper()
	gi := &world.GroundItem{
		ID:        world.NextGroundItemID(),
		ItemID:    40010,
		Count:     1,
		X:         25,
		Y:         25,
		MapID:     1,
		OwnerID:   ownerID,
		DroppedAt: h.clock.Now(),
		ExpiresAt: h.clock.Now().Add(ttl),
	}
	require.NoError(t, h.ws.AddGroundItem(gi))
	return gi
}

func TestGroundItemExpiry(t *testing.T) {
	h := newHarness(t)
	gs := NewGroundItemSystem(h.deps)

	gi := dropItem(t, h, 0, time.Minute)

	gs.Update(0)
	assert.NotNil(t, h.ws.GetGroundItem(gi.ID))

	h.clock.Advance(time.Minute)
	gs.Update(0)
	assert.Nil(t, h.ws.GetGroundItem(gi.ID))
}

func TestLootOwnershipReleases(t *testing.T) {
	h := newHarness(t)
	gs := NewGroundItemSystem(h.deps)

	gi := dropItem(t, h, 77, time.Hour)

	h.clock.Advance(19 * time.Second)
	gs.Update(0)
	assert.Equal(t, int32(77), gi.OwnerID, "priority window still open")

	h.clock.Advance(time.Second)
	gs.Update(0)
	assert.Zero(t, gi.OwnerID, "priority released after the window")
}
