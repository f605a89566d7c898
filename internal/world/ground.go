package world

import (
	"sync/atomic"
	"time"
)

// groundItemIDCounter generates unique object IDs for ground items.
// Starts at 700_000_000 to avoid collision with character and NPC IDs.
var groundItemIDCounter atomic.Int32

func init() {
	groundItemIDCounter.Store(700_000_000)
}

// NextGroundItemID returns a unique object ID for a ground item.
func NextGroundItemID() int32 {
	return groundItemIDCounter.Add(1)
}

// GroundItem is an item stack lying on a tile. Ground items never block
// occupancy and exist only in memory.
type GroundItem struct {
	ID     int32 // unique ground object ID
	ItemID int32 // template ID
	Count  int32 // stack count
	X      int32
	Y      int32
	MapID  int16

	OwnerID   int32     // temporary pickup priority for the killer (0 = anyone)
	DroppedAt time.Time
	ExpiresAt time.Time // zero = never expires
}
