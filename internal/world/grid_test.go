package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapGridPlaceAndVacate(t *testing.T) {
	g := NewMapGrid(1, 0, 0, 9, 9, nil)

	require.NoError(t, g.Place(3, 4, 100))
	assert.Equal(t, int32(100), g.OccupantAt(3, 4))

	// Re-placing the same entity on its own tile is a no-op, not a conflict.
	assert.NoError(t, g.Place(3, 4, 100))

	// A second entity cannot share the tile.
	assert.ErrorIs(t, g.Place(3, 4, 200), ErrTileOccupied)

	// Vacate by the wrong entity leaves the holder in place.
	g.Vacate(3, 4, 200)
	assert.Equal(t, int32(100), g.OccupantAt(3, 4))

	g.Vacate(3, 4, 100)
	assert.Equal(t, int32(0), g.OccupantAt(3, 4))
}

func TestMapGridPlaceRejectsBlockedTerrain(t *testing.T) {
	// 2x2 map with tile (1,0) blocked; row-major by X.
	blocked := []bool{false, false, true, false}
	g := NewMapGrid(1, 0, 0, 1, 1, blocked)

	assert.True(t, g.Blocked(1, 0))
	assert.ErrorIs(t, g.Place(1, 0, 7), ErrTileBlocked)
	assert.ErrorIs(t, g.Place(5, 5, 7), ErrOutOfBounds)
}

func TestMapGridMoveAtomicity(t *testing.T) {
	g := NewMapGrid(1, 0, 0, 9, 9, nil)
	require.NoError(t, g.Place(1, 1, 100))
	require.NoError(t, g.Place(2, 1, 200))

	// Destination held by another entity: mover keeps its source tile.
	err := g.Move(1, 1, 2, 1, 100)
	assert.ErrorIs(t, err, ErrTileOccupied)
	assert.Equal(t, int32(100), g.OccupantAt(1, 1))
	assert.Equal(t, int32(200), g.OccupantAt(2, 1))

	// Successful move holds exactly the destination.
	require.NoError(t, g.Move(1, 1, 1, 2, 100))
	assert.Equal(t, int32(0), g.OccupantAt(1, 1))
	assert.Equal(t, int32(100), g.OccupantAt(1, 2))

	// Out of bounds leaves the source held.
	assert.ErrorIs(t, g.Move(1, 2, -1, 2, 100), ErrOutOfBounds)
	assert.Equal(t, int32(100), g.OccupantAt(1, 2))
}

func TestMapGridNonZeroOrigin(t *testing.T) {
	g := NewMapGrid(4, 100, 200, 109, 219, nil)

	assert.True(t, g.InBounds(100, 200))
	assert.True(t, g.InBounds(109, 219))
	assert.False(t, g.InBounds(99, 200))
	assert.False(t, g.InBounds(110, 219))

	require.NoError(t, g.Place(105, 210, 42))
	assert.Equal(t, int32(42), g.OccupantAt(105, 210))
}
