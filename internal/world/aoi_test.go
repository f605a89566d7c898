package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChebyshev(t *testing.T) {
	assert.Equal(t, int32(0), Chebyshev(5, 5, 5, 5))
	assert.Equal(t, int32(1), Chebyshev(5, 5, 6, 6))
	assert.Equal(t, int32(7), Chebyshev(0, 0, 7, 3))
	assert.Equal(t, int32(7), Chebyshev(7, 3, 0, 0))
	assert.Equal(t, int32(4), Chebyshev(-2, 0, 2, 1))
}

func TestAOIGridQuery(t *testing.T) {
	g := NewAOIGrid()
	g.Add(1, 10, 10, 1)
	g.Add(2, 20, 20, 1)
	g.Add(3, 200, 200, 1)
	g.Add(4, 10, 10, 2)

	got := g.GetNearbyInto(10, 10, 1, 15, nil)
	assert.ElementsMatch(t, []uint64{1, 2}, got)

	// A radius query may over-approximate at cell granularity but never
	// misses an in-range entry.
	got = g.GetNearbyInto(12, 12, 1, 15, got)
	assert.Contains(t, got, uint64(1))
	assert.Contains(t, got, uint64(2))
	assert.NotContains(t, got, uint64(3))
	assert.NotContains(t, got, uint64(4))
}

func TestAOIGridMoveAndRemove(t *testing.T) {
	g := NewAOIGrid()
	g.Add(1, 10, 10, 1)

	g.Move(1, 10, 10, 1, 100, 100, 1)
	assert.Empty(t, g.GetNearbyInto(10, 10, 1, 15, nil))
	assert.Contains(t, g.GetNearbyInto(100, 100, 1, 15, nil), uint64(1))

	// Cross-map move.
	g.Move(1, 100, 100, 1, 100, 100, 2)
	assert.Empty(t, g.GetNearbyInto(100, 100, 1, 15, nil))
	assert.Contains(t, g.GetNearbyInto(100, 100, 2, 15, nil), uint64(1))

	g.Remove(1, 100, 100, 2)
	assert.Empty(t, g.GetNearbyInto(100, 100, 2, 15, nil))
}

func TestAOIGridNegativeCoordinates(t *testing.T) {
	g := NewAOIGrid()
	g.Add(1, -5, -5, 1)

	got := g.GetNearbyInto(-3, -3, 1, 15, nil)
	assert.Contains(t, got, uint64(1))
}
