package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventoryStacking(t *testing.T) {
	inv := NewInventory()

	slot := inv.Add(40001, 3, true)
	assert.Equal(t, 0, slot)
	assert.Equal(t, 0, inv.Add(40001, 2, true), "stackable merges into the same slot")
	assert.Equal(t, int32(5), inv.At(0).Count)

	// Non-stackables each take a slot even with the same item ID.
	assert.Equal(t, 1, inv.Add(50001, 1, false))
	assert.Equal(t, 2, inv.Add(50001, 1, false))
	assert.Equal(t, 3, inv.Len())
}

func TestInventoryRemove(t *testing.T) {
	inv := NewInventory()
	inv.Add(40001, 5, true)
	inv.Add(50001, 1, false)

	assert.Equal(t, int32(2), inv.Remove(0, 2))
	assert.Equal(t, int32(3), inv.At(0).Count)

	// Over-remove caps at the held count and deletes the slot.
	assert.Equal(t, int32(3), inv.Remove(0, 99))
	assert.Equal(t, 1, inv.Len())
	assert.Equal(t, int32(50001), inv.At(0).ItemID, "remaining stack shifts down")

	// Invalid slots and counts.
	assert.Equal(t, int32(0), inv.Remove(5, 1))
	assert.Equal(t, int32(0), inv.Remove(-1, 1))
	assert.Equal(t, int32(0), inv.Remove(0, 0))
}

func TestGroupLifecycle(t *testing.T) {
	m := NewGroupManager()

	g := m.Create(100, 101)
	require.NotNil(t, g)
	assert.Equal(t, int32(100), g.LeaderID)
	assert.Same(t, g, m.GroupOf(100))
	assert.Same(t, g, m.GroupOf(101))

	// Grouped players cannot form or join a second group.
	assert.Nil(t, m.Create(100, 102))
	assert.Nil(t, m.Create(102, 101))
	assert.True(t, m.AddMember(100, 102))
	assert.False(t, m.AddMember(100, 102))

	// Leader departure hands off leadership.
	left := m.RemoveMember(100)
	require.NotNil(t, left)
	assert.Nil(t, m.GroupOf(100))
	g = m.GroupOf(101)
	require.NotNil(t, g)
	assert.Equal(t, int32(101), g.LeaderID)

	// Dropping to one member dissolves the group entirely.
	m.RemoveMember(102)
	assert.Nil(t, m.GroupOf(101))
	assert.Nil(t, m.GroupOf(102))
}

func TestGroupSizeCap(t *testing.T) {
	m := NewGroupManager()
	require.NotNil(t, m.Create(1, 2))
	for id := int32(3); id <= MaxGroupSize; id++ {
		assert.True(t, m.AddMember(1, id))
	}
	assert.False(t, m.AddMember(1, 99), "group is full")
	assert.Len(t, m.GroupOf(1).Members, MaxGroupSize)
}
