package world

// MapGrid holds one map's fixed bounds, static terrain and dynamic tile
// occupancy. A tile holds at most one blocking occupant; ground items are
// tracked separately and never block. Accessed only from the game loop
// goroutine — no locks.
type MapGrid struct {
	ID     int16
	StartX int32
	StartY int32
	EndX   int32 // inclusive
	EndY   int32 // inclusive

	blocked []bool // static terrain, immutable after load
	occ     []int32
}

// NewMapGrid builds a grid for the given inclusive bounds. blocked may be nil
// (fully walkable) or sized (EndX-StartX+1)*(EndY-StartY+1), row-major by X.
func NewMapGrid(id int16, startX, startY, endX, endY int32, blocked []bool) *MapGrid {
	w := endX - startX + 1
	h := endY - startY + 1
	g := &MapGrid{
		ID:     id,
		StartX: startX,
		StartY: startY,
		EndX:   endX,
		EndY:   endY,
		occ:    make([]int32, w*h),
	}
	if len(blocked) == int(w*h) {
		g.blocked = blocked
	} else {
		g.blocked = make([]bool, w*h)
	}
	return g
}

func (g *MapGrid) idx(x, y int32) int32 {
	return (x-g.StartX)*(g.EndY-g.StartY+1) + (y - g.StartY)
}

// InBounds reports whether the tile lies inside the map.
func (g *MapGrid) InBounds(x, y int32) bool {
	return x >= g.StartX && x <= g.EndX && y >= g.StartY && y <= g.EndY
}

// Blocked reports whether the tile is impassable terrain.
func (g *MapGrid) Blocked(x, y int32) bool {
	if !g.InBounds(x, y) {
		return true
	}
	return g.blocked[g.idx(x, y)]
}

// OccupantAt returns the blocking occupant's entity ID, or 0 if the tile is free.
func (g *MapGrid) OccupantAt(x, y int32) int32 {
	if !g.InBounds(x, y) {
		return 0
	}
	return g.occ[g.idx(x, y)]
}

// Place registers a blocking entity on a tile. Fails without side effects
// when the tile is out of bounds, terrain-blocked, or already held by a
// different entity.
func (g *MapGrid) Place(x, y int32, entityID int32) error {
	if !g.InBounds(x, y) {
		return ErrOutOfBounds
	}
	i := g.idx(x, y)
	if g.blocked[i] {
		return ErrTileBlocked
	}
	if cur := g.occ[i]; cur != 0 && cur != entityID {
		return ErrTileOccupied
	}
	g.occ[i] = entityID
	return nil
}

// Vacate releases a tile if it is held by the given entity.
func (g *MapGrid) Vacate(x, y int32, entityID int32) {
	if !g.InBounds(x, y) {
		return
	}
	i := g.idx(x, y)
	if g.occ[i] == entityID {
		g.occ[i] = 0
	}
}

// Move performs an atomic check-then-move. On any failure the entity stays
// registered at (fromX, fromY); it is never at two tiles or none.
func (g *MapGrid) Move(fromX, fromY, toX, toY int32, entityID int32) error {
	if fromX == toX && fromY == toY {
		return nil
	}
	if !g.InBounds(toX, toY) {
		return ErrOutOfBounds
	}
	ti := g.idx(toX, toY)
	if g.blocked[ti] {
		return ErrTileBlocked
	}
	if cur := g.occ[ti]; cur != 0 && cur != entityID {
		return ErrTileOccupied
	}
	g.Vacate(fromX, fromY, entityID)
	g.occ[ti] = entityID
	return nil
}
