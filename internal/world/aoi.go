package world

// Cell-based Area of Interest grids. A query inspects the block of cells
// covering the requested Chebyshev radius; callers do fine-grained distance
// filtering. Accessed only from the game loop goroutine — no locks.

const cellSize = 16

type cellKey struct {
	mapID int16
	cx    int32
	cy    int32
}

func toCellCoord(v int32) int32 {
	if v < 0 {
		return (v - cellSize + 1) / cellSize
	}
	return v / cellSize
}

// cellSpan returns how many cells on each side a radius query must cover.
func cellSpan(radius int32) int32 {
	if radius < 0 {
		radius = 0
	}
	return radius/cellSize + 1
}

// AOIGrid tracks which sessions are in which cells.
type AOIGrid struct {
	cells map[cellKey]map[uint64]struct{} // cellKey → set of sessionIDs
}

func NewAOIGrid() *AOIGrid {
	return &AOIGrid{cells: make(map[cellKey]map[uint64]struct{})}
}

func (g *AOIGrid) key(x, y int32, mapID int16) cellKey {
	return cellKey{mapID: mapID, cx: toCellCoord(x), cy: toCellCoord(y)}
}

// Add places a session into the grid.
func (g *AOIGrid) Add(sessionID uint64, x, y int32, mapID int16) {
	k := g.key(x, y, mapID)
	cell := g.cells[k]
	if cell == nil {
		cell = make(map[uint64]struct{})
		g.cells[k] = cell
	}
	cell[sessionID] = struct{}{}
}

// Remove takes a session out of the grid.
func (g *AOIGrid) Remove(sessionID uint64, x, y int32, mapID int16) {
	k := g.key(x, y, mapID)
	cell := g.cells[k]
	if cell != nil {
		delete(cell, sessionID)
		if len(cell) == 0 {
			delete(g.cells, k)
		}
	}
}

// Move updates a session's cell when its position changes.
func (g *AOIGrid) Move(sessionID uint64, oldX, oldY int32, oldMap int16, newX, newY int32, newMap int16) {
	oldK := g.key(oldX, oldY, oldMap)
	newK := g.key(newX, newY, newMap)
	if oldK == newK {
		return
	}
	g.Remove(sessionID, oldX, oldY, oldMap)
	g.Add(sessionID, newX, newY, newMap)
}

// GetNearbyInto appends all session IDs whose cells fall within radius of the
// given position into buf[:0] and returns it. Reusing buf avoids a per-query
// allocation on the hot path.
func (g *AOIGrid) GetNearbyInto(x, y int32, mapID int16, radius int32, buf []uint64) []uint64 {
	result := buf[:0]
	cx := toCellCoord(x)
	cy := toCellCoord(y)
	span := cellSpan(radius)
	for dx := -span; dx <= span; dx++ {
		for dy := -span; dy <= span; dy++ {
			k := cellKey{mapID: mapID, cx: cx + dx, cy: cy + dy}
			for sid := range g.cells[k] {
				result = append(result, sid)
			}
		}
	}
	return result
}

// NpcAOIGrid is the NPC counterpart, keyed by object ID.
type NpcAOIGrid struct {
	cells map[cellKey]map[int32]struct{}
}

func NewNpcAOIGrid() *NpcAOIGrid {
	return &NpcAOIGrid{cells: make(map[cellKey]map[int32]struct{})}
}

func (g *NpcAOIGrid) key(x, y int32, mapID int16) cellKey {
	return cellKey{mapID: mapID, cx: toCellCoord(x), cy: toCellCoord(y)}
}

func (g *NpcAOIGrid) Add(id int32, x, y int32, mapID int16) {
	k := g.key(x, y, mapID)
	cell := g.cells[k]
	if cell == nil {
		cell = make(map[int32]struct{})
		g.cells[k] = cell
	}
	cell[id] = struct{}{}
}

func (g *NpcAOIGrid) Remove(id int32, x, y int32, mapID int16) {
	k := g.key(x, y, mapID)
	cell := g.cells[k]
	if cell != nil {
		delete(cell, id)
		if len(cell) == 0 {
			delete(g.cells, k)
		}
	}
}

func (g *NpcAOIGrid) Move(id int32, oldX, oldY int32, oldMap int16, newX, newY int32, newMap int16) {
	oldK := g.key(oldX, oldY, oldMap)
	newK := g.key(newX, newY, newMap)
	if oldK == newK {
		return
	}
	g.Remove(id, oldX, oldY, oldMap)
	g.Add(id, newX, newY, newMap)
}

func (g *NpcAOIGrid) GetNearbyInto(x, y int32, mapID int16, radius int32, buf []int32) []int32 {
	result := buf[:0]
	cx := toCellCoord(x)
	cy := toCellCoord(y)
	span := cellSpan(radius)
	for dx := -span; dx <= span; dx++ {
		for dy := -span; dy <= span; dy++ {
			k := cellKey{mapID: mapID, cx: cx + dx, cy: cy + dy}
			for id := range g.cells[k] {
				result = append(result, id)
			}
		}
	}
	return result
}

// Chebyshev returns max(|dx|, |dy|) — the square range metric used for all
// aggro, attack and visibility checks.
func Chebyshev(x1, y1, x2, y2 int32) int32 {
	dx := x1 - x2
	dy := y1 - y2
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	if dy > dx {
		return dy
	}
	return dx
}
