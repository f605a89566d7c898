package world

import (
	"container/heap"
	"errors"
)

// ErrNoPath is returned when the node budget runs out or the goal is
// unreachable.
var ErrNoPath = errors.New("no path")

// Step is one tile of a planned path.
type Step struct {
	X, Y int32
}

// Movement is 4-directional; diagonals are not walkable even though
// distance and adjacency use Chebyshev metric.
var cardinal = [4][2]int32{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}

type pathNode struct {
	x, y    int32
	g       int32 // cost from start
	f       int32 // g + heuristic
	parent  *pathNode
	heapIdx int
}

type nodeHeap []*pathNode

func (h nodeHeap) Len() int            { return len(h) }
func (h nodeHeap) Less(i, j int) bool  { return h[i].f < h[j].f }
func (h nodeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].heapIdx = i; h[j].heapIdx = j }
func (h *nodeHeap) Push(x any)         { n := x.(*pathNode); n.heapIdx = len(*h); *h = append(*h, n) }
func (h *nodeHeap) Pop() any           { old := *h; n := old[len(old)-1]; *h = old[:len(old)-1]; return n }

func manhattan(x1, y1, x2, y2 int32) int32 {
	dx, dy := x1-x2, y1-y2
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// FindPath plans a 4-directional path from (sx,sy) to (tx,ty) with A*.
// Tiles held by blocking occupants are impassable, except the mover itself
// and the goal occupant (so a path can terminate next to a target standing
// on the goal tile). Expansion stops after nodeBudget nodes; paths are
// replanned every tick, so a truncated search just means no move this tick.
// The returned path excludes the start tile and stops short of the goal
// tile when the goal is occupied.
func FindPath(s *State, mapID int16, sx, sy, tx, ty, selfID int32, nodeBudget int) ([]Step, error) {
	g := s.Map(mapID)
	if g == nil {
		return nil, ErrUnknownMap
	}
	if !g.InBounds(tx, ty) {
		return nil, ErrOutOfBounds
	}
	if sx == tx && sy == ty {
		return nil, nil
	}

	goalOccupied := g.Blocked(tx, ty) || (g.OccupantAt(tx, ty) != 0 && g.OccupantAt(tx, ty) != selfID)

	type key struct{ x, y int32 }
	open := &nodeHeap{}
	heap.Init(open)
	nodes := make(map[key]*pathNode)
	closed := make(map[key]bool)

	start := &pathNode{x: sx, y: sy, g: 0, f: manhattan(sx, sy, tx, ty)}
	heap.Push(open, start)
	nodes[key{sx, sy}] = start

	expanded := 0
	for open.Len() > 0 {
		cur := heap.Pop(open).(*pathNode)
		k := key{cur.x, cur.y}
		if closed[k] {
			continue
		}
		closed[k] = true

		// Done when standing on the goal, or adjacent to an occupied goal.
		if cur.x == tx && cur.y == ty {
			return buildPath(cur), nil
		}
		if goalOccupied && Chebyshev(cur.x, cur.y, tx, ty) <= 1 {
			return buildPath(cur), nil
		}

		expanded++
		if expanded > nodeBudget {
			return nil, ErrNoPath
		}

		for _, d := range cardinal {
			nx, ny := cur.x+d[0], cur.y+d[1]
			nk := key{nx, ny}
			if closed[nk] || !g.InBounds(nx, ny) || g.Blocked(nx, ny) {
				continue
			}
			// The goal tile itself stays expandable when unoccupied.
			if occ := g.OccupantAt(nx, ny); occ != 0 && occ != selfID {
				continue
			}
			ng := cur.g + 1
			if existing, ok := nodes[nk]; ok {
				if ng >= existing.g {
					continue
				}
				existing.g = ng
				existing.f = ng + manhattan(nx, ny, tx, ty)
				existing.parent = cur
				heap.Fix(open, existing.heapIdx)
				continue
			}
			n := &pathNode{x: nx, y: ny, g: ng, f: ng + manhattan(nx, ny, tx, ty), parent: cur}
			nodes[nk] = n
			heap.Push(open, n)
		}
	}
	return nil, ErrNoPath
}

// buildPath walks parents back to the start and reverses, dropping the
// start tile.
func buildPath(end *pathNode) []Step {
	var rev []Step
	for n := end; n.parent != nil; n = n.parent {
		rev = append(rev, Step{X: n.x, Y: n.y})
	}
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	return rev
}
