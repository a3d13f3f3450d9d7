// Package routing implements the two A* searches used by the editor: grid
// routing between arbitrary hexes while a path is drawn, and network routing
// over the graph induced by committed paths for token movement.
package routing

import (
	"container/heap"

	"github.com/talgya/hexworlds/internal/world"
)

// node is an open-set entry. Entries are never updated in place; a cheaper
// route to the same hex pushes a new entry and the stale one is skipped when
// popped.
type node struct {
	coord world.HexCoord
	g     float64
	f     float64
	h     float64
	seq   int
}

// openSet orders nodes by f, then h, then insertion sequence so searches are
// deterministic for equal-cost frontiers.
type openSet []*node

func (o openSet) Len() int { return len(o) }

func (o openSet) Less(i, j int) bool {
	if o[i].f != o[j].f {
		return o[i].f < o[j].f
	}
	if o[i].h != o[j].h {
		return o[i].h < o[j].h
	}
	return o[i].seq < o[j].seq
}

func (o openSet) Swap(i, j int) { o[i], o[j] = o[j], o[i] }

func (o *openSet) Push(x any) { *o = append(*o, x.(*node)) }

func (o *openSet) Pop() any {
	old := *o
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*o = old[:len(old)-1]
	return n
}

// search is the shared A* state for both graph kinds.
type search struct {
	open     openSet
	gScore   map[world.HexCoord]float64
	cameFrom map[world.HexCoord]world.HexCoord
	seq      int
}

func newSearch(start world.HexCoord, h float64) *search {
	s := &search{
		gScore:   map[world.HexCoord]float64{start: 0},
		cameFrom: make(map[world.HexCoord]world.HexCoord),
	}
	s.push(start, 0, h)
	return s
}

func (s *search) push(c world.HexCoord, g, h float64) {
	heap.Push(&s.open, &node{coord: c, g: g, f: g + h, h: h, seq: s.seq})
	s.seq++
}

// pop returns the next live node, skipping entries superseded by a cheaper
// push of the same hex.
func (s *search) pop() (*node, bool) {
	for s.open.Len() > 0 {
		n := heap.Pop(&s.open).(*node)
		if best, ok := s.gScore[n.coord]; ok && n.g > best {
			continue
		}
		return n, true
	}
	return nil, false
}

// relax records a route to next through cur if it improves on the best known.
func (s *search) relax(cur, next world.HexCoord, g, h float64) {
	if best, ok := s.gScore[next]; ok && g >= best {
		return
	}
	s.gScore[next] = g
	s.cameFrom[next] = cur
	s.push(next, g, h)
}

// path walks cameFrom back from goal and returns start..goal.
func (s *search) path(start, goal world.HexCoord) []world.HexCoord {
	out := []world.HexCoord{goal}
	for cur := goal; cur != start; {
		cur = s.cameFrom[cur]
		out = append(out, cur)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
