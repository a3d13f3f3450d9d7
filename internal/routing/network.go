package routing

import (
	"errors"

	"github.com/talgya/hexworlds/internal/world"
)

// NearestVertexRadius is how far an off-network endpoint may be from the
// nearest path hex and still be snapped onto the network.
const NearestVertexRadius = 5

var (
	ErrTokenOffNetwork       = errors.New("token is not near any path")
	ErrDestinationOffNetwork = errors.New("destination is not near any path")
	ErrNoRouteFound          = errors.New("no route found along paths")
)

// PathHexes rasterizes a polyline of waypoints into the hexes it covers:
// the union of the hex lines of its segments, deduplicated, in first-seen
// order. A polyline with fewer than two points has no segments and covers
// nothing.
func PathHexes(points []world.HexCoord) []world.HexCoord {
	if len(points) < 2 {
		return nil
	}
	seen := make(map[world.HexCoord]bool)
	var out []world.HexCoord
	for i := 0; i < len(points)-1; i++ {
		for _, h := range world.Line(points[i], points[i+1]) {
			if !seen[h] {
				seen[h] = true
				out = append(out, h)
			}
		}
	}
	return out
}

// Network is the undirected road graph induced by a set of paths.
type Network struct {
	adj   map[world.HexCoord][]world.HexCoord
	order []world.HexCoord // vertices in insertion order
}

// BuildNetwork links each pair of consecutive hexes along every segment's
// hex line, so a path that crosses itself never gains an edge between
// hexes that are not neighbors. Duplicate edges and self-loops are dropped.
// Single-point paths add nothing.
func BuildNetwork(paths [][]world.HexCoord) *Network {
	n := &Network{adj: make(map[world.HexCoord][]world.HexCoord)}
	for _, points := range paths {
		for i := 0; i < len(points)-1; i++ {
			line := world.Line(points[i], points[i+1])
			n.addVertex(line[0])
			for j := 1; j < len(line); j++ {
				n.addEdge(line[j-1], line[j])
			}
		}
	}
	return n
}

func (n *Network) addVertex(c world.HexCoord) {
	if _, ok := n.adj[c]; ok {
		return
	}
	n.adj[c] = nil
	n.order = append(n.order, c)
}

func (n *Network) addEdge(a, b world.HexCoord) {
	n.addVertex(a)
	n.addVertex(b)
	if a == b {
		return
	}
	for _, x := range n.adj[a] {
		if x == b {
			return
		}
	}
	n.adj[a] = append(n.adj[a], b)
	n.adj[b] = append(n.adj[b], a)
}

// Len returns the number of vertices.
func (n *Network) Len() int { return len(n.order) }

// Has reports whether c is a vertex.
func (n *Network) Has(c world.HexCoord) bool {
	_, ok := n.adj[c]
	return ok
}

// Neighbors returns the vertices adjacent to c.
func (n *Network) Neighbors(c world.HexCoord) []world.HexCoord {
	return n.adj[c]
}

// Nearest returns c itself when it is a vertex, otherwise the closest vertex
// within maxDist. Ties go to the vertex added first.
func (n *Network) Nearest(c world.HexCoord, maxDist int) (world.HexCoord, bool) {
	if n.Has(c) {
		return c, true
	}
	best, bestDist := world.HexCoord{}, maxDist+1
	for _, v := range n.order {
		if d := world.Distance(c, v); d < bestDist {
			best, bestDist = v, d
		}
	}
	return best, bestDist <= maxDist
}

// NetworkRoute finds the shortest route over the network between the
// vertices nearest to from and to. The route begins at the snapped start
// vertex and ends at the snapped destination.
func NetworkRoute(net *Network, from, to world.HexCoord) ([]world.HexCoord, error) {
	start, ok := net.Nearest(from, NearestVertexRadius)
	if !ok {
		return nil, ErrTokenOffNetwork
	}
	goal, ok := net.Nearest(to, NearestVertexRadius)
	if !ok {
		return nil, ErrDestinationOffNetwork
	}
	if start == goal {
		return []world.HexCoord{start}, nil
	}

	s := newSearch(start, float64(world.Distance(start, goal)))
	for {
		cur, ok := s.pop()
		if !ok {
			return nil, ErrNoRouteFound
		}
		if cur.coord == goal {
			return s.path(start, goal), nil
		}
		for _, next := range net.Neighbors(cur.coord) {
			s.relax(cur.coord, next, cur.g+1, float64(world.Distance(next, goal)))
		}
	}
}
