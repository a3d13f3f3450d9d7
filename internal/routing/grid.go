package routing

import "github.com/talgya/hexworlds/internal/world"

// MaxGridExpansions bounds grid routing. Past it the route degrades to the
// straight two-point fallback.
const MaxGridExpansions = 5000

// towardGoalWeight scales the tie-break on the change in goal distance.
const towardGoalWeight = 0.01

// GridRoute finds a route between two hexes on the unbounded grid. The
// result always starts at start and ends at goal. Step cost is
// 1 + 0.01·Δh, where Δh is the signed change in distance to the goal, so
// among equally long routes the one stepping toward the goal wins.
func GridRoute(start, goal world.HexCoord) []world.HexCoord {
	return gridRoute(start, goal, MaxGridExpansions)
}

func gridRoute(start, goal world.HexCoord, limit int) []world.HexCoord {
	if start == goal {
		return []world.HexCoord{start}
	}

	s := newSearch(start, float64(world.Distance(start, goal)))
	closed := make(map[world.HexCoord]bool)

	for {
		cur, ok := s.pop()
		if !ok {
			break
		}
		if cur.coord == goal {
			return SmoothPath(s.path(start, goal))
		}
		// The step cost lets h overestimate slightly, so a closed hex may be
		// reopened by a cheaper route; only first closures count.
		if !closed[cur.coord] {
			closed[cur.coord] = true
			if len(closed) > limit {
				break
			}
		}

		curDist := world.Distance(cur.coord, goal)
		for _, next := range cur.coord.Neighbors() {
			nextDist := world.Distance(next, goal)
			step := 1 + towardGoalWeight*float64(nextDist-curDist)
			s.relax(cur.coord, next, cur.g+step, float64(nextDist))
		}
	}

	return []world.HexCoord{start, goal}
}

// SmoothPath drops an intermediate point B when the last kept point A and
// the following point C are already adjacent (or equal). The result stays
// an adjacency chain and is never longer than the input, so shortest grid
// routes pass through unchanged.
func SmoothPath(points []world.HexCoord) []world.HexCoord {
	if len(points) <= 2 {
		return points
	}
	out := make([]world.HexCoord, 0, len(points))
	out = append(out, points[0])
	for i := 1; i < len(points)-1; i++ {
		if world.Distance(out[len(out)-1], points[i+1]) <= 1 {
			continue
		}
		out = append(out, points[i])
	}
	return append(out, points[len(points)-1])
}
