package routing

import (
	"errors"
	"slices"
	"testing"

	"github.com/talgya/hexworlds/internal/world"
)

func hc(q, r int) world.HexCoord { return world.HexCoord{Q: q, R: r} }

func TestGridRouteStraight(t *testing.T) {
	goal := hc(3, 0)
	route := GridRoute(hc(0, 0), goal)
	if len(route) != 4 {
		t.Fatalf("GridRoute length = %d, want 4: %v", len(route), route)
	}
	if route[0] != hc(0, 0) || route[3] != goal {
		t.Fatalf("endpoints = %v..%v", route[0], route[3])
	}
	for i := 1; i < len(route); i++ {
		prev := world.Distance(route[i-1], goal)
		cur := world.Distance(route[i], goal)
		if cur >= prev {
			t.Errorf("step %d to %v does not approach goal (%d -> %d)", i, route[i], prev, cur)
		}
	}
}

func TestGridRouteProperties(t *testing.T) {
	tests := []struct {
		start, goal world.HexCoord
	}{
		{hc(0, 0), hc(0, 0)},
		{hc(0, 0), hc(1, 0)},
		{hc(-4, 2), hc(5, -3)},
		{hc(2, 2), hc(-3, -3)},
		{hc(0, -6), hc(0, 6)},
		{hc(10, -20), hc(-7, 3)},
	}
	for _, tt := range tests {
		route := GridRoute(tt.start, tt.goal)
		if route[0] != tt.start || route[len(route)-1] != tt.goal {
			t.Errorf("GridRoute(%v, %v) endpoints %v..%v", tt.start, tt.goal, route[0], route[len(route)-1])
			continue
		}
		if want := world.Distance(tt.start, tt.goal) + 1; len(route) != want {
			t.Errorf("GridRoute(%v, %v) length %d, want %d", tt.start, tt.goal, len(route), want)
		}
		for i := 1; i < len(route); i++ {
			if world.Distance(route[i-1], route[i]) != 1 {
				t.Errorf("GridRoute(%v, %v) step %d is not adjacent: %v -> %v", tt.start, tt.goal, i, route[i-1], route[i])
			}
		}
	}
}

func TestGridRouteFallback(t *testing.T) {
	route := gridRoute(hc(0, 0), hc(5, 0), 2)
	if len(route) != 2 || route[0] != hc(0, 0) || route[1] != hc(5, 0) {
		t.Errorf("capped route = %v, want [(0,0) (5,0)]", route)
	}

	// A long straight route stays under the real cap.
	far := GridRoute(hc(0, 0), hc(1000, 0))
	if len(far) != 1001 {
		t.Errorf("far route length %d, want 1001", len(far))
	}
}

func TestSmoothPath(t *testing.T) {
	// A detour through (1,-1) is dropped because (0,0) and (1,0) touch.
	in := []world.HexCoord{hc(0, 0), hc(1, -1), hc(1, 0), hc(2, 0)}
	got := SmoothPath(in)
	want := []world.HexCoord{hc(0, 0), hc(1, 0), hc(2, 0)}
	if len(got) != len(want) {
		t.Fatalf("SmoothPath = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("SmoothPath = %v, want %v", got, want)
		}
	}

	straight := []world.HexCoord{hc(0, 0), hc(1, 0), hc(2, 0), hc(3, 0)}
	if got := SmoothPath(straight); len(got) != 4 {
		t.Errorf("SmoothPath shortened a shortest route: %v", got)
	}
}

func TestPathHexes(t *testing.T) {
	got := PathHexes([]world.HexCoord{hc(0, 0), hc(2, 0), hc(0, 0), hc(0, 2)})
	want := []world.HexCoord{hc(0, 0), hc(1, 0), hc(2, 0), hc(0, 1), hc(0, 2)}
	if len(got) != len(want) {
		t.Fatalf("PathHexes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("PathHexes = %v, want %v", got, want)
		}
	}

	// Both diagonal segments pass through a hex edge half way.
	got = PathHexes([]world.HexCoord{hc(0, 0), hc(1, 1), hc(2, -1)})
	want = []world.HexCoord{hc(0, 0), hc(1, 0), hc(1, 1), hc(2, 0), hc(2, -1)}
	if !slices.Equal(got, want) {
		t.Errorf("PathHexes with ties = %v, want %v", got, want)
	}

	if got := PathHexes([]world.HexCoord{hc(4, 4)}); len(got) != 0 {
		t.Errorf("single point PathHexes = %v, want none", got)
	}
	if got := PathHexes(nil); got != nil {
		t.Errorf("empty PathHexes = %v", got)
	}
}

func TestBuildNetworkDedup(t *testing.T) {
	net := BuildNetwork([][]world.HexCoord{
		{hc(0, 0), hc(2, 0)},
		{hc(2, 0), hc(0, 0)},
		{hc(1, 0), hc(1, 0)},
	})
	if net.Len() != 3 {
		t.Fatalf("vertices = %d, want 3", net.Len())
	}
	if n := net.Neighbors(hc(1, 0)); len(n) != 2 {
		t.Errorf("neighbors of (1,0) = %v, want 2 entries", n)
	}
	for _, v := range net.Neighbors(hc(1, 0)) {
		if v == hc(1, 0) {
			t.Error("self-loop kept")
		}
	}
}

func TestBuildNetworkSelfCrossing(t *testing.T) {
	// Out along q and back up r: the second segment starts at (2,0) but
	// (0,1) is first seen after (2,0) in the deduplicated hexes. Only
	// neighbors may share an edge.
	net := BuildNetwork([][]world.HexCoord{
		{hc(0, 0), hc(2, 0), hc(0, 0), hc(0, 2)},
		{hc(9, 9)},
	})
	if net.Len() != 5 {
		t.Fatalf("vertices = %d, want 5", net.Len())
	}
	for _, v := range []world.HexCoord{hc(0, 0), hc(1, 0), hc(2, 0), hc(0, 1), hc(0, 2)} {
		for _, u := range net.Neighbors(v) {
			if world.Distance(u, v) != 1 {
				t.Errorf("edge %v-%v joins hexes %d apart", v, u, world.Distance(u, v))
			}
		}
	}
	if net.Has(hc(9, 9)) {
		t.Error("single-point path added a vertex")
	}
}

func TestNetworkRouteOffNetworkFallback(t *testing.T) {
	net := BuildNetwork([][]world.HexCoord{{hc(0, 0), hc(1, 0), hc(2, 0), hc(3, 0)}})

	route, err := NetworkRoute(net, hc(0, 2), hc(3, 0))
	if err != nil {
		t.Fatalf("NetworkRoute from (0,2): %v", err)
	}
	want := []world.HexCoord{hc(0, 0), hc(1, 0), hc(2, 0), hc(3, 0)}
	if len(route) != len(want) {
		t.Fatalf("route = %v, want %v", route, want)
	}
	for i := range want {
		if route[i] != want[i] {
			t.Fatalf("route = %v, want %v", route, want)
		}
	}

	if _, err := NetworkRoute(net, hc(0, 10), hc(3, 0)); !errors.Is(err, ErrTokenOffNetwork) {
		t.Errorf("from (0,10): err = %v, want ErrTokenOffNetwork", err)
	}
	if _, err := NetworkRoute(net, hc(0, 0), hc(20, 0)); !errors.Is(err, ErrDestinationOffNetwork) {
		t.Errorf("to (20,0): err = %v, want ErrDestinationOffNetwork", err)
	}
}

func TestNetworkRouteDisconnected(t *testing.T) {
	net := BuildNetwork([][]world.HexCoord{
		{hc(0, 0), hc(2, 0)},
		{hc(6, 0), hc(8, 0)},
	})
	if _, err := NetworkRoute(net, hc(0, 0), hc(8, 0)); !errors.Is(err, ErrNoRouteFound) {
		t.Errorf("err = %v, want ErrNoRouteFound", err)
	}
}

func TestNetworkRouteFollowsRoads(t *testing.T) {
	// Two roads meet at (3,0); the route must follow them rather than cut
	// across open grid.
	net := BuildNetwork([][]world.HexCoord{
		{hc(0, 0), hc(3, 0)},
		{hc(3, 0), hc(3, 3)},
	})
	route, err := NetworkRoute(net, hc(0, 0), hc(3, 3))
	if err != nil {
		t.Fatal(err)
	}
	if len(route) != 7 {
		t.Fatalf("route length %d, want 7: %v", len(route), route)
	}
	for i := 1; i < len(route); i++ {
		if !net.Has(route[i]) || world.Distance(route[i-1], route[i]) != 1 {
			t.Fatalf("route leaves the network at step %d: %v", i, route)
		}
	}
}

func TestNearestTieBreak(t *testing.T) {
	net := BuildNetwork([][]world.HexCoord{{hc(0, 0), hc(3, 0)}})
	got, ok := net.Nearest(hc(0, 2), NearestVertexRadius)
	if !ok || got != hc(0, 0) {
		t.Errorf("Nearest = %v, %v; want (0,0), true", got, ok)
	}
	if _, ok := BuildNetwork(nil).Nearest(hc(0, 0), NearestVertexRadius); ok {
		t.Error("Nearest on empty network reported a vertex")
	}
}
