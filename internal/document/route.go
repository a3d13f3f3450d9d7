package document

import (
	"fmt"

	"github.com/talgya/hexworlds/internal/routing"
	"github.com/talgya/hexworlds/internal/world"
)

// StartRoute routes a token over the path network toward dest and attaches
// the route. It returns the route version the animation ticks must present
// to AdvanceRoute; a later StartRoute or StopRoute invalidates it. Routing
// errors leave the token untouched.
func (d *Document) StartRoute(tokenID string, dest world.HexCoord) (uint64, error) {
	t, ok := d.tokens[tokenID]
	if !ok {
		return 0, ErrNotFound
	}
	route, err := routing.NetworkRoute(d.network(), t.Coord(), dest)
	if err != nil {
		return 0, fmt.Errorf("route %s: %w", tokenID, err)
	}
	t.Route = route
	t.RouteIndex = 0
	t.routeVersion++
	d.Dirty.Revision++
	return t.routeVersion, nil
}

// AdvanceRoute performs one animation step. It returns false, and the
// caller stops ticking, when the token is gone, its route was replaced or
// cleared, or it just arrived.
func (d *Document) AdvanceRoute(tokenID string, version uint64) bool {
	t, ok := d.tokens[tokenID]
	if !ok || t.routeVersion != version || len(t.Route) == 0 {
		return false
	}
	t.RouteIndex++
	if t.RouteIndex >= len(t.Route) {
		t.Route = nil
		t.RouteIndex = 0
		d.Dirty.Revision++
		return false
	}
	next := t.Route[t.RouteIndex]
	t.Q, t.R = next.Q, next.R
	d.touch(false)
	return true
}

// StopRoute clears a token's route. The pending tick sees the cleared route
// and stops.
func (d *Document) StopRoute(tokenID string) {
	t, ok := d.tokens[tokenID]
	if !ok || len(t.Route) == 0 {
		return
	}
	t.Route = nil
	t.RouteIndex = 0
	t.routeVersion++
	d.Dirty.Revision++
}

// RoutingTokens returns the tokens with an active route.
func (d *Document) RoutingTokens() []*Token {
	var out []*Token
	for _, t := range d.Tokens() {
		if t.Routing() {
			out = append(out, t)
		}
	}
	return out
}
