// Package world provides the hex grid math, terrain palette, and sample map
// generation. Uses axial coordinates (q, r) for the hex grid.
package world

import (
	"fmt"
	"math"
)

// HexCoord represents a position on the hex grid using axial coordinates.
// The third cube coordinate s is derived: s = -q - r.
type HexCoord struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// S returns the implicit third cube coordinate.
func (h HexCoord) S() int {
	return -h.Q - h.R
}

// Add returns the component-wise sum of two coordinates.
func (h HexCoord) Add(o HexCoord) HexCoord {
	return HexCoord{Q: h.Q + o.Q, R: h.R + o.R}
}

// Key returns the "q,r" form used by the JSON document and log lines.
func (h HexCoord) Key() string {
	return fmt.Sprintf("%d,%d", h.Q, h.R)
}

// HexNeighborDirections defines the six neighbor offsets in axial coordinates.
// The order is part of the contract: flood fill and grid routing expand
// neighbors in exactly this sequence.
var HexNeighborDirections = [6]HexCoord{
	{Q: 1, R: 0},
	{Q: -1, R: 0},
	{Q: 0, R: 1},
	{Q: 0, R: -1},
	{Q: 1, R: -1},
	{Q: -1, R: 1},
}

// Neighbors returns the six adjacent hex coordinates.
func (h HexCoord) Neighbors() [6]HexCoord {
	var result [6]HexCoord
	for i, dir := range HexNeighborDirections {
		result[i] = HexCoord{Q: h.Q + dir.Q, R: h.R + dir.R}
	}
	return result
}

// Distance returns the hex distance between two coordinates:
// (|dq| + |dr| + |dq+dr|) / 2, the minimum number of neighbor steps.
func Distance(a, b HexCoord) int {
	dq := a.Q - b.Q
	dr := a.R - b.R
	return (abs(dq) + abs(dr) + abs(dq+dr)) / 2
}

// roundHalfUp rounds like JavaScript's Math.round: halves go toward +Inf.
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

// AxialRound returns the hex whose center is closest to the fractional
// axial coordinate (qf, rf). The coordinate with the largest rounding
// residual is recomputed so that q + r + s = 0 holds.
func AxialRound(qf, rf float64) HexCoord {
	sf := -qf - rf
	rq := roundHalfUp(qf)
	rr := roundHalfUp(rf)
	rs := roundHalfUp(sf)

	qDiff := math.Abs(rq - qf)
	rDiff := math.Abs(rr - rf)
	sDiff := math.Abs(rs - sf)

	if qDiff > rDiff && qDiff > sDiff {
		rq = -rr - rs
	} else if rDiff > sDiff {
		rr = -rq - rs
	}
	return HexCoord{Q: int(rq), R: int(rr)}
}

// InRadius returns the hex disc of radius k around center, center first.
// Offsets follow -k <= dq <= k, max(-k, -dq-k) <= dr <= min(k, -dq+k).
func InRadius(center HexCoord, k int) []HexCoord {
	hexes := []HexCoord{center}
	if k <= 0 {
		return hexes
	}
	for dq := -k; dq <= k; dq++ {
		lo := max(-k, -dq-k)
		hi := min(k, -dq+k)
		for dr := lo; dr <= hi; dr++ {
			if dq == 0 && dr == 0 {
				continue
			}
			hexes = append(hexes, HexCoord{Q: center.Q + dq, R: center.R + dr})
		}
	}
	return hexes
}

// Line rasterizes the straight segment from a to b into Distance(a, b)+1
// hexes by lerping the axial coordinates and rounding each sample.
func Line(a, b HexCoord) []HexCoord {
	n := Distance(a, b)
	if n == 0 {
		return []HexCoord{a}
	}

	aq, ar := float64(a.Q), float64(a.R)
	bq, br := float64(b.Q), float64(b.R)

	hexes := make([]HexCoord, 0, n+1)
	for i := 0; i <= n; i++ {
		t := float64(i) / float64(n)
		hexes = append(hexes, AxialRound(aq*(1-t)+bq*t, ar*(1-t)+br*t))
	}
	return hexes
}

// Midpoint returns the component-wise half-up rounded midpoint of a and b.
func Midpoint(a, b HexCoord) HexCoord {
	return HexCoord{
		Q: int(roundHalfUp(float64(a.Q+b.Q) / 2)),
		R: int(roundHalfUp(float64(a.R+b.R) / 2)),
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
