package document

import (
	"iter"

	"github.com/talgya/hexworlds/internal/world"
)

// Bounds is the axis-aligned box over a hex set, in axial coordinates and in
// unscaled world pixels of the hex centers.
type Bounds struct {
	MinQ, MaxQ int
	MinR, MaxR int
	MinX, MaxX float64
	MinY, MaxY float64
}

func pointBounds(c world.HexCoord, hexSize float64) Bounds {
	x, y := world.WorldPosition(c, hexSize)
	return Bounds{MinQ: c.Q, MaxQ: c.Q, MinR: c.R, MaxR: c.R, MinX: x, MaxX: x, MinY: y, MaxY: y}
}

// extend grows b to include c and reports whether it changed.
func (b *Bounds) extend(c world.HexCoord, hexSize float64) bool {
	x, y := world.WorldPosition(c, hexSize)
	before := *b
	b.MinQ = min(b.MinQ, c.Q)
	b.MaxQ = max(b.MaxQ, c.Q)
	b.MinR = min(b.MinR, c.R)
	b.MaxR = max(b.MaxR, c.R)
	b.MinX = min(b.MinX, x)
	b.MaxX = max(b.MaxX, x)
	b.MinY = min(b.MinY, y)
	b.MaxY = max(b.MaxY, y)
	return *b != before
}

// onEdge reports whether c touches any side of the box. x follows q, so the
// q test covers the x extremes; y mixes q and r and needs its own check.
func (b *Bounds) onEdge(c world.HexCoord, hexSize float64) bool {
	if c.Q == b.MinQ || c.Q == b.MaxQ || c.R == b.MinR || c.R == b.MaxR {
		return true
	}
	_, y := world.WorldPosition(c, hexSize)
	return y == b.MinY || y == b.MaxY
}

// BoundsCache maintains Bounds incrementally: inserts extend the box in
// O(1), deletes on an edge mark it for a lazy rebuild.
type BoundsCache struct {
	hexSize     float64
	bounds      *Bounds
	needsRecalc bool
}

// NewBoundsCache returns an empty cache for hexes of the given size.
func NewBoundsCache(hexSize float64) *BoundsCache {
	return &BoundsCache{hexSize: hexSize}
}

// ObserveInsert records a new hex and reports whether the box grew. It is
// ignored while a rebuild is pending.
func (bc *BoundsCache) ObserveInsert(c world.HexCoord) bool {
	if bc.needsRecalc {
		return false
	}
	if bc.bounds == nil {
		b := pointBounds(c, bc.hexSize)
		bc.bounds = &b
		return true
	}
	return bc.bounds.extend(c, bc.hexSize)
}

// ObserveDelete records a removed hex and reports whether it was on the
// boundary, in which case the next Get rebuilds.
func (bc *BoundsCache) ObserveDelete(c world.HexCoord) bool {
	if bc.needsRecalc {
		return true
	}
	if bc.bounds == nil {
		return false
	}
	if bc.bounds.onEdge(c, bc.hexSize) {
		bc.needsRecalc = true
		return true
	}
	return false
}

// Get returns a copy of the bounds, rebuilding from all first when a rebuild
// is pending. It returns nil for an empty hex set.
func (bc *BoundsCache) Get(all iter.Seq[world.HexCoord]) *Bounds {
	if bc.needsRecalc {
		bc.bounds = nil
		for c := range all {
			if bc.bounds == nil {
				b := pointBounds(c, bc.hexSize)
				bc.bounds = &b
				continue
			}
			bc.bounds.extend(c, bc.hexSize)
		}
		bc.needsRecalc = false
	}
	if bc.bounds == nil {
		return nil
	}
	b := *bc.bounds
	return &b
}

// NeedsRecalc reports whether a rebuild is pending.
func (bc *BoundsCache) NeedsRecalc() bool { return bc.needsRecalc }

// Invalidate forces a rebuild on the next Get.
func (bc *BoundsCache) Invalidate() { bc.needsRecalc = true }

// Reset empties the cache for an empty hex set.
func (bc *BoundsCache) Reset() {
	bc.bounds = nil
	bc.needsRecalc = false
}
