package document

import (
	"fmt"
	"iter"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/hexworlds/internal/world"
)

// DefaultHexSize is the logical hex size in world pixels.
const DefaultHexSize = 30.0

// Dirty tracks what changed since each consumer last looked. The document
// sets the flags; the minimap and auto-save clear them.
type Dirty struct {
	Minimap       bool   // minimap image is stale
	MinimapBounds bool   // minimap bounds must be refreshed
	Unsaved       bool   // changes not yet written to the store
	Revision      uint64 // bumped on every mutation
}

// Counters are the next numeric suffixes for generated ids.
type Counters struct {
	NextTokenID    int `json:"nextTokenId"`
	NextLandmarkID int `json:"nextLandmarkId"`
	NextPathID     int `json:"nextPathId"`
}

func initialCounters() Counters {
	return Counters{NextTokenID: 1, NextLandmarkID: 1, NextPathID: 1}
}

// Document is the in-memory map. It is not safe for concurrent use; the
// editor confines it to a single loop goroutine.
type Document struct {
	View  world.Viewport
	Dirty Dirty

	hexes        map[world.HexCoord]*HexCell
	tokens       map[string]*Token
	landmarks    map[world.HexCoord]*Landmark
	landmarkByID map[string]world.HexCoord
	paths        []*Path
	draft        *Path
	settings     PathSettings
	bounds       *BoundsCache
	counters     Counters
	hexSize      float64

	now func() time.Time
}

// New returns an empty document with the default hex size.
func New() *Document { return NewWithHexSize(DefaultHexSize) }

// NewWithHexSize returns an empty document whose hexes have the given
// circumradius in world pixels. Non-positive sizes take the default.
func NewWithHexSize(hexSize float64) *Document {
	if hexSize <= 0 {
		hexSize = DefaultHexSize
	}
	return &Document{
		hexSize:      hexSize,
		View:         world.IdentityViewport(),
		hexes:        make(map[world.HexCoord]*HexCell),
		tokens:       make(map[string]*Token),
		landmarks:    make(map[world.HexCoord]*Landmark),
		landmarkByID: make(map[string]world.HexCoord),
		settings:     DefaultPathSettings(),
		bounds:       NewBoundsCache(hexSize),
		counters:     initialCounters(),
		now:          time.Now,
	}
}

// HexSize returns the logical hex size in world pixels.
func (d *Document) HexSize() float64 { return d.hexSize }

// SetClock replaces the time source used for created timestamps.
func (d *Document) SetClock(now func() time.Time) { d.now = now }

func (d *Document) timestamp() string {
	return d.now().UTC().Format("2006-01-02T15:04:05.000Z")
}

// touch records a mutation. Changes visible on the minimap also mark it.
func (d *Document) touch(minimap bool) {
	d.Dirty.Revision++
	d.Dirty.Unsaved = true
	if minimap {
		d.Dirty.Minimap = true
	}
}

// Counters returns the id counters.
func (d *Document) Counters() Counters { return d.counters }

// RaiseCounters lifts each counter to at least the given value.
func (d *Document) RaiseCounters(c Counters) {
	d.counters.NextTokenID = max(d.counters.NextTokenID, c.NextTokenID)
	d.counters.NextLandmarkID = max(d.counters.NextLandmarkID, c.NextLandmarkID)
	d.counters.NextPathID = max(d.counters.NextPathID, c.NextPathID)
}

func (d *Document) nextID(prefix string, counter *int) string {
	id := fmt.Sprintf("%s_%d", prefix, *counter)
	*counter++
	return id
}

// idNumber extracts N from "prefix_N"; ok is false for other shapes.
func idNumber(id string) (int, bool) {
	i := strings.LastIndexByte(id, '_')
	if i < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(id[i+1:])
	if err != nil {
		return 0, false
	}
	return n, true
}

// lessID orders ids by numeric suffix, then lexically.
func lessID(a, b string) bool {
	na, oka := idNumber(a)
	nb, okb := idNumber(b)
	if oka && okb && na != nb {
		return na < nb
	}
	if oka != okb {
		return oka
	}
	return a < b
}

// Counts summarizes the document for status displays.
type Counts struct {
	Hexes     int `json:"hexes"`
	Dungeons  int `json:"dungeons"`
	Tokens    int `json:"tokens"`
	Landmarks int `json:"landmarks"`
	Paths     int `json:"paths"`
}

// Counts returns the current entity counts.
func (d *Document) Counts() Counts {
	c := Counts{
		Hexes:     len(d.hexes),
		Tokens:    len(d.tokens),
		Landmarks: len(d.landmarks),
		Paths:     len(d.paths),
	}
	for _, h := range d.hexes {
		if len(h.Dungeon) > 0 && string(h.Dungeon) != "null" {
			c.Dungeons++
		}
	}
	return c
}

// Bounds returns the bounding box of the hex set, or nil when empty.
func (d *Document) Bounds() *Bounds {
	return d.bounds.Get(d.HexCoords())
}

// BoundsCache exposes the cache for inspection.
func (d *Document) BoundsCache() *BoundsCache { return d.bounds }

// HexCoords iterates over the painted coordinates in no particular order.
func (d *Document) HexCoords() iter.Seq[world.HexCoord] {
	return func(yield func(world.HexCoord) bool) {
		for c := range d.hexes {
			if !yield(c) {
				return
			}
		}
	}
}

// Hexes returns the cells sorted by (q, r).
func (d *Document) Hexes() []*HexCell {
	out := make([]*HexCell, 0, len(d.hexes))
	for _, h := range d.hexes {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Q != out[j].Q {
			return out[i].Q < out[j].Q
		}
		return out[i].R < out[j].R
	})
	return out
}

// Clear removes every entity and resets the bounds cache. Id counters are
// kept so ids stay unique for the session.
func (d *Document) Clear() {
	d.hexes = make(map[world.HexCoord]*HexCell)
	d.tokens = make(map[string]*Token)
	d.landmarks = make(map[world.HexCoord]*Landmark)
	d.landmarkByID = make(map[string]world.HexCoord)
	d.paths = nil
	d.draft = nil
	d.bounds.Reset()
	d.Dirty.MinimapBounds = true
	d.touch(true)
}
