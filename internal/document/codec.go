package document

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/talgya/hexworlds/internal/routing"
	"github.com/talgya/hexworlds/internal/world"
)

// SchemaVersion is written to every export.
const SchemaVersion = "1.2"

// Metadata summarizes an export.
type Metadata struct {
	TotalHexes     int `json:"totalHexes"`
	TotalLandmarks int `json:"totalLandmarks"`
	TotalTokens    int `json:"totalTokens"`
	TotalPaths     int `json:"totalPaths"`
}

// PathRecord is a path as exported, with the covered hexes denormalized for
// consumers. The hexes are recomputed on import, never trusted.
type PathRecord struct {
	Path
	Hexes []world.HexCoord `json:"hexes,omitempty"`
}

// Snapshot is the world file schema.
type Snapshot struct {
	Version    string         `json:"version"`
	ExportDate string         `json:"exportDate,omitempty"`
	Metadata   *Metadata      `json:"metadata,omitempty"`
	Viewport   world.Viewport `json:"viewport"`
	Hexes      []HexCell      `json:"hexes"`
	Landmarks  []Landmark     `json:"landmarks"`
	Tokens     []Token        `json:"tokens"`
	Paths      []PathRecord   `json:"paths"`
}

// Payload is the persisted form: a snapshot plus the id counters.
type Payload struct {
	Snapshot
	Counters
}

// Snapshot captures the document in export order: hexes by (q, r),
// landmarks and tokens by creation, paths as drawn.
func (d *Document) Snapshot() Snapshot {
	s := Snapshot{
		Version:   SchemaVersion,
		Viewport:  d.View,
		Hexes:     make([]HexCell, 0, len(d.hexes)),
		Landmarks: make([]Landmark, 0, len(d.landmarks)),
		Tokens:    make([]Token, 0, len(d.tokens)),
		Paths:     make([]PathRecord, 0, len(d.paths)),
	}
	for _, h := range d.Hexes() {
		s.Hexes = append(s.Hexes, *h)
	}
	for _, l := range d.Landmarks() {
		s.Landmarks = append(s.Landmarks, *l)
	}
	for _, t := range d.Tokens() {
		cp := *t
		cp.Route = nil
		s.Tokens = append(s.Tokens, cp)
	}
	for _, p := range d.paths {
		rec := PathRecord{Path: *p.clone()}
		rec.Color = p.LineColor()
		s.Paths = append(s.Paths, rec)
	}
	return s
}

// Export renders the world file: the snapshot stamped with an export date,
// entity totals and each path's covered hexes.
func (d *Document) Export() ([]byte, error) {
	s := d.Snapshot()
	s.ExportDate = d.timestamp()
	s.Metadata = &Metadata{
		TotalHexes:     len(s.Hexes),
		TotalLandmarks: len(s.Landmarks),
		TotalTokens:    len(s.Tokens),
		TotalPaths:     len(s.Paths),
	}
	for i := range s.Paths {
		s.Paths[i].Hexes = routing.PathHexes(s.Paths[i].Points)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode world: %w", err)
	}
	return data, nil
}

// Payload captures the document for the local store.
func (d *Document) Payload() Payload {
	return Payload{Snapshot: d.Snapshot(), Counters: d.counters}
}

// MarshalPayload encodes Payload.
func (d *Document) MarshalPayload() ([]byte, error) {
	data, err := json.Marshal(d.Payload())
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return data, nil
}

// Import replaces the document with a world file. Malformed input leaves
// the document untouched. Id counters are raised above every imported id.
func (d *Document) Import(data []byte) error {
	if err := d.load(data, false); err != nil {
		return err
	}
	d.touch(true)
	return nil
}

// Restore loads a persisted payload. Saved counters are applied first and
// then raised above the loaded ids. The document is not marked unsaved.
func (d *Document) Restore(data []byte) error {
	if err := d.load(data, true); err != nil {
		return err
	}
	d.Dirty.Revision++
	d.Dirty.Minimap = true
	return nil
}

// rawWorld defers collection decoding so arrays and keyed objects are both
// accepted.
type rawWorld struct {
	Viewport  *world.Viewport `json:"viewport"`
	Hexes     json.RawMessage `json:"hexes"`
	Landmarks json.RawMessage `json:"landmarks"`
	Tokens    json.RawMessage `json:"tokens"`
	Paths     json.RawMessage `json:"paths"`

	NextTokenID    int `json:"nextTokenId"`
	NextLandmarkID int `json:"nextLandmarkId"`
	NextPathID     int `json:"nextPathId"`
}

type landmarkIn struct {
	Landmark
	ShowLabel *bool `json:"showLabel"`
	Visible   *bool `json:"visible"`
}

type tokenIn struct {
	Token
	Visible *bool `json:"visible"`
}

func (d *Document) load(data []byte, withCounters bool) error {
	var raw rawWorld
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode world: %w", err)
	}
	hexes, ok, err := decodeCollection[HexCell](raw.Hexes)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidFormat
	}
	landmarks, _, err := decodeCollection[landmarkIn](raw.Landmarks)
	if err != nil {
		return err
	}
	tokens, _, err := decodeCollection[tokenIn](raw.Tokens)
	if err != nil {
		return err
	}
	paths, _, err := decodeCollection[Path](raw.Paths)
	if err != nil {
		return err
	}

	// Build into a scratch document and swap only when everything decoded.
	next := New()
	next.hexSize = d.hexSize
	next.bounds = NewBoundsCache(d.hexSize)
	next.now = d.now
	next.settings = d.settings
	next.counters = d.counters
	if withCounters {
		next.counters = initialCounters()
		next.RaiseCounters(Counters{
			NextTokenID:    raw.NextTokenID,
			NextLandmarkID: raw.NextLandmarkID,
			NextPathID:     raw.NextPathID,
		})
	}

	// Entities without an id get a fresh one above every imported id.
	for _, l := range landmarks {
		next.raiseFor(l.ID, &next.counters.NextLandmarkID)
	}
	for _, t := range tokens {
		next.raiseFor(t.ID, &next.counters.NextTokenID)
	}
	for _, p := range paths {
		next.raiseFor(p.ID, &next.counters.NextPathID)
	}

	for _, h := range hexes {
		cell := h
		next.hexes[cell.Coord()] = &cell
	}
	for _, in := range landmarks {
		l := in.Landmark
		l.ShowLabel = in.ShowLabel == nil || *in.ShowLabel
		l.Visible = in.Visible == nil || *in.Visible
		if l.LabelPosition == "" {
			l.LabelPosition = LabelAbove
		}
		if l.Style == "" {
			l.Style = StyleCircle
		}
		if l.Size == 0 {
			l.Size = 1
		}
		l.Size = clamp(l.Size, MinLandmarkSize, MaxLandmarkSize)
		if l.Attributes == nil {
			l.Attributes = Attributes{}
		}
		if l.ID == "" {
			l.ID = next.nextID("landmark", &next.counters.NextLandmarkID)
		}
		next.putLandmark(&l)
	}
	for _, in := range tokens {
		t := in.Token
		t.Visible = in.Visible == nil || *in.Visible
		if t.Size == 0 {
			t.Size = 1
		}
		t.Size = clamp(t.Size, MinTokenSize, MaxTokenSize)
		if t.Attributes == nil {
			t.Attributes = Attributes{}
		}
		t.Scale = 1
		t.Route, t.RouteIndex = nil, 0
		if t.ID == "" {
			t.ID = next.nextID("token", &next.counters.NextTokenID)
		}
		next.tokens[t.ID] = &t
	}
	for _, p := range paths {
		if len(p.Points) < 2 {
			continue
		}
		path := p
		if path.Color == "" {
			path.Color = StyleOf(path.Type).Color
		}
		if path.Width == 0 {
			path.Width = StyleOf(path.Type).Width
		}
		path.Width = clampInt(path.Width, MinPathWidth, MaxPathWidth)
		if path.ID == "" {
			path.ID = next.nextID("path", &next.counters.NextPathID)
		}
		next.paths = append(next.paths, &path)
	}

	d.hexes = next.hexes
	d.tokens = next.tokens
	d.landmarks = next.landmarks
	d.landmarkByID = next.landmarkByID
	d.paths = next.paths
	d.draft = nil
	d.counters = next.counters
	if raw.Viewport != nil && raw.Viewport.Scale > 0 {
		d.View = *raw.Viewport
	}
	d.bounds.Reset()
	d.bounds.Invalidate()
	d.Dirty.MinimapBounds = true
	return nil
}

// raiseFor lifts counter above the numeric suffix of id.
func (d *Document) raiseFor(id string, counter *int) {
	if n, ok := idNumber(id); ok && n >= *counter {
		*counter = n + 1
	}
}

// decodeCollection decodes a JSON array of T, or the values of a JSON
// object in key order. ok is false when the field is absent or neither
// shape; err reports a malformed element.
func decodeCollection[T any](raw json.RawMessage) (items []T, ok bool, err error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, false, nil
	}
	switch raw[0] {
	case '[':
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, false, fmt.Errorf("decode world: %w", err)
		}
		return items, true, nil
	case '{':
		dec := json.NewDecoder(bytes.NewReader(raw))
		if _, err := dec.Token(); err != nil {
			return nil, false, fmt.Errorf("decode world: %w", err)
		}
		for dec.More() {
			if _, err := dec.Token(); err != nil {
				return nil, false, fmt.Errorf("decode world: %w", err)
			}
			var item T
			if err := dec.Decode(&item); err != nil {
				return nil, false, fmt.Errorf("decode world: %w", err)
			}
			items = append(items, item)
		}
		return items, true, nil
	}
	return nil, false, nil
}
