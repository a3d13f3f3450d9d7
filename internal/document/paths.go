package document

import (
	"slices"

	"github.com/talgya/hexworlds/internal/routing"
	"github.com/talgya/hexworlds/internal/world"
)

// PathSettings returns the parameters applied to new drafts.
func (d *Document) PathSettings() PathSettings { return d.settings }

// SetPathType selects the type for new drafts and resets the color to that
// type's default. An active draft takes the new color.
func (d *Document) SetPathType(t PathType) {
	style := StyleOf(t)
	d.settings.Type = t
	d.settings.Color = style.Color
	if d.draft != nil {
		d.draft.Color = style.Color
		d.Dirty.Revision++
	}
}

// SetPathStyle selects straight or curved for new drafts.
func (d *Document) SetPathStyle(s PathStyle) { d.settings.Style = s }

// SetPathWidth sets the width for new drafts.
func (d *Document) SetPathWidth(w int) {
	d.settings.Width = clampInt(w, MinPathWidth, MaxPathWidth)
}

// SetPathColor sets the color for new drafts and recolors an active draft.
func (d *Document) SetPathColor(color string) {
	d.settings.Color = color
	if d.draft != nil {
		d.draft.Color = color
		d.Dirty.Revision++
	}
}

// ResetPathColor restores the current type's default color.
func (d *Document) ResetPathColor() {
	d.SetPathColor(StyleOf(d.settings.Type).Color)
}

// ApplyPathSettings replaces all draft parameters at once.
func (d *Document) ApplyPathSettings(s PathSettings) {
	if s.Type != d.settings.Type && s.Type != "" {
		d.SetPathType(s.Type)
	}
	if s.Style != "" {
		d.SetPathStyle(s.Style)
	}
	if s.Width != 0 {
		d.SetPathWidth(s.Width)
	}
	if s.Color != "" {
		d.SetPathColor(s.Color)
	}
}

// Draft returns the path under construction.
func (d *Document) Draft() (*Path, bool) {
	return d.draft, d.draft != nil
}

// StartPath begins a draft with one point, replacing any existing draft.
func (d *Document) StartPath(c world.HexCoord) *Path {
	d.draft = &Path{
		ID:      d.nextID("path", &d.counters.NextPathID),
		Type:    d.settings.Type,
		Style:   d.settings.Style,
		Width:   d.settings.Width,
		Color:   d.settings.Color,
		Points:  []world.HexCoord{c},
		Created: d.timestamp(),
	}
	d.Dirty.Revision++
	return d.draft
}

// ExtendPath appends c to the draft, starting one when there is none. With
// RoutingHex the grid route from the last point is appended instead of c
// alone. Extending to the last point is a no-op.
func (d *Document) ExtendPath(c world.HexCoord, mode Routing) {
	if d.draft == nil {
		d.StartPath(c)
		return
	}
	last := d.draft.Points[len(d.draft.Points)-1]
	if last == c {
		return
	}
	if mode == RoutingHex {
		d.draft.Points = append(d.draft.Points, routing.GridRoute(last, c)[1:]...)
	} else {
		d.draft.Points = append(d.draft.Points, c)
	}
	d.Dirty.Revision++
}

// PreviewRoute returns the points a click on c would append to the draft,
// prefixed with the draft's last point. It does not modify the draft.
func (d *Document) PreviewRoute(c world.HexCoord, mode Routing) []world.HexCoord {
	if d.draft == nil {
		return nil
	}
	last := d.draft.Points[len(d.draft.Points)-1]
	if last == c {
		return nil
	}
	if mode == RoutingHex {
		return routing.GridRoute(last, c)
	}
	return []world.HexCoord{last, c}
}

// FinishPath commits the draft when it has at least two points and discards
// it otherwise. It reports whether a path was committed.
func (d *Document) FinishPath() (*Path, bool) {
	draft := d.draft
	d.draft = nil
	if draft == nil {
		return nil, false
	}
	if len(draft.Points) < 2 {
		d.Dirty.Revision++
		return nil, false
	}
	d.paths = append(d.paths, draft)
	d.touch(false)
	return draft, true
}

// CancelPath drops the draft.
func (d *Document) CancelPath() {
	if d.draft != nil {
		d.draft = nil
		d.Dirty.Revision++
	}
}

// Paths returns the committed paths in creation order.
func (d *Document) Paths() []*Path {
	return slices.Clone(d.paths)
}

// Path returns the committed path with id.
func (d *Document) Path(id string) (*Path, bool) {
	i := d.pathIndex(id)
	if i < 0 {
		return nil, false
	}
	return d.paths[i], true
}

func (d *Document) pathIndex(id string) int {
	return slices.IndexFunc(d.paths, func(p *Path) bool { return p.ID == id })
}

// PathHexes returns the hexes covered by a committed path.
func (d *Document) PathHexes(id string) ([]world.HexCoord, error) {
	p, ok := d.Path(id)
	if !ok {
		return nil, ErrNotFound
	}
	return routing.PathHexes(p.Points), nil
}

// DeletePath removes a committed path. Unknown ids are ignored.
func (d *Document) DeletePath(id string) {
	i := d.pathIndex(id)
	if i < 0 {
		return
	}
	d.paths = slices.Delete(d.paths, i, i+1)
	d.touch(false)
}

// SplitPath cuts a path at interior vertex i. The path keeps
// points[:i+1]; a new path with the same look takes points[i:], so the split
// vertex belongs to both.
func (d *Document) SplitPath(id string, i int) (*Path, error) {
	p, ok := d.Path(id)
	if !ok {
		return nil, ErrNotFound
	}
	if i <= 0 || i >= len(p.Points)-1 {
		return nil, ErrInvalidIndex
	}

	branch := &Path{
		ID:      d.nextID("path", &d.counters.NextPathID),
		Type:    p.Type,
		Style:   p.Style,
		Width:   p.Width,
		Color:   p.LineColor(),
		Points:  slices.Clone(p.Points[i:]),
		Created: d.timestamp(),
	}
	p.Points = slices.Clone(p.Points[:i+1])
	d.paths = append(d.paths, branch)
	d.touch(false)
	return branch, nil
}

// InsertPointAfter inserts the rounded midpoint of points i and i+1.
func (d *Document) InsertPointAfter(id string, i int) (world.HexCoord, error) {
	p, ok := d.Path(id)
	if !ok {
		return world.HexCoord{}, ErrNotFound
	}
	if i < 0 || i >= len(p.Points)-1 {
		return world.HexCoord{}, ErrInvalidIndex
	}
	mid := world.Midpoint(p.Points[i], p.Points[i+1])
	p.Points = slices.Insert(p.Points, i+1, mid)
	d.touch(false)
	return mid, nil
}

// DeletePathPoint removes vertex i. A path never drops below two points.
func (d *Document) DeletePathPoint(id string, i int) error {
	p, ok := d.Path(id)
	if !ok {
		return ErrNotFound
	}
	if len(p.Points) <= 2 {
		return ErrTooFewPoints
	}
	if i < 0 || i >= len(p.Points) {
		return ErrInvalidIndex
	}
	p.Points = slices.Delete(p.Points, i, i+1)
	d.touch(false)
	return nil
}

// MovePathPoint drags vertex i to c.
func (d *Document) MovePathPoint(id string, i int, c world.HexCoord) error {
	p, ok := d.Path(id)
	if !ok {
		return ErrNotFound
	}
	if i < 0 || i >= len(p.Points) {
		return ErrInvalidIndex
	}
	if p.Points[i] == c {
		return nil
	}
	p.Points[i] = c
	d.touch(false)
	return nil
}

// UpdatePath applies a partial edit to a committed path.
func (d *Document) UpdatePath(id string, patch PathPatch) error {
	p, ok := d.Path(id)
	if !ok {
		return ErrNotFound
	}
	if patch.Type != nil {
		p.Type = *patch.Type
	}
	if patch.Style != nil {
		p.Style = *patch.Style
	}
	if patch.Width != nil {
		p.Width = clampInt(*patch.Width, MinPathWidth, MaxPathWidth)
	}
	if patch.Color != nil {
		p.Color = *patch.Color
	}
	d.touch(false)
	return nil
}

// network builds the road graph of the committed paths.
func (d *Document) network() *routing.Network {
	polylines := make([][]world.HexCoord, len(d.paths))
	for i, p := range d.paths {
		polylines[i] = p.Points
	}
	return routing.BuildNetwork(polylines)
}
