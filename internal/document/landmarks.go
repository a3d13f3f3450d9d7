package document

import (
	"sort"

	"github.com/talgya/hexworlds/internal/world"
)

// CreateLandmark places a landmark at c. It fails with ErrDuplicateLandmark
// when c is taken and ErrIconRequired for an icon-style landmark without a
// URL.
func (d *Document) CreateLandmark(c world.HexCoord, data LandmarkData) (*Landmark, error) {
	if _, ok := d.landmarks[c]; ok {
		return nil, ErrDuplicateLandmark
	}
	style := LandmarkStyle(orDefault(string(data.Style), string(StyleCircle)))
	if style == StyleIcon && data.Icon == "" {
		return nil, ErrIconRequired
	}

	l := &Landmark{
		ID:            d.nextID("landmark", &d.counters.NextLandmarkID),
		Q:             c.Q,
		R:             c.R,
		Name:          orDefault(data.Name, "New Landmark"),
		Type:          orDefault(data.Type, "custom"),
		Style:         style,
		Icon:          data.Icon,
		Color:         orDefault(data.Color, "#FFD700"),
		ShowLabel:     data.ShowLabel == nil || *data.ShowLabel,
		LabelPosition: LabelPosition(orDefault(string(data.LabelPosition), string(LabelAbove))),
		Size:          1,
		Attributes:    data.Attributes,
		Notes:         data.Notes,
		Visible:       data.Visible == nil || *data.Visible,
		Created:       d.timestamp(),
	}
	if data.Size != 0 {
		l.Size = clamp(data.Size, MinLandmarkSize, MaxLandmarkSize)
	}
	if l.Attributes == nil {
		l.Attributes = Attributes{}
	}
	d.putLandmark(l)
	d.touch(true)
	return l, nil
}

func (d *Document) putLandmark(l *Landmark) {
	c := l.Coord()
	if old, ok := d.landmarks[c]; ok {
		delete(d.landmarkByID, old.ID)
	}
	d.landmarks[c] = l
	d.landmarkByID[l.ID] = c
}

// Landmark returns the landmark at c.
func (d *Document) Landmark(c world.HexCoord) (*Landmark, bool) {
	l, ok := d.landmarks[c]
	return l, ok
}

// LandmarkByID resolves a landmark by id.
func (d *Document) LandmarkByID(id string) (*Landmark, bool) {
	c, ok := d.landmarkByID[id]
	if !ok {
		return nil, false
	}
	return d.Landmark(c)
}

// Landmarks returns every landmark in creation order.
func (d *Document) Landmarks() []*Landmark {
	out := make([]*Landmark, 0, len(d.landmarks))
	for _, l := range d.landmarks {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return lessID(out[i].ID, out[j].ID) })
	return out
}

// DeleteLandmark removes the landmark at c, if any.
func (d *Document) DeleteLandmark(c world.HexCoord) {
	l, ok := d.landmarks[c]
	if !ok {
		return
	}
	delete(d.landmarks, c)
	delete(d.landmarkByID, l.ID)
	d.touch(true)
}

// DeleteLandmarkByID removes the landmark with id, if any.
func (d *Document) DeleteLandmarkByID(id string) {
	if c, ok := d.landmarkByID[id]; ok {
		d.DeleteLandmark(c)
	}
}

// UpdateLandmark applies a partial edit. Switching to icon style without an
// icon URL is rejected.
func (d *Document) UpdateLandmark(id string, p LandmarkPatch) error {
	l, ok := d.LandmarkByID(id)
	if !ok {
		return ErrNotFound
	}
	style, icon := l.Style, l.Icon
	if p.Style != nil {
		style = *p.Style
	}
	if p.Icon != nil {
		icon = *p.Icon
	}
	if style == StyleIcon && icon == "" {
		return ErrIconRequired
	}

	l.Style, l.Icon = style, icon
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.Type != nil {
		l.Type = *p.Type
	}
	if p.Color != nil {
		l.Color = *p.Color
	}
	if p.ShowLabel != nil {
		l.ShowLabel = *p.ShowLabel
	}
	if p.LabelPosition != nil {
		l.LabelPosition = *p.LabelPosition
	}
	if p.Size != nil {
		l.Size = clamp(*p.Size, MinLandmarkSize, MaxLandmarkSize)
	}
	if p.Notes != nil {
		l.Notes = *p.Notes
	}
	if p.Visible != nil {
		l.Visible = *p.Visible
	}
	d.touch(true)
	return nil
}

// SetLandmarkAttributes replaces the attributes from JSON text.
func (d *Document) SetLandmarkAttributes(id, text string) error {
	l, ok := d.LandmarkByID(id)
	if !ok {
		return ErrNotFound
	}
	attrs, err := ParseAttributes(text)
	if err != nil {
		return err
	}
	l.Attributes = attrs
	d.touch(false)
	return nil
}
