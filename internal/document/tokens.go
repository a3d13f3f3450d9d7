package document

import (
	"sort"

	"github.com/talgya/hexworlds/internal/world"
)

// CreateToken places a new token at c. Zero fields of data take defaults.
func (d *Document) CreateToken(c world.HexCoord, data TokenData) *Token {
	t := &Token{
		ID:         d.nextID("token", &d.counters.NextTokenID),
		Q:          c.Q,
		R:          c.R,
		Name:       orDefault(data.Name, "New Token"),
		Type:       TokenType(orDefault(string(data.Type), string(TokenPlayer))),
		Color:      orDefault(data.Color, "#667eea"),
		Label:      orDefault(data.Label, "T"),
		Size:       1,
		Attributes: data.Attributes,
		Notes:      data.Notes,
		Visible:    data.Visible == nil || *data.Visible,
		Created:    d.timestamp(),
		Scale:      1,
	}
	if data.Size != 0 {
		t.Size = clamp(data.Size, MinTokenSize, MaxTokenSize)
	}
	if t.Attributes == nil {
		t.Attributes = Attributes{}
	}
	d.tokens[t.ID] = t
	d.touch(false)
	return t
}

// Token returns the token with id.
func (d *Document) Token(id string) (*Token, bool) {
	t, ok := d.tokens[id]
	return t, ok
}

// Tokens returns every token in creation order.
func (d *Document) Tokens() []*Token {
	out := make([]*Token, 0, len(d.tokens))
	for _, t := range d.tokens {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return lessID(out[i].ID, out[j].ID) })
	return out
}

// TokensAt returns the tokens on c in creation order; the last one is drawn
// on top.
func (d *Document) TokensAt(c world.HexCoord) []*Token {
	var out []*Token
	for _, t := range d.Tokens() {
		if t.Q == c.Q && t.R == c.R {
			out = append(out, t)
		}
	}
	return out
}

// MoveToken writes a new position. It does not touch an active route.
func (d *Document) MoveToken(id string, c world.HexCoord) error {
	t, ok := d.tokens[id]
	if !ok {
		return ErrNotFound
	}
	if t.Q == c.Q && t.R == c.R {
		return nil
	}
	t.Q, t.R = c.Q, c.R
	d.touch(false)
	return nil
}

// DeleteToken removes a token. Unknown ids are ignored.
func (d *Document) DeleteToken(id string) {
	if _, ok := d.tokens[id]; !ok {
		return
	}
	delete(d.tokens, id)
	d.touch(false)
}

// UpdateToken applies a partial edit.
func (d *Document) UpdateToken(id string, p TokenPatch) error {
	t, ok := d.tokens[id]
	if !ok {
		return ErrNotFound
	}
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Color != nil {
		t.Color = *p.Color
	}
	if p.Label != nil {
		t.Label = *p.Label
	}
	if p.Size != nil {
		t.Size = clamp(*p.Size, MinTokenSize, MaxTokenSize)
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	if p.Visible != nil {
		t.Visible = *p.Visible
	}
	d.touch(false)
	return nil
}

// SetTokenAttributes replaces the attributes from JSON text. Text that is
// not a JSON object leaves the token unchanged.
func (d *Document) SetTokenAttributes(id, text string) error {
	t, ok := d.tokens[id]
	if !ok {
		return ErrNotFound
	}
	attrs, err := ParseAttributes(text)
	if err != nil {
		return err
	}
	t.Attributes = attrs
	d.touch(false)
	return nil
}

// SetTokenScale writes the animated display scale. It is view state and
// does not mark the document unsaved.
func (d *Document) SetTokenScale(id string, scale float64) bool {
	t, ok := d.tokens[id]
	if !ok {
		return false
	}
	t.Scale = scale
	d.Dirty.Revision++
	return true
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
