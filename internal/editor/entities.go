package editor

import (
	"fmt"

	"github.com/talgya/hexworlds/internal/document"
	"github.com/talgya/hexworlds/internal/world"
)

// SetHexDetails names and describes an existing hex.
func (s *Session) SetHexDetails(c world.HexCoord, name, description string) error {
	if err := s.doc.SetHexDetails(c, name, description); err != nil {
		return s.fail("hex details", fmt.Errorf("hex %s: %w", c.Key(), err))
	}
	s.commit()
	return nil
}

// DeleteHex erases a single hex regardless of brush size.
func (s *Session) DeleteHex(c world.HexCoord) {
	s.doc.DeleteHex(c)
	if s.scene.SelectedHex != nil && *s.scene.SelectedHex == c {
		s.scene.SelectedHex = nil
	}
	s.commit()
}

// BeginTokenPlacement arms the token tool: the next click places a token
// with data.
func (s *Session) BeginTokenPlacement(data document.TokenData) {
	s.mode = ModeToken
	s.pendingToken = &data
	s.commit()
}

// PlaceToken places the pending token at c.
func (s *Session) PlaceToken(c world.HexCoord) (*document.Token, error) {
	if s.pendingToken == nil {
		return nil, s.fail("place token", fmt.Errorf("no pending token: %w", ErrInvalidArgument))
	}
	data := *s.pendingToken
	s.pendingToken = nil
	return s.CreateToken(c, data), nil
}

// CreateToken places a token at c and pops it in from zero scale.
func (s *Session) CreateToken(c world.HexCoord, data document.TokenData) *document.Token {
	t := s.doc.CreateToken(c, data)
	s.doc.SetTokenScale(t.ID, 0)
	s.AnimateTokenScale(t.ID, 1, s.opts.ScaleDuration*3/2)
	s.commit()
	return t
}

// MoveToken drops a token on c. An active route keeps running from the new
// position's next tick; call StopTokenRoute to cancel it.
func (s *Session) MoveToken(id string, c world.HexCoord) error {
	if err := s.doc.MoveToken(id, c); err != nil {
		return s.fail("move token", fmt.Errorf("token %s: %w", id, err))
	}
	s.AnimateTokenScale(id, 1, s.opts.ScaleDuration)
	s.commit()
	return nil
}

// UpdateToken applies a partial edit.
func (s *Session) UpdateToken(id string, p document.TokenPatch) error {
	if err := s.doc.UpdateToken(id, p); err != nil {
		return s.fail("update token", fmt.Errorf("token %s: %w", id, err))
	}
	s.commit()
	return nil
}

// SetTokenAttributes replaces a token's attributes from JSON text.
func (s *Session) SetTokenAttributes(id, text string) error {
	if err := s.doc.SetTokenAttributes(id, text); err != nil {
		return s.fail("token attributes", fmt.Errorf("token %s: %w", id, err))
	}
	s.commit()
	return nil
}

// DeleteToken removes a token. Its route ticks stop on their own.
func (s *Session) DeleteToken(id string) {
	s.doc.DeleteToken(id)
	delete(s.animations, id)
	if s.scene.SelectedToken == id {
		s.scene.SelectedToken = ""
	}
	if s.routeFor == id {
		s.routeFor = ""
	}
	s.commit()
}

// BeginLandmarkPlacement arms the landmark tool.
func (s *Session) BeginLandmarkPlacement(data document.LandmarkData) {
	s.mode = ModeLandmark
	s.pendingLandmark = &data
	s.commit()
}

// PlaceLandmark places the pending landmark at c. A rejected placement
// stays armed.
func (s *Session) PlaceLandmark(c world.HexCoord) (*document.Landmark, error) {
	if s.pendingLandmark == nil {
		return nil, s.fail("place landmark", fmt.Errorf("no pending landmark: %w", ErrInvalidArgument))
	}
	l, err := s.CreateLandmark(c, *s.pendingLandmark)
	if err != nil {
		return nil, err
	}
	s.pendingLandmark = nil
	return l, nil
}

// CreateLandmark places a landmark at c.
func (s *Session) CreateLandmark(c world.HexCoord, data document.LandmarkData) (*document.Landmark, error) {
	l, err := s.doc.CreateLandmark(c, data)
	if err != nil {
		return nil, s.fail("create landmark", fmt.Errorf("landmark at %s: %w", c.Key(), err))
	}
	s.commit()
	return l, nil
}

// UpdateLandmark applies a partial edit.
func (s *Session) UpdateLandmark(id string, p document.LandmarkPatch) error {
	if err := s.doc.UpdateLandmark(id, p); err != nil {
		return s.fail("update landmark", fmt.Errorf("landmark %s: %w", id, err))
	}
	s.commit()
	return nil
}

// SetLandmarkAttributes replaces a landmark's attributes from JSON text.
func (s *Session) SetLandmarkAttributes(id, text string) error {
	if err := s.doc.SetLandmarkAttributes(id, text); err != nil {
		return s.fail("landmark attributes", fmt.Errorf("landmark %s: %w", id, err))
	}
	s.commit()
	return nil
}

// DeleteLandmark removes a landmark by id.
func (s *Session) DeleteLandmark(id string) {
	s.doc.DeleteLandmarkByID(id)
	s.commit()
}

// SetPathSettings replaces the parameters for new drafts.
func (s *Session) SetPathSettings(p document.PathSettings) error {
	if p.Type != "" {
		if _, ok := document.PathStyles[p.Type]; !ok {
			return s.fail("path settings", fmt.Errorf("path type %q: %w", p.Type, ErrInvalidArgument))
		}
	}
	if p.Style != "" && p.Style != document.PathStraight && p.Style != document.PathCurved {
		return s.fail("path settings", fmt.Errorf("path style %q: %w", p.Style, ErrInvalidArgument))
	}
	s.doc.ApplyPathSettings(p)
	s.commit()
	return nil
}

// DeletePath removes a committed path.
func (s *Session) DeletePath(id string) {
	s.doc.DeletePath(id)
	if s.scene.SelectedPath == id {
		s.scene.SelectedPath = ""
		s.scene.PathEditMode = false
	}
	if s.scene.HoveredPath == id {
		s.scene.HoveredPath = ""
	}
	s.commit()
}

// SplitPath splits a path at point i.
func (s *Session) SplitPath(id string, i int) (*document.Path, error) {
	p, err := s.doc.SplitPath(id, i)
	if err != nil {
		return nil, s.fail("split path", fmt.Errorf("path %s: %w", id, err))
	}
	s.commit()
	return p, nil
}

// InsertPointAfter adds the midpoint between points i and i+1.
func (s *Session) InsertPointAfter(id string, i int) (world.HexCoord, error) {
	c, err := s.doc.InsertPointAfter(id, i)
	if err != nil {
		return c, s.fail("insert point", fmt.Errorf("path %s: %w", id, err))
	}
	s.commit()
	return c, nil
}

// DeletePathPoint removes point i.
func (s *Session) DeletePathPoint(id string, i int) error {
	if err := s.doc.DeletePathPoint(id, i); err != nil {
		return s.fail("delete point", fmt.Errorf("path %s: %w", id, err))
	}
	s.commit()
	return nil
}

// MovePathPoint drags point i to c.
func (s *Session) MovePathPoint(id string, i int, c world.HexCoord) error {
	if err := s.doc.MovePathPoint(id, i, c); err != nil {
		return s.fail("move point", fmt.Errorf("path %s: %w", id, err))
	}
	s.commit()
	return nil
}

// UpdatePath applies a partial edit.
func (s *Session) UpdatePath(id string, p document.PathPatch) error {
	if err := s.doc.UpdatePath(id, p); err != nil {
		return s.fail("update path", fmt.Errorf("path %s: %w", id, err))
	}
	s.commit()
	return nil
}

// HoverPoint highlights point handle i of the selected path; render.NoPoint
// clears.
func (s *Session) HoverPoint(i int) {
	s.scene.HoveredPoint = i
	s.commit()
}

// DragPoint marks handle i as being dragged; render.NoPoint ends the drag.
func (s *Session) DragPoint(i int) {
	s.scene.DraggedPoint = i
	s.commit()
}
