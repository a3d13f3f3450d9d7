package editor

import (
	"errors"
	"fmt"

	"github.com/talgya/hexworlds/internal/document"
	"github.com/talgya/hexworlds/internal/render"
	"github.com/talgya/hexworlds/internal/world"
)

// ErrNotRoutable is returned when routing a token without the pathfinding
// attribute.
var ErrNotRoutable = errors.New("token does not have pathfinding enabled")

// SetMode switches the builder tool. Leaving a tool drops its draft.
func (s *Session) SetMode(m Mode) error {
	if !m.Valid() {
		return s.fail("set mode", fmt.Errorf("mode %q: %w", m, ErrInvalidArgument))
	}
	if m != s.mode {
		s.doc.CancelPath()
		s.scene.Preview = nil
		s.scene.Brush = nil
		s.scene.PathEditMode = false
	}
	s.mode = m
	s.refreshHover()
	s.commit()
	return nil
}

// Mode returns the active tool.
func (s *Session) Mode() Mode { return s.mode }

// SetViewMode switches between builder and explorer.
func (s *Session) SetViewMode(v ViewMode) error {
	if v != ViewBuilder && v != ViewExplorer {
		return s.fail("set view mode", fmt.Errorf("view mode %q: %w", v, ErrInvalidArgument))
	}
	s.viewMode = v
	if v == ViewExplorer {
		s.doc.CancelPath()
		s.scene.Preview = nil
	}
	s.refreshHover()
	s.commit()
	return nil
}

// SetTerrain selects the brush terrain; TerrainClear erases.
func (s *Session) SetTerrain(t world.Terrain) error {
	if !t.Valid() && t != world.TerrainClear {
		return s.fail("set terrain", fmt.Errorf("terrain %q: %w", t, document.ErrInvalidTerrain))
	}
	s.terrain = t
	return nil
}

// SetBrushSize sets the brush diameter in hexes, 1..MaxBrushSize.
func (s *Session) SetBrushSize(n int) error {
	if n < 1 || n > MaxBrushSize {
		return s.fail("set brush", fmt.Errorf("brush size %d: %w", n, ErrInvalidArgument))
	}
	s.brushSize = n
	s.refreshHover()
	s.commit()
	return nil
}

// SetFillMode toggles flood fill for the paint tool.
func (s *Session) SetFillMode(on bool) { s.fill = on }

// SetRouting selects how path clicks are connected.
func (s *Session) SetRouting(r document.Routing) error {
	if r != document.RoutingHex && r != document.RoutingDirect {
		return s.fail("set routing", fmt.Errorf("routing %q: %w", r, ErrInvalidArgument))
	}
	s.routing = r
	s.refreshHover()
	s.commit()
	return nil
}

// Click applies the active tool at c.
func (s *Session) Click(c world.HexCoord) error {
	if s.routeFor != "" {
		id := s.routeFor
		s.routeFor = ""
		return s.StartTokenRoute(id, c)
	}
	if s.viewMode == ViewExplorer {
		s.selectAt(c)
		s.commit()
		return nil
	}

	switch s.mode {
	case ModePaint:
		if s.fill {
			s.FillAt(c)
		} else {
			s.PaintAt(c)
		}
	case ModeErase:
		s.EraseAt(c)
	case ModePath:
		s.PathClick(c)
	case ModeToken:
		if s.pendingToken != nil {
			_, err := s.PlaceToken(c)
			return err
		}
		s.selectAt(c)
		s.commit()
	case ModeLandmark:
		if s.pendingLandmark != nil {
			_, err := s.PlaceLandmark(c)
			return err
		}
		s.selectAt(c)
		s.commit()
	}
	return nil
}

// selectAt selects the top token on c, or else the hex.
func (s *Session) selectAt(c world.HexCoord) {
	if tokens := s.doc.TokensAt(c); len(tokens) > 0 {
		top := tokens[len(tokens)-1]
		s.scene.SelectedToken = top.ID
		s.scene.SelectedHex = nil
		s.animateBounce(top.ID)
		return
	}
	s.scene.SelectedToken = ""
	if _, ok := s.doc.Hex(c); ok {
		s.scene.SelectedHex = &c
	} else {
		s.scene.SelectedHex = nil
	}
}

// PaintAt paints the brush footprint at c with the selected terrain.
func (s *Session) PaintAt(c world.HexCoord) {
	s.doc.PaintBrush(c, s.brushSize, s.terrain)
	s.commit()
}

// EraseAt erases the brush footprint at c.
func (s *Session) EraseAt(c world.HexCoord) {
	s.doc.EraseBrush(c, s.brushSize)
	s.commit()
}

// FillAt flood-fills from c with the selected terrain.
func (s *Session) FillAt(c world.HexCoord) int {
	n := s.doc.FloodFill(c, s.terrain)
	if n >= document.MaxFloodFill {
		s.notifier.Notify(Notice{Level: LevelInfo, Message: "Fill stopped at the size limit.", At: s.now()})
	}
	s.commit()
	return n
}

// Hover moves the cursor to c, refreshing the brush and path previews.
func (s *Session) Hover(c world.HexCoord) {
	s.scene.Hover = &c
	s.refreshHover()
	s.commit()
}

// ClearHover removes the cursor from the map.
func (s *Session) ClearHover() {
	s.scene.Hover = nil
	s.refreshHover()
	s.commit()
}

func (s *Session) refreshHover() {
	s.scene.Brush = nil
	s.scene.Preview = nil
	if s.scene.Hover == nil || s.viewMode != ViewBuilder {
		return
	}
	c := *s.scene.Hover
	switch s.mode {
	case ModePaint, ModeErase:
		s.scene.Brush = world.InRadius(c, s.brushSize-1)
	case ModePath:
		s.scene.Preview = s.doc.PreviewRoute(c, s.routing)
	}
}

// PathClick starts a draft at c or extends the draft to c.
func (s *Session) PathClick(c world.HexCoord) {
	if _, ok := s.doc.Draft(); ok {
		s.doc.ExtendPath(c, s.routing)
	} else {
		s.doc.StartPath(c)
	}
	s.refreshHover()
	s.commit()
}

// FinishPath commits the draft if it has two or more points.
func (s *Session) FinishPath() (*document.Path, bool) {
	p, ok := s.doc.FinishPath()
	s.scene.Preview = nil
	s.commit()
	return p, ok
}

// CancelPath drops the draft.
func (s *Session) CancelPath() {
	s.doc.CancelPath()
	s.scene.Preview = nil
	s.commit()
}

// Escape cancels whatever is in progress: the draft, pending placements and
// route destination selection. With nothing in progress it deselects the
// path.
func (s *Session) Escape() {
	_, drafting := s.doc.Draft()
	busy := drafting || s.pendingToken != nil || s.pendingLandmark != nil || s.routeFor != ""

	s.doc.CancelPath()
	s.pendingToken = nil
	s.pendingLandmark = nil
	s.routeFor = ""
	s.scene.Preview = nil
	if !busy {
		s.scene.SelectedPath = ""
		s.scene.PathEditMode = false
	}
	s.commit()
}

// Pending reports which placements are armed.
func (s *Session) Pending() (token, landmark bool, routeFor string) {
	return s.pendingToken != nil, s.pendingLandmark != nil, s.routeFor
}

// SelectHex selects an existing hex.
func (s *Session) SelectHex(c world.HexCoord) error {
	if _, ok := s.doc.Hex(c); !ok {
		return s.fail("select hex", fmt.Errorf("hex %s: %w", c.Key(), document.ErrNotFound))
	}
	s.scene.SelectedHex = &c
	s.scene.SelectedToken = ""
	s.commit()
	return nil
}

// SelectToken selects a token; "" clears.
func (s *Session) SelectToken(id string) error {
	if id != "" {
		if _, ok := s.doc.Token(id); !ok {
			return s.fail("select token", fmt.Errorf("token %s: %w", id, document.ErrNotFound))
		}
		s.animateBounce(id)
	}
	s.scene.SelectedToken = id
	s.scene.SelectedHex = nil
	s.commit()
	return nil
}

// SelectPath selects a committed path; "" clears. Point handles show while
// edit is set.
func (s *Session) SelectPath(id string, edit bool) error {
	if id != "" {
		if _, ok := s.doc.Path(id); !ok {
			return s.fail("select path", fmt.Errorf("path %s: %w", id, document.ErrNotFound))
		}
	}
	s.scene.SelectedPath = id
	s.scene.PathEditMode = edit && id != ""
	s.scene.HoveredPoint, s.scene.DraggedPoint = render.NoPoint, render.NoPoint
	s.commit()
	return nil
}

// HoverPath highlights a path under the cursor; "" clears.
func (s *Session) HoverPath(id string) {
	s.scene.HoveredPath = id
	s.commit()
}
