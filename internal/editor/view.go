package editor

import (
	"fmt"

	"github.com/talgya/hexworlds/internal/world"
)

// Pan shifts the main view by a screen delta.
func (s *Session) Pan(dx, dy float64) {
	s.doc.View.Pan(dx, dy)
	s.commit()
}

// Zoom scales the main view about canvas pixel (px, py).
func (s *Session) Zoom(factor, px, py float64) error {
	if factor <= 0 {
		return s.fail("zoom", fmt.Errorf("zoom factor %g: %w", factor, ErrInvalidArgument))
	}
	l := s.layout()
	l.ZoomAt(factor, px, py)
	s.doc.View = l.View
	s.commit()
	return nil
}

// SetViewport replaces the pan and zoom. The scale is clamped.
func (s *Session) SetViewport(v world.Viewport) {
	if v.Scale == 0 {
		v.Scale = 1
	}
	v.Scale = min(max(v.Scale, world.MinScale), world.MaxScale)
	s.doc.View = v
	s.commit()
}

// CenterOn pans so hex c is in the middle of the main view.
func (s *Session) CenterOn(c world.HexCoord) {
	x, y := world.WorldPosition(c, s.doc.HexSize())
	s.doc.View.CenterOn(x, y)
	s.commit()
}

// MinimapNavigate centers the main view on the world point under minimap
// pixel (px, py). It reports false before the minimap has drawn anything.
func (s *Session) MinimapNavigate(px, py float64) bool {
	if !s.pipeline.Minimap.Navigate(px, py, &s.doc.View) {
		return false
	}
	s.commit()
	return true
}

// PixelToHex converts a main view pixel to a coordinate.
func (s *Session) PixelToHex(px, py float64) world.HexCoord {
	return s.layout().PixelToHex(px, py)
}

// Resize changes the canvas sizes. A zero minimap size hides it.
func (s *Session) Resize(width, height, miniWidth, miniHeight int) error {
	if width <= 0 || height <= 0 || miniWidth < 0 || miniHeight < 0 {
		return s.fail("resize", fmt.Errorf("size %dx%d: %w", width, height, ErrInvalidArgument))
	}
	s.opts.Width, s.opts.Height = width, height
	s.opts.MinimapWidth, s.opts.MinimapHeight = miniWidth, miniHeight
	s.pipeline.Main.Resize(width, height)
	s.pipeline.Minimap.Resize(miniWidth, miniHeight)
	s.doc.Dirty.Minimap = true
	s.commit()
	return nil
}
