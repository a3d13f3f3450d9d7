package render

import (
	"math"
	"time"

	"github.com/fogleman/gg"

	"github.com/talgya/hexworlds/internal/document"
	"github.com/talgya/hexworlds/internal/world"
)

// Minimap throttling and layout.
const (
	MinimapInterval  = 33 * time.Millisecond
	minimapFill      = 0.98
	squareThreshold  = 2.5 // px per hex below which hexes become squares
	minimapPadFactor = 0.5 // padding in hex sizes
)

// Rect is an axis-aligned rectangle in surface pixels.
type Rect struct {
	X, Y, W, H float64
}

// Minimap is the overview canvas. It only redraws when the document says it
// is stale, no more than once per Interval, and only while it has a size.
type Minimap struct {
	Interval time.Duration

	// Transform of the last render: surface = (world − Offset)·Scale.
	Scale   float64
	OffsetX float64
	OffsetY float64

	width, height int
	hexSize       float64
	bounds        *document.Bounds
	dc            *gg.Context
	last          time.Time
	renders       int
}

// NewMinimap returns a minimap for a width×height wrapper. Zero size hides it.
func NewMinimap(width, height int) *Minimap {
	m := &Minimap{Interval: MinimapInterval}
	m.Resize(width, height)
	return m
}

// Resize changes the wrapper size; a zero dimension hides the minimap.
func (m *Minimap) Resize(width, height int) {
	m.width, m.height = max(width, 0), max(height, 0)
	if m.Visible() && (m.dc == nil || m.dc.Width() != m.width || m.dc.Height() != m.height) {
		m.dc = gg.NewContext(m.width, m.height)
		m.last = time.Time{}
	}
}

// Visible reports whether the wrapper has a non-zero size.
func (m *Minimap) Visible() bool { return m.width > 0 && m.height > 0 }

// Renders counts completed redraws.
func (m *Minimap) Renders() int { return m.renders }

// Bounds returns the minimap's cached bounds, nil before the first render
// or for an empty map.
func (m *Minimap) Bounds() *document.Bounds { return m.bounds }

// MaybeRender redraws when the document's minimap flag is set, at least
// Interval has passed since the last redraw and the minimap is visible. It
// clears the flag and reports whether it drew.
func (m *Minimap) MaybeRender(doc *document.Document, now time.Time) bool {
	if !doc.Dirty.Minimap || !m.Visible() {
		return false
	}
	if m.renders > 0 && now.Sub(m.last) < m.Interval {
		return false
	}
	if doc.Dirty.MinimapBounds || m.bounds == nil {
		m.bounds = doc.Bounds()
		doc.Dirty.MinimapBounds = false
	}
	m.render(doc)
	doc.Dirty.Minimap = false
	m.last = now
	m.renders++
	return true
}

func (m *Minimap) render(doc *document.Document) {
	dc := m.dc
	dc.SetColor(opaque(colorBackground))
	dc.Clear()

	m.hexSize = doc.HexSize()
	b := m.bounds
	if b == nil {
		m.Scale = 0
		return
	}

	pad := m.hexSize * minimapPadFactor
	totalW := b.MaxX - b.MinX + 2*pad
	totalH := b.MaxY - b.MinY + 2*pad
	m.Scale = math.Min(minimapFill*float64(m.width)/totalW, minimapFill*float64(m.height)/totalH)
	m.OffsetX = b.MinX - pad
	m.OffsetY = b.MinY - pad

	px := m.hexSize * m.Scale
	fallback := mustHex(world.FallbackColor)
	for _, h := range doc.Hexes() {
		x, y := m.toSurface(h.Coord())
		dc.SetColor(opaque(parseColor(h.Terrain.Color(), fallback)))
		if px < squareThreshold {
			side := math.Max(1, px)
			dc.DrawRectangle(math.Floor(x-side/2), math.Floor(y-side/2), side, side)
		} else {
			hexPath(dc, x, y, px)
		}
		dc.Fill()
	}

	dot := math.Max(1.5, px*0.6)
	for _, l := range doc.Landmarks() {
		x, y := m.toSurface(l.Coord())
		dc.DrawCircle(x, y, dot)
		dc.SetColor(opaque(parseColor(l.Color, mustHex("#ff6b6b"))))
		dc.Fill()
	}
}

func (m *Minimap) toSurface(c world.HexCoord) (x, y float64) {
	wx, wy := world.WorldPosition(c, m.hexSize)
	return (wx - m.OffsetX) * m.Scale, (wy - m.OffsetY) * m.Scale
}

// ViewportRect is the main view's visible area in minimap pixels. It is
// cheap and recomputed every frame, dirty or not.
func (m *Minimap) ViewportRect(layout world.Layout) (Rect, bool) {
	if m.Scale <= 0 || layout.View.Scale <= 0 {
		return Rect{}, false
	}
	cx, cy := layout.View.ViewCenter()
	w := float64(layout.Width) / layout.View.Scale * m.Scale
	h := float64(layout.Height) / layout.View.Scale * m.Scale
	return Rect{
		X: (cx-m.OffsetX)*m.Scale - w/2,
		Y: (cy-m.OffsetY)*m.Scale - h/2,
		W: w,
		H: h,
	}, true
}

// Navigate recenters view on the world point under minimap pixel (px, py).
func (m *Minimap) Navigate(px, py float64, view *world.Viewport) bool {
	if m.Scale <= 0 {
		return false
	}
	view.CenterOn(px/m.Scale+m.OffsetX, py/m.Scale+m.OffsetY)
	return true
}

// Frame returns the minimap surface with the viewport indicator drawn on a
// copy, or nil while hidden.
func (m *Minimap) Frame(indicator Rect, ok bool) *Frame {
	if m.dc == nil {
		return nil
	}
	out := gg.NewContextForImage(m.dc.Image())
	if ok {
		out.DrawRectangle(indicator.X, indicator.Y, indicator.W, indicator.H)
		out.SetColor(alpha(colorAccent, 0.2))
		out.FillPreserve()
		out.SetColor(opaque(colorAccent))
		out.SetLineWidth(2)
		out.Stroke()
	}
	return &Frame{dc: out}
}
