package render

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/talgya/hexworlds/internal/document"
	"github.com/talgya/hexworlds/internal/world"
)

// CullMargin is the number of hexes drawn past each canvas edge.
const CullMargin = 5

// iconMinPixelSize is the hex size below which terrain icons are skipped.
const iconMinPixelSize = 15

// MainView is the primary canvas, fully redrawn on every commit.
type MainView struct {
	dc    *gg.Context
	icons *IconCache
}

// NewMainView allocates a width×height canvas. icons may be nil.
func NewMainView(width, height int, icons *IconCache) *MainView {
	return &MainView{dc: gg.NewContext(max(width, 1), max(height, 1)), icons: icons}
}

// Resize reallocates the canvas when the size changed.
func (v *MainView) Resize(width, height int) {
	width, height = max(width, 1), max(height, 1)
	if v.dc.Width() != width || v.dc.Height() != height {
		v.dc = gg.NewContext(width, height)
	}
}

// Frame returns the last rendered surface.
func (v *MainView) Frame() *Frame { return &Frame{dc: v.dc} }

// Render redraws everything: grid, tiles, paths, markers, then overlays.
func (v *MainView) Render(doc *document.Document, scene Scene) {
	dc := v.dc
	layout := scene.Layout
	layout.Width, layout.Height = dc.Width(), dc.Height()
	size := layout.PixelSize()
	visible := layout.VisibleRange(CullMargin)

	dc.SetColor(opaque(colorBackground))
	dc.Clear()
	dc.SetLineCapRound()
	dc.SetLineJoinRound()

	v.drawGrid(doc, layout, visible, size)
	v.drawTiles(doc, layout, visible, size)

	paths := doc.Paths()
	for _, p := range paths {
		drawPath(dc, layout, p)
	}
	if draft, ok := doc.Draft(); ok {
		drawPath(dc, layout, draft)
		drawDraftMarkers(dc, layout, draft)
		if len(scene.Preview) > 1 {
			drawPreview(dc, layout, draft, scene.Preview)
		}
	}
	var selected *document.Path
	for _, p := range paths {
		if p.ID == scene.HoveredPath && p.ID != scene.SelectedPath {
			drawPathOverlay(dc, layout, p, colorAccent, 3, 0.3, nil)
		}
		if p.ID == scene.SelectedPath {
			selected = p
		}
	}
	if selected != nil {
		drawPathOverlay(dc, layout, selected, colorHighlight, 4, 0.5, []float64{8, 4})
	}

	for _, l := range doc.Landmarks() {
		if l.Visible && visible.Contains(l.Coord()) {
			drawLandmark(dc, layout, l)
		}
	}
	for _, t := range doc.Tokens() {
		if t.Visible && visible.Contains(t.Coord()) {
			drawToken(dc, layout, t)
		}
	}

	if len(scene.Brush) > 0 {
		dc.SetColor(alpha(colorAccent, 0.5))
		dc.SetLineWidth(3)
		for _, c := range scene.Brush {
			x, y := layout.HexToPixel(c)
			hexPath(dc, x, y, size)
		}
		dc.Stroke()
	}
	if scene.SelectedHex != nil {
		x, y := layout.HexToPixel(*scene.SelectedHex)
		hexPath(dc, x, y, size)
		dc.SetColor(opaque(colorAccent))
		dc.SetLineWidth(3)
		dc.Stroke()
	}
	if scene.SelectedToken != "" {
		if t, ok := doc.Token(scene.SelectedToken); ok {
			x, y := layout.HexToPixel(t.Coord())
			hexPath(dc, x, y, size)
			dc.SetColor(opaque(colorHighlight))
			dc.SetLineWidth(4)
			dc.SetDash(8, 4)
			dc.Stroke()
			dc.SetDash()
		}
	}

	for _, t := range doc.RoutingTokens() {
		drawRoute(dc, layout, t)
	}
	if scene.PathEditMode && selected != nil {
		drawPointHandles(dc, layout, selected, scene.HoveredPoint, scene.DraggedPoint)
	}
}

func (v *MainView) drawGrid(doc *document.Document, layout world.Layout, r world.HexRange, size float64) {
	dc := v.dc
	for q := r.MinQ; q <= r.MaxQ; q++ {
		for rr := r.MinR; rr <= r.MaxR; rr++ {
			c := world.HexCoord{Q: q, R: rr}
			if _, ok := doc.Hex(c); ok {
				continue
			}
			x, y := layout.HexToPixel(c)
			hexPath(dc, x, y, size)
		}
	}
	dc.SetColor(opaque(colorGrid))
	dc.SetLineWidth(1)
	dc.Stroke()
}

func (v *MainView) drawTiles(doc *document.Document, layout world.Layout, r world.HexRange, size float64) {
	dc := v.dc
	for _, h := range doc.Hexes() {
		c := h.Coord()
		if !r.Contains(c) {
			continue
		}
		x, y := layout.HexToPixel(c)
		hexPath(dc, x, y, size)
		dc.SetColor(opaque(parseColor(h.Terrain.Color(), mustHex(world.FallbackColor))))
		dc.FillPreserve()
		dc.SetColor(opaque(colorTileEdge))
		dc.SetLineWidth(2)
		dc.Stroke()

		if v.icons != nil && size > iconMinPixelSize {
			if icon, ok := v.icons.Get(h.Terrain); ok {
				iconSize := size * 0.8
				b := icon.Bounds()
				dc.Push()
				dc.Translate(x, y)
				dc.Scale(iconSize/float64(b.Dx()), iconSize/float64(b.Dy()))
				dc.DrawImageAnchored(icon, 0, 0, 0.5, 0.5)
				dc.Pop()
			}
		}
		if len(h.Dungeon) > 0 && string(h.Dungeon) != "null" {
			dc.DrawCircle(x+size*0.4, y-size*0.4, size*0.15)
			dc.SetColor(opaque(colorHighlight))
			dc.Fill()
		}
	}
}

func pathDash(p *document.Path, scale float64) []float64 {
	dash := document.StyleOf(p.Type).Dash
	if len(dash) == 0 {
		return nil
	}
	out := make([]float64, len(dash))
	for i, d := range dash {
		out[i] = d * scale
	}
	return out
}

func drawPath(dc *gg.Context, layout world.Layout, p *document.Path) {
	if len(p.Points) < 2 {
		return
	}
	scale := layout.View.Scale
	polyline(dc, layout, p.Points, p.Style == document.PathCurved)
	dc.SetColor(opaque(parseColor(p.LineColor(), mustHex(document.StyleOf(p.Type).Color))))
	dc.SetLineWidth(float64(p.LineWidth()) * scale)
	dc.SetDash(pathDash(p, scale)...)
	dc.Stroke()
	dc.SetDash()
}

func drawPathOverlay(dc *gg.Context, layout world.Layout, p *document.Path, c colorful.Color, extra, a float64, dash []float64) {
	if len(p.Points) < 2 {
		return
	}
	polyline(dc, layout, p.Points, p.Style == document.PathCurved)
	dc.SetColor(alpha(c, a))
	dc.SetLineWidth((float64(p.LineWidth()) + extra) * layout.View.Scale)
	dc.SetDash(dash...)
	dc.Stroke()
	dc.SetDash()
}

// drawDraftMarkers marks the draft's start green, its end red and the rest
// in the accent color.
func drawDraftMarkers(dc *gg.Context, layout world.Layout, draft *document.Path) {
	r := 5 * layout.View.Scale
	for i, p := range draft.Points {
		fill := colorAccent
		switch i {
		case 0:
			fill = colorStart
		case len(draft.Points) - 1:
			fill = colorEnd
		}
		x, y := layout.HexToPixel(p)
		strokeCircle(dc, x, y, r, fill, colorWhite, 2)
	}
}

// drawPreview shows where the next click would extend the draft. The route
// is the caller's; it is never part of the draft.
func drawPreview(dc *gg.Context, layout world.Layout, draft *document.Path, route []world.HexCoord) {
	scale := layout.View.Scale
	polyline(dc, layout, route, false)
	dc.SetColor(alpha(parseColor(draft.LineColor(), colorAccent), 0.5))
	dc.SetLineWidth(float64(draft.LineWidth()) * scale)
	dc.SetDash(6*scale, 4*scale)
	dc.Stroke()
	dc.SetDash()
}

func drawRoute(dc *gg.Context, layout world.Layout, t *document.Token) {
	if len(t.Route) < 2 {
		return
	}
	scale := layout.View.Scale
	c := parseColor(t.Color, colorAccent)

	polyline(dc, layout, t.Route, false)
	dc.SetColor(alpha(c, 0.6))
	dc.SetLineWidth(6 * scale)
	dc.SetDash(10, 5)
	dc.Stroke()
	dc.SetDash()

	dest, _ := t.Destination()
	x, y := layout.HexToPixel(dest)
	strokeCircle(dc, x, y, 8*scale, c, colorWhite, 2)
}

func drawPointHandles(dc *gg.Context, layout world.Layout, p *document.Path, hovered, dragged int) {
	face := boldFace(10)
	for i, pt := range p.Points {
		x, y := layout.HexToPixel(pt)

		fill, r := colorWhite, 7.0
		switch i {
		case dragged:
			fill, r = colorHighlight, 10
		case hovered:
			fill, r = colorAccent, 9
		}
		strokeCircle(dc, x, y, r, fill, colorBlack, 2)

		if face != nil {
			dc.SetFontFace(face)
			dc.SetColor(opaque(colorBlack))
			dc.DrawStringAnchored(strconv.Itoa(i+1), x, y, 0.5, 0.5)
		}

		switch i {
		case 0:
			dc.DrawCircle(x, y, 12)
			dc.SetColor(alpha(colorStart, 0.3))
			dc.Fill()
		case len(p.Points) - 1:
			dc.DrawCircle(x, y, 12)
			dc.SetColor(alpha(colorEnd, 0.3))
			dc.Fill()
		}
	}
}

func drawToken(dc *gg.Context, layout world.Layout, t *document.Token) {
	size := layout.PixelSize()
	tokenSize := size * 0.85 * t.Size * t.Scale
	if tokenSize <= 0 || size <= 0 {
		return
	}
	radius := math.Max(1, tokenSize/2)
	x, y := layout.HexToPixel(t.Coord())

	dc.DrawCircle(x+2, y+2, radius)
	dc.SetColor(alpha(colorBlack, 0.3))
	dc.Fill()
	strokeCircle(dc, x, y, radius, parseColor(t.Color, colorAccent), colorBlack, math.Max(1, 2*t.Scale))

	if tokenSize <= 10 {
		return
	}
	face := boldFace(math.Max(10, tokenSize*0.35))
	if face == nil {
		return
	}
	text := TokenText(t.Label, t.Size)
	dc.SetFontFace(face)
	dc.SetColor(alpha(colorBlack, 0.5))
	dc.DrawStringAnchored(text, x+1, y+1, 0.5, 0.5)
	dc.SetColor(opaque(colorWhite))
	dc.DrawStringAnchored(text, x, y, 0.5, 0.5)
}

// TokenText abbreviates a token label for its size: one initial below 0.8,
// up to three initials (or letters) below 1.3, else up to ten characters.
func TokenText(label string, size float64) string {
	runes := []rune(label)
	switch {
	case size < 0.8:
		if len(runes) == 0 {
			return ""
		}
		return string(unicode.ToUpper(runes[0]))
	case size < 1.3:
		if len(runes) <= 3 {
			return strings.ToUpper(label)
		}
		words := strings.Fields(label)
		if len(words) > 1 {
			var initials []rune
			for _, w := range words {
				initials = append(initials, unicode.ToUpper([]rune(w)[0]))
			}
			return string(initials[:min(3, len(initials))])
		}
		return strings.ToUpper(string(runes[:3]))
	default:
		if len(runes) > 10 {
			return string(runes[:10])
		}
		return label
	}
}

func drawLandmark(dc *gg.Context, layout world.Layout, l *document.Landmark) {
	size := layout.PixelSize()
	lmSize := size * 0.75 * l.Size
	if lmSize <= 0 || size <= 0 {
		return
	}
	radius := math.Max(1, lmSize/2)
	x, y := layout.HexToPixel(l.Coord())
	c := parseColor(l.Color, mustHex("#FFD700"))

	switch l.Style {
	case document.StyleCircle:
		glow := gg.NewRadialGradient(x, y, 0, x, y, radius+8)
		glow.AddColorStop(0, alpha(c, 0.3))
		glow.AddColorStop(0.7, alpha(c, 0.3))
		glow.AddColorStop(1, alpha(c, 0))
		dc.DrawCircle(x, y, radius+8)
		dc.SetFillStyle(glow)
		dc.Fill()

		body := gg.NewRadialGradient(x-lmSize*0.2, y-lmSize*0.2, 0, x, y, radius)
		body.AddColorStop(0, alpha(lighten(c, 30), 0.85))
		body.AddColorStop(1, alpha(c, 0.85))
		dc.DrawCircle(x, y, radius)
		dc.SetFillStyle(body)
		dc.FillPreserve()
		dc.SetColor(opaque(darken(c, 30)))
		dc.SetLineWidth(3)
		dc.Stroke()

		if radius > 5 {
			dc.NewSubPath()
			dc.DrawArc(x-lmSize*0.15, y-lmSize*0.15, radius-5, math.Pi, math.Pi*1.5)
			dc.SetColor(alpha(colorWhite, 0.4))
			dc.SetLineWidth(2)
			dc.Stroke()
		}

	case document.StyleIcon:
		dc.DrawCircle(x, y, radius)
		dc.SetColor(alpha(c, 0.9))
		dc.FillPreserve()
		dc.SetColor(opaque(colorBlack))
		dc.SetLineWidth(2)
		dc.Stroke()
		// The icon URL is kept opaque; a glyph stands in for it.
		if face := boldFace(lmSize * 0.5); face != nil && lmSize > 10 {
			dc.SetFontFace(face)
			dc.DrawStringAnchored("*", x, y, 0.5, 0.5)
		}

	case document.StyleBadge:
		badgeRadius := math.Max(1, size*0.4*l.Size/2)
		bx, by := x+size*0.3, y-size*0.3
		dc.DrawCircle(bx, by, badgeRadius+4)
		dc.SetColor(alpha(c, 0.3))
		dc.Fill()
		strokeCircle(dc, bx, by, badgeRadius, c, colorBlack, 2)
	}

	if !l.ShowLabel || l.Name == "" || lmSize <= 10 {
		return
	}
	fontSize := math.Max(11, size*0.28)
	face := boldFace(fontSize)
	if face == nil {
		return
	}
	dc.SetFontFace(face)
	ly, ay := y, 0.5
	switch l.LabelPosition {
	case document.LabelAbove:
		ly, ay = y-radius-fontSize/2-4, 0
	case document.LabelBelow:
		ly, ay = y+radius+fontSize/2+4, 1
	}
	outlinedText(dc, l.Name, x, ly, ay)
}

// outlinedText draws white text over a 2px black halo.
func outlinedText(dc *gg.Context, s string, x, y, ay float64) {
	dc.SetColor(opaque(colorBlack))
	for dy := -2.0; dy <= 2; dy += 2 {
		for dx := -2.0; dx <= 2; dx += 2 {
			if dx != 0 || dy != 0 {
				dc.DrawStringAnchored(s, x+dx, y+dy, 0.5, ay)
			}
		}
	}
	dc.SetColor(opaque(colorWhite))
	dc.DrawStringAnchored(s, x, y, 0.5, ay)
}
