package world

import "math"

// Zoom limits for the main view.
const (
	MinScale = 0.1
	MaxScale = 5.0
)

var sqrt3 = math.Sqrt(3)

// Viewport is the pan/zoom state of the main canvas. Offsets are in screen
// pixels relative to the canvas center.
type Viewport struct {
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
	Scale   float64 `json:"scale"`
}

// IdentityViewport has no pan and unit zoom.
func IdentityViewport() Viewport {
	return Viewport{Scale: 1}
}

// Layout projects axial coordinates onto a canvas of the given size.
type Layout struct {
	HexSize float64 // Logical hex size (default 30)
	Width   int     // Canvas width in pixels
	Height  int     // Canvas height in pixels
	View    Viewport
}

// WorldPosition returns the unscaled, un-panned world point of a hex center.
// The bounds cache and the minimap use this; HexToPixel is the same formula
// with zoom and pan applied.
func WorldPosition(c HexCoord, hexSize float64) (x, y float64) {
	x = hexSize * 1.5 * float64(c.Q)
	y = hexSize * (sqrt3/2*float64(c.Q) + sqrt3*float64(c.R))
	return x, y
}

// PixelSize returns the on-screen hex size (circumradius in pixels).
func (l Layout) PixelSize() float64 {
	return l.HexSize * l.View.Scale
}

// HexToPixel returns the canvas pixel of a hex center.
func (l Layout) HexToPixel(c HexCoord) (x, y float64) {
	size := l.PixelSize()
	x = size * 1.5 * float64(c.Q)
	y = size * (sqrt3/2*float64(c.Q) + sqrt3*float64(c.R))
	return x + l.View.OffsetX + float64(l.Width)/2, y + l.View.OffsetY + float64(l.Height)/2
}

// PixelToHex returns the hex containing the canvas pixel (x, y).
func (l Layout) PixelToHex(x, y float64) HexCoord {
	adjX := x - float64(l.Width)/2 - l.View.OffsetX
	adjY := y - float64(l.Height)/2 - l.View.OffsetY
	size := l.PixelSize()
	q := (2.0 / 3.0 * adjX) / size
	r := (-1.0/3.0*adjX + sqrt3/3*adjY) / size
	return AxialRound(q, r)
}

// HexRange is an inclusive axial rectangle.
type HexRange struct {
	MinQ, MaxQ int
	MinR, MaxR int
}

// Contains reports whether c lies inside the range.
func (hr HexRange) Contains(c HexCoord) bool {
	return c.Q >= hr.MinQ && c.Q <= hr.MaxQ && c.R >= hr.MinR && c.R <= hr.MaxR
}

// VisibleRange converts the four canvas corners to hexes and returns their
// axial bounding range expanded by margin.
func (l Layout) VisibleRange(margin int) HexRange {
	w, h := float64(l.Width), float64(l.Height)
	corners := [4]HexCoord{
		l.PixelToHex(0, 0),
		l.PixelToHex(w, 0),
		l.PixelToHex(0, h),
		l.PixelToHex(w, h),
	}

	hr := HexRange{MinQ: corners[0].Q, MaxQ: corners[0].Q, MinR: corners[0].R, MaxR: corners[0].R}
	for _, c := range corners[1:] {
		hr.MinQ = min(hr.MinQ, c.Q)
		hr.MaxQ = max(hr.MaxQ, c.Q)
		hr.MinR = min(hr.MinR, c.R)
		hr.MaxR = max(hr.MaxR, c.R)
	}
	hr.MinQ -= margin
	hr.MaxQ += margin
	hr.MinR -= margin
	hr.MaxR += margin
	return hr
}

// CenterOn pans the viewport so the world point (worldX, worldY) sits at
// the canvas center.
func (v *Viewport) CenterOn(worldX, worldY float64) {
	v.OffsetX = -worldX * v.Scale
	v.OffsetY = -worldY * v.Scale
}

// ViewCenter returns the world point currently at the canvas center.
func (v Viewport) ViewCenter() (worldX, worldY float64) {
	return -v.OffsetX / v.Scale, -v.OffsetY / v.Scale
}

// Pan shifts the viewport by a screen-space delta.
func (v *Viewport) Pan(dx, dy float64) {
	v.OffsetX += dx
	v.OffsetY += dy
}

// ZoomAt multiplies the scale by factor while keeping the world point under
// canvas pixel (px, py) fixed. The scale is clamped to [MinScale, MaxScale].
func (l *Layout) ZoomAt(factor, px, py float64) {
	oldScale := l.View.Scale
	newScale := math.Max(MinScale, math.Min(MaxScale, oldScale*factor))
	if newScale == oldScale {
		return
	}

	// Screen position relative to the canvas center.
	sx := px - float64(l.Width)/2
	sy := py - float64(l.Height)/2

	// World point under the cursor before zooming.
	wx := (sx - l.View.OffsetX) / oldScale
	wy := (sy - l.View.OffsetY) / oldScale

	l.View.Scale = newScale
	l.View.OffsetX = sx - wx*newScale
	l.View.OffsetY = sy - wy*newScale
}
