package render

import (
	"math"

	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/talgya/hexworlds/internal/world"
)

// hexPath adds a flat-topped hexagon of circumradius size to the path.
func hexPath(dc *gg.Context, x, y, size float64) {
	dc.NewSubPath()
	for i := 0; i < 6; i++ {
		angle := math.Pi / 3 * float64(i)
		hx := x + size*math.Cos(angle)
		hy := y + size*math.Sin(angle)
		if i == 0 {
			dc.MoveTo(hx, hy)
		} else {
			dc.LineTo(hx, hy)
		}
	}
	dc.ClosePath()
}

// polyline adds the points as a path, curving through the interior points
// with quadratic segments when curved is set.
func polyline(dc *gg.Context, layout world.Layout, points []world.HexCoord, curved bool) {
	if len(points) == 0 {
		return
	}
	x0, y0 := layout.HexToPixel(points[0])
	dc.MoveTo(x0, y0)
	if !curved || len(points) <= 2 {
		for _, p := range points[1:] {
			dc.LineTo(layout.HexToPixel(p))
		}
		return
	}

	const k = 0.15
	for i := 1; i < len(points)-1; i++ {
		ax, ay := layout.HexToPixel(points[i-1])
		bx, by := layout.HexToPixel(points[i])
		cx, cy := layout.HexToPixel(points[i+1])
		dc.QuadraticTo(bx-(cx-ax)*k, by-(cy-ay)*k, bx, by)
		if i == len(points)-2 {
			dc.QuadraticTo(bx+(cx-ax)*k, by+(cy-ay)*k, cx, cy)
		}
	}
}

// strokeCircle fills a disc and outlines it.
func strokeCircle(dc *gg.Context, x, y, r float64, fill, edge colorful.Color, edgeWidth float64) {
	dc.DrawCircle(x, y, r)
	dc.SetColor(opaque(fill))
	dc.FillPreserve()
	dc.SetColor(opaque(edge))
	dc.SetLineWidth(edgeWidth)
	dc.Stroke()
}
