package render

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

var (
	colorBackground = mustHex("#0a0e13")
	colorGrid       = mustHex("#1a1f26")
	colorTileEdge   = mustHex("#2d3748")
	colorAccent     = mustHex("#667eea")
	colorHighlight  = mustHex("#f59e0b")
	colorStart      = mustHex("#10b981")
	colorEnd        = mustHex("#ef4444")
	colorWhite      = colorful.Color{R: 1, G: 1, B: 1}
	colorBlack      = colorful.Color{}
)

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// parseColor reads a CSS hex color, falling back when it does not parse.
func parseColor(s string, fallback colorful.Color) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		return fallback
	}
	return c
}

// shift adds percent·2.55 to each 8-bit channel, clamped; negative darkens.
func shift(c colorful.Color, percent float64) colorful.Color {
	amt := math.Round(2.55*percent) / 255
	return colorful.Color{R: c.R + amt, G: c.G + amt, B: c.B + amt}.Clamped()
}

func lighten(c colorful.Color, percent float64) colorful.Color { return shift(c, percent) }
func darken(c colorful.Color, percent float64) colorful.Color  { return shift(c, -percent) }

// alpha returns c with the given opacity in [0, 1].
func alpha(c colorful.Color, a float64) color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: uint8(math.Round(clamp01(a) * 255))}
}

func opaque(c colorful.Color) color.NRGBA { return alpha(c, 1) }

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
