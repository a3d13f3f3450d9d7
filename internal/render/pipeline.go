package render

import (
	"bytes"
	"image"
	"time"

	"github.com/fogleman/gg"

	"github.com/talgya/hexworlds/internal/document"
)

// Frame is a rendered surface.
type Frame struct {
	dc *gg.Context
}

// Image returns the pixels.
func (f *Frame) Image() image.Image { return f.dc.Image() }

// PNG encodes the surface.
func (f *Frame) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := f.dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Pipeline sequences one commit: main view, viewport indicator, then a
// gated minimap attempt.
type Pipeline struct {
	Main    *MainView
	Minimap *Minimap

	indicator   Rect
	indicatorOK bool
	commits     uint64
}

// NewPipeline wires the two surfaces. icons may be nil.
func NewPipeline(width, height, miniWidth, miniHeight int, icons *IconCache) *Pipeline {
	return &Pipeline{
		Main:    NewMainView(width, height, icons),
		Minimap: NewMinimap(miniWidth, miniHeight),
	}
}

// Commit renders the main view and then tries the minimap.
func (p *Pipeline) Commit(doc *document.Document, scene Scene, now time.Time) {
	p.commits++
	p.Main.Render(doc, scene)
	p.Tick(doc, scene, now)
}

// Tick refreshes the indicator and retries a throttled minimap. The editor
// calls it every frame so a skipped minimap redraw catches up.
func (p *Pipeline) Tick(doc *document.Document, scene Scene, now time.Time) bool {
	layout := scene.Layout
	layout.Width, layout.Height = p.Main.dc.Width(), p.Main.dc.Height()
	p.indicator, p.indicatorOK = p.Minimap.ViewportRect(layout)
	if !p.Minimap.MaybeRender(doc, now) {
		return false
	}
	// A redraw may have moved the minimap transform.
	p.indicator, p.indicatorOK = p.Minimap.ViewportRect(layout)
	return true
}

// Indicator returns the current viewport rectangle on the minimap.
func (p *Pipeline) Indicator() (Rect, bool) { return p.indicator, p.indicatorOK }

// Commits counts main-view renders.
func (p *Pipeline) Commits() uint64 { return p.commits }

// MainFrame returns the main surface.
func (p *Pipeline) MainFrame() *Frame { return p.Main.Frame() }

// MinimapFrame returns the minimap with the indicator overlaid.
func (p *Pipeline) MinimapFrame() *Frame {
	return p.Minimap.Frame(p.indicator, p.indicatorOK)
}
