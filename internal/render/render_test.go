package render

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/talgya/hexworlds/internal/document"
	"github.com/talgya/hexworlds/internal/world"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func hc(q, r int) world.HexCoord { return world.HexCoord{Q: q, R: r} }

func paintedDoc(coords ...world.HexCoord) *document.Document {
	d := document.New()
	for _, c := range coords {
		d.SetHex(c, world.TerrainGrassland)
	}
	return d
}

func TestMinimapGate(t *testing.T) {
	d := paintedDoc(hc(0, 0), hc(1, 0))
	m := NewMinimap(200, 150)

	if !m.MaybeRender(d, epoch) {
		t.Fatal("first render skipped")
	}
	if d.Dirty.Minimap || d.Dirty.MinimapBounds {
		t.Error("flags not cleared after render")
	}
	if m.MaybeRender(d, epoch.Add(time.Second)) {
		t.Error("rendered while clean")
	}

	d.SetHex(hc(0, 1), world.TerrainForest)
	if m.MaybeRender(d, epoch.Add(10*time.Millisecond)) {
		t.Error("rendered inside the 33 ms window")
	}
	if !d.Dirty.Minimap {
		t.Error("throttled render cleared the flag")
	}
	if !m.MaybeRender(d, epoch.Add(33*time.Millisecond)) {
		t.Error("render skipped after the window")
	}

	m.Resize(0, 150)
	d.SetHex(hc(0, 2), world.TerrainForest)
	if m.MaybeRender(d, epoch.Add(time.Minute)) {
		t.Error("hidden minimap rendered")
	}
	m.Resize(200, 150)
	if !m.MaybeRender(d, epoch.Add(time.Minute)) {
		t.Error("minimap did not catch up once visible")
	}
	if m.Renders() != 3 {
		t.Errorf("renders = %d, want 3", m.Renders())
	}
}

func TestMinimapBoundsRefresh(t *testing.T) {
	d := paintedDoc(hc(-2, 0), hc(2, 0), hc(0, 0))
	m := NewMinimap(100, 100)
	m.MaybeRender(d, epoch)
	first := *m.Bounds()

	// An interior paint leaves the cached bounds alone.
	d.SetHex(hc(1, 0), world.TerrainWater)
	if d.Dirty.MinimapBounds {
		t.Fatal("interior insert flagged bounds")
	}
	m.MaybeRender(d, epoch.Add(time.Second))
	if *m.Bounds() != first {
		t.Error("bounds changed on interior insert")
	}

	d.SetHex(hc(5, 0), world.TerrainWater)
	m.MaybeRender(d, epoch.Add(2*time.Second))
	if m.Bounds().MaxQ != 5 {
		t.Errorf("bounds not refreshed: %+v", m.Bounds())
	}

	d.DeleteHex(hc(5, 0))
	if !d.Dirty.MinimapBounds {
		t.Fatal("boundary delete did not flag bounds")
	}
	m.MaybeRender(d, epoch.Add(3*time.Second))
	if m.Bounds().MaxQ != 2 {
		t.Errorf("bounds after boundary delete: %+v", m.Bounds())
	}
}

func TestMinimapTransform(t *testing.T) {
	d := paintedDoc(hc(0, 0), hc(4, 0), hc(0, 4))
	m := NewMinimap(300, 200)
	m.MaybeRender(d, epoch)

	b := d.Bounds()
	pad := d.HexSize() * 0.5
	wantScale := min(0.98*300/(b.MaxX-b.MinX+2*pad), 0.98*200/(b.MaxY-b.MinY+2*pad))
	if abs(m.Scale-wantScale) > 1e-12 {
		t.Errorf("scale = %v, want %v", m.Scale, wantScale)
	}
	if m.OffsetX != b.MinX-pad || m.OffsetY != b.MinY-pad {
		t.Errorf("offset = %v,%v", m.OffsetX, m.OffsetY)
	}
}

func TestMinimapNavigate(t *testing.T) {
	d := paintedDoc(hc(-5, 0), hc(5, 0), hc(0, 5), hc(0, -5))
	m := NewMinimap(160, 160)
	m.MaybeRender(d, epoch)

	layout := world.Layout{HexSize: d.HexSize(), Width: 800, Height: 600, View: world.Viewport{Scale: 2}}
	target := hc(3, -1)
	tx, ty := m.toSurface(target)
	if !m.Navigate(tx, ty, &layout.View) {
		t.Fatal("Navigate refused")
	}

	// The target hex is now under the canvas center.
	if got := layout.PixelToHex(400, 300); got != target {
		t.Errorf("center hex = %v, want %v", got, target)
	}
	r, ok := m.ViewportRect(layout)
	if !ok {
		t.Fatal("no viewport rect")
	}
	if cx, cy := r.X+r.W/2, r.Y+r.H/2; abs(cx-tx) > 1e-9 || abs(cy-ty) > 1e-9 {
		t.Errorf("indicator centered at %v,%v, want %v,%v", cx, cy, tx, ty)
	}

	empty := NewMinimap(160, 160)
	empty.MaybeRender(document.New(), epoch)
	v := world.IdentityViewport()
	if empty.Navigate(10, 10, &v) {
		t.Error("navigated on an empty minimap")
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func TestMainViewDrawsTiles(t *testing.T) {
	d := paintedDoc(hc(0, 0))
	p := NewPipeline(200, 200, 100, 100, nil)
	scene := NewScene(world.Layout{HexSize: d.HexSize(), View: world.IdentityViewport()})
	p.Commit(d, scene, epoch)

	got := color.NRGBAModel.Convert(p.MainFrame().Image().At(100, 100)).(color.NRGBA)
	want := opaque(mustHex(world.TerrainGrassland.Color()))
	if got != want {
		t.Errorf("center pixel = %v, want %v", got, want)
	}
	if p.Minimap.Renders() != 1 {
		t.Error("commit did not attempt the minimap")
	}
	if _, ok := p.Indicator(); !ok {
		t.Error("no indicator after commit")
	}

	data, err := p.MinimapFrame().PNG()
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil || img.Bounds().Dx() != 100 {
		t.Errorf("minimap png: %v %v", img.Bounds(), err)
	}
}

func TestTokenText(t *testing.T) {
	tests := []struct {
		label string
		size  float64
		want  string
	}{
		{"goblin", 0.5, "G"},
		{"", 0.5, ""},
		{"ab", 1, "AB"},
		{"Red Dragon Lord King", 1, "RDL"},
		{"wizard", 1, "WIZ"},
		{"A very long name", 2, "A very lon"},
		{"Short", 2, "Short"},
	}
	for _, tt := range tests {
		if got := TokenText(tt.label, tt.size); got != tt.want {
			t.Errorf("TokenText(%q, %v) = %q, want %q", tt.label, tt.size, got, tt.want)
		}
	}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestIconCache(t *testing.T) {
	body := pngBytes(t)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Write(body)
	}))
	defer srv.Close()

	icons, err := NewIconCache(srv.Client(), func(t world.Terrain) string {
		if t == world.TerrainWater {
			return srv.URL + "/missing.png"
		}
		return srv.URL + "/" + string(t) + ".png"
	})
	if err != nil {
		t.Fatal(err)
	}
	defer icons.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := icons.Load(context.Background(), world.TerrainForest); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	if n := hits.Load(); n != 1 {
		t.Errorf("forest fetched %d times", n)
	}
	img, ok := icons.Get(world.TerrainForest)
	if !ok || img.Bounds().Dx() != IconPixels {
		t.Errorf("forest icon = %v, %v", img, ok)
	}

	if _, err := icons.Load(context.Background(), world.TerrainWater); err == nil {
		t.Error("missing icon loaded")
	}
	if _, ok := icons.Get(world.TerrainWater); ok {
		t.Error("failed icon reported as loaded")
	}
	before := hits.Load()
	icons.Load(context.Background(), world.TerrainWater)
	if hits.Load() != before {
		t.Error("failed icon refetched")
	}
}
