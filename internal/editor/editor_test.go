package editor

import (
	"errors"
	"testing"
	"time"

	"github.com/talgya/hexworlds/internal/document"
	"github.com/talgya/hexworlds/internal/engine"
	"github.com/talgya/hexworlds/internal/persistence"
	"github.com/talgya/hexworlds/internal/world"
)

func hc(q, r int) world.HexCoord { return world.HexCoord{Q: q, R: r} }

type memStore struct {
	saves int
	rec   *persistence.MapRecord
	err   error
}

func (m *memStore) SaveMap(at time.Time, data []byte) error {
	if m.err != nil {
		return m.err
	}
	m.saves++
	m.rec = &persistence.MapRecord{ID: persistence.CurrentMapID, Timestamp: at.UnixMilli(), Data: string(data)}
	return nil
}

func (m *memStore) LoadMap() (*persistence.MapRecord, error) {
	if m.rec == nil {
		return nil, persistence.ErrNotFound
	}
	return m.rec, nil
}

type harness struct {
	clock   *engine.ManualClock
	eng     *engine.Engine
	s       *Session
	notices *NoticeBuffer
}

func newHarness(t *testing.T, store Store) *harness {
	t.Helper()
	clock := engine.NewManualClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	eng := engine.NewEngine(clock)
	notices := NewNoticeBuffer(16, nil)
	opts := Options{Width: 200, Height: 150, MinimapWidth: 100, MinimapHeight: 80}
	s := New(eng, store, notices, nil, opts)
	s.Start()
	return &harness{clock: clock, eng: eng, s: s, notices: notices}
}

// advance moves the clock forward and runs one frame.
func (h *harness) advance(d time.Duration) {
	h.eng.Step(h.clock.Advance(d))
}

// road commits a direct two-point path.
func (h *harness) road(t *testing.T, a, b world.HexCoord) {
	t.Helper()
	if err := h.s.SetMode(ModePath); err != nil {
		t.Fatal(err)
	}
	if err := h.s.SetRouting(document.RoutingDirect); err != nil {
		t.Fatal(err)
	}
	h.s.PathClick(a)
	h.s.PathClick(b)
	if _, ok := h.s.FinishPath(); !ok {
		t.Fatal("path not committed")
	}
}

func (h *harness) walker(c world.HexCoord) *document.Token {
	return h.s.CreateToken(c, document.TokenData{Name: "Scout", Attributes: document.Attributes{"pathfinding": true}})
}

func TestRouteTicks(t *testing.T) {
	h := newHarness(t, nil)
	h.road(t, hc(0, 0), hc(3, 0))
	tok := h.walker(hc(0, 0))

	if err := h.s.StartTokenRoute(tok.ID, hc(3, 0)); err != nil {
		t.Fatal(err)
	}
	if tok.Coord() != hc(1, 0) {
		t.Fatalf("first step not immediate: at %v", tok.Coord())
	}

	h.advance(499 * time.Millisecond)
	if tok.Coord() != hc(1, 0) {
		t.Fatalf("stepped early: at %v", tok.Coord())
	}
	h.advance(time.Millisecond)
	if tok.Coord() != hc(2, 0) {
		t.Fatalf("at %v after 500ms", tok.Coord())
	}
	h.advance(500 * time.Millisecond)
	h.advance(500 * time.Millisecond)
	if tok.Coord() != hc(3, 0) || tok.Routing() {
		t.Errorf("arrival: at %v routing=%v", tok.Coord(), tok.Routing())
	}
	if n := h.eng.Scheduler().Len(); n != 0 {
		t.Errorf("%d timers left after arrival", n)
	}
}

func TestRouteRestartReplacesChain(t *testing.T) {
	h := newHarness(t, nil)
	h.road(t, hc(0, 0), hc(6, 0))
	tok := h.walker(hc(0, 0))

	if err := h.s.StartTokenRoute(tok.ID, hc(6, 0)); err != nil {
		t.Fatal(err)
	}
	if err := h.s.StartTokenRoute(tok.ID, hc(6, 0)); err != nil {
		t.Fatal(err)
	}
	if tok.Coord() != hc(2, 0) {
		t.Fatalf("at %v after two immediate steps", tok.Coord())
	}

	h.advance(500 * time.Millisecond)
	if tok.Coord() != hc(3, 0) {
		t.Errorf("at %v; the old chain must not step", tok.Coord())
	}
	if n := h.eng.Scheduler().Len(); n != 1 {
		t.Errorf("%d timers, want only the current chain", n)
	}

	if err := h.s.StopTokenRoute(tok.ID); err != nil {
		t.Fatal(err)
	}
	h.advance(500 * time.Millisecond)
	if tok.Coord() != hc(3, 0) || tok.Routing() {
		t.Errorf("stopped token moved to %v", tok.Coord())
	}
}

func TestRouteSurvivesDeletion(t *testing.T) {
	h := newHarness(t, nil)
	h.road(t, hc(0, 0), hc(4, 0))
	tok := h.walker(hc(0, 0))
	if err := h.s.StartTokenRoute(tok.ID, hc(4, 0)); err != nil {
		t.Fatal(err)
	}

	h.s.DeleteToken(tok.ID)
	h.advance(500 * time.Millisecond)
	if n := h.eng.Scheduler().Len(); n != 0 {
		t.Errorf("%d timers after the token was deleted", n)
	}
	if h.s.Document().Counts().Tokens != 0 {
		t.Error("token resurrected")
	}
}

func TestRouteRejections(t *testing.T) {
	h := newHarness(t, nil)
	h.road(t, hc(0, 0), hc(3, 0))
	plain := h.s.CreateToken(hc(0, 0), document.TokenData{})
	lost := h.walker(hc(0, 12))

	tests := []struct {
		name string
		id   string
		want error
	}{
		{"no pathfinding", plain.ID, ErrNotRoutable},
		{"unknown token", "token_42", document.ErrNotFound},
		{"off network", lost.ID, nil},
	}
	for _, tt := range tests {
		err := h.s.StartTokenRoute(tt.id, hc(3, 0))
		if err == nil {
			t.Errorf("%s: route started", tt.name)
			continue
		}
		if tt.want != nil && !errors.Is(err, tt.want) {
			t.Errorf("%s: err = %v, want %v", tt.name, err, tt.want)
		}
	}

	notices := h.notices.Recent()
	if len(notices) != len(tests) {
		t.Fatalf("%d notices, want %d", len(notices), len(tests))
	}
	for _, n := range notices {
		if n.Level != LevelWarn {
			t.Errorf("notice %q level %s, want warn", n.Message, n.Level)
		}
	}
	if got := notices[2].Message; got != "Token is not near any path. Move it onto or next to a road." {
		t.Errorf("off network message = %q", got)
	}
}

func TestRouteSelectionClick(t *testing.T) {
	h := newHarness(t, nil)
	h.road(t, hc(0, 0), hc(3, 0))
	tok := h.walker(hc(0, 0))

	if err := h.s.BeginRouteSelection(tok.ID); err != nil {
		t.Fatal(err)
	}
	if _, _, routeFor := h.s.Pending(); routeFor != tok.ID {
		t.Fatalf("routeFor = %q", routeFor)
	}
	if err := h.s.Click(hc(3, 0)); err != nil {
		t.Fatal(err)
	}
	if !tok.Routing() || tok.Coord() != hc(1, 0) {
		t.Errorf("click did not start the route: at %v", tok.Coord())
	}
	if _, _, routeFor := h.s.Pending(); routeFor != "" {
		t.Error("destination selection still armed")
	}
}

func TestAutoSaveStatus(t *testing.T) {
	store := &memStore{}
	h := newHarness(t, store)
	h.s.PaintAt(hc(0, 0))

	if got := h.s.SaveStatus(); got != SaveIdle {
		t.Fatalf("status = %s before the first tick", got)
	}
	h.advance(3 * time.Second)
	if store.saves != 1 || h.s.SaveStatus() != SaveSaved {
		t.Fatalf("saves=%d status=%s", store.saves, h.s.SaveStatus())
	}
	if h.s.Document().Dirty.Unsaved {
		t.Error("still unsaved after a save")
	}

	h.advance(2 * time.Second)
	if got := h.s.SaveStatus(); got != SaveIdle {
		t.Errorf("status = %s after the linger", got)
	}

	h.advance(time.Second)
	if store.saves != 1 {
		t.Errorf("clean document saved again: %d saves", store.saves)
	}
	if got := h.s.Status().SaveLabel; got != "Saved 3 seconds ago" {
		t.Errorf("label = %q", got)
	}
}

func TestAutoSaveFailure(t *testing.T) {
	store := &memStore{err: errors.New("disk full")}
	h := newHarness(t, store)
	h.s.PaintAt(hc(0, 0))

	h.advance(3 * time.Second)
	if got := h.s.SaveStatus(); got != SaveError {
		t.Fatalf("status = %s, want error", got)
	}
	if !h.s.Document().Dirty.Unsaved {
		t.Error("failed save cleared Unsaved")
	}

	store.err = nil
	h.advance(3 * time.Second)
	if store.saves != 1 || h.s.SaveStatus() != SaveSaved {
		t.Errorf("retry: saves=%d status=%s", store.saves, h.s.SaveStatus())
	}
}

func TestRestore(t *testing.T) {
	store := &memStore{}
	src := newHarness(t, store)
	src.s.PaintAt(hc(1, 1))
	src.walker(hc(1, 1))
	src.s.Stop()
	if store.saves != 1 {
		t.Fatalf("Stop did not flush: %d saves", store.saves)
	}

	dst := newHarness(t, store)
	ok, err := dst.s.Restore()
	if err != nil || !ok {
		t.Fatalf("Restore = %v, %v", ok, err)
	}
	if c := dst.s.Document().Counts(); c.Hexes != 1 || c.Tokens != 1 {
		t.Errorf("counts = %+v", c)
	}
	if dst.s.Document().Dirty.Unsaved {
		t.Error("restored document marked unsaved")
	}
	if tok := dst.s.CreateToken(hc(0, 0), document.TokenData{}); tok.ID != "token_2" {
		t.Errorf("next id after restore = %s", tok.ID)
	}

	empty := newHarness(t, &memStore{})
	if ok, err := empty.s.Restore(); ok || err != nil {
		t.Errorf("empty store: %v, %v", ok, err)
	}
}

func TestEscape(t *testing.T) {
	h := newHarness(t, nil)
	h.road(t, hc(0, 0), hc(2, 0))
	path := h.s.Document().Paths()[0]
	if err := h.s.SelectPath(path.ID, true); err != nil {
		t.Fatal(err)
	}

	h.s.PathClick(hc(5, 5))
	h.s.BeginLandmarkPlacement(document.LandmarkData{Name: "Tower"})
	h.s.Escape()
	if _, ok := h.s.Document().Draft(); ok {
		t.Error("draft survived escape")
	}
	if _, landmark, _ := h.s.Pending(); landmark {
		t.Error("pending landmark survived escape")
	}
	if h.s.Scene().SelectedPath != path.ID {
		t.Error("first escape should keep the path selected")
	}

	h.s.Escape()
	if sc := h.s.Scene(); sc.SelectedPath != "" || sc.PathEditMode {
		t.Error("second escape did not deselect")
	}
}

func TestHoverPreviewIsNotDraft(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.s.SetMode(ModePath); err != nil {
		t.Fatal(err)
	}
	h.s.PathClick(hc(0, 0))
	h.s.Hover(hc(3, 0))

	if got := len(h.s.Scene().Preview); got != 4 {
		t.Errorf("preview = %v", h.s.Scene().Preview)
	}
	if d, _ := h.s.Document().Draft(); len(d.Points) != 1 {
		t.Errorf("hover changed the draft: %v", d.Points)
	}

	if err := h.s.SetMode(ModePaint); err != nil {
		t.Fatal(err)
	}
	if _, ok := h.s.Document().Draft(); ok {
		t.Error("switching tools kept the draft")
	}
	if got := len(h.s.Scene().Brush); got != 1 {
		t.Errorf("brush preview = %d hexes", got)
	}
}

func TestToolValidation(t *testing.T) {
	h := newHarness(t, nil)
	tests := []struct {
		name string
		run  func() error
	}{
		{"mode", func() error { return h.s.SetMode("lasso") }},
		{"terrain", func() error { return h.s.SetTerrain("lava") }},
		{"brush zero", func() error { return h.s.SetBrushSize(0) }},
		{"brush large", func() error { return h.s.SetBrushSize(MaxBrushSize + 1) }},
		{"routing", func() error { return h.s.SetRouting("teleport") }},
		{"zoom", func() error { return h.s.Zoom(0, 10, 10) }},
	}
	for _, tt := range tests {
		if err := tt.run(); err == nil {
			t.Errorf("%s: accepted", tt.name)
		}
	}
	if h.s.Mode() != ModePaint {
		t.Errorf("mode = %s", h.s.Mode())
	}
}

func TestBrushAndClearFill(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.s.SetBrushSize(2); err != nil {
		t.Fatal(err)
	}
	if err := h.s.SetTerrain(world.TerrainForest); err != nil {
		t.Fatal(err)
	}
	h.s.Click(hc(0, 0))
	if got := h.s.Document().Counts().Hexes; got != 7 {
		t.Fatalf("brush painted %d hexes", got)
	}

	h.s.SetFillMode(true)
	if err := h.s.SetTerrain(world.TerrainClear); err != nil {
		t.Fatal(err)
	}
	if n := h.s.FillAt(hc(1, 0)); n != 7 {
		t.Errorf("filled %d", n)
	}
	if got := h.s.Document().Counts().Hexes; got != 0 {
		t.Errorf("%d hexes after clear fill", got)
	}
}

func TestTokenPopIn(t *testing.T) {
	h := newHarness(t, nil)
	tok := h.s.CreateToken(hc(0, 0), document.TokenData{})
	if tok.Scale != 0 {
		t.Fatalf("new token scale = %v", tok.Scale)
	}

	h.advance(100 * time.Millisecond)
	if tok.Scale <= 0 || tok.Scale >= 1 {
		t.Errorf("mid-animation scale = %v", tok.Scale)
	}
	h.advance(200 * time.Millisecond)
	if tok.Scale != 1 || h.s.Animating() {
		t.Errorf("final scale = %v animating=%v", tok.Scale, h.s.Animating())
	}

	h.s.SelectToken(tok.ID)
	h.advance(100 * time.Millisecond)
	if tok.Scale != bounceScale {
		t.Errorf("bounce peak = %v", tok.Scale)
	}
	h.advance(100 * time.Millisecond)
	h.advance(100 * time.Millisecond)
	if tok.Scale != 1 {
		t.Errorf("bounce settled at %v", tok.Scale)
	}
}

func TestImportFailureKeepsMap(t *testing.T) {
	h := newHarness(t, nil)
	h.s.PaintAt(hc(0, 0))
	rev := h.s.Document().Dirty.Revision

	err := h.s.Import([]byte(`{"version": "1.2"}`))
	if !errors.Is(err, document.ErrInvalidFormat) {
		t.Fatalf("err = %v", err)
	}
	if h.s.Document().Counts().Hexes != 1 || h.s.Document().Dirty.Revision != rev {
		t.Error("failed import touched the map")
	}
	notices := h.notices.Recent()
	if len(notices) != 1 || notices[0].Message != "Invalid map file: no hexes found." {
		t.Errorf("notices = %+v", notices)
	}
}

func TestGenerateRestoresDraftSettings(t *testing.T) {
	h := newHarness(t, nil)
	before := h.s.Document().PathSettings()

	cfg := world.DefaultGenConfig()
	cfg.Seed = 7
	if err := h.s.Generate(cfg); err != nil {
		t.Fatal(err)
	}
	doc := h.s.Document()
	if doc.Counts().Hexes == 0 {
		t.Fatal("nothing generated")
	}
	for _, p := range doc.Paths() {
		if p.Type != document.PathRiver || p.Style != document.PathCurved {
			t.Errorf("generated path %s is %s/%s", p.ID, p.Type, p.Style)
		}
	}
	if got := doc.PathSettings(); got != before {
		t.Errorf("settings = %+v, want %+v", got, before)
	}

	cfg.Radius = 0
	if err := h.s.Generate(cfg); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("radius 0: err = %v", err)
	}
}

func TestSubscribe(t *testing.T) {
	h := newHarness(t, nil)
	var got []Status
	cancel := h.s.Subscribe(func(st Status) { got = append(got, st) })

	h.s.PaintAt(hc(0, 0))
	if len(got) != 1 || got[0].Counts.Hexes != 1 {
		t.Fatalf("updates = %+v", got)
	}
	cancel()
	h.s.PaintAt(hc(1, 0))
	if len(got) != 1 {
		t.Error("update after cancel")
	}
}
