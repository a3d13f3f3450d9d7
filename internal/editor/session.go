// Package editor is the interactive session around a document: tools,
// selection, animations, auto-save and rendering. Every Session method must
// run on the engine loop; the API reaches it through Engine.Do.
package editor

import (
	"errors"
	"log/slog"
	"time"

	"github.com/talgya/hexworlds/internal/document"
	"github.com/talgya/hexworlds/internal/engine"
	"github.com/talgya/hexworlds/internal/persistence"
	"github.com/talgya/hexworlds/internal/render"
	"github.com/talgya/hexworlds/internal/world"
)

// Mode is the active builder tool.
type Mode string

const (
	ModePaint    Mode = "paint"
	ModeErase    Mode = "erase"
	ModePath     Mode = "path"
	ModeToken    Mode = "token"
	ModeLandmark Mode = "landmark"
)

// Valid reports whether m is a known tool.
func (m Mode) Valid() bool {
	switch m {
	case ModePaint, ModeErase, ModePath, ModeToken, ModeLandmark:
		return true
	}
	return false
}

// ViewMode switches between editing and play.
type ViewMode string

const (
	ViewBuilder  ViewMode = "builder"
	ViewExplorer ViewMode = "explorer"
)

// MaxBrushSize bounds the brush diameter setting.
const MaxBrushSize = 10

// Store is the session's view of local persistence.
type Store interface {
	SaveMap(at time.Time, data []byte) error
	LoadMap() (*persistence.MapRecord, error)
}

// Options configure a session. Zero durations take the defaults.
type Options struct {
	Width, Height               int
	MinimapWidth, MinimapHeight int
	HexSize                     float64 // default 30

	AutoSaveInterval time.Duration // 3 s
	SavedLinger      time.Duration // 2 s before "saved" falls back to idle
	RouteTick        time.Duration // 500 ms
	ScaleDuration    time.Duration // 200 ms
	MinimapInterval  time.Duration // 33 ms between minimap redraws
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = 1280
	}
	if o.Height <= 0 {
		o.Height = 800
	}
	if o.AutoSaveInterval <= 0 {
		o.AutoSaveInterval = 3 * time.Second
	}
	if o.SavedLinger <= 0 {
		o.SavedLinger = 2 * time.Second
	}
	if o.RouteTick <= 0 {
		o.RouteTick = 500 * time.Millisecond
	}
	if o.ScaleDuration <= 0 {
		o.ScaleDuration = 200 * time.Millisecond
	}
	if o.MinimapInterval <= 0 {
		o.MinimapInterval = render.MinimapInterval
	}
	return o
}

// Session owns one document and everything needed to edit and show it.
type Session struct {
	doc      *document.Document
	eng      *engine.Engine
	pipeline *render.Pipeline
	scene    render.Scene
	store    Store
	notifier Notifier
	opts     Options

	mode      Mode
	viewMode  ViewMode
	brushSize int
	terrain   world.Terrain
	fill      bool
	routing   document.Routing

	pendingToken    *document.TokenData
	pendingLandmark *document.LandmarkData
	routeFor        string // token awaiting a route destination

	save       saveState
	autoSave   engine.TimerID
	animations map[string]*scaleAnimation

	listeners map[int]func(Status)
	nextSub   int
}

// New builds a session. store, notifier and icons may be nil.
func New(eng *engine.Engine, store Store, notifier Notifier, icons *render.IconCache, opts Options) *Session {
	opts = opts.withDefaults()
	if notifier == nil {
		notifier = LogNotifier{}
	}
	doc := document.NewWithHexSize(opts.HexSize)
	doc.SetClock(eng.Clock().Now)

	s := &Session{
		doc:        doc,
		eng:        eng,
		pipeline:   render.NewPipeline(opts.Width, opts.Height, opts.MinimapWidth, opts.MinimapHeight, icons),
		store:      store,
		notifier:   notifier,
		opts:       opts,
		mode:       ModePaint,
		viewMode:   ViewBuilder,
		brushSize:  1,
		terrain:    world.TerrainPlains,
		routing:    document.RoutingHex,
		animations: make(map[string]*scaleAnimation),
		listeners:  make(map[int]func(Status)),
	}
	s.pipeline.Minimap.Interval = opts.MinimapInterval
	s.scene = render.NewScene(s.layout())
	return s
}

// Start arms auto-save and frame callbacks. Call it on the loop, once.
func (s *Session) Start() {
	s.eng.OnFrame = s.frame
	if s.store != nil {
		s.autoSave = s.eng.Scheduler().Every(s.opts.AutoSaveInterval, s.autoSaveTick)
	}
	s.commit()
}

// Stop disarms auto-save and flushes unsaved changes.
func (s *Session) Stop() {
	s.eng.Scheduler().Cancel(s.autoSave)
	if s.store != nil && s.doc.Dirty.Unsaved {
		s.saveNow()
	}
}

// Redraw repaints the main view without changing the document, e.g. once
// terrain icons have loaded.
func (s *Session) Redraw() {
	s.pipeline.Commit(s.doc, s.scene, s.now())
}

// Document exposes the document for read access on the loop.
func (s *Session) Document() *document.Document { return s.doc }

// Pipeline exposes the renderer.
func (s *Session) Pipeline() *render.Pipeline { return s.pipeline }

// Scene returns the current view state.
func (s *Session) Scene() render.Scene { return s.scene }

func (s *Session) now() time.Time { return s.eng.Clock().Now() }

func (s *Session) layout() world.Layout {
	return world.Layout{
		HexSize: s.doc.HexSize(),
		Width:   s.opts.Width,
		Height:  s.opts.Height,
		View:    s.doc.View,
	}
}

// commit runs after every input: the document has changed, so redraw the
// main view, refresh the indicator, try the minimap and tell subscribers.
func (s *Session) commit() {
	s.scene.Layout = s.layout()
	s.pipeline.Commit(s.doc, s.scene, s.now())
	s.publish()
}

func (s *Session) frame(now time.Time) {
	changed := s.stepAnimations(now)
	if changed {
		s.commit()
		return
	}
	s.pipeline.Tick(s.doc, s.scene, now)
}

// fail reports err to the user and returns it. Validation and domain errors
// end up here rather than escaping as panics.
func (s *Session) fail(op string, err error) error {
	level := LevelWarn
	if !isUserError(err) {
		level = LevelError
		slog.Error("editor operation failed", "op", op, "error", err)
	}
	s.notifier.Notify(Notice{Level: level, Message: userMessage(err), At: s.now()})
	return err
}

// Status is the session summary published after every commit.
type Status struct {
	Revision   uint64          `json:"revision"`
	Counts     document.Counts `json:"counts"`
	Unsaved    bool            `json:"unsaved"`
	SaveStatus SaveStatus      `json:"saveStatus"`
	SaveLabel  string          `json:"saveLabel"`
	LastSaved  *time.Time      `json:"lastSaved,omitempty"`
	Viewport   world.Viewport  `json:"viewport"`
	Mode       Mode            `json:"mode"`
	ViewMode   ViewMode        `json:"viewMode"`
	Terrain    world.Terrain   `json:"terrain"`
	BrushSize  int             `json:"brushSize"`
	DraftLen   int             `json:"draftPoints"`
	Routing    int             `json:"routingTokens"`
}

// Status returns the current summary.
func (s *Session) Status() Status {
	st := Status{
		Revision:   s.doc.Dirty.Revision,
		Counts:     s.doc.Counts(),
		Unsaved:    s.doc.Dirty.Unsaved,
		SaveStatus: s.SaveStatus(),
		SaveLabel:  s.save.label(s.now()),
		Viewport:   s.doc.View,
		Mode:       s.mode,
		ViewMode:   s.viewMode,
		Terrain:    s.terrain,
		BrushSize:  s.brushSize,
		Routing:    len(s.doc.RoutingTokens()),
	}
	if !s.save.last.IsZero() {
		last := s.save.last
		st.LastSaved = &last
	}
	if d, ok := s.doc.Draft(); ok {
		st.DraftLen = len(d.Points)
	}
	return st
}

// Subscribe registers fn for status updates; fn runs on the loop and must
// not block. The returned func unsubscribes.
func (s *Session) Subscribe(fn func(Status)) (cancel func()) {
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	return func() { delete(s.listeners, id) }
}

func (s *Session) publish() {
	if len(s.listeners) == 0 {
		return
	}
	st := s.Status()
	for _, fn := range s.listeners {
		fn(st)
	}
}

// ErrInvalidArgument marks a rejected tool parameter.
var ErrInvalidArgument = errors.New("invalid argument")
