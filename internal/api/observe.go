package api

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/talgya/hexworlds/internal/document"
	"github.com/talgya/hexworlds/internal/editor"
	"github.com/talgya/hexworlds/internal/persistence"
	"github.com/talgya/hexworlds/internal/render"
	"github.com/talgya/hexworlds/internal/world"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var st editor.Status
	if !s.do(w, r, func() error { st = s.Session.Status(); return nil }) {
		return
	}
	respondJSON(w, http.StatusOK, st)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var data []byte
	if !s.do(w, r, func() (err error) { data, err = s.Session.Export(); return err }) {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if r.URL.Query().Has("download") {
		name := fmt.Sprintf("hexworld_%s.json", time.Now().Format("2006-01-02"))
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	}
	w.Write(data)
}

func (s *Server) handleTokens(w http.ResponseWriter, r *http.Request) {
	var tokens []document.Token
	ok := s.do(w, r, func() error {
		for _, t := range s.Session.Document().Tokens() {
			tokens = append(tokens, *t)
		}
		return nil
	})
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"tokens": orEmpty(tokens)})
}

// tokenView adds the animation state hidden from the world file.
type tokenView struct {
	document.Token
	Routing     bool            `json:"routing"`
	Destination *world.HexCoord `json:"destination,omitempty"`
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var view tokenView
	ok := s.do(w, r, func() error {
		t, found := s.Session.Document().Token(id)
		if !found {
			return fmt.Errorf("token %s: %w", id, document.ErrNotFound)
		}
		view = tokenView{Token: *t, Routing: t.Routing()}
		if dest, routing := t.Destination(); routing {
			view.Destination = &dest
		}
		return nil
	})
	if ok {
		respondJSON(w, http.StatusOK, view)
	}
}

func (s *Server) handleLandmarks(w http.ResponseWriter, r *http.Request) {
	var landmarks []document.Landmark
	ok := s.do(w, r, func() error {
		for _, l := range s.Session.Document().Landmarks() {
			landmarks = append(landmarks, *l)
		}
		return nil
	})
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"landmarks": orEmpty(landmarks)})
}

func (s *Server) handlePaths(w http.ResponseWriter, r *http.Request) {
	var paths []document.Path
	var settings document.PathSettings
	ok := s.do(w, r, func() error {
		for _, p := range s.Session.Document().Paths() {
			paths = append(paths, copyPath(p))
		}
		settings = s.Session.Document().PathSettings()
		return nil
	})
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"paths": orEmpty(paths), "settings": settings})
}

func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	var draft *document.Path
	ok := s.do(w, r, func() error {
		if d, ok := s.Session.Document().Draft(); ok {
			cp := copyPath(d)
			draft = &cp
		}
		return nil
	})
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"draft": draft})
}

func (s *Server) handleHex(w http.ResponseWriter, r *http.Request) {
	c, err := hexParam(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	var out map[string]any
	ok := s.do(w, r, func() error {
		doc := s.Session.Document()
		h, found := doc.Hex(c)
		if !found {
			return fmt.Errorf("hex %s: %w", c.Key(), document.ErrNotFound)
		}
		var tokens []document.Token
		for _, t := range doc.TokensAt(c) {
			tokens = append(tokens, *t)
		}
		out = map[string]any{"hex": *h, "tokens": orEmpty(tokens)}
		if l, has := doc.Landmark(c); has {
			out["landmark"] = *l
		}
		return nil
	})
	if ok {
		respondJSON(w, http.StatusOK, out)
	}
}

func (s *Server) handleRenderMain(w http.ResponseWriter, r *http.Request) {
	s.renderFrame(w, r, func() *render.Frame { return s.Session.Pipeline().MainFrame() })
}

func (s *Server) handleRenderMinimap(w http.ResponseWriter, r *http.Request) {
	s.renderFrame(w, r, func() *render.Frame { return s.Session.Pipeline().MinimapFrame() })
}

// renderFrame encodes on the loop since the surfaces belong to it.
func (s *Server) renderFrame(w http.ResponseWriter, r *http.Request, frame func() *render.Frame) {
	var png []byte
	ok := s.do(w, r, func() (err error) {
		f := frame()
		if f == nil {
			return fmt.Errorf("surface hidden: %w", document.ErrNotFound)
		}
		png, err = f.PNG()
		return err
	})
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(png)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		respondJSON(w, http.StatusOK, map[string]any{"events": []persistence.Event{}})
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, 500)
	}
	events, err := s.DB.RecentEvents(limit)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"events": orEmpty(events)})
}

func (s *Server) handleNotices(w http.ResponseWriter, r *http.Request) {
	var notices []editor.Notice
	if s.Notices != nil {
		notices = s.Notices.Recent()
	}
	respondJSON(w, http.StatusOK, map[string]any{"notices": orEmpty(notices)})
}

// copyPath detaches the points, which the loop edits in place, so the copy
// can be encoded off the loop.
func copyPath(p *document.Path) document.Path {
	cp := *p
	cp.Points = slices.Clone(p.Points)
	return cp
}

// orEmpty keeps nil slices from encoding as null.
func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
