package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/talgya/hexworlds/internal/document"
	"github.com/talgya/hexworlds/internal/editor"
	"github.com/talgya/hexworlds/internal/entropy"
	"github.com/talgya/hexworlds/internal/world"
)

type coordBody struct {
	Q int `json:"q"`
	R int `json:"r"`
}

func (c coordBody) hex() world.HexCoord { return world.HexCoord{Q: c.Q, R: c.R} }

// ── Map ──────────────────────────────────────────────────────────────────

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		respondErr(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	var counts document.Counts
	if !s.do(w, r, func() error {
		if err := s.Session.Import(data); err != nil {
			return err
		}
		counts = s.Session.Document().Counts()
		return nil
	}) {
		return
	}
	s.record("import", fmt.Sprintf("%d hexes, %d tokens, %d paths", counts.Hexes, counts.Tokens, counts.Paths))
	respondJSON(w, http.StatusOK, map[string]any{"counts": counts})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if !s.do(w, r, func() error { s.Session.Clear(); return nil }) {
		return
	}
	s.record("clear", "")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStarter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Seed *int64 `json:"seed"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondErr(w, err)
		return
	}
	var seed int64
	if req.Seed != nil {
		seed = *req.Seed
	}
	seed = entropy.SeedOr(seed)
	if !s.do(w, r, func() error { s.Session.LoadStarter(seed); return nil }) {
		return
	}
	s.record("starter", fmt.Sprintf("seed %d", seed))
	s.handleStatus(w, r)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Radius        *int     `json:"radius"`
		Seed          *int64   `json:"seed"`
		SeaLevel      *float64 `json:"seaLevel"`
		MountainLevel *float64 `json:"mountainLevel"`
		Rivers        *int     `json:"rivers"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondErr(w, err)
		return
	}
	cfg := world.DefaultGenConfig()
	if req.Radius != nil {
		cfg.Radius = *req.Radius
	}
	if req.Seed != nil {
		cfg.Seed = *req.Seed
	}
	if req.SeaLevel != nil {
		cfg.SeaLevel = *req.SeaLevel
	}
	if req.MountainLevel != nil {
		cfg.MountainLvl = *req.MountainLevel
	}
	if req.Rivers != nil {
		cfg.Rivers = *req.Rivers
	}
	cfg.Seed = entropy.SeedOr(cfg.Seed)
	if !s.do(w, r, func() error { return s.Session.Generate(cfg) }) {
		return
	}
	s.record("generate", fmt.Sprintf("radius %d seed %d", cfg.Radius, cfg.Seed))
	s.handleStatus(w, r)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if !s.do(w, r, s.Session.Save) {
		return
	}
	s.handleStatus(w, r)
}

// ── Tools ────────────────────────────────────────────────────────────────

type toolRequest struct {
	Mode     *editor.Mode      `json:"mode"`
	ViewMode *editor.ViewMode  `json:"viewMode"`
	Terrain  *world.Terrain    `json:"terrain"`
	Brush    *int              `json:"brush"`
	Fill     *bool             `json:"fill"`
	Routing  *document.Routing `json:"routing"`
}

// apply sets the given fields, stopping at the first rejected one.
func (t toolRequest) apply(s *editor.Session) error {
	if t.Mode != nil {
		if err := s.SetMode(*t.Mode); err != nil {
			return err
		}
	}
	if t.ViewMode != nil {
		if err := s.SetViewMode(*t.ViewMode); err != nil {
			return err
		}
	}
	if t.Terrain != nil {
		if err := s.SetTerrain(*t.Terrain); err != nil {
			return err
		}
	}
	if t.Brush != nil {
		if err := s.SetBrushSize(*t.Brush); err != nil {
			return err
		}
	}
	if t.Fill != nil {
		s.SetFillMode(*t.Fill)
	}
	if t.Routing != nil {
		if err := s.SetRouting(*t.Routing); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) handleTool(w http.ResponseWriter, r *http.Request) {
	var req toolRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondErr(w, err)
		return
	}
	if !s.do(w, r, func() error { return req.apply(s.Session) }) {
		return
	}
	s.handleStatus(w, r)
}

// hexAction parses {q}/{r} and runs fn on the loop, then answers with the
// status.
func (s *Server) hexAction(w http.ResponseWriter, r *http.Request, fn func(world.HexCoord) error) {
	c, err := hexParam(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	if !s.do(w, r, func() error { return fn(c) }) {
		return
	}
	s.handleStatus(w, r)
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	s.hexAction(w, r, s.Session.Click)
}

// handlePaint paints with the brush. Optional terrain and brush fields
// update the tool first.
func (s *Server) handlePaint(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Terrain *world.Terrain `json:"terrain"`
		Brush   *int           `json:"brush"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondErr(w, err)
		return
	}
	s.hexAction(w, r, func(c world.HexCoord) error {
		if err := (toolRequest{Terrain: req.Terrain, Brush: req.Brush}).apply(s.Session); err != nil {
			return err
		}
		s.Session.PaintAt(c)
		return nil
	})
}

func (s *Server) handleDeleteHex(w http.ResponseWriter, r *http.Request) {
	s.hexAction(w, r, func(c world.HexCoord) error {
		s.Session.DeleteHex(c)
		return nil
	})
}

func (s *Server) handleHexDetails(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondErr(w, err)
		return
	}
	s.hexAction(w, r, func(c world.HexCoord) error {
		return s.Session.SetHexDetails(c, req.Name, req.Description)
	})
}

func (s *Server) handleFill(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Terrain *world.Terrain `json:"terrain"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondErr(w, err)
		return
	}
	c, err := hexParam(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	var filled int
	if !s.do(w, r, func() error {
		if err := (toolRequest{Terrain: req.Terrain}).apply(s.Session); err != nil {
			return err
		}
		filled = s.Session.FillAt(c)
		return nil
	}) {
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"filled": filled, "capped": filled >= document.MaxFloodFill})
}

func (s *Server) handleHover(w http.ResponseWriter, r *http.Request) {
	c, err := hexParam(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	var preview, brush []world.HexCoord
	if !s.do(w, r, func() error {
		s.Session.Hover(c)
		sc := s.Session.Scene()
		preview, brush = sc.Preview, sc.Brush
		return nil
	}) {
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"preview": orEmpty(preview), "brush": orEmpty(brush)})
}

func (s *Server) handleClearHover(w http.ResponseWriter, r *http.Request) {
	if s.do(w, r, func() error { s.Session.ClearHover(); return nil }) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleEscape(w http.ResponseWriter, r *http.Request) {
	if !s.do(w, r, func() error { s.Session.Escape(); return nil }) {
		return
	}
	s.handleStatus(w, r)
}

// ── Tokens ───────────────────────────────────────────────────────────────

func (s *Server) handleCreateToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		coordBody
		document.TokenData
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondErr(w, err)
		return
	}
	var tok document.Token
	if !s.do(w, r, func() error {
		tok = *s.Session.CreateToken(req.hex(), req.TokenData)
		return nil
	}) {
		return
	}
	respondJSON(w, http.StatusCreated, tok)
}

func (s *Server) handleUpdateToken(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		document.TokenPatch
		Attributes *json.RawMessage `json:"attributes"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondErr(w, err)
		return
	}
	var tok document.Token
	if !s.do(w, r, func() error {
		if req.Attributes != nil {
			if err := s.Session.SetTokenAttributes(id, string(*req.Attributes)); err != nil {
				return err
			}
		}
		if err := s.Session.UpdateToken(id, req.TokenPatch); err != nil {
			return err
		}
		t, _ := s.Session.Document().Token(id)
		tok = *t
		return nil
	}) {
		return
	}
	respondJSON(w, http.StatusOK, tok)
}

func (s *Server) handleDeleteToken(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if s.do(w, r, func() error { s.Session.DeleteToken(id); return nil }) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleMoveToken(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req coordBody
	if err := decodeJSON(w, r, &req); err != nil {
		respondErr(w, err)
		return
	}
	if s.do(w, r, func() error { return s.Session.MoveToken(id, req.hex()) }) {
		s.handleToken(w, r)
	}
}

func (s *Server) handleStartRoute(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req coordBody
	if err := decodeJSON(w, r, &req); err != nil {
		respondErr(w, err)
		return
	}
	if s.do(w, r, func() error { return s.Session.StartTokenRoute(id, req.hex()) }) {
		s.handleToken(w, r)
	}
}

func (s *Server) handleStopRoute(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if s.do(w, r, func() error { return s.Session.StopTokenRoute(id) }) {
		s.handleToken(w, r)
	}
}

// ── Landmarks ────────────────────────────────────────────────────────────

func (s *Server) handleCreateLandmark(w http.ResponseWriter, r *http.Request) {
	var req struct {
		coordBody
		document.LandmarkData
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondErr(w, err)
		return
	}
	var l document.Landmark
	if !s.do(w, r, func() error {
		created, err := s.Session.CreateLandmark(req.hex(), req.LandmarkData)
		if err != nil {
			return err
		}
		l = *created
		return nil
	}) {
		return
	}
	respondJSON(w, http.StatusCreated, l)
}

func (s *Server) handleUpdateLandmark(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		document.LandmarkPatch
		Attributes *json.RawMessage `json:"attributes"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondErr(w, err)
		return
	}
	var l document.Landmark
	if !s.do(w, r, func() error {
		if req.Attributes != nil {
			if err := s.Session.SetLandmarkAttributes(id, string(*req.Attributes)); err != nil {
				return err
			}
		}
		if err := s.Session.UpdateLandmark(id, req.LandmarkPatch); err != nil {
			return err
		}
		got, _ := s.Session.Document().LandmarkByID(id)
		l = *got
		return nil
	}) {
		return
	}
	respondJSON(w, http.StatusOK, l)
}

func (s *Server) handleDeleteLandmark(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if s.do(w, r, func() error { s.Session.DeleteLandmark(id); return nil }) {
		w.WriteHeader(http.StatusNoContent)
	}
}

// ── Paths ────────────────────────────────────────────────────────────────

func (s *Server) handleDraftPoint(w http.ResponseWriter, r *http.Request) {
	var req coordBody
	if err := decodeJSON(w, r, &req); err != nil {
		respondErr(w, err)
		return
	}
	if s.do(w, r, func() error { s.Session.PathClick(req.hex()); return nil }) {
		s.handleDraft(w, r)
	}
}

func (s *Server) handleFinishDraft(w http.ResponseWriter, r *http.Request) {
	var path document.Path
	var committed bool
	if !s.do(w, r, func() error {
		p, ok := s.Session.FinishPath()
		if ok {
			path, committed = copyPath(p), true
		}
		return nil
	}) {
		return
	}
	if !committed {
		respondJSON(w, http.StatusOK, map[string]any{"committed": false})
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"committed": true, "path": path})
}

func (s *Server) handleCancelDraft(w http.ResponseWriter, r *http.Request) {
	if s.do(w, r, func() error { s.Session.CancelPath(); return nil }) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handlePathSettings(w http.ResponseWriter, r *http.Request) {
	var req document.PathSettings
	if err := decodeJSON(w, r, &req); err != nil {
		respondErr(w, err)
		return
	}
	if s.do(w, r, func() error { return s.Session.SetPathSettings(req) }) {
		s.handlePaths(w, r)
	}
}

// pathResult answers with the current state of path id.
func (s *Server) pathResult(w http.ResponseWriter, r *http.Request, status int, id string) {
	var path document.Path
	if !s.do(w, r, func() error {
		p, ok := s.Session.Document().Path(id)
		if !ok {
			return fmt.Errorf("path %s: %w", id, document.ErrNotFound)
		}
		path = copyPath(p)
		return nil
	}) {
		return
	}
	respondJSON(w, status, path)
}

func (s *Server) handleUpdatePath(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req document.PathPatch
	if err := decodeJSON(w, r, &req); err != nil {
		respondErr(w, err)
		return
	}
	if s.do(w, r, func() error { return s.Session.UpdatePath(id, req) }) {
		s.pathResult(w, r, http.StatusOK, id)
	}
}

func (s *Server) handleDeletePath(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if s.do(w, r, func() error { s.Session.DeletePath(id); return nil }) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleSplitPath(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	i, err := indexParam(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	var branch string
	if s.do(w, r, func() error {
		p, err := s.Session.SplitPath(id, i)
		if err != nil {
			return err
		}
		branch = p.ID
		return nil
	}) {
		s.pathResult(w, r, http.StatusCreated, branch)
	}
}

func (s *Server) handleInsertPoint(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	i, err := indexParam(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	if s.do(w, r, func() error { _, err := s.Session.InsertPointAfter(id, i); return err }) {
		s.pathResult(w, r, http.StatusOK, id)
	}
}

func (s *Server) handleMovePoint(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	i, err := indexParam(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	var req coordBody
	if err := decodeJSON(w, r, &req); err != nil {
		respondErr(w, err)
		return
	}
	if s.do(w, r, func() error { return s.Session.MovePathPoint(id, i, req.hex()) }) {
		s.pathResult(w, r, http.StatusOK, id)
	}
}

func (s *Server) handleDeletePoint(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	i, err := indexParam(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	if s.do(w, r, func() error { return s.Session.DeletePathPoint(id, i) }) {
		s.pathResult(w, r, http.StatusOK, id)
	}
}

// ── View ─────────────────────────────────────────────────────────────────

func (s *Server) handleViewport(w http.ResponseWriter, r *http.Request) {
	var req world.Viewport
	if err := decodeJSON(w, r, &req); err != nil {
		respondErr(w, err)
		return
	}
	if s.do(w, r, func() error { s.Session.SetViewport(req); return nil }) {
		s.handleStatus(w, r)
	}
}

func (s *Server) handlePan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DX float64 `json:"dx"`
		DY float64 `json:"dy"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondErr(w, err)
		return
	}
	if s.do(w, r, func() error { s.Session.Pan(req.DX, req.DY); return nil }) {
		s.handleStatus(w, r)
	}
}

func (s *Server) handleZoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Factor float64 `json:"factor"`
		X      float64 `json:"x"`
		Y      float64 `json:"y"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondErr(w, err)
		return
	}
	if s.do(w, r, func() error { return s.Session.Zoom(req.Factor, req.X, req.Y) }) {
		s.handleStatus(w, r)
	}
}

func (s *Server) handleMinimapNavigate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondErr(w, err)
		return
	}
	var moved bool
	if !s.do(w, r, func() error { moved = s.Session.MinimapNavigate(req.X, req.Y); return nil }) {
		return
	}
	if !moved {
		respondError(w, http.StatusConflict, "minimap has not been drawn yet")
		return
	}
	s.handleStatus(w, r)
}
