// Package api serves the editor session over HTTP.
// GET endpoints observe; everything else edits the map. Every session call
// is marshalled onto the engine loop with Engine.Do.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/talgya/hexworlds/internal/document"
	"github.com/talgya/hexworlds/internal/editor"
	"github.com/talgya/hexworlds/internal/engine"
	"github.com/talgya/hexworlds/internal/persistence"
	"github.com/talgya/hexworlds/internal/routing"
	"github.com/talgya/hexworlds/internal/world"
)

// Request body limits.
const (
	maxBodyBytes   = 1 << 20
	maxImportBytes = 16 << 20
)

// Server serves one editor session.
type Server struct {
	Session   *editor.Session
	Eng       *engine.Engine
	DB        *persistence.DB      // shares and the activity log; nil disables both
	Notices   *editor.NoticeBuffer // nil disables GET /notices
	Addr      string
	PublicURL string   // base for share links
	Origins   []string // CORS allow-list
	AdminKey  string   // bearer token for edits; empty leaves them open
	RateLimit int      // imports and shares per IP per minute

	hub *Hub
}

// Handler builds the router. It subscribes the websocket hub to the
// session, so call it once.
func (s *Server) Handler() http.Handler {
	s.hub = NewHub()
	s.Eng.Post(func() {
		s.Session.Subscribe(s.hub.Broadcast)
	})

	limiter := NewRateLimiter(max(s.RateLimit, 1), time.Minute)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(s.Origins))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/map", s.handleExport)
		r.Get("/tokens", s.handleTokens)
		r.Get("/tokens/{id}", s.handleToken)
		r.Get("/landmarks", s.handleLandmarks)
		r.Get("/paths", s.handlePaths)
		r.Get("/draft", s.handleDraft)
		r.Get("/hex/{q}/{r}", s.handleHex)
		r.Get("/render/main.png", s.handleRenderMain)
		r.Get("/render/minimap.png", s.handleRenderMinimap)
		r.Get("/share/{id}", s.handleShareGet)
		r.Get("/events", s.handleEvents)
		r.Get("/notices", s.handleNotices)
		r.Get("/ws", s.hub.ServeWS)

		r.Group(func(r chi.Router) {
			r.Use(s.adminOnly)

			r.With(RateLimitMiddleware(limiter)).Put("/map", s.handleImport)
			r.Delete("/map", s.handleClear)
			r.Post("/map/starter", s.handleStarter)
			r.Post("/map/generate", s.handleGenerate)
			r.Post("/save", s.handleSave)

			r.Put("/tool", s.handleTool)
			r.Post("/click/{q}/{r}", s.handleClick)
			r.Put("/hex/{q}/{r}", s.handlePaint)
			r.Delete("/hex/{q}/{r}", s.handleDeleteHex)
			r.Patch("/hex/{q}/{r}", s.handleHexDetails)
			r.Post("/fill/{q}/{r}", s.handleFill)
			r.Post("/hover/{q}/{r}", s.handleHover)
			r.Delete("/hover", s.handleClearHover)

			r.Post("/tokens", s.handleCreateToken)
			r.Patch("/tokens/{id}", s.handleUpdateToken)
			r.Delete("/tokens/{id}", s.handleDeleteToken)
			r.Put("/tokens/{id}/position", s.handleMoveToken)
			r.Post("/tokens/{id}/route", s.handleStartRoute)
			r.Delete("/tokens/{id}/route", s.handleStopRoute)

			r.Post("/landmarks", s.handleCreateLandmark)
			r.Patch("/landmarks/{id}", s.handleUpdateLandmark)
			r.Delete("/landmarks/{id}", s.handleDeleteLandmark)

			r.Post("/draft/points", s.handleDraftPoint)
			r.Post("/draft/finish", s.handleFinishDraft)
			r.Delete("/draft", s.handleCancelDraft)
			r.Put("/paths/settings", s.handlePathSettings)
			r.Patch("/paths/{id}", s.handleUpdatePath)
			r.Delete("/paths/{id}", s.handleDeletePath)
			r.Post("/paths/{id}/split/{i}", s.handleSplitPath)
			r.Post("/paths/{id}/insert/{i}", s.handleInsertPoint)
			r.Put("/paths/{id}/points/{i}", s.handleMovePoint)
			r.Delete("/paths/{id}/points/{i}", s.handleDeletePoint)

			r.Post("/escape", s.handleEscape)
			r.Put("/viewport", s.handleViewport)
			r.Post("/viewport/pan", s.handlePan)
			r.Post("/viewport/zoom", s.handleZoom)
			r.Post("/minimap/navigate", s.handleMinimapNavigate)

			r.With(RateLimitMiddleware(limiter)).Post("/share", s.handleShare)
			r.Post("/share/{id}/load", s.handleShareLoad)
		})
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", s.Addr, "admin_auth", s.AdminKey != "")

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// corsMiddleware adds CORS headers for allowed frontend origins. "*"
// allows any origin.
func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			allowed[o] = true
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowed[origin] || allowed["*"]) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				w.Header().Add("Vary", "Origin")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey != "" {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != s.AdminKey {
				respondError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// do runs fn on the engine loop and writes the error response if it fails.
// It reports whether the handler should go on.
func (s *Server) do(w http.ResponseWriter, r *http.Request, fn func() error) bool {
	var err error
	if doErr := s.Eng.Do(r.Context(), func() { err = fn() }); doErr != nil {
		err = doErr
	}
	if err != nil {
		respondErr(w, err)
		return false
	}
	return true
}

// record appends to the activity log. Failures are logged and ignored.
func (s *Server) record(kind, detail string) {
	if s.DB == nil {
		return
	}
	ev := persistence.Event{At: time.Now().UnixMilli(), Kind: kind, Detail: detail}
	if err := s.DB.AppendEvents([]persistence.Event{ev}); err != nil {
		slog.Warn("event log write failed", "kind", kind, "error", err)
	}
}

// errBadRequest marks malformed requests.
var errBadRequest = errors.New("bad request")

// statusFor maps domain errors to HTTP statuses.
func statusFor(err error) int {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return http.StatusBadRequest
	case errors.Is(err, errBadRequest),
		errors.Is(err, editor.ErrInvalidArgument),
		errors.Is(err, document.ErrInvalidAttributes),
		errors.Is(err, document.ErrIconRequired),
		errors.Is(err, document.ErrTooFewPoints),
		errors.Is(err, document.ErrInvalidIndex),
		errors.Is(err, document.ErrInvalidTerrain),
		errors.Is(err, document.ErrInvalidFormat):
		return http.StatusBadRequest
	case errors.Is(err, document.ErrNotFound), errors.Is(err, persistence.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, document.ErrDuplicateLandmark):
		return http.StatusConflict
	case errors.Is(err, editor.ErrNotRoutable),
		errors.Is(err, routing.ErrTokenOffNetwork),
		errors.Is(err, routing.ErrDestinationOffNetwork),
		errors.Is(err, routing.ErrNoRouteFound):
		return http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func respondErr(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
	}
	respondError(w, status, err.Error())
}

// respondJSON writes a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("encode response", "error", err)
	}
}

// respondError writes an error JSON response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads a JSON body into v. An empty body leaves v alone.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// hexParam reads the {q} and {r} path parameters.
func hexParam(r *http.Request) (world.HexCoord, error) {
	q, err := strconv.Atoi(chi.URLParam(r, "q"))
	if err != nil {
		return world.HexCoord{}, fmt.Errorf("%w: invalid q coordinate", errBadRequest)
	}
	rr, err := strconv.Atoi(chi.URLParam(r, "r"))
	if err != nil {
		return world.HexCoord{}, fmt.Errorf("%w: invalid r coordinate", errBadRequest)
	}
	return world.HexCoord{Q: q, R: rr}, nil
}

// indexParam reads the {i} path parameter.
func indexParam(r *http.Request) (int, error) {
	i, err := strconv.Atoi(chi.URLParam(r, "i"))
	if err != nil {
		return 0, fmt.Errorf("%w: invalid point index", errBadRequest)
	}
	return i, nil
}
