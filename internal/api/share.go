package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

var errSharingDisabled = errors.New("sharing is disabled (no database)")

// handleShare stores a snapshot of the current map under a new id.
func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		respondError(w, http.StatusServiceUnavailable, errSharingDisabled.Error())
		return
	}
	var data []byte
	if !s.do(w, r, func() (err error) { data, err = s.Session.Export(); return err }) {
		return
	}
	id, err := s.DB.SaveShare(time.Now(), data)
	if err != nil {
		respondErr(w, err)
		return
	}
	s.record("share", id)
	respondJSON(w, http.StatusCreated, map[string]string{
		"id":  id,
		"url": strings.TrimSuffix(s.PublicURL, "/") + "/api/v1/share/" + id,
	})
}

// handleShareGet returns the shared world file.
func (s *Server) handleShareGet(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		respondError(w, http.StatusServiceUnavailable, errSharingDisabled.Error())
		return
	}
	rec, err := s.DB.LoadShare(chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Last-Modified", rec.Time().UTC().Format(http.TimeFormat))
	w.Write([]byte(rec.Data))
}

// handleShareLoad replaces the current map with a shared one.
func (s *Server) handleShareLoad(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		respondError(w, http.StatusServiceUnavailable, errSharingDisabled.Error())
		return
	}
	id := chi.URLParam(r, "id")
	rec, err := s.DB.LoadShare(id)
	if err != nil {
		respondErr(w, err)
		return
	}
	if !s.do(w, r, func() error { return s.Session.Import([]byte(rec.Data)) }) {
		return
	}
	s.record("share-load", id)
	s.handleStatus(w, r)
}
