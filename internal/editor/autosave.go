package editor

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/hexworlds/internal/engine"
	"github.com/talgya/hexworlds/internal/persistence"
)

// SaveStatus is the auto-save indicator state.
type SaveStatus string

const (
	SaveIdle   SaveStatus = "idle"
	SaveSaving SaveStatus = "saving"
	SaveSaved  SaveStatus = "saved"
	SaveError  SaveStatus = "error"
)

type saveState struct {
	status SaveStatus
	last   time.Time
	err    error
	linger engine.TimerID
}

// label renders the indicator text.
func (st saveState) label(now time.Time) string {
	switch st.status {
	case SaveSaving:
		return "Saving..."
	case SaveSaved:
		return "Saved"
	case SaveError:
		return "Save failed"
	}
	if st.last.IsZero() {
		return "Not saved yet"
	}
	return "Saved " + humanize.RelTime(st.last, now, "ago", "from now")
}

// SaveStatus returns the indicator state.
func (s *Session) SaveStatus() SaveStatus {
	if s.save.status == "" {
		return SaveIdle
	}
	return s.save.status
}

// autoSaveTick runs on the auto-save interval.
func (s *Session) autoSaveTick(time.Time) {
	if s.doc.Dirty.Unsaved {
		s.saveNow()
	}
}

// Save writes the current map immediately.
func (s *Session) Save() error {
	if s.store == nil {
		return errors.New("no store configured")
	}
	return s.saveNow()
}

// saveNow writes the currentMap record. A failure is logged and shown on
// the indicator; the session carries on with Unsaved still set.
func (s *Session) saveNow() error {
	sched := s.eng.Scheduler()
	sched.Cancel(s.save.linger)
	s.save.status = SaveSaving
	s.publish()

	data, err := s.doc.MarshalPayload()
	if err == nil {
		err = s.store.SaveMap(s.now(), data)
	}
	if err != nil {
		s.save.status = SaveError
		s.save.err = err
		slog.Error("auto-save failed", "error", err)
		s.publish()
		return fmt.Errorf("save map: %w", err)
	}

	s.doc.Dirty.Unsaved = false
	s.save.status = SaveSaved
	s.save.err = nil
	s.save.last = s.now()
	s.save.linger = sched.After(s.opts.SavedLinger, func(time.Time) {
		if s.save.status == SaveSaved {
			s.save.status = SaveIdle
			s.publish()
		}
	})
	s.publish()
	return nil
}

// Restore loads the auto-saved map, if any. It reports whether a map was
// found.
func (s *Session) Restore() (bool, error) {
	if s.store == nil {
		return false, nil
	}
	rec, err := s.store.LoadMap()
	if errors.Is(err, persistence.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load map: %w", err)
	}
	if err := s.doc.Restore([]byte(rec.Data)); err != nil {
		return false, fmt.Errorf("restore map: %w", err)
	}
	s.save.last = rec.Time()
	slog.Info("map restored", "saved", rec.Time(), "hexes", s.doc.Counts().Hexes)
	s.commit()
	return true, nil
}
