package editor

import (
	"fmt"
	"time"

	"github.com/talgya/hexworlds/internal/document"
	"github.com/talgya/hexworlds/internal/world"
)

// Display scales used by the selection feedback.
const (
	bounceScale = 1.2
	liftScale   = 1.3
)

// BeginRouteSelection arms route destination selection: the next click
// starts the token's route toward the clicked hex.
func (s *Session) BeginRouteSelection(id string) error {
	t, ok := s.doc.Token(id)
	if !ok {
		return s.fail("route", fmt.Errorf("token %s: %w", id, document.ErrNotFound))
	}
	if !t.Attributes.Pathfinding() {
		return s.fail("route", fmt.Errorf("token %s: %w", id, ErrNotRoutable))
	}
	s.routeFor = id
	s.commit()
	return nil
}

// StartTokenRoute routes a token over the path network to dest and starts
// moving it one vertex per RouteTick. The first step happens immediately.
// Starting again replaces the route; the old tick chain stops on its own.
func (s *Session) StartTokenRoute(id string, dest world.HexCoord) error {
	t, ok := s.doc.Token(id)
	if !ok {
		return s.fail("route", fmt.Errorf("token %s: %w", id, document.ErrNotFound))
	}
	if !t.Attributes.Pathfinding() {
		return s.fail("route", fmt.Errorf("token %s: %w", id, ErrNotRoutable))
	}
	version, err := s.doc.StartRoute(id, dest)
	if err != nil {
		return s.fail("route", err)
	}
	s.routeTick(id, version)
	return nil
}

// routeTick advances one step and re-arms itself while the route version
// is still current.
func (s *Session) routeTick(id string, version uint64) {
	more := s.doc.AdvanceRoute(id, version)
	s.commit()
	if more {
		s.eng.Scheduler().After(s.opts.RouteTick, func(time.Time) { s.routeTick(id, version) })
	}
}

// StopTokenRoute halts a moving token where it stands.
func (s *Session) StopTokenRoute(id string) error {
	if _, ok := s.doc.Token(id); !ok {
		return s.fail("stop route", fmt.Errorf("token %s: %w", id, document.ErrNotFound))
	}
	s.doc.StopRoute(id)
	s.commit()
	return nil
}

// scaleAnimation eases a token's display scale from one value to another.
// then, if set, starts when this one ends.
type scaleAnimation struct {
	from, to float64
	start    time.Time
	dur      time.Duration
	then     *scaleAnimation
}

// easeOutCubic maps linear progress to a decelerating curve.
func easeOutCubic(t float64) float64 {
	u := 1 - t
	return 1 - u*u*u
}

func (a *scaleAnimation) at(now time.Time) (scale float64, done bool) {
	if a.dur <= 0 {
		return a.to, true
	}
	p := float64(now.Sub(a.start)) / float64(a.dur)
	if p >= 1 {
		return a.to, true
	}
	if p < 0 {
		p = 0
	}
	return a.from + (a.to-a.from)*easeOutCubic(p), false
}

// AnimateTokenScale eases a token from its current scale to target. It
// replaces any running animation on that token.
func (s *Session) AnimateTokenScale(id string, target float64, dur time.Duration) {
	t, ok := s.doc.Token(id)
	if !ok {
		return
	}
	s.animations[id] = &scaleAnimation{from: t.Scale, to: target, start: s.now(), dur: dur}
}

// animateBounce pops a token to bounceScale and settles it back.
func (s *Session) animateBounce(id string) {
	t, ok := s.doc.Token(id)
	if !ok {
		return
	}
	half := s.opts.ScaleDuration / 2
	s.animations[id] = &scaleAnimation{
		from: t.Scale, to: bounceScale, start: s.now(), dur: half,
		then: &scaleAnimation{from: bounceScale, to: 1, dur: half},
	}
}

// LiftToken enlarges a token while it is being dragged. DropToken or
// MoveToken settles it.
func (s *Session) LiftToken(id string) {
	s.AnimateTokenScale(id, liftScale, s.opts.ScaleDuration)
}

// DropToken settles a lifted token without moving it.
func (s *Session) DropToken(id string) {
	s.AnimateTokenScale(id, 1, s.opts.ScaleDuration)
}

// Animating reports whether any scale animation is running.
func (s *Session) Animating() bool { return len(s.animations) > 0 }

// stepAnimations writes the current scale of every running animation and
// reports whether anything changed.
func (s *Session) stepAnimations(now time.Time) bool {
	changed := false
	for id, a := range s.animations {
		scale, done := a.at(now)
		if !s.doc.SetTokenScale(id, scale) {
			delete(s.animations, id)
			continue
		}
		changed = true
		if !done {
			continue
		}
		if a.then != nil {
			next := a.then
			next.start = now
			s.animations[id] = next
		} else {
			delete(s.animations, id)
		}
	}
	return changed
}
