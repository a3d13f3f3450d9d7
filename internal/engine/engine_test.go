package engine

import (
	"context"
	"errors"
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestSchedulerOrder(t *testing.T) {
	clock := NewManualClock(epoch)
	s := NewScheduler(clock)

	var got []string
	s.After(30*time.Millisecond, func(time.Time) { got = append(got, "c") })
	s.After(10*time.Millisecond, func(time.Time) { got = append(got, "a") })
	s.After(10*time.Millisecond, func(time.Time) { got = append(got, "b") })
	s.After(50*time.Millisecond, func(time.Time) { got = append(got, "late") })

	if n := s.RunDue(clock.Advance(5 * time.Millisecond)); n != 0 {
		t.Fatalf("fired %d timers early", n)
	}
	if n := s.RunDue(clock.Advance(25 * time.Millisecond)); n != 3 {
		t.Fatalf("fired %d, want 3", n)
	}
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
	if s.Len() != 1 {
		t.Errorf("pending = %d, want 1", s.Len())
	}
	if next, ok := s.Next(); !ok || !next.Equal(epoch.Add(50*time.Millisecond)) {
		t.Errorf("Next = %v, %v", next, ok)
	}
}

func TestSchedulerEvery(t *testing.T) {
	clock := NewManualClock(epoch)
	s := NewScheduler(clock)

	count := 0
	id := s.Every(500*time.Millisecond, func(time.Time) { count++ })

	for i := 0; i < 4; i++ {
		s.RunDue(clock.Advance(500 * time.Millisecond))
	}
	if count != 4 {
		t.Errorf("count = %d, want 4", count)
	}

	// A late RunDue fires the timer once, not once per missed period.
	s.RunDue(clock.Advance(2 * time.Second))
	if count != 5 {
		t.Errorf("count after stall = %d, want 5", count)
	}

	if !s.Cancel(id) {
		t.Fatal("Cancel reported the timer missing")
	}
	s.RunDue(clock.Advance(10 * time.Second))
	if count != 5 {
		t.Errorf("cancelled timer fired: count = %d", count)
	}
	if s.Cancel(id) {
		t.Error("second Cancel succeeded")
	}
}

func TestSchedulerCallbackScheduling(t *testing.T) {
	clock := NewManualClock(epoch)
	s := NewScheduler(clock)

	var fired []string
	var victim TimerID
	s.After(time.Millisecond, func(time.Time) {
		fired = append(fired, "first")
		s.Cancel(victim)
		s.After(0, func(time.Time) { fired = append(fired, "nested") })
	})
	victim = s.After(time.Millisecond, func(time.Time) { fired = append(fired, "victim") })

	s.RunDue(clock.Advance(time.Millisecond))
	if len(fired) != 1 || fired[0] != "first" {
		t.Fatalf("fired = %v, want [first]", fired)
	}
	s.RunDue(clock.Now())
	if len(fired) != 2 || fired[1] != "nested" {
		t.Errorf("fired = %v, want nested on the next pass", fired)
	}
}

func TestEngineStep(t *testing.T) {
	clock := NewManualClock(epoch)
	e := NewEngine(clock)

	var frames []time.Time
	e.OnFrame = func(now time.Time) { frames = append(frames, now) }
	timerFired := false
	e.Scheduler().After(20*time.Millisecond, func(time.Time) {
		timerFired = true
		if len(frames) != 1 {
			t.Errorf("timer ran after the frame callback")
		}
	})

	e.Step(clock.Advance(FrameInterval))
	e.Step(clock.Advance(FrameInterval))
	if !timerFired {
		t.Error("timer did not fire")
	}
	if e.Tick != 2 || len(frames) != 2 {
		t.Errorf("Tick = %d, frames = %d", e.Tick, len(frames))
	}
}

func TestEngineRunAndDo(t *testing.T) {
	e := NewEngine(nil)
	e.Interval = time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- e.Run(ctx) }()

	counter := 0
	for i := 0; i < 10; i++ {
		if err := e.Do(ctx, func() { counter++ }); err != nil {
			t.Fatal(err)
		}
	}
	if counter != 10 {
		t.Errorf("counter = %d", counter)
	}

	// A panicking task is contained.
	if err := e.Do(ctx, func() { panic("boom") }); err != nil {
		t.Fatal(err)
	}

	e.Stop()
	if err := <-errc; err != nil {
		t.Errorf("Run returned %v", err)
	}
	if err := e.Do(context.Background(), func() {}); !errors.Is(err, ErrStopped) {
		t.Errorf("Do after Stop = %v, want ErrStopped", err)
	}
	if e.Post(func() {}) {
		t.Error("Post accepted work after Stop")
	}
}

func TestEngineDrain(t *testing.T) {
	e := NewEngine(NewManualClock(epoch))
	var order []int
	for i := 0; i < 3; i++ {
		e.Post(func() { order = append(order, i) })
	}
	if n := e.Drain(); n != 3 {
		t.Fatalf("Drain ran %d", n)
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("order = %v", order)
		}
	}
}
