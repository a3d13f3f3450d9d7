// Package engine provides the single-goroutine loop that owns the editor
// state. Input, timers and frames are all serialized through it, so the
// document never needs a lock.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// FrameInterval is the default frame cadence, about 60 frames per second.
const FrameInterval = 16 * time.Millisecond

// ErrStopped is returned by Do once the engine has stopped.
var ErrStopped = errors.New("engine stopped")

// Engine drives timers and frames forward on one goroutine.
type Engine struct {
	Tick     uint64        // Frames run so far (monotonic)
	Interval time.Duration // Frame interval (default FrameInterval)

	// OnFrame runs once per frame after due timers have fired.
	OnFrame func(now time.Time)

	clock   Clock
	sched   *Scheduler
	tasks   chan func()
	done    chan struct{}
	once    sync.Once
	running atomic.Bool
}

// NewEngine creates an engine reading time from clock. A nil clock means the
// system clock.
func NewEngine(clock Clock) *Engine {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Engine{
		Interval: FrameInterval,
		clock:    clock,
		sched:    NewScheduler(clock),
		tasks:    make(chan func(), 256),
		done:     make(chan struct{}),
	}
}

// Clock returns the engine's time source.
func (e *Engine) Clock() Clock { return e.clock }

// Scheduler returns the timer queue. Only touch it from the loop goroutine:
// inside Post, Do, timer or frame callbacks.
func (e *Engine) Scheduler() *Scheduler { return e.sched }

// Running reports whether Run is active.
func (e *Engine) Running() bool { return e.running.Load() }

// Post queues fn to run on the loop. It reports false once stopped.
func (e *Engine) Post(fn func()) bool {
	select {
	case <-e.done:
		return false
	default:
	}
	select {
	case e.tasks <- fn:
		return true
	case <-e.done:
		return false
	}
}

// Do runs fn on the loop and waits for it to return.
func (e *Engine) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		fn()
	}
	select {
	case e.tasks <- task:
	case <-e.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-e.done:
		// The loop may have run the task just before stopping.
		select {
		case <-finished:
			return nil
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run starts the loop. Blocks until ctx is cancelled or Stop is called.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return errors.New("engine already running")
	}
	defer e.running.Store(false)

	interval := e.Interval
	if interval <= 0 {
		interval = FrameInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("engine started", "interval", interval, "timers", e.sched.Len())
	defer func() { slog.Info("engine stopped", "frames", e.Tick) }()

	for {
		select {
		case <-ctx.Done():
			e.Stop()
			return ctx.Err()
		case <-e.done:
			return nil
		case fn := <-e.tasks:
			e.run(fn)
		case <-ticker.C:
			e.Step(e.clock.Now())
		}
	}
}

// Stop halts the loop. Safe to call more than once.
func (e *Engine) Stop() {
	e.once.Do(func() { close(e.done) })
}

// Step runs one frame at now: due timers first, then OnFrame. Run calls it
// on every tick; tests drive it directly with a ManualClock.
func (e *Engine) Step(now time.Time) {
	e.Tick++
	e.sched.RunDue(now)
	if e.OnFrame != nil {
		e.OnFrame(now)
	}
}

// Drain runs every queued task without waiting. Tests use it in place of Run.
func (e *Engine) Drain() int {
	n := 0
	for {
		select {
		case fn := <-e.tasks:
			e.run(fn)
			n++
		default:
			return n
		}
	}
}

func (e *Engine) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("engine task panicked", "panic", r)
		}
	}()
	fn()
}
