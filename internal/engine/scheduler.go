package engine

import (
	"container/heap"
	"time"
)

// TimerID identifies a scheduled callback.
type TimerID uint64

type timer struct {
	id    TimerID
	at    time.Time
	seq   uint64
	every time.Duration
	fn    func(now time.Time)
	index int
}

type timerHeap []*timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if !h[i].at.Equal(h[j].at) {
		return h[i].at.Before(h[j].at)
	}
	return h[i].seq < h[j].seq
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	t := old[len(old)-1]
	old[len(old)-1] = nil
	t.index = -1
	*h = old[:len(old)-1]
	return t
}

// Scheduler is a timer queue driven by explicit RunDue calls. It is not
// safe for concurrent use; the Engine owns it on its loop goroutine.
type Scheduler struct {
	clock  Clock
	timers timerHeap
	byID   map[TimerID]*timer
	nextID TimerID
	seq    uint64
}

// NewScheduler returns an empty scheduler reading time from clock.
func NewScheduler(clock Clock) *Scheduler {
	return &Scheduler{clock: clock, byID: make(map[TimerID]*timer)}
}

// After runs fn once, d from now.
func (s *Scheduler) After(d time.Duration, fn func(now time.Time)) TimerID {
	return s.add(d, 0, fn)
}

// Every runs fn every d, first at now+d, until cancelled.
func (s *Scheduler) Every(d time.Duration, fn func(now time.Time)) TimerID {
	if d <= 0 {
		d = time.Millisecond
	}
	return s.add(d, d, fn)
}

func (s *Scheduler) add(d, every time.Duration, fn func(time.Time)) TimerID {
	s.nextID++
	t := &timer{id: s.nextID, at: s.clock.Now().Add(d), every: every, fn: fn}
	s.push(t)
	s.byID[t.id] = t
	return t.id
}

func (s *Scheduler) push(t *timer) {
	t.seq = s.seq
	s.seq++
	heap.Push(&s.timers, t)
}

// Cancel removes a pending timer and reports whether it was pending.
func (s *Scheduler) Cancel(id TimerID) bool {
	t, ok := s.byID[id]
	if !ok {
		return false
	}
	delete(s.byID, id)
	if t.index >= 0 {
		heap.Remove(&s.timers, t.index)
	}
	return true
}

// Len returns the number of pending timers.
func (s *Scheduler) Len() int { return len(s.byID) }

// Next returns the earliest deadline.
func (s *Scheduler) Next() (time.Time, bool) {
	if len(s.timers) == 0 {
		return time.Time{}, false
	}
	return s.timers[0].at, true
}

// RunDue fires every timer due at now in deadline order, FIFO for equal
// deadlines, and returns how many fired. Timers added or rearmed by a
// callback wait for a later call even when already due.
func (s *Scheduler) RunDue(now time.Time) int {
	var due []*timer
	for len(s.timers) > 0 && !s.timers[0].at.After(now) {
		due = append(due, heap.Pop(&s.timers).(*timer))
	}

	fired := 0
	for _, t := range due {
		if _, ok := s.byID[t.id]; !ok {
			continue // cancelled by an earlier callback
		}
		if t.every > 0 {
			t.at = t.at.Add(t.every)
			s.push(t)
		} else {
			delete(s.byID, t.id)
		}
		t.fn(now)
		fired++
	}
	return fired
}
