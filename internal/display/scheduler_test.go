package display

import (
	"sync"
	"time"
)

// fakeScheduler is a manual clock. Timers fire only inside Advance.
type fakeScheduler struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*fakeTimer

	// ignoreStop makes Stop report success but leaves the timer armed,
	// simulating a callback that was already queued when it was cancelled.
	ignoreStop bool
}

type fakeTimer struct {
	s       *fakeScheduler
	due     time.Time
	seq     int
	f       func()
	stopped bool
	fired   bool
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	t := &fakeTimer{s: s, due: s.now.Add(d), seq: s.seq, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (t *fakeTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	if t.stopped || t.fired {
		return false
	}
	if !t.s.ignoreStop {
		t.stopped = true
	}
	return true
}

// Advance moves the clock forward by d, firing due timers in order.
func (s *fakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now.Add(d)
	s.mu.Unlock()

	for {
		s.mu.Lock()
		var next *fakeTimer
		for _, t := range s.timers {
			if t.stopped || t.fired || t.due.After(target) {
				continue
			}
			if next == nil || t.due.Before(next.due) || (t.due.Equal(next.due) && t.seq < next.seq) {
				next = t
			}
		}
		if next == nil {
			s.now = target
			s.mu.Unlock()
			return
		}
		s.now = next.due
		next.fired = true
		s.mu.Unlock()

		next.f()
	}
}

// Pending returns the number of armed timers.
func (s *fakeScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}
