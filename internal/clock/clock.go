package clock

import (
	"sort"
	"sync"
	"time"
)

// Cancel stops a repeating callback. Calling it more than once is harmless.
type Cancel func()

// Clock schedules fn to run every d until cancelled.
type Clock interface {
	Every(d time.Duration, fn func()) Cancel
}

type timer struct {
	every time.Duration
	next  time.Duration
	seq   uint64
	fn    func()
	dead  bool
}

// schedule keeps timers keyed by offset from the clock's epoch.
type schedule struct {
	timers []*timer
	seq    uint64
}

func (s *schedule) add(now, every time.Duration, fn func()) *timer {
	if every <= 0 {
		panic("clock: non-positive interval")
	}
	t := &timer{every: every, next: now + every, seq: s.seq, fn: fn}
	s.seq++
	s.timers = append(s.timers, t)
	return t
}

// due returns the earliest live timer whose deadline is at or before now.
// Ties go to the timer registered first.
func (s *schedule) due(now time.Duration) *timer {
	var best *timer
	for _, t := range s.timers {
		if t.dead || t.next > now {
			continue
		}
		if best == nil || t.next < best.next || (t.next == best.next && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

func (s *schedule) earliest() (time.Duration, bool) {
	s.sweep()
	if len(s.timers) == 0 {
		return 0, false
	}
	sort.SliceStable(s.timers, func(i, j int) bool {
		if s.timers[i].next == s.timers[j].next {
			return s.timers[i].seq < s.timers[j].seq
		}
		return s.timers[i].next < s.timers[j].next
	})
	return s.timers[0].next, true
}

func (s *schedule) sweep() {
	live := s.timers[:0]
	for _, t := range s.timers {
		if !t.dead {
			live = append(live, t)
		}
	}
	for i := len(live); i < len(s.timers); i++ {
		s.timers[i] = nil
	}
	s.timers = live
}

func (s *schedule) live() int {
	n := 0
	for _, t := range s.timers {
		if !t.dead {
			n++
		}
	}
	return n
}

func cancelFunc(mu sync.Locker, t *timer, after func()) Cancel {
	var once sync.Once
	return func() {
		once.Do(func() {
			mu.Lock()
			t.dead = true
			mu.Unlock()
			if after != nil {
				after()
			}
		})
	}
}
