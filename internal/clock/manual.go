package clock

import (
	"sync"
	"time"
)

// Manual is a Clock whose time only moves when Advance is called.
type Manual struct {
	mu    sync.Mutex
	sched schedule
	now   time.Duration
}

func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) Every(d time.Duration, fn func()) Cancel {
	m.mu.Lock()
	t := m.sched.add(m.now, d, fn)
	m.mu.Unlock()
	return cancelFunc(&m.mu, t, nil)
}

// Advance moves time forward by d, firing every deadline passed on the way
// in time order. Each missed period fires once.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		t := m.sched.due(target)
		if t != nil {
			m.now = t.next
			t.next += t.every
		}
		m.mu.Unlock()
		if t == nil {
			break
		}
		t.fn()
	}

	m.mu.Lock()
	m.now = target
	m.mu.Unlock()
}

func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Pending returns the number of live timers.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sched.live()
}
