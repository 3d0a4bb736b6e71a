package clock

import (
	"context"
	"sync"
	"time"
)

// Loop is a single-threaded cooperative scheduler. Timers and posted work
// run on the goroutine executing Run, never concurrently with each other.
type Loop struct {
	mu    sync.Mutex
	sched schedule
	epoch time.Time

	posted chan func()
	wake   chan struct{}
}

func NewLoop() *Loop {
	return &Loop{
		epoch:  time.Now(),
		posted: make(chan func()),
		wake:   make(chan struct{}, 1),
	}
}

func (l *Loop) now() time.Duration {
	return time.Since(l.epoch)
}

// Every registers fn to run every d on the loop goroutine. Missed deadlines
// are not replayed: a slow callback delays the next run instead of queuing
// a burst.
func (l *Loop) Every(d time.Duration, fn func()) Cancel {
	l.mu.Lock()
	t := l.sched.add(l.now(), d, fn)
	l.mu.Unlock()
	l.poke()
	return cancelFunc(&l.mu, t, l.poke)
}

func (l *Loop) poke() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Do runs fn on the loop goroutine and waits for it to finish. It must not
// be called from the loop goroutine itself.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	select {
	case l.posted <- func() {
		defer close(done)
		fn()
	}:
	case <-ctx.Done():
		return ctx.Err()
	}
	<-done
	return nil
}

// Run drives the loop until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.mu.Lock()
		next, ok := l.sched.earliest()
		l.mu.Unlock()

		var fire <-chan time.Time
		var tm *time.Timer
		if ok {
			wait := next - l.now()
			if wait < 0 {
				wait = 0
			}
			tm = time.NewTimer(wait)
			fire = tm.C
		}

		select {
		case <-ctx.Done():
			stopTimer(tm)
			return ctx.Err()
		case fn := <-l.posted:
			stopTimer(tm)
			fn()
		case <-l.wake:
			stopTimer(tm)
		case <-fire:
			l.fireDue()
		}
	}
}

func (l *Loop) fireDue() {
	now := l.now()
	for {
		l.mu.Lock()
		t := l.sched.due(now)
		if t != nil {
			t.next += t.every
			if t.next <= now {
				t.next = now + t.every
			}
		}
		l.mu.Unlock()
		if t == nil {
			return
		}
		t.fn()
	}
}

func stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}
