package clock

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestManualOrdering(t *testing.T) {
	m := NewManual()
	var got []string

	m.Every(10*time.Millisecond, func() { got = append(got, "a") })
	m.Every(25*time.Millisecond, func() { got = append(got, "b") })

	m.Advance(50 * time.Millisecond)

	want := []string{"a", "a", "b", "a", "a", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if m.Now() != 50*time.Millisecond {
		t.Errorf("expected now=50ms, got %v", m.Now())
	}
}

func TestManualTieBreaksByRegistration(t *testing.T) {
	m := NewManual()
	var got []int
	for i := 0; i < 3; i++ {
		i := i
		m.Every(time.Second, func() { got = append(got, i) })
	}
	m.Advance(time.Second)
	for i, v := range got {
		if v != i {
			t.Fatalf("expected registration order, got %v", got)
		}
	}
}

func TestManualCancel(t *testing.T) {
	m := NewManual()
	count := 0
	var cancel Cancel
	cancel = m.Every(time.Second, func() {
		count++
		if count == 2 {
			cancel()
		}
	})

	m.Advance(10 * time.Second)
	if count != 2 {
		t.Errorf("expected 2 calls before cancel, got %d", count)
	}
	if m.Pending() != 0 {
		t.Errorf("expected no pending timers, got %d", m.Pending())
	}
	cancel()
}

func TestManualRejectsNonPositiveInterval(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for zero interval")
		}
	}()
	NewManual().Every(0, func() {})
}

func TestLoopRunsTimersAndPostedWork(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	var ticks atomic.Int32
	stop := l.Every(time.Millisecond, func() { ticks.Add(1) })

	deadline := time.Now().Add(2 * time.Second)
	for ticks.Load() < 5 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if ticks.Load() < 5 {
		t.Fatalf("expected at least 5 ticks, got %d", ticks.Load())
	}
	stop()

	ran := false
	if err := l.Do(ctx, func() { ran = true }); err != nil {
		t.Fatalf("do failed: %v", err)
	}
	if !ran {
		t.Error("posted work did not run")
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}
}

func TestLoopDoHonoursContext(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Do(ctx, func() {}); err != context.Canceled {
		t.Errorf("expected context.Canceled without a running loop, got %v", err)
	}
}
