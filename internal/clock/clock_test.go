package clock

import (
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu    sync.Mutex
	ticks []Session
}

func (r *recorder) sink(sess Session, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks = append(r.ticks, sess)
}

func (r *recorder) snapshot() []Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Session(nil), r.ticks...)
}

func TestFormatAppliesOffset(t *testing.T) {
	now := time.Date(2024, time.March, 4, 23, 30, 15, 0, time.UTC)

	if got, want := Format(now, 0), "Monday, March 4, 2024 11:30:15 PM"; got != want {
		t.Errorf("UTC: got %q, want %q", got, want)
	}
	// +09:00 rolls over into the next day.
	if got, want := Format(now, 9*3600), "Tuesday, March 5, 2024 8:30:15 AM"; got != want {
		t.Errorf("+9h: got %q, want %q", got, want)
	}
	if got, want := Format(now, -5*3600), "Monday, March 4, 2024 6:30:15 PM"; got != want {
		t.Errorf("-5h: got %q, want %q", got, want)
	}
}

func TestDisplayEmitsImmediately(t *testing.T) {
	rec := &recorder{}
	c := New(time.Hour, rec.sink)
	defer c.Stop()

	sess := c.Display("London", 0)

	ticks := rec.snapshot()
	if len(ticks) != 1 || ticks[0].ID != sess.ID {
		t.Fatalf("expected one immediate tick for the new session, got %v", ticks)
	}
	if cur, ok := c.Current(); !ok || cur.City != "London" {
		t.Fatalf("expected London to be the current session, got %+v", cur)
	}
}

func TestDisplayReplacesPreviousJob(t *testing.T) {
	rec := &recorder{}
	c := New(20*time.Millisecond, rec.sink)
	defer c.Stop()

	first := c.Display("Paris", 3600)
	second := c.Display("Tokyo", 9*3600)

	if n := c.scheduler.Len(); n != 1 {
		t.Fatalf("expected exactly one scheduled job, got %d", n)
	}

	time.Sleep(120 * time.Millisecond)

	ticks := rec.snapshot()
	seenSecond := false
	for _, tk := range ticks {
		if tk.ID == second.ID {
			seenSecond = true
			continue
		}
		if seenSecond && tk.ID == first.ID {
			t.Fatalf("stale tick from replaced session after the new one started")
		}
	}
	if !seenSecond {
		t.Fatalf("expected ticks for the new session")
	}

	var firstCount int
	for _, tk := range ticks {
		if tk.ID == first.ID {
			firstCount++
		}
	}
	if firstCount != 1 {
		t.Errorf("replaced session should only have its immediate tick, got %d", firstCount)
	}
}

func TestStopReturnsWithTicksInFlight(t *testing.T) {
	slow := func(Session, string) { time.Sleep(2 * time.Millisecond) }

	for i := 0; i < 20; i++ {
		c := New(time.Millisecond, slow)
		c.Display("Lima", -5*3600)
		time.Sleep(10 * time.Millisecond)

		done := make(chan struct{})
		go func() {
			c.Stop()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatalf("Stop did not return on round %d", i)
		}
	}
}

func TestStopClearsSession(t *testing.T) {
	c := New(time.Hour, nil)
	c.Display("Oslo", 3600)
	c.Stop()

	if _, ok := c.Current(); ok {
		t.Fatalf("expected no session after Stop")
	}
}
