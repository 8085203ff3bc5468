package core

import (
	"testing"
	"time"
)

type fakeTime struct {
	t time.Time
}

func (f *fakeTime) now() time.Time { return f.t }

func TestClockNotStarted(t *testing.T) {
	ft := &fakeTime{t: time.Unix(100, 0)}
	c := NewClockWithSource(ft.now)
	ft.t = ft.t.Add(time.Second)
	c.Update()
	if c.Elapsed() != 0 {
		t.Fatalf("Elapsed() = %v on a stopped clock, want 0", c.Elapsed())
	}
}

func TestClockElapsed(t *testing.T) {
	ft := &fakeTime{t: time.Unix(100, 0)}
	c := NewClockWithSource(ft.now)
	c.Start()

	ft.t = ft.t.Add(1500 * time.Millisecond)
	c.Update()
	if got := c.Elapsed(); got != 1.5 {
		t.Fatalf("Elapsed() = %v, want 1.5", got)
	}

	c.Stop()
	ft.t = ft.t.Add(time.Second)
	c.Update()
	if got := c.Elapsed(); got != 1.5 {
		t.Fatalf("Elapsed() after Stop = %v, want 1.5", got)
	}

	c.Start()
	if got := c.Elapsed(); got != 0 {
		t.Fatalf("Elapsed() after restart = %v, want 0", got)
	}
}
