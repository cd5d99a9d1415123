package timeutil

import (
	"sync"
	"testing"
	"time"
)

func TestRealClock_Now(t *testing.T) {
	clock := RealClock{}
	before := time.Now()
	now := clock.Now()
	after := time.Now()

	if now.Before(before) || now.After(after) {
		t.Errorf("Now() = %v, expected between %v and %v", now, before, after)
	}
}

func TestRealClock_Since(t *testing.T) {
	clock := RealClock{}
	past := time.Now().Add(-time.Second)
	d := clock.Since(past)

	if d < time.Second {
		t.Errorf("Since() returned %v, expected >= 1s", d)
	}
}

func TestMockClock_Now(t *testing.T) {
	fixedTime := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	clock := NewMockClock(fixedTime)

	for i := 0; i < 3; i++ {
		if now := clock.Now(); !now.Equal(fixedTime) {
			t.Errorf("call %d: got %v, want %v", i, now, fixedTime)
		}
	}
}

func TestMockClock_Set(t *testing.T) {
	clock := NewMockClock(time.Time{})
	newTime := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	clock.Set(newTime)

	if !clock.Now().Equal(newTime) {
		t.Errorf("got %v, want %v", clock.Now(), newTime)
	}
}

func TestMockClock_Advance(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)
	clock.Advance(time.Hour)
	expected := start.Add(time.Hour)

	if !clock.Now().Equal(expected) {
		t.Errorf("got %v, want %v", clock.Now(), expected)
	}
}

func TestMockClock_AutoAdvance(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)
	clock.AutoAdvance(5 * time.Millisecond)

	first := clock.Now()
	second := clock.Now()

	if !first.Equal(start) {
		t.Errorf("first = %v, want %v", first, start)
	}
	if d := second.Sub(first); d != 5*time.Millisecond {
		t.Errorf("step = %v, want 5ms", d)
	}
	if d := clock.Since(start); d != 10*time.Millisecond {
		t.Errorf("Since(start) = %v, want 10ms", d)
	}

	clock.AutoAdvance(0)
	if a, b := clock.Now(), clock.Now(); !a.Equal(b) {
		t.Errorf("clock should be frozen, got %v then %v", a, b)
	}
}

func TestMockClock_Since(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := NewMockClock(now)
	past := now.Add(-5 * time.Minute)

	if d := clock.Since(past); d != 5*time.Minute {
		t.Errorf("got %v, want 5m", d)
	}
}

func TestMockClock_ConcurrentAccess(t *testing.T) {
	clock := NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				clock.Advance(time.Millisecond)
				_ = clock.Now()
			}
		}()
	}
	wg.Wait()

	want := time.Date(2026, 1, 1, 0, 0, 0, 800*int(time.Millisecond), time.UTC)
	if got := clock.Now(); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

var _ Clock = RealClock{}
var _ Clock = (*MockClock)(nil)
