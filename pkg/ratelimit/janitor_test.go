package ratelimit

import (
	"sync"
	"testing"
	"time"
)

func TestJanitor_SweepsIdleKeys(t *testing.T) {
	fw, clk := newTestFixedWindow(t, time.Minute, 5)
	fw.Allow("client-1")
	fw.Allow("client-2")
	clk.Advance(time.Hour)

	swept := make(chan int, 8)
	j := NewJanitor(JanitorConfig{
		Interval: 10 * time.Millisecond,
		OnSweep: func(target string, removed, live int) {
			if target != "per-ip" {
				t.Errorf("Expected target name per-ip, got %q", target)
			}
			select {
			case swept <- removed:
			default:
			}
		},
	})
	j.Track("per-ip", fw)
	j.Start()
	defer j.Stop()

	select {
	case removed := <-swept:
		if removed != 2 {
			t.Errorf("Expected 2 entries swept, got %d", removed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Janitor never swept")
	}

	if fw.Len() != 0 {
		t.Errorf("Expected no live entries after sweep, got %d", fw.Len())
	}
}

func TestJanitor_TracksMultipleTargets(t *testing.T) {
	fw, fwClk := newTestFixedWindow(t, time.Minute, 5)
	tb, tbClk := newTestTokenBucket(t, 5, 1)
	fw.Allow("client-1")
	tb.Allow("client-1")
	fwClk.Advance(time.Hour)
	tbClk.Advance(time.Hour)

	var mu sync.Mutex
	seen := make(map[string]bool)

	j := NewJanitor(JanitorConfig{
		Interval: 10 * time.Millisecond,
		OnSweep: func(target string, removed, live int) {
			mu.Lock()
			seen[target] = true
			mu.Unlock()
		},
	})
	j.Track("window", fw)
	j.Track("", tb) // empty name falls back to the strategy kind
	j.Start()
	defer j.Stop()

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		done := seen["window"] && seen[StrategyTokenBucket]
		mu.Unlock()
		if done {
			break
		}
		select {
		case <-deadline:
			t.Fatal("Janitor never visited both targets")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestJanitor_DisabledWithoutInterval(t *testing.T) {
	j := NewJanitor(JanitorConfig{Interval: 0})
	j.Start() // must not launch a loop
	j.Stop()  // must not block or panic

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.started {
		t.Error("Expected janitor to stay stopped with no interval")
	}
}

func TestJanitor_StopIsIdempotent(t *testing.T) {
	fw, _ := newTestFixedWindow(t, time.Minute, 5)

	j := NewJanitor(JanitorConfig{Interval: time.Millisecond})
	j.Track("w", fw)
	j.Start()

	j.Stop()
	j.Stop() // second call is a no-op
}

func TestJanitor_Running(t *testing.T) {
	fw, _ := newTestFixedWindow(t, time.Minute, 5)

	j := NewJanitor(JanitorConfig{Interval: time.Minute})
	j.Track("w", fw)

	if j.Running() {
		t.Error("janitor should not report running before Start")
	}
	j.Start()
	if !j.Running() {
		t.Error("janitor should report running after Start")
	}
	j.Stop()
	if j.Running() {
		t.Error("janitor should not report running after Stop")
	}
}
