package audit

import (
	"context"
	"testing"
	"time"
)

// ============================================================================
// Pruner Construction Tests
// ============================================================================

func TestNewPruner_Validation(t *testing.T) {
	store := NewMemoryStore(10)

	if _, err := NewPruner(store, PrunerConfig{MaxAge: 0}); err == nil {
		t.Error("expected error for zero max age")
	}
	if _, err := NewPruner(store, PrunerConfig{MaxAge: -time.Hour}); err == nil {
		t.Error("expected error for negative max age")
	}
	if _, err := NewPruner(store, PrunerConfig{MaxAge: time.Hour, Schedule: "not a cron"}); err == nil {
		t.Error("expected error for invalid cron schedule")
	}
	if _, err := NewPruner(store, PrunerConfig{MaxAge: time.Hour, Schedule: "0 3 * * *"}); err != nil {
		t.Errorf("expected valid daily schedule to parse, got %v", err)
	}
}

// ============================================================================
// Pruning Tests
// ============================================================================

func TestPruner_PruneOnce(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(100)

	now := time.Now()
	expired := mkRecord("expired", "client-1", true, now.Add(-3*time.Hour))
	recent := mkRecord("recent", "client-1", true, now.Add(-10*time.Minute))
	for _, rec := range []*Record{expired, recent} {
		if err := store.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	pruner, err := NewPruner(store, PrunerConfig{MaxAge: time.Hour})
	if err != nil {
		t.Fatalf("NewPruner failed: %v", err)
	}

	removed, err := pruner.PruneOnce(ctx)
	if err != nil {
		t.Fatalf("PruneOnce failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 record removed, got %d", removed)
	}

	got, _ := store.Query(ctx, Query{})
	if len(got) != 1 || got[0].ID != "recent" {
		t.Errorf("expected only recent record retained, got %+v", got)
	}
}

// ============================================================================
// Scheduling Tests
// ============================================================================

func TestPruner_StartWithoutSchedule(t *testing.T) {
	pruner, err := NewPruner(NewMemoryStore(10), PrunerConfig{MaxAge: time.Hour})
	if err != nil {
		t.Fatalf("NewPruner failed: %v", err)
	}

	if err := pruner.Start(context.Background()); err != nil {
		t.Fatalf("Start without schedule failed: %v", err)
	}
	if pruner.IsRunning() {
		t.Error("expected pruner idle without a schedule")
	}
}

func TestPruner_StartAndStop(t *testing.T) {
	pruner, err := NewPruner(NewMemoryStore(10), PrunerConfig{
		MaxAge:   time.Hour,
		Schedule: "* * * * *",
	})
	if err != nil {
		t.Fatalf("NewPruner failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := pruner.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !pruner.IsRunning() {
		t.Fatal("expected pruner running after Start")
	}
	if pruner.NextRun() == nil {
		t.Error("expected a scheduled next run")
	}

	// Start is idempotent while running.
	if err := pruner.Start(ctx); err != nil {
		t.Errorf("second Start failed: %v", err)
	}

	pruner.Stop()
	if pruner.IsRunning() {
		t.Error("expected pruner stopped after Stop")
	}
	if pruner.NextRun() != nil {
		t.Error("expected no next run after Stop")
	}
}

func TestPruner_StopsOnContextCancel(t *testing.T) {
	pruner, err := NewPruner(NewMemoryStore(10), PrunerConfig{
		MaxAge:   time.Hour,
		Schedule: "* * * * *",
	})
	if err != nil {
		t.Fatalf("NewPruner failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := pruner.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for pruner.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if pruner.IsRunning() {
		t.Error("expected pruner to stop when context is cancelled")
	}
}
