package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// PrunerConfig configures retention enforcement.
type PrunerConfig struct {
	// MaxAge is how long records are kept. Required.
	MaxAge time.Duration

	// Schedule is a standard cron expression (e.g. "0 3 * * *" for daily
	// at 3 AM). Empty disables scheduled pruning; PruneOnce still works.
	Schedule string
}

// Pruner deletes records older than the retention window, either on demand
// via PruneOnce or on a cron schedule via Start.
type Pruner struct {
	store   Store
	config  PrunerConfig
	cron    *cron.Cron
	mu      sync.Mutex
	running bool
	logger  *slog.Logger
}

// NewPruner creates a pruner for the given store. It validates the cron
// expression up front so a bad schedule fails at startup, not at 3 AM.
func NewPruner(store Store, config PrunerConfig) (*Pruner, error) {
	if config.MaxAge <= 0 {
		return nil, fmt.Errorf("retention max age must be positive, got %v", config.MaxAge)
	}
	if config.Schedule != "" {
		if _, err := cron.ParseStandard(config.Schedule); err != nil {
			return nil, fmt.Errorf("invalid prune schedule %q: %w", config.Schedule, err)
		}
	}

	return &Pruner{
		store:  store,
		config: config,
		cron:   cron.New(),
		logger: slog.Default().With("component", "audit.pruner"),
	}, nil
}

// Start begins scheduled pruning. With an empty schedule it does nothing.
// The pruner stops itself when ctx is cancelled.
func (p *Pruner) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.config.Schedule == "" {
		p.logger.Info("prune schedule not configured, skipping scheduled pruning")
		return nil
	}
	if p.running {
		return nil
	}

	_, err := p.cron.AddFunc(p.config.Schedule, func() {
		p.runPrune(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule pruning: %w", err)
	}

	p.cron.Start()
	p.running = true

	p.logger.Info("retention pruning scheduled",
		"schedule", p.config.Schedule,
		"max_age", p.config.MaxAge,
	)

	go func() {
		<-ctx.Done()
		p.Stop()
	}()

	return nil
}

// PruneOnce deletes all records older than the retention window and reports
// how many were removed.
func (p *Pruner) PruneOnce(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-p.config.MaxAge)
	return p.store.Prune(ctx, cutoff)
}

// runPrune executes one scheduled pruning cycle.
func (p *Pruner) runPrune(ctx context.Context) {
	deleted, err := p.PruneOnce(ctx)
	if err != nil {
		p.logger.Error("scheduled pruning failed", "error", err)
		return
	}

	if deleted > 0 {
		p.logger.Info("scheduled pruning completed", "deleted_count", deleted)
	} else {
		p.logger.Debug("scheduled pruning completed, no records deleted")
	}
}

// Stop stops the scheduler and waits for a running job to complete.
func (p *Pruner) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		ctx := p.cron.Stop()
		<-ctx.Done()
		p.running = false
		p.logger.Info("retention pruning stopped")
	}
}

// IsRunning reports whether scheduled pruning is active.
func (p *Pruner) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// NextRun returns the next scheduled pruning time, or nil when no schedule
// is active.
func (p *Pruner) NextRun() *time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return nil
	}
	entries := p.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
