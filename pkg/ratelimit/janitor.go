package ratelimit

import (
	"log/slog"
	"sync"
	"time"
)

// Sweeper is anything holding per-key state the Janitor can evict. All
// Strategy implementations and the Throttle satisfy it.
type Sweeper interface {
	Name() string
	Sweep(idleFor time.Duration) int
	Len() int
}

// JanitorConfig configures the periodic idle-state sweep.
type JanitorConfig struct {
	// Interval between sweeps. Non-positive disables the janitor.
	Interval time.Duration

	// IdleFor is the minimum idle age before an entry is eligible for
	// eviction. Each target clamps it up to its own safe horizon, so zero
	// means "as aggressive as correctness allows".
	IdleFor time.Duration

	// OnSweep, when set, is invoked after each target's sweep with the
	// tracked name, the number of entries removed, and the live key count.
	OnSweep func(target string, removed, live int)
}

// Janitor periodically evicts idle per-key state from tracked targets,
// bounding the memory growth of long-running processes.
type Janitor struct {
	cfg     JanitorConfig
	logger  *slog.Logger
	targets []janitorTarget

	mu      sync.Mutex
	done    chan struct{}
	wg      sync.WaitGroup
	started bool
}

type janitorTarget struct {
	name    string
	sweeper Sweeper
}

// NewJanitor creates a janitor. Targets are registered with Track before
// Start.
func NewJanitor(cfg JanitorConfig) *Janitor {
	return &Janitor{
		cfg:    cfg,
		logger: slog.Default().With("component", "ratelimit.janitor"),
	}
}

// Track registers a sweep target under the given name (the rule name in
// gateway use). Not safe to call after Start.
func (j *Janitor) Track(name string, s Sweeper) {
	if name == "" {
		name = s.Name()
	}
	j.targets = append(j.targets, janitorTarget{name: name, sweeper: s})
}

// Start launches the sweep loop. It is a no-op when the interval is
// non-positive or the janitor is already running.
func (j *Janitor) Start() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.started || j.cfg.Interval <= 0 {
		return
	}
	j.started = true
	j.done = make(chan struct{})

	j.wg.Add(1)
	go j.loop()

	j.logger.Info("janitor started",
		"interval", j.cfg.Interval,
		"targets", len(j.targets))
}

// Running reports whether the sweep loop is active.
func (j *Janitor) Running() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.started
}

// Stop halts the sweep loop and waits for an in-flight sweep to finish.
func (j *Janitor) Stop() {
	j.mu.Lock()
	if !j.started {
		j.mu.Unlock()
		return
	}
	j.started = false
	close(j.done)
	j.mu.Unlock()

	j.wg.Wait()
}

func (j *Janitor) loop() {
	defer j.wg.Done()

	ticker := time.NewTicker(j.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.sweepAll()
		}
	}
}

func (j *Janitor) sweepAll() {
	for _, t := range j.targets {
		removed := t.sweeper.Sweep(j.cfg.IdleFor)
		live := t.sweeper.Len()

		if removed > 0 {
			j.logger.Debug("swept idle keys",
				"target", t.name,
				"removed", removed,
				"live", live)
		}
		if j.cfg.OnSweep != nil {
			j.cfg.OnSweep(t.name, removed, live)
		}
	}
}
