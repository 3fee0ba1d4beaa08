// Package server assembles the breakwater admission gateway.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"harborline/breakwater/pkg/audit"
	"harborline/breakwater/pkg/config"
	"harborline/breakwater/pkg/middleware"
	"harborline/breakwater/pkg/ratelimit"
	"harborline/breakwater/pkg/telemetry/health"
	"harborline/breakwater/pkg/telemetry/metrics"
)

// Server is the breakwater gateway: an HTTP server whose request path is
// guarded by the configured admission strategy chain, with health endpoints,
// Prometheus metrics, and an optional audit trail.
type Server struct {
	cfg *config.Config

	httpServer *http.Server
	metrics    *metrics.Metrics
	checker    *health.Checker
	janitor    *ratelimit.Janitor

	// Reject mode: the rule chain. Delay mode: the throttle. Exactly one
	// of the two is populated.
	rules    []middleware.Rule
	throttle *ratelimit.Throttle

	extractor middleware.KeyExtractor

	store        audit.Store
	recorder     *audit.Recorder
	pruner       *audit.Pruner
	prunerCancel context.CancelFunc

	shutdownChan chan struct{}
	requestOnce  sync.Once
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// New builds a gateway from a validated configuration: it constructs the
// strategies, the key extractor, the audit pipeline, and the janitor, but
// does not start anything. Construction fails on any strategy or storage
// error, so a server that comes up is fully wired.
func New(cfg *config.Config) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}

	s := &Server{
		cfg:          cfg,
		checker:      health.New(0),
		shutdownChan: make(chan struct{}),
	}

	if cfg.Metrics.Enabled {
		s.metrics = metrics.New(nil)
	}

	s.extractor = buildExtractor(&cfg.Admission)

	if err := s.buildAudit(&cfg.Audit); err != nil {
		return nil, err
	}

	s.janitor = ratelimit.NewJanitor(ratelimit.JanitorConfig{
		Interval: cfg.Admission.SweepInterval,
		OnSweep: func(target string, removed, live int) {
			if s.metrics != nil {
				s.metrics.RecordSweep(target, removed, live)
			}
		},
	})

	if err := s.buildGuard(&cfg.Admission); err != nil {
		return nil, err
	}

	return s, nil
}

// buildExtractor translates the admission key configuration into a
// middleware.KeyExtractor.
func buildExtractor(cfg *config.AdmissionConfig) middleware.KeyExtractor {
	if cfg.KeySource == config.KeySourceHeader {
		return middleware.HeaderExtractor{
			Header:   cfg.KeyHeader,
			Fallback: cfg.FallbackKey,
		}
	}
	return middleware.RemoteAddrExtractor{Fallback: cfg.FallbackKey}
}

// buildAudit constructs the audit store, recorder, and retention pruner.
// With auditing disabled it leaves them nil.
func (s *Server) buildAudit(cfg *config.AuditConfig) error {
	if !cfg.Enabled {
		return nil
	}

	switch cfg.Backend {
	case "sqlite":
		store, err := audit.NewSQLiteStoreWithConfig(audit.SQLiteConfig{
			Path:               cfg.SQLite.Path,
			BusyTimeout:        cfg.SQLite.BusyTimeout,
			CheckpointInterval: cfg.SQLite.CheckpointInterval,
		})
		if err != nil {
			return fmt.Errorf("failed to open audit store: %w", err)
		}
		s.store = store
	default:
		s.store = audit.NewMemoryStore(cfg.Memory.MaxRecords)
	}

	s.recorder = audit.NewRecorder(s.store, audit.RecorderConfig{
		Enabled:      true,
		BufferSize:   cfg.BufferSize,
		WriteTimeout: cfg.WriteTimeout,
		OnDrop: func() {
			if s.metrics != nil {
				s.metrics.RecordAuditDrop()
			}
		},
	})

	if cfg.Retention.MaxAge > 0 {
		pruner, err := audit.NewPruner(s.store, audit.PrunerConfig{
			MaxAge:   cfg.Retention.MaxAge,
			Schedule: cfg.Retention.Schedule,
		})
		if err != nil {
			return fmt.Errorf("failed to build audit pruner: %w", err)
		}
		s.pruner = pruner
	}

	s.checker.RegisterCheck("audit", func(ctx context.Context) error {
		return s.store.Ping(ctx)
	})

	return nil
}

// buildGuard constructs the rule chain (reject mode) or the throttle
// (delay mode) and registers the per-key state with the janitor.
func (s *Server) buildGuard(cfg *config.AdmissionConfig) error {
	if cfg.Mode == config.ModeDelay {
		throttle, err := ratelimit.NewThrottle(cfg.Throttle.Window, cfg.Throttle.MaxRequests)
		if err != nil {
			return fmt.Errorf("failed to build throttle: %w", err)
		}
		s.throttle = throttle
		s.janitor.Track("throttle", throttle)
		return nil
	}

	for _, rule := range cfg.Rules {
		strategy, err := ratelimit.Build(ratelimit.Config{
			Strategy:     rule.Strategy,
			Window:       rule.Window,
			MaxRequests:  rule.MaxRequests,
			Capacity:     rule.Capacity,
			RefillRate:   rule.RefillRate,
			LeakInterval: rule.LeakInterval,
		})
		if err != nil {
			return fmt.Errorf("failed to build rule %q: %w", rule.Name, err)
		}

		name := rule.Name
		if name == "" {
			name = strategy.Name()
		}
		s.rules = append(s.rules, middleware.Rule{Name: name, Strategy: strategy})
		s.janitor.Track(name, strategy)
	}

	return nil
}

// Start starts the background workers and the HTTP server, then blocks
// until ctx is cancelled, a shutdown signal arrives, or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	// The pruner starts before the janitor so a scheduling failure leaves
	// no background goroutine behind.
	if s.pruner != nil {
		prunerCtx, cancel := context.WithCancel(context.Background())
		s.prunerCancel = cancel
		if err := s.pruner.Start(prunerCtx); err != nil {
			cancel()
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
			return fmt.Errorf("failed to start audit pruner: %w", err)
		}
	}

	s.janitor.Start()

	s.httpServer = &http.Server{
		Addr:           s.cfg.Server.ListenAddress,
		Handler:        s.Handler(),
		ReadTimeout:    s.cfg.Server.ReadTimeout,
		WriteTimeout:   s.cfg.Server.WriteTimeout,
		IdleTimeout:    s.cfg.Server.IdleTimeout,
		MaxHeaderBytes: s.cfg.Server.MaxHeaderBytes,
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting admission gateway",
			"address", s.cfg.Server.ListenAddress,
			"mode", s.cfg.Admission.Mode,
			"rules", len(s.rules),
			"audit_enabled", s.cfg.Audit.Enabled,
		)

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.Shutdown(context.Background())
		return err
	case <-s.shutdownChan:
		slog.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully stops the HTTP server, then the background workers:
// in-flight requests drain first so their decisions still reach the audit
// recorder before it closes.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		slog.Info("initiating graceful shutdown", "timeout", s.cfg.Server.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.Server.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.janitor.Stop()

		if s.prunerCancel != nil {
			s.prunerCancel()
		}
		if s.pruner != nil {
			s.pruner.Stop()
		}
		if s.recorder != nil {
			if err := s.recorder.Close(); err != nil {
				slog.Error("error closing audit recorder", "error", err)
			}
		}
		if s.store != nil {
			if err := s.store.Close(); err != nil {
				slog.Error("error closing audit store", "error", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		slog.Info("admission gateway stopped")
	})

	return shutdownErr
}

// Handler returns the gateway's HTTP handler: the guarded catch-all route
// plus the health and metrics endpoints. Exposed for tests and for
// embedding the gateway behind an existing server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.checker.LivenessHandler())
	mux.HandleFunc("/readyz", s.checker.ReadinessHandler())

	if s.metrics != nil {
		mux.Handle(s.cfg.Metrics.Path, s.metrics.Handler())
	}

	// The echo handler stands in for the protected application.
	mux.Handle("/", s.guard()(http.HandlerFunc(echoHandler)))

	var handler http.Handler = mux
	if s.metrics != nil {
		handler = middleware.MetricsMiddleware(s.metrics)(handler)
	}
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.RecoveryMiddleware(handler)

	return handler
}

// guard returns the admission middleware for the configured mode.
func (s *Server) guard() func(http.Handler) http.Handler {
	if s.throttle != nil {
		return middleware.ThrottleMiddleware(middleware.ThrottleConfig{
			Extractor:     s.extractor,
			Throttle:      s.throttle,
			Metrics:       s.metrics,
			Recorder:      s.recorder,
			RecordAllowed: s.cfg.Audit.RecordAllowed,
		})
	}

	return middleware.AdmissionMiddleware(middleware.AdmissionConfig{
		Extractor:     s.extractor,
		Rules:         s.rules,
		Metrics:       s.metrics,
		Recorder:      s.recorder,
		RecordAllowed: s.cfg.Audit.RecordAllowed,
	})
}

// RequestShutdown asks a blocked Start to shut the server down. Safe to
// call from another goroutine.
func (s *Server) RequestShutdown() {
	s.requestOnce.Do(func() {
		close(s.shutdownChan)
	})
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// AuditStore returns the audit store, or nil when auditing is disabled.
// Exposed so operational tooling can query recorded decisions.
func (s *Server) AuditStore() audit.Store {
	return s.store
}

// echoResponse is the body of the stand-in protected handler.
type echoResponse struct {
	Message   string `json:"message"`
	Method    string `json:"method"`
	Path      string `json:"path"`
	ClientKey string `json:"clientKey,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// echoHandler answers every admitted request with a small JSON description
// of itself. It stands in for the application the gateway protects.
func echoHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(echoResponse{
		Message:   "request admitted",
		Method:    r.Method,
		Path:      r.URL.Path,
		ClientKey: middleware.GetClientKey(r.Context()),
		RequestID: middleware.GetRequestID(r.Context()),
	})
}
