// Package api provides HTTP handlers and the main API server logic for survey-sensei.
//
// It exposes RESTful endpoints for the survey flow lifecycle (intake, questions,
// answer editing, review generation and submission), pane layout reads for the
// host UI, and catalog lookups. The API wires together the content service,
// catalog, store, notify, and flow modules.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shvbsle/survey-sensei/internal/catalog"
	"github.com/shvbsle/survey-sensei/internal/content"
	"github.com/shvbsle/survey-sensei/internal/flow"
	"github.com/shvbsle/survey-sensei/internal/genai"
	"github.com/shvbsle/survey-sensei/internal/notify"
	"github.com/shvbsle/survey-sensei/internal/scheduler"
	"github.com/shvbsle/survey-sensei/internal/store"
)

// Version is reported by the health endpoint.
const Version = "0.3.1"

// Default server configuration constants
const (
	// DefaultAddr is the default listen address for the API server.
	DefaultAddr = ":8080"
	// DefaultIdleTTL is how long a flow may sit untouched before the reaper
	// drops it.
	DefaultIdleTTL = 30 * time.Minute
	// DefaultReapSchedule is the cron expression driving the idle-flow reaper.
	DefaultReapSchedule = "*/10 * * * *"
	// shutdownTimeout bounds graceful shutdown after a termination signal.
	shutdownTimeout = 10 * time.Second
)

// Opts holds configuration options for the API server.
type Opts struct {
	// Addr is the listen address (host:port).
	Addr string
	// IdleTTL is the idle duration after which a flow is reaped.
	IdleTTL time.Duration
	// ReapSchedule is the cron expression for the reaper job.
	ReapSchedule string
}

// Option configures the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) {
		o.Addr = addr
	}
}

// WithIdleTTL sets how long a flow may idle before being reaped.
func WithIdleTTL(ttl time.Duration) Option {
	return func(o *Opts) {
		o.IdleTTL = ttl
	}
}

// WithReapSchedule sets the cron expression for the idle-flow reaper.
func WithReapSchedule(expr string) Option {
	return func(o *Opts) {
		o.ReapSchedule = expr
	}
}

// Server carries the dependencies shared by all HTTP handlers.
type Server struct {
	registry *flow.Registry
	catalog  *catalog.Catalog
	st       store.Store
}

// NewServer creates an API server over the given flow registry, catalog, and
// store.
func NewServer(registry *flow.Registry, cat *catalog.Catalog, st store.Store) *Server {
	return &Server{registry: registry, catalog: cat, st: st}
}

// Handler returns the route mux for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/api/flows", s.createFlowHandler)
	mux.HandleFunc("/api/flows/", s.flowsHandler)
	mux.HandleFunc("/api/survey/start", s.startHandler)
	mux.HandleFunc("/api/survey/answer", s.answerHandler)
	mux.HandleFunc("/api/survey/skip", s.skipHandler)
	mux.HandleFunc("/api/survey/edit/load", s.editLoadHandler)
	mux.HandleFunc("/api/survey/edit/cancel", s.editCancelHandler)
	mux.HandleFunc("/api/survey/review", s.submitReviewHandler)
	mux.HandleFunc("/api/reviews/generate", s.generateReviewsHandler)
	mux.HandleFunc("/api/reviews/regenerate", s.regenerateReviewsHandler)
	mux.HandleFunc("/api/reviews/select", s.selectReviewHandler)
	mux.HandleFunc("/api/sessions/", s.sessionsHandler)
	mux.HandleFunc("/api/products", s.listProductsHandler)
	mux.HandleFunc("/api/products/", s.productsHandler)
	mux.HandleFunc("/api/shoppers/", s.shoppersHandler)
	return mux
}

// healthHandler provides a health check endpoint for monitoring and load balancing
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	healthData := map[string]interface{}{
		"status":       "healthy",
		"version":      Version,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"active_flows": s.registry.Len(),
	}

	// Probe catalog storage as a health indicator
	if _, err := s.st.ListProducts(); err != nil {
		slog.Warn("Server.healthHandler: catalog storage probe failed", "error", err)
		healthData["status"] = "degraded"
		healthData["error"] = "Failed to reach catalog storage"
	}

	statusCode := http.StatusOK
	if healthData["status"] == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}

	writeJSONResponse(w, statusCode, healthData)
}

// Run wires up every module and serves the API until a termination signal
// arrives or the listener fails.
func Run(storeOpts []store.Option, genaiOpts []genai.Option, notifyOpts []notify.Option, apiOpts []Option) error {
	opts := Opts{Addr: DefaultAddr, IdleTTL: DefaultIdleTTL, ReapSchedule: DefaultReapSchedule}
	for _, opt := range apiOpts {
		opt(&opts)
	}

	st, err := buildStore(storeOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()

	if err := catalog.Seed(st); err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}
	cat := catalog.New(st)

	client, err := genai.NewClient(genaiOpts...)
	if err != nil {
		return fmt.Errorf("failed to initialize GenAI client: %w", err)
	}
	svc := content.NewAgent(client, st, content.DefaultConfig())

	registry := flow.NewRegistry(svc, cat, buildNotifier(notifyOpts))
	server := NewServer(registry, cat, st)

	sched := scheduler.NewScheduler()
	defer sched.Stop()
	if err := sched.AddJob(opts.ReapSchedule, func() {
		if reaped := registry.ReapIdle(opts.IdleTTL); reaped > 0 {
			slog.Info("api.Run: reaped idle flows", "count", reaped, "ttl", opts.IdleTTL)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule flow reaper: %w", err)
	}

	httpServer := &http.Server{Addr: opts.Addr, Handler: server.Handler()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("api.Run: HTTP server listening", "addr", opts.Addr, "version", Version)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("api.Run: shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}
	slog.Info("api.Run: server stopped cleanly")
	return nil
}

// buildStore selects a storage backend from the configured DSN. No DSN means
// the in-memory store.
func buildStore(storeOpts []store.Option) (store.Store, error) {
	var o store.Opts
	for _, opt := range storeOpts {
		opt(&o)
	}
	switch {
	case o.DSN == "":
		slog.Info("api.buildStore: no database DSN configured, using in-memory store")
		return store.NewInMemoryStore(), nil
	case store.DetectDSNType(o.DSN) == "postgres":
		slog.Info("api.buildStore: using PostgreSQL store")
		return store.NewPostgresStore(storeOpts...)
	default:
		slog.Info("api.buildStore: using SQLite store", "path", o.DSN)
		return store.NewSQLiteStore(storeOpts...)
	}
}

// buildNotifier prefers SMS when Twilio credentials are configured and falls
// back to the no-op notifier otherwise.
func buildNotifier(notifyOpts []notify.Option) flow.Notifier {
	n, err := notify.NewSMSNotifier(notifyOpts...)
	if err != nil {
		slog.Info("api.buildNotifier: SMS notifier not configured, review notifications disabled", "reason", err)
		return notify.NewNoopNotifier()
	}
	slog.Info("api.buildNotifier: SMS notifier configured")
	return n
}
