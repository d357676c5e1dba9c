// Package twincore provides the base HTTP server, middleware chain, metrics
// and response helpers for the Back-S.O.S twin.
package twincore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Config holds the twin's server configuration.
type Config struct {
	Name     string // twin name for logging and metrics
	Port     int
	Latency  time.Duration
	FailRate float64
	SeedFile string
	Verbose  bool
}

// Twin wraps a chi router with the common middleware stack and provides
// lifecycle management and runtime configuration.
type Twin struct {
	Router  *chi.Mux
	Logger  *slog.Logger
	Metrics *Metrics

	mu  sync.RWMutex // protects cfg during runtime updates
	cfg Config
	mw  *Middleware
}

// New creates a Twin logging JSON to stdout.
func New(cfg Config) *Twin {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter creates a Twin whose logger writes to w.
func NewWithWriter(cfg Config, w io.Writer) *Twin {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})).
		With("twin", cfg.Name)

	t := &Twin{
		Router:  chi.NewRouter(),
		Logger:  logger,
		Metrics: NewMetrics(),
		cfg:     cfg,
	}
	t.mw = NewMiddleware(t.Config, logger, t.Metrics)

	// Latency and failure middleware are always mounted so runtime config
	// updates take effect immediately; both no-op at zero values.
	t.Router.Use(chimw.RequestID)
	t.Router.Use(chimw.RealIP)
	t.Router.Use(t.mw.CORS)
	t.Router.Use(t.Metrics.Instrument)
	t.Router.Use(t.mw.RequestLog)
	t.Router.Use(t.mw.LatencyInjection)
	t.Router.Use(t.mw.RandomFailure)

	return t
}

// Config returns a copy of the current configuration.
func (t *Twin) Config() Config {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cfg
}

// Middleware returns the middleware instance (request log, faults, idempotency).
func (t *Twin) Middleware() *Middleware {
	return t.mw
}

// GetConfig returns the current runtime configuration as a map.
func (t *Twin) GetConfig() map[string]any {
	cfg := t.Config()
	return map[string]any{
		"name":      cfg.Name,
		"port":      cfg.Port,
		"latency":   cfg.Latency.String(),
		"fail_rate": cfg.FailRate,
		"verbose":   cfg.Verbose,
	}
}

// UpdateConfig updates latency, fail_rate and verbose at runtime.
// All fields are validated before any are applied.
func (t *Twin) UpdateConfig(updates map[string]any) error {
	type configUpdate struct {
		latency  *time.Duration
		failRate *float64
		verbose  *bool
	}
	var cu configUpdate

	for k, v := range updates {
		switch k {
		case "latency":
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("latency must be a duration string")
			}
			d, err := time.ParseDuration(s)
			if err != nil {
				return fmt.Errorf("invalid latency duration: %w", err)
			}
			if d < 0 {
				return fmt.Errorf("latency must not be negative")
			}
			cu.latency = &d
		case "fail_rate":
			f, ok := v.(float64)
			if !ok {
				return fmt.Errorf("fail_rate must be a number")
			}
			if f < 0 || f > 1 {
				return fmt.Errorf("fail_rate must be between 0.0 and 1.0")
			}
			cu.failRate = &f
		case "verbose":
			b, ok := v.(bool)
			if !ok {
				return fmt.Errorf("verbose must be a boolean")
			}
			cu.verbose = &b
		case "name", "port":
			return fmt.Errorf("%s cannot be changed at runtime", k)
		default:
			return fmt.Errorf("unknown config key: %s", k)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if cu.latency != nil {
		t.cfg.Latency = *cu.latency
	}
	if cu.failRate != nil {
		t.cfg.FailRate = *cu.failRate
	}
	if cu.verbose != nil {
		t.cfg.Verbose = *cu.verbose
	}
	return nil
}

// Serve listens on the configured port until ctx is cancelled, then shuts
// down gracefully.
func (t *Twin) Serve(ctx context.Context) error {
	cfg := t.Config()
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      t.Router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		t.Logger.Info("starting twin", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listening on %s: %w", srv.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	t.Logger.Info("shutting down twin")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// ServeHTTP implements http.Handler so Twin can be used directly in tests.
func (t *Twin) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	t.Router.ServeHTTP(w, r)
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// Error writes an error response in the reporting API's envelope.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]any{
		"success":     false,
		"error":       message,
		"status_code": status,
	})
}
