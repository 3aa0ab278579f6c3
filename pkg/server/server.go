// Package server implements serve mode: a small HTTP service that lints
// batches of commit messages, typically called from a CI job or a push
// gateway.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ssport/commitcheck/pkg/config"
	"github.com/ssport/commitcheck/pkg/linter"
	"github.com/ssport/commitcheck/pkg/telemetry"
)

// Server is the lint service. The active linter is swapped atomically when
// the configuration reloads, so in-flight requests keep the rule set they
// started with.
type Server struct {
	loader  *config.Loader
	logger  *slog.Logger
	metrics *Metrics

	linter   atomic.Pointer[linter.Linter]
	maxBatch atomic.Int64

	httpServer *http.Server
	listener   net.Listener
}

// New builds a Server from an already-loaded config.Loader.
func New(ctx context.Context, loader *config.Loader, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := loader.Current()
	if cfg == nil {
		return nil, errors.New("config loader has no loaded configuration")
	}

	l, err := linter.New(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("build linter: %w", err)
	}

	s := &Server{
		loader:  loader,
		logger:  logger,
		metrics: NewMetrics(),
	}
	s.linter.Store(l)
	s.maxBatch.Store(int64(cfg.Server.MaxBatch))
	return s, nil
}

// Start begins listening and watching the configuration. It returns once
// the listener is bound; request serving continues in the background.
func (s *Server) Start(addr string) error {
	if err := s.loader.Watch(s.onConfigChange); err != nil {
		return fmt.Errorf("watch config: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("POST /v1/lint", otelhttp.NewHandler(http.HandlerFunc(s.handleLint), "lint"))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.withRequestID(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server stopped", "error", err)
		}
	}()

	s.logger.Info("lint service listening", "addr", listener.Addr().String())
	return nil
}

// Addr returns the bound address, useful when addr was ":0".
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the service down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.loader.Close(); err != nil {
		s.logger.Warn("closing config watcher", "error", err)
	}
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// onConfigChange rebuilds the linter from a reloaded configuration. A
// config that no longer builds (e.g. a broken Rego policy) keeps the old
// linter running.
func (s *Server) onConfigChange(cfg *config.Config) {
	l, err := linter.New(context.Background(), cfg, s.logger)
	if err != nil {
		s.metrics.RecordConfigReload(false)
		s.logger.Error("config reload failed, keeping previous rule set", "error", err)
		return
	}
	s.linter.Store(l)
	s.maxBatch.Store(int64(cfg.Server.MaxBatch))
	s.metrics.RecordConfigReload(true)
	s.logger.Info("configuration reloaded")
}

// lintRequest is the /v1/lint payload.
type lintRequest struct {
	Messages []linter.Input `json:"messages"`
}

func (s *Server) handleLint(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req lintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if len(req.Messages) == 0 {
		s.writeError(w, r, http.StatusBadRequest, "messages must not be empty")
		return
	}
	if max := s.maxBatch.Load(); int64(len(req.Messages)) > max {
		s.writeError(w, r, http.StatusBadRequest, fmt.Sprintf("batch exceeds limit of %d messages", max))
		return
	}

	report := s.linter.Load().LintBatch(r.Context(), req.Messages)

	trace.SpanFromContext(r.Context()).SetAttributes(
		attribute.Int("lint.batch_size", len(req.Messages)),
		attribute.Int("lint.errors", report.Errors),
		attribute.Int("lint.warnings", report.Warnings),
	)

	for _, mr := range report.Messages {
		s.metrics.RecordMessage(mr.OK(false))
		for _, result := range mr.Results {
			s.metrics.RecordViolation(result.Rule)
		}
		telemetry.RecordCheck(r.Context(), telemetry.CheckMetrics{
			Source:     "server",
			Passed:     mr.OK(false),
			Violations: countByRule(mr),
		})
	}
	s.metrics.RecordLintDuration(time.Since(start))
	s.metrics.RecordHTTPRequest("/v1/lint", http.StatusOK, time.Since(start))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(report); err != nil {
		s.logger.Error("encode lint response", "error", err, "request_id", requestID(r))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.metrics.RecordHTTPRequest(r.URL.Path, status, 0)
	s.logger.Warn("request rejected", "status", status, "reason", msg, "request_id", requestID(r))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

type contextKey string

const requestIDKey contextKey = "request_id"

// withRequestID tags every request with a UUID, echoed in the response and
// available to handlers for log correlation.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func requestID(r *http.Request) string {
	if id, ok := r.Context().Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

func countByRule(mr linter.MessageReport) map[string]int {
	if len(mr.Results) == 0 {
		return nil
	}
	counts := make(map[string]int, len(mr.Results))
	for _, result := range mr.Results {
		counts[result.Rule]++
	}
	return counts
}
