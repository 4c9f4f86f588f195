// Package server exposes the limit engine over HTTP.
//
// Routes:
//
//	POST /tool     MCP-style tool call
//	POST /analyze  full analysis of a limits.Request
//	GET  /examples built-in example catalog
//	GET  /schema   tool schema for agent registration
//	GET  /health   liveness check
//	GET  /metrics  Prometheus metrics
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/njchilds90/golimits/internal/config"
	"github.com/njchilds90/golimits/internal/telemetry"
	"github.com/njchilds90/golimits/limits"
)

const requestIDHeader = "X-Request-ID"

type Server struct {
	cfg      config.Server
	engine   limits.Engine
	analyzer *limits.Analyzer
	metrics  *telemetry.Metrics
	logger   *zap.Logger
	limiter  *rate.Limiter
}

// New builds a server. A nil logger discards output and nil metrics get a
// private registry.
func New(cfg config.Server, engine limits.Engine, analyzer *limits.Analyzer, metrics *telemetry.Metrics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = telemetry.NewMetrics()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	return &Server{
		cfg:      cfg,
		engine:   engine,
		analyzer: analyzer,
		metrics:  metrics,
		logger:   logger,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst),
	}
}

// Handler returns the routed handler with request IDs, panic recovery,
// metrics and rate limiting applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/tool", s.wrap("/tool", true, s.handleTool))
	mux.Handle("/analyze", s.wrap("/analyze", true, s.handleAnalyze))
	mux.Handle("/examples", s.wrap("/examples", false, s.handleExamples))
	mux.Handle("/schema", s.wrap("/schema", false, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, MCPToolSpec())
	}))
	mux.Handle("/health", s.wrap("/health", false, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}))
	mux.Handle("/metrics", s.metrics.Handler())
	return mux
}

// Run listens on the configured address until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled, then shuts down
// gracefully within the configured wait.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          zap.NewStdLog(s.logger),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("golimits server listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownWait)
		defer cancel()
		s.logger.Info("shutting down", zap.Duration("wait", s.cfg.ShutdownWait))
		if err := srv.Shutdown(sctx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

type statusRecorder struct {
	http.ResponseWriter
	code    int
	written bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.written {
		r.code = code
		r.written = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.written = true
	return r.ResponseWriter.Write(b)
}

func (s *Server) wrap(route string, limited bool, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		start := time.Now()

		defer func() {
			if p := recover(); p != nil {
				s.logger.Error("panic in handler",
					zap.String("route", route),
					zap.String("request_id", id),
					zap.Any("panic", p),
					zap.ByteString("stack", debug.Stack()))
				if !rec.written {
					writeJSON(rec, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
				}
			}
			s.metrics.ObserveRequest(route, rec.code)
			s.logger.Debug("request",
				zap.String("route", route),
				zap.String("method", r.Method),
				zap.String("request_id", id),
				zap.Int("code", rec.code),
				zap.Duration("elapsed", time.Since(start)))
		}()

		if limited && !s.limiter.Allow() {
			writeJSON(rec, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
			return
		}
		h(rec, r)
	})
}

func (s *Server) handleTool(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req ToolRequest
	if err := s.decode(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s.HandleToolCall(r.Context(), req))
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req limits.Request
	if err := s.decode(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	a, err := s.analyzer.Analyze(r.Context(), req)
	s.metrics.ObserveAnalysis(err)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, a)
	case limits.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		s.logger.Error("analysis failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func (s *Server) handleExamples(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, limits.Examples())
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("invalid JSON: trailing data")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
