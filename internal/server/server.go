// Package server exposes race evaluation and health checks over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourusername/handicapper/internal/betting"
	"github.com/yourusername/handicapper/internal/metrics"
	"github.com/yourusername/handicapper/internal/models"
	"github.com/yourusername/handicapper/internal/service"
)

// maxBodyBytes bounds request bodies on the evaluation endpoints.
const maxBodyBytes = 1 << 20

// Evaluator defines the race evaluation operations served over HTTP.
type Evaluator interface {
	Evaluate(ctx context.Context, race *models.RaceCard, bankroll float64, filters *betting.Filters) (*service.Evaluation, error)
	EvaluateBatch(ctx context.Context, requests []service.EvaluationRequest) ([]service.BatchResult, error)
	Stats() service.CacheStats
}

// ReadinessReporter reports whether an optional dependency is ready.
type ReadinessReporter interface {
	IsReady() bool
}

// HealthResponse represents the JSON response for health check endpoints.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp,omitempty"`
	Version   string `json:"version,omitempty"`
	Commit    string `json:"commit,omitempty"`
}

// ReadyResponse represents the JSON response for readiness check endpoints.
type ReadyResponse struct {
	Status   string            `json:"status"`
	Service  string            `json:"service"`
	Checks   map[string]string `json:"checks,omitempty"`
	Duration string            `json:"duration,omitempty"`
}

// ErrorResponse is returned for failed API requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server serves the evaluation API plus health and metrics endpoints.
type Server struct {
	serviceName string
	version     string
	commit      string
	addr        string
	metricsPath string
	server      *http.Server
	logger      *logrus.Logger
	evaluator   Evaluator
	calibration ReadinessReporter
	limiter     *rate.Limiter
	mu          sync.RWMutex
	ready       bool
}

// Config holds the configuration for the server.
type Config struct {
	ServiceName string
	Version     string
	Commit      string
	Addr        string
	// MetricsPath is where Prometheus metrics are served. Empty disables them.
	MetricsPath string
	// RequestsPerSecond limits the evaluation endpoints. Zero means unlimited.
	RequestsPerSecond float64
	Burst             int
	Logger            *logrus.Logger
	Evaluator         Evaluator
	// Calibration is reported on /ready but never fails readiness.
	Calibration ReadinessReporter
}

// NewServer creates a new server.
func NewServer(cfg Config) *Server {
	addr := cfg.Addr
	if addr == "" {
		addr = ":" + os.Getenv("PORT")
	}
	if addr == ":" {
		addr = ":8080"
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	log := cfg.Logger
	if log == nil {
		log = logrus.New()
	}

	return &Server{
		serviceName: cfg.ServiceName,
		version:     cfg.Version,
		commit:      cfg.Commit,
		addr:        addr,
		metricsPath: cfg.MetricsPath,
		logger:      log,
		evaluator:   cfg.Evaluator,
		calibration: cfg.Calibration,
		limiter:     rate.NewLimiter(limit, burst),
	}
}

// SetReady marks the server as ready to accept traffic.
func (s *Server) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

// IsReady returns whether the server is ready.
func (s *Server) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Handler returns the HTTP handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.HandleFunc("/live", s.handleLive)
	if s.metricsPath != "" {
		mux.Handle(s.metricsPath, metrics.Handler())
	}
	if s.evaluator != nil {
		mux.Handle("/v1/evaluate", s.rateLimited(http.HandlerFunc(s.handleEvaluate)))
		mux.Handle("/v1/evaluate/batch", s.rateLimited(http.HandlerFunc(s.handleEvaluateBatch)))
		mux.HandleFunc("/v1/stats", s.handleStats)
	}
	return mux
}

// Start starts the server in the background and shuts it down when ctx is done.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		s.logger.WithFields(logrus.Fields{
			"addr":    s.addr,
			"service": s.serviceName,
		}).Info("Evaluation server starting")

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("Evaluation server error")
		}
	}()

	// Wait for context cancellation
	go func() {
		<-ctx.Done()
		if err := s.Shutdown(); err != nil {
			s.logger.WithError(err).Error("Evaluation server shutdown failed")
		}
	}()

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	if s.server == nil {
		return nil
	}

	s.logger.Info("Evaluation server shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

func (s *Server) rateLimited(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeJSON(w, http.StatusTooManyRequests, ErrorResponse{Error: "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleHealth handles the /health endpoint - basic liveness check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Service:   s.serviceName,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   s.version,
		Commit:    s.commit,
	})
}

// handleLive handles the /live endpoint - kubernetes liveness probe.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Service: s.serviceName,
	})
}

// handleReady handles the /ready endpoint.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	checks := make(map[string]string)
	allHealthy := true

	// Check if manually marked as not ready
	if !s.IsReady() {
		allHealthy = false
		checks["service"] = "not_ready"
	} else {
		checks["service"] = "ok"
	}

	if s.calibration != nil {
		if s.calibration.IsReady() {
			checks["calibration"] = "ready"
		} else {
			checks["calibration"] = "uncalibrated"
		}
	}

	response := ReadyResponse{
		Service:  s.serviceName,
		Checks:   checks,
		Duration: time.Since(start).String(),
	}

	if allHealthy {
		response.Status = "ok"
		writeJSON(w, http.StatusOK, response)
		return
	}
	response.Status = "not_ready"
	writeJSON(w, http.StatusServiceUnavailable, response)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
