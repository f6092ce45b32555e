package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"tradesage/internal/api/health"
	"tradesage/internal/metrics"
	"tradesage/pkg/errors"
	"tradesage/pkg/logger"
)

// ServerConfig contains configuration for HTTP server
type ServerConfig struct {
	Port         int
	ServiceName  string
	Version      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server wraps HTTP server with lifecycle management
type Server struct {
	httpServer *http.Server
	log        *logger.Logger
}

// NewServer creates and configures HTTP server with all routes
func NewServer(cfg ServerConfig, handler *Handler, healthHandler *health.Handler, log *logger.Logger) *Server {
	mux := NewRouter(cfg, handler, healthHandler)

	port := 8080
	if cfg.Port > 0 {
		port = cfg.Port
	}

	readTimeout := 10 * time.Second
	if cfg.ReadTimeout > 0 {
		readTimeout = cfg.ReadTimeout
	}
	// Pipeline runs hold the connection for several model calls, so the
	// write timeout is much longer than usual.
	writeTimeout := 120 * time.Second
	if cfg.WriteTimeout > 0 {
		writeTimeout = cfg.WriteTimeout
	}

	log.Infof("HTTP server configured on port %d", port)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		log:        log,
	}
}

// NewRouter builds the route table. Split out from NewServer so tests can
// exercise routing without binding a port.
func NewRouter(cfg ServerConfig, handler *Handler, healthHandler *health.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	// Analysis endpoints
	mux.HandleFunc("POST /process", handler.HandleProcess)
	mux.HandleFunc("GET /dashboard", handler.HandleDashboard)
	mux.HandleFunc("GET /hypothesis/{id}", handler.HandleGetHypothesis)

	// Price prediction endpoints
	mux.HandleFunc("GET /ai/predict/{ticker}", handler.HandlePredict)
	mux.HandleFunc("GET /ai/realtime/{ticker}", handler.HandleRealtime)
	mux.HandleFunc("POST /ai/analyze", handler.HandleAnalyze)

	// Health check endpoints (Kubernetes probes)
	if healthHandler != nil {
		mux.HandleFunc("GET /health", healthHandler.HandleHealth)
		mux.HandleFunc("GET /ready", healthHandler.HandleReadiness)
		mux.HandleFunc("GET /live", healthHandler.HandleLiveness)
	}

	// Prometheus metrics endpoint
	mux.Handle("GET /metrics", metrics.Handler())

	// Root endpoint (service info)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"service":"%s","version":"%s","status":"running"}`,
			cfg.ServiceName, cfg.Version)
	})

	return mux
}

// Start begins listening for HTTP requests
// Blocks until server is stopped or encounters an error
func (s *Server) Start() error {
	s.log.Infof("Starting HTTP server on %s", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "http server failed")
	}

	return nil
}

// Shutdown gracefully stops the HTTP server
// Waits for active connections to complete within timeout
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Stopping HTTP server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "http server shutdown failed")
	}

	s.log.Info("✓ HTTP server stopped")
	return nil
}
