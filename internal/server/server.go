package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/status-stream/internal/config"
	"github.com/ethpandaops/status-stream/internal/handlers"
	"github.com/ethpandaops/status-stream/internal/headers"
	"github.com/ethpandaops/status-stream/internal/middleware"
	"github.com/ethpandaops/status-stream/internal/ratelimit"
	"github.com/ethpandaops/status-stream/web"
)

// Server represents the HTTP server.
type Server struct {
	httpServer *http.Server
	logger     logrus.FieldLogger
}

// Dependencies are the services the routes are served from. Jobs is nil
// when the collector is disabled and Limiter is nil when rate limiting is.
type Dependencies struct {
	Stream  http.Handler
	Jobs    handlers.JobController
	Limiter ratelimit.Service
}

// New creates a new HTTP server with all routes and middleware. Request
// contexts derive from ctx, so cancelling it ends every open stream.
func New(
	ctx context.Context,
	logger logrus.FieldLogger,
	cfg *config.Config,
	deps Dependencies,
) (*Server, error) {
	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	mux := http.NewServeMux()

	// Health endpoint (no middleware needed for simple health check)
	mux.HandleFunc("GET /health", handlers.Health())
	logger.WithField("route", "GET /health").Info("Registered route")

	// Metrics endpoint (Prometheus format)
	mux.Handle("GET /metrics", promhttp.Handler())
	logger.WithField("route", "GET /metrics").Info("Registered route")

	for _, pattern := range []string{"GET /v1/public_timeline", "GET /public_timeline"} {
		mux.Handle(pattern, deps.Stream)
		logger.WithField("route", pattern).Info("Registered route")
	}

	jobHandler := handlers.Job(logger, tmpl, deps.Jobs)
	mux.Handle("GET /job/{$}", jobHandler)
	mux.Handle("GET /job/{action}", jobHandler)
	logger.WithFields(logrus.Fields{
		"route":   "GET /job/{action}",
		"enabled": deps.Jobs != nil,
	}).Info("Registered route")

	// Everything else gets the index page (must be last)
	mux.Handle("/", handlers.Index(logger, tmpl, handlers.DefaultEndpoints))
	logger.Info("Registered route: /")

	headerManager, err := headers.NewManager(cfg.Headers.Policies)
	if err != nil {
		return nil, fmt.Errorf("failed to create header manager: %w", err)
	}

	// Apply middleware chain: Headers → RateLimit → Logging → Metrics → CORS → Recovery
	var handler http.Handler = middleware.Recovery(logger)(mux)
	handler = middleware.CORS()(handler)
	handler = middleware.Metrics()(handler)
	handler = middleware.Logging(logger)(handler)

	if cfg.RateLimiting.Enabled && deps.Limiter != nil {
		handler = middleware.RateLimit(logger, cfg.RateLimiting, deps.Limiter)(handler)
		logger.WithField("rules", len(cfg.RateLimiting.Rules)).Info("Rate limiting enabled")
	}

	handler = middleware.Headers(headerManager, logger)(handler)

	httpServer := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	return &Server{
		httpServer: httpServer,
		logger:     logger,
	}, nil
}

// Start starts the HTTP server (blocking call).
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("Starting HTTP server")

	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on l (blocking call).
func (s *Server) Serve(l net.Listener) error {
	s.logger.WithField("addr", l.Addr().String()).Info("Starting HTTP server")

	return s.httpServer.Serve(l)
}

// Shutdown gracefully shuts down the server. Streams only end once the
// context passed to New is cancelled.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")

	return s.httpServer.Shutdown(ctx)
}
