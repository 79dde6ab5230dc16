package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ethpandaops/status-stream/internal/backoff"
	"github.com/ethpandaops/status-stream/internal/collector"
	"github.com/ethpandaops/status-stream/internal/config"
	"github.com/ethpandaops/status-stream/internal/credentials"
	"github.com/ethpandaops/status-stream/internal/leader"
	"github.com/ethpandaops/status-stream/internal/ratelimit"
	"github.com/ethpandaops/status-stream/internal/recovery"
	"github.com/ethpandaops/status-stream/internal/redis"
	"github.com/ethpandaops/status-stream/internal/server"
	"github.com/ethpandaops/status-stream/internal/sink"
	"github.com/ethpandaops/status-stream/internal/stream"
	"github.com/ethpandaops/status-stream/internal/timeline"
	"github.com/ethpandaops/status-stream/internal/version"
)

// infrastructure holds core infrastructure components.
type infrastructure struct {
	redisClient redis.Client
	elector     leader.Elector
}

// services holds application services. collector and sink are nil when
// the collector is disabled, limiter when rate limiting is.
type services struct {
	stream    *stream.Handler
	collector *collector.Collector
	sink      sink.Sink
	limiter   ratelimit.Service
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve streams and run the background collector",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	logger := setupLogger()

	// Create application context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := loadAndValidateConfig(logger, configPath)
	if err != nil {
		logger.WithError(err).Fatal("Configuration error")
	}

	infra, err := setupInfrastructure(ctx, logger, cfg)
	if err != nil {
		logger.WithError(err).Fatal("Infrastructure setup failed")
	}

	svc, err := setupServices(ctx, logger, cfg, infra)
	if err != nil {
		logger.WithError(err).Fatal("Service setup failed")
	}

	srv, err := startServer(ctx, logger, cfg, svc)
	if err != nil {
		logger.WithError(err).Fatal("Server startup failed")
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	logger.WithField("signal", sig.String()).Info("Received shutdown signal")

	// Ends open streams with their terminal chunk so the server can drain.
	cancel()

	shutdownGracefully(logger, cfg, srv, svc, infra)

	return nil
}

// setupLogger creates and configures the application logger.
func setupLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	logger.WithFields(logrus.Fields{
		"version":    version.Short(),
		"git_commit": version.GitCommit,
		"build_date": version.BuildDate,
	}).Info("Starting...")

	return logger
}

// loadAndValidateConfig loads the configuration file, validates it and
// applies its log level.
func loadAndValidateConfig(logger *logrus.Logger, path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	level, err := logrus.ParseLevel(cfg.LogLevel())
	if err != nil {
		logger.WithError(err).Warn("Invalid log level, using info")

		level = logrus.InfoLevel
	}

	logger.SetLevel(level)

	logger.WithFields(logrus.Fields{
		"addr":        cfg.Server.Address(),
		"log_level":   level.String(),
		"credentials": len(cfg.Remote.Credentials),
		"collector":   cfg.Collector.Enabled,
	}).Info("Configuration loaded")

	return cfg, nil
}

// setupInfrastructure initializes Redis and leader election.
func setupInfrastructure(
	ctx context.Context,
	logger *logrus.Logger,
	cfg *config.Config,
) (*infrastructure, error) {
	redisClient := redis.NewClient(logger, cfg.Redis)

	if err := redisClient.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start Redis client: %w", err)
	}

	elector := leader.NewElector(logger, cfg.Leader, redisClient)

	if err := elector.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start leader election: %w", err)
	}

	return &infrastructure{
		redisClient: redisClient,
		elector:     elector,
	}, nil
}

// setupServices builds the stream handler and, when enabled, the rate
// limiter and the collector with its sink.
func setupServices(
	ctx context.Context,
	logger *logrus.Logger,
	cfg *config.Config,
	infra *infrastructure,
) (*services, error) {
	svc := &services{}

	var err error

	svc.stream, err = stream.NewHandler(logger, cfg.Stream, cfg.Remote)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream handler: %w", err)
	}

	if cfg.RateLimiting.Enabled {
		svc.limiter = ratelimit.NewService(logger, infra.redisClient.GetClient(), cfg.RateLimiting.FailureMode)

		if err := svc.limiter.Start(ctx); err != nil {
			return nil, fmt.Errorf("failed to start rate limiter: %w", err)
		}
	}

	if !cfg.Collector.Enabled {
		logger.Info("Collector disabled")

		return svc, nil
	}

	svc.sink, err = sink.New(logger, cfg.Sink, infra.redisClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create sink: %w", err)
	}

	if err := svc.sink.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start sink: %w", err)
	}

	// The collector has its own rotator and never shares the streams' cursor.
	rotator, err := credentials.NewRotator(cfg.Remote.Credentials)
	if err != nil {
		return nil, fmt.Errorf("failed to create rotator: %w", err)
	}

	svc.collector = collector.New(
		logger,
		cfg.Collector,
		timeline.NewClient(logger, cfg.Remote, rotator.Next()),
		recovery.NewPolicy(logger, "collector", rotator, cfg.Collector.Cooldown, backoff.Sleep),
		svc.sink,
		collector.NewRedisGate(infra.redisClient, cfg.Collector.GateKey(), !cfg.Collector.StartPaused),
		infra.elector,
		infra.redisClient,
	)

	if err := svc.collector.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start collector: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"sink":        cfg.Sink.Type,
		"credentials": rotator.Len(),
		"cooldown":    cfg.Collector.Cooldown.String(),
	}).Info("Collector started")

	return svc, nil
}

// startServer creates and starts the HTTP server.
func startServer(
	ctx context.Context,
	logger *logrus.Logger,
	cfg *config.Config,
	svc *services,
) (*server.Server, error) {
	deps := server.Dependencies{
		Stream:  svc.stream,
		Limiter: svc.limiter,
	}

	// Assigned only when set so a disabled collector stays a nil interface.
	if svc.collector != nil {
		deps.Jobs = svc.collector
	}

	srv, err := server.New(ctx, logger, cfg, deps)
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("HTTP server error")
		}
	}()

	return srv, nil
}

// shutdownGracefully performs graceful shutdown of all services.
// Shutdown order:
// 1. HTTP server (stop accepting requests).
// 2. Collector, then its sink.
// 3. Rate limiter.
// 4. Leader election (release leadership lock).
// 5. Redis client (close connections).
func shutdownGracefully(
	logger *logrus.Logger,
	cfg *config.Config,
	srv *server.Server,
	svc *services,
	infra *infrastructure,
) {
	logger.Info("Initiating graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Error during server shutdown")
	}

	if svc.collector != nil {
		if err := svc.collector.Stop(); err != nil {
			logger.WithError(err).Error("Error stopping collector")
		}
	}

	if svc.sink != nil {
		if err := svc.sink.Stop(); err != nil {
			logger.WithError(err).Error("Error stopping sink")
		}
	}

	if svc.limiter != nil {
		if err := svc.limiter.Stop(); err != nil {
			logger.WithError(err).Error("Error stopping rate limiter")
		}
	}

	if err := infra.elector.Stop(); err != nil {
		logger.WithError(err).Error("Error stopping leader election")
	}

	if err := infra.redisClient.Stop(); err != nil {
		logger.WithError(err).Error("Error stopping Redis client")
	}

	logger.Info("Server stopped gracefully")
}
