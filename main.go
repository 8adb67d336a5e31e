package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	appLogger "github.com/FACorreiaa/isitsafe/app/logger"
	"github.com/FACorreiaa/isitsafe/app/observability/metrics"
	"github.com/FACorreiaa/isitsafe/app/tracer"
	"github.com/FACorreiaa/isitsafe/config"
	"github.com/FACorreiaa/isitsafe/internal/container"
	"github.com/FACorreiaa/isitsafe/internal/router"
)

const serviceName = "isitsafe"

const (
	defaultRequestTimeout = 60 * time.Second
	writeTimeoutMargin    = 5 * time.Second
	metricsWriteTimeout   = 10 * time.Second
)

func main() {
	// Standard log until slog is configured.
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}

	logger := appLogger.New(os.Getenv("APP_ENV"), os.Stdout)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Application exited with error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Application shut down complete.")
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	providers, err := tracer.InitTracingAndMetrics(serviceName)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.Any("error", err))
		}
	}()
	if err := metrics.InitAppMetrics(); err != nil {
		return err
	}

	deps, err := container.NewContainer(ctx, &cfg, metrics.Get(), logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	r := newHandler(&cfg, deps, logger)

	servers := []*http.Server{newAPIServer(&cfg, r, logger)}
	if cfg.Handlers.Prometheus.Enabled {
		metricsMux := chi.NewMux()
		metricsMux.Handle("/metrics", providers.MetricsHandler)
		servers = append(servers, newServer(fmt.Sprintf(":%s", cfg.Handlers.Prometheus.Port), metricsMux, metricsWriteTimeout, logger))
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			logger.Info("Starting HTTP server", slog.String("address", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server %s: %w", srv.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received, starting graceful shutdown...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("shutdown %s: %w", srv.Addr, err))
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

// newHandler mounts the API router behind the server-wide middleware.
func newHandler(cfg *config.Config, deps *container.Container, logger *slog.Logger) http.Handler {
	mainRouter := router.SetupRouter(&router.Config{
		CityHandler:    deps.CityHandler,
		AllowedOrigins: cfg.Handlers.ExternalAPI.AllowedOrigins,
	})

	r := chi.NewMux()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appLogger.StructuredLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(middleware.Timeout(requestTimeout(cfg)))
	r.Use(middleware.Compress(5, "application/json"))
	r.Mount("/", mainRouter)
	return r
}

// requestTimeout is how long a request may run before the timeout middleware answers 504.
func requestTimeout(cfg *config.Config) time.Duration {
	if cfg.Server.Timeout <= 0 {
		return defaultRequestTimeout
	}
	return cfg.Server.Timeout
}

// newAPIServer sets the write deadline past the request timeout so the
// middleware's 504 still reaches the client.
func newAPIServer(cfg *config.Config, h http.Handler, logger *slog.Logger) *http.Server {
	return newServer(fmt.Sprintf(":%s", cfg.Server.HTTPPort), h, requestTimeout(cfg)+writeTimeoutMargin, logger)
}

func newServer(addr string, h http.Handler, writeTimeout time.Duration, logger *slog.Logger) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
}
