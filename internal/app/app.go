package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/alex-user-go/availgrid/internal/config"
	"github.com/alex-user-go/availgrid/internal/handler"
	"github.com/alex-user-go/availgrid/internal/middleware"
	"github.com/alex-user-go/availgrid/internal/obs"
	"github.com/alex-user-go/availgrid/internal/proxy"
	"github.com/alex-user-go/availgrid/internal/search"
	"github.com/alex-user-go/availgrid/internal/search/ratelimit"
	"github.com/alex-user-go/availgrid/internal/supplier"
)

// Run initializes and runs the application.
func Run() error {
	// Initialize logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize metrics
	metrics := obs.NewMetrics()

	// Proxy client used both by the orchestrator and the pass-through endpoint
	proxyClient := proxy.NewHTTPClient(cfg.ProxyTimeout)

	// Pace the sequential upstream calls so the availability service never
	// sees bursts.
	pacer := rate.NewLimiter(rate.Limit(cfg.UpstreamRPS), 1)

	runner := search.NewRunner(proxyClient, pacer, metrics, logger)

	// Per-IP API rate limiter
	limiter := ratelimit.New(cfg.RateLimitPerMin, time.Minute)
	defer limiter.Close()

	h := handler.New(runner, supplier.Default, cfg.CacheTTL, limiter, metrics, logger)

	// Setup routes with logging middleware
	mux := http.NewServeMux()
	mux.HandleFunc("POST /search", h.SearchHandler)
	mux.HandleFunc("GET /progress", h.ProgressHandler)
	mux.HandleFunc("POST /api/proxy", proxy.Handler(proxyClient, logger))
	mux.HandleFunc("GET /healthz", obs.HealthHandler(logger))
	mux.Handle("GET /metrics", metrics.MetricsHandler())

	wrappedHandler := middleware.Logging(logger)(mux)

	// Configure server
	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     wrappedHandler,
		ReadTimeout: 10 * time.Second,
		// No write timeout: a multi-range run holds the connection for as
		// long as its sequential upstream calls take.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
		return err
	}

	logger.Info("server stopped")
	return nil
}
