package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/thirdeyevisualz/studio/cmd/mainconfig"
	"github.com/thirdeyevisualz/studio/internal/analytics"
	"github.com/thirdeyevisualz/studio/internal/api/router"
	"github.com/thirdeyevisualz/studio/internal/app/bootstrap"
	"github.com/thirdeyevisualz/studio/internal/availability"
	"github.com/thirdeyevisualz/studio/internal/booking"
	"github.com/thirdeyevisualz/studio/internal/clock"
	appconfig "github.com/thirdeyevisualz/studio/internal/config"
	httpmiddleware "github.com/thirdeyevisualz/studio/internal/http/middleware"
	"github.com/thirdeyevisualz/studio/internal/observability/metrics"
	"github.com/thirdeyevisualz/studio/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting studio API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, cleanup, err := buildServer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build server", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

func buildServer(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*http.Server, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	clk := clock.NewSystem(bootstrap.StudioLocation(cfg, logger))

	var awsCfg *aws.Config
	if mainconfig.NeedsAWS(cfg) {
		loaded, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, cleanup, fmt.Errorf("load aws config: %w", err)
		}
		awsCfg = &loaded
	}

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		closers = append(closers, func() { _ = redisClient.Close() })
	}
	pool := bootstrap.ConnectPostgresPool(ctx, cfg.DatabaseURL, logger)
	if pool != nil {
		closers = append(closers, pool.Close)
	}
	sqlDB, err := bootstrap.OpenSQL(cfg.DatabaseURL)
	if err != nil {
		return nil, cleanup, err
	}
	if sqlDB != nil {
		closers = append(closers, func() { _ = sqlDB.Close() })
	}

	source, stopSource, err := bootstrap.BuildAvailabilitySource(cfg, pool, clk, logger)
	if err != nil {
		return nil, cleanup, err
	}
	closers = append(closers, stopSource)

	metricsHandler, submissionMetrics, registry := setupMetrics()
	var tracker analytics.Tracker = analytics.Nop{}
	if cfg.EnableAnalytics {
		tracker = analytics.NewPrometheusTracker(registry, logger)
	}

	sessions := availability.NewSessions(source, clk, cfg.CalendarSessionTTL, logger)
	store := bootstrap.BuildRateLimitStore(cfg, redisClient, awsCfg, clk, logger)
	dispatcher, provider := bootstrap.BuildDispatcher(cfg, awsCfg, logger)
	logger.Info("notification dispatcher ready", "provider", provider)

	svc := booking.NewService(booking.Deps{
		Gate:       bootstrap.BuildGate(cfg, store, clk, logger),
		Dispatcher: dispatcher,
		Sessions:   sessions,
		Source:     source,
		Business:   bootstrap.BusinessProfile(cfg),
		Tracker:    tracker,
		Audit:      bootstrap.BuildAuditLogger(sqlDB),
		Metrics:    submissionMetrics,
		Clock:      clk,
		Options: booking.Options{
			ContactEnabled: cfg.EnableContactForm,
			BookingEnabled: cfg.EnableBookingCalendar,
		},
		Logger: logger,
	})

	throttle := httpmiddleware.NewRateLimiter(cfg.HTTPRateLimitRPS, cfg.HTTPRateLimitBurst)
	bgCtx, cancelBackground := context.WithCancel(ctx)
	closers = append(closers, cancelBackground)
	go sessions.Run(bgCtx, time.Minute)
	go throttle.Run(bgCtx, 5*time.Minute)
	go reportSessions(bgCtx, sessions, submissionMetrics)

	handler := router.New(&router.Config{
		Logger:                logger,
		AvailabilityHandler:   availability.NewHandler(source, sessions, clk, logger),
		BookingHandler:        booking.NewHandler(svc, logger),
		AnalyticsHandler:      analytics.NewHandler(tracker),
		MetricsHandler:        metricsHandler,
		CORSAllowedOrigins:    cfg.CORSAllowedOrigins,
		Throttle:              throttle,
		EnableBookingCalendar: cfg.EnableBookingCalendar,
		EnableAnalytics:       cfg.EnableAnalytics,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return srv, cleanup, nil
}

func setupMetrics() (http.Handler, *metrics.SubmissionMetrics, *prometheus.Registry) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	m := metrics.NewSubmissionMetrics(registry)
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), m, registry
}

func reportSessions(ctx context.Context, sessions *availability.Sessions, m *metrics.SubmissionMetrics) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.SetOpenSessions(sessions.Len())
		}
	}
}
