package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"remora/internal/adapters/config"
	noopTracker "remora/internal/adapters/errors/noop"
	sentryTracker "remora/internal/adapters/errors/sentry"
	"remora/internal/adapters/ratelimit"
	"remora/internal/adapters/remora"
	"remora/internal/metrics"
	"remora/internal/risk"
	"remora/internal/workers"
	pkgerrors "remora/pkg/errors"
	"remora/pkg/logger"
)

func main() {
	cfg := loadConfig()
	log := initLogger(cfg)
	defer func() { _ = logger.Sync() }()

	tracker := initErrorTracker(cfg, log)
	defer func() { _ = tracker.Flush(context.Background()) }()
	logger.SetErrorTracker(tracker)

	log.Info("Starting remora risk sidecar",
		"env", cfg.App.Env,
		"base_url", cfg.Remora.BaseURL,
	)

	metrics.Init()
	startMetricsServer(cfg, log)

	limiter := ratelimit.NewLimiter(cfg.Remora.APIKey)
	log.Info("Rate limiter configured",
		"tier", limiter.Tier(),
		"capacity", limiter.Capacity(),
	)

	client := remora.NewClient(remora.Config{
		APIKey:  cfg.Remora.APIKey,
		BaseURL: cfg.Remora.BaseURL,
		Timeout: cfg.Remora.Timeout,
	})

	policy := risk.NewFailurePolicy(cfg.Remora.StaleLimit, tracker)
	cache := risk.NewContextCache(client, limiter, policy, risk.CacheConfig{
		TTL:        cfg.Remora.CacheTTL,
		StaleLimit: cfg.Remora.StaleLimit,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler := workers.NewScheduler()
	scheduler.RegisterWorker(workers.NewRefreshWorker(
		cache,
		limiter,
		cfg.Workers.Symbols,
		cfg.Workers.RefreshInterval,
		cfg.Workers.RefreshEnabled && len(cfg.Workers.Symbols) > 0,
		cfg.Remora.Strict,
	))

	if err := scheduler.Start(ctx); err != nil {
		log.Fatal("Failed to start scheduler", "error", err)
	}

	waitForShutdown(log)

	cancel()
	if err := scheduler.Stop(); err != nil {
		log.Error("Scheduler shutdown error", "error", err)
	}

	log.Info("Shutdown complete")
}

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Logger is not up yet
		panic("failed to load config: " + err.Error())
	}
	return cfg
}

func initLogger(cfg *config.Config) *logger.Logger {
	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return logger.Get()
}

func initErrorTracker(cfg *config.Config, log *logger.Logger) pkgerrors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled, using noop tracker")
		return noopTracker.New()
	}

	tracker, err := sentryTracker.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warn("Failed to initialize sentry, falling back to noop tracker", "error", err)
		return noopTracker.New()
	}

	log.Info("Error tracking initialized", "provider", cfg.ErrorTracking.Provider)
	return tracker
}

func startMetricsServer(cfg *config.Config, log *logger.Logger) {
	if !cfg.Metrics.Enabled {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	go func() {
		log.Info("Metrics server listening", "addr", cfg.Metrics.ListenAddr)
		if err := http.ListenAndServe(cfg.Metrics.ListenAddr, mux); err != nil && err != http.ErrServerClosed {
			log.Error("Metrics server failed", "error", err)
		}
	}()
}

func waitForShutdown(log *logger.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("Received shutdown signal", "signal", sig.String())
}
