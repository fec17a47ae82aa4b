package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/web3-frozen/liquidity-dashboard/internal/cache"
	"github.com/web3-frozen/liquidity-dashboard/internal/config"
	"github.com/web3-frozen/liquidity-dashboard/internal/dashboard"
	"github.com/web3-frozen/liquidity-dashboard/internal/digest"
	"github.com/web3-frozen/liquidity-dashboard/internal/handler"
	"github.com/web3-frozen/liquidity-dashboard/internal/middleware"
	"github.com/web3-frozen/liquidity-dashboard/internal/series"
	"github.com/web3-frozen/liquidity-dashboard/internal/sources"
	"github.com/web3-frozen/liquidity-dashboard/internal/summary"
	"github.com/web3-frozen/liquidity-dashboard/internal/telegram"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	window, err := series.ParseBucket(cfg.DefaultWindow, series.Bucket1Y)
	if err != nil {
		logger.Error("invalid DEFAULT_WINDOW", "error", err)
		os.Exit(1)
	}
	catalog, err := dashboard.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		logger.Error("failed to load catalog", "path", cfg.CatalogPath, "error", err)
		os.Exit(1)
	}
	if cfg.FredAPIKey == "" {
		logger.Warn("FRED_API_KEY not set, macro panels will be unavailable")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cache (retry up to 30s for ExternalSecret to sync)
	store, backend, err := cache.Open(ctx, cache.Options{
		RedisURL:      cfg.RedisURL,
		RedisPassword: cfg.RedisPassword,
		DatabaseURL:   cfg.DatabaseURL,
		Attempts:      6,
		Backoff:       5 * time.Second,
	}, logger)
	if err != nil {
		logger.Error("failed to open cache after retries", "backend", backend, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("cache ready", "backend", backend)

	// Upstreams
	fred := sources.NewFRED(sources.Options{
		BaseURL: cfg.FredBaseURL, APIKey: cfg.FredAPIKey, Timeout: cfg.HTTPTimeout,
		TTL: cfg.FredTTL, Cache: store, RatePerSecond: 2, Burst: 5,
	})
	coingecko := sources.NewCoinGecko(sources.Options{
		BaseURL: cfg.CoinGeckoBaseURL, APIKey: cfg.CoinGeckoAPIKey, Timeout: cfg.HTTPTimeout,
		TTL: cfg.MarketTTL, Cache: store, RatePerSecond: 0.5, Burst: 2,
	})
	defillama := sources.NewDefiLlama(sources.Options{
		BaseURL: cfg.DefiLlamaBaseURL, Timeout: cfg.HTTPTimeout,
		TTL: cfg.MarketTTL, Cache: store, RatePerSecond: 5, Burst: 5,
	})
	rwa := sources.NewRWA(sources.Options{
		BaseURL: cfg.RWAGraphQLURL, Timeout: cfg.HTTPTimeout,
		TTL: cfg.MarketTTL, Cache: store, RatePerSecond: 2, Burst: 2,
	})
	fearGreed := sources.NewFearGreed(sources.Options{
		BaseURL: cfg.FearGreedBaseURL, Timeout: cfg.HTTPTimeout,
		TTL: cfg.MarketTTL, Cache: store, RatePerSecond: 1, Burst: 1,
	})
	openai := sources.NewOpenAI(sources.Options{
		BaseURL: cfg.OpenAIBaseURL, APIKey: cfg.OpenAIAPIKey, Timeout: 60 * time.Second,
		TTL: cfg.SummaryTTL, Cache: store, RatePerSecond: 1, Burst: 1,
	}, sources.CompletionOptions{Model: cfg.OpenAIModel, Temperature: 0.3})

	svc := dashboard.NewService(catalog, dashboard.Sources{
		FRED:      fred,
		CoinGecko: coingecko,
		DefiLlama: defillama,
		RWA:       rwa,
		FearGreed: fearGreed,
	}, logger)
	summarizer := summary.New(openai, logger)

	// Background refresh
	refresher := dashboard.NewRefresher(svc, store, window, cfg.RefreshInterval, logger)
	go refresher.Run(ctx)

	// Daily digest
	notifier := telegram.NewNotifier(cfg.TelegramToken, "")
	switch {
	case !notifier.Enabled():
		logger.Info("digest disabled, TELEGRAM_BOT_TOKEN not set")
	case !cfg.DigestEnabled():
		logger.Info("digest disabled, TELEGRAM_CHAT_ID or DIGEST_CRON not set")
	default:
		sched := digest.NewScheduler(ctx, svc, summarizer, notifier, cfg.TelegramChatID, window, logger)
		if err := sched.Register(cfg.DigestCron); err != nil {
			logger.Error("failed to schedule digest", "error", err)
			os.Exit(1)
		}
		sched.Start()
		defer sched.Stop()
	}

	// HTTP routes
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.FrontendOrigin))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", handler.Health())
	r.Get("/readyz", handler.Ready(store))

	r.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", handler.Dashboard(svc, refresher, window))
		r.Get("/indicators", handler.Indicators(svc, window, cfg.RefreshInterval))
		r.Get("/series/{id}", handler.Series(svc, window))
		r.Get("/snapshots/{id}", handler.Snapshot(svc))
		r.Get("/summary", handler.Summary(svc, refresher, summarizer, window))
	})

	// Renders fetch every panel sequentially, so writes get more headroom
	// than reads.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port, "window", window)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down gracefully")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
