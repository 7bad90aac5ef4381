package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"airbnb-bot/bot"
	"airbnb-bot/classifier"
	"airbnb-bot/config"
	"airbnb-bot/events"
	"airbnb-bot/metrics"
	"airbnb-bot/scraper"
	"airbnb-bot/scraper/airbnb"
	"airbnb-bot/scraper/rapidapi"
	"airbnb-bot/services"
	"airbnb-bot/session"
	"airbnb-bot/storage"
	"airbnb-bot/telegram"
	"airbnb-bot/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.NewLogger("error", "console").Error("Configuration error: %v", err)
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.LogLevel(), cfg.Logger.Encoding)
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("Bot stopped with error: %v", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *utils.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("=== Airbnb recommendation bot starting ===")
	logger.Info("Config | provider: %s | concurrency: %d | search timeout: %v | timezone: %s",
		cfg.Listings.Provider, cfg.Runtime.MaxConcurrency, cfg.Listings.SearchTimeout, cfg.Runtime.Timezone)

	store, err := storage.Open(ctx, cfg.Storage.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	cache := storage.NewCache(ctx, cfg.Storage.RedisURL, logger)
	defer cache.Close()

	registry := classifier.NewRegistry()
	if err := registry.Load(ctx, cfg.Model.Path); err != nil {
		logger.Warn("Could not load model from %s, starting fresh: %v", cfg.Model.Path, err)
	} else {
		logger.Info("Loaded %d user models from %s", registry.Len(), cfg.Model.Path)
	}

	var rawDump storage.RawListingWriter
	if cfg.Storage.RawDumpPath != "" {
		w, err := storage.NewCSVWriter(cfg.Storage.RawDumpPath)
		if err != nil {
			return err
		}
		defer w.Close()
		rawDump = w
		logger.Info("Raw provider results → %s", cfg.Storage.RawDumpPath)
	}

	m := metrics.New()
	publisher := events.New(cfg.NATSURL, logger)
	defer publisher.Close()

	sessions := session.NewStore(cache, cfg.Storage.SnapshotTTL)
	search := services.NewSearchService(newProvider(cfg, logger), cache, services.SearchOptions{
		CacheTTL:        cfg.Storage.CacheTimeout,
		Timeout:         cfg.Listings.SearchTimeout,
		MaxRetries:      cfg.Listings.MaxRetries,
		RawDump:         rawDump,
		FilterAmenities: cfg.Listings.FilterAmenities,
		Metrics:         m,
	}, logger)
	ledger := services.NewFeedbackLedger(store, store, sessions, registry, services.LedgerOptions{
		FitTimeout: cfg.Model.Timeout,
		Publisher:  publisher,
		Metrics:    m,
	}, logger)
	profiles := services.NewProfileService(store, store, logger)

	engine := bot.New(bot.Deps{
		Sessions:     sessions,
		Search:       search,
		Ledger:       ledger,
		Profiles:     profiles,
		Scorer:       registry,
		Publisher:    publisher,
		Metrics:      m,
		Logger:       logger,
		Location:     cfg.Location(),
		ScoreTimeout: cfg.Model.Timeout,
	})

	adapter, err := telegram.New(cfg.TelegramToken, engine, cfg.Runtime.MaxConcurrency, logger)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return adapter.Run(gctx) })
	g.Go(func() error { return m.Serve(gctx, cfg.MetricsAddr, logger) })
	runErr := g.Wait()

	saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := registry.Save(saveCtx, cfg.Model.Path); err != nil {
		logger.Error("Failed to save model to %s: %v", cfg.Model.Path, err)
	} else {
		logger.Info("Saved %d user models to %s", registry.Len(), cfg.Model.Path)
	}

	logger.Info("=== Airbnb recommendation bot stopped ===")
	return runErr
}

func newProvider(cfg *config.Config, logger *utils.Logger) scraper.Provider {
	if cfg.Listings.Provider == config.ProviderBrowser {
		return airbnb.New(airbnb.Options{
			ChromeBin:       cfg.Listings.ChromeBin,
			MaxConcurrency:  cfg.Runtime.MaxConcurrency,
			RateLimitMs:     cfg.Listings.RateLimitMs,
			MaxRetries:      cfg.Listings.MaxRetries,
			PagesToScrape:   cfg.Listings.PagesToScrape,
			ListingsPerPage: cfg.Listings.ListingsPerPage,
		}, logger)
	}
	return rapidapi.New(cfg.Listings.BaseURL, cfg.Listings.Host, cfg.Listings.APIKey, logger)
}
