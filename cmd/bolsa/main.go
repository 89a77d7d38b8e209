package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"Bolsa/internal/aggregator"
	"Bolsa/internal/cache"
	"Bolsa/internal/collector"
	"Bolsa/internal/config"
	"Bolsa/internal/logging"
	"Bolsa/internal/mainloop"
	"Bolsa/internal/notifier"
	"Bolsa/internal/recorder"
	"Bolsa/internal/scheduler"
	"Bolsa/internal/search"
	"Bolsa/internal/watchlist"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		zap.NewExample().Fatal("load config", zap.Error(err))
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		zap.NewExample().Fatal("init logger", zap.Error(err))
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("config validation", zap.Error(err))
	}
	logger.Info("Bolsa starting...")

	// Init fetcher
	fetcher := collector.NewFinnhubFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy, cfg.DataSource.RequestTimeout)
	logger.Info("data source ready", zap.String("source", fetcher.Name()))

	// Init watchlist store
	var backend watchlist.Backend
	switch cfg.Watchlist.Backend {
	case "sqlite":
		backend, err = watchlist.NewSQLiteBackend(cfg.Watchlist.Path)
		if err != nil {
			logger.Fatal("open sqlite watchlist", zap.Error(err))
		}
	default:
		backend = watchlist.NewFileBackend(cfg.Watchlist.Path)
	}
	store, err := watchlist.NewStore(backend, logger)
	if err != nil {
		logger.Fatal("init watchlist store", zap.Error(err))
	}
	defer store.Close()

	// Init aggregation engine
	engine := aggregator.NewEngine(fetcher, cache.NewSeriesCache(cfg.Cache.TTL),
		cfg.DataSource.WindowDays, cfg.DataSource.RequestTimeout, logger)

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logger)
		if err != nil {
			logger.Warn("init sqlite recorder failed, using noop", zap.Error(err))
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loop := mainloop.New(logger)
	go loop.Run(ctx)

	console := notifier.NewConsole(os.Stdout, logger)
	console.Dispatch = loop.Post

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, store, engine, fetcher, rec, loop, console, logger)
	sched.Searcher = search.NewSearcher(ctx, fetcher, cfg.Search.Debounce, sched.PresentSearch, logger)
	if err := sched.RegisterAll(cfg.Schedule.RefreshCron); err != nil {
		logger.Fatal("register cron tasks", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	go sched.RefreshNow(ctx, scheduler.TriggerManual)

	go func() {
		if err := console.Listen(ctx, os.Stdin, sched.HandleCommand); err != nil {
			logger.Error("console listener failed", zap.Error(err))
		}
	}()
	logger.Info("Bolsa is running. Type /help for commands, Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutdown signal received, stopping...")
	cancel()
	logger.Info("Bolsa stopped")
}
