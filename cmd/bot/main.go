package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"MarketScanner/internal/collector"
	"MarketScanner/internal/config"
	"MarketScanner/internal/notifier"
	"MarketScanner/internal/recorder"
	"MarketScanner/internal/scanner"
	"MarketScanner/internal/scheduler"
	"MarketScanner/internal/tracker"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] MarketScanner starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init data sources
	alpaca := collector.NewAlpacaClient(cfg.Alpaca.TradingURL, cfg.Alpaca.DataURL,
		cfg.Alpaca.KeyID, cfg.Alpaca.SecretKey, cfg.Alpaca.Feed, cfg.Proxy)
	sources := []collector.QuoteFetcher{alpaca}
	if cfg.Yahoo.Enabled {
		sources = append(sources, collector.NewYahooFetcher(cfg.Yahoo.BaseURL, cfg.Proxy))
	}
	col := collector.NewCollector(alpaca, cfg.DataSource.Exchanges, cfg.DataSource.BatchSize, sources...)
	for _, src := range sources {
		log.Printf("[INFO] quote source: %s", src.Name())
	}

	// Init Telegram notifier
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	alerts := notifier.NewAlertNotifier(tn, cfg.Schedule.ScanInterval, cfg.Telegram.MaxRetries)

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.Driver != "none" {
		if cfg.Database.Driver == "sqlite" {
			if err := os.MkdirAll(filepath.Dir(cfg.Database.DSN), 0755); err != nil {
				log.Printf("[WARN] create database dir: %v", err)
			}
		}
		sr, err := recorder.NewSQLRecorder(cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			log.Printf("[WARN] init %s recorder failed, using noop: %v", cfg.Database.Driver, err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	store := tracker.NewStore(cfg.Tracking.WindowSize)
	sc := scanner.NewScanner(col, cfg.Criteria, cfg.Detector(), store, alerts, rec)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, sc, tn, rec, cfg.Schedule.ScanInterval, cfg.Tracking.MaxAge)
	sched.MaxRetries = cfg.Telegram.MaxRetries
	if err := sched.RegisterAll(cfg.Schedule.SummaryCron, cfg.Schedule.PruneCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if cfg.Telegram.Commands {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		sched.Run(cfg.Schedule.RunOnStart)
	}()

	log.Printf("[INFO] MarketScanner is running, scanning every %s. Press Ctrl+C to stop.", cfg.Schedule.ScanInterval)

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	<-done
	log.Println("[INFO] MarketScanner stopped")
}
