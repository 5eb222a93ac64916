package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"TickerCard/internal/collector"
	"TickerCard/internal/config"
	"TickerCard/internal/dashboard"
	"TickerCard/internal/events"
	"TickerCard/internal/model"
	"TickerCard/internal/notifier"
	"TickerCard/internal/recorder"
	"TickerCard/internal/scheduler"
	"TickerCard/internal/server"
	"TickerCard/internal/store"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] TickerCard starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath, ".env")
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	mock := os.Getenv("MOCK_FETCHER") == "true"
	if mock && cfg.DataSource.APIKey == "" {
		cfg.DataSource.APIKey = "demo"
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}
	log.Printf("[INFO] %s every %s (%d of %d daily calls)", cfg.DataSource.Symbol,
		time.Duration(cfg.Refresh.IntervalMs)*time.Millisecond,
		config.DailyCalls(cfg.Refresh.IntervalMs), cfg.DataSource.DailyQuota)

	// Init fetcher
	var fetcher collector.Fetcher
	if mock {
		fetcher = &collector.MockFetcher{Price: 150}
	} else {
		fetcher = collector.NewAlphaVantageFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy, cfg.Timeout())
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	// Init store and collector
	st := store.New(cfg.Store.SnapshotPath, cfg.Store.CSVPath)
	log.Printf("[INFO] snapshot store: %s", st.Path())
	col := collector.NewCollector(fetcher, st, cfg.DataSource.Symbol, cfg.DataSource.Interval,
		cfg.DataSource.OutputSize, cfg.Timeout())

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broker := events.NewBroker()

	// Dashboard: render whatever snapshot is already on disk, then follow updates
	dash := dashboard.New(cfg.DataSource.Symbol, st, rec)
	dash.Recompute("")
	dashDone := dash.Start(ctx, broker)

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, col, broker, rec)
	if err := sched.Register(cfg.Refresh.IntervalMs); err != nil {
		log.Fatalf("[FATAL] register refresh task: %v", err)
	}

	// HTTP + websocket
	srv := server.New(cfg.HTTP.Addr, dash, sched, st, rec)
	dash.OnUpdate(srv.Broadcast)
	srv.Start()

	// Telegram is optional
	if cfg.Telegram.BotToken != "" {
		tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		dash.OnUpdate(notifier.StyleChangeAlert(ctx, tn))
		go tn.StartPolling(ctx, notifier.NewCommandHandler(dash, sched, rec))
		log.Println("[INFO] Telegram polling started")
	}

	sched.Start()

	if cfg.Refresh.OnStart {
		log.Println("[INFO] refresh on start enabled, fetching now")
		go sched.RunNow(model.TriggerStartup)
	}

	log.Println("[INFO] TickerCard is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	// no new manual refreshes, abort the fetch in flight, then wait for it
	if err := srv.Shutdown(); err != nil {
		log.Printf("[ERROR] %v", err)
	}
	cancel()
	sched.Stop()
	broker.Close()
	<-dashDone
	if err := rec.Close(); err != nil {
		log.Printf("[WARN] close recorder: %v", err)
	}
	log.Println("[INFO] TickerCard stopped")
}
