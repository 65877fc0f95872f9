package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"StockSentinel/internal/backtest"
	"StockSentinel/internal/config"
	"StockSentinel/internal/fetcher"
	"StockSentinel/internal/ratelimit"
	"StockSentinel/internal/recorder"
	"StockSentinel/internal/scanner"
	"StockSentinel/internal/scheduler"
	"StockSentinel/internal/server"
	"StockSentinel/internal/watchlist"
)

func main() {
	if err := godotenv.Load(); err == nil {
		log.Info("loaded .env")
	}

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation: %v", err)
	}

	if level, err := log.ParseLevel(cfg.Log.Level); err == nil {
		log.SetLevel(level)
	}
	log.Info("StockSentinel starting...")

	// Init fetcher, optionally wrapped with a Redis cache
	var f fetcher.IntradayFetcher = fetcher.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		f = fetcher.NewCachedFetcher(f, rdb, time.Duration(cfg.Redis.CacheTTLMinutes)*time.Minute)
	}
	log.Infof("data source: %s", f.Name())

	// Init rate limiter
	limiter := ratelimit.NewInterval(time.Duration(cfg.RateLimit.IntervalSeconds) * time.Second)

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warnf("init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Init watchlist manager
	wl, err := watchlist.NewManager(cfg.Watchlist.StateFile)
	if err != nil {
		log.Fatalf("init watchlist manager: %v", err)
	}

	sc := scanner.New(f, limiter)
	runner := backtest.NewRunner(f, sc, limiter, rec)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, sc, wl, rec, cfg.Scan.Universe)
	if err := sched.Register(cfg.Scan.Cron); err != nil {
		log.Fatalf("register scan task: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if cfg.Scan.RunOnStart || os.Getenv("RUN_ON_START") == "true" {
		log.Info("RUN_ON_START enabled, executing universe scan now")
		go sched.RunScanNow()
	}

	// HTTP server
	router := server.NewRouter(&server.Handler{Runner: runner, Watchlist: wl})
	srv := &http.Server{Addr: cfg.Server.Addr, Handler: router}
	go func() {
		log.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, stopping...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("http shutdown: %v", err)
	}
	log.Info("StockSentinel stopped")
}
