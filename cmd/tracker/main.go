package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"SkytechIndex/internal/cache"
	"SkytechIndex/internal/collector"
	"SkytechIndex/internal/config"
	"SkytechIndex/internal/index"
	"SkytechIndex/internal/notifier"
	"SkytechIndex/internal/output"
	"SkytechIndex/internal/recorder"
	"SkytechIndex/internal/scheduler"

	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfgPath := flag.String("config", "configs/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run a single update and exit")
	flag.Parse()

	log.Println("[INFO] SkytechIndex starting...")

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] load .env: %v", err)
	}
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		*cfgPath = v
	}

	// Load config
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}
	def, err := cfg.Definition()
	if err != nil {
		log.Fatalf("[FATAL] index definition: %v", err)
	}
	comp, err := index.NewComputer(def)
	if err != nil {
		log.Fatalf("[FATAL] index computer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init fetcher
	var fetcher collector.Fetcher
	if cfg.DataSource.BaseURL != "" {
		fetcher = collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	} else {
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	if cfg.Cache.RedisAddr != "" {
		var bc cache.BarCache
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		if err != nil {
			log.Printf("[WARN] init redis cache failed, caching disabled: %v", err)
			bc = cache.NewNoopCache()
		} else {
			bc = rc
		}
		defer bc.Close()
		fetcher = collector.NewCachedFetcher(fetcher, bc, cfg.CacheTTL(), def.Loc())
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	col := collector.NewCollector(fetcher, comp, cfg.DataSource.IntradayDays, cfg.DataSource.RetryAttempts, cfg.RetryBackoff())
	writer := output.NewWriter(cfg.Output.Dir)

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
	defer rec.Close()

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	if !tn.Enabled() {
		log.Println("[INFO] Telegram not configured, notifications disabled")
	}

	sched := scheduler.NewScheduler(ctx, col, writer, tn, rec, def.Loc())

	if *once {
		if err := sched.RunNow(); err != nil {
			rec.Close()
			log.Fatalf("[FATAL] run: %v", err)
		}
		log.Println("[INFO] single run complete")
		return
	}

	if err := sched.Register(cfg.Schedule.IntradayCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if tn.Enabled() && cfg.Telegram.Polling {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, updating now")
		go func() {
			if err := sched.RunNow(); err != nil {
				log.Printf("[ERROR] startup run: %v", err)
			}
		}()
	}

	log.Println("[INFO] SkytechIndex is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] SkytechIndex stopped")
}
