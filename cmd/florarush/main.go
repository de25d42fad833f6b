package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"github.com/tbueno/florarush/internal/cache"
	"github.com/tbueno/florarush/internal/config"
	"github.com/tbueno/florarush/internal/db"
	"github.com/tbueno/florarush/internal/kvstore"
	"github.com/tbueno/florarush/internal/lifecycle"
	"github.com/tbueno/florarush/internal/logger"
	"github.com/tbueno/florarush/internal/records"
	"github.com/tbueno/florarush/internal/repository/sqlite"
	"github.com/tbueno/florarush/internal/resilience"
	"github.com/tbueno/florarush/internal/scoring"
	"github.com/tbueno/florarush/internal/session"
	"github.com/tbueno/florarush/internal/taxonomy"
	"github.com/tbueno/florarush/internal/timer"
	"github.com/tbueno/florarush/internal/worker"
)

func main() {
	cfg := config.Load()

	// Initialize logger
	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	log.Info("===========================================")
	log.Info("FloraRush Starting")
	log.Info("===========================================")
	log.Info("configuration loaded")
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("taxonomy_base_url=%s", cfg.TaxonomyBaseURL)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("max_cache_size=%d", cfg.MaxCacheSize)
	log.Debug("min_candidates=%d", cfg.MinCandidates)
	log.Debug("max_requests_per_sec=%g", cfg.MaxRequestsPerSec)
	log.Debug("max_requests_per_day=%d", cfg.MaxRequestsPerDay)
	log.Debug("breaker_threshold=%d", cfg.BreakerThreshold)
	log.Debug("breaker_timeout_sec=%d", cfg.BreakerTimeoutSec)
	log.Debug("tick_interval_millis=%d", cfg.TickIntervalMillis)
	log.Debug("prefetch_workers=%d", cfg.PrefetchWorkers)
	log.Debug("prefetch_queue_size=%d", cfg.PrefetchQueueSize)
	log.Debug("cache_sweep_days=%d", cfg.CacheSweepDays)

	// Open database
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	clock := clockwork.NewRealClock()

	// Repositories and key-value store
	plantRepo := sqlite.NewPlantRepository(database.DB)
	scoreRepo := sqlite.NewScoreRepository(database.DB)
	bestRepo := sqlite.NewPersonalBestRepository(database.DB)
	historyRepo := sqlite.NewHistoryRepository(database.DB)
	kv := kvstore.New(database.DB)

	// Remote taxonomy client behind rate limiter and circuit breaker
	limiter := resilience.NewRateLimiter(clock, cfg.MaxRequestsPerSec, cfg.MaxRequestsPerDay)
	breaker := resilience.NewCircuitBreaker(clock, cfg.BreakerThreshold, time.Duration(cfg.BreakerTimeoutSec)*time.Second)
	client := taxonomy.New(cfg.TaxonomyBaseURL, time.Duration(cfg.HTTPTimeoutSec)*time.Second, limiter, breaker)

	plantCache := cache.New(plantRepo, client, clock, cache.Options{
		MaxCacheSize:  cfg.MaxCacheSize,
		MinCandidates: cfg.MinCandidates,
	})

	// Game engine
	scorer := scoring.NewEngine()
	tracker := records.NewTracker(bestRepo, scorer)
	trophies := records.NewTrophyLedger(kv)
	exporter := records.NewExporter(bestRepo, scoreRepo, historyRepo)
	engine := timer.NewEngine(clock, time.Duration(cfg.TickIntervalMillis)*time.Millisecond)

	machine := session.NewMachine(session.Deps{
		Clock:    clock,
		Timer:    engine,
		Cache:    plantCache,
		Scorer:   scorer,
		Tracker:  tracker,
		Trophies: trophies,
		Scores:   scoreRepo,
		History:  historyRepo,
		KV:       kv,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// One-shot maintenance commands exit before the interactive loop starts.
	if len(os.Args) > 1 {
		if err := runCommand(ctx, os.Args[1:], exporter, plantCache); err != nil {
			log.Error("%v", err)
			os.Exit(1)
		}
		return
	}

	// Background cache refills
	pool := worker.NewPool(cfg.PrefetchWorkers, cfg.PrefetchQueueSize)
	pool.Start(ctx)
	defer pool.Stop()
	pool.TrySubmit(cache.RefillJob{Cache: plantCache})

	// Scheduled maintenance: a nightly sweep of stale cache entries and an
	// hourly opportunistic refill.
	scheduler, err := gocron.NewScheduler(gocron.WithClock(clock))
	if err != nil {
		log.Error("failed to create scheduler: %v", err)
		os.Exit(1)
	}
	_, err = scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(3, 0, 0))),
		gocron.NewTask(func() {
			n, err := plantCache.ClearOlderThan(ctx, cfg.CacheSweepDays)
			if err != nil {
				log.Warn("cache sweep failed: %v", err)
				return
			}
			log.Info("cache sweep removed %d entries older than %d days", n, cfg.CacheSweepDays)
		}),
	)
	if err != nil {
		log.Error("failed to schedule cache sweep: %v", err)
		os.Exit(1)
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(time.Hour),
		gocron.NewTask(func() {
			pool.TrySubmit(cache.RefillJob{Cache: plantCache})
		}),
	)
	if err != nil {
		log.Error("failed to schedule cache refill: %v", err)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Shutdown()

	// Terminal suspend/continue drives the foreground/background signal so
	// suspended time never counts against the run.
	lifecycleSignal := lifecycle.NewChannelSignal()
	engine.Consume(lifecycleSignal)
	suspend := make(chan os.Signal, 2)
	signal.Notify(suspend, syscall.SIGTSTP, syscall.SIGCONT)
	go func() {
		for sig := range suspend {
			switch sig {
			case syscall.SIGTSTP:
				lifecycleSignal.Publish(lifecycle.EnteredBackground)
			case syscall.SIGCONT:
				lifecycleSignal.Publish(lifecycle.EnteringForeground)
			}
		}
	}()

	// Interrupt abandons the session cleanly.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-stop
		log.Info("received signal %v, shutting down", sig)
		machine.Abandon(context.Background())
		cancel()
	}()

	g := newGame(machine, os.Stdin, os.Stdout)
	if err := g.run(ctx); err != nil && ctx.Err() == nil {
		log.Error("game loop failed: %v", err)
		os.Exit(1)
	}
	log.Info("goodbye")
}

// runCommand handles the maintenance subcommands: export, import, stats.
func runCommand(ctx context.Context, args []string, exporter *records.Exporter, plantCache *cache.PlantCache) error {
	switch args[0] {
	case "export":
		if len(args) < 2 {
			return fmt.Errorf("usage: florarush export <file>")
		}
		blob, err := exporter.Export(ctx)
		if err != nil {
			return err
		}
		return os.WriteFile(args[1], blob, 0o644)
	case "import":
		if len(args) < 2 {
			return fmt.Errorf("usage: florarush import <file>")
		}
		blob, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		return exporter.Import(ctx, blob)
	case "stats":
		stats, err := plantCache.Statistics(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("cached plants: %d\n", stats.Count)
		fmt.Printf("estimated size: %d bytes\n", stats.EstimatedBytes)
		fmt.Printf("mean use count: %.1f\n", stats.MeanUseCount)
		if stats.OldestCachedAt != nil {
			fmt.Printf("oldest entry: %s\n", stats.OldestCachedAt.Format(time.RFC3339))
		}
		return nil
	default:
		return fmt.Errorf("unknown command %q (expected export, import or stats)", args[0])
	}
}
