package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"go-nursejobs-pipeline/internal/config"
	"go-nursejobs-pipeline/internal/database"
	"go-nursejobs-pipeline/internal/indexing"
	"go-nursejobs-pipeline/internal/logger"
	"go-nursejobs-pipeline/internal/store"
	"go-nursejobs-pipeline/internal/telegram"
)

func main() {
	once := flag.Bool("once", false, "run one indexing pass and exit")
	schedule := flag.String("schedule", "", "cron schedule, overrides indexing.schedule")
	dryRun := flag.Bool("dry-run", false, "walk the queue and quota without calling the API")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	lg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("❌ Failed to init logger: %v", err)
	}
	defer lg.Sync()

	if cfg.Indexing.PublicBaseURL == "" {
		lg.Fatal("❌ indexing.public_base_url is required")
	}

	bot, err := telegram.NewBot(cfg.Telegram.Token, cfg.Telegram.ChatID, "indexer")
	if err != nil {
		lg.Warn("⚠️ telegram disabled", "error", err)
		bot, _ = telegram.NewBot("", 0, "indexer")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gw, closeStore, err := database.OpenGateway(ctx, cfg, *dryRun, lg)
	if err != nil {
		lg.Fatal("❌ failed to open store", "error", err)
	}
	defer closeStore()

	var notifier indexing.Notifier
	if !*dryRun {
		gn, err := indexing.NewGoogleNotifier(ctx, cfg.Indexing.CredentialsFile)
		if err != nil {
			lg.Fatal("❌ failed to init indexing client", "error", err)
		}
		notifier = gn
	}

	engine := indexing.NewEngine(gw, notifier, indexing.Options{
		PublicBaseURL: cfg.Indexing.PublicBaseURL,
		DailyQuota:    cfg.Indexing.DailyQuota,
		BatchSize:     cfg.Indexing.BatchSize,
		RequestDelay:  cfg.Indexing.RequestDelay,
		BatchPause:    cfg.Indexing.BatchPause,
		DryRun:        *dryRun,
	}, lg)

	if *once {
		if !runOnce(ctx, engine, gw, bot, lg) {
			lg.Sync()
			os.Exit(1)
		}
		return
	}

	sched := cfg.Indexing.Schedule
	if *schedule != "" {
		sched = *schedule
	}
	c := cron.New()
	if _, err := c.AddFunc(sched, func() { runOnce(ctx, engine, gw, bot, lg) }); err != nil {
		lg.Fatal("❌ bad schedule", "schedule", sched, "error", err)
	}
	c.Start()
	lg.Info("⏰ indexer scheduled", "schedule", sched)

	<-ctx.Done()
	<-c.Stop().Done()
	lg.Info("🛑 indexer stopped")
}

// runOnce reports whether the run finished without a store failure.
func runOnce(ctx context.Context, engine *indexing.Engine, gw store.Gateway, bot *telegram.Bot, lg *logger.Logger) bool {
	report, err := engine.Run(ctx)
	if err != nil {
		lg.Error("❌ indexing run failed", "error", err)
		_ = bot.SendError(err)
		return false
	}

	// backlog still waiting for tomorrow's quota
	if pending, err := gw.FindCandidates(ctx, store.NewURLs(0)); err == nil {
		lg.Info("📬 new urls still pending", "count", len(pending))
	}

	lg.Info("✅ indexing run finished", "quota_used", report.DayUsed(), "rate_limited", report.RateLimited)
	if report.NeedsAlert() {
		if err := bot.SendStatus(report.Summary()); err != nil {
			lg.Warn("⚠️ failed to send telegram summary", "error", err)
		}
	}
	return true
}
