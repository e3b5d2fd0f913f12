package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-nursejobs-pipeline/internal/classifier"
	"go-nursejobs-pipeline/internal/config"
	"go-nursejobs-pipeline/internal/database"
	"go-nursejobs-pipeline/internal/logger"
	"go-nursejobs-pipeline/internal/telegram"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "log decisions without storing them")
	batch := flag.Int("batch", 0, "jobs per run, overrides classifier.batch_size")
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

	if cfg.Classifier.APIKey == "" {
		lg.Fatal("❌ GROQ_API_KEY is required")
	}
	bot, err := telegram.NewBot(cfg.Telegram.Token, cfg.Telegram.ChatID, "classifier")
	if err != nil {
		lg.Warn("⚠️ telegram disabled", "error", err)
		bot, _ = telegram.NewBot("", 0, "classifier")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gw, closeStore, err := database.OpenGateway(ctx, cfg, *dryRun, lg)
	if err != nil {
		lg.Fatal("❌ failed to open store", "error", err)
	}
	defer closeStore()

	size := cfg.Classifier.BatchSize
	if *batch > 0 {
		size = *batch
	}
	c := classifier.NewGroqClient(cfg.Classifier.APIKey, cfg.Classifier.Endpoint, cfg.Classifier.Model)
	stats, err := classifier.NewRunner(gw, c, size, *dryRun, lg).Run(ctx)
	if err != nil {
		lg.Error("❌ classification failed", "error", err)
		_ = bot.SendError(err)
		closeStore()
		lg.Sync()
		os.Exit(1)
	}
	if stats.Loaded > 0 {
		_ = bot.SendSummary("classification finished", map[string]any{
			"loaded":    stats.Loaded,
			"approved":  stats.Approved,
			"rejected":  stats.Rejected,
			"undecided": stats.Undecided,
			"dry_run":   stats.DryRun,
		})
	}
}
