package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"go-nursejobs-pipeline/internal/bing"
	"go-nursejobs-pipeline/internal/config"
	"go-nursejobs-pipeline/internal/database"
	"go-nursejobs-pipeline/internal/logger"
)

func main() {
	once := flag.Bool("once", false, "ingest once and exit")
	schedule := flag.String("schedule", "", "cron schedule, overrides bing.schedule")
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

	if cfg.Bing.APIKey == "" || cfg.Bing.SiteURL == "" {
		lg.Fatal("❌ BING_API_KEY and bing.site_url are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gw, closeStore, err := database.OpenGateway(ctx, cfg, false, lg)
	if err != nil {
		lg.Fatal("❌ failed to open store", "error", err)
	}
	defer closeStore()

	ing := bing.NewIngester(bing.NewClient(cfg.Bing.Endpoint, cfg.Bing.APIKey), gw, cfg.Bing.SiteURL, lg)
	ingest := func() error {
		n, err := ing.Run(ctx)
		if err != nil {
			lg.Error("❌ bing ingest failed", "error", err)
			return err
		}
		lg.Info("✅ bing page stats stored", "rows", n)
		return nil
	}

	if *once {
		if ingest() != nil {
			closeStore()
			lg.Sync()
			os.Exit(1)
		}
		return
	}

	sched := cfg.Bing.Schedule
	if *schedule != "" {
		sched = *schedule
	}
	c := cron.New()
	if _, err := c.AddFunc(sched, func() { _ = ingest() }); err != nil {
		lg.Fatal("❌ bad schedule", "schedule", sched, "error", err)
	}
	c.Start()
	lg.Info("⏰ bing ingest scheduled", "schedule", sched)

	<-ctx.Done()
	<-c.Stop().Done()
	lg.Info("🛑 bing ingest stopped")
}
