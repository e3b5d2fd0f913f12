package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-nursejobs-pipeline/internal/config"
	"go-nursejobs-pipeline/internal/indexnow"
	"go-nursejobs-pipeline/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	lg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("❌ Failed to init logger: %v", err)
	}
	defer lg.Sync()

	if cfg.IndexNow.Key == "" || cfg.IndexNow.Host == "" {
		lg.Fatal("❌ indexnow.key and indexnow.host are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := indexnow.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		lg.Fatal("❌ failed to connect to redis", "error", err)
	}
	defer rdb.Close()

	queue := indexnow.NewRedisQueue(rdb, cfg.IndexNow.QueueKey)
	client := indexnow.NewClient(cfg.IndexNow.Endpoint, cfg.IndexNow.Host, cfg.IndexNow.Key, cfg.IndexNow.KeyLocation)
	worker := indexnow.NewWorker(queue, client, indexnow.WorkerOptions{
		MinInterval: cfg.IndexNow.MinInterval,
		MaxAttempts: cfg.IndexNow.MaxAttempts,
		BackOff:     cfg.IndexNow.BackOff,
	}, lg)

	if err := worker.Run(ctx); err != nil {
		lg.Error("❌ worker stopped", "error", err)
	}
}
