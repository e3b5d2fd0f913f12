package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := indexnow.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		lg.Fatal("❌ failed to connect to redis", "error", err)
	}
	defer rdb.Close()

	if cfg.LogMode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := newRouter(indexnow.NewRedisQueue(rdb, cfg.IndexNow.QueueKey), cfg.IndexNow.Host, lg)

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: r}
	go func() {
		lg.Info("🌐 server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("❌ failed to start server", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("❌ shutdown failed", "error", err)
	}
	lg.Info("🛑 server stopped")
}
