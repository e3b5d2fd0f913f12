package database

import (
	"context"
	"fmt"

	"go-nursejobs-pipeline/internal/config"
	"go-nursejobs-pipeline/internal/logger"
	"go-nursejobs-pipeline/internal/store"
)

type migrator interface {
	Migrate(ctx context.Context) error
}

// OpenGateway connects to Postgres when a database URL is configured and
// falls back to the JSON file store otherwise. A dry run never applies the
// schema. closeFn is never nil.
func OpenGateway(ctx context.Context, cfg *config.Config, dryRun bool, log *logger.Logger) (gw store.Gateway, closeFn func(), err error) {
	if cfg.DatabaseURL == "" {
		fs, err := store.OpenFileStore(cfg.StorePath)
		if err != nil {
			return nil, func() {}, err
		}
		log.Info("💾 using file store", "path", cfg.StorePath, "jobs", fs.Len())
		return fs, func() {}, nil
	}

	repo, err := ConnectDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, func() {}, err
	}
	if err := prepare(ctx, repo, dryRun, log); err != nil {
		repo.Close()
		return nil, func() {}, err
	}
	log.Info("🐘 connected to postgres", "dry_run", dryRun)
	return repo, repo.Close, nil
}

func prepare(ctx context.Context, m migrator, dryRun bool, log *logger.Logger) error {
	if dryRun {
		log.Info("dry run, schema not applied")
		return nil
	}
	if err := m.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
