package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-nursejobs-pipeline/internal/browser"
	"go-nursejobs-pipeline/internal/config"
	"go-nursejobs-pipeline/internal/database"
	"go-nursejobs-pipeline/internal/logger"
	"go-nursejobs-pipeline/internal/scraper"
	"go-nursejobs-pipeline/internal/telegram"
)

func main() {
	employer := flag.String("employer", "", "scrape only the employer with this slug")
	dryRun := flag.Bool("dry-run", false, "extract and report without writing to the store")
	maxPages := flag.Int("max-pages", 0, "stop after this many listing pages (0 means no limit)")
	flag.Parse()

	//load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	lg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("❌ Failed to init logger: %v", err)
	}
	defer lg.Sync()

	bot, err := telegram.NewBot(cfg.Telegram.Token, cfg.Telegram.ChatID, "scraper")
	if err != nil {
		lg.Warn("⚠️ telegram disabled", "error", err)
		bot, _ = telegram.NewBot("", 0, "scraper")
	}

	if err := run(cfg, lg, bot, *employer, scraper.Options{DryRun: *dryRun, MaxPages: *maxPages}); err != nil {
		lg.Error("❌ scraper run failed", "error", err)
		if sendErr := bot.SendError(err); sendErr != nil {
			lg.Warn("⚠️ failed to send telegram alert", "error", sendErr)
		}
		lg.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, lg *logger.Logger, bot *telegram.Bot, only string, opts scraper.Options) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	employers := cfg.Employers
	if only != "" {
		emp, ok := cfg.Employer(only)
		if !ok {
			return fmt.Errorf("%w: unknown employer %q", config.ErrInvalid, only)
		}
		employers = []config.Employer{emp}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lg.Info("🚀 starting nurse job scraper", "employers", len(employers), "dry_run", opts.DryRun, "max_pages", opts.MaxPages)

	gw, closeStore, err := database.OpenGateway(ctx, cfg, opts.DryRun, lg)
	if err != nil {
		return fmt.Errorf("%w: open store: %w", scraper.ErrFatal, err)
	}
	defer closeStore()

	//init playwright manager
	pwManager, err := browser.NewPlaywright(ctx, cfg.Browser)
	if err != nil {
		return fmt.Errorf("%w: %w", scraper.ErrFatal, err)
	}
	defer pwManager.Close()
	lg.Info("✅ browser initialized")

	sessions := func(ctx context.Context, emp config.Employer) (*browser.Session, func(), error) {
		cookies, err := browser.LoadEmployerCookies(cfg.CookiesPath, emp.Slug)
		if err != nil {
			lg.Warn("⚠️ could not load cookies, continuing without", "employer", emp.Slug, "error", err)
		} else if len(cookies) > 0 {
			lg.Info("🍪 loaded cookies", "employer", emp.Slug, "count", len(cookies))
		}

		browserCtx, err := pwManager.NewContext(cookies)
		if err != nil {
			return nil, nil, err
		}
		session, err := browser.NewSession(pwManager.Opener(browserCtx), emp.BaseURL, lg.With("employer", emp.Slug))
		if err != nil {
			_ = browserCtx.Close()
			return nil, nil, err
		}
		return session, func() {
			_ = session.Close()
			_ = browserCtx.Close()
		}, nil
	}

	shots := browser.NewScreenshotDebugger(cfg.ScreenshotDir, lg)
	runner := scraper.NewRunner(cfg, gw, sessions, opts, lg, shots)
	results, runErr := runner.Run(ctx, employers)

	for _, res := range results {
		lg.Info("📦 employer finished", "employer", res.Employer, "valid", res.Valid, "created", res.Created,
			"updated", res.Updated, "deactivated", res.Deactivated, "duration", res.Duration)
		if err := bot.SendStatus(res.Summary()); err != nil {
			lg.Warn("⚠️ failed to send telegram summary", "error", err)
		}
	}
	return runErr
}
