package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-nursejobs-pipeline/internal/browser"
	"go-nursejobs-pipeline/internal/config"
	"go-nursejobs-pipeline/internal/logger"
	"go-nursejobs-pipeline/internal/store"
)

// SessionFactory opens a browser session for one employer. release frees
// whatever the session holds.
type SessionFactory func(ctx context.Context, emp config.Employer) (session *browser.Session, release func(), err error)

// Runner scrapes employers one after another with a pause in between.
// Employers are never scraped in parallel.
type Runner struct {
	cfg      *config.Config
	store    store.Gateway
	sessions SessionFactory
	opts     Options
	log      *logger.Logger
	shots    *browser.ScreenshotDebugger
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewRunner(cfg *config.Config, gw store.Gateway, sessions SessionFactory, opts Options,
	log *logger.Logger, shots *browser.ScreenshotDebugger) *Runner {
	return &Runner{
		cfg:      cfg,
		store:    gw,
		sessions: sessions,
		opts:     opts,
		log:      log,
		shots:    shots,
		sleep: func(ctx context.Context, d time.Duration) error {
			return browser.Pause(ctx, d, d)
		},
	}
}

// SetSleep replaces the inter-employer wait.
func (r *Runner) SetSleep(sleep func(ctx context.Context, d time.Duration) error) {
	r.sleep = sleep
}

// Run scrapes every employer. A session that cannot be opened stops the
// whole run; a failed employer is recorded and the next one still runs.
// The returned error joins every employer failure.
func (r *Runner) Run(ctx context.Context, employers []config.Employer) ([]*RunResult, error) {
	var (
		results []*RunResult
		errs    []error
	)
	for i, emp := range employers {
		if i > 0 {
			r.log.Info("😴 waiting before next employer", "delay", r.cfg.Scraper.InterEmployerDelay, "next", emp.Slug)
			if err := r.sleep(ctx, r.cfg.Scraper.InterEmployerDelay); err != nil {
				return results, errors.Join(append(errs, err)...)
			}
		}

		res, err := r.runOne(ctx, emp)
		if res != nil {
			results = append(results, res)
		}
		if err == nil {
			continue
		}
		errs = append(errs, err)
		if errors.Is(err, errSession) {
			return results, errors.Join(errs...)
		}
	}
	return results, errors.Join(errs...)
}

var errSession = errors.New("browser session")

func (r *Runner) runOne(ctx context.Context, emp config.Employer) (*RunResult, error) {
	s, err := NewEmployerScraper(emp, r.cfg.Scraper, r.store, r.opts, r.log, r.shots)
	if err != nil {
		return nil, err
	}
	session, release, err := r.sessions(ctx, emp)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %s: %v", ErrFatal, errSession, emp.Slug, err)
	}
	defer release()

	res, err := s.Scrape(ctx, session)
	if err != nil {
		r.log.Error("❌ employer run failed", "employer", emp.Slug, "error", err)
	}
	return res, err
}
