package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"go-nursejobs-pipeline/internal/browser"
	"go-nursejobs-pipeline/internal/config"
	"go-nursejobs-pipeline/internal/extract"
	"go-nursejobs-pipeline/internal/filter"
	"go-nursejobs-pipeline/internal/logger"
	"go-nursejobs-pipeline/internal/models"
	"go-nursejobs-pipeline/internal/normalize"
	"go-nursejobs-pipeline/internal/pagination"
	"go-nursejobs-pipeline/internal/store"
)

// DefaultBatchSize is how many valid jobs are buffered before an upsert.
const DefaultBatchSize = 25

// Options are the per-invocation switches.
type Options struct {
	// DryRun runs every decision but writes nothing.
	DryRun bool
	// MaxPages overrides the employer's page limit when > 0.
	MaxPages  int
	BatchSize int
}

// EmployerScraper runs the pipeline for one employer:
//
//	title pre-filter -> detail extraction -> role gate -> normalize -> validate -> upsert
type EmployerScraper struct {
	emp       config.Employer
	sel       config.Selectors
	scfg      config.ScraperConfig
	opts      Options
	store     store.Gateway
	extractor *extract.Extractor
	log       *logger.Logger
	shots     *browser.ScreenshotDebugger
	now       func() time.Time

	// per run
	res   *RunResult
	batch []models.NormalizedJob
	seen  mapset.Set[string]
}

var (
	_ Scraper            = (*EmployerScraper)(nil)
	_ pagination.Visitor = (*EmployerScraper)(nil)
)

func NewEmployerScraper(emp config.Employer, scfg config.ScraperConfig, gw store.Gateway, opts Options,
	log *logger.Logger, shots *browser.ScreenshotDebugger) (*EmployerScraper, error) {
	formatter, ok := FormatterFor(emp.Formatter)
	if !ok {
		return nil, fmt.Errorf("employer %s: unknown formatter %q: %w", emp.Slug, emp.Formatter, config.ErrInvalid)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	sel := SelectorsFor(emp)
	s := &EmployerScraper{
		emp:   emp,
		sel:   sel,
		scfg:  scfg,
		opts:  opts,
		store: gw,
		log:   log.With("employer", emp.Slug),
		shots: shots,
		now:   time.Now,
	}
	s.extractor = extract.New(sel, extract.WithFormatter(formatter), extract.WithClock(func() time.Time { return s.now() }))
	return s, nil
}

// SetClock replaces the time source for timestamps and relative dates.
func (s *EmployerScraper) SetClock(now func() time.Time) {
	s.now = now
}

func (s *EmployerScraper) Name() string {
	return s.emp.Slug
}

func (s *EmployerScraper) maxPages() int {
	if s.opts.MaxPages > 0 {
		return s.opts.MaxPages
	}
	if s.emp.MaxPages > 0 {
		return s.emp.MaxPages
	}
	return s.scfg.MaxPages
}

// Scrape walks the employer's listing. A listing that cannot be loaded at
// all is fatal; everything else is counted in the result.
func (s *EmployerScraper) Scrape(ctx context.Context, session *browser.Session) (*RunResult, error) {
	start := s.now()
	s.res = newRunResult(s.emp.Slug, s.opts.DryRun)
	s.batch = nil
	s.seen = mapset.NewThreadUnsafeSet[string]()
	defer func() { s.res.Duration = s.now().Sub(start) }()

	s.log.Info("▶️ starting employer", "search_url", s.emp.SearchURL, "dry_run", s.opts.DryRun, "max_pages", s.maxPages())

	ctrl := pagination.New(pagination.Options{
		SearchURL:           s.emp.SearchURL,
		Selectors:           s.sel,
		MaxIterations:       s.scfg.MaxIterations,
		MaxStableIterations: s.scfg.MaxStableIterations,
		MaxScrollAttempts:   s.scfg.MaxScrollAttempts,
		MaxPages:            s.maxPages(),
		SettleMin:           s.scfg.SettleMin,
		SettleMax:           s.scfg.SettleMax,
	}, s.log, s.shots)

	pres, err := ctrl.Run(ctx, session, s)
	if err != nil {
		s.res.Err = fmt.Errorf("%w: %s: %v", ErrFatal, s.emp.Slug, err)
		return s.res, s.res.Err
	}
	s.res.Pagination = pres
	s.res.Candidates = pres.Seen

	if err := s.flush(ctx); err != nil {
		s.res.Errors++
		s.log.Error("❌ final upsert failed", "error", err)
	}

	if pres.Termination.Natural() && s.maxPages() == 0 {
		s.deactivateMissing(ctx)
	}

	s.log.Info("✅ employer finished", "valid", s.res.Valid, "created", s.res.Created,
		"updated", s.res.Updated, "rejected", s.res.RejectedTotal(), "invalid", s.res.Invalid)
	return s.res, nil
}

// Accept drops titles that name a non-RN role before the detail page is
// loaded.
func (s *EmployerScraper) Accept(c models.JobListingCandidate) bool {
	if filter.ExcludedTitle(c.Title) {
		s.res.PreFiltered++
		s.log.Debug("⏭️ title excluded", "title", c.Title)
		return false
	}
	return true
}

// Visit processes one loaded detail page.
func (s *EmployerScraper) Visit(ctx context.Context, c models.JobListingCandidate, detailHTML string) {
	fields, err := s.extractor.Extract(detailHTML, c.DetailURL)
	if err != nil {
		s.res.Errors++
		s.log.Warn("⚠️ extraction failed", "url", c.DetailURL, "error", err)
		return
	}
	s.res.Extracted++

	title := fields.Title
	if title == "" {
		title = c.Title
	}
	if reason := filter.VerifyRole(title, extract.PlainText(fields.Description)); reason != filter.Accepted {
		s.res.Rejected[reason]++
		s.log.Info("🚫 role gate rejected", "title", title, "reason", reason, "url", c.DetailURL)
		return
	}

	job := s.normalize(c, fields, title)
	if v := normalize.ValidateJobData(&job); !v.Valid {
		s.res.Invalid++
		s.log.Warn("⚠️ validation failed", "title", title, "url", c.DetailURL, "errors", strings.Join(v.Errors, "; "))
		return
	}

	s.res.Valid++
	s.seen.Add(job.Slug)
	s.batch = append(s.batch, job)
	if len(s.batch) >= s.opts.BatchSize {
		if err := s.flush(ctx); err != nil {
			s.res.Errors++
			s.log.Error("❌ batch upsert failed", "error", err)
		}
	}
}

func (s *EmployerScraper) normalize(c models.JobListingCandidate, f *extract.Fields, title string) models.NormalizedJob {
	loc := f.Location
	if loc.City == "" || loc.State == "" {
		if fallback := normalize.ParseLocation(c.LocationText); fallback.City != "" && fallback.State != "" {
			loc = fallback
		}
	}
	sourceID := f.RequisitionID
	if sourceID == "" {
		sourceID = c.SourceJobID
	}
	plain := extract.PlainText(f.Description)
	now := s.now().UTC()

	job := models.NormalizedJob{
		Slug:        normalize.GenerateJobSlug(title, loc.City, loc.State, sourceID),
		SourceJobID: sourceID,
		SourceURL:   c.DetailURL,
		Title:       normalize.CollapseSpaces(title),

		City:    loc.City,
		State:   loc.State,
		ZipCode: loc.Zip,

		Specialty:       normalize.DetectSpecialty(title, plain),
		ExperienceLevel: normalize.DetectExperienceLevel(title, plain),
		JobType:         f.JobType,
		ShiftType:       f.ShiftType,

		Description:      f.Description,
		Requirements:     f.Requirements,
		Responsibilities: f.Responsibilities,
		Benefits:         f.Benefits,
		Department:       f.Department,

		EmployerName:  s.emp.Name,
		EmployerSlug:  s.emp.Slug,
		CareerPageURL: s.emp.CareerPageURL,
		ATSPlatform:   s.emp.ATS,

		PostedAt:   f.PostedAt,
		IsActive:   false,
		LastSeenAt: now,
	}
	normalize.ApplySalary(&job, f.Salary)
	return job
}

func (s *EmployerScraper) flush(ctx context.Context) error {
	if len(s.batch) == 0 {
		return nil
	}
	batch := s.batch
	s.batch = nil
	if s.opts.DryRun {
		s.log.Info("🧪 dry run, not saving batch", "jobs", len(batch))
		return nil
	}
	res, err := s.store.UpsertBatch(ctx, batch)
	if err != nil {
		return err
	}
	s.res.Created += res.Created
	s.res.Updated += res.Updated
	s.log.Info("💾 saved batch", "created", res.Created, "updated", res.Updated)
	return nil
}

func (s *EmployerScraper) deactivateMissing(ctx context.Context) {
	if s.opts.DryRun {
		s.log.Info("🧪 dry run, not expiring unseen jobs", "seen", s.seen.Cardinality())
		return
	}
	if s.res.Errors > 0 || s.res.Pagination.HardFailures > 0 {
		// a partial view of the listing must not expire live jobs
		s.log.Warn("⚠️ skipping expiry after failures", "errors", s.res.Errors, "hard_failures", s.res.Pagination.HardFailures)
		return
	}
	n, err := s.store.DeactivateMissing(ctx, s.emp.Slug, s.seen.ToSlice(), s.now().UTC())
	if err != nil {
		s.res.Errors++
		s.log.Error("❌ expiring unseen jobs failed", "error", err)
		return
	}
	s.res.Deactivated = n
	if n > 0 {
		s.log.Info("🗑️ expired jobs no longer listed", "count", n)
	}
}

// IsFatal reports whether err should abort the whole invocation.
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatal)
}
