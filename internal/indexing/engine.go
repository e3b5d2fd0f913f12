package indexing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go-nursejobs-pipeline/internal/logger"
	"go-nursejobs-pipeline/internal/models"
	"go-nursejobs-pipeline/internal/store"
)

// HardDailyLimit is the API's own daily publish limit.
const HardDailyLimit = 200

// DefaultDailyQuota is shared by every run on the same UTC day. Usage is
// persisted through the store, so a manual run after the scheduled one only
// gets what is left.
const (
	DefaultDailyQuota   = 195
	DefaultBatchSize    = 10
	DefaultRequestDelay = 2 * time.Second
	DefaultBatchPause   = 30 * time.Second
)

type Options struct {
	PublicBaseURL string
	DailyQuota    int
	BatchSize     int
	RequestDelay  time.Duration
	BatchPause    time.Duration

	// DryRun walks both phases and the quota without calling the API or
	// writing submission state.
	DryRun bool
}

// PhaseResult counts one phase.
type PhaseResult struct {
	Name        string
	Ran         bool
	Candidates  int
	Submitted   int
	Failed      int
	RateLimited bool
	Failures    []string
}

// Report is the outcome of one engine run. QuotaUsed counts this run only;
// QuotaEarlier is what earlier runs used the same UTC day.
type Report struct {
	New          PhaseResult
	Deleted      PhaseResult
	QuotaUsed    int
	QuotaEarlier int
	QuotaLimit   int
	RateLimited  bool
	DryRun       bool
}

// DayUsed is the quota used today, this run included.
func (r *Report) DayUsed() int {
	return r.QuotaEarlier + r.QuotaUsed
}

// NeedsAlert is true when an operator should look at the run.
func (r *Report) NeedsAlert() bool {
	return r.RateLimited || r.New.Failed > 0 || r.Deleted.Failed > 0 || r.DayUsed() >= r.QuotaLimit
}

func (r *Report) Summary() string {
	var b strings.Builder
	mode := ""
	if r.DryRun {
		mode = " (dry run)"
	}
	fmt.Fprintf(&b, "🔎 Indexing run%s\n", mode)
	for _, p := range []PhaseResult{r.New, r.Deleted} {
		if !p.Ran {
			fmt.Fprintf(&b, "⏭️ %s: skipped\n", p.Name)
			continue
		}
		fmt.Fprintf(&b, "📤 %s: %d/%d submitted, %d failed\n", p.Name, p.Submitted, p.Candidates, p.Failed)
	}
	fmt.Fprintf(&b, "📊 quota %d/%d", r.DayUsed(), r.QuotaLimit)
	if r.QuotaEarlier > 0 {
		fmt.Fprintf(&b, " (%d by earlier runs)", r.QuotaEarlier)
	}
	if r.RateLimited {
		b.WriteString("\n🛑 rate limited, remaining URLs wait for the next run")
	}
	return b.String()
}

// Engine runs the two submission phases: new active jobs, then jobs that
// went inactive after being submitted. It assumes a single instance runs
// at a time.
type Engine struct {
	store    store.Gateway
	notifier Notifier
	opts     Options
	log      *logger.Logger
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time
}

func NewEngine(gw store.Gateway, notifier Notifier, opts Options, log *logger.Logger) *Engine {
	if opts.DailyQuota <= 0 {
		opts.DailyQuota = DefaultDailyQuota
	}
	if opts.DailyQuota > HardDailyLimit {
		opts.DailyQuota = HardDailyLimit
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	opts.PublicBaseURL = strings.TrimRight(opts.PublicBaseURL, "/")
	return &Engine{
		store:    gw,
		notifier: notifier,
		opts:     opts,
		log:      log,
		sleep:    sleepCtx,
		now:      time.Now,
	}
}

// SetClock and SetSleep replace the time functions in tests.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

func (e *Engine) SetSleep(sleep func(ctx context.Context, d time.Duration) error) { e.sleep = sleep }

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// JobURL is the public URL submitted for a job.
func (e *Engine) JobURL(j models.NormalizedJob) string {
	return e.opts.PublicBaseURL + "/jobs/" + j.Slug
}

// Run executes phase 1 and, if quota remains and no rate limit was hit,
// phase 2. Store failures are returned; API failures are only counted.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	rep := &Report{
		New:        PhaseResult{Name: "new"},
		Deleted:    PhaseResult{Name: "deleted"},
		QuotaLimit: e.opts.DailyQuota,
		DryRun:     e.opts.DryRun,
	}

	day := e.now().UTC()
	earlier, err := e.store.IndexingQuotaUsed(ctx, day)
	if err != nil {
		return rep, fmt.Errorf("read daily quota: %w", err)
	}
	rep.QuotaEarlier = earlier
	if e.remaining(rep) == 0 {
		e.log.Warn("📊 daily quota already used by earlier runs", "used", earlier, "quota", rep.QuotaLimit)
		return rep, nil
	}

	fresh, err := e.store.FindCandidates(ctx, store.NewURLs(e.remaining(rep)))
	if err != nil {
		return rep, fmt.Errorf("find new urls: %w", err)
	}
	if err := e.phase(ctx, rep, &rep.New, fresh, URLUpdated, day); err != nil {
		return rep, err
	}

	if rep.RateLimited || e.remaining(rep) == 0 {
		e.log.Warn("⏭️ skipping deleted urls", "rate_limited", rep.RateLimited, "quota_used", rep.DayUsed())
		return rep, nil
	}

	gone, err := e.store.FindCandidates(ctx, store.DeletedURLs(e.remaining(rep)))
	if err != nil {
		return rep, fmt.Errorf("find deleted urls: %w", err)
	}
	if err := e.phase(ctx, rep, &rep.Deleted, gone, URLDeleted, day); err != nil {
		return rep, err
	}

	e.log.Info("🏁 indexing finished", "new", rep.New.Submitted, "deleted", rep.Deleted.Submitted,
		"failed", rep.New.Failed+rep.Deleted.Failed, "quota_used", rep.DayUsed())
	return rep, nil
}

func (e *Engine) remaining(rep *Report) int {
	return max(rep.QuotaLimit-rep.DayUsed(), 0)
}

func (e *Engine) phase(ctx context.Context, rep *Report, p *PhaseResult, jobs []models.NormalizedJob, t NotificationType, day time.Time) error {
	p.Ran = true
	p.Candidates = len(jobs)
	e.log.Info("📤 indexing phase", "phase", p.Name, "candidates", len(jobs), "quota_left", e.remaining(rep))

	for start := 0; start < len(jobs); start += e.opts.BatchSize {
		end := min(start+e.opts.BatchSize, len(jobs))
		if start > 0 {
			if err := e.sleep(ctx, e.opts.BatchPause); err != nil {
				return err
			}
		}
		for i, job := range jobs[start:end] {
			if e.remaining(rep) == 0 {
				e.log.Warn("📊 daily quota used up", "quota", rep.QuotaLimit)
				return nil
			}
			if i > 0 {
				if err := e.sleep(ctx, e.opts.RequestDelay); err != nil {
					return err
				}
			}

			halt, err := e.submit(ctx, rep, p, job, t, day)
			if err != nil {
				return err
			}
			if halt {
				return nil
			}
		}
	}
	return nil
}

// submit sends one notification and charges it to day's quota. halt is true
// on a rate limit signal.
func (e *Engine) submit(ctx context.Context, rep *Report, p *PhaseResult, job models.NormalizedJob, t NotificationType, day time.Time) (halt bool, err error) {
	url := e.JobURL(job)
	rep.QuotaUsed++

	if e.opts.DryRun {
		p.Submitted++
		e.log.Debug("🧪 dry run, would publish", "type", t, "url", url)
		return false, nil
	}

	if perr := e.notifier.Publish(ctx, url, t); perr != nil {
		if IsRateLimited(perr) {
			// the refused request does not count against the quota
			rep.QuotaUsed--
			p.RateLimited, rep.RateLimited = true, true
			e.log.Error("🛑 indexing api rate limited, stopping", "url", url, "error", perr)
			return true, nil
		}
		if err := e.store.AddIndexingQuota(ctx, day, 1); err != nil {
			return true, fmt.Errorf("record daily quota: %w", err)
		}
		p.Failed++
		p.Failures = append(p.Failures, fmt.Sprintf("%s: %v", url, perr))
		e.log.Warn("⚠️ publish failed", "type", t, "url", url, "error", perr)
		return false, nil
	}

	if err := e.store.AddIndexingQuota(ctx, day, 1); err != nil {
		return true, fmt.Errorf("record daily quota: %w", err)
	}
	p.Submitted++
	ids := []string{job.ID}
	if t == URLDeleted {
		err = e.store.ClearSubmitted(ctx, ids)
	} else {
		err = e.store.MarkSubmitted(ctx, ids, e.now().UTC())
	}
	if err != nil {
		return true, fmt.Errorf("record submission of %s: %w", job.Slug, err)
	}
	e.log.Debug("✅ published", "type", t, "url", url)
	return false, nil
}
