package classifier

import (
	"context"
	"fmt"
	"time"

	"go-nursejobs-pipeline/internal/logger"
	"go-nursejobs-pipeline/internal/store"
)

// Stats summarises one classification run.
type Stats struct {
	Loaded    int
	Approved  int
	Rejected  int
	Undecided int
	DryRun    bool
	Duration  time.Duration
}

func (s Stats) Summary() string {
	return fmt.Sprintf("loaded=%d approved=%d rejected=%d undecided=%d", s.Loaded, s.Approved, s.Rejected, s.Undecided)
}

// Runner loads unclassified jobs, classifies them and stores the verdicts.
type Runner struct {
	gw         store.Gateway
	classifier Classifier
	batchSize  int
	dryRun     bool
	log        *logger.Logger
	now        func() time.Time
}

func NewRunner(gw store.Gateway, c Classifier, batchSize int, dryRun bool, log *logger.Logger) *Runner {
	if batchSize <= 0 {
		batchSize = 20
	}
	return &Runner{gw: gw, classifier: c, batchSize: batchSize, dryRun: dryRun, log: log, now: time.Now}
}

func (r *Runner) SetClock(now func() time.Time) { r.now = now }

// Run classifies one batch. Jobs the model skipped stay unclassified for the
// next run.
func (r *Runner) Run(ctx context.Context) (*Stats, error) {
	start := r.now()
	stats := &Stats{DryRun: r.dryRun}

	jobs, err := r.gw.FindCandidates(ctx, store.Unclassified(r.batchSize))
	if err != nil {
		return stats, fmt.Errorf("load unclassified jobs: %w", err)
	}
	stats.Loaded = len(jobs)
	if len(jobs) == 0 {
		r.log.Info("no jobs awaiting classification")
		return stats, nil
	}

	decisions, err := r.classifier.Classify(ctx, jobs)
	if err != nil {
		return stats, fmt.Errorf("classify: %w", err)
	}
	for _, d := range decisions {
		if d.Approve {
			stats.Approved++
		} else {
			stats.Rejected++
		}
		r.log.Debug("decision", "job_id", d.JobID, "approve", d.Approve, "reason", d.Reason)
	}
	stats.Undecided = len(jobs) - len(decisions)

	if r.dryRun {
		r.log.Info("dry run, decisions not stored", "summary", stats.Summary())
		stats.Duration = r.now().Sub(start)
		return stats, nil
	}
	if err := r.gw.ApplyDecisions(ctx, decisions, r.now()); err != nil {
		return stats, fmt.Errorf("apply decisions: %w", err)
	}
	stats.Duration = r.now().Sub(start)
	r.log.Info("classification done", "summary", stats.Summary())
	return stats, nil
}
