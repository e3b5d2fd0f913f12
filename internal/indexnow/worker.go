package indexnow

import (
	"context"
	"errors"
	"time"

	"go-nursejobs-pipeline/internal/logger"
)

const (
	DefaultMinInterval = 6 * time.Second
	DefaultMaxAttempts = 3
	DefaultBackOff     = 60 * time.Second
	popTimeout         = 5 * time.Second
)

type WorkerOptions struct {
	// MinInterval is measured from the previous submission, however long
	// the queue is.
	MinInterval time.Duration
	MaxAttempts int

	// BackOff is added after a 429.
	BackOff time.Duration
}

// WorkerStats are cumulative counters.
type WorkerStats struct {
	Submitted   int
	Retried     int
	Dropped     int
	RateLimited int
}

// Worker is the single consumer of the queue.
type Worker struct {
	queue     Queue
	submitter Submitter
	opts      WorkerOptions
	log       *logger.Logger
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error

	last  time.Time
	Stats WorkerStats
}

func NewWorker(q Queue, s Submitter, opts WorkerOptions, log *logger.Logger) *Worker {
	if opts.MinInterval <= 0 {
		opts.MinInterval = DefaultMinInterval
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.BackOff <= 0 {
		opts.BackOff = DefaultBackOff
	}
	return &Worker{queue: q, submitter: s, opts: opts, log: log, now: time.Now, sleep: sleepCtx}
}

// SetClock replaces the time functions in tests.
func (w *Worker) SetClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) {
	w.now, w.sleep = now, sleep
}

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

// Run consumes the queue until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("🚀 indexnow worker started", "min_interval", w.opts.MinInterval, "max_attempts", w.opts.MaxAttempts)
	for {
		if _, err := w.ProcessOne(ctx, popTimeout); err != nil {
			if ctx.Err() != nil {
				w.log.Info("🛑 indexnow worker stopped", "submitted", w.Stats.Submitted, "dropped", w.Stats.Dropped)
				return nil
			}
			w.log.Error("❌ queue error", "error", err)
			if err := w.sleep(ctx, w.opts.MinInterval); err != nil {
				return nil
			}
		}
	}
}

// ProcessOne pops and submits at most one item. It reports whether an item
// was handled.
func (w *Worker) ProcessOne(ctx context.Context, timeout time.Duration) (bool, error) {
	item, err := w.queue.Pop(ctx, timeout)
	if err != nil || item == nil {
		return false, err
	}

	if !w.last.IsZero() {
		if wait := w.opts.MinInterval - w.now().Sub(w.last); wait > 0 {
			if err := w.sleep(ctx, wait); err != nil {
				// put it back for the next worker start
				return true, w.queue.Push(context.WithoutCancel(ctx), *item)
			}
		}
	}

	err = w.submitter.Submit(ctx, item.URL)
	w.last = w.now()
	if err == nil {
		w.Stats.Submitted++
		w.log.Info("✅ submitted to indexnow", "url", item.URL)
		return true, nil
	}

	item.Attempts++
	var status *StatusError
	retryable := !errors.As(err, &status) || status.Retryable()
	if !retryable || item.Attempts >= w.opts.MaxAttempts {
		w.Stats.Dropped++
		w.log.Error("🗑️ dropping url", "url", item.URL, "attempts", item.Attempts, "error", err)
		return true, nil
	}

	w.Stats.Retried++
	w.log.Warn("🔁 requeueing url", "url", item.URL, "attempts", item.Attempts, "error", err)
	if pushErr := w.queue.Push(ctx, *item); pushErr != nil {
		return true, pushErr
	}
	if errors.Is(err, ErrRateLimited) {
		w.Stats.RateLimited++
		w.log.Warn("⏳ indexnow rate limited, backing off", "back_off", w.opts.BackOff)
		if err := w.sleep(ctx, w.opts.BackOff); err != nil {
			return true, err
		}
	}
	return true, nil
}
