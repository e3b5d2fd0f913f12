package indexing_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"go-nursejobs-pipeline/internal/indexing"
	"go-nursejobs-pipeline/internal/logger"
	"go-nursejobs-pipeline/internal/models"
	"go-nursejobs-pipeline/internal/store"
)

var t0 = time.Date(2026, 3, 11, 6, 0, 0, 0, time.UTC)

type call struct {
	url string
	t   indexing.NotificationType
}

type fakeNotifier struct {
	calls []call
	// fail returns an error for the nth call (1-based), or nil
	fail func(n int, url string) error
}

func (f *fakeNotifier) Publish(_ context.Context, url string, t indexing.NotificationType) error {
	f.calls = append(f.calls, call{url, t})
	if f.fail != nil {
		return f.fail(len(f.calls), url)
	}
	return nil
}

func (f *fakeNotifier) count(t indexing.NotificationType) int {
	n := 0
	for _, c := range f.calls {
		if c.t == t {
			n++
		}
	}
	return n
}

// seed stores active unsubmitted jobs and inactive submitted ones.
func seed(t *testing.T, active, deleted int) *store.FileStore {
	t.Helper()
	ctx := context.Background()
	fs, err := store.OpenFileStore(filepath.Join(t.TempDir(), "jobs.json"))
	require.NoError(t, err)

	clock := t0.Add(-48 * time.Hour)
	fs.SetClock(func() time.Time { return clock })

	var jobs []models.NormalizedJob
	for i := 0; i < active+deleted; i++ {
		jobs = append(jobs, models.NormalizedJob{Slug: fmt.Sprintf("rn-%03d", i), EmployerSlug: "hhc"})
	}
	_, err = fs.UpsertBatch(ctx, jobs)
	require.NoError(t, err)

	var approve []models.Decision
	var submitted []string
	for i := 0; i < active+deleted; i++ {
		j, _ := fs.Get(fmt.Sprintf("rn-%03d", i))
		if i < active {
			approve = append(approve, models.Decision{JobID: j.ID, Approve: true})
		} else {
			approve = append(approve, models.Decision{JobID: j.ID, Approve: false, Reason: "expired"})
			submitted = append(submitted, j.ID)
		}
	}
	require.NoError(t, fs.ApplyDecisions(ctx, approve, clock))
	require.NoError(t, fs.MarkSubmitted(ctx, submitted, clock))
	return fs
}

func newEngine(fs store.Gateway, n indexing.Notifier, opts indexing.Options) (*indexing.Engine, *[]time.Duration) {
	if opts.PublicBaseURL == "" {
		opts.PublicBaseURL = "https://nursejobs.example/"
	}
	e := indexing.NewEngine(fs, n, opts, logger.NewNop())
	e.SetClock(func() time.Time { return t0 })
	var slept []time.Duration
	e.SetSleep(func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	})
	return e, &slept
}

func countSubmitted(t *testing.T, fs *store.FileStore, f store.Filter) int {
	t.Helper()
	jobs, err := fs.FindCandidates(context.Background(), f)
	require.NoError(t, err)
	return len(jobs)
}

func TestRunBothPhases(t *testing.T) {
	fs := seed(t, 3, 2)
	n := &fakeNotifier{}
	e, _ := newEngine(fs, n, indexing.Options{})

	rep, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, rep.New.Submitted)
	assert.Equal(t, 2, rep.Deleted.Submitted)
	assert.Equal(t, 5, rep.QuotaUsed)
	assert.Equal(t, 195, rep.QuotaLimit)
	assert.Equal(t, 3, n.count(indexing.URLUpdated))
	assert.Equal(t, 2, n.count(indexing.URLDeleted))
	assert.Equal(t, "https://nursejobs.example/jobs/rn-000", n.calls[0].url)

	assert.Zero(t, countSubmitted(t, fs, store.NewURLs(0)))
	assert.Zero(t, countSubmitted(t, fs, store.DeletedURLs(0)), "deleted urls are cleared after submission")

	j, _ := fs.Get("rn-000")
	require.NotNil(t, j.GoogleIndexedAt)
	assert.Equal(t, t0, *j.GoogleIndexedAt)
}

func TestRateLimitHaltsBeforePhaseTwo(t *testing.T) {
	fs := seed(t, 180, 5)
	n := &fakeNotifier{fail: func(call int, _ string) error {
		if call == 151 {
			return &googleapi.Error{Code: 429, Message: "Quota exceeded for quota metric 'Publish requests'"}
		}
		return nil
	}}
	e, _ := newEngine(fs, n, indexing.Options{DailyQuota: 200})

	rep, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, rep.RateLimited)
	assert.True(t, rep.New.RateLimited)
	assert.Equal(t, 150, rep.New.Submitted)
	assert.Equal(t, 150, rep.QuotaUsed)
	assert.False(t, rep.Deleted.Ran)
	assert.Zero(t, n.count(indexing.URLDeleted))
	assert.Len(t, n.calls, 151, "nothing is sent after the 429")

	// the rate-limited job and everything after it stay unsubmitted
	assert.Equal(t, 30, countSubmitted(t, fs, store.NewURLs(0)))
	limited, _ := fs.Get("rn-150")
	assert.Nil(t, limited.GoogleIndexedAt)
	assert.Equal(t, 5, countSubmitted(t, fs, store.DeletedURLs(0)))
	assert.True(t, rep.NeedsAlert())
}

func TestOrdinaryFailuresDoNotHalt(t *testing.T) {
	fs := seed(t, 4, 1)
	n := &fakeNotifier{fail: func(call int, _ string) error {
		if call == 2 {
			return errors.New("googleapi: Error 403: Permission denied. Failed to verify the URL ownership")
		}
		return nil
	}}
	e, _ := newEngine(fs, n, indexing.Options{})

	rep, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, rep.New.Submitted)
	assert.Equal(t, 1, rep.New.Failed)
	assert.Len(t, rep.New.Failures, 1)
	assert.True(t, rep.Deleted.Ran)
	assert.Equal(t, 1, rep.Deleted.Submitted)
	assert.Equal(t, 1, countSubmitted(t, fs, store.NewURLs(0)), "failed url stays a candidate")
}

func TestQuotaCapsSubmissions(t *testing.T) {
	fs := seed(t, 8, 3)
	n := &fakeNotifier{}
	e, _ := newEngine(fs, n, indexing.Options{DailyQuota: 5})

	rep, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, rep.New.Submitted)
	assert.Equal(t, 5, rep.QuotaUsed)
	assert.False(t, rep.Deleted.Ran)
	assert.Len(t, n.calls, 5)
}

func TestQuotaNeverExceedsHardLimit(t *testing.T) {
	fs := seed(t, 1, 0)
	e, _ := newEngine(fs, &fakeNotifier{}, indexing.Options{DailyQuota: 500})
	rep, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, indexing.HardDailyLimit, rep.QuotaLimit)
}

func TestQuotaSharedAcrossRunsOfTheSameDay(t *testing.T) {
	ctx := context.Background()
	fs := seed(t, 12, 2)

	first, _ := newEngine(fs, &fakeNotifier{}, indexing.Options{DailyQuota: 8})
	rep, err := first.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, rep.QuotaUsed)

	used, err := fs.IndexingQuotaUsed(ctx, t0)
	require.NoError(t, err)
	assert.Equal(t, 8, used)

	// a manual rerun later that day gets nothing
	n := &fakeNotifier{}
	again, _ := newEngine(fs, n, indexing.Options{DailyQuota: 8})
	again.SetClock(func() time.Time { return t0.Add(10 * time.Hour) })
	rep, err = again.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, n.calls)
	assert.Zero(t, rep.QuotaUsed)
	assert.Equal(t, 8, rep.QuotaEarlier)
	assert.False(t, rep.New.Ran)
	assert.True(t, rep.NeedsAlert())
	assert.Contains(t, rep.Summary(), "quota 8/8 (8 by earlier runs)")

	// the next UTC day starts fresh
	n = &fakeNotifier{}
	next, _ := newEngine(fs, n, indexing.Options{DailyQuota: 8})
	next.SetClock(func() time.Time { return t0.Add(24 * time.Hour) })
	rep, err = next.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, rep.QuotaEarlier)
	assert.Equal(t, 4, rep.New.Submitted)
	assert.Equal(t, 2, rep.Deleted.Submitted)
	assert.Len(t, n.calls, 6)
}

func TestQuotaLeftoverFromEarlierRun(t *testing.T) {
	ctx := context.Background()
	fs := seed(t, 10, 0)
	require.NoError(t, fs.AddIndexingQuota(ctx, t0.Add(-5*time.Hour), 190))

	n := &fakeNotifier{}
	e, _ := newEngine(fs, n, indexing.Options{})
	rep, err := e.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, rep.New.Submitted)
	assert.Len(t, n.calls, 5)
	assert.Equal(t, 195, rep.DayUsed())

	used, err := fs.IndexingQuotaUsed(ctx, t0)
	require.NoError(t, err)
	assert.Equal(t, 195, used)
}

func TestDryRunDoesNotChargeQuota(t *testing.T) {
	ctx := context.Background()
	fs := seed(t, 3, 0)
	e, _ := newEngine(fs, &fakeNotifier{}, indexing.Options{DryRun: true})
	_, err := e.Run(ctx)
	require.NoError(t, err)

	used, err := fs.IndexingQuotaUsed(ctx, t0)
	require.NoError(t, err)
	assert.Zero(t, used)
}

func TestThrottling(t *testing.T) {
	fs := seed(t, 5, 0)
	e, slept := newEngine(fs, &fakeNotifier{}, indexing.Options{
		BatchSize:    2,
		RequestDelay: 2 * time.Second,
		BatchPause:   30 * time.Second,
	})

	_, err := e.Run(context.Background())
	require.NoError(t, err)
	// batches [0 1] [2 3] [4]
	assert.Equal(t, []time.Duration{
		2 * time.Second,
		30 * time.Second, 2 * time.Second,
		30 * time.Second,
	}, *slept)
}

func TestDryRun(t *testing.T) {
	fs := seed(t, 3, 2)
	n := &fakeNotifier{}
	e, _ := newEngine(fs, n, indexing.Options{DryRun: true})

	rep, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, rep.DryRun)
	assert.Equal(t, 3, rep.New.Submitted)
	assert.Equal(t, 2, rep.Deleted.Submitted)
	assert.Equal(t, 5, rep.QuotaUsed)
	assert.Empty(t, n.calls)
	assert.Equal(t, 3, countSubmitted(t, fs, store.NewURLs(0)))
	assert.Contains(t, rep.Summary(), "(dry run)")
}

func TestIsRateLimited(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{&googleapi.Error{Code: 429}, true},
		{fmt.Errorf("publish: %w", &googleapi.Error{Code: 429}), true},
		{&googleapi.Error{Code: 403, Message: "Permission denied"}, false},
		{errors.New("Quota exceeded for metric"), true},
		{errors.New("user rate limit exceeded"), true},
		{errors.New("connection reset"), false},
		{indexing.ErrRateLimited, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, indexing.IsRateLimited(tt.err), "%v", tt.err)
	}
}
