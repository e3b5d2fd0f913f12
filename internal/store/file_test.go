package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-nursejobs-pipeline/internal/models"
	"go-nursejobs-pipeline/internal/store"
)

var t0 = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func job(slug string) models.NormalizedJob {
	return models.NormalizedJob{
		Slug:         slug,
		Title:        "Registered Nurse",
		City:         "Hartford",
		State:        "CT",
		EmployerSlug: "hartford-healthcare",
		JobType:      models.JobTypeFullTime,
	}
}

func openStore(t *testing.T) (*store.FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobs.json")
	fs, err := store.OpenFileStore(path)
	require.NoError(t, err)
	fs.SetClock(func() time.Time { return t0 })
	return fs, path
}

func TestUpsertBatchIsIdempotent(t *testing.T) {
	ctx := context.Background()
	fs, _ := openStore(t)

	batch := []models.NormalizedJob{job("rn-a"), job("rn-b")}
	res, err := fs.UpsertBatch(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, store.UpsertResult{Created: 2}, res)

	res, err = fs.UpsertBatch(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, store.UpsertResult{Updated: 2}, res)
	assert.Equal(t, 2, fs.Len())
}

func TestUpsertPreservesLifecycle(t *testing.T) {
	ctx := context.Background()
	fs, _ := openStore(t)

	_, err := fs.UpsertBatch(ctx, []models.NormalizedJob{job("rn-a")})
	require.NoError(t, err)
	first, _ := fs.Get("rn-a")
	require.NotEmpty(t, first.ID)
	assert.False(t, first.IsActive)

	require.NoError(t, fs.ApplyDecisions(ctx, []models.Decision{{JobID: first.ID, Approve: true}}, t0))
	require.NoError(t, fs.MarkSubmitted(ctx, []string{first.ID}, t0))

	changed := job("rn-a")
	changed.Title = "Registered Nurse - ICU"
	changed.IsActive = false
	_, err = fs.UpsertBatch(ctx, []models.NormalizedJob{changed})
	require.NoError(t, err)

	got, _ := fs.Get("rn-a")
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, "Registered Nurse - ICU", got.Title)
	assert.True(t, got.IsActive)
	require.NotNil(t, got.GoogleIndexedAt)
	require.NotNil(t, got.ClassifiedAt)
}

func TestFindCandidatesPhases(t *testing.T) {
	ctx := context.Background()
	fs, _ := openStore(t)
	_, err := fs.UpsertBatch(ctx, []models.NormalizedJob{job("a"), job("b"), job("c")})
	require.NoError(t, err)

	a, _ := fs.Get("a")
	b, _ := fs.Get("b")
	require.NoError(t, fs.ApplyDecisions(ctx, []models.Decision{
		{JobID: a.ID, Approve: true},
		{JobID: b.ID, Approve: false, Reason: "LPN role"},
	}, t0))

	fresh, err := fs.FindCandidates(ctx, store.NewURLs(0))
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, "a", fresh[0].Slug)

	pending, err := fs.FindCandidates(ctx, store.Unclassified(0))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "c", pending[0].Slug)

	rejected, _ := fs.Get("b")
	assert.Equal(t, "LPN role", rejected.RejectionReason)

	require.NoError(t, fs.MarkSubmitted(ctx, []string{a.ID}, t0))
	_, err = fs.DeactivateMissing(ctx, "hartford-healthcare", []string{"b", "c"}, t0)
	require.NoError(t, err)

	deleted, err := fs.FindCandidates(ctx, store.DeletedURLs(0))
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.Equal(t, "a", deleted[0].Slug)

	require.NoError(t, fs.ClearSubmitted(ctx, []string{a.ID}))
	deleted, err = fs.FindCandidates(ctx, store.DeletedURLs(0))
	require.NoError(t, err)
	assert.Empty(t, deleted)
}

func TestFindCandidatesLimit(t *testing.T) {
	ctx := context.Background()
	fs, _ := openStore(t)
	_, err := fs.UpsertBatch(ctx, []models.NormalizedJob{job("a"), job("b"), job("c")})
	require.NoError(t, err)

	got, err := fs.FindCandidates(ctx, store.Unclassified(2))
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestDeactivateMissingAndReseen(t *testing.T) {
	ctx := context.Background()
	fs, _ := openStore(t)
	other := job("elsewhere")
	other.EmployerSlug = "yale-new-haven"
	_, err := fs.UpsertBatch(ctx, []models.NormalizedJob{job("a"), job("b"), other})
	require.NoError(t, err)

	a, _ := fs.Get("a")
	require.NoError(t, fs.ApplyDecisions(ctx, []models.Decision{{JobID: a.ID, Approve: true}}, t0))

	n, err := fs.DeactivateMissing(ctx, "hartford-healthcare", []string{"b"}, t0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	expired, _ := fs.Get("a")
	assert.False(t, expired.IsActive)
	require.NotNil(t, expired.ExpiredAt)

	untouched, _ := fs.Get("elsewhere")
	assert.Nil(t, untouched.ExpiredAt)

	n, err = fs.DeactivateMissing(ctx, "hartford-healthcare", []string{"b"}, t0)
	require.NoError(t, err)
	assert.Zero(t, n, "already expired jobs are not counted again")

	// seen again: back to the classifier
	_, err = fs.UpsertBatch(ctx, []models.NormalizedJob{job("a")})
	require.NoError(t, err)
	back, _ := fs.Get("a")
	assert.Nil(t, back.ExpiredAt)
	assert.Nil(t, back.ClassifiedAt)
	assert.False(t, back.IsActive)
}

func TestExpiredJobsSkipClassifierAndIndexing(t *testing.T) {
	ctx := context.Background()
	fs, _ := openStore(t)
	_, err := fs.UpsertBatch(ctx, []models.NormalizedJob{job("rn-a")})
	require.NoError(t, err)

	_, err = fs.DeactivateMissing(ctx, "hartford-healthcare", nil, t0)
	require.NoError(t, err)

	pending, err := fs.FindCandidates(ctx, store.Unclassified(0))
	require.NoError(t, err)
	assert.Empty(t, pending)

	// a decision arriving anyway must not make it a new url
	a, _ := fs.Get("rn-a")
	require.NoError(t, fs.ApplyDecisions(ctx, []models.Decision{{JobID: a.ID, Approve: true}}, t0))
	stale, _ := fs.Get("rn-a")
	assert.False(t, stale.IsActive)
	assert.Nil(t, stale.ClassifiedAt)
	fresh, err := fs.FindCandidates(ctx, store.NewURLs(0))
	require.NoError(t, err)
	assert.Empty(t, fresh)

	// seen again, it is queued for classification once more
	_, err = fs.UpsertBatch(ctx, []models.NormalizedJob{job("rn-a")})
	require.NoError(t, err)
	pending, err = fs.FindCandidates(ctx, store.Unclassified(0))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "rn-a", pending[0].Slug)
}

func TestFileStoreReload(t *testing.T) {
	ctx := context.Background()
	fs, path := openStore(t)
	_, err := fs.UpsertBatch(ctx, []models.NormalizedJob{job("a")})
	require.NoError(t, err)
	_, err = fs.UpsertPageStats(ctx, []models.PageStat{
		{URL: "https://nursejobs.example/jobs/a", Date: t0, Clicks: 3, Impressions: 40},
		{URL: "https://nursejobs.example/jobs/a", Date: t0.Add(2 * time.Hour), Clicks: 5, Impressions: 50},
	})
	require.NoError(t, err)

	reopened, err := store.OpenFileStore(path)
	require.NoError(t, err)
	assert.Equal(t, 1, reopened.Len())

	stats := reopened.PageStats("https://nursejobs.example/jobs/a")
	require.Len(t, stats, 1, "same url and day collapse to one row")
	assert.Equal(t, 5, stats[0].Clicks)
}

func TestIndexingQuotaPerUTCDay(t *testing.T) {
	ctx := context.Background()
	fs, path := openStore(t)
	require.NoError(t, fs.AddIndexingQuota(ctx, t0, 3))
	require.NoError(t, fs.AddIndexingQuota(ctx, t0.Add(5*time.Hour), 2))
	require.NoError(t, fs.AddIndexingQuota(ctx, t0.Add(48*time.Hour), 1))

	reopened, err := store.OpenFileStore(path)
	require.NoError(t, err)
	used, err := reopened.IndexingQuotaUsed(ctx, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 5, used)

	used, err = reopened.IndexingQuotaUsed(ctx, t0.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, used)
}

func TestUpsertRejectsEmptySlug(t *testing.T) {
	fs, _ := openStore(t)
	_, err := fs.UpsertBatch(context.Background(), []models.NormalizedJob{job("")})
	assert.Error(t, err)
}
