// Package store defines the job store gateway shared by the scraper, the
// indexing engine and the classifier, plus a JSON file implementation.
package store

import (
	"context"
	"time"

	"go-nursejobs-pipeline/internal/models"
)

// Gateway is the persistence boundary. The natural key for upserts is the
// job slug.
type Gateway interface {
	FindCandidates(ctx context.Context, f Filter) ([]models.NormalizedJob, error)
	UpsertBatch(ctx context.Context, jobs []models.NormalizedJob) (UpsertResult, error)
	MarkSubmitted(ctx context.Context, ids []string, ts time.Time) error
	ClearSubmitted(ctx context.Context, ids []string) error

	// DeactivateMissing marks active jobs of an employer whose slug is not in
	// seen as inactive and expired. It returns how many were changed.
	DeactivateMissing(ctx context.Context, employerSlug string, seen []string, ts time.Time) (int, error)

	// ApplyDecisions ignores decisions for expired jobs.
	ApplyDecisions(ctx context.Context, decisions []models.Decision, ts time.Time) error
	UpsertPageStats(ctx context.Context, stats []models.PageStat) (int, error)

	// IndexingQuotaUsed reports the submissions recorded for the UTC day of
	// day. AddIndexingQuota adds n to that count.
	IndexingQuotaUsed(ctx context.Context, day time.Time) (int, error)
	AddIndexingQuota(ctx context.Context, day time.Time, n int) error
}

type UpsertResult struct {
	Created int
	Updated int
}

func (r *UpsertResult) Add(o UpsertResult) {
	r.Created += o.Created
	r.Updated += o.Updated
}

// Filter selects jobs. Nil fields match anything. Results are ordered
// oldest first.
type Filter struct {
	Active       *bool
	Submitted    *bool
	Classified   *bool
	Expired      *bool
	EmployerSlug string
	Limit        int
}

// NewURLs selects live jobs never submitted for indexing.
func NewURLs(limit int) Filter {
	return Filter{Active: boolPtr(true), Submitted: boolPtr(false), Expired: boolPtr(false), Limit: limit}
}

// DeletedURLs selects inactive jobs still marked as submitted.
func DeletedURLs(limit int) Filter {
	return Filter{Active: boolPtr(false), Submitted: boolPtr(true), Limit: limit}
}

// Unclassified selects inactive jobs waiting for the classifier. Expired
// jobs wait until they are seen again.
func Unclassified(limit int) Filter {
	return Filter{Active: boolPtr(false), Classified: boolPtr(false), Expired: boolPtr(false), Limit: limit}
}

// Match applies f to one job in memory.
func (f Filter) Match(j *models.NormalizedJob) bool {
	if f.Active != nil && j.IsActive != *f.Active {
		return false
	}
	if f.Submitted != nil && (j.GoogleIndexedAt != nil) != *f.Submitted {
		return false
	}
	if f.Classified != nil && (j.ClassifiedAt != nil) != *f.Classified {
		return false
	}
	if f.Expired != nil && (j.ExpiredAt != nil) != *f.Expired {
		return false
	}
	if f.EmployerSlug != "" && j.EmployerSlug != f.EmployerSlug {
		return false
	}
	return true
}

func boolPtr(v bool) *bool { return &v }

// Merge copies scraped content from incoming onto an existing record while
// keeping its lifecycle state. An expired job that shows up again goes
// back to the classifier.
func Merge(existing, incoming models.NormalizedJob, now time.Time) models.NormalizedJob {
	out := incoming
	out.ID = existing.ID
	out.CreatedAt = existing.CreatedAt
	out.IsActive = existing.IsActive
	out.GoogleIndexedAt = existing.GoogleIndexedAt
	out.ClassifiedAt = existing.ClassifiedAt
	out.RejectionReason = existing.RejectionReason
	out.ExpiredAt = nil
	if existing.ExpiredAt != nil {
		out.ClassifiedAt = nil
		out.RejectionReason = ""
	}
	out.LastSeenAt = now
	out.UpdatedAt = now
	return out
}
