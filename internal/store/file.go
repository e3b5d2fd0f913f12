package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"

	"go-nursejobs-pipeline/internal/models"
)

type fileData struct {
	Jobs      []models.NormalizedJob `json:"jobs"`
	PageStats []models.PageStat      `json:"page_stats,omitempty"`
	Quota     map[string]int         `json:"indexing_quota,omitempty"`
}

// FileStore keeps every job in one JSON file. It is meant for local runs
// and tests, not for concurrent processes.
type FileStore struct {
	mu       sync.Mutex
	filePath string
	jobs     map[string]*models.NormalizedJob // by slug
	stats    map[string]models.PageStat       // by url|date
	quota    map[string]int                   // by UTC date
	now      func() time.Time
}

var _ Gateway = (*FileStore)(nil)

// OpenFileStore loads path, creating its directory if needed. A missing
// file is an empty store.
func OpenFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	fs := &FileStore{
		filePath: path,
		jobs:     make(map[string]*models.NormalizedJob),
		stats:    make(map[string]models.PageStat),
		quota:    make(map[string]int),
		now:      time.Now,
	}
	if err := fs.load(); err != nil {
		return nil, err
	}
	return fs, nil
}

// SetClock replaces the time source used for timestamps.
func (fs *FileStore) SetClock(now func() time.Time) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.now = now
}

func (fs *FileStore) load() error {
	data, err := os.ReadFile(fs.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read store: %w", err)
	}
	var fd fileData
	if err := json.Unmarshal(data, &fd); err != nil {
		return fmt.Errorf("parse store %s: %w", fs.filePath, err)
	}
	for i := range fd.Jobs {
		j := fd.Jobs[i]
		fs.jobs[j.Slug] = &j
	}
	for _, s := range fd.PageStats {
		fs.stats[statKey(s)] = s
	}
	for day, n := range fd.Quota {
		fs.quota[day] = n
	}
	return nil
}

// save writes the current state. Callers hold mu.
func (fs *FileStore) save() error {
	fd := fileData{Jobs: fs.sorted(), PageStats: make([]models.PageStat, 0, len(fs.stats)), Quota: fs.quota}
	for _, s := range fs.stats {
		fd.PageStats = append(fd.PageStats, s)
	}
	sort.Slice(fd.PageStats, func(i, j int) bool { return statKey(fd.PageStats[i]) < statKey(fd.PageStats[j]) })

	data, err := json.MarshalIndent(fd, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}
	tmp := fs.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	return os.Rename(tmp, fs.filePath)
}

func (fs *FileStore) sorted() []models.NormalizedJob {
	out := make([]models.NormalizedJob, 0, len(fs.jobs))
	for _, j := range fs.jobs {
		out = append(out, *j)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Slug < out[j].Slug
	})
	return out
}

func (fs *FileStore) FindCandidates(_ context.Context, f Filter) ([]models.NormalizedJob, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	var out []models.NormalizedJob
	for _, j := range fs.sorted() {
		if !f.Match(&j) {
			continue
		}
		out = append(out, j)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

// Get returns the job with slug, if any.
func (fs *FileStore) Get(slug string) (models.NormalizedJob, bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	j, ok := fs.jobs[slug]
	if !ok {
		return models.NormalizedJob{}, false
	}
	return *j, true
}

func (fs *FileStore) Len() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return len(fs.jobs)
}

func (fs *FileStore) UpsertBatch(_ context.Context, jobs []models.NormalizedJob) (UpsertResult, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	now := fs.now().UTC()
	var res UpsertResult
	for _, in := range jobs {
		if in.Slug == "" {
			return res, fmt.Errorf("upsert %q: empty slug", in.Title)
		}
		if existing, ok := fs.jobs[in.Slug]; ok {
			merged := Merge(*existing, in, now)
			fs.jobs[in.Slug] = &merged
			res.Updated++
			continue
		}
		j := in
		if j.ID == "" {
			j.ID = uuid.NewString()
		}
		j.IsActive = false
		j.GoogleIndexedAt, j.ClassifiedAt, j.ExpiredAt = nil, nil, nil
		j.CreatedAt, j.UpdatedAt, j.LastSeenAt = now, now, now
		fs.jobs[j.Slug] = &j
		res.Created++
	}
	return res, fs.save()
}

func (fs *FileStore) byID(ids []string, fn func(*models.NormalizedJob)) error {
	want := mapset.NewThreadUnsafeSet(ids...)
	for _, j := range fs.jobs {
		if want.Contains(j.ID) {
			fn(j)
		}
	}
	return fs.save()
}

func (fs *FileStore) MarkSubmitted(_ context.Context, ids []string, ts time.Time) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.byID(ids, func(j *models.NormalizedJob) {
		t := ts
		j.GoogleIndexedAt = &t
	})
}

func (fs *FileStore) ClearSubmitted(_ context.Context, ids []string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.byID(ids, func(j *models.NormalizedJob) {
		j.GoogleIndexedAt = nil
	})
}

func (fs *FileStore) DeactivateMissing(_ context.Context, employerSlug string, seen []string, ts time.Time) (int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	keep := mapset.NewThreadUnsafeSet(seen...)
	n := 0
	for slug, j := range fs.jobs {
		if j.EmployerSlug != employerSlug || keep.Contains(slug) || j.ExpiredAt != nil {
			continue
		}
		t := ts
		j.IsActive = false
		j.ExpiredAt = &t
		j.UpdatedAt = ts
		n++
	}
	if n == 0 {
		return 0, nil
	}
	return n, fs.save()
}

func (fs *FileStore) ApplyDecisions(_ context.Context, decisions []models.Decision, ts time.Time) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	byID := make(map[string]models.Decision, len(decisions))
	for _, d := range decisions {
		byID[d.JobID] = d
	}
	for _, j := range fs.jobs {
		d, ok := byID[j.ID]
		if !ok || j.ExpiredAt != nil {
			continue
		}
		t := ts
		j.ClassifiedAt = &t
		j.IsActive = d.Approve
		j.RejectionReason = ""
		if !d.Approve {
			j.RejectionReason = d.Reason
		}
		j.UpdatedAt = ts
	}
	return fs.save()
}

func (fs *FileStore) UpsertPageStats(_ context.Context, stats []models.PageStat) (int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for _, s := range stats {
		s.Date = s.Date.UTC().Truncate(24 * time.Hour)
		fs.stats[statKey(s)] = s
	}
	return len(stats), fs.save()
}

// PageStats returns stored rows for url ordered by date.
func (fs *FileStore) PageStats(url string) []models.PageStat {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	var out []models.PageStat
	for _, s := range fs.stats {
		if s.URL == url {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func (fs *FileStore) IndexingQuotaUsed(_ context.Context, day time.Time) (int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.quota[quotaKey(day)], nil
}

func (fs *FileStore) AddIndexingQuota(_ context.Context, day time.Time, n int) error {
	if n == 0 {
		return nil
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.quota[quotaKey(day)] += n
	return fs.save()
}

func quotaKey(day time.Time) string {
	return day.UTC().Format("2006-01-02")
}

func statKey(s models.PageStat) string {
	return s.URL + "|" + s.Date.UTC().Format("2006-01-02")
}
