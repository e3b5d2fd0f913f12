package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-nursejobs-pipeline/internal/logger"
	"go-nursejobs-pipeline/internal/models"
	"go-nursejobs-pipeline/internal/store"
)

func TestCleanMarkdownJSON(t *testing.T) {
	tests := map[string]string{
		"```json\n[1]\n```": "[1]",
		"```\n[2]\n```":     "[2]",
		"  [3]  ":           "[3]",
	}
	for in, want := range tests {
		assert.Equal(t, want, cleanMarkdownJSON(in))
	}
}

func TestParseDecisions(t *testing.T) {
	jobs := []models.NormalizedJob{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	content := "```json\n" + `[
		{"job_id": "a", "approve": true, "reason": "looks fine"},
		{"job_id": "b", "approve": false},
		{"job_id": "b", "approve": true},
		{"job_id": "zzz", "approve": true}
	]` + "\n```"

	got, err := parseDecisions(content, jobs)
	require.NoError(t, err)
	assert.Equal(t, []models.Decision{
		{JobID: "a", Approve: true},
		{JobID: "b", Approve: false, Reason: "classifier_rejected"},
	}, got)

	_, err = parseDecisions("I cannot help with that", jobs)
	assert.Error(t, err)
}

func TestBuildUserPromptTruncatesDescription(t *testing.T) {
	long := make([]rune, maxDescription+100)
	for i := range long {
		long[i] = 'é'
	}
	prompt, err := buildUserPrompt([]models.NormalizedJob{{ID: "a", Title: "RN", City: "Hartford", State: "CT", Description: string(long)}})
	require.NoError(t, err)
	assert.Contains(t, prompt, `"location":"Hartford, CT"`)
	assert.NotContains(t, prompt, string(long))
}

func groqServer(t *testing.T, content string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer gsk_test", r.Header.Get("Authorization"))
		var req groqRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.Messages, 2)

		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"rate limit reached"}}`))
			return
		}
		resp := map[string]any{"choices": []any{map[string]any{"message": map[string]any{"content": content}}}}
		assert.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestGroqClassify(t *testing.T) {
	srv := groqServer(t, `[{"job_id":"a","approve":false,"reason":"lpn_role"}]`, http.StatusOK)
	defer srv.Close()

	c := NewGroqClient("gsk_test", srv.URL, "")
	got, err := c.Classify(context.Background(), []models.NormalizedJob{{ID: "a", Title: "LPN"}})
	require.NoError(t, err)
	assert.Equal(t, []models.Decision{{JobID: "a", Reason: "lpn_role"}}, got)
}

func TestGroqClassifyHTTPError(t *testing.T) {
	srv := groqServer(t, "", http.StatusTooManyRequests)
	defer srv.Close()

	c := NewGroqClient("gsk_test", srv.URL, "")
	_, err := c.Classify(context.Background(), []models.NormalizedJob{{ID: "a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

type staticClassifier struct {
	approve map[string]bool
	err     error
	seen    int
}

func (s *staticClassifier) Classify(_ context.Context, jobs []models.NormalizedJob) ([]models.Decision, error) {
	s.seen += len(jobs)
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Decision
	for _, j := range jobs {
		ok, decided := s.approve[j.Slug]
		if !decided {
			continue
		}
		d := models.Decision{JobID: j.ID, Approve: ok}
		if !ok {
			d.Reason = "not_rn"
		}
		out = append(out, d)
	}
	return out, nil
}

func seedStore(t *testing.T, slugs ...string) *store.FileStore {
	t.Helper()
	fs, err := store.OpenFileStore(filepath.Join(t.TempDir(), "jobs.json"))
	require.NoError(t, err)
	var jobs []models.NormalizedJob
	for _, s := range slugs {
		jobs = append(jobs, models.NormalizedJob{Slug: s, Title: s, EmployerSlug: "hhc"})
	}
	_, err = fs.UpsertBatch(context.Background(), jobs)
	require.NoError(t, err)
	return fs
}

func TestRunnerAppliesDecisions(t *testing.T) {
	fs := seedStore(t, "rn-icu", "cna-float", "rn-ed")
	c := &staticClassifier{approve: map[string]bool{"rn-icu": true, "cna-float": false}}
	r := NewRunner(fs, c, 10, false, logger.NewNop())
	ts := time.Date(2026, 3, 12, 8, 0, 0, 0, time.UTC)
	r.SetClock(func() time.Time { return ts })

	stats, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Loaded: 3, Approved: 1, Rejected: 1, Undecided: 1}, *stats)

	icu, _ := fs.Get("rn-icu")
	assert.True(t, icu.IsActive)
	require.NotNil(t, icu.ClassifiedAt)

	cna, _ := fs.Get("cna-float")
	assert.False(t, cna.IsActive)
	assert.Equal(t, "not_rn", cna.RejectionReason)

	ed, _ := fs.Get("rn-ed")
	assert.Nil(t, ed.ClassifiedAt)

	// only the undecided job is loaded again
	stats, err = r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Loaded)
}

func TestRunnerDryRun(t *testing.T) {
	fs := seedStore(t, "rn-icu")
	r := NewRunner(fs, &staticClassifier{approve: map[string]bool{"rn-icu": true}}, 10, true, logger.NewNop())

	stats, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Approved)

	icu, _ := fs.Get("rn-icu")
	assert.False(t, icu.IsActive)
	assert.Nil(t, icu.ClassifiedAt)
}

func TestRunnerClassifierError(t *testing.T) {
	fs := seedStore(t, "rn-icu")
	r := NewRunner(fs, &staticClassifier{err: errors.New("boom")}, 10, false, logger.NewNop())

	_, err := r.Run(context.Background())
	require.Error(t, err)
	icu, _ := fs.Get("rn-icu")
	assert.Nil(t, icu.ClassifiedAt)
}

func TestRunnerNothingToDo(t *testing.T) {
	fs := seedStore(t)
	c := &staticClassifier{}
	stats, err := NewRunner(fs, c, 10, false, logger.NewNop()).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Loaded)
	assert.Zero(t, c.seen)
}
