package pagination_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-nursejobs-pipeline/internal/browser"
	"go-nursejobs-pipeline/internal/browser/browsertest"
	"go-nursejobs-pipeline/internal/config"
	"go-nursejobs-pipeline/internal/logger"
	"go-nursejobs-pipeline/internal/models"
	"go-nursejobs-pipeline/internal/pagination"
)

const (
	baseURL   = "https://jobs.example.com/"
	searchURL = "https://jobs.example.com/search"
)

var testSelectors = config.Selectors{
	ListingReady: "ul.jobs",
	JobCard:      "li.job",
	JobLink:      "a.title",
	CardLocation: ".loc",
	LoadMoreText: []string{"Load more"},
	NextButton:   "button.next",
	PageButton:   `button[data-page="%d"]`,
	ActivePage:   "button.active",
	DetailReady:  "h1",
}

type listing struct {
	page       int
	ids        []int
	next       string
	loadMore   string
	pageLinks  int
	scrollNext string
}

func (l listing) html() string {
	var b strings.Builder
	if l.scrollNext != "" {
		fmt.Fprintf(&b, `<html><body data-scroll-href="%s"><ul class="jobs">`, l.scrollNext)
	} else {
		b.WriteString(`<html><body><ul class="jobs">`)
	}
	for _, id := range l.ids {
		fmt.Fprintf(&b, `<li class="job"><a class="title" href="/job/RN_R%d">Registered Nurse %d</a><span class="loc">Hartford, CT</span></li>`, id, id)
	}
	b.WriteString(`</ul><nav>`)
	if l.page > 0 {
		fmt.Fprintf(&b, `<button class="active">%d</button>`, l.page)
	}
	for i := 1; i <= l.pageLinks; i++ {
		fmt.Fprintf(&b, `<button data-page="%d" data-href="/search?page=%d">%d</button>`, i, i, i)
	}
	if l.next != "" {
		fmt.Fprintf(&b, `<button class="next" data-href="%s">Next</button>`, l.next)
	}
	if l.loadMore != "" {
		fmt.Fprintf(&b, `<button data-href="%s">Load more jobs</button>`, l.loadMore)
	}
	b.WriteString(`</nav></body></html>`)
	return b.String()
}

func detailURL(id int) string {
	return fmt.Sprintf("https://jobs.example.com/job/RN_R%d", id)
}

func pageURL(n int) string {
	if n == 1 {
		return searchURL
	}
	return fmt.Sprintf("%s?page=%d", searchURL, n)
}

func ids(from, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = from + i
	}
	return out
}

func newSite(t *testing.T) *browsertest.Site {
	t.Helper()
	site := browsertest.NewSite()
	site.Handle(baseURL, `<html><body>home</body></html>`)
	for id := 1; id <= 100; id++ {
		site.Handle(detailURL(id), fmt.Sprintf(`<html><body><h1>Registered Nurse %d</h1></body></html>`, id))
	}
	return site
}

// threePages serves pages 1..3 with five distinct jobs each.
func threePages(site *browsertest.Site, pageLinks int) {
	for n := 1; n <= 3; n++ {
		l := listing{page: n, ids: ids((n-1)*5+1, 5), pageLinks: pageLinks}
		if n < 3 {
			l.next = fmt.Sprintf("/search?page=%d", n+1)
		}
		site.Handle(pageURL(n), l.html())
	}
}

type recorder struct {
	visited []string
	reject  func(models.JobListingCandidate) bool
	onVisit func(models.JobListingCandidate)
}

func (r *recorder) Accept(c models.JobListingCandidate) bool {
	return r.reject == nil || !r.reject(c)
}

func (r *recorder) Visit(_ context.Context, c models.JobListingCandidate, _ string) {
	r.visited = append(r.visited, c.DetailURL)
	if r.onVisit != nil {
		r.onVisit(c)
	}
}

func run(t *testing.T, site *browsertest.Site, opts pagination.Options, v *recorder) (*pagination.Result, error) {
	t.Helper()
	session, err := browser.NewSession(site.Opener(), baseURL, logger.NewNop())
	require.NoError(t, err)
	if opts.SearchURL == "" {
		opts.SearchURL = searchURL
	}
	if opts.Selectors.JobCard == "" {
		opts.Selectors = testSelectors
	}
	ctrl := pagination.New(opts, logger.NewNop(), nil)
	return ctrl.Run(context.Background(), session, v)
}

func TestRunStopsAfterStableIterations(t *testing.T) {
	site := newSite(t)
	same := ids(1, 20)
	for n := 1; n <= 10; n++ {
		site.Handle(pageURL(n), listing{page: n, ids: same, next: fmt.Sprintf("/search?page=%d", n+1)}.html())
	}

	v := &recorder{}
	res, err := run(t, site, pagination.Options{}, v)
	require.NoError(t, err)

	assert.Equal(t, pagination.NoNewResults, res.Termination)
	assert.True(t, res.Termination.Natural())
	assert.Equal(t, 3, res.StableIterations)
	assert.Equal(t, 4, res.Iterations)
	assert.Equal(t, 20, res.Processed)
	assert.Equal(t, 20, res.Seen)
	assert.Len(t, v.visited, 20)
}

func TestRunFollowsNextButton(t *testing.T) {
	site := newSite(t)
	threePages(site, 0)

	v := &recorder{}
	res, err := run(t, site, pagination.Options{}, v)
	require.NoError(t, err)

	assert.Equal(t, pagination.NoNewResults, res.Termination)
	assert.Equal(t, 15, res.Processed)
	assert.Equal(t, 3, res.Pages)
	assert.Equal(t, detailURL(1), v.visited[0])
	assert.Equal(t, detailURL(15), v.visited[14])
	assert.Zero(t, res.HardFailures)
}

func TestRunNextThatDoesNotNavigateKeepsPageNumber(t *testing.T) {
	site := newSite(t)
	// page 1 has a Next button that reloads page 1
	site.Handle(pageURL(1), listing{page: 1, ids: ids(1, 5), pageLinks: 3, next: "/search"}.html())
	site.Handle(pageURL(2), listing{page: 2, ids: ids(6, 5), pageLinks: 3}.html())
	site.Handle(pageURL(3), listing{page: 3, ids: ids(11, 5), pageLinks: 3}.html())

	v := &recorder{}
	res, err := run(t, site, pagination.Options{}, v)
	require.NoError(t, err)

	assert.Equal(t, 15, res.Processed)
	assert.Equal(t, 3, res.Pages)
	assert.Contains(t, site.Clicks, `button[data-page="2"]`)
	assert.Equal(t, detailURL(6), v.visited[5])
}

func TestRunLoadMoreByText(t *testing.T) {
	site := newSite(t)
	site.Handle(searchURL, listing{ids: ids(1, 5), loadMore: "/search?more=1"}.html())
	site.Handle(searchURL+"?more=1", listing{ids: ids(1, 10)}.html())

	opts := pagination.Options{Selectors: testSelectors}
	opts.Selectors.ActivePage = ""
	v := &recorder{}
	res, err := run(t, site, opts, v)
	require.NoError(t, err)

	assert.Equal(t, 10, res.Processed)
	assert.Contains(t, site.Clicks, "button, a Load more")
}

func TestRunInfiniteScroll(t *testing.T) {
	site := newSite(t)
	site.Handle(searchURL, listing{ids: ids(1, 5), scrollNext: "/search?offset=5"}.html())
	site.Handle(searchURL+"?offset=5", listing{ids: ids(1, 8)}.html())

	opts := pagination.Options{Selectors: testSelectors}
	opts.Selectors.ActivePage = ""
	res, err := run(t, site, opts, &recorder{})
	require.NoError(t, err)
	assert.Equal(t, 8, res.Processed)
}

func TestRunReturnsToListingBySearchFallback(t *testing.T) {
	site := newSite(t)
	threePages(site, 3)

	v := &recorder{}
	v.onVisit = func(c models.JobListingCandidate) {
		if c.DetailURL == detailURL(6) {
			site.FailNext(pageURL(2), errors.New("net::ERR_CONNECTION_RESET"))
		}
	}
	res, err := run(t, site, pagination.Options{}, v)
	require.NoError(t, err)

	assert.Equal(t, 15, res.Processed)
	assert.Contains(t, site.Clicks, `button[data-page="2"]`)
	assert.Equal(t, detailURL(11), v.visited[10])
}

func TestRunRecoversDetachedPage(t *testing.T) {
	site := newSite(t)
	threePages(site, 0)
	site.DetachOn(detailURL(3), 1)

	res, err := run(t, site, pagination.Options{}, &recorder{})
	require.NoError(t, err)

	assert.Equal(t, 15, res.Processed)
	assert.Equal(t, 1, res.Recoveries)
	assert.Zero(t, res.HardFailures)
	assert.Equal(t, 2, site.Opened)
}

func TestRunCountsHardFailureWhenRecoveryDoesNotHelp(t *testing.T) {
	site := newSite(t)
	threePages(site, 0)
	site.DetachOn(detailURL(3), 2)

	res, err := run(t, site, pagination.Options{}, &recorder{})
	require.NoError(t, err)

	assert.Equal(t, 1, res.HardFailures)
	assert.Equal(t, 14, res.Processed)
	assert.Equal(t, 2, res.Recoveries)
}

func TestRunSoftFailureSkipsJob(t *testing.T) {
	site := newSite(t)
	threePages(site, 0)
	site.FailNext(detailURL(4), errors.New("net::ERR_ABORTED 500"))

	res, err := run(t, site, pagination.Options{}, &recorder{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.SoftFailures)
	assert.Equal(t, 14, res.Processed)
}

func TestRunInitialLoadFailure(t *testing.T) {
	site := newSite(t)
	threePages(site, 0)
	site.FailNext(searchURL, errors.New("dns lookup failed"))

	_, err := run(t, site, pagination.Options{}, &recorder{})
	assert.ErrorIs(t, err, pagination.ErrListingLoad)
}

func TestRunPageLimit(t *testing.T) {
	site := newSite(t)
	threePages(site, 0)

	res, err := run(t, site, pagination.Options{MaxPages: 2}, &recorder{})
	require.NoError(t, err)
	assert.Equal(t, pagination.PageLimit, res.Termination)
	assert.False(t, res.Termination.Natural())
	assert.Equal(t, 10, res.Processed)
}

func TestRunIterationCeiling(t *testing.T) {
	site := newSite(t)
	threePages(site, 0)

	res, err := run(t, site, pagination.Options{MaxIterations: 2}, &recorder{})
	require.NoError(t, err)
	assert.Equal(t, pagination.Ceiling, res.Termination)
	assert.Equal(t, 2, res.Iterations)
	assert.Equal(t, 10, res.Processed)
}

func TestRunVisitorFilter(t *testing.T) {
	site := newSite(t)
	threePages(site, 0)

	v := &recorder{reject: func(c models.JobListingCandidate) bool {
		return strings.HasSuffix(c.DetailURL, "R2") || strings.HasSuffix(c.DetailURL, "R7")
	}}
	res, err := run(t, site, pagination.Options{}, v)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Filtered)
	assert.Equal(t, 13, res.Processed)
	assert.Equal(t, 0, site.VisitCount(detailURL(2)))
}

func TestRunCancelled(t *testing.T) {
	site := newSite(t)
	threePages(site, 0)
	session, err := browser.NewSession(site.Opener(), baseURL, logger.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = pagination.New(pagination.Options{SearchURL: searchURL, Selectors: testSelectors}, logger.NewNop(), nil).
		Run(ctx, session, &recorder{})
	assert.ErrorIs(t, err, context.Canceled)
}
