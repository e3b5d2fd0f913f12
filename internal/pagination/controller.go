// Package pagination drives a browser through a job listing, visiting every
// new detail page once. One listing page is handled at a time:
//
//	extract page -> filter candidates -> process details -> return to listing -> advance
//
// The run ends after MaxStableIterations consecutive passes that found no
// new detail URL, when the page limit is hit, or at the MaxIterations
// ceiling.
package pagination

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"go-nursejobs-pipeline/internal/browser"
	"go-nursejobs-pipeline/internal/config"
	"go-nursejobs-pipeline/internal/logger"
	"go-nursejobs-pipeline/internal/models"
)

// ErrListingLoad means the first listing page could not be loaded. It
// aborts the run.
var ErrListingLoad = errors.New("initial listing load failed")

const (
	DefaultMaxIterations       = 200
	DefaultMaxStableIterations = 3
	DefaultMaxScrollAttempts   = 3
)

// Termination says why a run stopped.
type Termination string

const (
	NoNewResults Termination = "no_new_results"
	PageLimit    Termination = "page_limit"
	Ceiling      Termination = "iteration_ceiling"
	Cancelled    Termination = "cancelled"
)

// Natural reports whether the listing was exhausted rather than cut short.
func (t Termination) Natural() bool {
	return t == NoNewResults
}

// Visitor receives candidates from the controller.
type Visitor interface {
	// Accept is checked before the detail page is loaded.
	Accept(c models.JobListingCandidate) bool
	// Visit handles a loaded detail page.
	Visit(ctx context.Context, c models.JobListingCandidate, detailHTML string)
}

type Options struct {
	SearchURL           string
	Selectors           config.Selectors
	MaxIterations       int
	MaxStableIterations int
	MaxScrollAttempts   int
	// 0 means no limit
	MaxPages int
	// pause after every navigation or click; zero in tests
	SettleMin time.Duration
	SettleMax time.Duration
}

// Result summarises one run.
type Result struct {
	Termination      Termination
	Iterations       int
	StableIterations int
	Pages            int
	Seen             int
	Filtered         int
	Processed        int
	SoftFailures     int
	HardFailures     int
	Recoveries       int
}

type Controller struct {
	opts  Options
	log   *logger.Logger
	shots *browser.ScreenshotDebugger

	session    *browser.Session
	seen       mapset.Set[string]
	pageNum    int
	expansions int
	listingURL string
}

func New(opts Options, log *logger.Logger, shots *browser.ScreenshotDebugger) *Controller {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if opts.MaxStableIterations <= 0 {
		opts.MaxStableIterations = DefaultMaxStableIterations
	}
	if opts.MaxScrollAttempts <= 0 {
		opts.MaxScrollAttempts = DefaultMaxScrollAttempts
	}
	return &Controller{opts: opts, log: log, shots: shots}
}

// Run scrapes the listing at opts.SearchURL. Only a failed initial listing
// load (or a cancelled context before it) is returned as an error; every
// later problem is counted in the Result.
func (c *Controller) Run(ctx context.Context, s *browser.Session, v Visitor) (*Result, error) {
	c.session = s
	c.seen = mapset.NewThreadUnsafeSet[string]()
	c.pageNum, c.expansions = 1, 0
	res := &Result{}
	defer func() { res.Recoveries = s.Recoveries }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.page().Goto(c.opts.SearchURL); err != nil && !errors.Is(err, browser.ErrTimeout) {
		return nil, fmt.Errorf("%w: %s: %v", ErrListingLoad, c.opts.SearchURL, err)
	}
	c.waitListing(ctx)
	c.listingURL = c.page().URL()

	pending, err := c.collect()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrListingLoad, err)
	}
	res.Pages = 1

	stable := 0
	for iter := 1; ; iter++ {
		if ctx.Err() != nil {
			res.Termination = Cancelled
			break
		}
		if iter > c.opts.MaxIterations {
			c.log.Warn("🛑 iteration ceiling reached", "max_iterations", c.opts.MaxIterations)
			res.Termination = Ceiling
			break
		}
		res.Iterations = iter

		if len(pending) == 0 {
			stable++
			res.StableIterations = stable
			c.log.Debug("no new results", "page", c.pageNum, "stable", stable)
			if stable >= c.opts.MaxStableIterations {
				res.Termination = NoNewResults
				break
			}
		} else {
			stable = 0
			c.log.Info("📄 listing page", "page", c.pageNum, "new", len(pending), "seen", c.seen.Cardinality())
			c.process(ctx, pending, v, res)
			c.returnToListing(ctx)
		}

		if c.opts.MaxPages > 0 && c.pageNum >= c.opts.MaxPages {
			res.Termination = PageLimit
			break
		}

		before := c.pageNum
		pending = c.advance(ctx)
		if c.pageNum != before {
			res.Pages++
		}
	}

	res.Seen = c.seen.Cardinality()
	c.log.Info("🏁 pagination finished", "termination", res.Termination, "iterations", res.Iterations,
		"pages", res.Pages, "seen", res.Seen, "processed", res.Processed,
		"soft_failures", res.SoftFailures, "hard_failures", res.HardFailures)
	return res, nil
}

func (c *Controller) page() browser.Page {
	return c.session.Page()
}

func (c *Controller) settle(ctx context.Context) {
	_ = browser.Pause(ctx, c.opts.SettleMin, c.opts.SettleMax)
}

func (c *Controller) waitListing(ctx context.Context) {
	c.settle(ctx)
	if err := c.page().WaitFor(c.opts.Selectors.ListingReady); err != nil {
		c.log.Debug("listing not ready", "error", err)
	}
}

// collect reads the current listing and returns candidates not seen before.
func (c *Controller) collect() ([]models.JobListingCandidate, error) {
	html, err := c.page().Content()
	if err != nil {
		return nil, err
	}
	cands, err := ParseListing(html, c.page().URL(), c.opts.Selectors)
	if err != nil {
		return nil, err
	}
	return unseen(cands, c.seen), nil
}

func (c *Controller) collectSoft() []models.JobListingCandidate {
	cands, err := c.collect()
	if err != nil {
		c.log.Warn("⚠️ could not read listing", "error", err)
	}
	return cands
}

func (c *Controller) process(ctx context.Context, pending []models.JobListingCandidate, v Visitor, res *Result) {
	for _, cand := range pending {
		if ctx.Err() != nil {
			return
		}
		if !v.Accept(cand) {
			res.Filtered++
			continue
		}
		html, err := c.loadDetail(ctx, cand.DetailURL)
		switch {
		case err == nil:
			res.Processed++
			v.Visit(ctx, cand, html)
		case errors.Is(err, errHard):
			res.HardFailures++
			c.log.Error("❌ detail extraction failed", "url", cand.DetailURL, "error", err)
			_, _ = c.shots.Capture(c.page(), "detail_"+cand.SourceJobID, "hard failure on "+cand.DetailURL)
		default:
			res.SoftFailures++
			c.log.Warn("⚠️ skipping detail", "url", cand.DetailURL, "error", err)
		}
	}
}

var errHard = errors.New("hard extraction failure")

// loadDetail navigates to a detail page and returns its HTML. A detached
// page gets one recovery and one retry; failing that is a hard failure.
func (c *Controller) loadDetail(ctx context.Context, detailURL string) (string, error) {
	html, err := c.fetch(ctx, detailURL)
	if err == nil || !browser.IsDetached(err) {
		return html, err
	}
	c.log.Warn("♻️ page detached, recovering", "url", detailURL, "error", err)
	if rerr := c.session.Recover(ctx); rerr != nil {
		return "", fmt.Errorf("%w: recovery: %v", errHard, rerr)
	}
	html, err = c.fetch(ctx, detailURL)
	if err != nil {
		return "", fmt.Errorf("%w: retry after recovery: %v", errHard, err)
	}
	return html, nil
}

func (c *Controller) fetch(ctx context.Context, detailURL string) (string, error) {
	p := c.page()
	if p.IsClosed() {
		return "", browser.ErrDetached
	}
	if err := p.Goto(detailURL); err != nil {
		if !errors.Is(err, browser.ErrTimeout) {
			return "", err
		}
		c.log.Debug("⏱️ detail navigation timed out, reading partial page", "url", detailURL)
	}
	c.settle(ctx)
	if err := p.WaitFor(c.opts.Selectors.DetailReady); err != nil {
		if browser.IsDetached(err) {
			return "", err
		}
		c.log.Debug("detail not ready", "url", detailURL, "error", err)
	}
	return p.Content()
}

// returnToListing brings the browser back to the current listing page
// number after detail pages navigated it away.
func (c *Controller) returnToListing(ctx context.Context) {
	p := c.page()
	if p.IsClosed() {
		if err := c.session.Recover(ctx); err != nil {
			c.log.Error("❌ could not recover before returning to listing", "error", err)
			return
		}
		p = c.page()
	}
	if err := p.Goto(c.listingURL); err != nil && !errors.Is(err, browser.ErrTimeout) {
		c.log.Warn("⚠️ listing url failed, re-navigating from search", "url", c.listingURL, "error", err)
	} else {
		c.waitListing(ctx)
		if c.onListingPage() {
			return
		}
	}

	if err := c.renavigate(ctx); err != nil {
		c.log.Error("❌ could not return to listing page", "page", c.pageNum, "error", err)
	}
}

// onListingPage checks the active page indicator, if the site has one.
func (c *Controller) onListingPage() bool {
	p := c.page()
	if n, err := p.Count(c.cardSelector()); err != nil || n == 0 {
		return false
	}
	if c.opts.Selectors.ActivePage == "" {
		return true
	}
	text, err := p.Text(c.opts.Selectors.ActivePage)
	if err != nil {
		return false
	}
	n, err := strconv.Atoi(strings.TrimSpace(text))
	return err == nil && n == c.pageNum
}

// renavigate loads the search URL and clicks forward to c.pageNum, then
// replays load-more expansions.
func (c *Controller) renavigate(ctx context.Context) error {
	p := c.page()
	if err := p.Goto(c.opts.SearchURL); err != nil && !errors.Is(err, browser.ErrTimeout) {
		return err
	}
	c.waitListing(ctx)

	sel := c.opts.Selectors
	for current := c.currentPage(); current < c.pageNum; {
		if sel.PageButton != "" {
			if ok, err := p.Click(fmt.Sprintf(sel.PageButton, c.pageNum)); err == nil && ok {
				c.waitListing(ctx)
				current = c.pageNum
				break
			}
		}
		ok, err := p.Click(sel.NextButton)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("stuck on page %d of %d", current, c.pageNum)
		}
		c.waitListing(ctx)
		current++
	}

	for i := 0; i < c.expansions; i++ {
		if !c.clickLoadMore() {
			break
		}
		c.waitListing(ctx)
	}
	c.listingURL = p.URL()

	if !c.onListingPage() {
		return fmt.Errorf("active page indicator does not show page %d", c.pageNum)
	}
	return nil
}

func (c *Controller) cardSelector() string {
	if c.opts.Selectors.JobCard != "" {
		return c.opts.Selectors.JobCard
	}
	return c.opts.Selectors.JobLink
}

func (c *Controller) currentPage() int {
	if n, ok := c.shownPage(); ok {
		return n
	}
	return 1
}

// shownPage reads the active page indicator.
func (c *Controller) shownPage() (int, bool) {
	if c.opts.Selectors.ActivePage == "" {
		return 0, false
	}
	text, err := c.page().Text(c.opts.Selectors.ActivePage)
	if err != nil {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func (c *Controller) clickLoadMore() bool {
	sel := c.opts.Selectors
	if ok, err := c.page().Click(sel.LoadMore); err == nil && ok {
		return true
	}
	for _, text := range sel.LoadMoreText {
		if ok, err := c.page().ClickText("button, a", text); err == nil && ok {
			return true
		}
	}
	return false
}

// advance tries each way of reaching more results and returns the new
// candidates from the first one that produced any.
func (c *Controller) advance(ctx context.Context) []models.JobListingCandidate {
	sel := c.opts.Selectors
	p := c.page()

	// load more
	if c.clickLoadMore() {
		c.waitListing(ctx)
		if found := c.collectSoft(); len(found) > 0 {
			c.expansions++
			c.listingURL = p.URL()
			return found
		}
	}

	// next button
	if ok, err := p.Click(sel.NextButton); err == nil && ok {
		c.moved(ctx, c.pageNum+1)
		if found := c.collectSoft(); len(found) > 0 {
			return found
		}
	}

	// infinite scroll
	for i := 0; i < c.opts.MaxScrollAttempts; i++ {
		if err := p.ScrollToBottom(); err != nil {
			c.log.Debug("scroll failed", "error", err)
			break
		}
		c.waitListing(ctx)
		if found := c.collectSoft(); len(found) > 0 {
			c.listingURL = p.URL()
			return found
		}
	}

	// explicit page number, counted from the page actually shown
	if sel.PageButton != "" {
		if ok, err := p.Click(fmt.Sprintf(sel.PageButton, c.pageNum+1)); err == nil && ok {
			c.moved(ctx, c.pageNum+1)
			if found := c.collectSoft(); len(found) > 0 {
				return found
			}
		}
	}
	return nil
}

// moved records a click towards page target. With an active page
// indicator the page shown wins over target, so a click that did not
// navigate leaves pageNum alone.
func (c *Controller) moved(ctx context.Context, target int) {
	c.waitListing(ctx)
	if shown, ok := c.shownPage(); ok {
		target = shown
	}
	if target != c.pageNum {
		c.pageNum = target
		c.expansions = 0
	}
	c.listingURL = c.page().URL()
}
