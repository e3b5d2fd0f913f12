// Package scraper turns an employer's career site into validated job
// records. One employer is scraped at a time with a single browser page.
package scraper

import (
	"context"
	"errors"

	"go-nursejobs-pipeline/internal/browser"
	"go-nursejobs-pipeline/internal/config"
	"go-nursejobs-pipeline/internal/extract"
	"go-nursejobs-pipeline/internal/scraper/hartford"
	"go-nursejobs-pipeline/internal/scraper/workday"
)

// ErrFatal wraps failures that abort a whole run: the browser could not
// start or a listing could not be loaded at all.
var ErrFatal = errors.New("fatal scrape failure")

// Scraper scrapes one employer.
type Scraper interface {
	Scrape(ctx context.Context, session *browser.Session) (*RunResult, error)

	//Name is the employer slug
	Name() string
}

// genericSelectors cover career sites without a known ATS.
var genericSelectors = config.Selectors{
	ListingReady: "body",
	JobLink:      `a[href*="/job"]`,
	LoadMoreText: []string{"Load more", "Show more", "View more jobs"},
	NextButton:   `a[rel="next"], button[aria-label="Next"], a[aria-label="Next"]`,
	DetailReady:  "h1",
	Title:        "h1",
	Description:  `[class*="job-description"], [class*="jobDescription"], [itemprop="description"]`,
	Compensation: `[class*="salary"], [class*="compensation"]`,
}

// SelectorsFor merges the employer's overrides onto its ATS defaults.
func SelectorsFor(emp config.Employer) config.Selectors {
	base := genericSelectors
	if emp.ATS == workday.ATS {
		base = workday.DefaultSelectors()
	}
	return base.Merge(emp.Selectors)
}

// FormatterFor returns the named description formatter. An empty name is
// no formatter.
func FormatterFor(name string) (extract.Formatter, bool) {
	switch name {
	case "":
		return nil, true
	case "hartford":
		return hartford.Format, true
	}
	return nil, false
}
