package extract

import (
	"fmt"
	"time"

	"go-nursejobs-pipeline/internal/config"
	"go-nursejobs-pipeline/internal/models"
	"go-nursejobs-pipeline/internal/normalize"
)

// Fields are the raw values found on one detail page. Empty means the field
// could not be extracted.
type Fields struct {
	Title         string
	LocationText  string
	Location      normalize.Location
	Department    string
	RequisitionID string

	Description string
	Sections

	Salary        normalize.Salary
	JobType       models.JobType
	JobTypeSource string
	ShiftType     models.ShiftType
	PostedAt      *time.Time

	// Missing lists fields no strategy could extract.
	Missing []string
}

// Formatter rewrites a structured description for one employer.
type Formatter func(structured string) string

// Extractor runs the field cascades for one employer's selectors.
type Extractor struct {
	sel       config.Selectors
	formatter Formatter
	now       func() time.Time
}

type Option func(*Extractor)

func WithFormatter(f Formatter) Option {
	return func(e *Extractor) { e.formatter = f }
}

func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

func New(sel config.Selectors, opts ...Option) *Extractor {
	e := &Extractor{sel: sel, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract parses a detail page. Only an unparseable document is an error;
// individual field failures are reported in Fields.Missing.
func (e *Extractor) Extract(pageHTML, pageURL string) (*Fields, error) {
	doc, err := NewDocument(pageHTML, pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse detail page: %w", err)
	}
	f := &Fields{}
	p := &page{doc: doc, sel: e.sel}

	f.Title, _ = First(p, titleStrategies...)
	p.title = f.Title
	p.header = PlainText(doc.Structured(e.sel.Header))

	f.Description = e.description(doc)
	p.body = PlainText(f.Description)
	f.Sections = SplitSections(f.Description)

	if hit, ok := First(p, locationStrategies...); ok {
		f.LocationText, f.Location = hit.raw, hit.loc
	}
	f.Department, _ = First(p, departmentStrategies...)
	f.RequisitionID, _ = First(p, requisitionStrategies...)
	f.Salary, _ = First(p, salaryStrategies...)

	if hit, ok := First(p, jobTypeStrategies...); ok {
		f.JobType, f.JobTypeSource = hit.value, hit.source
	} else {
		f.JobType, f.JobTypeSource = models.JobTypeFullTime, "default"
	}

	if !IsExpressionOfInterest(f.Title) {
		f.ShiftType, _ = First(p, shiftStrategies...)
	}

	if t, ok := e.postedAt(doc); ok {
		f.PostedAt = &t
	}

	f.Missing = missing(f)
	return f, nil
}

func (e *Extractor) description(doc *Document) string {
	text, ok := First[*Document, string](doc,
		func(d *Document) (string, bool) { return nonEmpty(d.Structured(e.sel.Description)) },
		func(d *Document) (string, bool) {
			jp, ok := d.JobPosting()
			if !ok || jp.Description == "" {
				return "", false
			}
			text, err := HTMLToText(jp.Description)
			if err != nil {
				return "", false
			}
			return nonEmpty(text)
		},
		func(d *Document) (string, bool) { return nonEmpty(d.Structured("article")) },
		func(d *Document) (string, bool) { return nonEmpty(d.Structured("main")) },
	)
	if !ok {
		return ""
	}
	if e.formatter != nil {
		text = CleanText(e.formatter(text))
	}
	return text
}

func (e *Extractor) postedAt(doc *Document) (time.Time, bool) {
	now := e.now()
	t, ok := First[*Document, time.Time](doc,
		func(d *Document) (time.Time, bool) { return ParsePostedDate(d.Text(e.sel.PostedDate), now) },
		func(d *Document) (time.Time, bool) {
			if jp, ok := d.JobPosting(); ok {
				return ParsePostedDate(jp.DatePosted, now)
			}
			return time.Time{}, false
		},
	)
	if !ok || IsFutureDate(t, now) {
		return time.Time{}, false
	}
	return t, true
}

func missing(f *Fields) []string {
	var out []string
	if f.Title == "" {
		out = append(out, "title")
	}
	if f.Location.City == "" || f.Location.State == "" {
		out = append(out, "location")
	}
	if f.Description == "" {
		out = append(out, "description")
	}
	if f.RequisitionID == "" {
		out = append(out, "requisition_id")
	}
	return out
}
