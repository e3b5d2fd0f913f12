package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"go-nursejobs-pipeline/internal/config"
	"go-nursejobs-pipeline/internal/normalize"
)

// page is what the field strategies work on.
type page struct {
	doc    *Document
	sel    config.Selectors
	title  string
	header string
	body   string
}

var (
	titleSuffix      = regexp.MustCompile(`\s+[|–]\s+.*$`)
	labeledLocation  = regexp.MustCompile(`(?im)^\s*(?:job\s+)?locations?\s*:?\s*(.+)$`)
	inlineCityState  = regexp.MustCompile(`\b([A-Z][a-zA-Z.'\-]*(?:\s+[A-Z][a-zA-Z.'\-]*){0,3}),\s*([A-Z]{2})\b(?:\s+\d{5})?`)
	labeledDept      = regexp.MustCompile(`(?im)^\s*(?:department|unit|dept\.?)\s*(?:name)?\s*:\s*(.+)$`)
	labeledReqID     = regexp.MustCompile(`(?i)\b(?:job\s+)?(?:requisition|req\.?)\s*(?:id|#|number|no\.?)?\s*[:#]?\s*([A-Z]{0,4}[-_]?\d{3,}[-_A-Z0-9]*)`)
	urlReqID         = regexp.MustCompile(`_((?:[A-Z]{1,4}-?)?\d{3,}(?:-\d+)?)$`)
	reqIDFieldPrefix = regexp.MustCompile(`(?i)^(?:job\s+)?(?:requisition|req\.?)\s*(?:id|#|number)?\s*:?\s*`)
)

var titleStrategies = []Strategy[*page, string]{
	func(p *page) (string, bool) { return nonEmpty(p.doc.Text(p.sel.Title)) },
	func(p *page) (string, bool) {
		if jp, ok := p.doc.JobPosting(); ok {
			return nonEmpty(collapse(jp.Title))
		}
		return "", false
	},
	func(p *page) (string, bool) { return nonEmpty(p.doc.Text("h1")) },
	func(p *page) (string, bool) { return nonEmpty(p.doc.Meta("og:title")) },
	func(p *page) (string, bool) {
		return nonEmpty(titleSuffix.ReplaceAllString(p.doc.Text("title"), ""))
	},
}

// locationHit keeps the raw text next to the parsed value.
type locationHit struct {
	raw string
	loc normalize.Location
}

func parsedLocation(raw string) (locationHit, bool) {
	loc := normalize.ParseLocation(raw)
	if loc.City == "" || loc.State == "" {
		return locationHit{}, false
	}
	return locationHit{raw: collapse(raw), loc: loc}, true
}

var locationStrategies = []Strategy[*page, locationHit]{
	// dedicated structured field
	func(p *page) (locationHit, bool) {
		if p.sel.Location == "" {
			return locationHit{}, false
		}
		var hit locationHit
		var ok bool
		p.doc.Find(p.sel.Location).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			hit, ok = parsedLocation(strings.TrimSpace(s.Text()))
			return !ok
		})
		return hit, ok
	},
	// schema.org address
	func(p *page) (locationHit, bool) {
		jp, ok := p.doc.JobPosting()
		if !ok {
			return locationHit{}, false
		}
		addr, ok := jp.Address()
		if !ok {
			return locationHit{}, false
		}
		raw := addr.Locality + ", " + addr.Region + " " + addr.PostalCode
		return parsedLocation(raw)
	},
	// text next to a location icon
	func(p *page) (locationHit, bool) {
		if p.sel.LocationIcon == "" {
			return locationHit{}, false
		}
		icon := p.doc.Find(p.sel.LocationIcon).First()
		if icon.Length() == 0 {
			return locationHit{}, false
		}
		if hit, ok := parsedLocation(icon.Parent().Text()); ok {
			return hit, true
		}
		return parsedLocation(icon.Parent().Next().Text())
	},
	// "Location: Hartford, CT" in the header or body
	func(p *page) (locationHit, bool) {
		for _, text := range []string{p.header, p.body} {
			if m := labeledLocation.FindStringSubmatch(text); m != nil {
				if hit, ok := parsedLocation(m[1]); ok {
					return hit, true
				}
			}
		}
		return locationHit{}, false
	},
	// any "City, ST" in the header text
	func(p *page) (locationHit, bool) {
		for _, m := range inlineCityState.FindAllString(p.header, -1) {
			if hit, ok := parsedLocation(m); ok {
				return hit, true
			}
		}
		return locationHit{}, false
	},
}

var departmentStrategies = []Strategy[*page, string]{
	func(p *page) (string, bool) { return nonEmpty(p.doc.Text(p.sel.Department)) },
	func(p *page) (string, bool) {
		if m := labeledDept.FindStringSubmatch(p.body); m != nil {
			return nonEmpty(collapse(m[1]))
		}
		return "", false
	},
}

var requisitionStrategies = []Strategy[*page, string]{
	func(p *page) (string, bool) {
		return nonEmpty(reqIDFieldPrefix.ReplaceAllString(p.doc.Text(p.sel.RequisitionID), ""))
	},
	func(p *page) (string, bool) {
		if jp, ok := p.doc.JobPosting(); ok {
			return nonEmpty(jp.IdentifierValue())
		}
		return "", false
	},
	func(p *page) (string, bool) {
		if m := labeledReqID.FindStringSubmatch(p.header + "\n" + p.body); m != nil {
			return m[1], true
		}
		return "", false
	},
	// Workday detail URLs end in _R12345
	func(p *page) (string, bool) {
		if p.doc.URL == nil {
			return "", false
		}
		if m := urlReqID.FindStringSubmatch(strings.TrimRight(p.doc.URL.Path, "/")); m != nil {
			return m[1], true
		}
		return "", false
	},
}

func nonEmpty(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != ""
}
