package extract

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document is a parsed detail page.
type Document struct {
	doc *goquery.Document
	URL *url.URL
}

// NewDocument parses rendered page HTML. pageURL may be empty.
func NewDocument(pageHTML, pageURL string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, err
	}
	d := &Document{doc: doc}
	if pageURL != "" {
		if u, err := url.Parse(pageURL); err == nil {
			d.URL = u
		}
	}
	return d, nil
}

// Find exposes the underlying goquery selection.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// Text returns the collapsed text of the first element matching selector.
func (d *Document) Text(selector string) string {
	if selector == "" {
		return ""
	}
	return collapse(d.doc.Find(selector).First().Text())
}

// Structured returns the structured text of the first element matching
// selector.
func (d *Document) Structured(selector string) string {
	if selector == "" {
		return ""
	}
	sel := d.doc.Find(selector).First()
	if sel.Length() == 0 {
		return ""
	}
	return NodeToText(sel.Get(0))
}

// Meta returns the content of a <meta property|name=key> tag.
func (d *Document) Meta(key string) string {
	var out string
	d.doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		p, _ := s.Attr("property")
		n, _ := s.Attr("name")
		if p == key || n == key {
			out, _ = s.Attr("content")
			return false
		}
		return true
	})
	return strings.TrimSpace(out)
}

// JobPosting is the subset of schema.org JobPosting that career sites embed
// as JSON-LD.
type JobPosting struct {
	Type           string          `json:"@type"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	DatePosted     string          `json:"datePosted"`
	EmploymentType json.RawMessage `json:"employmentType"`
	Identifier     json.RawMessage `json:"identifier"`
	JobLocation    json.RawMessage `json:"jobLocation"`
}

// PostalAddress is a schema.org address.
type PostalAddress struct {
	Locality   string `json:"addressLocality"`
	Region     string `json:"addressRegion"`
	PostalCode string `json:"postalCode"`
}

type place struct {
	Address PostalAddress `json:"address"`
}

// JobPosting returns the first JSON-LD JobPosting on the page.
func (d *Document) JobPosting() (*JobPosting, bool) {
	var found *JobPosting
	d.doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := []byte(strings.TrimSpace(s.Text()))
		var one JobPosting
		if json.Unmarshal(raw, &one) == nil && one.Type == "JobPosting" {
			found = &one
			return false
		}
		var many []JobPosting
		if json.Unmarshal(raw, &many) == nil {
			for i := range many {
				if many[i].Type == "JobPosting" {
					found = &many[i]
					return false
				}
			}
		}
		return true
	})
	return found, found != nil
}

// Address returns the first postal address in jobLocation, which may be a
// single Place or a list.
func (p *JobPosting) Address() (PostalAddress, bool) {
	if len(p.JobLocation) == 0 {
		return PostalAddress{}, false
	}
	var one place
	if json.Unmarshal(p.JobLocation, &one) == nil && one.Address.Region != "" {
		return one.Address, true
	}
	var many []place
	if json.Unmarshal(p.JobLocation, &many) == nil && len(many) > 0 {
		return many[0].Address, many[0].Address.Region != ""
	}
	return PostalAddress{}, false
}

// EmploymentTypes flattens employmentType, which is a string or a list.
func (p *JobPosting) EmploymentTypes() []string {
	var one string
	if json.Unmarshal(p.EmploymentType, &one) == nil && one != "" {
		return []string{one}
	}
	var many []string
	_ = json.Unmarshal(p.EmploymentType, &many)
	return many
}

// IdentifierValue returns identifier.value or the identifier string.
func (p *JobPosting) IdentifierValue() string {
	var one string
	if json.Unmarshal(p.Identifier, &one) == nil {
		return one
	}
	var obj struct {
		Value json.RawMessage `json:"value"`
	}
	if json.Unmarshal(p.Identifier, &obj) == nil {
		var s string
		if json.Unmarshal(obj.Value, &s) == nil {
			return s
		}
		return strings.Trim(string(obj.Value), `"`)
	}
	return ""
}
