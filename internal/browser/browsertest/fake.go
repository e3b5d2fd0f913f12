// Package browsertest provides an in-memory browser.Page for tests.
//
// A Site maps URLs to HTML. Clicking an element follows its href or
// data-href attribute, and ScrollToBottom follows the body's
// data-scroll-href, which is enough to model paginated, load-more and
// infinite-scroll listings.
package browsertest

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"go-nursejobs-pipeline/internal/browser"
)

// Site is shared by every page a test opens.
type Site struct {
	mu     sync.Mutex
	routes map[string]string
	// queued one-shot failures per URL
	failures map[string][]error
	// URLs that kill the page when visited
	killers map[string]int

	Visits []string
	Clicks []string
	Opened int
}

func NewSite() *Site {
	return &Site{
		routes:   make(map[string]string),
		failures: make(map[string][]error),
		killers:  make(map[string]int),
	}
}

// Handle serves html at rawURL.
func (s *Site) Handle(rawURL, html string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[rawURL] = html
}

// FailNext makes the next Goto to rawURL return err before loading it.
func (s *Site) FailNext(rawURL string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[rawURL] = append(s.failures[rawURL], err)
}

// DetachOn closes the page the next times Goto visits rawURL and returns
// browser.ErrDetached.
func (s *Site) DetachOn(rawURL string, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.killers[rawURL] += times
}

// VisitCount reports how often rawURL was loaded successfully.
func (s *Site) VisitCount(rawURL string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.Visits {
		if v == rawURL {
			n++
		}
	}
	return n
}

// Opener opens pages on s.
func (s *Site) Opener() browser.PageOpener {
	return func() (browser.Page, error) {
		s.mu.Lock()
		s.Opened++
		s.mu.Unlock()
		return &Page{site: s}, nil
	}
}

// Page is a fake tab.
type Page struct {
	site        *Site
	url         string
	html        string
	closed      bool
	Screenshots []string
}

var _ browser.Page = (*Page)(nil)

func (p *Page) Goto(rawURL string) error {
	if p.closed {
		return fmt.Errorf("goto %s: %w", rawURL, browser.ErrDetached)
	}
	s := p.site
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.killers[rawURL] > 0 {
		s.killers[rawURL]--
		p.closed = true
		return fmt.Errorf("goto %s: %w", rawURL, browser.ErrDetached)
	}
	if q := s.failures[rawURL]; len(q) > 0 {
		s.failures[rawURL] = q[1:]
		return q[0]
	}
	html, ok := s.routes[rawURL]
	if !ok {
		return fmt.Errorf("goto %s: 404", rawURL)
	}
	p.url, p.html = rawURL, html
	s.Visits = append(s.Visits, rawURL)
	return nil
}

func (p *Page) URL() string { return p.url }

func (p *Page) Content() (string, error) {
	if p.closed {
		return "", browser.ErrDetached
	}
	return p.html, nil
}

func (p *Page) doc() (*goquery.Document, error) {
	if p.closed {
		return nil, browser.ErrDetached
	}
	return goquery.NewDocumentFromReader(strings.NewReader(p.html))
}

func (p *Page) Click(selector string) (bool, error) {
	return p.click(selector, "")
}

func (p *Page) ClickText(selector, text string) (bool, error) {
	return p.click(selector, text)
}

func (p *Page) click(selector, text string) (bool, error) {
	if selector == "" {
		return false, nil
	}
	doc, err := p.doc()
	if err != nil {
		return false, err
	}
	sel := doc.Find(selector)
	if text != "" {
		sel = sel.FilterFunction(func(_ int, s *goquery.Selection) bool {
			return strings.Contains(strings.ToLower(s.Text()), strings.ToLower(text))
		})
	}
	if sel.Length() == 0 {
		return false, nil
	}
	p.site.mu.Lock()
	p.site.Clicks = append(p.site.Clicks, strings.TrimSpace(selector+" "+text))
	p.site.mu.Unlock()

	target, ok := sel.First().Attr("href")
	if !ok {
		target, ok = sel.First().Attr("data-href")
	}
	if !ok {
		return true, nil
	}
	return true, p.Goto(p.resolve(target))
}

func (p *Page) resolve(ref string) string {
	base, err := url.Parse(p.url)
	if err != nil {
		return ref
	}
	u, err := base.Parse(ref)
	if err != nil {
		return ref
	}
	return u.String()
}

func (p *Page) Count(selector string) (int, error) {
	if selector == "" {
		return 0, nil
	}
	doc, err := p.doc()
	if err != nil {
		return 0, err
	}
	return doc.Find(selector).Length(), nil
}

func (p *Page) Text(selector string) (string, error) {
	if selector == "" {
		return "", nil
	}
	doc, err := p.doc()
	if err != nil {
		return "", err
	}
	return doc.Find(selector).First().Text(), nil
}

func (p *Page) ScrollToBottom() error {
	doc, err := p.doc()
	if err != nil {
		return err
	}
	if target, ok := doc.Find("body").Attr("data-scroll-href"); ok {
		return p.Goto(p.resolve(target))
	}
	return nil
}

func (p *Page) WaitFor(selector string) error {
	n, err := p.Count(selector)
	if err != nil {
		return err
	}
	if selector != "" && n == 0 {
		return fmt.Errorf("wait for %s: %w", selector, browser.ErrTimeout)
	}
	return nil
}

func (p *Page) IsClosed() bool { return p.closed }

func (p *Page) Close() error {
	p.closed = true
	return nil
}

func (p *Page) Screenshot(path string) error {
	p.Screenshots = append(p.Screenshots, path)
	return nil
}
