// Package browser wraps the headless browser behind a small Page interface
// so scraping logic can run against a fake in tests.
package browser

import (
	"errors"
	"strings"
)

// ErrDetached means the page or its frame is gone and the session must be
// recovered before it can be used again.
var ErrDetached = errors.New("page detached")

// ErrTimeout marks a navigation or wait that ran out of time. Callers treat
// it as a soft failure.
var ErrTimeout = errors.New("browser timeout")

// Page is one browser tab. Selectors are CSS (plus the engine's text
// pseudo-classes for the real browser).
type Page interface {
	Goto(url string) error
	URL() string
	Content() (string, error)
	// Click clicks the first match; false means nothing matched.
	Click(selector string) (bool, error)
	// ClickText clicks the first match whose text contains text.
	ClickText(selector, text string) (bool, error)
	Count(selector string) (int, error)
	Text(selector string) (string, error)
	ScrollToBottom() error
	WaitFor(selector string) error
	IsClosed() bool
	Close() error
	Screenshot(path string) error
}

var detachedMarkers = []string{
	"target closed",
	"target page, context or browser has been closed",
	"has been closed",
	"detached",
	"execution context was destroyed",
	"session closed",
}

// IsDetached reports whether err means the page context is gone.
func IsDetached(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDetached) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, m := range detachedMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
