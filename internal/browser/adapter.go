package browser

import (
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

type playwrightPage struct {
	page              playwright.Page
	navigationTimeout float64
	actionTimeout     float64
}

// WrapPage adapts a playwright page to Page.
func WrapPage(p playwright.Page, navigationTimeout, actionTimeout time.Duration) Page {
	return &playwrightPage{
		page:              p,
		navigationTimeout: float64(navigationTimeout.Milliseconds()),
		actionTimeout:     float64(actionTimeout.Milliseconds()),
	}
}

// classify maps playwright errors onto ErrDetached and ErrTimeout.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case IsDetached(err):
		return fmt.Errorf("%s: %w: %v", op, ErrDetached, err)
	case errors.Is(err, playwright.ErrTimeout):
		return fmt.Errorf("%s: %w: %v", op, ErrTimeout, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (p *playwrightPage) Goto(url string) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(p.navigationTimeout),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	return classify("goto "+url, err)
}

func (p *playwrightPage) URL() string {
	return p.page.URL()
}

func (p *playwrightPage) Content() (string, error) {
	html, err := p.page.Content()
	return html, classify("content", err)
}

func (p *playwrightPage) Click(selector string) (bool, error) {
	if selector == "" {
		return false, nil
	}
	return p.clickFirst(p.page.Locator(selector))
}

func (p *playwrightPage) ClickText(selector, text string) (bool, error) {
	if selector == "" || text == "" {
		return false, nil
	}
	return p.clickFirst(p.page.Locator(fmt.Sprintf("%s:has-text(%q)", selector, text)))
}

func (p *playwrightPage) clickFirst(loc playwright.Locator) (bool, error) {
	n, err := loc.Count()
	if err != nil {
		return false, classify("count", err)
	}
	if n == 0 {
		return false, nil
	}
	first := loc.First()
	if visible, _ := first.IsVisible(); !visible {
		return false, nil
	}
	if err := first.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(p.actionTimeout)}); err != nil {
		return false, classify("click", err)
	}
	return true, nil
}

func (p *playwrightPage) Count(selector string) (int, error) {
	if selector == "" {
		return 0, nil
	}
	n, err := p.page.Locator(selector).Count()
	return n, classify("count", err)
}

func (p *playwrightPage) Text(selector string) (string, error) {
	if selector == "" {
		return "", nil
	}
	loc := p.page.Locator(selector)
	if n, err := loc.Count(); err != nil || n == 0 {
		return "", classify("text", err)
	}
	text, err := loc.First().TextContent(playwright.LocatorTextContentOptions{Timeout: playwright.Float(p.actionTimeout)})
	return text, classify("text", err)
}

func (p *playwrightPage) ScrollToBottom() error {
	if err := p.page.Mouse().Wheel(0, 600); err != nil {
		return classify("scroll", err)
	}
	_, err := p.page.Evaluate("window.scrollTo(0, document.body.scrollHeight)")
	return classify("scroll", err)
}

func (p *playwrightPage) WaitFor(selector string) error {
	if selector == "" {
		return nil
	}
	err := p.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(p.actionTimeout),
	})
	return classify("wait for "+selector, err)
}

func (p *playwrightPage) IsClosed() bool {
	return p.page.IsClosed()
}

func (p *playwrightPage) Close() error {
	if p.page.IsClosed() {
		return nil
	}
	return p.page.Close()
}

func (p *playwrightPage) Screenshot(path string) error {
	_, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	return classify("screenshot", err)
}
