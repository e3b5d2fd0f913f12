package browser

import (
	"context"
	"fmt"

	"github.com/playwright-community/playwright-go"

	"go-nursejobs-pipeline/internal/config"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

type PlaywrightManager struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	cfg     config.BrowserConfig
}

// NewPlaywright starts the driver and launches Chromium. A failure here is a
// fatal run failure.
func NewPlaywright(ctx context.Context, cfg config.BrowserConfig) (*PlaywrightManager, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
		SlowMo:   playwright.Float(cfg.SlowMo),
		Args:     []string{"--disable-blink-features=AutomationControlled"},
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}
	return &PlaywrightManager{pw: pw, browser: browser, cfg: cfg}, nil
}

// NewContext creates an isolated browser context with cookies and the
// stealth init script applied.
func (pm *PlaywrightManager) NewContext(cookies []playwright.OptionalCookie) (playwright.BrowserContext, error) {
	bctx, err := pm.browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(userAgent),
		Locale:    playwright.String("en-US"),
		Viewport:  &playwright.Size{Width: 1366, Height: 768},
	})
	if err != nil {
		return nil, fmt.Errorf("new browser context: %w", err)
	}
	if err := bctx.AddInitScript(playwright.Script{Content: playwright.String(stealthScript)}); err != nil {
		_ = bctx.Close()
		return nil, fmt.Errorf("add stealth script: %w", err)
	}
	if len(cookies) > 0 {
		if err := bctx.AddCookies(cookies); err != nil {
			_ = bctx.Close()
			return nil, fmt.Errorf("add cookies: %w", err)
		}
	}
	return bctx, nil
}

// Opener returns a PageOpener that opens tabs in bctx.
func (pm *PlaywrightManager) Opener(bctx playwright.BrowserContext) PageOpener {
	return func() (Page, error) {
		p, err := bctx.NewPage()
		if err != nil {
			return nil, classify("new page", err)
		}
		return WrapPage(p, pm.cfg.NavigationTimeout, pm.cfg.ActionTimeout), nil
	}
}

func (pm *PlaywrightManager) Close() error {
	if pm.browser != nil {
		if err := pm.browser.Close(); err != nil {
			return fmt.Errorf("close browser: %w", err)
		}
	}
	if pm.pw != nil {
		if err := pm.pw.Stop(); err != nil {
			return fmt.Errorf("stop playwright: %w", err)
		}
	}
	return nil
}
