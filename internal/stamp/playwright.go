package stamp

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/playwright-community/playwright-go"
)

type playwrightSession struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
}

func launchPlaywright(cfg BrowserConfig) (session, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch chromium: %w", err)
	}

	var opts playwright.BrowserNewContextOptions
	if cfg.StoragePath != "" {
		if _, err := os.Stat(cfg.StoragePath); err == nil {
			opts.StorageStatePath = playwright.String(cfg.StoragePath)
		}
	}

	browserContext, err := browser.NewContext(opts)
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	return &playwrightSession{pw: pw, browser: browser, context: browserContext}, nil
}

func (s *playwrightSession) NewPage(timeout time.Duration) (page, error) {
	p, err := s.context.NewPage()
	if err != nil {
		return nil, err
	}
	if timeout > 0 {
		p.SetDefaultTimeout(float64(timeout.Milliseconds()))
		p.SetDefaultNavigationTimeout(float64(timeout.Milliseconds()))
	}
	return &playwrightPage{page: p}, nil
}

func (s *playwrightSession) SaveStorage(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	_, err := s.context.StorageState(path)
	return err
}

func (s *playwrightSession) Close() error {
	return errors.Join(s.context.Close(), s.browser.Close(), s.pw.Stop())
}

type playwrightPage struct {
	page playwright.Page
}

func (p *playwrightPage) Goto(url string) error {
	_, err := p.page.Goto(url)
	return err
}

func (p *playwrightPage) WaitForIdle() error {
	return p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State: playwright.LoadStateNetworkidle,
	})
}

func (p *playwrightPage) URL() string {
	return p.page.URL()
}

func (p *playwrightPage) Fill(selector, value string) error {
	return p.page.Locator(selector).Fill(value)
}

func (p *playwrightPage) Click(selector string) error {
	return p.page.Locator(selector).Click()
}

func (p *playwrightPage) Count(selector string) (int, error) {
	return p.page.Locator(selector).Count()
}

func (p *playwrightPage) Close() error {
	return p.page.Close()
}
