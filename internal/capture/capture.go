// Package capture drives a headless browser against a running frontend
// to collect screenshots, computed design tokens, and a component
// catalog. Outputs are JSON files under the configured output directory.
package capture

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/pai-sh/pai/internal/config"
)

// Runner owns the Playwright instance and a single page used across
// captures.
type Runner struct {
	cfg config.CaptureConfig

	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
}

// NewRunner creates a Runner for the given capture configuration.
func NewRunner(cfg config.CaptureConfig) *Runner {
	return &Runner{cfg: cfg}
}

// Start installs and launches the headless browser.
func (r *Runner) Start() error {
	opts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}

	if err := playwright.Install(opts); err != nil {
		return fmt.Errorf("install playwright: %w", err)
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return fmt.Errorf("start playwright: %w", err)
	}
	r.pw = pw

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		r.Stop()
		return fmt.Errorf("launch browser: %w", err)
	}
	r.browser = browser

	context, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  r.cfg.ViewportWidth,
			Height: r.cfg.ViewportHeight,
		},
	})
	if err != nil {
		r.Stop()
		return fmt.Errorf("create context: %w", err)
	}
	r.context = context

	page, err := context.NewPage()
	if err != nil {
		r.Stop()
		return fmt.Errorf("create page: %w", err)
	}
	r.page = page

	return nil
}

// Stop closes the browser and stops Playwright.
func (r *Runner) Stop() {
	if r.page != nil {
		_ = r.page.Close()
	}
	if r.context != nil {
		_ = r.context.Close()
	}
	if r.browser != nil {
		_ = r.browser.Close()
	}
	if r.pw != nil {
		_ = r.pw.Stop()
	}
}

// navigate loads a page path relative to the configured base URL and
// waits for the network to settle plus a short animation grace period.
func (r *Runner) navigate(path string, settle time.Duration) (string, error) {
	url := joinURL(r.cfg.BaseURL, path)

	_, err := r.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(float64(r.cfg.NavTimeout.Duration().Milliseconds())),
	})
	if err != nil {
		return url, fmt.Errorf("goto %s: %w", url, err)
	}
	r.page.WaitForTimeout(float64(settle.Milliseconds()))
	return url, nil
}

// evaluate runs JS in the page and decodes the result into out via JSON.
func (r *Runner) evaluate(js string, out any) error {
	result, err := r.page.Evaluate(js)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode evaluation result: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode evaluation result: %w", err)
	}
	return nil
}

func joinURL(base, path string) string {
	for len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	return base + path
}

func writeJSON(dir, filename string, v any) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", filename, err)
	}

	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", filename, err)
	}
	return path, nil
}
