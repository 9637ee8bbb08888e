package capture

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/playwright-community/playwright-go"
)

const countComponentsJS = `
	() => {
		return {
			cards: document.querySelectorAll('.card').length,
			buttons: {
				total: document.querySelectorAll('button').length,
				primary: document.querySelectorAll('.btn-primary').length,
				secondary: document.querySelectorAll('.btn-secondary').length,
				success: document.querySelectorAll('.btn-success').length,
				danger: document.querySelectorAll('.btn-danger').length,
			},
			badges: document.querySelectorAll('[class*="badge"]').length,
			inputs: document.querySelectorAll('input, textarea, select').length,
			modals: document.querySelectorAll('[role="dialog"]').length,
			statusIndicators: document.querySelectorAll('[class*="status-"]').length,
			glassElements: document.querySelectorAll('.glass, .glass-strong').length,
			tables: document.querySelectorAll('table').length,
			links: document.querySelectorAll('a').length,
		};
	}
`

// ButtonCounts breaks down button instances by styling class.
type ButtonCounts struct {
	Total     int `json:"total"`
	Primary   int `json:"primary"`
	Secondary int `json:"secondary"`
	Success   int `json:"success"`
	Danger    int `json:"danger"`
}

// ComponentCounts is the census of component types on a page.
type ComponentCounts struct {
	Cards            int          `json:"cards"`
	Buttons          ButtonCounts `json:"buttons"`
	Badges           int          `json:"badges"`
	Inputs           int          `json:"inputs"`
	Modals           int          `json:"modals"`
	StatusIndicators int          `json:"statusIndicators"`
	GlassElements    int          `json:"glassElements"`
	Tables           int          `json:"tables"`
	Links            int          `json:"links"`
}

// PageResult describes one captured page.
type PageResult struct {
	Name        string           `json:"name"`
	Path        string           `json:"path"`
	Description string           `json:"description,omitempty"`
	Title       string           `json:"title,omitempty"`
	Screenshot  string           `json:"screenshot,omitempty"`
	Components  *ComponentCounts `json:"components,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// PagesReport is the top-level pages-info.json document.
type PagesReport struct {
	CapturedAt time.Time    `json:"captured_at"`
	BaseURL    string       `json:"base_url"`
	Pages      []PageResult `json:"pages"`
}

// CapturePages screenshots every configured page and counts its
// components. Per-page failures are recorded in the report, not fatal.
func (r *Runner) CapturePages() (*PagesReport, error) {
	screenshotsDir := filepath.Join(r.cfg.OutputDir, "screenshots")
	if err := os.MkdirAll(screenshotsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create screenshots dir: %w", err)
	}

	report := &PagesReport{
		CapturedAt: time.Now(),
		BaseURL:    r.cfg.BaseURL,
	}

	for _, pg := range r.cfg.Pages {
		result := r.capturePage(pg.Path, pg.Name, pg.Description, screenshotsDir)
		if result.Error != "" {
			slog.Warn("page capture failed", "page", pg.Name, "error", result.Error)
		} else {
			slog.Info("page captured", "page", pg.Name, "cards", result.Components.Cards, "buttons", result.Components.Buttons.Total)
		}
		report.Pages = append(report.Pages, result)
	}

	if _, err := writeJSON(r.cfg.OutputDir, "pages-info.json", report); err != nil {
		return nil, err
	}
	return report, nil
}

func (r *Runner) capturePage(path, name, description, screenshotsDir string) PageResult {
	result := PageResult{Name: name, Path: path, Description: description}

	if _, err := r.navigate(path, time.Second); err != nil {
		result.Error = err.Error()
		return result
	}

	screenshotPath := filepath.Join(screenshotsDir, name+".png")
	if _, err := r.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(screenshotPath),
		FullPage: playwright.Bool(true),
	}); err != nil {
		result.Error = fmt.Sprintf("screenshot: %v", err)
		return result
	}
	result.Screenshot = filepath.Join("screenshots", name+".png")

	var counts ComponentCounts
	if err := r.evaluate(countComponentsJS, &counts); err != nil {
		result.Error = err.Error()
		return result
	}
	result.Components = &counts

	if title, err := r.page.Title(); err == nil {
		result.Title = title
	}

	return result
}
