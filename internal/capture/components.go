package capture

import (
	"log/slog"
	"time"
)

const discoverCardsJS = `
	() => {
		const cards = document.querySelectorAll('.card');
		return Array.from(cards).slice(0, 10).map(card => {
			const styles = getComputedStyle(card);
			return {
				className: card.className,
				tagName: card.tagName.toLowerCase(),
				childCount: card.children.length,
				hasHeader: !!card.querySelector('h1, h2, h3, h4, h5, h6'),
				hasIcon: !!card.querySelector('svg'),
				styles: {
					backgroundColor: styles.backgroundColor,
					borderColor: styles.borderColor,
					borderRadius: styles.borderRadius,
					padding: styles.padding,
					boxShadow: styles.boxShadow
				}
			};
		});
	}
`

const discoverButtonsJS = `
	() => {
		const result = { primary: [], secondary: [], success: [], danger: [], other: [] };
		document.querySelectorAll('button, a.btn, [class*="btn-"]').forEach(btn => {
			const styles = getComputedStyle(btn);
			const info = {
				className: btn.className,
				tagName: btn.tagName.toLowerCase(),
				text: btn.textContent?.trim().slice(0, 30),
				hasIcon: !!btn.querySelector('svg'),
				styles: {
					backgroundColor: styles.backgroundColor,
					color: styles.color,
					borderRadius: styles.borderRadius,
					padding: styles.padding,
					fontSize: styles.fontSize,
					fontWeight: styles.fontWeight
				}
			};
			const cls = btn.className;
			if (cls.includes('btn-primary')) { if (result.primary.length < 5) result.primary.push(info); }
			else if (cls.includes('btn-secondary')) { if (result.secondary.length < 5) result.secondary.push(info); }
			else if (cls.includes('btn-success')) { if (result.success.length < 5) result.success.push(info); }
			else if (cls.includes('btn-danger')) { if (result.danger.length < 5) result.danger.push(info); }
			else if (result.other.length < 5) result.other.push(info);
		});
		return result;
	}
`

const discoverBadgesJS = `
	() => {
		const badges = document.querySelectorAll('[class*="badge"]');
		return Array.from(badges).slice(0, 15).map(badge => {
			const styles = getComputedStyle(badge);
			return {
				className: badge.className,
				tagName: badge.tagName.toLowerCase(),
				text: badge.textContent?.trim().slice(0, 30),
				styles: {
					backgroundColor: styles.backgroundColor,
					color: styles.color,
					borderRadius: styles.borderRadius,
					padding: styles.padding,
					fontSize: styles.fontSize
				}
			};
		});
	}
`

// ComponentSample is one observed instance of a component pattern.
type ComponentSample struct {
	ClassName  string            `json:"className"`
	TagName    string            `json:"tagName"`
	Text       string            `json:"text,omitempty"`
	ChildCount int               `json:"childCount,omitempty"`
	HasHeader  bool              `json:"hasHeader,omitempty"`
	HasIcon    bool              `json:"hasIcon,omitempty"`
	Styles     map[string]string `json:"styles"`
}

// ButtonCatalog groups sampled buttons by styling class.
type ButtonCatalog struct {
	Primary   []ComponentSample `json:"primary"`
	Secondary []ComponentSample `json:"secondary"`
	Success   []ComponentSample `json:"success"`
	Danger    []ComponentSample `json:"danger"`
	Other     []ComponentSample `json:"other"`
}

// PageComponents holds component samples found on one page.
type PageComponents struct {
	Path    string            `json:"path"`
	Cards   []ComponentSample `json:"cards"`
	Buttons ButtonCatalog     `json:"buttons"`
	Badges  []ComponentSample `json:"badges"`
	Error   string            `json:"error,omitempty"`
}

// ComponentsCatalog is components-catalog.json.
type ComponentsCatalog struct {
	CapturedAt time.Time        `json:"captured_at"`
	BaseURL    string           `json:"base_url"`
	Pages      []PageComponents `json:"pages"`
}

// DiscoverComponents samples component patterns on each configured page
// and writes the catalog to the output directory.
func (r *Runner) DiscoverComponents() (*ComponentsCatalog, error) {
	catalog := &ComponentsCatalog{
		CapturedAt: time.Now(),
		BaseURL:    r.cfg.BaseURL,
	}

	for _, pg := range r.cfg.Pages {
		pc := PageComponents{Path: pg.Path}

		if _, err := r.navigate(pg.Path, 500*time.Millisecond); err != nil {
			pc.Error = err.Error()
			slog.Warn("component discovery failed", "path", pg.Path, "error", err)
			catalog.Pages = append(catalog.Pages, pc)
			continue
		}

		if err := r.evaluate(discoverCardsJS, &pc.Cards); err != nil {
			return nil, err
		}
		if err := r.evaluate(discoverButtonsJS, &pc.Buttons); err != nil {
			return nil, err
		}
		if err := r.evaluate(discoverBadgesJS, &pc.Badges); err != nil {
			return nil, err
		}

		slog.Info("components discovered", "path", pg.Path, "cards", len(pc.Cards), "badges", len(pc.Badges))
		catalog.Pages = append(catalog.Pages, pc)
	}

	if _, err := writeJSON(r.cfg.OutputDir, "components-catalog.json", catalog); err != nil {
		return nil, err
	}
	return catalog, nil
}
