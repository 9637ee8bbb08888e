package capture

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

const extractColorsJS = `
	() => {
		const colors = { backgrounds: new Map(), texts: new Map(), borders: new Map(), shadows: new Set() };
		document.querySelectorAll('*').forEach(el => {
			const styles = getComputedStyle(el);
			const bg = styles.backgroundColor;
			if (bg && bg !== 'rgba(0, 0, 0, 0)' && bg !== 'transparent') {
				colors.backgrounds.set(bg, (colors.backgrounds.get(bg) || 0) + 1);
			}
			const color = styles.color;
			if (color) {
				colors.texts.set(color, (colors.texts.get(color) || 0) + 1);
			}
			const borderColor = styles.borderColor;
			if (borderColor && borderColor !== 'rgba(0, 0, 0, 0)') {
				colors.borders.set(borderColor, (colors.borders.get(borderColor) || 0) + 1);
			}
			const shadow = styles.boxShadow;
			if (shadow && shadow !== 'none') {
				colors.shadows.add(shadow);
			}
		});
		return {
			backgrounds: Object.fromEntries(colors.backgrounds),
			texts: Object.fromEntries(colors.texts),
			borders: Object.fromEntries(colors.borders),
			shadows: Array.from(colors.shadows)
		};
	}
`

const extractTypographyJS = `
	() => {
		const typo = { fontFamilies: new Map(), fontSizes: new Map(), fontWeights: new Map(), lineHeights: new Map() };
		document.querySelectorAll('h1, h2, h3, h4, h5, h6, p, span, a, button, label, div').forEach(el => {
			const text = el.textContent?.trim();
			if (!text || text.length === 0) return;
			const styles = getComputedStyle(el);
			for (const [key, prop] of [['fontFamilies', 'fontFamily'], ['fontSizes', 'fontSize'], ['fontWeights', 'fontWeight'], ['lineHeights', 'lineHeight']]) {
				const v = styles[prop];
				if (v) typo[key].set(v, (typo[key].get(v) || 0) + 1);
			}
		});
		return {
			fontFamilies: Object.fromEntries(typo.fontFamilies),
			fontSizes: Object.fromEntries(typo.fontSizes),
			fontWeights: Object.fromEntries(typo.fontWeights),
			lineHeights: Object.fromEntries(typo.lineHeights)
		};
	}
`

const extractSpacingJS = `
	() => {
		const spacing = { paddings: new Map(), margins: new Map(), gaps: new Map(), borderRadius: new Map() };
		document.querySelectorAll('div, section, article, main, aside, nav, header, footer, button, a').forEach(el => {
			const styles = getComputedStyle(el);
			const padding = styles.padding;
			if (padding && padding !== '0px') spacing.paddings.set(padding, (spacing.paddings.get(padding) || 0) + 1);
			const margin = styles.margin;
			if (margin && margin !== '0px') spacing.margins.set(margin, (spacing.margins.get(margin) || 0) + 1);
			const gap = styles.gap;
			if (gap && gap !== 'normal' && gap !== '0px') spacing.gaps.set(gap, (spacing.gaps.get(gap) || 0) + 1);
			const radius = styles.borderRadius;
			if (radius && radius !== '0px') spacing.borderRadius.set(radius, (spacing.borderRadius.get(radius) || 0) + 1);
		});
		return {
			paddings: Object.fromEntries(spacing.paddings),
			margins: Object.fromEntries(spacing.margins),
			gaps: Object.fromEntries(spacing.gaps),
			borderRadius: Object.fromEntries(spacing.borderRadius)
		};
	}
`

type pageColors struct {
	Backgrounds map[string]int `json:"backgrounds"`
	Texts       map[string]int `json:"texts"`
	Borders     map[string]int `json:"borders"`
	Shadows     []string       `json:"shadows"`
}

type pageTypography struct {
	FontFamilies map[string]int `json:"fontFamilies"`
	FontSizes    map[string]int `json:"fontSizes"`
	FontWeights  map[string]int `json:"fontWeights"`
	LineHeights  map[string]int `json:"lineHeights"`
}

type pageSpacing struct {
	Paddings     map[string]int `json:"paddings"`
	Margins      map[string]int `json:"margins"`
	Gaps         map[string]int `json:"gaps"`
	BorderRadius map[string]int `json:"borderRadius"`
}

// ColorToken is one observed color with its usage count.
type ColorToken struct {
	RGB   string `json:"rgb"`
	Hex   string `json:"hex"`
	Count int    `json:"count"`
}

// CountedValue is a computed style value with its usage count.
type CountedValue struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// ColorsReport is colors-extracted.json.
type ColorsReport struct {
	ExtractedAt  time.Time    `json:"extracted_at"`
	SourceURL    string       `json:"source_url"`
	PagesScanned []string     `json:"pages_scanned"`
	Backgrounds  []ColorToken `json:"backgrounds"`
	Texts        []ColorToken `json:"texts"`
	Borders      []ColorToken `json:"borders"`
	Shadows      []string     `json:"shadows"`
}

// TypographyReport is typography.json.
type TypographyReport struct {
	ExtractedAt  time.Time      `json:"extracted_at"`
	SourceURL    string         `json:"source_url"`
	FontFamilies []CountedValue `json:"fontFamilies"`
	FontSizes    []CountedValue `json:"fontSizes"`
	FontWeights  []CountedValue `json:"fontWeights"`
	LineHeights  []CountedValue `json:"lineHeights"`
}

// SpacingReport is spacing.json.
type SpacingReport struct {
	ExtractedAt  time.Time      `json:"extracted_at"`
	SourceURL    string         `json:"source_url"`
	Paddings     []CountedValue `json:"paddings"`
	Margins      []CountedValue `json:"margins"`
	Gaps         []CountedValue `json:"gaps"`
	BorderRadius []CountedValue `json:"borderRadius"`
}

// TokensReport is the combined styles-computed.json.
type TokensReport struct {
	ExtractedAt time.Time        `json:"extracted_at"`
	SourceURL   string           `json:"source_url"`
	Colors      ColorsReport     `json:"colors"`
	Typography  TypographyReport `json:"typography"`
	Spacing     SpacingReport    `json:"spacing"`
}

// ExtractTokens visits each configured page, pulls computed styles, and
// writes the merged token reports to the output directory.
func (r *Runner) ExtractTokens() (*TokensReport, error) {
	var allColors []pageColors
	var allTypo []pageTypography
	var allSpacing []pageSpacing
	var scanned []string

	for _, pg := range r.cfg.Pages {
		if _, err := r.navigate(pg.Path, 500*time.Millisecond); err != nil {
			slog.Warn("token scan failed", "path", pg.Path, "error", err)
			continue
		}
		scanned = append(scanned, pg.Path)

		var colors pageColors
		if err := r.evaluate(extractColorsJS, &colors); err != nil {
			return nil, err
		}
		var typo pageTypography
		if err := r.evaluate(extractTypographyJS, &typo); err != nil {
			return nil, err
		}
		var spacing pageSpacing
		if err := r.evaluate(extractSpacingJS, &spacing); err != nil {
			return nil, err
		}

		allColors = append(allColors, colors)
		allTypo = append(allTypo, typo)
		allSpacing = append(allSpacing, spacing)

		slog.Info("tokens scanned", "path", pg.Path, "backgrounds", len(colors.Backgrounds), "texts", len(colors.Texts))
	}

	now := time.Now()

	bgCounts := MergeCounts(collect(allColors, func(c pageColors) map[string]int { return c.Backgrounds })...)
	textCounts := MergeCounts(collect(allColors, func(c pageColors) map[string]int { return c.Texts })...)
	borderCounts := MergeCounts(collect(allColors, func(c pageColors) map[string]int { return c.Borders })...)

	var shadows []string
	seenShadows := map[string]bool{}
	for _, c := range allColors {
		for _, s := range c.Shadows {
			if !seenShadows[s] {
				seenShadows[s] = true
				shadows = append(shadows, s)
			}
		}
	}
	if len(shadows) > 10 {
		shadows = shadows[:10]
	}

	colorsReport := ColorsReport{
		ExtractedAt:  now,
		SourceURL:    r.cfg.BaseURL,
		PagesScanned: scanned,
		Backgrounds:  colorTokens(SortByCount(bgCounts, 30)),
		Texts:        colorTokens(SortByCount(textCounts, 30)),
		Borders:      colorTokens(SortByCount(borderCounts, 20)),
		Shadows:      shadows,
	}

	typoReport := TypographyReport{
		ExtractedAt:  now,
		SourceURL:    r.cfg.BaseURL,
		FontFamilies: SortByCount(MergeCounts(collect(allTypo, func(t pageTypography) map[string]int { return t.FontFamilies })...), 10),
		FontSizes:    SortByCount(MergeCounts(collect(allTypo, func(t pageTypography) map[string]int { return t.FontSizes })...), 20),
		FontWeights:  SortByCount(MergeCounts(collect(allTypo, func(t pageTypography) map[string]int { return t.FontWeights })...), 10),
		LineHeights:  SortByCount(MergeCounts(collect(allTypo, func(t pageTypography) map[string]int { return t.LineHeights })...), 15),
	}

	spacingReport := SpacingReport{
		ExtractedAt:  now,
		SourceURL:    r.cfg.BaseURL,
		Paddings:     SortByCount(MergeCounts(collect(allSpacing, func(s pageSpacing) map[string]int { return s.Paddings })...), 25),
		Margins:      SortByCount(MergeCounts(collect(allSpacing, func(s pageSpacing) map[string]int { return s.Margins })...), 25),
		Gaps:         SortByCount(MergeCounts(collect(allSpacing, func(s pageSpacing) map[string]int { return s.Gaps })...), 15),
		BorderRadius: SortByCount(MergeCounts(collect(allSpacing, func(s pageSpacing) map[string]int { return s.BorderRadius })...), 15),
	}

	combined := &TokensReport{
		ExtractedAt: now,
		SourceURL:   r.cfg.BaseURL,
		Colors:      colorsReport,
		Typography:  typoReport,
		Spacing:     spacingReport,
	}

	if _, err := writeJSON(r.cfg.OutputDir, "colors-extracted.json", colorsReport); err != nil {
		return nil, err
	}
	if _, err := writeJSON(r.cfg.OutputDir, "typography.json", typoReport); err != nil {
		return nil, err
	}
	if _, err := writeJSON(r.cfg.OutputDir, "spacing.json", spacingReport); err != nil {
		return nil, err
	}
	if _, err := writeJSON(r.cfg.OutputDir, "styles-computed.json", combined); err != nil {
		return nil, err
	}

	return combined, nil
}

func collect[T any](items []T, get func(T) map[string]int) []map[string]int {
	out := make([]map[string]int, 0, len(items))
	for _, item := range items {
		out = append(out, get(item))
	}
	return out
}

func colorTokens(values []CountedValue) []ColorToken {
	tokens := make([]ColorToken, 0, len(values))
	for _, v := range values {
		tokens = append(tokens, ColorToken{RGB: v.Value, Hex: RGBToHex(v.Value), Count: v.Count})
	}
	return tokens
}

// MergeCounts sums counts across maps keyed by the same value.
func MergeCounts(maps ...map[string]int) map[string]int {
	merged := make(map[string]int)
	for _, m := range maps {
		for k, v := range m {
			merged[k] += v
		}
	}
	return merged
}

// SortByCount orders values by descending count and keeps the top n.
// Ties break lexicographically for stable output.
func SortByCount(counts map[string]int, n int) []CountedValue {
	values := make([]CountedValue, 0, len(counts))
	for k, v := range counts {
		values = append(values, CountedValue{Value: k, Count: v})
	}
	sort.Slice(values, func(i, j int) bool {
		if values[i].Count != values[j].Count {
			return values[i].Count > values[j].Count
		}
		return values[i].Value < values[j].Value
	})
	if len(values) > n {
		values = values[:n]
	}
	return values
}

var rgbRe = regexp.MustCompile(`^rgba?\(([^)]+)\)$`)

// RGBToHex converts "rgb(r, g, b)" to "#rrggbb". Translucent rgba
// values are kept as-is, as are strings that don't parse.
func RGBToHex(rgb string) string {
	m := rgbRe.FindStringSubmatch(strings.TrimSpace(rgb))
	if m == nil {
		return rgb
	}

	parts := strings.Split(m[1], ",")
	if len(parts) < 3 {
		return rgb
	}

	channel := func(s string) (int, bool) {
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || v < 0 || v > 255 {
			return 0, false
		}
		return v, true
	}

	r, ok := channel(parts[0])
	if !ok {
		return rgb
	}
	g, ok := channel(parts[1])
	if !ok {
		return rgb
	}
	b, ok := channel(parts[2])
	if !ok {
		return rgb
	}

	if len(parts) >= 4 {
		alpha, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err == nil && alpha < 1 {
			return fmt.Sprintf("rgba(%d, %d, %d, %g)", r, g, b, alpha)
		}
	}

	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}
