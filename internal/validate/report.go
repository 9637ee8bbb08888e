package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const maxShownPerCategory = 5

var (
	headerStyle   = lipgloss.NewStyle().Bold(true)
	ruleStyle     = lipgloss.NewStyle().Faint(true)
	categoryStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	passStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	warnStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
	failStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	locStyle      = lipgloss.NewStyle().Faint(true)
)

// RenderGamingReport formats a gaming scan result for the terminal.
func RenderGamingReport(r GamingResult) string {
	var b strings.Builder
	rule := ruleStyle.Render(strings.Repeat("=", 60))

	b.WriteString(rule + "\n")
	b.WriteString(headerStyle.Render("  GAMING VALIDATION REPORT") + "\n")
	b.WriteString(rule + "\n")

	if len(r.Violations) == 0 {
		b.WriteString("\n" + passStyle.Render("CLEAN") + " - no gaming patterns detected\n")
		b.WriteString(fmt.Sprintf("Gaming score: %.2f\n", r.Score))
		return b.String()
	}

	writeCategories(&b, r.Violations)

	b.WriteString("\n" + rule + "\n")
	b.WriteString(fmt.Sprintf("  GAMING SCORE: %.2f\n", r.Score))
	b.WriteString(fmt.Sprintf("  THRESHOLD:    %.2f\n", r.Threshold))

	switch {
	case r.Score > r.Threshold:
		b.WriteString("\n" + failStyle.Render("BLOCKED") + " - gaming score exceeds threshold, fix violations before proceeding\n")
	case r.Score > r.Threshold*0.7:
		b.WriteString("\n" + warnStyle.Render("WARNING") + " - approaching threshold, review flagged patterns\n")
	default:
		b.WriteString("\n" + passStyle.Render("PASSED") + " - within acceptable limits\n")
	}

	return b.String()
}

// RenderQualityReport formats a zero-tolerance result for the terminal.
func RenderQualityReport(r QualityResult) string {
	var b strings.Builder
	rule := ruleStyle.Render(strings.Repeat("=", 60))

	b.WriteString(rule + "\n")
	b.WriteString(headerStyle.Render("  ZERO TOLERANCE QUALITY REPORT") + "\n")
	b.WriteString(rule + "\n")

	if r.Passed {
		b.WriteString("\n" + passStyle.Render("CLEAN") + " - no zero tolerance violations\n")
		return b.String()
	}

	writeCategories(&b, r.Violations)

	b.WriteString("\n" + rule + "\n")
	b.WriteString(fmt.Sprintf("  TOTAL VIOLATIONS: %d\n", r.TotalViolations))
	b.WriteString("\n" + failStyle.Render("BLOCKED") + " - all violations must be fixed before proceeding\n")

	return b.String()
}

func writeCategories(b *strings.Builder, violations []Violation) {
	byCategory := make(map[string][]Violation)
	for _, v := range violations {
		byCategory[v.Category] = append(byCategory[v.Category], v)
	}

	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	for _, category := range categories {
		items := byCategory[category]
		title := strings.ToUpper(strings.ReplaceAll(category, "_", " "))
		fmt.Fprintf(b, "\n%s (%d violations)\n", categoryStyle.Render(title), len(items))

		shown := items
		if len(shown) > maxShownPerCategory {
			shown = shown[:maxShownPerCategory]
		}
		for _, v := range shown {
			fmt.Fprintf(b, "  %s\n", locStyle.Render(fmt.Sprintf("%s:%d", v.File, v.Line)))
			fmt.Fprintf(b, "    %s\n", v.Message)
			if v.Content != "" {
				fmt.Fprintf(b, "    > %s\n", v.Content)
			}
		}
		if len(items) > maxShownPerCategory {
			fmt.Fprintf(b, "  ... and %d more\n", len(items)-maxShownPerCategory)
		}
	}
}
