// Package render formats recommendation lists for plain-text surfaces: the
// MCP tools and the API's text variant. It never reorders records; list
// order is the catalog order the engine produced.
package render

import (
	"fmt"
	"strings"

	"github.com/prushi369-byte/uspstf-screening/internal/domain"
)

// EmptyResultText is rendered when no recommendation matched.
const EmptyResultText = "No screening recommendations apply to this profile."

// Text renders one block per recommendation with name, grade, test, interval
// (omitted when empty), and notes.
func Text(recommendations []domain.Recommendation) string {
	if len(recommendations) == 0 {
		return EmptyResultText
	}

	var b strings.Builder
	for i, rec := range recommendations {
		if i > 0 {
			b.WriteString("\n")
		}

		fmt.Fprintf(&b, "%s (Grade %s)\n", rec.Name, rec.Grade)
		fmt.Fprintf(&b, "  Test: %s\n", rec.Test)
		if rec.Interval != "" {
			fmt.Fprintf(&b, "  Interval: %s\n", rec.Interval)
		}
		fmt.Fprintf(&b, "  Notes: %s\n", rec.Notes)
	}

	return b.String()
}

// CatalogText renders the rule catalog for discovery surfaces, one line per
// entry in catalog order.
func CatalogText(entries []domain.CatalogEntry) string {
	if len(entries) == 0 {
		return "The screening catalog is empty."
	}

	var b strings.Builder
	for _, entry := range entries {
		grades := make([]string, 0, len(entry.Grades))
		for _, grade := range entry.Grades {
			grades = append(grades, string(grade))
		}

		fmt.Fprintf(&b, "%2d. %s [%s] - %s\n",
			entry.Position, entry.Topic, strings.Join(grades, "/"), entry.Summary)
	}

	return b.String()
}

// ResultText renders a full service result: a header with match counts
// followed by the recommendation blocks.
func ResultText(result *domain.ScreeningResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Matched %d of %d screening topics", result.MatchedCount, result.CatalogSize)
	if result.Profile.PackYears > 0 {
		fmt.Fprintf(&b, " (%.1f pack-years)", result.Profile.PackYears)
	}
	b.WriteString("\n\n")
	b.WriteString(Text(result.Recommendations))

	return b.String()
}
