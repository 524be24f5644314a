package main

import (
	"fmt"
	"strings"

	"github.com/ternarybob/studium/internal/models"
)

// dateEntry is one row in the list_available_dates output
type dateEntry struct {
	Date      string
	HasCounts bool
	Sections  int
	Cards     int
	MindMaps  int
	Prelims   int
	Mains     int
}

// searchHit is one match in the search_content output
type searchHit struct {
	Date     string
	Location string
	Snippet  string
}

// formatAvailableDates formats the stored dates as a markdown list
func formatAvailableDates(entries []dateEntry) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Available Dates (%d)\n\n", len(entries)))

	if len(entries) == 0 {
		sb.WriteString("No content stored yet. Use generate_content to create content for a date.\n")
		return sb.String()
	}

	for _, entry := range entries {
		if !entry.HasCounts {
			sb.WriteString(fmt.Sprintf("- **%s**\n", entry.Date))
			continue
		}
		sb.WriteString(fmt.Sprintf("- **%s**: %d sections, %d cards, %d mind maps, %d prelims, %d mains\n",
			entry.Date, entry.Sections, entry.Cards, entry.MindMaps, entry.Prelims, entry.Mains))
	}

	sb.WriteString("\nUse get_daily_content with one of these dates to retrieve the full content.\n")
	return sb.String()
}

// formatSearchResults formats search hits as markdown
func formatSearchResults(query string, hits []searchHit) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Search Results for \"%s\" (%d matches)\n\n", query, len(hits)))

	if len(hits) == 0 {
		sb.WriteString("No matches found.\n")
		return sb.String()
	}

	for i, hit := range hits {
		sb.WriteString(fmt.Sprintf("### %d. %s (%s)\n", i+1, hit.Location, hit.Date))
		if hit.Snippet != "" {
			sb.WriteString(hit.Snippet)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Use get_daily_content with a date to see the full content.\n")
	return sb.String()
}

// formatRunSummary formats a completed generation run as markdown
func formatRunSummary(summary *models.RunSummary) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Generation Complete for %s\n\n", summary.Date))
	sb.WriteString(fmt.Sprintf("%s\n\n", summary.Message))
	sb.WriteString(fmt.Sprintf("- **Sections:** %d\n", summary.SectionsCount))
	sb.WriteString(fmt.Sprintf("- **Cards:** %d\n", summary.CardsCount))
	sb.WriteString(fmt.Sprintf("- **Mind maps:** %d\n", summary.MindMapsCount))
	sb.WriteString(fmt.Sprintf("- **Prelims questions:** %d\n", summary.PrelimsCount))
	sb.WriteString(fmt.Sprintf("- **Mains questions:** %d\n", summary.MainsCount))

	review := summary.ReviewSummary
	if review.TotalIssues > 0 || review.TotalCorrections > 0 {
		sb.WriteString(fmt.Sprintf("\nReview pass flagged %d issues and applied %d corrections.\n",
			review.TotalIssues, review.TotalCorrections))
	}

	sb.WriteString(fmt.Sprintf("\nUse get_daily_content with date %s to retrieve the content.\n", summary.Date))
	return sb.String()
}
