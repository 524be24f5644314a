package main

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/studium/internal/common"
	"github.com/ternarybob/studium/internal/interfaces"
	"github.com/ternarybob/studium/internal/models"
	"github.com/ternarybob/studium/internal/services/pipeline"
)

// handleGetDailyContent implements the get_daily_content tool
func handleGetDailyContent(storage interfaces.StorageManager, digestService interfaces.DigestService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		// Parse date parameter (required)
		date, err := request.RequireString("date")
		if err != nil || date == "" {
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent("Error: date parameter is required"),
				},
			}, nil
		}

		if _, err := common.ParseDateKey(date); err != nil {
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent(fmt.Sprintf("Error: invalid date %q, expected DD-MM-YYYY", date)),
				},
			}, nil
		}

		content, err := storage.ContentStorage().GetContent(ctx, date)
		if err != nil {
			if errors.Is(err, interfaces.ErrContentNotFound) {
				return &mcp.CallToolResult{
					Content: []mcp.Content{
						mcp.NewTextContent(fmt.Sprintf("No content found for %s. Use list_available_dates to see which dates have content.", date)),
					},
				}, nil
			}
			logger.Error().Err(err).Str("date", date).Msg("GetContent failed")
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent(fmt.Sprintf("Storage error: %v", err)),
				},
			}, nil
		}

		// Reuse the digest rendering so MCP output matches the digest endpoint
		markdown := digestService.BuildMarkdown(content)
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(markdown),
			},
		}, nil
	}
}

// handleListAvailableDates implements the list_available_dates tool
func handleListAvailableDates(storage interfaces.StorageManager, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		// Parse limit (default: 30)
		limit := request.GetInt("limit", 30)
		if limit < 1 {
			limit = 30
		}

		dates, err := storage.ContentStorage().ListDates(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("ListDates failed")
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent(fmt.Sprintf("Storage error: %v", err)),
				},
			}, nil
		}
		if len(dates) > limit {
			dates = dates[:limit]
		}

		// Enrich each date with artifact counts; a date that fails to load
		// is still listed, just without counts
		entries := make([]dateEntry, 0, len(dates))
		for _, date := range dates {
			entry := dateEntry{Date: date}
			if content, err := storage.ContentStorage().GetContent(ctx, date); err == nil {
				entry.Sections, entry.Cards, entry.MindMaps, entry.Prelims, entry.Mains = content.Counts()
				entry.HasCounts = true
			}
			entries = append(entries, entry)
		}

		markdown := formatAvailableDates(entries)
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(markdown),
			},
		}, nil
	}
}

// handleSearchContent implements the search_content tool
func handleSearchContent(storage interfaces.StorageManager, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		// Parse query parameter (required)
		query, err := request.RequireString("query")
		if err != nil || query == "" {
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent("Error: query parameter is required"),
				},
			}, nil
		}

		re, err := regexp.Compile("(?i)" + query)
		if err != nil {
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent(fmt.Sprintf("Error: invalid query pattern: %v", err)),
				},
			}, nil
		}

		// Parse limit (default: 20, max: 100)
		limit := request.GetInt("limit", 20)
		if limit < 1 {
			limit = 20
		}
		if limit > 100 {
			limit = 100
		}

		dates, err := storage.ContentStorage().ListDates(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("ListDates failed")
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent(fmt.Sprintf("Storage error: %v", err)),
				},
			}, nil
		}

		hits := make([]searchHit, 0, limit)
		for _, date := range dates {
			if len(hits) >= limit {
				break
			}
			content, err := storage.ContentStorage().GetContent(ctx, date)
			if err != nil {
				logger.Warn().Err(err).Str("date", date).Msg("Skipping date during search")
				continue
			}
			hits = scanContent(hits, limit, re, content)
		}

		markdown := formatSearchResults(query, hits)
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(markdown),
			},
		}, nil
	}
}

// handleGenerateContent implements the generate_content tool
func handleGenerateContent(pipelineService interfaces.PipelineService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		// Parse date parameter (required)
		date, err := request.RequireString("date")
		if err != nil || date == "" {
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent("Error: date parameter is required"),
				},
			}, nil
		}

		if _, err := common.ParseDateKey(date); err != nil {
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent(fmt.Sprintf("Error: invalid date %q, expected DD-MM-YYYY", date)),
				},
			}, nil
		}

		logger.Info().Str("date", date).Msg("Generation requested via MCP")

		summary, err := pipelineService.Generate(ctx, date)
		if err != nil {
			if errors.Is(err, pipeline.ErrGeneratorUnavailable) {
				return &mcp.CallToolResult{
					Content: []mcp.Content{
						mcp.NewTextContent("Content generation is disabled: no LLM provider configured. Set STUDIUM_GEMINI_API_KEY and restart the server."),
					},
				}, nil
			}
			if errors.Is(err, pipeline.ErrRunInProgress) {
				return &mcp.CallToolResult{
					Content: []mcp.Content{
						mcp.NewTextContent(fmt.Sprintf("A generation run is already in progress for %s. Wait for it to finish, then use get_daily_content.", date)),
					},
				}, nil
			}
			logger.Error().Err(err).Str("date", date).Msg("Generation failed")
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent(fmt.Sprintf("Generation failed for %s: %v", date, err)),
				},
			}, nil
		}

		markdown := formatRunSummary(summary)
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(markdown),
			},
		}, nil
	}
}

// scanContent appends matches from one content record until limit is reached
func scanContent(hits []searchHit, limit int, re *regexp.Regexp, content *models.DailyContent) []searchHit {
	add := func(location, text string) bool {
		if len(hits) >= limit {
			return false
		}
		if !re.MatchString(text) {
			return true
		}
		hits = append(hits, searchHit{
			Date:     content.Date,
			Location: location,
			Snippet:  matchSnippet(re, text),
		})
		return len(hits) < limit
	}

	for _, section := range content.Sections {
		if !add(fmt.Sprintf("Section: %s", section.Title), section.Text()) {
			return hits
		}
	}
	for _, card := range content.Cards {
		if !add(fmt.Sprintf("Card: %s", card.Title), card.Title+"\n"+card.Summary) {
			return hits
		}
	}
	for _, mindmap := range content.MindMaps.MindMaps {
		if !add(fmt.Sprintf("Mind map: %s", mindmap.Title), mindMapText(&mindmap)) {
			return hits
		}
	}
	for i, q := range content.Questions.Prelims {
		if !add(fmt.Sprintf("Prelims Q%d", i+1), q.Question+"\n"+q.Explanation) {
			return hits
		}
	}
	for i, q := range content.Questions.Mains {
		if !add(fmt.Sprintf("Mains Q%d", i+1), q.Question+"\n"+strings.Join(q.KeyPoints, "\n")) {
			return hits
		}
	}
	return hits
}

// mindMapText flattens a mind map's title and node names for matching
func mindMapText(m *models.MindMap) string {
	var names []string
	var walk func(nodes []models.MindMapNode)
	walk = func(nodes []models.MindMapNode) {
		for i := range nodes {
			names = append(names, nodes[i].Name)
			walk(nodes[i].Children)
		}
	}
	names = append(names, m.Title)
	walk(m.Nodes)
	return strings.Join(names, "\n")
}

// matchSnippet returns a short window of text around the first match
func matchSnippet(re *regexp.Regexp, text string) string {
	const window = 120

	loc := re.FindStringIndex(text)
	if loc == nil {
		return ""
	}

	start := loc[0] - window/2
	if start < 0 {
		start = 0
	}
	end := loc[1] + window/2
	if end > len(text) {
		end = len(text)
	}

	snippet := strings.Join(strings.Fields(text[start:end]), " ")
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(text) {
		snippet += "..."
	}
	return snippet
}
