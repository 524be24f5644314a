package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createGetDailyContentTool returns the get_daily_content tool definition
func createGetDailyContentTool() mcp.Tool {
	return mcp.NewTool("get_daily_content",
		mcp.WithDescription("Retrieve the generated UPSC study content for a date: sections, recall cards, mind maps, and practice questions"),
		mcp.WithString("date",
			mcp.Required(),
			mcp.Description("Date key in DD-MM-YYYY format, e.g. 21-08-2026"),
		),
	)
}

// createListAvailableDatesTool returns the list_available_dates tool definition
func createListAvailableDatesTool() mcp.Tool {
	return mcp.NewTool("list_available_dates",
		mcp.WithDescription("List dates that have generated study content, most recent first"),
		mcp.WithNumber("limit",
			mcp.Description("Maximum dates to return (default: 30)"),
		),
	)
}

// createSearchContentTool returns the search_content tool definition
func createSearchContentTool() mcp.Tool {
	return mcp.NewTool("search_content",
		mcp.WithDescription("Search stored study content across all dates. The query is a case-insensitive regular expression matched against section, card, and question text"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search pattern (regular expression; plain words work as-is)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum matches to return (default: 20, max: 100)"),
		),
	)
}

// createGenerateContentTool returns the generate_content tool definition
func createGenerateContentTool() mcp.Tool {
	return mcp.NewTool("generate_content",
		mcp.WithDescription("Run the full generation pipeline for a date: scrape sources, extract sections, generate study artifacts, review, and persist. Takes several minutes"),
		mcp.WithString("date",
			mcp.Required(),
			mcp.Description("Date key in DD-MM-YYYY format, e.g. 21-08-2026"),
		),
	)
}
