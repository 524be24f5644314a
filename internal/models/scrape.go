package models

import (
	"strings"
)

// ScrapedArticle is the cleaned output of one source fetch for a date
type ScrapedArticle struct {
	Source   string `json:"source"` // Source name, e.g. "drishti"
	URL      string `json:"url"`
	Title    string `json:"title"`
	Meta     string `json:"meta,omitempty"`     // Publication meta line (date, read time) when present
	Body     string `json:"body"`               // Extracted text blocks joined by blank lines
	Markdown string `json:"markdown,omitempty"` // Markdown rendition of the content container
}

// Document renders the article the way extraction expects it:
// title and meta lines first, then a blank line, then the body.
func (a *ScrapedArticle) Document() string {
	var b strings.Builder
	if a.Title != "" {
		b.WriteString(a.Title)
		b.WriteString("\n")
	}
	if a.Meta != "" {
		b.WriteString(a.Meta)
		b.WriteString("\n")
	}
	if a.Body != "" {
		b.WriteString("\n")
		b.WriteString(a.Body)
	} else {
		b.WriteString("No content found")
	}
	return b.String()
}

// Corpus is the combined scrape output for one date, the input to extraction
type Corpus struct {
	Date     string   `json:"date"`
	Content  string   `json:"content"`            // Article documents joined with newlines
	Markdown string   `json:"markdown,omitempty"` // Markdown renditions joined with rules, for archival
	Sources  []string `json:"sources"`            // URLs of the sources that contributed
}
