package scraper

import (
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/studium/internal/models"
)

// titleSelectors is tried in order; the first non-empty match wins.
var titleSelectors = []string{
	"h1",
	"h1.entry-title",
	"h1.post-title",
	"div.entry-title",
}

// contentSelectors is tried in order; the first container present in the
// document is used, falling back to body.
var contentSelectors = []string{
	"div.entry-content",
	"div.post-content",
	"div.article-content",
	"article",
	"div.content",
	"div#content",
	"body",
}

// ExtractArticle pulls the title, meta line and cleaned text blocks out of a
// news analysis page. Paragraphs at or under minParagraphLen characters are
// dropped as boilerplate, list items become bullet lines, and h2-h6 headings
// are kept as their own blocks.
func ExtractArticle(doc *goquery.Document, source, pageURL string, minParagraphLen int) *models.ScrapedArticle {
	article := &models.ScrapedArticle{
		Source: source,
		URL:    pageURL,
	}

	for _, selector := range titleSelectors {
		if text := normalizeSpace(doc.Find(selector).First().Text()); text != "" {
			article.Title = text
			break
		}
	}

	article.Meta = findMetaLine(doc)

	container := findContentContainer(doc)
	if container == nil {
		return article
	}

	article.Body = extractBlocks(container, minParagraphLen)
	article.Markdown = containerMarkdown(container, pageURL, article.Title)

	return article
}

// findMetaLine looks for the publication meta line, a leaf div carrying the
// "min read" marker these sites put under the headline.
func findMetaLine(doc *goquery.Document) string {
	var meta string
	doc.Find("div").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.Children().Length() != 0 {
			return true
		}
		text := normalizeSpace(s.Text())
		if strings.Contains(text, "min read") {
			meta = text
			return false
		}
		return true
	})
	return meta
}

// findContentContainer returns the first content container present.
func findContentContainer(doc *goquery.Document) *goquery.Selection {
	for _, selector := range contentSelectors {
		if container := doc.Find(selector).First(); container.Length() > 0 {
			return container
		}
	}
	return nil
}

// extractBlocks walks the container's paragraphs, lists and headings in
// document order and renders them as text blocks joined by blank lines.
func extractBlocks(container *goquery.Selection, minParagraphLen int) string {
	var blocks []string

	container.Find("p, ul, ol, h2, h3, h4, h5, h6").Each(func(_ int, sel *goquery.Selection) {
		switch goquery.NodeName(sel) {
		case "ul", "ol":
			var items []string
			sel.Find("li").Each(func(_ int, li *goquery.Selection) {
				if text := normalizeSpace(li.Text()); text != "" {
					items = append(items, "• "+text)
				}
			})
			if len(items) > 0 {
				blocks = append(blocks, strings.Join(items, "\n"))
			}
		case "p":
			if text := normalizeSpace(sel.Text()); len(text) > minParagraphLen {
				blocks = append(blocks, text)
			}
		default:
			if text := normalizeSpace(sel.Text()); text != "" {
				blocks = append(blocks, "\n"+text+"\n")
			}
		}
	})

	return strings.Join(blocks, "\n\n")
}

// containerMarkdown converts the content container to markdown for archival.
func containerMarkdown(container *goquery.Selection, pageURL, title string) string {
	html, err := goquery.OuterHtml(container)
	if err != nil {
		return ""
	}

	converter := md.NewConverter(pageURL, true, nil)
	markdown, err := converter.ConvertString(html)
	if err != nil {
		return ""
	}

	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return ""
	}
	if title != "" {
		return "# " + title + "\n\n" + markdown
	}
	return markdown
}

// normalizeSpace trims and collapses runs of whitespace to single spaces.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
