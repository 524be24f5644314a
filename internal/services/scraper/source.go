package scraper

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/studium/internal/models"
)

// HTMLSource fetches one news analysis page per date key and extracts it.
// When a renderer is attached and the plain fetch yields no body, the page is
// re-fetched through headless Chrome before giving up.
type HTMLSource struct {
	name            string
	baseURL         string
	minParagraphLen int
	client          *Client
	renderer        *Renderer
	logger          arbor.ILogger
}

// NewHTMLSource creates a date-keyed HTML article source.
func NewHTMLSource(name, baseURL string, minParagraphLen int, client *Client, renderer *Renderer, logger arbor.ILogger) *HTMLSource {
	return &HTMLSource{
		name:            name,
		baseURL:         baseURL,
		minParagraphLen: minParagraphLen,
		client:          client,
		renderer:        renderer,
		logger:          logger,
	}
}

// Name returns the source name.
func (s *HTMLSource) Name() string {
	return s.name
}

// Fetch downloads and extracts the article page for a date key.
func (s *HTMLSource) Fetch(ctx context.Context, dateKey string) (*models.ScrapedArticle, error) {
	pageURL := s.baseURL + dateKey

	s.logger.Debug().
		Str("source", s.name).
		Str("url", pageURL).
		Msg("Fetching article page")

	doc, err := s.client.FetchHTML(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}

	article := ExtractArticle(doc, s.name, pageURL, s.minParagraphLen)

	if article.Body == "" && s.renderer != nil {
		s.logger.Debug().
			Str("source", s.name).
			Str("url", pageURL).
			Msg("Empty body from plain fetch, rendering with headless browser")

		var renderedDoc *goquery.Document
		renderedDoc, err = s.renderer.FetchHTML(ctx, pageURL)
		if err != nil {
			s.logger.Warn().
				Err(err).
				Str("source", s.name).
				Msg("Rendered fetch failed, keeping plain extraction")
		} else {
			article = ExtractArticle(renderedDoc, s.name, pageURL, s.minParagraphLen)
		}
	}

	s.logger.Info().
		Str("source", s.name).
		Str("title", article.Title).
		Int("body_length", len(article.Body)).
		Msg("Article extracted")

	return article, nil
}
