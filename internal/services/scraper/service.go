package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/studium/internal/common"
	"github.com/ternarybob/studium/internal/interfaces"
	"github.com/ternarybob/studium/internal/models"
)

// ErrNoArticles is returned when every configured source fails for a date.
// A single failed source is logged and skipped, not fatal.
var ErrNoArticles = errors.New("no articles were successfully scraped")

// Service runs all configured article sources for a date key and combines
// their output into one corpus.
type Service struct {
	sources []interfaces.ArticleSource
	logger  arbor.ILogger
}

// NewService builds the source list from configuration. Drishti and Indian
// Express are always active; newsletter and bulletin sources join when
// enabled.
func NewService(config *common.Config, logger arbor.ILogger) *Service {
	client := NewClient(&config.Scraper, logger)

	var renderer *Renderer
	if config.Scraper.EnableJavaScript {
		renderer = NewRenderer(&config.Scraper, logger)
	}

	sources := []interfaces.ArticleSource{
		NewDrishtiSource(&config.Scraper, client, renderer, logger),
		NewIndianExpressSource(&config.Scraper, client, renderer, logger),
	}
	if config.Newsletter.Enabled {
		sources = append(sources, NewNewsletterSource(&config.Newsletter, logger))
	}
	if config.Bulletin.Enabled {
		sources = append(sources, NewBulletinSource(&config.Bulletin, logger))
	}

	logger.Info().
		Int("source_count", len(sources)).
		Msg("Scraper service initialized")

	return &Service{
		sources: sources,
		logger:  logger,
	}
}

// NewServiceWithSources creates a service over an explicit source list.
func NewServiceWithSources(logger arbor.ILogger, sources ...interfaces.ArticleSource) *Service {
	return &Service{
		sources: sources,
		logger:  logger,
	}
}

// SourceNames returns the names of the active sources in fetch order.
func (s *Service) SourceNames() []string {
	names := make([]string, 0, len(s.sources))
	for _, source := range s.sources {
		names = append(names, source.Name())
	}
	return names
}

// ScrapeAll fetches every source for a date key. Per-source failures are
// logged and skipped; ErrNoArticles is returned only when all sources fail.
func (s *Service) ScrapeAll(ctx context.Context, dateKey string) (*models.Corpus, error) {
	var documents, markdowns, sourceURLs []string

	for _, source := range s.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		article, err := source.Fetch(ctx, dateKey)
		if err != nil {
			s.logger.Warn().
				Err(err).
				Str("source", source.Name()).
				Str("date", dateKey).
				Msg("Source failed, continuing with remaining sources")
			continue
		}

		documents = append(documents, article.Document())
		if article.Markdown != "" {
			markdowns = append(markdowns, article.Markdown)
		}
		sourceURLs = append(sourceURLs, article.URL)
	}

	if len(documents) == 0 {
		return nil, fmt.Errorf("%w for date %s", ErrNoArticles, dateKey)
	}

	s.logger.Info().
		Str("date", dateKey).
		Int("sources_scraped", len(documents)).
		Msg("Scrape complete")

	return &models.Corpus{
		Date:     dateKey,
		Content:  strings.Join(documents, "\n"),
		Markdown: strings.Join(markdowns, "\n\n---\n\n"),
		Sources:  sourceURLs,
	}, nil
}
