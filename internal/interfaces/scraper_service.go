package interfaces

import (
	"context"

	"github.com/ternarybob/studium/internal/models"
)

// ArticleSource fetches and cleans one site's news analysis page for a date key
type ArticleSource interface {
	// Name returns the source identifier, e.g. "drishti"
	Name() string

	// Fetch retrieves the article for the date key (DD-MM-YYYY)
	Fetch(ctx context.Context, dateKey string) (*models.ScrapedArticle, error)
}

// ScraperService gathers the daily corpus across all configured sources
type ScraperService interface {
	// ScrapeAll fetches every enabled source for the date key and combines
	// the results into a single corpus. Individual source failures are
	// logged and skipped; an error is returned only when no source succeeds.
	ScrapeAll(ctx context.Context, dateKey string) (*models.Corpus, error)

	// SourceNames lists the enabled sources in fetch order
	SourceNames() []string
}
