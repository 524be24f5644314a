package interfaces

import (
	"context"

	"github.com/ternarybob/studium/internal/models"
)

// ArchiveService pushes generated artifacts to an external content archive.
// Archive failures are logged by callers but never fail a generation run.
type ArchiveService interface {
	// Enabled reports whether the archive is configured
	Enabled() bool

	// PublishContent commits the content record JSON for its date key
	PublishContent(ctx context.Context, content *models.DailyContent) error

	// PublishDigest commits the markdown digest for a date key
	PublishDigest(ctx context.Context, dateKey string, markdown string) error

	// PublishCorpus commits the scraped source markdown for a date key
	PublishCorpus(ctx context.Context, dateKey string, markdown string) error
}
