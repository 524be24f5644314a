package interfaces

import (
	"context"

	"github.com/ternarybob/studium/internal/models"
)

// DigestService renders a date's content record into distributable formats
type DigestService interface {
	// BuildMarkdown renders the content record as a markdown digest
	BuildMarkdown(content *models.DailyContent) string

	// RenderPDF renders the content record as a PDF digest
	RenderPDF(ctx context.Context, content *models.DailyContent) ([]byte, error)
}
