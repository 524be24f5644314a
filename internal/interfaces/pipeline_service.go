package interfaces

import (
	"context"

	"github.com/ternarybob/studium/internal/models"
)

// PipelineService runs the scrape -> extract -> generate -> review -> persist
// flow for a date key
type PipelineService interface {
	// StartRun begins an asynchronous generation run for the date key and
	// returns the accepted run record immediately. At most one run per date
	// key may be active; a second request returns ErrRunInProgress (defined
	// by the implementing package).
	StartRun(ctx context.Context, dateKey string) (*models.GenerationRun, error)

	// Generate runs the pipeline synchronously and returns the run summary.
	// Used by the scheduler and tests; the HTTP surface goes through StartRun.
	Generate(ctx context.Context, dateKey string) (*models.RunSummary, error)

	// ActiveRun reports the run ID currently processing the date key, if any
	ActiveRun(dateKey string) (string, bool)
}
