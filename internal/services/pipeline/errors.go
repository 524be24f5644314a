package pipeline

import "errors"

// Sentinel errors surfaced by pipeline stages. Callers match on these
// with errors.Is; everything else is wrapped stage detail.
var (
	// ErrNoJSONBlock means the model response contained no ```json fenced block
	ErrNoJSONBlock = errors.New("no JSON block found in model response")

	// ErrMalformedJSON means the fenced block did not parse as JSON
	ErrMalformedJSON = errors.New("invalid JSON in model response")

	// ErrEmptySections means the analysis call produced zero usable sections.
	// Retryable at the run level.
	ErrEmptySections = errors.New("no sections extracted from article")

	// ErrRunInProgress means a generation run is already active for the date key
	ErrRunInProgress = errors.New("generation already in progress for date")

	// ErrGeneratorUnavailable means no LLM provider was configured at startup
	ErrGeneratorUnavailable = errors.New("no LLM generator configured")
)
