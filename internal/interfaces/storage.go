package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/studium/internal/models"
)

// ErrContentNotFound is returned when no content record exists for a date key
var ErrContentNotFound = errors.New("content not found")

// ErrRunNotFound is returned when no run record exists for an ID
var ErrRunNotFound = errors.New("run not found")

// ContentStorage defines operations for persisted daily content
type ContentStorage interface {
	// SaveContent merge-upserts a content record. Artifact classes present in
	// the record replace the stored ones; absent classes are left untouched.
	// CreatedAt is preserved across saves, UpdatedAt is always refreshed.
	SaveContent(ctx context.Context, content *models.DailyContent) error

	// GetContent retrieves the record for a date key, ErrContentNotFound if missing
	GetContent(ctx context.Context, date string) (*models.DailyContent, error)

	// ListDates returns all date keys with content, most recent date first
	ListDates(ctx context.Context) ([]string, error)

	// GetContentRange returns records whose date falls inside [from, to], most recent first
	GetContentRange(ctx context.Context, from, to string) ([]*models.DailyContent, error)

	// DeleteContent removes the record for a date key, ErrContentNotFound if missing
	DeleteContent(ctx context.Context, date string) error

	// CountContent returns the number of stored content records
	CountContent(ctx context.Context) (int, error)
}

// RunStorage defines operations for generation run records
type RunStorage interface {
	// SaveRun upserts a run record
	SaveRun(ctx context.Context, run *models.GenerationRun) error

	// GetRun retrieves a run by ID, ErrRunNotFound if missing
	GetRun(ctx context.Context, id string) (*models.GenerationRun, error)

	// GetRunsByDate returns all runs for a date key, most recent first
	GetRunsByDate(ctx context.Context, date string) ([]*models.GenerationRun, error)

	// ListRecentRuns returns the latest runs across all dates, most recent first
	ListRecentRuns(ctx context.Context, limit int) ([]*models.GenerationRun, error)
}

// RunLogStorage defines operations for persisted run logs
type RunLogStorage interface {
	// AppendLogs stores a batch of log entries for a run
	AppendLogs(ctx context.Context, runID string, entries []models.RunLogEntry) error

	// GetLogs returns a run's log entries, newest first, up to limit (0 = no limit)
	GetLogs(ctx context.Context, runID string, limit int) ([]models.RunLogEntry, error)

	// CountLogs returns the number of log entries stored for a run
	CountLogs(ctx context.Context, runID string) (int, error)

	// DeleteLogs removes all log entries for a run
	DeleteLogs(ctx context.Context, runID string) error
}

// StorageManager provides access to all storage interfaces
type StorageManager interface {
	ContentStorage() ContentStorage
	RunStorage() RunStorage
	RunLogStorage() RunLogStorage
	KeyValueStorage() KeyValueStorage

	// LoadVariablesFromFiles seeds the KV store from TOML variable files in a directory
	LoadVariablesFromFiles(ctx context.Context, dirPath string) error

	// LoadEnvFile seeds the KV store from a .env file, missing file is not an error
	LoadEnvFile(ctx context.Context, filePath string) error

	// DB returns the underlying database handle for diagnostics
	DB() interface{}

	// Close closes the database connection
	Close() error
}
