package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/studium/internal/interfaces"
	"github.com/ternarybob/studium/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// RunStorage implements the RunStorage interface for Badger
type RunStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewRunStorage creates a new RunStorage instance
func NewRunStorage(db *BadgerDB, logger arbor.ILogger) interfaces.RunStorage {
	return &RunStorage{
		db:     db,
		logger: logger,
	}
}

// SaveRun upserts a run record
func (s *RunStorage) SaveRun(ctx context.Context, run *models.GenerationRun) error {
	if run.ID == "" {
		return fmt.Errorf("run ID is required")
	}
	if err := s.db.Store().Upsert(run.ID, run); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID
func (s *RunStorage) GetRun(ctx context.Context, id string) (*models.GenerationRun, error) {
	var run models.GenerationRun
	err := s.db.Store().Get(id, &run)
	if err == badgerhold.ErrNotFound {
		return nil, interfaces.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// GetRunsByDate returns all runs for a date key, most recent first
func (s *RunStorage) GetRunsByDate(ctx context.Context, date string) ([]*models.GenerationRun, error) {
	var runs []models.GenerationRun
	query := badgerhold.Where("Date").Eq(date).SortBy("StartedAt").Reverse()
	if err := s.db.Store().Find(&runs, query); err != nil {
		return nil, fmt.Errorf("failed to get runs for date: %w", err)
	}

	result := make([]*models.GenerationRun, len(runs))
	for i := range runs {
		result[i] = &runs[i]
	}
	return result, nil
}

// ListRecentRuns returns the latest runs across all dates, most recent first
func (s *RunStorage) ListRecentRuns(ctx context.Context, limit int) ([]*models.GenerationRun, error) {
	var runs []models.GenerationRun
	query := badgerhold.Where("ID").Ne("").SortBy("StartedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := s.db.Store().Find(&runs, query); err != nil {
		return nil, fmt.Errorf("failed to list recent runs: %w", err)
	}

	result := make([]*models.GenerationRun, len(runs))
	for i := range runs {
		result[i] = &runs[i]
	}
	return result, nil
}
