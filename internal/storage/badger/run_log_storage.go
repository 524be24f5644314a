package badger

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/studium/internal/interfaces"
	"github.com/ternarybob/studium/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// logSequence breaks key ties when entries land in the same nanosecond
var logSequence uint64

// RunLogStorage implements the RunLogStorage interface for Badger
type RunLogStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewRunLogStorage creates a new RunLogStorage instance
func NewRunLogStorage(db *BadgerDB, logger arbor.ILogger) interfaces.RunLogStorage {
	return &RunLogStorage{
		db:     db,
		logger: logger,
	}
}

// AppendLogs stores a batch of log entries for a run. Entries get composite
// keys of run ID, insertion time, and a global sequence so batches written
// in rapid succession never collide.
func (s *RunLogStorage) AppendLogs(ctx context.Context, runID string, entries []models.RunLogEntry) error {
	if runID == "" {
		return fmt.Errorf("run ID is required")
	}
	for i := range entries {
		entries[i].AssociatedRunID = runID
		seq := atomic.AddUint64(&logSequence, 1)
		key := fmt.Sprintf("%s_%d_%d", runID, time.Now().UnixNano(), seq)
		if err := s.db.Store().Insert(key, &entries[i]); err != nil {
			return fmt.Errorf("failed to append log: %w", err)
		}
	}
	return nil
}

// GetLogs returns a run's log entries, newest first, up to limit (0 = no limit)
func (s *RunLogStorage) GetLogs(ctx context.Context, runID string, limit int) ([]models.RunLogEntry, error) {
	var logs []models.RunLogEntry
	query := badgerhold.Where("AssociatedRunID").Eq(runID).SortBy("FullTimestamp").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := s.db.Store().Find(&logs, query); err != nil {
		return nil, fmt.Errorf("failed to get logs: %w", err)
	}
	return logs, nil
}

// CountLogs returns the number of log entries stored for a run
func (s *RunLogStorage) CountLogs(ctx context.Context, runID string) (int, error) {
	count, err := s.db.Store().Count(&models.RunLogEntry{}, badgerhold.Where("AssociatedRunID").Eq(runID))
	if err != nil {
		return 0, fmt.Errorf("failed to count logs: %w", err)
	}
	return int(count), nil
}

// DeleteLogs removes all log entries for a run
func (s *RunLogStorage) DeleteLogs(ctx context.Context, runID string) error {
	if err := s.db.Store().DeleteMatching(&models.RunLogEntry{}, badgerhold.Where("AssociatedRunID").Eq(runID)); err != nil {
		return fmt.Errorf("failed to delete logs: %w", err)
	}
	return nil
}
