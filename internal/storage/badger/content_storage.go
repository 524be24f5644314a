package badger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/studium/internal/common"
	"github.com/ternarybob/studium/internal/interfaces"
	"github.com/ternarybob/studium/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ContentStorage implements the ContentStorage interface for Badger
type ContentStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewContentStorage creates a new ContentStorage instance
func NewContentStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ContentStorage {
	return &ContentStorage{
		db:     db,
		logger: logger,
	}
}

// SaveContent merge-upserts a daily content record keyed by date.
// Nil artifact slices are treated as absent and preserved from the stored
// record; an empty non-nil slice clears the stored class. CreatedAt is
// assigned on first write only, UpdatedAt on every write.
func (s *ContentStorage) SaveContent(ctx context.Context, content *models.DailyContent) error {
	if content.Date == "" {
		return fmt.Errorf("content date is required")
	}
	if _, err := common.ParseDateKey(content.Date); err != nil {
		return err
	}

	now := time.Now()

	var existing models.DailyContent
	err := s.db.Store().Get(content.Date, &existing)
	switch {
	case err == badgerhold.ErrNotFound:
		content.CreatedAt = now
	case err != nil:
		return fmt.Errorf("failed to read existing content: %w", err)
	default:
		content.CreatedAt = existing.CreatedAt
		if content.Sections == nil {
			content.Sections = existing.Sections
		}
		if content.Cards == nil {
			content.Cards = existing.Cards
		}
		if content.MindMaps.MindMaps == nil {
			content.MindMaps = existing.MindMaps
		}
		if content.Questions.Prelims == nil && content.Questions.Mains == nil {
			content.Questions = existing.Questions
		}
		if content.OverallReview == (models.ReviewSummary{}) {
			content.OverallReview = existing.OverallReview
		}
	}
	content.UpdatedAt = now

	if err := s.db.Store().Upsert(content.Date, content); err != nil {
		return fmt.Errorf("failed to save content: %w", err)
	}
	return nil
}

// GetContent retrieves the record for a date key
func (s *ContentStorage) GetContent(ctx context.Context, date string) (*models.DailyContent, error) {
	var content models.DailyContent
	err := s.db.Store().Get(date, &content)
	if err == badgerhold.ErrNotFound {
		return nil, interfaces.ErrContentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get content: %w", err)
	}
	return &content, nil
}

// ListDates returns all date keys with content, most recent first.
// Keys are ordered by parsed date, not lexicographically; DD-MM-YYYY
// strings mis-sort across month boundaries otherwise.
func (s *ContentStorage) ListDates(ctx context.Context) ([]string, error) {
	records, err := s.allContent()
	if err != nil {
		return nil, fmt.Errorf("failed to list content dates: %w", err)
	}

	type datedKey struct {
		key  string
		date time.Time
	}
	keys := make([]datedKey, 0, len(records))
	for _, record := range records {
		parsed, err := common.ParseDateKey(record.Date)
		if err != nil {
			s.logger.Warn().Str("date", record.Date).Msg("Skipping content record with malformed date key")
			continue
		}
		keys = append(keys, datedKey{key: record.Date, date: parsed})
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i].date.After(keys[j].date) })

	dates := make([]string, len(keys))
	for i, k := range keys {
		dates[i] = k.key
	}
	return dates, nil
}

// GetContentRange returns records whose date falls inside [from, to], most recent first
func (s *ContentStorage) GetContentRange(ctx context.Context, from, to string) ([]*models.DailyContent, error) {
	fromDate, err := common.ParseDateKey(from)
	if err != nil {
		return nil, err
	}
	toDate, err := common.ParseDateKey(to)
	if err != nil {
		return nil, err
	}
	if fromDate.After(toDate) {
		return nil, fmt.Errorf("invalid range: %s is after %s", from, to)
	}

	records, err := s.allContent()
	if err != nil {
		return nil, fmt.Errorf("failed to get content range: %w", err)
	}

	var matched []*models.DailyContent
	for i := range records {
		parsed, err := common.ParseDateKey(records[i].Date)
		if err != nil {
			continue
		}
		if parsed.Before(fromDate) || parsed.After(toDate) {
			continue
		}
		matched = append(matched, &records[i])
	}

	sort.Slice(matched, func(i, j int) bool {
		di, _ := common.ParseDateKey(matched[i].Date)
		dj, _ := common.ParseDateKey(matched[j].Date)
		return di.After(dj)
	})

	return matched, nil
}

// DeleteContent removes the record for a date key
func (s *ContentStorage) DeleteContent(ctx context.Context, date string) error {
	err := s.db.Store().Delete(date, &models.DailyContent{})
	if err == badgerhold.ErrNotFound {
		return interfaces.ErrContentNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete content: %w", err)
	}
	s.logger.Info().Str("date", date).Msg("Deleted content record")
	return nil
}

// CountContent returns the number of stored content records
func (s *ContentStorage) CountContent(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.DailyContent{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count content: %w", err)
	}
	return int(count), nil
}

func (s *ContentStorage) allContent() ([]models.DailyContent, error) {
	var records []models.DailyContent
	if err := s.db.Store().Find(&records, nil); err != nil {
		return nil, err
	}
	return records, nil
}
