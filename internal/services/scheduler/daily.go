package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/studium/internal/common"
	"github.com/ternarybob/studium/internal/interfaces"
	"github.com/ternarybob/studium/internal/services/pipeline"
)

// DailyJobName is the registry name of the scheduled generation job
const DailyJobName = "daily-generation"

// NewDailyGenerationJob returns the handler for the scheduled run: generate
// today's content unless a record for today already exists or a run is
// already going.
func NewDailyGenerationJob(pipelineService interfaces.PipelineService, contentStorage interfaces.ContentStorage, logger arbor.ILogger) func() error {
	return func() error {
		ctx := context.Background()
		dateKey := common.TodayDateKey()

		_, err := contentStorage.GetContent(ctx, dateKey)
		if err == nil {
			logger.Info().Str("date", dateKey).Msg("Content already generated, skipping scheduled run")
			return nil
		}
		if !errors.Is(err, interfaces.ErrContentNotFound) {
			return fmt.Errorf("failed to check existing content for %s: %w", dateKey, err)
		}

		logger.Info().Str("date", dateKey).Msg("Starting scheduled generation")
		summary, err := pipelineService.Generate(ctx, dateKey)
		if err != nil {
			if errors.Is(err, pipeline.ErrRunInProgress) {
				logger.Info().Str("date", dateKey).Msg("Generation already in progress, skipping scheduled run")
				return nil
			}
			return fmt.Errorf("scheduled generation for %s failed: %w", dateKey, err)
		}

		logger.Info().
			Str("date", dateKey).
			Int("sections", summary.SectionsCount).
			Int("cards", summary.CardsCount).
			Int("mindmaps", summary.MindMapsCount).
			Int("prelims", summary.PrelimsCount).
			Int("mains", summary.MainsCount).
			Msg("Scheduled generation completed")
		return nil
	}
}
