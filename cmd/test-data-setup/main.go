package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"
	"github.com/ternarybob/studium/internal/common"
	"github.com/ternarybob/studium/internal/interfaces"
	"github.com/ternarybob/studium/internal/models"
	"github.com/ternarybob/studium/internal/storage"
)

// TestDataSetup seeds the database with sample content so the API, digest,
// and MCP tools can be exercised without an LLM key or a live scrape.
type TestDataSetup struct {
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

func NewTestDataSetup(storageManager interfaces.StorageManager, logger arbor.ILogger) *TestDataSetup {
	return &TestDataSetup{
		storage: storageManager,
		logger:  logger,
	}
}

// SeedDates writes sample content for the given number of days ending today
func (t *TestDataSetup) SeedDates(ctx context.Context, days int) error {
	t.logger.Info().Int("days", days).Msg("Seeding sample content")

	now := time.Now()
	for i := 0; i < days; i++ {
		date := common.FormatDateKey(now.AddDate(0, 0, -i))

		if _, err := t.storage.ContentStorage().GetContent(ctx, date); err == nil {
			t.logger.Info().Str("date", date).Msg("  - Skipped (content already exists)")
			continue
		}

		content := sampleContent(date)
		if err := t.storage.ContentStorage().SaveContent(ctx, content); err != nil {
			return fmt.Errorf("failed to save content for %s: %w", date, err)
		}

		sections, cards, mindmaps, prelims, mains := content.Counts()
		t.logger.Info().
			Str("date", date).
			Int("sections", sections).
			Int("cards", cards).
			Int("mindmaps", mindmaps).
			Int("prelims", prelims).
			Int("mains", mains).
			Msg("  ✓ Seeded")
	}

	t.logger.Info().Msg("✅ Seeding complete")
	return nil
}

// Cleanup deletes every stored content record that carries the sample marker
func (t *TestDataSetup) Cleanup(ctx context.Context) error {
	t.logger.Info().Msg("Removing sample content")

	dates, err := t.storage.ContentStorage().ListDates(ctx)
	if err != nil {
		return fmt.Errorf("failed to list dates: %w", err)
	}

	removed := 0
	for _, date := range dates {
		content, err := t.storage.ContentStorage().GetContent(ctx, date)
		if err != nil {
			t.logger.Warn().Err(err).Str("date", date).Msg("  ⚠ Failed to load content")
			continue
		}
		if !isSampleContent(content) {
			continue
		}
		if err := t.storage.ContentStorage().DeleteContent(ctx, date); err != nil {
			t.logger.Warn().Err(err).Str("date", date).Msg("  ⚠ Failed to delete content")
			continue
		}
		removed++
		t.logger.Info().Str("date", date).Msg("  ✓ Deleted")
	}

	t.logger.Info().Int("removed", removed).Msg("✅ Cleanup complete")
	return nil
}

// isSampleContent reports whether a record was written by this tool.
// Real generated content never carries the sample tag.
func isSampleContent(content *models.DailyContent) bool {
	for _, card := range content.Cards {
		for _, tag := range card.Tags {
			if tag == sampleTag {
				return true
			}
		}
	}
	return false
}

func main() {
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:             arbor_models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		TextOutput:       true,
		DisableTimestamp: false,
	})

	cleanup := false
	days := 3
	for i := 1; i < len(os.Args); i++ {
		switch os.Args[i] {
		case "--cleanup", "-c":
			cleanup = true
		case "--days", "-d":
			if i+1 < len(os.Args) {
				i++
				fmt.Sscanf(os.Args[i], "%d", &days)
			}
		}
	}
	if days < 1 {
		days = 1
	}

	configPath := os.Getenv("STUDIUM_CONFIG")
	if configPath == "" {
		if _, err := os.Stat("studium.toml"); err == nil {
			configPath = "studium.toml"
		}
	}

	config, err := common.LoadFromFile(nil, configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load config")
	}

	storageManager, err := storage.NewStorageManager(logger, config)
	if err != nil {
		logger.Fatal().Err(err).Str("path", config.Storage.Badger.Path).
			Msg("❌ Failed to open database - stop the server first, Badger allows one process at a time")
	}
	defer storageManager.Close()

	setup := NewTestDataSetup(storageManager, logger)
	ctx := context.Background()

	if cleanup {
		if err := setup.Cleanup(ctx); err != nil {
			logger.Fatal().Err(err).Msg("Cleanup failed")
		}
	} else {
		if err := setup.SeedDates(ctx, days); err != nil {
			logger.Fatal().Err(err).Msg("Seeding failed")
		}
	}
}
