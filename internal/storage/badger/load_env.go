package badger

import (
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/studium/internal/interfaces"
)

// loadEnvFile seeds the KV store from a .env file. API keys land here so
// ResolveAPIKey can prefer stored values over config fallbacks.
// Format supported:
//   - KEY=value
//   - KEY="value" or KEY='value' (quotes stripped)
//   - # comments and empty lines are ignored
func loadEnvFile(ctx context.Context, kv interfaces.KeyValueStorage, filePath string, logger arbor.ILogger) error {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		logger.Debug().Str("file", filePath).Msg(".env file does not exist, skipping")
		return nil
	}

	file, err := os.Open(filePath)
	if err != nil {
		logger.Warn().Err(err).Str("file", filePath).Msg("Failed to open .env file")
		return nil
	}
	defer file.Close()

	loadedCount := 0
	skippedCount := 0
	errorCount := 0

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			logger.Warn().
				Str("file", filePath).
				Int("line", lineNum).
				Msg("Invalid line format, expected KEY=value")
			skippedCount++
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" {
			skippedCount++
			continue
		}

		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		if value == "" {
			logger.Warn().
				Str("file", filePath).
				Str("key", key).
				Msg("Skipping variable with empty value")
			skippedCount++
			continue
		}

		isNew, err := kv.Upsert(ctx, key, value, "Loaded from .env file")
		if err != nil {
			logger.Error().Err(err).Str("key", key).Msg("Failed to store variable from .env")
			errorCount++
			continue
		}

		if isNew {
			logger.Debug().Str("key", key).Msg("Loaded new variable from .env")
		} else {
			logger.Debug().Str("key", key).Msg("Updated existing variable from .env")
		}
		loadedCount++
	}

	if err := scanner.Err(); err != nil {
		logger.Warn().Err(err).Str("file", filePath).Msg("Error reading .env file")
	}

	logger.Debug().
		Str("file", filePath).
		Int("loaded", loadedCount).
		Int("skipped", skippedCount).
		Int("errors", errorCount).
		Msg("Finished loading variables from .env file")

	return nil
}
