package badger

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/studium/internal/interfaces"
)

// VariableFile represents the structure of a variable in a TOML file
// Format:
// [key_name]
// value = "some-value"
// description = "optional description"
type VariableFile struct {
	Value       string `toml:"value"`
	Description string `toml:"description"`
}

// loadVariablesFromFiles seeds the KV store from variables.toml in the given
// directory, then from any .toml files under a variables/ subdirectory.
func loadVariablesFromFiles(ctx context.Context, kv interfaces.KeyValueStorage, dirPath string, logger arbor.ILogger) error {
	logger.Debug().Str("dir", dirPath).Msg("Loading variables from files")

	loadedCount := 0
	skippedCount := 0
	errorCount := 0

	variablesFile := filepath.Join(dirPath, "variables.toml")
	if _, err := os.Stat(variablesFile); err == nil {
		loaded, skipped, errors := loadVariablesFromFile(ctx, kv, variablesFile, logger)
		loadedCount += loaded
		skippedCount += skipped
		errorCount += errors
	} else {
		logger.Debug().Str("file", variablesFile).Msg("variables.toml not found in directory, checking subdirectory")
	}

	variablesDir := filepath.Join(dirPath, "variables")
	if info, err := os.Stat(variablesDir); err == nil && info.IsDir() {
		loaded, skipped, errors := loadVariablesFromDirectory(ctx, kv, variablesDir, logger)
		loadedCount += loaded
		skippedCount += skipped
		errorCount += errors
	}

	logger.Debug().
		Int("loaded", loadedCount).
		Int("skipped", skippedCount).
		Int("errors", errorCount).
		Msg("Finished loading variables from files")

	return nil
}

// loadVariablesFromFile loads variables from a single TOML file
func loadVariablesFromFile(ctx context.Context, kv interfaces.KeyValueStorage, filePath string, logger arbor.ILogger) (loaded, skipped, errors int) {
	logger.Debug().Str("file", filePath).Msg("Loading variables from file")

	content, err := os.ReadFile(filePath)
	if err != nil {
		logger.Warn().Err(err).Str("file", filePath).Msg("Failed to read variable file")
		return 0, 0, 1
	}

	var variables map[string]VariableFile
	if err := toml.Unmarshal(content, &variables); err != nil {
		logger.Warn().Err(err).Str("file", filePath).Msg("Failed to parse variable file")
		return 0, 0, 1
	}

	fileName := filepath.Base(filePath)
	for key, variable := range variables {
		if variable.Value == "" {
			logger.Warn().Str("file", fileName).Str("key", key).Msg("Skipping variable with empty value")
			skipped++
			continue
		}

		description := variable.Description
		if description == "" {
			description = "Loaded from " + fileName
		}

		isNew, err := kv.Upsert(ctx, key, variable.Value, description)
		if err != nil {
			logger.Error().Err(err).Str("key", key).Msg("Failed to store variable")
			errors++
			continue
		}

		if isNew {
			logger.Debug().Str("key", key).Msg("Loaded new variable")
		} else {
			logger.Debug().Str("key", key).Msg("Updated existing variable")
		}
		loaded++
	}

	return loaded, skipped, errors
}

// loadVariablesFromDirectory loads variables from all TOML files in a directory
func loadVariablesFromDirectory(ctx context.Context, kv interfaces.KeyValueStorage, dirPath string, logger arbor.ILogger) (loaded, skipped, errors int) {
	logger.Debug().Str("dir", dirPath).Msg("Loading variables from directory")

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		logger.Warn().Err(err).Str("dir", dirPath).Msg("Failed to read variables directory")
		return 0, 0, 1
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}

		filePath := filepath.Join(dirPath, entry.Name())
		l, s, e := loadVariablesFromFile(ctx, kv, filePath, logger)
		loaded += l
		skipped += s
		errors += e
	}

	return loaded, skipped, errors
}
