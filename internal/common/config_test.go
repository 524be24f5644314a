package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, "development", config.Environment)
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, "./data", config.Storage.Badger.Path)
	assert.Equal(t, 3, config.Pipeline.MaxAttempts)
	assert.Equal(t, "5s", config.Pipeline.RetryDelay)
	assert.Equal(t, 4, config.Pipeline.MinSections)
	assert.Equal(t, 8, config.Pipeline.MaxSections)
	assert.False(t, config.Scheduler.Enabled)
	assert.Equal(t, "30 18 * * *", config.Scheduler.Schedule)
	assert.Equal(t, LLMProviderGemini, config.LLM.DefaultProvider)
	assert.False(t, config.Archive.Enabled)
	assert.True(t, config.Digest.Enabled)
}

func TestLoadFromFile_EmptyPathGivesDefaults(t *testing.T) {
	config, err := LoadFromFile(nil, "")
	require.NoError(t, err)

	assert.Equal(t, 8080, config.Server.Port)
}

func TestLoadFromFile_MissingFileFails(t *testing.T) {
	_, err := LoadFromFile(nil, "/does/not/exist/studium.toml")
	require.Error(t, err)
}

func TestLoadFromFile_InvalidTOMLFails(t *testing.T) {
	path := writeConfigFile(t, "bad.toml", "[server\nport = not a number")

	_, err := LoadFromFile(nil, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadFromFiles_LaterFilesOverride(t *testing.T) {
	first := writeConfigFile(t, "first.toml", `
[server]
port = 9000
host = "0.0.0.0"

[scheduler]
enabled = true
`)
	second := writeConfigFile(t, "second.toml", `
[server]
port = 9001
`)

	config, err := LoadFromFiles(nil, first, second)
	require.NoError(t, err)

	assert.Equal(t, 9001, config.Server.Port, "second file wins")
	assert.Equal(t, "0.0.0.0", config.Server.Host, "first file value survives where second is silent")
	assert.True(t, config.Scheduler.Enabled)
}

func TestLoadFromFile_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, "studium.toml", `
[server]
port = 9000
`)
	t.Setenv("STUDIUM_SERVER_PORT", "9100")
	t.Setenv("STUDIUM_ENV", "production")
	t.Setenv("STUDIUM_BADGER_PATH", "/tmp/studium-test-db")
	t.Setenv("STUDIUM_GEMINI_API_KEY", "sk-env")

	config, err := LoadFromFile(nil, path)
	require.NoError(t, err)

	assert.Equal(t, 9100, config.Server.Port)
	assert.Equal(t, "production", config.Environment)
	assert.Equal(t, "/tmp/studium-test-db", config.Storage.Badger.Path)
	assert.Equal(t, "sk-env", config.Gemini.APIKey)
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()

	ApplyFlagOverrides(config, 7070, "127.0.0.1")
	assert.Equal(t, 7070, config.Server.Port)
	assert.Equal(t, "127.0.0.1", config.Server.Host)

	// Zero values leave config untouched
	ApplyFlagOverrides(config, 0, "")
	assert.Equal(t, 7070, config.Server.Port)
	assert.Equal(t, "127.0.0.1", config.Server.Host)
}

func TestIsProduction(t *testing.T) {
	config := NewDefaultConfig()
	assert.False(t, config.IsProduction())

	config.Environment = "production"
	assert.True(t, config.IsProduction())

	config.Environment = " PROD "
	assert.True(t, config.IsProduction())

	config.Environment = "staging"
	assert.False(t, config.IsProduction())
}

func TestValidateSchedule(t *testing.T) {
	assert.NoError(t, ValidateSchedule("30 18 * * *"))
	assert.NoError(t, ValidateSchedule("*/15 * * * *"))

	assert.Error(t, ValidateSchedule("not a schedule"))
	assert.Error(t, ValidateSchedule("* * * * *"), "every minute is below the minimum interval")
	assert.Error(t, ValidateSchedule("*/2 * * * *"), "two minutes is below the minimum interval")
}

func TestDeepCloneConfig(t *testing.T) {
	original := NewDefaultConfig()
	original.Newsletter.Senders = []string{"a@example.com"}

	clone := DeepCloneConfig(original)
	clone.Server.Port = 9999
	clone.Newsletter.Senders[0] = "b@example.com"
	clone.WebSocket.ExcludePatterns[0] = "changed"

	assert.Equal(t, 8080, original.Server.Port)
	assert.Equal(t, "a@example.com", original.Newsletter.Senders[0])
	assert.NotEqual(t, "changed", original.WebSocket.ExcludePatterns[0])
}
