package badger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func TestLoadVariablesFromFiles(t *testing.T) {
	kv := NewKVStorage(newTestDB(t), arbor.NewLogger())
	logger := arbor.NewLogger()
	ctx := context.Background()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "variables.toml"), []byte(`
[scrape_base_url]
value = "https://example.com/daily"
description = "Source listing page"

[empty_key]
value = ""
`), 0644))

	subDir := filepath.Join(dir, "variables")
	require.NoError(t, os.MkdirAll(subDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(subDir, "extra.toml"), []byte(`
[archive_branch]
value = "main"
`), 0644))

	require.NoError(t, loadVariablesFromFiles(ctx, kv, dir, logger))

	value, err := kv.Get(ctx, "scrape_base_url")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/daily", value)

	pair, err := kv.GetPair(ctx, "archive_branch")
	require.NoError(t, err)
	assert.Equal(t, "main", pair.Value)
	assert.Equal(t, "Loaded from extra.toml", pair.Description)

	// Variables with empty values are skipped, not stored
	_, err = kv.Get(ctx, "empty_key")
	assert.Error(t, err)
}

func TestLoadVariablesMissingDirectoryIsClean(t *testing.T) {
	kv := NewKVStorage(newTestDB(t), arbor.NewLogger())

	err := loadVariablesFromFiles(context.Background(), kv, filepath.Join(t.TempDir(), "nope"), arbor.NewLogger())
	assert.NoError(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	kv := NewKVStorage(newTestDB(t), arbor.NewLogger())
	logger := arbor.NewLogger()
	ctx := context.Background()

	envPath := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envPath, []byte(`
# model credentials
GEMINI_API_KEY="gm-secret"
ANTHROPIC_API_KEY='an-secret'
GITHUB_TOKEN=ghp_plain
BROKEN LINE
EMPTY_VALUE=
`), 0644))

	require.NoError(t, loadEnvFile(ctx, kv, envPath, logger))

	value, err := kv.Get(ctx, "gemini_api_key")
	require.NoError(t, err)
	assert.Equal(t, "gm-secret", value)

	value, err = kv.Get(ctx, "anthropic_api_key")
	require.NoError(t, err)
	assert.Equal(t, "an-secret", value)

	value, err = kv.Get(ctx, "github_token")
	require.NoError(t, err)
	assert.Equal(t, "ghp_plain", value)

	_, err = kv.Get(ctx, "empty_value")
	assert.Error(t, err)
}

func TestLoadEnvFileMissingIsClean(t *testing.T) {
	kv := NewKVStorage(newTestDB(t), arbor.NewLogger())

	err := loadEnvFile(context.Background(), kv, filepath.Join(t.TempDir(), ".env"), arbor.NewLogger())
	assert.NoError(t, err)
}
