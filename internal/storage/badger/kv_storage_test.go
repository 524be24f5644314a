package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/studium/internal/interfaces"
)

func TestKVSetAndGet(t *testing.T) {
	storage := NewKVStorage(newTestDB(t), arbor.NewLogger())
	ctx := context.Background()

	require.NoError(t, storage.Set(ctx, "GEMINI_API_KEY", "secret-123", "model key"))

	// Keys are case-insensitive
	value, err := storage.Get(ctx, "gemini_api_key")
	require.NoError(t, err)
	assert.Equal(t, "secret-123", value)

	value, err = storage.Get(ctx, "  GEMINI_API_KEY  ")
	require.NoError(t, err)
	assert.Equal(t, "secret-123", value)

	pair, err := storage.GetPair(ctx, "gemini_api_key")
	require.NoError(t, err)
	assert.Equal(t, "gemini_api_key", pair.Key)
	assert.Equal(t, "model key", pair.Description)
	assert.False(t, pair.CreatedAt.IsZero())
}

func TestKVGetMissing(t *testing.T) {
	storage := NewKVStorage(newTestDB(t), arbor.NewLogger())

	_, err := storage.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, interfaces.ErrKeyNotFound)
}

func TestKVUpsertReportsNewVsExisting(t *testing.T) {
	storage := NewKVStorage(newTestDB(t), arbor.NewLogger())
	ctx := context.Background()

	isNew, err := storage.Upsert(ctx, "scrape_base_url", "https://example.com", "")
	require.NoError(t, err)
	assert.True(t, isNew)

	pair, err := storage.GetPair(ctx, "scrape_base_url")
	require.NoError(t, err)
	createdAt := pair.CreatedAt

	isNew, err = storage.Upsert(ctx, "SCRAPE_BASE_URL", "https://example.org", "updated")
	require.NoError(t, err)
	assert.False(t, isNew)

	pair, err = storage.GetPair(ctx, "scrape_base_url")
	require.NoError(t, err)
	assert.Equal(t, "https://example.org", pair.Value)
	assert.Equal(t, createdAt.Unix(), pair.CreatedAt.Unix())
}

func TestKVDelete(t *testing.T) {
	storage := NewKVStorage(newTestDB(t), arbor.NewLogger())
	ctx := context.Background()

	require.NoError(t, storage.Set(ctx, "temp", "value", ""))
	require.NoError(t, storage.Delete(ctx, "TEMP"))

	_, err := storage.Get(ctx, "temp")
	assert.ErrorIs(t, err, interfaces.ErrKeyNotFound)

	err = storage.Delete(ctx, "temp")
	assert.ErrorIs(t, err, interfaces.ErrKeyNotFound)
}

func TestKVGetAll(t *testing.T) {
	storage := NewKVStorage(newTestDB(t), arbor.NewLogger())
	ctx := context.Background()

	require.NoError(t, storage.Set(ctx, "key_one", "1", ""))
	require.NoError(t, storage.Set(ctx, "key_two", "2", ""))

	all, err := storage.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"key_one": "1", "key_two": "2"}, all)

	pairs, err := storage.List(ctx)
	require.NoError(t, err)
	assert.Len(t, pairs, 2)
}
