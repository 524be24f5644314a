package logs

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/phuslu/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	arbormodels "github.com/ternarybob/arbor/models"

	"github.com/ternarybob/studium/internal/interfaces"
	"github.com/ternarybob/studium/internal/models"
)

type fakeRunLogStorage struct {
	mu      sync.Mutex
	appends map[string][]models.RunLogEntry
	failFor string
}

func newFakeRunLogStorage() *fakeRunLogStorage {
	return &fakeRunLogStorage{appends: make(map[string][]models.RunLogEntry)}
}

func (f *fakeRunLogStorage) AppendLogs(ctx context.Context, runID string, entries []models.RunLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if runID == f.failFor {
		return fmt.Errorf("store unavailable")
	}
	f.appends[runID] = append(f.appends[runID], entries...)
	return nil
}

func (f *fakeRunLogStorage) GetLogs(ctx context.Context, runID string, limit int) ([]models.RunLogEntry, error) {
	return f.entriesFor(runID), nil
}

func (f *fakeRunLogStorage) CountLogs(ctx context.Context, runID string) (int, error) {
	return len(f.entriesFor(runID)), nil
}

func (f *fakeRunLogStorage) DeleteLogs(ctx context.Context, runID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.appends, runID)
	return nil
}

func (f *fakeRunLogStorage) entriesFor(runID string) []models.RunLogEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.RunLogEntry(nil), f.appends[runID]...)
}

func (f *fakeRunLogStorage) storedRuns() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.appends)
}

type fakeEventService struct {
	mu     sync.Mutex
	events []interfaces.Event
}

func (f *fakeEventService) Subscribe(eventType interfaces.EventType, handler interfaces.EventHandler) error {
	return nil
}

func (f *fakeEventService) Unsubscribe(eventType interfaces.EventType, handler interfaces.EventHandler) error {
	return nil
}

func (f *fakeEventService) Publish(ctx context.Context, event interfaces.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeEventService) PublishSync(ctx context.Context, event interfaces.Event) error {
	return f.Publish(ctx, event)
}

func (f *fakeEventService) Close() error { return nil }

func (f *fakeEventService) published() []interfaces.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]interfaces.Event(nil), f.events...)
}

func logEvent(runID, message string, level log.Level) arbormodels.LogEvent {
	return arbormodels.LogEvent{
		Timestamp:     time.Date(2026, 8, 21, 18, 45, 12, 0, time.UTC),
		Level:         level,
		Message:       message,
		CorrelationID: runID,
	}
}

func TestConsumerGroupsBatchByRun(t *testing.T) {
	storage := newFakeRunLogStorage()
	events := &fakeEventService{}
	consumer := NewConsumer(storage, events, arbor.NewLogger(), "info")
	require.NoError(t, consumer.Start())
	defer consumer.Stop()

	consumer.GetChannel() <- []arbormodels.LogEvent{
		logEvent("run-1", "Scrape completed", log.InfoLevel),
		logEvent("run-2", "Section extraction started", log.InfoLevel),
		logEvent("run-1", "Review pass started", log.InfoLevel),
		logEvent("", "Service starting", log.InfoLevel),
	}

	require.Eventually(t, func() bool {
		return len(storage.entriesFor("run-1")) == 2 && len(storage.entriesFor("run-2")) == 1
	}, 2*time.Second, 10*time.Millisecond)

	entries := storage.entriesFor("run-1")
	assert.Equal(t, "Scrape completed", entries[0].Message)
	assert.Equal(t, "run-1", entries[0].AssociatedRunID)
	assert.Equal(t, "INF", entries[0].Level)
	assert.Equal(t, "18:45:12", entries[0].Timestamp)
	assert.Equal(t, "Review pass started", entries[1].Message)

	// The uncorrelated service line must not land in run storage
	assert.Equal(t, 2, storage.storedRuns())
}

func TestConsumerSkipsRequestAndSocketChatter(t *testing.T) {
	storage := newFakeRunLogStorage()
	events := &fakeEventService{}
	consumer := NewConsumer(storage, events, arbor.NewLogger(), "debug")
	require.NoError(t, consumer.Start())
	defer consumer.Stop()

	consumer.GetChannel() <- []arbormodels.LogEvent{
		logEvent("run-1", "HTTP request", log.InfoLevel),
		logEvent("run-1", "HTTP request - client error", log.WarnLevel),
		logEvent("run-1", "WebSocket client connected", log.InfoLevel),
		logEvent("run-1", "Cards generated", log.InfoLevel),
	}

	require.Eventually(t, func() bool {
		return len(storage.entriesFor("run-1")) == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, "Cards generated", storage.entriesFor("run-1")[0].Message)
	require.Len(t, events.published(), 1)
}

func TestConsumerPublishesAboveThreshold(t *testing.T) {
	storage := newFakeRunLogStorage()
	events := &fakeEventService{}
	consumer := NewConsumer(storage, events, arbor.NewLogger(), "warn")
	require.NoError(t, consumer.Start())
	defer consumer.Stop()

	consumer.GetChannel() <- []arbormodels.LogEvent{
		logEvent("run-1", "Persisting content", log.InfoLevel),
		logEvent("run-1", "Reviewer fallback engaged", log.WarnLevel),
	}

	require.Eventually(t, func() bool {
		return len(storage.entriesFor("run-1")) == 2
	}, 2*time.Second, 10*time.Millisecond)

	published := events.published()
	require.Len(t, published, 1)
	assert.Equal(t, interfaces.EventLogEntry, published[0].Type)

	payload, ok := published[0].Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "run-1", payload["run_id"])
	assert.Equal(t, "WRN", payload["level"])
	assert.Equal(t, "Reviewer fallback engaged", payload["message"])
	assert.Equal(t, "18:45:12", payload["timestamp"])
}

func TestConsumerIsolatesStorageFailures(t *testing.T) {
	storage := newFakeRunLogStorage()
	storage.failFor = "run-1"
	consumer := NewConsumer(storage, &fakeEventService{}, arbor.NewLogger(), "info")
	require.NoError(t, consumer.Start())
	defer consumer.Stop()

	consumer.GetChannel() <- []arbormodels.LogEvent{
		logEvent("run-1", "Scrape completed", log.InfoLevel),
		logEvent("run-2", "Scrape completed", log.InfoLevel),
	}

	require.Eventually(t, func() bool {
		return len(storage.entriesFor("run-2")) == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Empty(t, storage.entriesFor("run-1"))
}

func TestConsumerStopAfterProcessing(t *testing.T) {
	storage := newFakeRunLogStorage()
	consumer := NewConsumer(storage, &fakeEventService{}, arbor.NewLogger(), "info")
	require.NoError(t, consumer.Start())

	consumer.GetChannel() <- []arbormodels.LogEvent{
		logEvent("run-1", "Persist completed", log.InfoLevel),
	}

	require.Eventually(t, func() bool {
		return len(storage.entriesFor("run-1")) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, consumer.Stop())
}

func TestTransformEventFlattensFields(t *testing.T) {
	event := arbormodels.LogEvent{
		Timestamp:     time.Date(2026, 8, 21, 9, 5, 3, 0, time.UTC),
		Level:         log.WarnLevel,
		Message:       "Mind map depth reduced",
		CorrelationID: "run-9",
		Fields: map[string]interface{}{
			"section": "Polity",
			"depth":   4,
		},
	}

	entry := transformEvent(event)

	assert.Equal(t, "09:05:03", entry.Timestamp)
	assert.Equal(t, "2026-08-21T09:05:03Z", entry.FullTimestamp)
	assert.Equal(t, "WRN", entry.Level)
	assert.Equal(t, "Mind map depth reduced depth=4 section=Polity", entry.Message)
	assert.Equal(t, "run-9", entry.AssociatedRunID)
}

func TestConvertTo3Letter(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"info", "INF"},
		{"warn", "WRN"},
		{"warning", "WRN"},
		{"error", "ERR"},
		{"debug", "DBG"},
		{"trace", "INF"},
		{"err", "ERR"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, convertTo3Letter(tt.in), "level %q", tt.in)
	}
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, arbor.DebugLevel, parseLogLevel("debug"))
	assert.Equal(t, arbor.InfoLevel, parseLogLevel("info"))
	assert.Equal(t, arbor.WarnLevel, parseLogLevel("WARN"))
	assert.Equal(t, arbor.WarnLevel, parseLogLevel("warning"))
	assert.Equal(t, arbor.ErrorLevel, parseLogLevel("error"))
	assert.Equal(t, arbor.InfoLevel, parseLogLevel(""))
	assert.Equal(t, arbor.InfoLevel, parseLogLevel("verbose"))
}
