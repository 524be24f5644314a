package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/studium/internal/interfaces"
)

func TestPublishSyncDeliversToAllSubscribers(t *testing.T) {
	service := NewService(arbor.NewLogger())
	defer service.Close()

	var count int32
	handler := func(ctx context.Context, event interfaces.Event) error {
		atomic.AddInt32(&count, 1)
		return nil
	}

	require.NoError(t, service.Subscribe(interfaces.EventRunStarted, handler))
	require.NoError(t, service.Subscribe(interfaces.EventRunStarted, handler))

	err := service.PublishSync(context.Background(), interfaces.Event{
		Type:    interfaces.EventRunStarted,
		Payload: map[string]interface{}{"run_id": "run_1"},
	})

	assert.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&count))
}

func TestPublishSyncAggregatesHandlerErrors(t *testing.T) {
	service := NewService(arbor.NewLogger())
	defer service.Close()

	require.NoError(t, service.Subscribe(interfaces.EventRunFailed, func(ctx context.Context, event interfaces.Event) error {
		return errors.New("handler failed")
	}))
	require.NoError(t, service.Subscribe(interfaces.EventRunFailed, func(ctx context.Context, event interfaces.Event) error {
		return nil
	}))

	err := service.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventRunFailed})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "1 errors")
}

func TestPublishAsyncDelivery(t *testing.T) {
	service := NewService(arbor.NewLogger())
	defer service.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	require.NoError(t, service.Subscribe(interfaces.EventContentUpdated, func(ctx context.Context, event interfaces.Event) error {
		defer wg.Done()
		return nil
	}))

	require.NoError(t, service.Publish(context.Background(), interfaces.Event{Type: interfaces.EventContentUpdated}))

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("async handler was not invoked")
	}
}

func TestUnsubscribeRemovesHandler(t *testing.T) {
	service := NewService(arbor.NewLogger())
	defer service.Close()

	var count int32
	handler := interfaces.EventHandler(func(ctx context.Context, event interfaces.Event) error {
		atomic.AddInt32(&count, 1)
		return nil
	})

	require.NoError(t, service.Subscribe(interfaces.EventRunCompleted, handler))
	require.NoError(t, service.Unsubscribe(interfaces.EventRunCompleted, handler))

	require.NoError(t, service.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventRunCompleted}))
	assert.Equal(t, int32(0), atomic.LoadInt32(&count))
}

func TestPublishWithoutSubscribersSucceeds(t *testing.T) {
	service := NewService(arbor.NewLogger())
	defer service.Close()

	assert.NoError(t, service.Publish(context.Background(), interfaces.Event{Type: interfaces.EventLogEntry}))
	assert.NoError(t, service.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventLogEntry}))
}

func TestRunLogAggregatorImmediateTriggerFiresOnce(t *testing.T) {
	var triggers []LogRefreshTrigger
	var mu sync.Mutex

	aggregator := NewRunLogAggregator(time.Minute, func(ctx context.Context, trigger LogRefreshTrigger) {
		mu.Lock()
		triggers = append(triggers, trigger)
		mu.Unlock()
	}, arbor.NewLogger())

	ctx := context.Background()
	aggregator.RecordRunLog(ctx, "run_1")
	aggregator.TriggerRunImmediately(ctx, "run_1")
	aggregator.TriggerRunImmediately(ctx, "run_1")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, triggers, 1)
	assert.Equal(t, "run", triggers[0].Scope)
	assert.Equal(t, []string{"run_1"}, triggers[0].RunIDs)
	assert.True(t, triggers[0].Finished)
}

func TestRunLogAggregatorFlushPendingHonorsThreshold(t *testing.T) {
	var triggers []LogRefreshTrigger
	var mu sync.Mutex

	aggregator := NewRunLogAggregator(20*time.Millisecond, func(ctx context.Context, trigger LogRefreshTrigger) {
		mu.Lock()
		triggers = append(triggers, trigger)
		mu.Unlock()
	}, arbor.NewLogger())

	ctx := context.Background()
	aggregator.RecordRunLog(ctx, "run_1")

	// Inside the threshold nothing fires
	aggregator.flushPending(ctx)
	mu.Lock()
	assert.Empty(t, triggers)
	mu.Unlock()

	time.Sleep(30 * time.Millisecond)
	aggregator.flushPending(ctx)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, triggers, 1)
	assert.Equal(t, []string{"run_1"}, triggers[0].RunIDs)
	assert.False(t, triggers[0].Finished)
}
