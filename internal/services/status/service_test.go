package status

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/studium/internal/interfaces"
	"github.com/ternarybob/studium/internal/models"
	"github.com/ternarybob/studium/internal/services/events"
)

func newTestService(t *testing.T) (*Service, interfaces.EventService) {
	t.Helper()
	eventService := events.NewService(arbor.NewLogger())
	t.Cleanup(func() { eventService.Close() })
	return NewService(eventService, arbor.NewLogger()), eventService
}

func TestInitialStateIsIdle(t *testing.T) {
	svc, _ := newTestService(t)
	assert.Equal(t, StateIdle, svc.GetState())
}

func TestSetStatePublishesStatusChanged(t *testing.T) {
	svc, eventService := newTestService(t)

	received := make(chan interfaces.Event, 1)
	eventService.Subscribe(interfaces.EventStatusChanged, func(ctx context.Context, event interfaces.Event) error {
		received <- event
		return nil
	})

	svc.SetState(StateGenerating, map[string]interface{}{"date": "21-08-2026"})

	select {
	case event := <-received:
		payload, ok := event.Payload.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "generating", payload["state"])
	case <-time.After(2 * time.Second):
		t.Fatal("status_changed event not received")
	}

	assert.Equal(t, StateGenerating, svc.GetState())
}

func TestRunEventsDriveState(t *testing.T) {
	svc, eventService := newTestService(t)
	svc.SubscribeToRunEvents()

	run := &models.GenerationRun{
		ID:      "run_abc",
		Date:    "21-08-2026",
		Status:  models.RunStatusFetching,
		Attempt: 1,
	}
	err := eventService.PublishSync(context.Background(), interfaces.Event{
		Type:    interfaces.EventRunStarted,
		Payload: run,
	})
	require.NoError(t, err)

	assert.Equal(t, StateGenerating, svc.GetState())
	status := svc.GetStatus()
	metadata, ok := status["metadata"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "run_abc", metadata["active_run_id"])
	assert.Equal(t, "fetching", metadata["phase"])

	completed := &models.GenerationRun{
		ID:     "run_abc",
		Date:   "21-08-2026",
		Status: models.RunStatusCompleted,
	}
	err = eventService.PublishSync(context.Background(), interfaces.Event{
		Type:    interfaces.EventRunCompleted,
		Payload: completed,
	})
	require.NoError(t, err)

	assert.Equal(t, StateIdle, svc.GetState())
}

func TestRunEventIgnoresUnexpectedPayload(t *testing.T) {
	svc, eventService := newTestService(t)
	svc.SubscribeToRunEvents()

	err := eventService.PublishSync(context.Background(), interfaces.Event{
		Type:    interfaces.EventRunStarted,
		Payload: map[string]interface{}{"not": "a run"},
	})
	require.NoError(t, err)

	assert.Equal(t, StateIdle, svc.GetState())
}

func TestGetStatusCopiesMetadata(t *testing.T) {
	svc, _ := newTestService(t)
	svc.SetState(StateGenerating, map[string]interface{}{"date": "21-08-2026"})

	status := svc.GetStatus()
	metadata := status["metadata"].(map[string]interface{})
	metadata["date"] = "mutated"

	again := svc.GetStatus()
	assert.Equal(t, "21-08-2026", again["metadata"].(map[string]interface{})["date"])
}
