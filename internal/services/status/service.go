package status

import (
	"context"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/studium/internal/interfaces"
	"github.com/ternarybob/studium/internal/models"
)

// AppState represents the application state
type AppState string

const (
	StateIdle       AppState = "idle"
	StateGenerating AppState = "generating"
	StateOffline    AppState = "offline"
)

// Service manages application status
type Service struct {
	state        AppState
	mu           sync.RWMutex
	eventService interfaces.EventService
	logger       arbor.ILogger
	metadata     map[string]interface{}
}

// NewService creates a new StatusService
func NewService(eventService interfaces.EventService, logger arbor.ILogger) *Service {
	return &Service{
		state:        StateIdle,
		eventService: eventService,
		logger:       logger,
		metadata:     make(map[string]interface{}),
	}
}

// GetState returns the current application state (thread-safe)
func (s *Service) GetState() AppState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// SetState updates the application state and broadcasts the change
func (s *Service) SetState(state AppState, metadata map[string]interface{}) {
	s.mu.Lock()
	oldState := s.state
	s.state = state
	if metadata != nil {
		s.metadata = metadata
	} else {
		s.metadata = make(map[string]interface{})
	}
	s.mu.Unlock()

	if oldState != state {
		s.logger.Info().
			Str("old_state", string(oldState)).
			Str("new_state", string(state)).
			Msg("Application state changed")
	}

	// Publish state change event
	payload := map[string]interface{}{
		"state":     string(state),
		"metadata":  metadata,
		"timestamp": time.Now(),
	}
	event := interfaces.Event{
		Type:    interfaces.EventStatusChanged,
		Payload: payload,
	}
	s.eventService.Publish(context.Background(), event)
}

// GetStatus returns the full status including state, metadata, and timestamp
func (s *Service) GetStatus() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Deep copy metadata to avoid concurrent modification
	metadataCopy := make(map[string]interface{})
	for k, v := range s.metadata {
		metadataCopy[k] = v
	}

	return map[string]interface{}{
		"state":     string(s.state),
		"metadata":  metadataCopy,
		"timestamp": time.Now(),
	}
}

// SubscribeToRunEvents subscribes to generation run events to automatically update state
func (s *Service) SubscribeToRunEvents() {
	handler := func(ctx context.Context, event interfaces.Event) error {
		run, ok := event.Payload.(*models.GenerationRun)
		if !ok {
			return nil
		}

		if run.Status.IsTerminal() {
			s.SetState(StateIdle, nil)
			return nil
		}

		metadata := map[string]interface{}{
			"active_run_id": run.ID,
			"date":          run.Date,
			"phase":         string(run.Status),
			"attempt":       run.Attempt,
		}
		s.SetState(StateGenerating, metadata)
		return nil
	}

	s.eventService.Subscribe(interfaces.EventRunStarted, handler)
	s.eventService.Subscribe(interfaces.EventRunStateChanged, handler)
	s.eventService.Subscribe(interfaces.EventRunCompleted, handler)
	s.eventService.Subscribe(interfaces.EventRunFailed, handler)

	s.logger.Info().Msg("StatusService subscribed to run events")
}
