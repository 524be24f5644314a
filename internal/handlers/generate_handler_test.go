package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/studium/internal/models"
	"github.com/ternarybob/studium/internal/services/pipeline"
)

// mockPipelineService implements interfaces.PipelineService for testing
type mockPipelineService struct {
	startRunFunc func(ctx context.Context, dateKey string) (*models.GenerationRun, error)
	generateFunc func(ctx context.Context, dateKey string) (*models.RunSummary, error)
	activeRun    string
}

func (m *mockPipelineService) StartRun(ctx context.Context, dateKey string) (*models.GenerationRun, error) {
	if m.startRunFunc != nil {
		return m.startRunFunc(ctx, dateKey)
	}
	return &models.GenerationRun{ID: "run_test", Date: dateKey, Status: models.RunStatusPending}, nil
}

func (m *mockPipelineService) Generate(ctx context.Context, dateKey string) (*models.RunSummary, error) {
	if m.generateFunc != nil {
		return m.generateFunc(ctx, dateKey)
	}
	return nil, nil
}

func (m *mockPipelineService) ActiveRun(dateKey string) (string, bool) {
	return m.activeRun, m.activeRun != ""
}

func TestGenerateContentHandler(t *testing.T) {
	service := &mockPipelineService{
		startRunFunc: func(ctx context.Context, dateKey string) (*models.GenerationRun, error) {
			return &models.GenerationRun{ID: "run_123", Date: dateKey, Status: models.RunStatusPending}, nil
		},
	}
	handler := NewGenerateHandler(service, arbor.NewLogger())

	req := httptest.NewRequest("POST", "/api/generate/21-08-2026", nil)
	w := httptest.NewRecorder()
	handler.GenerateContentHandler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var body map[string]interface{}
	decodeJSONBody(t, w, &body)
	if body["status"] != "started" {
		t.Errorf("Expected started status, got %v", body["status"])
	}
	if body["run_id"] != "run_123" {
		t.Errorf("Expected run_id run_123, got %v", body["run_id"])
	}
	if body["date"] != "21-08-2026" {
		t.Errorf("Expected date 21-08-2026, got %v", body["date"])
	}
}

func TestGenerateContentHandlerConflict(t *testing.T) {
	service := &mockPipelineService{
		startRunFunc: func(ctx context.Context, dateKey string) (*models.GenerationRun, error) {
			return nil, fmt.Errorf("%w %s (run run_other)", pipeline.ErrRunInProgress, dateKey)
		},
	}
	handler := NewGenerateHandler(service, arbor.NewLogger())

	req := httptest.NewRequest("POST", "/api/generate/21-08-2026", nil)
	w := httptest.NewRecorder()
	handler.GenerateContentHandler(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("Expected status 409, got %d", w.Code)
	}
}

func TestGenerateContentHandlerInvalidDate(t *testing.T) {
	called := false
	service := &mockPipelineService{
		startRunFunc: func(ctx context.Context, dateKey string) (*models.GenerationRun, error) {
			called = true
			return nil, nil
		},
	}
	handler := NewGenerateHandler(service, arbor.NewLogger())

	req := httptest.NewRequest("POST", "/api/generate/2026-08-21", nil)
	w := httptest.NewRecorder()
	handler.GenerateContentHandler(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", w.Code)
	}
	if called {
		t.Error("StartRun must not be called for an invalid date key")
	}
}

func TestGenerateContentHandlerMissingDate(t *testing.T) {
	handler := NewGenerateHandler(&mockPipelineService{}, arbor.NewLogger())

	req := httptest.NewRequest("POST", "/api/generate/", nil)
	w := httptest.NewRecorder()
	handler.GenerateContentHandler(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", w.Code)
	}
}

func TestGenerateContentHandlerGeneratorUnavailable(t *testing.T) {
	service := &mockPipelineService{
		startRunFunc: func(ctx context.Context, dateKey string) (*models.GenerationRun, error) {
			return nil, pipeline.ErrGeneratorUnavailable
		},
	}
	handler := NewGenerateHandler(service, arbor.NewLogger())

	req := httptest.NewRequest("POST", "/api/generate/21-08-2026", nil)
	w := httptest.NewRecorder()
	handler.GenerateContentHandler(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected status 503, got %d", w.Code)
	}
}

func TestGenerateContentHandlerStartFailure(t *testing.T) {
	service := &mockPipelineService{
		startRunFunc: func(ctx context.Context, dateKey string) (*models.GenerationRun, error) {
			return nil, errors.New("storage unavailable")
		},
	}
	handler := NewGenerateHandler(service, arbor.NewLogger())

	req := httptest.NewRequest("POST", "/api/generate/21-08-2026", nil)
	w := httptest.NewRecorder()
	handler.GenerateContentHandler(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", w.Code)
	}
}

func TestGenerateContentHandlerMethodNotAllowed(t *testing.T) {
	handler := NewGenerateHandler(&mockPipelineService{}, arbor.NewLogger())

	req := httptest.NewRequest("GET", "/api/generate/21-08-2026", nil)
	w := httptest.NewRecorder()
	handler.GenerateContentHandler(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("Expected status 405, got %d", w.Code)
	}
}
