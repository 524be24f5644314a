package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/studium/internal/interfaces"
)

func TestListVariablesHandlerMasksValues(t *testing.T) {
	storage := newTestStorage(t)
	kv := storage.KeyValueStorage()
	if err := kv.Set(context.Background(), "gemini_api_key", "sk-1234567890xyz9", "Gemini key"); err != nil {
		t.Fatalf("Failed to seed variable: %v", err)
	}
	handler := NewVariablesHandler(kv, arbor.NewLogger())

	req := httptest.NewRequest("GET", "/api/variables", nil)
	w := httptest.NewRecorder()
	handler.ListVariablesHandler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var body struct {
		Variables []map[string]interface{} `json:"variables"`
		Count     int                      `json:"count"`
	}
	decodeJSONBody(t, w, &body)
	if body.Count != 1 {
		t.Fatalf("Expected 1 variable, got %d", body.Count)
	}
	if body.Variables[0]["value"] != "sk-1...xyz9" {
		t.Errorf("Expected masked value, got %v", body.Variables[0]["value"])
	}
}

func TestGetVariableHandlerReturnsFullValue(t *testing.T) {
	storage := newTestStorage(t)
	kv := storage.KeyValueStorage()
	if err := kv.Set(context.Background(), "scrape_base_url", "https://www.drishtiias.com", "Scrape source"); err != nil {
		t.Fatalf("Failed to seed variable: %v", err)
	}
	handler := NewVariablesHandler(kv, arbor.NewLogger())

	req := httptest.NewRequest("GET", "/api/variables/scrape_base_url", nil)
	w := httptest.NewRecorder()
	handler.GetVariableHandler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var pair interfaces.KeyValuePair
	decodeJSONBody(t, w, &pair)
	if pair.Value != "https://www.drishtiias.com" {
		t.Errorf("Expected full value, got %s", pair.Value)
	}
}

func TestGetVariableHandlerNotFound(t *testing.T) {
	storage := newTestStorage(t)
	handler := NewVariablesHandler(storage.KeyValueStorage(), arbor.NewLogger())

	req := httptest.NewRequest("GET", "/api/variables/missing_key", nil)
	w := httptest.NewRecorder()
	handler.GetVariableHandler(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", w.Code)
	}
}

func TestSetVariableHandler(t *testing.T) {
	storage := newTestStorage(t)
	kv := storage.KeyValueStorage()
	handler := NewVariablesHandler(kv, arbor.NewLogger())

	payload := []byte(`{"value": "ghp_archivetoken", "description": "Archive push token"}`)
	req := httptest.NewRequest("PUT", "/api/variables/github_token", bytes.NewReader(payload))
	w := httptest.NewRecorder()
	handler.SetVariableHandler(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201 for new key, got %d", w.Code)
	}

	value, err := kv.Get(context.Background(), "github_token")
	if err != nil {
		t.Fatalf("Variable was not stored: %v", err)
	}
	if value != "ghp_archivetoken" {
		t.Errorf("Unexpected stored value: %s", value)
	}

	// Updating the same key responds 200
	req = httptest.NewRequest("PUT", "/api/variables/github_token", bytes.NewReader([]byte(`{"value": "ghp_rotated"}`)))
	w = httptest.NewRecorder()
	handler.SetVariableHandler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 for existing key, got %d", w.Code)
	}
}

func TestSetVariableHandlerMissingValue(t *testing.T) {
	storage := newTestStorage(t)
	handler := NewVariablesHandler(storage.KeyValueStorage(), arbor.NewLogger())

	req := httptest.NewRequest("PUT", "/api/variables/some_key", bytes.NewReader([]byte(`{"description": "no value"}`)))
	w := httptest.NewRecorder()
	handler.SetVariableHandler(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", w.Code)
	}
}

func TestDeleteVariableHandler(t *testing.T) {
	storage := newTestStorage(t)
	kv := storage.KeyValueStorage()
	if err := kv.Set(context.Background(), "stale_key", "value", ""); err != nil {
		t.Fatalf("Failed to seed variable: %v", err)
	}
	handler := NewVariablesHandler(kv, arbor.NewLogger())

	req := httptest.NewRequest("DELETE", "/api/variables/stale_key", nil)
	w := httptest.NewRecorder()
	handler.DeleteVariableHandler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	// Second delete finds nothing
	w = httptest.NewRecorder()
	handler.DeleteVariableHandler(w, httptest.NewRequest("DELETE", "/api/variables/stale_key", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404 on second delete, got %d", w.Code)
	}
}

func TestMaskValue(t *testing.T) {
	if got := maskValue("short"); got != "••••••••" {
		t.Errorf("Expected short values fully masked, got %s", got)
	}
	if got := maskValue("sk-1234567890xyz9"); got != "sk-1...xyz9" {
		t.Errorf("Expected partial mask, got %s", got)
	}
}
