package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/studium/internal/common"
	"github.com/ternarybob/studium/internal/interfaces"
	"github.com/ternarybob/studium/internal/models"
	"github.com/ternarybob/studium/internal/storage/badger"
)

// newTestStorage opens a throwaway badger-backed storage manager
func newTestStorage(t *testing.T) interfaces.StorageManager {
	t.Helper()
	manager, err := badger.NewManager(arbor.NewLogger(), &common.BadgerConfig{Path: t.TempDir()})
	if err != nil {
		t.Fatalf("Failed to open test storage: %v", err)
	}
	t.Cleanup(func() { manager.Close() })
	return manager
}

func seedContent(t *testing.T, storage interfaces.StorageManager, date string) {
	t.Helper()
	content := &models.DailyContent{
		Date: date,
		Sections: []models.Section{
			{Title: "Polity", Content: []string{"Parliament passed the amendment."}, Importance: "high"},
		},
		Cards: []models.Card{
			{Title: "Amendment Basics", GS: "GS2", Summary: "Key provisions of the amendment."},
		},
	}
	if err := storage.ContentStorage().SaveContent(context.Background(), content); err != nil {
		t.Fatalf("Failed to seed content for %s: %v", date, err)
	}
}

func decodeJSONBody(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(out); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}
}

func TestGetContentHandler(t *testing.T) {
	storage := newTestStorage(t)
	seedContent(t, storage, "21-08-2026")
	handler := NewContentHandler(storage, arbor.NewLogger())

	req := httptest.NewRequest("GET", "/api/content/21-08-2026", nil)
	w := httptest.NewRecorder()
	handler.GetContentHandler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var content models.DailyContent
	decodeJSONBody(t, w, &content)
	if content.Date != "21-08-2026" {
		t.Errorf("Expected date 21-08-2026, got %s", content.Date)
	}
	if len(content.Sections) != 1 || content.Sections[0].Title != "Polity" {
		t.Errorf("Expected seeded Polity section, got %+v", content.Sections)
	}
}

func TestGetContentHandlerNotFound(t *testing.T) {
	storage := newTestStorage(t)
	handler := NewContentHandler(storage, arbor.NewLogger())

	req := httptest.NewRequest("GET", "/api/content/22-08-2026", nil)
	w := httptest.NewRecorder()
	handler.GetContentHandler(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", w.Code)
	}

	var body map[string]string
	decodeJSONBody(t, w, &body)
	if body["error"] != "No content found for date: 22-08-2026" {
		t.Errorf("Unexpected error message: %s", body["error"])
	}
}

func TestGetContentHandlerInvalidDate(t *testing.T) {
	storage := newTestStorage(t)
	handler := NewContentHandler(storage, arbor.NewLogger())

	for _, date := range []string{"2026-08-21", "2-8-2026", "not-a-date"} {
		req := httptest.NewRequest("GET", "/api/content/"+date, nil)
		w := httptest.NewRecorder()
		handler.GetContentHandler(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400 for %q, got %d", date, w.Code)
		}
	}
}

func TestGetContentHandlerMethodNotAllowed(t *testing.T) {
	storage := newTestStorage(t)
	handler := NewContentHandler(storage, arbor.NewLogger())

	req := httptest.NewRequest("POST", "/api/content/21-08-2026", nil)
	w := httptest.NewRecorder()
	handler.GetContentHandler(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("Expected status 405, got %d", w.Code)
	}
}

func TestGetContentRangeHandler(t *testing.T) {
	storage := newTestStorage(t)
	seedContent(t, storage, "28-07-2026")
	seedContent(t, storage, "02-08-2026")
	seedContent(t, storage, "21-08-2026")
	handler := NewContentHandler(storage, arbor.NewLogger())

	req := httptest.NewRequest("GET", "/api/content?from=01-08-2026&to=21-08-2026", nil)
	w := httptest.NewRecorder()
	handler.GetContentRangeHandler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var body struct {
		From    string                `json:"from"`
		To      string                `json:"to"`
		Count   int                   `json:"count"`
		Content []models.DailyContent `json:"content"`
	}
	decodeJSONBody(t, w, &body)
	if body.Count != 2 {
		t.Fatalf("Expected 2 records in range, got %d", body.Count)
	}
	if body.Content[0].Date != "21-08-2026" || body.Content[1].Date != "02-08-2026" {
		t.Errorf("Expected records newest first, got %s then %s", body.Content[0].Date, body.Content[1].Date)
	}
}

func TestGetContentRangeHandlerMissingParams(t *testing.T) {
	storage := newTestStorage(t)
	handler := NewContentHandler(storage, arbor.NewLogger())

	req := httptest.NewRequest("GET", "/api/content?from=01-08-2026", nil)
	w := httptest.NewRecorder()
	handler.GetContentRangeHandler(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", w.Code)
	}
}

func TestGetContentRangeHandlerInvertedRange(t *testing.T) {
	storage := newTestStorage(t)
	handler := NewContentHandler(storage, arbor.NewLogger())

	req := httptest.NewRequest("GET", "/api/content?from=21-08-2026&to=01-08-2026", nil)
	w := httptest.NewRecorder()
	handler.GetContentRangeHandler(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", w.Code)
	}
}

func TestDeleteContentHandler(t *testing.T) {
	storage := newTestStorage(t)
	seedContent(t, storage, "21-08-2026")
	handler := NewContentHandler(storage, arbor.NewLogger())

	req := httptest.NewRequest("DELETE", "/api/content/21-08-2026", nil)
	w := httptest.NewRecorder()
	handler.DeleteContentHandler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var body map[string]string
	decodeJSONBody(t, w, &body)
	if body["status"] != "success" {
		t.Errorf("Expected success status, got %s", body["status"])
	}

	// Second delete finds nothing
	w = httptest.NewRecorder()
	handler.DeleteContentHandler(w, httptest.NewRequest("DELETE", "/api/content/21-08-2026", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404 on second delete, got %d", w.Code)
	}
}

func TestGetDatesHandler(t *testing.T) {
	storage := newTestStorage(t)
	seedContent(t, storage, "02-08-2026")
	seedContent(t, storage, "21-08-2026")
	handler := NewContentHandler(storage, arbor.NewLogger())

	req := httptest.NewRequest("GET", "/api/dates", nil)
	w := httptest.NewRecorder()
	handler.GetDatesHandler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var body struct {
		Dates []string `json:"dates"`
		Count int      `json:"count"`
	}
	decodeJSONBody(t, w, &body)
	if body.Count != 2 || len(body.Dates) != 2 {
		t.Fatalf("Expected 2 dates, got count=%d len=%d", body.Count, len(body.Dates))
	}
	if body.Dates[0] != "21-08-2026" || body.Dates[1] != "02-08-2026" {
		t.Errorf("Expected dates newest first, got %v", body.Dates)
	}
}
