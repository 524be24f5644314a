package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRootHandlerBanner(t *testing.T) {
	handler := NewAPIHandler()

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	handler.RootHandler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var body map[string]string
	decodeJSONBody(t, w, &body)
	if body["name"] != "studium" {
		t.Errorf("Expected service name studium, got %s", body["name"])
	}
	if body["status"] != "running" {
		t.Errorf("Expected running status, got %s", body["status"])
	}
}

func TestRootHandlerUnknownPath(t *testing.T) {
	handler := NewAPIHandler()

	req := httptest.NewRequest("GET", "/nope", nil)
	w := httptest.NewRecorder()
	handler.RootHandler(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", w.Code)
	}
}

func TestHealthHandler(t *testing.T) {
	handler := NewAPIHandler()

	req := httptest.NewRequest("GET", "/api/health", nil)
	w := httptest.NewRecorder()
	handler.HealthHandler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var body map[string]string
	decodeJSONBody(t, w, &body)
	if body["status"] != "ok" {
		t.Errorf("Expected ok status, got %s", body["status"])
	}
}

func TestVersionHandler(t *testing.T) {
	handler := NewAPIHandler()

	req := httptest.NewRequest("GET", "/api/version", nil)
	w := httptest.NewRecorder()
	handler.VersionHandler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var body map[string]string
	decodeJSONBody(t, w, &body)
	if body["version"] == "" {
		t.Error("Expected a version string")
	}
}

func TestNotFoundHandler(t *testing.T) {
	handler := NewAPIHandler()

	req := httptest.NewRequest("GET", "/api/unknown", nil)
	w := httptest.NewRecorder()
	handler.NotFoundHandler(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", w.Code)
	}

	var body map[string]interface{}
	decodeJSONBody(t, w, &body)
	if body["path"] != "/api/unknown" {
		t.Errorf("Expected path in body, got %v", body["path"])
	}
}
