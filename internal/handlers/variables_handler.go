package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/studium/internal/interfaces"
)

// VariablesHandler handles runtime variable (key/value) HTTP requests.
// API keys and scrape URLs loaded from variable files live here.
type VariablesHandler struct {
	kv     interfaces.KeyValueStorage
	logger arbor.ILogger
}

// NewVariablesHandler creates a new VariablesHandler
func NewVariablesHandler(kv interfaces.KeyValueStorage, logger arbor.ILogger) *VariablesHandler {
	return &VariablesHandler{
		kv:     kv,
		logger: logger,
	}
}

// variableKeyFromPath extracts and decodes the key segment of /api/variables/{key}
func variableKeyFromPath(r *http.Request) (string, error) {
	encodedKey := r.URL.Path[len("/api/variables/"):]
	return url.QueryUnescape(encodedKey)
}

// ListVariablesHandler handles GET /api/variables - values are masked
func (h *VariablesHandler) ListVariablesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	pairs, err := h.kv.List(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list variables")
		WriteError(w, http.StatusInternalServerError, "Failed to list variables")
		return
	}

	// Mask values in listings - API keys and tokens are stored here
	sanitized := make([]map[string]interface{}, len(pairs))
	for i, pair := range pairs {
		sanitized[i] = map[string]interface{}{
			"key":         pair.Key,
			"value":       maskValue(pair.Value),
			"description": pair.Description,
			"created_at":  pair.CreatedAt,
			"updated_at":  pair.UpdatedAt,
		}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"variables": sanitized,
		"count":     len(sanitized),
	})
}

// GetVariableHandler handles GET /api/variables/{key} - returns the full value
func (h *VariablesHandler) GetVariableHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	key, err := variableKeyFromPath(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid key encoding")
		return
	}
	if key == "" {
		WriteError(w, http.StatusBadRequest, "Key is required")
		return
	}

	pair, err := h.kv.GetPair(r.Context(), key)
	if err != nil {
		if errors.Is(err, interfaces.ErrKeyNotFound) {
			WriteError(w, http.StatusNotFound, "Key not found")
			return
		}
		h.logger.Error().Err(err).Str("key", key).Msg("Failed to get variable")
		WriteError(w, http.StatusInternalServerError, "Failed to retrieve variable")
		return
	}

	WriteJSON(w, http.StatusOK, pair)
}

// SetVariableHandler handles PUT /api/variables/{key} - creates or updates a variable
func (h *VariablesHandler) SetVariableHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "PUT") {
		return
	}

	key, err := variableKeyFromPath(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid key encoding")
		return
	}
	if key == "" {
		WriteError(w, http.StatusBadRequest, "Key is required")
		return
	}

	var req struct {
		Value       string `json:"value"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Value == "" {
		WriteError(w, http.StatusBadRequest, "Value is required")
		return
	}

	isNewKey, err := h.kv.Upsert(r.Context(), key, req.Value, req.Description)
	if err != nil {
		h.logger.Error().Err(err).Str("key", key).Msg("Failed to upsert variable")
		WriteError(w, http.StatusInternalServerError, "Failed to save variable")
		return
	}

	statusCode := http.StatusOK
	message := "Variable updated successfully"
	if isNewKey {
		statusCode = http.StatusCreated
		message = "Variable created successfully"
	}
	h.logger.Info().Str("key", key).Bool("created", isNewKey).Msg("Variable saved via API")

	WriteJSON(w, statusCode, map[string]interface{}{
		"status":  "success",
		"message": message,
		"key":     key,
		"created": isNewKey,
	})
}

// DeleteVariableHandler handles DELETE /api/variables/{key}
func (h *VariablesHandler) DeleteVariableHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "DELETE") {
		return
	}

	key, err := variableKeyFromPath(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid key encoding")
		return
	}
	if key == "" {
		WriteError(w, http.StatusBadRequest, "Key is required")
		return
	}

	if err := h.kv.Delete(r.Context(), key); err != nil {
		if errors.Is(err, interfaces.ErrKeyNotFound) {
			WriteError(w, http.StatusNotFound, "Key not found")
			return
		}
		h.logger.Error().Err(err).Str("key", key).Msg("Failed to delete variable")
		WriteError(w, http.StatusInternalServerError, "Failed to delete variable")
		return
	}

	h.logger.Info().Str("key", key).Msg("Variable deleted via API")
	WriteSuccess(w, "Variable deleted successfully")
}

// maskValue masks sensitive variable values for listings.
// If length < 8: returns "••••••••"
// Otherwise: returns first 4 chars + "..." + last 4 chars (e.g., "sk-1...xyz9")
func maskValue(value string) string {
	if len(value) < 8 {
		return "••••••••"
	}
	return value[:4] + "..." + value[len(value)-4:]
}
