package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/studium/internal/common"
	"github.com/ternarybob/studium/internal/interfaces"
)

// RunsHandler handles HTTP requests for generation run records
type RunsHandler struct {
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

// NewRunsHandler creates a new RunsHandler
func NewRunsHandler(storage interfaces.StorageManager, logger arbor.ILogger) *RunsHandler {
	return &RunsHandler{
		storage: storage,
		logger:  logger,
	}
}

// ListRunsHandler handles GET /api/runs?limit=
func (h *RunsHandler) ListRunsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	runs, err := h.storage.RunStorage().ListRecentRuns(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list runs")
		WriteError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
		"limit": limit,
	})
}

// GetRunHandler handles GET /api/runs/{run_id} and GET /api/runs/{date}.
// Run IDs carry a run_ prefix, so the segment never collides with a date key.
func (h *RunsHandler) GetRunHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(pathParts) < 3 || pathParts[2] == "" {
		WriteError(w, http.StatusBadRequest, "Run ID or date is required")
		return
	}
	key := pathParts[2]

	if strings.HasPrefix(key, "run_") {
		run, err := h.storage.RunStorage().GetRun(r.Context(), key)
		if err != nil {
			if errors.Is(err, interfaces.ErrRunNotFound) {
				WriteError(w, http.StatusNotFound, fmt.Sprintf("No run found with ID: %s", key))
				return
			}
			h.logger.Error().Err(err).Str("run_id", key).Msg("Failed to load run")
			WriteError(w, http.StatusInternalServerError, "Failed to load run")
			return
		}
		WriteJSON(w, http.StatusOK, run)
		return
	}

	if _, err := common.ParseDateKey(key); err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Invalid date format: %s (expected DD-MM-YYYY)", key))
		return
	}

	runs, err := h.storage.RunStorage().GetRunsByDate(r.Context(), key)
	if err != nil {
		h.logger.Error().Err(err).Str("date", key).Msg("Failed to load runs for date")
		WriteError(w, http.StatusInternalServerError, "Failed to load runs")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"date":  key,
		"runs":  runs,
		"count": len(runs),
	})
}

// GetRunLogsHandler handles GET /api/runs/{run_id}/logs?limit=
func (h *RunsHandler) GetRunLogsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(pathParts) < 4 || pathParts[2] == "" {
		WriteError(w, http.StatusBadRequest, "Run ID is required")
		return
	}
	runID := pathParts[2]

	limit := 100
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	logs, err := h.storage.RunLogStorage().GetLogs(r.Context(), runID, limit)
	if err != nil {
		h.logger.Error().Err(err).Str("run_id", runID).Msg("Failed to load run logs")
		WriteError(w, http.StatusInternalServerError, "Failed to load run logs")
		return
	}

	count, err := h.storage.RunLogStorage().CountLogs(r.Context(), runID)
	if err != nil {
		h.logger.Warn().Err(err).Str("run_id", runID).Msg("Failed to count run logs")
		count = len(logs)
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"run_id": runID,
		"count":  count,
		"logs":   logs,
	})
}
