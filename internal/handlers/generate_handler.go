package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/studium/internal/common"
	"github.com/ternarybob/studium/internal/interfaces"
	"github.com/ternarybob/studium/internal/services/pipeline"
)

// GenerateHandler handles HTTP requests that start generation runs
type GenerateHandler struct {
	pipelineService interfaces.PipelineService
	logger          arbor.ILogger
}

// NewGenerateHandler creates a new GenerateHandler
func NewGenerateHandler(pipelineService interfaces.PipelineService, logger arbor.ILogger) *GenerateHandler {
	return &GenerateHandler{
		pipelineService: pipelineService,
		logger:          logger,
	}
}

// GenerateContentHandler handles POST /api/generate/{date}.
// The run executes asynchronously; the response acknowledges acceptance.
func (h *GenerateHandler) GenerateContentHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(pathParts) < 3 || pathParts[2] == "" {
		WriteError(w, http.StatusBadRequest, "Date is required")
		return
	}
	date := pathParts[2]

	if _, err := common.ParseDateKey(date); err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Invalid date format: %s (expected DD-MM-YYYY)", date))
		return
	}

	run, err := h.pipelineService.StartRun(r.Context(), date)
	if err != nil {
		if errors.Is(err, pipeline.ErrRunInProgress) {
			WriteError(w, http.StatusConflict, fmt.Sprintf("A generation run is already active for date: %s", date))
			return
		}
		if errors.Is(err, pipeline.ErrGeneratorUnavailable) {
			WriteError(w, http.StatusServiceUnavailable, "Content generation is disabled: no LLM provider configured")
			return
		}
		h.logger.Error().Err(err).Str("date", date).Msg("Failed to start generation run")
		WriteError(w, http.StatusInternalServerError, "Failed to start generation run")
		return
	}

	h.logger.Info().Str("run_id", run.ID).Str("date", date).Msg("Generation run accepted")
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "started",
		"message": fmt.Sprintf("Content generation started for date: %s", date),
		"run_id":  run.ID,
		"date":    date,
	})
}
