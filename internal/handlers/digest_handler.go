package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/studium/internal/common"
	"github.com/ternarybob/studium/internal/interfaces"
)

// DigestHandler serves rendered PDF digests for stored content
type DigestHandler struct {
	storage       interfaces.StorageManager
	digestService interfaces.DigestService
	logger        arbor.ILogger
}

// NewDigestHandler creates a new DigestHandler
func NewDigestHandler(storage interfaces.StorageManager, digestService interfaces.DigestService, logger arbor.ILogger) *DigestHandler {
	return &DigestHandler{
		storage:       storage,
		digestService: digestService,
		logger:        logger,
	}
}

// GetDigestHandler handles GET /api/digest/{date}
func (h *DigestHandler) GetDigestHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
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

	content, err := h.storage.ContentStorage().GetContent(r.Context(), date)
	if err != nil {
		if errors.Is(err, interfaces.ErrContentNotFound) {
			WriteError(w, http.StatusNotFound, fmt.Sprintf("No content found for date: %s", date))
			return
		}
		h.logger.Error().Err(err).Str("date", date).Msg("Failed to load content for digest")
		WriteError(w, http.StatusInternalServerError, "Failed to load content")
		return
	}

	pdfBytes, err := h.digestService.RenderPDF(r.Context(), content)
	if err != nil {
		h.logger.Error().Err(err).Str("date", date).Msg("Failed to render digest PDF")
		WriteError(w, http.StatusInternalServerError, "Failed to render digest")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("digest-%s.pdf", date)))
	w.WriteHeader(http.StatusOK)
	w.Write(pdfBytes)
}
