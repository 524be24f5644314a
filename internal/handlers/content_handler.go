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

// ContentHandler handles HTTP requests for daily content records
type ContentHandler struct {
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

// NewContentHandler creates a new ContentHandler
func NewContentHandler(storage interfaces.StorageManager, logger arbor.ILogger) *ContentHandler {
	return &ContentHandler{
		storage: storage,
		logger:  logger,
	}
}

// GetContentHandler handles GET /api/content/{date}
func (h *ContentHandler) GetContentHandler(w http.ResponseWriter, r *http.Request) {
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
		h.logger.Error().Err(err).Str("date", date).Msg("Failed to load content")
		WriteError(w, http.StatusInternalServerError, "Failed to load content")
		return
	}

	WriteJSON(w, http.StatusOK, content)
}

// GetContentRangeHandler handles GET /api/content?from={date}&to={date}
func (h *ContentHandler) GetContentRangeHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		WriteError(w, http.StatusBadRequest, "Query parameters from and to are required")
		return
	}

	fromDate, err := common.ParseDateKey(from)
	if err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Invalid date format: %s (expected DD-MM-YYYY)", from))
		return
	}
	toDate, err := common.ParseDateKey(to)
	if err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Invalid date format: %s (expected DD-MM-YYYY)", to))
		return
	}
	if fromDate.After(toDate) {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Invalid range: %s is after %s", from, to))
		return
	}

	records, err := h.storage.ContentStorage().GetContentRange(r.Context(), from, to)
	if err != nil {
		h.logger.Error().Err(err).Str("from", from).Str("to", to).Msg("Failed to load content range")
		WriteError(w, http.StatusInternalServerError, "Failed to load content range")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"from":    from,
		"to":      to,
		"count":   len(records),
		"content": records,
	})
}

// DeleteContentHandler handles DELETE /api/content/{date}
func (h *ContentHandler) DeleteContentHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "DELETE") {
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

	if err := h.storage.ContentStorage().DeleteContent(r.Context(), date); err != nil {
		if errors.Is(err, interfaces.ErrContentNotFound) {
			WriteError(w, http.StatusNotFound, fmt.Sprintf("No content found for date: %s", date))
			return
		}
		h.logger.Error().Err(err).Str("date", date).Msg("Failed to delete content")
		WriteError(w, http.StatusInternalServerError, "Failed to delete content")
		return
	}

	h.logger.Info().Str("date", date).Msg("Content deleted via API")
	WriteSuccess(w, fmt.Sprintf("Content deleted for date: %s", date))
}

// GetDatesHandler handles GET /api/dates
func (h *ContentHandler) GetDatesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	dates, err := h.storage.ContentStorage().ListDates(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list content dates")
		WriteError(w, http.StatusInternalServerError, "Failed to list dates")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"dates": dates,
		"count": len(dates),
	})
}
