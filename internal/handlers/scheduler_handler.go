package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/studium/internal/interfaces"
	"github.com/ternarybob/studium/internal/services/scheduler"
)

// SchedulerHandler handles scheduler-related endpoints
type SchedulerHandler struct {
	schedulerService interfaces.SchedulerService
	logger           arbor.ILogger
}

// NewSchedulerHandler creates a new scheduler handler
func NewSchedulerHandler(schedulerService interfaces.SchedulerService, logger arbor.ILogger) *SchedulerHandler {
	return &SchedulerHandler{
		schedulerService: schedulerService,
		logger:           logger,
	}
}

// TriggerGenerationHandler handles POST /api/scheduler/trigger.
// Runs the daily generation job immediately, outside its cron schedule.
func (h *SchedulerHandler) TriggerGenerationHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	if err := h.schedulerService.TriggerJobNow(scheduler.DailyJobName); err != nil {
		h.logger.Error().Err(err).Msg("Failed to trigger daily generation job")
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.logger.Info().Str("job", scheduler.DailyJobName).Msg("Daily generation triggered via API")
	WriteSuccess(w, "Daily generation triggered successfully")
}

// GetJobsHandler handles GET /api/scheduler/jobs - reports all registered jobs
func (h *SchedulerHandler) GetJobsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	statuses := h.schedulerService.GetAllJobStatuses()
	jobs := make([]*interfaces.JobStatus, 0, len(statuses))
	for _, status := range statuses {
		jobs = append(jobs, status)
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"running": h.schedulerService.IsRunning(),
		"jobs":    jobs,
		"count":   len(jobs),
	})
}
