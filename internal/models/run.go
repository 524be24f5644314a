package models

import (
	"time"
)

// RunStatus tracks a generation run through its phases
type RunStatus string

const (
	RunStatusPending    RunStatus = "pending"
	RunStatusFetching   RunStatus = "fetching"
	RunStatusExtracting RunStatus = "extracting"
	RunStatusGenerating RunStatus = "generating"
	RunStatusReviewing  RunStatus = "reviewing"
	RunStatusPersisting RunStatus = "persisting"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
)

// IsTerminal reports whether the run has finished (successfully or not)
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed
}

// GenerationRun records one end-to-end pipeline execution for a date.
// A run covers all attempts; Attempt tracks the current/final attempt number.
type GenerationRun struct {
	ID          string      `json:"id" badgerhold:"key"` // run_{uuid}
	Date        string      `json:"date" badgerhold:"index"`
	Status      RunStatus   `json:"status" badgerhold:"index"`
	Attempt     int         `json:"attempt"` // 1-based
	Error       string      `json:"error,omitempty"`
	Summary     *RunSummary `json:"summary,omitempty"`
	StartedAt   time.Time   `json:"started_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}

// RunSummary is the success payload of a completed run
type RunSummary struct {
	Message       string        `json:"message"`
	Date          string        `json:"date"`
	SectionsCount int           `json:"sections_count"`
	CardsCount    int           `json:"cards_count"`
	MindMapsCount int           `json:"mindmaps_count"`
	PrelimsCount  int           `json:"prelims_count"`
	MainsCount    int           `json:"mains_count"`
	ReviewSummary ReviewSummary `json:"review_summary"`
}
