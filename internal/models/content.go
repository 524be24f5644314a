package models

import (
	"time"
)

// DailyContent is the persisted study artifact bundle for one date.
// The date key (DD-MM-YYYY) is the primary key; repeated generation runs
// merge into the same record rather than replacing it.
type DailyContent struct {
	Date          string        `json:"date" badgerhold:"key"`
	Sections      []Section     `json:"sections"`
	Cards         []Card        `json:"cards"`
	MindMaps      MindMapSet    `json:"mindmap"`
	Questions     QuestionSet   `json:"pyq"`
	OverallReview ReviewSummary `json:"overall_review"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Counts returns the artifact counts used for run summaries and status payloads
func (d *DailyContent) Counts() (sections, cards, mindmaps, prelims, mains int) {
	return len(d.Sections), len(d.Cards), len(d.MindMaps.MindMaps), len(d.Questions.Prelims), len(d.Questions.Mains)
}
