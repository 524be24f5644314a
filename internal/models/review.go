package models

// ReviewNotes records what the review pass found and changed for one artifact class.
// AccuracyScore is always present. The secondary score depends on the class:
// completeness for sections, quality for cards and questions, structure for mind maps.
type ReviewNotes struct {
	IssuesFound       []string `json:"issues_found"`
	CorrectionsMade   []string `json:"corrections_made"`
	AccuracyScore     float64  `json:"accuracy_score"`
	CompletenessScore float64  `json:"completeness_score,omitempty"`
	QualityScore      float64  `json:"quality_score,omitempty"`
	StructureScore    float64  `json:"structure_score,omitempty"`
}

// SectionReview is the review envelope for the section list
type SectionReview struct {
	CorrectedSections []Section   `json:"corrected_sections"`
	ReviewNotes       ReviewNotes `json:"review_notes"`
}

// CardReview is the review envelope for the card list
type CardReview struct {
	CorrectedCards []Card      `json:"corrected_cards"`
	ReviewNotes    ReviewNotes `json:"review_notes"`
}

// MindMapReview is the review envelope for a single mind map
type MindMapReview struct {
	CorrectedMindMap MindMap     `json:"corrected_mindmap"`
	ReviewNotes      ReviewNotes `json:"review_notes"`
}

// QuestionReview is the review envelope for the full question set
type QuestionReview struct {
	CorrectedQuestions QuestionSet `json:"corrected_pyq"`
	ReviewNotes        ReviewNotes `json:"review_notes"`
}

// ReviewSummary aggregates review notes across all artifact classes.
// AverageAccuracy is the unweighted mean of every accuracy score:
// one each for sections, cards, and questions, plus one per mind map.
type ReviewSummary struct {
	TotalIssues      int     `json:"total_issues"`
	TotalCorrections int     `json:"total_corrections"`
	AverageAccuracy  float64 `json:"average_accuracy"`
}
