package models

// DefaultCTAButtons is the fixed call-to-action line rendered under every card
const DefaultCTAButtons = "View Mind Map | View PYQs"

// Card is a recall card generated from one section's content.
// SectionIndex and SectionTitle are attached during aggregation so the UI
// can group cards back under their source section.
type Card struct {
	Title        string   `json:"title"`
	GS           string   `json:"gs"`   // Relevant GS papers, e.g. "GS2 (IR), GS3 (Energy)"
	Tags         []string `json:"tags"` // 3-5 keywords
	Summary      string   `json:"summary"`
	CTAButtons   string   `json:"cta_buttons"`
	SectionIndex int      `json:"section_index"`
	SectionTitle string   `json:"section_title,omitempty"`
}
