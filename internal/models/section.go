package models

const (
	// ImportanceAbsolute marks sections covering policy, constitutional, or international matters
	ImportanceAbsolute = "absolutely_important"
	// ImportanceImportant marks significant developments, schemes, reports, and judgments
	ImportanceImportant = "important"
	// ImportanceModerate marks content worth keeping but below the priority cut
	ImportanceModerate = "moderately_important"
)

// Section is one exam-relevant slice of a day's news analysis.
// Extraction returns between 4 and 8 of these per date, ranked by importance.
type Section struct {
	Title string `json:"title" validate:"required"`
	// Bullet points, one distinct aspect per entry
	Content []string `json:"content" validate:"required,min=1"`
	// One of the Importance* constants
	Importance string `json:"importance" validate:"required,oneof=absolutely_important important moderately_important"`
}

// Text joins the section bullets into a single block for downstream prompts
func (s *Section) Text() string {
	out := ""
	for i, line := range s.Content {
		if i > 0 {
			out += "\n"
		}
		out += line
	}
	return out
}
