package models

// QuestionOptions holds the four MCQ choices for a prelims question
type QuestionOptions struct {
	A string `json:"a"`
	B string `json:"b"`
	C string `json:"c"`
	D string `json:"d"`
}

// Option returns the text of the choice named by key, empty for unknown keys
func (o *QuestionOptions) Option(key string) string {
	switch key {
	case "a":
		return o.A
	case "b":
		return o.B
	case "c":
		return o.C
	case "d":
		return o.D
	}
	return ""
}

// PrelimsQuestion is a UPSC Prelims style multiple-choice question
type PrelimsQuestion struct {
	Question      string          `json:"question" validate:"required"`
	Options       QuestionOptions `json:"options"`
	CorrectAnswer string          `json:"correct_answer" validate:"required,oneof=a b c d"` // "a", "b", "c", or "d"
	Explanation   string          `json:"explanation"`
	GSPaper       string          `json:"gs_paper"` // GS1, GS2, GS3, GS4
	Year          string          `json:"year"`
	SectionIndex  int             `json:"section_index"`
	SectionTitle  string          `json:"section_title,omitempty"`
}

// MainsQuestion is a UPSC Mains style descriptive question
type MainsQuestion struct {
	Question     string   `json:"question" validate:"required"`
	Type         string   `json:"type"` // "10 marks", "15 marks", or "20 marks"
	GSPaper      string   `json:"gs_paper"`
	Year         string   `json:"year"`
	KeyPoints    []string `json:"key_points"` // Answer framework
	SectionIndex int      `json:"section_index"`
	SectionTitle string   `json:"section_title,omitempty"`
}

// QuestionSet groups the generated questions for a date.
// Each section contributes 2-4 prelims and 1-3 mains questions.
type QuestionSet struct {
	Prelims []PrelimsQuestion `json:"prelims"`
	Mains   []MainsQuestion   `json:"mains"`
}

// IsEmpty reports whether the set contains no questions of either kind
func (q *QuestionSet) IsEmpty() bool {
	return len(q.Prelims) == 0 && len(q.Mains) == 0
}
