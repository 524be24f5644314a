package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/studium/internal/models"
)

func reviewInput() ([]models.Section, []models.Card, []models.MindMap, models.QuestionSet) {
	sections := []models.Section{{Title: "One", Content: []string{"p"}, Importance: models.ImportanceAbsolute}}
	cards := []models.Card{{Title: "Card", Tags: []string{"a", "b", "c"}, Summary: "s", SectionIndex: 0}}
	mindMaps := []models.MindMap{
		{Title: "Map A", Nodes: []models.MindMapNode{{Name: "n"}}},
		{Title: "Map B", Nodes: []models.MindMapNode{{Name: "n"}}},
	}
	questions := models.QuestionSet{
		Prelims: []models.PrelimsQuestion{{Question: "Q", Options: models.QuestionOptions{A: "1", B: "2", C: "3", D: "4"}, CorrectAnswer: "a"}},
		Mains:   []models.MainsQuestion{{Question: "M"}},
	}
	return sections, cards, mindMaps, questions
}

func TestReviewAllFallbackKeepsOriginals(t *testing.T) {
	// No fenced JSON in any review response: every artifact class falls
	// back to its unreviewed form and the attempt still succeeds
	stub := &stubGenerator{fn: func(_, _ string) (string, error) {
		return "Everything looks accurate to me.", nil
	}}
	reviewer := NewReviewer(stub, DefaultPrompts(), 2000, 4, arbor.NewLogger())

	sections, cards, mindMaps, questions := reviewInput()
	reviewed, err := reviewer.ReviewAll(context.Background(), sections, cards, mindMaps, questions, "corpus text")
	require.NoError(t, err)

	assert.Equal(t, sections, reviewed.Sections)
	assert.Equal(t, cards, reviewed.Cards)
	assert.Equal(t, mindMaps, reviewed.MindMaps)
	assert.Equal(t, questions, reviewed.Questions)

	// One fallback issue per call: sections, cards, pyq, two mindmaps
	assert.Equal(t, 5, reviewed.Overall.TotalIssues)
	assert.Zero(t, reviewed.Overall.TotalCorrections)
	assert.Zero(t, reviewed.Overall.AverageAccuracy)
}

func TestReviewFallbackWording(t *testing.T) {
	notes := reviewFallback(ErrNoJSONBlock)
	assert.Equal(t, []string{"Failed to parse review response"}, notes.IssuesFound)
	assert.Empty(t, notes.CorrectionsMade)
	assert.Zero(t, notes.AccuracyScore)

	notes = reviewFallback(fmt.Errorf("%w: unexpected end of input", ErrMalformedJSON))
	assert.Equal(t, []string{"Invalid JSON in review response"}, notes.IssuesFound)
}

func TestReviewAllAppliesCorrections(t *testing.T) {
	stub := &stubGenerator{fn: func(_, prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "SECTIONS TO REVIEW (JSON):"):
			return fence(`{
				"corrected_sections": [{"title": "One (corrected)", "content": ["p"], "importance": "absolutely_important"}],
				"review_notes": {"issues_found": ["i1"], "corrections_made": ["c1"], "accuracy_score": 1.0, "completeness_score": 1.0}
			}`), nil
		case strings.Contains(prompt, "CARDS TO REVIEW (JSON):"):
			return fence(`{
				"corrected_cards": [{"title": "Card (corrected)", "tags": ["a", "b", "c"], "summary": "s", "section_index": 0}],
				"review_notes": {"issues_found": [], "corrections_made": ["c1", "c2"], "accuracy_score": 0.8, "quality_score": 0.9}
			}`), nil
		case strings.Contains(prompt, "PYQ TO REVIEW (JSON):"):
			return fence(`{
				"corrected_pyq": {"prelims": [{"question": "Q (corrected)", "options": {"a": "1", "b": "2", "c": "3", "d": "4"}, "correct_answer": "b"}], "mains": []},
				"review_notes": {"issues_found": [], "corrections_made": [], "accuracy_score": 0.6, "quality_score": 0.6}
			}`), nil
		case strings.Contains(prompt, "MINDMAP TO REVIEW (JSON):"):
			title := "Map A (corrected)"
			if strings.Contains(prompt, "Map B") {
				title = "Map B (corrected)"
			}
			return fence(fmt.Sprintf(`{
				"corrected_mindmap": {"title": "%s", "nodes": [{"name": "n"}]},
				"review_notes": {"issues_found": [], "corrections_made": [], "accuracy_score": 0.4, "structure_score": 1.0}
			}`, title)), nil
		}
		return "", fmt.Errorf("unexpected prompt")
	}}
	reviewer := NewReviewer(stub, DefaultPrompts(), 2000, 4, arbor.NewLogger())

	sections, cards, mindMaps, questions := reviewInput()
	reviewed, err := reviewer.ReviewAll(context.Background(), sections, cards, mindMaps, questions, "corpus text")
	require.NoError(t, err)

	assert.Equal(t, "One (corrected)", reviewed.Sections[0].Title)
	assert.Equal(t, "Card (corrected)", reviewed.Cards[0].Title)
	assert.Equal(t, "Q (corrected)", reviewed.Questions.Prelims[0].Question)
	assert.Empty(t, reviewed.Questions.Mains)

	// Mind map results keep input order
	assert.Equal(t, "Map A (corrected)", reviewed.MindMaps[0].Title)
	assert.Equal(t, "Map B (corrected)", reviewed.MindMaps[1].Title)

	assert.Equal(t, 1, reviewed.Overall.TotalIssues)
	assert.Equal(t, 3, reviewed.Overall.TotalCorrections)
	// Mean of 1.0, 0.8, 0.6 and the two 0.4 mindmap scores
	assert.InDelta(t, (1.0+0.8+0.6+0.4+0.4)/5, reviewed.Overall.AverageAccuracy, 1e-9)
}

func TestReviewAllEmbedsTruncatedExcerpt(t *testing.T) {
	stub := &stubGenerator{fn: func(_, _ string) (string, error) {
		return "no fence", nil
	}}
	reviewer := NewReviewer(stub, DefaultPrompts(), 2000, 4, arbor.NewLogger())

	sections, cards, mindMaps, questions := reviewInput()
	corpus := strings.Repeat("x", 3000)
	_, err := reviewer.ReviewAll(context.Background(), sections, cards, mindMaps, questions, corpus)
	require.NoError(t, err)

	for _, prompt := range stub.prompts {
		assert.Contains(t, prompt, strings.Repeat("x", 2000))
		assert.NotContains(t, prompt, strings.Repeat("x", 2001))
	}
}

func TestReviewAllPlaceholderWhenNoOriginalText(t *testing.T) {
	stub := &stubGenerator{fn: func(_, _ string) (string, error) {
		return "no fence", nil
	}}
	reviewer := NewReviewer(stub, DefaultPrompts(), 2000, 4, arbor.NewLogger())

	sections, cards, mindMaps, questions := reviewInput()
	_, err := reviewer.ReviewAll(context.Background(), sections, cards, mindMaps, questions, "")
	require.NoError(t, err)

	for _, prompt := range stub.prompts {
		assert.Contains(t, prompt, "ORIGINAL TEXT (for reference):\nNot provided")
	}
}

func TestReviewAllMindMapsReviewedIndividually(t *testing.T) {
	stub := &stubGenerator{fn: func(_, _ string) (string, error) {
		return "no fence", nil
	}}
	reviewer := NewReviewer(stub, DefaultPrompts(), 2000, 4, arbor.NewLogger())

	sections, cards, mindMaps, questions := reviewInput()
	_, err := reviewer.ReviewAll(context.Background(), sections, cards, mindMaps, questions, "corpus")
	require.NoError(t, err)

	mindMapCalls := 0
	for _, prompt := range stub.prompts {
		if strings.Contains(prompt, "MINDMAP TO REVIEW (JSON):") {
			mindMapCalls++
		}
	}
	assert.Equal(t, len(mindMaps), mindMapCalls)
	assert.Len(t, stub.prompts, 3+len(mindMaps))
}

func TestReviewAllTransportErrorFailsAttempt(t *testing.T) {
	wantErr := errors.New("connection reset")
	stub := &stubGenerator{fn: func(_, prompt string) (string, error) {
		if strings.Contains(prompt, "CARDS TO REVIEW (JSON):") {
			return "", wantErr
		}
		return "no fence", nil
	}}
	reviewer := NewReviewer(stub, DefaultPrompts(), 2000, 4, arbor.NewLogger())

	sections, cards, mindMaps, questions := reviewInput()
	_, err := reviewer.ReviewAll(context.Background(), sections, cards, mindMaps, questions, "corpus")
	assert.ErrorIs(t, err, wantErr)
}

func TestSummarizeReview(t *testing.T) {
	notes := []models.ReviewNotes{
		{IssuesFound: []string{"a", "b"}, CorrectionsMade: []string{"c"}, AccuracyScore: 1.0},
		{IssuesFound: []string{"d"}, AccuracyScore: 0.8},
		{CorrectionsMade: []string{"e", "f"}, AccuracyScore: 0.6},
		{AccuracyScore: 0.0},
		{AccuracyScore: 0.5},
		{AccuracyScore: 0.5},
	}

	summary := summarizeReview(notes)
	assert.Equal(t, 3, summary.TotalIssues)
	assert.Equal(t, 3, summary.TotalCorrections)
	assert.InDelta(t, 3.4/6.0, summary.AverageAccuracy, 1e-12)
}

func TestSummarizeReviewEmpty(t *testing.T) {
	summary := summarizeReview(nil)
	assert.Zero(t, summary.TotalIssues)
	assert.Zero(t, summary.AverageAccuracy)
}

func TestTruncateExcerpt(t *testing.T) {
	assert.Equal(t, "short", truncateExcerpt("short", 2000))
	assert.Equal(t, strings.Repeat("x", 10), truncateExcerpt(strings.Repeat("x", 50), 10))

	// Never splits a multibyte rune
	s := strings.Repeat("é", 100)
	cut := truncateExcerpt(s, 7)
	assert.True(t, utf8.ValidString(cut))
	assert.Equal(t, 6, len(cut))
}
