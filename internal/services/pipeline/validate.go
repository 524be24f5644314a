package pipeline

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ternarybob/studium/internal/models"
)

// Shared validator instance; it caches struct metadata per type
var validate = validator.New()

// ValidateSections checks the decoded section list: title and bullet
// content present, importance one of the known levels. Importance is
// normalized to lowercase first so casing drift from the model does not
// fail a run.
func ValidateSections(sections []models.Section) error {
	for i := range sections {
		sections[i].Importance = strings.ToLower(strings.TrimSpace(sections[i].Importance))
		if err := validate.Struct(&sections[i]); err != nil {
			return fmt.Errorf("section %d (%q) failed validation: %w", i, sections[i].Title, err)
		}
	}
	return nil
}

// ValidateQuestions checks the decoded question set. Every prelims
// question must name one of its own populated options as the correct
// answer; the answer key is normalized to lowercase first.
func ValidateQuestions(questions *models.QuestionSet) error {
	for i := range questions.Prelims {
		q := &questions.Prelims[i]
		q.CorrectAnswer = strings.ToLower(strings.TrimSpace(q.CorrectAnswer))
		if err := validate.Struct(q); err != nil {
			return fmt.Errorf("prelims question %d failed validation: %w", i, err)
		}
		if strings.TrimSpace(q.Options.Option(q.CorrectAnswer)) == "" {
			return fmt.Errorf("prelims question %d: correct_answer %q does not name a populated option", i, q.CorrectAnswer)
		}
	}
	for i := range questions.Mains {
		if err := validate.Struct(&questions.Mains[i]); err != nil {
			return fmt.Errorf("mains question %d failed validation: %w", i, err)
		}
	}
	return nil
}

// CardIssues reports soft quality violations on generated cards: missing
// titles, over-long titles, tag counts outside 3-5. These are logged
// rather than failing the attempt; the review pass gets a chance to
// repair them.
func CardIssues(cards []models.Card) []string {
	var issues []string
	for i := range cards {
		card := &cards[i]
		if strings.TrimSpace(card.Title) == "" {
			issues = append(issues, fmt.Sprintf("card %d has no title", i))
		} else if len(card.Title) > 100 {
			issues = append(issues, fmt.Sprintf("card %d title exceeds 100 characters", i))
		}
		if n := len(card.Tags); n < 3 || n > 5 {
			issues = append(issues, fmt.Sprintf("card %d has %d tags, want 3-5", i, n))
		}
		if strings.TrimSpace(card.Summary) == "" {
			issues = append(issues, fmt.Sprintf("card %d has no summary", i))
		}
	}
	return issues
}

// ClampMindMapDepth prunes children nested beyond MaxMindMapDepth and
// returns the number of nodes removed. The map itself is never rejected;
// an over-deep hierarchy loses its deepest layer and keeps the rest.
func ClampMindMapDepth(m *models.MindMap) int {
	removed := 0
	var prune func(n *models.MindMapNode, level int)
	prune = func(n *models.MindMapNode, level int) {
		if level >= models.MaxMindMapDepth {
			removed += countNodes(n.Children)
			n.Children = nil
			return
		}
		for i := range n.Children {
			prune(&n.Children[i], level+1)
		}
	}
	for i := range m.Nodes {
		prune(&m.Nodes[i], 1)
	}
	return removed
}

func countNodes(nodes []models.MindMapNode) int {
	total := 0
	for i := range nodes {
		total += 1 + countNodes(nodes[i].Children)
	}
	return total
}
