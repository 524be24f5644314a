package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/studium/internal/interfaces"
	"github.com/ternarybob/studium/internal/models"
)

const reviewSectionsPrompt = `You are an expert UPSC content reviewer. Review the following sections for accuracy, completeness, and UPSC relevance.

ORIGINAL TEXT (for reference):
%s

SECTIONS TO REVIEW (JSON):
%s

YOUR TASK:
1. Check for factual accuracy (dates, names, numbers, events)
2. Verify UPSC relevance (filter out non-exam relevant content)
3. Ensure completeness (all sections have title, content, importance)
4. Validate content format (content should be array of strings)
5. Check for consistency and coherence
6. Correct any errors, inaccuracies, or missing information
7. Improve clarity and structure where needed

OUTPUT FORMAT (MANDATORY JSON):
{
  "corrected_sections": [
    {
      "title": "Corrected section title",
      "content": ["Point 1", "Point 2", ...],
      "importance": "absolutely_important"
    }
  ],
  "review_notes": {
    "issues_found": ["Issue 1", "Issue 2"],
    "corrections_made": ["Correction 1", "Correction 2"],
    "accuracy_score": 0.95,
    "completeness_score": 1.0
  }
}

RULES:
- Produce ONLY valid JSON - no markdown, no code fences, no explanations
- Maintain the same number of sections unless content is irrelevant
- Preserve section_index if present
- Ensure all facts are accurate and verifiable
- Remove any non-UPSC relevant content
- Improve clarity without changing meaning`

const reviewCardsPrompt = `You are an expert UPSC content reviewer. Review the following recall cards for accuracy, completeness, and quality.

ORIGINAL TEXT (for reference):
%s

CARDS TO REVIEW (JSON):
%s

YOUR TASK:
1. Verify factual accuracy (dates, names, numbers, events)
2. Check GS paper tags are appropriate
3. Ensure tags are relevant and accurate
4. Validate summary is 3-4 lines and covers key points
5. Verify CTA buttons format is correct
6. Check title clarity and accuracy
7. Ensure all required fields are present
8. Correct any errors or improve quality

OUTPUT FORMAT (MANDATORY JSON):
{
  "corrected_cards": [
    {
      "title": "Corrected title",
      "gs": "GS2 (IR), GS3 (Energy)",
      "tags": ["Tag1", "Tag2", "Tag3"],
      "summary": "3-4 line corrected summary...",
      "cta_buttons": "View Mind Map | View PYQs",
      "section_index": 0,
      "section_title": "..."
    }
  ],
  "review_notes": {
    "issues_found": ["Issue 1", "Issue 2"],
    "corrections_made": ["Correction 1", "Correction 2"],
    "accuracy_score": 0.95,
    "quality_score": 0.9
  }
}

RULES:
- Produce ONLY valid JSON - no markdown, no code fences, no explanations
- Maintain section_index and section_title if present
- Ensure all facts are accurate
- Keep summary exactly 3-4 lines
- Preserve CTA buttons format`

const reviewMindMapPrompt = `You are an expert UPSC content reviewer. Review the following mindmap for accuracy, completeness, and structure.

ORIGINAL TEXT (for reference):
%s

MINDMAP TO REVIEW (JSON):
%s

YOUR TASK:
1. Verify factual accuracy of all nodes
2. Check hierarchical structure (max 3 levels)
3. Ensure all important concepts are included
4. Verify node names are clear and accurate
5. Check for logical organization
6. Correct any errors or improve structure

OUTPUT FORMAT (MANDATORY JSON):
{
  "corrected_mindmap": {
    "title": "Corrected main topic",
    "nodes": [
      {
        "name": "Subtopic 1",
        "children": [
          { "name": "Point A" },
          { "name": "Point B" }
        ]
      }
    ],
    "section_index": 0,
    "section_title": "..."
  },
  "review_notes": {
    "issues_found": ["Issue 1", "Issue 2"],
    "corrections_made": ["Correction 1", "Correction 2"],
    "accuracy_score": 0.95,
    "structure_score": 0.9
  }
}

RULES:
- Produce ONLY valid JSON - no markdown, no code fences, no explanations
- Maintain section_index and section_title if present
- Keep hierarchy to 3 levels maximum
- Ensure all facts are accurate
- Improve clarity without changing meaning`

const reviewQuestionsPrompt = `You are an expert UPSC content reviewer. Review the following PYQ questions for accuracy, UPSC style compliance, and quality.

ORIGINAL TEXT (for reference):
%s

PYQ TO REVIEW (JSON):
%s

YOUR TASK:
1. Verify factual accuracy of all questions
2. Check UPSC question style and format
3. Validate correct answers for prelims
4. Ensure explanations are accurate and clear
5. Verify GS paper tags are appropriate
6. Check key points for mains questions are comprehensive
7. Ensure questions test understanding, not just recall
8. Correct any errors or improve quality

OUTPUT FORMAT (MANDATORY JSON):
{
  "corrected_pyq": {
    "prelims": [
      {
        "question": "Corrected question text",
        "options": {
          "a": "Option A",
          "b": "Option B",
          "c": "Option C",
          "d": "Option D"
        },
        "correct_answer": "a",
        "explanation": "Corrected explanation",
        "gs_paper": "GS1",
        "year": "2024",
        "section_index": 0,
        "section_title": "..."
      }
    ],
    "mains": [
      {
        "question": "Corrected question text",
        "type": "10 marks",
        "gs_paper": "GS2",
        "year": "2024",
        "key_points": ["Point 1", "Point 2", ...],
        "section_index": 0,
        "section_title": "..."
      }
    ]
  },
  "review_notes": {
    "issues_found": ["Issue 1", "Issue 2"],
    "corrections_made": ["Correction 1", "Correction 2"],
    "accuracy_score": 0.95,
    "quality_score": 0.9
  }
}

RULES:
- Produce ONLY valid JSON - no markdown, no code fences, no explanations
- Maintain section_index and section_title if present
- Ensure all facts are accurate
- Follow UPSC question style exactly
- Verify correct answers are actually correct
- Improve clarity without changing meaning`

// ReviewedContent gathers the corrected artifacts and the overall metrics
type ReviewedContent struct {
	Sections  []models.Section
	Cards     []models.Card
	MindMaps  []models.MindMap
	Questions models.QuestionSet
	Overall   models.ReviewSummary
}

// Reviewer runs the second-pass accuracy check over generated artifacts.
// Review calls never fail an attempt on bad model output: an unusable
// review response falls back to the unreviewed artifact with zeroed
// scores. Only transport errors from the generator propagate.
type Reviewer struct {
	generator    interfaces.Generator
	prompts      *Prompts
	excerptLimit int
	workers      int
	logger       arbor.ILogger
}

func NewReviewer(generator interfaces.Generator, prompts *Prompts, excerptLimit, workers int, logger arbor.ILogger) *Reviewer {
	if excerptLimit <= 0 {
		excerptLimit = 2000
	}
	if workers <= 0 {
		workers = 4
	}
	return &Reviewer{
		generator:    generator,
		prompts:      prompts,
		excerptLimit: excerptLimit,
		workers:      workers,
		logger:       logger,
	}
}

// ReviewAll reviews sections, cards, and questions in one batched call
// each and every mind map in its own call, all concurrent under the
// worker limit. Results are reassembled in input order. The overall
// summary averages the accuracy scores of every call: sections, cards,
// questions, then each mind map.
func (r *Reviewer) ReviewAll(ctx context.Context, sections []models.Section, cards []models.Card, mindMaps []models.MindMap, questions models.QuestionSet, originalText string) (*ReviewedContent, error) {
	excerpt := truncateExcerpt(originalText, r.excerptLimit)
	if excerpt == "" {
		excerpt = "Not provided"
	}

	r.logger.Info().
		Int("mindmaps", len(mindMaps)).
		Int("workers", r.workers).
		Msg("Reviewing generated artifacts")

	reviewed := &ReviewedContent{
		MindMaps: make([]models.MindMap, len(mindMaps)),
	}
	var sectionNotes, cardNotes, questionNotes models.ReviewNotes
	mindMapNotes := make([]models.ReviewNotes, len(mindMaps))

	group := newFanOut(ctx, r.workers)

	group.spawn(func(taskCtx context.Context) error {
		corrected, notes, err := r.reviewSections(taskCtx, sections, excerpt)
		if err != nil {
			return err
		}
		reviewed.Sections = corrected
		sectionNotes = notes
		return nil
	})
	group.spawn(func(taskCtx context.Context) error {
		corrected, notes, err := r.reviewCards(taskCtx, cards, excerpt)
		if err != nil {
			return err
		}
		reviewed.Cards = corrected
		cardNotes = notes
		return nil
	})
	group.spawn(func(taskCtx context.Context) error {
		corrected, notes, err := r.reviewQuestions(taskCtx, questions, excerpt)
		if err != nil {
			return err
		}
		reviewed.Questions = corrected
		questionNotes = notes
		return nil
	})
	for i := range mindMaps {
		group.spawn(func(taskCtx context.Context) error {
			corrected, notes, err := r.reviewMindMap(taskCtx, mindMaps[i], excerpt)
			if err != nil {
				return err
			}
			reviewed.MindMaps[i] = corrected
			mindMapNotes[i] = notes
			return nil
		})
	}

	if err := group.wait(); err != nil {
		return nil, err
	}

	allNotes := make([]models.ReviewNotes, 0, 3+len(mindMapNotes))
	allNotes = append(allNotes, sectionNotes, cardNotes, questionNotes)
	allNotes = append(allNotes, mindMapNotes...)
	reviewed.Overall = summarizeReview(allNotes)

	r.logger.Info().
		Int("total_issues", reviewed.Overall.TotalIssues).
		Int("total_corrections", reviewed.Overall.TotalCorrections).
		Str("average_accuracy", fmt.Sprintf("%.2f", reviewed.Overall.AverageAccuracy)).
		Msg("Review pass complete")
	return reviewed, nil
}

func (r *Reviewer) reviewSections(ctx context.Context, sections []models.Section, excerpt string) ([]models.Section, models.ReviewNotes, error) {
	artifact, err := json.MarshalIndent(sections, "", "  ")
	if err != nil {
		return nil, models.ReviewNotes{}, fmt.Errorf("failed to encode sections for review: %w", err)
	}

	raw, err := r.generator.Generate(ctx, r.prompts.Review, fmt.Sprintf(reviewSectionsPrompt, excerpt, artifact))
	if err != nil {
		return nil, models.ReviewNotes{}, fmt.Errorf("section review failed: %w", err)
	}

	result, err := DecodePayload[models.SectionReview](raw)
	if err != nil {
		r.logger.Warn().Err(err).Msg("Section review response unusable, keeping original sections")
		return sections, reviewFallback(err), nil
	}
	if result.CorrectedSections == nil {
		result.CorrectedSections = sections
	}
	return result.CorrectedSections, result.ReviewNotes, nil
}

func (r *Reviewer) reviewCards(ctx context.Context, cards []models.Card, excerpt string) ([]models.Card, models.ReviewNotes, error) {
	artifact, err := json.MarshalIndent(cards, "", "  ")
	if err != nil {
		return nil, models.ReviewNotes{}, fmt.Errorf("failed to encode cards for review: %w", err)
	}

	raw, err := r.generator.Generate(ctx, r.prompts.Review, fmt.Sprintf(reviewCardsPrompt, excerpt, artifact))
	if err != nil {
		return nil, models.ReviewNotes{}, fmt.Errorf("card review failed: %w", err)
	}

	result, err := DecodePayload[models.CardReview](raw)
	if err != nil {
		r.logger.Warn().Err(err).Msg("Card review response unusable, keeping original cards")
		return cards, reviewFallback(err), nil
	}
	if result.CorrectedCards == nil {
		result.CorrectedCards = cards
	}
	return result.CorrectedCards, result.ReviewNotes, nil
}

func (r *Reviewer) reviewMindMap(ctx context.Context, mindMap models.MindMap, excerpt string) (models.MindMap, models.ReviewNotes, error) {
	artifact, err := json.MarshalIndent(mindMap, "", "  ")
	if err != nil {
		return mindMap, models.ReviewNotes{}, fmt.Errorf("failed to encode mind map for review: %w", err)
	}

	raw, err := r.generator.Generate(ctx, r.prompts.Review, fmt.Sprintf(reviewMindMapPrompt, excerpt, artifact))
	if err != nil {
		return mindMap, models.ReviewNotes{}, fmt.Errorf("mind map review failed: %w", err)
	}

	result, err := DecodePayload[models.MindMapReview](raw)
	if err != nil {
		r.logger.Warn().Err(err).Str("title", mindMap.Title).Msg("Mind map review response unusable, keeping original")
		return mindMap, reviewFallback(err), nil
	}

	corrected := result.CorrectedMindMap
	if corrected.Title == "" && len(corrected.Nodes) == 0 {
		corrected = mindMap
	}
	return corrected, result.ReviewNotes, nil
}

func (r *Reviewer) reviewQuestions(ctx context.Context, questions models.QuestionSet, excerpt string) (models.QuestionSet, models.ReviewNotes, error) {
	artifact, err := json.MarshalIndent(questions, "", "  ")
	if err != nil {
		return questions, models.ReviewNotes{}, fmt.Errorf("failed to encode questions for review: %w", err)
	}

	raw, err := r.generator.Generate(ctx, r.prompts.Review, fmt.Sprintf(reviewQuestionsPrompt, excerpt, artifact))
	if err != nil {
		return questions, models.ReviewNotes{}, fmt.Errorf("question review failed: %w", err)
	}

	result, err := DecodePayload[models.QuestionReview](raw)
	if err != nil {
		r.logger.Warn().Err(err).Msg("Question review response unusable, keeping original questions")
		return questions, reviewFallback(err), nil
	}
	if result.CorrectedQuestions.IsEmpty() && !questions.IsEmpty() {
		result.CorrectedQuestions = questions
	}
	return result.CorrectedQuestions, result.ReviewNotes, nil
}

// reviewFallback builds the notes attached when a review response could
// not be used. The issue wording distinguishes a response with no JSON
// block from one whose block did not parse.
func reviewFallback(err error) models.ReviewNotes {
	reason := "Invalid JSON in review response"
	if errors.Is(err, ErrNoJSONBlock) {
		reason = "Failed to parse review response"
	}
	return models.ReviewNotes{
		IssuesFound:     []string{reason},
		CorrectionsMade: []string{},
	}
}

func summarizeReview(notes []models.ReviewNotes) models.ReviewSummary {
	var summary models.ReviewSummary
	var accuracySum float64
	for _, n := range notes {
		summary.TotalIssues += len(n.IssuesFound)
		summary.TotalCorrections += len(n.CorrectionsMade)
		accuracySum += n.AccuracyScore
	}
	if len(notes) > 0 {
		summary.AverageAccuracy = accuracySum / float64(len(notes))
	}
	return summary
}

// truncateExcerpt cuts s to at most limit bytes without splitting a rune
func truncateExcerpt(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
