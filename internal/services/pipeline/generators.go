package pipeline

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/studium/internal/interfaces"
	"github.com/ternarybob/studium/internal/models"
)

const cardTaskPrompt = `Generate high-quality recall cards from the following daily current-affairs content.

CONTENT:
%s

OUTPUT FORMAT (JSON ARRAY):
[
  {
    "title": "India–Nepal Power Trade Agreement",
    "gs": "GS2 (IR), GS3 (Energy)",
    "tags": ["Hydropower", "Bilateral Relations", "Connectivity"],
    "summary": "3-4 line summary covering key points, facts, and significance.",
    "cta_buttons": "View Mind Map | View PYQs"
  },
  {
    "title": "Another Topic Title",
    "gs": "GS2, GS3",
    "tags": ["Tag1", "Tag2", "Tag3"],
    "summary": "Another 3-4 line summary...",
    "cta_buttons": "View Mind Map | View PYQs"
  }
]

RULES:
- Produce ONLY valid JSON array - no markdown, no code fences, no explanations.
- Create separate cards for each distinct topic/concept in the content.
- Title should be clear and descriptive (max 100 characters).
- GS field should list relevant GS papers (e.g., "GS2 (IR), GS3 (Energy)" or "GS2, GS3").
- Tags should be an array of 3-5 relevant keywords.
- Summary must be exactly 3-4 lines covering key points, facts, dates, numbers, and significance.
- CTA buttons should always be exactly: "View Mind Map | View PYQs"
- Cover all major topics, concepts, agreements, policies, and important facts from the content.`

const mindMapTaskPrompt = `Generate a hierarchical mind map from the following content.

CONTENT:
%s

OUTPUT FORMAT (MANDATORY JSON):
{
  "title": "Main topic",
  "nodes": [
    {
      "name": "Subtopic 1",
      "children": [
        { "name": "Point A" },
        { "name": "Point B" }
      ]
    },
    {
      "name": "Subtopic 2",
      "children": [...]
    }
  ]
}

RULES:
- Do NOT add extra text outside JSON.
- Keep the hierarchy clean and 3 levels deep maximum.
- Summarize but do NOT omit important concepts.`

const pyqTaskPrompt = `Generate UPSC-style Previous Year Questions (PYQ) based on the following current affairs content.

CONTENT:
%s

OUTPUT FORMAT (MANDATORY JSON):
{
  "prelims": [
    {
      "question": "Question text in UPSC Prelims MCQ style",
      "options": {
        "a": "Option A",
        "b": "Option B",
        "c": "Option C",
        "d": "Option D"
      },
      "correct_answer": "a",
      "explanation": "Brief explanation of why this answer is correct",
      "gs_paper": "GS1",
      "year": "2024"
    }
  ],
  "mains": [
    {
      "question": "Question text in UPSC Mains descriptive style",
      "type": "10 marks / 15 marks / 20 marks",
      "gs_paper": "GS2",
      "year": "2024",
      "key_points": [
        "Key point 1 for answer",
        "Key point 2 for answer",
        "Key point 3 for answer"
      ]
    }
  ]
}

RULES:
- Produce ONLY valid JSON - no markdown, no code fences, no explanations
- Generate 2-4 Prelims questions (MCQ format with 4 options)
- Generate 1-3 Mains questions (descriptive/essay style)
- Questions should test understanding, application, and analysis
- Follow actual UPSC question style and difficulty
- Include relevant GS paper tags (GS1, GS2, GS3, GS4)
- Provide clear explanations for Prelims questions
- Include key points/answer framework for Mains questions
- Questions should be based on the content provided
- Use realistic year values (2020-2025)

Example:
Prelims:
Q. Which of the following are the reasons for the occurrence of multi-drug resistance in microbial pathogens in India? (2019)

Genetic predisposition of some people
Taking incorrect doses of antibiotics to cure diseases
Using antibiotics in livestock farming
Multiple chronic diseases in some people
Select the correct answer using the code given below.

(a) 1 and 2

(b) 2 and 3 only

(c) 1, 3 and 4

(d) 2, 3 and 4

Mains:
Q. Can overuse and free availability of antibiotics without Doctor's prescription, be contributors to the emergence of drug-resistant diseases in India? What are the available mechanisms for monitoring and control? Critically discuss the various issues involved. (2014)`

// Generators holds the three per-section artifact transforms. Each is a
// single stateless generation call over one section's joined bullet
// text; parse failures are fatal to the attempt.
type Generators struct {
	generator interfaces.Generator
	prompts   *Prompts
	logger    arbor.ILogger
}

func NewGenerators(generator interfaces.Generator, prompts *Prompts, logger arbor.ILogger) *Generators {
	return &Generators{
		generator: generator,
		prompts:   prompts,
		logger:    logger,
	}
}

// Cards generates recall cards for one section's content. The CTA line
// is pinned to the fixed value the UI renders regardless of what the
// model returned.
func (g *Generators) Cards(ctx context.Context, content string) ([]models.Card, error) {
	raw, err := g.generator.Generate(ctx, g.prompts.RecallCard, fmt.Sprintf(cardTaskPrompt, content))
	if err != nil {
		return nil, fmt.Errorf("card generation failed: %w", err)
	}

	cards, err := DecodePayload[[]models.Card](raw)
	if err != nil {
		return nil, fmt.Errorf("card generation: %w", err)
	}

	for i := range cards {
		cards[i].CTAButtons = models.DefaultCTAButtons
	}
	for _, issue := range CardIssues(cards) {
		g.logger.Warn().Str("issue", issue).Msg("Generated card quality issue")
	}
	return cards, nil
}

// MindMap generates the hierarchical summary for one section's content.
// Hierarchies deeper than the allowed three levels are clamped, not
// rejected.
func (g *Generators) MindMap(ctx context.Context, content string) (*models.MindMap, error) {
	raw, err := g.generator.Generate(ctx, g.prompts.MindMap, fmt.Sprintf(mindMapTaskPrompt, content))
	if err != nil {
		return nil, fmt.Errorf("mind map generation failed: %w", err)
	}

	mindMap, err := DecodePayload[models.MindMap](raw)
	if err != nil {
		return nil, fmt.Errorf("mind map generation: %w", err)
	}

	if removed := ClampMindMapDepth(&mindMap); removed > 0 {
		g.logger.Warn().
			Int("nodes_removed", removed).
			Str("title", mindMap.Title).
			Msg("Mind map exceeded maximum depth, pruned deepest layer")
	}
	return &mindMap, nil
}

// Questions generates prelims and mains questions for one section's content
func (g *Generators) Questions(ctx context.Context, content string) (*models.QuestionSet, error) {
	raw, err := g.generator.Generate(ctx, g.prompts.PYQ, fmt.Sprintf(pyqTaskPrompt, content))
	if err != nil {
		return nil, fmt.Errorf("question generation failed: %w", err)
	}

	questions, err := DecodePayload[models.QuestionSet](raw)
	if err != nil {
		return nil, fmt.Errorf("question generation: %w", err)
	}
	if err := ValidateQuestions(&questions); err != nil {
		return nil, fmt.Errorf("question generation: %w", err)
	}
	return &questions, nil
}
