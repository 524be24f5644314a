package pipeline

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/studium/internal/interfaces"
	"github.com/ternarybob/studium/internal/models"
)

// analyseTaskPrompt embeds the corpus as %[1]s and the section floor and
// cap as %[2]d / %[3]d.
const analyseTaskPrompt = `Analyze the following current affairs article and extract ONLY the sections that are IMPORTANT for UPSC preparation.

INPUT ARTICLE:
%[1]s

YOUR TASK:
1. CRITICALLY ANALYZE each section for UPSC relevance
2. FILTER OUT sections that are NOT important for UPSC:
   - Local/regional news without national significance
   - Minor updates without policy implications
   - Non-exam relevant content (ads, author bios, navigation text)
   - Repetitive or redundant information
3. PRIORITIZE sections by importance:
   - ABSOLUTELY IMPORTANT: Government policies, major agreements, constitutional matters, international relations, economic reforms, environmental policies, social issues
   - IMPORTANT: Significant developments, new schemes, important reports, key judgments
4. SELECT ONLY %[2]d-%[3]d sections (prioritize absolutely important ones)
5. FORMAT content as an array of bullet points:
   - Break down each section into clear, concise bullet points
   - Each bullet should cover a distinct aspect (what, why, how, when, where, who)
   - Include key facts, figures, dates, names, and important details
   - Content must be an ARRAY of strings, not a single string with newlines
6. CLEAN content: remove ads, formatting issues, unrelated text

OUTPUT FORMAT (JSON ARRAY):
[
  {
    "title": "India-Nepal Power Trade Agreement",
    "content": [
      "Point 1 explaining key aspect",
      "Point 2 with important details",
      "Point 3 covering another aspect",
      "Point 4 with facts/figures"
    ],
    "importance": "absolutely_important"
  },
  {
    "title": "MSP Reform Proposal",
    "content": [
      "Point 1",
      "Point 2",
      "Point 3"
    ],
    "importance": "important"
  }
]

CRITICAL RULES:
- Produce ONLY valid JSON array - no markdown, no code fences, no explanations
- Return EXACTLY %[2]d-%[3]d sections (prioritize absolutely important ones)
- Each section MUST have: title, content (as ARRAY of strings), and importance level
- Content MUST be an ARRAY of strings, where each string is a bullet point
- DO NOT use newline characters (\n) or special bullet characters (•, •)
- Each array element should be a clear, concise bullet point covering a distinct aspect
- Include key facts, figures, dates, names, and important details in bullet points
- Importance levels: "absolutely_important", "important", or "moderately_important"
- Filter out non-UPSC relevant content aggressively
- Clean content thoroughly (remove ads, author info, navigation, etc.)
- If article has fewer than %[2]d relevant sections, return only those
- If article has more than %[3]d relevant sections, return only the top %[3]d most important`

// Extractor turns the day's scraped corpus into exam-relevant sections
// through a single analysis call
type Extractor struct {
	generator   interfaces.Generator
	prompts     *Prompts
	minSections int
	maxSections int
	logger      arbor.ILogger
}

func NewExtractor(generator interfaces.Generator, prompts *Prompts, minSections, maxSections int, logger arbor.ILogger) *Extractor {
	if minSections <= 0 {
		minSections = 4
	}
	if maxSections < minSections {
		maxSections = 8
	}
	return &Extractor{
		generator:   generator,
		prompts:     prompts,
		minSections: minSections,
		maxSections: maxSections,
		logger:      logger,
	}
}

// ExtractSections analyzes the corpus and decodes the section list.
// Zero sections returns ErrEmptySections so the orchestrator can retry
// the whole run; a list over the cap is truncated to the top entries,
// which the analysis prompt orders by importance.
func (e *Extractor) ExtractSections(ctx context.Context, articleText string) ([]models.Section, error) {
	e.logger.Info().
		Int("corpus_chars", len(articleText)).
		Msg("Extracting sections from corpus")

	prompt := fmt.Sprintf(analyseTaskPrompt, articleText, e.minSections, e.maxSections)
	raw, err := e.generator.Generate(ctx, e.prompts.Analyse, prompt)
	if err != nil {
		return nil, fmt.Errorf("section extraction failed: %w", err)
	}

	sections, err := DecodePayload[[]models.Section](raw)
	if err != nil {
		return nil, fmt.Errorf("section extraction: %w", err)
	}
	if len(sections) == 0 {
		return nil, ErrEmptySections
	}
	if len(sections) > e.maxSections {
		e.logger.Warn().
			Int("count", len(sections)).
			Int("max", e.maxSections).
			Msg("Model returned too many sections, keeping the top entries")
		sections = sections[:e.maxSections]
	}
	if err := ValidateSections(sections); err != nil {
		return nil, fmt.Errorf("section extraction: %w", err)
	}
	if len(sections) < e.minSections {
		// Thin source days legitimately yield fewer sections
		e.logger.Warn().
			Int("count", len(sections)).
			Int("min", e.minSections).
			Msg("Fewer sections than requested")
	}

	e.logger.Info().
		Int("sections", len(sections)).
		Msg("Section extraction complete")
	return sections, nil
}
