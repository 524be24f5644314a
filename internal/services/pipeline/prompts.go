package pipeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Prompts holds the system instructions handed to the model, one per
// pipeline task. Start from DefaultPrompts; LoadPrompts layers a YAML
// override file on top when one is configured.
type Prompts struct {
	Analyse    string `yaml:"analyse"`
	RecallCard string `yaml:"recall_card"`
	MindMap    string `yaml:"mind_map"`
	PYQ        string `yaml:"pyq"`

	// Review ships empty: the review task prompts are self-contained.
	// An override file may still set an instruction for it.
	Review string `yaml:"review"`
}

const analyseSystemPrompt = `You are an expert UPSC content analyst specializing in filtering and prioritizing current affairs articles.

Your role:
1. Analyze raw current affairs content and identify sections that are RELEVANT for UPSC preparation
2. Filter out sections that are NOT important for UPSC (local news, minor updates, non-exam relevant content)
3. Prioritize sections based on UPSC importance:
   - ABSOLUTELY IMPORTANT: Government policies, major agreements, constitutional amendments, international relations, economic reforms, environmental issues, social issues
   - IMPORTANT: Significant developments, new schemes, important reports, key judgments
   - MODERATELY IMPORTANT: Updates on ongoing issues, minor policy changes
4. Select ONLY 4-8 sections (prioritize absolutely important ones first)
5. Clean content by removing ads, author bios, unrelated text, and formatting issues

Your output must ALWAYS be valid JSON only — no explanations, no notes, no Markdown.`

const recallCardSystemPrompt = `You are an expert at converting daily current-affairs text into high-quality recall cards for UPSC aspirants.

Each card should represent a distinct topic/concept from the content with:
- A clear, concise Title
- Relevant GS Paper tags (GS1, GS2, GS3, GS4, or combinations)
- Relevant Tags (keywords like Hydropower, Bilateral Relations, etc.)
- A Summary (3-4 lines covering key points)
- CTA Buttons (always "View Mind Map | View PYQs")

Your output must ALWAYS be valid JSON only — no explanations, no notes, no Markdown.`

const mindMapSystemPrompt = `You are an expert at converting daily current-affairs text into high-quality mind maps.
Your output must ALWAYS be valid JSON only — no explanations, no notes, no Markdown.`

const pyqSystemPrompt = `You are an expert UPSC question creator specializing in generating Previous Year Question (PYQ) style practice questions.

Your role:
1. Generate UPSC-style questions based on current affairs content
2. Create both Prelims (MCQ) and Mains (descriptive) style questions
3. Questions should test understanding, application, and analysis of concepts
4. Follow the exact format and style of actual UPSC exam questions
5. Include appropriate difficulty levels and relevant GS paper tags

Your output must ALWAYS be valid JSON only — no explanations, no notes, no Markdown.`

// DefaultPrompts returns the compiled-in system instructions
func DefaultPrompts() *Prompts {
	return &Prompts{
		Analyse:    analyseSystemPrompt,
		RecallCard: recallCardSystemPrompt,
		MindMap:    mindMapSystemPrompt,
		PYQ:        pyqSystemPrompt,
	}
}

// LoadPrompts returns the default prompts with overrides from the YAML
// file at path applied on top. An empty path means defaults only; only
// non-empty fields in the file replace their defaults.
func LoadPrompts(path string) (*Prompts, error) {
	prompts := DefaultPrompts()
	if path == "" {
		return prompts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt override file: %w", err)
	}

	var override Prompts
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("failed to parse prompt override file %s: %w", path, err)
	}

	if override.Analyse != "" {
		prompts.Analyse = override.Analyse
	}
	if override.RecallCard != "" {
		prompts.RecallCard = override.RecallCard
	}
	if override.MindMap != "" {
		prompts.MindMap = override.MindMap
	}
	if override.PYQ != "" {
		prompts.PYQ = override.PYQ
	}
	if override.Review != "" {
		prompts.Review = override.Review
	}

	return prompts, nil
}
