package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/studium/internal/models"
)

// sectionArtifactStub answers card, mind map, and question prompts with
// canned artifacts named after the section text found in the prompt
func sectionArtifactStub(prompts *Prompts) *stubGenerator {
	return &stubGenerator{fn: func(system, prompt string) (string, error) {
		name := "alpha"
		if strings.Contains(prompt, "beta point") {
			name = "beta"
		}
		switch system {
		case prompts.RecallCard:
			return fence(fmt.Sprintf(`[
				{"title": "%[1]s card 1", "gs": "GS2", "tags": ["t1", "t2", "t3"], "summary": "s"},
				{"title": "%[1]s card 2", "gs": "GS3", "tags": ["t1", "t2", "t3"], "summary": "s"}
			]`, name)), nil
		case prompts.MindMap:
			return fence(fmt.Sprintf(`{"title": "%s map", "nodes": [{"name": "n"}]}`, name)), nil
		case prompts.PYQ:
			return fence(fmt.Sprintf(`{
				"prelims": [{"question": "%[1]s prelims", "options": {"a": "1", "b": "2", "c": "3", "d": "4"}, "correct_answer": "a"}],
				"mains": [{"question": "%[1]s mains"}]
			}`, name)), nil
		}
		return "", fmt.Errorf("unexpected system instruction %q", system)
	}}
}

func testSections() []models.Section {
	return []models.Section{
		{Title: "Alpha", Content: []string{"alpha point"}, Importance: models.ImportanceAbsolute},
		{Title: "Beta", Content: []string{"beta point"}, Importance: models.ImportanceImportant},
	}
}

func TestAggregatorFlattensInSectionOrder(t *testing.T) {
	prompts := DefaultPrompts()
	aggregator := NewAggregator(NewGenerators(sectionArtifactStub(prompts), prompts, arbor.NewLogger()), 4, arbor.NewLogger())

	content, err := aggregator.Generate(context.Background(), testSections())
	require.NoError(t, err)

	// Cards: both alpha cards strictly before both beta cards
	require.Len(t, content.Cards, 4)
	assert.Equal(t, "alpha card 1", content.Cards[0].Title)
	assert.Equal(t, "alpha card 2", content.Cards[1].Title)
	assert.Equal(t, "beta card 1", content.Cards[2].Title)
	assert.Equal(t, "beta card 2", content.Cards[3].Title)

	// One mind map per section, in section order
	require.Len(t, content.MindMaps, 2)
	assert.Equal(t, "alpha map", content.MindMaps[0].Title)
	assert.Equal(t, "beta map", content.MindMaps[1].Title)

	// Questions concatenated per section order
	require.Len(t, content.Questions.Prelims, 2)
	assert.Equal(t, "alpha prelims", content.Questions.Prelims[0].Question)
	assert.Equal(t, "beta prelims", content.Questions.Prelims[1].Question)
	require.Len(t, content.Questions.Mains, 2)
	assert.Equal(t, "alpha mains", content.Questions.Mains[0].Question)
	assert.Equal(t, "beta mains", content.Questions.Mains[1].Question)
}

func TestAggregatorStampsSectionReferences(t *testing.T) {
	prompts := DefaultPrompts()
	aggregator := NewAggregator(NewGenerators(sectionArtifactStub(prompts), prompts, arbor.NewLogger()), 4, arbor.NewLogger())

	content, err := aggregator.Generate(context.Background(), testSections())
	require.NoError(t, err)

	for i, card := range content.Cards {
		wantIndex := i / 2 // two cards per section
		assert.Equal(t, wantIndex, card.SectionIndex)
	}
	assert.Equal(t, "Alpha", content.Cards[0].SectionTitle)
	assert.Equal(t, "Beta", content.Cards[2].SectionTitle)

	assert.Equal(t, 0, content.MindMaps[0].SectionIndex)
	assert.Equal(t, 1, content.MindMaps[1].SectionIndex)
	assert.Equal(t, "Alpha", content.MindMaps[0].SectionTitle)

	assert.Equal(t, 0, content.Questions.Prelims[0].SectionIndex)
	assert.Equal(t, 1, content.Questions.Prelims[1].SectionIndex)
	assert.Equal(t, "Beta", content.Questions.Mains[1].SectionTitle)

	// The CTA line is pinned even though the stub omitted it
	assert.Equal(t, models.DefaultCTAButtons, content.Cards[0].CTAButtons)
}

func TestAggregatorTaggingIsDeterministic(t *testing.T) {
	prompts := DefaultPrompts()

	first, err := NewAggregator(NewGenerators(sectionArtifactStub(prompts), prompts, arbor.NewLogger()), 2, arbor.NewLogger()).
		Generate(context.Background(), testSections())
	require.NoError(t, err)
	second, err := NewAggregator(NewGenerators(sectionArtifactStub(prompts), prompts, arbor.NewLogger()), 2, arbor.NewLogger()).
		Generate(context.Background(), testSections())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAggregatorFallbackSectionTitle(t *testing.T) {
	prompts := DefaultPrompts()
	aggregator := NewAggregator(NewGenerators(sectionArtifactStub(prompts), prompts, arbor.NewLogger()), 4, arbor.NewLogger())

	sections := []models.Section{{Content: []string{"alpha point"}, Importance: models.ImportanceImportant}}
	content, err := aggregator.Generate(context.Background(), sections)
	require.NoError(t, err)

	assert.Equal(t, "Section 1", content.Cards[0].SectionTitle)
	assert.Equal(t, "Section 1", content.MindMaps[0].SectionTitle)
}

func TestAggregatorFirstErrorFailsAttempt(t *testing.T) {
	prompts := DefaultPrompts()
	wantErr := errors.New("model unavailable")
	inner := sectionArtifactStub(prompts)
	stub := &stubGenerator{fn: func(system, prompt string) (string, error) {
		if system == prompts.PYQ {
			return "", wantErr
		}
		return inner.fn(system, prompt)
	}}
	aggregator := NewAggregator(NewGenerators(stub, prompts, arbor.NewLogger()), 4, arbor.NewLogger())

	_, err := aggregator.Generate(context.Background(), testSections())
	assert.ErrorIs(t, err, wantErr)
}

func TestAggregatorHonorsWorkerLimit(t *testing.T) {
	prompts := DefaultPrompts()
	inner := sectionArtifactStub(prompts)

	var current, peak atomic.Int32
	stub := &stubGenerator{fn: func(system, prompt string) (string, error) {
		n := current.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		current.Add(-1)
		return inner.fn(system, prompt)
	}}

	aggregator := NewAggregator(NewGenerators(stub, prompts, arbor.NewLogger()), 2, arbor.NewLogger())
	_, err := aggregator.Generate(context.Background(), testSections())
	require.NoError(t, err)

	assert.LessOrEqual(t, peak.Load(), int32(2))
}
