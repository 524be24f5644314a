package pipeline

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/studium/internal/models"
)

// GeneratedContent is the flattened output of the per-section fan-out
type GeneratedContent struct {
	Cards     []models.Card
	MindMaps  []models.MindMap
	Questions models.QuestionSet
}

// sectionSlot collects one section's artifacts while the fan-out runs.
// Each field is written by exactly one task.
type sectionSlot struct {
	cards     []models.Card
	mindMap   models.MindMap
	questions models.QuestionSet
}

// Aggregator fans artifact generation out across a bounded worker pool,
// one task per section and artifact kind, and reassembles the results
// in section order
type Aggregator struct {
	generators *Generators
	workers    int
	logger     arbor.ILogger
}

func NewAggregator(generators *Generators, workers int, logger arbor.ILogger) *Aggregator {
	if workers <= 0 {
		workers = 4
	}
	return &Aggregator{
		generators: generators,
		workers:    workers,
		logger:     logger,
	}
}

// Generate produces cards, one mind map, and questions for every
// section. The first task failure cancels the rest and fails the
// attempt. Output order follows section order regardless of task
// completion order, and every artifact is stamped with its section
// index and title during reassembly.
func (a *Aggregator) Generate(ctx context.Context, sections []models.Section) (*GeneratedContent, error) {
	a.logger.Info().
		Int("sections", len(sections)).
		Int("workers", a.workers).
		Msg("Generating section artifacts")

	slots := make([]sectionSlot, len(sections))
	group := newFanOut(ctx, a.workers)

	for i := range sections {
		text := sections[i].Text()

		group.spawn(func(taskCtx context.Context) error {
			cards, err := a.generators.Cards(taskCtx, text)
			if err != nil {
				return err
			}
			slots[i].cards = cards
			return nil
		})
		group.spawn(func(taskCtx context.Context) error {
			mindMap, err := a.generators.MindMap(taskCtx, text)
			if err != nil {
				return err
			}
			slots[i].mindMap = *mindMap
			return nil
		})
		group.spawn(func(taskCtx context.Context) error {
			questions, err := a.generators.Questions(taskCtx, text)
			if err != nil {
				return err
			}
			slots[i].questions = *questions
			return nil
		})
	}

	if err := group.wait(); err != nil {
		return nil, err
	}

	content := &GeneratedContent{}
	for i := range sections {
		title := sections[i].Title
		if title == "" {
			title = fmt.Sprintf("Section %d", i+1)
		}

		for _, card := range slots[i].cards {
			card.SectionIndex = i
			card.SectionTitle = title
			content.Cards = append(content.Cards, card)
		}

		mindMap := slots[i].mindMap
		mindMap.SectionIndex = i
		mindMap.SectionTitle = title
		content.MindMaps = append(content.MindMaps, mindMap)

		for _, q := range slots[i].questions.Prelims {
			q.SectionIndex = i
			q.SectionTitle = title
			content.Questions.Prelims = append(content.Questions.Prelims, q)
		}
		for _, q := range slots[i].questions.Mains {
			q.SectionIndex = i
			q.SectionTitle = title
			content.Questions.Mains = append(content.Questions.Mains, q)
		}
	}

	a.logger.Info().
		Int("cards", len(content.Cards)).
		Int("mindmaps", len(content.MindMaps)).
		Int("prelims", len(content.Questions.Prelims)).
		Int("mains", len(content.Questions.Mains)).
		Msg("Section artifact generation complete")
	return content, nil
}
