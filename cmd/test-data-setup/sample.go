package main

import (
	"time"

	"github.com/ternarybob/studium/internal/models"
)

// sampleTag marks seeded records so Cleanup only ever touches them
const sampleTag = "sample-data"

// sampleContent builds a full content record for a date: three sections,
// each with a card, a mind map, and questions, the same shape a real
// generation run persists.
func sampleContent(date string) *models.DailyContent {
	now := time.Now()

	sections := []models.Section{
		{
			Title: "Parliamentary Committee Report on Electoral Reforms",
			Content: []string{
				"Standing committee tabled recommendations on simultaneous elections covering constitutional amendments to Articles 83, 172, and 356",
				"Report flags the cost of repeated election cycles and the policy paralysis attributed to the Model Code of Conduct",
				"Law Commission's earlier draft proposed a two-phase synchronization plan starting with state assemblies",
				"Opposition members submitted dissent notes citing federalism concerns and the fate of mid-term collapses",
			},
			Importance: models.ImportanceAbsolute,
		},
		{
			Title: "RBI Monetary Policy Review",
			Content: []string{
				"Repo rate held steady with the stance retained as withdrawal of accommodation",
				"Inflation projection revised on food price pressure from uneven monsoon distribution",
				"GDP growth forecast maintained, supported by services momentum and public capital expenditure",
				"Governor flagged global spillover risks from advanced economy rate paths",
			},
			Importance: models.ImportanceImportant,
		},
		{
			Title: "National Green Hydrogen Mission Progress",
			Content: []string{
				"First tranche of electrolyser manufacturing incentives allocated under the SIGHT programme",
				"Port infrastructure identified for green ammonia export hubs on both coasts",
				"Target of 5 MMT annual green hydrogen production by 2030 reaffirmed",
			},
			Importance: models.ImportanceModerate,
		},
	}

	content := &models.DailyContent{
		Date:     date,
		Sections: sections,
		OverallReview: models.ReviewSummary{
			TotalIssues:      2,
			TotalCorrections: 2,
			AverageAccuracy:  0.93,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	gsPapers := []string{"GS2 (Polity)", "GS3 (Economy)", "GS3 (Environment)"}
	for i, section := range sections {
		content.Cards = append(content.Cards, models.Card{
			Title:        section.Title,
			GS:           gsPapers[i],
			Tags:         []string{sampleTag, "current-affairs", "revision"},
			Summary:      section.Content[0],
			CTAButtons:   models.DefaultCTAButtons,
			SectionIndex: i,
			SectionTitle: section.Title,
		})

		nodes := make([]models.MindMapNode, 0, len(section.Content))
		for _, line := range section.Content {
			nodes = append(nodes, models.MindMapNode{
				Name: firstWords(line, 6),
				Children: []models.MindMapNode{
					{Name: firstWords(line, 12)},
				},
			})
		}
		content.MindMaps.MindMaps = append(content.MindMaps.MindMaps, models.MindMap{
			Title:        section.Title,
			Nodes:        nodes,
			SectionIndex: i,
			SectionTitle: section.Title,
		})

		content.Questions.Prelims = append(content.Questions.Prelims, models.PrelimsQuestion{
			Question: "With reference to " + section.Title + ", consider the key development reported. Which statement is correct?",
			Options: models.QuestionOptions{
				A: section.Content[0],
				B: "The proposal was withdrawn before consideration",
				C: "The matter is pending before a constitutional bench",
				D: "No official position has been published",
			},
			CorrectAnswer: "a",
			Explanation:   section.Content[0],
			GSPaper:       gsPapers[i],
			Year:          "2026",
			SectionIndex:  i,
			SectionTitle:  section.Title,
		})
		content.Questions.Mains = append(content.Questions.Mains, models.MainsQuestion{
			Question:     "Critically examine the implications of the developments concerning " + section.Title + ".",
			Type:         "15 marks",
			GSPaper:      gsPapers[i],
			Year:         "2026",
			KeyPoints:    section.Content,
			SectionIndex: i,
			SectionTitle: section.Title,
		})
	}

	return content
}

// firstWords truncates a sentence to n words for mind map node labels
func firstWords(s string, n int) string {
	count := 0
	for i, r := range s {
		if r == ' ' {
			count++
			if count == n {
				return s[:i]
			}
		}
	}
	return s
}
