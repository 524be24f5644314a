package digest

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/studium/internal/models"
)

func sampleContent() *models.DailyContent {
	return &models.DailyContent{
		Date: "21-08-2026",
		Sections: []models.Section{
			{
				Title:      "India-Nepal Energy Cooperation",
				Content:    []string{"Agreement on cross-border transmission", "Joint hydropower review"},
				Importance: models.ImportanceAbsolute,
			},
			{
				Title:      "Monsoon Session Highlights",
				Content:    []string{"Three bills passed"},
				Importance: models.ImportanceModerate,
			},
		},
		Cards: []models.Card{
			{
				Title:        "Cross-Border Power Trade",
				GS:           "GS2 (IR), GS3 (Energy)",
				Tags:         []string{"energy", "nepal", "diplomacy"},
				Summary:      "India and Nepal agreed to expand transmission capacity.",
				CTAButtons:   models.DefaultCTAButtons,
				SectionIndex: 0,
			},
			{
				Title:        "Legislative Business",
				Summary:      "Parliament cleared three bills in the monsoon session.",
				SectionIndex: 1,
			},
		},
		MindMaps: models.MindMapSet{MindMaps: []models.MindMap{
			{
				Title: "Energy Cooperation",
				Nodes: []models.MindMapNode{
					{Name: "Transmission", Children: []models.MindMapNode{
						{Name: "Cross-border lines"},
					}},
					{Name: "Hydropower"},
				},
				SectionIndex: 0,
			},
		}},
		Questions: models.QuestionSet{
			Prelims: []models.PrelimsQuestion{
				{
					Question:      "Which river basin anchors the agreement?",
					Options:       models.QuestionOptions{A: "Koshi", B: "Gandak", C: "Karnali", D: "Mahakali"},
					CorrectAnswer: "c",
					Explanation:   "The Karnali basin projects were named in the joint statement.",
					GSPaper:       "GS2",
					SectionIndex:  0,
				},
			},
			Mains: []models.MainsQuestion{
				{
					Question:     "Discuss the strategic significance of cross-border energy trade for India.",
					Type:         "15 marks",
					KeyPoints:    []string{"Neighbourhood first", "Grid integration"},
					SectionIndex: 0,
				},
			},
		},
		OverallReview: models.ReviewSummary{TotalIssues: 2, TotalCorrections: 1, AverageAccuracy: 0.91},
	}
}

func TestBuildMarkdown(t *testing.T) {
	service := NewService(arbor.NewLogger())
	md := service.BuildMarkdown(sampleContent())

	assert.Contains(t, md, "# Daily Current Affairs Digest - 21-08-2026")
	assert.Contains(t, md, "| 2 | 2 | 1 | 1 | 1 |")

	assert.Contains(t, md, "## Sections")
	assert.Contains(t, md, "### 1. India-Nepal Energy Cooperation")
	assert.Contains(t, md, "*Absolutely Important*")
	assert.Contains(t, md, "- Agreement on cross-border transmission")
	assert.Contains(t, md, "### 2. Monsoon Session Highlights")
	assert.Contains(t, md, "*Moderately Important*")

	assert.Contains(t, md, "## Recall Cards")
	assert.Contains(t, md, "### Cross-Border Power Trade")
	assert.Contains(t, md, "**GS2 (IR), GS3 (Energy) | energy, nepal, diplomacy**")
	assert.Contains(t, md, "India and Nepal agreed to expand transmission capacity.")

	assert.Contains(t, md, "## Mind Maps")
	assert.Contains(t, md, "- Transmission\n  - Cross-border lines\n- Hydropower")

	assert.Contains(t, md, "## Prelims Practice")
	assert.Contains(t, md, "**Q1.** Which river basin anchors the agreement?")
	assert.Contains(t, md, "- (c) Karnali")
	assert.Contains(t, md, "**Answer:** (c) The Karnali basin projects were named in the joint statement.")

	assert.Contains(t, md, "## Mains Practice")
	assert.Contains(t, md, "*(15 marks)*")
	assert.Contains(t, md, "- Neighbourhood first")

	assert.Contains(t, md, "## Review")
	assert.Contains(t, md, "2 issues found, 1 corrections applied, average accuracy 0.91")
}

func TestBuildMarkdownSparseRecord(t *testing.T) {
	service := NewService(arbor.NewLogger())

	md := service.BuildMarkdown(&models.DailyContent{Date: "01-01-2026"})

	assert.Contains(t, md, "# Daily Current Affairs Digest - 01-01-2026")
	assert.Contains(t, md, "| 0 | 0 | 0 | 0 | 0 |")
	assert.NotContains(t, md, "## Sections")
	assert.NotContains(t, md, "## Recall Cards")
	assert.NotContains(t, md, "## Review")
}

func TestBuildMarkdownCardWithoutGS(t *testing.T) {
	service := NewService(arbor.NewLogger())
	md := service.BuildMarkdown(sampleContent())

	// Tag-less, GS-less cards get no meta line at all
	heading := "### Legislative Business\n\n"
	idx := strings.Index(md, heading)
	require.GreaterOrEqual(t, idx, 0)
	body := md[idx+len(heading):]
	end := strings.Index(body, "#")
	require.Greater(t, end, 0)
	assert.NotContains(t, body[:end], "**")
}

func TestRenderPDF(t *testing.T) {
	service := NewService(arbor.NewLogger())

	tests := []struct {
		name    string
		content *models.DailyContent
	}{
		{name: "Full Record", content: sampleContent()},
		{name: "Empty Record", content: &models.DailyContent{Date: "01-01-2026"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pdfBytes, err := service.RenderPDF(context.Background(), tt.content)
			require.NoError(t, err)
			require.NotEmpty(t, pdfBytes)
			assert.Equal(t, "%PDF", string(pdfBytes[:4]))
		})
	}
}
