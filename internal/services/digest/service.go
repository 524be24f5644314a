package digest

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/studium/internal/interfaces"
	"github.com/ternarybob/studium/internal/models"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Service renders a date's content record as a markdown study sheet and,
// from that, a printable PDF.
type Service struct {
	logger arbor.ILogger
}

var _ interfaces.DigestService = (*Service)(nil)

// NewService creates a new digest service
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		logger: logger,
	}
}

// BuildMarkdown renders the content record as a markdown digest
func (s *Service) BuildMarkdown(content *models.DailyContent) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Daily Current Affairs Digest - %s\n\n", content.Date)

	sections, cards, mindmaps, prelims, mains := content.Counts()
	b.WriteString("| Sections | Cards | Mind Maps | Prelims | Mains |\n")
	b.WriteString("|----------|-------|-----------|---------|-------|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d | %d |\n\n", sections, cards, mindmaps, prelims, mains)

	if len(content.Sections) > 0 {
		b.WriteString("## Sections\n\n")
		for i, section := range content.Sections {
			fmt.Fprintf(&b, "### %d. %s\n\n", i+1, section.Title)
			if label := importanceLabel(section.Importance); label != "" {
				fmt.Fprintf(&b, "*%s*\n\n", label)
			}
			for _, line := range section.Content {
				fmt.Fprintf(&b, "- %s\n", line)
			}
			b.WriteString("\n")
		}
	}

	if len(content.Cards) > 0 {
		b.WriteString("## Recall Cards\n\n")
		for _, card := range content.Cards {
			fmt.Fprintf(&b, "### %s\n\n", card.Title)
			meta := card.GS
			if len(card.Tags) > 0 {
				if meta != "" {
					meta += " | "
				}
				meta += strings.Join(card.Tags, ", ")
			}
			if meta != "" {
				fmt.Fprintf(&b, "**%s**\n\n", meta)
			}
			if card.Summary != "" {
				fmt.Fprintf(&b, "%s\n\n", card.Summary)
			}
		}
	}

	if len(content.MindMaps.MindMaps) > 0 {
		b.WriteString("## Mind Maps\n\n")
		for i := range content.MindMaps.MindMaps {
			m := &content.MindMaps.MindMaps[i]
			fmt.Fprintf(&b, "### %s\n\n", m.Title)
			for j := range m.Nodes {
				writeMindMapNode(&b, &m.Nodes[j], 0)
			}
			b.WriteString("\n")
		}
	}

	if len(content.Questions.Prelims) > 0 {
		b.WriteString("## Prelims Practice\n\n")
		for i, q := range content.Questions.Prelims {
			fmt.Fprintf(&b, "**Q%d.** %s\n\n", i+1, q.Question)
			fmt.Fprintf(&b, "- (a) %s\n- (b) %s\n- (c) %s\n- (d) %s\n\n",
				q.Options.A, q.Options.B, q.Options.C, q.Options.D)
			fmt.Fprintf(&b, "**Answer:** (%s)", q.CorrectAnswer)
			if q.Explanation != "" {
				fmt.Fprintf(&b, " %s", q.Explanation)
			}
			b.WriteString("\n\n")
		}
	}

	if len(content.Questions.Mains) > 0 {
		b.WriteString("## Mains Practice\n\n")
		for i, q := range content.Questions.Mains {
			fmt.Fprintf(&b, "**Q%d.** %s", i+1, q.Question)
			if q.Type != "" {
				fmt.Fprintf(&b, " *(%s)*", q.Type)
			}
			b.WriteString("\n\n")
			for _, point := range q.KeyPoints {
				fmt.Fprintf(&b, "- %s\n", point)
			}
			if len(q.KeyPoints) > 0 {
				b.WriteString("\n")
			}
		}
	}

	review := content.OverallReview
	if review.TotalIssues > 0 || review.TotalCorrections > 0 || review.AverageAccuracy > 0 {
		b.WriteString("## Review\n\n")
		fmt.Fprintf(&b, "%d issues found, %d corrections applied, average accuracy %.2f\n",
			review.TotalIssues, review.TotalCorrections, review.AverageAccuracy)
	}

	return b.String()
}

// RenderPDF renders the content record as a PDF digest
func (s *Service) RenderPDF(ctx context.Context, content *models.DailyContent) ([]byte, error) {
	markdown := s.BuildMarkdown(content)

	s.logger.Debug().
		Str("date", content.Date).
		Int("markdown_len", len(markdown)).
		Msg("Rendering digest PDF")

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)
	pdf.AddPage()
	pdf.SetFont("Arial", "", 9)

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	source := []byte(markdown)
	doc := md.Parser().Parse(text.NewReader(source))

	renderer := &pdfRenderer{
		pdf:    pdf,
		source: source,
		logger: s.logger,
		font:   "Arial",
		size:   9,
	}
	if err := renderer.render(doc); err != nil {
		s.logger.Error().Err(err).Str("date", content.Date).Msg("Failed to render digest PDF")
		return nil, fmt.Errorf("failed to render digest PDF: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write digest PDF: %w", err)
	}

	s.logger.Debug().Str("date", content.Date).Int("pdf_size", buf.Len()).Msg("Digest PDF generated")
	return buf.Bytes(), nil
}

func writeMindMapNode(b *strings.Builder, node *models.MindMapNode, depth int) {
	fmt.Fprintf(b, "%s- %s\n", strings.Repeat("  ", depth), node.Name)
	for i := range node.Children {
		writeMindMapNode(b, &node.Children[i], depth+1)
	}
}

func importanceLabel(importance string) string {
	switch importance {
	case models.ImportanceAbsolute:
		return "Absolutely Important"
	case models.ImportanceImportant:
		return "Important"
	case models.ImportanceModerate:
		return "Moderately Important"
	case "":
		return ""
	}
	return strings.ReplaceAll(importance, "_", " ")
}
