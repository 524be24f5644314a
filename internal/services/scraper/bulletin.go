package scraper

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/studium/internal/common"
	"github.com/ternarybob/studium/internal/models"
)

// BulletinSource reads current affairs bulletins dropped into a local
// directory as <date-key>.pdf and extracts their text with pdfcpu.
type BulletinSource struct {
	dir    string
	logger arbor.ILogger
}

// NewBulletinSource creates the PDF bulletin source.
func NewBulletinSource(config *common.BulletinConfig, logger arbor.ILogger) *BulletinSource {
	return &BulletinSource{
		dir:    config.Dir,
		logger: logger,
	}
}

// Name returns the source name.
func (s *BulletinSource) Name() string {
	return "bulletin"
}

// Fetch extracts the bulletin PDF for a date key.
func (s *BulletinSource) Fetch(ctx context.Context, dateKey string) (*models.ScrapedArticle, error) {
	path := filepath.Join(s.dir, dateKey+".pdf")
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("no bulletin for date %s: %w", dateKey, err)
	}

	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bulletin PDF: %w", err)
	}
	pageCount := pdfCtx.PageCount

	outDir, err := os.MkdirTemp("", "studium-bulletin-")
	if err != nil {
		return nil, fmt.Errorf("failed to create extraction dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractContentFile(path, outDir, nil, conf); err != nil {
		return nil, fmt.Errorf("failed to extract bulletin content: %w", err)
	}

	pageTexts := make(map[int]string)
	files, _ := os.ReadDir(outDir)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		content, err := os.ReadFile(filepath.Join(outDir, file.Name()))
		if err != nil {
			continue
		}

		var pageNum int
		if _, err := fmt.Sscanf(file.Name(), "page_%d", &pageNum); err != nil {
			if _, err := fmt.Sscanf(file.Name(), "Content_page_%d", &pageNum); err != nil {
				continue
			}
		}
		pageTexts[pageNum] = extractTextRuns(string(content))
	}

	var pages []string
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		if text := strings.TrimSpace(pageTexts[pageNum]); text != "" {
			pages = append(pages, text)
		}
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("no text extracted from bulletin for date %s", dateKey)
	}

	s.logger.Info().
		Str("date", dateKey).
		Int("pages", len(pages)).
		Msg("Bulletin PDF extracted")

	body := strings.Join(pages, "\n\n")
	return &models.ScrapedArticle{
		Source:   s.Name(),
		URL:      "file://" + path,
		Title:    fmt.Sprintf("Current Affairs Bulletin %s", dateKey),
		Body:     body,
		Markdown: body,
	}, nil
}

// textShowRegex matches the string arguments of Tj and TJ show-text operators.
var textShowRegex = regexp.MustCompile(`\(((?:\\\(|\\\)|\\\\|[^()])*)\)\s*(?:Tj|TJ)|\[((?:\((?:\\\(|\\\)|\\\\|[^()])*\)|[^\[\]])*)\]\s*TJ`)

// pdfStringRegex matches individual literal strings inside a TJ array.
var pdfStringRegex = regexp.MustCompile(`\(((?:\\\(|\\\)|\\\\|[^()])*)\)`)

// extractTextRuns pulls the show-text runs out of a raw content stream.
// Streams without recognizable runs are returned as-is.
func extractTextRuns(content string) string {
	matches := textShowRegex.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return content
	}

	var runs []string
	for _, match := range matches {
		if match[1] != "" {
			runs = append(runs, unescapePDFString(match[1]))
			continue
		}
		// TJ array: concatenate its literal strings, dropping kerning numbers
		var parts []string
		for _, inner := range pdfStringRegex.FindAllStringSubmatch(match[2], -1) {
			parts = append(parts, unescapePDFString(inner[1]))
		}
		if len(parts) > 0 {
			runs = append(runs, strings.Join(parts, ""))
		}
	}

	return strings.Join(runs, "\n")
}

// unescapePDFString resolves the escape sequences of PDF literal strings.
func unescapePDFString(s string) string {
	replacer := strings.NewReplacer(`\(`, "(", `\)`, ")", `\\`, `\`)
	return replacer.Replace(s)
}
