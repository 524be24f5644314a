package digest

import (
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// pdfRenderer walks a goldmark AST and draws it onto fpdf pages.
// Inline state (bold/italic/list level) is tracked across enter/exit calls.
type pdfRenderer struct {
	pdf       *fpdf.Fpdf
	source    []byte
	logger    arbor.ILogger
	font      string
	size      float64
	bold      bool
	italic    bool
	inList    bool
	listLevel int
}

func (r *pdfRenderer) render(node ast.Node) error {
	return ast.Walk(node, r.walk)
}

func (r *pdfRenderer) updateFont() {
	style := ""
	if r.bold {
		style += "B"
	}
	if r.italic {
		style += "I"
	}
	r.pdf.SetFont(r.font, style, r.size)
}

func (r *pdfRenderer) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch n.Kind() {
	case ast.KindHeading:
		return r.handleHeading(n.(*ast.Heading), entering)
	case ast.KindParagraph:
		return r.handleParagraph(entering)
	case ast.KindText:
		return r.handleText(n.(*ast.Text), entering)
	case ast.KindEmphasis:
		return r.handleEmphasis(n.(*ast.Emphasis), entering)
	case ast.KindCodeSpan:
		return r.handleCodeSpan(n.(*ast.CodeSpan), entering)
	case ast.KindFencedCodeBlock:
		if entering {
			r.renderCodeBlock(n.(*ast.FencedCodeBlock).Lines())
			return ast.WalkSkipChildren, nil
		}
	case ast.KindCodeBlock:
		if entering {
			r.renderCodeBlock(n.(*ast.CodeBlock).Lines())
			return ast.WalkSkipChildren, nil
		}
	case ast.KindList:
		return r.handleList(entering)
	case ast.KindListItem:
		return r.handleListItem(entering)
	case ast.KindThematicBreak:
		if entering {
			r.pdf.Ln(2)
			r.pdf.Line(15, r.pdf.GetY(), 195, r.pdf.GetY())
			r.pdf.Ln(2)
		}
	case extast.KindTable:
		return r.handleTable(n.(*extast.Table), entering)
	}
	return ast.WalkContinue, nil
}

func (r *pdfRenderer) handleHeading(n *ast.Heading, entering bool) (ast.WalkStatus, error) {
	if entering {
		r.pdf.Ln(6)
		size := 10.0
		switch n.Level {
		case 1:
			size = 14
		case 2:
			size = 12
		case 3:
			size = 11
		}
		r.pdf.SetFont(r.font, "B", size)
	} else {
		r.pdf.Ln(6)
		r.updateFont()
	}
	return ast.WalkContinue, nil
}

func (r *pdfRenderer) handleParagraph(entering bool) (ast.WalkStatus, error) {
	if !entering {
		r.pdf.Ln(6)
	}
	return ast.WalkContinue, nil
}

func (r *pdfRenderer) handleText(n *ast.Text, entering bool) (ast.WalkStatus, error) {
	if entering {
		r.pdf.Write(5, string(n.Segment.Value(r.source)))
		if n.SoftLineBreak() {
			r.pdf.Write(5, " ")
		}
	}
	return ast.WalkContinue, nil
}

func (r *pdfRenderer) handleEmphasis(n *ast.Emphasis, entering bool) (ast.WalkStatus, error) {
	if n.Level == 2 {
		r.bold = entering
	} else {
		r.italic = entering
	}
	r.updateFont()
	return ast.WalkContinue, nil
}

func (r *pdfRenderer) handleCodeSpan(n *ast.CodeSpan, entering bool) (ast.WalkStatus, error) {
	if entering {
		r.pdf.SetFont("Courier", "", r.size)
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if textNode, ok := c.(*ast.Text); ok {
				r.pdf.Write(5, string(textNode.Segment.Value(r.source)))
			}
		}
	} else {
		r.updateFont()
	}
	return ast.WalkSkipChildren, nil
}

func (r *pdfRenderer) renderCodeBlock(lines *text.Segments) {
	r.pdf.Ln(2)
	r.pdf.SetFont("Courier", "", r.size)
	r.pdf.SetFillColor(245, 245, 245)
	for i := 0; i < lines.Len(); i++ {
		r.pdf.MultiCell(0, 5, string(lines.At(i).Value(r.source)), "", "L", true)
	}
	r.pdf.SetFillColor(255, 255, 255)
	r.updateFont()
	r.pdf.Ln(2)
}

func (r *pdfRenderer) handleList(entering bool) (ast.WalkStatus, error) {
	if entering {
		r.inList = true
		r.listLevel++
	} else {
		r.listLevel--
		if r.listLevel == 0 {
			r.inList = false
			r.pdf.Ln(2)
		}
	}
	return ast.WalkContinue, nil
}

func (r *pdfRenderer) handleListItem(entering bool) (ast.WalkStatus, error) {
	if entering {
		r.pdf.Ln(5)
		indent := float64(r.listLevel) * 5.0
		r.pdf.SetX(10 + indent)
		r.pdf.Write(5, "- ")
	}
	return ast.WalkContinue, nil
}

// handleTable collects header and body rows, then draws them as a bordered
// grid. TableHeader carries its cells directly, TableRows carry theirs.
func (r *pdfRenderer) handleTable(n *extast.Table, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	var rows [][]string
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch child.(type) {
		case *extast.TableHeader, *extast.TableRow:
			rows = append(rows, r.tableCells(child))
		}
	}
	r.renderTable(rows)
	return ast.WalkSkipChildren, nil
}

func (r *pdfRenderer) tableCells(row ast.Node) []string {
	var cells []string
	for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
		if _, ok := cell.(*extast.TableCell); ok {
			cells = append(cells, nodeText(cell, r.source))
		}
	}
	return cells
}

func (r *pdfRenderer) renderTable(rows [][]string) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}
	numCols := len(rows[0])
	pageWidth := 180.0
	fontSize := 8.0
	lineHeight := 5.0

	widths := r.tableColumnWidths(rows, numCols, pageWidth, fontSize)

	r.pdf.Ln(2)
	for i, row := range rows {
		if i == 0 {
			r.pdf.SetFont(r.font, "B", fontSize)
			r.pdf.SetFillColor(230, 230, 230)
		} else {
			r.pdf.SetFont(r.font, "", fontSize)
			r.pdf.SetFillColor(255, 255, 255)
		}
		for j := 0; j < numCols; j++ {
			cell := ""
			if j < len(row) {
				cell = row[j]
			}
			cell = r.truncateToWidth(cell, widths[j]-2)
			r.pdf.CellFormat(widths[j], lineHeight, cell, "1", 0, "L", i == 0, 0, "")
		}
		r.pdf.Ln(-1)
	}
	r.pdf.Ln(3)
	r.updateFont()
}

// tableColumnWidths measures every cell at the bold header font and clamps
// the result so the table never runs off the page.
func (r *pdfRenderer) tableColumnWidths(rows [][]string, numCols int, pageWidth, fontSize float64) []float64 {
	widths := make([]float64, numCols)
	r.pdf.SetFont(r.font, "B", fontSize)
	for _, row := range rows {
		for j, cell := range row {
			if j >= numCols {
				continue
			}
			if w := r.pdf.GetStringWidth(cell) + 4; w > widths[j] {
				widths[j] = w
			}
		}
	}
	const minWidth = 12.0
	for j := range widths {
		if widths[j] < minWidth {
			widths[j] = minWidth
		}
	}
	total := 0.0
	for _, w := range widths {
		total += w
	}
	if total > pageWidth {
		scale := pageWidth / total
		for j := range widths {
			widths[j] *= scale
		}
	}
	return widths
}

func (r *pdfRenderer) truncateToWidth(s string, width float64) string {
	if width <= 0 || r.pdf.GetStringWidth(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 1 && r.pdf.GetStringWidth(string(runes)+"...") > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

// nodeText flattens the text content of a node and its descendants
func nodeText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if t, ok := c.(*ast.Text); ok {
				sb.Write(t.Segment.Value(source))
			}
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}
