package report

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/planreport/internal/layout"
	"github.com/dgallion1/planreport/internal/notes"
	"github.com/dgallion1/planreport/internal/plan"
)

// notes draws the advisor's notes after the charts. Notes that fail to
// parse are printed as plain paragraphs.
func (r *renderer) notes() {
	text := strings.TrimSpace(r.data.Notes)
	if text == "" {
		return
	}

	blocks, err := notes.Blocks(text, r.data.NotesFormat)
	if err != nil {
		r.log.Warn("notes parse failed, printing as text", "format", r.data.NotesFormat, "error", err)
		blocks, _ = notes.Blocks(text, plan.NotesText)
	}
	if len(blocks) == 0 {
		return
	}

	r.section("Advisor Notes")
	for _, b := range blocks {
		switch b.Kind {
		case notes.BlockHeading:
			size := layout.BodyFontSize + 1
			if b.Level == 1 {
				size = layout.HeaderFontSize
			}
			// Keep a heading with the first line below it.
			r.doc.Ensure(2 * layout.LineHeight)
			r.doc.Space(1)
			r.doc.Paragraph(b.Text, layout.TextOptions{Size: size, Style: layout.StyleBold, LineHeight: 6})
			r.doc.Space(1)
		case notes.BlockParagraph:
			indent := 0.0
			if strings.HasPrefix(b.Text, "- ") {
				indent = 4
			}
			r.doc.Paragraph(b.Text, layout.TextOptions{Indent: indent})
			r.doc.Space(2)
		case notes.BlockTable:
			if len(b.Rows) == 0 {
				continue
			}
			r.doc.Table(b.Rows[0], b.Rows[1:], notesWidths(b.Rows))
			r.doc.Space(2)
		}
	}
	r.end()
}

// notesWidths sizes a notes table by its longest cell per column. Text
// columns get at least layout.SmallColumnThreshold so they stay
// left-aligned however many columns there are; interior columns holding
// only numbers are kept under it so they right-align like the plan tables.
func notesWidths(rows [][]string) []float64 {
	if len(rows) == 0 {
		return nil
	}
	n := len(rows[0])
	longest := make([]float64, n)
	numeric := make([]bool, n)
	for i := range numeric {
		numeric[i] = len(rows) > 1
	}
	for r, row := range rows {
		for i := 0; i < n && i < len(row); i++ {
			if l := float64(utf8.RuneCountInString(row[i])); l > longest[i] {
				longest[i] = l
			}
			if r > 0 && !isNumberCell(row[i]) {
				numeric[i] = false
			}
		}
	}

	var sum float64
	for i := range longest {
		if longest[i] < 1 {
			longest[i] = 1
		}
		sum += longest[i]
	}
	const numericShare = layout.SmallColumnThreshold * 0.75
	widths := make([]float64, n)
	for i, l := range longest {
		w := l / sum
		switch {
		case numeric[i] && i > 0:
			w = min(w, numericShare)
		case w < layout.SmallColumnThreshold:
			w = layout.SmallColumnThreshold
		}
		widths[i] = w
	}
	return widths
}

// isNumberCell reports whether s reads as an amount, percentage or count.
// Empty cells count as numbers.
func isNumberCell(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	s = strings.NewReplacer("$", "", ",", "", "%", "", "+", "").Replace(s)
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
