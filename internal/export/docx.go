package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/planreport/internal/notes"
	"github.com/dgallion1/planreport/internal/plan"
)

const headerShade = "E5E7EB"

// DOCX writes p as a Word document: title block, summary table, bucket
// table and the advisor's notes. Section titles use the Heading1 style so
// the document can be read back by the notes parser.
func DOCX(w io.Writer, p plan.Plan) error {
	d := plan.Compute(p.Data)
	doc := docx.New().WithDefaultTheme()

	doc.AddParagraph().Justification("center").AddText("Retirement Income Plan").Bold().Size("36")
	if p.Name != "" {
		doc.AddParagraph().Justification("center").AddText(p.Name).Size("28")
	}
	doc.AddParagraph().Justification("center").AddText("Prepared for " + p.ClientName)
	if p.CompanyName != "" {
		doc.AddParagraph().Justification("center").AddText("Prepared by " + p.CompanyName).Color("6B7280")
	}

	heading(doc, 1, "Summary")
	fields := summaryFields(d)
	rows := make([][]string, len(fields))
	for i, f := range fields {
		rows[i] = []string{f.Label, f.String()}
	}
	table(doc, nil, rows)

	heading(doc, 1, "Buckets")
	if len(d.Buckets) == 0 {
		doc.AddParagraph().AddText("No income buckets defined.")
	} else {
		rows = rows[:0]
		for i, fields := range bucketFields(d) {
			row := []string{bucketName(i, d.Buckets[i])}
			for _, f := range fields {
				row = append(row, f.String())
			}
			rows = append(rows, row)
		}
		table(doc, bucketHeader, rows)
	}

	if err := docxNotes(doc, d); err != nil {
		return err
	}

	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}

func heading(doc *docx.Docx, level int, text string) {
	doc.AddParagraph().Style(fmt.Sprintf("Heading%d", level)).AddText(text).Bold()
}

// table adds a bordered table; a nil header adds no header row.
func table(doc *docx.Docx, header []string, rows [][]string) {
	cols := len(header)
	for _, r := range rows {
		if len(r) > cols {
			cols = len(r)
		}
	}
	if cols == 0 {
		return
	}
	offset := 0
	if header != nil {
		offset = 1
	}
	tbl := doc.AddTable(len(rows)+offset, cols, 0, nil)
	if header != nil {
		for j, h := range header {
			c := tbl.TableRows[0].TableCells[j]
			c.Shade("clear", "auto", headerShade)
			c.AddParagraph().AddText(h).Bold()
		}
	}
	for i, r := range rows {
		for j := 0; j < cols; j++ {
			text := ""
			if j < len(r) {
				text = r[j]
			}
			tbl.TableRows[i+offset].TableCells[j].AddParagraph().AddText(text)
		}
	}
}

func docxNotes(doc *docx.Docx, d plan.Data) error {
	text := strings.TrimSpace(d.Notes)
	if text == "" {
		return nil
	}
	blocks, err := notes.Blocks(text, d.NotesFormat)
	if err != nil {
		return fmt.Errorf("notes: %w", err)
	}

	heading(doc, 1, "Advisor Notes")
	for _, b := range blocks {
		switch b.Kind {
		case notes.BlockHeading:
			level := b.Level + 1
			if level > 6 {
				level = 6
			}
			heading(doc, level, b.Text)
		case notes.BlockParagraph:
			doc.AddParagraph().AddText(b.Text)
		case notes.BlockTable:
			if len(b.Rows) > 0 {
				table(doc, b.Rows[0], b.Rows[1:])
			}
		}
	}
	return nil
}
