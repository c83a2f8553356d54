package notes

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// MaxCSVRows caps how many data rows of a CSV attachment are kept.
const MaxCSVRows = 500

// CSVParser handles CSV notes as a single table.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, name string) (*Tree, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	tree := &Tree{Title: strings.TrimSuffix(name, ".csv")}
	if len(records) == 0 {
		return tree, nil
	}
	if len(records) > MaxCSVRows+1 {
		records = records[:MaxCSVRows+1]
	}

	// Pad ragged rows to the header width.
	width := len(records[0])
	for i, row := range records {
		if len(row) < width {
			records[i] = append(row, make([]string, width-len(row))...)
		} else if len(row) > width {
			records[i] = row[:width]
		}
	}
	tree.Children = []*Node{{Rows: records}}
	return tree, nil
}
