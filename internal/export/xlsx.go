package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/dgallion1/planreport/internal/plan"
)

// Sheet names in the exported workbook.
const (
	SheetSummary    = "Summary"
	SheetBuckets    = "Buckets"
	SheetProjection = "Projection"
)

type xlsxStyles struct {
	header, bold, money, percent int
}

// XLSX writes p as a workbook with Summary, Buckets and Projection sheets.
// Figures are stored as numbers; totals are formulas.
func XLSX(w io.Writer, p plan.Plan) error {
	d := plan.Compute(p.Data)

	f := excelize.NewFile()
	defer f.Close()

	st, err := newXLSXStyles(f)
	if err != nil {
		return err
	}
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   p.Name,
		Subject: "Retirement Income Plan",
		Creator: p.CompanyName,
	}); err != nil {
		return fmt.Errorf("set properties: %w", err)
	}

	if err := writeSummary(f, st, p, d); err != nil {
		return err
	}
	if err := writeBuckets(f, st, d); err != nil {
		return err
	}
	if err := writeProjection(f, st, d); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func newXLSXStyles(f *excelize.File) (xlsxStyles, error) {
	var st xlsxStyles
	var err error
	moneyFmt := `"$"#,##0.00`
	pctFmt := `0.00"%"`

	if st.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1E3A8A"}},
	}); err != nil {
		return st, fmt.Errorf("header style: %w", err)
	}
	if st.bold, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, CustomNumFmt: &moneyFmt}); err != nil {
		return st, fmt.Errorf("bold style: %w", err)
	}
	if st.money, err = f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt}); err != nil {
		return st, fmt.Errorf("money style: %w", err)
	}
	if st.percent, err = f.NewStyle(&excelize.Style{CustomNumFmt: &pctFmt}); err != nil {
		return st, fmt.Errorf("percent style: %w", err)
	}
	return st, nil
}

func (st xlsxStyles) forKind(k kind) int {
	switch k {
	case money:
		return st.money
	case percent:
		return st.percent
	default:
		return 0
	}
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// setRow writes values starting at column 1 of row.
func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	if err := f.SetSheetRow(sheet, cell(1, row), &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func header(f *excelize.File, st xlsxStyles, sheet string, cols []string) error {
	values := make([]interface{}, len(cols))
	for i, c := range cols {
		values[i] = c
	}
	if err := setRow(f, sheet, 1, values); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, cell(1, 1), cell(len(cols), 1), st.header); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func writeSummary(f *excelize.File, st xlsxStyles, p plan.Plan, d plan.Data) error {
	rows := [][]interface{}{
		{"Client", p.ClientName},
		{"Plan", p.Name},
	}
	if p.CompanyName != "" {
		rows = append(rows, []interface{}{"Prepared by", p.CompanyName})
	}
	for i, r := range rows {
		if err := setRow(f, SheetSummary, i+1, r); err != nil {
			return err
		}
	}

	row := len(rows) + 2
	for _, fld := range summaryFields(d) {
		if err := setRow(f, SheetSummary, row, []interface{}{fld.Label, fld.Value}); err != nil {
			return err
		}
		if s := st.forKind(fld.Kind); s != 0 {
			if err := f.SetCellStyle(SheetSummary, cell(2, row), cell(2, row), s); err != nil {
				return err
			}
		}
		row++
	}
	return f.SetColWidth(SheetSummary, "A", "A", 28)
}

func writeBuckets(f *excelize.File, st xlsxStyles, d plan.Data) error {
	if _, err := f.NewSheet(SheetBuckets); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if err := header(f, st, SheetBuckets, bucketHeader); err != nil {
		return err
	}

	for i, fields := range bucketFields(d) {
		row := i + 2
		values := []interface{}{bucketName(i, d.Buckets[i])}
		for _, fld := range fields {
			values = append(values, fld.Value)
		}
		if err := setRow(f, SheetBuckets, row, values); err != nil {
			return err
		}
		for j, fld := range fields {
			if s := st.forKind(fld.Kind); s != 0 {
				c := cell(j+2, row)
				if err := f.SetCellStyle(SheetBuckets, c, c, s); err != nil {
					return err
				}
			}
		}
	}

	// Totals row: sums of the money columns.
	last := len(d.Buckets) + 1
	total := last + 1
	if err := f.SetCellValue(SheetBuckets, cell(1, total), "Total"); err != nil {
		return err
	}
	for _, col := range []int{2, 3, 7, 8, 9, 10} {
		formula := "0"
		if last >= 2 {
			formula = fmt.Sprintf("SUM(%s:%s)", cell(col, 2), cell(col, last))
		}
		if err := f.SetCellFormula(SheetBuckets, cell(col, total), formula); err != nil {
			return fmt.Errorf("totals formula: %w", err)
		}
	}
	if err := f.SetCellStyle(SheetBuckets, cell(1, total), cell(len(bucketHeader), total), st.bold); err != nil {
		return err
	}
	return f.SetColWidth(SheetBuckets, "A", "A", 24)
}

func writeProjection(f *excelize.File, st xlsxStyles, d plan.Data) error {
	if _, err := f.NewSheet(SheetProjection); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	cols := []string{"Year"}
	for i, b := range d.Buckets {
		cols = append(cols, bucketName(i, b))
	}
	cols = append(cols, "Total")
	if err := header(f, st, SheetProjection, cols); err != nil {
		return err
	}

	tl := d.Timeline()
	for i, y := range tl.Years {
		row := i + 2
		values := []interface{}{y}
		var sum float64
		for _, balances := range tl.Balances {
			values = append(values, balances[i])
			sum += balances[i]
		}
		values = append(values, sum)
		if err := setRow(f, SheetProjection, row, values); err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetProjection, cell(2, row), cell(len(cols), row), st.money); err != nil {
			return err
		}
	}
	return nil
}
