package layout

// RowOptions controls how TableRow draws a row.
type RowOptions struct {
	// Header draws the row with the header fill and bold text.
	Header bool
	// Shade fills the row background with the theme's row fill.
	Shade bool
	// Bold draws body text in bold, for totals rows.
	Bold bool
	// Width is the nominal table width; 0 means the content width.
	Width float64
	// Colors overrides the text color of individual cells, by index.
	Colors map[int]Color
}

// NormalizeWidths returns width fractions scaled to sum to 1. Negative
// fractions count as zero. When the count does not match n, or nothing is
// left to scale, every column gets an equal share.
func NormalizeWidths(widths []float64, n int) []float64 {
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	var sum float64
	if len(widths) == n {
		for _, w := range widths {
			if w > 0 {
				sum += w
			}
		}
	}
	if sum <= 0 {
		for i := range out {
			out[i] = 1 / float64(n)
		}
		return out
	}
	for i, w := range widths {
		if w > 0 {
			out[i] = w / sum
		}
	}
	return out
}

// RightAligned reports whether column i of n is right-aligned: the last
// column, and any interior column whose original fraction is below
// SmallColumnThreshold.
func RightAligned(i, n int, original float64) bool {
	if i == n-1 {
		return true
	}
	return i > 0 && original < SmallColumnThreshold
}

// rowLayout is a measured row: cell boxes, wrapped lines and height.
type rowLayout struct {
	xs, ws   []float64
	lines    [][]string
	original []float64
	width    float64
	height   float64
	style    string
}

func (d *Document) measureRow(cells []string, widths []float64, opts RowOptions) rowLayout {
	n := len(cells)
	original := widths
	if len(original) != n {
		original = NormalizeWidths(nil, n)
	}
	norm := NormalizeWidths(widths, n)

	tableW := opts.Width
	if tableW <= 0 || tableW > d.geo.ContentWidth() {
		tableW = d.geo.ContentWidth()
	}
	if physical := d.geo.PageWidth - 2*d.geo.Margin; tableW > physical {
		tableW = physical
	}

	style := StyleRegular
	if opts.Header || opts.Bold {
		style = StyleBold
	}
	d.c.SetFont(style, BodyFontSize)

	rl := rowLayout{
		xs:       make([]float64, n),
		ws:       make([]float64, n),
		lines:    make([][]string, n),
		original: original,
		style:    style,
	}
	right := d.geo.Right()
	maxLines := 1
	x := d.geo.Margin
	for i, text := range cells {
		w := norm[i] * tableW
		if x+w > right {
			w = right - x
		}
		if w < 0 {
			w = 0
		}
		rl.xs[i], rl.ws[i] = x, w
		rl.lines[i] = d.c.SplitText(text, w)
		if len(rl.lines[i]) > maxLines {
			maxLines = len(rl.lines[i])
		}
		x += w
	}
	rl.width = x - d.geo.Margin

	rl.height = float64(maxLines)*LineHeight + RowPadding
	if rl.height < RowHeight {
		rl.height = RowHeight
	}
	return rl
}

// TableRow draws one row of cells at the cursor and returns the y below it.
// widths are fractions of the table width, matched to cells by index. A row
// grows to fit its tallest wrapped cell; it is never truncated.
func (d *Document) TableRow(cells []string, widths []float64, opts RowOptions) float64 {
	if len(cells) == 0 {
		return d.y
	}
	rl := d.measureRow(cells, widths, opts)
	d.Ensure(rl.height)
	d.drawRow(rl, opts)
	return d.y
}

func (d *Document) drawRow(rl rowLayout, opts RowOptions) {
	n := len(rl.lines)
	switch {
	case opts.Header:
		d.c.SetFillColor(d.theme.HeaderRowFill)
		d.c.FillRect(d.geo.Margin, d.y, rl.width, rl.height)
	case opts.Shade:
		d.c.SetFillColor(d.theme.RowFill)
		d.c.FillRect(d.geo.Margin, d.y, rl.width, rl.height)
	}

	d.c.SetFont(rl.style, BodyFontSize)
	for i := 0; i < n; i++ {
		col := d.theme.Text
		if opts.Header {
			col = d.theme.HeaderRowText
		}
		if c, ok := opts.Colors[i]; ok {
			col = c
		}
		d.c.SetTextColor(col)

		align := AlignLeft
		if RightAligned(i, n, rl.original[i]) {
			align = AlignRight
		}
		ly := d.y + RowPadding/2
		for _, line := range rl.lines[i] {
			d.c.Cell(rl.xs[i], ly, rl.ws[i], LineHeight, line, align)
			ly += LineHeight
		}
	}

	d.c.SetDrawColor(d.theme.Rule)
	d.c.Line(d.geo.Margin, d.y+rl.height, d.geo.Margin+rl.width, d.y+rl.height)
	d.y += rl.height
}

// Table draws a header row followed by body rows with alternating shading.
// When a body row does not fit, the page breaks and the header is repeated
// above it.
func (d *Document) Table(header []string, rows [][]string, widths []float64) float64 {
	if len(header) > 0 {
		// Keep the header with at least the first row.
		first := RowHeight
		if len(rows) > 0 {
			first = d.measureRow(rows[0], widths, RowOptions{}).height
		}
		hl := d.measureRow(header, widths, RowOptions{Header: true})
		d.Ensure(hl.height + first)
		d.drawRow(hl, RowOptions{Header: true})
	}
	for i, row := range rows {
		opts := RowOptions{Shade: i%2 == 1}
		rl := d.measureRow(row, widths, opts)
		if d.Ensure(rl.height) && len(header) > 0 {
			hl := d.measureRow(header, widths, RowOptions{Header: true})
			d.drawRow(hl, RowOptions{Header: true})
			rl = d.measureRow(row, widths, opts)
		}
		d.drawRow(rl, opts)
	}
	return d.y
}
