package layout

// Theme is the palette used by a Document.
type Theme struct {
	Primary       Color // section header bars
	HeaderText    Color
	Text          Color
	Muted         Color
	HeaderRowFill Color
	HeaderRowText Color
	RowFill       Color
	Rule          Color
}

// DefaultTheme is a navy-on-white print palette.
func DefaultTheme() Theme {
	return Theme{
		Primary:       Color{30, 58, 138},
		HeaderText:    Color{255, 255, 255},
		Text:          Color{17, 24, 39},
		Muted:         Color{107, 114, 128},
		HeaderRowFill: Color{229, 231, 235},
		HeaderRowText: Color{17, 24, 39},
		RowFill:       Color{249, 250, 251},
		Rule:          Color{209, 213, 219},
	}
}

// Document is the layout state for one generated report: the canvas it
// draws on plus a cursor. Every block-drawing method runs Ensure with the
// block's height before it draws.
type Document struct {
	c     Canvas
	geo   Geometry
	theme Theme

	y    float64
	page int
}

// New starts a document on its first page with the cursor at the top margin.
func New(c Canvas, geo Geometry, theme Theme) *Document {
	d := &Document{c: c, geo: geo, theme: theme}
	d.PageBreak()
	return d
}

func (d *Document) Canvas() Canvas     { return d.c }
func (d *Document) Geometry() Geometry { return d.geo }
func (d *Document) Theme() Theme       { return d.theme }

// Y is the cursor's vertical position on the current page.
func (d *Document) Y() float64 { return d.y }

// Page is the 1-based index of the current page.
func (d *Document) Page() int { return d.page }

// Remaining is the vertical space left above MaxContentHeight.
func (d *Document) Remaining() float64 {
	return d.geo.MaxContentHeight() - d.y
}

// PageBreak starts a new page and resets the cursor to the top margin.
func (d *Document) PageBreak() {
	d.c.AddPage()
	d.page++
	d.y = d.geo.Margin
}

// Ensure breaks the page when a block of height h would cross
// MaxContentHeight. A block that is taller than a whole page is moved to a
// fresh page once and then allowed to overflow. Reports whether it broke.
func (d *Document) Ensure(h float64) bool {
	if d.y+h <= d.geo.MaxContentHeight() {
		return false
	}
	if d.y <= d.geo.Margin {
		return false
	}
	d.PageBreak()
	return true
}

// Space advances the cursor by h, stopping at MaxContentHeight so the next
// block's Ensure breaks the page rather than the gap itself.
func (d *Document) Space(h float64) float64 {
	d.y += h
	if limit := d.geo.MaxContentHeight(); d.y > limit {
		d.y = limit
	}
	return d.y
}

// TextOptions controls Paragraph.
type TextOptions struct {
	Size       float64
	Style      string
	Color      *Color
	Align      Align
	LineHeight float64
	Indent     float64
}

// Paragraph wraps text to the content width (less Indent) and draws it line
// by line, so a long paragraph continues onto following pages.
func (d *Document) Paragraph(text string, opts TextOptions) float64 {
	size := opts.Size
	if size <= 0 {
		size = BodyFontSize
	}
	lh := opts.LineHeight
	if lh <= 0 {
		lh = LineHeight
	}
	col := d.theme.Text
	if opts.Color != nil {
		col = *opts.Color
	}

	x := d.geo.Margin + opts.Indent
	w := d.geo.Right() - x
	if w <= 0 {
		return d.y
	}

	d.c.SetFont(opts.Style, size)
	d.c.SetTextColor(col)
	for _, line := range d.c.SplitText(text, w) {
		if d.Ensure(lh) {
			d.c.SetFont(opts.Style, size)
			d.c.SetTextColor(col)
		}
		d.c.Cell(x, d.y, w, lh, line, opts.Align)
		d.y += lh
	}
	return d.y
}

// Footers draws a footer on every page once the body is complete. fn
// returns the left and right footer texts for a page.
func (d *Document) Footers(fn func(page, total int) (left, right string)) {
	total := d.c.PageCount()
	top := d.geo.MaxContentHeight()
	textY := top + (d.geo.FooterHeight-LineHeight)/2
	half := d.geo.ContentWidth() / 2

	for p := 1; p <= total; p++ {
		d.c.SetPage(p)
		left, right := fn(p, total)
		d.c.SetDrawColor(d.theme.Rule)
		d.c.Line(d.geo.Margin, top+1, d.geo.Right(), top+1)
		d.c.SetFont(StyleRegular, 8)
		d.c.SetTextColor(d.theme.Muted)
		d.c.Cell(d.geo.Margin, textY, half, LineHeight, left, AlignLeft)
		d.c.Cell(d.geo.Margin+half, textY, half, LineHeight, right, AlignRight)
	}
	if total > 0 {
		d.c.SetPage(total)
	}
}
