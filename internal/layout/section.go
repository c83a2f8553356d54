package layout

// SectionHeader draws a filled title bar at the cursor and returns the y
// just below it. width <= 0 means the content width; wider values are
// clamped so the bar never leaves the page. The header is never split: when
// the bar and its padding do not fit, the page breaks first. Titles that
// wrap are truncated to their first line.
func (d *Document) SectionHeader(title string, width float64) float64 {
	d.Ensure(HeaderBarHeight + HeaderPadding)

	maxW := d.geo.Right() - d.geo.Margin
	if width <= 0 || width > d.geo.ContentWidth() {
		width = d.geo.ContentWidth()
	}
	if width > maxW {
		width = maxW
	}

	d.c.SetFillColor(d.theme.Primary)
	d.c.FillRect(d.geo.Margin, d.y, width, HeaderBarHeight)

	d.c.SetFont(StyleBold, HeaderFontSize)
	d.c.SetTextColor(d.theme.HeaderText)
	lines := d.c.SplitText(title, width)
	if len(lines) > 0 {
		d.c.Cell(d.geo.Margin, d.y, width, HeaderBarHeight, lines[0], AlignLeft)
	}

	d.y += HeaderBarHeight + HeaderPadding
	return d.y
}
