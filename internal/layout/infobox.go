package layout

// InfoBox draws a muted label and a bold value side by side and returns
// the y below the taller of the two plus InfoSpacing. labelWidth <= 0
// means DefaultLabelFraction of the content width; it is capped at
// MaxLabelFraction. The value takes the rest of the line, shrunk in place
// if it would cross the right margin.
func (d *Document) InfoBox(label, value string, labelWidth float64) float64 {
	cw := d.geo.ContentWidth()
	if labelWidth <= 0 {
		labelWidth = DefaultLabelFraction * cw
	}
	if labelWidth > MaxLabelFraction*cw {
		labelWidth = MaxLabelFraction * cw
	}

	labelX := d.geo.Margin
	valueX := labelX + labelWidth
	valueW := cw - labelWidth
	if valueX+valueW > d.geo.Right() {
		valueW = d.geo.Right() - valueX
	}
	if valueW < 0 {
		valueW = 0
	}

	d.c.SetFont(StyleRegular, BodyFontSize)
	labelLines := d.c.SplitText(label, labelWidth)
	d.c.SetFont(StyleBold, BodyFontSize)
	valueLines := d.c.SplitText(value, valueW)

	n := len(labelLines)
	if len(valueLines) > n {
		n = len(valueLines)
	}
	if n == 0 {
		n = 1
	}
	h := float64(n) * LineHeight
	d.Ensure(h + InfoSpacing)

	d.c.SetFont(StyleRegular, BodyFontSize)
	d.c.SetTextColor(d.theme.Muted)
	for i, line := range labelLines {
		d.c.Cell(labelX, d.y+float64(i)*LineHeight, labelWidth, LineHeight, line, AlignLeft)
	}
	d.c.SetFont(StyleBold, BodyFontSize)
	d.c.SetTextColor(d.theme.Text)
	for i, line := range valueLines {
		d.c.Cell(valueX, d.y+float64(i)*LineHeight, valueW, LineHeight, line, AlignLeft)
	}

	d.y += h + InfoSpacing
	return d.y
}
