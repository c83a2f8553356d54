// Package layout lays out report content onto fixed-size pages: section
// headers, table rows, label/value boxes and images, with a single
// pagination gate in front of every draw of known height.
package layout

// Geometry describes a page in document units (millimetres).
type Geometry struct {
	PageWidth    float64
	PageHeight   float64
	Margin       float64
	FooterHeight float64
}

// A4 returns portrait A4 with 20mm margins and a 15mm footer band.
func A4() Geometry {
	return Geometry{
		PageWidth:    210,
		PageHeight:   297,
		Margin:       20,
		FooterHeight: 15,
	}
}

// ContentWidth is the page width minus both side margins.
func (g Geometry) ContentWidth() float64 {
	return g.PageWidth - 2*g.Margin
}

// MaxContentHeight is the lowest y any body content may reach. The band
// below it, down to the bottom margin, belongs to the footer.
func (g Geometry) MaxContentHeight() float64 {
	return g.PageHeight - g.Margin - g.FooterHeight
}

// Right is the x coordinate of the right margin.
func (g Geometry) Right() float64 {
	return g.PageWidth - g.Margin
}

// Layout constants, in millimetres unless noted.
const (
	HeaderBarHeight = 8.0
	HeaderPadding   = 4.0
	RowHeight       = 7.0
	LineHeight      = 5.0
	RowPadding      = 2.0
	InfoSpacing     = 2.0
	ImageSpacing    = 4.0

	// DefaultLabelFraction is the info-box label column as a share of content width.
	DefaultLabelFraction = 0.4
	// MaxLabelFraction caps the label column.
	MaxLabelFraction = 0.5
	// SmallColumnThreshold marks interior columns narrow enough to be treated as numeric.
	SmallColumnThreshold = 0.2

	BodyFontSize   = 10.0 // points
	HeaderFontSize = 12.0 // points
)
