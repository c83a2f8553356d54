package layout

import (
	"image"
	"io"
)

// Color is an 8-bit RGB triple.
type Color struct {
	R, G, B uint8
}

// Align is horizontal text alignment inside a cell.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Font styles understood by Canvas.SetFont.
const (
	StyleRegular = ""
	StyleBold    = "B"
	StyleItalic  = "I"
)

// Canvas is the drawing surface a Document lays out onto. Coordinates are
// in document units with the origin at the top-left of the current page.
type Canvas interface {
	AddPage()
	SetPage(n int)
	PageCount() int

	SetFont(style string, size float64)
	SetTextColor(c Color)
	SetFillColor(c Color)
	SetDrawColor(c Color)

	FillRect(x, y, w, h float64)
	Line(x1, y1, x2, y2 float64)

	// Cell draws a single line of text inside the box (x, y, w, h).
	Cell(x, y, w, h float64, text string, align Align)
	// SplitText wraps text into lines that fit width w with the current font.
	SplitText(text string, w float64) []string
	StringWidth(text string) float64

	// Image draws img scaled into the box (x, y, w, h).
	Image(img image.Image, x, y, w, h float64) error

	Output(w io.Writer) error
}
