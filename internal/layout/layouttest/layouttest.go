// Package layouttest provides canvases for testing layout code: a
// monospace fake with predictable metrics and a recorder that captures the
// geometry of every draw call made on any canvas.
package layouttest

import (
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/dgallion1/planreport/internal/layout"
)

// OpKind names a recorded draw call.
type OpKind string

const (
	OpPage  OpKind = "page"
	OpRect  OpKind = "rect"
	OpLine  OpKind = "line"
	OpCell  OpKind = "cell"
	OpImage OpKind = "image"
)

// Op is one recorded draw call. For lines X,Y is the start and W,H the
// offset to the end point.
type Op struct {
	Kind  OpKind
	Page  int
	X, Y  float64
	W, H  float64
	Text  string
	Align layout.Align
	Style string
}

// Right is the op's largest x extent.
func (o Op) Right() float64 {
	if o.W < 0 {
		return o.X
	}
	return o.X + o.W
}

// Recorder wraps a canvas and records every draw call.
type Recorder struct {
	layout.Canvas
	Ops   []Op
	page  int
	style string

	// FailImages makes Image return an error without drawing.
	FailImages bool
}

// Record wraps c.
func Record(c layout.Canvas) *Recorder {
	return &Recorder{Canvas: c}
}

// NewFake returns a recorder over a monospace canvas whose glyphs are all
// 2mm wide at 10pt.
func NewFake() *Recorder {
	return Record(&Mono{CharWidth: 2})
}

func (r *Recorder) AddPage() {
	r.Canvas.AddPage()
	r.page = r.Canvas.PageCount()
	r.Ops = append(r.Ops, Op{Kind: OpPage, Page: r.page})
}

func (r *Recorder) SetPage(n int) {
	r.Canvas.SetPage(n)
	r.page = n
}

func (r *Recorder) SetFont(style string, size float64) {
	r.style = style
	r.Canvas.SetFont(style, size)
}

func (r *Recorder) FillRect(x, y, w, h float64) {
	r.Ops = append(r.Ops, Op{Kind: OpRect, Page: r.page, X: x, Y: y, W: w, H: h})
	r.Canvas.FillRect(x, y, w, h)
}

func (r *Recorder) Line(x1, y1, x2, y2 float64) {
	r.Ops = append(r.Ops, Op{Kind: OpLine, Page: r.page, X: x1, Y: y1, W: x2 - x1, H: y2 - y1})
	r.Canvas.Line(x1, y1, x2, y2)
}

func (r *Recorder) Cell(x, y, w, h float64, text string, align layout.Align) {
	r.Ops = append(r.Ops, Op{Kind: OpCell, Page: r.page, X: x, Y: y, W: w, H: h, Text: text, Align: align, Style: r.style})
	r.Canvas.Cell(x, y, w, h, text, align)
}

func (r *Recorder) Image(img image.Image, x, y, w, h float64) error {
	if r.FailImages {
		return fmt.Errorf("image rejected")
	}
	r.Ops = append(r.Ops, Op{Kind: OpImage, Page: r.page, X: x, Y: y, W: w, H: h})
	return r.Canvas.Image(img, x, y, w, h)
}

// Kind returns the recorded ops of one kind.
func (r *Recorder) Kind(k OpKind) []Op {
	var out []Op
	for _, op := range r.Ops {
		if op.Kind == k {
			out = append(out, op)
		}
	}
	return out
}

// Texts returns the text of every recorded cell, in draw order.
func (r *Recorder) Texts() []string {
	var out []string
	for _, op := range r.Kind(OpCell) {
		out = append(out, op.Text)
	}
	return out
}

// FindText returns the first cell whose text contains s.
func (r *Recorder) FindText(s string) (Op, bool) {
	for _, op := range r.Kind(OpCell) {
		if strings.Contains(op.Text, s) {
			return op, true
		}
	}
	return Op{}, false
}

// IndexOf returns the draw-order position of the first cell containing s,
// or -1.
func (r *Recorder) IndexOf(s string) int {
	for i, op := range r.Ops {
		if op.Kind == OpCell && strings.Contains(op.Text, s) {
			return i
		}
	}
	return -1
}

// Mono is a Canvas with fixed-width glyphs. It draws nothing; Output
// writes one line per cell so two documents can be compared.
type Mono struct {
	CharWidth float64

	pages int
	size  float64
	cells []string
}

func (m *Mono) AddPage() { m.pages++ }

func (m *Mono) SetPage(int) {}

func (m *Mono) PageCount() int { return m.pages }

func (m *Mono) SetFont(_ string, size float64) { m.size = size }

func (m *Mono) SetTextColor(layout.Color) {}

func (m *Mono) SetFillColor(layout.Color) {}

func (m *Mono) SetDrawColor(layout.Color) {}

func (m *Mono) FillRect(_, _, _, _ float64) {}

func (m *Mono) Line(_, _, _, _ float64) {}

func (m *Mono) Image(image.Image, float64, float64, float64, float64) error { return nil }

func (m *Mono) Cell(x, y, w, h float64, text string, _ layout.Align) {
	m.cells = append(m.cells, fmt.Sprintf("%.2f %.2f %s", x, y, text))
}

func (m *Mono) glyph() float64 {
	size := m.size
	if size <= 0 {
		size = layout.BodyFontSize
	}
	return m.CharWidth * size / layout.BodyFontSize
}

func (m *Mono) StringWidth(text string) float64 {
	return float64(len([]rune(text))) * m.glyph()
}

// SplitText wraps on spaces and hard-breaks words wider than w.
func (m *Mono) SplitText(text string, w float64) []string {
	perLine := int(w / m.glyph())
	if perLine < 1 {
		perLine = 1
	}
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		var cur []rune
		for _, word := range strings.Fields(para) {
			rw := []rune(word)
			for len(rw) > perLine {
				if len(cur) > 0 {
					lines = append(lines, string(cur))
					cur = nil
				}
				lines = append(lines, string(rw[:perLine]))
				rw = rw[perLine:]
			}
			switch {
			case len(cur) == 0:
				cur = rw
			case len(cur)+1+len(rw) <= perLine:
				cur = append(append(cur, ' '), rw...)
			default:
				lines = append(lines, string(cur))
				cur = rw
			}
		}
		lines = append(lines, string(cur))
	}
	return lines
}

func (m *Mono) Output(w io.Writer) error {
	_, err := io.WriteString(w, strings.Join(m.cells, "\n"))
	return err
}
