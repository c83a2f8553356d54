package chart

import (
	"image"
	"image/color"
	"math"
	"strconv"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	pad         = 16
	titleHeight = 32
	tickCount   = 5
	swatch      = 10
)

// raster is a white RGBA image with a fixed bitmap font.
type raster struct {
	img  *image.RGBA
	face font.Face
}

func newRaster(w, h int) *raster {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)
	return &raster{img: img, face: basicfont.Face7x13}
}

func (r *raster) fill(rect image.Rectangle, c color.Color) {
	draw.Draw(r.img, rect.Intersect(r.img.Bounds()), image.NewUniform(c), image.Point{}, draw.Src)
}

// text draws s with its baseline at y.
func (r *raster) text(x, y int, s string, c color.Color) {
	d := &font.Drawer{
		Dst:  r.img,
		Src:  image.NewUniform(c),
		Face: r.face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func (r *raster) textWidth(s string) int {
	return font.MeasureString(r.face, s).Ceil()
}

func (r *raster) title(s string) {
	if s == "" {
		return
	}
	w := r.textWidth(s)
	r.text((r.img.Bounds().Dx()-w)/2, titleHeight-10, s, Ink)
}

// line draws a segment of the given thickness.
func (r *raster) line(x0, y0, x1, y1 int, c color.Color, thick int) {
	if thick < 1 {
		thick = 1
	}
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		r.fill(image.Rect(x0-thick/2, y0-thick/2, x0-thick/2+thick, y0-thick/2+thick), c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// legend draws a swatch and label per entry, left to right from x at
// baseline y, and returns the x after the last entry.
func (r *raster) legend(x, y int, labels []string) int {
	for i, l := range labels {
		r.fill(image.Rect(x, y-swatch, x+swatch, y), PaletteColor(i))
		x += swatch + 6
		r.text(x, y, l, Ink)
		x += r.textWidth(l) + 18
	}
	return x
}

// plot is the data area of an axis chart and its value range.
type plot struct {
	x0, y0, x1, y1 int
	lo, hi         float64
}

func newPlot(r *raster, lo, hi float64, withLegend bool) plot {
	b := r.img.Bounds()
	if lo > 0 {
		lo = 0
	}
	if hi < 0 {
		hi = 0
	}
	if hi == lo {
		hi = lo + 1
	}
	label := r.textWidth(compact(hi))
	if w := r.textWidth(compact(lo)); w > label {
		label = w
	}
	bottom := b.Dy() - pad - 20
	if withLegend {
		bottom -= 20
	}
	return plot{
		x0: pad + label + 8,
		y0: titleHeight + pad,
		x1: b.Dx() - pad,
		y1: bottom,
		lo: lo,
		hi: hi,
	}
}

func (p plot) yFor(v float64) int {
	f := (v - p.lo) / (p.hi - p.lo)
	return p.y1 - int(math.Round(f*float64(p.y1-p.y0)))
}

// slot returns the horizontal centre of category i of n.
func (p plot) slot(i, n int) int {
	w := float64(p.x1-p.x0) / float64(n)
	return p.x0 + int(w*float64(i)+w/2)
}

func (r *raster) axes(p plot, labels []string) {
	for i := 0; i <= tickCount; i++ {
		v := p.lo + (p.hi-p.lo)*float64(i)/tickCount
		y := p.yFor(v)
		r.line(p.x0, y, p.x1, y, Grid, 1)
		s := compact(v)
		r.text(p.x0-8-r.textWidth(s), y+4, s, Muted)
	}
	zero := p.yFor(0)
	r.line(p.x0, zero, p.x1, zero, Muted, 1)
	r.line(p.x0, p.y0, p.x0, p.y1, Muted, 1)

	n := len(labels)
	if n == 0 {
		return
	}
	// Thin labels out so they do not overlap.
	step := 1
	slotW := (p.x1 - p.x0) / n
	widest := maxWidth(r, labels)
	for step < n && slotW*step < widest+6 {
		step++
	}
	for i := 0; i < n; i += step {
		w := r.textWidth(labels[i])
		r.text(p.slot(i, n)-w/2, p.y1+16, labels[i], Muted)
	}
}

func (r *raster) seriesLegend(series []Series) {
	names := make([]string, len(series))
	for i, s := range series {
		names[i] = s.Name
	}
	b := r.img.Bounds()
	r.legend(pad, b.Dy()-pad, names)
}

func maxWidth(r *raster, labels []string) int {
	m := 0
	for _, l := range labels {
		if w := r.textWidth(l); w > m {
			m = w
		}
	}
	return m
}

func valueRange(series []Series) (lo, hi float64) {
	for _, s := range series {
		for _, v := range s.Values {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	return lo, hi
}

func hasLegend(series []Series) bool {
	for _, s := range series {
		if s.Name != "" {
			return true
		}
	}
	return false
}

// compact formats an axis value: 950, 12.5K, 1.2M.
func compact(v float64) string {
	a := math.Abs(v)
	switch {
	case a >= 1e9:
		return strconv.FormatFloat(round1(v/1e9), 'f', -1, 64) + "B"
	case a >= 1e6:
		return strconv.FormatFloat(round1(v/1e6), 'f', -1, 64) + "M"
	case a >= 1e3:
		return strconv.FormatFloat(round1(v/1e3), 'f', -1, 64) + "K"
	default:
		return strconv.FormatFloat(round1(v), 'f', -1, 64)
	}
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
