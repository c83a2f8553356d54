package chart

import (
	"context"
	"image"
)

// Bar is a grouped bar chart: one group per label, one bar per series.
type Bar struct {
	Title         string
	Labels        []string
	Series        []Series
	Width, Height int
}

func (b Bar) Rasterize(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(b.Labels) == 0 || len(b.Series) == 0 {
		return nil, ErrNoData
	}

	w, h := size(b.Width, b.Height)
	r := newRaster(w, h)
	r.title(b.Title)

	lo, hi := valueRange(b.Series)
	legend := hasLegend(b.Series)
	p := newPlot(r, lo, hi, legend)
	r.axes(p, b.Labels)

	n := len(b.Labels)
	group := (p.x1 - p.x0) / n
	barW := group * 3 / 4 / len(b.Series)
	if barW < 1 {
		barW = 1
	}
	zero := p.yFor(0)
	for i := 0; i < n; i++ {
		left := p.slot(i, n) - barW*len(b.Series)/2
		for si, s := range b.Series {
			if i >= len(s.Values) {
				continue
			}
			y := p.yFor(s.Values[i])
			x := left + si*barW
			top, bottom := y, zero
			if top > bottom {
				top, bottom = bottom, top
			}
			r.fill(image.Rect(x, top, x+barW-1, bottom), PaletteColor(si))
		}
	}
	if legend {
		r.seriesLegend(b.Series)
	}
	return r.img, nil
}
