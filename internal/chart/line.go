package chart

import (
	"context"
	"image"
)

// Line is a line chart with one polyline per series over shared labels.
type Line struct {
	Title         string
	Labels        []string
	Series        []Series
	Width, Height int
}

func (l Line) Rasterize(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(l.Labels) == 0 || len(l.Series) == 0 {
		return nil, ErrNoData
	}

	w, h := size(l.Width, l.Height)
	r := newRaster(w, h)
	r.title(l.Title)

	lo, hi := valueRange(l.Series)
	legend := hasLegend(l.Series)
	p := newPlot(r, lo, hi, legend)
	r.axes(p, l.Labels)

	n := len(l.Labels)
	for si, s := range l.Series {
		c := PaletteColor(si)
		px, py := -1, -1
		for i := 0; i < n && i < len(s.Values); i++ {
			x, y := p.slot(i, n), p.yFor(s.Values[i])
			if px >= 0 {
				r.line(px, py, x, y, c, 3)
			}
			r.fill(image.Rect(x-3, y-3, x+4, y+4), c)
			px, py = x, y
		}
	}
	if legend {
		r.seriesLegend(l.Series)
	}
	return r.img, nil
}
