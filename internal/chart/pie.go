package chart

import (
	"context"
	"image"
	"math"
	"sort"
	"strconv"
)

// Pie is a pie chart with a legend on its right. Non-positive slices are
// listed in the legend but take no area.
type Pie struct {
	Title         string
	Slices        []Slice
	Width, Height int
}

func (p Pie) Rasterize(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var total float64
	for _, s := range p.Slices {
		if s.Value > 0 {
			total += s.Value
		}
	}
	if total <= 0 {
		return nil, ErrNoData
	}

	w, h := size(p.Width, p.Height)
	r := newRaster(w, h)
	r.title(p.Title)

	diam := h - titleHeight - 2*pad
	if limit := w*3/5 - 2*pad; diam > limit {
		diam = limit
	}
	if diam < 2 {
		return nil, ErrNoData
	}
	rad := float64(diam) / 2
	cx := float64(pad) + rad
	cy := float64(titleHeight+pad) + rad

	// Cumulative fractions; slice i covers (ends[i-1], ends[i]].
	ends := make([]float64, len(p.Slices))
	var acc float64
	for i, s := range p.Slices {
		if s.Value > 0 {
			acc += s.Value
		}
		ends[i] = acc / total
	}

	for y := int(cy - rad); y <= int(cy+rad); y++ {
		for x := int(cx - rad); x <= int(cx+rad); x++ {
			dx, dy := float64(x)+0.5-cx, float64(y)+0.5-cy
			if dx*dx+dy*dy > rad*rad {
				continue
			}
			// Clockwise from twelve o'clock.
			a := math.Atan2(dx, -dy)
			if a < 0 {
				a += 2 * math.Pi
			}
			i := sort.SearchFloat64s(ends, a/(2*math.Pi))
			if i >= len(ends) {
				i = len(ends) - 1
			}
			r.img.Set(x, y, PaletteColor(i))
		}
	}

	lx := pad + diam + 3*pad
	ly := titleHeight + pad + 14
	for i, s := range p.Slices {
		pct := 0.0
		if s.Value > 0 {
			pct = s.Value / total * 100
		}
		label := s.Label + "  " + strconv.FormatFloat(round1(pct), 'f', -1, 64) + "%"
		r.fill(image.Rect(lx, ly-swatch, lx+swatch, ly), PaletteColor(i))
		r.text(lx+swatch+6, ly, label, Ink)
		ly += 20
		if ly > h-pad {
			break
		}
	}
	return r.img, nil
}
