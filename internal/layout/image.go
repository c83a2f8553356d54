package layout

import (
	"errors"
	"fmt"
	"image"
)

// ErrEmptyImage is returned for images with a zero dimension.
var ErrEmptyImage = errors.New("image has no pixels")

// ImageHeight is the drawn height of img at width, keeping its aspect ratio.
func ImageHeight(img image.Image, width float64) float64 {
	b := img.Bounds()
	if b.Dx() == 0 {
		return 0
	}
	return width * float64(b.Dy()) / float64(b.Dx())
}

// ChartImage places img centred at the cursor, scaled to width (clamped to
// the content width) with its aspect ratio kept, and returns the y below
// it. The page breaks first if the image does not fit.
func (d *Document) ChartImage(img image.Image, width float64) (float64, error) {
	if img == nil {
		return d.y, ErrEmptyImage
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return d.y, ErrEmptyImage
	}

	cw := d.geo.ContentWidth()
	if width <= 0 || width > cw {
		width = cw
	}
	h := ImageHeight(img, width)
	d.Ensure(h)

	x := d.geo.Margin + (cw-width)/2
	if err := d.c.Image(img, x, d.y, width, h); err != nil {
		return d.y, fmt.Errorf("draw image: %w", err)
	}
	d.y += h
	return d.Space(ImageSpacing), nil
}
