// Package chart produces the raster images embedded in plan reports.
//
// Charts are drawn server-side from numeric series on a light print
// palette. Snapshots captured elsewhere can be embedded as well; see
// Snapshot.
package chart

import (
	"context"
	"errors"
	"image"
	"image/color"
)

// Source yields one chart image. Rasterize is the only step of report
// generation that may block.
type Source interface {
	Rasterize(ctx context.Context) (image.Image, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (image.Image, error)

func (f SourceFunc) Rasterize(ctx context.Context) (image.Image, error) { return f(ctx) }

// ErrNoData is returned when a chart has nothing to plot.
var ErrNoData = errors.New("chart has no data")

// Default raster size. 2:1 fills the report's content width at 85mm.
const (
	DefaultWidth  = 1000
	DefaultHeight = 500
)

var (
	Background = color.RGBA{255, 255, 255, 255}
	Ink        = color.RGBA{17, 24, 39, 255}
	Muted      = color.RGBA{107, 114, 128, 255}
	Grid       = color.RGBA{229, 231, 235, 255}
)

// Palette holds the series colors, used in order and repeated.
var Palette = []color.RGBA{
	{30, 58, 138, 255},
	{16, 185, 129, 255},
	{245, 158, 11, 255},
	{239, 68, 68, 255},
	{139, 92, 246, 255},
	{14, 165, 233, 255},
	{236, 72, 153, 255},
	{132, 204, 22, 255},
}

// PaletteColor returns the i'th series color.
func PaletteColor(i int) color.RGBA {
	if i < 0 {
		i = -i
	}
	return Palette[i%len(Palette)]
}

// Slice is one pie segment.
type Slice struct {
	Label string
	Value float64
}

// Series is one named run of values, aligned by index with a chart's labels.
type Series struct {
	Name   string
	Values []float64
}

func size(w, h int) (int, int) {
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	return w, h
}
