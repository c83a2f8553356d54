package chart

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

// MaxSnapshotWidth caps the pixel width of decoded snapshots.
const MaxSnapshotWidth = 2000

// ErrEmptySnapshot is returned for a snapshot with no bytes.
var ErrEmptySnapshot = errors.New("empty chart snapshot")

// Snapshot is a chart image rendered elsewhere (PNG, JPEG or WebP). Set
// DarkTheme for captures of a dark UI so they print legibly on white.
type Snapshot struct {
	Data      []byte
	DarkTheme bool
	MaxWidth  int
}

func (s Snapshot) Rasterize(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := Decode(s.Data)
	if err != nil {
		return nil, err
	}
	limit := s.MaxWidth
	if limit <= 0 {
		limit = MaxSnapshotWidth
	}
	img = Downscale(img, limit)
	if s.DarkTheme {
		img = RemapDarkTheme(img)
	}
	return img, nil
}

// Decode reads a PNG, JPEG or WebP image.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptySnapshot
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err == nil {
		return img, nil
	}
	if decoded, webpErr := webp.Decode(bytes.NewReader(data)); webpErr == nil {
		return decoded, nil
	}
	return nil, fmt.Errorf("decode snapshot: %w", err)
}

// Downscale shrinks img to at most maxWidth pixels wide, keeping its aspect
// ratio. Narrower images are returned unchanged.
func Downscale(img image.Image, maxWidth int) image.Image {
	b := img.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return img
	}
	h := b.Dy() * maxWidth / b.Dx()
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// DarkBackgrounds are the dark-theme surface colors recognised by
// RemapDarkTheme: #111827, #1f2937, #0f172a and #1e293b.
var DarkBackgrounds = []color.RGBA{
	{0x11, 0x18, 0x27, 0xff},
	{0x1f, 0x29, 0x37, 0xff},
	{0x0f, 0x17, 0x2a, 0xff},
	{0x1e, 0x29, 0x3b, 0xff},
}

// RemapDarkTheme recolors a dark-theme capture for print. Matching is exact
// on RGB: pure white becomes black, any of DarkBackgrounds becomes white,
// and fully transparent pixels become white. Everything else, including
// anti-aliased edges, is kept.
func RemapDarkTheme(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	white := color.RGBA{255, 255, 255, 255}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			var px color.Color = c
			switch {
			case c.A == 0:
				px = white
			case c.R == 255 && c.G == 255 && c.B == 255:
				px = color.NRGBA{0, 0, 0, c.A}
			case isDarkBackground(c):
				px = color.NRGBA{255, 255, 255, c.A}
			}
			out.Set(x-b.Min.X, y-b.Min.Y, px)
		}
	}
	return out
}

func isDarkBackground(c color.NRGBA) bool {
	for _, d := range DarkBackgrounds {
		if c.R == d.R && c.G == d.G && c.B == d.B {
			return true
		}
	}
	return false
}
