package layout

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

const fontFamily = "Helvetica"

// Info is the document metadata written into the PDF info dictionary.
type Info struct {
	Title   string
	Subject string
	Author  string
	Creator string
	Created time.Time
}

// PDFCanvas is a Canvas backed by go-pdf/fpdf using the core Helvetica font.
type PDFCanvas struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	images int
}

// NewPDFCanvas creates a canvas for the given page geometry. Automatic page
// breaks are disabled; pagination is the Document's job.
func NewPDFCanvas(geo Geometry) *PDFCanvas {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: geo.PageWidth, Ht: geo.PageHeight},
	})
	pdf.SetMargins(geo.Margin, geo.Margin, geo.Margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCellMargin(1)
	pdf.SetCatalogSort(true)
	pdf.SetFont(fontFamily, StyleRegular, BodyFontSize)
	return &PDFCanvas{
		pdf: pdf,
		tr:  pdf.UnicodeTranslatorFromDescriptor(""),
	}
}

// SetInfo writes document metadata. A non-zero Created also pins the
// creation and modification dates so output is reproducible.
func (p *PDFCanvas) SetInfo(info Info) {
	if info.Title != "" {
		p.pdf.SetTitle(info.Title, true)
	}
	if info.Subject != "" {
		p.pdf.SetSubject(info.Subject, true)
	}
	if info.Author != "" {
		p.pdf.SetAuthor(info.Author, true)
	}
	if info.Creator != "" {
		p.pdf.SetCreator(info.Creator, true)
	}
	if !info.Created.IsZero() {
		p.pdf.SetCreationDate(info.Created)
		p.pdf.SetModificationDate(info.Created)
	}
}

func (p *PDFCanvas) AddPage() { p.pdf.AddPage() }

func (p *PDFCanvas) SetPage(n int) { p.pdf.SetPage(n) }

func (p *PDFCanvas) PageCount() int { return p.pdf.PageCount() }

func (p *PDFCanvas) SetTextColor(c Color) { p.pdf.SetTextColor(int(c.R), int(c.G), int(c.B)) }

func (p *PDFCanvas) SetFillColor(c Color) { p.pdf.SetFillColor(int(c.R), int(c.G), int(c.B)) }

func (p *PDFCanvas) SetDrawColor(c Color) { p.pdf.SetDrawColor(int(c.R), int(c.G), int(c.B)) }

func (p *PDFCanvas) SetFont(style string, size float64) {
	p.pdf.SetFont(fontFamily, style, size)
}

func (p *PDFCanvas) FillRect(x, y, w, h float64) {
	p.pdf.Rect(x, y, w, h, "F")
}

func (p *PDFCanvas) Line(x1, y1, x2, y2 float64) {
	p.pdf.SetLineWidth(0.2)
	p.pdf.Line(x1, y1, x2, y2)
}

func (p *PDFCanvas) Cell(x, y, w, h float64, text string, align Align) {
	if w <= 0 {
		return
	}
	p.pdf.SetXY(x, y)
	p.pdf.CellFormat(w, h, p.tr(text), "", 0, alignString(align), false, 0, "")
}

// SplitText wraps text for the current font. The core fonts only carry
// metrics for the first 256 code points, so anything beyond is measured as '?'.
func (p *PDFCanvas) SplitText(text string, w float64) []string {
	if w <= 0 {
		return []string{text}
	}
	lines := p.pdf.SplitText(latinOnly(text), w)
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}

func (p *PDFCanvas) StringWidth(text string) float64 {
	return p.pdf.GetStringWidth(p.tr(text))
}

// Image flattens img onto white, encodes it as 8-bit PNG and places it.
func (p *PDFCanvas) Image(img image.Image, x, y, w, h float64) error {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return fmt.Errorf("image has no pixels")
	}
	flat := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(flat, flat.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), img, b.Min, draw.Over)

	var buf bytes.Buffer
	if err := png.Encode(&buf, flat); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}

	p.images++
	name := fmt.Sprintf("img%03d", p.images)
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	p.pdf.RegisterImageOptionsReader(name, opts, &buf)
	if p.pdf.Err() {
		err := p.pdf.Error()
		p.pdf.ClearError()
		return fmt.Errorf("register image: %w", err)
	}
	p.pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
	return nil
}

func (p *PDFCanvas) Output(w io.Writer) error {
	return p.pdf.Output(w)
}

func alignString(a Align) string {
	switch a {
	case AlignRight:
		return "RM"
	case AlignCenter:
		return "CM"
	default:
		return "LM"
	}
}

func latinOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r > 0xFF {
			return '?'
		}
		return r
	}, s)
}
