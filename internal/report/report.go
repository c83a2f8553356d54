// Package report generates the client-facing PDF for a retirement plan.
//
// Sections are laid out in a fixed order: cover, executive summary, client
// information, asset breakdown, bucket overview, one detail section per
// bucket, retirement summary, charts, advisor notes, and finally a footer
// on every page. Chart failures are logged and skipped; any other failure
// aborts generation with ErrGenerate.
package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/dgallion1/planreport/internal/layout"
	"github.com/dgallion1/planreport/internal/plan"
)

// ErrGenerate wraps every failure that prevents a report from being produced.
var ErrGenerate = errors.New("failed to generate PDF")

// Generator lays out plan reports. The zero value is not usable; use New.
type Generator struct {
	Geometry  layout.Geometry
	Theme     layout.Theme
	Now       func() time.Time
	NewCanvas func(layout.Geometry) layout.Canvas
	Logger    *slog.Logger
}

// infoSetter is implemented by canvases that carry document metadata.
type infoSetter interface {
	SetInfo(layout.Info)
}

// New returns a Generator for A4 pages backed by the fpdf canvas.
func New(logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Generator{
		Geometry: layout.A4(),
		Theme:    layout.DefaultTheme(),
		Now:      time.Now,
		NewCanvas: func(geo layout.Geometry) layout.Canvas {
			return layout.NewPDFCanvas(geo)
		},
		Logger: logger,
	}
}

// Generate produces a report with a default Generator.
func Generate(ctx context.Context, data plan.Data, clientName, planName string, charts Charts, companyName string) ([]byte, error) {
	return New(nil).Generate(ctx, data, clientName, planName, charts, companyName)
}

// Result is a rendered report with what went into it.
type Result struct {
	PDF           []byte
	Pages         int
	ChartsDrawn   int // charts embedded in the document
	ChartFailures int // configured charts that failed to rasterize or embed
}

// Generate lays out the report for data and returns the PDF bytes. Missing
// bucket results are computed first. A nil chart source skips that chart.
func (g *Generator) Generate(ctx context.Context, data plan.Data, clientName, planName string, charts Charts, companyName string) ([]byte, error) {
	res, err := g.Render(ctx, data, clientName, planName, charts, companyName)
	if err != nil {
		return nil, err
	}
	return res.PDF, nil
}

// Render is Generate returning the page count and chart outcomes along
// with the PDF.
func (g *Generator) Render(ctx context.Context, data plan.Data, clientName, planName string, charts Charts, companyName string) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = Result{}, fmt.Errorf("%w: %v", ErrGenerate, r)
		}
	}()

	now := g.Now()
	canvas := g.NewCanvas(g.Geometry)
	if s, ok := canvas.(infoSetter); ok {
		s.SetInfo(layout.Info{
			Title:   strings.TrimSpace(planName + " - " + clientName),
			Subject: "Retirement Income Plan",
			Author:  companyName,
			Creator: "planreport",
			Created: now,
		})
	}

	r := &renderer{
		doc:     layout.New(canvas, g.Geometry, g.Theme),
		data:    plan.Compute(data),
		client:  clientName,
		plan:    planName,
		company: companyName,
		now:     now,
		log:     g.Logger.With("client", clientName, "plan", planName),
	}

	r.cover()
	r.executiveSummary()
	r.clientInfo()
	r.assetBreakdown()
	r.bucketOverview()
	r.bucketDetails()
	r.retirementSummary()
	r.charts(ctx, charts)
	r.notes()
	r.doc.Footers(func(page, total int) (string, string) {
		return companyName, fmt.Sprintf("Page %d of %d", page, total)
	})

	var buf bytes.Buffer
	if err := canvas.Output(&buf); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrGenerate, err)
	}
	return Result{
		PDF:           buf.Bytes(),
		Pages:         canvas.PageCount(),
		ChartsDrawn:   r.chartsDrawn,
		ChartFailures: r.chartFailures,
	}, nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Filename is the download name for a report:
// "Client_Name_Plan_Name_2006-01-02.pdf".
func Filename(clientName, planName string, t time.Time) string {
	part := func(s, fallback string) string {
		s = strings.Join(strings.Fields(s), "_")
		s = strings.Trim(unsafeName.ReplaceAllString(s, ""), "_")
		if s == "" {
			return fallback
		}
		return s
	}
	return fmt.Sprintf("%s_%s_%s.pdf", part(clientName, "Client"), part(planName, "Plan"), t.Format("2006-01-02"))
}
