package report_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/planreport/internal/chart"
	"github.com/dgallion1/planreport/internal/layout"
	"github.com/dgallion1/planreport/internal/layout/layouttest"
	"github.com/dgallion1/planreport/internal/plan"
	"github.com/dgallion1/planreport/internal/report"
)

var fixedNow = time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)

func singleBucket() plan.Data {
	return plan.Data{
		Client: plan.ClientProfile{
			Name:                    "Jane Doe",
			Age:                     60,
			RetirementAge:           65,
			LifeExpectancy:          90,
			TotalAssets:             100000,
			AnnualIncome:            80000,
			DesiredRetirementIncome: 60000,
			SocialSecurity:          24000,
			RiskTolerance:           "moderate",
		},
		Buckets: []plan.Bucket{{
			ID: "b1", Name: "Income Bucket", PremiumAmount: 100000, InterestRate: 5,
			DelayPeriod: 1, IncomePeriods: 20, Percentage: 100, RiskTolerance: "moderate",
		}},
		Results: map[string]plan.Result{
			"b1": {FutureValue: 150000, IncomeSolve: 8000, AnnuityPayment: 9000, EstimatedPremium: 100000},
		},
	}
}

func manyBuckets(n int) plan.Data {
	d := singleBucket()
	d.Buckets = nil
	d.Results = nil
	for i := 0; i < n; i++ {
		d.Buckets = append(d.Buckets, plan.Bucket{
			ID: fmt.Sprintf("b%d", i), Name: fmt.Sprintf("Bucket Strategy %d", i+1),
			PremiumAmount: 50000, InterestRate: 4, DelayPeriod: i, IncomePeriods: 10, Percentage: 10,
		})
	}
	return d
}

// generator returns a Generator drawing onto a recorder over the monospace
// fake canvas.
func generator(t *testing.T) (*report.Generator, *layouttest.Recorder) {
	t.Helper()
	rec := layouttest.NewFake()
	g := report.New(nil)
	g.Now = func() time.Time { return fixedNow }
	g.NewCanvas = func(layout.Geometry) layout.Canvas { return rec }
	return g, rec
}

// rowAfter returns the texts of the first table row, after the cell
// containing anchor, whose first cell is exactly first.
func rowAfter(rec *layouttest.Recorder, anchor, first string) []string {
	var row []string
	for _, c := range rowOpsAfter(rec, anchor, first) {
		row = append(row, c.Text)
	}
	return row
}

func rowOpsAfter(rec *layouttest.Recorder, anchor, first string) []layouttest.Op {
	start := rec.IndexOf(anchor)
	if start < 0 {
		return nil
	}
	for i := start; i < len(rec.Ops); i++ {
		op := rec.Ops[i]
		if op.Kind != layouttest.OpCell || op.Text != first {
			continue
		}
		var row []layouttest.Op
		for _, c := range rec.Ops[i:] {
			if c.Kind != layouttest.OpCell || c.Page != op.Page || c.Y != op.Y {
				break
			}
			row = append(row, c)
		}
		return row
	}
	return nil
}

func countCells(rec *layouttest.Recorder, substr string) int {
	n := 0
	for _, s := range rec.Texts() {
		if strings.Contains(s, substr) {
			n++
		}
	}
	return n
}

func TestGenerate_SingleBucketNoCharts(t *testing.T) {
	g, rec := generator(t)
	out, err := g.Generate(context.Background(), singleBucket(), "Jane Doe", "Retirement Plan", report.Charts{}, "Acme Advisors")
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	assert.Equal(t, 1, countCells(rec, "Bucket 1: Income Bucket"))

	cover, ok := rec.FindText("Prepared for Jane Doe")
	require.True(t, ok)
	assert.Equal(t, 1, cover.Page)

	bucket := []string{"Income Bucket", "$100,000", "100%", "5%", "$150,000", "$9,000"}
	assert.Equal(t, bucket, rowAfter(rec, "Bucket Overview", "Income Bucket"))
	assert.Equal(t, []string{"Total", "$100,000", "100%", "5%", "$150,000", "$9,000"},
		rowAfter(rec, "Bucket Overview", "Total"))

	assert.Empty(t, rec.Kind(layouttest.OpImage))
	assert.Equal(t, -1, rec.IndexOf("Advisor Notes"))
}

func TestGenerate_ZeroBuckets(t *testing.T) {
	g, rec := generator(t)
	d := plan.Data{Client: plan.ClientProfile{Name: "Empty"}}
	_, err := g.Generate(context.Background(), d, "Empty", "Blank", report.Charts{}, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"Total", "$0", "0%", "0%", "$0", "$0"}, rowAfter(rec, "Bucket Overview", "Total"))
	assert.Equal(t, -1, rec.IndexOf("Bucket 1:"))

	covered, ok := rec.FindText("Desired Income Covered")
	require.True(t, ok)
	assert.Equal(t, []string{"Desired Income Covered", "0%"}, rowAfter(rec, "Executive Summary", covered.Text))
}

func TestGenerate_SectionOrder(t *testing.T) {
	g, rec := generator(t)
	d := singleBucket()
	d.Client.Assets = []plan.Asset{{Category: "IRA", Amount: 60000}, {Category: "Brokerage", Amount: 40000}}
	d.Notes = "# Follow-up\n\nReview beneficiary designations."
	d.NotesFormat = plan.NotesMarkdown

	_, err := g.Generate(context.Background(), d, "Jane Doe", "Plan", report.DefaultCharts(d), "")
	require.NoError(t, err)

	order := []string{
		"Prepared for Jane Doe",
		"Executive Summary",
		"Client Information",
		"Asset Breakdown",
		"Bucket Overview",
		"Bucket 1: Income Bucket",
		"Retirement Plan Summary",
		"Portfolio Distribution",
		"Income Projection",
		"Growth Timeline",
		"Advisor Notes",
		"Review beneficiary designations.",
		"Page 1 of",
	}
	prev := -1
	for _, s := range order {
		i := rec.IndexOf(s)
		require.Greater(t, i, prev, "section %q out of order", s)
		prev = i
	}
	assert.Len(t, rec.Kind(layouttest.OpImage), 3)
}

func TestGenerate_LongBucketNameTruncatedInHeader(t *testing.T) {
	g, rec := generator(t)
	d := singleBucket()
	d.Buckets[0].Name = strings.Repeat("Very long bucket name ", 20)

	_, err := g.Generate(context.Background(), d, "Jane Doe", "Plan", report.Charts{}, "")
	require.NoError(t, err)

	var headers []layouttest.Op
	for _, op := range rec.Kind(layouttest.OpCell) {
		if strings.HasPrefix(op.Text, "Bucket 1:") {
			headers = append(headers, op)
		}
	}
	require.Len(t, headers, 1)
	geo := layout.A4()
	assert.LessOrEqual(t, headers[0].Right(), geo.Right())
	assert.Less(t, len(headers[0].Text), len(d.Buckets[0].Name))
}

func TestGenerate_ContentStaysInBounds(t *testing.T) {
	g, rec := generator(t)
	d := manyBuckets(12)
	d.Client.Assets = []plan.Asset{{Category: strings.Repeat("Qualified retirement account ", 6), Amount: 1}}

	_, err := g.Generate(context.Background(), d, "Jane Doe", "Plan", report.DefaultCharts(d), "Acme")
	require.NoError(t, err)

	geo := layout.A4()
	for _, o := range rec.Ops {
		if o.Kind == layouttest.OpPage {
			continue
		}
		assert.LessOrEqual(t, o.Right(), geo.Right()+1e-9, "op %+v crosses the right margin", o)
		assert.GreaterOrEqual(t, o.X, geo.Margin-1e-9, "op %+v crosses the left margin", o)
	}
	for _, o := range rec.Kind(layouttest.OpRect) {
		assert.LessOrEqual(t, o.Y+o.H, geo.MaxContentHeight()+1e-9, "rect %+v enters the footer", o)
	}
}

func TestGenerate_ChartFailureStillProducesDocument(t *testing.T) {
	g, rec := generator(t)
	d := manyBuckets(8)
	boom := chart.SourceFunc(func(context.Context) (image.Image, error) {
		return nil, errors.New("rasterizer crashed")
	})

	_, err := g.Generate(context.Background(), d, "Jane Doe", "Plan", report.Charts{Portfolio: boom, Income: boom, Growth: boom}, "Acme")
	require.NoError(t, err)

	assert.Empty(t, rec.Kind(layouttest.OpImage))
	for _, s := range []string{"Executive Summary", "Bucket 8: Bucket Strategy 8", "Portfolio Distribution", "Growth Timeline"} {
		assert.NotEqual(t, -1, rec.IndexOf(s), "missing %q", s)
	}
	// Data tables survive the failed rasters.
	assert.NotEmpty(t, rowAfter(rec, "Income Projection", "Bucket Strategy 1"))

	pages := rec.Canvas.PageCount()
	require.Greater(t, pages, 1)
	for p := 1; p <= pages; p++ {
		want := fmt.Sprintf("Page %d of %d", p, pages)
		footer, ok := rec.FindText(want)
		require.True(t, ok, "missing footer %q", want)
		assert.Equal(t, p, footer.Page)
	}
}

func TestGenerate_ImageEmbedFailureIsLogged(t *testing.T) {
	g, rec := generator(t)
	rec.FailImages = true
	d := singleBucket()

	_, err := g.Generate(context.Background(), d, "Jane Doe", "Plan", report.DefaultCharts(d), "")
	require.NoError(t, err)
	assert.NotEqual(t, -1, rec.IndexOf("Growth Timeline"))
	assert.NotEmpty(t, rowAfter(rec, "Growth Timeline", "Year 0"))
}

func TestGenerate_NotesFallBackToText(t *testing.T) {
	g, rec := generator(t)
	d := singleBucket()
	d.Notes = "Client prefers quarterly reviews."
	d.NotesFormat = "rtf"

	_, err := g.Generate(context.Background(), d, "Jane Doe", "Plan", report.Charts{}, "")
	require.NoError(t, err)
	assert.NotEqual(t, -1, rec.IndexOf("Client prefers quarterly reviews."))
}

func TestGenerate_WideNotesTableKeepsTextLeftAligned(t *testing.T) {
	g, rec := generator(t)
	d := singleBucket()
	d.NotesFormat = plan.NotesMarkdown
	d.Notes = "| Objective | Custodian | Vehicle | Rate | Timing | Status | Target |\n" +
		"| --- | --- | --- | --- | --- | --- | --- |\n" +
		"| Travel fund | Schwab | Brokerage | 4.5% | Spring | Pending | $12,000 |\n"

	_, err := g.Generate(context.Background(), d, "Jane Doe", "Plan", report.Charts{}, "")
	require.NoError(t, err)

	header := rowOpsAfter(rec, "Advisor Notes", "Objective")
	body := rowOpsAfter(rec, "Advisor Notes", "Travel fund")
	require.Len(t, header, 7)
	require.Len(t, body, 7)

	want := []layout.Align{
		layout.AlignLeft, layout.AlignLeft, layout.AlignLeft, layout.AlignRight,
		layout.AlignLeft, layout.AlignLeft, layout.AlignRight,
	}
	for i, align := range want {
		assert.Equal(t, align, header[i].Align, "header cell %q", header[i].Text)
		assert.Equal(t, align, body[i].Align, "body cell %q", body[i].Text)
	}
}

func TestRender_CountsEmbeddedCharts(t *testing.T) {
	g, rec := generator(t)
	d := singleBucket()
	charts := report.DefaultCharts(d)
	charts.Income = chart.SourceFunc(func(context.Context) (image.Image, error) {
		return nil, errors.New("rasterizer crashed")
	})

	res, err := g.Render(context.Background(), d, "Jane Doe", "Plan", charts, "Acme")
	require.NoError(t, err)

	assert.Equal(t, 3, charts.Count())
	assert.Equal(t, 2, res.ChartsDrawn)
	assert.Equal(t, 1, res.ChartFailures)
	assert.Len(t, rec.Kind(layouttest.OpImage), 2)
	assert.Equal(t, rec.Canvas.PageCount(), res.Pages)
	assert.NotEmpty(t, res.PDF)
}

func TestRender_RejectedImagesAreNotCounted(t *testing.T) {
	g, rec := generator(t)
	rec.FailImages = true
	d := singleBucket()

	res, err := g.Render(context.Background(), d, "Jane Doe", "Plan", report.DefaultCharts(d), "")
	require.NoError(t, err)
	assert.Zero(t, res.ChartsDrawn)
	assert.Equal(t, 3, res.ChartFailures)
}

func TestGenerate_DeterministicPDF(t *testing.T) {
	g := report.New(nil)
	g.Now = func() time.Time { return fixedNow }

	a, err := g.Generate(context.Background(), singleBucket(), "Jane Doe", "Plan", report.Charts{}, "Acme")
	require.NoError(t, err)
	b, err := g.Generate(context.Background(), singleBucket(), "Jane Doe", "Plan", report.Charts{}, "Acme")
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(a, []byte("%PDF-")))
	assert.True(t, bytes.Equal(a, b), "output differs between identical runs")
}

type failingCanvas struct {
	layout.Canvas
	panic bool
}

func (f failingCanvas) Output(io.Writer) error {
	if f.panic {
		panic("writer exploded")
	}
	return errors.New("disk full")
}

func TestGenerate_OutputErrorsWrapErrGenerate(t *testing.T) {
	for _, panics := range []bool{false, true} {
		g := report.New(nil)
		g.NewCanvas = func(layout.Geometry) layout.Canvas {
			return failingCanvas{Canvas: &layouttest.Mono{CharWidth: 2}, panic: panics}
		}
		_, err := g.Generate(context.Background(), singleBucket(), "Jane Doe", "Plan", report.Charts{}, "")
		require.Error(t, err)
		assert.ErrorIs(t, err, report.ErrGenerate)
		assert.Contains(t, err.Error(), "failed to generate PDF")
	}
}

func TestDefaultCharts(t *testing.T) {
	c := report.DefaultCharts(singleBucket())
	assert.NotNil(t, c.Portfolio)
	assert.NotNil(t, c.Income)
	assert.NotNil(t, c.Growth)

	img, err := c.Growth.Rasterize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, chart.DefaultWidth, img.Bounds().Dx())

	empty := report.DefaultCharts(plan.Data{})
	assert.Nil(t, empty.Portfolio)
	assert.Nil(t, empty.Income)
	assert.Nil(t, empty.Growth)

	assetsOnly := report.DefaultCharts(plan.Data{Client: plan.ClientProfile{Assets: []plan.Asset{{Category: "Cash", Amount: 10}}}})
	assert.NotNil(t, assetsOnly.Portfolio)
	assert.Nil(t, assetsOnly.Income)
}

func TestFilename(t *testing.T) {
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		client, plan, want string
	}{
		{"Jane Doe", "Retirement Plan", "Jane_Doe_Retirement_Plan_2025-03-01.pdf"},
		{"  O'Brien,  Pat ", "Plan/2025", "OBrien_Pat_Plan2025_2025-03-01.pdf"},
		{"", "", "Client_Plan_2025-03-01.pdf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, report.Filename(tt.client, tt.plan, day))
	}
}
