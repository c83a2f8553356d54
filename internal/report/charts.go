package report

import (
	"context"
	"strconv"

	"github.com/dgallion1/planreport/internal/chart"
	"github.com/dgallion1/planreport/internal/plan"
)

// Charts are the optional chart sections of a report. A nil source skips
// its section.
type Charts struct {
	Portfolio chart.Source // portfolio distribution
	Income    chart.Source // annual income by bucket
	Growth    chart.Source // balance timeline
}

// Count returns how many chart sections are configured. Sources that fail
// to rasterize still count; see Result.ChartsDrawn for what was embedded.
func (c Charts) Count() int {
	n := 0
	for _, s := range []chart.Source{c.Portfolio, c.Income, c.Growth} {
		if s != nil {
			n++
		}
	}
	return n
}

// timelineStep is the spacing, in years, of rows in the growth table.
const timelineStep = 5

// DefaultCharts draws the three report charts from the plan itself. Charts
// with nothing to plot are left nil.
func DefaultCharts(d plan.Data) Charts {
	d = plan.Compute(d)
	var c Charts

	if slices := portfolioSlices(d); len(slices) > 0 {
		c.Portfolio = chart.Pie{Title: "Portfolio Distribution", Slices: slices}
	}

	if len(d.Buckets) == 0 {
		return c
	}
	labels := make([]string, len(d.Buckets))
	solve := make([]float64, len(d.Buckets))
	payment := make([]float64, len(d.Buckets))
	for i, b := range d.Buckets {
		res := d.Result(b.ID)
		labels[i] = bucketName(i, b)
		solve[i] = res.IncomeSolve
		payment[i] = res.AnnuityPayment
	}
	c.Income = chart.Bar{
		Title:  "Annual Income by Bucket",
		Labels: labels,
		Series: []chart.Series{
			{Name: "Income Solve", Values: solve},
			{Name: "Annuity Payment", Values: payment},
		},
	}

	tl := d.Timeline()
	years := make([]string, len(tl.Years))
	for i, y := range tl.Years {
		years[i] = strconv.Itoa(y)
	}
	series := make([]chart.Series, len(tl.Balances))
	for i, row := range tl.Balances {
		series[i] = chart.Series{Name: labels[i], Values: row}
	}
	c.Growth = chart.Line{Title: "Growth Timeline", Labels: years, Series: series}
	return c
}

// portfolioSlices splits the portfolio by bucket premium, or by asset
// category when no buckets are defined.
func portfolioSlices(d plan.Data) []chart.Slice {
	var out []chart.Slice
	if len(d.Buckets) > 0 {
		for i, b := range d.Buckets {
			out = append(out, chart.Slice{Label: bucketName(i, b), Value: b.PremiumAmount})
		}
		return out
	}
	for _, a := range d.Client.Assets {
		out = append(out, chart.Slice{Label: a.Category, Value: a.Amount})
	}
	return out
}

func (r *renderer) charts(ctx context.Context, c Charts) {
	if c.Portfolio != nil {
		r.chart(ctx, "Portfolio Distribution", c.Portfolio)
		r.portfolioTable()
		r.end()
	}
	if c.Income != nil {
		r.chart(ctx, "Income Projection", c.Income)
		r.incomeTable()
		r.end()
	}
	if c.Growth != nil {
		r.chart(ctx, "Growth Timeline", c.Growth)
		r.growthTable()
		r.end()
	}
}

// chart draws a section header and the rasterized chart. Failures are
// logged; the section's data table is still drawn by the caller.
func (r *renderer) chart(ctx context.Context, name string, src chart.Source) {
	r.section(name)
	img, err := src.Rasterize(ctx)
	if err != nil {
		r.chartFailures++
		r.log.Warn("chart rasterization failed", "chart", name, "error", err)
		return
	}
	if _, err := r.doc.ChartImage(img, r.doc.Geometry().ContentWidth()); err != nil {
		r.chartFailures++
		r.log.Warn("chart embedding failed", "chart", name, "error", err)
		return
	}
	r.chartsDrawn++
}

func (r *renderer) portfolioTable() {
	if len(r.data.Buckets) == 0 {
		c := r.data.Client
		total := c.AssetTotal()
		rows := make([][]string, 0, len(c.Assets))
		for _, a := range c.Assets {
			rows = append(rows, []string{a.Category, plan.Money(a.Amount), plan.Pct(plan.Percent(a.Amount, total))})
		}
		r.doc.Table([]string{"Asset", "Amount", "Share"}, rows, amountWidths)
		return
	}

	total := r.data.Totals().Premium
	rows := make([][]string, 0, len(r.data.Buckets))
	for i, b := range r.data.Buckets {
		rows = append(rows, []string{bucketName(i, b), plan.Money(b.PremiumAmount), plan.Pct(plan.Percent(b.PremiumAmount, total))})
	}
	r.doc.Table([]string{"Bucket", "Premium", "Share"}, rows, amountWidths)
}

func (r *renderer) incomeTable() {
	rows := make([][]string, 0, len(r.data.Buckets))
	for i, b := range r.data.Buckets {
		res := r.data.Result(b.ID)
		rows = append(rows, []string{bucketName(i, b), plan.Money(res.IncomeSolve), plan.Money(res.AnnuityPayment)})
	}
	r.doc.Table([]string{"Bucket", "Income Solve", "Annuity Payment"}, rows, amountWidths)
}

func (r *renderer) growthTable() {
	tl := r.data.Timeline()
	var rows [][]string
	for i, y := range tl.Years {
		if i%timelineStep != 0 && i != len(tl.Years)-1 {
			continue
		}
		var total float64
		for _, row := range tl.Balances {
			total += row[i]
		}
		rows = append(rows, []string{"Year " + strconv.Itoa(y), plan.Money(total)})
	}
	r.doc.Table([]string{"Year", "Total Balance"}, rows, []float64{0.5, 0.5})
}
