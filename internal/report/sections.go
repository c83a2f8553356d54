package report

import (
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dgallion1/planreport/internal/layout"
	"github.com/dgallion1/planreport/internal/plan"
)

// renderer holds the state of one report while it is laid out.
type renderer struct {
	doc     *layout.Document
	data    plan.Data
	client  string
	plan    string
	company string
	now     time.Time
	log     *slog.Logger

	chartsDrawn   int
	chartFailures int
}

// Column fractions. Interior fractions below layout.SmallColumnThreshold
// right-align, so numeric columns stay under 0.2.
var (
	amountWidths = []float64{0.64, 0.18, 0.18}
	bucketWidths = []float64{0.25, 0.15, 0.12, 0.10, 0.19, 0.19}
)

const sectionGap = 4.0

func (r *renderer) section(name string) {
	r.doc.SectionHeader(name, 0)
}

func (r *renderer) end() {
	r.doc.Space(sectionGap)
}

func (r *renderer) cover() {
	d := r.doc
	muted := d.Theme().Muted
	center := layout.TextOptions{Align: layout.AlignCenter}

	d.Space(50)
	d.Paragraph("Retirement Income Plan", layout.TextOptions{Size: 24, Style: layout.StyleBold, Align: layout.AlignCenter, LineHeight: 10})
	d.Space(6)
	if r.plan != "" {
		d.Paragraph(r.plan, layout.TextOptions{Size: 16, Align: layout.AlignCenter, LineHeight: 8})
		d.Space(12)
	}
	center.Size = 14
	center.LineHeight = 7
	d.Paragraph("Prepared for "+r.client, center)
	d.Space(4)
	if r.company != "" {
		d.Paragraph("Prepared by "+r.company, layout.TextOptions{Size: 12, Align: layout.AlignCenter, Color: &muted, LineHeight: 6})
	}
	d.Paragraph(r.now.Format("January 2, 2006"), layout.TextOptions{Align: layout.AlignCenter, Color: &muted})
	d.PageBreak()
}

func (r *renderer) executiveSummary() {
	t := r.data.Totals()
	s := r.data.Summary()

	r.section("Executive Summary")
	n := len(r.data.Buckets)
	buckets := "income buckets"
	if n == 1 {
		buckets = "income bucket"
	}
	r.doc.Paragraph(fmt.Sprintf(
		"This plan allocates %s across %d %s, projecting %s of annual retirement income against a goal of %s.",
		plan.Money(t.Premium), n, buckets, plan.Money(s.ProjectedIncome), plan.Money(s.DesiredIncome),
	), layout.TextOptions{})
	r.doc.Space(3)

	r.doc.InfoBox("Total Premium", plan.Money(t.Premium), 0)
	r.doc.InfoBox("Total Future Value", plan.Money(t.FutureValue), 0)
	r.doc.InfoBox("Projected Annual Income", plan.Money(s.ProjectedIncome), 0)
	r.doc.InfoBox("Desired Income Covered", plan.Pct(s.DesiredCoverageRate), 0)
	if s.Shortfall > 0 {
		r.doc.InfoBox("Annual Income Shortfall", plan.Money(s.Shortfall), 0)
	}
	r.end()
}

func (r *renderer) clientInfo() {
	c := r.data.Client
	name := c.Name
	if name == "" {
		name = r.client
	}

	r.section("Client Information")
	r.doc.InfoBox("Client Name", name, 0)
	r.doc.InfoBox("Current Age", plan.Number(c.Age), 0)
	r.doc.InfoBox("Retirement Age", plan.Number(c.RetirementAge), 0)
	if c.LifeExpectancy > 0 {
		r.doc.InfoBox("Life Expectancy", plan.Number(c.LifeExpectancy), 0)
	}
	if c.MaritalStatus != "" {
		r.doc.InfoBox("Marital Status", titleCase(c.MaritalStatus), 0)
	}
	r.doc.InfoBox("Annual Income", plan.Money(c.AnnualIncome), 0)
	r.doc.InfoBox("Desired Retirement Income", plan.Money(c.DesiredRetirementIncome), 0)
	r.doc.InfoBox("Social Security", plan.Money(c.SocialSecurity), 0)
	r.doc.InfoBox("Pension", plan.Money(c.Pension), 0)
	r.doc.InfoBox("Risk Tolerance", riskLabel(c.RiskTolerance), 0)
	r.end()
}

func (r *renderer) assetBreakdown() {
	c := r.data.Client
	r.section("Asset Breakdown")
	if len(c.Assets) == 0 {
		r.doc.InfoBox("Total Assets", plan.Money(c.TotalAssets), 0)
		r.end()
		return
	}

	total := c.AssetTotal()
	rows := make([][]string, 0, len(c.Assets))
	for _, a := range c.Assets {
		rows = append(rows, []string{a.Category, plan.Money(a.Amount), plan.Pct(plan.Percent(a.Amount, total))})
	}
	r.doc.Table([]string{"Category", "Amount", "Share"}, rows, amountWidths)
	r.doc.TableRow([]string{"Total", plan.Money(total), plan.Pct(plan.Percent(total, total))}, amountWidths, layout.RowOptions{Bold: true})
	r.end()
}

func (r *renderer) bucketOverview() {
	r.section("Bucket Overview")
	header := []string{"Bucket", "Premium", "Allocation", "Rate", "Future Value", "Annual Income"}
	rows := make([][]string, 0, len(r.data.Buckets))
	for i, b := range r.data.Buckets {
		res := r.data.Result(b.ID)
		rows = append(rows, []string{
			bucketName(i, b),
			plan.Money(b.PremiumAmount),
			plan.Pct(b.Percentage),
			plan.Pct(b.InterestRate),
			plan.Money(res.FutureValue),
			plan.Money(res.AnnuityPayment),
		})
	}
	r.doc.Table(header, rows, bucketWidths)

	t := r.data.Totals()
	r.doc.TableRow([]string{
		"Total",
		plan.Money(t.Premium),
		plan.Pct(t.Percentage),
		plan.Pct(t.Rate),
		plan.Money(t.FutureValue),
		plan.Money(t.AnnuityPayment),
	}, bucketWidths, layout.RowOptions{Bold: true})
	r.end()
}

func (r *renderer) bucketDetails() {
	for i, b := range r.data.Buckets {
		res := r.data.Result(b.ID)
		r.section(fmt.Sprintf("Bucket %d: %s", i+1, bucketName(i, b)))
		r.doc.InfoBox("Premium Amount", plan.Money(b.PremiumAmount), 0)
		r.doc.InfoBox("Allocation", plan.Pct(b.Percentage), 0)
		r.doc.InfoBox("Interest Rate", plan.Pct(b.InterestRate), 0)
		r.doc.InfoBox("Delay Period", plan.Years(b.DelayPeriod), 0)
		r.doc.InfoBox("Income Period", plan.Years(b.IncomePeriods), 0)
		r.doc.InfoBox("Risk Tolerance", riskLabel(b.RiskTolerance), 0)
		r.doc.InfoBox("Future Value", plan.Money(res.FutureValue), 0)
		r.doc.InfoBox("Income Solve (Interest Only)", plan.Money(res.IncomeSolve), 0)
		r.doc.InfoBox("Annuity Payment", plan.Money(res.AnnuityPayment), 0)
		r.doc.InfoBox("Estimated Premium", plan.Money(res.EstimatedPremium), 0)
		r.end()
	}
}

func (r *renderer) retirementSummary() {
	s := r.data.Summary()
	r.section("Retirement Plan Summary")
	r.doc.InfoBox("Years Until Retirement", plan.Years(s.YearsToRetirement), 0)
	r.doc.InfoBox("Years in Retirement", plan.Years(s.YearsInRetirement), 0)
	r.doc.InfoBox("Guaranteed Income", plan.Money(s.GuaranteedIncome), 0)
	r.doc.InfoBox("Bucket Income", plan.Money(s.BucketIncome), 0)
	r.doc.InfoBox("Projected Annual Income", plan.Money(s.ProjectedIncome), 0)
	r.doc.InfoBox("Desired Annual Income", plan.Money(s.DesiredIncome), 0)
	r.doc.InfoBox("Income Shortfall", plan.Money(s.Shortfall), 0)
	r.doc.InfoBox("Income Replacement Ratio", plan.Pct(s.IncomeReplacement), 0)
	r.doc.InfoBox("Assets Allocated", plan.Pct(s.AllocatedOfAssets), 0)
	r.end()
}

func bucketName(i int, b plan.Bucket) string {
	if b.Name != "" {
		return b.Name
	}
	return fmt.Sprintf("Bucket %d", i+1)
}

func riskLabel(s string) string {
	if s == "" {
		return "Not specified"
	}
	return titleCase(s)
}

// titleCase builds a Caser per call; Casers are not safe for concurrent use.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}
