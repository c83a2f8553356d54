// Package export writes a plan to office formats: a Word summary and an
// Excel workbook with the buckets and year-by-year projection.
package export

import (
	"github.com/dgallion1/planreport/internal/plan"
)

type kind int

const (
	money kind = iota
	percent
	years
	count
)

// field is one labelled figure shared by the Word and Excel exports.
type field struct {
	Label string
	Value float64
	Kind  kind
}

func (f field) String() string {
	switch f.Kind {
	case percent:
		return plan.Pct(f.Value)
	case years:
		return plan.Years(int(f.Value))
	case count:
		return plan.Number(int(f.Value))
	default:
		return plan.Money(f.Value)
	}
}

func summaryFields(d plan.Data) []field {
	t := d.Totals()
	s := d.Summary()
	return []field{
		{"Total Assets", d.Client.TotalAssets, money},
		{"Total Premium", t.Premium, money},
		{"Assets Allocated", s.AllocatedOfAssets, percent},
		{"Weighted Interest Rate", t.Rate, percent},
		{"Total Future Value", t.FutureValue, money},
		{"Years Until Retirement", float64(s.YearsToRetirement), years},
		{"Years in Retirement", float64(s.YearsInRetirement), years},
		{"Guaranteed Income", s.GuaranteedIncome, money},
		{"Bucket Income", s.BucketIncome, money},
		{"Projected Annual Income", s.ProjectedIncome, money},
		{"Desired Annual Income", s.DesiredIncome, money},
		{"Income Shortfall", s.Shortfall, money},
		{"Desired Income Covered", s.DesiredCoverageRate, percent},
	}
}

var bucketHeader = []string{"Bucket", "Premium", "Allocation", "Rate", "Delay", "Income Years", "Future Value", "Income Solve", "Annuity Payment", "Estimated Premium"}

func bucketName(i int, b plan.Bucket) string {
	if b.Name != "" {
		return b.Name
	}
	return "Bucket " + plan.Number(i+1)
}

// bucketFields returns one row of figures per bucket, aligned with
// bucketHeader after the name column.
func bucketFields(d plan.Data) [][]field {
	rows := make([][]field, 0, len(d.Buckets))
	for _, b := range d.Buckets {
		r := d.Result(b.ID)
		rows = append(rows, []field{
			{Value: b.PremiumAmount, Kind: money},
			{Value: b.Percentage, Kind: percent},
			{Value: b.InterestRate, Kind: percent},
			{Value: float64(b.DelayPeriod), Kind: count},
			{Value: float64(b.IncomePeriods), Kind: count},
			{Value: r.FutureValue, Kind: money},
			{Value: r.IncomeSolve, Kind: money},
			{Value: r.AnnuityPayment, Kind: money},
			{Value: r.EstimatedPremium, Kind: money},
		})
	}
	return rows
}
