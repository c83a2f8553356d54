package plan

import "math"

// Project computes a bucket's projection for client c.
//
//   - FutureValue: premium compounded annually over the delay period.
//   - IncomeSolve: the interest-only annual income the future value yields,
//     leaving principal intact.
//   - AnnuityPayment: the level annual payment that exhausts the future
//     value over the income periods.
//   - EstimatedPremium: the premium that would fund this bucket's share
//     (Percentage) of the client's income gap as an annuity payment. When
//     there is no gap it is the premium itself.
func Project(b Bucket, c ClientProfile) Result {
	r := b.InterestRate / 100
	fv := b.PremiumAmount * math.Pow(1+r, float64(b.DelayPeriod))

	res := Result{
		FutureValue:      round2(fv),
		IncomeSolve:      round2(fv * r),
		AnnuityPayment:   round2(Payment(fv, r, b.IncomePeriods)),
		EstimatedPremium: round2(b.PremiumAmount),
	}

	if gap := c.IncomeGap() * b.Percentage / 100; gap > 0 && b.IncomePeriods > 0 {
		need := presentValue(gap, r, b.IncomePeriods)
		res.EstimatedPremium = round2(need / math.Pow(1+r, float64(b.DelayPeriod)))
	}
	return res
}

// Payment is the level payment per period that amortizes pv over n periods
// at rate r per period. With r == 0 it is pv/n.
func Payment(pv, r float64, n int) float64 {
	if n <= 0 || pv == 0 {
		return 0
	}
	if r == 0 {
		return pv / float64(n)
	}
	return pv * r / (1 - math.Pow(1+r, -float64(n)))
}

func presentValue(payment, r float64, n int) float64 {
	if r == 0 {
		return payment * float64(n)
	}
	return payment * (1 - math.Pow(1+r, -float64(n))) / r
}

// IncomeGap is the desired retirement income not covered by Social
// Security and pension, floored at zero.
func (c ClientProfile) IncomeGap() float64 {
	gap := c.DesiredRetirementIncome - c.SocialSecurity - c.Pension
	if gap < 0 {
		return 0
	}
	return gap
}

// Compute returns d with a projection for every bucket that lacks one.
// Existing results are kept as supplied. d itself is not modified.
func Compute(d Data) Data {
	out := d
	out.Results = make(map[string]Result, len(d.Buckets))
	for id, r := range d.Results {
		out.Results[id] = r
	}
	for _, b := range d.Buckets {
		if _, ok := out.Results[b.ID]; !ok {
			out.Results[b.ID] = Project(b, d.Client)
		}
	}
	return out
}

// Recompute returns d with every projection recalculated.
func Recompute(d Data) Data {
	out := d
	out.Results = make(map[string]Result, len(d.Buckets))
	for _, b := range d.Buckets {
		out.Results[b.ID] = Project(b, d.Client)
	}
	return out
}

// Totals are the sums across all buckets of a plan.
type Totals struct {
	Premium          float64
	Percentage       float64
	FutureValue      float64
	IncomeSolve      float64
	AnnuityPayment   float64
	EstimatedPremium float64
	Rate             float64 // premium-weighted interest rate, percent
}

// Totals sums the buckets and their projections.
func (d Data) Totals() Totals {
	var t Totals
	var weighted float64
	for _, b := range d.Buckets {
		r := d.Result(b.ID)
		weighted += b.PremiumAmount * b.InterestRate
		t.Premium += b.PremiumAmount
		t.Percentage += b.Percentage
		t.FutureValue += r.FutureValue
		t.IncomeSolve += r.IncomeSolve
		t.AnnuityPayment += r.AnnuityPayment
		t.EstimatedPremium += r.EstimatedPremium
	}
	if t.Premium > 0 {
		t.Rate = weighted / t.Premium
	}
	return t
}

// AssetTotal is the sum of the itemized assets, or TotalAssets when none
// are itemized.
func (c ClientProfile) AssetTotal() float64 {
	if len(c.Assets) == 0 {
		return c.TotalAssets
	}
	var sum float64
	for _, a := range c.Assets {
		sum += a.Amount
	}
	return sum
}

// Summary is the retirement picture across all income sources.
type Summary struct {
	YearsToRetirement   int
	YearsInRetirement   int
	GuaranteedIncome    float64 // Social Security + pension
	BucketIncome        float64 // sum of annuity payments
	ProjectedIncome     float64
	DesiredIncome       float64
	Shortfall           float64 // desired - projected, floored at zero
	IncomeReplacement   float64 // projected / current annual income, percent
	AllocatedOfAssets   float64 // total premium / total assets, percent
	DesiredCoverageRate float64 // projected / desired, percent
}

// Summary derives the retirement summary. Ratios with a zero denominator
// are zero.
func (d Data) Summary() Summary {
	c := d.Client
	t := d.Totals()
	s := Summary{
		YearsToRetirement: nonNegative(c.RetirementAge - c.Age),
		YearsInRetirement: nonNegative(c.LifeExpectancy - c.RetirementAge),
		GuaranteedIncome:  c.SocialSecurity + c.Pension,
		BucketIncome:      t.AnnuityPayment,
		DesiredIncome:     c.DesiredRetirementIncome,
	}
	s.ProjectedIncome = s.GuaranteedIncome + s.BucketIncome
	if gap := s.DesiredIncome - s.ProjectedIncome; gap > 0 {
		s.Shortfall = gap
	}
	s.IncomeReplacement = Percent(s.ProjectedIncome, c.AnnualIncome)
	s.AllocatedOfAssets = Percent(t.Premium, c.TotalAssets)
	s.DesiredCoverageRate = Percent(s.ProjectedIncome, s.DesiredIncome)
	return s
}

// Percent is part/whole as a percentage, or 0 when whole is not positive.
func Percent(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return part / whole * 100
}

// MaxTimelineYears bounds the growth timeline.
const MaxTimelineYears = 60

// Timeline is the year-by-year balance of each bucket: growth through the
// delay period, then drawdown by the annuity payment.
type Timeline struct {
	Years    []int
	Balances [][]float64 // one row per bucket, aligned with Years
}

// Timeline projects every bucket's balance from year 0 to the end of the
// longest delay + income horizon.
func (d Data) Timeline() Timeline {
	if len(d.Buckets) == 0 {
		return Timeline{}
	}
	horizon := 0
	for _, b := range d.Buckets {
		if h := nonNegative(b.DelayPeriod) + nonNegative(b.IncomePeriods); h > horizon {
			horizon = h
		}
	}
	if horizon > MaxTimelineYears {
		horizon = MaxTimelineYears
	}
	tl := Timeline{Years: make([]int, horizon+1)}
	for y := range tl.Years {
		tl.Years[y] = y
	}
	for _, b := range d.Buckets {
		r := b.InterestRate / 100
		payment := d.Result(b.ID).AnnuityPayment
		bal := b.PremiumAmount
		row := make([]float64, horizon+1)
		row[0] = round2(bal)
		for y := 1; y <= horizon; y++ {
			bal *= 1 + r
			if y > b.DelayPeriod {
				bal -= payment
			}
			if bal < 0 || y > b.DelayPeriod+b.IncomePeriods {
				bal = 0
			}
			row[y] = round2(bal)
		}
		tl.Balances = append(tl.Balances, row)
	}
	return tl
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
