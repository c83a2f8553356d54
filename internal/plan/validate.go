package plan

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

var validRisk = map[string]bool{
	"":             true,
	"conservative": true,
	"moderate":     true,
	"aggressive":   true,
}

var validNotesFormats = map[string]bool{
	"":            true,
	NotesText:     true,
	NotesMarkdown: true,
	NotesHTML:     true,
	NotesCSV:      true,
}

// Plan limits.
const (
	MaxBuckets = 20
	MaxAmount  = 1e15 // dollars, any single money field
	MaxPeriods = 100  // years, delay or income
)

// ValidationError lists every problem found in a plan.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid plan: " + strings.Join(e.Problems, "; ")
}

// Validate checks plan data before it is stored or rendered. It returns a
// *ValidationError listing all problems, or nil.
func Validate(d Data) error {
	var p []string
	add := func(format string, args ...any) { p = append(p, fmt.Sprintf(format, args...)) }
	money := func(what string, v float64) {
		switch {
		case math.IsNaN(v) || math.IsInf(v, 0):
			add("%s must be a finite number", what)
		case v < 0:
			add("%s must not be negative", what)
		case v > MaxAmount:
			add("%s exceeds %s", what, Money(MaxAmount))
		}
	}

	c := d.Client
	if c.Age < 0 || c.Age > 120 {
		add("client age %d out of range", c.Age)
	}
	if c.RetirementAge != 0 && c.RetirementAge < c.Age {
		add("retirement age %d before current age %d", c.RetirementAge, c.Age)
	}
	money("total assets", c.TotalAssets)
	money("annual income", c.AnnualIncome)
	money("desired retirement income", c.DesiredRetirementIncome)
	money("social security", c.SocialSecurity)
	money("pension", c.Pension)
	if !validRisk[strings.ToLower(c.RiskTolerance)] {
		add("unknown client risk tolerance %q", c.RiskTolerance)
	}
	for i, a := range c.Assets {
		if strings.TrimSpace(a.Category) == "" {
			add("asset %d has no category", i+1)
		}
		money(fmt.Sprintf("asset %q amount", a.Category), a.Amount)
	}

	if len(d.Buckets) > MaxBuckets {
		add("too many buckets: %d (max %d)", len(d.Buckets), MaxBuckets)
	}
	seen := make(map[string]bool, len(d.Buckets))
	for i, b := range d.Buckets {
		name := b.Name
		if name == "" {
			name = fmt.Sprintf("bucket %d", i+1)
		}
		switch {
		case b.ID == "":
			add("%s has no id", name)
		case seen[b.ID]:
			add("duplicate bucket id %q", b.ID)
		}
		seen[b.ID] = true
		money(name+" premium", b.PremiumAmount)
		if !(b.InterestRate >= 0 && b.InterestRate <= 100) {
			add("%s interest rate %v out of range", name, b.InterestRate)
		}
		if b.DelayPeriod < 0 || b.IncomePeriods < 0 {
			add("%s periods must not be negative", name)
		}
		if b.DelayPeriod > MaxPeriods || b.IncomePeriods > MaxPeriods {
			add("%s periods exceed %d years", name, MaxPeriods)
		}
		if !(b.Percentage >= 0 && b.Percentage <= 100) {
			add("%s percentage %v out of range", name, b.Percentage)
		}
		if !validRisk[strings.ToLower(b.RiskTolerance)] {
			add("%s has unknown risk tolerance %q", name, b.RiskTolerance)
		}
	}

	for _, id := range sortedKeys(d.Results) {
		r := d.Results[id]
		for _, f := range []struct {
			field string
			v     float64
		}{
			{"futureValue", r.FutureValue},
			{"incomeSolve", r.IncomeSolve},
			{"annuityPayment", r.AnnuityPayment},
			{"estimatedPremium", r.EstimatedPremium},
		} {
			if math.IsNaN(f.v) || math.IsInf(f.v, 0) || f.v < 0 {
				add("result %q %s must be a finite, non-negative number", id, f.field)
			}
		}
	}

	if !validNotesFormats[d.NotesFormat] {
		add("unsupported notes format %q", d.NotesFormat)
	}

	if len(p) > 0 {
		return &ValidationError{Problems: p}
	}
	return nil
}

func sortedKeys(m map[string]Result) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
