// Package events records advisors' marketing events with their attendance,
// appointments and financial production, and derives the metrics the
// dashboard shows: costs, commission income, ROI and conversion rates.
package events

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Event types.
const (
	TypeSeminar  = "seminar"
	TypeWorkshop = "workshop"
	TypeWebinar  = "webinar"
	TypeDinner   = "dinner"
	TypeOther    = "other"
)

var validTypes = map[string]bool{
	TypeSeminar:  true,
	TypeWorkshop: true,
	TypeWebinar:  true,
	TypeDinner:   true,
	TypeOther:    true,
}

// Attendance counts who registered and who came.
type Attendance struct {
	Registrants int `json:"registrants" yaml:"registrants"`
	Attendees   int `json:"attendees" yaml:"attendees"`
	Households  int `json:"households" yaml:"households"`
}

// Appointments tracks appointments booked at the event and how many were
// kept.
type Appointments struct {
	Set          int `json:"set" yaml:"set"`
	FirstKept    int `json:"firstKept" yaml:"firstKept"`
	SecondKept   int `json:"secondKept" yaml:"secondKept"`
	NotQualified int `json:"notQualified" yaml:"notQualified"`
}

// Production is business written from an event's appointments. Rates are
// percents. The income fields are derived by Compute.
type Production struct {
	AnnuityPremium        float64 `json:"annuityPremium" yaml:"annuityPremium"`
	AnnuityCommissionRate float64 `json:"annuityCommissionRate" yaml:"annuityCommissionRate"`
	LifePremium           float64 `json:"lifePremium" yaml:"lifePremium"`
	LifeCommissionRate    float64 `json:"lifeCommissionRate" yaml:"lifeCommissionRate"`
	AUM                   float64 `json:"aum" yaml:"aum"`
	AUMFeeRate            float64 `json:"aumFeeRate" yaml:"aumFeeRate"`
	Clients               int     `json:"clients" yaml:"clients"`

	AnnuityCommission float64 `json:"annuityCommission" yaml:"annuityCommission"`
	LifeCommission    float64 `json:"lifeCommission" yaml:"lifeCommission"`
	AUMIncome         float64 `json:"aumIncome" yaml:"aumIncome"`
	TotalIncome       float64 `json:"totalIncome" yaml:"totalIncome"`
}

// Commission is premium × rate, with rate in percent.
func Commission(premium, rate float64) float64 {
	return round2(premium * rate / 100)
}

// Compute returns p with the income fields derived from premiums and rates.
func (p Production) Compute() Production {
	p.AnnuityCommission = Commission(p.AnnuityPremium, p.AnnuityCommissionRate)
	p.LifeCommission = Commission(p.LifePremium, p.LifeCommissionRate)
	p.AUMIncome = Commission(p.AUM, p.AUMFeeRate)
	p.TotalIncome = round2(p.AnnuityCommission + p.LifeCommission + p.AUMIncome)
	return p
}

// Event is one marketing event and everything recorded against it.
type Event struct {
	ID            string       `json:"id"`
	UserID        string       `json:"user_id"`
	Name          string       `json:"name"`
	Type          string       `json:"type"`
	Date          time.Time    `json:"date"`
	Location      string       `json:"location,omitempty"`
	MarketingCost float64      `json:"marketing_cost"`
	VenueCost     float64      `json:"venue_cost"`
	FoodCost      float64      `json:"food_cost"`
	OtherCost     float64      `json:"other_cost"`
	Notes         string       `json:"notes,omitempty"`
	Attendance    Attendance   `json:"attendance"`
	Appointments  Appointments `json:"appointments"`
	Production    Production   `json:"production"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// TotalCost sums the event's expenses.
func (e Event) TotalCost() float64 {
	return round2(e.MarketingCost + e.VenueCost + e.FoodCost + e.OtherCost)
}

// ValidationError lists every problem found in an event.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid event: " + strings.Join(e.Problems, "; ")
}

// Validate checks an event before it is stored.
func Validate(e Event) error {
	var p []string
	add := func(format string, args ...any) { p = append(p, fmt.Sprintf(format, args...)) }

	if strings.TrimSpace(e.UserID) == "" {
		add("user_id is required")
	}
	if strings.TrimSpace(e.Name) == "" {
		add("event name is required")
	}
	if !validTypes[e.Type] {
		add("unknown event type %q", e.Type)
	}
	if e.Date.IsZero() {
		add("event date is required")
	}
	for name, v := range map[string]float64{
		"marketing cost":  e.MarketingCost,
		"venue cost":      e.VenueCost,
		"food cost":       e.FoodCost,
		"other cost":      e.OtherCost,
		"annuity premium": e.Production.AnnuityPremium,
		"life premium":    e.Production.LifePremium,
		"aum":             e.Production.AUM,
	} {
		if v < 0 {
			add("%s must not be negative", name)
		}
	}
	for name, v := range map[string]float64{
		"annuity commission rate": e.Production.AnnuityCommissionRate,
		"life commission rate":    e.Production.LifeCommissionRate,
		"aum fee rate":            e.Production.AUMFeeRate,
	} {
		if v < 0 || v > 100 {
			add("%s %.2f out of range", name, v)
		}
	}
	for name, v := range map[string]int{
		"registrants":   e.Attendance.Registrants,
		"attendees":     e.Attendance.Attendees,
		"households":    e.Attendance.Households,
		"appointments":  e.Appointments.Set,
		"first kept":    e.Appointments.FirstKept,
		"second kept":   e.Appointments.SecondKept,
		"not qualified": e.Appointments.NotQualified,
		"clients":       e.Production.Clients,
	} {
		if v < 0 {
			add("%s must not be negative", name)
		}
	}
	if e.Appointments.FirstKept > e.Appointments.Set {
		add("first kept %d exceeds appointments set %d", e.Appointments.FirstKept, e.Appointments.Set)
	}

	if len(p) == 0 {
		return nil
	}
	// map iteration order is random
	sort.Strings(p)
	return &ValidationError{Problems: p}
}
