package events

import "math"

// Metrics are derived from one event, or from the sums over many. Rates
// and ROI are percents; every ratio is 0 when its denominator is not
// positive.
type Metrics struct {
	TotalCost       float64 `json:"totalCost"`
	TotalIncome     float64 `json:"totalIncome"`
	NetIncome       float64 `json:"netIncome"`
	ROI             float64 `json:"roi"`
	AttendanceRate  float64 `json:"attendanceRate"`
	AppointmentRate float64 `json:"appointmentRate"`
	KeptRate        float64 `json:"keptRate"`
	CloseRate       float64 `json:"closeRate"`
	CostPerAttendee float64 `json:"costPerAttendee"`
	CostPerClient   float64 `json:"costPerClient"`
}

func ratio(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return round2(part / whole)
}

func pct(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return round2(part / whole * 100)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

// totals is what metrics are computed from.
type totals struct {
	cost, income                   float64
	registrants, attendees, houses int
	set, firstKept, clients        int
}

func (t totals) metrics() Metrics {
	return Metrics{
		TotalCost:       round2(t.cost),
		TotalIncome:     round2(t.income),
		NetIncome:       round2(t.income - t.cost),
		ROI:             pct(t.income-t.cost, t.cost),
		AttendanceRate:  pct(float64(t.attendees), float64(t.registrants)),
		AppointmentRate: pct(float64(t.set), float64(t.houses)),
		KeptRate:        pct(float64(t.firstKept), float64(t.set)),
		CloseRate:       pct(float64(t.clients), float64(t.firstKept)),
		CostPerAttendee: ratio(t.cost, float64(t.attendees)),
		CostPerClient:   ratio(t.cost, float64(t.clients)),
	}
}

func (t *totals) add(e Event) {
	t.cost += e.TotalCost()
	t.income += e.Production.Compute().TotalIncome
	t.registrants += e.Attendance.Registrants
	t.attendees += e.Attendance.Attendees
	t.houses += e.Attendance.Households
	t.set += e.Appointments.Set
	t.firstKept += e.Appointments.FirstKept
	t.clients += e.Production.Clients
}

// EventMetrics derives the metrics of one event.
func EventMetrics(e Event) Metrics {
	var t totals
	t.add(e)
	return t.metrics()
}

// Summary aggregates an advisor's events.
type Summary struct {
	Events       int            `json:"events"`
	Attendees    int            `json:"attendees"`
	Appointments int            `json:"appointments"`
	Clients      int            `json:"clients"`
	ByType       map[string]int `json:"byType"`
	Metrics      Metrics        `json:"metrics"`
}

// Summarize sums events and derives metrics from the totals, so rates are
// weighted by volume rather than averaged per event.
func Summarize(events []Event) Summary {
	var t totals
	s := Summary{Events: len(events), ByType: make(map[string]int)}
	for _, e := range events {
		t.add(e)
		s.ByType[e.Type]++
	}
	s.Attendees = t.attendees
	s.Appointments = t.set
	s.Clients = t.clients
	s.Metrics = t.metrics()
	return s
}
