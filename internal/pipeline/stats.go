package pipeline

import (
	"sort"
	"sync"
	"time"
)

// Mode is how a report was requested.
type Mode string

const (
	ModeSync  Mode = "sync"  // POST /api/reports/render
	ModeAsync Mode = "async" // queued job
)

// Outcome is one finished render attempt. Failed renders carry no pages or
// charts but still count toward failure rates.
type Outcome struct {
	Mode          Mode
	Failed        bool
	Pages         int
	ChartsDrawn   int
	ChartFailures int
	DurationMs    int64
}

type sample struct {
	timestamp time.Time
	Outcome
}

// ModeCounts are render counts for one mode.
type ModeCounts struct {
	Renders     int     `json:"renders"`
	Failed      int     `json:"failed"`
	FailureRate float64 `json:"failure_rate"`
}

// Latency aggregates the durations of successful renders.
type Latency struct {
	Count int     `json:"count"`
	MinMs int64   `json:"min_ms"`
	MaxMs int64   `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`
}

// StatsSnapshot is a point-in-time aggregate of recent render outcomes.
type StatsSnapshot struct {
	Renders     int        `json:"renders"`
	Failed      int        `json:"failed"`
	FailureRate float64    `json:"failure_rate"`
	Sync        ModeCounts `json:"sync"`
	Async       ModeCounts `json:"async"`

	Pages    int     `json:"pages"`
	AvgPages float64 `json:"avg_pages"`

	ChartsDrawn      int     `json:"charts_drawn"`
	ChartFailures    int     `json:"chart_failures"`
	ChartFailureRate float64 `json:"chart_failure_rate"`

	Latency Latency `json:"latency"`
}

// RenderStats tracks recent render outcomes within a rolling window. Sync
// and async renders share one tracker.
type RenderStats struct {
	mu      sync.Mutex
	samples []sample
	maxAge  time.Duration
	now     func() time.Time
}

func NewRenderStats(maxAge time.Duration) *RenderStats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &RenderStats{
		samples: make([]sample, 0, 256),
		maxAge:  maxAge,
		now:     time.Now,
	}
}

// Record adds one outcome. An empty mode counts as async.
func (s *RenderStats) Record(o Outcome) {
	if o.DurationMs < 0 {
		o.DurationMs = 0
	}
	if o.Mode == "" {
		o.Mode = ModeAsync
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	s.samples = append(s.samples, sample{timestamp: now, Outcome: o})
}

func (s *RenderStats) Snapshot() StatsSnapshot {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	var snap StatsSnapshot
	values := make([]int64, 0, len(s.samples))
	var sum int64
	succeeded := 0
	for _, sm := range s.samples {
		counts := &snap.Async
		if sm.Mode == ModeSync {
			counts = &snap.Sync
		}
		snap.Renders++
		counts.Renders++
		if sm.Failed {
			snap.Failed++
			counts.Failed++
			continue
		}
		succeeded++
		snap.Pages += sm.Pages
		snap.ChartsDrawn += sm.ChartsDrawn
		snap.ChartFailures += sm.ChartFailures
		values = append(values, sm.DurationMs)
		sum += sm.DurationMs
	}

	snap.FailureRate = rate(snap.Failed, snap.Renders)
	snap.Sync.FailureRate = rate(snap.Sync.Failed, snap.Sync.Renders)
	snap.Async.FailureRate = rate(snap.Async.Failed, snap.Async.Renders)
	snap.ChartFailureRate = rate(snap.ChartFailures, snap.ChartsDrawn+snap.ChartFailures)
	if succeeded > 0 {
		snap.AvgPages = float64(snap.Pages) / float64(succeeded)
	}

	if len(values) == 0 {
		return snap
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	snap.Latency = Latency{
		Count: len(values),
		MinMs: values[0],
		MaxMs: values[len(values)-1],
		AvgMs: float64(sum) / float64(len(values)),
		P50Ms: percentile(values, 50),
		P95Ms: percentile(values, 95),
		P99Ms: percentile(values, 99),
	}
	return snap
}

func rate(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

func (s *RenderStats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.maxAge)
	writeIdx := 0
	for _, sm := range s.samples {
		if !sm.timestamp.Before(cutoff) {
			s.samples[writeIdx] = sm
			writeIdx++
		}
	}
	s.samples = s.samples[:writeIdx]
}

// percentile interpolates linearly between the two nearest ranks.
func percentile(sortedValues []int64, pct float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sortedValues[0])
	}
	if pct >= 100 {
		return float64(sortedValues[len(sortedValues)-1])
	}

	index := (float64(len(sortedValues)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sortedValues) {
		return float64(sortedValues[lower])
	}
	weight := index - float64(lower)
	lo := float64(sortedValues[lower])
	hi := float64(sortedValues[upper])
	return lo + ((hi - lo) * weight)
}
