package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/planreport/internal/config"
	"github.com/dgallion1/planreport/internal/inspect"
	"github.com/dgallion1/planreport/internal/plan"
	"github.com/dgallion1/planreport/internal/report"
)

// Worker renders a single report job.
type Worker struct {
	plans PlanLoader
	gen   *report.Generator
	stats *RenderStats
	log   *slog.Logger

	companyName   string
	renderTimeout time.Duration
	backoff       func(attempt int) time.Duration
}

func NewWorker(plans PlanLoader, gen *report.Generator, stats *RenderStats, log *slog.Logger, cfg config.Config) *Worker {
	return &Worker{
		plans:         plans,
		gen:           gen,
		stats:         stats,
		log:           log,
		companyName:   cfg.CompanyName,
		renderTimeout: cfg.RenderTimeout,
		backoff:       Backoff,
	}
}

// Process loads the plan, renders it and checks the output.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "plan_id", job.PlanID, "user_id", job.UserID)

	// Phase 1: Load
	job.SetStatus(StatusLoading, "loading")
	p, err := w.load(ctx, job, log)
	if err != nil {
		log.Error("plan load failed", "error", err)
		job.AddError(fmt.Sprintf("load: %s", err))
		job.SetStatus(StatusFailed, "loading")
		return
	}

	// Phase 2: Render
	job.SetStatus(StatusRendering, "rendering")
	company := p.CompanyName
	if company == "" {
		company = w.companyName
	}
	charts := report.DefaultCharts(p.Data)

	renderCtx := ctx
	if w.renderTimeout > 0 {
		var cancel context.CancelFunc
		renderCtx, cancel = context.WithTimeout(ctx, w.renderTimeout)
		defer cancel()
	}
	start := time.Now()
	res, err := w.gen.Render(renderCtx, p.Data, p.ClientName, p.Name, charts, company)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		w.stats.Record(Outcome{Mode: ModeAsync, Failed: true, DurationMs: elapsed})
		log.Error("render failed", "error", err)
		job.AddError(fmt.Sprintf("render: %s", err))
		job.SetStatus(StatusFailed, "rendering")
		return
	}

	// Phase 3: Inspect
	job.SetStatus(StatusInspecting, "inspecting")
	pages := res.Pages
	doc, err := inspect.Bytes(res.PDF)
	if err != nil {
		// The PDF is still served with the page count from layout.
		log.Warn("inspect failed", "error", err)
		job.AddError(fmt.Sprintf("inspect: %s", err))
	} else {
		pages = doc.PageCount()
	}
	if res.ChartFailures > 0 {
		job.AddError(fmt.Sprintf("charts: %d of %d failed", res.ChartFailures, charts.Count()))
	}
	w.stats.Record(Outcome{
		Mode:          ModeAsync,
		Pages:         pages,
		ChartsDrawn:   res.ChartsDrawn,
		ChartFailures: res.ChartFailures,
		DurationMs:    elapsed,
	})

	job.SetResult(res.PDF, pages, res.ChartsDrawn, elapsed)
	log.Info("report rendered", "pages", pages, "bytes", len(res.PDF), "charts", res.ChartsDrawn, "render_ms", elapsed)
	job.SetStatus(StatusCompleted, "done")
}

// load fetches the job's plan, retrying transient store failures with
// backoff.
func (w *Worker) load(ctx context.Context, job *Job, log *slog.Logger) (plan.Plan, error) {
	var p plan.Plan
	var lastErr error
	for attempt := range MaxRetries {
		job.IncrAttempts()
		p, lastErr = w.plans.Get(ctx, job.UserID, job.PlanID)
		if lastErr == nil || !IsRetryable(lastErr) {
			break
		}
		log.Warn("retryable plan load error", "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(w.backoff(attempt)):
		case <-ctx.Done():
			return plan.Plan{}, errors.Join(lastErr, ctx.Err())
		}
	}
	return p, lastErr
}
