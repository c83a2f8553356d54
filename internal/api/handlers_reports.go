package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dgallion1/planreport/internal/chart"
	"github.com/dgallion1/planreport/internal/pipeline"
	"github.com/dgallion1/planreport/internal/plan"
	"github.com/dgallion1/planreport/internal/report"
)

// exportName is the report download name for a plan.
func exportName(p plan.Plan) string {
	return report.Filename(p.ClientName, p.Name, time.Now())
}

// handleSubmitReport queues an asynchronous render of a stored plan.
func (s *Server) handleSubmitReport(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadPlan(w, r)
	if !ok {
		return
	}

	now := time.Now()
	job := &pipeline.Job{
		ID:        uuid.NewString(),
		PlanID:    p.ID,
		UserID:    p.UserID,
		Status:    pipeline.StatusQueued,
		Phase:     "queued",
		Filename:  exportName(p),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":       job.ID,
		"plan_id":      job.PlanID,
		"status":       pipeline.StatusQueued,
		"poll_url":     fmt.Sprintf("/api/reports/%s/status", job.ID),
		"download_url": fmt.Sprintf("/api/reports/%s/download", job.ID),
	})
}

func (s *Server) handleReportStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleReportDownload(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	switch snap.Status {
	case pipeline.StatusCompleted:
	case pipeline.StatusFailed:
		jsonError(w, "report generation failed", http.StatusGone)
		return
	default:
		jsonError(w, fmt.Sprintf("report not ready (%s)", snap.Status), http.StatusConflict)
		return
	}

	etag := `"` + snap.ContentHash + `"`
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	data := job.PDFData()
	attachment(w, "application/pdf", snap.Filename)
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

// snapshotInput is a chart image captured by the dashboard. Data is
// base64 in JSON.
type snapshotInput struct {
	Data      []byte `json:"data"`
	DarkTheme bool   `json:"darkTheme,omitempty"`
}

func (in *snapshotInput) source() chart.Source {
	if in == nil {
		return nil
	}
	return chart.Snapshot{Data: in.Data, DarkTheme: in.DarkTheme}
}

type renderRequest struct {
	plan.Plan
	// Charts=false drops the charts drawn from plan data. Snapshots are
	// embedded either way.
	Charts    *bool `json:"charts,omitempty"`
	Snapshots struct {
		Portfolio *snapshotInput `json:"portfolio,omitempty"`
		Income    *snapshotInput `json:"income,omitempty"`
		Growth    *snapshotInput `json:"growth,omitempty"`
	} `json:"snapshots"`
}

// charts returns the default charts with any posted snapshots in place.
func (req *renderRequest) charts(d plan.Data) (report.Charts, error) {
	var c report.Charts
	if req.Charts == nil || *req.Charts {
		c = report.DefaultCharts(d)
	}
	for _, slot := range []struct {
		name string
		in   *snapshotInput
		dst  *chart.Source
	}{
		{"portfolio", req.Snapshots.Portfolio, &c.Portfolio},
		{"income", req.Snapshots.Income, &c.Income},
		{"growth", req.Snapshots.Growth, &c.Growth},
	} {
		if slot.in == nil {
			continue
		}
		if len(slot.in.Data) == 0 {
			return report.Charts{}, fmt.Errorf("snapshot %s has no image data", slot.name)
		}
		*slot.dst = slot.in.source()
	}
	return c, nil
}

// handleRender generates a report synchronously from the posted plan
// without storing it.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	p := req.Plan
	if err := plan.Validate(p.Data); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	charts, err := req.charts(p.Data)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if p.ClientName == "" {
		p.ClientName = p.Data.Client.Name
	}
	company := p.CompanyName
	if company == "" {
		company = s.cfg.CompanyName
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RenderTimeout)
	defer cancel()
	start := time.Now()
	res, err := s.gen.Render(ctx, p.Data, p.ClientName, p.Name, charts, company)
	outcome := pipeline.Outcome{Mode: pipeline.ModeSync, DurationMs: time.Since(start).Milliseconds()}
	if err != nil {
		outcome.Failed = true
		s.recordRender(outcome)
		if errors.Is(err, context.DeadlineExceeded) {
			jsonError(w, "report generation timed out", http.StatusGatewayTimeout)
			return
		}
		s.log.Error("render failed", "error", err)
		jsonError(w, "report generation failed", http.StatusInternalServerError)
		return
	}
	outcome.Pages = res.Pages
	outcome.ChartsDrawn = res.ChartsDrawn
	outcome.ChartFailures = res.ChartFailures
	s.recordRender(outcome)

	attachment(w, "application/pdf", exportName(p))
	w.Header().Set("ETag", `"`+pipeline.ContentHashHex(res.PDF)+`"`)
	w.Header().Set("X-Report-Pages", strconv.Itoa(res.Pages))
	w.Header().Set("X-Report-Charts", strconv.Itoa(res.ChartsDrawn))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.PDF)))
	w.Write(res.PDF)
}

func (s *Server) recordRender(o pipeline.Outcome) {
	if s.orchestrator != nil {
		s.orchestrator.Stats().Record(o)
	}
}
