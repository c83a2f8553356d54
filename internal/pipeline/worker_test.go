package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/planreport/internal/config"
	"github.com/dgallion1/planreport/internal/layout"
	"github.com/dgallion1/planreport/internal/plan"
	"github.com/dgallion1/planreport/internal/report"
	"github.com/dgallion1/planreport/internal/tabledb"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func testPlan() plan.Plan {
	return plan.Plan{
		ID:         "p1",
		UserID:     "u1",
		Name:       "Retirement",
		ClientName: "Jane Doe",
		Data: plan.Data{
			Client:  plan.ClientProfile{Name: "Jane Doe", Age: 60, RetirementAge: 65, TotalAssets: 400000},
			Buckets: []plan.Bucket{{ID: "b1", Name: "Income", PremiumAmount: 100000, InterestRate: 5, DelayPeriod: 2, IncomePeriods: 10, Percentage: 25}},
		},
	}
}

// flakyLoader fails with the queued errors before returning the plan.
type flakyLoader struct {
	mu    sync.Mutex
	errs  []error
	calls int
}

func (f *flakyLoader) Get(_ context.Context, userID, id string) (plan.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return plan.Plan{}, err
	}
	p := testPlan()
	p.UserID, p.ID = userID, id
	return p, nil
}

func testGenerator() *report.Generator {
	g := report.New(discard)
	g.Now = func() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) }
	return g
}

func testWorker(loader PlanLoader) *Worker {
	w := NewWorker(loader, testGenerator(), NewRenderStats(time.Hour), discard, config.Config{CompanyName: "Acme", RenderTimeout: time.Minute})
	w.backoff = func(int) time.Duration { return time.Millisecond }
	return w
}

func TestWorker_RetriesTransientLoadErrors(t *testing.T) {
	loader := &flakyLoader{errs: []error{
		&tabledb.RetryableError{StatusCode: 503, Message: "down"},
		&tabledb.RetryableError{StatusCode: 429, Message: "slow down"},
	}}
	w := testWorker(loader)
	job := &Job{ID: "j1", PlanID: "p1", UserID: "u1", Status: StatusQueued}

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s (%v)", snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.Attempts != 3 {
		t.Errorf("expected 3 load attempts, got %d", snap.Progress.Attempts)
	}
	if snap.Progress.Pages < 2 {
		t.Errorf("expected a multi-page report, got %d pages", snap.Progress.Pages)
	}
	if snap.Progress.ChartsDrawn != 3 {
		t.Errorf("expected 3 charts, got %d", snap.Progress.ChartsDrawn)
	}
	if !bytes.HasPrefix(job.PDFData(), []byte("%PDF-")) {
		t.Error("expected PDF bytes on completed job")
	}
	if st := w.stats.Snapshot(); st.Async.Renders != 1 || st.Failed != 0 || st.ChartsDrawn != 3 || st.Pages != snap.Progress.Pages {
		t.Errorf("expected one successful async render recorded, got %+v", st)
	}
}

func TestWorker_PermanentLoadErrorFails(t *testing.T) {
	loader := &flakyLoader{errs: []error{errors.New("plan not found")}}
	w := testWorker(loader)
	job := &Job{ID: "j2", PlanID: "missing", UserID: "u1"}

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed || snap.Phase != "loading" {
		t.Fatalf("expected failed in loading, got %s/%s", snap.Status, snap.Phase)
	}
	if loader.calls != 1 {
		t.Errorf("expected no retry for permanent error, got %d calls", loader.calls)
	}
	if len(snap.Progress.Errors) != 1 || !strings.Contains(snap.Progress.Errors[0], "plan not found") {
		t.Errorf("unexpected errors %v", snap.Progress.Errors)
	}
	if job.PDFData() != nil {
		t.Error("failed job must not carry PDF data")
	}
}

func TestWorker_RetriesExhausted(t *testing.T) {
	retry := &tabledb.RetryableError{StatusCode: 500, Message: "boom"}
	loader := &flakyLoader{errs: []error{retry, retry, retry, retry}}
	w := testWorker(loader)
	job := &Job{ID: "j3", PlanID: "p1", UserID: "u1"}

	w.Process(context.Background(), job)

	if job.Snapshot().Status != StatusFailed {
		t.Fatalf("expected failed, got %s", job.Snapshot().Status)
	}
	if loader.calls != MaxRetries {
		t.Errorf("expected %d calls, got %d", MaxRetries, loader.calls)
	}
}

// rejectImages is a canvas that refuses every image.
type rejectImages struct{ layout.Canvas }

func (rejectImages) Image(image.Image, float64, float64, float64, float64) error {
	return errors.New("image rejected")
}

// failOutput is a canvas that cannot be written out.
type failOutput struct{ layout.Canvas }

func (failOutput) Output(io.Writer) error { return errors.New("disk full") }

func TestWorker_CountsOnlyEmbeddedCharts(t *testing.T) {
	w := testWorker(&flakyLoader{})
	newCanvas := w.gen.NewCanvas
	w.gen.NewCanvas = func(geo layout.Geometry) layout.Canvas {
		return rejectImages{newCanvas(geo)}
	}
	job := &Job{ID: "j4", PlanID: "p1", UserID: "u1"}

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s (%v)", snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.ChartsDrawn != 0 {
		t.Errorf("expected no embedded charts, got %d", snap.Progress.ChartsDrawn)
	}
	if !slices.Contains(snap.Progress.Errors, "charts: 3 of 3 failed") {
		t.Errorf("expected chart failures in job errors, got %v", snap.Progress.Errors)
	}
	if st := w.stats.Snapshot(); st.ChartFailures != 3 || st.ChartFailureRate != 1 {
		t.Errorf("expected 3 chart failures recorded, got %+v", st)
	}
}

func TestWorker_RenderFailureIsRecorded(t *testing.T) {
	w := testWorker(&flakyLoader{})
	newCanvas := w.gen.NewCanvas
	w.gen.NewCanvas = func(geo layout.Geometry) layout.Canvas {
		return failOutput{newCanvas(geo)}
	}
	job := &Job{ID: "j5", PlanID: "p1", UserID: "u1"}

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed || snap.Phase != "rendering" {
		t.Fatalf("expected failed in rendering, got %s/%s", snap.Status, snap.Phase)
	}
	st := w.stats.Snapshot()
	if st.Async.Renders != 1 || st.Async.Failed != 1 || st.Latency.Count != 0 {
		t.Errorf("expected one failed async render, got %+v", st)
	}
}

func TestOrchestrator_EndToEnd(t *testing.T) {
	cfg := config.Config{WorkerCount: 2, MaxQueueSize: 4, JobTTL: time.Hour, RenderTimeout: time.Minute}
	o := NewOrchestrator(cfg, &flakyLoader{}, testGenerator(), discard)
	o.Start(context.Background())
	defer o.Stop()

	job := &Job{ID: "e2e", PlanID: "p1", UserID: "u1", Status: StatusQueued, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	if err := o.Submit(job); err != nil {
		t.Fatalf("submit: %v", err)
	}

	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		s := o.GetJob("e2e").Snapshot().Status
		if s == StatusCompleted || s == StatusFailed {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if s := o.GetJob("e2e").Snapshot().Status; s != StatusCompleted {
		t.Fatalf("expected completed, got %s", s)
	}
	if o.Stats().Snapshot().Async.Renders != 1 {
		t.Error("expected orchestrator stats to record the render")
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	cfg := config.Config{WorkerCount: 1, MaxQueueSize: 1, JobTTL: time.Hour}
	o := NewOrchestrator(cfg, &flakyLoader{}, testGenerator(), discard)
	// Not started: nothing drains the queue.

	if err := o.Submit(&Job{ID: "a"}); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	second := &Job{ID: "b"}
	if err := o.Submit(second); err == nil {
		t.Fatal("expected queue full error")
	}
	if snap := second.Snapshot(); snap.Status != StatusFailed || snap.Phase != "queue_full" {
		t.Errorf("expected failed/queue_full, got %s/%s", snap.Status, snap.Phase)
	}
	if o.QueueDepth() != 1 {
		t.Errorf("expected depth 1, got %d", o.QueueDepth())
	}
}
