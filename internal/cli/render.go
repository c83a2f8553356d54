package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/planreport/internal/chart"
	"github.com/dgallion1/planreport/internal/export"
	"github.com/dgallion1/planreport/internal/inspect"
	"github.com/dgallion1/planreport/internal/plan"
	"github.com/dgallion1/planreport/internal/report"
)

type renderOptions struct {
	planPath string
	out      string
	noCharts bool
	timeout  time.Duration
	overrides

	// Chart snapshot files; each replaces the chart drawn from the plan.
	portfolioPNG string
	incomePNG    string
	growthPNG    string
	dark         bool
}

// charts builds the report charts, substituting snapshot files.
func (o *renderOptions) charts(d plan.Data) (report.Charts, error) {
	var c report.Charts
	if !o.noCharts {
		c = report.DefaultCharts(d)
	}
	for _, slot := range []struct {
		path string
		dst  *chart.Source
	}{
		{o.portfolioPNG, &c.Portfolio},
		{o.incomePNG, &c.Income},
		{o.growthPNG, &c.Growth},
	} {
		if slot.path == "" {
			continue
		}
		data, err := os.ReadFile(slot.path)
		if err != nil {
			return report.Charts{}, fmt.Errorf("read chart snapshot: %w", err)
		}
		if _, err := chart.Decode(data); err != nil {
			return report.Charts{}, fmt.Errorf("chart snapshot %s: %w", slot.path, err)
		}
		*slot.dst = chart.Snapshot{Data: data, DarkTheme: o.dark}
	}
	return c, nil
}

func (a *App) newRenderCmd() *cobra.Command {
	opts := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a plan file to a PDF report",
		Long: `Render lays out the client report for a plan file.

Examples:
  planctl render --plan jane.yaml
  planctl render --plan jane.json --out reports/jane.pdf --company "Acme Advisors"
  planctl render --plan jane.yaml --chart-growth growth.png --dark`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.render(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.planPath, "plan", "p", "", "Plan file, YAML or JSON (required)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Output path (default: generated report name)")
	cmd.Flags().BoolVar(&opts.noCharts, "no-charts", false, "Skip the charts drawn from plan data")
	cmd.Flags().StringVar(&opts.portfolioPNG, "chart-portfolio", "", "Portfolio chart snapshot (PNG, JPEG or WebP)")
	cmd.Flags().StringVar(&opts.incomePNG, "chart-income", "", "Income chart snapshot (PNG, JPEG or WebP)")
	cmd.Flags().StringVar(&opts.growthPNG, "chart-growth", "", "Growth chart snapshot (PNG, JPEG or WebP)")
	cmd.Flags().BoolVar(&opts.dark, "dark", false, "Snapshots were captured from the dark theme")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 60*time.Second, "Render timeout")
	cmd.Flags().StringVar(&opts.client, "client", "", "Override the client name")
	cmd.Flags().StringVar(&opts.name, "name", "", "Override the plan name")
	cmd.Flags().StringVar(&opts.company, "company", "", "Company name for the cover and footer (default $COMPANY_NAME)")
	_ = cmd.MarkFlagRequired("plan")
	return cmd
}

func (a *App) render(ctx context.Context, opts *renderOptions) error {
	p, err := loadPlanFile(opts.planPath)
	if err != nil {
		return err
	}
	opts.apply(&p)
	if p.CompanyName == "" {
		p.CompanyName = os.Getenv("COMPANY_NAME")
	}

	charts, err := opts.charts(p.Data)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	res, err := report.New(a.log).Render(ctx, p.Data, p.ClientName, p.Name, charts, p.CompanyName)
	if err != nil {
		return err
	}
	out := res.PDF
	path := opts.out
	if path == "" {
		path = report.Filename(p.ClientName, p.Name, time.Now())
	}
	if err := writeOutput(path, out); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	pages := res.Pages
	if doc, err := inspect.Bytes(out); err == nil {
		pages = doc.PageCount()
	}
	fmt.Fprintf(a.stdout, "wrote %s (%d pages, %d of %d charts, %d bytes)\n", path, pages, res.ChartsDrawn, charts.Count(), len(out))
	return nil
}

type exportOptions struct {
	planPath string
	format   string
	out      string
	overrides
}

func (a *App) newExportCmd() *cobra.Command {
	opts := &exportOptions{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a plan file to DOCX or XLSX",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.export(opts)
		},
	}
	cmd.Flags().StringVarP(&opts.planPath, "plan", "p", "", "Plan file, YAML or JSON (required)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "xlsx", "Export format: docx or xlsx")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Output path")
	cmd.Flags().StringVar(&opts.client, "client", "", "Override the client name")
	cmd.Flags().StringVar(&opts.name, "name", "", "Override the plan name")
	cmd.Flags().StringVar(&opts.company, "company", "", "Company name")
	_ = cmd.MarkFlagRequired("plan")
	return cmd
}

func (a *App) export(opts *exportOptions) error {
	var write func(io.Writer, plan.Plan) error
	switch format := strings.ToLower(opts.format); format {
	case "docx":
		write = export.DOCX
	case "xlsx":
		write = export.XLSX
	default:
		return fmt.Errorf("unsupported export format %q (want docx or xlsx)", opts.format)
	}

	p, err := loadPlanFile(opts.planPath)
	if err != nil {
		return err
	}
	opts.apply(&p)

	var buf bytes.Buffer
	if err := write(&buf, p); err != nil {
		return err
	}
	path := opts.out
	if path == "" {
		path = strings.TrimSuffix(report.Filename(p.ClientName, p.Name, time.Now()), ".pdf") + "." + strings.ToLower(opts.format)
	}
	if err := writeOutput(path, buf.Bytes()); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Fprintf(a.stdout, "wrote %s (%d bytes)\n", path, buf.Len())
	return nil
}
