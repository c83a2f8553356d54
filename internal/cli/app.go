// Package cli implements planctl, the command-line companion to the
// planreport server.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

// App is the planctl command tree.
type App struct {
	root   *cobra.Command
	stdout io.Writer
	stderr io.Writer
	log    *slog.Logger
}

// New builds the command tree.
func New() *App {
	app := &App{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	app.log = slog.New(slog.NewTextHandler(app.stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	app.root = &cobra.Command{
		Use:   "planctl",
		Short: "Render, export and inspect retirement plan reports",
		Long: `planctl works with retirement income plans outside the HTTP server:
it renders plan files to PDF, exports them to DOCX or XLSX, converts
advisor notes to Markdown, inspects generated PDFs and migrates the
plan and event tables.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	app.root.AddCommand(
		app.newRenderCmd(),
		app.newExportCmd(),
		app.newNotesCmd(),
		app.newInspectCmd(),
		app.newMigrateCmd(),
	)
	return app
}

// WithOutput sets custom output writers.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	a.log = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

// Execute runs the command named by os.Args.
func (a *App) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the command tree with explicit arguments.
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}
