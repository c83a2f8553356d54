package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/planreport/internal/inspect"
	"github.com/dgallion1/planreport/internal/notes"
)

type inspectOptions struct {
	pdftotext bool
	text      bool
	json      bool
}

func (a *App) newInspectCmd() *cobra.Command {
	opts := &inspectOptions{}
	cmd := &cobra.Command{
		Use:   "inspect <file.pdf>",
		Short: "Show page count, title and text of a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.inspect(args[0], opts)
		},
	}
	cmd.Flags().BoolVar(&opts.pdftotext, "pdftotext", os.Getenv("PDF_FALLBACK_PDFTOTEXT") == "true", "Fall back to pdftotext when the PDF cannot be read")
	cmd.Flags().BoolVar(&opts.text, "text", false, "Print the text of every page")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Output as JSON")
	return cmd
}

func (a *App) inspect(path string, opts *inspectOptions) error {
	doc, err := inspect.File(path, opts.pdftotext)
	if err != nil {
		return err
	}
	if opts.json {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}
	fmt.Fprintf(a.stdout, "title: %s\npages: %d\n", doc.Title, doc.PageCount())
	if opts.text {
		for _, p := range doc.Pages {
			fmt.Fprintf(a.stdout, "\n--- page %d ---\n%s\n", p.Number, p.Text)
		}
	}
	return nil
}

func (a *App) newNotesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notes <file>",
		Short: "Convert advisor notes (txt, md, csv, html, docx, pdf) to Markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parser, err := notes.ForFile(args[0])
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			tree, err := parser.Parse(f, args[0])
			if err != nil {
				return fmt.Errorf("parse notes: %w", err)
			}
			fmt.Fprintln(a.stdout, notes.Markdown(tree))
			return nil
		},
	}
}
