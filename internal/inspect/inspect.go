// Package inspect reads generated reports back: page count, metadata and
// the plain text of each page.
package inspect

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// Page is the extracted text of one page.
type Page struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// Document is a PDF read back for inspection.
type Document struct {
	Title string `json:"title,omitempty"`
	Pages []Page `json:"pages"`
}

// PageCount is the number of pages in the document.
func (d *Document) PageCount() int { return len(d.Pages) }

// Text joins the text of every page, separated by form feeds.
func (d *Document) Text() string {
	parts := make([]string, len(d.Pages))
	for i, p := range d.Pages {
		parts[i] = p.Text
	}
	return strings.Join(parts, "\f")
}

// Contains reports whether any page contains s.
func (d *Document) Contains(s string) bool {
	for _, p := range d.Pages {
		if strings.Contains(p.Text, s) {
			return true
		}
	}
	return false
}

// Bytes inspects an in-memory PDF.
func Bytes(data []byte) (doc *Document, err error) {
	// The reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("read pdf: %v", r)
		}
	}()

	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	return read(reader), nil
}

// File inspects a PDF on disk. When the Go reader fails and fallback is
// set, pdftotext is tried instead.
func File(path string, fallback bool) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	doc, err := Bytes(data)
	if err != nil && fallback {
		return pdftotext(path)
	}
	return doc, err
}

func read(reader *pdflib.Reader) *Document {
	doc := &Document{
		Title: reader.Trailer().Key("Info").Key("Title").Text(),
	}
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		p := Page{Number: i}
		if !page.V.IsNull() {
			if text, err := page.GetPlainText(nil); err == nil {
				p.Text = strings.TrimSpace(text)
			}
		}
		doc.Pages = append(doc.Pages, p)
	}
	return doc
}

func pdftotext(path string) (*Document, error) {
	out, err := exec.Command("pdftotext", "-layout", path, "-").Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	doc := &Document{}
	pages := strings.Split(string(out), "\f")
	// pdftotext ends the last page with a form feed.
	if n := len(pages); n > 1 && strings.TrimSpace(pages[n-1]) == "" {
		pages = pages[:n-1]
	}
	for i, text := range pages {
		doc.Pages = append(doc.Pages, Page{Number: i + 1, Text: strings.TrimSpace(text)})
	}
	return doc, nil
}
