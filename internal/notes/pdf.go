package notes

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser handles PDF notes: one untitled section per page with text.
type PDFParser struct{}

func (p *PDFParser) Parse(r io.Reader, name string) (tree *Tree, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	// The reader panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			tree, err = nil, fmt.Errorf("extract pdf text: %v", rec)
		}
	}()

	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	tree = &Tree{Title: strings.TrimSuffix(name, ".pdf")}
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if text = strings.TrimSpace(text); text == "" {
			continue
		}
		tree.Children = append(tree.Children, &Node{Text: text, Page: i})
	}
	return tree, nil
}
