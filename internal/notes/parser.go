package notes

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Parser converts raw notes into a Tree.
type Parser interface {
	Parse(r io.Reader, name string) (*Tree, error)
}

// Formats lists the notes formats this package can parse.
var Formats = map[string]bool{
	"txt":  true,
	"md":   true,
	"csv":  true,
	"html": true,
	"pdf":  true,
	"docx": true,
}

// ForFormat returns the parser for a format name. An empty format is
// plain text.
func ForFormat(format string) (Parser, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "", "txt", "text":
		return &TextParser{}, nil
	case "md", "markdown":
		return &MarkdownParser{}, nil
	case "csv":
		return &CSVParser{}, nil
	case "html", "htm":
		return &HTMLParser{}, nil
	case "pdf":
		return &PDFParser{}, nil
	case "docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported notes format: %s", format)
	}
}

// ForFile returns the parser for a filename's extension.
func ForFile(filename string) (Parser, error) {
	ext := filepath.Ext(filename)
	if ext == "" {
		return nil, fmt.Errorf("unsupported file extension: %q", filename)
	}
	return ForFormat(ext)
}

// FormatOf returns the canonical format name for a filename, or "".
func FormatOf(filename string) string {
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), ".")); ext {
	case "markdown":
		return "md"
	case "htm":
		return "html"
	case "text":
		return "txt"
	default:
		if Formats[ext] {
			return ext
		}
		return ""
	}
}

// ParseString parses notes held as text in the given format.
func ParseString(text, format string) (*Tree, error) {
	p, err := ForFormat(format)
	if err != nil {
		return nil, err
	}
	return p.Parse(strings.NewReader(text), "")
}

// sectionBuilder nests sections by heading level while collecting the
// paragraphs that follow each heading.
type sectionBuilder struct {
	root  *Node
	stack []sectionEntry
	text  strings.Builder
}

type sectionEntry struct {
	node  *Node
	level int
}

func newSectionBuilder(title string) *sectionBuilder {
	root := &Node{Title: title}
	return &sectionBuilder{root: root, stack: []sectionEntry{{node: root}}}
}

func (b *sectionBuilder) heading(level int, title string) {
	b.flush()
	n := &Node{Title: title}
	for len(b.stack) > 1 && b.stack[len(b.stack)-1].level >= level {
		b.stack = b.stack[:len(b.stack)-1]
	}
	parent := b.stack[len(b.stack)-1].node
	parent.Children = append(parent.Children, n)
	b.stack = append(b.stack, sectionEntry{node: n, level: level})
}

func (b *sectionBuilder) paragraph(t string) {
	if t == "" {
		return
	}
	if b.text.Len() > 0 {
		b.text.WriteString("\n\n")
	}
	b.text.WriteString(t)
}

func (b *sectionBuilder) flush() {
	t := strings.TrimSpace(b.text.String())
	b.text.Reset()
	if t == "" {
		return
	}
	top := b.stack[len(b.stack)-1].node
	switch {
	case len(top.Children) > 0:
		// Text after a table stays after it.
		top.Children = append(top.Children, &Node{Text: t})
	case top.Text != "":
		top.Text += "\n\n" + t
	default:
		top.Text = t
	}
}

func (b *sectionBuilder) table(rows [][]string) {
	if len(rows) == 0 {
		return
	}
	b.flush()
	top := b.stack[len(b.stack)-1].node
	top.Children = append(top.Children, &Node{Rows: rows})
}

// tree finishes the document. Text before the first heading becomes a
// leading untitled node.
func (b *sectionBuilder) tree() *Tree {
	b.flush()
	t := &Tree{Title: b.root.Title}
	if b.root.Text != "" {
		t.Children = append(t.Children, &Node{Text: b.root.Text})
	}
	t.Children = append(t.Children, b.root.Children...)
	return t
}
