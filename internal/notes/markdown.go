package notes

import (
	"bytes"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown notes using goldmark. Headings nest
// sections, list items become their own paragraphs prefixed with "- ", and
// GFM tables are kept as rows.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, name string) (*Tree, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	doc := md.Parser().Parse(text.NewReader(src))

	b := newSectionBuilder(strings.TrimSuffix(strings.TrimSuffix(name, ".md"), ".markdown"))
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			b.heading(node.Level, extractText(node, src))
		case *ast.List:
			for item := node.FirstChild(); item != nil; item = item.NextSibling() {
				if t := extractText(item, src); t != "" {
					b.paragraph("- " + t)
				}
			}
		case *east.Table:
			b.table(tableCells(node, src))
		case *ast.ThematicBreak:
		default:
			b.paragraph(extractText(n, src))
		}
	}
	return b.tree(), nil
}

// extractText gets the text content of a goldmark AST node.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && !n.HasChildren() {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
			continue
		}
		if c.Type() == ast.TypeBlock && buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(extractText(c, src))
	}
	return strings.TrimSpace(buf.String())
}

func tableCells(t *east.Table, src []byte) [][]string {
	var rows [][]string
	for r := t.FirstChild(); r != nil; r = r.NextSibling() {
		var row []string
		for c := r.FirstChild(); c != nil; c = c.NextSibling() {
			row = append(row, extractText(c, src))
		}
		rows = append(rows, row)
	}
	return rows
}
