// Package notes parses advisor notes attached to a plan (plain text,
// Markdown, HTML, CSV, DOCX or PDF) into a section tree, and flattens the
// tree into printable blocks for the report.
package notes

// Tree is the root of a parsed notes document.
type Tree struct {
	Title    string  // From metadata or filename
	Children []*Node // Top-level sections
}

// Node is a recursive section of a notes document.
type Node struct {
	Title    string     // Section heading (empty for leaf text)
	Text     string     // Paragraphs separated by blank lines
	Rows     [][]string // Tabular content; the first row is the header
	Page     int        // Source page (0 if N/A)
	Children []*Node
}

// BlockKind identifies a printable block.
type BlockKind int

const (
	BlockHeading BlockKind = iota
	BlockParagraph
	BlockTable
)

// Block is one printable unit of notes, in document order.
type Block struct {
	Kind  BlockKind
	Level int        // Heading depth, 1-based
	Text  string     // Heading or paragraph text
	Rows  [][]string // Table rows, header first
}

// Empty reports whether the tree has no content.
func (t *Tree) Empty() bool {
	if t == nil {
		return true
	}
	for _, c := range t.Children {
		if !c.empty() {
			return false
		}
	}
	return true
}

func (n *Node) empty() bool {
	if n.Title != "" || n.Text != "" || len(n.Rows) > 0 {
		return false
	}
	for _, c := range n.Children {
		if !c.empty() {
			return false
		}
	}
	return true
}
