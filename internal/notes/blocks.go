package notes

import (
	"strings"
)

// Config controls flattening.
type Config struct {
	MaxWords    int // Paragraphs longer than this are split at sentence ends.
	MaxRows     int // Tables longer than this are cut, keeping the header.
	MaxHeadings int // Deepest heading level kept; deeper headings print at this level.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxWords:    120,
		MaxRows:     200,
		MaxHeadings: 3,
	}
}

// Flatten walks a Tree and produces blocks in document order.
func Flatten(tree *Tree, cfg Config) []Block {
	def := DefaultConfig()
	if cfg.MaxWords <= 0 {
		cfg.MaxWords = def.MaxWords
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = def.MaxRows
	}
	if cfg.MaxHeadings <= 0 {
		cfg.MaxHeadings = def.MaxHeadings
	}
	if tree == nil {
		return nil
	}

	var blocks []Block
	for _, child := range tree.Children {
		blocks = walkNode(child, 1, cfg, blocks)
	}
	return blocks
}

// Blocks parses notes held as text and flattens them with the default
// configuration.
func Blocks(text, format string) ([]Block, error) {
	tree, err := ParseString(text, format)
	if err != nil {
		return nil, err
	}
	return Flatten(tree, DefaultConfig()), nil
}

func walkNode(node *Node, depth int, cfg Config, blocks []Block) []Block {
	if node.Title != "" {
		level := depth
		if level > cfg.MaxHeadings {
			level = cfg.MaxHeadings
		}
		blocks = append(blocks, Block{Kind: BlockHeading, Level: level, Text: node.Title})
	}

	for _, para := range splitByParagraphs(node.Text) {
		for _, part := range splitLong(para, cfg.MaxWords) {
			blocks = append(blocks, Block{Kind: BlockParagraph, Text: part})
		}
	}

	if len(node.Rows) > 0 {
		rows := node.Rows
		if len(rows) > cfg.MaxRows+1 {
			rows = rows[:cfg.MaxRows+1]
		}
		blocks = append(blocks, Block{Kind: BlockTable, Rows: rows})
	}

	next := depth
	if node.Title != "" {
		next++
	}
	for _, child := range node.Children {
		blocks = walkNode(child, next, cfg, blocks)
	}
	return blocks
}

// splitByParagraphs splits on blank lines and joins wrapped lines.
func splitByParagraphs(text string) []string {
	var result []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.Join(strings.Fields(p), " ")
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// splitLong breaks a paragraph of more than maxWords words into runs of
// whole sentences of at most maxWords words each. A single sentence longer
// than maxWords is kept whole.
func splitLong(para string, maxWords int) []string {
	if countWords(para) <= maxWords {
		return []string{para}
	}

	var result []string
	var current strings.Builder
	words := 0
	for _, sent := range splitSentences(para) {
		n := countWords(sent)
		if words+n > maxWords && words > 0 {
			result = append(result, current.String())
			current.Reset()
			words = 0
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sent)
		words += n
	}
	if words > 0 {
		result = append(result, current.String())
	}
	return result
}

// splitSentences does basic sentence splitting.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && text[i+1] == ' ' {
			sentences = append(sentences, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func countWords(s string) int {
	return len(strings.Fields(s))
}

// Markdown renders a tree back to Markdown, so notes imported from DOCX or
// PDF can be stored as text.
func Markdown(tree *Tree) string {
	var sb strings.Builder
	for _, b := range Flatten(tree, Config{MaxWords: 1 << 30, MaxHeadings: 6}) {
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		switch b.Kind {
		case BlockHeading:
			sb.WriteString(strings.Repeat("#", b.Level) + " " + b.Text)
		case BlockParagraph:
			sb.WriteString(b.Text)
		case BlockTable:
			for i, row := range b.Rows {
				if i > 0 {
					sb.WriteString("\n")
				}
				sb.WriteString("| " + strings.Join(escapeCells(row), " | ") + " |")
				if i == 0 {
					sb.WriteString("\n|" + strings.Repeat(" --- |", len(row)))
				}
			}
		}
	}
	return sb.String()
}

func escapeCells(row []string) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = strings.ReplaceAll(c, "|", `\|`)
	}
	return out
}
