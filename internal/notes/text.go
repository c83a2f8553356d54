package notes

import (
	"bufio"
	"io"
	"strings"
)

// TextParser handles plain-text notes. Blank lines separate paragraphs;
// line breaks inside a paragraph are kept as spaces.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, name string) (*Tree, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	tree := &Tree{Title: strings.TrimSuffix(name, ".txt")}
	var current []string
	flush := func() {
		if len(current) > 0 {
			tree.Children = append(tree.Children, &Node{Text: strings.Join(current, " ")})
			current = nil
		}
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()
	return tree, nil
}
