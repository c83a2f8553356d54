package notes

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fumiama/go-docx"
	"github.com/go-pdf/fpdf"
)

func TestMarkdownParser_HeadingHierarchy(t *testing.T) {
	input := `# Goals

Intro text.

## Income

Income content.

### Social Security

Claim at 67.

## Legacy

Legacy content.
`
	p := &MarkdownParser{}
	tree, err := p.Parse(strings.NewReader(input), "notes.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tree.Title != "notes" {
		t.Errorf("expected title %q, got %q", "notes", tree.Title)
	}
	if len(tree.Children) != 1 {
		t.Fatalf("expected 1 top-level child (h1), got %d", len(tree.Children))
	}

	h1 := tree.Children[0]
	if h1.Title != "Goals" || !strings.Contains(h1.Text, "Intro text.") {
		t.Errorf("unexpected h1: %q / %q", h1.Title, h1.Text)
	}
	if len(h1.Children) != 2 {
		t.Fatalf("expected 2 h2 children, got %d", len(h1.Children))
	}
	income := h1.Children[0]
	if income.Title != "Income" || len(income.Children) != 1 || income.Children[0].Title != "Social Security" {
		t.Errorf("unexpected income section: %+v", income)
	}
	if h1.Children[1].Title != "Legacy" {
		t.Errorf("expected %q, got %q", "Legacy", h1.Children[1].Title)
	}
}

func TestMarkdownParser_LeadingTextKept(t *testing.T) {
	input := "Call the client in March.\n\n# Follow-up\n\nSend the illustration.\n"
	tree, err := (&MarkdownParser{}).Parse(strings.NewReader(input), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Children) != 2 {
		t.Fatalf("expected leading text node plus heading, got %d children", len(tree.Children))
	}
	if tree.Children[0].Text != "Call the client in March." {
		t.Errorf("leading text = %q", tree.Children[0].Text)
	}
}

func TestMarkdownParser_ListsAndEmphasis(t *testing.T) {
	input := "Review:\n\n- **Annuity** ladder\n- Roth conversion\n"
	blocks, err := Blocks(input, "md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var texts []string
	for _, b := range blocks {
		texts = append(texts, b.Text)
	}
	want := []string{"Review:", "- Annuity ladder", "- Roth conversion"}
	if strings.Join(texts, "|") != strings.Join(want, "|") {
		t.Errorf("blocks = %q, want %q", texts, want)
	}
}

func TestMarkdownParser_Table(t *testing.T) {
	input := "| Account | Balance |\n| --- | --- |\n| IRA | $50,000 |\n\nAfter the table.\n"
	blocks, err := Blocks(input, "md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("expected table then paragraph, got %d blocks", len(blocks))
	}
	if blocks[0].Kind != BlockTable || len(blocks[0].Rows) != 2 || blocks[0].Rows[1][0] != "IRA" {
		t.Errorf("unexpected table block: %+v", blocks[0])
	}
	if blocks[1].Kind != BlockParagraph || blocks[1].Text != "After the table." {
		t.Errorf("unexpected trailing block: %+v", blocks[1])
	}
}

func TestMarkdownParser_EmptyInput(t *testing.T) {
	tree, err := (&MarkdownParser{}).Parse(strings.NewReader(""), "empty.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tree.Empty() {
		t.Errorf("expected empty tree, got %d children", len(tree.Children))
	}
}

func TestTextParser_Paragraphs(t *testing.T) {
	input := "First paragraph line one.\nFirst paragraph line two.\n\n\n\nSecond paragraph.\n   \nThird paragraph."
	tree, err := (&TextParser{}).Parse(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Title != "notes" {
		t.Errorf("expected title %q, got %q", "notes", tree.Title)
	}
	want := []string{
		"First paragraph line one. First paragraph line two.",
		"Second paragraph.",
		"Third paragraph.",
	}
	if len(tree.Children) != len(want) {
		t.Fatalf("expected %d children, got %d", len(want), len(tree.Children))
	}
	for i, w := range want {
		if tree.Children[i].Text != w {
			t.Errorf("child[%d]: expected %q, got %q", i, w, tree.Children[i].Text)
		}
	}
}

func TestHTMLParser_SectionsListsAndTables(t *testing.T) {
	input := `<html><head><title>Meeting</title><style>p{}</style></head><body>
<h1>Summary</h1><p>Client wants   <b>guaranteed</b> income.</p>
<ul><li>Delay SS</li><li>Fund bucket 2</li></ul>
<table><tr><th>Year</th><th>Income</th></tr><tr><td>2030</td><td>$40,000</td></tr></table>
<script>alert(1)</script>
</body></html>`
	tree, err := (&HTMLParser{}).Parse(strings.NewReader(input), "meeting.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Title != "Meeting" {
		t.Errorf("expected title from <title>, got %q", tree.Title)
	}
	blocks := Flatten(tree, DefaultConfig())
	if len(blocks) != 5 {
		t.Fatalf("expected 5 blocks, got %d: %+v", len(blocks), blocks)
	}
	if blocks[0].Kind != BlockHeading || blocks[0].Text != "Summary" {
		t.Errorf("block 0 = %+v", blocks[0])
	}
	if blocks[1].Text != "Client wants guaranteed income." {
		t.Errorf("block 1 = %q", blocks[1].Text)
	}
	if blocks[2].Text != "- Delay SS" || blocks[3].Text != "- Fund bucket 2" {
		t.Errorf("list blocks = %q, %q", blocks[2].Text, blocks[3].Text)
	}
	if blocks[4].Kind != BlockTable || blocks[4].Rows[1][1] != "$40,000" {
		t.Errorf("table block = %+v", blocks[4])
	}
	for _, b := range blocks {
		if strings.Contains(b.Text, "alert") {
			t.Error("script content leaked into notes")
		}
	}
}

func TestCSVParser_RaggedRows(t *testing.T) {
	input := "Name,Amount,Note\nIRA,50000\nBrokerage,25000,taxable,extra\n"
	tree, err := (&CSVParser{}).Parse(strings.NewReader(input), "assets.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Children) != 1 {
		t.Fatalf("expected one table node, got %d", len(tree.Children))
	}
	rows := tree.Children[0].Rows
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	for i, r := range rows {
		if len(r) != 3 {
			t.Errorf("row %d has %d cells, want 3", i, len(r))
		}
	}
}

func TestDOCXParser_Headings(t *testing.T) {
	doc := docx.New().WithDefaultTheme()
	doc.AddParagraph().Style("Heading1").AddText("Review")
	doc.AddParagraph().AddText("Rebalance quarterly.")
	doc.AddParagraph().Style("heading 2").AddText("Taxes")
	doc.AddParagraph().AddText("Harvest losses.")
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		t.Fatalf("write docx: %v", err)
	}

	tree, err := (&DOCXParser{}).Parse(&buf, "review.docx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Children) != 1 || tree.Children[0].Title != "Review" {
		t.Fatalf("unexpected tree: %+v", tree.Children)
	}
	review := tree.Children[0]
	if review.Text != "Rebalance quarterly." {
		t.Errorf("review text = %q", review.Text)
	}
	if len(review.Children) != 1 || review.Children[0].Title != "Taxes" || review.Children[0].Text != "Harvest losses." {
		t.Errorf("unexpected subsection: %+v", review.Children)
	}
}

func TestPDFParser_PageText(t *testing.T) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(40, 10, "Discussed rollover")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(40, 10, "Second meeting")
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatal(err)
	}

	tree, err := (&PDFParser{}).Parse(&buf, "notes.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Children) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(tree.Children))
	}
	if !strings.Contains(tree.Children[0].Text, "rollover") || tree.Children[1].Page != 2 {
		t.Errorf("unexpected pages: %+v, %+v", tree.Children[0], tree.Children[1])
	}
}

func TestPDFParser_Garbage(t *testing.T) {
	if _, err := (&PDFParser{}).Parse(strings.NewReader("not a pdf"), "x.pdf"); err == nil {
		t.Error("expected error for invalid pdf")
	}
}

func TestForFormat(t *testing.T) {
	for _, f := range []string{"", "txt", "md", "markdown", ".html", "htm", "csv", "pdf", "DOCX"} {
		if _, err := ForFormat(f); err != nil {
			t.Errorf("ForFormat(%q): %v", f, err)
		}
	}
	if _, err := ForFormat("rtf"); err == nil {
		t.Error("expected error for rtf")
	}
	if _, err := ForFile("noext"); err == nil {
		t.Error("expected error for file without extension")
	}
	if FormatOf("Notes.MARKDOWN") != "md" || FormatOf("a.htm") != "html" || FormatOf("a.exe") != "" {
		t.Error("unexpected FormatOf result")
	}
}

func TestFlatten_SplitsLongParagraphsAtSentences(t *testing.T) {
	sentence := "The client prefers guaranteed income over market exposure. "
	text := strings.TrimSpace(strings.Repeat(sentence, 30)) // 240 words
	tree := &Tree{Children: []*Node{{Title: "Notes", Text: text}}}

	blocks := Flatten(tree, Config{MaxWords: 50})
	if blocks[0].Kind != BlockHeading {
		t.Fatalf("expected heading first, got %+v", blocks[0])
	}
	paras := blocks[1:]
	if len(paras) < 4 {
		t.Fatalf("expected paragraph to be split, got %d parts", len(paras))
	}
	var joined []string
	for _, b := range paras {
		if n := countWords(b.Text); n > 50 {
			t.Errorf("part has %d words, want <= 50", n)
		}
		if !strings.HasSuffix(b.Text, ".") {
			t.Errorf("part does not end at a sentence: %q", b.Text)
		}
		joined = append(joined, b.Text)
	}
	if strings.Join(joined, " ") != text {
		t.Error("split parts do not reassemble to the original text")
	}
}

func TestFlatten_LongSentenceKeptWhole(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("word ", 80))
	blocks := Flatten(&Tree{Children: []*Node{{Text: text}}}, Config{MaxWords: 10})
	if len(blocks) != 1 || blocks[0].Text != text {
		t.Errorf("expected one unsplit block, got %d", len(blocks))
	}
}

func TestFlatten_HeadingLevelsCapped(t *testing.T) {
	tree := &Tree{Children: []*Node{{
		Title: "A",
		Children: []*Node{{
			Title:    "B",
			Children: []*Node{{Title: "C", Children: []*Node{{Title: "D"}}}},
		}},
	}}}
	blocks := Flatten(tree, Config{MaxHeadings: 3})
	levels := []int{1, 2, 3, 3}
	for i, b := range blocks {
		if b.Level != levels[i] {
			t.Errorf("block %q level = %d, want %d", b.Text, b.Level, levels[i])
		}
	}
}

func TestFlatten_TableRowsCapped(t *testing.T) {
	rows := [][]string{{"h"}}
	for i := 0; i < 10; i++ {
		rows = append(rows, []string{"r"})
	}
	blocks := Flatten(&Tree{Children: []*Node{{Rows: rows}}}, Config{MaxRows: 4})
	if len(blocks[0].Rows) != 5 {
		t.Errorf("expected header + 4 rows, got %d", len(blocks[0].Rows))
	}
}

func TestFlatten_NilTree(t *testing.T) {
	if got := Flatten(nil, Config{}); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestMarkdown_RoundTrip(t *testing.T) {
	tree := &Tree{Children: []*Node{
		{Title: "Plan", Text: "Fund the income bucket.", Children: []*Node{
			{Rows: [][]string{{"Year", "Amount"}, {"2030", "$1|000"}}},
		}},
	}}
	md := Markdown(tree)
	if !strings.HasPrefix(md, "# Plan\n\nFund the income bucket.") {
		t.Errorf("unexpected markdown:\n%s", md)
	}

	back, err := Blocks(md, "md")
	if err != nil {
		t.Fatal(err)
	}
	if len(back) != 3 || back[2].Kind != BlockTable || back[2].Rows[0][1] != "Amount" {
		t.Errorf("round trip blocks = %+v", back)
	}
}
