package mdv

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	extast "github.com/yuin/goldmark/extension/ast"
)

func TestTableRendersGrid(t *testing.T) {
	doc := "| Name | Age |\n| --- | --- |\n| Ann | 4 |\n| Bob | 7 |"
	out := renderPlain(t, doc, 80)
	for _, want := range []string{"Name", "Age", "Ann", "Bob", "│", "╭", "╰"} {
		if !strings.Contains(out, want) {
			t.Fatalf("grid missing %q:\n%s", want, out)
		}
	}
}

func TestWideTableSplitsIntoBlocks(t *testing.T) {
	doc := strings.Join([]string{
		"| First Column Header | Second Column Header | Third Column Header | Fourth Column Header |",
		"| --- | --- | --- | --- |",
		"| aaaa | bbbb | cccc | dddd |",
	}, "\n")
	out := renderPlain(t, doc, 30, WithTableWrapMode(TableWrap))
	if !strings.Contains(out, "Block 1 of 4") {
		t.Fatalf("first block marker missing:\n%s", out)
	}
	if !strings.Contains(out, "Block 4 of 4") {
		t.Fatalf("last block marker missing:\n%s", out)
	}
	if !strings.Contains(out, "═") {
		t.Fatalf("block separator missing:\n%s", out)
	}
}

func TestNarrowTableNotSplit(t *testing.T) {
	doc := "| A | B |\n| --- | --- |\n| 1 | 2 |"
	out := renderPlain(t, doc, 80, WithTableWrapMode(TableWrap))
	if strings.Contains(out, "Block ") {
		t.Fatalf("narrow table was split:\n%s", out)
	}
}

func TestSplitBlocksPreserveColumns(t *testing.T) {
	r := testRenderer(WithWidth(30))
	headers := []string{"one long header", "two long header", "three long header", "four", "five long header"}
	rows := [][]string{
		{"a", "b", "c", "d", "e"},
		{"f", "g", "h", "i", "j"},
	}
	aligns := make([]extast.Alignment, len(headers))

	blocks := r.splitTableBlocks(headers, rows, aligns)
	if len(blocks) < 2 {
		t.Fatalf("expected multiple blocks, got %d", len(blocks))
	}
	total := 0
	for _, blk := range blocks {
		if len(blk.headers) == 0 {
			t.Fatalf("block without columns")
		}
		if len(blk.rows) != len(rows) {
			t.Fatalf("block has %d rows, want %d", len(blk.rows), len(rows))
		}
		total += len(blk.headers)
	}
	if total != len(headers) {
		t.Fatalf("blocks carry %d columns, want %d", total, len(headers))
	}
}

func TestEmptyTableElided(t *testing.T) {
	doc := "|  |  |\n| --- | --- |\n|  |  |"
	out := renderPlain(t, doc, 80)
	if out != "" {
		t.Fatalf("empty table rendered %q", out)
	}
}

func TestEmptyTableShownWithShowEmpty(t *testing.T) {
	doc := "|  |  |\n| --- | --- |\n|  |  |"
	out := renderPlain(t, doc, 80, WithShowEmptyElements(true))
	if !strings.Contains(out, "│") || !strings.Contains(out, "╭") {
		t.Fatalf("expected padded grid, got %q", out)
	}
}

func TestTableFitClampsWidth(t *testing.T) {
	doc := strings.Join([]string{
		"| Column With A Rather Long Header | Another Equally Wordy Header |",
		"| --- | --- |",
		"| some fairly long cell content here | and some more content there |",
	}, "\n")
	out := renderPlain(t, doc, 30)
	for _, line := range strings.Split(strings.TrimSuffix(out, "\n"), "\n") {
		if w := displayWidth(stripANSI(line)); w > 30 {
			t.Fatalf("table line %q has width %d, want <= 30", line, w)
		}
	}
}

func TestTableNoWrapOverflows(t *testing.T) {
	doc := strings.Join([]string{
		"| Column With A Rather Long Header | Another Equally Wordy Header |",
		"| --- | --- |",
		"| wide | wide |",
	}, "\n")
	out := renderPlain(t, doc, 30, WithTableWrapMode(TableNoWrap))
	overflow := false
	for _, line := range strings.Split(strings.TrimSuffix(out, "\n"), "\n") {
		if displayWidth(stripANSI(line)) > 30 {
			overflow = true
		}
	}
	if !overflow {
		t.Fatalf("no-wrap table did not overflow:\n%s", out)
	}
}

func TestTableLinksCollectReferences(t *testing.T) {
	doc := "| Site |\n| --- |\n| [Go](https://go.dev) |"
	out := renderPlain(t, doc, 80, WithLinkStyle(LinkInlineTable))
	if !strings.Contains(out, "Go[1]") {
		t.Fatalf("cell marker missing:\n%s", out)
	}
	if !strings.Contains(out, "[1] https://go.dev") {
		t.Fatalf("reference block missing:\n%s", out)
	}
}

func TestTableNoColors(t *testing.T) {
	doc := "| H |\n| --- |\n| **bold** |"
	out := renderPlain(t, doc, 80)
	if strings.ContainsRune(out, 0x1b) {
		t.Fatalf("no-colors table contains escapes: %q", out)
	}
	if !strings.Contains(out, "bold") {
		t.Fatalf("cell text missing:\n%s", out)
	}
}

func TestEstimateTableWidth(t *testing.T) {
	headers := []string{"ab", "c"}
	rows := [][]string{{"x", "longer"}}
	// widths 2 and 6, plus 3 per column and the closing border
	if got := estimateTableWidth(headers, rows); got != 15 {
		t.Fatalf("estimateTableWidth = %d, want 15", got)
	}
}

func TestCellAttributeColorParsing(t *testing.T) {
	if _, ok := sgrForegroundColor("plain text"); ok {
		t.Fatalf("plain text should carry no color")
	}
	c, ok := sgrForegroundColor("\x1b[38;5;208morange\x1b[0m")
	if !ok || c != lipgloss.Color("208") {
		t.Fatalf("256-color = %v ok=%v, want 208", c, ok)
	}
	c, ok = sgrForegroundColor("\x1b[31mred\x1b[0m")
	if !ok || c != lipgloss.Color("1") {
		t.Fatalf("basic color = %v ok=%v, want 1", c, ok)
	}
	c, ok = sgrForegroundColor("\x1b[38;2;255;0;0mrgb\x1b[0m")
	if !ok || c != lipgloss.Color("#ff0000") {
		t.Fatalf("truecolor = %v ok=%v, want #ff0000", c, ok)
	}
}
