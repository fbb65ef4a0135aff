package mdv

import (
	"strings"
	"testing"
)

func TestInlineLinkShowsURL(t *testing.T) {
	lines := plainLines(t, "[Go](https://go.dev) rocks", 80,
		WithLinkStyle(LinkInline))
	assertLines(t, lines, []string{"Go(https://go.dev) rocks"})
}

func TestInlineTableLinkReferences(t *testing.T) {
	lines := plainLines(t, "See [Go](https://go.dev) now", 80,
		WithLinkStyle(LinkInlineTable))
	assertLines(t, lines, []string{
		"See Go[1] now",
		"",
		"[1] https://go.dev",
	})
}

func TestInlineTableNumbersLinksPerParagraph(t *testing.T) {
	doc := "[a](https://one.example) and [b](https://two.example)\n\n[c](https://three.example)"
	out := renderPlain(t, doc, 80, WithLinkStyle(LinkInlineTable))
	for _, want := range []string{
		"a[1] and b[2]",
		"[1] https://one.example",
		"[2] https://two.example",
		"c[1]",
		"[1] https://three.example",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%q", want, out)
		}
	}
}

func TestHiddenLinkKeepsTextOnly(t *testing.T) {
	out := renderPlain(t, "[Go](https://go.dev) rocks", 80, WithLinkStyle(LinkHide))
	if strings.Contains(out, "go.dev") {
		t.Fatalf("hidden link leaked URL: %q", out)
	}
	if !strings.Contains(out, "Go rocks") {
		t.Fatalf("link text missing: %q", out)
	}
}

func TestClickableLinkEmitsOSC8(t *testing.T) {
	out := renderOut(t, "[Go](https://go.dev)", 80, WithOSC8(true))
	if !strings.Contains(out, "\x1b]8;;https://go.dev") {
		t.Fatalf("expected OSC 8 hyperlink sequence, got %q", out)
	}
}

func TestClickableLinkWithoutColors(t *testing.T) {
	out := renderPlain(t, "[Go](https://go.dev)", 80, WithOSC8(true))
	if strings.Contains(out, "\x1b]8") {
		t.Fatalf("OSC 8 sequence in no-colors output: %q", out)
	}
	if !strings.Contains(out, "Go") {
		t.Fatalf("link text missing: %q", out)
	}
}

func TestOSC8DisabledClickableShowsURLInline(t *testing.T) {
	out, err := RenderString("[Go](https://go.dev)",
		WithLinkStyle(LinkClickable), WithOSC8(false))
	if err != nil {
		t.Fatalf("RenderString: %v", err)
	}
	if strings.Contains(out, "\x1b]8") {
		t.Fatalf("OSC 8 sequence despite WithOSC8(false): %q", out)
	}
	if !strings.Contains(stripANSI(out), "Go(https://go.dev)") {
		t.Fatalf("expected inline URL fallback, got %q", out)
	}
}

func TestOSC8DisabledForcedLinkUnderlinesOnly(t *testing.T) {
	out, err := RenderString("[Go](https://go.dev)",
		WithLinkStyle(LinkClickableForced), WithOSC8(false))
	if err != nil {
		t.Fatalf("RenderString: %v", err)
	}
	if strings.Contains(out, "\x1b]8") {
		t.Fatalf("OSC 8 sequence despite WithOSC8(false): %q", out)
	}
	if !strings.Contains(out, "\x1b[4m") {
		t.Fatalf("forced link lost its underline: %q", out)
	}
	if got := stripANSI(out); got != "Go\n" {
		t.Fatalf("forced link text = %q, want %q", got, "Go\n")
	}
}

func TestOSC8DisabledReferenceBlockPlain(t *testing.T) {
	out := renderOut(t, "See [Go](https://go.dev)", 80,
		WithLinkStyle(LinkInlineTable))
	if strings.Contains(out, "\x1b]8") {
		t.Fatalf("OSC 8 sequence despite WithOSC8(false): %q", out)
	}
	if !strings.Contains(stripANSI(out), "[1] https://go.dev") {
		t.Fatalf("reference block missing: %q", out)
	}
}

func TestCutTruncationRespectsWidth(t *testing.T) {
	doc := "[click](https://example.com/a/very/long/path/segment/going/on/forever)"
	out := renderPlain(t, doc, 30,
		WithLinkStyle(LinkInline), WithLinkTruncation(TruncateCut))
	for _, line := range strings.Split(strings.TrimSuffix(out, "\n"), "\n") {
		if w := displayWidth(stripANSI(line)); w > 30 {
			t.Fatalf("line %q has width %d, want <= 30", line, w)
		}
	}
	if !strings.Contains(out, "...") {
		t.Fatalf("expected truncated URL ellipsis: %q", out)
	}
}

func TestWrapTruncationRespectsWidth(t *testing.T) {
	doc := "some leading words then [click here](https://example.com/a/very/long/path/segment/going/on/forever) trailing"
	out := renderPlain(t, doc, 30, WithLinkStyle(LinkInline))
	for _, line := range strings.Split(strings.TrimSuffix(out, "\n"), "\n") {
		if w := displayWidth(stripANSI(line)); w > 30 {
			t.Fatalf("line %q has width %d, want <= 30", line, w)
		}
	}
}

func TestInlineTableRefsAfterList(t *testing.T) {
	lines := plainLines(t, "- [Go](https://go.dev)", 80,
		WithLinkStyle(LinkInlineTable))
	assertLines(t, lines, []string{
		"- Go[1]",
		"",
		"[1] https://go.dev",
	})
}

func TestImageRendersMarker(t *testing.T) {
	out := renderPlain(t, "![diagram](https://example.com/d.png)", 80)
	if !strings.Contains(out, "[IMAGE]") {
		t.Fatalf("image marker missing: %q", out)
	}
}

func TestReferenceLineWrapsLongURL(t *testing.T) {
	url := "https://example.com/" + strings.Repeat("segment/", 12) + "end"
	out := renderPlain(t, "[x]("+url+")", 60, WithLinkStyle(LinkInlineTable))
	for _, line := range strings.Split(strings.TrimSuffix(out, "\n"), "\n") {
		if w := displayWidth(stripANSI(line)); w > 60 {
			t.Fatalf("reference line %q has width %d", line, w)
		}
	}
	if !strings.Contains(out, "[1] https://example.com/") {
		t.Fatalf("reference block missing: %q", out)
	}
}

func TestTruncateURLWithEllipsis(t *testing.T) {
	if got := truncateURLWithEllipsis("https://example.com/path", 100); got != "https://example.com/path" {
		t.Fatalf("short URL changed: %q", got)
	}
	got := truncateURLWithEllipsis("abcdefghij", 8)
	if got != "abcde..." {
		t.Fatalf("truncated = %q, want %q", got, "abcde...")
	}
	if got := truncateURLWithEllipsis("abc", 2); got != ".." {
		t.Fatalf("tiny budget = %q, want ..", got)
	}
	if got := truncateURLWithEllipsis("abc", 0); got != "" {
		t.Fatalf("zero budget = %q, want empty", got)
	}
}

func TestFindURLBreakPoint(t *testing.T) {
	// break point sits right after the last '/'
	if got := findURLBreakPoint("https://a.b/c"); got != 12 {
		t.Fatalf("break point = %d, want 12", got)
	}
	if got := findURLBreakPoint("nobreaks"); got != 0 {
		t.Fatalf("break point for plain word = %d, want 0", got)
	}
}
