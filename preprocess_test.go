package mdv

import (
	"strings"
	"testing"
)

func TestFilterFromText(t *testing.T) {
	content := "Line 1\nTarget Line\nLine 3\nLine 4"
	cases := []struct {
		spec string
		want string
	}{
		{"Target", "Target Line\nLine 3\nLine 4"},
		{"Target:2", "Target Line\nLine 3"},
		{"absent", "Line 1\nTarget Line\nLine 3\nLine 4"},
		{":2", "Line 1\nTarget Line"},
		{"Target:0", ""},
	}
	for _, tc := range cases {
		if got := filterFromText(content, tc.spec); got != tc.want {
			t.Fatalf("filterFromText(%q) = %q, want %q", tc.spec, got, tc.want)
		}
	}
}

func TestNormalizeBlockquotesOnDepthDrop(t *testing.T) {
	got := normalizeBlockquotes("> a\n>> b\n> c")
	want := "> a\n>> b\n\n> c"
	if got != want {
		t.Fatalf("normalizeBlockquotes = %q, want %q", got, want)
	}
}

func TestNormalizeBlockquotesBeforePlainText(t *testing.T) {
	got := normalizeBlockquotes("> a\nplain")
	want := "> a\n\nplain"
	if got != want {
		t.Fatalf("normalizeBlockquotes = %q, want %q", got, want)
	}
}

func TestNormalizeBlockquotesLeavesFlatInput(t *testing.T) {
	in := "> a\n> b\n\ntext"
	if got := normalizeBlockquotes(in); got != in {
		t.Fatalf("flat input changed: %q", got)
	}
}

func TestQuoteMarkerDepth(t *testing.T) {
	cases := map[string]int{
		"":        0,
		"text":    0,
		"> x":     1,
		">> x":    2,
		"> > x":   2,
		">>> x":   3,
	}
	for in, want := range cases {
		if got := quoteMarkerDepth(in); got != want {
			t.Fatalf("quoteMarkerDepth(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestPreprocessExpandsTabs(t *testing.T) {
	cfg := defaultRenderConfig()
	if got := preprocess("a\tb", &cfg); got != "a    b" {
		t.Fatalf("tab expansion = %q", got)
	}
	cfg.tabLength = 2
	if got := preprocess("a\tb", &cfg); got != "a  b" {
		t.Fatalf("tab length 2 = %q", got)
	}
}

func TestTabLengthOption(t *testing.T) {
	out := renderPlain(t, "a\tb", 80, WithTabLength(8))
	if !strings.Contains(out, "a        b") {
		t.Fatalf("expected 8-space tab, got %q", out)
	}
}
