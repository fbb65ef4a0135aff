package mdv

import (
	"strings"
	"testing"
)

func TestStripFrontMatter(t *testing.T) {
	cases := []struct {
		name  string
		input string
		omits string
		keeps string
	}{
		{
			name:  "yaml",
			input: "---\ntitle: Test\nauthor: someone\n---\n# Body",
			omits: "title: Test",
			keeps: "# Body",
		},
		{
			name:  "toml",
			input: "+++\ntitle = \"Test\"\n+++\n# Body",
			omits: "title =",
			keeps: "# Body",
		},
		{
			name:  "json",
			input: ";;;\n{\"title\": \"Test\"}\n;;;\n# Body",
			omits: "\"title\"",
			keeps: "# Body",
		},
	}
	for _, tc := range cases {
		got := string(stripFrontMatter([]byte(tc.input)))
		if strings.Contains(got, tc.omits) {
			t.Fatalf("%s: front matter kept: %q", tc.name, got)
		}
		if !strings.Contains(got, tc.keeps) {
			t.Fatalf("%s: body lost: %q", tc.name, got)
		}
	}
}

func TestFrontMatterRequiresMetadataLine(t *testing.T) {
	// A thematic break at the top of the file is not front matter.
	input := "---\n\nsome text\n---\nmore"
	got := string(stripFrontMatter([]byte(input)))
	if got != input {
		t.Fatalf("rule-like input changed: %q", got)
	}
}

func TestFrontMatterRequiresClosingDelimiter(t *testing.T) {
	input := "---\ntitle: unclosed\n\nbody"
	got := string(stripFrontMatter([]byte(input)))
	if got != input {
		t.Fatalf("unclosed front matter changed: %q", got)
	}
}

func TestFrontMatterOnlyAtTop(t *testing.T) {
	input := "intro\n---\ntitle: x\n---\n"
	got := string(stripFrontMatter([]byte(input)))
	if got != input {
		t.Fatalf("mid-document delimiters changed: %q", got)
	}
}

func TestFrontMatterHandlesBOMAndCRLF(t *testing.T) {
	input := "\xef\xbb\xbf---\r\ntitle: x\r\n---\r\nbody"
	got := string(stripFrontMatter([]byte(input)))
	if strings.Contains(got, "title") {
		t.Fatalf("front matter kept: %q", got)
	}
	if !strings.Contains(got, "body") {
		t.Fatalf("body lost: %q", got)
	}
}
