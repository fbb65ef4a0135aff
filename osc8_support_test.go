package mdv

import "testing"

func TestHyperlinkFormat(t *testing.T) {
	got := hyperlink("https://example.com", "text")
	want := "\x1b]8;;https://example.com\x1b\\text\x1b]8;;\x1b\\"
	if got != want {
		t.Fatalf("hyperlink = %q, want %q", got, want)
	}
}

func TestDetectOSC8SupportHonorsOverride(t *testing.T) {
	t.Setenv("OSC8", "0")
	t.Setenv("DOMTERM", "yes")
	if DetectOSC8Support() {
		t.Fatalf("OSC8=0 should force detection off")
	}
}

func TestDetectOSC8SupportKnownTerminals(t *testing.T) {
	t.Setenv("OSC8", "")
	t.Setenv("DOMTERM", "")
	t.Setenv("WT_SESSION", "")
	t.Setenv("VTE_VERSION", "")
	t.Setenv("TERM", "")

	t.Setenv("TERM_PROGRAM", "WezTerm")
	if !DetectOSC8Support() {
		t.Fatalf("WezTerm should support OSC 8")
	}

	t.Setenv("TERM_PROGRAM", "")
	t.Setenv("TERM", "xterm-kitty")
	if !DetectOSC8Support() {
		t.Fatalf("kitty should support OSC 8")
	}

	t.Setenv("TERM", "dumb")
	if DetectOSC8Support() {
		t.Fatalf("dumb terminal should not support OSC 8")
	}
}
