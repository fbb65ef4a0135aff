package mdv

import (
	"sort"
	"strings"
	"testing"
)

func TestAvailableThemes(t *testing.T) {
	names := AvailableThemes()
	if !sort.StringsAreSorted(names) {
		t.Fatalf("theme names not sorted: %v", names)
	}
	for _, want := range []string{"default", "terminal", "gruvbox", "dracula", "nord", "solarized-dark", "boring"} {
		found := false
		for _, name := range names {
			if name == want {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("theme %q missing from %v", want, names)
		}
	}
}

func TestThemeByName(t *testing.T) {
	theme, ok := ThemeByName("gruvbox")
	if !ok || theme.Name() != "gruvbox" {
		t.Fatalf("ThemeByName(gruvbox) = %v, %v", theme, ok)
	}
	theme, ok = ThemeByName("  Dracula  ")
	if !ok || theme.Name() != "dracula" {
		t.Fatalf("lookup should trim and lowercase, got %v, %v", theme, ok)
	}
	theme, ok = ThemeByName("")
	if !ok || theme.Name() != "default" {
		t.Fatalf("empty name should fall back to default, got %v, %v", theme, ok)
	}
	if _, ok := ThemeByName("no-such-theme"); ok {
		t.Fatalf("unknown theme should not resolve")
	}
}

func TestDefaultTheme(t *testing.T) {
	if DefaultTheme().Name() != "default" {
		t.Fatalf("default theme name = %q", DefaultTheme().Name())
	}
}

func TestNewTheme(t *testing.T) {
	custom := NewTheme("custom", Styles{Text: Style{Prefix: "\x1b[34m"}})
	if custom.Name() != "custom" {
		t.Fatalf("custom theme name = %q", custom.Name())
	}
	if custom.Styles().Text.Prefix != "\x1b[34m" {
		t.Fatalf("custom style prefix = %q", custom.Styles().Text.Prefix)
	}
}

func TestBoringThemeHasNoPrefixes(t *testing.T) {
	theme, ok := ThemeByName("boring")
	if !ok {
		t.Fatalf("boring theme missing")
	}
	styles := theme.Styles()
	if styles.Text.Prefix != "" {
		t.Fatalf("expected empty text prefix")
	}
	for i, h := range styles.Heading {
		if h.Prefix != "" {
			t.Fatalf("expected empty heading %d prefix", i+1)
		}
	}
	others := []string{
		styles.Emphasis.Prefix,
		styles.Strong.Prefix,
		styles.EmphasisStrong.Prefix,
		styles.CodeInline.Prefix,
		styles.Quote.Prefix,
		styles.ListMarker.Prefix,
		styles.LinkText.Prefix,
		styles.LinkURL.Prefix,
		styles.ThematicBreak.Prefix,
		styles.TableBorder.Prefix,
		styles.TableHeader.Prefix,
	}
	for _, prefix := range others {
		if strings.TrimSpace(prefix) != "" {
			t.Fatalf("expected empty prefix, got %q", prefix)
		}
	}
}

func TestThemedOutputDiffers(t *testing.T) {
	src := "# Heading\n\n**strong** words"
	def := renderOut(t, src, 80)
	boring, ok := ThemeByName("boring")
	if !ok {
		t.Fatalf("boring theme missing")
	}
	var sb strings.Builder
	err := Render(RenderRequest{
		Reader:  strings.NewReader(src),
		Writer:  &sb,
		Width:   80,
		Theme:   boring,
		Options: []RenderOption{WithOSC8(false)},
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if def == sb.String() {
		t.Fatalf("default and boring themes rendered identically")
	}
	if stripANSI(def) != stripANSI(sb.String()) {
		t.Fatalf("themes changed visible text:\n%q\n%q", stripANSI(def), stripANSI(sb.String()))
	}
}
