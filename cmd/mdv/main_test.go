package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpenInputFileAndURL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.md")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	reader, closer, err := openInputs([]string{path})
	if err != nil {
		t.Fatalf("openInputs file: %v", err)
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}
	buf, _ := io.ReadAll(reader)
	if string(buf) != "hello" {
		t.Fatalf("unexpected file content: %q", string(buf))
	}

	fileURL := "file://" + path
	reader, closer, err = openInputs([]string{fileURL})
	if err != nil {
		t.Fatalf("openInputs file URL: %v", err)
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}
	buf, _ = io.ReadAll(reader)
	if string(buf) != "hello" {
		t.Fatalf("unexpected file URL content: %q", string(buf))
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("remote"))
	}))
	defer srv.Close()
	reader, closer, err = openInputs([]string{srv.URL})
	if err != nil {
		t.Fatalf("openInputs http: %v", err)
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}
	buf, _ = io.ReadAll(reader)
	if string(buf) != "remote" {
		t.Fatalf("unexpected http content: %q", string(buf))
	}
}

func TestOpenInputsConcatenates(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.md")
	second := filepath.Join(dir, "b.md")
	if err := os.WriteFile(first, []byte("one "), 0o644); err != nil {
		t.Fatalf("write first: %v", err)
	}
	if err := os.WriteFile(second, []byte("two"), 0o644); err != nil {
		t.Fatalf("write second: %v", err)
	}
	reader, closer, err := openInputs([]string{first, second})
	if err != nil {
		t.Fatalf("openInputs concat: %v", err)
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}
	buf, _ := io.ReadAll(reader)
	if string(buf) != "one two" {
		t.Fatalf("unexpected concatenated content: %q", string(buf))
	}
}

func TestOpenInputsLazyFailure(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.md")
	if err := os.WriteFile(first, []byte("one"), 0o644); err != nil {
		t.Fatalf("write first: %v", err)
	}
	missing := filepath.Join(dir, "missing.md")
	reader, _, err := openInputs([]string{first, missing})
	if err != nil {
		t.Fatalf("openInputs should defer open errors: %v", err)
	}
	if _, err := io.ReadAll(reader); err == nil {
		t.Fatalf("expected read error for missing second input")
	}
}

func TestResolveOSC8(t *testing.T) {
	cases := map[string]bool{
		"on":  true,
		"off": false,
		"1":   true,
		"0":   false,
		"yes": true,
		"no":  false,
	}
	for input, want := range cases {
		got, err := resolveOSC8(input)
		if err != nil {
			t.Fatalf("resolveOSC8(%q): %v", input, err)
		}
		if got != want {
			t.Fatalf("resolveOSC8(%q)=%v want %v", input, got, want)
		}
	}
	if _, err := resolveOSC8("nope"); err == nil {
		t.Fatalf("expected error for invalid osc8 value")
	}
}

func TestParseBool(t *testing.T) {
	truthy := []string{"1", "true", "yes", "on", "  TRUE  "}
	for _, v := range truthy {
		got, err := parseBool(v)
		if err != nil || !got {
			t.Fatalf("parseBool(%q) = %v, %v", v, got, err)
		}
	}
	falsy := []string{"0", "false", "no", "off"}
	for _, v := range falsy {
		got, err := parseBool(v)
		if err != nil || got {
			t.Fatalf("parseBool(%q) = %v, %v", v, got, err)
		}
	}
	if _, err := parseBool("maybe"); err == nil {
		t.Fatalf("expected error for invalid bool")
	}
}

func TestResolveWidthFlagWins(t *testing.T) {
	if got := resolveWidth(66); got != 66 {
		t.Fatalf("resolveWidth(66) = %d", got)
	}
}

func TestLoadFileConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := strings.Join([]string{
		"theme: dracula",
		"width: 100",
		"link_style: inline-table",
		"no_colors: true",
		"code_guessing: false",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := loadFileConfig(path, true)
	if err != nil {
		t.Fatalf("loadFileConfig: %v", err)
	}
	if cfg.Theme != "dracula" || cfg.Width != 100 || cfg.LinkStyle != "inline-table" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.NoColors == nil || !*cfg.NoColors {
		t.Fatalf("no_colors not parsed: %+v", cfg)
	}
	if cfg.CodeGuessing == nil || *cfg.CodeGuessing {
		t.Fatalf("code_guessing not parsed: %+v", cfg)
	}
	if cfg.SmartIndent != nil {
		t.Fatalf("unset bool should stay nil: %+v", cfg)
	}
}

func TestLoadFileConfigMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")
	if _, err := loadFileConfig(missing, true); err == nil {
		t.Fatalf("explicit missing config should error")
	}
}

func TestLoadFileConfigInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("theme: [unclosed"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := loadFileConfig(path, true); err == nil {
		t.Fatalf("expected yaml parse error")
	}
}

func TestNormalizePathExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}
	got := normalizePath("~/notes.md")
	if got != filepath.Join(home, "notes.md") {
		t.Fatalf("normalizePath(~/notes.md) = %q", got)
	}
}

func TestMakeInputSourceRejectsEmpty(t *testing.T) {
	if _, err := makeInputSource("   "); err == nil {
		t.Fatalf("expected error for blank input argument")
	}
}
