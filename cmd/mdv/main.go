package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
	"pkt.systems/mdv"
	"pkt.systems/version"
)

const (
	defaultThemeName = "default"
	defaultWidth     = 80
)

func init() {
	version.SetDefaultModule("pkt.systems/mdv")
}

// fileConfig mirrors the CLI flags in the YAML config file. Pointers
// distinguish "unset" from an explicit false.
type fileConfig struct {
	Theme          string `yaml:"theme"`
	Width          int    `yaml:"width"`
	Wrap           string `yaml:"wrap"`
	TableWrap      string `yaml:"table_wrap"`
	HeadingLayout  string `yaml:"heading_layout"`
	SmartIndent    *bool  `yaml:"smart_indent"`
	LinkStyle      string `yaml:"link_style"`
	LinkTruncation string `yaml:"link_truncation"`
	CodeBlockStyle string `yaml:"code_block_style"`
	CodeGuessing   *bool  `yaml:"code_guessing"`
	CodeLabel      *bool  `yaml:"code_label"`
	CodeTheme      string `yaml:"code_theme"`
	TabLength      int    `yaml:"tab_length"`
	OSC8           string `yaml:"osc8"`
	ShowEmpty      *bool  `yaml:"show_empty"`
	HideComments   *bool  `yaml:"hide_comments"`
	NoColors       *bool  `yaml:"no_colors"`
}

func main() {
	var (
		themeName     string
		widthFlag     int
		osc8Flag      string
		wrapFlag      string
		tableWrapFlag string
		headingFlag   string
		smartIndent   bool
		linkStyleFlag string
		linkTruncFlag string
		codeStyleFlag string
		codeGuessing  bool
		codeLabel     bool
		codeTheme     string
		tabLength     int
		showEmpty     bool
		hideComments  bool
		fromText      string
		listThemes    bool
		showVersion   bool
		outPath       string
		boring        bool
		configPath    string
		noConfig      bool
	)

	flags := pflag.NewFlagSet("mdv", pflag.ExitOnError)
	flags.StringVarP(&themeName, "theme", "t", defaultThemeName, "Theme name")
	flags.IntVarP(&widthFlag, "width", "w", 0, "Output width override (0 uses terminal width if available)")
	flags.StringVarP(&osc8Flag, "osc8", "8", "auto", "OSC8 hyperlinks: auto|on|off")
	flags.StringVar(&wrapFlag, "wrap", "char", "Text wrapping: none|char|word")
	flags.StringVar(&tableWrapFlag, "table-wrap", "fit", "Table wrapping: fit|wrap|none")
	flags.StringVar(&headingFlag, "heading-layout", "level", "Heading layout: level|center|flat|none")
	flags.BoolVar(&smartIndent, "smart-indent", false, "Compress heading indentation to the levels present")
	flags.StringVar(&linkStyleFlag, "link-style", "clickable", "Link style: clickable|clickable-forced|inline|inline-table|hide")
	flags.StringVar(&linkTruncFlag, "link-truncation", "wrap", "Inline link URL overflow: wrap|cut|none")
	flags.StringVar(&codeStyleFlag, "code-block-style", "pretty", "Code block frame: pretty|simple")
	flags.BoolVar(&codeGuessing, "code-guessing", true, "Guess the language of unlabeled code blocks")
	flags.BoolVar(&codeLabel, "code-label", true, "Show a language label on code block frames")
	flags.StringVar(&codeTheme, "code-theme", "monokai", "Chroma style for syntax highlighting")
	flags.IntVar(&tabLength, "tab-length", 4, "Tab expansion width in columns")
	flags.BoolVar(&showEmpty, "show-empty", false, "Render placeholders for empty elements instead of eliding them")
	flags.BoolVar(&hideComments, "hide-comments", false, "Drop HTML comments from the output")
	flags.StringVar(&fromText, "from-text", "", "Start output at the first line containing NEEDLE (NEEDLE or NEEDLE:LINES)")
	flags.BoolVar(&listThemes, "list-themes", false, "List available themes")
	flags.BoolVar(&showVersion, "version", false, "Print version and exit")
	flags.StringVarP(&outPath, "output", "o", "", "Output file instead of stdout")
	flags.BoolVarP(&boring, "boring", "b", false, "Generate non-ANSI output")
	flags.StringVar(&configPath, "config-file", "", "Config file (default $XDG_CONFIG_HOME/mdv/config.yaml)")
	flags.BoolVar(&noConfig, "no-config", false, "Skip loading the config file")

	flags.SetInterspersed(true)
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, version.Module(), version.Current())
		fmt.Fprintf(os.Stderr, "Usage: mdv [flags] [inputs...]\n")
		fmt.Fprintln(os.Stderr, "\nInputs are files or http(s)/file URLs. With no input, Markdown is read from stdin.")
		fmt.Fprintln(os.Stderr, "\nFlags:")
		flags.PrintDefaults()
	}

	if err := flags.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	if showVersion {
		fmt.Fprintln(os.Stdout, version.Current())
		return
	}
	if listThemes {
		printThemes()
		return
	}

	var fileCfg fileConfig
	if !noConfig {
		cfg, err := loadFileConfig(configPath, flags.Changed("config-file"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(2)
		}
		fileCfg = cfg
	}

	// Flags win over the config file; the file only fills in what was not
	// given on the command line.
	if !flags.Changed("theme") && fileCfg.Theme != "" {
		themeName = fileCfg.Theme
	}
	if !flags.Changed("width") && fileCfg.Width > 0 {
		widthFlag = fileCfg.Width
	}
	if !flags.Changed("osc8") && fileCfg.OSC8 != "" {
		osc8Flag = fileCfg.OSC8
	}
	if !flags.Changed("wrap") && fileCfg.Wrap != "" {
		wrapFlag = fileCfg.Wrap
	}
	if !flags.Changed("table-wrap") && fileCfg.TableWrap != "" {
		tableWrapFlag = fileCfg.TableWrap
	}
	if !flags.Changed("heading-layout") && fileCfg.HeadingLayout != "" {
		headingFlag = fileCfg.HeadingLayout
	}
	if !flags.Changed("smart-indent") && fileCfg.SmartIndent != nil {
		smartIndent = *fileCfg.SmartIndent
	}
	if !flags.Changed("link-style") && fileCfg.LinkStyle != "" {
		linkStyleFlag = fileCfg.LinkStyle
	}
	if !flags.Changed("link-truncation") && fileCfg.LinkTruncation != "" {
		linkTruncFlag = fileCfg.LinkTruncation
	}
	if !flags.Changed("code-block-style") && fileCfg.CodeBlockStyle != "" {
		codeStyleFlag = fileCfg.CodeBlockStyle
	}
	if !flags.Changed("code-guessing") && fileCfg.CodeGuessing != nil {
		codeGuessing = *fileCfg.CodeGuessing
	}
	if !flags.Changed("code-label") && fileCfg.CodeLabel != nil {
		codeLabel = *fileCfg.CodeLabel
	}
	if !flags.Changed("code-theme") && fileCfg.CodeTheme != "" {
		codeTheme = fileCfg.CodeTheme
	}
	if !flags.Changed("tab-length") && fileCfg.TabLength > 0 {
		tabLength = fileCfg.TabLength
	}
	if !flags.Changed("show-empty") && fileCfg.ShowEmpty != nil {
		showEmpty = *fileCfg.ShowEmpty
	}
	if !flags.Changed("hide-comments") && fileCfg.HideComments != nil {
		hideComments = *fileCfg.HideComments
	}

	noColors := false
	if fileCfg.NoColors != nil {
		noColors = *fileCfg.NoColors
	}
	if value := os.Getenv("MDV_NO_COLOR"); value != "" {
		if b, err := parseBool(value); err == nil {
			noColors = b
		}
	}
	if boring {
		noColors = true
	}

	wrapMode, err := mdv.ParseWrapMode(wrapFlag)
	if err != nil {
		fatalFlag(err)
	}
	tableWrapMode, err := mdv.ParseTableWrapMode(tableWrapFlag)
	if err != nil {
		fatalFlag(err)
	}
	headingLayout, err := mdv.ParseHeadingLayout(headingFlag)
	if err != nil {
		fatalFlag(err)
	}
	linkStyle, err := mdv.ParseLinkStyle(linkStyleFlag)
	if err != nil {
		fatalFlag(err)
	}
	linkTrunc, err := mdv.ParseLinkTruncation(linkTruncFlag)
	if err != nil {
		fatalFlag(err)
	}
	codeStyle, err := mdv.ParseCodeBlockStyle(codeStyleFlag)
	if err != nil {
		fatalFlag(err)
	}
	osc8, err := resolveOSC8(osc8Flag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid --osc8 %q: %v\n", osc8Flag, err)
		os.Exit(2)
	}
	// Without OSC8 support a clickable link would render as bare text, so
	// fall back to showing the URL inline.
	if linkStyle == mdv.LinkClickable && !osc8 {
		linkStyle = mdv.LinkInline
	}

	theme, ok := mdv.ThemeByName(themeName)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown theme %q\n\n", themeName)
		printThemes()
		os.Exit(2)
	}
	if boring {
		theme, _ = mdv.ThemeByName("boring")
	}

	args := flags.Args()
	reader, closer, err := openInputs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open input: %v\n", err)
		os.Exit(1)
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}

	writer, closeOut, err := resolveOutput(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open output: %v\n", err)
		os.Exit(1)
	}
	if closeOut != nil {
		defer func() { _ = closeOut.Close() }()
	}

	opts := []mdv.RenderOption{
		mdv.WithWrapMode(wrapMode),
		mdv.WithTableWrapMode(tableWrapMode),
		mdv.WithHeadingLayout(headingLayout),
		mdv.WithSmartIndent(smartIndent),
		mdv.WithLinkStyle(linkStyle),
		mdv.WithLinkTruncation(linkTrunc),
		mdv.WithCodeBlockStyle(codeStyle),
		mdv.WithCodeGuessing(codeGuessing),
		mdv.WithCodeLanguageLabel(codeLabel),
		mdv.WithCodeTheme(codeTheme),
		mdv.WithTabLength(tabLength),
		mdv.WithOSC8(osc8),
		mdv.WithNoColors(noColors),
		mdv.WithShowEmptyElements(showEmpty),
		mdv.WithHideComments(hideComments),
	}
	if fromText != "" {
		opts = append(opts, mdv.WithFromText(fromText))
	}

	if err := mdv.Render(mdv.RenderRequest{
		Reader:  reader,
		Writer:  writer,
		Width:   resolveWidth(widthFlag),
		Theme:   theme,
		Options: opts,
	}); err != nil {
		if errors.Is(err, mdv.ErrBinaryInput) {
			fmt.Fprintln(os.Stderr, "input looks like binary data, not Markdown")
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "render: %v\n", err)
		os.Exit(1)
	}
}

func fatalFlag(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(2)
}

func printThemes() {
	for _, name := range mdv.AvailableThemes() {
		fmt.Fprintln(os.Stdout, name)
	}
}

// loadFileConfig reads the YAML config. A missing file is only an error
// when its path was given explicitly.
func loadFileConfig(path string, explicit bool) (fileConfig, error) {
	if path == "" {
		if env := os.Getenv("MDV_CONFIG_PATH"); env != "" {
			path = env
			explicit = true
		}
	} else {
		explicit = true
	}
	if path == "" {
		base := os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return fileConfig{}, nil
			}
			base = filepath.Join(home, ".config")
		}
		path = filepath.Join(base, "mdv", "config.yaml")
	}

	data, err := os.ReadFile(normalizePath(path))
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return fileConfig{}, nil
		}
		return fileConfig{}, err
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fileConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return strconv.ParseBool(value)
}

func resolveWidth(width int) int {
	if width > 0 {
		return width
	}
	return terminalWidth(defaultWidth)
}

func terminalWidth(fallback int) int {
	fd := int(os.Stdout.Fd())
	if term.IsTerminal(fd) {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			return w
		}
	}
	if value := os.Getenv("COLUMNS"); value != "" {
		if w, err := strconv.Atoi(value); err == nil && w > 0 {
			return w
		}
	}
	return fallback
}

func resolveOSC8(mode string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "auto":
		return mdv.DetectOSC8Support(), nil
	case "on", "true", "1", "yes":
		return true, nil
	case "off", "false", "0", "no":
		return false, nil
	default:
		return false, fmt.Errorf("expected auto|on|off")
	}
}

type inputSource struct {
	open func() (io.Reader, io.Closer, error)
}

// multiInputReader concatenates several inputs, opening each lazily so a
// missing second file fails only once the first has been consumed.
type multiInputReader struct {
	sources   []inputSource
	idx       int
	cur       io.Reader
	curCloser io.Closer
	closed    bool
}

func (m *multiInputReader) Read(p []byte) (int, error) {
	for {
		if m.closed {
			return 0, io.EOF
		}
		if m.cur == nil {
			if m.idx >= len(m.sources) {
				m.closed = true
				return 0, io.EOF
			}
			reader, closer, err := m.sources[m.idx].open()
			if err != nil {
				return 0, err
			}
			m.cur = reader
			m.curCloser = closer
			m.idx++
		}
		n, err := m.cur.Read(p)
		if n > 0 {
			return n, nil
		}
		if err == io.EOF {
			if m.curCloser != nil {
				_ = m.curCloser.Close()
			}
			m.cur = nil
			m.curCloser = nil
			continue
		}
		if err != nil {
			return 0, err
		}
	}
}

func (m *multiInputReader) Close() error {
	m.closed = true
	if m.curCloser != nil {
		return m.curCloser.Close()
	}
	return nil
}

func openInputs(args []string) (io.Reader, io.Closer, error) {
	if len(args) == 0 {
		return os.Stdin, nil, nil
	}
	sources := make([]inputSource, 0, len(args))
	for _, raw := range args {
		src, err := makeInputSource(raw)
		if err != nil {
			return nil, nil, err
		}
		sources = append(sources, src)
	}
	return &multiInputReader{sources: sources}, nil, nil
}

func makeInputSource(raw string) (inputSource, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return inputSource{}, fmt.Errorf("empty input argument")
	}
	u, err := url.Parse(raw)
	if err == nil && u.Scheme != "" {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return inputSource{open: func() (io.Reader, io.Closer, error) {
				return openURL(raw)
			}}, nil
		case "file":
			path := u.Path
			if path == "" {
				path = u.Host
			}
			if unescaped, err := url.PathUnescape(path); err == nil {
				path = unescaped
			}
			return inputSource{open: func() (io.Reader, io.Closer, error) {
				return openFile(path)
			}}, nil
		}
	}
	return inputSource{open: func() (io.Reader, io.Closer, error) {
		return openFile(raw)
	}}, nil
}

func openURL(raw string) (io.Reader, io.Closer, error) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, raw, nil)
	if err != nil {
		return nil, nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, nil, fmt.Errorf("http %s: %s", raw, resp.Status)
	}
	return resp.Body, resp.Body, nil
}

func openFile(path string) (io.Reader, io.Closer, error) {
	clean := normalizePath(path)
	f, err := os.Open(clean)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

func resolveOutput(path string) (io.Writer, io.Closer, error) {
	if strings.TrimSpace(path) == "" {
		return os.Stdout, nil, nil
	}
	clean := normalizePath(path)
	dir := filepath.Dir(clean)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, err
		}
	}
	f, err := os.Create(clean)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

func normalizePath(path string) string {
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			if path == "~" {
				path = home
			} else {
				path = filepath.Join(home, path[2:])
			}
		}
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		return abs
	}
	return path
}
