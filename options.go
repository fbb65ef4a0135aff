package mdv

import (
	"fmt"
	"strings"
)

// WrapMode controls how body text is broken at the terminal width.
type WrapMode int

const (
	// WrapCharacter breaks lines at any character boundary.
	WrapCharacter WrapMode = iota
	// WrapWord breaks lines at word boundaries only.
	WrapWord
	// WrapNone disables wrapping; lines may overflow.
	WrapNone
)

// TableWrapMode controls how tables react to the terminal width.
type TableWrapMode int

const (
	// TableFit renders a single grid clamped to the terminal width;
	// cell text wraps inside its column.
	TableFit TableWrapMode = iota
	// TableWrap splits wide tables into successive column blocks.
	TableWrap
	// TableNoWrap renders the grid at natural width, overflowing if needed.
	TableNoWrap
)

// HeadingLayout selects the indentation policy for headings.
type HeadingLayout int

const (
	// HeadingLevel indents heading and content one column per level.
	HeadingLevel HeadingLayout = iota
	// HeadingCenter centers heading lines; content is not indented.
	HeadingCenter
	// HeadingFlat uses no heading indent and one column of content indent.
	HeadingFlat
	// HeadingNone uses no indentation at all.
	HeadingNone
)

// LinkStyle selects how links are rendered.
type LinkStyle int

const (
	// LinkClickable emits OSC 8 hyperlinks when the terminal supports them.
	LinkClickable LinkStyle = iota
	// LinkClickableForced emits OSC 8 hyperlinks with explicit underline codes.
	LinkClickableForced
	// LinkInline renders "text (url)".
	LinkInline
	// LinkInlineTable renders "text[n]" with a reference list after the block.
	LinkInlineTable
	// LinkHide renders only the link text.
	LinkHide
)

// LinkTruncation selects what happens when an inline URL overflows the line.
type LinkTruncation int

const (
	// TruncateWrap breaks the URL at structural characters and continues
	// on the next line.
	TruncateWrap LinkTruncation = iota
	// TruncateCut fits as much of the URL as possible, ending in "...".
	TruncateCut
	// TruncateNone emits the full URL even if it overflows.
	TruncateNone
)

// CodeBlockStyle selects the code block frame.
type CodeBlockStyle int

const (
	// CodeBlockPretty draws a rounded box around the block.
	CodeBlockPretty CodeBlockStyle = iota
	// CodeBlockSimple prefixes each line with a vertical bar.
	CodeBlockSimple
)

const (
	defaultWidth     = 80
	defaultTabLength = 4
	defaultCodeTheme = "monokai"
)

type renderConfig struct {
	width          int
	tabLength      int
	wrap           WrapMode
	tableWrap      TableWrapMode
	headingLayout  HeadingLayout
	smartIndent    bool
	linkStyle      LinkStyle
	linkTruncation LinkTruncation
	codeBlockStyle CodeBlockStyle
	codeGuessing   bool
	codeLabel      bool
	codeTheme      string
	osc8           bool
	noColors       bool
	showEmpty      bool
	hideComments   bool
	fromText       string

	// plaintextDepth carries the nesting depth into recursive renders of
	// plaintext code blocks; depth 1 disables further recursion.
	plaintextDepth int

	// captureRefs diverts inline-table reference blocks to the caller
	// instead of the output, used by nested plaintext renders.
	captureRefs bool
}

func defaultRenderConfig() renderConfig {
	return renderConfig{
		width:        defaultWidth,
		tabLength:    defaultTabLength,
		codeGuessing: true,
		codeLabel:    true,
		codeTheme:    defaultCodeTheme,
		osc8:         true,
	}
}

// RenderOption configures rendering behavior.
type RenderOption func(*renderConfig)

// WithWidth sets the output width in columns.
func WithWidth(width int) RenderOption {
	return func(cfg *renderConfig) {
		if width > 0 {
			cfg.width = width
		}
	}
}

// WithTabLength sets the column width of a tab character.
func WithTabLength(n int) RenderOption {
	return func(cfg *renderConfig) {
		if n > 0 {
			cfg.tabLength = n
		}
	}
}

// WithWrapMode sets the text wrapping mode.
func WithWrapMode(mode WrapMode) RenderOption {
	return func(cfg *renderConfig) {
		cfg.wrap = mode
	}
}

// WithTableWrapMode sets the table wrapping mode.
func WithTableWrapMode(mode TableWrapMode) RenderOption {
	return func(cfg *renderConfig) {
		cfg.tableWrap = mode
	}
}

// WithHeadingLayout sets the heading indentation policy.
func WithHeadingLayout(layout HeadingLayout) RenderOption {
	return func(cfg *renderConfig) {
		cfg.headingLayout = layout
	}
}

// WithSmartIndent compresses level-layout heading indentation to the
// distinct heading levels actually present in the document.
func WithSmartIndent(enabled bool) RenderOption {
	return func(cfg *renderConfig) {
		cfg.smartIndent = enabled
	}
}

// WithLinkStyle sets the link rendering style.
func WithLinkStyle(style LinkStyle) RenderOption {
	return func(cfg *renderConfig) {
		cfg.linkStyle = style
	}
}

// WithLinkTruncation sets the inline link URL truncation policy.
func WithLinkTruncation(trunc LinkTruncation) RenderOption {
	return func(cfg *renderConfig) {
		cfg.linkTruncation = trunc
	}
}

// WithCodeBlockStyle sets the code block frame style.
func WithCodeBlockStyle(style CodeBlockStyle) RenderOption {
	return func(cfg *renderConfig) {
		cfg.codeBlockStyle = style
	}
}

// WithCodeGuessing enables or disables language guessing for code blocks
// without a recognized language hint.
func WithCodeGuessing(enabled bool) RenderOption {
	return func(cfg *renderConfig) {
		cfg.codeGuessing = enabled
	}
}

// WithCodeLanguageLabel enables or disables the language label on code
// block frames.
func WithCodeLanguageLabel(enabled bool) RenderOption {
	return func(cfg *renderConfig) {
		cfg.codeLabel = enabled
	}
}

// WithCodeTheme sets the chroma style used for syntax highlighting.
func WithCodeTheme(name string) RenderOption {
	return func(cfg *renderConfig) {
		if name != "" {
			cfg.codeTheme = name
		}
	}
}

// WithOSC8 enables or disables OSC 8 hyperlinks. When disabled, clickable
// links show their URL inline instead.
func WithOSC8(enabled bool) RenderOption {
	return func(cfg *renderConfig) {
		cfg.osc8 = enabled
	}
}

// WithNoColors disables all ANSI styling in the output.
func WithNoColors(enabled bool) RenderOption {
	return func(cfg *renderConfig) {
		cfg.noColors = enabled
	}
}

// WithShowEmptyElements renders placeholders for empty elements instead of
// eliding them.
func WithShowEmptyElements(enabled bool) RenderOption {
	return func(cfg *renderConfig) {
		cfg.showEmpty = enabled
	}
}

// WithHideComments drops HTML comments from the output.
func WithHideComments(enabled bool) RenderOption {
	return func(cfg *renderConfig) {
		cfg.hideComments = enabled
	}
}

// WithFromText filters the input before parsing: "Needle" starts output at
// the first line containing Needle; "Needle:N" additionally keeps only N
// lines from there.
func WithFromText(spec string) RenderOption {
	return func(cfg *renderConfig) {
		cfg.fromText = spec
	}
}

// ParseWrapMode parses a wrap mode name: none, char or word.
func ParseWrapMode(s string) (WrapMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "char", "character":
		return WrapCharacter, nil
	case "word":
		return WrapWord, nil
	case "none":
		return WrapNone, nil
	}
	return 0, fmt.Errorf("unknown wrap mode %q (expected none|char|word)", s)
}

// ParseTableWrapMode parses a table wrap mode name: fit, wrap or none.
func ParseTableWrapMode(s string) (TableWrapMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fit":
		return TableFit, nil
	case "wrap":
		return TableWrap, nil
	case "none":
		return TableNoWrap, nil
	}
	return 0, fmt.Errorf("unknown table wrap mode %q (expected fit|wrap|none)", s)
}

// ParseHeadingLayout parses a heading layout name: level, center, flat or none.
func ParseHeadingLayout(s string) (HeadingLayout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "level":
		return HeadingLevel, nil
	case "center":
		return HeadingCenter, nil
	case "flat":
		return HeadingFlat, nil
	case "none":
		return HeadingNone, nil
	}
	return 0, fmt.Errorf("unknown heading layout %q (expected level|center|flat|none)", s)
}

// ParseLinkStyle parses a link style name.
func ParseLinkStyle(s string) (LinkStyle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "clickable":
		return LinkClickable, nil
	case "clickable-forced":
		return LinkClickableForced, nil
	case "inline":
		return LinkInline, nil
	case "inline-table":
		return LinkInlineTable, nil
	case "hide":
		return LinkHide, nil
	}
	return 0, fmt.Errorf("unknown link style %q (expected clickable|clickable-forced|inline|inline-table|hide)", s)
}

// ParseLinkTruncation parses a link truncation name: wrap, cut or none.
func ParseLinkTruncation(s string) (LinkTruncation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "wrap":
		return TruncateWrap, nil
	case "cut":
		return TruncateCut, nil
	case "none":
		return TruncateNone, nil
	}
	return 0, fmt.Errorf("unknown link truncation %q (expected wrap|cut|none)", s)
}

// ParseCodeBlockStyle parses a code block style name: pretty or simple.
func ParseCodeBlockStyle(s string) (CodeBlockStyle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pretty":
		return CodeBlockPretty, nil
	case "simple":
		return CodeBlockSimple, nil
	}
	return 0, fmt.Errorf("unknown code block style %q (expected pretty|simple)", s)
}
