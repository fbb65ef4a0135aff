package mdv

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/quick"
)

// Languages rendered by a nested Markdown pass instead of highlighting.
var plaintextLanguages = map[string]bool{
	"text":       true,
	"plain":      true,
	"plaintext":  true,
	"plain_text": true,
	"txt":        true,
	"markdown":   true,
	"md":         true,
}

// Tokens that mean "no highlighting" when used as a language hint.
var plainHintTokens = map[string]bool{
	"text":        true,
	"plain":       true,
	"plaintext":   true,
	"plain_text":  true,
	"txt":         true,
	"output":      true,
	"nohighlight": true,
	"none":        true,
}

// languageAliases maps hint tokens chroma does not know onto lexer names
// it does.
var languageAliases = map[string]string{
	"shell-session": "shell",
	"console":       "shell",
	"node":          "javascript",
	"nodejs":        "javascript",
	"ecmascript":    "javascript",
	"golang":        "go",
	"gql":           "graphql",
	"proto3":        "protobuf",
	"gdiff":         "diff",
	"patch":         "diff",
	"restructuredtext": "rst",
	"asciidoc":      "markdown",
	"visualbasic":   "vb.net",
}

// customLanguageLabels overrides labels where the lexer name reads poorly
// on a frame.
var customLanguageLabels = map[string]string{
	"bash":          "Bash",
	"shell":         "Shell",
	"shell-session": "Shell",
	"console":       "Shell",
	"sh":            "Shell",
	"objective-c":   "Objective-C",
	// chroma's lexer name for the markdown family is lowercase
	"markdown": "Markdown",
	"md":       "Markdown",
}

func (r *renderer) startCodeBlock(hint string) {
	r.inCode = true
	r.codeHint = hint
	r.codeContent.Reset()
}

func (r *renderer) endCodeBlock() error {
	r.inCode = false
	content := r.codeContent.String()
	hint := r.codeHint
	r.codeContent.Reset()
	r.codeHint = ""

	if strings.TrimSpace(content) == "" && !r.cfg.showEmpty {
		return nil
	}

	var (
		highlighted string
		refs        []string
	)
	if r.plaintextCodeBlock(hint) {
		body, captured, err := renderNested(content, r.estimatePlaintextWidth(), r.theme, r.cfg)
		if err != nil {
			return err
		}
		highlighted = strings.TrimRight(body, "\n")
		refs = captured
	} else {
		var err error
		highlighted, err = r.highlightCode(content, hint)
		if err != nil {
			return err
		}
	}

	if strings.TrimSpace(stripANSI(highlighted)) == "" {
		if !r.cfg.showEmpty {
			return nil
		}
		if highlighted == "" {
			highlighted = "\n"
		}
	}

	label := ""
	if r.cfg.codeLabel {
		if strings.TrimSpace(hint) != "" {
			label = r.resolveLanguageLabel(hint, content)
		} else {
			label = "Text"
		}
	}

	startsBlank := strings.HasPrefix(content, "\n")

	r.ensureContextualBlankLine()

	if r.cfg.codeBlockStyle == CodeBlockSimple {
		r.renderCodeSimple(highlighted, label, startsBlank)
	} else {
		r.renderCodePretty(highlighted, label, startsBlank)
	}

	if len(refs) == 0 {
		r.ensureContextualBlankLine()
	} else {
		r.appendCapturedRefs(refs)
	}
	r.commitPendingPlaceholderIfContent()
	return nil
}

func (r *renderer) plaintextCodeBlock(hint string) bool {
	if r.cfg.plaintextDepth > 0 {
		return false
	}
	trimmed := strings.ToLower(strings.TrimSpace(hint))
	return trimmed != "" && plaintextLanguages[trimmed]
}

// renderCodeSimple prefixes every line with a bar, wrapping long lines to
// the remaining width.
func (r *renderer) renderCodeSimple(highlighted, label string, startsBlank bool) {
	border := r.st.CodeBlockLabel.apply("│ ", r.cfg.noColors)
	width := r.cfg.width

	if label != "" {
		base := strings.TrimSpace(label)
		if base == "" {
			base = "Text"
		}
		available := width - r.lineStartContextWidth() - 2
		lines := []string{base}
		if r.cfg.wrap != WrapNone && available > 0 {
			lines = wrapLine(base, available, r.cfg.wrap)
		}
		for _, part := range lines {
			r.pushIndentForLineStart()
			r.push(border)
			r.push(r.st.CodeBlockLabel.apply(part, r.cfg.noColors))
			r.pushByte('\n')
		}
		if !startsBlank {
			r.pushIndentForLineStart()
			r.push(border)
			r.pushByte('\n')
		}
	}

	for _, line := range splitLines(highlighted) {
		available := width - r.lineStartContextWidth() - 2
		parts := []string{line}
		if r.cfg.wrap != WrapNone && available > 0 {
			parts = wrapLine(line, available, r.cfg.wrap)
		}
		for _, part := range parts {
			r.pushIndentForLineStart()
			r.push(border)
			r.push(part)
			r.pushByte('\n')
		}
	}
}

// renderCodePretty draws a rounded frame around the block, falling back
// to the simple style when the frame cannot fit.
func (r *renderer) renderCodePretty(highlighted, label string, startsBlank bool) {
	const leftPad, rightPad = 1, 1

	contextWidth := r.lineStartContextWidth()
	availableFrame := r.cfg.width - contextWidth
	if availableFrame <= 4 {
		r.renderCodeSimple(highlighted, label, startsBlank)
		return
	}

	maxTextWidth := availableFrame - 2
	if maxTextWidth < leftPad+rightPad+1 {
		r.renderCodeSimple(highlighted, label, startsBlank)
		return
	}

	rawLines := splitLines(highlighted)
	maxLineWidth := 0
	for _, line := range rawLines {
		if w := displayWidth(line); w > maxLineWidth {
			maxLineWidth = w
		}
	}

	wrapWidth := maxTextWidth - leftPad - rightPad
	needsWrap := r.cfg.wrap != WrapNone && maxLineWidth+leftPad+rightPad > maxTextWidth

	var rendered []string
	maxPartWidth := 0
	if needsWrap {
		if wrapWidth <= 0 {
			r.renderCodeSimple(highlighted, label, startsBlank)
			return
		}
		for _, line := range rawLines {
			for _, part := range wrapLine(line, wrapWidth, r.cfg.wrap) {
				if w := displayWidth(part); w > maxPartWidth {
					maxPartWidth = w
				}
				rendered = append(rendered, part)
			}
		}
		if maxPartWidth > wrapWidth {
			r.renderCodeSimple(highlighted, label, startsBlank)
			return
		}
	} else {
		rendered = rawLines
		maxPartWidth = maxLineWidth
		if maxPartWidth+leftPad+rightPad > maxTextWidth {
			r.renderCodeSimple(highlighted, label, startsBlank)
			return
		}
	}
	if len(rendered) == 0 {
		rendered = []string{""}
	}

	blockEmpty := true
	for _, line := range rendered {
		if strings.TrimSpace(stripANSI(line)) != "" {
			blockEmpty = false
			break
		}
	}

	textWidth := leftPad + maxPartWidth + rightPad
	innerWidth := textWidth + 2

	if trimmed := strings.TrimSpace(label); trimmed != "" {
		labelWidth := displayWidth(trimmed)
		if blockEmpty && labelWidth+6 > availableFrame {
			r.renderCodeSimple(highlighted, label, startsBlank)
			return
		}
		required := min(labelWidth+6, availableFrame)
		if innerWidth < required {
			innerWidth = required
			textWidth = innerWidth - 2
		}
	}

	r.pushIndentForLineStart()
	r.push(r.prettyTopBorder(innerWidth, label))
	r.pushByte('\n')

	for _, part := range rendered {
		r.pushIndentForLineStart()
		r.push(r.prettyContentLine(textWidth, part))
		r.pushByte('\n')
	}

	r.pushIndentForLineStart()
	r.push(r.prettyBottomBorder(innerWidth))
	r.pushByte('\n')
}

func (r *renderer) prettyTopBorder(innerWidth int, label string) string {
	accent := r.st.CodeBlockLabel
	var line strings.Builder
	line.WriteString("╭")
	if innerWidth <= 1 {
		return accent.apply(line.String(), r.cfg.noColors)
	}

	middle := innerWidth - 2
	if middle > 0 {
		line.WriteString("─")
		middle--
	}

	trimmed := strings.TrimSpace(label)
	if trimmed != "" && middle > 0 {
		line.WriteString(" ")
		middle--
		if middle > 0 {
			labelText := trimmed
			if displayWidth(labelText) > middle {
				labelText, _ = takePrefixByWidth(labelText, middle)
			}
			labelWidth := displayWidth(labelText)
			if labelWidth > 0 && labelWidth <= middle {
				line.WriteString(labelText)
				middle -= labelWidth
				if middle > 0 {
					line.WriteString(" ")
					middle--
				}
			} else if strings.HasSuffix(line.String(), " ") {
				s := line.String()
				line.Reset()
				line.WriteString(s[:len(s)-1])
				middle++
			}
		}
	}

	line.WriteString(strings.Repeat("─", middle))
	line.WriteString("╮")
	return accent.apply(line.String(), r.cfg.noColors)
}

func (r *renderer) prettyBottomBorder(innerWidth int) string {
	accent := r.st.CodeBlockLabel
	line := "╰"
	if innerWidth > 1 {
		line += strings.Repeat("─", max(innerWidth-2, 0))
	}
	line += "╯"
	return accent.apply(line, r.cfg.noColors)
}

func (r *renderer) prettyContentLine(textWidth int, part string) string {
	accent := r.st.CodeBlockLabel
	contentWidth := displayWidth(part)
	innerWidth := max(1+contentWidth, 2)
	mandatoryPad := innerWidth - (1 + contentWidth)
	trailingPad := max(textWidth-innerWidth, 0)

	var line strings.Builder
	line.WriteString(accent.apply("│", r.cfg.noColors))
	line.WriteString(" ")
	line.WriteString(part)
	line.WriteString(strings.Repeat(" ", mandatoryPad+trailingPad))
	line.WriteString(accent.apply("│", r.cfg.noColors))
	return line.String()
}

// estimatePlaintextWidth derives the inner width a nested plaintext render
// should wrap to, so its lines fit inside the code frame.
func (r *renderer) estimatePlaintextWidth() int {
	available := r.cfg.width - r.lineStartContextWidth()
	if available <= 0 {
		return 1
	}
	width := available - 2
	if r.cfg.codeBlockStyle == CodeBlockPretty && available > 4 {
		maxText := available - 2
		if maxText >= 3 {
			width = maxText - 2
		}
	}
	return max(width, 1)
}

func (r *renderer) appendCapturedRefs(refs []string) {
	if len(refs) == 0 {
		r.ensureContextualBlankLine()
		return
	}
	if r.atLineStart() {
		r.pushByte('\n')
	} else {
		r.push("\n\n")
	}
	for i, line := range refs {
		if i > 0 {
			r.pushByte('\n')
		}
		r.pushIndentForLineStart()
		r.push(line)
	}
	r.pushByte('\n')
	r.ensureContextualBlankLine()
}

// highlightCode runs chroma over the block. Unresolvable languages fall
// back to plain text; a rejected highlight surfaces as ErrHighlight.
func (r *renderer) highlightCode(code, hint string) (string, error) {
	if r.cfg.noColors {
		return code, nil
	}

	name := r.resolveLexerName(hint, code)
	if name == "" {
		return r.st.CodeBlock.apply(code, r.cfg.noColors), nil
	}

	var buf strings.Builder
	if err := quick.Highlight(&buf, code, name, "terminal256", r.cfg.codeTheme); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrHighlight, name, err)
	}
	return buf.String(), nil
}

// resolveLexerName maps a fence hint (and optionally the code itself) to
// a chroma lexer name. Empty means plain text.
func (r *renderer) resolveLexerName(hint, code string) string {
	for _, token := range splitLanguageHint(hint) {
		if plainHintTokens[token] {
			return ""
		}
		if alias, ok := languageAliases[token]; ok {
			token = alias
		}
		if lexer := lexers.Get(token); lexer != nil {
			return lexer.Config().Name
		}
	}

	if !r.cfg.codeGuessing {
		return ""
	}

	if lexer := lexers.Analyse(code); lexer != nil {
		return lexer.Config().Name
	}
	return ""
}

// resolveLanguageLabel derives the frame label for a code block from the
// raw hint and the resolved lexer.
func (r *renderer) resolveLanguageLabel(hint, code string) string {
	lexerName := r.resolveLexerName(hint, code)
	lexerLower := strings.ToLower(lexerName)

	if label, ok := customLanguageLabels[lexerLower]; ok {
		return label
	}
	for _, token := range splitLanguageHint(hint) {
		if label, ok := customLanguageLabels[token]; ok {
			return label
		}
	}

	if lexerName != "" {
		return lexerName
	}

	for _, token := range splitLanguageHint(hint) {
		if plainHintTokens[token] {
			return "Text"
		}
		if label := humanizeLanguageToken(token); label != "" {
			return label
		}
	}
	return "Text"
}

// splitLanguageHint tokenizes a fence info string: separators, key=value
// forms, braces and "language-" prefixes are stripped and tokens are
// lowercased and deduplicated.
func splitLanguageHint(hint string) []string {
	trimmed := strings.TrimSpace(hint)
	if trimmed == "" {
		return nil
	}

	var parts []string
	for _, fragment := range strings.FieldsFunc(trimmed, func(c rune) bool {
		switch c {
		case ' ', '\t', ',', ';', '|':
			return true
		}
		return false
	}) {
		piece := strings.TrimSpace(fragment)
		if _, value, found := strings.Cut(piece, "="); found {
			piece = strings.TrimSpace(value)
		}
		piece = strings.Trim(piece, "{}\"'`.!")
		piece = strings.TrimPrefix(piece, "language-")
		piece = strings.TrimPrefix(piece, ".")
		piece = strings.ToLower(strings.TrimSpace(piece))
		if piece == "" {
			continue
		}
		seen := false
		for _, existing := range parts {
			if existing == piece {
				seen = true
				break
			}
		}
		if !seen {
			parts = append(parts, piece)
		}
	}
	return parts
}

// humanizeLanguageToken turns a raw hint token into a display label:
// compound tokens split into words, short alphabetic tokens uppercase,
// longer ones titlecase.
func humanizeLanguageToken(token string) string {
	if token == "" {
		return ""
	}
	if strings.ContainsAny(token, "-_/.") {
		var parts []string
		for _, part := range strings.FieldsFunc(token, func(c rune) bool {
			switch c {
			case '-', '_', '/', '.':
				return true
			}
			return false
		}) {
			if humanized := humanizeLanguageToken(part); humanized != "" {
				parts = append(parts, humanized)
			}
		}
		return strings.Join(parts, " ")
	}

	if len(token) <= 3 && isASCIIAlpha(token) {
		return strings.ToUpper(token)
	}
	return strings.ToUpper(token[:1]) + token[1:]
}

func isASCIIAlpha(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return s != ""
}

// splitLines splits on newlines without producing a trailing empty line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
