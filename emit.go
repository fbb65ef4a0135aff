package mdv

import (
	"strconv"
	"strings"
)

// Output buffer primitives. The renderer appends to a byte buffer and
// occasionally truncates back to a recorded offset when a block turns out
// to be empty, so all bookkeeping below works on byte offsets.

func (r *renderer) push(s string) {
	r.out = append(r.out, s...)
}

func (r *renderer) pushByte(b byte) {
	r.out = append(r.out, b)
}

func (r *renderer) atLineStart() bool {
	return len(r.out) == 0 || r.out[len(r.out)-1] == '\n'
}

// lastLineStart returns the byte offset of the current (unterminated) line.
func (r *renderer) lastLineStart() int {
	for i := len(r.out) - 1; i >= 0; i-- {
		if r.out[i] == '\n' {
			return i + 1
		}
	}
	return 0
}

func (r *renderer) currentLine() string {
	return string(r.out[r.lastLineStart():])
}

func (r *renderer) currentLineWidth() int {
	return displayWidth(r.currentLine())
}

func (r *renderer) visibleSince(start int) bool {
	if start > len(r.out) {
		return false
	}
	return strings.TrimSpace(stripANSI(string(r.out[start:]))) != ""
}

// quotePrefix renders the blockquote pipes with a trailing space, styled.
func (r *renderer) quotePrefix() string {
	if r.quoteLevel == 0 {
		return ""
	}
	prefix := strings.Repeat("│", r.quoteLevel) + " "
	return r.st.Quote.apply(prefix, r.cfg.noColors)
}

// listContentIndent is the indentation that aligns continuation lines with
// the content of the innermost list item: heading content indent, two
// spaces per nesting level and the marker width.
func (r *renderer) listContentIndent() int {
	total := r.contentIndent
	total += 2 * (len(r.listStack) - 1)
	if len(r.listStack) > 0 {
		if r.listStack[len(r.listStack)-1].ordered {
			total += 3
		} else {
			total += 2
		}
	}
	return total
}

// currentLinePrefix builds the visual prefix for a fresh line in the
// current context: heading content indent, blockquote pipes and list
// content alignment.
func (r *renderer) currentLinePrefix() string {
	var sb strings.Builder
	if r.quoteLevel > 0 {
		if r.contentIndent > 0 {
			sb.WriteString(strings.Repeat(" ", r.contentIndent))
		}
		sb.WriteString(r.quotePrefix())
		if len(r.listStack) > 0 {
			if extra := r.listContentIndent() - r.contentIndent; extra > 0 {
				sb.WriteString(strings.Repeat(" ", extra))
			}
		}
	} else if len(r.listStack) > 0 {
		sb.WriteString(strings.Repeat(" ", r.listContentIndent()))
	} else if r.contentIndent > 0 {
		sb.WriteString(strings.Repeat(" ", r.contentIndent))
	}
	return sb.String()
}

func (r *renderer) pushIndentForLineStart() {
	r.push(r.currentLinePrefix())
}

func (r *renderer) pushNewlineWithContext() {
	r.pushByte('\n')
	r.pushIndentForLineStart()
}

// lineStartContextWidth is the visible width of the prefix that
// pushIndentForLineStart would emit.
func (r *renderer) lineStartContextWidth() int {
	if r.quoteLevel > 0 {
		width := r.contentIndent + r.quoteLevel + 1
		if len(r.listStack) > 0 {
			if extra := r.listContentIndent() - r.contentIndent; extra > 0 {
				width += extra
			}
		}
		return width
	}
	if len(r.listStack) > 0 {
		return r.listContentIndent()
	}
	return r.contentIndent
}

// ensureContextualBlankLine terminates the current line and inserts one
// separator line carrying the contextual prefix, unless such a line is
// already trailing.
func (r *renderer) ensureContextualBlankLine() {
	if len(r.out) == 0 {
		return
	}
	if !r.atLineStart() {
		r.pushByte('\n')
	}
	prefix := r.currentLinePrefix()
	if !r.trailingBlankLineMatches(prefix) {
		r.push(prefix)
		r.pushByte('\n')
	}
}

// lastCompleteLine returns the start offset and content of the line just
// before the trailing newline. ok is false when the output does not end in
// a newline.
func (r *renderer) lastCompleteLine() (start int, line string, ok bool) {
	if len(r.out) == 0 || r.out[len(r.out)-1] != '\n' {
		return 0, "", false
	}
	end := len(r.out) - 1
	start = 0
	for i := end - 1; i >= 0; i-- {
		if r.out[i] == '\n' {
			start = i + 1
			break
		}
	}
	return start, string(r.out[start:end]), true
}

func isBlankLineContent(line string) bool {
	for _, ch := range stripANSI(line) {
		if ch != '│' && !isSpaceRune(ch) {
			return false
		}
	}
	return true
}

func isSpaceRune(ch rune) bool {
	switch ch {
	case ' ', '\t', '\r', '\n', '\v', '\f':
		return true
	}
	return false
}

// hasTrailingBlankLine reports whether the last complete line is blank,
// where a line of whitespace and quote pipes counts as blank.
func (r *renderer) hasTrailingBlankLine() bool {
	_, line, ok := r.lastCompleteLine()
	if !ok {
		return false
	}
	return line == "" || isBlankLineContent(line)
}

func (r *renderer) trailingBlankLineMatches(prefix string) bool {
	_, line, ok := r.lastCompleteLine()
	return ok && line == prefix
}

// normalizeTrailingBlankLine strips the contextual prefix from a trailing
// blank line, leaving a truly empty line.
func (r *renderer) normalizeTrailingBlankLine() {
	start, line, ok := r.lastCompleteLine()
	if !ok || line == "" {
		return
	}
	if isBlankLineContent(line) {
		r.out = append(r.out[:start], '\n')
	}
}

func (r *renderer) trimTrailingBlankLines() {
	for len(r.out) > 0 && r.out[len(r.out)-1] == '\n' {
		start, line, _ := r.lastCompleteLine()
		if line == "" || strings.TrimSpace(stripANSI(line)) == "" {
			r.out = r.out[:start]
			continue
		}
		break
	}
}

// takePrefixByWidth splits s at the largest boundary whose visible width
// fits into max columns.
func takePrefixByWidth(s string, max int) (prefix, rest string) {
	if max <= 0 || s == "" {
		return "", s
	}
	width := 0
	for i, ch := range s {
		w := runeWidth(ch)
		if width+w > max {
			return s[:i], s[i:]
		}
		width += w
	}
	return s, ""
}

// applyFormatting styles text according to the active emphasis stack.
// When several styles overlap the color comes from the strongest one:
// strong, then emphasis, then strikethrough.
func (r *renderer) applyFormatting(text string) string {
	if len(r.formatting) == 0 {
		return text
	}
	var hasStrong, hasEmphasis, hasStrike bool
	for _, f := range r.formatting {
		switch f {
		case fmtStrong:
			hasStrong = true
		case fmtEmphasis:
			hasEmphasis = true
		case fmtStrike:
			hasStrike = true
		}
	}

	var style Style
	switch {
	case hasStrong && hasEmphasis:
		style = r.st.EmphasisStrong
	case hasStrong:
		style = r.st.Strong
	case hasEmphasis:
		style = r.st.Emphasis
	case hasStrike:
		style = r.st.Strikethrough
	default:
		style = r.st.Text
	}
	if hasStrike && !(style == r.st.Strikethrough) && !strings.Contains(style.Prefix, "\x1b[9m") {
		style = Style{Prefix: style.Prefix + "\x1b[9m"}
	}
	return style.apply(text, r.cfg.noColors)
}

// noBreakBefore reports whether a word-wrap break must not occur before
// the unit, keeping closing punctuation attached to the preceding word.
func noBreakBefore(unit string) bool {
	trimmed := strings.TrimLeft(unit, " \t")
	if trimmed == "" {
		return false
	}
	switch trimmed[0] {
	case ',', '.', ';', ':', '!', '?', ')', ']', '}':
		return true
	}
	return false
}

// splitUnits splits text into wrappable units for the configured mode:
// alternating word and whitespace runs, single characters, or the whole
// text when wrapping is off.
func (r *renderer) splitUnits(text string) []string {
	switch r.cfg.wrap {
	case WrapWord:
		var units []string
		var current strings.Builder
		inWS := false
		for _, ch := range text {
			ws := isSpaceRune(ch)
			if ws != inWS && current.Len() > 0 {
				units = append(units, current.String())
				current.Reset()
			}
			current.WriteRune(ch)
			inWS = ws
		}
		if current.Len() > 0 {
			units = append(units, current.String())
		}
		return units
	case WrapCharacter:
		units := make([]string, 0, len(text))
		for _, ch := range text {
			units = append(units, string(ch))
		}
		return units
	default:
		return []string{text}
	}
}

// emitText routes inline text to the active accumulator (code block, link
// text, table cell, heading) or to the wrapping engine.
func (r *renderer) emitText(text string) {
	if r.inCode {
		r.codeContent.WriteString(text)
		return
	}
	if r.inHeading && !r.inLink {
		r.headingBuf.WriteString(text)
		return
	}
	if r.inLink {
		if r.cfg.linkStyle == LinkHide {
			r.processText(text)
		} else {
			r.linkText.WriteString(text)
		}
		r.commitPendingPlaceholderIfContent()
		return
	}
	r.processText(text)
	r.commitPendingPlaceholderIfContent()
}

func (r *renderer) processText(text string) {
	if r.table != nil {
		r.table.appendCellText(r.applyFormatting(text))
		return
	}

	// Reinstate the contextual prefix when resuming at a line start inside
	// a blockquote.
	if r.quoteLevel > 0 && (r.atLineStart() || strings.TrimSpace(r.currentLine()) == "") {
		if strings.TrimSpace(stripANSI(r.currentLine())) == "" && r.atLineStart() {
			if r.contentIndent > 0 {
				r.push(strings.Repeat(" ", r.contentIndent))
			}
			r.push(r.quotePrefix())
		}
	}

	wrap := r.cfg.wrap != WrapNone

	if wrap && len(r.formatting) > 0 {
		if r.hasStrikeFormatting() {
			r.emitContinuousFragments(text, r.applyFormatting)
			return
		}
	}
	r.emitUnits(text, wrap)
}

func (r *renderer) hasStrikeFormatting() bool {
	for _, f := range r.formatting {
		if f == fmtStrike {
			return true
		}
	}
	return false
}

// emitUnits appends text unit by unit, breaking lines at the configured
// width and re-indenting each fresh line for the current context.
func (r *renderer) emitUnits(text string, wrap bool) {
	if !wrap {
		formatted := r.applyFormatting(text)
		if r.atLineStart() && strings.TrimSpace(formatted) != "" {
			r.pushIndentForLineStart()
		}
		r.push(formatted)
		return
	}

	width := r.cfg.width
	units := r.splitUnits(text)

	for i, unit := range units {
		if strings.TrimSpace(unit) == "" {
			// Whitespace between units must not overflow the line.
			if i > 0 || r.cfg.wrap == WrapCharacter {
				if r.currentLineWidth()+displayWidth(unit) > width {
					r.pushNewlineWithContext()
					continue
				}
			}
			r.push(unit)
			continue
		}

		lineWidth := r.currentLineWidth()
		unitWidth := displayWidth(unit)

		// Inline-table links reserve room for the trailing reference
		// number.
		extra := 0
		if r.inLink && r.cfg.linkStyle == LinkInlineTable {
			extra = displayWidth(refMarker(r.paraLinkN))
		}

		if lineWidth+unitWidth+extra > width && lineWidth > 0 &&
			strings.TrimSpace(r.currentLine()) != "" {
			breaks := true
			if r.cfg.wrap == WrapWord && noBreakBefore(unit) {
				breaks = false
			}
			if breaks {
				r.pushNewlineWithContext()
			}
		}

		formatted := r.applyFormatting(unit)
		if r.atLineStart() && strings.TrimSpace(formatted) != "" {
			r.pushIndentForLineStart()
		}
		r.push(formatted)
	}
}

// emitContinuousFragments groups units into fragments that each receive
// one styling span, so strikethrough and underline runs stay continuous
// across spaces within a line.
func (r *renderer) emitContinuousFragments(text string, format func(string) string) {
	width := r.cfg.width
	units := r.splitUnits(text)

	flush := func(fragment string) {
		if fragment == "" {
			return
		}
		body := strings.TrimRight(fragment, " \t")
		trailing := fragment[len(body):]
		r.push(format(body) + trailing)
	}

	var fragment strings.Builder
	startWidth := r.currentLineWidth()

	// With one column or less left, start fresh so the first styled rune
	// does not dangle at the edge.
	if width-startWidth <= 1 && strings.TrimSpace(text) != "" {
		r.pushNewlineWithContext()
		startWidth = r.lineStartContextWidth()
	}

	for i, unit := range units {
		isWS := strings.TrimSpace(unit) == ""
		unitWidth := displayWidth(unit)
		exceeds := startWidth+displayWidth(fragment.String())+unitWidth > width

		if isWS && i > 0 {
			if exceeds && strings.TrimSpace(fragment.String()) != "" {
				flush(fragment.String())
				fragment.Reset()
				r.pushNewlineWithContext()
				startWidth = r.lineStartContextWidth()
				continue
			}
			fragment.WriteString(unit)
			continue
		}

		if exceeds && strings.TrimSpace(fragment.String()) != "" {
			flush(fragment.String())
			fragment.Reset()
			breaks := true
			if r.cfg.wrap == WrapWord && noBreakBefore(unit) {
				breaks = false
			}
			if breaks {
				r.pushNewlineWithContext()
				startWidth = r.lineStartContextWidth()
			}
			fragment.WriteString(unit)
			continue
		}
		if exceeds {
			r.pushNewlineWithContext()
			startWidth = r.lineStartContextWidth()
		}
		fragment.WriteString(unit)
	}
	flush(fragment.String())
}

// wrapForContext wraps already-collected text to the width remaining
// after the current indentation context, used for headings and captured
// fragments.
func (r *renderer) wrapForContext(text string) string {
	if r.cfg.wrap == WrapNone {
		return text
	}
	width := r.cfg.width
	if width < 20 || len(strings.TrimSpace(text)) < 10 {
		return text
	}
	effective := width - r.contentIndent
	if r.quoteLevel > 0 {
		effective -= r.quoteLevel + 1
	}
	if effective < 10 {
		return text
	}
	return strings.Join(wrapLine(text, effective, r.cfg.wrap), "\n")
}

// Inline and leaf handlers.

func (r *renderer) emitInlineCode(code string) {
	if r.table != nil {
		r.table.appendCellText(r.st.CodeInline.apply(code, r.cfg.noColors))
		return
	}
	if r.inHeading {
		r.headingBuf.WriteString(code)
		return
	}
	if r.inLink && r.cfg.linkStyle != LinkHide {
		r.linkText.WriteString(code)
		return
	}

	styled := r.st.CodeInline.apply(code, r.cfg.noColors)
	if r.cfg.wrap != WrapNone &&
		r.currentLineWidth()+displayWidth(code) > r.cfg.width &&
		strings.TrimSpace(r.currentLine()) != "" {
		r.pushNewlineWithContext()
	}
	if r.atLineStart() {
		r.pushIndentForLineStart()
	}
	r.push(styled)
	r.commitPendingPlaceholderIfContent()
}

func (r *renderer) emitRule() {
	width := r.cfg.width
	rule := "◈" + strings.Repeat("─", max(width-2, 0)) + "◈"
	styled := r.st.ThematicBreak.apply(rule, r.cfg.noColors)

	if len(r.out) > 0 {
		if !r.atLineStart() {
			r.pushByte('\n')
		}
		if r.hasTrailingBlankLine() {
			r.normalizeTrailingBlankLine()
		} else {
			r.pushByte('\n')
		}
	}
	r.push(styled)
	r.pushByte('\n')
	r.commitPendingPlaceholderIfContent()
}

// emitHTML drops raw HTML except comments, which render as plain text
// unless comments are hidden.
func (r *renderer) emitHTML(html string) {
	trimmed := strings.TrimSpace(html)
	if !strings.HasPrefix(trimmed, "<!--") || !strings.HasSuffix(trimmed, "-->") || r.cfg.hideComments {
		return
	}

	var followupPrefix string
	line := r.currentLine()
	prefix := r.currentLinePrefix()
	if line == "" {
		if prefix != "" {
			r.pushIndentForLineStart()
			followupPrefix = prefix
		}
	} else if prefix != "" && line == prefix {
		followupPrefix = prefix
	}

	segments := strings.Split(strings.TrimRight(html, "\n"), "\n")
	for i, segment := range segments {
		if i > 0 {
			r.pushByte('\n')
			if followupPrefix != "" && (segment != "" || i < len(segments)-1) {
				r.push(followupPrefix)
			}
		}
		if segment == "" {
			continue
		}
		r.push(r.st.Text.apply(segment, r.cfg.noColors))
	}
	r.commitPendingPlaceholderIfContent()
}

func (r *renderer) emitHardBreak() {
	if r.table != nil {
		r.table.appendCellText(" ")
		return
	}
	if r.inLink || r.inHeading {
		return
	}
	r.push("\n\n")
}

func (r *renderer) emitSoftBreak() {
	if r.table != nil {
		r.table.appendCellText(" ")
		return
	}
	if r.inLink && r.cfg.linkStyle != LinkHide {
		r.linkText.WriteString(" ")
		return
	}
	if r.inHeading {
		r.headingBuf.WriteString(" ")
		return
	}
	r.pushByte('\n')
}

func (r *renderer) emitTaskMarker(checked bool) {
	marker := "[ ] "
	if checked {
		marker = "[✓] "
	}
	r.push(r.st.ListMarker.apply(marker, r.cfg.noColors))
	r.commitPendingPlaceholderIfContent()
}

func (r *renderer) emitFootnoteRef(name string) {
	ref := r.st.LinkText.apply("[^"+name+"]", r.cfg.noColors)
	if r.table != nil {
		r.table.appendCellText(ref)
		return
	}
	r.push(ref)
	r.commitPendingPlaceholderIfContent()
}

// Block structure handlers.

func (r *renderer) startParagraph() {
	if r.cfg.linkStyle == LinkInlineTable {
		r.paraLinkN = 0
		r.paraLinks = r.paraLinks[:0]
	}

	if len(r.listStack) == 0 && len(r.out) > 0 && !r.atLineStart() {
		r.pushByte('\n')
	}

	if r.contentIndent > 0 && r.table == nil && len(r.listStack) == 0 && r.quoteLevel == 0 {
		if r.atLineStart() {
			r.push(strings.Repeat(" ", r.contentIndent))
		}
	}
}

func (r *renderer) endParagraph() {
	r.flushParagraphRefs()
	if len(r.listStack) == 0 {
		r.pushByte('\n')
	}
}

func (r *renderer) startBlockquote() {
	r.quoteStarts = append(r.quoteStarts, len(r.out))
	r.quoteLevel++
	if len(r.out) > 0 && !r.atLineStart() {
		r.pushByte('\n')
	}
}

func (r *renderer) endBlockquote() {
	start := len(r.out)
	if n := len(r.quoteStarts); n > 0 {
		start = r.quoteStarts[n-1]
		r.quoteStarts = r.quoteStarts[:n-1]
	}

	if !r.visibleSince(start) {
		if r.cfg.showEmpty {
			r.out = r.out[:start]
			if len(r.out) > 0 && !r.atLineStart() {
				r.pushByte('\n')
			}
			r.pushIndentForLineStart()
			if !r.atLineStart() {
				r.pushByte('\n')
			}
		} else {
			r.out = r.out[:start]
		}
	} else if !r.atLineStart() {
		r.pushByte('\n')
	}

	if r.quoteLevel > 0 {
		r.quoteLevel--
	}
}

func (r *renderer) startList(ordered bool, start int) {
	if r.cfg.linkStyle == LinkInlineTable {
		r.paraLinkN = 0
		r.paraLinks = r.paraLinks[:0]
	}

	counter := 1
	if ordered && start > 0 {
		counter = start
	}
	r.listStack = append(r.listStack, listState{ordered: ordered, counter: counter})
	if !r.atLineStart() {
		r.pushByte('\n')
	}
}

func (r *renderer) endList() {
	if len(r.listStack) > 0 {
		r.listStack = r.listStack[:len(r.listStack)-1]
	}
	if r.cfg.linkStyle == LinkInlineTable && len(r.paraLinks) > 0 {
		r.flushParagraphRefs()
	} else if !r.atLineStart() {
		r.pushByte('\n')
	}
}

func (r *renderer) startListItem() {
	if len(r.listStack) == 0 {
		return
	}
	depth := len(r.listStack) - 1
	top := &r.listStack[depth]

	marker := "- "
	if top.ordered {
		marker = strconv.Itoa(top.counter) + ". "
	}
	styledMarker := r.st.ListMarker.apply(marker, r.cfg.noColors)
	atStart := r.atLineStart()

	startIndex := len(r.out)

	if r.quoteLevel > 0 {
		if atStart {
			if r.contentIndent > 0 {
				r.push(strings.Repeat(" ", r.contentIndent))
			}
			r.push(r.quotePrefix())
		}
	} else if r.contentIndent > 0 {
		r.push(strings.Repeat(" ", r.contentIndent))
	}

	r.push(strings.Repeat("  ", depth))
	r.push(styledMarker)

	top.itemStart = startIndex
	top.markerEnd = len(r.out)
	r.commitPendingPlaceholderIfContent()
	if top.ordered {
		top.counter++
	}
}

func (r *renderer) endListItem() {
	if len(r.listStack) == 0 {
		if !r.atLineStart() {
			r.pushByte('\n')
		}
		return
	}
	top := &r.listStack[len(r.listStack)-1]
	markerEnd := min(top.markerEnd, len(r.out))
	hasContent := r.visibleSince(markerEnd)

	if hasContent || r.cfg.showEmpty {
		if !r.atLineStart() {
			r.pushByte('\n')
		}
	} else {
		start := min(top.itemStart, len(r.out))
		r.out = r.out[:start]
		if top.ordered && top.counter > 1 {
			top.counter--
		}
	}
	top.itemStart = 0
	top.markerEnd = 0
}
