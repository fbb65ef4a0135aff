package mdv

import (
	"strconv"
	"strings"

	"pkt.systems/mdv/internal/palette"
)

type linkRef struct {
	marker string
	url    string
}

func refMarker(n int) string {
	return "[" + strconv.Itoa(n) + "]"
}

// urlBreakChars are the characters a URL may be broken after when it has
// to continue on the next line.
const urlBreakChars = "/?&=-_.:#"

func (r *renderer) underline(text string) string {
	if r.cfg.noColors {
		return text
	}
	return palette.Underline + text + palette.Reset
}

func (r *renderer) startLink(dest string) {
	// Normalize a whitespace-only line so the link starts behind the
	// proper contextual prefix.
	if r.table == nil && !r.inHeading {
		start := r.lastLineStart()
		if strings.TrimSpace(string(r.out[start:])) == "" {
			r.out = r.out[:start]
			r.pushIndentForLineStart()
		}
	}

	switch r.cfg.linkStyle {
	case LinkHide:
		// Link text flows through as plain text.
	case LinkInlineTable:
		r.paraLinkN++
		r.paraLinks = append(r.paraLinks, linkRef{marker: refMarker(r.paraLinkN), url: dest})
		r.linkText.Reset()
		r.linkDest = dest
		r.inLink = true
	default:
		r.linkText.Reset()
		r.linkDest = dest
		r.inLink = true
	}
}

func (r *renderer) endLink() {
	defer r.commitPendingPlaceholderIfContent()

	switch r.cfg.linkStyle {
	case LinkHide:
		return

	case LinkClickable, LinkClickableForced:
		text := r.linkText.String()
		formatted := r.applyFormatting(text)
		r.inLink = false
		r.linkText.Reset()

		if r.inHeading {
			r.headingBuf.WriteString(text)
			return
		}
		if r.table != nil {
			// OSC 8 sequences confuse grid alignment, underline instead.
			r.table.appendCellText(r.underline(formatted))
			return
		}

		final := formatted
		if !r.cfg.noColors {
			if r.cfg.osc8 {
				final = hyperlink(r.linkDest, formatted)
			}
			if r.cfg.linkStyle == LinkClickableForced {
				final = palette.Underline + final + palette.Reset
			}
		}
		if r.cfg.wrap != WrapNone {
			lineWidth := r.currentLineWidth()
			if lineWidth+displayWidth(text) > r.cfg.width && lineWidth > 0 &&
				strings.TrimSpace(r.currentLine()) != "" {
				r.pushNewlineWithContext()
			}
		}
		r.push(final)

	case LinkInline:
		text := r.linkText.String()
		url := r.linkDest
		r.inLink = false
		r.linkText.Reset()

		if r.inHeading {
			r.headingBuf.WriteString(text)
			return
		}
		if r.table != nil {
			urlPart := "(" + url + ")"
			r.table.inlineRefs = append(r.table.inlineRefs, linkRef{
				marker: urlPart,
				url:    url,
			})
			r.table.appendCellText(r.underline(text) + urlPart)
			return
		}

		r.emitContinuousFragments(text, r.underline)
		r.enforceWidthOnCurrentLine()
		r.emitInlineURL(url)

	case LinkInlineTable:
		text := r.linkText.String()
		r.inLink = false
		r.linkText.Reset()

		if r.inHeading {
			r.headingBuf.WriteString(text)
			return
		}
		marker := refMarker(r.paraLinkN)
		if r.table != nil {
			r.table.inlineRefs = append(r.table.inlineRefs, linkRef{
				marker: marker,
				url:    r.linkDest,
			})
			r.table.appendCellText(r.underline(text) + marker)
			return
		}

		r.emitContinuousFragments(text, r.underline)
		styledRef := r.st.LinkURL.apply(marker, r.cfg.noColors)
		if r.cfg.wrap != WrapNone && r.currentLineWidth()+displayWidth(marker) > r.cfg.width {
			r.pushNewlineWithContext()
		}
		r.push(styledRef)
	}
}

// emitInlineURL appends "(url)" after inline link text, honoring the
// configured truncation policy.
func (r *renderer) emitInlineURL(url string) {
	urlPart := "(" + url + ")"
	width := r.cfg.width

	if r.cfg.wrap == WrapNone {
		if r.cfg.linkTruncation == TruncateCut {
			available := width - r.currentLineWidth()
			r.emitCutURL(url, urlPart, available)
			return
		}
		r.pushClickable(r.st.LinkURL.apply(urlPart, r.cfg.noColors), url)
		r.enforceWidthOnCurrentLine()
		return
	}

	lineWidth := r.currentLineWidth()
	urlWidth := displayWidth(urlPart)

	switch r.cfg.linkTruncation {
	case TruncateCut:
		available := width - lineWidth
		if available >= urlWidth {
			r.pushClickable(r.st.LinkURL.apply(urlPart, r.cfg.noColors), url)
			r.enforceWidthOnCurrentLine()
		} else if available > 2 {
			display := truncateURLWithEllipsis(url, available-2)
			r.pushClickable(r.st.LinkURL.apply("("+display+")", r.cfg.noColors), url)
		} else {
			// Start the URL on a fresh line and fit it there.
			r.pushByte('\n')
			if r.contentIndent > 0 {
				r.push(strings.Repeat(" ", r.contentIndent))
			}
			if r.quoteLevel > 0 {
				r.push(r.quotePrefix())
			}
			effective := width - r.contentIndent
			if r.quoteLevel > 0 {
				effective -= r.quoteLevel + 1
			}
			display := truncateURLWithEllipsis(url, max(effective-2, 0))
			r.pushClickable(r.st.LinkURL.apply("("+display+")", r.cfg.noColors), url)
		}

	case TruncateNone:
		r.pushClickable(r.st.LinkURL.apply(urlPart, r.cfg.noColors), url)

	default: // TruncateWrap
		if lineWidth+urlWidth <= width {
			r.pushClickable(r.st.LinkURL.apply(urlPart, r.cfg.noColors), url)
			return
		}
		taken, remaining := takePrefixByWidth(urlPart, width-lineWidth)
		if taken != "" {
			r.pushClickable(r.st.LinkURL.apply(taken, r.cfg.noColors), url)
		}
		if remaining != "" {
			r.pushNewlineWithContext()
			wrapped := r.wrapURLWithIndentation(remaining)
			for i, line := range strings.Split(wrapped, "\n") {
				if i > 0 {
					r.pushByte('\n')
				}
				if strings.TrimSpace(stripANSI(line)) == "" {
					r.push(line)
					continue
				}
				clean := stripANSI(line)
				r.pushClickable(r.st.LinkURL.apply(clean, r.cfg.noColors), url)
			}
			r.enforceWidthOnCurrentLine()
		}
	}
}

func (r *renderer) emitCutURL(url, urlPart string, available int) {
	urlWidth := displayWidth(urlPart)
	switch {
	case available >= urlWidth:
		r.pushClickable(r.st.LinkURL.apply(urlPart, r.cfg.noColors), url)
		r.enforceWidthOnCurrentLine()
	case available > 2:
		display := truncateURLWithEllipsis(url, available-2)
		r.pushClickable(r.st.LinkURL.apply("("+display+")", r.cfg.noColors), url)
		r.enforceWidthOnCurrentLine()
	case available > 0:
		r.pushClickable(r.st.LinkURL.apply("…", r.cfg.noColors), url)
	}
}

// pushClickable wraps already-styled text in an OSC 8 hyperlink unless
// colors or hyperlinks are off.
func (r *renderer) pushClickable(styled, url string) {
	if r.cfg.noColors || !r.cfg.osc8 {
		r.push(styled)
		return
	}
	r.push(hyperlink(url, styled))
}

func (r *renderer) emitImageMarker() {
	marker := r.st.LinkURL.apply("[IMAGE] ", r.cfg.noColors)
	if r.table != nil {
		r.table.appendCellText(marker)
		r.commitPendingPlaceholderIfContent()
		return
	}
	if r.inHeading {
		return
	}
	start := r.lastLineStart()
	if strings.TrimSpace(string(r.out[start:])) == "" {
		r.out = r.out[:start]
		r.pushIndentForLineStart()
	}
	r.push(marker)
	r.commitPendingPlaceholderIfContent()
}

// flushParagraphRefs emits the reference block accumulated for
// inline-table links after a paragraph, list or table. Inside a nested
// plaintext render the block is captured for the caller instead.
func (r *renderer) flushParagraphRefs() {
	if r.cfg.linkStyle != LinkInlineTable || len(r.paraLinks) == 0 {
		return
	}
	r.flushParagraphRefsOpts(true, len(r.listStack) > 0, false)
}

func (r *renderer) flushParagraphRefsOpts(trailingNewline, inList, inTable bool) {
	if len(r.paraLinks) == 0 {
		return
	}

	var blocks [][]string
	for _, ref := range r.paraLinks {
		line := ref.marker + " " + ref.url
		wrapped := line
		if r.cfg.wrap != WrapNone {
			wrapped = r.wrapLinkLine(line)
		}
		var styled []string
		for _, l := range strings.Split(wrapped, "\n") {
			clickable := l
			if !r.cfg.noColors && r.cfg.osc8 {
				clickable = hyperlink(ref.url, l)
			}
			styled = append(styled, r.st.LinkURL.apply(clickable, r.cfg.noColors))
		}
		blocks = append(blocks, styled)
	}
	r.paraLinks = r.paraLinks[:0]

	if r.cfg.captureRefs {
		for _, block := range blocks {
			r.captured = append(r.captured, block...)
		}
		return
	}

	// One separating line before the reference block.
	if r.atLineStart() {
		r.pushByte('\n')
	} else {
		r.push("\n\n")
	}
	for i, block := range blocks {
		for j, line := range block {
			if r.contentIndent > 0 && !inTable {
				r.push(strings.Repeat(" ", r.contentIndent))
			}
			r.push(line)
			if j < len(block)-1 || i < len(blocks)-1 {
				r.pushByte('\n')
			}
		}
	}
	if trailingNewline {
		r.pushByte('\n')
		if inList {
			r.pushByte('\n')
		}
	}
}

// wrapLinkLine wraps a "[n] url" reference line, breaking the URL at
// structural characters with the continuation aligned under the URL.
func (r *renderer) wrapLinkLine(line string) string {
	effective := r.cfg.width - r.contentIndent
	if effective < 20 {
		return line
	}
	if displayWidth(line) <= effective {
		return line
	}

	marker, url, found := strings.Cut(line, " ")
	if !found {
		return strings.Join(wrapLine(line, r.cfg.width, r.cfg.wrap), "\n")
	}

	markerWidth := displayWidth(marker) + 1
	available := effective - markerWidth
	if displayWidth(url) <= available {
		return line
	}

	switch r.cfg.linkTruncation {
	case TruncateCut:
		return marker + " " + truncateURLWithEllipsis(url, available)
	case TruncateNone:
		return line
	}

	return marker + " " + wrapURLWithReference(url, available, effective, markerWidth)
}

// wrapURLWithReference breaks a URL across lines: the first line gets
// firstWidth columns, continuations get the full width minus the marker
// indent, preferring to break after URL punctuation.
func wrapURLWithReference(url string, firstWidth, continuationWidth, markerWidth int) string {
	if displayWidth(url) <= firstWidth {
		return url
	}

	indent := strings.Repeat(" ", markerWidth)
	var result strings.Builder
	var current strings.Builder
	currentWidth := 0
	firstLine := true

	for _, ch := range url {
		chWidth := runeWidth(ch)
		maxWidth := firstWidth
		if !firstLine {
			maxWidth = continuationWidth - markerWidth
		}

		if currentWidth+chWidth > maxWidth && current.Len() > 0 {
			line := current.String()
			if pos := findURLBreakPoint(line); pos > 0 && pos < len(line) {
				result.WriteString(line[:pos])
				result.WriteByte('\n')
				result.WriteString(indent)
				current.Reset()
				current.WriteString(line[pos:])
				current.WriteRune(ch)
			} else {
				result.WriteString(line)
				result.WriteByte('\n')
				result.WriteString(indent)
				current.Reset()
				current.WriteRune(ch)
			}
			currentWidth = displayWidth(current.String())
			firstLine = false
			continue
		}
		current.WriteRune(ch)
		currentWidth += chWidth
	}
	result.WriteString(current.String())
	return result.String()
}

// findURLBreakPoint returns the byte offset just after the last break
// character in line, or 0 when none exists.
func findURLBreakPoint(line string) int {
	if idx := strings.LastIndexAny(line, urlBreakChars); idx >= 0 {
		return idx + 1
	}
	return 0
}

// truncateURLWithEllipsis returns a display form of url that fits within
// available columns, ending in "..." when truncated.
func truncateURLWithEllipsis(url string, available int) string {
	if available <= 0 {
		return ""
	}
	if available <= 2 {
		return strings.Repeat(".", available)
	}
	if displayWidth(url) <= available {
		return url
	}
	prefix, _ := takePrefixByWidth(url, available-3)
	return prefix + "..."
}

// wrapURLWithIndentation wraps URL text to the context width and prefixes
// continuation lines with the contextual indent.
func (r *renderer) wrapURLWithIndentation(text string) string {
	wrapped := r.wrapForContext(text)
	if !strings.Contains(wrapped, "\n") {
		return wrapped
	}
	prefix := r.currentLinePrefix()
	lines := strings.Split(wrapped, "\n")
	var result strings.Builder
	for i, line := range lines {
		if i > 0 {
			result.WriteByte('\n')
			result.WriteString(prefix)
		}
		result.WriteString(line)
	}
	return result.String()
}

// enforceWidthOnCurrentLine breaks an overflowing line at its last space,
// re-indenting the continuation for the current context.
func (r *renderer) enforceWidthOnCurrentLine() {
	start := r.lastLineStart()
	line := string(r.out[start:])
	if displayWidth(line) <= r.cfg.width {
		return
	}
	spaceIdx := strings.LastIndexByte(line, ' ')
	if spaceIdx <= 0 {
		return
	}
	indent := r.currentLinePrefix()
	rebuilt := line[:spaceIdx] + "\n" + indent + line[spaceIdx+1:]
	r.out = append(r.out[:start], rebuilt...)
}
