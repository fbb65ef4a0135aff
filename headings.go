package mdv

import (
	"strings"
)

// headingIndentFor maps a heading level to its indent under the active
// layout. Level layout staircases one column per level, the others start
// at the margin.
func (r *renderer) headingIndentFor(level int) int {
	if r.cfg.headingLayout == HeadingLevel {
		return level - 1
	}
	return 0
}

// contentIndentFor maps a heading level to the indent of content below it.
func (r *renderer) contentIndentFor(level int) int {
	switch r.cfg.headingLayout {
	case HeadingLevel:
		return level
	case HeadingFlat:
		return 1
	default:
		return 0
	}
}

func (r *renderer) startHeading(level int) {
	r.finalizePendingPlaceholder()

	if r.cfg.headingLayout == HeadingLevel && r.cfg.smartIndent {
		if planned, ok := r.smartIndents[level]; ok {
			r.headingIndent = planned
			r.contentIndent = planned + 1
		} else {
			r.headingIndent = r.headingIndentFor(level)
			r.contentIndent = r.contentIndentFor(level)
		}
	} else {
		r.headingIndent = r.headingIndentFor(level)
		r.contentIndent = r.contentIndentFor(level)
	}

	r.trimTrailingBlankLines()
	r.ensureContextualBlankLine()
	if r.hasTrailingBlankLine() {
		r.normalizeTrailingBlankLine()
	}

	r.inHeading = true
	r.headingBuf.Reset()
}

func (r *renderer) endHeading(level int) {
	r.inHeading = false
	text := strings.TrimSpace(r.headingBuf.String())
	r.headingBuf.Reset()

	style := r.st.Heading[clampHeadingLevel(level)-1]
	indent := strings.Repeat(" ", r.headingIndent)

	if strings.TrimSpace(stripANSI(text)) == "" {
		// Empty heading: render a marker placeholder. Without
		// show-empty-elements it stays pending and is removed again if no
		// content ever follows it.
		placeholder := strings.Repeat("#", clampHeadingLevel(level))
		start := len(r.out)
		r.push(indent)
		r.push(style.apply(placeholder, r.cfg.noColors))
		if !r.cfg.showEmpty {
			r.pending = &pendingMarker{offset: start, length: len(r.out) - start}
		} else {
			r.pending = nil
		}
		r.pushByte('\n')
		return
	}
	r.pending = nil

	wrapped := text
	if r.cfg.wrap != WrapNone {
		wrapped = strings.Join(wrapLine(text, max(r.cfg.width-r.headingIndent, 1), r.cfg.wrap), "\n")
	}

	lines := strings.Split(wrapped, "\n")
	for i, line := range lines {
		if i > 0 {
			r.pushByte('\n')
		}
		if r.cfg.headingLayout == HeadingCenter {
			lineWidth := displayWidth(line)
			pad := 0
			if r.cfg.width > lineWidth {
				pad = (r.cfg.width - lineWidth) / 2
			}
			r.push(strings.Repeat(" ", pad))
			r.push(style.apply(line, r.cfg.noColors))
		} else {
			r.push(indent)
			r.push(style.apply(line, r.cfg.noColors))
		}
	}

	r.pushByte('\n')
	if r.cfg.headingLayout == HeadingCenter {
		// Centered headings read better with a separating line.
		r.pushByte('\n')
	}
}

func clampHeadingLevel(level int) int {
	if level < 1 {
		return 1
	}
	if level > 6 {
		return 6
	}
	return level
}

// commitPendingPlaceholderIfContent keeps a pending empty-heading marker
// once visible content has been written after it.
func (r *renderer) commitPendingPlaceholderIfContent() {
	if r.pending == nil {
		return
	}
	end := r.pending.offset + r.pending.length
	if end <= len(r.out) && strings.TrimSpace(stripANSI(string(r.out[end:]))) != "" {
		r.pending = nil
	}
}

// finalizePendingPlaceholder removes a still-pending empty-heading marker
// that never got content below it.
func (r *renderer) finalizePendingPlaceholder() {
	if r.pending == nil {
		return
	}
	start := r.pending.offset
	end := min(start+r.pending.length, len(r.out))
	r.pending = nil
	if start > len(r.out) || start > end {
		return
	}
	if strings.TrimSpace(stripANSI(string(r.out[end:]))) == "" {
		r.out = append(r.out[:start], r.out[end:]...)
	}
}
