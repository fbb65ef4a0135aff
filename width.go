package mdv

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
	reflowansi "github.com/muesli/reflow/ansi"
)

const tabDisplayWidth = 4

// stripANSI removes SGR sequences and OSC 8 hyperlink sequences so the
// remainder can be measured or compared as plain text.
func stripANSI(s string) string {
	if !strings.ContainsRune(s, 0x1b) {
		return s
	}
	return ansi.Strip(s)
}

// displayWidth returns the terminal column count of s, ignoring embedded
// escape sequences and accounting for wide runes.
func displayWidth(s string) int {
	if !strings.ContainsRune(s, 0x1b) {
		return reflowansi.PrintableRuneWidth(s)
	}
	return reflowansi.PrintableRuneWidth(stripANSI(s))
}

func runeWidth(r rune) int {
	if r == '\t' {
		return tabDisplayWidth
	}
	return runewidth.RuneWidth(r)
}

// sgrState tracks the SGR sequences currently in effect so a wrapped line
// can reopen them on its continuation.
type sgrState struct {
	open []string
}

func (s *sgrState) observe(seq string) {
	if !isSGRSequence(seq) {
		return
	}
	if isSGRReset(seq) {
		s.open = s.open[:0]
		return
	}
	s.open = append(s.open, seq)
}

func (s *sgrState) prefix() string {
	return strings.Join(s.open, "")
}

func isSGRSequence(seq string) bool {
	return strings.HasPrefix(seq, "\x1b[") && strings.HasSuffix(seq, "m")
}

func isSGRReset(seq string) bool {
	if !isSGRSequence(seq) {
		return false
	}
	inner := seq[2 : len(seq)-1]
	for _, param := range strings.Split(inner, ";") {
		p := strings.TrimSpace(param)
		if p == "" || p == "0" {
			return true
		}
	}
	return false
}

// consumeEscape reads one escape sequence starting at s[i] (which must be
// ESC) and returns the full sequence plus the index just past it. CSI
// sequences end at the first final byte; OSC sequences end at BEL or ESC\.
func consumeEscape(s string, i int) (string, int) {
	j := i + 1
	if j >= len(s) {
		return s[i:], len(s)
	}
	switch s[j] {
	case '[':
		j++
		for j < len(s) {
			c := s[j]
			j++
			if c >= '@' && c <= '~' {
				break
			}
		}
	case ']':
		j++
		for j < len(s) {
			c := s[j]
			if c == 0x07 {
				j++
				break
			}
			if c == 0x1b && j+1 < len(s) && s[j+1] == '\\' {
				j += 2
				break
			}
			j++
		}
	default:
		j++
	}
	return s[i:j], j
}

// wrapLine splits a single line into visual lines no wider than width,
// keeping active SGR state open across breaks. Word mode only breaks at
// whitespace unless a single word alone exceeds the width, in which case
// it falls back to splitting the word.
func wrapLine(line string, width int, mode WrapMode) []string {
	if width <= 0 || mode == WrapNone {
		return []string{line}
	}
	if displayWidth(line) <= width {
		return []string{line}
	}
	switch mode {
	case WrapWord:
		return wrapLineWord(line, width)
	default:
		return wrapLineCharacter(line, width)
	}
}

func wrapLineCharacter(line string, width int) []string {
	var (
		result  []string
		current strings.Builder
		curW    int
		state   sgrState
	)
	flush := func() {
		result = append(result, strings.TrimRight(current.String(), " \t"))
		current.Reset()
		current.WriteString(state.prefix())
		curW = 0
	}
	i := 0
	for i < len(line) {
		if line[i] == 0x1b {
			seq, next := consumeEscape(line, i)
			current.WriteString(seq)
			state.observe(seq)
			i = next
			continue
		}
		r, size := decodeRune(line[i:])
		w := runeWidth(r)
		if r == ' ' || r == '\t' {
			if curW+w > width && strings.TrimSpace(stripANSI(current.String())) != "" {
				flush()
				i += size
				continue
			}
			current.WriteRune(r)
			curW += w
			i += size
			continue
		}
		if curW+w > width && strings.TrimSpace(stripANSI(current.String())) != "" {
			flush()
		}
		current.WriteRune(r)
		curW += w
		i += size
	}
	if strings.TrimSpace(stripANSI(current.String())) != "" {
		result = append(result, current.String())
	}
	if len(result) == 0 {
		result = append(result, "")
	}
	return result
}

func wrapLineWord(line string, width int) []string {
	var (
		result  []string
		current strings.Builder
		curW    int
		state   sgrState
	)
	words := splitWordsANSI(line)
	for _, wd := range words {
		clean := stripANSI(wd.text)
		w := displayWidth(clean)
		if wd.whitespace {
			observeAll(&state, wd.text)
			if curW+w <= width {
				current.WriteString(wd.text)
				curW += w
			} else if strings.TrimSpace(stripANSI(current.String())) != "" {
				result = append(result, strings.TrimRight(current.String(), " \t"))
				current.Reset()
				current.WriteString(state.prefix())
				curW = 0
			}
			continue
		}
		observeAll(&state, wd.text)
		switch {
		case curW+w <= width || strings.TrimSpace(stripANSI(current.String())) == "":
			if w > width && curW == 0 {
				// single word wider than the line: character-split it
				for _, part := range wrapLineCharacter(state.prefix()+wd.text, width) {
					result = append(result, part)
				}
				if n := len(result); n > 0 {
					last := result[n-1]
					result = result[:n-1]
					current.Reset()
					current.WriteString(last)
					curW = displayWidth(last)
				}
				continue
			}
			current.WriteString(wd.text)
			curW += w
		default:
			result = append(result, strings.TrimRight(current.String(), " \t"))
			current.Reset()
			current.WriteString(state.prefix())
			current.WriteString(wd.text)
			curW = w
		}
	}
	if strings.TrimSpace(stripANSI(current.String())) != "" {
		result = append(result, current.String())
	}
	if len(result) == 0 {
		result = append(result, "")
	}
	return result
}

type ansiWord struct {
	text       string
	whitespace bool
}

// splitWordsANSI splits a line into alternating word and whitespace runs,
// attaching escape sequences to the run they occur in.
func splitWordsANSI(line string) []ansiWord {
	var (
		result  []ansiWord
		current strings.Builder
		inWS    bool
	)
	flush := func(ws bool) {
		if current.Len() > 0 {
			result = append(result, ansiWord{text: current.String(), whitespace: ws})
			current.Reset()
		}
	}
	i := 0
	for i < len(line) {
		if line[i] == 0x1b {
			seq, next := consumeEscape(line, i)
			current.WriteString(seq)
			i = next
			continue
		}
		r, size := decodeRune(line[i:])
		ws := r == ' ' || r == '\t'
		if ws != inWS {
			flush(inWS)
			inWS = ws
		}
		current.WriteRune(r)
		i += size
	}
	flush(inWS)
	return result
}

func observeAll(state *sgrState, text string) {
	i := 0
	for i < len(text) {
		if text[i] != 0x1b {
			i++
			continue
		}
		seq, next := consumeEscape(text, i)
		state.observe(seq)
		i = next
	}
}

func decodeRune(s string) (rune, int) {
	return utf8.DecodeRuneInString(s)
}
