package mdv

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"
	extast "github.com/yuin/goldmark/extension/ast"
)

// tableState accumulates one table while its subtree is walked. Cell text
// arrives already styled; the grid renderer strips it again and rebuilds
// the attributes per cell so column width math stays honest.
type tableState struct {
	headers     []string
	rows        [][]string
	alignments  []extast.Alignment
	currentRow  []string
	currentCell strings.Builder
	inHeader    bool

	// plain marker -> url pairs restyled after the grid is rendered
	inlineRefs []linkRef
}

func (t *tableState) appendCellText(s string) {
	t.currentCell.WriteString(s)
}

func (r *renderer) startTable() {
	if r.cfg.linkStyle == LinkInlineTable {
		r.paraLinkN = 0
		r.paraLinks = r.paraLinks[:0]
	}
	r.table = &tableState{inHeader: true}
}

func (r *renderer) startTableCell(align extast.Alignment) {
	t := r.table
	if t == nil {
		return
	}
	t.currentCell.Reset()
	if t.inHeader {
		t.alignments = append(t.alignments, align)
	}
}

func (r *renderer) endTableCell() {
	t := r.table
	if t == nil {
		return
	}
	t.currentRow = append(t.currentRow, t.currentCell.String())
	t.currentCell.Reset()
}

func (r *renderer) endTableRow() {
	t := r.table
	if t == nil {
		return
	}
	if t.inHeader {
		t.headers = t.currentRow
	} else {
		t.rows = append(t.rows, t.currentRow)
	}
	t.currentRow = nil
}

func (r *renderer) endTable() {
	t := r.table
	r.table = nil
	if t != nil {
		r.renderTable(t)
	}
	if r.cfg.linkStyle == LinkInlineTable && len(r.paraLinks) > 0 {
		r.flushParagraphRefsOpts(true, len(r.listStack) > 0, true)
	}
}

// renderTable emits the accumulated table into the output buffer. Empty
// tables are elided unless empty elements are shown, in which case the
// grid is padded with single-space cells so the borders still draw.
func (r *renderer) renderTable(t *tableState) {
	headersEmpty := true
	for _, h := range t.headers {
		if strings.TrimSpace(stripANSI(h)) != "" {
			headersEmpty = false
			break
		}
	}
	rowsEmpty := true
	for _, row := range t.rows {
		for _, cell := range row {
			if strings.TrimSpace(stripANSI(cell)) != "" {
				rowsEmpty = false
				break
			}
		}
	}

	if !r.cfg.showEmpty {
		if len(t.headers) == 0 || (headersEmpty && rowsEmpty) {
			return
		}
	} else {
		if len(t.headers) == 0 {
			t.headers = append(t.headers, " ")
		} else if headersEmpty {
			for i, h := range t.headers {
				if strings.TrimSpace(stripANSI(h)) == "" {
					t.headers[i] = " "
				}
			}
		}
		for len(t.alignments) < len(t.headers) {
			t.alignments = append(t.alignments, extast.AlignLeft)
		}
		if rowsEmpty {
			if len(t.rows) == 0 {
				row := make([]string, max(len(t.headers), 1))
				for i := range row {
					row[i] = " "
				}
				t.rows = append(t.rows, row)
			} else {
				for i, row := range t.rows {
					for len(row) < len(t.headers) {
						row = append(row, "")
					}
					for j, cell := range row {
						if strings.TrimSpace(stripANSI(cell)) == "" {
							row[j] = " "
						}
					}
					t.rows[i] = row
				}
			}
		}
	}

	output := r.renderTableGrid(t.headers, t.rows, t.alignments)
	if len(t.inlineRefs) > 0 {
		output = r.applyInlineRefStyles(output, t.inlineRefs)
	}

	r.ensureContextualBlankLine()
	r.push(output)
	r.pushByte('\n')
	r.commitPendingPlaceholderIfContent()
}

func (r *renderer) renderTableGrid(headers []string, rows [][]string, aligns []extast.Alignment) string {
	switch r.cfg.tableWrap {
	case TableNoWrap:
		// Let wide tables overflow horizontally.
		return r.renderGridBlock(headers, rows, aligns, false)
	case TableWrap:
		if estimateTableWidth(headers, rows) <= r.cfg.width {
			return r.renderGridBlock(headers, rows, aligns, true)
		}
		return r.renderWrappedTable(headers, rows, aligns)
	default: // TableFit
		return r.renderGridBlock(headers, rows, aligns, true)
	}
}

type tableBlock struct {
	headers []string
	rows    [][]string
	aligns  []extast.Alignment
}

// splitTableBlocks splits a too-wide table into vertical column groups
// that each fit the configured width. Every block keeps at least one
// column even when that column alone overflows.
func (r *renderer) splitTableBlocks(headers []string, rows [][]string, aligns []extast.Alignment) []tableBlock {
	widths := tableColumnWidths(headers, rows)
	for i, w := range widths {
		widths[i] = max(w, 3)
	}

	const borderOverhead = 4
	var blocks []tableBlock
	start := 0

	for start < len(headers) {
		width := borderOverhead + widths[start] + 3
		end := start + 1
		for i := start + 1; i < len(headers); i++ {
			add := widths[i] + 3
			if width+add > r.cfg.width {
				break
			}
			width += add
			end = i + 1
		}

		blockHeaders := headers[start:end]
		blockRows := make([][]string, 0, len(rows))
		for _, row := range rows {
			if len(row) > start {
				blockRows = append(blockRows, row[start:min(end, len(row))])
			} else {
				blockRows = append(blockRows, make([]string, len(blockHeaders)))
			}
		}
		var blockAligns []extast.Alignment
		if len(aligns) > start {
			blockAligns = aligns[start:min(end, len(aligns))]
		} else {
			blockAligns = make([]extast.Alignment, len(blockHeaders))
			for i := range blockAligns {
				blockAligns[i] = extast.AlignLeft
			}
		}

		blocks = append(blocks, tableBlock{headers: blockHeaders, rows: blockRows, aligns: blockAligns})
		start = end
	}

	return blocks
}

// renderWrappedTable renders the column groups of a wide table as stacked
// grids, each announced by a "Block i of N" line, with a heavy separator
// between them.
func (r *renderer) renderWrappedTable(headers []string, rows [][]string, aligns []extast.Alignment) string {
	blocks := r.splitTableBlocks(headers, rows, aligns)
	var b strings.Builder

	for i, blk := range blocks {
		if i > 0 {
			b.WriteByte('\n')
			sep := strings.Repeat("═", max(min(r.cfg.width, 80)-3, 0))
			b.WriteString(r.st.TableBorder.apply(sep, r.cfg.noColors))
			b.WriteByte('\n')
		}
		info := fmt.Sprintf("Block %d of %d", i+1, len(blocks))
		b.WriteString(r.st.Quote.apply(info, r.cfg.noColors))
		b.WriteByte('\n')
		b.WriteString(r.renderGridBlock(blk.headers, blk.rows, blk.aligns, true))
	}

	return b.String()
}

// gridStyles renders lipgloss output with a fixed color profile so the
// grid does not depend on what stdout happens to be connected to.
var gridStyles = lipgloss.NewRenderer(io.Discard, termenv.WithProfile(termenv.ANSI256))

func (r *renderer) renderGridBlock(headers []string, rows [][]string, aligns []extast.Alignment, limitWidth bool) string {
	cleanHeaders := make([]string, len(headers))
	for i, h := range headers {
		cleanHeaders[i] = stripANSI(h)
	}
	cleanRows := make([][]string, len(rows))
	for i, row := range rows {
		cleanRows[i] = make([]string, len(row))
		for j, cell := range row {
			cleanRows[i][j] = stripANSI(cell)
		}
	}

	borderStyle := gridStyles.NewStyle()
	if !r.cfg.noColors {
		if c, ok := sgrForegroundColor(r.st.TableBorder.Prefix); ok {
			borderStyle = borderStyle.Foreground(c)
		}
	}

	grid := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(cleanHeaders...).
		Rows(cleanRows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := gridStyles.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				if col < len(aligns) {
					s = s.Align(alignmentPosition(aligns[col]))
				} else {
					s = s.Align(lipgloss.Center)
				}
				if !r.cfg.noColors {
					s = s.Bold(true)
					if c, ok := sgrForegroundColor(r.st.TableHeader.Prefix); ok {
						s = s.Foreground(c)
					}
				}
				return s
			}
			if col < len(aligns) {
				s = s.Align(alignmentPosition(aligns[col]))
			}
			if row >= 0 && row < len(rows) && col < len(rows[row]) {
				s = r.cellAttributes(rows[row][col], s)
			}
			return s
		})

	if limitWidth && r.cfg.width > 10 && estimateTableWidth(headers, rows) > r.cfg.width {
		grid = grid.Width(r.cfg.width)
	}

	return grid.String()
}

// cellAttributes carries formatting from the styled cell text over to the
// grid cell style, since the text itself goes in stripped.
func (r *renderer) cellAttributes(raw string, s lipgloss.Style) lipgloss.Style {
	if r.cfg.noColors {
		return s
	}
	clean := stripANSI(raw)
	if strings.HasPrefix(clean, "`") && strings.HasSuffix(clean, "`") {
		if c, ok := sgrForegroundColor(r.st.CodeInline.Prefix); ok {
			s = s.Foreground(c)
		}
	}
	if len(clean) == len(raw) {
		return s
	}
	if strings.Contains(raw, "\x1b[1m") || strings.Contains(raw, "\x1b[01m") {
		s = s.Bold(true)
	}
	if strings.Contains(raw, "\x1b[3m") || strings.Contains(raw, "\x1b[03m") {
		s = s.Italic(true)
	}
	if strings.Contains(raw, "\x1b[4m") || strings.Contains(raw, "\x1b[04m") {
		s = s.Underline(true)
	}
	if c, ok := sgrForegroundColor(raw); ok {
		s = s.Foreground(c)
	}
	return s
}

// applyInlineRefStyles restyles the plain "[n]" or "(url)" markers that
// inline link modes left in table cells. Each marker is searched for past
// the previous match so repeated markers resolve in order.
func (r *renderer) applyInlineRefStyles(output string, refs []linkRef) string {
	if r.cfg.noColors {
		return output
	}
	searchStart := 0
	for _, ref := range refs {
		if ref.marker == "" {
			continue
		}
		idx := strings.Index(output[searchStart:], ref.marker)
		if idx < 0 {
			continue
		}
		idx += searchStart
		styled := r.st.LinkURL.apply(ref.marker, false)
		output = output[:idx] + styled + output[idx+len(ref.marker):]
		searchStart = idx + len(styled)
	}
	return output
}

// sgrForegroundColor extracts the first foreground color out of a string
// carrying SGR escapes and converts it to a lipgloss color.
func sgrForegroundColor(s string) (lipgloss.TerminalColor, bool) {
	rest := s
	for {
		i := strings.Index(rest, "\x1b[")
		if i < 0 {
			return nil, false
		}
		rest = rest[i+2:]
		j := strings.IndexByte(rest, 'm')
		if j < 0 {
			return nil, false
		}
		if c, ok := parseSGRForeground(rest[:j]); ok {
			return c, true
		}
		rest = rest[j+1:]
	}
}

func parseSGRForeground(seq string) (lipgloss.TerminalColor, bool) {
	parts := strings.Split(seq, ";")
	vals := make([]int, 0, len(parts))
	for _, p := range parts {
		if n, err := strconv.Atoi(p); err == nil {
			vals = append(vals, n)
		}
	}
	for i := 0; i < len(vals); i++ {
		switch code := vals[i]; {
		case code >= 30 && code <= 37:
			return lipgloss.Color(strconv.Itoa(code - 30)), true
		case code >= 90 && code <= 97:
			return lipgloss.Color(strconv.Itoa(code - 90 + 8)), true
		case code == 38 && i+1 < len(vals):
			switch vals[i+1] {
			case 5:
				if i+2 < len(vals) {
					return lipgloss.Color(strconv.Itoa(vals[i+2])), true
				}
			case 2:
				if i+4 < len(vals) {
					return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", vals[i+2], vals[i+3], vals[i+4])), true
				}
			}
		case code == 39:
			return nil, false
		}
	}
	return nil, false
}

func alignmentPosition(a extast.Alignment) lipgloss.Position {
	switch a {
	case extast.AlignRight:
		return lipgloss.Right
	case extast.AlignCenter:
		return lipgloss.Center
	default:
		return lipgloss.Left
	}
}

func tableColumnWidths(headers []string, rows [][]string) []int {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = displayWidth(stripANSI(h))
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				if w := displayWidth(stripANSI(cell)); w > widths[i] {
					widths[i] = w
				}
			}
		}
	}
	return widths
}

// estimateTableWidth approximates the rendered width: content plus three
// columns of border and padding per cell plus the closing border.
func estimateTableWidth(headers []string, rows [][]string) int {
	total := 0
	for _, w := range tableColumnWidths(headers, rows) {
		total += w
	}
	return total + len(headers)*3 + 1
}
