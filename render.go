package mdv

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// RenderRequest bundles the inputs for a render call.
type RenderRequest struct {
	Reader  io.Reader
	Writer  io.Writer
	Width   int
	Theme   Theme
	Options []RenderOption
}

var (
	parserOnce sync.Once
	parserInst goldmark.Markdown
)

func markdownParser() goldmark.Markdown {
	parserOnce.Do(func() {
		parserInst = goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Footnote),
		)
	})
	return parserInst
}

// Render reads Markdown from req.Reader and writes ANSI output to
// req.Writer. The input is validated, front matter is stripped, and the
// result always ends in exactly one newline.
func Render(req RenderRequest) error {
	if req.Reader == nil {
		return fmt.Errorf("render: nil reader")
	}
	if req.Writer == nil {
		return fmt.Errorf("render: nil writer")
	}
	src, err := io.ReadAll(req.Reader)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	opts := req.Options
	if req.Width > 0 {
		opts = append([]RenderOption{WithWidth(req.Width)}, opts...)
	}
	cfg := defaultRenderConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	theme := req.Theme
	if theme == nil {
		theme = DefaultTheme()
	}

	out, err := renderBytes(src, theme, &cfg)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(req.Writer, out); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// RenderString renders a Markdown string with the default theme and the
// given options.
func RenderString(markdown string, opts ...RenderOption) (string, error) {
	cfg := defaultRenderConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return renderBytes([]byte(markdown), DefaultTheme(), &cfg)
}

func renderBytes(src []byte, theme Theme, cfg *renderConfig) (string, error) {
	src = stripFrontMatter(src)
	if err := ValidateInput(src); err != nil {
		return "", err
	}
	// Without hyperlink support a clickable link would render as bare
	// text, so show the URL inline instead.
	if !cfg.osc8 && cfg.linkStyle == LinkClickable {
		cfg.linkStyle = LinkInline
	}
	source := []byte(preprocess(string(src), cfg))

	doc := markdownParser().Parser().Parse(text.NewReader(source))

	r := newRenderer(source, theme, cfg)
	if cfg.smartIndent && cfg.headingLayout == HeadingLevel {
		r.smartIndents = computeSmartIndents(doc)
	}
	if err := r.walk(doc); err != nil {
		return "", err
	}
	body, _ := r.finish()
	return body, nil
}

// renderNested runs a child render pass for the body of a plaintext code
// block. The child owns its own state; inline-table link references it
// produces are returned separately so the caller can append them after the
// code frame.
func renderNested(content string, width int, theme Theme, parent *renderConfig) (string, []string, error) {
	cfg := *parent
	cfg.width = width
	cfg.fromText = ""
	cfg.plaintextDepth = parent.plaintextDepth + 1
	cfg.captureRefs = true

	source := []byte(preprocess(content, &cfg))
	doc := markdownParser().Parser().Parse(text.NewReader(source))

	r := newRenderer(source, theme, &cfg)
	if cfg.smartIndent && cfg.headingLayout == HeadingLevel {
		r.smartIndents = computeSmartIndents(doc)
	}
	if err := r.walk(doc); err != nil {
		return "", nil, err
	}
	body, refs := r.finish()
	return body, refs, nil
}

type formatElement int

const (
	fmtEmphasis formatElement = iota
	fmtStrong
	fmtStrike
)

type listState struct {
	ordered   bool
	counter   int
	itemStart int
	markerEnd int
}

type pendingMarker struct {
	offset int
	length int
}

type renderer struct {
	cfg    *renderConfig
	theme  Theme
	st     Styles
	source []byte

	out []byte

	formatting []formatElement

	listStack []listState

	quoteLevel  int
	quoteStarts []int

	table *tableState

	inLink   bool
	linkDest string
	linkText strings.Builder

	// inline-table reference bookkeeping
	paraLinks []linkRef
	paraLinkN int
	captured  []string

	inCode      bool
	codeHint    string
	codeContent strings.Builder

	inHeading     bool
	headingIndent int
	headingBuf    strings.Builder
	contentIndent int
	pending       *pendingMarker

	smartIndents map[int]int
}

func newRenderer(source []byte, theme Theme, cfg *renderConfig) *renderer {
	return &renderer{
		cfg:    cfg,
		theme:  theme,
		st:     theme.Styles(),
		source: source,
	}
}

// finish trims trailing blank lines, terminates the output with a single
// newline and returns it together with any captured reference blocks.
func (r *renderer) finish() (string, []string) {
	r.finalizePendingPlaceholder()
	out := strings.TrimRight(string(r.out), " \t\r\n")
	if out != "" {
		out += "\n"
	}
	return out, r.captured
}

func (r *renderer) walk(doc ast.Node) error {
	return ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		return r.dispatch(n, entering)
	})
}

func (r *renderer) dispatch(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Document:
		return ast.WalkContinue, nil

	case *ast.Heading:
		if entering {
			r.startHeading(node.Level)
		} else {
			r.endHeading(node.Level)
		}
		return ast.WalkContinue, nil

	case *ast.Paragraph:
		if entering {
			r.startParagraph()
		} else {
			r.endParagraph()
		}
		return ast.WalkContinue, nil

	case *ast.TextBlock:
		if !entering {
			r.flushParagraphRefs()
		}
		return ast.WalkContinue, nil

	case *ast.Blockquote:
		if entering {
			r.startBlockquote()
		} else {
			r.endBlockquote()
		}
		return ast.WalkContinue, nil

	case *ast.List:
		if entering {
			r.startList(node.IsOrdered(), node.Start)
		} else {
			r.endList()
		}
		return ast.WalkContinue, nil

	case *ast.ListItem:
		if entering {
			r.startListItem()
		} else {
			r.endListItem()
		}
		return ast.WalkContinue, nil

	case *ast.FencedCodeBlock:
		if entering {
			hint := ""
			if lang := node.Language(r.source); lang != nil {
				hint = string(lang)
			}
			r.startCodeBlock(hint)
			r.bufferCodeLines(node)
		} else {
			if err := r.endCodeBlock(); err != nil {
				return ast.WalkStop, err
			}
		}
		return ast.WalkSkipChildren, nil

	case *ast.CodeBlock:
		if entering {
			r.startCodeBlock("")
			r.bufferCodeLines(node)
		} else {
			if err := r.endCodeBlock(); err != nil {
				return ast.WalkStop, err
			}
		}
		return ast.WalkSkipChildren, nil

	case *ast.ThematicBreak:
		if entering {
			r.emitRule()
		}
		return ast.WalkContinue, nil

	case *ast.HTMLBlock:
		if entering {
			r.emitHTML(r.blockLines(node))
		}
		return ast.WalkSkipChildren, nil

	case *ast.RawHTML:
		if entering {
			var sb strings.Builder
			for i := 0; i < node.Segments.Len(); i++ {
				seg := node.Segments.At(i)
				sb.Write(seg.Value(r.source))
			}
			r.emitHTML(sb.String())
		}
		return ast.WalkSkipChildren, nil

	case *ast.Text:
		if entering {
			r.emitText(string(node.Segment.Value(r.source)))
			if node.HardLineBreak() {
				r.emitHardBreak()
			} else if node.SoftLineBreak() {
				r.emitSoftBreak()
			}
		}
		return ast.WalkContinue, nil

	case *ast.String:
		if entering {
			r.emitText(string(node.Value))
		}
		return ast.WalkContinue, nil

	case *ast.CodeSpan:
		if entering {
			r.emitInlineCode(r.nodeText(node))
		}
		return ast.WalkSkipChildren, nil

	case *ast.Emphasis:
		elem := fmtEmphasis
		if node.Level >= 2 {
			elem = fmtStrong
		}
		if entering {
			r.formatting = append(r.formatting, elem)
		} else {
			r.popFormatting(elem)
		}
		return ast.WalkContinue, nil

	case *extast.Strikethrough:
		if entering {
			r.formatting = append(r.formatting, fmtStrike)
		} else {
			r.popFormatting(fmtStrike)
		}
		return ast.WalkContinue, nil

	case *ast.Link:
		if entering {
			r.startLink(string(node.Destination))
		} else {
			r.endLink()
		}
		return ast.WalkContinue, nil

	case *ast.AutoLink:
		if entering {
			url := string(node.URL(r.source))
			r.startLink(url)
			r.emitText(string(node.Label(r.source)))
			r.endLink()
		}
		return ast.WalkSkipChildren, nil

	case *ast.Image:
		if entering {
			r.emitImageMarker()
		}
		return ast.WalkContinue, nil

	case *extast.Table:
		if entering {
			r.startTable()
		} else {
			r.endTable()
		}
		return ast.WalkContinue, nil

	case *extast.TableHeader:
		if r.table != nil {
			if entering {
				r.table.inHeader = true
			} else {
				r.endTableRow()
				r.table.inHeader = false
			}
		}
		return ast.WalkContinue, nil

	case *extast.TableRow:
		if !entering {
			r.endTableRow()
		}
		return ast.WalkContinue, nil

	case *extast.TableCell:
		if entering {
			r.startTableCell(node.Alignment)
		} else {
			r.endTableCell()
		}
		return ast.WalkContinue, nil

	case *extast.TaskCheckBox:
		if entering {
			r.emitTaskMarker(node.IsChecked)
		}
		return ast.WalkContinue, nil

	case *extast.FootnoteLink:
		if entering {
			r.emitFootnoteRef(strconv.Itoa(node.Index))
		}
		return ast.WalkSkipChildren, nil

	case *extast.FootnoteList, *extast.Footnote, *extast.FootnoteBacklink:
		return ast.WalkContinue, nil

	default:
		return ast.WalkContinue, nil
	}
}

func (r *renderer) popFormatting(elem formatElement) {
	for i := len(r.formatting) - 1; i >= 0; i-- {
		if r.formatting[i] == elem {
			r.formatting = append(r.formatting[:i], r.formatting[i+1:]...)
			return
		}
	}
}

// nodeText collects the raw text of a node's children segments.
func (r *renderer) nodeText(n ast.Node) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			sb.Write(t.Segment.Value(r.source))
		}
	}
	return sb.String()
}

func (r *renderer) blockLines(n ast.Node) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(r.source))
	}
	return sb.String()
}

func (r *renderer) bufferCodeLines(n ast.Node) {
	r.codeContent.WriteString(r.blockLines(n))
}

// computeSmartIndents maps each heading level present in the document to a
// compressed indent: the lowest present level gets 0 and each further
// present level one more, regardless of skipped levels in between.
func computeSmartIndents(doc ast.Node) map[int]int {
	present := [7]bool{}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if h, ok := n.(*ast.Heading); ok && entering {
			if h.Level >= 1 && h.Level <= 6 {
				present[h.Level] = true
			}
		}
		return ast.WalkContinue, nil
	})

	indents := make(map[int]int)
	next := 0
	for level := 1; level <= 6; level++ {
		if present[level] {
			indents[level] = next
			next++
		}
	}
	return indents
}
