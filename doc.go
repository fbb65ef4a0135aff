// Package mdv renders Markdown to ANSI for terminal display.
//
// The renderer lays documents out against a fixed column width: headings,
// paragraphs, lists, block quotes, tables and code blocks are all wrapped
// and indented so no visible line exceeds it. Styling comes from themes
// built on ANSI prefixes, fenced code is syntax highlighted, and links can
// be rendered clickable (OSC 8), inline, as numbered references, or hidden.
//
// Core properties:
//   - Hard width invariant; word, character or no wrapping
//   - Theme-driven styling via ANSI prefixes
//   - Contextual prefixes for nested quotes and lists
//   - Plain text passthrough with optional needle extraction
//
// Example:
//
//	reader := strings.NewReader("# Hello\n\nMarkdown in, ANSI out.\n")
//	err := mdv.Render(mdv.RenderRequest{
//		Reader: reader,
//		Writer: os.Stdout,
//		Width:  80,
//		Theme:  mdv.DefaultTheme(),
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
// The renderer can be customized using RenderOptions such as link style,
// heading layout and code block framing.
package mdv
