// Package palette holds the raw ANSI SGR sequences behind the builtin
// themes. A palette is a set of color prefixes per semantic element;
// attribute sequences (bold, italic, ...) are composed on top by the
// theme layer.
package palette

// SGR attribute prefixes.
const (
	Reset         = "\x1b[0m"
	Bold          = "\x1b[1m"
	Italic        = "\x1b[3m"
	Underline     = "\x1b[4m"
	Strikethrough = "\x1b[9m"
)

// Palette maps semantic elements to ANSI color prefixes. Empty strings
// leave the terminal's default color in place.
type Palette struct {
	Text           string
	H1             string
	H2             string
	H3             string
	H4             string
	H5             string
	H6             string
	Emphasis       string
	Strong         string
	EmphasisStrong string
	Strikethrough  string
	CodeInline     string
	CodeBlock      string
	CodeBlockLabel string
	Quote          string
	ListMarker     string
	LinkText       string
	LinkURL        string
	TableBorder    string
	TableHeader    string
	ThematicBreak  string
}

func fg256(n string) string { return "\x1b[38;5;" + n + "m" }

// PaletteDefault is tuned for dark terminals with a 256-color palette.
var PaletteDefault = Palette{
	Text:           "",
	H1:             fg256("45"),
	H2:             fg256("39"),
	H3:             fg256("75"),
	H4:             fg256("111"),
	H5:             fg256("147"),
	H6:             fg256("183"),
	Emphasis:       "",
	Strong:         "",
	EmphasisStrong: "",
	Strikethrough:  fg256("244"),
	CodeInline:     fg256("214"),
	CodeBlock:      fg256("252"),
	CodeBlockLabel: fg256("244"),
	Quote:          fg256("108"),
	ListMarker:     fg256("75"),
	LinkText:       fg256("153"),
	LinkURL:        fg256("110"),
	TableBorder:    fg256("244"),
	TableHeader:    fg256("75"),
	ThematicBreak:  fg256("103"),
}

// PaletteTerminal sticks to the 16 base colors so it follows the
// terminal's own scheme.
var PaletteTerminal = Palette{
	H1:             "\x1b[36m",
	H2:             "\x1b[36m",
	H3:             "\x1b[96m",
	H4:             "\x1b[94m",
	H5:             "\x1b[94m",
	H6:             "\x1b[95m",
	Strikethrough:  "\x1b[90m",
	CodeInline:     "\x1b[33m",
	CodeBlockLabel: "\x1b[90m",
	Quote:          "\x1b[32m",
	ListMarker:     "\x1b[94m",
	LinkText:       "\x1b[96m",
	LinkURL:        "\x1b[34m",
	TableBorder:    "\x1b[90m",
	TableHeader:    "\x1b[96m",
	ThematicBreak:  "\x1b[90m",
}

// PaletteGruvbox follows the gruvbox dark scheme.
var PaletteGruvbox = Palette{
	H1:             fg256("214"),
	H2:             fg256("172"),
	H3:             fg256("142"),
	H4:             fg256("109"),
	H5:             fg256("175"),
	H6:             fg256("208"),
	Strikethrough:  fg256("245"),
	CodeInline:     fg256("208"),
	CodeBlock:      fg256("223"),
	CodeBlockLabel: fg256("245"),
	Quote:          fg256("142"),
	ListMarker:     fg256("109"),
	LinkText:       fg256("109"),
	LinkURL:        fg256("66"),
	TableBorder:    fg256("245"),
	TableHeader:    fg256("214"),
	ThematicBreak:  fg256("245"),
}

// PaletteDracula follows the dracula scheme.
var PaletteDracula = Palette{
	H1:             fg256("141"),
	H2:             fg256("135"),
	H3:             fg256("117"),
	H4:             fg256("84"),
	H5:             fg256("212"),
	H6:             fg256("228"),
	Strikethrough:  fg256("61"),
	CodeInline:     fg256("228"),
	CodeBlock:      fg256("253"),
	CodeBlockLabel: fg256("61"),
	Quote:          fg256("84"),
	ListMarker:     fg256("141"),
	LinkText:       fg256("117"),
	LinkURL:        fg256("61"),
	TableBorder:    fg256("61"),
	TableHeader:    fg256("141"),
	ThematicBreak:  fg256("61"),
}

// PaletteNord follows the nord scheme.
var PaletteNord = Palette{
	H1:             fg256("110"),
	H2:             fg256("109"),
	H3:             fg256("111"),
	H4:             fg256("146"),
	H5:             fg256("144"),
	H6:             fg256("152"),
	Strikethrough:  fg256("244"),
	CodeInline:     fg256("144"),
	CodeBlock:      fg256("253"),
	CodeBlockLabel: fg256("244"),
	Quote:          fg256("109"),
	ListMarker:     fg256("110"),
	LinkText:       fg256("111"),
	LinkURL:        fg256("60"),
	TableBorder:    fg256("60"),
	TableHeader:    fg256("110"),
	ThematicBreak:  fg256("60"),
}

// PaletteSolarizedDark follows solarized dark.
var PaletteSolarizedDark = Palette{
	H1:             fg256("33"),
	H2:             fg256("37"),
	H3:             fg256("64"),
	H4:             fg256("136"),
	H5:             fg256("166"),
	H6:             fg256("125"),
	Strikethrough:  fg256("240"),
	CodeInline:     fg256("37"),
	CodeBlock:      fg256("244"),
	CodeBlockLabel: fg256("240"),
	Quote:          fg256("64"),
	ListMarker:     fg256("33"),
	LinkText:       fg256("37"),
	LinkURL:        fg256("61"),
	TableBorder:    fg256("240"),
	TableHeader:    fg256("33"),
	ThematicBreak:  fg256("240"),
}
