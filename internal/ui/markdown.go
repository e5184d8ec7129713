package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
)

// MarkdownRenderMargin is the left margin used for terminal markdown rendering.
const MarkdownRenderMargin = 2

const defaultCodeTheme = "monokai"

// knownCodeThemes are Chroma styles bundled with glamour that read well on
// dark and light terminals.
var knownCodeThemes = map[string]bool{
	"monokai":          true,
	"dracula":          true,
	"github":           true,
	"nord":             true,
	"solarized-dark":   true,
	"solarized-light":  true,
	"catppuccin-mocha": true,
	"gruvbox":          true,
}

var markdownCodeTheme = defaultCodeTheme

// ConfigureMarkdownCodeTheme selects the syntax theme for code blocks.
// Unknown names fall back to the default.
func ConfigureMarkdownCodeTheme(theme string) {
	theme = strings.ToLower(strings.TrimSpace(theme))
	if !knownCodeThemes[theme] {
		theme = defaultCodeTheme
	}
	markdownCodeTheme = theme
}

// RenderMarkdown renders scenario briefings and hints for terminal display.
func RenderMarkdown(content string, width int) (string, error) {
	if width <= 0 {
		width = DefaultTermWidth
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(kqlMarkdownStyle()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}

	rendered, err := r.Render(content)
	if err != nil {
		return "", err
	}

	return strings.TrimRight(rendered, "\n") + "\n", nil
}

// kqlMarkdownStyle starts from glamour's dark style and swaps in the accent
// color, underlined H1/H2 headings and the configured code theme.
func kqlMarkdownStyle() ansi.StyleConfig {
	cfg := styles.DarkStyleConfig

	if color, ok := AccentColor(); ok {
		cfg.Heading.Color = mdStringPtr(color)
	}
	cfg.H1 = ansi.StyleBlock{StylePrimitive: ansi.StylePrimitive{Prefix: "# ", Underline: mdBoolPtr(true)}}
	cfg.H2 = ansi.StyleBlock{StylePrimitive: ansi.StylePrimitive{Prefix: "## ", Underline: mdBoolPtr(true)}}

	// Inline code stays readable without a background block.
	cfg.Code = ansi.StyleBlock{StylePrimitive: ansi.StylePrimitive{
		Prefix: "`",
		Suffix: "`",
		Color:  mdStringPtr("203"),
	}}

	cfg.CodeBlock.Chroma = nil
	cfg.CodeBlock.Theme = markdownCodeTheme
	cfg.CodeBlock.Margin = mdUintPtr(MarkdownRenderMargin)
	cfg.Document.Margin = mdUintPtr(MarkdownRenderMargin)
	cfg.Item.BlockPrefix = "• "
	return cfg
}

func mdBoolPtr(v bool) *bool { return &v }

func mdStringPtr(v string) *string { return &v }

func mdUintPtr(v uint) *uint { return &v }
