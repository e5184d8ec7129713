package ui

import (
	"regexp"
	"strings"
	"testing"
)

var ansiEscape = regexp.MustCompile("\x1b\\[[0-9;]*m")

func stripANSI(s string) string {
	return ansiEscape.ReplaceAllString(s, "")
}

const briefing = "# Password Spray\n\nAn attacker tries **one password** against many accounts.\n\n```kql\nSigninLogs\n| where ResultType != 0\n```\n"

func TestRenderMarkdownBriefing(t *testing.T) {
	out, err := RenderMarkdown(briefing, 60)
	if err != nil {
		t.Fatalf("RenderMarkdown() error = %v", err)
	}
	plain := stripANSI(out)
	for _, want := range []string{"Spray", "SigninLogs", "ResultType"} {
		if !strings.Contains(plain, want) {
			t.Errorf("expected rendered briefing to contain %q:\n%s", want, out)
		}
	}
	if !strings.HasSuffix(out, "\n") || strings.HasSuffix(out, "\n\n") {
		t.Errorf("expected exactly one trailing newline, got %q", out)
	}
}

func TestRenderMarkdownZeroWidthUsesDefault(t *testing.T) {
	out, err := RenderMarkdown("Count unique users per address.", 0)
	if err != nil {
		t.Fatalf("RenderMarkdown() error = %v", err)
	}
	if !strings.Contains(stripANSI(out), "Count unique users per address.") {
		t.Fatalf("expected text on one line at default width, got %q", out)
	}
}

func TestKQLMarkdownStyle(t *testing.T) {
	style := kqlMarkdownStyle()

	for name, underline := range map[string]*bool{"H1": style.H1.Underline, "H2": style.H2.Underline} {
		if underline == nil || !*underline {
			t.Errorf("expected %s headings to be underlined", name)
		}
	}
	if style.Code.Color == nil || *style.Code.Color != "203" {
		t.Errorf("expected inline code color 203, got %v", style.Code.Color)
	}
	if style.CodeBlock.Theme != markdownCodeTheme {
		t.Errorf("code block theme = %q, want %q", style.CodeBlock.Theme, markdownCodeTheme)
	}
}

func TestConfigureMarkdownCodeTheme(t *testing.T) {
	orig := markdownCodeTheme
	t.Cleanup(func() { markdownCodeTheme = orig })

	tests := []struct {
		in   string
		want string
	}{
		{"dracula", "dracula"},
		{"  Solarized-Dark ", "solarized-dark"},
		{"", defaultCodeTheme},
		{"vim-classic", defaultCodeTheme},
	}
	for _, tt := range tests {
		ConfigureMarkdownCodeTheme(tt.in)
		if markdownCodeTheme != tt.want {
			t.Errorf("ConfigureMarkdownCodeTheme(%q) -> %q, want %q", tt.in, markdownCodeTheme, tt.want)
		}
		if got := kqlMarkdownStyle().CodeBlock.Theme; got != tt.want {
			t.Errorf("style theme after %q = %q, want %q", tt.in, got, tt.want)
		}
	}
}
