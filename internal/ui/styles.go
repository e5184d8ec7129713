package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
// - Default (white/black): primary text
// - Accent (configurable, soft blue by default): headers, scenario IDs
// - Muted (gray): secondary info, row numbers
// - Alert (red): suspicious values in result tables

const (
	defaultAccent           = "#7AA2F7"
	normalizedDefaultAccent = "#7aa2f7"
)

var accentColor = normalizedDefaultAccent

var (
	// Accent style for scenario IDs, headers and highlights.
	Accent = lipgloss.NewStyle().Foreground(lipgloss.Color(defaultAccent))

	// Muted style for secondary info, hints, row numbers.
	Muted = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))

	// Bold style for emphasis.
	Bold = lipgloss.NewStyle().Bold(true)

	// AccentBold combines accent color with bold.
	AccentBold = lipgloss.NewStyle().Foreground(lipgloss.Color(defaultAccent)).Bold(true)

	// Alert marks values that look like attack indicators.
	Alert = lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8")).Bold(true)
)

// ConfigureTheme applies the configured accent color. Empty and "default"
// select the built-in accent; "none" and "off" turn it off. Values that do not
// parse keep the built-in accent.
func ConfigureTheme(accent string) {
	color, ok := normalizeAccentColor(accent)
	switch {
	case ok:
	case isAccentDisabled(accent):
		setAccent("")
		return
	default:
		color = normalizedDefaultAccent
	}
	setAccent(color)
}

func setAccent(color string) {
	accentColor = color
	if color == "" {
		Accent = lipgloss.NewStyle()
		AccentBold = lipgloss.NewStyle().Bold(true)
		return
	}
	Accent = lipgloss.NewStyle().Foreground(lipgloss.Color(color))
	AccentBold = Accent.Bold(true)
}

// AccentColor returns the active accent color, if any.
func AccentColor() (string, bool) {
	return accentColor, accentColor != ""
}

func isAccentDisabled(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "none", "off":
		return true
	}
	return false
}

// normalizeAccentColor accepts ANSI codes 0-255 and #rgb or #rrggbb hex.
func normalizeAccentColor(raw string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" || s == "default" || isAccentDisabled(s) {
		return "", false
	}

	if hex, found := strings.CutPrefix(s, "#"); found {
		if len(hex) == 3 {
			hex = fmt.Sprintf("%c%c%c%c%c%c", hex[0], hex[0], hex[1], hex[1], hex[2], hex[2])
		}
		if len(hex) != 6 {
			return "", false
		}
		if _, err := strconv.ParseUint(hex, 16, 32); err != nil {
			return "", false
		}
		return "#" + hex, true
	}

	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 255 {
		return "", false
	}
	return strconv.Itoa(n), true
}
