package ui

import (
	"fmt"
	"strings"
)

// Status symbols prefixed to one-line messages.
const (
	SymbolSuccess = "✓"
	SymbolError   = "✗"
	SymbolWarning = "⚠"
	SymbolInfo    = "ℹ"
	SymbolHint    = "💡"
	SymbolBullet  = "•"
)

func status(symbol, msg string) string {
	return symbol + " " + msg
}

// Success marks a passing verdict or completed action.
func Success(msg string) string { return status(SymbolSuccess, msg) }

func Successf(format string, args ...any) string {
	return Success(fmt.Sprintf(format, args...))
}

// Error marks a failing verdict or a fatal problem.
func Error(msg string) string { return status(SymbolError, msg) }

// Warning marks engine diagnostics and catalog warnings.
func Warning(msg string) string { return status(SymbolWarning, msg) }

func Warningf(format string, args ...any) string {
	return Warning(fmt.Sprintf(format, args...))
}

func Info(msg string) string { return status(SymbolInfo, msg) }

func Infof(format string, args ...any) string {
	return Info(fmt.Sprintf(format, args...))
}

// Tip marks a scenario hint.
func Tip(msg string) string { return status(SymbolHint, msg) }

// Bullet indents one item of a guidance list.
func Bullet(msg string) string { return "  " + status(SymbolBullet, msg) }

// Header styles a section or scenario title.
func Header(msg string) string {
	return AccentBold.Render(msg)
}

// ID styles a scenario or platform identifier.
func ID(id string) string {
	return Accent.Render(id)
}

// Hint styles secondary text.
func Hint(msg string) string {
	return Muted.Render(msg)
}

// Count renders "(n noun)" choosing the singular or plural form.
func Count(n int, singular, plural string) string {
	noun := plural
	if n == 1 {
		noun = singular
	}
	return fmt.Sprintf("(%d %s)", n, noun)
}

// ErrorWarningCounts renders a validation tally such as "(2 errors, 1 warning)".
// Zero counts are omitted unless both are zero.
func ErrorWarningCounts(errors, warnings int) string {
	var parts []string
	if errors > 0 {
		parts = append(parts, fmt.Sprintf("%d %s", errors, pluralize("error", errors)))
	}
	if warnings > 0 || errors == 0 {
		parts = append(parts, fmt.Sprintf("%d %s", warnings, pluralize("warning", warnings)))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func pluralize(singular string, count int) string {
	if count == 1 {
		return singular
	}
	return singular + "s"
}
