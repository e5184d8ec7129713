package query

import (
	"strings"
)

// lineComment starts a comment that runs to the end of the line.
const lineComment = "//"

// Normalize trims each line, drops blank lines and lines that start with a
// comment, and joins the rest with single spaces. Case is preserved.
func Normalize(raw string) string {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, lineComment) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, " ")
}

// NormalizeLower is Normalize followed by lower-casing. Keyword checks run
// against this form.
func NormalizeLower(raw string) string {
	return strings.ToLower(Normalize(raw))
}

// Collapse lower-cases raw and collapses every whitespace run to a single
// space. Comments are kept.
func Collapse(raw string) string {
	return strings.ToLower(strings.Join(strings.Fields(raw), " "))
}

// HasKeyword reports whether normalized text contains word as a whole
// identifier (so "take" does not match "mistake").
func HasKeyword(text, word string) bool {
	text = strings.ToLower(text)
	word = strings.ToLower(word)
	for offset := 0; ; {
		idx := strings.Index(text[offset:], word)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(word)
		if (start == 0 || !isIdentChar(text[start-1])) && (end == len(text) || !isIdentChar(text[end])) {
			return true
		}
		offset = start + 1
	}
}
