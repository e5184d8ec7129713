// Package slugs turns titles and headings into stable identifiers.
//
// Two strategies exist:
//   - IDs: scenario identifiers derived from titles, built on gosimple/slug
//     (transliterates, so "Café Breach" becomes "cafe-breach").
//   - Anchors: hint and walkthrough step identifiers derived from markdown
//     headings. These keep non-ASCII letters as-is.
package slugs

import (
	"strings"
	"unicode"

	goslug "github.com/gosimple/slug"
)

// ID converts a title (or a reference typed by a user) to a scenario ID.
func ID(s string) string {
	s = strings.TrimSpace(s)
	slugged := goslug.Make(s)
	if slugged == "" {
		slugged = strings.ToLower(strings.ReplaceAll(s, " ", "-"))
	}
	return slugged
}

// Anchor converts heading text to an anchor. Separators (space, dash,
// underscore, colon) collapse to a single dash; other punctuation is dropped.
func Anchor(text string) string {
	var result strings.Builder
	prevDash := false

	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			result.WriteRune(r)
			prevDash = false
		case r == ' ' || r == '-' || r == '_' || r == ':':
			if !prevDash && result.Len() > 0 {
				result.WriteRune('-')
				prevDash = true
			}
		}
	}

	return strings.TrimSuffix(result.String(), "-")
}
