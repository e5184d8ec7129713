// Package shellquote formats copy-pasteable command lines for CLI hints.
package shellquote

import "strings"

// shellSpecial are characters a POSIX shell would interpret.
const shellSpecial = " \t\n#[]()|&;<>!$`*?~{}\"'\\"

// Quote wraps s in single quotes, escaping any internal single quotes.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// QuoteIfNeeded quotes s only when a shell would split or expand it.
func QuoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, shellSpecial) {
		return Quote(s)
	}
	return s
}

// Command joins a program and its arguments, quoting where needed.
func Command(args ...string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = QuoteIfNeeded(a)
	}
	return strings.Join(quoted, " ")
}
