package scenarios

import (
	"errors"
	"strings"
)

var (
	errNoFrontmatter       = errors.New("missing YAML frontmatter block")
	errUnclosedFrontmatter = errors.New("frontmatter block is not closed")
)

// frontmatterBounds returns the index of the closing delimiter line. ok is
// false when the first line is not a delimiter; end is -1 when the block
// never closes.
func frontmatterBounds(lines []string) (end int, ok bool) {
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != frontmatterDelimiter {
		return -1, false
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == frontmatterDelimiter {
			return i, true
		}
	}
	return -1, true
}

// splitFrontmatter separates the YAML block from the markdown body.
func splitFrontmatter(raw string) (frontmatter, body string, err error) {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	end, ok := frontmatterBounds(lines)
	if !ok {
		return "", "", errNoFrontmatter
	}
	if end == -1 {
		return "", "", errUnclosedFrontmatter
	}

	frontmatter = strings.Join(lines[1:end], "\n")
	if end+1 < len(lines) {
		body = strings.TrimLeft(strings.Join(lines[end+1:], "\n"), "\n")
	}
	return frontmatter, body, nil
}
