package scenarios

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/realnamesareboring/KQLified/internal/slugs"
)

// Entry is one progressive hint or walkthrough step.
type Entry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	// Body is the markdown under the entry's heading, code blocks included.
	Body string `json:"body"`
	// Example is the first code block in Body, if any.
	Example string `json:"example,omitempty"`
}

const (
	sectionHints       = "hints"
	sectionWalkthrough = "walkthrough"
)

type briefing struct {
	Description string
	Hints       []Entry
	Walkthrough []Entry
}

type heading struct {
	level int
	text  string
	start int // offset of the heading line
	end   int // offset just past the heading line
}

type codeBlock struct {
	start   int
	content string
}

// parseBriefing splits a scenario body into its description and the
// entries under the "Hints" and "Walkthrough" level-2 headings. Each
// level-3 heading inside those sections starts a new entry. A leading
// level-1 title is dropped from the description.
func parseBriefing(body string) briefing {
	src := []byte(body)
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var headings []heading
	var blocks []codeBlock

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			lines := node.Lines()
			if lines.Len() == 0 {
				return ast.WalkSkipChildren, nil
			}
			headings = append(headings, heading{
				level: node.Level,
				text:  inlineText(node, src),
				start: lineStart(src, lines.At(0).Start),
				end:   lineEnd(src, lines.At(lines.Len()-1).Stop),
			})
			return ast.WalkSkipChildren, nil

		case *ast.FencedCodeBlock:
			lines := node.Lines()
			if lines.Len() == 0 {
				return ast.WalkSkipChildren, nil
			}
			var b strings.Builder
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				b.Write(seg.Value(src))
			}
			blocks = append(blocks, codeBlock{
				start:   lines.At(0).Start,
				content: strings.TrimRight(b.String(), "\n"),
			})
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	var out briefing
	descStart, descEnd := 0, len(src)
	section := ""

	for i, h := range headings {
		switch {
		case h.level == 1 && i == 0 && len(bytes.TrimSpace(src[:h.start])) == 0:
			descStart = h.end

		case h.level <= 2:
			name := strings.ToLower(h.text)
			if name != sectionHints && name != sectionWalkthrough {
				section = ""
				continue
			}
			if descEnd == len(src) {
				descEnd = h.start
			}
			section = name

		case h.level == 3 && section != "":
			end := nextBoundary(headings, i, len(src))
			entry := Entry{
				ID:      slugs.Anchor(h.text),
				Title:   h.text,
				Body:    strings.TrimSpace(string(src[h.end:end])),
				Example: firstBlock(blocks, h.end, end),
			}
			if section == sectionHints {
				out.Hints = append(out.Hints, entry)
			} else {
				out.Walkthrough = append(out.Walkthrough, entry)
			}
		}
	}

	if descStart < descEnd {
		out.Description = strings.TrimSpace(string(src[descStart:descEnd]))
	}
	return out
}

// nextBoundary is the start of the next heading at level 3 or above.
func nextBoundary(headings []heading, i, fallback int) int {
	for _, h := range headings[i+1:] {
		if h.level <= 3 {
			return h.start
		}
	}
	return fallback
}

func firstBlock(blocks []codeBlock, start, end int) string {
	for _, b := range blocks {
		if b.start >= start && b.start < end {
			return b.content
		}
	}
	return ""
}

func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				b.Write(t.Segment.Value(src))
				if t.SoftLineBreak() {
					b.WriteByte(' ')
				}
				continue
			}
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

func lineStart(src []byte, offset int) int {
	return bytes.LastIndexByte(src[:offset], '\n') + 1
}

func lineEnd(src []byte, offset int) int {
	if i := bytes.IndexByte(src[offset:], '\n'); i >= 0 {
		return offset + i + 1
	}
	return len(src)
}
