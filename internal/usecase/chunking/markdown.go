package chunking

import (
	"regexp"
	"strings"
)

var headingRegex = regexp.MustCompile(`^#{1,6}\s`)

// MarkdownStrategy splits markdown-like prose on structural boundaries:
// heading lines and blank-line-delimited paragraphs.
type MarkdownStrategy struct{}

// NewMarkdownStrategy creates the default structural boundary strategy.
func NewMarkdownStrategy() *MarkdownStrategy {
	return &MarkdownStrategy{}
}

// Split returns the ordered structural units of the text. Headings become
// their own unit so the merge phase can attach them to the section they open.
func (s *MarkdownStrategy) Split(text string) []string {
	var units []string
	var current []string

	flush := func() {
		if len(current) == 0 {
			return
		}
		unit := strings.TrimSpace(strings.Join(current, "\n"))
		if unit != "" {
			units = append(units, unit)
		}
		current = current[:0]
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			flush()
		case headingRegex.MatchString(trimmed):
			flush()
			units = append(units, trimmed)
		default:
			current = append(current, line)
		}
	}
	flush()

	return units
}
