package markdown

import "strings"

// Section is a logical chunk of the document. Each top-level heading
// starts a new section; the heading line stays inside the section body.
type Section struct {
	Title    string
	Markdown string
}

// SplitSections splits the document on top-level ATX headings. Content
// before the first heading becomes a leading section carrying the
// fallback title. Headings inside fenced code blocks are ignored.
func SplitSections(source, fallbackTitle string) []Section {
	var sections []Section
	var lines []string
	title := fallbackTitle
	inFence := false

	flush := func() {
		body := strings.TrimSpace(strings.Join(lines, "\n"))
		lines = lines[:0]
		if body == "" {
			return
		}
		sections = append(sections, Section{Title: title, Markdown: body})
	}

	for _, line := range strings.Split(source, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
		}
		if !inFence && strings.HasPrefix(line, "# ") {
			flush()
			title = strings.TrimSpace(line[2:])
		}
		lines = append(lines, line)
	}
	flush()

	if len(sections) == 0 {
		sections = append(sections, Section{Title: fallbackTitle})
	}
	return sections
}
