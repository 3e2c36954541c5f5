package figures

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/tsawler/paper2epub/model"
)

// captionPatterns match the caption markers the OCR model emits for
// figures. Each pattern captures the figure number.
var captionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Figure\s+(\d+)`),
	regexp.MustCompile(`(?i)Fig\.\s*(\d+)`),
	regexp.MustCompile(`(?i)\[Figure\s+(\d+)\]`),
	regexp.MustCompile(`(?i)!\[[^\]]*?Figure\s+(\d+)[^\]]*?\]`),
}

// marker is a caption occurrence within a page's Markdown.
type marker struct {
	number  int
	pos     int
	lineEnd int
}

// findCaptionMarkers returns the caption markers in the text, one per
// distinct figure number, ordered by position. When the same number is
// referenced more than once only the earliest occurrence counts, since
// later ones are usually in-text references rather than captions.
func findCaptionMarkers(markdown string) []marker {
	earliest := make(map[int]int)
	for _, pattern := range captionPatterns {
		for _, m := range pattern.FindAllStringSubmatchIndex(markdown, -1) {
			var number int
			if _, err := fmt.Sscanf(markdown[m[2]:m[3]], "%d", &number); err != nil {
				continue
			}
			if pos, seen := earliest[number]; !seen || m[0] < pos {
				earliest[number] = m[0]
			}
		}
	}

	markers := make([]marker, 0, len(earliest))
	for number, pos := range earliest {
		lineEnd := len(markdown)
		if nl := strings.IndexByte(markdown[pos:], '\n'); nl >= 0 {
			lineEnd = pos + nl
		}
		markers = append(markers, marker{number: number, pos: pos, lineEnd: lineEnd})
	}
	sort.Slice(markers, func(i, j int) bool { return markers[i].pos < markers[j].pos })
	return markers
}

// MatchFigures assigns an anchor to every figure. Figures are numbered
// sequentially in page order; within a page the k-th extracted figure
// pairs with the k-th caption marker found in that page's text. Figures
// without a marker anchor at the end of their page, and figures on pages
// that produced no text anchor at the end of the document.
func MatchFigures(figs []model.Figure, doc *model.Document) []model.MatchedFigure {
	sorted := append([]model.Figure(nil), figs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].PageIndex != sorted[j].PageIndex {
			return sorted[i].PageIndex < sorted[j].PageIndex
		}
		return sorted[i].Index < sorted[j].Index
	})

	matches := make([]model.MatchedFigure, 0, len(sorted))
	number := 1

	for i := 0; i < len(sorted); {
		page := sorted[i].PageIndex
		j := i
		for j < len(sorted) && sorted[j].PageIndex == page {
			j++
		}

		var markers []marker
		hasText := false
		if pt := doc.Page(page); pt != nil && strings.TrimSpace(pt.Markdown) != "" {
			hasText = true
			markers = findCaptionMarkers(pt.Markdown)
		}

		for k, fig := range sorted[i:j] {
			m := model.MatchedFigure{Figure: fig, Number: number}
			number++
			switch {
			case !hasText:
				m.Anchor = model.Anchor{PageIndex: 0, Offset: -1}
			case k < len(markers):
				m.Anchor = model.Anchor{PageIndex: page, Offset: markers[k].lineEnd}
				m.Captioned = true
			default:
				m.Anchor = model.Anchor{PageIndex: page, Offset: -1}
			}
			matches = append(matches, m)
		}
		i = j
	}
	return matches
}

// reference builds the Markdown image reference inserted for a figure.
func reference(m model.MatchedFigure) string {
	return fmt.Sprintf("![Figure %d](images/%s)", m.Number, m.Filename())
}

// InsertReferences splices an image reference into the document for every
// matched figure and returns the combined Markdown. Captioned figures land
// directly after their caption line, end-of-page figures after their
// page's text, and document-end figures in a trailing Figures section.
func InsertReferences(doc *model.Document, matches []model.MatchedFigure) string {
	pages := make(map[int]string, len(doc.Pages))
	order := make([]int, 0, len(doc.Pages))
	for _, p := range doc.Pages {
		pages[p.PageIndex] = p.Markdown
		order = append(order, p.PageIndex)
	}

	byPage := make(map[int][]model.MatchedFigure)
	var trailing []model.MatchedFigure
	for _, m := range matches {
		if m.Anchor.DocumentEnd() {
			trailing = append(trailing, m)
			continue
		}
		byPage[m.Anchor.PageIndex] = append(byPage[m.Anchor.PageIndex], m)
	}

	for page, pageMatches := range byPage {
		text := pages[page]

		// Insert anchored references from the highest offset down so
		// earlier offsets stay valid, then append the end-of-page ones.
		// Equal offsets happen when two caption lines coincide; inserting
		// the higher number first keeps the rendered order ascending.
		sort.SliceStable(pageMatches, func(i, j int) bool {
			if pageMatches[i].Anchor.Offset != pageMatches[j].Anchor.Offset {
				return pageMatches[i].Anchor.Offset > pageMatches[j].Anchor.Offset
			}
			return pageMatches[i].Number > pageMatches[j].Number
		})
		var atEnd []model.MatchedFigure
		for _, m := range pageMatches {
			off := m.Anchor.Offset
			if off < 0 || off > len(text) {
				atEnd = append(atEnd, m)
				continue
			}
			text = text[:off] + "\n\n" + reference(m) + "\n" + text[off:]
		}
		for _, m := range atEnd {
			text = strings.TrimRight(text, "\n") + "\n\n" + reference(m) + "\n"
		}
		pages[page] = text
	}

	parts := make([]string, 0, len(order)+1)
	for _, page := range order {
		if s := strings.TrimSpace(pages[page]); s != "" {
			parts = append(parts, s)
		}
	}

	if len(trailing) > 0 {
		sort.SliceStable(trailing, func(i, j int) bool {
			return trailing[i].Number < trailing[j].Number
		})
		var sb strings.Builder
		sb.WriteString("## Figures")
		for _, m := range trailing {
			sb.WriteString("\n\n")
			sb.WriteString(reference(m))
		}
		parts = append(parts, sb.String())
	}

	return strings.Join(parts, "\n\n")
}
