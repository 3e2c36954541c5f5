package model

import "strings"

// PageText is the Markdown produced by the OCR model for a single page.
type PageText struct {
	// PageIndex is 1-based.
	PageIndex int
	// Markdown is the recognized content, possibly containing LaTeX math
	// spans and caption markers such as "Figure 3".
	Markdown string
}

// Document is the ordered OCR output for a whole PDF.
type Document struct {
	Pages []PageText
}

// AddPage appends a page to the document.
func (d *Document) AddPage(p PageText) {
	d.Pages = append(d.Pages, p)
}

// Page returns the text for the given 1-based page index, or nil if the
// page produced no text.
func (d *Document) Page(index int) *PageText {
	for i := range d.Pages {
		if d.Pages[i].PageIndex == index {
			return &d.Pages[i]
		}
	}
	return nil
}

// Markdown returns the full document content with pages joined in order.
func (d *Document) Markdown() string {
	parts := make([]string, 0, len(d.Pages))
	for _, p := range d.Pages {
		if s := strings.TrimSpace(p.Markdown); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Metadata is the document-level information written into the EPUB.
type Metadata struct {
	Title    string
	Author   string
	Language string
}
