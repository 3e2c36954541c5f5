package model

import "fmt"

// Figure is a raw image extracted from a PDF page.
type Figure struct {
	// PageIndex is the 1-based page the image was found on.
	PageIndex int
	// Index is the extraction order of the image within its page.
	Index int
	// Data holds the encoded image bytes.
	Data []byte
	// Width and Height are the decoded pixel dimensions.
	Width  int
	Height int
	// Format is the encoded image format ("png", "jpeg", "tiff", ...).
	Format string
}

// MinDimension returns the smaller of the figure's width and height.
func (f Figure) MinDimension() int {
	if f.Width < f.Height {
		return f.Width
	}
	return f.Height
}

// Anchor marks the position in the document where a figure is inlined.
type Anchor struct {
	// PageIndex is the 1-based page whose text receives the figure.
	// Zero means the figure is appended at the end of the document.
	PageIndex int
	// Offset is the byte offset into that page's Markdown at which the
	// figure reference is inserted. A negative offset means the end of
	// the page's text.
	Offset int
}

// DocumentEnd reports whether the anchor places the figure at the end of
// the whole document rather than within a page.
func (a Anchor) DocumentEnd() bool { return a.PageIndex == 0 }

// MatchedFigure is a figure with its assigned anchor. Each figure maps to
// at most one anchor.
type MatchedFigure struct {
	Figure
	// Number is the sequential figure number used for naming and alt text.
	Number int
	// Anchor is where the figure is inserted.
	Anchor Anchor
	// Captioned reports whether the anchor was derived from a caption
	// marker rather than a fallback position.
	Captioned bool
}

// Filename returns the resource name the figure is stored under inside the
// EPUB container.
func (m MatchedFigure) Filename() string {
	ext := m.Format
	if ext == "" {
		ext = "png"
	}
	return fmt.Sprintf("figure_%03d.%s", m.Number, ext)
}
