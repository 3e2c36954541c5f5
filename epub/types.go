// Package epub builds EPUB3 containers and reads them back.
package epub

import "time"

// Book is the in-memory form of an EPUB before serialization.
type Book struct {
	Metadata Metadata
	Sections []Section
	Images   []ImageResource
	// CSS overrides the built-in stylesheet when non-empty.
	CSS string
}

// Metadata contains the Dublin Core fields written into the package
// document.
type Metadata struct {
	Title      string
	Author     string
	Language   string
	Identifier string
	Modified   time.Time
}

// Section is one content document in reading order.
type Section struct {
	// Title labels the section in the navigation documents.
	Title string
	// XHTML is the rendered body fragment.
	XHTML []byte
	// HasMath marks the section's manifest item with the "mathml"
	// property so reading systems enable MathML support.
	HasMath bool
	// Subheadings are nested navigation targets within the section.
	Subheadings []Subheading
}

// Subheading is a nested navigation target inside a section.
type Subheading struct {
	Title string
	// ID is the target element's id attribute.
	ID string
}

// ImageResource is an image stored in the container, referenced from
// section content as "images/<Filename>".
type ImageResource struct {
	Filename string
	Data     []byte
}

// Package represents a parsed OPF package document.
type Package struct {
	Metadata Metadata
	Manifest map[string]ManifestItem // keyed by ID
	Spine    []SpineItem
	Version  string
}

// ManifestItem represents a file declared in the package manifest.
type ManifestItem struct {
	ID         string
	Href       string
	MediaType  string
	Properties []string
}

// SpineItem represents a content document in reading order.
type SpineItem struct {
	IDRef  string
	Linear bool
}

// Chapter is the extracted content of one spine item.
type Chapter struct {
	ID      string
	Title   string
	Index   int
	Href    string
	Content []byte
}

// TableOfContents is the parsed navigation structure.
type TableOfContents struct {
	Title   string
	Entries []TOCEntry
}

// TOCEntry is a single navigation entry.
type TOCEntry struct {
	Title    string
	Href     string
	Children []TOCEntry
}
