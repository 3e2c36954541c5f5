package epub

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Writer-related errors.
var (
	ErrNoSections = errors.New("epub: book has no sections")
)

const (
	mimetypeContent = "application/epub+zip"
	containerPath   = "META-INF/container.xml"
	opfPath         = "OEBPS/content.opf"
	navPath         = "OEBPS/nav.xhtml"
	ncxPath         = "OEBPS/toc.ncx"
	stylesheetPath  = "OEBPS/style/stylesheet.css"
)

// DefaultCSS is the stylesheet embedded when Book.CSS is empty.
const DefaultCSS = `body {
    font-family: Georgia, serif;
    line-height: 1.6;
    margin: 2em;
}
h1, h2, h3, h4, h5, h6 {
    font-family: Arial, sans-serif;
    margin-top: 1.5em;
    margin-bottom: 0.5em;
}
table {
    border-collapse: collapse;
    width: 100%;
    margin: 1em 0;
}
th, td {
    border: 1px solid #ddd;
    padding: 8px;
    text-align: left;
}
th {
    background-color: #f2f2f2;
}
code {
    background-color: #f4f4f4;
    padding: 2px 5px;
    border-radius: 3px;
}
pre {
    background-color: #f4f4f4;
    padding: 1em;
    border-radius: 5px;
    overflow-x: auto;
}
img {
    max-width: 100%;
    height: auto;
}
`

// Write serializes the book to an EPUB file at path. A failed write
// removes the partial file.
func Write(path string, book *Book) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := WriteTo(f, book); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// WriteTo serializes the book as an EPUB container. The mimetype entry is
// written first and uncompressed, as the EPUB OCF format requires.
func WriteTo(w io.Writer, book *Book) error {
	if len(book.Sections) == 0 {
		return ErrNoSections
	}

	zw := zip.NewWriter(w)

	mw, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		return err
	}
	if _, err := mw.Write([]byte(mimetypeContent)); err != nil {
		return err
	}

	files := []struct {
		name string
		data []byte
	}{
		{containerPath, buildContainer()},
		{opfPath, buildOPF(book)},
		{navPath, buildNav(book)},
		{ncxPath, buildNCX(book)},
		{stylesheetPath, []byte(stylesheet(book))},
	}
	for i, section := range book.Sections {
		files = append(files, struct {
			name string
			data []byte
		}{"OEBPS/" + sectionFilename(i), sectionDocument(book, section)})
	}
	for _, img := range book.Images {
		files = append(files, struct {
			name string
			data []byte
		}{"OEBPS/images/" + img.Filename, img.Data})
	}

	for _, f := range files {
		fw, err := zw.Create(f.name)
		if err != nil {
			return err
		}
		if _, err := fw.Write(f.data); err != nil {
			return err
		}
	}

	return zw.Close()
}

// sectionFilename returns the archive name of the i-th section, relative
// to the OEBPS directory. Sections sit next to the images directory so
// that "images/..." references in the content resolve.
func sectionFilename(i int) string {
	return fmt.Sprintf("section_%03d.xhtml", i+1)
}

// stylesheet returns the CSS for the book.
func stylesheet(book *Book) string {
	if book.CSS != "" {
		return book.CSS
	}
	return DefaultCSS
}

// identifier returns the book's unique identifier, deriving one from the
// title when none is set.
func identifier(book *Book) string {
	if book.Metadata.Identifier != "" {
		return book.Metadata.Identifier
	}
	return "paper2epub:" + book.Metadata.Title
}

// language returns the book's language, defaulting to English.
func language(book *Book) string {
	if book.Metadata.Language != "" {
		return book.Metadata.Language
	}
	return "en"
}

// containerDoc mirrors META-INF/container.xml for serialization.
type containerDoc struct {
	XMLName   xml.Name           `xml:"container"`
	Version   string             `xml:"version,attr"`
	Xmlns     string             `xml:"xmlns,attr"`
	Rootfiles []containerRootfile `xml:"rootfiles>rootfile"`
}

type containerRootfile struct {
	FullPath  string `xml:"full-path,attr"`
	MediaType string `xml:"media-type,attr"`
}

func buildContainer() []byte {
	doc := containerDoc{
		Version: "1.0",
		Xmlns:   "urn:oasis:names:tc:opendocument:xmlns:container",
		Rootfiles: []containerRootfile{
			{FullPath: opfPath, MediaType: "application/oebps-package+xml"},
		},
	}
	return marshalXML(doc)
}

// OPF serialization structs. Element names carry the dc: prefix verbatim;
// encoding/xml writes them as-is.
type opfDoc struct {
	XMLName  xml.Name       `xml:"package"`
	Xmlns    string         `xml:"xmlns,attr"`
	Version  string         `xml:"version,attr"`
	UniqueID string         `xml:"unique-identifier,attr"`
	Metadata opfDocMetadata `xml:"metadata"`
	Manifest []opfDocItem   `xml:"manifest>item"`
	Spine    opfDocSpine    `xml:"spine"`
}

type opfDocMetadata struct {
	XmlnsDC    string          `xml:"xmlns:dc,attr"`
	Identifier opfDocID        `xml:"dc:identifier"`
	Title      string          `xml:"dc:title"`
	Language   string          `xml:"dc:language"`
	Creator    string          `xml:"dc:creator,omitempty"`
	Meta       []opfDocMeta    `xml:"meta"`
}

type opfDocID struct {
	ID    string `xml:"id,attr"`
	Value string `xml:",chardata"`
}

type opfDocMeta struct {
	Property string `xml:"property,attr"`
	Value    string `xml:",chardata"`
}

type opfDocItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr,omitempty"`
}

type opfDocSpine struct {
	Toc      string          `xml:"toc,attr"`
	ItemRefs []opfDocItemRef `xml:"itemref"`
}

type opfDocItemRef struct {
	IDRef string `xml:"idref,attr"`
}

func buildOPF(book *Book) []byte {
	modified := book.Metadata.Modified
	if modified.IsZero() {
		modified = time.Now()
	}

	doc := opfDoc{
		Xmlns:    "http://www.idpf.org/2007/opf",
		Version:  "3.0",
		UniqueID: "book-id",
		Metadata: opfDocMetadata{
			XmlnsDC:    "http://purl.org/dc/elements/1.1/",
			Identifier: opfDocID{ID: "book-id", Value: identifier(book)},
			Title:      book.Metadata.Title,
			Language:   language(book),
			Creator:    book.Metadata.Author,
			Meta: []opfDocMeta{
				{Property: "dcterms:modified", Value: modified.UTC().Format("2006-01-02T15:04:05Z")},
			},
		},
		Spine: opfDocSpine{Toc: "ncx"},
	}

	doc.Manifest = append(doc.Manifest,
		opfDocItem{ID: "nav", Href: "nav.xhtml", MediaType: "application/xhtml+xml", Properties: "nav"},
		opfDocItem{ID: "ncx", Href: "toc.ncx", MediaType: "application/x-dtbncx+xml"},
		opfDocItem{ID: "css", Href: "style/stylesheet.css", MediaType: "text/css"},
	)

	for i, section := range book.Sections {
		item := opfDocItem{
			ID:        fmt.Sprintf("section-%03d", i+1),
			Href:      sectionFilename(i),
			MediaType: "application/xhtml+xml",
		}
		if section.HasMath {
			item.Properties = "mathml"
		}
		doc.Manifest = append(doc.Manifest, item)
		doc.Spine.ItemRefs = append(doc.Spine.ItemRefs, opfDocItemRef{IDRef: item.ID})
	}

	for i, img := range book.Images {
		doc.Manifest = append(doc.Manifest, opfDocItem{
			ID:        fmt.Sprintf("img-%03d", i+1),
			Href:      "images/" + img.Filename,
			MediaType: imageMediaType(img.Filename),
		})
	}

	return marshalXML(doc)
}

// imageMediaType maps an image filename to its EPUB media type.
func imageMediaType(filename string) string {
	switch strings.ToLower(strings.TrimPrefix(ext(filename), ".")) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "svg":
		return "image/svg+xml"
	case "webp":
		return "image/webp"
	case "tif", "tiff":
		return "image/tiff"
	default:
		return "image/png"
	}
}

func ext(filename string) string {
	if i := strings.LastIndexByte(filename, '.'); i >= 0 {
		return filename[i:]
	}
	return ""
}

// buildNav produces the EPUB3 navigation document. Each section is one
// entry; its subheadings nest beneath it.
func buildNav(book *Book) []byte {
	var sb strings.Builder
	sb.WriteString(xml.Header)
	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString(`<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">` + "\n")
	sb.WriteString("<head><title>" + xmlEscape(book.Metadata.Title) + "</title></head>\n<body>\n")
	sb.WriteString(`<nav epub:type="toc" id="toc">` + "\n")
	sb.WriteString("<h1>" + xmlEscape(book.Metadata.Title) + "</h1>\n<ol>\n")

	for i, section := range book.Sections {
		href := sectionFilename(i)
		sb.WriteString("<li><a href=\"" + href + "\">" + xmlEscape(sectionTitle(section, i)) + "</a>")
		if len(section.Subheadings) > 0 {
			sb.WriteString("\n<ol>\n")
			for _, sub := range section.Subheadings {
				target := href
				if sub.ID != "" {
					target += "#" + sub.ID
				}
				sb.WriteString("<li><a href=\"" + target + "\">" + xmlEscape(sub.Title) + "</a></li>\n")
			}
			sb.WriteString("</ol>\n")
		}
		sb.WriteString("</li>\n")
	}

	sb.WriteString("</ol>\n</nav>\n</body>\n</html>\n")
	return []byte(sb.String())
}

// sectionTitle returns a non-empty navigation label for a section.
func sectionTitle(section Section, i int) string {
	if section.Title != "" {
		return section.Title
	}
	return fmt.Sprintf("Section %d", i+1)
}

// NCX serialization structs for EPUB2 reading systems.
type ncxDoc struct {
	XMLName xml.Name      `xml:"ncx"`
	Xmlns   string        `xml:"xmlns,attr"`
	Version string        `xml:"version,attr"`
	Head    []ncxDocMeta  `xml:"head>meta"`
	Title   string        `xml:"docTitle>text"`
	NavMap  []ncxDocPoint `xml:"navMap>navPoint"`
}

type ncxDocMeta struct {
	Name    string `xml:"name,attr"`
	Content string `xml:"content,attr"`
}

type ncxDocPoint struct {
	ID        string        `xml:"id,attr"`
	PlayOrder int           `xml:"playOrder,attr"`
	Label     string        `xml:"navLabel>text"`
	Content   ncxDocContent `xml:"content"`
}

type ncxDocContent struct {
	Src string `xml:"src,attr"`
}

func buildNCX(book *Book) []byte {
	doc := ncxDoc{
		Xmlns:   "http://www.daisy.org/z3986/2005/ncx/",
		Version: "2005-1",
		Head: []ncxDocMeta{
			{Name: "dtb:uid", Content: identifier(book)},
			{Name: "dtb:depth", Content: "1"},
		},
		Title: book.Metadata.Title,
	}

	for i, section := range book.Sections {
		doc.NavMap = append(doc.NavMap, ncxDocPoint{
			ID:        fmt.Sprintf("navpoint-%d", i+1),
			PlayOrder: i + 1,
			Label:     sectionTitle(section, i),
			Content:   ncxDocContent{Src: sectionFilename(i)},
		})
	}

	return marshalXML(doc)
}

// sectionDocument wraps a rendered body fragment into a complete XHTML
// content document.
func sectionDocument(book *Book, section Section) []byte {
	var sb strings.Builder
	sb.WriteString(xml.Header)
	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString(`<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops" xml:lang="` +
		xmlEscape(language(book)) + `">` + "\n")
	sb.WriteString("<head>\n<title>" + xmlEscape(section.Title) + "</title>\n")
	sb.WriteString(`<link rel="stylesheet" type="text/css" href="style/stylesheet.css"/>` + "\n")
	sb.WriteString("</head>\n<body>\n")
	sb.Write(section.XHTML)
	sb.WriteString("\n</body>\n</html>\n")
	return []byte(sb.String())
}

// marshalXML serializes a document with the XML declaration prepended.
func marshalXML(doc any) []byte {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	// Encoding our own writer structs cannot fail.
	enc.Encode(doc)
	buf.WriteByte('\n')
	return buf.Bytes()
}

// xmlEscape escapes a string for use in XML text and attribute values.
func xmlEscape(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
