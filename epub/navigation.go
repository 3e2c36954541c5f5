package epub

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"strings"

	"golang.org/x/net/html"
)

// ncxDocument mirrors an NCX navigation document for parsing.
type ncxDocument struct {
	XMLName xml.Name  `xml:"ncx"`
	Title   string    `xml:"docTitle>text"`
	NavMap  ncxNavMap `xml:"navMap"`
}

type ncxNavMap struct {
	NavPoints []ncxNavPoint `xml:"navPoint"`
}

type ncxNavPoint struct {
	Label    string        `xml:"navLabel>text"`
	Content  ncxContent    `xml:"content"`
	Children []ncxNavPoint `xml:"navPoint"`
}

type ncxContent struct {
	Src string `xml:"src,attr"`
}

// TableOfContents returns the navigation structure, parsed from the nav
// document when present, the NCX otherwise, or generated from the spine
// as a last resort.
func (r *Reader) TableOfContents() *TableOfContents {
	if r.toc != nil {
		return r.toc
	}

	toc, err := r.parseNavigation(r.getZipReader())
	if err != nil {
		toc = r.generateTOCFromSpine()
	}
	r.toc = toc
	return toc
}

func (r *Reader) parseNavigation(zr *zip.Reader) (*TableOfContents, error) {
	if navItem := r.findNavDocument(); navItem != nil {
		content, err := r.readFile(zr, r.resolveHref(navItem.Href))
		if err == nil {
			if toc, err := parseNavXHTML(content); err == nil {
				return toc, nil
			}
		}
	}

	if ncxItem := r.findNCX(); ncxItem != nil {
		content, err := r.readFile(zr, r.resolveHref(ncxItem.Href))
		if err == nil {
			if toc, err := parseNCX(content); err == nil {
				return toc, nil
			}
		}
	}

	return r.generateTOCFromSpine(), nil
}

func (r *Reader) findNavDocument() *ManifestItem {
	for _, item := range r.pkg.Manifest {
		for _, prop := range item.Properties {
			if prop == "nav" {
				return &item
			}
		}
	}
	return nil
}

func (r *Reader) findNCX() *ManifestItem {
	for _, item := range r.pkg.Manifest {
		if item.MediaType == "application/x-dtbncx+xml" {
			return &item
		}
	}
	return nil
}

// parseNavXHTML parses an EPUB3 nav document.
func parseNavXHTML(content []byte) (*TableOfContents, error) {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	var findNav func(*html.Node) *html.Node
	findNav = func(n *html.Node) *html.Node {
		if n.Type == html.ElementNode && n.Data == "nav" {
			for _, attr := range n.Attr {
				if (attr.Key == "epub:type" || attr.Key == "type") && strings.Contains(attr.Val, "toc") {
					return n
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if found := findNav(c); found != nil {
				return found
			}
		}
		return nil
	}

	nav := findNav(doc)
	if nav == nil {
		return nil, ErrMissingContent
	}

	toc := &TableOfContents{}

	var findTitle func(*html.Node) string
	findTitle = func(n *html.Node) string {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "h1", "h2", "h3", "h4", "h5", "h6":
				return nodeText(n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if title := findTitle(c); title != "" {
				return title
			}
		}
		return ""
	}
	toc.Title = findTitle(nav)

	var findOL func(*html.Node) *html.Node
	findOL = func(n *html.Node) *html.Node {
		if n.Type == html.ElementNode && n.Data == "ol" {
			return n
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if found := findOL(c); found != nil {
				return found
			}
		}
		return nil
	}

	if ol := findOL(nav); ol != nil {
		toc.Entries = parseOLEntries(ol)
	}
	return toc, nil
}

func parseOLEntries(ol *html.Node) []TOCEntry {
	var entries []TOCEntry
	for c := ol.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "li" {
			entry := parseLIEntry(c)
			if entry.Title != "" || entry.Href != "" {
				entries = append(entries, entry)
			}
		}
	}
	return entries
}

func parseLIEntry(li *html.Node) TOCEntry {
	entry := TOCEntry{}
	for c := li.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "a":
			entry.Title = nodeText(c)
			for _, attr := range c.Attr {
				if attr.Key == "href" {
					entry.Href = attr.Val
				}
			}
		case "span":
			if entry.Title == "" {
				entry.Title = nodeText(c)
			}
		case "ol":
			entry.Children = parseOLEntries(c)
		}
	}
	return entry
}

// parseNCX parses an EPUB2 NCX document.
func parseNCX(content []byte) (*TableOfContents, error) {
	var ncx ncxDocument
	if err := xml.Unmarshal(content, &ncx); err != nil {
		return nil, err
	}
	return &TableOfContents{
		Title:   ncx.Title,
		Entries: convertNCXNavPoints(ncx.NavMap.NavPoints),
	}, nil
}

func convertNCXNavPoints(points []ncxNavPoint) []TOCEntry {
	entries := make([]TOCEntry, 0, len(points))
	for _, p := range points {
		entries = append(entries, TOCEntry{
			Title:    strings.TrimSpace(p.Label),
			Href:     p.Content.Src,
			Children: convertNCXNavPoints(p.Children),
		})
	}
	return entries
}

// generateTOCFromSpine creates a flat TOC when no navigation document is
// usable.
func (r *Reader) generateTOCFromSpine() *TableOfContents {
	toc := &TableOfContents{
		Title:   r.pkg.Metadata.Title,
		Entries: make([]TOCEntry, 0, len(r.chapters)),
	}
	for _, chapter := range r.chapters {
		title := chapter.Title
		if title == "" {
			title = chapter.ID
		}
		toc.Entries = append(toc.Entries, TOCEntry{Title: title, Href: chapter.Href})
	}
	return toc
}
