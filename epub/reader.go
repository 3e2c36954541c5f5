package epub

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"net/url"
	"path"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// Reader-related errors.
var (
	ErrInvalidArchive  = errors.New("epub: invalid or corrupted archive")
	ErrInvalidMimetype = errors.New("epub: invalid mimetype (not an EPUB)")
	ErrMissingContent  = errors.New("epub: referenced content file not found")
)

// Reader provides access to the content of an EPUB container.
type Reader struct {
	zr       *zip.ReadCloser
	zrReader *zip.Reader
	pkg      *Package
	baseDir  string
	chapters []*Chapter
	toc      *TableOfContents
}

// Open opens an EPUB file from a path.
func Open(filePath string) (*Reader, error) {
	zr, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, ErrInvalidArchive
	}

	r := &Reader{zr: zr}
	if err := r.init(&zr.Reader); err != nil {
		zr.Close()
		return nil, err
	}
	return r, nil
}

// OpenReader opens an EPUB from an io.ReaderAt.
func OpenReader(ra io.ReaderAt, size int64) (*Reader, error) {
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return nil, ErrInvalidArchive
	}

	r := &Reader{zrReader: zr}
	if err := r.init(zr); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Reader) init(zr *zip.Reader) error {
	// A missing mimetype entry is tolerated; a wrong one is not.
	if err := r.validateMimetype(zr); err != nil && !errors.Is(err, ErrInvalidMimetype) {
		return err
	}

	if err := checkForDRM(zr); err != nil {
		return err
	}

	opfPath, err := parseContainer(zr)
	if err != nil {
		return err
	}

	pkg, baseDir, err := parseOPF(zr, opfPath)
	if err != nil {
		return err
	}
	r.pkg = pkg
	r.baseDir = baseDir

	return r.loadChapters(zr)
}

// validateMimetype checks the mimetype entry when present.
func (r *Reader) validateMimetype(zr *zip.Reader) error {
	for _, f := range zr.File {
		if f.Name != "mimetype" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return err
		}
		if strings.TrimSpace(string(data)) != mimetypeContent {
			return errors.New("epub: wrong mimetype content")
		}
		return nil
	}
	return ErrInvalidMimetype
}

// loadChapters reads every spine item's content document.
func (r *Reader) loadChapters(zr *zip.Reader) error {
	r.chapters = make([]*Chapter, 0, len(r.pkg.Spine))

	for i, spineItem := range r.pkg.Spine {
		item, ok := r.pkg.Manifest[spineItem.IDRef]
		if !ok {
			continue
		}

		href := r.resolveHref(item.Href)
		content, err := r.readFile(zr, href)
		if err != nil {
			continue
		}

		r.chapters = append(r.chapters, &Chapter{
			ID:      item.ID,
			Title:   chapterTitle(content),
			Index:   i,
			Href:    href,
			Content: content,
		})
	}

	if len(r.chapters) == 0 {
		return ErrEmptySpine
	}
	return nil
}

// resolveHref resolves a relative href against the OPF base directory.
func (r *Reader) resolveHref(href string) string {
	if decoded, err := url.QueryUnescape(href); err == nil {
		href = decoded
	}
	if r.baseDir == "" {
		return href
	}
	return path.Join(r.baseDir, href)
}

// readFile reads a file from the archive by name.
func (r *Reader) readFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, ErrMissingContent
}

// chapterTitle pulls a display title out of a content document: the
// document title element first, then the first heading.
func chapterTitle(content []byte) string {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return ""
	}

	var title, heading string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if title == "" {
					title = nodeText(n)
				}
			case "h1", "h2", "h3", "h4", "h5", "h6":
				if heading == "" {
					heading = nodeText(n)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if title != "" {
		return title
	}
	return heading
}

// nodeText flattens the text content of an HTML node.
func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(nodeText(c))
	}
	return strings.TrimSpace(sb.String())
}

// Close closes the reader and releases resources.
func (r *Reader) Close() error {
	if r.zr != nil {
		return r.zr.Close()
	}
	return nil
}

// Metadata returns the package metadata.
func (r *Reader) Metadata() Metadata {
	return r.pkg.Metadata
}

// Version returns the EPUB version declared by the package document.
func (r *Reader) Version() string {
	return r.pkg.Version
}

// ChapterCount returns the number of content documents in the spine.
func (r *Reader) ChapterCount() int {
	return len(r.chapters)
}

// Chapters returns the content documents in reading order.
func (r *Reader) Chapters() []*Chapter {
	return r.chapters
}

// Images returns the image resources declared in the manifest, with data
// loaded from the archive, ordered by href.
func (r *Reader) Images() ([]ImageResource, error) {
	zr := r.getZipReader()

	var images []ImageResource
	for _, item := range r.pkg.Manifest {
		if !strings.HasPrefix(item.MediaType, "image/") {
			continue
		}
		data, err := r.readFile(zr, r.resolveHref(item.Href))
		if err != nil {
			return nil, err
		}
		images = append(images, ImageResource{
			Filename: path.Base(item.Href),
			Data:     data,
		})
	}

	sort.Slice(images, func(i, j int) bool {
		return images[i].Filename < images[j].Filename
	})
	return images, nil
}

// MathSectionCount returns how many manifest items carry the "mathml"
// property.
func (r *Reader) MathSectionCount() int {
	count := 0
	for _, item := range r.pkg.Manifest {
		for _, prop := range item.Properties {
			if prop == "mathml" {
				count++
			}
		}
	}
	return count
}

func (r *Reader) getZipReader() *zip.Reader {
	if r.zr != nil {
		return &r.zr.Reader
	}
	return r.zrReader
}
