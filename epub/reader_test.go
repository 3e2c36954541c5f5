package epub

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// buildArchive writes a zip from name/content pairs, mimetype first and
// stored when present.
func buildArchive(t *testing.T, entries map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	if mt, ok := entries["mimetype"]; ok {
		mw, err := w.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
		if err != nil {
			t.Fatal(err)
		}
		mw.Write([]byte(mt))
	}
	for name, content := range entries {
		if name == "mimetype" {
			continue
		}
		fw, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte(content))
	}

	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func minimalEntries() map[string]string {
	return map[string]string{
		"mimetype": "application/epub+zip",
		"META-INF/container.xml": `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`,
		"OEBPS/content.opf": `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>Test Paper</dc:title>
    <dc:creator>Test Author</dc:creator>
    <dc:language>en</dc:language>
    <dc:identifier id="book-id">test-id-123</dc:identifier>
  </metadata>
  <manifest>
    <item id="chapter1" href="chapter1.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine>
    <itemref idref="chapter1"/>
  </spine>
</package>`,
		"OEBPS/chapter1.xhtml": `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>Chapter 1</title></head>
<body><h1>Introduction</h1><p>Body.</p></body>
</html>`,
	}
}

func openArchive(t *testing.T, data []byte) (*Reader, error) {
	t.Helper()
	return OpenReader(bytes.NewReader(data), int64(len(data)))
}

func TestOpenReaderMinimal(t *testing.T) {
	r, err := openArchive(t, buildArchive(t, minimalEntries()))
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}

	meta := r.Metadata()
	if meta.Title != "Test Paper" || meta.Author != "Test Author" {
		t.Errorf("metadata = %+v", meta)
	}
	if meta.Identifier != "test-id-123" {
		t.Errorf("identifier = %q", meta.Identifier)
	}
	if r.ChapterCount() != 1 {
		t.Errorf("chapter count = %d, want 1", r.ChapterCount())
	}
}

func TestOpenReaderNoNavFallsBackToSpine(t *testing.T) {
	r, err := openArchive(t, buildArchive(t, minimalEntries()))
	if err != nil {
		t.Fatal(err)
	}

	toc := r.TableOfContents()
	if len(toc.Entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(toc.Entries))
	}
	if toc.Entries[0].Title != "Chapter 1" {
		t.Errorf("entry title = %q", toc.Entries[0].Title)
	}
}

func TestOpenReaderRejectsDRM(t *testing.T) {
	entries := minimalEntries()
	entries["META-INF/rights.xml"] = "<rights/>"

	_, err := openArchive(t, buildArchive(t, entries))
	if !errors.Is(err, ErrDRMProtected) {
		t.Errorf("err = %v, want ErrDRMProtected", err)
	}
}

func TestOpenReaderAllowsFontObfuscation(t *testing.T) {
	entries := minimalEntries()
	entries["META-INF/encryption.xml"] = `<?xml version="1.0"?>
<encryption xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <EncryptedData>
    <EncryptionMethod Algorithm="http://www.idpf.org/2008/embedding/obfuscation"/>
    <CipherData><CipherReference URI="fonts/font.otf"/></CipherData>
  </EncryptedData>
</encryption>`

	if _, err := openArchive(t, buildArchive(t, entries)); err != nil {
		t.Errorf("font obfuscation should not be rejected: %v", err)
	}
}

func TestOpenReaderRejectsEncryptedContent(t *testing.T) {
	entries := minimalEntries()
	entries["META-INF/encryption.xml"] = `<?xml version="1.0"?>
<encryption xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <EncryptedData>
    <EncryptionMethod Algorithm="http://www.w3.org/2001/04/xmlenc#aes128-cbc"/>
    <CipherData><CipherReference URI="OEBPS/chapter1.xhtml"/></CipherData>
  </EncryptedData>
</encryption>`

	_, err := openArchive(t, buildArchive(t, entries))
	if !errors.Is(err, ErrDRMProtected) {
		t.Errorf("err = %v, want ErrDRMProtected", err)
	}
}

func TestOpenReaderMissingContainer(t *testing.T) {
	entries := minimalEntries()
	delete(entries, "META-INF/container.xml")

	_, err := openArchive(t, buildArchive(t, entries))
	if !errors.Is(err, ErrNoContainer) {
		t.Errorf("err = %v, want ErrNoContainer", err)
	}
}

func TestOpenReaderWrongMimetype(t *testing.T) {
	entries := minimalEntries()
	entries["mimetype"] = "application/zip"

	if _, err := openArchive(t, buildArchive(t, entries)); err == nil {
		t.Error("expected error for wrong mimetype content")
	}
}

func TestOpenReaderEmptySpine(t *testing.T) {
	entries := minimalEntries()
	entries["OEBPS/content.opf"] = `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:title>X</dc:title></metadata>
  <manifest/>
  <spine/>
</package>`

	_, err := openArchive(t, buildArchive(t, entries))
	if !errors.Is(err, ErrEmptySpine) {
		t.Errorf("err = %v, want ErrEmptySpine", err)
	}
}

func TestOpenNotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.epub")
	if err := os.WriteFile(path, []byte("definitely not a zip"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Open(path)
	if !errors.Is(err, ErrInvalidArchive) {
		t.Errorf("err = %v, want ErrInvalidArchive", err)
	}
}
