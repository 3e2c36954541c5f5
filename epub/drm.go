package epub

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

// ErrDRMProtected is returned when the container carries DRM that would
// prevent reading its content.
var ErrDRMProtected = errors.New("epub: DRM-protected content cannot be processed")

// encryptionXML mirrors META-INF/encryption.xml.
type encryptionXML struct {
	XMLName       xml.Name        `xml:"encryption"`
	EncryptedData []encryptedData `xml:"EncryptedData"`
}

type encryptedData struct {
	EncryptionMethod encryptionMethod `xml:"EncryptionMethod"`
	CipherData       cipherData       `xml:"CipherData"`
}

type encryptionMethod struct {
	Algorithm string `xml:"Algorithm,attr"`
}

type cipherData struct {
	CipherReference cipherReference `xml:"CipherReference"`
}

type cipherReference struct {
	URI string `xml:"URI,attr"`
}

// checkForDRM rejects containers with encrypted content. Font
// obfuscation is not DRM and is allowed through.
func checkForDRM(zr *zip.Reader) error {
	for _, f := range zr.File {
		switch f.Name {
		case "META-INF/rights.xml":
			return ErrDRMProtected
		case "META-INF/encryption.xml":
			encrypted, err := hasEncryptedContent(f)
			if err != nil || encrypted {
				return ErrDRMProtected
			}
		}
	}
	return nil
}

func hasEncryptedContent(f *zip.File) (bool, error) {
	rc, err := f.Open()
	if err != nil {
		return false, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return false, err
	}

	var enc encryptionXML
	if err := xml.Unmarshal(data, &enc); err != nil {
		return false, err
	}

	for _, ed := range enc.EncryptedData {
		if isFontObfuscation(ed.EncryptionMethod.Algorithm) {
			continue
		}
		if isContentFile(ed.CipherData.CipherReference.URI) {
			return true, nil
		}
	}
	return false, nil
}

func isFontObfuscation(algorithm string) bool {
	return strings.Contains(algorithm, "obfuscation") &&
		(strings.Contains(algorithm, "adobe.com") || strings.Contains(algorithm, "idpf.org"))
}

func isContentFile(uri string) bool {
	uri = strings.ToLower(uri)
	switch {
	case strings.HasSuffix(uri, ".xhtml"),
		strings.HasSuffix(uri, ".html"),
		strings.HasSuffix(uri, ".htm"),
		strings.HasSuffix(uri, ".xml"),
		strings.HasSuffix(uri, ".css"):
		return true
	}
	return false
}
