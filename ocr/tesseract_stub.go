//go:build !ocr

package ocr

import (
	"context"
	"errors"
)

// ErrOCRNotEnabled is returned when the Tesseract fallback is requested
// but OCR support was not compiled in. Rebuild with -tags ocr to enable
// it; this requires Tesseract to be installed on the system.
var ErrOCRNotEnabled = errors.New("ocr: tesseract support not enabled; rebuild with -tags ocr")

// Tesseract is the stub fallback engine used when the "ocr" build tag is
// not set. All recognition calls return ErrOCRNotEnabled.
type Tesseract struct{}

// NewTesseract creates the stub engine. The language argument is accepted
// for signature compatibility with the real engine and ignored.
func NewTesseract(language string) *Tesseract { return &Tesseract{} }

// Name identifies the engine.
func (t *Tesseract) Name() string { return "tesseract" }

// Recognize returns ErrOCRNotEnabled.
func (t *Tesseract) Recognize(ctx context.Context, in Input) (Result, error) {
	return Result{}, ErrOCRNotEnabled
}

// Close is a no-op for the stub engine.
func (t *Tesseract) Close() error { return nil }
