//go:build ocr

package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract is a plain-text fallback engine backed by the system Tesseract
// installation via gosseract. It produces plain paragraphs without math
// or structure and exists for environments without a model checkpoint.
type Tesseract struct {
	language string
}

// NewTesseract creates the fallback engine. language is a Tesseract
// language spec ("eng", "eng+fra"); empty means "eng".
func NewTesseract(language string) *Tesseract {
	if language == "" {
		language = "eng"
	}
	return &Tesseract{language: language}
}

// Name identifies the engine.
func (t *Tesseract) Name() string { return "tesseract" }

// Recognize performs OCR on one page image. A fresh client is used per
// call; gosseract clients are not safe for reuse across images with
// differing settings.
func (t *Tesseract) Recognize(ctx context.Context, in Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.language); err != nil {
		return Result{}, fmt.Errorf("set language: %w", err)
	}
	if err := client.SetImageFromBytes(in.Image); err != nil {
		return Result{}, fmt.Errorf("set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return Result{}, fmt.Errorf("tesseract: %w", err)
	}

	return Result{InputID: in.ID, PageIndex: in.PageIndex, Markdown: toParagraphs(text)}, nil
}

// Close releases engine resources. Tesseract clients are per-call, so
// there is nothing to release.
func (t *Tesseract) Close() error { return nil }

// toParagraphs reflows raw OCR line output into Markdown paragraphs:
// blank lines separate paragraphs, single newlines join into one line.
func toParagraphs(text string) string {
	var paragraphs []string
	for _, block := range strings.Split(text, "\n\n") {
		lines := strings.Fields(strings.ReplaceAll(block, "\n", " "))
		if len(lines) == 0 {
			continue
		}
		paragraphs = append(paragraphs, strings.Join(lines, " "))
	}
	return strings.Join(paragraphs, "\n\n")
}
