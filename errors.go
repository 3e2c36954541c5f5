package paper2epub

import "errors"

// Pipeline stage errors. Failures during conversion wrap one of these so
// callers can dispatch on the failing stage with errors.Is.
var (
	// ErrModelLoad indicates the OCR model could not be initialized.
	ErrModelLoad = errors.New("paper2epub: model load failed")
	// ErrPDFExtraction indicates the input PDF could not be read or
	// recognized.
	ErrPDFExtraction = errors.New("paper2epub: PDF extraction failed")
	// ErrFigureExtraction indicates embedded figures could not be pulled
	// out of the PDF.
	ErrFigureExtraction = errors.New("paper2epub: figure extraction failed")
	// ErrEPUBCreation indicates the output EPUB could not be assembled.
	ErrEPUBCreation = errors.New("paper2epub: EPUB creation failed")
)
