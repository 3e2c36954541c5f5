// Package model defines the data types passed between the stages of the
// PDF-to-EPUB pipeline: figures extracted from the PDF, per-page Markdown
// produced by the OCR model, and the figure/anchor pairings computed by the
// matcher.
//
// The types here carry no behavior beyond simple accessors; the pipeline
// stages (ocr, figures, markdown, epub) consume and produce them.
package model
