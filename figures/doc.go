// Package figures extracts embedded raster images from PDF files and
// matches them to the caption markers the OCR model emits, so each figure
// can be inlined next to its caption in the output document.
package figures
