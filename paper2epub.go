// Package paper2epub provides a fluent API for converting academic PDF
// papers into EPUB3 books.
//
// Recognition is done by a Nougat-style neural model producing Markdown
// with LaTeX math, which is rendered to XHTML with MathML. Figures
// embedded in the PDF are extracted, matched to their captions and
// inlined into the output.
//
// Basic usage:
//
//	out, err := paper2epub.Open("paper.pdf").Convert(ctx)
//	if err != nil {
//	    // handle error
//	}
//
// With options:
//
//	out, err := paper2epub.Open("paper.pdf").
//	    Title("Attention Is All You Need").
//	    Author("A. Vaswani").
//	    Model(ocr.ModelBase).
//	    Device(ocr.DeviceCUDA).
//	    Convert(ctx)
package paper2epub

import (
	"log/slog"

	"github.com/tsawler/paper2epub/ocr"
)

// Converter provides a fluent interface for configuring and running a
// conversion. Each configuration method returns a new Converter instance,
// making chains safe to share and reuse.
type Converter struct {
	pdfPath string
	options ConvertOptions

	// Accumulated error (fail-fast)
	err error
}

// Open prepares a conversion of the given PDF file. The input is not
// touched until a terminal operation (Convert, Markdown) runs.
//
// Example:
//
//	out, err := paper2epub.Open("paper.pdf").Convert(ctx)
func Open(pdfPath string) *Converter {
	return &Converter{
		pdfPath: pdfPath,
		options: defaultOptions(),
	}
}

// clone creates a copy of the Converter so chain methods stay immutable.
func (c *Converter) clone() *Converter {
	return &Converter{
		pdfPath: c.pdfPath,
		options: c.options.clone(),
		err:     c.err,
	}
}

// Model selects the recognition model checkpoint.
func (c *Converter) Model(size ocr.ModelSize) *Converter {
	nc := c.clone()
	nc.options.modelSize = size
	return nc
}

// ModelDir sets the directory holding model checkpoints. The default is
// ocr.DefaultModelDir.
func (c *Converter) ModelDir(dir string) *Converter {
	nc := c.clone()
	nc.options.modelDir = dir
	return nc
}

// Device selects the inference device. The default resolves automatically
// to the best available device.
func (c *Converter) Device(device ocr.Device) *Converter {
	nc := c.clone()
	nc.options.device = device
	return nc
}

// BatchSize sets how many pages are recognized per inference call.
func (c *Converter) BatchSize(n int) *Converter {
	nc := c.clone()
	if n > 0 {
		nc.options.batchSize = n
	}
	return nc
}

// DPI sets the page rasterization resolution.
func (c *Converter) DPI(dpi int) *Converter {
	nc := c.clone()
	if dpi > 0 {
		nc.options.dpi = dpi
	}
	return nc
}

// Title sets the EPUB title. The default derives from the PDF filename.
func (c *Converter) Title(title string) *Converter {
	nc := c.clone()
	nc.options.title = title
	return nc
}

// Author sets the EPUB author metadata.
func (c *Converter) Author(author string) *Converter {
	nc := c.clone()
	nc.options.author = author
	return nc
}

// Language sets the EPUB language code. The default is "en".
func (c *Converter) Language(lang string) *Converter {
	nc := c.clone()
	nc.options.language = lang
	return nc
}

// OutputPath sets the output EPUB path. The default is the input path
// with its extension replaced by .epub.
func (c *Converter) OutputPath(path string) *Converter {
	nc := c.clone()
	nc.options.outputPath = path
	return nc
}

// SaveMarkdown controls whether the intermediate Markdown is written next
// to the output as a .md file.
func (c *Converter) SaveMarkdown(save bool) *Converter {
	nc := c.clone()
	nc.options.saveMarkdown = save
	return nc
}

// ExtractFigures controls whether embedded figures are extracted and
// inlined. Enabled by default.
func (c *Converter) ExtractFigures(extract bool) *Converter {
	nc := c.clone()
	nc.options.extractFigures = extract
	return nc
}

// FigureMinSize sets the minimum width and height, in pixels, for an
// embedded image to count as a figure.
func (c *Converter) FigureMinSize(px int) *Converter {
	nc := c.clone()
	if px > 0 {
		nc.options.figureMinSize = px
	}
	return nc
}

// Engine substitutes a custom OCR engine for the default Nougat model.
// The caller owns the engine's lifecycle; Convert will not close it.
func (c *Converter) Engine(engine ocr.Engine) *Converter {
	nc := c.clone()
	nc.options.engine = engine
	return nc
}

// Logger sets the logger for conversion progress. The default is
// slog.Default.
func (c *Converter) Logger(logger *slog.Logger) *Converter {
	nc := c.clone()
	nc.options.logger = logger
	return nc
}
