package paper2epub

import (
	"log/slog"

	"github.com/tsawler/paper2epub/figures"
	"github.com/tsawler/paper2epub/ocr"
)

// ConvertOptions holds configuration for a conversion.
type ConvertOptions struct {
	// Model selection
	modelSize ocr.ModelSize
	modelDir  string
	device    ocr.Device
	batchSize int
	dpi       int

	// Figures
	extractFigures bool
	figureMinSize  int

	// Output
	title        string
	author       string
	language     string
	outputPath   string
	saveMarkdown bool

	// engine overrides the default Nougat engine when set. The caller
	// owns its lifecycle.
	engine ocr.Engine

	logger *slog.Logger
}

// defaultOptions returns the default conversion options.
func defaultOptions() ConvertOptions {
	return ConvertOptions{
		modelSize:      ocr.ModelSmall,
		device:         ocr.DeviceAuto,
		batchSize:      1,
		dpi:            ocr.DefaultDPI,
		extractFigures: true,
		figureMinSize:  figures.DefaultMinSize,
		language:       "en",
	}
}

// clone creates a copy of ConvertOptions.
func (o ConvertOptions) clone() ConvertOptions {
	return o
}
