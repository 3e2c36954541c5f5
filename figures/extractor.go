package figures

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"sort"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/tsawler/paper2epub/model"
)

// DefaultMinSize is the minimum width and height, in pixels, an embedded
// image must have to be treated as a figure. Smaller images are usually
// icons, logos or decorations.
const DefaultMinSize = 100

// Extractor pulls embedded images out of a PDF.
type Extractor struct {
	// MinSize filters out images whose smaller dimension is below this
	// many pixels. Zero or negative means DefaultMinSize.
	MinSize int
	// Logger receives per-image warnings. Nil means slog.Default().
	Logger *slog.Logger
}

// NewExtractor creates an extractor with the given minimum figure size.
func NewExtractor(minSize int) *Extractor {
	return &Extractor{MinSize: minSize}
}

// Extract returns every embedded image in the PDF that passes the size
// filter, in page order with a stable order within each page. Images that
// cannot be decoded are skipped with a warning rather than failing the
// whole extraction.
func (e *Extractor) Extract(ctx context.Context, pdfPath string) ([]model.Figure, error) {
	logger := e.logger()

	f, err := os.Open(pdfPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	conf := pdfmodel.NewDefaultConfiguration()
	pctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}

	var figs []model.Figure
	for pageNr := 1; pageNr <= pctx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pageImages, err := pdfcpu.ExtractPageImages(pctx, pageNr, false)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", pageNr, err)
		}
		if len(pageImages) == 0 {
			continue
		}

		// Map iteration order is random; sort by object number so the
		// extraction order within a page is reproducible.
		objNrs := make([]int, 0, len(pageImages))
		for objNr := range pageImages {
			objNrs = append(objNrs, objNr)
		}
		sort.Ints(objNrs)

		raw := make([][]byte, 0, len(objNrs))
		for _, objNr := range objNrs {
			data, err := io.ReadAll(pageImages[objNr])
			if err != nil {
				logger.Warn("failed to read image stream",
					"page", pageNr, "object", objNr, "error", err)
				continue
			}
			raw = append(raw, data)
		}
		figs = append(figs, e.pageFigures(pageNr, raw)...)
	}

	logger.Info("extracted figures", "count", len(figs), "path", pdfPath)
	return figs, nil
}

// pageFigures converts one page's raw image streams into figures. Images
// that cannot be decoded are skipped with a warning, and images whose
// smaller dimension is below MinSize are dropped, so a single bad or
// decorative image never aborts the page.
func (e *Extractor) pageFigures(pageNr int, images [][]byte) []model.Figure {
	minSize := e.MinSize
	if minSize <= 0 {
		minSize = DefaultMinSize
	}
	logger := e.logger()

	var figs []model.Figure
	for index, data := range images {
		fig, err := figureFromBytes(pageNr, index, data)
		if err != nil {
			logger.Warn("skipping undecodable image",
				"page", pageNr, "index", index, "error", err)
			continue
		}
		if fig.MinDimension() < minSize {
			logger.Debug("skipping small image",
				"page", pageNr, "index", index,
				"width", fig.Width, "height", fig.Height)
			continue
		}
		figs = append(figs, fig)
	}
	return figs
}

func (e *Extractor) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// figureFromBytes decodes the image header to learn its dimensions and
// format without decoding the full pixel data.
func figureFromBytes(pageNr, index int, data []byte) (model.Figure, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return model.Figure{}, err
	}
	return model.Figure{
		PageIndex: pageNr,
		Index:     index,
		Data:      data,
		Width:     cfg.Width,
		Height:    cfg.Height,
		Format:    format,
	}, nil
}

// PageCount returns the number of pages in the PDF.
func PageCount(pdfPath string) (int, error) {
	return api.PageCountFile(pdfPath)
}
