package paper2epub

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tsawler/paper2epub/epub"
	"github.com/tsawler/paper2epub/figures"
	"github.com/tsawler/paper2epub/format"
	"github.com/tsawler/paper2epub/markdown"
	"github.com/tsawler/paper2epub/model"
	"github.com/tsawler/paper2epub/ocr"
)

// Convert runs the full pipeline and returns the path of the written
// EPUB. Any stage failure aborts the conversion; no partial EPUB is left
// behind.
func (c *Converter) Convert(ctx context.Context) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	logger := c.logger()

	content, matches, err := c.extractContent(ctx, logger)
	if err != nil {
		return "", err
	}

	outputPath := c.options.outputPath
	if outputPath == "" {
		outputPath = strings.TrimSuffix(c.pdfPath, filepath.Ext(c.pdfPath)) + format.EPUB.Extension()
	}

	if c.options.saveMarkdown {
		mdPath := strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ".md"
		if err := os.WriteFile(mdPath, []byte(content), 0644); err != nil {
			return "", fmt.Errorf("%w: save markdown: %v", ErrEPUBCreation, err)
		}
		logger.Info("saved markdown", "path", mdPath)
	}

	book, err := c.buildBook(content, matches)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEPUBCreation, err)
	}

	if err := epub.Write(outputPath, book); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEPUBCreation, err)
	}

	logger.Info("conversion complete", "output", outputPath)
	return outputPath, nil
}

// Markdown runs recognition and figure matching and returns the combined
// Markdown without writing an EPUB.
func (c *Converter) Markdown(ctx context.Context) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	content, _, err := c.extractContent(ctx, c.logger())
	return content, err
}

func (c *Converter) logger() *slog.Logger {
	if c.options.logger != nil {
		return c.options.logger
	}
	return slog.Default()
}

// extractContent runs recognition and figure matching and returns the
// document Markdown with figure references inserted.
func (c *Converter) extractContent(ctx context.Context, logger *slog.Logger) (string, []model.MatchedFigure, error) {
	f, err := format.DetectFile(c.pdfPath)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrPDFExtraction, err)
	}
	if f != format.PDF {
		return "", nil, fmt.Errorf("%w: %s is not a PDF", ErrPDFExtraction, c.pdfPath)
	}

	pages, err := figures.PageCount(c.pdfPath)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrPDFExtraction, err)
	}
	logger.Info("starting conversion", "input", filepath.Base(c.pdfPath), "pages", pages)

	doc, err := c.recognize(ctx, logger)
	if err != nil {
		return "", nil, err
	}

	var matches []model.MatchedFigure
	if c.options.extractFigures {
		ext := figures.NewExtractor(c.options.figureMinSize)
		ext.Logger = logger

		figs, err := ext.Extract(ctx, c.pdfPath)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %v", ErrFigureExtraction, err)
		}
		matches = figures.MatchFigures(figs, doc)
	}

	return figures.InsertReferences(doc, matches), matches, nil
}

// recognize rasterizes the PDF and runs every page through the engine.
func (c *Converter) recognize(ctx context.Context, logger *slog.Logger) (*model.Document, error) {
	engine := c.options.engine
	if engine == nil {
		nougat := ocr.NewNougat(ocr.NougatConfig{
			ModelDir:  c.options.modelDir,
			Size:      c.options.modelSize,
			Device:    c.options.device,
			BatchSize: c.options.batchSize,
			Logger:    logger,
		})
		if err := nougat.Load(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrModelLoad, err)
		}
		defer nougat.Close()
		engine = nougat
	}

	dir, err := os.MkdirTemp("", "paper2epub-pages-")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFExtraction, err)
	}
	defer os.RemoveAll(dir)

	paths, err := ocr.Rasterize(ctx, c.pdfPath, dir, c.options.dpi)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFExtraction, err)
	}

	inputs := make([]ocr.Input, 0, len(paths))
	for i, p := range paths {
		img, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPDFExtraction, err)
		}
		inputs = append(inputs, ocr.Input{ID: filepath.Base(p), Image: img, PageIndex: i + 1})
	}

	results, err := ocr.RecognizeAll(ctx, engine, inputs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFExtraction, err)
	}

	doc := &model.Document{}
	for _, res := range results {
		doc.AddPage(model.PageText{PageIndex: res.PageIndex, Markdown: res.Markdown})
	}
	if strings.TrimSpace(doc.Markdown()) == "" {
		return nil, fmt.Errorf("%w: no content recognized", ErrPDFExtraction)
	}

	logger.Info("recognized pages", "engine", engine.Name(), "pages", len(results))
	return doc, nil
}

// buildBook renders the content into sections and assembles the EPUB
// book structure.
func (c *Converter) buildBook(content string, matches []model.MatchedFigure) (*epub.Book, error) {
	meta := c.metadata()

	book := &epub.Book{
		Metadata: epub.Metadata{
			Title:    meta.Title,
			Author:   meta.Author,
			Language: meta.Language,
		},
	}

	for _, sec := range markdown.SplitSections(content, meta.Title) {
		xhtml, err := markdown.Render(sec.Markdown)
		if err != nil {
			return nil, fmt.Errorf("render section %q: %w", sec.Title, err)
		}

		section := epub.Section{
			Title:   sec.Title,
			XHTML:   xhtml,
			HasMath: markdown.HasMath(xhtml),
		}
		if headings, err := markdown.Headings(xhtml); err == nil {
			for _, h := range headings {
				if h.Level == 2 && h.ID != "" {
					section.Subheadings = append(section.Subheadings,
						epub.Subheading{Title: h.Text, ID: h.ID})
				}
			}
		}
		book.Sections = append(book.Sections, section)
	}

	for _, m := range matches {
		book.Images = append(book.Images, epub.ImageResource{
			Filename: m.Filename(),
			Data:     m.Data,
		})
	}
	return book, nil
}

// metadata resolves the EPUB metadata, deriving title and author from the
// filename when not configured.
func (c *Converter) metadata() model.Metadata {
	meta := metadataFromFilename(c.pdfPath)
	if c.options.title != "" {
		meta.Title = c.options.title
	}
	if c.options.author != "" {
		meta.Author = c.options.author
	}
	meta.Language = c.options.language
	return meta
}

// metadataFromFilename derives title and author from a filename of the
// form "Author - Title.pdf".
func metadataFromFilename(path string) model.Metadata {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	meta := model.Metadata{Title: base}

	if author, title, ok := strings.Cut(base, " - "); ok {
		author, title = strings.TrimSpace(author), strings.TrimSpace(title)
		if author != "" && title != "" {
			meta.Author, meta.Title = author, title
		}
	}
	return meta
}
