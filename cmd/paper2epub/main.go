// Command paper2epub converts academic PDF papers to EPUB3 books with
// LaTeX math support.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/text/language"

	"github.com/tsawler/paper2epub"
	"github.com/tsawler/paper2epub/format"
	"github.com/tsawler/paper2epub/ocr"
)

type options struct {
	input         string
	output        string
	title         string
	author        string
	language      string
	modelSize     string
	modelDir      string
	device        string
	batchSize     int
	engine        string
	saveMarkdown  bool
	noFigures     bool
	figureMinSize int
	verbose       bool
	showVersion   bool
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}

	fs := flag.NewFlagSet("paper2epub", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.output, "o", "", "output EPUB path (default: input with .epub extension)")
	fs.StringVar(&opts.output, "output", "", "output EPUB path")
	fs.StringVar(&opts.title, "t", "", "book title (default: derived from the filename)")
	fs.StringVar(&opts.title, "title", "", "book title")
	fs.StringVar(&opts.author, "a", "", "book author")
	fs.StringVar(&opts.author, "author", "", "book author")
	fs.StringVar(&opts.language, "l", "en", "language code (BCP 47)")
	fs.StringVar(&opts.language, "language", "en", "language code (BCP 47)")
	fs.StringVar(&opts.modelSize, "m", "small", "model size: small or base")
	fs.StringVar(&opts.modelSize, "model", "small", "model size: small or base")
	fs.StringVar(&opts.modelDir, "model-dir", "", "directory holding model checkpoints")
	fs.StringVar(&opts.device, "d", "auto", "inference device: auto, cuda, mps or cpu")
	fs.StringVar(&opts.device, "device", "auto", "inference device")
	fs.IntVar(&opts.batchSize, "b", 1, "pages per inference batch")
	fs.IntVar(&opts.batchSize, "batch-size", 1, "pages per inference batch")
	fs.StringVar(&opts.engine, "engine", "nougat", "recognition engine: nougat or tesseract")
	fs.BoolVar(&opts.saveMarkdown, "save-markdown", false, "also write the intermediate Markdown next to the output")
	fs.BoolVar(&opts.noFigures, "no-figures", false, "skip figure extraction")
	fs.IntVar(&opts.figureMinSize, "figure-min-size", 100, "minimum figure size in pixels")
	fs.BoolVar(&opts.verbose, "v", false, "verbose logging")
	fs.BoolVar(&opts.verbose, "verbose", false, "verbose logging")
	fs.BoolVar(&opts.showVersion, "version", false, "print version and exit")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: paper2epub [options] PDF_PATH\n\n")
		fmt.Fprintf(stderr, "Convert an academic PDF to EPUB3 with LaTeX math support.\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.showVersion {
		return opts, nil
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return nil, errors.New("expected exactly one PDF path")
	}
	opts.input = fs.Arg(0)
	return opts, nil
}

func run(ctx context.Context, opts *options, logger *slog.Logger) error {
	if f := format.Detect(opts.input); f != format.PDF {
		return fmt.Errorf("input %q is not a %s file", opts.input, format.PDF)
	}
	if _, err := language.Parse(opts.language); err != nil {
		return fmt.Errorf("invalid language code %q", opts.language)
	}

	size, err := ocr.ParseModelSize(opts.modelSize)
	if err != nil {
		return err
	}

	device, ok := ocr.ParseDevice(opts.device)
	if !ok {
		logger.Warn("unknown device, falling back to CPU", "device", opts.device)
	}

	conv := paper2epub.Open(opts.input).
		Logger(logger).
		Model(size).
		Device(device).
		BatchSize(opts.batchSize).
		Language(opts.language).
		SaveMarkdown(opts.saveMarkdown).
		ExtractFigures(!opts.noFigures).
		FigureMinSize(opts.figureMinSize)

	if opts.output != "" {
		conv = conv.OutputPath(opts.output)
	}
	if opts.title != "" {
		conv = conv.Title(opts.title)
	}
	if opts.author != "" {
		conv = conv.Author(opts.author)
	}
	if opts.modelDir != "" {
		conv = conv.ModelDir(opts.modelDir)
	}

	switch opts.engine {
	case "nougat":
	case "tesseract":
		engine := ocr.NewTesseract("")
		defer engine.Close()
		conv = conv.Engine(engine)
	default:
		return fmt.Errorf("unknown engine %q (want nougat or tesseract)", opts.engine)
	}

	out, err := conv.Convert(ctx)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func main() {
	opts, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	if opts.showVersion {
		fmt.Println("paper2epub", paper2epub.Version)
		return
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, logger); err != nil {
		logger.Error("conversion failed", "error", err)
		os.Exit(1)
	}
}
