package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func TestParseArgsDefaults(t *testing.T) {
	var stderr bytes.Buffer
	opts, err := parseArgs([]string{"paper.pdf"}, &stderr)
	if err != nil {
		t.Fatalf("parseArgs failed: %v", err)
	}

	if opts.input != "paper.pdf" {
		t.Errorf("input = %q", opts.input)
	}
	if opts.language != "en" || opts.modelSize != "small" || opts.device != "auto" {
		t.Errorf("defaults = %+v", opts)
	}
	if opts.batchSize != 1 || opts.figureMinSize != 100 {
		t.Errorf("numeric defaults = %+v", opts)
	}
	if opts.engine != "nougat" {
		t.Errorf("engine = %q, want nougat", opts.engine)
	}
	if opts.noFigures || opts.saveMarkdown || opts.verbose {
		t.Errorf("boolean defaults = %+v", opts)
	}
}

func TestParseArgsShortFlags(t *testing.T) {
	var stderr bytes.Buffer
	opts, err := parseArgs([]string{
		"-o", "out.epub", "-t", "Title", "-a", "Author",
		"-l", "de", "-m", "base", "-d", "cuda", "-b", "4",
		"paper.pdf",
	}, &stderr)
	if err != nil {
		t.Fatalf("parseArgs failed: %v", err)
	}

	if opts.output != "out.epub" || opts.title != "Title" || opts.author != "Author" {
		t.Errorf("string flags = %+v", opts)
	}
	if opts.language != "de" || opts.modelSize != "base" || opts.device != "cuda" || opts.batchSize != 4 {
		t.Errorf("value flags = %+v", opts)
	}
}

func TestParseArgsLongFlags(t *testing.T) {
	var stderr bytes.Buffer
	opts, err := parseArgs([]string{
		"--output", "out.epub", "--no-figures", "--save-markdown",
		"--figure-min-size", "50", "--model-dir", "/models",
		"--engine", "tesseract", "paper.pdf",
	}, &stderr)
	if err != nil {
		t.Fatalf("parseArgs failed: %v", err)
	}

	if !opts.noFigures || !opts.saveMarkdown {
		t.Errorf("boolean flags = %+v", opts)
	}
	if opts.figureMinSize != 50 || opts.modelDir != "/models" || opts.engine != "tesseract" {
		t.Errorf("value flags = %+v", opts)
	}
}

func TestParseArgsVersion(t *testing.T) {
	var stderr bytes.Buffer
	opts, err := parseArgs([]string{"--version"}, &stderr)
	if err != nil {
		t.Fatalf("parseArgs failed: %v", err)
	}
	if !opts.showVersion {
		t.Error("version flag not recognized")
	}
}

func TestParseArgsMissingInput(t *testing.T) {
	var stderr bytes.Buffer
	if _, err := parseArgs(nil, &stderr); err == nil {
		t.Error("expected error without a PDF path")
	}
}

func TestParseArgsExtraArguments(t *testing.T) {
	var stderr bytes.Buffer
	if _, err := parseArgs([]string{"a.pdf", "b.pdf"}, &stderr); err == nil {
		t.Error("expected error for multiple PDF paths")
	}
}

func TestRunRejectsNonPDFInput(t *testing.T) {
	var stderr bytes.Buffer
	opts, err := parseArgs([]string{"notes.txt"}, &stderr)
	if err != nil {
		t.Fatalf("parseArgs failed: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	err = run(context.Background(), opts, logger)
	if err == nil {
		t.Fatal("expected error for a non-PDF input path")
	}
	if !strings.Contains(err.Error(), "PDF") {
		t.Errorf("err = %v, want a PDF complaint", err)
	}
}
