package ocr

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// DefaultDPI is the rasterization resolution used when none is configured.
const DefaultDPI = 144

// Rasterize renders every page of the PDF into numbered PNG files inside
// dir using poppler's pdftoppm, and returns the file paths in page order.
// The caller owns dir and its cleanup.
func Rasterize(ctx context.Context, pdfPath, dir string, dpi int) ([]string, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	prefix := filepath.Join(dir, "page")
	cmd := exec.CommandContext(ctx, "pdftoppm", "-png", "-r", strconv.Itoa(dpi), pdfPath, prefix)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, strings.TrimSpace(string(out)))
	}

	matches, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no page images")
	}

	sort.Slice(matches, func(i, j int) bool {
		return pageNumberFromName(matches[i]) < pageNumberFromName(matches[j])
	})
	return matches, nil
}

// pageNumberFromName extracts the 1-based page number pdftoppm encodes in
// the output filename ("page-3.png", "page-007.png").
func pageNumberFromName(path string) int {
	base := strings.TrimSuffix(filepath.Base(path), ".png")
	idx := strings.LastIndex(base, "-")
	if idx < 0 {
		return 0
	}
	n, err := strconv.Atoi(base[idx+1:])
	if err != nil {
		return 0
	}
	return n
}
