// Package ocr provides the OCR engines that turn rasterized PDF pages into
// Markdown text.
//
// The primary engine is a Nougat-style neural model executed through ONNX
// Runtime (see Nougat). A Tesseract-backed engine is available as a fallback
// when no model checkpoint is present; it requires the "ocr" build tag and a
// system Tesseract installation:
//
//	go build -tags ocr
package ocr

import "context"

// Input is a single rasterized page submitted for recognition.
type Input struct {
	// ID is an optional caller-provided identifier echoed back in the
	// corresponding Result.
	ID string
	// Image holds the encoded page image (PNG or JPEG).
	Image []byte
	// PageIndex is the 1-based PDF page the image was rendered from.
	PageIndex int
}

// Result is the recognized content for one input image.
type Result struct {
	// InputID mirrors the Input.ID that produced this result.
	InputID string
	// PageIndex mirrors the Input.PageIndex.
	PageIndex int
	// Markdown is the recognized page content. The neural engine emits
	// Markdown with LaTeX math spans; simpler engines emit plain
	// paragraphs.
	Markdown string
}

// Engine is the provider contract: one page image in, one result out.
// Engines own whatever resources they allocate (model weights, native
// clients) and release them in Close.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, in Input) (Result, error)
	Close() error
}

// BatchEngine handles multiple pages per call, for engines that amortize
// setup costs across a batch.
type BatchEngine interface {
	Engine
	RecognizeBatch(ctx context.Context, inputs []Input) ([]Result, error)
}

// RecognizeAll runs every input through the engine, using batch recognition
// when the engine supports it. Results are returned in input order.
func RecognizeAll(ctx context.Context, engine Engine, inputs []Input) ([]Result, error) {
	if b, ok := engine.(BatchEngine); ok {
		return b.RecognizeBatch(ctx, inputs)
	}

	results := make([]Result, 0, len(inputs))
	for _, in := range inputs {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		res, err := engine.Recognize(ctx, in)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}
