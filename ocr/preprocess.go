package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
)

// Model input geometry. The Nougat encoder consumes fixed-size portrait
// pages; smaller or differently shaped pages are letterboxed onto a white
// canvas.
const (
	inputHeight   = 896
	inputWidth    = 672
	inputChannels = 3
)

// ImageNet normalization constants used by the encoder.
var (
	normMean = [inputChannels]float32{0.485, 0.456, 0.406}
	normStd  = [inputChannels]float32{0.229, 0.224, 0.225}
)

// tensorLen is the number of float32 values one prepared page occupies.
const tensorLen = inputChannels * inputHeight * inputWidth

// prepareInput decodes an encoded page image and converts it into the
// model's normalized CHW tensor layout.
func prepareInput(data []byte) ([]float32, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode page image: %w", err)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, inputWidth, inputHeight))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	// Aspect-preserving fit, centered on the canvas.
	sb := img.Bounds()
	sw, sh := sb.Dx(), sb.Dy()
	if sw == 0 || sh == 0 {
		return nil, fmt.Errorf("decode page image: empty image")
	}
	scale := float64(inputWidth) / float64(sw)
	if s := float64(inputHeight) / float64(sh); s < scale {
		scale = s
	}
	dw := int(float64(sw) * scale)
	dh := int(float64(sh) * scale)
	dx := (inputWidth - dw) / 2
	dy := (inputHeight - dh) / 2
	dr := image.Rect(dx, dy, dx+dw, dy+dh)
	xdraw.CatmullRom.Scale(canvas, dr, img, sb, xdraw.Over, nil)

	out := make([]float32, tensorLen)
	for y := 0; y < inputHeight; y++ {
		for x := 0; x < inputWidth; x++ {
			i := canvas.PixOffset(x, y)
			pos := y*inputWidth + x
			for c := 0; c < inputChannels; c++ {
				v := float32(canvas.Pix[i+c]) / 255.0
				out[c*inputHeight*inputWidth+pos] = (v - normMean[c]) / normStd[c]
			}
		}
	}
	return out, nil
}
