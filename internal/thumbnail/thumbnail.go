// Package thumbnail derives fixed-size JPEG previews from uploaded image
// bytes. Output is always exactly 100x100: the source is scaled to fit,
// composited over an opaque white canvas, and letterboxed when non-square.
package thumbnail

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	// Register decoders for formats imaging does not handle natively.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

const (
	// Size is the edge length of the square output canvas.
	Size = 100
	// Quality is the JPEG encoding quality of the output.
	Quality = 85
)

var background = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

// Generator implements the file.Thumbnailer contract.
type Generator struct{}

// New returns a stateless Generator.
func New() *Generator {
	return &Generator{}
}

// Generate decodes data as an image and returns the derived thumbnail bytes.
// Transparent sources are composited onto white using their alpha channel;
// resizing preserves aspect ratio with Lanczos resampling.
func (Generator) Generate(data []byte) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	// Flatten any alpha channel over an opaque white base before resizing.
	bounds := src.Bounds()
	flat := imaging.New(bounds.Dx(), bounds.Dy(), background)
	flat = imaging.Overlay(flat, src, image.Pt(0, 0), 1.0)

	fitted := imaging.Fit(flat, Size, Size, imaging.Lanczos)

	canvas := imaging.New(Size, Size, background)
	canvas = imaging.PasteCenter(canvas, fitted)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.JPEG, imaging.JPEGQuality(Quality)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
