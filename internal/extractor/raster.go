package extractor

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"
)

// FitzRaster renders PDF pages to PNG for the OCR pass.
type FitzRaster struct{}

// PageCount returns the number of pages in the document.
func (FitzRaster) PageCount(data []byte) (int, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF for rendering: %w", err)
	}
	defer doc.Close()
	return doc.NumPage(), nil
}

// RenderPNG rasterizes one zero-based page at the given DPI.
func (FitzRaster) RenderPNG(data []byte, page int, dpi float64) ([]byte, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF for rendering: %w", err)
	}
	defer doc.Close()

	img, err := doc.ImageDPI(page, dpi)
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", page+1, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode page %d: %w", page+1, err)
	}
	return buf.Bytes(), nil
}
