package extractor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	"image/png"
	"strings"

	"github.com/rs/zerolog"

	"github.com/insightdelivered/cfe-receipt-reader/internal/legibility"
	"github.com/insightdelivered/cfe-receipt-reader/internal/models"
)

// OCR render resolution per page position. The first page carries the
// summary box and reads fine at moderate resolution; the second page holds
// the dense history table and needs the extra detail.
const (
	firstPageDPI  = 144
	secondPageDPI = 216
)

// minDocumentTextLen is the least combined text a document must yield
// before extraction is worth attempting.
const minDocumentTextLen = 15

// TextSource extracts the embedded text layer of a document.
type TextSource interface {
	PageTexts(data []byte) ([]string, error)
}

// Rasterizer renders document pages to PNG.
type Rasterizer interface {
	PageCount(data []byte) (int, error)
	RenderPNG(data []byte, page int, dpi float64) ([]byte, error)
}

// Recognizer turns a page image into text.
type Recognizer interface {
	Recognize(ctx context.Context, pngData []byte) (string, error)
}

// AcquireOptions control how much OCR effort a document gets.
type AcquireOptions struct {
	// BatchMode trims the OCR pass to the first two pages, and skips it
	// entirely when the text layer already carries the receipt vocabulary.
	// Single-document mode always OCR-augments the first two pages plus
	// any page whose text layer is illegible.
	BatchMode bool
}

// Acquirer turns raw uploads into DocumentText by combining the embedded
// text layer with an OCR pass over rendered pages. Both signals are kept:
// the field rules are tolerant of duplicated lines, and either layer may
// hold the value the other lost.
type Acquirer struct {
	Source TextSource
	Raster Rasterizer
	OCR    Recognizer

	log zerolog.Logger
}

// NewAcquirer returns an acquirer with the production pipeline: the
// multi-method PDF text layer, mupdf rendering, and tesseract.
func NewAcquirer(log zerolog.Logger) *Acquirer {
	return &Acquirer{
		Source: PDFSource{},
		Raster: FitzRaster{},
		OCR:    TesseractOCR{},
		log:    log,
	}
}

// AcquireDocument reads one uploaded PDF into DocumentText.
func (a *Acquirer) AcquireDocument(ctx context.Context, name string, data []byte, opts AcquireOptions) (models.DocumentText, error) {
	if !IsPDF(data) {
		return models.DocumentText{}, fmt.Errorf("%s is not a PDF document", name)
	}

	textPages, err := a.Source.PageTexts(data)
	if err != nil {
		// A scanned receipt has no text layer; OCR may still carry it.
		a.log.Debug().Err(err).Str("document", name).Msg("text layer unavailable, relying on OCR")
		textPages = nil
	}

	numPages := len(textPages)
	if n, err := a.Raster.PageCount(data); err == nil && n > numPages {
		numPages = n
	}
	if numPages == 0 {
		return models.DocumentText{}, fmt.Errorf("%s has no pages", name)
	}

	pages := make([]models.Page, numPages)
	for i := range pages {
		pages[i].Number = i + 1
		if i < len(textPages) {
			pages[i].Text = textPages[i]
		}
	}

	for _, i := range a.ocrTargets(pages, opts) {
		if err := ctx.Err(); err != nil {
			return models.DocumentText{}, err
		}
		text, err := a.ocrPage(ctx, data, i)
		if err != nil {
			a.log.Debug().Err(err).Str("document", name).Int("page", i+1).Msg("OCR pass failed for page")
			continue
		}
		if pages[i].Text == "" {
			pages[i].Text = text
		} else {
			pages[i].Text += "\n" + text
		}
	}

	doc := models.DocumentText{SourceName: name, Pages: pages}
	if len(strings.TrimSpace(doc.Full())) < minDocumentTextLen {
		return models.DocumentText{}, fmt.Errorf("%s yielded no readable text", name)
	}
	return doc, nil
}

// ocrTargets picks the zero-based pages worth an OCR pass.
func (a *Acquirer) ocrTargets(pages []models.Page, opts AcquireOptions) []int {
	if opts.BatchMode {
		var full []string
		for _, p := range pages {
			full = append(full, p.Text)
		}
		if legibility.HasDomainSignal(strings.Join(full, "\n")) {
			return nil
		}
		return firstPages(len(pages), 2)
	}

	targets := firstPages(len(pages), 2)
	for i := 2; i < len(pages); i++ {
		if !legibility.IsLegible(pages[i].Text) {
			targets = append(targets, i)
		}
	}
	return targets
}

func firstPages(n, limit int) []int {
	if n < limit {
		limit = n
	}
	targets := make([]int, limit)
	for i := range targets {
		targets[i] = i
	}
	return targets
}

func (a *Acquirer) ocrPage(ctx context.Context, data []byte, page int) (string, error) {
	dpi := float64(firstPageDPI)
	if page == 1 {
		dpi = secondPageDPI
	}
	pngData, err := a.Raster.RenderPNG(data, page, dpi)
	if err != nil {
		return "", err
	}
	return a.OCR.Recognize(ctx, pngData)
}

// AcquireImage reads a photographed or scanned receipt image into a
// single-page DocumentText via OCR.
func (a *Acquirer) AcquireImage(ctx context.Context, name string, data []byte) (models.DocumentText, error) {
	pngData, err := toPNG(data)
	if err != nil {
		return models.DocumentText{}, fmt.Errorf("%s: %w", name, err)
	}
	text, err := a.OCR.Recognize(ctx, pngData)
	if err != nil {
		return models.DocumentText{}, fmt.Errorf("%s: %w", name, err)
	}
	return models.DocumentFromText(name, text), nil
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n")

// toPNG re-encodes JPEG and GIF uploads; PNG passes through.
func toPNG(data []byte) ([]byte, error) {
	if bytes.HasPrefix(data, pngHeader) {
		return data, nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unsupported image format: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
