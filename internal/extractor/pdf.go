package extractor

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/insightdelivered/cfe-receipt-reader/internal/legibility"
)

// pdfHeader is the magic prefix every PDF starts with.
var pdfHeader = []byte("%PDF")

// IsPDF reports whether the data looks like a PDF document at all.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, pdfHeader)
}

// PDFSource extracts the embedded text layer of a PDF. It tries multiple
// extraction methods because receipt PDFs come from several CFE render
// pipelines with different encodings; the first method that yields legible
// text wins. A scanned receipt with no text layer yields empty pages, not
// an error — the OCR pass covers those.
type PDFSource struct{}

// PageTexts returns the text layer of each page.
func (PDFSource) PageTexts(data []byte) ([]string, error) {
	if !IsPDF(data) {
		return nil, fmt.Errorf("not a PDF document")
	}

	pages, libErr := extractWithLibrary(data)
	if libErr == nil && pagesLegible(pages) {
		return pages, nil
	}

	popplerPages, popplerErr := extractWithPdftotext(data)
	if popplerErr == nil && pagesLegible(popplerPages) {
		return popplerPages, nil
	}

	// Neither method produced legible text. Return whatever the library
	// got so the caller can still count pages and decide on OCR.
	if libErr != nil {
		return nil, fmt.Errorf("PDF text extraction failed: %w", libErr)
	}
	return pages, nil
}

// pagesLegible checks that the combined text layer is usable as-is.
func pagesLegible(pages []string) bool {
	return legibility.IsLegible(strings.Join(pages, "\n"))
}

// extractWithLibrary uses the ledongthuc/pdf library with multiple methods.
func extractWithLibrary(data []byte) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDF library crashed: %v", r)
		}
	}()

	r, openErr := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if openErr != nil {
		return nil, openErr
	}
	numPages := r.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	// Ranked methods: row extraction keeps the layout best, coordinate
	// reconstruction handles PDFs with broken row metadata, plain text is
	// the last structured resort.
	pages = extractByRow(r, numPages)
	if pagesLegible(pages) {
		return pages, nil
	}
	pages = extractByContent(r, numPages)
	if pagesLegible(pages) {
		return pages, nil
	}
	return extractByPlainText(r, numPages), nil
}

// extractByRow walks the library's row structure page by page.
func extractByRow(r *pdf.Reader, numPages int) []string {
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			pages = append(pages, "")
			continue
		}
		var lines []string
		for _, row := range rows {
			var parts []string
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			line := strings.TrimSpace(strings.Join(parts, " "))
			if line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

// extractByContent reconstructs rows from raw text-object coordinates:
// group by rounded Y, sort rows top to bottom, items left to right.
func extractByContent(r *pdf.Reader, numPages int) []string {
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		content := page.Content()

		type textItem struct {
			x float64
			s string
		}
		rowMap := make(map[int][]textItem)
		for _, t := range content.Text {
			if strings.TrimSpace(t.S) == "" {
				continue
			}
			yKey := int(math.Round(t.Y))
			rowMap[yKey] = append(rowMap[yKey], textItem{x: t.X, s: t.S})
		}

		// PDF Y grows bottom to top.
		yKeys := make([]int, 0, len(rowMap))
		for y := range rowMap {
			yKeys = append(yKeys, y)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(yKeys)))

		var lines []string
		for _, y := range yKeys {
			items := rowMap[y]
			sort.Slice(items, func(a, b int) bool {
				return items[a].x < items[b].x
			})
			var parts []string
			var prevX float64
			for j, item := range items {
				if j > 0 && item.x-prevX > 15 {
					// Column gap.
					parts = append(parts, "  ")
				} else if j > 0 {
					parts = append(parts, " ")
				}
				parts = append(parts, item.s)
				prevX = item.x
			}
			line := strings.TrimSpace(strings.Join(parts, ""))
			if line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

// extractByPlainText uses the per-page plain text path with font maps.
func extractByPlainText(r *pdf.Reader, numPages int) []string {
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		fonts := make(map[string]*pdf.Font)
		for _, name := range page.Fonts() {
			f := page.Font(name)
			fonts[name] = &f
		}
		text, err := page.GetPlainText(fonts)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, strings.TrimSpace(text))
	}
	return pages
}

// extractWithPdftotext shells out to poppler-utils as a last resort for
// PDFs the Go library cannot decode. pdftotext only takes file paths, so
// the document goes through a temp file.
func extractWithPdftotext(data []byte) ([]string, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return nil, fmt.Errorf("pdftotext not available: %w", err)
	}

	tmp, err := os.CreateTemp("", "receipt-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	tmp.Close()

	out, err := exec.Command("pdftotext", "-layout", tmp.Name(), "-").Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext failed: %w", err)
	}

	// Poppler separates pages with form feeds.
	raw := strings.Split(string(out), "\f")
	pages := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			pages = append(pages, p)
		}
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("pdftotext produced no output")
	}
	return pages, nil
}
