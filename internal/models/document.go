package models

import "strings"

// Page is the text recovered for a single document page. OCR output, when
// acquired, is already appended below the text-layer content.
type Page struct {
	Number int
	Text   string
}

// DocumentText is the ordered page text for one source document. Page
// numbering starts at 1 and is contiguous. Immutable once produced by the
// acquisition layer.
type DocumentText struct {
	SourceName string
	Pages      []Page
}

// Full returns the whole document text with page boundaries joined.
func (d DocumentText) Full() string {
	parts := make([]string, 0, len(d.Pages))
	for _, p := range d.Pages {
		parts = append(parts, p.Text)
	}
	return strings.Join(parts, "\n")
}

// PageOne returns the text of the first page. When the document carries a
// single unnumbered blob (images, plain OCR output), the first 3000 runes
// stand in for page 1, matching the window the field patterns expect.
func (d DocumentText) PageOne() string {
	if len(d.Pages) == 0 {
		return ""
	}
	if len(d.Pages) > 1 {
		return d.Pages[0].Text
	}
	runes := []rune(d.Pages[0].Text)
	if len(runes) > 3000 {
		return string(runes[:3000])
	}
	return string(runes)
}

// DocumentFromText wraps a single block of page-less text (image OCR).
func DocumentFromText(name, text string) DocumentText {
	return DocumentText{SourceName: name, Pages: []Page{{Number: 1, Text: text}}}
}
