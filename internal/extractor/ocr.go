package extractor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// minOCRTextLen is the shortest tesseract output still treated as a
// successful recognition. Anything shorter is noise from a blank render.
const minOCRTextLen = 5

// TesseractOCR recognizes page images through the external tesseract
// binary. Requires tesseract-ocr with the Spanish language pack.
type TesseractOCR struct {
	// Language is the tesseract language code; defaults to Spanish.
	Language string
}

// Recognize runs OCR over one PNG page image.
func (t TesseractOCR) Recognize(ctx context.Context, pngData []byte) (string, error) {
	if _, err := exec.LookPath("tesseract"); err != nil {
		return "", fmt.Errorf("tesseract not available (install tesseract-ocr): %w", err)
	}
	lang := t.Language
	if lang == "" {
		lang = "spa"
	}

	tmpDir, err := os.MkdirTemp("", "ocr-page-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	imgFile := filepath.Join(tmpDir, "page.png")
	if err := os.WriteFile(imgFile, pngData, 0o600); err != nil {
		return "", fmt.Errorf("failed to write page image: %w", err)
	}

	// PSM 4 assumes a single column of variable-size text, which fits the
	// stacked label/amount layout of the receipts.
	outBase := filepath.Join(tmpDir, "page-ocr")
	cmd := exec.CommandContext(ctx, "tesseract", imgFile, outBase, "-l", lang, "--psm", "4")
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("tesseract failed: %v (output: %s)", err, string(out))
	}

	data, err := os.ReadFile(outBase + ".txt")
	if err != nil {
		return "", fmt.Errorf("tesseract produced no output file: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if len(text) < minOCRTextLen {
		return "", fmt.Errorf("tesseract produced no usable text")
	}
	return text, nil
}
