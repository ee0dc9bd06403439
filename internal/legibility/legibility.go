// Package legibility decides whether a block of recovered text is usable
// for field extraction or needs an alternate (OCR) source. Both predicates
// are pure and side-effect free.
package legibility

import (
	"strings"
	"unicode"
)

// minLegibleLen is the shortest trimmed text that can carry any field.
const minLegibleLen = 15

// maxStrangeFraction is the tolerated share of characters outside the
// allow-list before a block is declared garbage.
const maxStrangeFraction = 0.3

// domainKeywords is the receipt vocabulary used by the batch path's cheap
// gate. Matching is case-insensitive; three distinct hits are enough.
var domainKeywords = []string{"ENERGIA", "IVA", "PAGAR", "SERVICIO", "KWH"}

// IsLegible reports whether text is fit for direct field extraction.
// Text is illegible when it is shorter than 15 trimmed characters or when
// more than 30% of its characters fall outside the allow-list of word
// characters, whitespace, accented Spanish vowels, ñ, and $ , . : symbols.
func IsLegible(text string) bool {
	if len(strings.TrimSpace(text)) < minLegibleLen {
		return false
	}
	total := 0
	strange := 0
	for _, r := range text {
		total++
		if !allowedRune(r) {
			strange++
		}
	}
	if total == 0 {
		return false
	}
	return float64(strange)/float64(total) <= maxStrangeFraction
}

func allowedRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '_', r == '$', r == ',', r == '.', r == ':':
		return true
	case unicode.IsSpace(r):
		return true
	}
	switch r {
	case 'á', 'é', 'í', 'ó', 'ú', 'ñ':
		return true
	}
	return false
}

// HasDomainSignal reports whether text already contains enough receipt
// vocabulary to skip OCR entirely. It is the batch path's acceptance test:
// cheaper and stricter than IsLegible, since a legible page of marketing
// copy is still useless for extraction.
func HasDomainSignal(text string) bool {
	upper := strings.ToUpper(text)
	found := 0
	for _, kw := range domainKeywords {
		if strings.Contains(upper, kw) {
			found++
		}
	}
	return found >= 3
}
