package parser

import (
	"regexp"

	"github.com/insightdelivered/cfe-receipt-reader/internal/models"
)

// maxAmountCents bounds accepted values to [0, 100000) pesos. Anything
// outside the range is a misparse and is discarded, never surfaced.
const maxAmountCents = 100000 * 100

// amountStrategies are the label-relative patterns the locator tries, most
// specific first. Each produces a regex with two capture groups: the
// integer part (commas allowed) and the two-digit fraction.
//
// Strategy order matters and is part of the contract:
//  1. currency sign and a value whose decimal point the OCR turned into
//     whitespace ("$ 272 00")
//  2. an explicit decimal-point value ("$272.00")
//  3. a loose fallback: any digits after the label, then eventually exactly
//     two trailing digits
var amountStrategies = []func(label string) string{
	func(label string) string {
		return `(?i)` + label + `[\s:]*\$?\s*([\d,]+)\s+(\d{2})(?:[^\d]|$)`
	},
	func(label string) string {
		return `(?i)` + label + `[\s:]*\$?\s*([\d,]+)\.(\d{2})`
	},
	func(label string) string {
		return `(?i)` + label + `[^\d]*([\d,]+)[\s\.]+(\d{2})(?:[^\d]|$)`
	},
}

// FindAmount searches text for a monetary value tied to one of the labels.
// Labels are tried in order; for each, the three strategies are tried most
// specific first, and the first in-range hit ends the whole search. The
// caller's label order expresses preference (exact phrase before generic).
// Returns (0, false) when no label/strategy combination succeeds.
func FindAmount(text string, labels []string) (models.Cents, bool) {
	for _, label := range labels {
		escaped := regexp.QuoteMeta(label)
		for _, strategy := range amountStrategies {
			re, err := regexp.Compile(strategy(escaped))
			if err != nil {
				continue
			}
			m := re.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			v, err := models.CentsFromParts(m[1], m[2])
			if err != nil || v < 0 || v >= maxAmountCents {
				continue
			}
			return v, true
		}
	}
	return 0, false
}
