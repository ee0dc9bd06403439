package parser

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/insightdelivered/cfe-receipt-reader/internal/models"
)

// historyRowPattern matches one bimestrial usage entry anywhere in the
// document: two period-boundary date triplets, a consumption token that may
// carry OCR-misread letters, and an amount whose currency sign the OCR
// sometimes renders as "s".
var historyRowPattern = regexp.MustCompile(
	`(?i)del\s+(\d{2})\s+([A-Z0-9]{3})\s*(\d{2})\s+al\s+(\d{2})\s+([A-Z0-9]{3})\s*(\d{2})\s+([a-zA-Z]+\d*|\d+)\s+[s$](\d+)\.(\d{2})`)

var nonDigitPattern = regexp.MustCompile(`\D`)

// AnomalyFixer repairs implausibly small consumption values. It exists as a
// named, swappable hook because the default is a best-effort correction for
// one observed OCR failure mode, not a general-purpose error corrector.
type AnomalyFixer func(kwh int) int

// FixAnomalousKWh is the default fixer. Genuine bimonthly consumption for
// this population is rarely under 20 kWh, so a value under 10 is assumed to
// have lost a leading 8; exactly 14 is a corrupted 114; other values in
// [10,20) keep their second digit and regain the 8 prefix. A household that
// truly used 7-9 kWh will be inflated — a known false-positive risk.
func FixAnomalousKWh(kwh int) int {
	if kwh <= 0 || kwh >= 20 {
		return kwh
	}
	switch {
	case kwh < 10:
		fixed, _ := strconv.Atoi("8" + strconv.Itoa(kwh))
		return fixed
	case kwh == 14:
		return 114
	default:
		fixed, _ := strconv.Atoi("8" + strconv.Itoa(kwh)[1:])
		return fixed
	}
}

// IdentityFix disables anomaly correction.
func IdentityFix(kwh int) int { return kwh }

// HistoryParser scans full document text for the repeated bimestrial
// usage/amount entries of the history table.
type HistoryParser struct {
	// Fix repairs suspect consumption values; defaults to FixAnomalousKWh.
	Fix AnomalyFixer
}

// ParseHistory scans with the default anomaly fixer.
func ParseHistory(fullText string) []models.HistoricalEntry {
	return HistoryParser{}.Parse(fullText)
}

// Parse returns the deduplicated history entries in document scan order.
// Entries are keyed by their six period-boundary components; the first
// occurrence wins and later duplicates are dropped. A corrected consumption
// outside (0, 1000) discards the entry silently.
func (h HistoryParser) Parse(fullText string) []models.HistoricalEntry {
	fix := h.Fix
	if fix == nil {
		fix = FixAnomalousKWh
	}

	var entries []models.HistoricalEntry
	seen := make(map[string]bool)

	for _, m := range historyRowPattern.FindAllStringSubmatch(fullText, -1) {
		key := strings.Join(m[1:7], "|")
		if seen[key] {
			continue
		}

		corrected := nonDigitPattern.ReplaceAllString(CorrectDigits(m[7]), "")
		kwh, err := strconv.Atoi(corrected)
		if err != nil {
			continue
		}
		kwh = fix(kwh)
		if kwh <= 0 || kwh >= 1000 {
			continue
		}

		amount, err := models.CentsFromParts(m[8], m[9])
		if err != nil {
			continue
		}

		seen[key] = true
		entries = append(entries, models.HistoricalEntry{
			Label:  m[1] + " " + m[2] + "'" + m[3] + " - " + m[4] + " " + m[5] + "'" + m[6],
			Period: *periodFromTriplets(m[1:7]),
			KWh:    kwh,
			Amount: amount,
		})
	}

	return entries
}

// SortChronological orders entries by period start date for callers that
// need date order instead of document scan order. Month abbreviations that
// are not in the locale table sort first within their year.
func SortChronological(entries []models.HistoricalEntry, loc *Locale) {
	if loc == nil {
		loc = DefaultLocale()
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].Period.Start, entries[j].Period.Start
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		am, _ := loc.MonthNum(a.Month)
		bm, _ := loc.MonthNum(b.Month)
		if am != bm {
			return am < bm
		}
		return a.Day < b.Day
	})
}
