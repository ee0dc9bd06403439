package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/insightdelivered/cfe-receipt-reader/internal/models"
)

// Extractor recovers single-document fields from acquired text. Every step
// is independent and tolerant of partial failure: a field whose patterns
// all miss is recorded as a sentinel or zero, never as an error.
type Extractor struct {
	Locale *Locale

	// StrictTotals enables a non-default consistency check: a total matched
	// by the loose currency fallback is rejected when it disagrees with a
	// directly extracted energy+tax sum by more than 5%. The permissive
	// behavior is the compatible default.
	StrictTotals bool
}

// NewExtractor returns an extractor for the given locale, or the default
// CFE locale when nil.
func NewExtractor(loc *Locale) *Extractor {
	if loc == nil {
		loc = DefaultLocale()
	}
	return &Extractor{Locale: loc}
}

// Total-amount patterns, ranked: the explicit label with an OCR-split
// integer/fraction pair, a generic currency decimal, and finally a bare
// 2-4 digit currency mention. First positive match wins.
var totalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)TOTAL\s+A\s*PAGAR[\s:]*\$?\s*(\d+)\s+(\d{2})`),
	regexp.MustCompile(`\$\s*(\d+)\.(\d{2})`),
	regexp.MustCompile(`\$\s*(\d{2,4})(?:[^\d]|$)`),
}

var (
	serviceLabeledPattern = regexp.MustCompile(`(?i)(?:NO\.?\s*DE?\s*SERVICIO|No\.?\s*Servicio)[\s:]*(\d[\s]?\d{11})`)
	serviceBarePattern    = regexp.MustCompile(`\d{12}`)

	// Titleholder: the line printed under the total label, else any run of
	// three consecutive all-caps words of 4+ letters.
	nameAfterTotalPattern = regexp.MustCompile(`(?i)TOTAL\s+A\s*PAGAR[^\n]*\n([A-ZÁÉÍÓÚÑ\s]{10,50})`)
	nameCapsRunPattern    = regexp.MustCompile(`([A-ZÁÉÍÓÚÑ]{4,}\s+[A-ZÁÉÍÓÚÑ]{4,}\s+[A-ZÁÉÍÓÚÑ]{4,})`)

	periodPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)PERIODO\s+FACTURADO[\s:]*(\d{2})\s+([A-Z]{3})\s+(\d{2})\s*-\s*(\d{2})\s+([A-Z]{3})\s*(\d{2})`),
		regexp.MustCompile(`(?i)(\d{2})\s+([A-Z]{3})\s+(\d{2})\s*-\s*(\d{2})\s+([A-Z]{3})\s*(\d{2})`),
		regexp.MustCompile(`(?i)del\s+(\d{2})\s+([A-Z]{3})\s+(\d{2})\s+al\s+(\d{2})\s+([A-Z]{3})\s*(\d{2})`),
	}

	// Consumption: the value may carry one leading OCR-misread letter.
	kwhPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Total\s+periodo[\s:]+([a-zA-Z]?\d+)`),
		regexp.MustCompile(`(?i)CONSUMO[\s:]+([a-zA-Z]?\d+)\s*kWh`),
		regexp.MustCompile(`(?i)(\d+)\s+kWh`),
	}
	kwhHistoryRowPattern = regexp.MustCompile(`(?i)del\s+\d{2}\s+[A-Z]{3}\s+\d{2}\s+al\s+\d{2}\s+[A-Z]{3}\s*\d{2}\s+([a-zA-Z]?\d+)\s+\$`)
	leadingLetterPattern = regexp.MustCompile(`[a-zA-Z]`)

	// The label tolerates the Í the OCR renders for I and vice versa.
	dueDatePattern = regexp.MustCompile(`(?i)L[IÍ]MITE\s+DE\s+PAGO[\s:]*(\d{2})\s+([A-Z]{3})\s+(\d{2})`)

	pureDigitsPattern = regexp.MustCompile(`^\d+$`)
)

// Extract applies the full field-rule library to one document's text and
// returns the raw, unreconciled result.
func (e *Extractor) Extract(doc models.DocumentText) models.PartialReceipt {
	pageOne := doc.PageOne()
	full := doc.Full()

	p := models.PartialReceipt{
		SourceName:  doc.SourceName,
		Titleholder: e.Locale.Sentinel,
		ServiceID:   e.Locale.Sentinel,
		PeriodText:  e.Locale.Sentinel,
		DueDate:     e.Locale.Sentinel,
	}

	p.Total = e.extractTotal(pageOne)
	p.Energy, _ = FindAmount(full, e.Locale.EnergyLabels)
	p.Tax, _ = FindAmount(full, e.Locale.TaxLabels)
	p.FixedCharge, _ = FindAmount(full, e.Locale.FixedChargeLabels)
	p.PriorBalance, _ = FindAmount(full, e.Locale.PriorBalanceLabels)
	p.PriorPayment, _ = FindAmount(full, e.Locale.PriorPaymentLabels)

	if e.StrictTotals && p.Total > 0 && p.Energy > 0 && p.Tax > 0 {
		if !totalsAgree(p.Total, p.Energy+p.Tax) {
			p.Total = 0
		}
	}

	if id := extractServiceID(full); id != "" {
		p.ServiceID = id
	}
	if name := e.extractTitleholder(full); name != "" {
		p.Titleholder = name
	}
	if text, period := extractPeriod(pageOne); text != "" {
		p.PeriodText = text
		p.Period = period
	}
	p.KWh = extractKWh(pageOne, full)
	if due := e.extractDueDate(full); due != "" {
		p.DueDate = due
	}

	return p
}

func (e *Extractor) extractTotal(pageOne string) models.Cents {
	for _, re := range totalPatterns {
		m := re.FindStringSubmatch(pageOne)
		if m == nil {
			continue
		}
		frac := ""
		if len(m) > 2 {
			frac = m[2]
		}
		v, err := models.CentsFromParts(m[1], frac)
		if err == nil && v > 0 {
			return v
		}
	}
	return 0
}

// totalsAgree is the strict-mode cross-check against the direct breakdown.
func totalsAgree(total, breakdown models.Cents) bool {
	diff := math.Abs(total.Float64() - breakdown.Float64())
	return diff <= 0.05*breakdown.Float64()
}

func extractServiceID(text string) string {
	if m := serviceLabeledPattern.FindStringSubmatch(text); m != nil {
		return strings.ReplaceAll(m[1], " ", "")
	}
	return serviceBarePattern.FindString(text)
}

func (e *Extractor) extractTitleholder(text string) string {
	for _, re := range []*regexp.Regexp{nameAfterTotalPattern, nameCapsRunPattern} {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		candidate := strings.TrimSpace(m[1])
		if len(candidate) > 5 &&
			!strings.Contains(candidate, e.Locale.BrandToken) &&
			!pureDigitsPattern.MatchString(candidate) {
			return candidate
		}
	}
	return ""
}

func extractPeriod(pageOne string) (string, *models.BillingPeriod) {
	for _, re := range periodPatterns {
		m := re.FindStringSubmatch(pageOne)
		if m == nil {
			continue
		}
		text := "del " + m[1] + " " + m[2] + " " + m[3] + " al " + m[4] + " " + m[5] + " " + m[6]
		return text, periodFromTriplets(m[1:7])
	}
	return "", nil
}

// periodFromTriplets builds the structured period from six matched groups:
// start day/month/year then end day/month/year.
func periodFromTriplets(g []string) *models.BillingPeriod {
	startDay, _ := strconv.Atoi(g[0])
	startYear, _ := strconv.Atoi(g[2])
	endDay, _ := strconv.Atoi(g[3])
	endYear, _ := strconv.Atoi(g[5])
	return &models.BillingPeriod{
		Start: models.PeriodDate{Day: startDay, Month: upperASCII(g[1]), Year: startYear},
		End:   models.PeriodDate{Day: endDay, Month: upperASCII(g[4]), Year: endYear},
	}
}

func extractKWh(pageOne, full string) int {
	combined := pageOne + full
	for _, re := range kwhPatterns {
		m := re.FindStringSubmatch(combined)
		if m == nil {
			continue
		}
		v, err := strconv.Atoi(leadingLetterPattern.ReplaceAllString(m[1], ""))
		if err == nil && v > 0 && v < 10000 {
			return v
		}
	}

	// Fallback: a history-style row whose consumption token is followed by
	// a currency sign — the current period repeated inside the usage table.
	if m := kwhHistoryRowPattern.FindStringSubmatch(full); m != nil {
		v, err := strconv.Atoi(leadingLetterPattern.ReplaceAllString(m[1], ""))
		if err == nil && v > 0 {
			return v
		}
	}
	return 0
}

func (e *Extractor) extractDueDate(text string) string {
	m := dueDatePattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	year := e.Locale.CenturyBase
	if y, err := strconv.Atoi(m[3]); err == nil {
		year += y
	}
	return m[1] + "/" + e.Locale.MonthTwoDigit(m[2]) + "/" + strconv.Itoa(year)
}
