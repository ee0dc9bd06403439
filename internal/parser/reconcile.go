package parser

import (
	"math"
	"time"

	"github.com/insightdelivered/cfe-receipt-reader/internal/models"
)

// Reconcile fills in derived fields when direct extraction was incomplete
// or inconsistent, and produces the final Receipt. Monetary values are kept
// as floats through the derivation chain and rounded to cents only when
// materialized into the Receipt, so rounding error never compounds across
// derived fields.
func (e *Extractor) Reconcile(p models.PartialReceipt) models.Receipt {
	total := p.Total.Float64()
	energy := p.Energy.Float64()
	tax := p.Tax.Float64()
	fixed := p.FixedCharge.Float64()
	priorBalance := p.PriorBalance.Float64()
	priorPayment := p.PriorPayment.Float64()

	// When the breakdown was not found but a total was, back the taxed base
	// out of the total and the carried-over amounts, then split it at the
	// fixed tax rate.
	if !(energy > 0 && tax > 0) && total > 0 {
		base := math.Max(total-priorBalance+math.Abs(priorPayment)-fixed, total)
		energy = base / (1 + e.Locale.TaxRate)
		tax = base - energy
	}

	invoiced := models.CentsFromFloat(energy + tax)
	displayTotal := p.Total
	if displayTotal <= 0 {
		displayTotal = invoiced
	}

	days := e.periodDays(p.Period)
	dailyAvg := 0.0
	if p.KWh > 0 {
		dailyAvg = round2(float64(p.KWh) / float64(days))
	}

	return models.Receipt{
		SourceName:   p.SourceName,
		Titleholder:  p.Titleholder,
		ServiceID:    p.ServiceID,
		PeriodText:   p.PeriodText,
		Period:       p.Period,
		DueDate:      p.DueDate,
		Total:        displayTotal,
		Energy:       models.CentsFromFloat(energy),
		Tax:          models.CentsFromFloat(tax),
		Invoiced:     invoiced,
		FixedCharge:  p.FixedCharge,
		PriorBalance: p.PriorBalance,
		PriorPayment: p.PriorPayment,
		KWh:          p.KWh,
		DailyAvgKWh:  dailyAvg,
		Tariff:       ClassifyTariff(p.KWh),
		History:      p.History,
	}
}

// ReadReceipt runs the whole chain over one acquired document: field
// extraction, history collection, reconciliation.
func (e *Extractor) ReadReceipt(doc models.DocumentText) models.Receipt {
	p := e.Extract(doc)
	p.History = ParseHistory(doc.Full())
	return e.Reconcile(p)
}

// periodDays counts the days between the period boundaries, defaulting to
// one standard bimonthly cycle when the period is missing, unparseable, or
// implausible (zero or 100+ days).
func (e *Extractor) periodDays(period *models.BillingPeriod) int {
	fallback := e.Locale.DefaultPeriodDays
	if period == nil {
		return fallback
	}
	start, ok := e.periodTime(period.Start)
	if !ok {
		return fallback
	}
	end, ok := e.periodTime(period.End)
	if !ok {
		return fallback
	}
	span := end.Sub(start)
	if span < 0 {
		span = -span
	}
	days := int(math.Ceil(span.Hours() / 24))
	if days <= 0 || days >= 100 {
		return fallback
	}
	return days
}

func (e *Extractor) periodTime(d models.PeriodDate) (time.Time, bool) {
	month, ok := e.Locale.MonthNum(d.Month)
	if !ok {
		return time.Time{}, false
	}
	return time.Date(e.Locale.CenturyBase+d.Year, time.Month(month), d.Day, 0, 0, 0, 0, time.UTC), true
}

// ClassifyTariff buckets consumption into the printed tariff tiers. The
// thresholds are strict greater-than: 500 kWh is still the upper
// residential tier, 501 crosses into DAC.
func ClassifyTariff(kwh int) models.TariffTier {
	switch {
	case kwh > 500:
		return models.TierDAC
	case kwh > 250:
		return models.TierHigh
	case kwh > 0:
		return models.TierBasic
	default:
		return models.TierUnknown
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
