package batch

import (
	"math"

	"github.com/insightdelivered/cfe-receipt-reader/internal/models"
)

// maxScoredBatch bounds the normalized multi-metric view: beyond this many
// receipts the per-metric bars stop being readable, so only the summary
// statistics are computed.
const maxScoredBatch = 8

// palette assigns each report row a stable color by queue position.
var palette = []string{
	"#6366f1", "#10b981", "#f59e0b", "#ef4444", "#3b82f6",
	"#8b5cf6", "#ec4899", "#14b8a6", "#f97316", "#06b6d4",
	"#84cc16", "#a855f7", "#e11d48", "#0ea5e9", "#22c55e",
	"#d97706", "#7c3aed", "#db2777", "#0284c7", "#16a34a",
}

// Aggregate builds the comparison view over a processed batch. Receipts
// with zero consumption (placeholders and extraction misses) keep their
// rows but are excluded from every statistic.
func Aggregate(receipts []models.Receipt) models.ComparisonReport {
	report := models.ComparisonReport{
		Entries: make([]models.ReportEntry, len(receipts)),
	}

	for i := range receipts {
		report.Entries[i] = models.ReportEntry{
			Index:   i + 1,
			Color:   palette[i%len(palette)],
			Receipt: &receipts[i],
		}
	}

	var sumKWh int
	var sumTotal float64
	for i := range receipts {
		r := &receipts[i]
		if r.KWh <= 0 {
			continue
		}
		if report.ValidCount == 0 || r.KWh < report.MinKWh {
			report.MinKWh = r.KWh
			report.Best = r
		}
		if report.ValidCount == 0 || r.KWh > report.MaxKWh {
			report.MaxKWh = r.KWh
			report.Worst = r
		}
		sumKWh += r.KWh
		sumTotal += r.Total.Float64()
		report.ValidCount++
	}
	if report.ValidCount > 0 {
		report.MeanKWh = round1(float64(sumKWh) / float64(report.ValidCount))
		report.MeanTotal = round2(sumTotal / float64(report.ValidCount))
	}

	if len(receipts) <= maxScoredBatch {
		report.Scores = scoreMetrics(receipts)
	}
	return report
}

// scoreMetrics normalizes the three comparable metrics to a 0-100 scale,
// index-aligned with the receipts.
func scoreMetrics(receipts []models.Receipt) *models.MetricScores {
	kwh := make([]float64, len(receipts))
	total := make([]float64, len(receipts))
	daily := make([]float64, len(receipts))
	for i := range receipts {
		kwh[i] = float64(receipts[i].KWh)
		total[i] = receipts[i].Total.Float64()
		daily[i] = receipts[i].DailyAvgKWh
	}
	return &models.MetricScores{
		KWh:      Normalize(kwh),
		Total:    Normalize(total),
		DailyAvg: Normalize(daily),
	}
}

// Normalize scales values to percentages of the largest one, rounded to a
// tenth. A series without any positive value comes back all zero.
func Normalize(values []float64) []float64 {
	max := 0.0
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	out := make([]float64, len(values))
	if max <= 0 {
		return out
	}
	for i, v := range values {
		if v > 0 {
			out[i] = round1(v / max * 100)
		}
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// round2 matches the two-decimal precision of the displayed money columns.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
