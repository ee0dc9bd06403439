package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/cfe-receipt-reader/internal/models"
)

func receiptsFixture() []models.Receipt {
	return []models.Receipt{
		{SourceName: "casa.pdf", KWh: 150, Total: 27200, DailyAvgKWh: 2.42},
		{SourceName: "depto.pdf", KWh: 325, Total: 41000, DailyAvgKWh: 5.24},
		{SourceName: "oficina.pdf", KWh: 89, Total: 15000, DailyAvgKWh: 1.44},
		{SourceName: "taller.pdf", KWh: 612, Total: 80000, DailyAvgKWh: 9.87},
		{SourceName: "local.pdf", KWh: 210, Total: 30000, DailyAvgKWh: 3.39},
		{SourceName: "roto.pdf", Titleholder: "Error al leer", Tariff: models.TierUnassigned, Err: "unreadable"},
	}
}

func TestAggregateStatistics(t *testing.T) {
	report := Aggregate(receiptsFixture())

	require.Len(t, report.Entries, 6)
	assert.Equal(t, 5, report.ValidCount)
	assert.Equal(t, 277.2, report.MeanKWh)
	assert.Equal(t, 386.4, report.MeanTotal)
	assert.Equal(t, 89, report.MinKWh)
	assert.Equal(t, 612, report.MaxKWh)

	require.NotNil(t, report.Best)
	assert.Equal(t, "oficina.pdf", report.Best.SourceName)
	require.NotNil(t, report.Worst)
	assert.Equal(t, "taller.pdf", report.Worst.SourceName)
}

func TestAggregateMeanTotalKeepsCents(t *testing.T) {
	report := Aggregate([]models.Receipt{
		{SourceName: "a.pdf", KWh: 100, Total: 10001},
		{SourceName: "b.pdf", KWh: 120, Total: 10002},
	})
	assert.Equal(t, 100.02, report.MeanTotal, "mean cost is money, two decimals")
}

func TestAggregateKeepsFailedRowsOutOfStats(t *testing.T) {
	report := Aggregate(receiptsFixture())

	// The unreadable document keeps its row but contributes nothing.
	last := report.Entries[5]
	assert.Equal(t, 6, last.Index)
	assert.Equal(t, "roto.pdf", last.Receipt.SourceName)
	assert.Equal(t, "unreadable", last.Receipt.Err)
}

func TestAggregateEntryIndexAndColor(t *testing.T) {
	report := Aggregate(receiptsFixture())

	assert.Equal(t, 1, report.Entries[0].Index)
	assert.Equal(t, "#6366f1", report.Entries[0].Color)
	assert.Equal(t, "#8b5cf6", report.Entries[5].Color)
}

func TestAggregateScores(t *testing.T) {
	report := Aggregate(receiptsFixture())

	require.NotNil(t, report.Scores)
	assert.Equal(t, []float64{24.5, 53.1, 14.5, 100, 34.3, 0}, report.Scores.KWh)
	assert.Equal(t, 100.0, report.Scores.Total[3])
	assert.Equal(t, 0.0, report.Scores.DailyAvg[5])
}

func TestAggregateLargeBatchSkipsScores(t *testing.T) {
	receipts := make([]models.Receipt, 9)
	for i := range receipts {
		receipts[i].KWh = 100 + i
	}
	report := Aggregate(receipts)
	assert.Nil(t, report.Scores)
	assert.Equal(t, 9, report.ValidCount)
}

func TestAggregateAllZero(t *testing.T) {
	report := Aggregate(make([]models.Receipt, 3))
	assert.Equal(t, 0, report.ValidCount)
	assert.Equal(t, 0.0, report.MeanKWh)
	assert.Nil(t, report.Best)
	assert.Nil(t, report.Worst)
	require.NotNil(t, report.Scores)
	assert.Equal(t, []float64{0, 0, 0}, report.Scores.KWh)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, []float64{100, 50, 0}, Normalize([]float64{100, 50, 0}))
	assert.Equal(t, []float64{50, 100, 25}, Normalize([]float64{10, 20, 5}))
	assert.Equal(t, []float64{0, 0}, Normalize([]float64{0, 0}))
	assert.Equal(t, []float64{33.3, 100}, Normalize([]float64{1, 3}))
}
