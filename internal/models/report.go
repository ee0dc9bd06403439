package models

// ReportEntry is one receipt's slot in a comparison, with its stable
// display index and rank color.
type ReportEntry struct {
	Index   int      `json:"index"`
	Color   string   `json:"color"`
	Receipt *Receipt `json:"receipt"`
}

// MetricScores holds the 0-100 normalized scores per receipt for the three
// comparable metrics. Slices are index-aligned with ComparisonReport.Entries.
type MetricScores struct {
	KWh      []float64 `json:"kwh"`
	Total    []float64 `json:"total"`
	DailyAvg []float64 `json:"dailyAvg"`
}

// ComparisonReport is a read-only view over a batch of receipts. It
// references the receipts, never mutates them, and is rebuilt from scratch
// whenever the batch changes.
type ComparisonReport struct {
	Entries []ReportEntry `json:"entries"`

	// Statistics over receipts with positive consumption. Zero-consumption
	// entries (extraction failures) stay in Entries but are excluded here.
	ValidCount int      `json:"validCount"`
	MeanKWh    float64  `json:"meanKwh"`
	MeanTotal  float64  `json:"meanTotal"`
	MinKWh     int      `json:"minKwh"`
	MaxKWh     int      `json:"maxKwh"`
	Best       *Receipt `json:"best,omitempty"`
	Worst      *Receipt `json:"worst,omitempty"`

	// Scores is nil when the batch is too large for the normalized
	// multi-metric view.
	Scores *MetricScores `json:"scores,omitempty"`
}
