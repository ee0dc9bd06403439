package models

// TariffTier is the consumption-based classification bucket printed on the
// receipt summary.
type TariffTier string

const (
	TierUnknown    TariffTier = "Desconocida"
	TierBasic      TariffTier = "Domestica Basica"
	TierHigh       TariffTier = "Domestica Alta"
	TierDAC        TariffTier = "Alto Consumo (DAC)"
	TierUnassigned TariffTier = "-"
)

// PeriodDate is one boundary of a billing period as printed: day, month
// abbreviation, and two-digit year.
type PeriodDate struct {
	Day   int    `json:"day"`
	Month string `json:"month"`
	Year  int    `json:"year"`
}

// BillingPeriod holds both parsed boundaries of a billing period.
type BillingPeriod struct {
	Start PeriodDate `json:"start"`
	End   PeriodDate `json:"end"`
}

// HistoricalEntry is one past billing cycle recovered from the usage table.
type HistoricalEntry struct {
	Label  string        `json:"label"`
	Period BillingPeriod `json:"period"`
	KWh    int           `json:"kwh"`
	Amount Cents         `json:"amount"`
}

// PartialReceipt is the direct extraction result before reconciliation.
// A zero amount or sentinel string means the field was not found; field
// misses never surface as errors.
type PartialReceipt struct {
	SourceName   string
	Titleholder  string
	ServiceID    string
	PeriodText   string
	Period       *BillingPeriod
	DueDate      string
	Total        Cents
	Energy       Cents
	Tax          Cents
	FixedCharge  Cents
	PriorBalance Cents
	PriorPayment Cents
	KWh          int
	History      []HistoricalEntry
}

// Receipt is the reconciled extraction result for one source document.
// It is constructed once and treated as immutable afterwards.
type Receipt struct {
	SourceName   string            `json:"sourceName"`
	Titleholder  string            `json:"titleholder"`
	ServiceID    string            `json:"serviceId"`
	PeriodText   string            `json:"periodText"`
	Period       *BillingPeriod    `json:"period,omitempty"`
	DueDate      string            `json:"dueDate"`
	Total        Cents             `json:"total"`
	Energy       Cents             `json:"energy"`
	Tax          Cents             `json:"tax"`
	Invoiced     Cents             `json:"invoiced"` // energy + tax for the period
	FixedCharge  Cents             `json:"fixedCharge"`
	PriorBalance Cents             `json:"priorBalance"`
	PriorPayment Cents             `json:"priorPayment"`
	KWh          int               `json:"kwh"`
	DailyAvgKWh  float64           `json:"dailyAvgKwh"`
	Tariff       TariffTier        `json:"tariff"`
	History      []HistoricalEntry `json:"history,omitempty"`

	// Err marks a placeholder produced when a batch document could not be
	// acquired at all; every other field is zeroed or sentinel.
	Err string `json:"error,omitempty"`
}
