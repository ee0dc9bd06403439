package parser

import (
	"fmt"

	"github.com/spf13/viper"
)

// Locale carries every jurisdiction-specific constant the extraction rules
// depend on: month abbreviations, the label vocabulary for each money
// field, the tax rate, and the display sentinels. Retargeting the reader to
// another utility or country means swapping this value, not the parser.
type Locale struct {
	// Months maps printed month abbreviations to month numbers 1-12.
	Months map[string]int `mapstructure:"months"`

	// CenturyBase is added to two-digit years (25 → 2025).
	CenturyBase int `mapstructure:"century_base"`

	// TaxRate is the VAT fraction baked into the energy/tax split.
	TaxRate float64 `mapstructure:"tax_rate"`

	// CurrencySign precedes printed amounts.
	CurrencySign string `mapstructure:"currency_sign"`

	// BrandToken is the utility's own name; titleholder candidates that
	// contain it are rejected.
	BrandToken string `mapstructure:"brand_token"`

	// Sentinel is the display value for unresolved text fields.
	Sentinel string `mapstructure:"sentinel"`

	// DefaultPeriodDays is the cycle length assumed when the billing
	// period cannot be parsed (bimonthly).
	DefaultPeriodDays int `mapstructure:"default_period_days"`

	// Label sets for the amount locator, ordered by preference.
	EnergyLabels       []string `mapstructure:"energy_labels"`
	TaxLabels          []string `mapstructure:"tax_labels"`
	FixedChargeLabels  []string `mapstructure:"fixed_charge_labels"`
	PriorBalanceLabels []string `mapstructure:"prior_balance_labels"`
	PriorPaymentLabels []string `mapstructure:"prior_payment_labels"`
}

// DefaultLocale returns the CFE (Mexico) constants the reader was built
// around.
func DefaultLocale() *Locale {
	return &Locale{
		Months: map[string]int{
			"ENE": 1, "FEB": 2, "MAR": 3, "ABR": 4, "MAY": 5, "JUN": 6,
			"JUL": 7, "AGO": 8, "SEP": 9, "OCT": 10, "NOV": 11, "DIC": 12,
		},
		CenturyBase:        2000,
		TaxRate:            0.16,
		CurrencySign:       "$",
		BrandToken:         "CFE",
		Sentinel:           "No detectado",
		DefaultPeriodDays:  60,
		EnergyLabels:       []string{"Energia", "ENERGIA", "Suministro"},
		TaxLabels:          []string{"IVA 16%", "IVA 16", "IVA"},
		FixedChargeLabels:  []string{"DAP", "Alumbrado"},
		PriorBalanceLabels: []string{"Adeudo Anterior", "Saldo Anterior"},
		PriorPaymentLabels: []string{"Su Pago", "SU PAGO", "Pago Anterior"},
	}
}

// LoadLocale reads a YAML locale file and merges it over the defaults, so
// an override file only needs the keys it changes.
func LoadLocale(path string) (*Locale, error) {
	loc := DefaultLocale()
	if path == "" {
		return loc, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read locale config %q: %w", path, err)
	}
	if err := v.Unmarshal(loc); err != nil {
		return nil, fmt.Errorf("failed to parse locale config %q: %w", path, err)
	}
	// viper lowercases config keys; fold the month table back to the
	// uppercase form MonthNum looks up.
	months := make(map[string]int, len(loc.Months))
	for abbr, n := range loc.Months {
		months[upperASCII(abbr)] = n
	}
	loc.Months = months
	if err := loc.validate(); err != nil {
		return nil, fmt.Errorf("invalid locale config %q: %w", path, err)
	}
	return loc, nil
}

func (l *Locale) validate() error {
	if len(l.Months) < 12 {
		return fmt.Errorf("month table must cover 12 months, got %d entries", len(l.Months))
	}
	if l.TaxRate <= 0 || l.TaxRate >= 1 {
		return fmt.Errorf("tax rate %v out of range (0,1)", l.TaxRate)
	}
	if l.DefaultPeriodDays <= 0 {
		return fmt.Errorf("default period days must be positive")
	}
	return nil
}

// MonthNum resolves a printed month abbreviation, case-insensitively.
func (l *Locale) MonthNum(abbr string) (int, bool) {
	n, ok := l.Months[upperASCII(abbr)]
	return n, ok
}

// MonthTwoDigit renders the month number for an abbreviation as "01".."12",
// defaulting to "01" for unknown abbreviations as the due-date rule does.
func (l *Locale) MonthTwoDigit(abbr string) string {
	n, ok := l.MonthNum(abbr)
	if !ok {
		n = 1
	}
	return fmt.Sprintf("%02d", n)
}

func upperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}
