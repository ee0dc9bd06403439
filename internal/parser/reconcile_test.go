package parser

import (
	"testing"

	"github.com/insightdelivered/cfe-receipt-reader/internal/models"
)

func TestReconcileDerivesBreakdownFromTotal(t *testing.T) {
	e := NewExtractor(DefaultLocale())
	r := e.Reconcile(models.PartialReceipt{
		Total:        27200,
		PriorBalance: 27071,
		PriorPayment: 27000,
	})

	// total - prior balance + prior payment = 271.29, which is below the
	// printed total, so the taxed base snaps back up to the total.
	if r.Energy != 23448 {
		t.Errorf("Energy = %v, want 234.48", r.Energy)
	}
	if r.Tax != 3752 {
		t.Errorf("Tax = %v, want 37.52", r.Tax)
	}
	if r.Invoiced != 27200 {
		t.Errorf("Invoiced = %v, want 272.00", r.Invoiced)
	}
	if r.Total != 27200 {
		t.Errorf("Total = %v, want 272.00", r.Total)
	}
	if sum := r.Energy + r.Tax; sum != r.Invoiced {
		t.Errorf("Energy+Tax = %v, Invoiced = %v, want equal", sum, r.Invoiced)
	}
}

func TestReconcileCarriedBalanceRaisesBase(t *testing.T) {
	e := NewExtractor(DefaultLocale())
	// No prior amounts at all: the base is just the total.
	r := e.Reconcile(models.PartialReceipt{Total: 11600})
	if r.Energy != 10000 {
		t.Errorf("Energy = %v, want 100.00", r.Energy)
	}
	if r.Tax != 1600 {
		t.Errorf("Tax = %v, want 16.00", r.Tax)
	}

	// A payment larger than the carried balance pushes the base above the
	// printed total.
	r = e.Reconcile(models.PartialReceipt{
		Total:        11600,
		PriorBalance: 5000,
		PriorPayment: 10800,
	})
	if r.Energy != 15000 {
		t.Errorf("Energy = %v, want 150.00", r.Energy)
	}
	if r.Tax != 2400 {
		t.Errorf("Tax = %v, want 24.00", r.Tax)
	}
}

func TestReconcileKeepsDirectBreakdown(t *testing.T) {
	e := NewExtractor(DefaultLocale())
	r := e.Reconcile(models.PartialReceipt{
		Total:  27200,
		Energy: 23387,
		Tax:    3742,
	})
	if r.Energy != 23387 || r.Tax != 3742 {
		t.Errorf("breakdown changed: Energy=%v Tax=%v", r.Energy, r.Tax)
	}
	if r.Invoiced != 27129 {
		t.Errorf("Invoiced = %v, want 271.29", r.Invoiced)
	}
	// The printed total stays authoritative for display.
	if r.Total != 27200 {
		t.Errorf("Total = %v, want 272.00", r.Total)
	}
}

func TestReconcileMissingTotalFallsBackToInvoiced(t *testing.T) {
	e := NewExtractor(DefaultLocale())
	r := e.Reconcile(models.PartialReceipt{Energy: 23387, Tax: 3742})
	if r.Total != 27129 {
		t.Errorf("Total = %v, want invoiced 271.29", r.Total)
	}
}

func TestPeriodDays(t *testing.T) {
	e := NewExtractor(DefaultLocale())
	tests := []struct {
		name   string
		period *models.BillingPeriod
		want   int
	}{
		{
			name:   "missing period uses default cycle",
			period: nil,
			want:   60,
		},
		{
			name: "bimonthly span across year end",
			period: &models.BillingPeriod{
				Start: models.PeriodDate{Day: 7, Month: "NOV", Year: 25},
				End:   models.PeriodDate{Day: 8, Month: "ENE", Year: 26},
			},
			want: 62,
		},
		{
			name: "reversed boundaries still count forward",
			period: &models.BillingPeriod{
				Start: models.PeriodDate{Day: 8, Month: "ENE", Year: 26},
				End:   models.PeriodDate{Day: 7, Month: "NOV", Year: 25},
			},
			want: 62,
		},
		{
			name: "unknown month falls back",
			period: &models.BillingPeriod{
				Start: models.PeriodDate{Day: 7, Month: "XXX", Year: 25},
				End:   models.PeriodDate{Day: 8, Month: "ENE", Year: 26},
			},
			want: 60,
		},
		{
			name: "implausibly long span falls back",
			period: &models.BillingPeriod{
				Start: models.PeriodDate{Day: 1, Month: "ENE", Year: 25},
				End:   models.PeriodDate{Day: 1, Month: "ENE", Year: 26},
			},
			want: 60,
		},
		{
			name: "zero span falls back",
			period: &models.BillingPeriod{
				Start: models.PeriodDate{Day: 7, Month: "NOV", Year: 25},
				End:   models.PeriodDate{Day: 7, Month: "NOV", Year: 25},
			},
			want: 60,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.periodDays(tt.period); got != tt.want {
				t.Errorf("periodDays() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestReconcileDailyAverage(t *testing.T) {
	e := NewExtractor(DefaultLocale())
	r := e.Reconcile(models.PartialReceipt{
		KWh: 150,
		Period: &models.BillingPeriod{
			Start: models.PeriodDate{Day: 7, Month: "NOV", Year: 25},
			End:   models.PeriodDate{Day: 8, Month: "ENE", Year: 26},
		},
	})
	if r.DailyAvgKWh != 2.42 {
		t.Errorf("DailyAvgKWh = %v, want 2.42", r.DailyAvgKWh)
	}

	r = e.Reconcile(models.PartialReceipt{KWh: 0})
	if r.DailyAvgKWh != 0 {
		t.Errorf("DailyAvgKWh = %v, want 0 when consumption is unknown", r.DailyAvgKWh)
	}
}

func TestClassifyTariff(t *testing.T) {
	tests := []struct {
		kwh  int
		want models.TariffTier
	}{
		{0, models.TierUnknown},
		{-3, models.TierUnknown},
		{1, models.TierBasic},
		{250, models.TierBasic},
		{251, models.TierHigh},
		{500, models.TierHigh},
		{501, models.TierDAC},
		{1200, models.TierDAC},
	}
	for _, tt := range tests {
		if got := ClassifyTariff(tt.kwh); got != tt.want {
			t.Errorf("ClassifyTariff(%d) = %q, want %q", tt.kwh, got, tt.want)
		}
	}
}
