package writer

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/insightdelivered/cfe-receipt-reader/internal/models"
)

func reportFixture() *models.ComparisonReport {
	receipts := []models.Receipt{
		{
			SourceName:   "casa.pdf",
			Titleholder:  "VALDEZ MORA JULIA",
			ServiceID:    "202100300330",
			PeriodText:   "del 07 NOV 25 al 08 ENE 26",
			DueDate:      "23/01/2026",
			Total:        27200,
			Energy:       23448,
			Tax:          3752,
			FixedCharge:  4500,
			PriorBalance: 27071,
			PriorPayment: 27000,
			KWh:          150,
			DailyAvgKWh:  2.42,
			Tariff:       models.TierBasic,
		},
		{
			SourceName:  "roto.pdf",
			Titleholder: "Error al leer",
			ServiceID:   "-",
			PeriodText:  "-",
			DueDate:     "-",
			Tariff:      models.TierUnassigned,
			Err:         "unreadable",
		},
	}
	return &models.ComparisonReport{
		Entries: []models.ReportEntry{
			{Index: 1, Color: "#6366f1", Receipt: &receipts[0]},
			{Index: 2, Color: "#10b981", Receipt: &receipts[1]},
		},
		ValidCount: 1,
		MeanKWh:    150,
		MeanTotal:  272,
		MinKWh:     150,
		MaxKWh:     150,
		Best:       &receipts[0],
		Worst:      &receipts[0],
	}
}

func TestCSVWriter_Write(t *testing.T) {
	var buf bytes.Buffer
	w := &CSVWriter{}
	if err := w.Write(&buf, reportFixture()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.HasPrefix(output, "\uFEFF") {
		t.Error("expected UTF-8 BOM prefix")
	}

	reader := csv.NewReader(strings.NewReader(strings.TrimPrefix(output, "\uFEFF")))
	rows, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}

	wantHeader := "#,Titular,Archivo,Servicio,kWh,Total ($),Energia,IVA,DAP,Adeudo,Pago,Media Diaria,Tarifa,Periodo,Limite Pago"
	if got := strings.Join(rows[0], ","); got != wantHeader {
		t.Errorf("header = %q, want %q", got, wantHeader)
	}

	first := rows[1]
	if first[1] != "VALDEZ MORA JULIA" {
		t.Errorf("Titular = %q", first[1])
	}
	if first[5] != "272.00" {
		t.Errorf("Total = %q, want 272.00", first[5])
	}
	if first[11] != "2.42" {
		t.Errorf("Media Diaria = %q, want 2.42", first[11])
	}
	if first[12] != "Domestica Basica" {
		t.Errorf("Tarifa = %q", first[12])
	}

	// Money cells stay machine-readable: parsing the cell must recover the
	// exact amount.
	c, err := models.ParseCents(first[5])
	if err != nil {
		t.Fatalf("Total cell does not parse back: %v", err)
	}
	if c != 27200 {
		t.Errorf("Total round trip = %v, want 272.00", c)
	}
}

func TestCSVWriter_PlaceholderRow(t *testing.T) {
	var buf bytes.Buffer
	w := &CSVWriter{SkipBOM: true}
	if err := w.Write(&buf, reportFixture()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if strings.HasPrefix(output, "\uFEFF") {
		t.Error("BOM written despite SkipBOM")
	}

	reader := csv.NewReader(strings.NewReader(output))
	rows, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}

	ph := rows[2]
	if ph[1] != "Error al leer" {
		t.Errorf("Titular = %q", ph[1])
	}
	if ph[3] != "-" || ph[13] != "-" || ph[14] != "-" {
		t.Errorf("placeholder sentinels missing: %v", ph)
	}
	if ph[4] != "0" || ph[5] != "0.00" {
		t.Errorf("placeholder amounts = kWh %q total %q", ph[4], ph[5])
	}
	if ph[12] != "-" {
		t.Errorf("Tarifa = %q, want -", ph[12])
	}
}
