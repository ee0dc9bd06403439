package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/insightdelivered/cfe-receipt-reader/internal/models"
)

// csvHeader is the fixed column set of the comparison export. Column names
// stay in Spanish to match the receipts themselves.
var csvHeader = []string{
	"#", "Titular", "Archivo", "Servicio", "kWh", "Total ($)",
	"Energia", "IVA", "DAP", "Adeudo", "Pago",
	"Media Diaria", "Tarifa", "Periodo", "Limite Pago",
}

// CSVWriter writes a comparison report as CSV, one row per receipt.
type CSVWriter struct {
	// SkipBOM drops the UTF-8 byte order mark. The mark is on by default
	// because Excel misreads accented characters without it.
	SkipBOM bool
}

// WriteToFile writes the report to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, report *models.ComparisonReport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	return w.Write(f, report)
}

// Write writes the report in CSV format to the given writer.
func (w *CSVWriter) Write(out io.Writer, report *models.ComparisonReport) error {
	if !w.SkipBOM {
		if _, err := out.Write([]byte("\uFEFF")); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(out)
	defer writer.Flush()

	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, entry := range report.Entries {
		r := entry.Receipt
		row := []string{
			strconv.Itoa(entry.Index),
			r.Titleholder,
			r.SourceName,
			r.ServiceID,
			strconv.Itoa(r.KWh),
			r.Total.String(),
			r.Energy.String(),
			r.Tax.String(),
			r.FixedCharge.String(),
			r.PriorBalance.String(),
			r.PriorPayment.String(),
			strconv.FormatFloat(r.DailyAvgKWh, 'f', 2, 64),
			string(r.Tariff),
			r.PeriodText,
			r.DueDate,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	return nil
}
