package writer

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/insightdelivered/cfe-receipt-reader/internal/models"
)

// BuildReportXLSX renders a comparison report as an XLSX workbook: a
// summary sheet with the batch statistics and a recibos sheet with one row
// per receipt, mirroring the CSV columns.
func BuildReportXLSX(report *models.ComparisonReport) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "resumen"
	receiptsSheet := "recibos"
	f.SetSheetName("Sheet1", summarySheet)
	if _, err := f.NewSheet(receiptsSheet); err != nil {
		return nil, fmt.Errorf("failed to create receipts sheet: %w", err)
	}

	_ = f.SetCellValue(summarySheet, "A1", "Comparativo de Recibos CFE")
	_ = f.SetCellValue(summarySheet, "A3", "Recibos")
	_ = f.SetCellValue(summarySheet, "B3", len(report.Entries))
	_ = f.SetCellValue(summarySheet, "A4", "Recibos con consumo")
	_ = f.SetCellValue(summarySheet, "B4", report.ValidCount)
	_ = f.SetCellValue(summarySheet, "A5", "Consumo promedio (kWh)")
	_ = f.SetCellValue(summarySheet, "B5", report.MeanKWh)
	_ = f.SetCellValue(summarySheet, "A6", "Total promedio ($)")
	_ = f.SetCellValue(summarySheet, "B6", report.MeanTotal)
	_ = f.SetCellValue(summarySheet, "A7", "Consumo minimo (kWh)")
	_ = f.SetCellValue(summarySheet, "B7", report.MinKWh)
	_ = f.SetCellValue(summarySheet, "A8", "Consumo maximo (kWh)")
	_ = f.SetCellValue(summarySheet, "B8", report.MaxKWh)
	if report.Best != nil {
		_ = f.SetCellValue(summarySheet, "A9", "Menor consumo")
		_ = f.SetCellValue(summarySheet, "B9", report.Best.SourceName)
	}
	if report.Worst != nil {
		_ = f.SetCellValue(summarySheet, "A10", "Mayor consumo")
		_ = f.SetCellValue(summarySheet, "B10", report.Worst.SourceName)
	}

	for col, name := range csvHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to address header cell: %w", err)
		}
		_ = f.SetCellValue(receiptsSheet, cell, name)
	}

	for i, entry := range report.Entries {
		r := entry.Receipt
		row := i + 2
		values := []interface{}{
			entry.Index,
			r.Titleholder,
			r.SourceName,
			r.ServiceID,
			r.KWh,
			r.Total.Float64(),
			r.Energy.Float64(),
			r.Tax.Float64(),
			r.FixedCharge.Float64(),
			r.PriorBalance.Float64(),
			r.PriorPayment.Float64(),
			r.DailyAvgKWh,
			string(r.Tariff),
			r.PeriodText,
			r.DueDate,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, fmt.Errorf("failed to address row cell: %w", err)
			}
			_ = f.SetCellValue(receiptsSheet, cell, v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf.Bytes(), nil
}
