package writer

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestBuildReportXLSX(t *testing.T) {
	data, err := BuildReportXLSX(reportFixture())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a readable workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "resumen" || sheets[1] != "recibos" {
		t.Fatalf("sheets = %v, want [resumen recibos]", sheets)
	}

	got, err := f.GetCellValue("resumen", "B4")
	if err != nil {
		t.Fatalf("read summary cell: %v", err)
	}
	if got != "1" {
		t.Errorf("valid count cell = %q, want 1", got)
	}

	got, _ = f.GetCellValue("resumen", "B9")
	if got != "casa.pdf" {
		t.Errorf("best consumer cell = %q, want casa.pdf", got)
	}

	got, _ = f.GetCellValue("recibos", "B2")
	if got != "VALDEZ MORA JULIA" {
		t.Errorf("titleholder cell = %q", got)
	}
	got, _ = f.GetCellValue("recibos", "F2")
	if got != "272" {
		t.Errorf("total cell = %q, want 272", got)
	}
	got, _ = f.GetCellValue("recibos", "B3")
	if got != "Error al leer" {
		t.Errorf("placeholder row cell = %q", got)
	}
}
