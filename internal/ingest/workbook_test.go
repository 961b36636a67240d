package ingest

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/dsifab/fabsched/constants"
)

// writeWorkbook builds a small JCS-shaped workbook: a title row, the header
// row, a customer context row, then job and component rows under it.
func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				t.Fatalf("set cell: %v", err)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "jcs.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

func TestParseWorkbook(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"JCS Schedule Export"},
		{"SALES_ORDER", "MARK_INFO", "CUSTOMER", "CODE_SORT", "JOB", "DESCRIPTION", "DATE_DUE_LINE", "WELD_POINTS", "QTY_ORDER"},
		{"SO-9001", "NYCHA BLDG 4", "Apex Interiors", "DOORS", "", "", "", "", ""},
		{"", "", "", "", "240115", "swing door 16ga", "2026-09-28", "45", "12"},
		{"", "", "", "", "240116", "door frames", "9/30/2026", "30.5", ""},
		{"", "", "", "", "", "hinge kit, purchased", "", "", "24"},
		{"SO-9002", "LOBBY RAIL", "Borough Metal Co", "FAB", "", "", "", "", ""},
		{"", "", "", "", "240117", "guard rail sections", "2026-10-05", "80", ""},
		{"", "", "", "", "240118", "no points row", "2026-10-05", "", ""},
	})

	res, err := ParseWorkbook(path, "")
	if err != nil {
		t.Fatalf("ParseWorkbook: %v", err)
	}

	if len(res.Jobs) != 3 {
		t.Fatalf("parsed %d jobs, want 3: %+v", len(res.Jobs), res.Warnings)
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Row != 9 {
		t.Fatalf("warnings = %+v, want one for row 9", res.Warnings)
	}

	j := res.Jobs[0]
	if j.JobNumber != "240115" || j.CustomerName != "Apex Interiors" || j.SalesOrder != "SO-9001" {
		t.Fatalf("first job context wrong: %+v", j)
	}
	if j.JobName != "NYCHA BLDG 4" {
		t.Fatalf("job name = %q, want project mark", j.JobName)
	}
	if j.ProductType != constants.ProductDoors {
		t.Fatalf("product type = %s, want DOORS", j.ProductType)
	}
	if j.WeldingPoints != 45 || j.Quantity != 12 {
		t.Fatalf("points/qty = %v/%d, want 45/12", j.WeldingPoints, j.Quantity)
	}
	if want := time.Date(2026, 9, 28, 0, 0, 0, 0, time.UTC); !j.DueDate.Equal(want) {
		t.Fatalf("due date = %v, want %v", j.DueDate, want)
	}

	// Second job inherits the same context and parses the slash date form.
	if j2 := res.Jobs[1]; j2.SalesOrder != "SO-9001" || !j2.DueDate.Equal(time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("second job: %+v", j2)
	}

	// Third job picks up the new customer header.
	j3 := res.Jobs[2]
	if j3.CustomerName != "Borough Metal Co" || j3.ProductType != constants.ProductFAB {
		t.Fatalf("third job context wrong: %+v", j3)
	}
	if j3.Quantity != 0 {
		t.Fatalf("quantity = %d, want 0 when the cell is empty", j3.Quantity)
	}
}

func TestParseWorkbookNoHeader(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"nothing"},
		{"useful", "here"},
	})
	if _, err := ParseWorkbook(path, ""); err == nil || !strings.Contains(err.Error(), "header") {
		t.Fatalf("err = %v, want header error", err)
	}
}

func TestParseWorkbookMissingSheet(t *testing.T) {
	path := writeWorkbook(t, [][]any{{"x"}})
	if _, err := ParseWorkbook(path, "NoSuchSheet"); err == nil {
		t.Fatal("expected error for missing sheet")
	}
}

func TestParseDateSerial(t *testing.T) {
	// Excel serial 46280 is 2026-09-15.
	got, err := parseDate("46280")
	if err != nil {
		t.Fatalf("parseDate: %v", err)
	}
	if want := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("serial date = %v, want %v", got, want)
	}
}
