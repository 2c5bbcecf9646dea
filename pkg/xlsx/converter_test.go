package xlsx

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/ruslano69/coffeedash/pkg/core/schema"
	"github.com/ruslano69/coffeedash/pkg/core/table"
)

func sampleTable() *table.Table {
	t := table.New("coffee", []string{"Farm Name", "Harvest Year", "Acidity", "Grading Date"})
	t.Rows = [][]string{
		{"A", "2018", "7.5", "2022-09-21"},
		{"A", "2019", "7.6", "2022-11-15"},
	}
	schema.InferTypes(t)
	return t
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleTable(), "Farm A"); err != nil {
		t.Fatalf("Write: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	if name := f.GetSheetName(0); name != "Farm A" {
		t.Fatalf("sheet = %q, want Farm A", name)
	}
	rows, err := f.GetRows("Farm A")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3 (header + 2)", len(rows))
	}

	wantHeader := []string{"Farm Name (TEXT)", "Harvest Year (INTEGER)", "Acidity (REAL)", "Grading Date (DATE)"}
	for i, want := range wantHeader {
		if rows[0][i] != want {
			t.Errorf("header[%d] = %q, want %q", i, rows[0][i], want)
		}
	}
	if rows[1][0] != "A" || rows[1][1] != "2018" {
		t.Errorf("row 1 = %v", rows[1])
	}

	// Числа записаны как числа, а не строки
	raw, err := f.GetCellValue("Farm A", "C2", excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if raw != "7.5" {
		t.Errorf("C2 raw = %q, want 7.5", raw)
	}
}

func TestToXLSX_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coffee.xlsx")
	if err := ToXLSX(sampleTable(), path, ""); err != nil {
		t.Fatalf("ToXLSX: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()
	if name := f.GetSheetName(0); name != "coffee" {
		t.Errorf("sheet = %q, want table name", name)
	}
}

func TestWrite_EmptyTable(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, table.Empty("coffee"), ""); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("empty workbook not written")
	}
}

func TestSheetName(t *testing.T) {
	tests := []struct {
		preferred, fallback, want string
	}{
		{"Farm A", "coffee", "Farm A"},
		{"", "coffee", "coffee"},
		{"", "", "Sheet1"},
		{"a/b:c?d", "", "a_b_c_d"},
		{"'Quoted'", "", "Quoted"},
		{"Finca La Esperanza y Santa Barbara 2022", "", "Finca La Esperanza y Santa Barb"},
	}
	for _, tt := range tests {
		if got := SheetName(tt.preferred, tt.fallback); got != tt.want {
			t.Errorf("SheetName(%q, %q) = %q, want %q", tt.preferred, tt.fallback, got, tt.want)
		}
	}
}
