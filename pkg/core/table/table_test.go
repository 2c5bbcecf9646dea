package table

import "testing"

func sampleTable() *Table {
	t := New("coffee", []string{"Farm Name", "Harvest Year", "Acidity"})
	t.Rows = [][]string{
		{"A", "2018", "7.5"},
		{"A", "2019", "7.6"},
		{"B", "2018", "7.0"},
		{"a", "2020", "7.8"},
	}
	return t
}

func TestWhere_ExactMatch(t *testing.T) {
	tbl := sampleTable()

	tests := []struct {
		value string
		want  int
	}{
		{"A", 2},
		{"a", 1},
		{"B", 1},
		{"A ", 0},
		{"Z", 0},
	}

	for _, tt := range tests {
		got := tbl.Where("Farm Name", tt.value)
		if got.Len() != tt.want {
			t.Errorf("Where(%q) = %d rows, want %d", tt.value, got.Len(), tt.want)
		}
	}
}

func TestWhere_UnknownColumn(t *testing.T) {
	got := sampleTable().Where("Mill", "A")
	if got.Len() != 0 {
		t.Errorf("Where on unknown column returned %d rows, want 0", got.Len())
	}
}

func TestProject(t *testing.T) {
	got := sampleTable().Project("Acidity", "Missing", "Farm Name")

	if cols := got.Columns(); len(cols) != 2 || cols[0] != "Acidity" || cols[1] != "Farm Name" {
		t.Fatalf("Project columns = %v", cols)
	}
	if got.Rows[1][0] != "7.6" || got.Rows[1][1] != "A" {
		t.Errorf("Project row 1 = %v", got.Rows[1])
	}
}

func TestClone_Independent(t *testing.T) {
	orig := sampleTable()
	cp := orig.Clone()
	cp.Rows[0][0] = "changed"

	if orig.Rows[0][0] != "A" {
		t.Error("Clone shares row storage with the original")
	}
	if !SchemaEquals(orig.Schema, cp.Schema) {
		t.Error("Clone schema differs")
	}
}

func TestIsMissing(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"", true},
		{"NA", true},
		{"NaN", true},
		{"null", true},
		{"N/A", true},
		{" ", false},
		{"0", false},
		{"Nan", false},
		{"Colombia", false},
	}

	for _, tt := range tests {
		if got := IsMissing(tt.value); got != tt.want {
			t.Errorf("IsMissing(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestMissingCells(t *testing.T) {
	tbl := sampleTable()
	tbl.Rows = append(tbl.Rows, []string{"C", "", "NaN"}, []string{"D"})

	cells, rows := tbl.MissingCells()
	if cells != 4 {
		t.Errorf("cells = %d, want 4", cells)
	}
	if rows != 2 {
		t.Errorf("rows = %d, want 2", rows)
	}
}
