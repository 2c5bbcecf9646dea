package etl

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ruslano69/coffeedash/pkg/core/table"
	"github.com/ruslano69/coffeedash/pkg/processors"
	"github.com/ruslano69/coffeedash/pkg/security"
)

// sampleRecord - пять образцов из трех ферм, остальные колонки заполнены
var sampleRecord = []struct {
	farm, region, year, acidity string
}{
	{"A", "Huila", "2018", "7.5"},
	{"A", "Huila", "2019", "7.6"},
	{"B", "Sidama", "2018", "7.0"},
	{"B", "Sidama", "2020", "7.2"},
	{"C", "Antigua", "2019", "7.8"},
}

// writeCoffeeCSV пишет CSV со всеми обязательными колонками, кроме skip.
// mutate позволяет подправить отдельные строки.
func writeCoffeeCSV(t *testing.T, skip string, mutate func(i int, row map[string]string)) string {
	t.Helper()

	var header []string
	for _, c := range RequiredColumns {
		if c != skip {
			header = append(header, c)
		}
	}

	path := filepath.Join(t.TempDir(), "coffee.csv")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create csv: %v", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		t.Fatalf("write header: %v", err)
	}
	for i, s := range sampleRecord {
		row := map[string]string{
			"Farm Name":         s.farm,
			"Region":            s.region,
			"Harvest Year":      s.year,
			"Acidity":           s.acidity,
			"Country of Origin": "Colombia",
			"Total Cup Points":  "84.5",
		}
		if mutate != nil {
			mutate(i, row)
		}
		record := make([]string, len(header))
		for j, c := range header {
			v, ok := row[c]
			if !ok {
				v = "x"
			}
			record[j] = v
		}
		if err := w.Write(record); err != nil {
			t.Fatalf("write row: %v", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	return path
}

func TestLoad_AllColumns(t *testing.T) {
	path := writeCoffeeCSV(t, "", nil)

	tbl, diags := NewLoader(SourceConfig{Path: path}).Load(context.Background())
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if tbl.Len() != 5 {
		t.Errorf("rows = %d, want 5", tbl.Len())
	}
	if tbl.Name != DefaultTableName {
		t.Errorf("table name = %q, want %q", tbl.Name, DefaultTableName)
	}
	if diff := cmp.Diff(RequiredColumns, tbl.Columns()); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
	if got := tbl.Column("Farm Name"); !cmp.Equal(got, []string{"A", "A", "B", "B", "C"}) {
		t.Errorf("Farm Name = %v", got)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	tbl, diags := NewLoader(SourceConfig{Path: filepath.Join(t.TempDir(), "nope.csv")}).Load(context.Background())

	if tbl == nil || tbl.Len() != 0 || len(tbl.Columns()) != 0 {
		t.Fatalf("expected empty table, got %+v", tbl)
	}
	if len(diags) != 1 || diags[0].Kind != KindParseError {
		t.Fatalf("diagnostics = %v, want one parse_error", diags)
	}
}

func TestLoadReader(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		delimiter string
		wantCols  []string
		wantRows  int
		wantError bool
	}{
		{"empty file", "", "", nil, 0, true},
		{"header only", "Farm Name,Region\n", "", []string{"Farm Name", "Region"}, 0, false},
		{"bom", "\ufeffFarm Name,Region\nA,Huila\n", "", []string{"Farm Name", "Region"}, 1, false},
		{"semicolon", "Farm Name;Region\nA;Huila\nB;Sidama\n", ";", []string{"Farm Name", "Region"}, 2, false},
		{"duplicate header", "X,X,Y,X\n1,2,3,4\n", "", []string{"X", "X.1", "Y", "X.2"}, 1, false},
		{"short row", "Farm Name,Region\nA,Huila\nB\nC,Antigua\n", "", []string{"Farm Name", "Region"}, 3, false},
		{"long row", "Farm Name,Region\nA,Huila,extra\n", "", nil, 0, true},
		{"bad quote", "Farm Name,Region\n\"A,Huila\n", "", nil, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLoader(SourceConfig{Path: "inline.csv", Delimiter: tt.delimiter})
			tbl, diags := l.LoadReader(context.Background(), strings.NewReader(tt.input))

			if tt.wantError {
				if len(FilterKind(diags, KindParseError)) != 1 {
					t.Fatalf("diagnostics = %v, want parse_error", diags)
				}
				if tbl.Len() != 0 || len(tbl.Columns()) != 0 {
					t.Errorf("expected empty table on parse error")
				}
				return
			}
			if len(diags) != 0 {
				t.Fatalf("unexpected diagnostics: %v", diags)
			}
			if diff := cmp.Diff(tt.wantCols, tbl.Columns()); diff != "" {
				t.Errorf("columns (-want +got):\n%s", diff)
			}
			if tbl.Len() != tt.wantRows {
				t.Errorf("rows = %d, want %d", tbl.Len(), tt.wantRows)
			}
		})
	}
}

func TestLoadReader_EmptyFileMessage(t *testing.T) {
	_, diags := NewLoader(SourceConfig{Path: "x.csv"}).LoadReader(context.Background(), strings.NewReader(""))
	if len(diags) != 1 || !strings.Contains(diags[0].Message, "no columns to parse") {
		t.Errorf("diagnostics = %v", diags)
	}
}

func TestLoadReader_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, diags := NewLoader(SourceConfig{Path: "x.csv"}).LoadReader(ctx, strings.NewReader("a\n1\n"))
	if len(FilterKind(diags, KindParseError)) != 1 {
		t.Errorf("diagnostics = %v, want parse_error", diags)
	}
}

func TestValidate_MissingColumn(t *testing.T) {
	path := writeCoffeeCSV(t, "Mill", nil)
	tbl, _ := NewLoader(SourceConfig{Path: path}).Load(context.Background())

	diags := Validate(tbl, RequiredColumns)
	if len(diags) != 1 {
		t.Fatalf("diagnostics = %v, want exactly one", diags)
	}
	d := diags[0]
	if d.Kind != KindMissingColumns {
		t.Errorf("kind = %s", d.Kind)
	}
	if !cmp.Equal(d.Columns, []string{"Mill"}) {
		t.Errorf("columns = %v, want [Mill]", d.Columns)
	}
	if !strings.Contains(d.Message, "Mill") {
		t.Errorf("message %q does not name Mill", d.Message)
	}
}

func TestValidate_MissingValues(t *testing.T) {
	tbl := table.New("coffee", []string{"Farm Name", "Region"})
	tbl.Rows = [][]string{{"A", "Huila"}, {"B", ""}, {"NaN", "NA"}}

	diags := Validate(tbl, []string{"Farm Name", "Region"})
	if len(diags) != 1 || diags[0].Kind != KindMissingValues {
		t.Fatalf("diagnostics = %v", diags)
	}
	if diags[0].Cells != 3 || diags[0].Rows != 2 {
		t.Errorf("cells/rows = %d/%d, want 3/2", diags[0].Cells, diags[0].Rows)
	}
}

func TestValidate_OrderFollowsRequired(t *testing.T) {
	tbl := table.New("coffee", []string{"Region"})
	got := MissingColumns(tbl, []string{"Mill", "Region", "Altitude", "ID"})
	if diff := cmp.Diff([]string{"Mill", "Altitude", "ID"}, got); diff != "" {
		t.Errorf("missing (-want +got):\n%s", diff)
	}
}

func TestClean_DropsIncompleteRows(t *testing.T) {
	tbl := table.New("coffee", []string{"Farm Name", "Acidity"})
	tbl.Rows = [][]string{{"A", "7.5"}, {"", "7.0"}, {"B", "nan"}, {"C", "7.8"}}

	cleaned, err := Clean(context.Background(), tbl, nil)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	want := [][]string{{"A", "7.5"}, {"C", "7.8"}}
	if diff := cmp.Diff(want, cleaned.Rows); diff != "" {
		t.Errorf("rows (-want +got):\n%s", diff)
	}
	if tbl.Len() != 4 {
		t.Errorf("input table was modified: %d rows", tbl.Len())
	}
}

func TestClean_Idempotent(t *testing.T) {
	tbl := table.New("coffee", []string{"Farm Name", "Acidity"})
	tbl.Rows = [][]string{{"A", "7.5"}, {"B", ""}, {"C", "7.8"}}

	once, err := Clean(context.Background(), tbl, nil)
	if err != nil {
		t.Fatal(err)
	}
	twice, err := Clean(context.Background(), once, nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(once.Rows, twice.Rows); diff != "" {
		t.Errorf("second Clean changed rows (-once +twice):\n%s", diff)
	}
}

func TestClean_CustomChain(t *testing.T) {
	tbl := table.New("coffee", []string{"Farm Name", "Grading Date"})
	tbl.Rows = [][]string{{"A", "September 21, 2022"}, {"B", "January 5, 2023"}}

	chain := processors.NewChain(processors.NewDateNormalizer("Grading Date", []string{"%B %d, %Y"}))
	cleaned, err := Clean(context.Background(), tbl, chain)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if got := cleaned.Column("Grading Date"); !cmp.Equal(got, []string{"2022-09-21", "2023-01-05"}) {
		t.Errorf("Grading Date = %v", got)
	}
	if typ := cleaned.Schema.Fields[1].Type; typ != "DATE" {
		t.Errorf("Grading Date type = %s, want DATE", typ)
	}
	if tbl.Rows[0][1] != "September 21, 2022" {
		t.Error("input table was modified")
	}
}

func TestExecute_EndToEnd(t *testing.T) {
	path := writeCoffeeCSV(t, "", nil)

	res := NewProcessor(SourceConfig{Path: path}, nil).Execute(context.Background())
	if len(res.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %v", res.Diagnostics)
	}
	if res.Table.Len() != 5 {
		t.Errorf("rows = %d, want 5", res.Table.Len())
	}
	if res.Stats.RowsLoaded != 5 || res.Stats.RowsKept != 5 || res.Stats.RowsDropped != 0 {
		t.Errorf("stats = %+v", res.Stats)
	}
	if res.Stats.Columns != len(RequiredColumns) {
		t.Errorf("columns = %d, want %d", res.Stats.Columns, len(RequiredColumns))
	}
	if len(res.Checksum) != 16 {
		t.Errorf("checksum = %q", res.Checksum)
	}
}

func TestExecute_MissingValuesDropped(t *testing.T) {
	path := writeCoffeeCSV(t, "", func(i int, row map[string]string) {
		if i == 2 {
			row["Acidity"] = ""
		}
	})

	res := NewProcessor(SourceConfig{Path: path}, nil).Execute(context.Background())
	if len(FilterKind(res.Diagnostics, KindMissingValues)) != 1 {
		t.Errorf("diagnostics = %v, want missing_values", res.Diagnostics)
	}
	if res.Stats.RowsDropped != 1 || res.Table.Len() != 4 {
		t.Errorf("dropped=%d kept=%d", res.Stats.RowsDropped, res.Table.Len())
	}
	if got := res.Table.Column("Farm Name"); !cmp.Equal(got, []string{"A", "A", "B", "C"}) {
		t.Errorf("Farm Name = %v", got)
	}
}

func TestExecute_ShortRowDropped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.csv")
	if err := os.WriteFile(path, []byte("Farm Name,Region\nA,Huila\nB\nC,Antigua\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	res := NewProcessor(SourceConfig{Path: path}, nil).
		WithRequired([]string{"Farm Name", "Region"}).
		Execute(context.Background())

	if len(FilterKind(res.Diagnostics, KindParseError)) != 0 {
		t.Fatalf("diagnostics = %v, short row must not fail the load", res.Diagnostics)
	}
	missing := FilterKind(res.Diagnostics, KindMissingValues)
	if len(missing) != 1 || missing[0].Cells != 1 || missing[0].Rows != 1 {
		t.Errorf("missing_values = %+v, want 1 cell in 1 row", missing)
	}
	if res.Stats.RowsLoaded != 3 || res.Stats.RowsKept != 2 {
		t.Errorf("stats = %+v", res.Stats)
	}
	if got := res.Table.Column("Farm Name"); !cmp.Equal(got, []string{"A", "C"}) {
		t.Errorf("Farm Name = %v", got)
	}
}

func TestExecute_ParseError(t *testing.T) {
	res := NewProcessor(SourceConfig{Path: filepath.Join(t.TempDir(), "missing.csv")}, nil).Execute(context.Background())

	if res.Table == nil || res.Table.Len() != 0 {
		t.Fatalf("expected empty table")
	}
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Kind != KindParseError {
		t.Errorf("diagnostics = %v, want only parse_error", res.Diagnostics)
	}
}

func TestComputeViews(t *testing.T) {
	path := writeCoffeeCSV(t, "", nil)
	res := NewProcessor(SourceConfig{Path: path}, nil).Execute(context.Background())

	views := append(DefaultViews(),
		ViewConfig{Name: "broken", SQL: "SELECT nope FROM nowhere"},
		ViewConfig{Name: "writer", SQL: "DELETE FROM coffee"},
	)
	results, err := ComputeViews(context.Background(), res.Table, views)
	if err != nil {
		t.Fatalf("ComputeViews: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("results = %d, want 4", len(results))
	}

	byYear := results[0]
	if byYear.Err != nil {
		t.Fatalf("acidity_by_year: %v", byYear.Err)
	}
	want := [][]string{
		{"2018", "2", "7.25"},
		{"2019", "2", "7.7"},
		{"2020", "1", "7.2"},
	}
	if diff := cmp.Diff(want, byYear.Table.Rows); diff != "" {
		t.Errorf("acidity_by_year rows (-want +got):\n%s", diff)
	}

	byCountry := results[1]
	if byCountry.Err != nil {
		t.Fatalf("farms_by_country: %v", byCountry.Err)
	}
	if diff := cmp.Diff([][]string{{"Colombia", "3", "84.5"}}, byCountry.Table.Rows); diff != "" {
		t.Errorf("farms_by_country rows (-want +got):\n%s", diff)
	}

	if results[2].Err == nil || results[2].Table != nil {
		t.Errorf("broken view should fail: %+v", results[2])
	}
	if !errors.Is(results[3].Err, security.ErrUnsafeSQL) {
		t.Errorf("writer view: err = %v, want ErrUnsafeSQL", results[3].Err)
	}
}

func TestComputeViews_EmptySource(t *testing.T) {
	results, err := ComputeViews(context.Background(), table.Empty("coffee"), DefaultViews())
	if err != nil {
		t.Fatalf("ComputeViews: %v", err)
	}
	for _, r := range results {
		if r.Err == nil {
			t.Errorf("view %s: expected error for table without columns", r.Config.Name)
		}
	}
}

func TestSourceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		src     SourceConfig
		wantErr bool
	}{
		{"defaults", SourceConfig{}, false},
		{"semicolon", SourceConfig{Delimiter: ";"}, false},
		{"tab", SourceConfig{Delimiter: "\t"}, false},
		{"two chars", SourceConfig{Delimiter: ";;"}, true},
		{"quote", SourceConfig{Delimiter: `"`}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := tt.src
			src.ApplyDefaults()
			if err := src.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRequiredColumns(t *testing.T) {
	if len(RequiredColumns) != 40 || RequiredColumns[0] != "ID" {
		t.Errorf("RequiredColumns = %d names starting with %q, want 40 starting with ID", len(RequiredColumns), RequiredColumns[0])
	}
	seen := map[string]bool{}
	for _, c := range RequiredColumns {
		if seen[c] {
			t.Errorf("duplicate required column %q", c)
		}
		seen[c] = true
	}
}
