package processors

import (
	"context"
	"testing"

	"github.com/ruslano69/coffeedash/pkg/core/table"
)

func TestParseColumnDates(t *testing.T) {
	tests := []struct {
		name       string
		values     []string
		formats    []string
		wantOK     bool
		wantFormat string
	}{
		{
			name:       "first format wins",
			values:     []string{"2022-09-21", "2023-01-05"},
			formats:    []string{"2006-01-02", "%Y-%m-%d"},
			wantOK:     true,
			wantFormat: "2006-01-02",
		},
		{
			name:       "falls through to second format",
			values:     []string{"2022-09-21", "2023-01-05"},
			formats:    []string{"%d/%m/%Y", "%Y-%m-%d"},
			wantOK:     true,
			wantFormat: "%Y-%m-%d",
		},
		{
			name:       "one bad value rejects the format",
			values:     []string{"21/09/2022", "2023-01-05"},
			formats:    []string{"%d/%m/%Y", "%Y-%m-%d"},
			wantOK:     false,
		},
		{
			name:       "long month names",
			values:     []string{"September 21, 2022"},
			formats:    []string{"January 2, 2006"},
			wantOK:     true,
			wantFormat: "January 2, 2006",
		},
		{
			name:       "missing values are skipped",
			values:     []string{"2022-09-21", ""},
			formats:    []string{"2006-01-02"},
			wantOK:     true,
			wantFormat: "2006-01-02",
		},
		{
			name:       "unpadded day",
			values:     []string{"January 5, 2023", "September 21, 2022"},
			formats:    []string{"%B %d, %Y"},
			wantOK:     true,
			wantFormat: "%B %d, %Y",
		},
		{
			name:       "unpadded month and day",
			values:     []string{"1/5/2023", "12/25/2022"},
			formats:    []string{"%Y-%m-%d", "%m/%d/%Y"},
			wantOK:     true,
			wantFormat: "%m/%d/%Y",
		},
		{
			name:    "no formats",
			values:  []string{"2022-09-21"},
			formats: nil,
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseColumnDates(tt.values, tt.formats)
			if ok != tt.wantOK {
				t.Fatalf("ParseColumnDates() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got.Format != tt.wantFormat {
				t.Errorf("ParseColumnDates() format = %q, want %q", got.Format, tt.wantFormat)
			}
			if ok && len(got.Times) != len(tt.values) {
				t.Errorf("ParseColumnDates() returned %d times for %d values", len(got.Times), len(tt.values))
			}
		})
	}
}

func TestConvertDateColumn(t *testing.T) {
	tbl := table.New("coffee", []string{"Farm Name", "Grading Date"})
	tbl.Rows = [][]string{
		{"A", "21/09/2022"},
		{"B", "05/01/2023"},
	}

	format, ok := ConvertDateColumn(tbl, "Grading Date", []string{"2006-01-02", "02/01/2006"})
	if !ok || format != "02/01/2006" {
		t.Fatalf("ConvertDateColumn() = %q, %v", format, ok)
	}
	if tbl.Rows[0][1] != "2022-09-21" || tbl.Rows[1][1] != "2023-01-05" {
		t.Errorf("column not rewritten: %v", tbl.Rows)
	}
	if tbl.Schema.Fields[1].Type != "DATE" {
		t.Errorf("field type = %s, want DATE", tbl.Schema.Fields[1].Type)
	}
}

func TestConvertDateColumn_NoMatchLeavesColumn(t *testing.T) {
	tbl := table.New("coffee", []string{"Grading Date"})
	tbl.Rows = [][]string{{"September 21st, 2022"}}
	before := tbl.Clone()

	if _, ok := ConvertDateColumn(tbl, "Grading Date", []string{"2006-01-02", "%d/%m/%Y"}); ok {
		t.Fatal("ConvertDateColumn() reported success for unparseable values")
	}
	if tbl.Rows[0][0] != before.Rows[0][0] || tbl.Schema.Fields[0].Type != before.Schema.Fields[0].Type {
		t.Errorf("table changed: %v", tbl.Rows)
	}

	if _, ok := ConvertDateColumn(tbl, "Expiration", []string{"2006-01-02"}); ok {
		t.Error("ConvertDateColumn() succeeded for absent column")
	}
}

func TestDateNormalizer_Process(t *testing.T) {
	sch := table.Schema{Fields: []table.Field{{Name: "Farm Name"}, {Name: "Expiration"}}}
	data := [][]string{{"A", "2023-09-21T08:30:00Z"}}

	got, err := NewDateNormalizer("Expiration", []string{"2006-01-02", "2006-01-02T15:04:05Z07:00"}).
		Process(context.Background(), data, sch)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if got[0][1] != "2023-09-21T08:30:00Z" {
		t.Errorf("Process() value = %q", got[0][1])
	}
	if &got[0][0] == &data[0][0] {
		t.Error("Process() must copy rows")
	}
}

func TestResolveLayout(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"2006-01-02", "2006-01-02"},
		{"%Y-%m-%d", "2006-1-2"},
		{"%m/%d/%Y", "1/2/2006"},
		{"%B %d, %Y", "January 2, 2006"},
		{"%Y-%m-%dT%H:%M:%S", "2006-1-2T15:04:05"},
	}
	for _, tt := range tests {
		got, err := resolveLayout(tt.format)
		if err != nil {
			t.Errorf("resolveLayout(%q) error = %v", tt.format, err)
			continue
		}
		if got != tt.want {
			t.Errorf("resolveLayout(%q) = %q, want %q", tt.format, got, tt.want)
		}
	}
}

func TestConvertDateColumn_UnpaddedDates(t *testing.T) {
	tbl := table.New("coffee", []string{"Grading Date"})
	tbl.Rows = [][]string{{"January 5, 2023"}, {"September 21, 2022"}}

	if _, ok := ConvertDateColumn(tbl, "Grading Date", []string{"%B %d, %Y"}); !ok {
		t.Fatal("ConvertDateColumn() rejected unpadded days")
	}
	if tbl.Rows[0][0] != "2023-01-05" || tbl.Rows[1][0] != "2022-09-21" {
		t.Errorf("column = %v", tbl.Rows)
	}
}
