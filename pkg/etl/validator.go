package etl

import (
	"fmt"
	"strings"

	"github.com/ruslano69/coffeedash/pkg/core/table"
)

// RequiredColumns - атрибуты образца кофе, которые ожидаются в наборе данных.
// 40 имен: "ID" тоже обязателен, он есть в каждой выгрузке набора.
var RequiredColumns = []string{
	"ID", "Country of Origin", "Farm Name", "Lot Number", "Mill", "ICO Number",
	"Company", "Altitude", "Region", "Producer", "Number of Bags", "Bag Weight",
	"In-Country Partner", "Harvest Year", "Grading Date", "Owner", "Variety",
	"Status", "Processing Method", "Aroma", "Flavor", "Aftertaste", "Acidity",
	"Body", "Balance", "Uniformity", "Clean Cup", "Sweetness", "Overall",
	"Defects", "Total Cup Points", "Moisture Percentage", "Category One Defects",
	"Quakers", "Color", "Category Two Defects", "Expiration", "Certification Body",
	"Certification Address", "Certification Contact",
}

// MissingColumns возвращает обязательные колонки, отсутствующие в таблице,
// в порядке списка required
func MissingColumns(t *table.Table, required []string) []string {
	var missing []string
	for _, col := range required {
		if !t.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	return missing
}

// Validate проверяет набор колонок и наличие пропусков.
// Проверки рекомендательные: таблица не изменяется, результат - список диагностик.
func Validate(t *table.Table, required []string) []Diagnostic {
	var diags []Diagnostic

	if missing := MissingColumns(t, required); len(missing) > 0 {
		diags = append(diags, Diagnostic{
			Kind:    KindMissingColumns,
			Message: fmt.Sprintf("missing columns in CSV file: %s", strings.Join(missing, ", ")),
			Columns: missing,
		})
	}

	if cells, rows := t.MissingCells(); cells > 0 {
		diags = append(diags, Diagnostic{
			Kind:    KindMissingValues,
			Message: fmt.Sprintf("CSV file contains missing values: %d cell(s) in %d row(s)", cells, rows),
			Cells:   cells,
			Rows:    rows,
		})
	}

	return diags
}
