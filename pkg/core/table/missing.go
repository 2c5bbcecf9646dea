package table

// naMarkers - значения, которые CSV-выгрузки используют для обозначения
// отсутствующих данных. Сравнение точное, без trim.
var naMarkers = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

// IsMissing reports whether a raw cell value denotes a missing value.
func IsMissing(value string) bool {
	_, ok := naMarkers[value]
	return ok
}

// RowComplete проверяет, что строка содержит все width колонок и ни одно
// значение не является пропуском.
func RowComplete(row []string, width int) bool {
	if len(row) < width {
		return false
	}
	for i := 0; i < width; i++ {
		if IsMissing(row[i]) {
			return false
		}
	}
	return true
}

// MissingCells возвращает количество пропущенных ячеек и количество строк,
// содержащих хотя бы один пропуск.
func (t *Table) MissingCells() (cells, rows int) {
	width := len(t.Schema.Fields)
	for _, row := range t.Rows {
		rowMissing := 0
		for i := 0; i < width; i++ {
			v, ok := Cell(row, i)
			if !ok || IsMissing(v) {
				rowMissing++
			}
		}
		if rowMissing > 0 {
			cells += rowMissing
			rows++
		}
	}
	return cells, rows
}
