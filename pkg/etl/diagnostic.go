package etl

import "fmt"

// DiagnosticKind - категория диагностического сообщения
type DiagnosticKind string

const (
	KindParseError     DiagnosticKind = "parse_error"     // CSV не разобран, таблица пуста
	KindMissingColumns DiagnosticKind = "missing_columns" // нет обязательных колонок
	KindMissingValues  DiagnosticKind = "missing_values"  // есть пропущенные ячейки
	KindCleaningError  DiagnosticKind = "cleaning_error"  // пользовательская очистка не выполнена
)

// Diagnostic - рекомендательное сообщение о качестве данных.
// Диагностики не прерывают обработку: вызывающий код решает, логировать их,
// публиковать или игнорировать.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Message string         `json:"message"`
	Columns []string       `json:"columns,omitempty"` // для missing_columns
	Cells   int            `json:"cells,omitempty"`   // для missing_values
	Rows    int            `json:"rows,omitempty"`    // для missing_values
	Err     error          `json:"-"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("[%s] %s", d.Kind, d.Message)
}

// FilterKind возвращает диагностики заданной категории
func FilterKind(diags []Diagnostic, kind DiagnosticKind) []Diagnostic {
	var out []Diagnostic
	for _, d := range diags {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}
