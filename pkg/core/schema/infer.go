package schema

import (
	"strconv"
	"time"

	"github.com/ruslano69/coffeedash/pkg/core/table"
)

// InferType выводит тип колонки по ее значениям. Пропуски игнорируются;
// колонка из одних пропусков считается TEXT.
//
// Порядок проверки: INTEGER → REAL → DATE → DATETIME → TEXT.
func InferType(values []string) DataType {
	candidates := map[DataType]bool{
		TypeInteger:  true,
		TypeReal:     true,
		TypeDate:     true,
		TypeDatetime: true,
	}
	seen := 0

	for _, v := range values {
		if table.IsMissing(v) {
			continue
		}
		seen++
		if candidates[TypeInteger] {
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				candidates[TypeInteger] = false
			}
		}
		if candidates[TypeReal] {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				candidates[TypeReal] = false
			}
		}
		if candidates[TypeDate] {
			if _, err := time.Parse("2006-01-02", v); err != nil {
				candidates[TypeDate] = false
			}
		}
		if candidates[TypeDatetime] {
			if _, err := time.Parse(time.RFC3339, v); err != nil {
				candidates[TypeDatetime] = false
			}
		}
	}

	if seen == 0 {
		return TypeText
	}
	for _, t := range []DataType{TypeInteger, TypeReal, TypeDate, TypeDatetime} {
		if candidates[t] {
			return t
		}
	}
	return TypeText
}

// InferTypes проставляет Field.Type для каждой колонки таблицы.
func InferTypes(t *table.Table) {
	for i := range t.Schema.Fields {
		values := make([]string, 0, len(t.Rows))
		for _, row := range t.Rows {
			if v, ok := table.Cell(row, i); ok {
				values = append(values, v)
			}
		}
		t.Schema.Fields[i].Type = string(InferType(values))
	}
}
