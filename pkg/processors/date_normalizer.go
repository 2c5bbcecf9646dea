package processors

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"

	"github.com/ruslano69/coffeedash/pkg/core/schema"
	"github.com/ruslano69/coffeedash/pkg/core/table"
)

// DateParse - результат успешного разбора колонки одним из форматов
type DateParse struct {
	Format string      // формат из списка кандидатов, который подошел
	Layout string      // соответствующий Go layout
	Times  []time.Time // по одному значению на строку; zero для пропусков
}

// unpadded - директивы strftime, которые при разборе принимают одну или две
// цифры ("5" и "05"), как strptime. strftime.Layout дает для них "02"/"01",
// а Go разбирает такие поля только с ведущим нулем.
var unpadded = map[byte]string{
	'd': "2",
	'm': "1",
	'e': "_2",
}

// resolveLayout принимает Go layout ("2006-01-02") или strftime-шаблон ("%Y-%m-%d")
func resolveLayout(format string) (string, error) {
	if !strings.Contains(format, "%") {
		return format, nil
	}

	var (
		out   strings.Builder
		chunk strings.Builder
	)
	flush := func() error {
		if chunk.Len() == 0 {
			return nil
		}
		layout, err := strftime.Layout(chunk.String())
		if err != nil {
			return err
		}
		out.WriteString(layout)
		chunk.Reset()
		return nil
	}

	for i := 0; i < len(format); i++ {
		if format[i] == '%' && i+1 < len(format) {
			if tok, ok := unpadded[format[i+1]]; ok {
				if err := flush(); err != nil {
					return "", err
				}
				out.WriteString(tok)
				i++
				continue
			}
			// %% и прочие директивы целиком уходят в strftime.Layout
			chunk.WriteByte(format[i])
			chunk.WriteByte(format[i+1])
			i++
			continue
		}
		chunk.WriteByte(format[i])
	}
	if err := flush(); err != nil {
		return "", err
	}
	return out.String(), nil
}

// ParseColumnDates пробует форматы по порядку и возвращает первый, которым
// разбираются все непропущенные значения колонки. Формат с ошибкой пропускается.
// ok=false если ни один формат не подошел: решение, является ли это ошибкой,
// остается за вызывающим кодом.
func ParseColumnDates(values []string, formats []string) (DateParse, bool) {
	for _, format := range formats {
		layout, err := resolveLayout(format)
		if err != nil {
			continue
		}
		times, ok := parseAll(values, layout)
		if ok {
			return DateParse{Format: format, Layout: layout, Times: times}, true
		}
	}
	return DateParse{}, false
}

func parseAll(values []string, layout string) ([]time.Time, bool) {
	times := make([]time.Time, len(values))
	for i, v := range values {
		if table.IsMissing(v) {
			continue
		}
		t, err := time.Parse(layout, v)
		if err != nil {
			return nil, false
		}
		times[i] = t
	}
	return times, true
}

// formatTimes приводит даты к YYYY-MM-DD, либо к RFC3339 если хотя бы одно
// значение содержит время
func formatTimes(values []string, times []time.Time) ([]string, schema.DataType) {
	layout, dt := "2006-01-02", schema.TypeDate
	for i, t := range times {
		if table.IsMissing(values[i]) {
			continue
		}
		if t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0 || t.Nanosecond() != 0 {
			layout, dt = time.RFC3339, schema.TypeDatetime
			break
		}
	}
	out := make([]string, len(values))
	for i, t := range times {
		if table.IsMissing(values[i]) {
			out[i] = values[i]
			continue
		}
		out[i] = t.Format(layout)
	}
	return out, dt
}

// ConvertDateColumn переписывает колонку в каноническом формате даты, если
// один из форматов подошел ко всей колонке. Иначе таблица не меняется.
// Возвращает подошедший формат.
func ConvertDateColumn(t *table.Table, column string, formats []string) (string, bool) {
	idx := t.Index(column)
	if idx < 0 {
		return "", false
	}
	values := t.Column(column)
	parsed, ok := ParseColumnDates(values, formats)
	if !ok {
		return "", false
	}
	formatted, dt := formatTimes(values, parsed.Times)
	for i, row := range t.Rows {
		if idx < len(row) {
			row[idx] = formatted[i]
		}
	}
	t.Schema.Fields[idx].Type = string(dt)
	return parsed.Format, true
}

// DateNormalizer - процессор-обертка над ConvertDateColumn для цепочки
// пользовательской очистки
type DateNormalizer struct {
	column  string
	formats []string
}

// NewDateNormalizer создает нормализатор дат для колонки
func NewDateNormalizer(column string, formats []string) *DateNormalizer {
	return &DateNormalizer{column: column, formats: formats}
}

// Name возвращает имя процессора
func (n *DateNormalizer) Name() string {
	return "date_normalizer"
}

// Process реализует интерфейс Processor. Строки копируются, входные данные
// не изменяются.
func (n *DateNormalizer) Process(_ context.Context, data [][]string, sch table.Schema) ([][]string, error) {
	idx := table.GetFieldIndices(sch, []string{n.column})
	if len(idx) == 0 {
		return data, nil
	}
	col := idx[0]

	values := make([]string, len(data))
	for i, row := range data {
		values[i], _ = table.Cell(row, col)
	}
	parsed, ok := ParseColumnDates(values, n.formats)
	if !ok {
		return data, nil
	}
	formatted, _ := formatTimes(values, parsed.Times)

	result := make([][]string, len(data))
	for i, row := range data {
		newRow := make([]string, len(row))
		copy(newRow, row)
		if col < len(newRow) {
			newRow[col] = formatted[i]
		}
		result[i] = newRow
	}
	return result, nil
}

// NewDateNormalizerFromConfig создает DateNormalizer из конфигурации:
//
//	params:
//	  column: "Grading Date"
//	  formats: ["%B %d, %Y", "2006-01-02"]
func NewDateNormalizerFromConfig(params map[string]any) (*DateNormalizer, error) {
	column, ok := params["column"].(string)
	if !ok || column == "" {
		return nil, fmt.Errorf("missing or invalid 'column' parameter")
	}

	raw, ok := params["formats"].([]any)
	if !ok || len(raw) == 0 {
		return nil, fmt.Errorf("missing or invalid 'formats' parameter")
	}
	formats := make([]string, 0, len(raw))
	for _, f := range raw {
		formats = append(formats, fmt.Sprintf("%v", f))
	}

	return NewDateNormalizer(column, formats), nil
}
