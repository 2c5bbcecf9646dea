package schema

import (
	"strconv"
	"strings"
	"time"

	"github.com/ruslano69/coffeedash/pkg/core/table"
)

// Converter отвечает за конвертацию строковых значений таблицы
type Converter struct{}

// NewConverter создает новый конвертер
func NewConverter() *Converter {
	return &Converter{}
}

// ParseValue парсит строковое значение согласно типу колонки.
// Пропуски (см. table.IsMissing) дают IsNull для любого типа.
func (c *Converter) ParseValue(rawValue string, field table.Field) (*TypedValue, error) {
	tv := &TypedValue{
		Type:     DataType(field.Type),
		RawValue: rawValue,
	}

	if table.IsMissing(rawValue) {
		tv.IsNull = true
		return tv, nil
	}

	switch tv.Type {
	case TypeInteger:
		return c.parseInteger(tv, field)
	case TypeReal:
		return c.parseReal(tv, field)
	case TypeDate:
		return c.parseDate(tv, field)
	case TypeDatetime:
		return c.parseDatetime(tv, field)
	default:
		return tv, nil
	}
}

// ParseFloat парсит значение как число независимо от выведенного типа колонки.
// Используется при построении графиков, где значение должно быть числом.
func (c *Converter) ParseFloat(rawValue string) (float64, bool) {
	if table.IsMissing(rawValue) {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(rawValue), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseInteger парсит INTEGER
func (c *Converter) parseInteger(tv *TypedValue, field table.Field) (*TypedValue, error) {
	val, err := strconv.ParseInt(tv.RawValue, 10, 64)
	if err != nil {
		return nil, &ValidationError{
			Field:   field.Name,
			Message: "invalid integer value",
			Value:   tv.RawValue,
		}
	}
	tv.IntValue = &val
	return tv, nil
}

// parseReal парсит REAL
func (c *Converter) parseReal(tv *TypedValue, field table.Field) (*TypedValue, error) {
	val, err := strconv.ParseFloat(tv.RawValue, 64)
	if err != nil {
		return nil, &ValidationError{
			Field:   field.Name,
			Message: "invalid float value",
			Value:   tv.RawValue,
		}
	}
	tv.FloatValue = &val
	return tv, nil
}

// parseDate парсит DATE (YYYY-MM-DD или ISO8601 с временной частью)
func (c *Converter) parseDate(tv *TypedValue, field table.Field) (*TypedValue, error) {
	val, err := time.Parse("2006-01-02", tv.RawValue)
	if err != nil {
		val, err = time.Parse(time.RFC3339, tv.RawValue)
		if err != nil {
			return nil, &ValidationError{
				Field:   field.Name,
				Message: "invalid date format, expected YYYY-MM-DD",
				Value:   tv.RawValue,
			}
		}
		// Отбрасываем временную часть
		val = time.Date(val.Year(), val.Month(), val.Day(), 0, 0, 0, 0, time.UTC)
	}
	tv.TimeValue = &val
	return tv, nil
}

// parseDatetime парсит DATETIME (RFC3339)
func (c *Converter) parseDatetime(tv *TypedValue, field table.Field) (*TypedValue, error) {
	val, err := time.Parse(time.RFC3339, tv.RawValue)
	if err != nil {
		return nil, &ValidationError{
			Field:   field.Name,
			Message: "invalid datetime format, expected RFC3339",
			Value:   tv.RawValue,
		}
	}
	tv.TimeValue = &val
	return tv, nil
}

// FormatValue форматирует типизированное значение обратно в строку
func (c *Converter) FormatValue(tv *TypedValue) string {
	if tv.IsNull {
		return ""
	}

	switch tv.Type {
	case TypeInteger:
		if tv.IntValue != nil {
			return strconv.FormatInt(*tv.IntValue, 10)
		}
	case TypeReal:
		if tv.FloatValue != nil {
			return strconv.FormatFloat(*tv.FloatValue, 'f', -1, 64)
		}
	case TypeDate:
		if tv.TimeValue != nil {
			return tv.TimeValue.Format("2006-01-02")
		}
	case TypeDatetime:
		if tv.TimeValue != nil {
			return tv.TimeValue.Format(time.RFC3339)
		}
	}

	return tv.RawValue
}
