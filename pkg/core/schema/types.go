package schema

import (
	"fmt"
	"time"
)

// DataType представляет тип данных колонки
type DataType string

// Типы, которые выводятся для колонок CSV
const (
	TypeInteger  DataType = "INTEGER"
	TypeReal     DataType = "REAL"
	TypeText     DataType = "TEXT"
	TypeDate     DataType = "DATE"
	TypeDatetime DataType = "DATETIME"
)

// TypedValue представляет типизированное значение
type TypedValue struct {
	Type       DataType
	RawValue   string
	IsNull     bool
	IntValue   *int64
	FloatValue *float64
	TimeValue  *time.Time
}

// Float возвращает числовое значение для INTEGER/REAL
func (tv *TypedValue) Float() (float64, bool) {
	switch {
	case tv == nil || tv.IsNull:
		return 0, false
	case tv.FloatValue != nil:
		return *tv.FloatValue, true
	case tv.IntValue != nil:
		return float64(*tv.IntValue), true
	}
	return 0, false
}

// ValidationError ошибка конвертации значения
type ValidationError struct {
	Field   string
	Message string
	Value   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s (value: '%s')",
		e.Field, e.Message, e.Value)
}

// IsNumericType проверяет является ли тип числовым
func IsNumericType(t DataType) bool {
	return t == TypeInteger || t == TypeReal
}

// IsDateTimeType проверяет является ли тип временным
func IsDateTimeType(t DataType) bool {
	return t == TypeDate || t == TypeDatetime
}
