// Package security проверяет SQL пользовательских видов перед выполнением
// в рабочей SQLite-базе дашборда.
package security

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrUnsafeSQL возвращается для запросов, которые не являются одним
// read-only SELECT/WITH.
var ErrUnsafeSQL = errors.New("unsafe view sql")

// forbidden - ключевые слова, недопустимые в виде
var forbidden = map[string]bool{
	// DML
	"INSERT": true, "UPDATE": true, "DELETE": true, "UPSERT": true, "MERGE": true, "TRUNCATE": true,
	// DDL
	"DROP": true, "CREATE": true, "ALTER": true, "RENAME": true, "REINDEX": true, "VACUUM": true,
	// SQLite
	"PRAGMA": true, "ATTACH": true, "DETACH": true,
	// Транзакции
	"BEGIN": true, "COMMIT": true, "ROLLBACK": true, "SAVEPOINT": true, "RELEASE": true,
}

// SQLValidator проверяет, что SQL вида - ровно один запрос на чтение:
//   - начинается с SELECT или WITH
//   - без изменяющих ключевых слов вне строковых литералов и идентификаторов
//   - без комментариев
//   - не более одной точки с запятой, и только в конце
type SQLValidator struct{}

// NewSQLValidator создает валидатор видов
func NewSQLValidator() *SQLValidator {
	return &SQLValidator{}
}

// Validate возвращает ошибку, оборачивающую ErrUnsafeSQL, если запрос
// нельзя выполнить как вид.
func (v *SQLValidator) Validate(sql string) error {
	bare, err := stripQuoted(sql)
	if err != nil {
		return err
	}

	if strings.Contains(bare, "--") || strings.Contains(bare, "/*") {
		return fmt.Errorf("%w: comments are not allowed", ErrUnsafeSQL)
	}

	trimmed := strings.TrimSpace(bare)
	if i := strings.IndexByte(trimmed, ';'); i >= 0 && i != len(trimmed)-1 {
		return fmt.Errorf("%w: multiple statements are not allowed", ErrUnsafeSQL)
	}

	words := strings.FieldsFunc(strings.ToUpper(trimmed), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	})
	if len(words) == 0 {
		return fmt.Errorf("%w: empty query", ErrUnsafeSQL)
	}
	if words[0] != "SELECT" && words[0] != "WITH" {
		return fmt.Errorf("%w: only SELECT and WITH queries are allowed, got %s", ErrUnsafeSQL, words[0])
	}
	for _, w := range words {
		if forbidden[w] {
			return fmt.Errorf("%w: forbidden keyword %s", ErrUnsafeSQL, w)
		}
	}
	return nil
}

// stripQuoted заменяет содержимое строковых литералов и идентификаторов в
// кавычках ('...', "...", `...`, [...]) пробелами. Имена колонок набора
// данных содержат пробелы и могут совпадать с ключевыми словами.
func stripQuoted(sql string) (string, error) {
	var b strings.Builder
	b.Grow(len(sql))

	var closing rune
	for _, r := range sql {
		switch {
		case closing != 0:
			if r == closing {
				closing = 0
				b.WriteRune(r)
			} else {
				b.WriteByte(' ')
			}
		case r == '\'' || r == '"' || r == '`':
			closing = r
			b.WriteRune(r)
		case r == '[':
			closing = ']'
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	// Удвоенная кавычка ('it''s') закрывает и сразу открывает литерал, итог тот же
	if closing != 0 {
		return "", fmt.Errorf("%w: unterminated quote %q", ErrUnsafeSQL, closing)
	}
	return b.String(), nil
}
