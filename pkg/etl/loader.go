package etl

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ruslano69/coffeedash/pkg/core/schema"
	"github.com/ruslano69/coffeedash/pkg/core/table"
)

const utf8BOM = "\ufeff"

// Loader отвечает за загрузку CSV-источника в таблицу
type Loader struct {
	source SourceConfig
}

// NewLoader создает новый загрузчик данных
func NewLoader(source SourceConfig) *Loader {
	source.ApplyDefaults()
	return &Loader{source: source}
}

// Load читает CSV файл источника.
//
// Ошибки не возвращаются: если файл не открывается или структура CSV
// нарушена, результатом будет пустая таблица и диагностика parse_error
// с текстом ошибки парсера.
func (l *Loader) Load(ctx context.Context) (*table.Table, []Diagnostic) {
	f, err := os.Open(l.source.Path)
	if err != nil {
		return l.failed(fmt.Errorf("failed to open CSV file '%s': %w", l.source.Path, err))
	}
	defer f.Close()

	return l.LoadReader(ctx, f)
}

// LoadReader читает CSV из reader (первая строка - заголовок)
func (l *Loader) LoadReader(ctx context.Context, r io.Reader) (*table.Table, []Diagnostic) {
	reader := csv.NewReader(r)
	reader.Comma = l.source.delimiterRune()
	// Короткие строки допустимы: недостающие ячейки считаются пропусками
	// и такие строки удаляет очистка. Строка длиннее заголовка - ошибка структуры.
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return l.failed(fmt.Errorf("failed to read CSV file '%s': no columns to parse", l.source.Path))
	}
	if err != nil {
		return l.failed(fmt.Errorf("failed to read CSV file '%s': %w", l.source.Path, err))
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	t := table.New(l.source.Name, dedupeHeader(header))

	for n := 0; ; n++ {
		if n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return l.failed(fmt.Errorf("loading '%s' interrupted: %w", l.source.Path, err))
			}
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return l.failed(fmt.Errorf("failed to read CSV file '%s': %w", l.source.Path, err))
		}
		if len(record) > len(header) {
			line, _ := reader.FieldPos(0)
			return l.failed(fmt.Errorf("failed to read CSV file '%s': record on line %d: expected %d fields, saw %d",
				l.source.Path, line, len(header), len(record)))
		}
		t.Rows = append(t.Rows, record)
	}

	schema.InferTypes(t)
	return t, nil
}

func (l *Loader) failed(err error) (*table.Table, []Diagnostic) {
	return table.Empty(l.source.Name), []Diagnostic{{
		Kind:    KindParseError,
		Message: err.Error(),
		Err:     err,
	}}
}

// dedupeHeader делает имена колонок уникальными: повтор "X" становится "X.1", "X.2"...
func dedupeHeader(header []string) []string {
	seen := make(map[string]int, len(header))
	out := make([]string, len(header))
	for i, name := range header {
		candidate := name
		for {
			if _, dup := seen[candidate]; !dup {
				break
			}
			seen[name]++
			candidate = name + "." + strconv.Itoa(seen[name])
		}
		seen[candidate] = 0
		out[i] = candidate
	}
	return out
}

// Source возвращает конфигурацию источника (с примененными значениями по умолчанию)
func (l *Loader) Source() SourceConfig {
	return l.source
}
