package processors

import (
	"context"

	"github.com/ruslano69/coffeedash/pkg/core/table"
)

// Processor определяет интерфейс для обработки строк таблицы
type Processor interface {
	// Name возвращает имя процессора
	Name() string

	// Process обрабатывает данные
	// data - строки данных (каждая строка - массив строк)
	// schema - схема данных для понимания типов полей
	Process(ctx context.Context, data [][]string, schema table.Schema) ([][]string, error)
}

// Config содержит конфигурацию процессора
type Config struct {
	Type   string         `yaml:"type"`   // Тип процессора (drop_incomplete, date_normalizer)
	Params map[string]any `yaml:"params"` // Параметры процессора
}
