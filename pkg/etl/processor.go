package etl

import (
	"context"
	"time"

	"github.com/ruslano69/coffeedash/pkg/core/table"
	"github.com/ruslano69/coffeedash/pkg/processors"
)

// ProcessorStats представляет статистику подготовки набора данных
type ProcessorStats struct {
	StartTime   time.Time     `json:"started_at"`
	EndTime     time.Time     `json:"finished_at"`
	Duration    time.Duration `json:"duration"`
	RowsLoaded  int           `json:"rows_loaded"`
	RowsDropped int           `json:"rows_dropped"`
	RowsKept    int           `json:"rows_kept"`
	Columns     int           `json:"columns"`
}

// Result - очищенная таблица и все, что было замечено при ее подготовке
type Result struct {
	Table       *table.Table
	Diagnostics []Diagnostic
	Stats       ProcessorStats
	Checksum    string // xxh3 очищенной таблицы
}

// Processor выполняет подготовку набора данных: Loader → Validate → Clean
type Processor struct {
	loader   *Loader
	required []string
	custom   *processors.Chain
}

// NewProcessor создает процессор для источника. custom - цепочка
// пользовательской очистки, может быть nil.
func NewProcessor(source SourceConfig, custom *processors.Chain) *Processor {
	return &Processor{
		loader:   NewLoader(source),
		required: RequiredColumns,
		custom:   custom,
	}
}

// WithRequired заменяет список обязательных колонок
func (p *Processor) WithRequired(required []string) *Processor {
	p.required = required
	return p
}

// Execute выполняет подготовку один раз. Ошибок не возвращает: все проблемы
// данных отражены в Result.Diagnostics, а Result.Table всегда не nil.
func (p *Processor) Execute(ctx context.Context) *Result {
	res := &Result{}
	res.Stats.StartTime = time.Now()
	defer func() {
		res.Stats.EndTime = time.Now()
		res.Stats.Duration = res.Stats.EndTime.Sub(res.Stats.StartTime)
	}()

	// 1. Загрузка
	loaded, diags := p.loader.Load(ctx)
	res.Diagnostics = append(res.Diagnostics, diags...)
	res.Stats.RowsLoaded = loaded.Len()

	// 2. Валидация (только диагностика). Для неразобранного файла
	// проверять нечего: parse_error уже объясняет пустую таблицу.
	if len(FilterKind(diags, KindParseError)) == 0 {
		res.Diagnostics = append(res.Diagnostics, Validate(loaded, p.required)...)
	}

	// 3. Очистка
	cleaned, err := Clean(ctx, loaded, p.custom)
	if err != nil {
		res.Diagnostics = append(res.Diagnostics, Diagnostic{
			Kind:    KindCleaningError,
			Message: err.Error(),
			Err:     err,
		})
	}
	if cleaned == nil {
		cleaned = table.Empty(loaded.Name)
		cleaned.Schema = loaded.Schema
	}

	res.Table = cleaned
	res.Stats.RowsKept = cleaned.Len()
	res.Stats.RowsDropped = res.Stats.RowsLoaded - res.Stats.RowsKept
	res.Stats.Columns = len(cleaned.Schema.Fields)
	res.Checksum = processors.TableChecksum(cleaned)
	return res
}
