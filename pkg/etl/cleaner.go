package etl

import (
	"context"
	"fmt"

	"github.com/ruslano69/coffeedash/pkg/core/schema"
	"github.com/ruslano69/coffeedash/pkg/core/table"
	"github.com/ruslano69/coffeedash/pkg/processors"
)

// Clean удаляет строки с пропущенными значениями и затем выполняет цепочку
// пользовательской очистки custom (nil или пустая цепочка - ничего не делает).
//
// Входная таблица не изменяется. Если custom вернул ошибку, возвращается
// таблица после удаления неполных строк вместе с ошибкой.
func Clean(ctx context.Context, t *table.Table, custom *processors.Chain) (*table.Table, error) {
	out := &table.Table{
		Name:   t.Name,
		Schema: table.Schema{Fields: append([]table.Field(nil), t.Schema.Fields...)},
	}

	rows, err := processors.NewDropIncomplete().Process(ctx, t.Rows, t.Schema)
	if err != nil {
		return nil, fmt.Errorf("drop incomplete rows: %w", err)
	}
	out.Rows = rows

	if custom.IsEmpty() {
		return out, nil
	}

	customRows, err := custom.Process(ctx, rows, out.Schema)
	if err != nil {
		return out, fmt.Errorf("custom cleaning: %w", err)
	}
	out.Rows = customRows
	// Пользовательские шаги могли изменить формат значений (например, даты)
	schema.InferTypes(out)
	return out, nil
}
