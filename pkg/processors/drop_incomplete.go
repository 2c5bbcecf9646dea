package processors

import (
	"context"

	"github.com/ruslano69/coffeedash/pkg/core/table"
)

// DropIncomplete удаляет строки, в которых хотя бы одно значение пропущено.
// Оставшиеся строки не копируются и сохраняют исходный порядок.
type DropIncomplete struct{}

// NewDropIncomplete создает процессор удаления неполных строк
func NewDropIncomplete() *DropIncomplete {
	return &DropIncomplete{}
}

// Name возвращает имя процессора
func (d *DropIncomplete) Name() string {
	return "drop_incomplete"
}

// Process реализует интерфейс Processor
func (d *DropIncomplete) Process(_ context.Context, data [][]string, schema table.Schema) ([][]string, error) {
	width := len(schema.Fields)
	result := make([][]string, 0, len(data))
	for _, row := range data {
		if table.RowComplete(row, width) {
			result = append(result, row)
		}
	}
	return result, nil
}
