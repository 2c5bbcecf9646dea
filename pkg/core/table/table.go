package table

// Table представляет загруженный набор записей: упорядоченная схема и строки
// строковых значений. Типизированная интерпретация значений выполняется
// через schema.Converter.
type Table struct {
	Name   string
	Schema Schema
	Rows   [][]string
}

// Schema описывает структуру таблицы
type Schema struct {
	Fields []Field `json:"fields"`
}

// Field описывает одно поле таблицы
type Field struct {
	Name string `json:"name"`
	Type string `json:"type"` // INTEGER / REAL / DATE / TEXT, выводится после загрузки
}

// New создает пустую таблицу с заданными колонками (тип TEXT)
func New(name string, columns []string) *Table {
	fields := make([]Field, len(columns))
	for i, c := range columns {
		fields[i] = Field{Name: c, Type: "TEXT"}
	}
	return &Table{
		Name:   name,
		Schema: Schema{Fields: fields},
		Rows:   [][]string{},
	}
}

// Empty возвращает таблицу без колонок и строк.
func Empty(name string) *Table {
	return &Table{Name: name, Rows: [][]string{}}
}

// Len возвращает количество строк
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Columns возвращает имена колонок в порядке схемы
func (t *Table) Columns() []string {
	names := make([]string, len(t.Schema.Fields))
	for i, f := range t.Schema.Fields {
		names[i] = f.Name
	}
	return names
}

// Index возвращает индекс колонки по имени (точное совпадение) или -1
func (t *Table) Index(name string) int {
	for i, f := range t.Schema.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the schema contains a column with exactly this name.
func (t *Table) HasColumn(name string) bool {
	return t.Index(name) >= 0
}

// Cell возвращает значение колонки idx в строке row.
// Короткая строка (колонка отсутствует) дает ok=false.
func Cell(row []string, idx int) (string, bool) {
	if idx < 0 || idx >= len(row) {
		return "", false
	}
	return row[idx], true
}

// Column возвращает все значения колонки; nil если колонки нет
func (t *Table) Column(name string) []string {
	idx := t.Index(name)
	if idx < 0 {
		return nil
	}
	values := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		values[i], _ = Cell(row, idx)
	}
	return values
}

// Filter возвращает новую таблицу со строками, для которых keep вернул true.
// Строки не копируются: результат разделяет их с исходной таблицей и должен
// считаться read-only.
func (t *Table) Filter(keep func(row []string) bool) *Table {
	out := &Table{Name: t.Name, Schema: t.Schema, Rows: make([][]string, 0, len(t.Rows))}
	for _, row := range t.Rows {
		if keep(row) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// Where возвращает строки, где значение колонки column точно равно value.
// Если колонки нет, результат пуст.
func (t *Table) Where(column, value string) *Table {
	idx := t.Index(column)
	if idx < 0 {
		return t.Filter(func([]string) bool { return false })
	}
	return t.Filter(func(row []string) bool {
		v, ok := Cell(row, idx)
		return ok && v == value
	})
}

// Project возвращает таблицу только с указанными колонками (в указанном порядке).
// Отсутствующие колонки пропускаются.
func (t *Table) Project(columns ...string) *Table {
	indices := GetFieldIndices(t.Schema, columns)
	out := &Table{Name: t.Name, Rows: make([][]string, len(t.Rows))}
	for _, idx := range indices {
		out.Schema.Fields = append(out.Schema.Fields, t.Schema.Fields[idx])
	}
	for i, row := range t.Rows {
		projected := make([]string, len(indices))
		for j, idx := range indices {
			projected[j], _ = Cell(row, idx)
		}
		out.Rows[i] = projected
	}
	return out
}

// Clone возвращает глубокую копию таблицы
func (t *Table) Clone() *Table {
	out := &Table{
		Name:   t.Name,
		Schema: Schema{Fields: append([]Field(nil), t.Schema.Fields...)},
		Rows:   make([][]string, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = append([]string(nil), row...)
	}
	return out
}

// GetFieldIndices возвращает индексы полей по их именам
func GetFieldIndices(schema Schema, fieldNames []string) []int {
	var indices []int
	for _, name := range fieldNames {
		for i, field := range schema.Fields {
			if field.Name == name {
				indices = append(indices, i)
				break
			}
		}
	}
	return indices
}

// SchemaEquals reports whether two schemas are structurally identical:
// same number of fields, same names and types in the same order.
func SchemaEquals(a, b Schema) bool {
	if len(a.Fields) != len(b.Fields) {
		return false
	}
	for i := range a.Fields {
		if a.Fields[i].Name != b.Fields[i].Name || a.Fields[i].Type != b.Fields[i].Type {
			return false
		}
	}
	return true
}
