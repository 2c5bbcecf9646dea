package etl

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/ruslano69/coffeedash/pkg/core/schema"
	"github.com/ruslano69/coffeedash/pkg/core/table"
)

const driverSqlite = "sqlite"

// Workspace представляет SQLite :memory: рабочую среду.
// Используется для вычисления SQL-видов поверх очищенной таблицы.
type Workspace struct {
	db     *sql.DB
	tables map[string]bool // Список созданных таблиц
}

// NewWorkspace создает новый :memory: workspace
func NewWorkspace(ctx context.Context) (*Workspace, error) {
	db, err := sql.Open(driverSqlite, ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open workspace database: %w", err)
	}
	// Каждое соединение к :memory: - отдельная база, держим одно
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping workspace database: %w", err)
	}

	return &Workspace{
		db:     db,
		tables: make(map[string]bool),
	}, nil
}

// CreateTable создает таблицу в workspace на основе схемы
func (w *Workspace) CreateTable(ctx context.Context, tableName string, fields []table.Field) error {
	if tableName == "" {
		return fmt.Errorf("table name is required")
	}

	if len(fields) == 0 {
		return fmt.Errorf("at least one field is required")
	}

	ddl := w.generateCreateTableDDL(tableName, fields)
	if _, err := w.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create table %s: %w", tableName, err)
	}

	w.tables[tableName] = true
	return nil
}

// LoadData загружает строки таблицы в одноименную таблицу workspace
func (w *Workspace) LoadData(ctx context.Context, t *table.Table) error {
	if !w.tables[t.Name] {
		return fmt.Errorf("table %s does not exist in workspace", t.Name)
	}

	if len(t.Rows) == 0 {
		return nil // Нет данных для загрузки
	}

	fields := t.Schema.Fields
	numFields := len(fields)

	placeholders := make([]string, numFields)
	for i := range placeholders {
		placeholders[i] = "?"
	}

	insertSQL := fmt.Sprintf(
		"INSERT INTO %s VALUES (%s)",
		quoteIdent(t.Name),
		strings.Join(placeholders, ", "),
	)

	// Транзакция для производительности
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for i, row := range t.Rows {
		if len(row) != numFields {
			return fmt.Errorf("row %d has %d values, expected %d", i, len(row), numFields)
		}

		convertedValues := make([]any, numFields)
		for j, val := range row {
			convertedValues[j] = w.convertValue(val)
		}

		if _, err := stmt.ExecContext(ctx, convertedValues...); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ExecuteSQL выполняет SQL запрос в workspace и возвращает результат как таблицу
func (w *Workspace) ExecuteSQL(ctx context.Context, query string, resultTableName string) (*table.Table, error) {
	rows, err := w.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute SQL: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	result := table.New(resultTableName, columns)

	values := make([]any, len(columns))
	valuePtrs := make([]any, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		rowValues := make([]string, len(values))
		for i, val := range values {
			rowValues[i] = w.formatValue(val)
		}
		result.Rows = append(result.Rows, rowValues)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading rows: %w", err)
	}

	// SQLite не сообщает типы вычисляемых колонок, выводим по значениям
	schema.InferTypes(result)
	return result, nil
}

// Close закрывает workspace
func (w *Workspace) Close() error {
	return w.db.Close()
}

// generateCreateTableDDL генерирует DDL для создания таблицы
func (w *Workspace) generateCreateTableDDL(tableName string, fields []table.Field) string {
	columns := make([]string, 0, len(fields))
	for _, field := range fields {
		sqliteType := w.mapTypeToSQLite(schema.DataType(field.Type))
		columns = append(columns, fmt.Sprintf("%s %s", quoteIdent(field.Name), sqliteType))
	}

	return fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(tableName), strings.Join(columns, ", "))
}

// mapTypeToSQLite конвертирует тип колонки в SQLite тип
func (w *Workspace) mapTypeToSQLite(t schema.DataType) string {
	switch t {
	case schema.TypeInteger:
		return "INTEGER"
	case schema.TypeReal:
		return "REAL"
	default:
		return "TEXT" // SQLite хранит даты как TEXT
	}
}

// convertValue конвертирует строковое значение для вставки в SQLite.
// Числовые строки SQLite приводит сам согласно affinity колонки.
func (w *Workspace) convertValue(value string) any {
	if table.IsMissing(value) {
		return nil
	}
	return value
}

// formatValue конвертирует значение из SQL в строку
func (w *Workspace) formatValue(val any) string {
	if val == nil {
		return ""
	}

	switch v := val.(type) {
	case []byte:
		return string(v)
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// quoteIdent экранирует идентификатор SQLite (имена колонок содержат пробелы)
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// ViewResult - результат вычисления одного вида
type ViewResult struct {
	Config ViewConfig
	Table  *table.Table
	Err    error
}

// ComputeViews загружает base в новый workspace и выполняет каждый вид.
// Ошибка отдельного вида не прерывает вычисление остальных.
// Возвращаемая ошибка относится только к самому workspace.
func ComputeViews(ctx context.Context, base *table.Table, views []ViewConfig) ([]ViewResult, error) {
	if len(views) == 0 {
		return nil, nil
	}

	results := make([]ViewResult, len(views))
	for i, v := range views {
		results[i].Config = v
	}

	if len(base.Schema.Fields) == 0 {
		for i := range results {
			results[i].Err = fmt.Errorf("view %q: source table %q has no columns", views[i].Name, base.Name)
		}
		return results, nil
	}

	workspace, err := NewWorkspace(ctx)
	if err != nil {
		return nil, fmt.Errorf("workspace init: %w", err)
	}
	defer workspace.Close() //nolint:errcheck

	if err := workspace.CreateTable(ctx, base.Name, base.Schema.Fields); err != nil {
		return nil, fmt.Errorf("workspace create table %q: %w", base.Name, err)
	}
	if err := workspace.LoadData(ctx, base); err != nil {
		return nil, fmt.Errorf("workspace load %q: %w", base.Name, err)
	}

	for i, v := range views {
		if err := v.Validate(); err != nil {
			results[i].Err = err
			continue
		}
		view, err := workspace.ExecuteSQL(ctx, v.SQL, v.Name)
		if err != nil {
			results[i].Err = fmt.Errorf("view %q: %w", v.Name, err)
			continue
		}
		results[i].Table = view
	}

	return results, nil
}
