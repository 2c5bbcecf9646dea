package etl

import (
	"fmt"
	"unicode/utf8"

	"github.com/ruslano69/coffeedash/pkg/processors"
	"github.com/ruslano69/coffeedash/pkg/security"
)

// viewSQL допускает в видах только один read-only запрос
var viewSQL = security.NewSQLValidator()

// DefaultSourcePath - файл набора данных по умолчанию (относительно рабочей директории)
const DefaultSourcePath = "df_arabica_clean.csv"

// DefaultTableName - имя таблицы набора данных в workspace и в UI
const DefaultTableName = "coffee"

// SourceConfig определяет CSV-источник
type SourceConfig struct {
	Name      string `yaml:"name"`      // Имя таблицы (по умолчанию coffee)
	Path      string `yaml:"path"`      // Путь к CSV файлу
	Delimiter string `yaml:"delimiter"` // Разделитель, один символ (по умолчанию ",")
}

// ViewConfig - SQL-вид поверх очищенной таблицы.
// SQL выполняется в SQLite workspace, результат кешируется при старте.
type ViewConfig struct {
	Name        string `yaml:"name"`
	SQL         string `yaml:"sql"`
	Description string `yaml:"description"`
}

// CleaningConfig - пользовательские шаги очистки, выполняемые после удаления
// неполных строк. Пустой список означает отсутствие дополнительной очистки.
type CleaningConfig struct {
	Custom []processors.Config `yaml:"custom"`
}

// ApplyDefaults заполняет незаданные поля значениями по умолчанию
func (s *SourceConfig) ApplyDefaults() {
	if s.Name == "" {
		s.Name = DefaultTableName
	}
	if s.Path == "" {
		s.Path = DefaultSourcePath
	}
	if s.Delimiter == "" {
		s.Delimiter = ","
	}
}

// Validate проверяет корректность SourceConfig
func (s *SourceConfig) Validate() error {
	if s.Path == "" {
		return fmt.Errorf("path is required")
	}
	if utf8.RuneCountInString(s.Delimiter) != 1 {
		return fmt.Errorf("delimiter must be a single character, got %q", s.Delimiter)
	}
	r, _ := utf8.DecodeRuneInString(s.Delimiter)
	if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return fmt.Errorf("invalid delimiter %q", s.Delimiter)
	}
	return nil
}

// delimiterRune возвращает разделитель как rune (',' если не задан)
func (s *SourceConfig) delimiterRune() rune {
	if s.Delimiter == "" {
		return ','
	}
	r, _ := utf8.DecodeRuneInString(s.Delimiter)
	return r
}

// Validate проверяет корректность ViewConfig
func (v *ViewConfig) Validate() error {
	if v.Name == "" {
		return fmt.Errorf("name is required")
	}
	if v.SQL == "" {
		return fmt.Errorf("view %q: sql is required", v.Name)
	}
	if err := viewSQL.Validate(v.SQL); err != nil {
		return fmt.Errorf("view %q: %w", v.Name, err)
	}
	return nil
}

// DefaultViews возвращает виды, вычисляемые по умолчанию
func DefaultViews() []ViewConfig {
	return []ViewConfig{
		{
			Name: "acidity_by_year",
			SQL: `SELECT "Harvest Year" AS harvest_year, COUNT(*) AS samples, ROUND(AVG("Acidity"), 3) AS avg_acidity
FROM coffee GROUP BY "Harvest Year" ORDER BY "Harvest Year"`,
			Description: "Samples and average acidity per harvest year",
		},
		{
			Name: "farms_by_country",
			SQL: `SELECT "Country of Origin" AS country, COUNT(DISTINCT "Farm Name") AS farms, ROUND(AVG("Total Cup Points"), 2) AS avg_cup_points
FROM coffee GROUP BY "Country of Origin" ORDER BY farms DESC, country`,
			Description: "Distinct farms and average cup points per country",
		},
	}
}
