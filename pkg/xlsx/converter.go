package xlsx

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ruslano69/coffeedash/pkg/core/schema"
	"github.com/ruslano69/coffeedash/pkg/core/table"
)

// defaultSheet - имя листа, которое excelize создает в новой книге
const defaultSheet = "Sheet1"

// Write - записать таблицу в w как XLSX книгу с одним листом.
//
// Заголовки содержат имя колонки и тип, например "Acidity (REAL)".
// Значения приводятся к типу колонки через schema.Converter; значения,
// не разобранные как тип колонки, пишутся как текст.
//
// Example:
//
//	err := xlsx.Write(w, subset, "Farm A")
func Write(w io.Writer, t *table.Table, sheetName string) error {
	f, err := build(t, sheetName)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// ToXLSX - записать таблицу в файл filePath
func ToXLSX(t *table.Table, filePath string, sheetName string) error {
	f, err := build(t, sheetName)
	if err != nil {
		return err
	}
	defer f.Close()

	return f.SaveAs(filePath)
}

func build(t *table.Table, sheetName string) (*excelize.File, error) {
	f := excelize.NewFile()

	sheetName = SheetName(sheetName, t.Name)

	// Create/rename sheet
	if sheetName != defaultSheet {
		if err := f.SetSheetName(defaultSheet, sheetName); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet: %w", err)
		}
	}

	// Create header style
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#6F4E37"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	// Write headers
	for col, field := range t.Schema.Fields {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheetName, cell, fmt.Sprintf("%s (%s)", field.Name, field.Type))
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	// Write data rows
	conv := schema.NewConverter()
	for rowIdx, row := range t.Rows {
		for col, field := range t.Schema.Fields {
			value, ok := table.Cell(row, col)
			if !ok {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			tv, err := conv.ParseValue(value, field)
			switch {
			case err != nil:
				f.SetCellValue(sheetName, cell, value)
			case tv.IsNull:
				f.SetCellValue(sheetName, cell, "")
			default:
				f.SetCellValue(sheetName, cell, typedValueToExcel(tv))
				applyCellFormat(f, sheetName, cell, schema.DataType(field.Type))
			}
		}
	}

	if n := len(t.Schema.Fields); n > 0 {
		last, _ := excelize.ColumnNumberToName(n)
		f.SetColWidth(sheetName, "A", last, 15)
		if err := f.SetPanes(sheetName, &excelize.Panes{
			Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
		}); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to freeze header: %w", err)
		}
	}

	return f, nil
}

// SheetName возвращает допустимое имя листа: excelize ограничивает длину 31
// символом, запрещает символы : \ / ? * [ ] и апостроф по краям
func SheetName(preferred, fallback string) string {
	name := strings.Trim(preferred, "'")
	if name == "" {
		name = strings.Trim(fallback, "'")
	}
	if name == "" {
		return defaultSheet
	}
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			r = '_'
		}
		out = append(out, r)
		if len(out) == 31 {
			break
		}
	}
	return strings.TrimRight(string(out), "'")
}

// typedValueToExcel extracts a Go native value from a TypedValue for excelize.
func typedValueToExcel(tv *schema.TypedValue) any {
	switch {
	case tv.IntValue != nil:
		return *tv.IntValue
	case tv.FloatValue != nil:
		return *tv.FloatValue
	case tv.TimeValue != nil:
		return *tv.TimeValue
	default:
		return tv.RawValue
	}
}

// applyCellFormat - apply Excel built-in number format based on type
func applyCellFormat(f *excelize.File, sheet, cell string, fieldType schema.DataType) {
	switch fieldType {
	case schema.TypeInteger:
		f.SetCellStyle(sheet, cell, cell, 1)
	case schema.TypeReal:
		f.SetCellStyle(sheet, cell, cell, 2)
	case schema.TypeDate:
		f.SetCellStyle(sheet, cell, cell, 14)
	case schema.TypeDatetime:
		f.SetCellStyle(sheet, cell, cell, 22)
	}
}
