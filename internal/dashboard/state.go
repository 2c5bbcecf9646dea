// Package dashboard holds the read-only data context of the coffee dashboard:
// the cleaned record table, the farm selection list and the chart
// descriptions derived from them.
package dashboard

import (
	"github.com/ruslano69/coffeedash/pkg/chart"
	"github.com/ruslano69/coffeedash/pkg/core/table"
)

// AllFarms - значение селектора, означающее "без фильтра"
const AllFarms = "All Farms"

// Привязки колонок графиков
const (
	ColFarm    = "Farm Name"
	ColRegion  = "Region"
	ColYear    = "Harvest Year"
	ColAcidity = "Acidity"
)

// Идентификаторы элементов страницы
const (
	InitialChartID = "farm-overview-chart"
	DropdownID     = "farm-dropdown"
	FarmChartID    = "farm-region-chart"
)

// State - неизменяемый контекст данных дашборда. Создается один раз при старте
// и передается во все обработчики; после New ничего не модифицируется, поэтому
// параллельное чтение безопасно без блокировок.
type State struct {
	table   *table.Table
	options []string
	initial chart.Figure
}

// New строит состояние по очищенной таблице. nil трактуется как пустая таблица.
func New(t *table.Table) *State {
	if t == nil {
		t = table.Empty("")
	}
	s := &State{
		table:   t,
		options: SelectionList(t),
	}
	s.initial = chart.Bar(t, ColFarm, ColRegion)
	s.initial.ID = InitialChartID
	s.initial.Title = "Farms by region"
	return s
}

// SelectionList возвращает различные значения "Farm Name" в порядке первого
// появления и затем ровно один AllFarms. Ферма с именем "All Farms" не
// дублируется. Без колонки "Farm Name" список состоит только из AllFarms.
func SelectionList(t *table.Table) []string {
	seen := map[string]bool{AllFarms: true}
	var opts []string
	for _, v := range t.Column(ColFarm) {
		if seen[v] {
			continue
		}
		seen[v] = true
		opts = append(opts, v)
	}
	return append(opts, AllFarms)
}

// Options возвращает копию списка выбора
func (s *State) Options() []string {
	return append([]string(nil), s.options...)
}

// HasOption reports whether v is one of the dropdown values.
func (s *State) HasOption(v string) bool {
	for _, o := range s.options {
		if o == v {
			return true
		}
	}
	return false
}

// Table возвращает очищенную таблицу. Вызывающий код не должен ее изменять.
func (s *State) Table() *table.Table {
	return s.table
}

// InitialChart возвращает описание стартового bar-графика (Farm Name × Region)
func (s *State) InitialChart() chart.Figure {
	return s.initial
}

// Subset возвращает строки для выбранного значения: вся таблица для AllFarms,
// иначе строки с точным совпадением "Farm Name" (с учетом регистра, без trim).
// Неизвестная ферма дает пустое подмножество.
func (s *State) Subset(selected string) *table.Table {
	if selected == AllFarms {
		return s.table
	}
	return s.table.Where(ColFarm, selected)
}

// FarmChart - реактивное обновление: pie (Harvest Year / Acidity / Farm Name)
// по подмножеству выбранной фермы. Чистая функция от selected и состояния.
func (s *State) FarmChart(selected string) chart.Figure {
	fig := chart.Pie(s.Subset(selected), ColYear, ColAcidity, ColFarm)
	fig.ID = FarmChartID
	fig.Title = "Acidity by harvest year: " + selected
	return fig
}

// IsAll reports whether the selection means "no filter".
func IsAll(selected string) bool {
	return selected == AllFarms
}
