// Package chart строит декларативные описания графиков (Figure) из таблицы
// и рендерит их в SVG.
package chart

import (
	"github.com/ruslano69/coffeedash/pkg/core/schema"
	"github.com/ruslano69/coffeedash/pkg/core/table"
)

// Kind - тип графика
type Kind string

const (
	KindBar Kind = "bar"
	KindPie Kind = "pie"
)

// Aggregate - способ получения величины точки из строк группы
type Aggregate string

const (
	AggSum   Aggregate = "sum"   // сумма числовых значений
	AggCount Aggregate = "count" // количество строк
)

// Bindings связывает роли графика с колонками таблицы.
// Для bar используются X и Y, для pie - Names, Values и Color.
type Bindings struct {
	X      string `json:"x,omitempty"`
	Y      string `json:"y,omitempty"`
	Names  string `json:"names,omitempty"`
	Values string `json:"values,omitempty"`
	Color  string `json:"color,omitempty"`
}

// Columns возвращает связанные колонки без повторов, в порядке x, y, names, values, color
func (b Bindings) Columns() []string {
	var cols []string
	seen := map[string]bool{}
	for _, c := range []string{b.X, b.Y, b.Names, b.Values, b.Color} {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		cols = append(cols, c)
	}
	return cols
}

// Point - одна агрегированная точка: столбец bar-графика или сектор pie.
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Count int     `json:"count"`           // строк в группе
	Color string  `json:"color,omitempty"` // значение колонки Color (только pie)
	Fill  string  `json:"fill,omitempty"`  // цвет #rrggbb
}

// Figure - описание графика: тип, привязки колонок, подмножество данных
// и агрегированные точки. Создается заново на каждый запрос.
type Figure struct {
	ID       string     `json:"id,omitempty"`
	Kind     Kind       `json:"kind"`
	Title    string     `json:"title,omitempty"`
	Bindings Bindings   `json:"bindings"`
	Agg      Aggregate  `json:"aggregate"`
	Columns  []string   `json:"columns"`
	Data     [][]string `json:"data"`
	Points   []Point    `json:"points"`
	Rows     int        `json:"rows"` // строк в подмножестве
}

// Empty reports whether the figure has nothing to draw.
func (f Figure) Empty() bool {
	return len(f.Points) == 0
}

// Total возвращает сумму значений всех точек
func (f Figure) Total() float64 {
	var sum float64
	for _, p := range f.Points {
		sum += p.Value
	}
	return sum
}

// Bar строит столбчатый график: одна точка на каждое различное значение x
// в порядке первого появления. Если все значения y числовые, высота столбца -
// их сумма, иначе - количество строк с этим x.
func Bar(t *table.Table, x, y string) Figure {
	b := Bindings{X: x, Y: y}
	fig := newFigure(KindBar, t, b)

	xi, yi := t.Index(x), t.Index(y)
	if xi < 0 {
		return fig
	}
	numeric := yi >= 0 && isNumericColumn(t, y)
	if !numeric {
		fig.Agg = AggCount
	}
	conv := schema.NewConverter()

	groups := newGrouper()
	for _, row := range t.Rows {
		label, _ := table.Cell(row, xi)
		p := groups.get(label)
		p.Count++
		if numeric {
			raw, _ := table.Cell(row, yi)
			if v, ok := conv.ParseFloat(raw); ok {
				p.Value += v
			}
		} else {
			p.Value++
		}
	}
	fig.Points = groups.points()
	assignFills(fig.Points, func(p Point) string { return p.Label })
	return fig
}

// Pie строит круговой график: один сектор на каждое различное значение names,
// величина - сумма числовых значений values (нечисловые пропускаются),
// цвет - по первому значению колонки color в группе.
func Pie(t *table.Table, names, values, color string) Figure {
	b := Bindings{Names: names, Values: values, Color: color}
	fig := newFigure(KindPie, t, b)

	ni, vi, ci := t.Index(names), t.Index(values), t.Index(color)
	if ni < 0 || vi < 0 {
		return fig
	}
	conv := schema.NewConverter()

	groups := newGrouper()
	for _, row := range t.Rows {
		label, _ := table.Cell(row, ni)
		p := groups.get(label)
		p.Count++
		if p.Count == 1 && ci >= 0 {
			p.Color, _ = table.Cell(row, ci)
		}
		raw, _ := table.Cell(row, vi)
		if v, ok := conv.ParseFloat(raw); ok {
			p.Value += v
		}
	}
	fig.Points = groups.points()
	assignFills(fig.Points, func(p Point) string {
		if color == "" {
			return p.Label
		}
		return p.Color
	})
	return fig
}

func newFigure(kind Kind, t *table.Table, b Bindings) Figure {
	cols := b.Columns()
	subset := t.Project(cols...)
	return Figure{
		Kind:     kind,
		Bindings: b,
		Agg:      AggSum,
		Columns:  subset.Columns(),
		Data:     subset.Rows,
		Points:   []Point{},
		Rows:     t.Len(),
	}
}

// isNumericColumn - колонка числовая, если выведенный тип INTEGER или REAL
func isNumericColumn(t *table.Table, column string) bool {
	return schema.IsNumericType(schema.InferType(t.Column(column)))
}

// grouper собирает точки по метке, сохраняя порядок первого появления
type grouper struct {
	index map[string]int
	list  []Point
}

func newGrouper() *grouper {
	return &grouper{index: map[string]int{}}
}

func (g *grouper) get(label string) *Point {
	i, ok := g.index[label]
	if !ok {
		i = len(g.list)
		g.index[label] = i
		g.list = append(g.list, Point{Label: label})
	}
	return &g.list[i]
}

func (g *grouper) points() []Point {
	if g.list == nil {
		return []Point{}
	}
	return g.list
}
