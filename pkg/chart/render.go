package chart

import (
	"fmt"
	"io"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Размеры SVG по умолчанию
const (
	DefaultWidth  = 960
	DefaultHeight = 480
)

// palette - качественная палитра, цвета назначаются ключам по порядку появления
var palette = []string{
	"#636efa", "#ef553b", "#00cc96", "#ab63fa", "#ffa15a",
	"#19d3f3", "#ff6692", "#b6e880", "#ff97ff", "#fecb52",
}

// assignFills назначает Fill точкам: одинаковый ключ - одинаковый цвет
func assignFills(points []Point, key func(Point) string) {
	colors := map[string]string{}
	for i := range points {
		k := key(points[i])
		c, ok := colors[k]
		if !ok {
			c = palette[len(colors)%len(palette)]
			colors[k] = c
		}
		points[i].Fill = c
	}
}

func hexColor(fill string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(fill, "#"))
}

// RenderSVG рендерит описание графика в SVG. Пустое описание (или pie без
// положительных значений) рендерится как заглушка "No data".
func RenderSVG(w io.Writer, fig Figure, width, height int) error {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	switch fig.Kind {
	case KindBar:
		if fig.Empty() {
			return renderPlaceholder(w, fig.Title, width, height)
		}
		return renderBar(w, fig, width, height)
	case KindPie:
		if fig.Empty() || fig.Total() <= 0 {
			return renderPlaceholder(w, fig.Title, width, height)
		}
		return renderPie(w, fig, width, height)
	default:
		return fmt.Errorf("unsupported figure kind %q", fig.Kind)
	}
}

func renderBar(w io.Writer, fig Figure, width, height int) error {
	const spacing = 4

	bars := make([]gochart.Value, len(fig.Points))
	maxValue := 0.0
	for i, p := range fig.Points {
		c := hexColor(p.Fill)
		bars[i] = gochart.Value{
			Label: p.Label,
			Value: p.Value,
			Style: gochart.Style{FillColor: c, StrokeColor: c, StrokeWidth: 1},
		}
		if p.Value > maxValue {
			maxValue = p.Value
		}
	}
	if maxValue <= 0 {
		maxValue = 1
	}

	// Ширина столбца подбирается так, чтобы все столбцы поместились на холст
	barWidth := (width-120)/len(bars) - spacing
	if barWidth < 2 {
		barWidth = 2
	}
	if barWidth > 60 {
		barWidth = 60
	}

	yName := fig.Bindings.Y
	if yName != "" && fig.Agg == AggCount {
		yName = "count of " + yName
	}

	bc := gochart.BarChart{
		Title:      fig.Title,
		Width:      width,
		Height:     height,
		BarWidth:   barWidth,
		BarSpacing: spacing,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      gochart.Style{TextRotationDegrees: 45},
		YAxis: gochart.YAxis{
			Name:  yName,
			Range: &gochart.ContinuousRange{Min: 0, Max: maxValue * 1.1},
		},
		Bars: bars,
	}
	if err := bc.Render(gochart.SVG, w); err != nil {
		return fmt.Errorf("render bar chart: %w", err)
	}
	return nil
}

func renderPie(w io.Writer, fig Figure, width, height int) error {
	values := make([]gochart.Value, 0, len(fig.Points))
	for _, p := range fig.Points {
		if p.Value <= 0 {
			continue
		}
		c := hexColor(p.Fill)
		label := p.Label
		if p.Color != "" && p.Color != p.Label {
			label = fmt.Sprintf("%s (%s)", p.Label, p.Color)
		}
		values = append(values, gochart.Value{
			Label: label,
			Value: p.Value,
			Style: gochart.Style{FillColor: c, StrokeColor: drawing.ColorWhite, StrokeWidth: 1},
		})
	}

	pc := gochart.PieChart{
		Title:  fig.Title,
		Width:  width,
		Height: height,
		Values: values,
	}
	if err := pc.Render(gochart.SVG, w); err != nil {
		return fmt.Errorf("render pie chart: %w", err)
	}
	return nil
}

// renderPlaceholder рисует пустой холст с надписью "No data"
func renderPlaceholder(w io.Writer, title string, width, height int) error {
	r, err := gochart.SVG(width, height)
	if err != nil {
		return fmt.Errorf("svg renderer: %w", err)
	}
	font, err := gochart.GetDefaultFont()
	if err != nil {
		return fmt.Errorf("default font: %w", err)
	}

	r.SetFillColor(drawing.ColorWhite)
	r.SetStrokeColor(drawing.ColorFromHex("dddddd"))
	r.SetStrokeWidth(1)
	r.MoveTo(0, 0)
	r.LineTo(width, 0)
	r.LineTo(width, height)
	r.LineTo(0, height)
	r.Close()
	r.FillStroke()

	r.SetFont(font)
	r.SetFontColor(drawing.ColorFromHex("888888"))
	if title != "" {
		r.SetFontSize(14)
		box := r.MeasureText(title)
		r.Text(title, (width-box.Width())/2, 30)
	}
	const msg = "No data"
	r.SetFontSize(18)
	box := r.MeasureText(msg)
	r.Text(msg, (width-box.Width())/2, height/2)

	return r.Save(w)
}
