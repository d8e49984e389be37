package plots

import (
	"fmt"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"cellviewer/internal/wellmatrix"
)

// Gradient endpoints used when no colours are given
var defaultColors = []string{"#dcdcdc", "#00008b"}

// Labels are the display names of the plate rows, columns and cells. Cells
// are in row-major order.
type Labels struct {
	Rows  []string
	Cols  []string
	Cells []string
}

// HeatmapOptions configure a heatmap. Max defaults to the matrix maximum.
type HeatmapOptions struct {
	Title     string
	ValueName string // shown in the tooltip when set
	Decimals  int
	Min       float64
	Max       float64
	Colors    []string
}

// labelsFor falls back to the matrix keys for any label list that does not
// fit m.
func labelsFor(l Labels, m wellmatrix.Matrix) Labels {
	rows, cols := m.Dims()
	out := l
	if len(out.Rows) != rows {
		out.Rows = m.Rows()
	}
	if len(out.Cols) != cols {
		out.Cols = m.Cols()
	}
	if len(out.Cells) != rows*cols {
		out.Cells = make([]string, 0, rows*cols)
		for _, r := range out.Rows {
			for _, c := range out.Cols {
				out.Cells = append(out.Cells, r+"_"+c)
			}
		}
	}
	return out
}

// Heatmap draws m with one cell per well
func Heatmap(labels Labels, m wellmatrix.Matrix, o HeatmapOptions) *charts.HeatMap {
	l := labelsFor(labels, m)
	rows, cols := m.Dims()
	rounded := m.Round(o.Decimals)

	max := o.Max
	if max == 0 {
		max = rounded.Max()
	}
	colors := o.Colors
	if len(colors) == 0 {
		colors = defaultColors
	}

	// echarts draws the first category at the bottom, so rows are reversed.
	yAxis := make([]string, rows)
	for i, r := range l.Rows {
		yAxis[rows-1-i] = r
	}

	data := make([]opts.HeatMapData, 0, rows*cols)
	for i := range rows {
		for j := range cols {
			v := rounded.At(i, j)
			tooltip := fmt.Sprintf("Row: %s<br>Col: %s<br>Cell: %s", l.Rows[i], l.Cols[j], l.Cells[i*cols+j])
			if o.ValueName != "" {
				tooltip += fmt.Sprintf("<br>%s: %v", o.ValueName, v)
			}
			var value interface{} = v
			if v == 0 || math.IsNaN(v) {
				value = "-"
			}
			data = append(data, opts.HeatMapData{
				Name:  tooltip,
				Value: [3]interface{}{j, rows - 1 - i, value},
			})
		}
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: o.Title, Width: "900px", Height: fmt.Sprintf("%dpx", 120+40*rows)}),
		charts.WithTitleOpts(opts.Title{Title: o.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Formatter: "{b}"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: l.Cols}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: yAxis}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(o.Min),
			Max:        float32(max),
			InRange:    &opts.VisualMapInRange{Color: colors},
		}),
	)
	hm.SetXAxis(l.Cols).AddSeries(o.Title, data,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true)}),
	)
	return hm
}
