package plots

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"cellviewer/internal/dataset"
)

// Histogram draws the distribution of one substance as a bar chart with one
// bar per bin, labelled by the bin's lower edge
func Histogram(h dataset.Histogram) *charts.Bar {
	edges := make([]string, len(h.Counts))
	bars := make([]opts.BarData, len(h.Counts))
	for i, c := range h.Counts {
		edges[i] = strconv.FormatFloat(h.Edges[i], 'g', 4, 64)
		bars[i] = opts.BarData{Value: c}
	}

	title := fmt.Sprintf("Histogram of %s", h.Substance)
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "900px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("0 to %g", h.Max)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: h.Substance, NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "cells"}),
	)
	bar.SetXAxis(edges).AddSeries(h.Substance, bars,
		charts.WithBarChartOpts(opts.BarChart{BarCategoryGap: "0%"}),
	)
	return bar
}

// RenderPage writes all charts into a single HTML page
func RenderPage(w io.Writer, title string, charts ...components.Charter) error {
	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(charts...)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}
