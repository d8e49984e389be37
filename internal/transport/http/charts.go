package http

import (
	"fmt"

	"github.com/go-echarts/go-echarts/v2/components"

	"cellviewer/internal/dataset"
	"cellviewer/internal/plots"
	"cellviewer/internal/services"
	"cellviewer/internal/storage"
)

func plotLabels(l *storage.LabelMatrix) plots.Labels {
	if l == nil {
		return plots.Labels{}
	}
	return plots.Labels{Rows: l.Rows, Cols: l.Cols, Cells: l.Cells}
}

// analysisCharts draws the three matrices of an analysis followed by the
// substance histograms
func analysisCharts(name string, labels plots.Labels, a *services.Analysis, decimals int, hists []dataset.Histogram) []components.Charter {
	charts := []components.Charter{
		plots.Heatmap(labels, a.Total, plots.HeatmapOptions{
			Title: fmt.Sprintf("%s: well counts", name), ValueName: "Cells",
		}),
		plots.Heatmap(labels, a.Filtered, plots.HeatmapOptions{
			Title: fmt.Sprintf("%s: filtered well counts", name), ValueName: "Cells",
		}),
		plots.Heatmap(labels, a.Percent, plots.HeatmapOptions{
			Title: fmt.Sprintf("%s: double positives", name), ValueName: "Percent",
			Decimals: decimals, Max: 100,
		}),
	}
	for _, h := range hists {
		charts = append(charts, plots.Histogram(h))
	}
	return charts
}
