// Package plots renders well count heatmaps and substance histograms as
// go-echarts charts.
//
// Heatmaps put plate row A at the top, leave zero wells out of the colour
// gradient and show the row, column and cell labels in their tooltip.
// RenderPage combines any number of charts into one HTML page.
package plots
