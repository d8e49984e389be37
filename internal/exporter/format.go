package exporter

import (
	"strconv"
)

// Explanation lines written above each matrix block
const (
	ExplainTotal    = "Well counts per well"
	ExplainFiltered = "Well counts filtered on the substance thresholds"
	ExplainPercent  = "Double positives above the thresholds"
	ExplainMean     = "Mean of double positive percentages"
	ExplainStdDev   = "Standard deviation of double positive percentages"
	ExplainSample   = "Double positive percent"
)

// formatFloat formats a value with the fewest digits that round-trip, so
// counts appear as integers.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
