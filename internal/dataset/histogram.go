package dataset

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"cellviewer/internal/wellmatrix"
)

// DefaultHistogramBins is the number of bins per substance histogram.
const DefaultHistogramBins = 400

// Histogram is the distribution of one substance over [0, Max]. Edges has
// one more element than Counts.
type Histogram struct {
	Substance string    `json:"substance"`
	Max       float64   `json:"max"`
	Edges     []float64 `json:"edges"`
	Counts    []float64 `json:"counts"`
}

// Histograms bins every substance column of ds into equal-width bins from 0
// to the column maximum. Negative values are counted in the first bin. A
// column whose maximum is not positive yields a single bin holding all
// values.
func Histograms(ds *wellmatrix.Dataset, bins int) []Histogram {
	if bins <= 0 {
		bins = DefaultHistogramBins
	}
	out := make([]Histogram, len(ds.Substances))
	for i, name := range ds.Substances {
		values, _ := ds.Column(i)
		out[i] = histogram(name, values, bins)
	}
	return out
}

func histogram(name string, values []float64, bins int) Histogram {
	x := make([]float64, len(values))
	for i, v := range values {
		x[i] = math.Max(v, 0)
	}
	slices.Sort(x)

	max := 0.0
	if len(x) > 0 {
		max = x[len(x)-1]
	}
	if max <= 0 {
		return Histogram{Substance: name, Max: max, Edges: []float64{0, 0}, Counts: []float64{float64(len(x))}}
	}

	dividers := make([]float64, bins+1)
	floats.Span(dividers, 0, max)
	// stat.Histogram bins are half-open; widen the last edge to keep max.
	dividers[bins] = math.Nextafter(max, math.Inf(1))

	counts := stat.Histogram(nil, dividers, x, nil)
	dividers[bins] = max
	return Histogram{Substance: name, Max: max, Edges: dividers, Counts: counts}
}
