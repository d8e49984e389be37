package wellmatrix

import "fmt"

// Result is the co-indexed output of Aggregate.
type Result struct {
	Total    Matrix `json:"total"`
	Filtered Matrix `json:"filtered"`
	Percent  Matrix `json:"percent"`
}

// Aggregate counts cells per well, counts the cells passing t, and derives
// the double positive percentage. The filtered and percent matrices always
// carry the index of the total matrix, so a well emptied by filtering is
// reported as 0 rather than dropped.
func Aggregate(ds *Dataset, t Thresholds, opts ...PercentOption) (Result, error) {
	if ds == nil {
		return Result{}, &DegenerateInputError{Op: "aggregate", Reason: "nil dataset"}
	}

	total := CountDataset(ds)

	filteredDS, err := Filter(ds, t)
	if err != nil {
		return Result{}, fmt.Errorf("aggregate: %w", err)
	}
	filtered := CountDataset(filteredDS).Reindex(total.rows, total.cols)

	percent, err := Percent(total, filtered, opts...)
	if err != nil {
		return Result{}, fmt.Errorf("aggregate: %w", err)
	}

	return Result{Total: total, Filtered: filtered, Percent: percent}, nil
}
