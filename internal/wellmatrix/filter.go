package wellmatrix

import "slices"

// Thresholds holds inclusive lower bounds aligned positionally with a
// dataset's substance columns. A vector shorter than the substance list
// constrains only the leading substances.
type Thresholds []float64

// IsZero reports whether the vector imposes no constraint at all: it is
// empty or every bound is exactly 0.
func (t Thresholds) IsZero() bool {
	for _, v := range t {
		if v != 0 {
			return false
		}
	}
	return true
}

// Accepts reports whether values meets every bound. It assumes
// len(values) >= len(t).
func (t Thresholds) Accepts(values []float64) bool {
	for i, bound := range t {
		if !(values[i] >= bound) {
			return false
		}
	}
	return true
}

// ThresholdsByName resolves a substance-name to bound map into a positional
// vector over substances. Substances absent from named get a bound of 0.
// A name that is not one of substances is an IndexOutOfRangeError.
func ThresholdsByName(substances []string, named map[string]float64) (Thresholds, error) {
	t := make(Thresholds, len(substances))
	for name, bound := range named {
		i := slices.Index(substances, name)
		if i < 0 {
			return nil, &IndexOutOfRangeError{Index: -1, Len: len(substances), Name: name}
		}
		t[i] = bound
	}
	return t, nil
}

// Filter returns the rows of ds whose i-th substance value is >= t[i] for
// every i in t. An all-zero or empty vector returns ds unchanged. A vector
// longer than the substance list is an IndexOutOfRangeError.
func Filter(ds *Dataset, t Thresholds) (*Dataset, error) {
	if len(t) > len(ds.Substances) {
		return nil, &IndexOutOfRangeError{Index: len(t) - 1, Len: len(ds.Substances)}
	}
	if t.IsZero() {
		return ds, nil
	}

	kept := make([]Row, 0, len(ds.Rows))
	for _, r := range ds.Rows {
		if t.Accepts(r.Values) {
			kept = append(kept, r)
		}
	}
	return &Dataset{Substances: ds.Substances, Rows: kept}, nil
}

// FilterByName is Filter with the bounds given per substance name.
func FilterByName(ds *Dataset, named map[string]float64) (*Dataset, error) {
	t, err := ThresholdsByName(ds.Substances, named)
	if err != nil {
		return nil, err
	}
	return Filter(ds, t)
}
