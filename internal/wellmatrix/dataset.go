package wellmatrix

import (
	"fmt"
	"slices"
)

// Row is a single cell observation.
type Row struct {
	Well   string
	Site   int
	Cell   int
	Values []float64 // one intensity per substance, in Dataset.Substances order
}

// Dataset is an ordered set of cell observations sharing one substance
// column layout. Rows and their Values must not be modified once the
// dataset has been built; filtered datasets share them.
type Dataset struct {
	Substances []string
	Rows       []Row
}

// NewDataset validates that every row carries one value per substance.
func NewDataset(substances []string, rows []Row) (*Dataset, error) {
	if len(substances) == 0 {
		return nil, &DegenerateInputError{Op: "new dataset", Reason: "no substance columns"}
	}
	for i, r := range rows {
		if len(r.Values) != len(substances) {
			return nil, &DegenerateInputError{
				Op:     "new dataset",
				Reason: fmt.Sprintf("row %d (well %q) has %d values for %d substances", i, r.Well, len(r.Values), len(substances)),
			}
		}
	}
	return &Dataset{Substances: slices.Clone(substances), Rows: rows}, nil
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.Rows) }

// Wells returns the well identifier of every row, in row order.
func (d *Dataset) Wells() []string {
	wells := make([]string, len(d.Rows))
	for i, r := range d.Rows {
		wells[i] = r.Well
	}
	return wells
}

// Column returns the values of the i-th substance.
func (d *Dataset) Column(i int) ([]float64, error) {
	if i < 0 || i >= len(d.Substances) {
		return nil, &IndexOutOfRangeError{Index: i, Len: len(d.Substances)}
	}
	col := make([]float64, len(d.Rows))
	for k, r := range d.Rows {
		col[k] = r.Values[i]
	}
	return col, nil
}

// SubstanceIndex returns the column position of the named substance.
func (d *Dataset) SubstanceIndex(name string) (int, bool) {
	i := slices.Index(d.Substances, name)
	return i, i >= 0
}
