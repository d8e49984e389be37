package wellmatrix

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type rowSpec struct {
	well   string
	values float64
}

// testDataset builds a single or multi substance dataset. For a single
// substance each spec contributes one value; extra substances get the same
// value.
func testDataset(t testing.TB, substances []string, specs []rowSpec) *Dataset {
	t.Helper()
	rows := make([]Row, len(specs))
	for i, s := range specs {
		values := make([]float64, len(substances))
		for k := range values {
			values[k] = s.values
		}
		rows[i] = Row{Well: s.well, Site: 1, Cell: i + 1, Values: values}
	}
	ds, err := NewDataset(substances, rows)
	require.NoError(t, err)
	return ds
}
