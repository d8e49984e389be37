package wellmatrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoSubstanceDataset(t *testing.T) *Dataset {
	t.Helper()
	ds, err := NewDataset([]string{"OCT4", "SOX2"}, []Row{
		{Well: "A01", Site: 1, Cell: 1, Values: []float64{0, 0}},
		{Well: "A01", Site: 1, Cell: 2, Values: []float64{2, 1}},
		{Well: "A02", Site: 1, Cell: 3, Values: []float64{2, 3}},
		{Well: "B01", Site: 2, Cell: 1, Values: []float64{1.99, 5}},
		{Well: "B02", Site: 2, Cell: 2, Values: []float64{5, -1}},
	})
	require.NoError(t, err)
	return ds
}

func cells(ds *Dataset) []int {
	out := make([]int, len(ds.Rows))
	for i, r := range ds.Rows {
		out[i] = r.Cell
	}
	return out
}

func TestFilter(t *testing.T) {
	ds := twoSubstanceDataset(t)

	tests := []struct {
		name       string
		thresholds Thresholds
		wantWells  []string
	}{
		{"inclusive bound", Thresholds{2}, []string{"A01", "A02", "B02"}},
		{"all bounds must hold", Thresholds{2, 2}, []string{"A02"}},
		{"zero bound applies when another is set", Thresholds{1, 0}, []string{"A01", "A02", "B01"}},
		{"nothing passes", Thresholds{100, 100}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Filter(ds, tt.thresholds)
			require.NoError(t, err)
			assert.Equal(t, tt.wantWells, got.Wells())
			assert.Equal(t, ds.Substances, got.Substances)
		})
	}
}

func TestFilterZeroThresholdIsIdentity(t *testing.T) {
	ds := twoSubstanceDataset(t)

	for _, th := range []Thresholds{nil, {}, {0}, {0, 0}} {
		got, err := Filter(ds, th)
		require.NoError(t, err)
		assert.Equal(t, ds.Rows, got.Rows)
	}
}

func TestFilterTooManyThresholds(t *testing.T) {
	ds := twoSubstanceDataset(t)

	_, err := Filter(ds, Thresholds{0, 0, 0})
	var rangeErr *IndexOutOfRangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, 2, rangeErr.Index)
	assert.Equal(t, 2, rangeErr.Len)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestFilterByName(t *testing.T) {
	ds := twoSubstanceDataset(t)

	t.Run("resolves positions", func(t *testing.T) {
		got, err := FilterByName(ds, map[string]float64{"SOX2": 3})
		require.NoError(t, err)
		// OCT4 gets bound 0, which excludes nothing here
		assert.Equal(t, []int{3, 1}, cells(got))
	})

	t.Run("unknown substance", func(t *testing.T) {
		_, err := FilterByName(ds, map[string]float64{"NANOG": 1})
		var rangeErr *IndexOutOfRangeError
		require.ErrorAs(t, err, &rangeErr)
		assert.Equal(t, "NANOG", rangeErr.Name)
	})

	t.Run("empty map passes everything", func(t *testing.T) {
		got, err := FilterByName(ds, nil)
		require.NoError(t, err)
		assert.Equal(t, ds.Len(), got.Len())
	})
}

func TestThresholdsByName(t *testing.T) {
	th, err := ThresholdsByName([]string{"OCT4", "SOX2", "NANOG"}, map[string]float64{"NANOG": 4, "OCT4": 1})
	require.NoError(t, err)
	assert.Equal(t, Thresholds{1, 0, 4}, th)
}

func TestNewDatasetRejectsRaggedRows(t *testing.T) {
	_, err := NewDataset([]string{"OCT4", "SOX2"}, []Row{{Well: "A1", Values: []float64{1}}})
	assert.ErrorIs(t, err, ErrDegenerateInput)

	_, err = NewDataset(nil, nil)
	assert.ErrorIs(t, err, ErrDegenerateInput)
}

func TestDatasetColumn(t *testing.T) {
	ds := twoSubstanceDataset(t)

	col, err := ds.Column(1)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 3, 5, -1}, col)

	_, err = ds.Column(2)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	i, ok := ds.SubstanceIndex("SOX2")
	assert.True(t, ok)
	assert.Equal(t, 1, i)
}
