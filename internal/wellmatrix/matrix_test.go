package wellmatrix

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustMatrix(t testing.TB, rows, cols []string, values [][]float64) Matrix {
	t.Helper()
	m, err := NewMatrix(rows, cols, values)
	require.NoError(t, err)
	return m
}

// assertMatrix compares index and values, printing a cmp diff on mismatch.
func assertMatrix(t *testing.T, wantRows, wantCols []string, wantValues [][]float64, got Matrix) {
	t.Helper()
	if diff := cmp.Diff(Index{Rows: wantRows, Cols: wantCols}, got.Index()); diff != "" {
		t.Errorf("index mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantValues, got.Values()); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestNewMatrix(t *testing.T) {
	t.Run("copies input", func(t *testing.T) {
		rows := []string{"A", "B"}
		values := [][]float64{{1, 2}, {3, 4}}
		m := mustMatrix(t, rows, []string{"1", "2"}, values)

		rows[0] = "Z"
		values[0][0] = 99

		v, ok := m.Get("A", "1")
		require.True(t, ok)
		assert.Equal(t, 1.0, v)
	})

	t.Run("row count mismatch", func(t *testing.T) {
		_, err := NewMatrix([]string{"A", "B"}, []string{"1"}, [][]float64{{1}})
		assert.True(t, errors.Is(err, ErrShapeMismatch))
	})

	t.Run("ragged row", func(t *testing.T) {
		_, err := NewMatrix([]string{"A", "B"}, []string{"1", "2"}, [][]float64{{1, 2}, {3}})
		var shapeErr *ShapeMismatchError
		require.ErrorAs(t, err, &shapeErr)
		assert.Contains(t, shapeErr.Op, `"B"`)
	})

	t.Run("duplicate keys", func(t *testing.T) {
		_, err := NewMatrix([]string{"A", "A"}, []string{"1"}, [][]float64{{1}, {2}})
		assert.ErrorIs(t, err, ErrDegenerateInput)
	})

	t.Run("empty", func(t *testing.T) {
		m, err := NewMatrix(nil, nil, nil)
		require.NoError(t, err)
		r, c := m.Dims()
		assert.Zero(t, r)
		assert.Zero(t, c)
		assert.Zero(t, m.Sum())
		assert.Zero(t, m.Max())
	})
}

func TestMatrixAccessors(t *testing.T) {
	m := mustMatrix(t, []string{"A", "B"}, []string{"01", "02", "03"}, [][]float64{
		{1, 0, 5},
		{2, 7, 0},
	})

	assert.Equal(t, 7.0, m.At(1, 1))
	assert.Equal(t, 15.0, m.Sum())
	assert.Equal(t, 7.0, m.Max())
	assert.Equal(t, []float64{2, 7, 0}, m.Row(1))

	_, ok := m.Get("C", "01")
	assert.False(t, ok)

	assert.Panics(t, func() { m.At(2, 0) })

	// mutating returned slices must not leak into the matrix
	m.Rows()[0] = "X"
	m.Values()[0][0] = 42
	assert.Equal(t, []string{"A", "B"}, m.Rows())
	assert.Equal(t, 1.0, m.At(0, 0))
}

func TestMatrixReindex(t *testing.T) {
	m := mustMatrix(t, []string{"B"}, []string{"02"}, [][]float64{{4}})

	out := m.Reindex([]string{"A", "B", "C"}, []string{"01", "02"})

	assertMatrix(t, []string{"A", "B", "C"}, []string{"01", "02"}, [][]float64{
		{0, 0},
		{0, 4},
		{0, 0},
	}, out)
	assert.False(t, m.SameIndex(out))
	assert.True(t, out.SameIndex(Zero([]string{"A", "B", "C"}, []string{"01", "02"})))
}

func TestMatrixRound(t *testing.T) {
	m := mustMatrix(t, []string{"A"}, []string{"1", "2", "3", "4"}, [][]float64{{0.25, 0.35, 66.666666, 2.5}})

	assert.Equal(t, []float64{0.2, 0.3, 66.7, 2.5}, m.Round(1).Row(0))
	assert.Equal(t, []float64{0, 0, 67, 2}, m.Round(0).Row(0))
}

func TestMatrixJSON(t *testing.T) {
	m := mustMatrix(t, []string{"A", "B"}, []string{"1"}, [][]float64{{1}, {2.5}})

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"rows":["A","B"],"cols":["1"],"values":[[1],[2.5]]}`, string(data))

	var back Matrix
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.SameIndex(m))
	assert.Equal(t, m.Values(), back.Values())

	empty, err := json.Marshal(Matrix{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"rows":[],"cols":[],"values":[]}`, string(empty))
}
