package wellmatrix

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercent(t *testing.T) {
	rows := []string{"A", "B"}
	cols := []string{"1"}

	t.Run("division by zero yields zero", func(t *testing.T) {
		total := mustMatrix(t, rows, cols, [][]float64{{100}, {0}})
		filtered := mustMatrix(t, rows, cols, [][]float64{{0}, {0}})

		got, err := Percent(total, filtered)
		require.NoError(t, err)
		assert.Equal(t, [][]float64{{0}, {0}}, got.Values())
		for _, row := range got.Values() {
			for _, v := range row {
				assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
			}
		}
	})

	t.Run("ratio", func(t *testing.T) {
		total := mustMatrix(t, rows, cols, [][]float64{{3}, {8}})
		filtered := mustMatrix(t, rows, cols, [][]float64{{2}, {2}})

		got, err := Percent(total, filtered)
		require.NoError(t, err)
		assert.InDelta(t, 200.0/3, got.At(0, 0), 1e-12)
		assert.Equal(t, 25.0, got.At(1, 0))
	})

	t.Run("rounding", func(t *testing.T) {
		total := mustMatrix(t, rows, cols, [][]float64{{3}, {8}})
		filtered := mustMatrix(t, rows, cols, [][]float64{{2}, {1}})

		got, err := Percent(total, filtered, WithDecimals(1))
		require.NoError(t, err)
		// 12.5 stays; 66.666... rounds up
		assert.Equal(t, [][]float64{{66.7}, {12.5}}, got.Values())

		got, err = Percent(total, filtered, WithDecimals(0))
		require.NoError(t, err)
		// 12.5 rounds half to even
		assert.Equal(t, [][]float64{{67}, {12}}, got.Values())
	})

	t.Run("mismatched index", func(t *testing.T) {
		total := mustMatrix(t, rows, cols, [][]float64{{1}, {1}})
		filtered := mustMatrix(t, []string{"A"}, cols, [][]float64{{1}})

		_, err := Percent(total, filtered)
		assert.ErrorIs(t, err, ErrShapeMismatch)
	})
}
