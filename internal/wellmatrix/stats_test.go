package wellmatrix

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMean(t *testing.T) {
	cols := []string{"1", "2"}
	a := mustMatrix(t, []string{"A", "B"}, cols, [][]float64{{20, 40}, {60, 80}})
	b := mustMatrix(t, []string{"A", "B"}, cols, [][]float64{{30, 50}, {-10, 10}})

	mean, err := Mean([]Matrix{a, b})
	require.NoError(t, err)
	assertMatrix(t, []string{"A", "B"}, cols, [][]float64{{25, 45}, {25, 45}}, mean)

	// inputs untouched by the fold
	assert.Equal(t, [][]float64{{20, 40}, {60, 80}}, a.Values())
}

func TestStdDevSmallSample(t *testing.T) {
	rows := []string{"A", "B"}
	cols := []string{"1"}
	a := mustMatrix(t, rows, cols, [][]float64{{3}, {5}})
	b := mustMatrix(t, rows, cols, [][]float64{{7}, {6}})

	mean, std, err := MeanStdDev([]Matrix{a, b})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{5}, {5.5}}, mean.Values())

	// two samples: divide by n-1
	assert.InDelta(t, math.Sqrt(8), std.At(0, 0), 1e-12)
	assert.InDelta(t, math.Sqrt(0.5), std.At(1, 0), 1e-12)
}

func TestStdDevLargeSample(t *testing.T) {
	rows := []string{"A"}
	cols := []string{"1"}

	build := func(n int) []Matrix {
		ms := make([]Matrix, n)
		for i := range ms {
			v := 0.0
			if i%2 == 1 {
				v = 2
			}
			ms[i] = mustMatrix(t, rows, cols, [][]float64{{v}})
		}
		return ms
	}

	tests := []struct {
		n    int
		want float64
	}{
		// 29 samples: 14 twos, mean 28/29
		{29, math.Sqrt((15*math.Pow(28.0/29, 2) + 14*math.Pow(2-28.0/29, 2)) / 28)},
		// 30 samples: mean 1, population formula
		{30, 1},
		{40, 1},
	}

	for _, tt := range tests {
		_, std, err := MeanStdDev(build(tt.n))
		require.NoError(t, err)
		assert.InDelta(t, tt.want, std.At(0, 0), 1e-9, "n=%d", tt.n)
	}
}

func TestStdDevSingleSample(t *testing.T) {
	a := mustMatrix(t, []string{"A"}, []string{"1", "2"}, [][]float64{{12.5, 3}})

	mean, std, err := MeanStdDev([]Matrix{a})
	require.NoError(t, err)
	assert.Equal(t, a.Values(), mean.Values())
	assert.Equal(t, [][]float64{{0, 0}}, std.Values())
}

func TestStatsErrors(t *testing.T) {
	a := mustMatrix(t, []string{"A"}, []string{"1"}, [][]float64{{1}})
	b := mustMatrix(t, []string{"A", "B"}, []string{"1"}, [][]float64{{1}, {2}})

	_, err := Mean(nil)
	assert.ErrorIs(t, err, ErrDegenerateInput)

	_, err = Mean([]Matrix{a, b})
	var shapeErr *ShapeMismatchError
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, []string{"A", "B"}, shapeErr.Got.Rows)

	_, err = StdDev([]Matrix{a, b}, a)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = StdDev([]Matrix{a, a}, b)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = StdDev(nil, a)
	assert.ErrorIs(t, err, ErrDegenerateInput)
}
