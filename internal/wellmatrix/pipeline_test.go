package wellmatrix

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate(t *testing.T) {
	ds := testDataset(t, []string{"OCT4"}, []rowSpec{
		{"B02", 0}, {"B02", 2}, {"B02", 2},
	})

	res, err := Aggregate(ds, Thresholds{1}, WithDecimals(2))
	require.NoError(t, err)

	assertMatrix(t, []string{"B"}, []string{"02"}, [][]float64{{3}}, res.Total)
	assertMatrix(t, []string{"B"}, []string{"02"}, [][]float64{{2}}, res.Filtered)
	assertMatrix(t, []string{"B"}, []string{"02"}, [][]float64{{66.67}}, res.Percent)
}

func TestAggregateKeepsFilteredOutWells(t *testing.T) {
	ds := testDataset(t, []string{"OCT4"}, []rowSpec{
		{"A01", 5}, {"A02", 0}, {"B01", 0}, {"C03", 7},
	})

	res, err := Aggregate(ds, Thresholds{1})
	require.NoError(t, err)

	// rows B and column 02 have no passing cell but stay in the index
	assertMatrix(t, []string{"A", "B", "C"}, []string{"01", "02", "03"}, [][]float64{
		{1, 0, 0},
		{0, 0, 0},
		{0, 0, 1},
	}, res.Filtered)
	assert.True(t, res.Total.SameIndex(res.Filtered))
	assert.True(t, res.Total.SameIndex(res.Percent))
	assert.Equal(t, [][]float64{
		{100, 0, 0},
		{0, 0, 0},
		{0, 0, 100},
	}, res.Percent.Values())
}

func TestAggregateEverythingFiltered(t *testing.T) {
	ds := testDataset(t, []string{"OCT4"}, []rowSpec{{"A01", 1}, {"B02", 2}})

	res, err := Aggregate(ds, Thresholds{10})
	require.NoError(t, err)

	assert.True(t, res.Total.SameIndex(res.Filtered))
	assert.Zero(t, res.Filtered.Sum())
	assert.Zero(t, res.Percent.Sum())
}

func TestAggregateErrors(t *testing.T) {
	ds := testDataset(t, []string{"OCT4"}, []rowSpec{{"A01", 1}})

	_, err := Aggregate(ds, Thresholds{1, 2})
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = Aggregate(nil, nil)
	assert.ErrorIs(t, err, ErrDegenerateInput)
}

func TestAggregateEmptyDataset(t *testing.T) {
	ds := testDataset(t, []string{"OCT4"}, nil)

	res, err := Aggregate(ds, Thresholds{1})
	require.NoError(t, err)
	r, c := res.Percent.Dims()
	assert.Zero(t, r)
	assert.Zero(t, c)
}

// randomDataset builds a plate-like dataset with sparse wells and two
// substances drawn from [-1, 10).
func randomDataset(t *testing.T, rng *rand.Rand, n int) *Dataset {
	t.Helper()
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{
			Well:   fmt.Sprintf("%c%02d", 'A'+rng.Intn(8), 1+rng.Intn(12)),
			Site:   1 + rng.Intn(4),
			Cell:   i,
			Values: []float64{rng.Float64()*11 - 1, rng.Float64()*11 - 1},
		}
	}
	ds, err := NewDataset([]string{"OCT4", "SOX2"}, rows)
	require.NoError(t, err)
	return ds
}

func TestAggregateProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 50; i++ {
		ds := randomDataset(t, rng, 1+rng.Intn(300))
		th := Thresholds{rng.Float64() * 12, rng.Float64() * 12}
		if i%5 == 0 {
			th = Thresholds{0, 0}
		}

		res, err := Aggregate(ds, th)
		require.NoError(t, err)

		// zero fill
		require.True(t, res.Total.SameIndex(res.Filtered))
		require.True(t, res.Total.SameIndex(res.Percent))

		// count conservation
		passed, err := Filter(ds, th)
		require.NoError(t, err)
		assert.Equal(t, float64(ds.Len()), res.Total.Sum())
		assert.Equal(t, float64(passed.Len()), res.Filtered.Sum())

		// percent bounds
		rows, cols := res.Percent.Dims()
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				p := res.Percent.At(r, c)
				assert.GreaterOrEqual(t, p, 0.0)
				assert.LessOrEqual(t, p, 100.0)
				if res.Total.At(r, c) == 0 {
					assert.Zero(t, p)
				}
			}
		}
	}
}
