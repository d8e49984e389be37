package exporter

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cellviewer/internal/wellmatrix"
)

func mustMatrix(t *testing.T, rows, cols []string, values [][]float64) wellmatrix.Matrix {
	t.Helper()
	m, err := wellmatrix.NewMatrix(rows, cols, values)
	require.NoError(t, err)
	return m
}

func sampleResult(t *testing.T) wellmatrix.Result {
	rows, cols := []string{"A", "B"}, []string{"01", "02"}
	return wellmatrix.Result{
		Total:    mustMatrix(t, rows, cols, [][]float64{{3, 2}, {1, 0}}),
		Filtered: mustMatrix(t, rows, cols, [][]float64{{1, 2}, {0, 0}}),
		Percent:  mustMatrix(t, rows, cols, [][]float64{{33.3, 100}, {0, 0}}),
	}
}

func TestWriteMatrixCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMatrixCSV(&buf, sampleResult(t).Percent))

	assert.Equal(t, ",01,02\nA,33.3,100\nB,0,0\n", buf.String())
}

func TestWriteMatrixCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMatrixCSV(&buf, wellmatrix.Matrix{}))
	assert.Equal(t, "\n", buf.String())
}

func TestWriteBlocksCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBlocksCSV(&buf, ResultBlocks(sampleResult(t))))

	want := ExplainTotal + "\n,01,02\nA,3,2\nB,1,0\n" +
		"\n" + ExplainFiltered + "\n,01,02\nA,1,2\nB,0,0\n" +
		"\n" + ExplainPercent + "\n,01,02\nA,33.3,100\nB,0,0\n"
	assert.Equal(t, want, buf.String())
}
