package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlateCSV(t *testing.T) {
	out := string(PlateCSV(PlateSpec{Rows: 2, Cols: 2, CellsPerWell: 3, Sites: 2}))
	lines := strings.Split(strings.TrimSpace(out), "\n")

	assert.Equal(t, "Well,Site,Cell,OCT4,SOX2", lines[0])
	assert.Len(t, lines, 1+2*2*3)
	assert.Equal(t, "A01,1,1,0,0", lines[1])
	assert.Equal(t, "A01,2,2,1,1", lines[2])
	assert.Equal(t, "B02,1,3,2,2", lines[len(lines)-1])
}

func TestBufferedSlogHandlerKeepsAttrs(t *testing.T) {
	logger, logs := NewTestLogger(t)
	logger.With("component", "test").Info("hello", "n", 1)

	assert.True(t, logs.ContainsMessage("hello"))
	assert.True(t, logs.ContainsAttr("component", "test"))
	assert.True(t, logs.ContainsAttr("n", int64(1)))
	AssertNoErrors(t, logs)
}
