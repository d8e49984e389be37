package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `Well,Site,Cell,OCT4,SOX2
B02,1,1,0.5,1.7
B02,2,2,2,0.1
C10,1,1,3.25,4
C2,3,5,12.,-1
`

func TestParse(t *testing.T) {
	ds, err := Parse(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"OCT4", "SOX2"}, ds.Substances)
	require.Equal(t, 4, ds.Len())
	assert.Equal(t, []string{"B02", "B02", "C10", "C2"}, ds.Wells())
	assert.Equal(t, 2, ds.Rows[1].Site)
	assert.Equal(t, 5, ds.Rows[3].Cell)
	assert.Equal(t, []float64{12, -1}, ds.Rows[3].Values)
}

func TestParseAcceptsBOMAndCRLF(t *testing.T) {
	input := "\ufeffWell,Site,Cell,OCT4\r\nA01,1,1,1.5\r\n\r\nA02,1,2,2\r\n"

	ds, err := ParseBytes([]byte(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"A01", "A02"}, ds.Wells())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLine int
		wantText string
	}{
		{"empty", "", 1, "empty file"},
		{"missing substances", "Well,Site,Cell\nA1,1,1\n", 1, "at least one substance"},
		{"wrong header", "Well,Cell,Site,OCT4\n", 1, `must be "Site"`},
		{"duplicate substance", "Well,Site,Cell,OCT4,OCT4\n", 1, "duplicate substance"},
		{"no rows", "Well,Site,Cell,OCT4\n", 2, "no data rows"},
		{"lowercase well", "Well,Site,Cell,OCT4\na1,1,1,2\n", 2, "invalid well"},
		{"long column number", "Well,Site,Cell,OCT4\nA1234,1,1,2\n", 2, "invalid well"},
		{"bad site", "Well,Site,Cell,OCT4\nA1,x,1,2\n", 2, "invalid site"},
		{"bad value", "Well,Site,Cell,OCT4\nA1,1,1,2\nA2,1,2,.5\n", 3, "invalid value"},
		{"short row", "Well,Site,Cell,OCT4,SOX2\nA1,1,1,2\n", 2, "expected 5 fields"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidCSV)

			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.wantLine, perr.Line)
			assert.Contains(t, perr.Error(), tt.wantText)
		})
	}
}
