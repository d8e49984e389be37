package testutil

import (
	"bytes"
	"fmt"
	"strings"
)

// PlateSpec describes a synthetic plate export.
type PlateSpec struct {
	Rows         int      // plate rows, lettered from A
	Cols         int      // plate columns, numbered from 01
	CellsPerWell int      // cells per well
	Sites        int      // sites per well, cells are spread round-robin
	Substances   []string // defaults to OCT4,SOX2
	// Value returns the intensity of substance s for the n-th cell of a
	// well. Defaults to n mod 4.
	Value func(well string, n, s int) float64
}

// PlateCSV renders spec as a Well,Site,Cell,<substances> CSV.
func PlateCSV(spec PlateSpec) []byte {
	if len(spec.Substances) == 0 {
		spec.Substances = []string{"OCT4", "SOX2"}
	}
	if spec.Sites <= 0 {
		spec.Sites = 1
	}
	if spec.Value == nil {
		spec.Value = func(_ string, n, _ int) float64 { return float64(n % 4) }
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Well,Site,Cell,%s\n", strings.Join(spec.Substances, ","))
	for r := 0; r < spec.Rows; r++ {
		for c := 1; c <= spec.Cols; c++ {
			well := fmt.Sprintf("%c%02d", 'A'+r, c)
			for n := 0; n < spec.CellsPerWell; n++ {
				fmt.Fprintf(&buf, "%s,%d,%d", well, n%spec.Sites+1, n+1)
				for s := range spec.Substances {
					fmt.Fprintf(&buf, ",%g", spec.Value(well, n, s))
				}
				buf.WriteByte('\n')
			}
		}
	}
	return buf.Bytes()
}
