package wellmatrix

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
)

// Index is the row and column key set of a Matrix.
type Index struct {
	Rows []string `json:"rows"`
	Cols []string `json:"cols"`
}

func (i Index) String() string {
	return fmt.Sprintf("%dx%d rows=%v cols=%v", len(i.Rows), len(i.Cols), i.Rows, i.Cols)
}

// Equal reports whether both indexes hold the same keys in the same order.
func (i Index) Equal(o Index) bool {
	return slices.Equal(i.Rows, o.Rows) && slices.Equal(i.Cols, o.Cols)
}

// Matrix is an immutable table of float64 values indexed by well row and
// column keys. The zero value is an empty 0x0 matrix.
type Matrix struct {
	rows   []string
	cols   []string
	values []float64 // row-major, len(rows)*len(cols)
}

// NewMatrix builds a matrix from row keys, column keys and row-major values.
// The values are copied.
func NewMatrix(rows, cols []string, values [][]float64) (Matrix, error) {
	if len(values) != len(rows) {
		return Matrix{}, &ShapeMismatchError{
			Op:   "new matrix",
			Want: Index{Rows: rows, Cols: cols},
			Got:  Index{Rows: make([]string, len(values)), Cols: cols},
		}
	}
	if err := checkUnique("row", rows); err != nil {
		return Matrix{}, err
	}
	if err := checkUnique("column", cols); err != nil {
		return Matrix{}, err
	}

	m := Zero(rows, cols)
	for i, row := range values {
		if len(row) != len(cols) {
			return Matrix{}, &ShapeMismatchError{
				Op:   fmt.Sprintf("new matrix row %q", rows[i]),
				Want: Index{Rows: rows, Cols: cols},
				Got:  Index{Rows: rows, Cols: make([]string, len(row))},
			}
		}
		copy(m.values[i*len(cols):], row)
	}
	return m, nil
}

// Zero returns a matrix of zeros over the given index.
func Zero(rows, cols []string) Matrix {
	return Matrix{
		rows:   slices.Clone(rows),
		cols:   slices.Clone(cols),
		values: make([]float64, len(rows)*len(cols)),
	}
}

func checkUnique(kind string, keys []string) error {
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			return &DegenerateInputError{Op: "new matrix", Reason: fmt.Sprintf("duplicate %s key %q", kind, k)}
		}
		seen[k] = struct{}{}
	}
	return nil
}

// Rows returns a copy of the row keys.
func (m Matrix) Rows() []string { return slices.Clone(m.rows) }

// Cols returns a copy of the column keys.
func (m Matrix) Cols() []string { return slices.Clone(m.cols) }

// Index returns a copy of the row and column keys.
func (m Matrix) Index() Index { return Index{Rows: m.Rows(), Cols: m.Cols()} }

// Dims returns the number of rows and columns.
func (m Matrix) Dims() (rows, cols int) { return len(m.rows), len(m.cols) }

// At returns the value at row i, column j. It panics when out of range.
func (m Matrix) At(i, j int) float64 {
	if i < 0 || i >= len(m.rows) || j < 0 || j >= len(m.cols) {
		panic(fmt.Sprintf("wellmatrix: index (%d,%d) out of range for %dx%d matrix", i, j, len(m.rows), len(m.cols)))
	}
	return m.values[i*len(m.cols)+j]
}

// Get returns the value stored under the given row and column keys.
func (m Matrix) Get(row, col string) (float64, bool) {
	i := slices.Index(m.rows, row)
	j := slices.Index(m.cols, col)
	if i < 0 || j < 0 {
		return 0, false
	}
	return m.values[i*len(m.cols)+j], true
}

// Row returns a copy of row i.
func (m Matrix) Row(i int) []float64 {
	return slices.Clone(m.values[i*len(m.cols) : (i+1)*len(m.cols)])
}

// Values returns a row-major copy of all values.
func (m Matrix) Values() [][]float64 {
	out := make([][]float64, len(m.rows))
	for i := range m.rows {
		out[i] = m.Row(i)
	}
	return out
}

// Sum returns the total of all values.
func (m Matrix) Sum() float64 {
	var s float64
	for _, v := range m.values {
		s += v
	}
	return s
}

// Max returns the largest value, or 0 for an empty matrix.
func (m Matrix) Max() float64 {
	if len(m.values) == 0 {
		return 0
	}
	return slices.Max(m.values)
}

// SameIndex reports whether o has identical row and column keys.
func (m Matrix) SameIndex(o Matrix) bool {
	return slices.Equal(m.rows, o.rows) && slices.Equal(m.cols, o.cols)
}

// Reindex returns the matrix laid out over the given keys. Cells whose keys
// are missing from m are filled with 0; keys of m absent from the target
// index are dropped.
func (m Matrix) Reindex(rows, cols []string) Matrix {
	out := Zero(rows, cols)
	colPos := make([]int, len(cols))
	for j, c := range cols {
		colPos[j] = slices.Index(m.cols, c)
	}
	for i, r := range rows {
		src := slices.Index(m.rows, r)
		if src < 0 {
			continue
		}
		for j, pos := range colPos {
			if pos >= 0 {
				out.values[i*len(cols)+j] = m.values[src*len(m.cols)+pos]
			}
		}
	}
	return out
}

// Map returns a new matrix with f applied to every value.
func (m Matrix) Map(f func(float64) float64) Matrix {
	out := Zero(m.rows, m.cols)
	for k, v := range m.values {
		out.values[k] = f(v)
	}
	return out
}

// zipWith combines two co-indexed matrices elementwise into a new matrix.
func zipWith(op string, a, b Matrix, f func(x, y float64) float64) (Matrix, error) {
	if !a.SameIndex(b) {
		return Matrix{}, &ShapeMismatchError{Op: op, Want: a.Index(), Got: b.Index()}
	}
	out := Zero(a.rows, a.cols)
	for k := range a.values {
		out.values[k] = f(a.values[k], b.values[k])
	}
	return out, nil
}

// Round returns the matrix rounded half-to-even at the given number of
// decimal places.
func (m Matrix) Round(decimals int) Matrix {
	scale := math.Pow(10, float64(decimals))
	return m.Map(func(v float64) float64 {
		return math.RoundToEven(v*scale) / scale
	})
}

type matrixJSON struct {
	Rows   []string    `json:"rows"`
	Cols   []string    `json:"cols"`
	Values [][]float64 `json:"values"`
}

// MarshalJSON encodes the matrix as {"rows":..., "cols":..., "values":...}.
func (m Matrix) MarshalJSON() ([]byte, error) {
	return json.Marshal(matrixJSON{
		Rows:   nonNil(m.rows),
		Cols:   nonNil(m.cols),
		Values: m.Values(),
	})
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (m *Matrix) UnmarshalJSON(data []byte) error {
	var raw matrixJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	decoded, err := NewMatrix(raw.Rows, raw.Cols, raw.Values)
	if err != nil {
		return err
	}
	*m = decoded
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
