package dataset

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"cellviewer/internal/wellmatrix"
)

// Dimension is the set of plate row letters and column numbers present in a
// dataset, each sorted as strings.
type Dimension struct {
	Letters []string `json:"letters"`
	Numbers []string `json:"numbers"`
}

// String formats the dimension as "<rows>x<cols>", e.g. "8x12".
func (d Dimension) String() string {
	return FormatDimension(len(d.Letters), len(d.Numbers))
}

// FormatDimension formats a row and column count as "<rows>x<cols>".
func FormatDimension(rows, cols int) string {
	return fmt.Sprintf("%dx%d", rows, cols)
}

// ParseDimension reverses FormatDimension.
func ParseDimension(s string) (rows, cols int, err error) {
	r, c, ok := strings.Cut(s, "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid dimension %q", s)
	}
	if rows, err = strconv.Atoi(r); err != nil || rows < 0 {
		return 0, 0, fmt.Errorf("invalid dimension %q", s)
	}
	if cols, err = strconv.Atoi(c); err != nil || cols < 0 {
		return 0, 0, fmt.Errorf("invalid dimension %q", s)
	}
	return rows, cols, nil
}

// Dimensions returns the distinct row letters and column numbers of ds, in
// the same order a count matrix over ds uses.
func Dimensions(ds *wellmatrix.Dataset) Dimension {
	letters := make(map[string]struct{})
	numbers := make(map[string]struct{})
	for _, r := range ds.Rows {
		row, col := wellmatrix.ParseWell(r.Well)
		letters[row] = struct{}{}
		numbers[col] = struct{}{}
	}
	return Dimension{Letters: sorted(letters), Numbers: sorted(numbers)}
}

// MaxSite returns the highest site index, which is the number of imaged
// sites per well.
func MaxSite(ds *wellmatrix.Dataset) int {
	max := 0
	for _, r := range ds.Rows {
		if r.Site > max {
			max = r.Site
		}
	}
	return max
}

// SubstanceMax returns the largest value of each substance, or 0 for an
// empty dataset.
func SubstanceMax(ds *wellmatrix.Dataset) []float64 {
	out := make([]float64, len(ds.Substances))
	for k, r := range ds.Rows {
		for i, v := range r.Values {
			if k == 0 || v > out[i] {
				out[i] = v
			}
		}
	}
	return out
}

// Checksum returns the hex encoded SHA-256 of an upload.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func sorted(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
