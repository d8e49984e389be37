package wellmatrix

import "sort"

// CountMatrix counts the occurrences of each well identifier and pivots the
// counts into a dense matrix. Row and column keys are the sorted distinct
// keys observed in wells; unobserved combinations hold 0.
func CountMatrix(wells []string) Matrix {
	counts := make(map[string]int)
	for _, w := range wells {
		counts[w]++
	}
	return pivot(counts)
}

// CountDataset is CountMatrix over the well column of ds.
func CountDataset(ds *Dataset) Matrix {
	counts := make(map[string]int)
	for _, r := range ds.Rows {
		counts[r.Well]++
	}
	return pivot(counts)
}

func pivot(counts map[string]int) Matrix {
	type cell struct{ row, col string }
	cells := make(map[cell]int, len(counts))
	rowSet := make(map[string]struct{})
	colSet := make(map[string]struct{})
	for well, n := range counts {
		r, c := ParseWell(well)
		cells[cell{r, c}] += n
		rowSet[r] = struct{}{}
		colSet[c] = struct{}{}
	}

	rows := sortedKeys(rowSet)
	cols := sortedKeys(colSet)
	rowPos := positions(rows)
	colPos := positions(cols)

	m := Zero(rows, cols)
	for k, n := range cells {
		m.values[rowPos[k.row]*len(cols)+colPos[k.col]] = float64(n)
	}
	return m
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func positions(keys []string) map[string]int {
	pos := make(map[string]int, len(keys))
	for i, k := range keys {
		pos[k] = i
	}
	return pos
}
