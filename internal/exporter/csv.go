package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"cellviewer/internal/wellmatrix"
)

// MatrixBlock is a matrix with the explanation line written above it
type MatrixBlock struct {
	Explanation string
	Matrix      wellmatrix.Matrix
}

// ResultBlocks returns the total, filtered and percent matrices of r with
// their explanations.
func ResultBlocks(r wellmatrix.Result) []MatrixBlock {
	return []MatrixBlock{
		{Explanation: ExplainTotal, Matrix: r.Total},
		{Explanation: ExplainFiltered, Matrix: r.Filtered},
		{Explanation: ExplainPercent, Matrix: r.Percent},
	}
}

// matrixRecords renders m as a header of column keys behind an empty corner
// cell followed by one record per row key.
func matrixRecords(m wellmatrix.Matrix) [][]string {
	rows, cols := m.Rows(), m.Cols()
	records := make([][]string, 0, len(rows)+1)

	header := make([]string, 0, len(cols)+1)
	header = append(header, "")
	header = append(header, cols...)
	records = append(records, header)

	for i, r := range rows {
		record := make([]string, 0, len(cols)+1)
		record = append(record, r)
		for _, v := range m.Row(i) {
			record = append(record, formatFloat(v))
		}
		records = append(records, record)
	}
	return records
}

// WriteMatrixCSV writes a single matrix as CSV
func WriteMatrixCSV(w io.Writer, m wellmatrix.Matrix) error {
	writer := csv.NewWriter(w)
	if err := writer.WriteAll(matrixRecords(m)); err != nil {
		return fmt.Errorf("failed to write matrix: %w", err)
	}
	return nil
}

// WriteBlocksCSV writes each block as its explanation line, the matrix and a
// blank separator line
func WriteBlocksCSV(w io.Writer, blocks []MatrixBlock) error {
	writer := csv.NewWriter(w)
	for i, b := range blocks {
		if i > 0 {
			if err := writer.Write([]string{""}); err != nil {
				return fmt.Errorf("failed to write separator: %w", err)
			}
		}
		if err := writer.Write([]string{b.Explanation}); err != nil {
			return fmt.Errorf("failed to write explanation %d: %w", i, err)
		}
		for _, record := range matrixRecords(b.Matrix) {
			if err := writer.Write(record); err != nil {
				return fmt.Errorf("failed to write block %d: %w", i, err)
			}
		}
	}
	writer.Flush()
	return writer.Error()
}
