package exporter

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"cellviewer/internal/wellmatrix"
)

const sheetName = "Sheet1"

// IndividualReport is the content of a single file workbook
type IndividualReport struct {
	FileName       string
	ExperimentName string // defaults to FileName
	Substances     []string
	Thresholds     []float64
	Result         wellmatrix.Result
}

// Experiment is one sample of a comparison workbook
type Experiment struct {
	FileName       string
	ExperimentName string
	Sites          int
	Substances     []string
	Thresholds     []float64
	Percent        wellmatrix.Matrix
}

// ComparisonReport is the content of an aggregation workbook
type ComparisonReport struct {
	Experiments []Experiment
	Mean        wellmatrix.Matrix
	StdDev      wellmatrix.Matrix
}

// sheetWriter appends lines and matrix blocks to one sheet
type sheetWriter struct {
	f     *excelize.File
	row   int
	bold  int
	err   error
	sheet string
}

func newSheetWriter() (*sheetWriter, error) {
	f := excelize.NewFile()
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create style: %w", err)
	}
	return &sheetWriter{f: f, row: 1, bold: bold, sheet: sheetName}, nil
}

// line writes values into consecutive columns of the current row
func (s *sheetWriter) line(values ...any) {
	if s.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, s.row)
	if err == nil {
		err = s.f.SetSheetRow(s.sheet, cell, &values)
	}
	s.err = err
	s.row++
}

func (s *sheetWriter) skip(n int) {
	s.row += n
}

// block writes an explanation line followed by the matrix, then leaves two
// empty rows
func (s *sheetWriter) block(b MatrixBlock) {
	if s.err != nil {
		return
	}
	explanation, _ := excelize.CoordinatesToCellName(1, s.row)
	s.line(b.Explanation)
	if s.err == nil {
		s.err = s.f.SetCellStyle(s.sheet, explanation, explanation, s.bold)
	}

	header := []any{""}
	for _, c := range b.Matrix.Cols() {
		header = append(header, c)
	}
	s.line(header...)

	for i, r := range b.Matrix.Rows() {
		values := []any{r}
		for _, v := range b.Matrix.Row(i) {
			values = append(values, v)
		}
		s.line(values...)
	}
	s.skip(2)
}

// metadata writes the file description and one line per substance threshold
func (s *sheetWriter) metadata(fileName, experimentName string, sites int, substances []string, thresholds []float64) {
	s.line("Original file name", fileName)
	s.line("Experiment name", experimentName)
	if sites > 0 {
		s.line("Amount of sites", sites)
	}
	s.line("Substance thresholds:")
	for i, name := range substances {
		var t float64
		if i < len(thresholds) {
			t = thresholds[i]
		}
		s.line(name, t)
	}
}

func (s *sheetWriter) finish() (*excelize.File, error) {
	if s.err != nil {
		s.f.Close()
		return nil, fmt.Errorf("failed to write workbook: %w", s.err)
	}
	return s.f, nil
}

// IndividualWorkbook lays out the analysis of one file. The caller must
// Close the returned file.
func IndividualWorkbook(r IndividualReport) (*excelize.File, error) {
	s, err := newSheetWriter()
	if err != nil {
		return nil, err
	}

	name := r.FileName
	if name == "" {
		name = "unnamed"
	}
	experiment := r.ExperimentName
	if experiment == "" {
		experiment = name
	}

	s.metadata(name, experiment, 0, r.Substances, r.Thresholds)
	s.skip(2)
	for _, b := range ResultBlocks(r.Result) {
		s.block(b)
	}
	return s.finish()
}

// ComparisonWorkbook lays out every experiment of an aggregation followed by
// the mean and standard deviation matrices. The caller must Close the
// returned file.
func ComparisonWorkbook(r ComparisonReport) (*excelize.File, error) {
	s, err := newSheetWriter()
	if err != nil {
		return nil, err
	}

	for _, e := range r.Experiments {
		s.metadata(e.FileName, e.ExperimentName, e.Sites, e.Substances, e.Thresholds)
		s.skip(2)
		s.block(MatrixBlock{Explanation: ExplainSample, Matrix: e.Percent})
	}
	s.block(MatrixBlock{Explanation: ExplainMean, Matrix: r.Mean})
	s.block(MatrixBlock{Explanation: ExplainStdDev, Matrix: r.StdDev})
	return s.finish()
}
