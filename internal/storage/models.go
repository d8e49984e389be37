package storage

import (
	"fmt"
	"slices"
	"time"
)

// File is an uploaded measurement export. Files are de-duplicated by the
// SHA-256 checksum of their bytes.
type File struct {
	ID           int64     `json:"id"`
	OriginalName string    `json:"original_name"`
	Checksum     string    `json:"checksum"`
	Size         int64     `json:"size"`
	RowCount     int       `json:"row_count"`
	Dimension    string    `json:"dimension"`
	Substances   []string  `json:"substances"`
	Data         []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// LabelMatrix holds display labels for a plate: one per row, one per column
// and one per cell in row-major order.
type LabelMatrix struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Rows           []string  `json:"rows"`
	Cols           []string  `json:"cols"`
	Cells          []string  `json:"cells"`
	Public         bool      `json:"public"`
	KeepWhenUnused bool      `json:"keep_when_unused"`
	CreatedAt      time.Time `json:"created_at"`
}

// Dimension returns the "<rows>x<cols>" size of the label matrix.
func (l *LabelMatrix) Dimension() string {
	return fmt.Sprintf("%dx%d", len(l.Rows), len(l.Cols))
}

// Equivalent reports whether o carries exactly the same labels.
func (l *LabelMatrix) Equivalent(o *LabelMatrix) bool {
	return slices.Equal(l.Rows, o.Rows) &&
		slices.Equal(l.Cols, o.Cols) &&
		slices.Equal(l.Cells, o.Cells)
}

// Cell returns the label of cell (i, j).
func (l *LabelMatrix) Cell(i, j int) string {
	return l.Cells[i*len(l.Cols)+j]
}

// Job groups files of one dimension with a label matrix and per-file
// substance thresholds.
type Job struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Dimension     string    `json:"dimension"`
	LabelMatrixID int64     `json:"label_matrix_id"`
	Files         []JobFile `json:"files"`
	CreatedAt     time.Time `json:"created_at"`
}

// JobFile links a file into a job. OriginalName is the name used at upload
// time, which may differ from the name the de-duplicated File was first
// stored under.
type JobFile struct {
	FileID       int64     `json:"file_id"`
	OriginalName string    `json:"original_name"`
	Thresholds   []float64 `json:"thresholds"`
}

// File returns the job file with the given file id.
func (j *Job) File(fileID int64) (JobFile, bool) {
	for _, f := range j.Files {
		if f.FileID == fileID {
			return f, true
		}
	}
	return JobFile{}, false
}

// LabelFilter narrows ListLabelMatrices.
type LabelFilter struct {
	Dimension string // "<rows>x<cols>", empty for all
}

func (f LabelFilter) match(l *LabelMatrix) bool {
	return f.Dimension == "" || l.Dimension() == f.Dimension
}

func defaultJobName(id int64) string   { return fmt.Sprintf("job-%d", id) }
func defaultLabelName(id int64) string { return fmt.Sprintf("annotation-%d", id) }

func copyFile(f *File) *File {
	c := *f
	c.Substances = slices.Clone(f.Substances)
	c.Data = slices.Clone(f.Data)
	return &c
}

func copyLabelMatrix(l *LabelMatrix) *LabelMatrix {
	c := *l
	c.Rows = slices.Clone(l.Rows)
	c.Cols = slices.Clone(l.Cols)
	c.Cells = slices.Clone(l.Cells)
	return &c
}

func copyJob(j *Job) *Job {
	c := *j
	c.Files = make([]JobFile, len(j.Files))
	for i, f := range j.Files {
		c.Files[i] = f
		c.Files[i].Thresholds = slices.Clone(f.Thresholds)
	}
	return &c
}
