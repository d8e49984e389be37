package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no record has the requested id.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a file with the same checksum exists.
	ErrDuplicate = errors.New("duplicate record")
	// ErrInUse is returned when deleting a label matrix that is referenced
	// by a job or marked KeepWhenUnused.
	ErrInUse = errors.New("record in use")
	// ErrInvalidLabel is returned for a label the storage encoding cannot
	// hold.
	ErrInvalidLabel = errors.New("invalid label")
)

// Store persists files, label matrices and jobs. Create methods assign ID,
// CreatedAt and a default name on the passed value.
type Store interface {
	CreateFile(ctx context.Context, f *File) error
	GetFile(ctx context.Context, id int64) (*File, error)
	FindFileByChecksum(ctx context.Context, checksum string) (*File, error)
	ListFiles(ctx context.Context) ([]*File, error)

	CreateLabelMatrix(ctx context.Context, l *LabelMatrix) error
	GetLabelMatrix(ctx context.Context, id int64) (*LabelMatrix, error)
	FindEquivalentLabelMatrix(ctx context.Context, l *LabelMatrix) (*LabelMatrix, error)
	ListLabelMatrices(ctx context.Context, filter LabelFilter) ([]*LabelMatrix, error)
	DeleteLabelMatrix(ctx context.Context, id int64) error

	CreateJob(ctx context.Context, j *Job) error
	GetJob(ctx context.Context, id int64) (*Job, error)
	ListJobs(ctx context.Context) ([]*Job, error)
	UpdateJobThresholds(ctx context.Context, jobID, fileID int64, thresholds []float64) error
	DeleteJob(ctx context.Context, id int64) error

	Close() error
}
