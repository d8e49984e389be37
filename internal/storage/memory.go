package storage

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of Store
type MemoryStore struct {
	mu     sync.RWMutex
	ids    map[string]int64 // last ID per entity, like a per-table AUTOINCREMENT
	files  map[int64]*File
	labels map[int64]*LabelMatrix
	jobs   map[int64]*Job
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ids:    make(map[string]int64),
		files:  make(map[int64]*File),
		labels: make(map[int64]*LabelMatrix),
		jobs:   make(map[int64]*Job),
	}
}

func (s *MemoryStore) newID(entity string) int64 {
	s.ids[entity]++
	return s.ids[entity]
}

// CreateFile stores a new file
func (s *MemoryStore) CreateFile(_ context.Context, f *File) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.files {
		if existing.Checksum == f.Checksum {
			return fmt.Errorf("file %s: %w", f.Checksum, ErrDuplicate)
		}
	}

	f.ID = s.newID("files")
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	s.files[f.ID] = copyFile(f)
	return nil
}

// GetFile retrieves a file by ID
func (s *MemoryStore) GetFile(_ context.Context, id int64) (*File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("file %d: %w", id, ErrNotFound)
	}
	return copyFile(f), nil
}

// FindFileByChecksum returns the file with the given checksum
func (s *MemoryStore) FindFileByChecksum(_ context.Context, checksum string) (*File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, f := range s.files {
		if f.Checksum == checksum {
			return copyFile(f), nil
		}
	}
	return nil, fmt.Errorf("file with checksum %s: %w", checksum, ErrNotFound)
}

// ListFiles returns all files ordered by ID
func (s *MemoryStore) ListFiles(_ context.Context) ([]*File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*File, 0, len(s.files))
	for _, id := range slices.Sorted(maps.Keys(s.files)) {
		result = append(result, copyFile(s.files[id]))
	}
	return result, nil
}

// CreateLabelMatrix stores a new label matrix
func (s *MemoryStore) CreateLabelMatrix(_ context.Context, l *LabelMatrix) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l.ID = s.newID("label_matrices")
	if l.Name == "" {
		l.Name = defaultLabelName(l.ID)
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	s.labels[l.ID] = copyLabelMatrix(l)
	return nil
}

// GetLabelMatrix retrieves a label matrix by ID
func (s *MemoryStore) GetLabelMatrix(_ context.Context, id int64) (*LabelMatrix, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.labels[id]
	if !ok {
		return nil, fmt.Errorf("label matrix %d: %w", id, ErrNotFound)
	}
	return copyLabelMatrix(l), nil
}

// FindEquivalentLabelMatrix returns the oldest label matrix with the same labels as l
func (s *MemoryStore) FindEquivalentLabelMatrix(_ context.Context, l *LabelMatrix) (*LabelMatrix, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range slices.Sorted(maps.Keys(s.labels)) {
		if s.labels[id].Equivalent(l) {
			return copyLabelMatrix(s.labels[id]), nil
		}
	}
	return nil, fmt.Errorf("equivalent label matrix: %w", ErrNotFound)
}

// ListLabelMatrices returns label matrices matching the filter
func (s *MemoryStore) ListLabelMatrices(_ context.Context, filter LabelFilter) ([]*LabelMatrix, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*LabelMatrix
	for _, id := range slices.Sorted(maps.Keys(s.labels)) {
		if l := s.labels[id]; filter.match(l) {
			result = append(result, copyLabelMatrix(l))
		}
	}
	return result, nil
}

// DeleteLabelMatrix removes an unused label matrix
func (s *MemoryStore) DeleteLabelMatrix(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.labels[id]
	if !ok {
		return fmt.Errorf("label matrix %d: %w", id, ErrNotFound)
	}
	if l.KeepWhenUnused || s.labelReferenced(id) {
		return fmt.Errorf("label matrix %d: %w", id, ErrInUse)
	}
	delete(s.labels, id)
	return nil
}

func (s *MemoryStore) labelReferenced(id int64) bool {
	for _, j := range s.jobs {
		if j.LabelMatrixID == id {
			return true
		}
	}
	return false
}

func (s *MemoryStore) fileReferenced(id int64) bool {
	for _, j := range s.jobs {
		if _, ok := j.File(id); ok {
			return true
		}
	}
	return false
}

// CreateJob stores a new job. The label matrix and all files must exist.
func (s *MemoryStore) CreateJob(_ context.Context, j *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.labels[j.LabelMatrixID]; !ok {
		return fmt.Errorf("label matrix %d: %w", j.LabelMatrixID, ErrNotFound)
	}
	seen := make(map[int64]bool, len(j.Files))
	for _, f := range j.Files {
		if _, ok := s.files[f.FileID]; !ok {
			return fmt.Errorf("file %d: %w", f.FileID, ErrNotFound)
		}
		if seen[f.FileID] {
			return fmt.Errorf("file %d listed twice: %w", f.FileID, ErrDuplicate)
		}
		seen[f.FileID] = true
	}

	j.ID = s.newID("jobs")
	if j.Name == "" {
		j.Name = defaultJobName(j.ID)
	}
	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now().UTC()
	}
	s.jobs[j.ID] = copyJob(j)
	return nil
}

// GetJob retrieves a job by ID
func (s *MemoryStore) GetJob(_ context.Context, id int64) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %d: %w", id, ErrNotFound)
	}
	return copyJob(j), nil
}

// ListJobs returns all jobs ordered by ID
func (s *MemoryStore) ListJobs(_ context.Context) ([]*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Job, 0, len(s.jobs))
	for _, id := range slices.Sorted(maps.Keys(s.jobs)) {
		result = append(result, copyJob(s.jobs[id]))
	}
	return result, nil
}

// UpdateJobThresholds replaces the thresholds of one file in a job
func (s *MemoryStore) UpdateJobThresholds(_ context.Context, jobID, fileID int64, thresholds []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[jobID]
	if !ok {
		return fmt.Errorf("job %d: %w", jobID, ErrNotFound)
	}
	for i := range j.Files {
		if j.Files[i].FileID == fileID {
			j.Files[i].Thresholds = slices.Clone(thresholds)
			return nil
		}
	}
	return fmt.Errorf("file %d in job %d: %w", fileID, jobID, ErrNotFound)
}

// DeleteJob removes a job together with files and label matrix nothing else uses
func (s *MemoryStore) DeleteJob(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("job %d: %w", id, ErrNotFound)
	}
	delete(s.jobs, id)

	for _, f := range j.Files {
		if !s.fileReferenced(f.FileID) {
			delete(s.files, f.FileID)
		}
	}
	if l, ok := s.labels[j.LabelMatrixID]; ok && !l.KeepWhenUnused && !s.labelReferenced(l.ID) {
		delete(s.labels, l.ID)
	}
	return nil
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
