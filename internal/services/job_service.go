package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"cellviewer/internal/dataset"
	"cellviewer/internal/infrastructure"
	"cellviewer/internal/storage"
	"cellviewer/internal/wellmatrix"
)

// Upload is a measurement file received from a client
type Upload struct {
	Name string
	Data []byte
}

// CreateJobRequest describes a new job. Thresholds holds one vector per
// upload; missing vectors mean no filtering. When LabelMatrixID is zero a
// label matrix is built from the plate defaults and Labels.
type CreateJobRequest struct {
	Name          string      `validate:"max=255"`
	Uploads       []Upload    `validate:"min=1"`
	Thresholds    [][]float64 `validate:"omitempty"`
	LabelMatrixID int64
	Labels        Labels
	LabelName     string `validate:"max=255"`
}

// JobDetails is a job together with its label matrix
type JobDetails struct {
	*storage.Job
	Labels *storage.LabelMatrix `json:"labels"`
}

// FileAnalysis is the analysis of one file of a job
type FileAnalysis struct {
	FileID       int64     `json:"file_id"`
	OriginalName string    `json:"original_name"`
	Analysis     *Analysis `json:"analysis"`
}

// JobService manages jobs and their files
type JobService struct {
	store    storage.Store
	labels   *LabelService
	analysis *AnalysisService
	metrics  *infrastructure.AnalysisMetrics
	logger   *slog.Logger
}

// NewJobService creates a new job service. metrics may be nil.
func NewJobService(store storage.Store, labels *LabelService, analysis *AnalysisService, metrics *infrastructure.AnalysisMetrics, logger *slog.Logger) *JobService {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobService{
		store:    store,
		labels:   labels,
		analysis: analysis,
		metrics:  metrics,
		logger:   logger.With(slog.String("component", "job_service")),
	}
}

// UploadFile validates and stores an upload. Identical bytes are stored once;
// a repeated upload returns the existing file.
func (s *JobService) UploadFile(ctx context.Context, u Upload) (*storage.File, *wellmatrix.Dataset, error) {
	f, ds, _, err := s.upload(ctx, u)
	return f, ds, err
}

// StoreUpload is UploadFile for callers that need to know whether the bytes
// were already stored
func (s *JobService) StoreUpload(ctx context.Context, u Upload) (f *storage.File, existed bool, err error) {
	f, _, existed, err = s.upload(ctx, u)
	return f, existed, err
}

func (s *JobService) upload(ctx context.Context, u Upload) (*storage.File, *wellmatrix.Dataset, bool, error) {
	ds, err := dataset.ParseBytes(u.Data)
	if err != nil {
		return nil, nil, false, fmt.Errorf("%s: %w", u.Name, err)
	}

	checksum := dataset.Checksum(u.Data)
	existing, err := s.store.FindFileByChecksum(ctx, checksum)
	if err == nil {
		s.count(ctx, true)
		s.logger.DebugContext(ctx, "upload matches stored file",
			slog.Int64("file_id", existing.ID),
			slog.String("name", u.Name))
		return existing, ds, true, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, nil, false, fmt.Errorf("find file: %w", err)
	}

	f := &storage.File{
		OriginalName: u.Name,
		Checksum:     checksum,
		Size:         int64(len(u.Data)),
		RowCount:     ds.Len(),
		Dimension:    dataset.Dimensions(ds).String(),
		Substances:   ds.Substances,
		Data:         u.Data,
	}
	if err := s.store.CreateFile(ctx, f); err != nil {
		return nil, nil, false, fmt.Errorf("store file %s: %w", u.Name, err)
	}
	s.count(ctx, false)
	s.logger.InfoContext(ctx, "file stored",
		slog.Int64("file_id", f.ID),
		slog.String("name", f.OriginalName),
		slog.String("dimension", f.Dimension),
		slog.Int("rows", f.RowCount))
	return f, ds, false, nil
}

func (s *JobService) count(ctx context.Context, deduplicated bool) {
	if s.metrics == nil {
		return
	}
	s.metrics.FilesUploaded.Add(ctx, 1)
	if deduplicated {
		s.metrics.FilesDeduplicated.Add(ctx, 1)
	}
}

// LoadFile returns a stored file and its parsed dataset
func (s *JobService) LoadFile(ctx context.Context, id int64) (*storage.File, *wellmatrix.Dataset, error) {
	f, err := s.store.GetFile(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: %d", ErrFileNotFound, id)
	}
	if err != nil {
		return nil, nil, err
	}
	ds, err := dataset.ParseBytes(f.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("stored file %d: %w", id, err)
	}
	return f, ds, nil
}

// ListFiles returns all stored files
func (s *JobService) ListFiles(ctx context.Context) ([]*storage.File, error) {
	return s.store.ListFiles(ctx)
}

// DefaultLabels returns the default labels of a stored file's plate
func (s *JobService) DefaultLabels(ctx context.Context, fileID int64) (Labels, error) {
	_, ds, err := s.LoadFile(ctx, fileID)
	if err != nil {
		return Labels{}, err
	}
	return DefaultLabels(dataset.Dimensions(ds)), nil
}

// Create stores the uploads and a job over them. All uploads must share one
// plate dimension, which the label matrix must match as well. Every upload,
// threshold set and label override is checked before anything is stored.
func (s *JobService) Create(ctx context.Context, req CreateJobRequest) (*JobDetails, error) {
	if len(req.Uploads) == 0 {
		return nil, ErrNoFiles
	}
	if len(req.Thresholds) > len(req.Uploads) {
		return nil, fmt.Errorf("%w: %d threshold sets for %d files", ErrInvalidInput, len(req.Thresholds), len(req.Uploads))
	}

	var plate dataset.Dimension
	for i, u := range req.Uploads {
		ds, err := dataset.ParseBytes(u.Data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", u.Name, err)
		}
		dim := dataset.Dimensions(ds)
		if i == 0 {
			plate = dim
		} else if dim.String() != plate.String() {
			return nil, fmt.Errorf("%w: %s is %s, %s is %s",
				ErrDimensionMismatch, req.Uploads[0].Name, plate, u.Name, dim)
		}
		if i < len(req.Thresholds) {
			if err := checkThresholds(req.Thresholds[i], ds.Substances); err != nil {
				return nil, fmt.Errorf("%s: %w", u.Name, err)
			}
		}
	}

	labels, resolved, err := s.jobLabels(ctx, req, plate)
	if err != nil {
		return nil, err
	}

	var (
		files []storage.JobFile
		seen  = make(map[int64]bool)
	)
	for i, u := range req.Uploads {
		f, _, err := s.UploadFile(ctx, u)
		if err != nil {
			return nil, err
		}
		if seen[f.ID] {
			continue
		}
		seen[f.ID] = true

		var thresholds []float64
		if i < len(req.Thresholds) {
			thresholds = slices.Clone(req.Thresholds[i])
		}
		files = append(files, storage.JobFile{
			FileID:       f.ID,
			OriginalName: u.Name,
			Thresholds:   thresholds,
		})
	}

	if labels == nil {
		if labels, err = s.labels.Save(ctx, SaveLabelsRequest{Name: req.LabelName, Labels: resolved}); err != nil {
			return nil, err
		}
	}

	job := &storage.Job{
		Name:          req.Name,
		Dimension:     plate.String(),
		LabelMatrixID: labels.ID,
		Files:         files,
	}
	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	s.logger.InfoContext(ctx, "job created",
		slog.Int64("job_id", job.ID),
		slog.String("name", job.Name),
		slog.String("dimension", job.Dimension),
		slog.Int("files", len(job.Files)))
	return &JobDetails{Job: job, Labels: labels}, nil
}

// jobLabels returns the stored label matrix the request names, or the
// resolved labels to save for it.
func (s *JobService) jobLabels(ctx context.Context, req CreateJobRequest, plate dataset.Dimension) (*storage.LabelMatrix, Labels, error) {
	if req.LabelMatrixID != 0 {
		l, err := s.labels.Get(ctx, req.LabelMatrixID)
		if err != nil {
			return nil, Labels{}, err
		}
		if l.Dimension() != plate.String() {
			return nil, Labels{}, fmt.Errorf("%w: label matrix %d is %s, files are %s",
				ErrDimensionMismatch, l.ID, l.Dimension(), plate)
		}
		return l, Labels{}, nil
	}

	resolved, err := ResolveLabels(DefaultLabels(plate), req.Labels)
	if err != nil {
		return nil, Labels{}, err
	}
	if err := checkLabels(resolved); err != nil {
		return nil, Labels{}, err
	}
	return nil, resolved, nil
}

func checkThresholds(t []float64, substances []string) error {
	if len(t) > len(substances) {
		return &wellmatrix.IndexOutOfRangeError{Index: len(t) - 1, Len: len(substances)}
	}
	return nil
}

// Get returns a job with its label matrix
func (s *JobService) Get(ctx context.Context, id int64) (*JobDetails, error) {
	job, err := s.store.GetJob(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrJobNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	labels, err := s.labels.Get(ctx, job.LabelMatrixID)
	if err != nil {
		return nil, err
	}
	return &JobDetails{Job: job, Labels: labels}, nil
}

// List returns all jobs
func (s *JobService) List(ctx context.Context) ([]*storage.Job, error) {
	return s.store.ListJobs(ctx)
}

// Delete removes a job and whatever only it referenced
func (s *JobService) Delete(ctx context.Context, id int64) error {
	err := s.store.DeleteJob(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %d", ErrJobNotFound, id)
	}
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "job deleted", slog.Int64("job_id", id))
	return nil
}

// UpdateThresholds replaces the thresholds of one file of a job
func (s *JobService) UpdateThresholds(ctx context.Context, jobID, fileID int64, thresholds []float64) error {
	f, err := s.store.GetFile(ctx, fileID)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %d", ErrFileNotFound, fileID)
	}
	if err != nil {
		return err
	}
	if err := checkThresholds(thresholds, f.Substances); err != nil {
		return err
	}

	err = s.store.UpdateJobThresholds(ctx, jobID, fileID, thresholds)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: file %d of job %d", ErrJobNotFound, fileID, jobID)
	}
	return err
}

// AnalyzeJob aggregates every file of a job with its stored thresholds
func (s *JobService) AnalyzeJob(ctx context.Context, id int64) ([]FileAnalysis, error) {
	ctx, span := tracer.Start(ctx, "job.analyze", trace.WithAttributes(attribute.Int64("job_id", id)))
	defer span.End()

	job, err := s.store.GetJob(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrJobNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	out := make([]FileAnalysis, 0, len(job.Files))
	for _, jf := range job.Files {
		a, err := s.analyzeFile(ctx, jf)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, nil
}

func (s *JobService) analyzeFile(ctx context.Context, jf storage.JobFile) (*FileAnalysis, error) {
	_, ds, err := s.LoadFile(ctx, jf.FileID)
	if err != nil {
		return nil, err
	}
	a, err := s.analysis.AnalyzeDataset(ctx, ds, jf.Thresholds)
	if err != nil {
		return nil, fmt.Errorf("file %d: %w", jf.FileID, err)
	}
	return &FileAnalysis{FileID: jf.FileID, OriginalName: jf.OriginalName, Analysis: a}, nil
}
