package services

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"cellviewer/internal/config"
	"cellviewer/internal/infrastructure"
	"cellviewer/internal/storage"
	"cellviewer/internal/wellmatrix"
)

// ComparedFile is one sample of a comparison
type ComparedFile struct {
	JobID        int64     `json:"job_id"`
	JobName      string    `json:"job_name"`
	FileID       int64     `json:"file_id"`
	OriginalName string    `json:"original_name"`
	Analysis     *Analysis `json:"analysis"`
}

// Comparison is the per-well mean and standard deviation of the double
// positive percentages of every file of the compared jobs
type Comparison struct {
	Dimension string               `json:"dimension"`
	Labels    *storage.LabelMatrix `json:"labels"`
	Files     []ComparedFile       `json:"files"`
	Mean      wellmatrix.Matrix    `json:"mean"`
	StdDev    wellmatrix.Matrix    `json:"std_dev"`
}

// AggregationService compares jobs of the same plate dimension
type AggregationService struct {
	jobs    *JobService
	workers int
	metrics *infrastructure.AnalysisMetrics
	logger  *slog.Logger
}

// NewAggregationService creates a new aggregation service. metrics may be nil.
func NewAggregationService(jobs *JobService, cfg config.AnalysisConfig, metrics *infrastructure.AnalysisMetrics, logger *slog.Logger) *AggregationService {
	if logger == nil {
		logger = slog.Default()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = config.DefaultWorkers
	}
	return &AggregationService{
		jobs:    jobs,
		workers: workers,
		metrics: metrics,
		logger:  logger.With(slog.String("component", "aggregation_service")),
	}
}

// Aggregate analyses every file of the given jobs and reduces their percent
// matrices to a mean and standard deviation. The labels of the first job are
// carried over.
func (s *AggregationService) Aggregate(ctx context.Context, jobIDs []int64) (*Comparison, error) {
	if len(jobIDs) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewJobs, len(jobIDs))
	}

	ctx, span := tracer.Start(ctx, "aggregation.aggregate", trace.WithAttributes(attribute.Int("jobs", len(jobIDs))))
	defer span.End()

	jobs := make([]*JobDetails, len(jobIDs))
	for i, id := range jobIDs {
		job, err := s.jobs.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if i > 0 && job.Dimension != jobs[0].Dimension {
			return nil, fmt.Errorf("%w: job %d is %s, job %d is %s",
				ErrDimensionMismatch, jobs[0].ID, jobs[0].Dimension, job.ID, job.Dimension)
		}
		jobs[i] = job
	}

	var files []ComparedFile
	var work []storage.JobFile
	for _, job := range jobs {
		for _, jf := range job.Files {
			files = append(files, ComparedFile{JobID: job.ID, JobName: job.Name, FileID: jf.FileID, OriginalName: jf.OriginalName})
			work = append(work, jf)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, jf := range work {
		g.Go(func() error {
			a, err := s.jobs.analyzeFile(gctx, jf)
			if err != nil {
				return err
			}
			files[i].Analysis = a.Analysis
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	percents := make([]wellmatrix.Matrix, len(files))
	for i, f := range files {
		percents[i] = f.Analysis.Percent
	}
	mean, std, err := wellmatrix.MeanStdDev(percents)
	if err != nil {
		return nil, fmt.Errorf("aggregate jobs: %w", err)
	}

	if s.metrics != nil {
		s.metrics.AggregationsTotal.Add(ctx, 1)
	}
	s.logger.InfoContext(ctx, "jobs aggregated",
		slog.Any("job_ids", jobIDs),
		slog.Int("samples", len(files)),
		slog.String("dimension", jobs[0].Dimension))

	return &Comparison{
		Dimension: jobs[0].Dimension,
		Labels:    jobs[0].Labels,
		Files:     files,
		Mean:      mean,
		StdDev:    std,
	}, nil
}
