package services

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"cellviewer/internal/config"
	"cellviewer/internal/dataset"
	"cellviewer/internal/infrastructure"
	"cellviewer/internal/wellmatrix"
)

var tracer = otel.Tracer("cellviewer/services")

// Analysis is the well count result for one measurement file
type Analysis struct {
	Dimension    string            `json:"dimension"`
	Plate        dataset.Dimension `json:"plate"`
	Substances   []string          `json:"substances"`
	Thresholds   []float64         `json:"thresholds"`
	Sites        int               `json:"sites"`
	Cells        int               `json:"cells"`
	SubstanceMax []float64         `json:"substance_max"`
	Total        wellmatrix.Matrix `json:"total"`
	Filtered     wellmatrix.Matrix `json:"filtered"`
	Percent      wellmatrix.Matrix `json:"percent"`
}

// AnalysisService runs the well count pipeline on measurement files
type AnalysisService struct {
	decimals int
	bins     int
	metrics  *infrastructure.AnalysisMetrics
	logger   *slog.Logger
}

// NewAnalysisService creates a new analysis service. metrics may be nil.
func NewAnalysisService(cfg config.AnalysisConfig, metrics *infrastructure.AnalysisMetrics, logger *slog.Logger) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisService{
		decimals: cfg.PercentDecimals,
		bins:     cfg.HistogramBins,
		metrics:  metrics,
		logger:   logger.With(slog.String("component", "analysis_service")),
	}
}

// Decimals returns the rounding applied to percent matrices
func (s *AnalysisService) Decimals() int {
	return s.decimals
}

// Analyze parses an uploaded CSV and aggregates it with the given thresholds
func (s *AnalysisService) Analyze(ctx context.Context, data []byte, thresholds []float64) (*Analysis, error) {
	ds, err := dataset.ParseBytes(data)
	if err != nil {
		s.logger.WarnContext(ctx, "rejected measurement file", slog.String("error", err.Error()))
		return nil, err
	}
	return s.AnalyzeDataset(ctx, ds, thresholds)
}

// AnalyzeDataset aggregates a parsed dataset with the given thresholds
func (s *AnalysisService) AnalyzeDataset(ctx context.Context, ds *wellmatrix.Dataset, thresholds []float64) (*Analysis, error) {
	ctx, span := tracer.Start(ctx, "analysis.aggregate", trace.WithAttributes(
		attribute.Int("cells", ds.Len()),
		attribute.Int("substances", len(ds.Substances)),
	))
	defer span.End()

	start := time.Now()
	result, err := wellmatrix.Aggregate(ds, wellmatrix.Thresholds(thresholds), wellmatrix.WithDecimals(s.decimals))
	s.metrics.RecordAnalysis(ctx, ds.Len(), time.Since(start), err)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	dim := dataset.Dimensions(ds)
	s.logger.DebugContext(ctx, "analysis complete",
		slog.Int("cells", ds.Len()),
		slog.String("dimension", dim.String()),
		slog.Duration("duration", time.Since(start)))

	return &Analysis{
		Dimension:    dim.String(),
		Plate:        dim,
		Substances:   ds.Substances,
		Thresholds:   fullThresholds(thresholds, len(ds.Substances)),
		Sites:        dataset.MaxSite(ds),
		Cells:        ds.Len(),
		SubstanceMax: dataset.SubstanceMax(ds),
		Total:        result.Total,
		Filtered:     result.Filtered,
		Percent:      result.Percent,
	}, nil
}

// Histograms bins every substance of ds with the configured bin count
func (s *AnalysisService) Histograms(ctx context.Context, ds *wellmatrix.Dataset) []dataset.Histogram {
	_, span := tracer.Start(ctx, "analysis.histograms")
	defer span.End()
	return dataset.Histograms(ds, s.bins)
}

// fullThresholds pads t with zeros to one bound per substance for display.
func fullThresholds(t []float64, n int) []float64 {
	out := make([]float64, max(n, len(t)))
	copy(out, t)
	return out
}
