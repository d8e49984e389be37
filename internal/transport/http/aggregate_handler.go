package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "cellviewer/internal/errors"
	"cellviewer/internal/exporter"
	"cellviewer/internal/middleware"
	"cellviewer/internal/plots"
	"cellviewer/internal/services"
)

// AggregateRequest selects the jobs to compare
type AggregateRequest struct {
	JobIDs []int64 `json:"job_ids" validate:"required,min=2,max=100,unique,dive,gt=0"`
}

// AggregateHandler compares jobs
type AggregateHandler struct {
	aggregation  *services.AggregationService
	analysis     *services.AnalysisService
	validator    *middleware.Validator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewAggregateHandler creates a new aggregate handler
func NewAggregateHandler(aggregation *services.AggregationService, analysis *services.AnalysisService, validator *middleware.Validator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *AggregateHandler {
	return &AggregateHandler{
		aggregation:  aggregation,
		analysis:     analysis,
		validator:    validator,
		logger:       logger.With(slog.String("handler", "aggregate")),
		errorHandler: errorHandler,
	}
}

// Routes returns the aggregate routes
func (h *AggregateHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Aggregate)
	r.Post("/export", h.Export)
	r.Post("/plots", h.Plots)
	return r
}

func (h *AggregateHandler) compare(r *http.Request) (*services.Comparison, error) {
	var req AggregateRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		return nil, err
	}
	c, err := h.aggregation.Aggregate(r.Context(), req.JobIDs)
	if err != nil {
		return nil, serviceError(err)
	}
	return c, nil
}

// Aggregate handles POST /api/aggregate
func (h *AggregateHandler) Aggregate(w http.ResponseWriter, r *http.Request) {
	c, err := h.compare(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, c)
}

// comparisonReport lays out a comparison for the workbook
func comparisonReport(c *services.Comparison) exporter.ComparisonReport {
	report := exporter.ComparisonReport{Mean: c.Mean, StdDev: c.StdDev}
	for _, f := range c.Files {
		report.Experiments = append(report.Experiments, exporter.Experiment{
			FileName:       f.OriginalName,
			ExperimentName: f.JobName,
			Sites:          f.Analysis.Sites,
			Substances:     f.Analysis.Substances,
			Thresholds:     f.Analysis.Thresholds,
			Percent:        f.Analysis.Percent,
		})
	}
	return report
}

// Export handles POST /api/aggregate/export
func (h *AggregateHandler) Export(w http.ResponseWriter, r *http.Request) {
	c, err := h.compare(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	wb, err := exporter.ComparisonWorkbook(comparisonReport(c))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if err := writeWorkbook(w, wb, "comparison_"+c.Dimension+".xlsx"); err != nil {
		h.logger.ErrorContext(r.Context(), "export failed", slog.String("error", err.Error()))
	}
}

// Plots handles POST /api/aggregate/plots
func (h *AggregateHandler) Plots(w http.ResponseWriter, r *http.Request) {
	c, err := h.compare(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	labels := plotLabels(c.Labels)
	decimals := h.analysis.Decimals()
	mean := plots.Heatmap(labels, c.Mean, plots.HeatmapOptions{
		Title: "Mean double positives", ValueName: "Mean", Decimals: decimals, Max: 100,
	})
	std := plots.Heatmap(labels, c.StdDev, plots.HeatmapOptions{
		Title: "Standard deviation", ValueName: "Std", Decimals: decimals,
	})
	title := fmt.Sprintf("Comparison of %d samples", len(c.Files))
	if err := writePage(w, title, mean, std); err != nil {
		h.errorHandler.HandleError(w, r, err)
	}
}
