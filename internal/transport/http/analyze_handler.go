package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"cellviewer/internal/dataset"
	apierrors "cellviewer/internal/errors"
	"cellviewer/internal/exporter"
	"cellviewer/internal/middleware"
	"cellviewer/internal/plots"
	"cellviewer/internal/services"
	"cellviewer/internal/wellmatrix"
)

// AnalyzeHandler runs one-off analyses of uploaded files without storing
// them
type AnalyzeHandler struct {
	analysis     *services.AnalysisService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewAnalyzeHandler creates a new analyze handler
func NewAnalyzeHandler(analysis *services.AnalysisService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *AnalyzeHandler {
	return &AnalyzeHandler{
		analysis:     analysis,
		logger:       logger.With(slog.String("handler", "analyze")),
		errorHandler: errorHandler,
	}
}

// Routes returns the analyze routes
func (h *AnalyzeHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Analyze)
	r.Post("/export", h.Export)
	r.Post("/plots", h.Plots)
	return r
}

type analyzeInput struct {
	upload     services.Upload
	dataset    *wellmatrix.Dataset
	thresholds []float64
}

// input reads the multipart "file" and "thresholds" fields
func (h *AnalyzeHandler) input(r *http.Request) (*analyzeInput, error) {
	if err := parseForm(r); err != nil {
		return nil, err
	}
	upload, err := formUpload(r, "file")
	if err != nil {
		return nil, err
	}
	thresholds, err := parseThresholds("thresholds", formValue(r, "thresholds"))
	if err != nil {
		return nil, err
	}
	ds, err := dataset.ParseBytes(upload.Data)
	if err != nil {
		return nil, err
	}
	return &analyzeInput{upload: upload, dataset: ds, thresholds: thresholds}, nil
}

// Analyze handles POST /api/analyze
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	in, err := h.input(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	a, err := h.analysis.AnalyzeDataset(r.Context(), in.dataset, in.thresholds)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.logger.InfoContext(r.Context(), "file analyzed",
		slog.String("file", in.upload.Name),
		slog.String("dimension", a.Dimension),
		slog.Int("cells", a.Cells),
		slog.String("request_id", middleware.GetRequestID(r.Context())))
	render.JSON(w, r, a)
}

// Export handles POST /api/analyze/export?format=xlsx|csv&matrix=all|total|filtered|percent
func (h *AnalyzeHandler) Export(w http.ResponseWriter, r *http.Request) {
	format, err := middleware.QueryEnum(r, "format", []string{"xlsx", "csv"}, "xlsx")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	which, err := middleware.QueryEnum(r, "matrix", []string{"all", "total", "filtered", "percent"}, "all")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	in, err := h.input(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	a, err := h.analysis.AnalyzeDataset(r.Context(), in.dataset, in.thresholds)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	result := wellmatrix.Result{Total: a.Total, Filtered: a.Filtered, Percent: a.Percent}

	if format == "csv" {
		attachment(w, "text/csv", exportName(in.upload.Name, "_"+which, ".csv"))
		err = writeCSVExport(w, result, which)
	} else {
		wb, werr := exporter.IndividualWorkbook(exporter.IndividualReport{
			FileName:   in.upload.Name,
			Substances: a.Substances,
			Thresholds: a.Thresholds,
			Result:     result,
		})
		if werr != nil {
			h.errorHandler.HandleError(w, r, werr)
			return
		}
		err = writeWorkbook(w, wb, exportName(in.upload.Name, "_wellcounts", ".xlsx"))
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "export failed", slog.String("error", err.Error()))
	}
}

func writeCSVExport(w http.ResponseWriter, result wellmatrix.Result, which string) error {
	switch which {
	case "total":
		return exporter.WriteMatrixCSV(w, result.Total)
	case "filtered":
		return exporter.WriteMatrixCSV(w, result.Filtered)
	case "percent":
		return exporter.WriteMatrixCSV(w, result.Percent)
	default:
		return exporter.WriteBlocksCSV(w, exporter.ResultBlocks(result))
	}
}

// Plots handles POST /api/analyze/plots
func (h *AnalyzeHandler) Plots(w http.ResponseWriter, r *http.Request) {
	in, err := h.input(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	a, err := h.analysis.AnalyzeDataset(r.Context(), in.dataset, in.thresholds)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	hists := h.analysis.Histograms(r.Context(), in.dataset)
	charts := analysisCharts(in.upload.Name, plots.Labels{}, a, h.analysis.Decimals(), hists)
	if err := writePage(w, in.upload.Name, charts...); err != nil {
		h.errorHandler.HandleError(w, r, err)
	}
}
