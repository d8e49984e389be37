package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-echarts/go-echarts/v2/components"

	apierrors "cellviewer/internal/errors"
	"cellviewer/internal/exporter"
	"cellviewer/internal/middleware"
	"cellviewer/internal/plots"
	"cellviewer/internal/services"
	ws "cellviewer/internal/websocket"
	"cellviewer/internal/wellmatrix"
)

// Notifier pushes events to connected clients
type Notifier interface {
	Broadcast(msgType string, data interface{}) error
}

// JobEvent is broadcast when a job is created or deleted
type JobEvent struct {
	Action string `json:"action"`
	JobID  int64  `json:"job_id"`
	Name   string `json:"name,omitempty"`
}

// UpdateThresholdsRequest replaces the thresholds of one file of a job
type UpdateThresholdsRequest struct {
	FileID     int64     `json:"file_id" validate:"required,gt=0"`
	Thresholds []float64 `json:"thresholds" validate:"max=64"`
}

// JobHandler handles jobs
type JobHandler struct {
	jobs         *services.JobService
	analysis     *services.AnalysisService
	validator    *middleware.Validator
	notifier     Notifier
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewJobHandler creates a new job handler. notifier may be nil.
func NewJobHandler(
	jobs *services.JobService,
	analysis *services.AnalysisService,
	validator *middleware.Validator,
	notifier Notifier,
	logger *slog.Logger,
	errorHandler *apierrors.ErrorHandler,
) *JobHandler {
	return &JobHandler{
		jobs:         jobs,
		analysis:     analysis,
		validator:    validator,
		notifier:     notifier,
		logger:       logger.With(slog.String("handler", "jobs")),
		errorHandler: errorHandler,
	}
}

// Routes returns the job routes
func (h *JobHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Delete)
		r.Put("/thresholds", h.UpdateThresholds)
		r.Get("/analysis", h.Analysis)
		r.Get("/export", h.Export)
		r.Get("/plots", h.Plots)
	})
	return r
}

func (h *JobHandler) notify(r *http.Request, ev JobEvent) {
	if h.notifier == nil {
		return
	}
	if err := h.notifier.Broadcast(ws.TypeJobs, ev); err != nil {
		h.logger.WarnContext(r.Context(), "job event not broadcast",
			slog.String("action", ev.Action),
			slog.Int64("job_id", ev.JobID),
			slog.String("error", err.Error()))
	}
}

// List handles GET /api/jobs
func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.jobs.List(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, jobs)
}

// createRequest reads the multipart job form: repeated "files" and
// "thresholds" fields, plus "name", "label_matrix_id", "label_name" and a
// JSON "labels" override
func (h *JobHandler) createRequest(r *http.Request) (services.CreateJobRequest, error) {
	var req services.CreateJobRequest
	if err := parseForm(r); err != nil {
		return req, err
	}
	uploads, err := formUploads(r, "files")
	if err != nil {
		return req, err
	}
	thresholds, err := formThresholds(r, "thresholds")
	if err != nil {
		return req, err
	}
	req = services.CreateJobRequest{
		Name:       formValue(r, "name"),
		Uploads:    uploads,
		Thresholds: thresholds,
		LabelName:  formValue(r, "label_name"),
	}
	if raw := formValue(r, "label_matrix_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return req, apierrors.ErrValidation("label_matrix_id", "label_matrix_id must be a positive integer")
		}
		req.LabelMatrixID = id
	}
	if raw := formValue(r, "labels"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Labels); err != nil {
			return req, apierrors.ErrValidation("labels", fmt.Sprintf("labels must be a JSON object: %v", err))
		}
	}
	if err := h.validator.Struct(req); err != nil {
		return req, err
	}
	return req, nil
}

// Create handles POST /api/jobs
func (h *JobHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, err := h.createRequest(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	job, err := h.jobs.Create(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, serviceError(err))
		return
	}
	h.notify(r, JobEvent{Action: "created", JobID: job.ID, Name: job.Name})
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, job)
}

// Get handles GET /api/jobs/{id}
func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	job, err := h.jobs.Get(r.Context(), id)
	if err != nil {
		h.errorHandler.HandleError(w, r, serviceError(err))
		return
	}
	render.JSON(w, r, job)
}

// Delete handles DELETE /api/jobs/{id}
func (h *JobHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if err := h.jobs.Delete(r.Context(), id); err != nil {
		h.errorHandler.HandleError(w, r, serviceError(err))
		return
	}
	h.notify(r, JobEvent{Action: "deleted", JobID: id})
	w.WriteHeader(http.StatusNoContent)
}

// UpdateThresholds handles PUT /api/jobs/{id}/thresholds
func (h *JobHandler) UpdateThresholds(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	var req UpdateThresholdsRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if err := h.jobs.UpdateThresholds(r.Context(), id, req.FileID, req.Thresholds); err != nil {
		h.errorHandler.HandleError(w, r, serviceError(err))
		return
	}
	job, err := h.jobs.Get(r.Context(), id)
	if err != nil {
		h.errorHandler.HandleError(w, r, serviceError(err))
		return
	}
	render.JSON(w, r, job)
}

// Analysis handles GET /api/jobs/{id}/analysis
func (h *JobHandler) Analysis(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	results, err := h.jobs.AnalyzeJob(r.Context(), id)
	if err != nil {
		h.errorHandler.HandleError(w, r, serviceError(err))
		return
	}
	render.JSON(w, r, results)
}

// Export handles GET /api/jobs/{id}/export?file_id=N. It sends the workbook
// of one file of the job.
func (h *JobHandler) Export(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	fileID, err := middleware.QueryInt(r, "file_id", 1, math.MaxInt32, 0)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if fileID == 0 {
		h.errorHandler.HandleError(w, r, apierrors.MissingParameter("file_id"))
		return
	}

	job, err := h.jobs.Get(r.Context(), id)
	if err != nil {
		h.errorHandler.HandleError(w, r, serviceError(err))
		return
	}
	results, err := h.jobs.AnalyzeJob(r.Context(), id)
	if err != nil {
		h.errorHandler.HandleError(w, r, serviceError(err))
		return
	}
	var found *services.FileAnalysis
	for i := range results {
		if results[i].FileID == int64(fileID) {
			found = &results[i]
			break
		}
	}
	if found == nil {
		h.errorHandler.HandleError(w, r, serviceError(fmt.Errorf("%w: %d in job %d", services.ErrFileNotFound, fileID, id)))
		return
	}

	a := found.Analysis
	wb, err := exporter.IndividualWorkbook(exporter.IndividualReport{
		FileName:       found.OriginalName,
		ExperimentName: job.Name,
		Substances:     a.Substances,
		Thresholds:     a.Thresholds,
		Result:         wellmatrix.Result{Total: a.Total, Filtered: a.Filtered, Percent: a.Percent},
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if err := writeWorkbook(w, wb, exportName(found.OriginalName, "_wellcounts", ".xlsx")); err != nil {
		h.logger.ErrorContext(r.Context(), "export failed",
			slog.Int64("job_id", id),
			slog.String("error", err.Error()))
	}
}

// Plots handles GET /api/jobs/{id}/plots. It draws the percent matrix of
// every file with the job's labels.
func (h *JobHandler) Plots(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	job, err := h.jobs.Get(r.Context(), id)
	if err != nil {
		h.errorHandler.HandleError(w, r, serviceError(err))
		return
	}
	results, err := h.jobs.AnalyzeJob(r.Context(), id)
	if err != nil {
		h.errorHandler.HandleError(w, r, serviceError(err))
		return
	}

	labels := plotLabels(job.Labels)
	charts := make([]components.Charter, 0, len(results))
	for _, res := range results {
		charts = append(charts, plots.Heatmap(labels, res.Analysis.Percent, plots.HeatmapOptions{
			Title:     fmt.Sprintf("%s: double positives", res.OriginalName),
			ValueName: "Percent",
			Decimals:  h.analysis.Decimals(),
			Max:       100,
		}))
	}
	title := job.Name
	if title == "" {
		title = fmt.Sprintf("Job %d", job.ID)
	}
	if err := writePage(w, title, charts...); err != nil {
		h.errorHandler.HandleError(w, r, err)
	}
}
