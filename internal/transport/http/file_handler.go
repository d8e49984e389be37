package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "cellviewer/internal/errors"
	"cellviewer/internal/services"
)

// FileHandler handles stored measurement files
type FileHandler struct {
	jobs         *services.JobService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewFileHandler creates a new file handler
func NewFileHandler(jobs *services.JobService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *FileHandler {
	return &FileHandler{
		jobs:         jobs,
		logger:       logger.With(slog.String("handler", "files")),
		errorHandler: errorHandler,
	}
}

// Routes returns the file routes
func (h *FileHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Upload)
	r.Get("/{id}/labels/default", h.DefaultLabels)
	return r
}

// List handles GET /api/files
func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	files, err := h.jobs.ListFiles(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, files)
}

// Upload handles POST /api/files. Uploading bytes that are already stored
// returns the stored file with 200 instead of 201.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	upload, err := formUpload(r, "file")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	f, existed, err := h.jobs.StoreUpload(r.Context(), upload)
	if err != nil {
		h.errorHandler.HandleError(w, r, serviceError(err))
		return
	}

	status := http.StatusCreated
	if existed {
		status = http.StatusOK
	}
	render.Status(r, status)
	render.JSON(w, r, f)
}

// DefaultLabels handles GET /api/files/{id}/labels/default
func (h *FileHandler) DefaultLabels(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	labels, err := h.jobs.DefaultLabels(r.Context(), id)
	if err != nil {
		h.errorHandler.HandleError(w, r, serviceError(err))
		return
	}
	render.JSON(w, r, labels)
}
