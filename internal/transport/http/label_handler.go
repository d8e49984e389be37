package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "cellviewer/internal/errors"
	"cellviewer/internal/middleware"
	"cellviewer/internal/services"
)

// LabelHandler handles label matrices
type LabelHandler struct {
	labels       *services.LabelService
	validator    *middleware.Validator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewLabelHandler creates a new label handler
func NewLabelHandler(labels *services.LabelService, validator *middleware.Validator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *LabelHandler {
	return &LabelHandler{
		labels:       labels,
		validator:    validator,
		logger:       logger.With(slog.String("handler", "labels")),
		errorHandler: errorHandler,
	}
}

// Routes returns the label routes
func (h *LabelHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Save)
	r.Get("/{id}", h.Get)
	r.Delete("/{id}", h.Delete)
	return r
}

// List handles GET /api/labels?dimension=8x12
func (h *LabelHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.labels.List(r.Context(), r.URL.Query().Get("dimension"))
	if err != nil {
		h.errorHandler.HandleError(w, r, serviceError(err))
		return
	}
	render.JSON(w, r, list)
}

// Save handles POST /api/labels. An equivalent stored matrix is returned
// instead of a new one.
func (h *LabelHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req services.SaveLabelsRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	l, err := h.labels.Save(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, serviceError(err))
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, l)
}

// Get handles GET /api/labels/{id}
func (h *LabelHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	l, err := h.labels.Get(r.Context(), id)
	if err != nil {
		h.errorHandler.HandleError(w, r, serviceError(err))
		return
	}
	render.JSON(w, r, l)
}

// Delete handles DELETE /api/labels/{id}
func (h *LabelHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if err := h.labels.Delete(r.Context(), id); err != nil {
		h.errorHandler.HandleError(w, r, serviceError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
