package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	gorilla "github.com/gorilla/websocket"

	apierrors "cellviewer/internal/errors"
	"cellviewer/internal/middleware"
	"cellviewer/internal/services"
	ws "cellviewer/internal/websocket"
)

// PreviewRequest asks for the analysis of a stored file with trial
// thresholds
type PreviewRequest struct {
	FileID     int64     `json:"file_id" validate:"required,gt=0"`
	Thresholds []float64 `json:"thresholds" validate:"max=64"`
}

// PreviewHandler answers threshold previews over websocket. Clients send a
// PreviewRequest per slider change and get the analysis back.
type PreviewHandler struct {
	jobs      *services.JobService
	analysis  *services.AnalysisService
	validator *middleware.Validator
	hub       *ws.Hub
	upgrader  *gorilla.Upgrader
	logger    *slog.Logger
}

// NewPreviewHandler creates a new preview handler. The hub is set with
// SetHub once it exists, since the hub itself needs the handler.
func NewPreviewHandler(jobs *services.JobService, analysis *services.AnalysisService, validator *middleware.Validator, upgrader *gorilla.Upgrader, logger *slog.Logger) *PreviewHandler {
	return &PreviewHandler{
		jobs:      jobs,
		analysis:  analysis,
		validator: validator,
		upgrader:  upgrader,
		logger:    logger.With(slog.String("handler", "preview")),
	}
}

// SetHub sets the hub upgraded connections are registered with
func (h *PreviewHandler) SetHub(hub *ws.Hub) {
	h.hub = hub
}

// HandleMessage runs one preview request
func (h *PreviewHandler) HandleMessage(ctx context.Context, data []byte) (interface{}, error) {
	var req PreviewRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, apierrors.InvalidRequestWithError(err)
	}
	if err := h.validator.Struct(req); err != nil {
		return nil, err
	}
	f, ds, err := h.jobs.LoadFile(ctx, req.FileID)
	if err != nil {
		return nil, err
	}
	a, err := h.analysis.AnalyzeDataset(ctx, ds, req.Thresholds)
	if err != nil {
		return nil, err
	}
	h.logger.DebugContext(ctx, "preview computed",
		slog.Int64("file_id", f.ID),
		slog.Any("thresholds", a.Thresholds))
	return a, nil
}

// ServeWS handles GET /ws/preview
func (h *PreviewHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		apierrors.WriteError(w, apierrors.ErrWebSocketUpgrade)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		h.logger.WarnContext(r.Context(), "websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	c, err := ws.Serve(h.hub, ws.Wrap(conn), middleware.GetRequestID(r.Context()))
	if err != nil {
		h.logger.WarnContext(r.Context(), "websocket client rejected", slog.String("error", err.Error()))
		return
	}
	h.logger.InfoContext(r.Context(), "websocket client connected",
		slog.String("client_id", c.ID()),
		slog.String("remote_addr", r.RemoteAddr))
}
