package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cellviewer/internal/dataset"
	"cellviewer/internal/shared/testutil"
	"cellviewer/internal/wellmatrix"
)

func TestErrorToProblem(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, TypeTimeout},
		{"canceled", fmt.Errorf("analyze: %w", context.Canceled), http.StatusGatewayTimeout, TypeTimeout},
		{"api error", ErrInvalidRequest, http.StatusBadRequest, TypeValidation},
		{"not found", ErrNotFound, http.StatusNotFound, TypeNotFound},
		{"too large", &http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge, TypePayloadTooLarge},
		{"parse error", &dataset.ParseError{Line: 4, Reason: "invalid well"}, http.StatusBadRequest, TypeInvalidCSV},
		{"threshold out of range", &wellmatrix.IndexOutOfRangeError{Index: 3, Len: 2}, http.StatusBadRequest, TypeThresholdRange},
		{"shape mismatch", fmt.Errorf("mean: %w", &wellmatrix.ShapeMismatchError{Op: "mean"}), http.StatusUnprocessableEntity, TypeShapeMismatch},
		{"degenerate", &wellmatrix.DegenerateInputError{Op: "std", Reason: "no samples"}, http.StatusUnprocessableEntity, TypeDegenerateInput},
		{"unknown", fmt.Errorf("disk on fire"), http.StatusInternalServerError, TypeInternal},
	}

	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)
	r := httptest.NewRequest(http.MethodPost, "/api/analyze", nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problem := h.ErrorToProblem(tt.err, r)
			assert.Equal(t, tt.wantStatus, problem.Status)
			assert.Equal(t, tt.wantType, problem.Type)
			assert.Equal(t, "/api/analyze", problem.Instance)
		})
	}
}

func TestErrorToProblemErrorCodes(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"too large", &http.MaxBytesError{Limit: 10}, "PAYLOAD_TOO_LARGE"},
		{"unknown", fmt.Errorf("disk on fire"), "INTERNAL_SERVER_ERROR"},
		{"conflict", ErrConflict, "CONFLICT"},
	}

	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)
	r := httptest.NewRequest(http.MethodPost, "/api/analyze", nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problem := h.ErrorToProblem(tt.err, r)
			assert.Equal(t, tt.wantCode, problem.Extensions["error_code"])
		})
	}
}

func TestErrorToProblemParseErrorLine(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)
	r := httptest.NewRequest(http.MethodPost, "/api/analyze", nil)

	problem := h.ErrorToProblem(&dataset.ParseError{Line: 7, Reason: "invalid value"}, r)
	assert.Equal(t, 7, problem.Extensions["line"])
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  int
		wantLevel slog.Level
		withStack bool
	}{
		{"client error logs warn", ErrMissingParameter, http.StatusBadRequest, slog.LevelWarn, false},
		{"server error logs error", fmt.Errorf("boom"), http.StatusInternalServerError, slog.LevelError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			h := NewErrorHandler(logger, tt.withStack)

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/jobs/7", nil)
			h.HandleError(w, r, tt.err)

			assert.Equal(t, tt.wantCode, w.Code)
			testutil.AssertLogContains(t, logs, tt.wantLevel, "request failed")

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, float64(tt.wantCode), body["status"])
			if tt.withStack {
				assert.Contains(t, body, "stack")
			} else {
				assert.NotContains(t, body, "stack")
			}
		})
	}
}

func TestHandleErrorNil(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	w := httptest.NewRecorder()
	h.HandleError(w, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Equal(t, 0, w.Body.Len())
	assert.Empty(t, logs.GetRecords())
}

func TestHandlePanic(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, true)

	w := httptest.NewRecorder()
	h.HandlePanic(w, httptest.NewRequest(http.MethodGet, "/api/analyze", nil), "nil map")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	testutil.AssertLogContains(t, logs, slog.LevelError, "panic recovered")

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "nil map", body["panic"])
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	w := httptest.NewRecorder()
	h.NotFound(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	h.MethodNotAllowed(w, httptest.NewRequest(http.MethodPatch, "/api/jobs", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Contains(t, w.Body.String(), "PATCH")
}
