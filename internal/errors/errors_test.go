package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIErrorConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *APIError
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"invalid request with error", InvalidRequestWithError(errors.New("bad json")), http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format"},
		{"validation", ErrValidation("name", "is required"), http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed"},
		{"not found", ErrNotFound, http.StatusNotFound, "NOT_FOUND", "Resource not found"},
		{"missing parameter", MissingParameter("file_id"), http.StatusBadRequest, "MISSING_PARAMETER", "Required parameter is missing"},
		{"conflict", ErrConflict.WithMessage("label in use"), http.StatusConflict, "CONFLICT", "label in use"},
		{"unprocessable", ErrUnprocessableEntity.WithMessage("dimensions differ"), http.StatusUnprocessableEntity, "UNPROCESSABLE_ENTITY", "dimensions differ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, tt.err.StatusCode)
			assert.Equal(t, tt.wantCode, tt.err.ErrorCode)
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestWithMessageCopies(t *testing.T) {
	err := ErrNotFound.WithMessage("job not found")

	assert.Equal(t, "job not found", err.Message)
	assert.Equal(t, "Resource not found", ErrNotFound.Message)

	detailed := ErrInvalidRequest.WithDetails("bad json")
	assert.Equal(t, "bad json", detailed.Details)
	assert.Nil(t, ErrInvalidRequest.Details)
}

func TestValidationErrorsCarryFields(t *testing.T) {
	err := NewValidationErrors([]ValidationError{
		{Field: "thresholds", Message: "must not be negative"},
		{Field: "decimals", Message: "must be at most 6"},
	})

	details, ok := err.Details.(ValidationErrors)
	require.True(t, ok)
	assert.Len(t, details.Errors, 2)
	assert.Equal(t, "thresholds", details.Errors[0].Field)
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, ErrWebSocketUpgrade)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "WEBSOCKET_UPGRADE_FAILED", resp.Error.ErrorCode)
}

func TestProblemDetailsMarshalFlattensExtensions(t *testing.T) {
	pd := NewProblemDetails(http.StatusBadRequest, TypeInvalidCSV, "Invalid Measurement File", "line 3: bad well", "/api/analyze").
		WithExtension("line", 3)

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, TypeInvalidCSV, got["type"])
	assert.Equal(t, float64(400), got["status"])
	assert.Equal(t, float64(3), got["line"])
	assert.Equal(t, "/api/analyze", got["instance"])
}

func TestProblemDetailsOmitsEmptyMembers(t *testing.T) {
	data, err := json.Marshal(NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found", "", ""))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.NotContains(t, got, "detail")
	assert.NotContains(t, got, "instance")
}
