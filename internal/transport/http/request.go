package http

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	apierrors "cellviewer/internal/errors"
	"cellviewer/internal/services"
)

// multipartMemory is the part of a multipart form kept in memory; the rest
// spills to temporary files
const multipartMemory = 32 << 20

// idParam reads a positive integer URL parameter
func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apierrors.ErrValidation(name, fmt.Sprintf("%s must be a positive integer", name))
	}
	return id, nil
}

// parseForm parses a multipart request, keeping *http.MaxBytesError intact
func parseForm(r *http.Request) error {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return apierrors.InvalidRequestWithError(err)
	}
	return nil
}

func readPart(fh *multipart.FileHeader) (services.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return services.Upload{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return services.Upload{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return services.Upload{Name: fh.Filename, Data: data}, nil
}

// formUploads returns the files sent under field, in form order
func formUploads(r *http.Request, field string) ([]services.Upload, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return nil, apierrors.MissingParameter(field)
	}
	headers := r.MultipartForm.File[field]
	out := make([]services.Upload, 0, len(headers))
	for _, fh := range headers {
		u, err := readPart(fh)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

// formUpload returns the single file sent under field
func formUpload(r *http.Request, field string) (services.Upload, error) {
	uploads, err := formUploads(r, field)
	if err != nil {
		return services.Upload{}, err
	}
	return uploads[0], nil
}

// parseThresholds reads a comma separated threshold vector. Blank entries
// are 0, so ",5" leaves the first substance unfiltered.
func parseThresholds(field, raw string) ([]float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, apierrors.ErrValidation(field, fmt.Sprintf("threshold %d (%q) is not a number", i+1, p))
		}
		out[i] = v
	}
	return out, nil
}

// formThresholds reads one threshold vector per value of field
func formThresholds(r *http.Request, field string) ([][]float64, error) {
	var out [][]float64
	for _, raw := range r.MultipartForm.Value[field] {
		t, err := parseThresholds(field, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func formValue(r *http.Request, field string) string {
	if r.MultipartForm == nil {
		return ""
	}
	if v := r.MultipartForm.Value[field]; len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}
