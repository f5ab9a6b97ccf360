package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/newslens/internal/ingest"
	"github.com/dgallion1/newslens/internal/pipeline"
	"github.com/dgallion1/newslens/internal/store"
	"github.com/dgallion1/newslens/internal/summarize"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// statusFor maps pipeline and extraction errors to HTTP status codes.
func statusFor(err error) int {
	var (
		inputErr *pipeline.InputError
		extErr   *ingest.ExtractionError
	)
	switch {
	case errors.As(err, &inputErr), errors.Is(err, summarize.ErrEmptyText):
		return http.StatusBadRequest
	case errors.As(err, &extErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pipeline.ErrQueueFull):
		return http.StatusServiceUnavailable
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func writeErr(w http.ResponseWriter, err error) {
	jsonError(w, err.Error(), statusFor(err))
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
