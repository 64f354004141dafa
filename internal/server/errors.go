package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/vanshika/remitdesk/internal/service"
)

// errorResponder maps service errors onto HTTP responses. Internal
// detail is exposed only when development is set.
type errorResponder struct {
	logger      *slog.Logger
	development bool
}

func (e errorResponder) respond(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	var tooLarge *http.MaxBytesError

	switch {
	case errors.As(err, &verr):
		respondJSON(w, http.StatusBadRequest, validationErrorResponse{
			Error:   "Validation failed",
			Details: verr.Errors,
		})
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "Transaction not found")
	default:
		e.logger.Error("request failed", "error", err, "method", r.Method, "path", r.URL.Path)
		payload := map[string]string{"error": "Internal server error"}
		if e.development {
			payload["message"] = err.Error()
		}
		respondJSON(w, http.StatusInternalServerError, payload)
	}
}
