package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"fjacquet/ekstre-csv/internal/admin"
	"fjacquet/ekstre-csv/internal/parsererror"
)

// ErrorResponse represents the JSON structure for API error responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeJSON writes v with status 200.
func writeJSON(w http.ResponseWriter, v interface{}) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg, code string) {
	writeJSONStatus(w, status, ErrorResponse{Error: msg, Code: code})
}

// classify maps a domain error onto a status code and a machine-readable code.
func classify(err error) (int, string) {
	var (
		validation *parsererror.ValidationError
		missing    *parsererror.MissingColumnsError
		invalid    *parsererror.InvalidFormatError
		extraction *parsererror.DataExtractionError
		tooLarge   *http.MaxBytesError
	)
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"
	case errors.As(err, &validation):
		return http.StatusBadRequest, "VALIDATION_FAILED"
	case errors.As(err, &missing):
		return http.StatusUnprocessableEntity, "MISSING_COLUMNS"
	case errors.As(err, &invalid), errors.As(err, &extraction):
		return http.StatusUnprocessableEntity, "UNREADABLE_FILE"
	case errors.Is(err, parsererror.ErrDuplicateFormat):
		return http.StatusConflict, "DUPLICATE_FORMAT"
	case errors.Is(err, parsererror.ErrFormatNotFound), errors.Is(err, parsererror.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, admin.ErrInvalidPassword):
		return http.StatusForbidden, "INVALID_PASSWORD"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

// respondError logs err and writes it with the status classify picks.
// Internal errors are not echoed to the client.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
		s.logger.WithError(err).Error("request failed", pathField(r))
	} else {
		s.logger.WithError(err).Debug("request rejected", pathField(r))
	}
	writeError(w, status, msg, code)
}
