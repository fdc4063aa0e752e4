package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fjod/go_delivery/internal/service"
)

const maxRequestBodySize = 1 << 20 // 1MB

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// respondResult writes a service Result. Failures keep the {error} shape so
// clients can show the message as is.
func respondResult(w http.ResponseWriter, successStatus int, res service.Result) {
	if res.Success {
		respondJSON(w, successStatus, res)
		return
	}

	var status int
	var code string

	switch res.Kind {
	case service.KindValidation:
		status = http.StatusUnprocessableEntity
		code = "validation_failed"
	case service.KindNotFound:
		status = http.StatusNotFound
		code = "not_found"
	case service.KindConflict:
		status = http.StatusConflict
		code = "conflict"
	default:
		status = http.StatusInternalServerError
		code = "internal_error"
	}

	respondError(w, status, code, res.Error)
}

// respondLookupError maps read failures: missing records become 404, anything
// else is logged and hidden behind a 500.
func respondLookupError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrCategoryNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrBannerNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		logger.Error("request failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}
