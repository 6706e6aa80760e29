package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/huangsam/sizeup/schema"
)

type errorResponse struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type reportPayload struct {
	Repository string             `json:"repository"`
	StatType   schema.StatType    `json:"stat_type"`
	Range      schema.DateRange   `json:"range"`
	Charts     []schema.ChartData `json:"charts"`
}

// badRequestErrors are the input errors reported as 400.
var badRequestErrors = []error{
	schema.ErrConflictingRangeSpecifiers,
	schema.ErrMissingStartDate,
	schema.ErrInvalidDateFormat,
	schema.ErrInvertedRange,
	schema.ErrInvalidLookbackFormat,
	schema.ErrInvalidStatType,
	schema.ErrInvalidFilter,
	schema.ErrInvalidDimension,
	schema.ErrInvalidIdentifier,
	schema.ErrInvalidPullRequestRef,
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{
		Error: errorPayload{
			Code:    code,
			Message: message,
		},
	})
}

func (h *Handler) handleError(w http.ResponseWriter, err error) {
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
			return
		}
	}
	switch {
	case errors.Is(err, schema.ErrPullRequestNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, schema.ErrOperationCancelled):
		respondError(w, http.StatusServiceUnavailable, "CANCELLED", err.Error())
	default:
		slog.Error("Request failed", "err", err)
		respondError(w, http.StatusInternalServerError, "INTERNAL", "internal server error")
	}
}
