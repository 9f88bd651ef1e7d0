// Package respond writes JSON responses and maps domain errors to status codes.
package respond

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/revstay/internal/apperr"
)

type errorResponse struct {
	Error string `json:"error"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("failed to encode response", zap.Error(err))
	}
}

// Error writes err with the status of its kind. Errors without a kind are
// logged and reported as a generic 500.
func Error(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		zap.L().Error("request failed", zap.Error(err))
	}

	JSON(w, status, errorResponse{Error: apperr.Message(err)})
}

// Status writes a bare message with an explicit status.
func Status(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, errorResponse{Error: msg})
}
