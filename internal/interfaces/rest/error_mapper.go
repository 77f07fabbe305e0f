// Package rest contains the HTTP error mapping shared by handlers and
// middleware.
package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ficmart/charge-gateway/internal/application"
)

// ErrorResponse is the error payload returned to clients.
type ErrorResponse struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// WriteError maps application errors to HTTP responses. Unknown errors
// surface as an opaque 500.
func WriteError(w http.ResponseWriter, err error, logger *slog.Logger) {
	statusCode := http.StatusInternalServerError
	code := application.ErrCodeInternal
	message := "An internal error occurred"

	if svcErr, ok := application.IsServiceError(err); ok {
		statusCode = svcErr.HTTPStatus
		code = svcErr.Code
		message = svcErr.Message
	}

	if statusCode >= http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
	}

	response := ErrorResponse{
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}
