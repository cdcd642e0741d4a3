// Package response writes JSON bodies and the {"Error": "..."} failure envelope.
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	domainerrors "github.com/listenupapp/readinglists-server/internal/errors"
	"github.com/listenupapp/readinglists-server/internal/store"
)

// ContentType is set on every JSON response.
const ContentType = "application/json"

// ErrorBody is the only error shape clients ever see.
type ErrorBody struct {
	Error string `json:"Error"`
}

// JSON writes data as the response body with the given status code.
func JSON(w http.ResponseWriter, status int, data any, logger *slog.Logger) {
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil && logger != nil {
		logger.Error("Failed to encode JSON response", "error", err)
	}
}

// Success writes a successful JSON response (200 OK).
func Success(w http.ResponseWriter, data any, logger *slog.Logger) {
	JSON(w, http.StatusOK, data, logger)
}

// Created writes a created response (201 Created).
func Created(w http.ResponseWriter, data any, logger *slog.Logger) {
	JSON(w, http.StatusCreated, data, logger)
}

// NoContent writes a no content response (204 No Content).
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error writes an error response with the given status code.
func Error(w http.ResponseWriter, status int, message string, logger *slog.Logger) {
	JSON(w, status, ErrorBody{Error: message}, logger)
}

// HandleError writes an appropriate HTTP response based on the error type.
// Domain and store errors carry their own status; anything else is a 500 whose
// cause is logged but never sent.
func HandleError(w http.ResponseWriter, err error, logger *slog.Logger) {
	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		status := domainErr.HTTPStatus()
		if status >= http.StatusInternalServerError {
			internal(w, err, logger)
			return
		}
		if logger != nil && domainErr.Details != nil {
			logger.Debug("Request rejected", "message", domainErr.Message, "details", domainErr.Details)
		}
		Error(w, status, domainErr.Message, logger)
		return
	}

	var storeErr *store.Error
	if errors.As(err, &storeErr) && storeErr.HTTPCode() < http.StatusInternalServerError {
		Error(w, storeErr.HTTPCode(), storeErr.Message, logger)
		return
	}

	internal(w, err, logger)
}

func internal(w http.ResponseWriter, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Error("Unhandled error", "error", err)
	}
	Error(w, http.StatusInternalServerError, domainerrors.ErrInternal.Message, logger)
}
