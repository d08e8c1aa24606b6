package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	gerrors "github.com/matzehuels/grunt/pkg/errors"
	"github.com/matzehuels/grunt/pkg/store"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Code    gerrors.Code `json:"code"`
	Message string       `json:"message"`
}

// statusFor maps an error code to an HTTP status.
func statusFor(code gerrors.Code) int {
	switch code {
	case gerrors.ErrCodeInvalidInput, gerrors.ErrCodeInvalidFormat, gerrors.ErrCodeInvalidName:
		return http.StatusBadRequest
	case gerrors.ErrCodeNotFound:
		return http.StatusNotFound
	case gerrors.ErrCodeTooLarge:
		return http.StatusRequestEntityTooLarge
	case gerrors.ErrCodeInternal, "":
		return http.StatusInternalServerError
	}
	// Axis, borders, fill and layer validation failures.
	return http.StatusUnprocessableEntity
}

// errorBody classifies err for the client.
func errorBody(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Code: gerrors.ErrCodeNotFound, Message: err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, ErrorResponse{Code: gerrors.ErrCodeInternal, Message: "request timed out"}
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge, ErrorResponse{Code: gerrors.ErrCodeInvalidInput, Message: "request body too large"}
	}

	code := gerrors.GetCode(err)
	if code == "" {
		return http.StatusInternalServerError, ErrorResponse{Code: gerrors.ErrCodeInternal, Message: "internal error"}
	}
	return statusFor(code), ErrorResponse{Code: code, Message: err.Error()}
}

func writeError(w http.ResponseWriter, err error) {
	status, body := errorBody(err)
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
