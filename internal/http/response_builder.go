// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for constructing JSON responses
// and maps service errors onto status codes.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"finadvisor/internal/core"
	"finadvisor/internal/ledger"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	data       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Data sets the value encoded as the response body.
func (b *JSONResponseBuilder) Data(v any) *JSONResponseBuilder {
	b.data = v
	return b
}

// Write sends the built response. 204 responses carry no body.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.statusCode == http.StatusNoContent {
		w.WriteHeader(b.statusCode)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.data)
}

// ErrorBody is the payload of every error response.
type ErrorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, message, requestID string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Data(ErrorBody{Error: message, RequestID: requestID})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message, requestID string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message, requestID)
}

// UnprocessableEntityError creates a 422 Unprocessable Entity error response.
func UnprocessableEntityError(message, requestID string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message, requestID)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message, requestID string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message, requestID)
}

// InternalServerError creates a 500 response. Details stay in the log.
func InternalServerError(requestID string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "internal server error", requestID)
}

// malformedError marks a request that could not be decoded at all.
type malformedError struct {
	msg string
}

func (e *malformedError) Error() string { return e.msg }

func malformed(msg string) error {
	return &malformedError{msg: msg}
}

var validationErrors = []error{
	core.ErrInvalidAmount,
	core.ErrInvalidKind,
	core.ErrInvalidCategory,
	core.ErrInvalidPriority,
	core.ErrInvalidFrequency,
	core.ErrEmptyDescription,
	core.ErrDescriptionTooLong,
	core.ErrInvalidDate,
	core.ErrInvalidWindow,
	core.ErrInvalidMonths,
	core.ErrEmptyName,
	core.ErrInvalidTargetDate,
	core.ErrEmptyParticipants,
	core.ErrInvalidReportType,
	core.ErrInvalidStatus,
	core.ErrInvalidRecKind,
	core.ErrInvalidScore,
}

// isValidationError reports whether err wraps one of the core validation
// sentinels.
func isValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// errorResponse maps err onto the response a client sees.
func errorResponse(err error, requestID string) *JSONResponseBuilder {
	var bad *malformedError
	switch {
	case errors.As(err, &bad):
		return BadRequestError(bad.msg, requestID)
	case errors.Is(err, ledger.ErrNotFound):
		return NotFoundError("not found", requestID)
	case isValidationError(err):
		return UnprocessableEntityError(err.Error(), requestID)
	default:
		return InternalServerError(requestID)
	}
}
