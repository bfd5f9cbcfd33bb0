// Package response writes the JSON envelope every jwpedit endpoint returns:
// a data field on success, an error field on failure, and both when a save
// stops partway.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/jwp-tools/jwpedit/pkg/errors"
)

// Error codes carried in Error.Code.
const (
	CodeBadRequest   = "BAD_REQUEST"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeNotFound     = "NOT_FOUND"
	CodeNoSnapshot   = "NO_SNAPSHOT"
	CodeRateLimited  = "RATE_LIMITED"
	CodeInternal     = "INTERNAL_ERROR"
	CodeUnavailable  = "SERVICE_UNAVAILABLE"
)

// Response is the envelope.
type Response struct {
	Data  any    `json:"data"`
	Error *Error `json:"error"`
}

// Error describes why a request failed.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Success wraps data.
func Success(data any) Response {
	return Response{Data: data}
}

// Fail wraps an error with no data.
func Fail(code, message, details string) Response {
	return Response{Error: &Error{Code: code, Message: message, Details: details}}
}

// JSON writes resp with the given status. Encoding failures after the
// header is sent cannot be reported and are dropped.
func JSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// OK writes data with 200.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Success(data))
}

// Created writes data with 201.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, Success(data))
}

// BadRequest writes a 400.
func BadRequest(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusBadRequest, Fail(CodeBadRequest, message, details))
}

// Unauthorized writes a 401.
func Unauthorized(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusUnauthorized, Fail(CodeUnauthorized, message, details))
}

// NotFound writes a 404.
func NotFound(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusNotFound, Fail(CodeNotFound, message, details))
}

// NoSnapshot writes a 409 for a save that has no listed rows to reconcile
// against.
func NoSnapshot(w http.ResponseWriter) {
	JSON(w, http.StatusConflict, Fail(CodeNoSnapshot, "Rows must be listed before saving", "GET /rows first"))
}

// RateLimited writes a 429.
func RateLimited(w http.ResponseWriter, message string) {
	JSON(w, http.StatusTooManyRequests, Fail(CodeRateLimited, "Rate limit exceeded", message))
}

// InternalError writes a 500 without exposing err to the caller.
func InternalError(w http.ResponseWriter, _ error) {
	JSON(w, http.StatusInternalServerError, Fail(CodeInternal, "Internal server error", "An unexpected error occurred"))
}

// ServiceUnavailable writes a 503.
func ServiceUnavailable(w http.ResponseWriter, message string) {
	JSON(w, http.StatusServiceUnavailable, Fail(CodeUnavailable, "Service unavailable", message))
}

// Aborted writes a 503 carrying the partial result of a save the store
// stopped, so the caller sees which rows were written.
func Aborted(w http.ResponseWriter, partial any, err error) {
	JSON(w, http.StatusServiceUnavailable, Response{
		Data:  partial,
		Error: &Error{Code: CodeUnavailable, Message: "Save aborted", Details: err.Error()},
	})
}

// ErrorFromType maps the jwpedit error taxonomy to a response. A missing
// sheet matches not found too, so store outages are checked first.
func ErrorFromType(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		InternalError(w, err)
	case errors.IsStoreUnavailable(err):
		ServiceUnavailable(w, err.Error())
	case errors.IsValidationError(err):
		BadRequest(w, err.Error(), "")
	case errors.IsNotFound(err):
		NotFound(w, err.Error(), "")
	case errors.IsUnauthorized(err):
		Unauthorized(w, err.Error(), "")
	default:
		InternalError(w, err)
	}
}
