// Package httperr defines the structured JSON error payload shared by the
// default handlers and the recovery middleware.
package httperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// HTTPError is an error with an associated HTTP status code.
// Handlers can return it (or panic with it) to control the response status.
type HTTPError struct {
	Code    int    // HTTP status code
	Message string // Client-facing message
	Err     error  // Underlying error, if any
}

// Error returns the error message with status context.
func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("httperr: %d %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("httperr: %d %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *HTTPError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status code.
func (e *HTTPError) StatusCode() int {
	return e.Code
}

// New creates an HTTPError with the given status code and message.
func New(code int, message string) *HTTPError {
	return &HTTPError{Code: code, Message: message}
}

// Wrap creates an HTTPError wrapping an underlying error.
func Wrap(code int, message string, err error) *HTTPError {
	return &HTTPError{Code: code, Message: message, Err: err}
}

// Payload is the JSON body written for error responses.
//
// Stack is populated only outside production mode.
type Payload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// Write emits the structured JSON error payload with the given status code.
func Write(w http.ResponseWriter, code int, message, stack string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(Payload{
		Code:    code,
		Message: message,
		Stack:   stack,
	})
}

// WriteError emits err as a structured JSON payload. *HTTPError values keep
// their status code and message; anything else becomes a generic 500. Outside
// production the full error chain is exposed in the stack field.
func WriteError(w http.ResponseWriter, production bool, err error) {
	code := http.StatusInternalServerError
	message := "internal server error"

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		code = httpErr.Code
		message = httpErr.Message
	}

	detail := ""
	if !production && err != nil {
		detail = err.Error()
	}
	Write(w, code, message, detail)
}

// NotFound writes the default 404 payload.
func NotFound(w http.ResponseWriter) {
	Write(w, http.StatusNotFound, "not found", "")
}

// MethodNotAllowed writes the default 405 payload.
func MethodNotAllowed(w http.ResponseWriter) {
	Write(w, http.StatusMethodNotAllowed, "method not allowed", "")
}
