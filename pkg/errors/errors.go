package errors

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeAuth               = "AUTH_ERROR"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeEmptyMessage       = "EMPTY_MESSAGE"
	CodeUpload             = "UPLOAD_ERROR"
	CodeNetwork            = "NETWORK_ERROR"
	CodeListener           = "LISTENER_ERROR"
	CodeBadRequest         = "BAD_REQUEST"
	CodeForbidden          = "FORBIDDEN"
	CodeTooManyRequests    = "TOO_MANY_REQUESTS"
	CodeInternal           = "INTERNAL_ERROR"
)

type AppError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure came from a transport or backend
// condition that the caller may reasonably try again.
func (e *AppError) Retryable() bool {
	switch e.Code {
	case CodeNetwork, CodeListener, CodeUpload:
		return true
	}
	return false
}

func New(code string, message string, status int, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
		Err:     err,
	}
}

func BadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    CodeBadRequest,
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

func Unauthorized(message string, err error) *AppError {
	return &AppError{
		Code:    CodeAuth,
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     err,
	}
}

func InvalidCredentials(err error) *AppError {
	return &AppError{
		Code:    CodeInvalidCredentials,
		Message: "Invalid email or password",
		Status:  http.StatusUnauthorized,
		Err:     err,
	}
}

func InvalidTransition(status string) *AppError {
	return &AppError{
		Code:    CodeInvalidTransition,
		Message: fmt.Sprintf("%q is not a recognized dispute status", status),
		Status:  http.StatusUnprocessableEntity,
	}
}

func EmptyMessage() *AppError {
	return &AppError{
		Code:    CodeEmptyMessage,
		Message: "A message needs text or at least one attachment",
		Status:  http.StatusBadRequest,
	}
}

func UploadFailed(err error) *AppError {
	return &AppError{
		Code:    CodeUpload,
		Message: "Failed to upload attachment",
		Status:  http.StatusBadGateway,
		Err:     err,
	}
}

func Network(operation string, err error) *AppError {
	return &AppError{
		Code:    CodeNetwork,
		Message: fmt.Sprintf("Failed to %s", operation),
		Status:  http.StatusServiceUnavailable,
		Err:     err,
	}
}

// Listener wraps a failure of a live subscription channel. These are
// delivered asynchronously rather than returned from a call.
func Listener(source string, err error) *AppError {
	return &AppError{
		Code:    CodeListener,
		Message: fmt.Sprintf("Live updates for %s stopped", source),
		Status:  http.StatusServiceUnavailable,
		Err:     err,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

func Forbidden(message string, err error) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
		Status:  http.StatusForbidden,
		Err:     err,
	}
}

func TooManyRequests(message string) *AppError {
	return &AppError{
		Code:    CodeTooManyRequests,
		Message: message,
		Status:  http.StatusTooManyRequests,
	}
}

func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
