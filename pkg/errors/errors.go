package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes carried in the "code" field of error envelopes.
const (
	CodeNotFound             = "NOT_FOUND"
	CodeAlreadyExists        = "ALREADY_EXISTS"
	CodeConflict             = "CONFLICT"
	CodeValidation           = "VALIDATION_ERROR"
	CodeInvalidParameter     = "INVALID_PARAMETER"
	CodeUnsupportedMediaType = "UNSUPPORTED_MEDIA_TYPE"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodeRateLimited          = "RATE_LIMITED"
	CodeInternal             = "INTERNAL_ERROR"
)

// InternalMessage is the only message clients see for a 500.
const InternalMessage = "an internal error occurred"

// Sentinel errors for the application error taxonomy.
var (
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")
	ErrConflict      = errors.New("conflict")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrInternal      = errors.New("internal error")
	ErrRateLimited   = errors.New("rate limited")
)

// kind describes how a bare sentinel is reported.
type kind struct {
	sentinel error
	code     string
	status   int
	message  string
}

// kinds is ordered; the first sentinel matched by errors.Is wins.
var kinds = []kind{
	{ErrNotFound, CodeNotFound, http.StatusNotFound, "resource not found"},
	{ErrAlreadyExists, CodeAlreadyExists, http.StatusConflict, "resource already exists"},
	{ErrConflict, CodeConflict, http.StatusConflict, "conflict"},
	{ErrInvalidInput, CodeValidation, http.StatusBadRequest, ""},
	{ErrUnauthorized, CodeUnauthorized, http.StatusUnauthorized, "authentication required"},
	{ErrForbidden, CodeForbidden, http.StatusForbidden, "access denied"},
	{ErrRateLimited, CodeRateLimited, http.StatusTooManyRequests, "too many requests"},
}

// AppError represents a structured application error with HTTP status mapping.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
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

func newError(sentinel error, code string, status int, message string) *AppError {
	return &AppError{Code: code, Message: message, Status: status, Err: sentinel}
}

// NotFound reports a missing resource, e.g. NotFound("store", id).
func NotFound(resource, id string) *AppError {
	return newError(ErrNotFound, CodeNotFound, http.StatusNotFound,
		fmt.Sprintf("%s with id %s not found", resource, id))
}

// AlreadyExists reports a unique attribute collision, e.g. a taken email.
func AlreadyExists(resource, field, value string) *AppError {
	return newError(ErrAlreadyExists, CodeAlreadyExists, http.StatusConflict,
		fmt.Sprintf("%s with %s %q already exists", resource, field, value))
}

// Conflict reports a state conflict such as a second rating of one store.
func Conflict(message string) *AppError {
	return newError(ErrConflict, CodeConflict, http.StatusConflict, message)
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return newError(ErrInvalidInput, CodeValidation, http.StatusBadRequest, message)
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *AppError {
	return newError(ErrUnauthorized, CodeUnauthorized, http.StatusUnauthorized, message)
}

// Forbidden creates a 403 error.
func Forbidden(message string) *AppError {
	return newError(ErrForbidden, CodeForbidden, http.StatusForbidden, message)
}

// RateLimited creates a 429 error.
func RateLimited() *AppError {
	return newError(ErrRateLimited, CodeRateLimited, http.StatusTooManyRequests, "too many requests")
}

// Internal creates a 500 error. The wrapped error is never shown to clients.
func Internal(err error) *AppError {
	return newError(err, CodeInternal, http.StatusInternalServerError, InternalMessage)
}

// Describe returns the status, code and client-facing message for err.
// Anything that is neither an AppError nor a known sentinel is a 500 with a
// generic message.
func Describe(err error) (status int, code, message string) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Status == http.StatusInternalServerError {
			return appErr.Status, CodeInternal, InternalMessage
		}
		return appErr.Status, appErr.Code, appErr.Message
	}
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			if k.message == "" {
				return k.status, k.code, err.Error()
			}
			return k.status, k.code, k.message
		}
	}
	return http.StatusInternalServerError, CodeInternal, InternalMessage
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	status, _, _ := Describe(err)
	return status
}
