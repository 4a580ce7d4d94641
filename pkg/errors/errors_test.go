package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		code     string
		status   int
		sentinel error
		message  string
	}{
		{"not found", NotFound("store", "abc-123"), CodeNotFound, http.StatusNotFound, ErrNotFound, "store with id abc-123 not found"},
		{"already exists", AlreadyExists("user", "email", "a@b.com"), CodeAlreadyExists, http.StatusConflict, ErrAlreadyExists, `user with email "a@b.com" already exists`},
		{"conflict", Conflict("you have already rated this store"), CodeConflict, http.StatusConflict, ErrConflict, "you have already rated this store"},
		{"invalid input", InvalidInput("rating must be between 0 and 5"), CodeValidation, http.StatusBadRequest, ErrInvalidInput, "rating must be between 0 and 5"},
		{"unauthorized", Unauthorized("invalid token"), CodeUnauthorized, http.StatusUnauthorized, ErrUnauthorized, "invalid token"},
		{"forbidden", Forbidden("your role cannot rate stores"), CodeForbidden, http.StatusForbidden, ErrForbidden, "your role cannot rate stores"},
		{"rate limited", RateLimited(), CodeRateLimited, http.StatusTooManyRequests, ErrRateLimited, "too many requests"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.Equal(t, tt.message, tt.err.Message)
			assert.True(t, errors.Is(tt.err, tt.sentinel))
		})
	}
}

func TestConflict_IsNotAlreadyExists(t *testing.T) {
	assert.False(t, errors.Is(Conflict("duplicate rating"), ErrAlreadyExists))
}

func TestAppError_Error(t *testing.T) {
	assert.Equal(t, "NOT_FOUND: rating missing", (&AppError{Code: CodeNotFound, Message: "rating missing"}).Error())

	err := Internal(fmt.Errorf("db connection lost"))
	assert.Equal(t, "INTERNAL_ERROR: an internal error occurred: db connection lost", err.Error())
	assert.Nil(t, (&AppError{Code: "TEST"}).Unwrap())
}

func TestDescribe_Sentinels(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		code    string
		message string
	}{
		{ErrNotFound, http.StatusNotFound, CodeNotFound, "resource not found"},
		{ErrAlreadyExists, http.StatusConflict, CodeAlreadyExists, "resource already exists"},
		{ErrConflict, http.StatusConflict, CodeConflict, "conflict"},
		{fmt.Errorf("comment too long: %w", ErrInvalidInput), http.StatusBadRequest, CodeValidation, "comment too long: invalid input"},
		{ErrUnauthorized, http.StatusUnauthorized, CodeUnauthorized, "authentication required"},
		{ErrForbidden, http.StatusForbidden, CodeForbidden, "access denied"},
		{ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited, "too many requests"},
		{ErrInternal, http.StatusInternalServerError, CodeInternal, InternalMessage},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			status, code, message := Describe(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.message, message)
		})
	}
}

func TestDescribe_WrappedAppError(t *testing.T) {
	err := fmt.Errorf("submit rating: %w", Conflict("you have already rated this store"))

	status, code, message := Describe(err)

	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, CodeConflict, code)
	assert.Equal(t, "you have already rated this store", message)
}

func TestDescribe_InternalHidesCause(t *testing.T) {
	for _, err := range []error{
		Internal(fmt.Errorf("relation ratings does not exist")),
		&AppError{Code: "DB", Message: "relation ratings does not exist", Status: http.StatusInternalServerError},
		fmt.Errorf("unknown"),
	} {
		status, code, message := Describe(err)
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, CodeInternal, code)
		assert.Equal(t, InternalMessage, message)
	}
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(fmt.Errorf("outer: %w", ErrNotFound)))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(Forbidden("no")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(fmt.Errorf("boom")))
}
