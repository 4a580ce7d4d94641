package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"

	apperrors "github.com/OmSonawane4/Roxiler-Assignment/pkg/errors"
	"github.com/OmSonawane4/Roxiler-Assignment/pkg/logger"
	"github.com/OmSonawane4/Roxiler-Assignment/pkg/validator"
)

// Envelope status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response is the uniform JSON envelope:
// {"status":"success","data":...} or {"status":"error","message":...}.
type Response struct {
	Status    string            `json:"status"`
	Data      any               `json:"data,omitempty"`
	Message   string            `json:"message,omitempty"`
	Code      string            `json:"code,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess wraps data in a success envelope.
func WriteSuccess(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, Response{Status: StatusSuccess, Data: data})
}

// WriteMessage writes a success envelope carrying only a message.
func WriteMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Response{Status: StatusSuccess, Message: message})
}

// WriteError writes an error envelope for err. AppErrors keep their code and
// message; anything unrecognised becomes a 500 whose cause is logged and
// reported but never sent to the client.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	l := logger.FromContext(r.Context())
	if l == slog.Default() && fallback != nil {
		l = fallback
	}
	requestID := logger.CorrelationIDFromContext(r.Context())

	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		writeValidation(w, valErr, requestID)
		return
	}

	status, code, message := apperrors.Describe(err)
	if status == http.StatusInternalServerError {
		l.ErrorContext(r.Context(), "internal error",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
		reportError(r, err)
	}

	WriteJSON(w, status, Response{
		Status:    StatusError,
		Message:   message,
		Code:      code,
		RequestID: requestID,
	})
}

func reportError(r *http.Request, err error) {
	hub := sentry.GetHubFromContext(r.Context())
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.CaptureException(err)
}

// WriteValidationError writes a 400 envelope. Field level detail is included
// when err is a validator.ValidationError.
func WriteValidationError(w http.ResponseWriter, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		writeValidation(w, valErr, "")
		return
	}

	WriteJSON(w, http.StatusBadRequest, Response{
		Status:  StatusError,
		Code:    apperrors.CodeValidation,
		Message: err.Error(),
	})
}

func writeValidation(w http.ResponseWriter, valErr *validator.ValidationError, requestID string) {
	WriteJSON(w, http.StatusBadRequest, Response{
		Status:    StatusError,
		Code:      apperrors.CodeValidation,
		Message:   "request validation failed",
		Fields:    valErr.Fields(),
		RequestID: requestID,
	})
}

// ParseUUID validates that the given string is a valid UUID and returns it.
// If invalid, it writes a 400 response and returns false, signaling the caller
// to return early.
func ParseUUID(w http.ResponseWriter, name, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(param)
	if err != nil {
		WriteJSON(w, http.StatusBadRequest, Response{
			Status:  StatusError,
			Code:    apperrors.CodeInvalidParameter,
			Message: "invalid " + name + ": " + param,
		})
		return uuid.Nil, false
	}
	return id, true
}
