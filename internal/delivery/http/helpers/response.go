package helpers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"volunteermatch/internal/domain"
)

// Error codes for API error responses. Use these with WriteJSONError.
const (
	ErrCodeBadRequest        = "bad_request"
	ErrCodeUnauthorized      = "unauthorized"
	ErrCodeForbidden         = "forbidden"
	ErrCodeNotFound          = "not_found"
	ErrCodeInternalError     = "internal_error"
	ErrCodeUnavailable       = "unavailable"
	ErrCodeAlreadyRegistered = "already_registered"
	ErrCodeEventFull         = "event_full"
	ErrCodeEventNotOpen      = "event_not_open"
	ErrCodeTimeConflict      = "time_conflict"
)

var gateErrorCodes = map[domain.GateReason]string{
	domain.ReasonAlreadyRegistered: ErrCodeAlreadyRegistered,
	domain.ReasonEventFull:         ErrCodeEventFull,
	domain.ReasonEventNotOpen:      ErrCodeEventNotOpen,
	domain.ReasonTimeConflict:      ErrCodeTimeConflict,
}

var gateErrorMessages = map[domain.GateReason]string{
	domain.ReasonAlreadyRegistered: "volunteer is already registered for this event",
	domain.ReasonEventFull:         "event is at capacity",
	domain.ReasonEventNotOpen:      "event is not open for registration",
	domain.ReasonTimeConflict:      "event overlaps another commitment",
}

// APIError is the error object in the standardized API response envelope.
// Conflicts is only set for time_conflict errors.
// swagger:model APIError
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Conflicts []domain.Conflict `json:"conflicts,omitempty"`
}

// APIResponse is the standardized envelope for all API responses.
// On success: Data is set, Error is nil. On error: Data is nil, Error is set.
// swagger:model APIResponse
type APIResponse struct {
	Data  any       `json:"data"`
	Error *APIError `json:"error"`
}

// WriteJSONSuccess sets Content-Type to application/json, writes statusCode, and
// encodes an APIResponse with the given data and error set to nil.
func WriteJSONSuccess(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(APIResponse{Data: data, Error: nil})
}

// WriteJSONError sets Content-Type to application/json, writes statusCode, and
// encodes an APIResponse with data nil and the given error code and message.
func WriteJSONError(w http.ResponseWriter, statusCode int, code, message string) {
	writeError(w, statusCode, &APIError{Code: code, Message: message})
}

// WriteGateError writes a 409 for a refused assignment.
func WriteGateError(w http.ResponseWriter, ae *domain.AssignmentError) {
	code, ok := gateErrorCodes[ae.Reason]
	if !ok {
		code = ErrCodeBadRequest
	}
	msg, ok := gateErrorMessages[ae.Reason]
	if !ok {
		msg = ae.Error()
	}
	writeError(w, http.StatusConflict, &APIError{Code: code, Message: msg, Conflicts: ae.Conflicts})
}

// WriteServiceError maps a service error to its HTTP status. Unexpected errors are logged
// and reported as 500.
func WriteServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var ae *domain.AssignmentError
	switch {
	case errors.As(err, &ae):
		WriteGateError(w, ae)
	case errors.Is(err, domain.ErrNotFound):
		WriteJSONError(w, http.StatusNotFound, ErrCodeNotFound, "not found")
	case errors.Is(err, domain.ErrForbidden):
		WriteJSONError(w, http.StatusForbidden, ErrCodeForbidden, "forbidden")
	case errors.Is(err, domain.ErrInvalidInput):
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		WriteJSONError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal error")
	}
}

func writeError(w http.ResponseWriter, statusCode int, apiErr *APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(APIResponse{Data: nil, Error: apiErr})
}
