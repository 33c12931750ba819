package web

// errors.go maps engine errors to HTTP responses.
//
// Every error is logged with the request id and answered with an
// ErrorResponse built from core.MapError. Rejected derivations also carry
// the full list of row and reference problems.

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/fooddb/internal/core"
	"github.com/JonMunkholm/fooddb/internal/logging"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error     string   `json:"error"`
	Message   string   `json:"message"`
	Action    string   `json:"action,omitempty"`
	Code      string   `json:"code"`
	Retryable bool     `json:"retryable"`
	Errors    []string `json:"errors,omitempty"`
	RequestID string   `json:"requestId,omitempty"`
}

// statusFor picks the HTTP status for an engine error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrTooManyRuns):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrCodeConflict):
		return http.StatusConflict
	case errors.Is(err, core.ErrLocaleNotFound):
		return http.StatusNotFound
	case core.IsClientError(err):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err with request context and writes the mapped response.
// statusCode 0 derives the status from the error.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	if statusCode == 0 {
		statusCode = statusFor(err)
	}
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if statusCode >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Info("request rejected", attrs...)
	}

	if core.IsRetryable(err) {
		w.Header().Set("Retry-After", retryAfter(err))
	}

	resp := newErrorResponse(userMsg)
	resp.RequestID = middleware.GetReqID(r.Context())
	if problems, ok := core.AsRejected(err); ok {
		resp.Errors = problems
	}
	writeJSON(w, statusCode, resp)
}

// retryAfter is the Retry-After value in seconds for a retryable error. A busy
// server needs a run to finish; a code conflict can be resubmitted at once.
func retryAfter(err error) string {
	if errors.Is(err, core.ErrTooManyRuns) {
		return "30"
	}
	return "1"
}

// respondErrorJSON writes a JSON error response without request context.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	writeJSON(w, statusCode, newErrorResponse(msg))
}

func newErrorResponse(msg core.UserMessage) ErrorResponse {
	return ErrorResponse{
		Error:     msg.Message,
		Message:   msg.Message,
		Action:    msg.Action,
		Code:      msg.Code,
		Retryable: msg.Retryable,
	}
}
