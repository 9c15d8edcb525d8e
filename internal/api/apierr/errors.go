package apierr

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/mcoot/rpgdash/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RetryAfterMS int64  `json:"retry_after_ms,omitempty"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodePlayerNotFound     = "PLAYER_NOT_FOUND"
	CodeItemNotFound       = "ITEM_NOT_FOUND"
	CodeInsufficientFunds  = "INSUFFICIENT_FUNDS"
	CodeCooldownActive     = "COOLDOWN_ACTIVE"
	CodeConflict           = "CONFLICT"
	CodePersistenceFailed  = "PERSISTENCE_FAILED"
	CodeConfigurationError = "CONFIGURATION_ERROR"
	CodeProviderError      = "PROVIDER_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	if he.apiError.RetryAfterMS > 0 {
		secs := (he.apiError.RetryAfterMS + 999) / 1000
		w.Header().Set("Retry-After", strconv.FormatInt(secs, 10))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// StatusOf returns the HTTP status an error maps to
func StatusOf(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	var cd *model.CooldownError
	if errors.As(err, &cd) {
		retry := cd.Remaining.Milliseconds()
		if retry < 1 {
			retry = 1
		}
		return &httpError{http.StatusTooManyRequests, APIError{CodeCooldownActive, cd.Error(), retry}}
	}

	switch {
	case errors.Is(err, model.ErrValidation):
		return &httpError{http.StatusBadRequest, APIError{Code: CodeInvalidRequest, Message: err.Error()}}
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{Code: CodePlayerNotFound, Message: "Player not found"}}
	case errors.Is(err, model.ErrItemNotFound):
		return &httpError{http.StatusNotFound, APIError{Code: CodeItemNotFound, Message: "Item not found"}}
	case errors.Is(err, model.ErrInsufficientFunds):
		return &httpError{http.StatusPaymentRequired, APIError{Code: CodeInsufficientFunds, Message: "Not enough gold"}}
	case errors.Is(err, model.ErrRemoteWriteFailed):
		return &httpError{http.StatusBadGateway, APIError{Code: CodePersistenceFailed, Message: "The change could not be saved"}}
	case errors.Is(err, model.ErrConflict):
		return &httpError{http.StatusConflict, APIError{Code: CodeConflict, Message: "The record was changed concurrently"}}
	case errors.Is(err, model.ErrConfiguration):
		return &httpError{http.StatusServiceUnavailable, APIError{Code: CodeConfigurationError, Message: "Payments are not configured"}}
	case errors.Is(err, model.ErrProvider):
		return &httpError{http.StatusBadGateway, APIError{Code: CodeProviderError, Message: "The payment provider failed"}}
	default:
		return &httpError{http.StatusInternalServerError, APIError{Code: CodeInternalError, Message: "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{Code: CodeInvalidRequest, Message: message}}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(message string) error {
	return &httpError{http.StatusNotFound, APIError{Code: CodeNotFound, Message: message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{Code: CodeInternalError, Message: "Internal server error"}}
}
