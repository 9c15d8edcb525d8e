package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/mcoot/rpgdash/internal/api/apierr"
	"github.com/mcoot/rpgdash/internal/model"
)

// maxRequestBody bounds JSON request bodies
const maxRequestBody = 1 << 20

// Re-export from apierr for convenience
type APIError = apierr.APIError
type ErrorResponse = apierr.ErrorResponse

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}

// decodeBody reads a single JSON document into v. Validation errors raised by
// v's own decoding pass through; anything else is an invalid request body.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, model.ErrValidation) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return NewInvalidRequestError("request body is empty")
		}
		return NewInvalidRequestError(fmt.Sprintf("invalid request body: %v", err))
	}
	if dec.More() {
		return NewInvalidRequestError("request body must contain a single JSON document")
	}
	return nil
}
