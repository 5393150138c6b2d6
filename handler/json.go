package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrymomot/jobkit/pkg/validator"
)

// JSONResponse is the envelope of every JSON response.
type JSONResponse struct {
	Data  any            `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *ErrorDetail   `json:"error,omitempty"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

type jsonResponse struct {
	status int
	body   JSONResponse
}

func (j jsonResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSONOption configures a JSON response.
type JSONOption func(*jsonResponse)

// WithJSONStatus overrides the status code.
func WithJSONStatus(status int) JSONOption {
	return func(r *jsonResponse) { r.status = status }
}

// WithJSONMeta sets the meta object.
func WithJSONMeta(meta map[string]any) JSONOption {
	return func(r *jsonResponse) { r.body.Meta = meta }
}

// JSON wraps v as {"data": v} with status 200. An error value is rendered as
// JSONError would.
func JSON(v any, opts ...JSONOption) Response {
	r := &jsonResponse{status: http.StatusOK}
	if err, ok := v.(error); ok {
		r.body.Error = errorToDetail(err, &r.status)
	} else {
		r.body.Data = v
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// JSONError renders err as {"error": {...}}.
//
// Validation errors map to 422 with per-field details, HTTPError to its own
// code, binding errors to 400 or 415, anything else to 500.
func JSONError(err error, opts ...JSONOption) Response {
	r := &jsonResponse{status: http.StatusInternalServerError}
	r.body.Error = errorToDetail(err, &r.status)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func errorToDetail(err error, status *int) *ErrorDetail {
	if ve := validator.ExtractValidationErrors(err); ve != nil {
		*status = http.StatusUnprocessableEntity
		return &ErrorDetail{Code: "validation_error", Message: ve.Error(), Details: ve.Fields()}
	}

	if httpErr, ok := errorsAs[HTTPError](err); ok {
		*status = httpErr.Code
		return &ErrorDetail{Code: httpErr.Key, Message: err.Error()}
	}

	switch {
	case errors.Is(err, ErrUnsupportedMediaType):
		*status = http.StatusUnsupportedMediaType
		return &ErrorDetail{Code: "unsupported_media_type", Message: err.Error()}
	case errors.Is(err, ErrMissingContentType), errors.Is(err, ErrInvalidJSON):
		*status = http.StatusBadRequest
		return &ErrorDetail{Code: "bad_request", Message: err.Error()}
	}

	*status = http.StatusInternalServerError
	return &ErrorDetail{Code: "internal_error", Message: http.StatusText(http.StatusInternalServerError)}
}
