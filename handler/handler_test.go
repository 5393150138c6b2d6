package handler_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/jobkit/handler"
	"github.com/dmitrymomot/jobkit/pkg/validator"
)

type createRequest struct {
	Name string `json:"name"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) handler.JSONResponse {
	t.Helper()
	var body handler.JSONResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func post(h http.Handler, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestWrap(t *testing.T) {
	t.Parallel()

	echo := handler.HandlerFunc[handler.Context, createRequest](func(_ handler.Context, req createRequest) handler.Response {
		if req.Name == "" {
			return handler.JSONError(validator.Apply(validator.Required("name", req.Name)))
		}
		return handler.JSON(req, handler.WithJSONStatus(http.StatusCreated))
	})
	h := handler.Wrap(echo, handler.WithBinders[handler.Context, createRequest](handler.BindJSON()))

	t.Run("binds and renders data", func(t *testing.T) {
		t.Parallel()

		rec := post(h, "application/json; charset=utf-8", `{"name":"jobs"}`)
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Equal(t, map[string]any{"name": "jobs"}, decode(t, rec).Data)
	})

	t.Run("validation failure", func(t *testing.T) {
		t.Parallel()

		rec := post(h, "application/json", `{"name":""}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		body := decode(t, rec)
		require.NotNil(t, body.Error)
		assert.Equal(t, "validation_error", body.Error.Code)
		assert.Equal(t, "field is required", body.Error.Details["name"])
	})

	t.Run("binding errors", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name, ct, body string
			code           int
		}{
			{"missing content type", "", `{}`, http.StatusBadRequest},
			{"wrong media type", "text/plain", `{}`, http.StatusUnsupportedMediaType},
			{"malformed", "application/json", `{"name":`, http.StatusBadRequest},
			{"unknown field", "application/json", `{"nope":1}`, http.StatusBadRequest},
			{"empty", "application/json", ``, http.StatusBadRequest},
			{"trailing data", "application/json", `{"name":"a"}{}`, http.StatusBadRequest},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()
				rec := post(h, tt.ct, tt.body)
				assert.Equal(t, tt.code, rec.Code)
				assert.NotNil(t, decode(t, rec).Error)
			})
		}
	})

	t.Run("nil response", func(t *testing.T) {
		t.Parallel()

		nilH := handler.Wrap(handler.HandlerFunc[handler.Context, struct{}](func(handler.Context, struct{}) handler.Response {
			return nil
		}))
		rec := post(nilH, "", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "internal_error", decode(t, rec).Error.Code)
	})

	t.Run("decorators run outermost first", func(t *testing.T) {
		t.Parallel()

		var order []string
		mark := func(name string) handler.Decorator[handler.Context, struct{}] {
			return func(next handler.HandlerFunc[handler.Context, struct{}]) handler.HandlerFunc[handler.Context, struct{}] {
				return func(ctx handler.Context, req struct{}) handler.Response {
					order = append(order, name)
					return next(ctx, req)
				}
			}
		}
		h := handler.Wrap(
			handler.HandlerFunc[handler.Context, struct{}](func(handler.Context, struct{}) handler.Response {
				order = append(order, "handler")
				return handler.JSON("ok")
			}),
			handler.WithDecorators(mark("outer"), mark("inner")),
		)
		post(h, "", "")
		assert.Equal(t, []string{"outer", "inner", "handler"}, order)
	})
}

func TestJSONError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		code int
		key  string
		msg  string
	}{
		{"http error", fmt.Errorf("%w: drain in progress", handler.ErrConflict), http.StatusConflict, "conflict", "conflict: drain in progress"},
		{"custom http error", handler.NewHTTPError(http.StatusTeapot, "teapot"), http.StatusTeapot, "teapot", "teapot"},
		{"internal error hides message", errors.New("redis: connection refused"), http.StatusInternalServerError, "internal_error", "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			require.NoError(t, handler.JSONError(tt.err).Render(rec, httptest.NewRequest(http.MethodGet, "/", nil)))
			assert.Equal(t, tt.code, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, tt.key, body.Error.Code)
			assert.Equal(t, tt.msg, body.Error.Message)
		})
	}
}

func TestJSONMeta(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	resp := handler.JSON([]int{1}, handler.WithJSONMeta(map[string]any{"total": 1}))
	require.NoError(t, resp.Render(rec, httptest.NewRequest(http.MethodGet, "/", nil)))
	body := decode(t, rec)
	assert.EqualValues(t, 1, body.Meta["total"])
}
