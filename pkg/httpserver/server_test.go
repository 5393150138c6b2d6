package httpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/jobkit/pkg/httpserver"
)

func TestServerRun(t *testing.T) {
	t.Parallel()

	t.Run("serves until context is cancelled", func(t *testing.T) {
		t.Parallel()

		var started, stopped atomic.Bool
		srv := httpserver.New(
			httpserver.WithAddr("127.0.0.1:0"),
			httpserver.WithShutdownTimeout(time.Second),
			httpserver.WithStartHook(func(*slog.Logger) { started.Store(true) }),
			httpserver.WithStopHook(func(*slog.Logger) { stopped.Store(true) }),
		)

		handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- srv.RunFunc(ctx, handler)() }()

		require.Eventually(t, func() bool { return srv.Addr() != nil }, time.Second, 5*time.Millisecond)

		resp, err := http.Get("http://" + srv.Addr().String() + "/")
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusTeapot, resp.StatusCode)

		cancel()
		require.NoError(t, <-done)
		assert.True(t, started.Load())
		assert.True(t, stopped.Load())
	})

	t.Run("second run fails", func(t *testing.T) {
		t.Parallel()

		srv := httpserver.New(httpserver.WithAddr("127.0.0.1:0"))
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- srv.Run(ctx, nil) }()
		require.Eventually(t, func() bool { return srv.Addr() != nil }, time.Second, 5*time.Millisecond)

		err := srv.Run(ctx, nil)
		assert.ErrorIs(t, err, httpserver.ErrAlreadyRunning)
		assert.ErrorIs(t, err, httpserver.ErrStart)

		cancel()
		require.NoError(t, <-done)
	})

	t.Run("listen failure wraps ErrStart", func(t *testing.T) {
		t.Parallel()

		srv := httpserver.New(httpserver.WithAddr("256.0.0.1:bad"))
		err := srv.Run(context.Background(), nil)
		assert.ErrorIs(t, err, httpserver.ErrStart)
	})

	t.Run("shutdown before run is a no-op", func(t *testing.T) {
		t.Parallel()
		srv := httpserver.New()
		assert.NoError(t, srv.Shutdown(context.Background()))
	})
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	srv := httpserver.NewFromConfig(httpserver.Config{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, nil) }()
	require.Eventually(t, func() bool { return srv.Addr() != nil }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}

func TestOptionsPanicOnInvalidValues(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { httpserver.WithAddr("") })
	assert.Panics(t, func() { httpserver.WithReadTimeout(0) })
	assert.Panics(t, func() { httpserver.WithWriteTimeout(-time.Second) })
	assert.Panics(t, func() { httpserver.WithIdleTimeout(0) })
	assert.Panics(t, func() { httpserver.WithShutdownTimeout(0) })
	assert.Panics(t, func() { httpserver.WithStartHook(nil) })
	assert.Panics(t, func() { httpserver.WithStopHook(nil) })
}

func TestHealthCheckHandler(t *testing.T) {
	t.Parallel()

	decode := func(t *testing.T, rec *httptest.ResponseRecorder) httpserver.HealthStatus {
		t.Helper()
		var s httpserver.HealthStatus
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&s))
		return s
	}

	t.Run("liveness without checks", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		httpserver.HealthCheckHandler(nil)(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.Equal(t, "alive", decode(t, rec).Status)
	})

	t.Run("all checks pass", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		h := httpserver.HealthCheckHandler(nil,
			httpserver.Check{Name: "redis", Fn: func(context.Context) error { return nil }},
			httpserver.Check{Name: "postgres", Fn: func(context.Context) error { return nil }},
		)
		h(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		s := decode(t, rec)
		assert.Equal(t, "ready", s.Status)
		assert.Equal(t, map[string]string{"redis": "ok", "postgres": "ok"}, s.Checks)
	})

	t.Run("failing check", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		h := httpserver.HealthCheckHandler(nil,
			httpserver.Check{Name: "redis", Fn: func(context.Context) error { return errors.New("connection refused") }},
			httpserver.Check{Name: "postgres", Fn: func(context.Context) error { return nil }},
		)
		h(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		s := decode(t, rec)
		assert.Equal(t, "not_ready", s.Status)
		assert.Equal(t, "connection refused", s.Checks["redis"])
		assert.Equal(t, "ok", s.Checks["postgres"])
	})

	t.Run("checks receive a deadline", func(t *testing.T) {
		t.Parallel()

		var hasDeadline bool
		h := httpserver.HealthCheckHandler(nil, httpserver.Check{Name: "db", Fn: func(ctx context.Context) error {
			_, hasDeadline = ctx.Deadline()
			return nil
		}})
		h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.True(t, hasDeadline)
	})
}
