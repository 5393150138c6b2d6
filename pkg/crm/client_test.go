package crm_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/jobkit/pkg/crm"
	"github.com/dmitrymomot/jobkit/pkg/idempotency"
)

type recordedSleeps struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordedSleeps) sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	return nil
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, baseURL string, opts ...crm.Option) (*crm.Client, *recordedSleeps) {
	t.Helper()
	sleeps := &recordedSleeps{}
	opts = append([]crm.Option{crm.WithSleeper(sleeps.sleep), crm.WithLogger(quiet())}, opts...)
	c, err := crm.New(crm.Config{
		BaseURL:    baseURL,
		Token:      "jwt-token",
		LocationID: "loc-1",
		CalendarID: "cal-1",
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
	}, opts...)
	require.NoError(t, err)
	return c, sleeps
}

func statusServer(t *testing.T, statuses ...int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(calls.Add(1))
		status := statuses[min(n, len(statuses))-1]
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"id":"ok"}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := crm.New(crm.Config{})
	assert.ErrorIs(t, err, crm.ErrMissingToken)

	_, err = crm.New(crm.Config{Token: "t", BaseURL: "ftp://crm"})
	assert.ErrorIs(t, err, crm.ErrInvalidBaseURL)

	c, err := crm.New(crm.Config{Token: "t"})
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestConfig_MaxRetries(t *testing.T) {
	t.Setenv("CRM_TOKEN", "pit-test")
	t.Setenv("CRM_MAX_RETRIES", "0")

	var cfg crm.Config
	require.NoError(t, env.Parse(&cfg))
	require.NotNil(t, cfg.MaxRetries)
	assert.Zero(t, *cfg.MaxRetries)

	attempts := func(cfg crm.Config) int {
		srv, _ := statusServer(t, 503)
		cfg.BaseURL = srv.URL
		c, err := crm.New(cfg,
			crm.WithSleeper(func(context.Context, time.Duration) error { return nil }),
			crm.WithLogger(quiet()),
		)
		require.NoError(t, err)
		return c.Do(context.Background(), crm.Request{Method: http.MethodGet, Path: "/"}).Attempts
	}

	assert.Equal(t, 1, attempts(cfg), "zero retries means a single attempt")
	assert.Equal(t, crm.DefaultMaxRetries+1, attempts(crm.Config{Token: "t"}), "unset uses the default")
	two := 2
	assert.Equal(t, 3, attempts(crm.Config{Token: "t", MaxRetries: &two}))
}

func TestClient_Do(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("sets headers", func(t *testing.T) {
		t.Parallel()

		headers := make(chan http.Header, 1)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			headers <- r.Header.Clone()
			w.WriteHeader(http.StatusOK)
		}))
		t.Cleanup(srv.Close)

		c, _ := newTestClient(t, srv.URL)
		res := c.Do(ctx, crm.Request{Method: http.MethodPost, Path: "/x", Body: map[string]string{"a": "b"}, IdempotencyKey: "key-1"})
		require.True(t, res.OK())

		got := <-headers

		assert.Equal(t, "Bearer jwt-token", got.Get("Authorization"))
		assert.Equal(t, "2021-07-28", got.Get("Version"))
		assert.Equal(t, "application/json", got.Get("Content-Type"))
		assert.Equal(t, "jobkit-crm/1.0", got.Get("User-Agent"))
		assert.Equal(t, "key-1", got.Get("Idempotency-Key"))
	})

	t.Run("private integration token is sent raw", func(t *testing.T) {
		t.Parallel()

		auth := make(chan string, 1)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth <- r.Header.Get("Authorization")
		}))
		t.Cleanup(srv.Close)

		c, err := crm.New(crm.Config{BaseURL: srv.URL, Token: "pit_abc"}, crm.WithLogger(quiet()))
		require.NoError(t, err)
		require.True(t, c.Do(ctx, crm.Request{Method: http.MethodGet, Path: "/"}).OK())
		assert.Equal(t, "pit_abc", <-auth)
	})

	t.Run("retries server errors with backoff", func(t *testing.T) {
		t.Parallel()

		srv, calls := statusServer(t, 503, 500, 429, 200)
		c, sleeps := newTestClient(t, srv.URL)

		res := c.Do(ctx, crm.Request{Method: http.MethodGet, Path: "/contacts"})
		require.NoError(t, res.Err)
		assert.Equal(t, 4, res.Attempts)
		assert.EqualValues(t, 4, calls.Load())
		assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, sleeps.delays)
	})

	t.Run("gives up after max retries plus one attempts", func(t *testing.T) {
		t.Parallel()

		srv, calls := statusServer(t, 502)
		c, sleeps := newTestClient(t, srv.URL)

		res := c.Do(ctx, crm.Request{Method: http.MethodGet, Path: "/contacts"})
		require.Error(t, res.Err)
		assert.ErrorIs(t, res.Err, crm.ErrRequestFailed)
		assert.EqualValues(t, 4, calls.Load())
		assert.Len(t, sleeps.delays, 3)
		require.NotNil(t, res.Classification)
		assert.Equal(t, crm.CategoryServerError, res.Classification.Category)

		apiErr, ok := crm.AsAPIError(res.Err)
		require.True(t, ok)
		assert.Equal(t, 4, apiErr.Attempts)
		assert.Equal(t, 502, apiErr.Classification.StatusCode)
	})

	t.Run("non-retryable aborts without waiting", func(t *testing.T) {
		t.Parallel()

		for _, status := range []int{400, 401, 403, 404} {
			srv, calls := statusServer(t, status)
			c, sleeps := newTestClient(t, srv.URL)

			res := c.Do(ctx, crm.Request{Method: http.MethodGet, Path: "/"})
			require.Error(t, res.Err)
			assert.EqualValues(t, 1, calls.Load(), "status %d", status)
			assert.Empty(t, sleeps.delays, "status %d", status)
			assert.False(t, crm.IsRetryable(res.Err))
		}
	})

	t.Run("network errors are retried", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		url := srv.URL
		srv.Close()

		c, sleeps := newTestClient(t, url, crm.WithMaxRetries(2))
		res := c.Do(ctx, crm.Request{Method: http.MethodGet, Path: "/"})
		require.Error(t, res.Err)
		assert.Equal(t, 3, res.Attempts)
		assert.Len(t, sleeps.delays, 2)
		assert.Equal(t, crm.CategoryNetworkError, res.Classification.Category)
		assert.True(t, crm.IsRetryable(res.Err))
	})

	t.Run("alerts only when classification asks", func(t *testing.T) {
		t.Parallel()

		var alerts atomic.Int32
		alerter := crm.AlerterFunc(func(context.Context, *crm.APIError) { alerts.Add(1) })

		srv401, _ := statusServer(t, 401)
		c, _ := newTestClient(t, srv401.URL, crm.WithAlerter(alerter))
		_ = c.Do(ctx, crm.Request{Method: http.MethodGet, Path: "/"})
		assert.EqualValues(t, 1, alerts.Load())

		srv503, calls := statusServer(t, 503)
		c, _ = newTestClient(t, srv503.URL, crm.WithAlerter(alerter))
		_ = c.Do(ctx, crm.Request{Method: http.MethodGet, Path: "/"})
		assert.EqualValues(t, 1, alerts.Load())
		assert.EqualValues(t, 4, calls.Load())
	})

	t.Run("cancelled sleep stops retrying", func(t *testing.T) {
		t.Parallel()

		srv, calls := statusServer(t, 500)
		c, _ := newTestClient(t, srv.URL, crm.WithSleeper(func(context.Context, time.Duration) error {
			return context.Canceled
		}))

		res := c.Do(ctx, crm.Request{Method: http.MethodGet, Path: "/"})
		assert.ErrorIs(t, res.Err, context.Canceled)
		assert.EqualValues(t, 1, calls.Load())
	})
}

func TestClient_Operations(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	type call struct {
		path string
		key  string
		body map[string]any
	}

	newServer := func(t *testing.T) (*httptest.Server, func() []call) {
		t.Helper()
		var (
			mu    sync.Mutex
			calls []call
		)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			mu.Lock()
			calls = append(calls, call{path: r.URL.Path, key: r.Header.Get("Idempotency-Key"), body: body})
			mu.Unlock()

			switch r.URL.Path {
			case "/contacts/upsert":
				_, _ = w.Write([]byte(`{"contact":{"id":"contact-1"},"new":true}`))
			case "/calendars/events/appointments":
				_, _ = w.Write([]byte(`{"id":"appt-1"}`))
			case "/conversations/messages":
				_, _ = w.Write([]byte(`{"messageId":"msg-1","conversationId":"conv-1"}`))
			default:
				_, _ = w.Write([]byte(`{}`))
			}
		}))
		t.Cleanup(srv.Close)
		return srv, func() []call {
			mu.Lock()
			defer mu.Unlock()
			return append([]call(nil), calls...)
		}
	}

	t.Run("contact and tags", func(t *testing.T) {
		t.Parallel()

		srv, recorded := newServer(t)
		c, _ := newTestClient(t, srv.URL)

		id, err := c.UpsertContact(ctx, crm.Contact{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"})
		require.NoError(t, err)
		assert.Equal(t, "contact-1", id)

		require.NoError(t, c.AddContactTags(ctx, id, "Booking:Confirmed", "Status:Booking_Confirmed"))
		assert.ErrorIs(t, c.AddContactTags(ctx, "", "x"), crm.ErrMissingContact)

		calls := recorded()
		require.Len(t, calls, 2)
		assert.Equal(t, "loc-1", calls[0].body["locationId"])
		assert.Equal(t, "Ada Lovelace", calls[0].body["name"])
		assert.Equal(t, "/contacts/contact-1/tags", calls[1].path)
	})

	t.Run("appointment creation is guarded", func(t *testing.T) {
		t.Parallel()

		srv, recorded := newServer(t)
		guard, err := idempotency.NewGuard(idempotency.NewMemoryStore(nil), idempotency.WithLogger(quiet()))
		require.NoError(t, err)
		c, _ := newTestClient(t, srv.URL, crm.WithGuard(guard))

		start := time.Date(2025, 5, 1, 15, 0, 0, 0, time.UTC)
		appt := crm.Appointment{ContactID: "contact-1", Start: start, End: start.Add(time.Hour)}

		id, err := c.CreateAppointment(ctx, appt)
		require.NoError(t, err)
		assert.Equal(t, "appt-1", id)

		_, err = c.CreateAppointment(ctx, appt)
		assert.ErrorIs(t, err, idempotency.ErrDuplicateRequest)
		assert.False(t, crm.IsRetryable(err))

		calls := recorded()
		require.Len(t, calls, 1)
		assert.Equal(t, idempotency.AppointmentKey("cal-1", start, "contact-1"), calls[0].key)
		assert.Equal(t, "cal-1", calls[0].body["calendarId"])
		assert.Equal(t, "2025-05-01T15:00:00Z", calls[0].body["startTime"])
	})

	t.Run("sms", func(t *testing.T) {
		t.Parallel()

		srv, recorded := newServer(t)
		c, _ := newTestClient(t, srv.URL)

		id, err := c.SendSMS(ctx, "contact-1", "See you tomorrow")
		require.NoError(t, err)
		assert.Equal(t, "msg-1", id)
		assert.Equal(t, "SMS", recorded()[0].body["type"])

		_, err = c.SendSMS(ctx, "contact-1", "")
		assert.ErrorIs(t, err, crm.ErrEmptyMessage)
		assert.False(t, crm.IsRetryable(err))
	})
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	assert.False(t, crm.IsRetryable(nil))
	assert.True(t, crm.IsRetryable(errors.New("socket closed")))
	assert.False(t, crm.IsRetryable(crm.ErrMissingCalendar))
}
