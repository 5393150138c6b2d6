package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrymomot/jobkit/pkg/idempotency"
	"github.com/dmitrymomot/jobkit/pkg/logger"
)

const userAgent = "jobkit-crm/1.0"

// maxErrorBody bounds how much of a failed response body is kept.
const maxErrorBody = 4 << 10

// Client calls the CRM API, retrying retryable failures with exponential
// backoff. Zero value is not usable; use New.
type Client struct {
	baseURL          string
	token            string
	locationID       string
	calendarID       string
	assignedUserID   string
	appointmentTitle string

	httpClient *http.Client
	maxRetries int
	backoff    Backoff
	timeout    time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
	alerter    Alerter
	guard      *idempotency.Guard
	logger     *slog.Logger
}

// New creates a CRM client from cfg.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.Token == "" {
		return nil, ErrMissingToken
	}

	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, base)
	}

	c := &Client{
		baseURL:          strings.TrimRight(base, "/"),
		token:            cfg.Token,
		locationID:       cfg.LocationID,
		calendarID:       cfg.CalendarID,
		assignedUserID:   cfg.AssignedUserID,
		appointmentTitle: cfg.AppointmentTitle,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		maxRetries: DefaultMaxRetries,
		backoff:    Backoff{BaseDelay: cfg.BaseDelay, MaxDelay: cfg.MaxDelay},
		timeout:    10 * time.Second,
		sleep:      sleepContext,
		logger:     slog.Default(),
	}
	if cfg.MaxRetries != nil && *cfg.MaxRetries >= 0 {
		c.maxRetries = *cfg.MaxRetries
	}
	if cfg.RequestTimeout > 0 {
		c.timeout = cfg.RequestTimeout
	}
	if c.appointmentTitle == "" {
		c.appointmentTitle = "Booking"
	}

	for _, opt := range opts {
		opt(c)
	}
	if c.alerter == nil {
		c.alerter = NewLogAlerter(c.logger)
	}
	return c, nil
}

// Request describes one CRM call.
type Request struct {
	Method string
	Path   string
	Body   any

	// IdempotencyKey is sent as the Idempotency-Key header when set.
	IdempotencyKey string
}

// Result is the typed outcome of Do. Err is nil only for a 2xx response.
type Result struct {
	StatusCode     int
	Body           []byte
	Attempts       int
	Classification *Classification
	Err            error
}

// OK reports whether the call succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Decode unmarshals the response body into v.
func (r Result) Decode(v any) error {
	if r.Err != nil {
		return r.Err
	}
	if len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: %w", ErrDecodeResponse, err)
	}
	return nil
}

// Do sends req, retrying on retryable classifications up to MaxRetries
// times. Non-retryable failures return after the first attempt.
func (c *Client) Do(ctx context.Context, req Request) Result {
	var payload []byte
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return Result{Err: fmt.Errorf("%w: %w", ErrMarshalRequest, err)}
		}
		payload = data
	}

	log := c.logger.With(
		logger.Component("crm"),
		slog.String("method", req.Method),
		slog.String("path", req.Path),
	)

	var (
		last     Classification
		lastBody []byte
		lastErr  error
		attempts int
	)
	total := c.maxRetries + 1

	for attempt := 1; attempt <= total; attempt++ {
		attempts = attempt
		status, body, err := c.attempt(ctx, req, payload)

		switch {
		case err != nil:
			last = ClassifyNetworkError(err)
			lastErr = err
			lastBody = nil
		case status >= 200 && status < 300:
			log.DebugContext(ctx, "crm request succeeded",
				logger.Attempt(attempt),
				slog.Int("status", status),
			)
			return Result{StatusCode: status, Body: body, Attempts: attempt}
		default:
			last = Classify(status)
			lastErr = nil
			lastBody = body
		}

		log.WarnContext(ctx, "crm request failed",
			logger.Attempt(attempt),
			slog.Int("max_attempts", total),
			slog.Int("status", last.StatusCode),
			slog.String("category", string(last.Category)),
			slog.Bool("retryable", last.Retryable),
		)

		if !last.Retryable || attempt == total {
			break
		}

		delay := c.backoff.Delay(attempt)
		log.DebugContext(ctx, "retrying crm request", logger.Attempt(attempt+1), logger.Duration(delay))
		if err := c.sleep(ctx, delay); err != nil {
			lastErr = err
			break
		}
	}

	apiErr := &APIError{
		Method:         req.Method,
		Path:           req.Path,
		Attempts:       attempts,
		Classification: last,
		Body:           string(lastBody),
		Err:            lastErr,
	}
	if last.ShouldAlert {
		c.alerter.Alert(ctx, apiErr)
	}

	cls := last
	return Result{
		StatusCode:     last.StatusCode,
		Body:           lastBody,
		Attempts:       attempts,
		Classification: &cls,
		Err:            apiErr,
	}
}

// attempt makes one HTTP request. A non-nil error means no response was received.
func (c *Client) attempt(ctx context.Context, req Request, payload []byte) (int, []byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(reqCtx, req.Method, c.baseURL+req.Path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(httpReq, req)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	limit := int64(maxErrorBody)
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		limit = 1 << 20
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp.StatusCode, data, nil
}

func (c *Client) setHeaders(r *http.Request, req Request) {
	r.Header.Set("Authorization", authorization(c.token))
	r.Header.Set("Version", APIVersion)
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("Accept", "application/json")
	r.Header.Set("User-Agent", userAgent)
	if req.IdempotencyKey != "" {
		r.Header.Set("Idempotency-Key", req.IdempotencyKey)
	}
}

// authorization formats the token: private integration tokens (pit_ prefix)
// are sent as-is, everything else as a bearer token.
func authorization(token string) string {
	if strings.HasPrefix(token, "pit_") {
		return token
	}
	return "Bearer " + token
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
