package crm

import (
	"context"
	"log/slog"
)

// Alerter receives CRM failures whose classification asks for operator
// attention. Alerting never changes retry behaviour.
type Alerter interface {
	Alert(ctx context.Context, err *APIError)
}

// AlerterFunc adapts a function to Alerter.
type AlerterFunc func(ctx context.Context, err *APIError)

func (f AlerterFunc) Alert(ctx context.Context, err *APIError) { f(ctx, err) }

// LogAlerter writes alerts to the logger at error level.
type LogAlerter struct {
	logger *slog.Logger
}

// NewLogAlerter creates a LogAlerter. A nil logger uses slog.Default.
func NewLogAlerter(l *slog.Logger) *LogAlerter {
	if l == nil {
		l = slog.Default()
	}
	return &LogAlerter{logger: l}
}

func (a *LogAlerter) Alert(ctx context.Context, err *APIError) {
	a.logger.ErrorContext(ctx, "crm error requires attention",
		slog.String("method", err.Method),
		slog.String("path", err.Path),
		slog.Int("status", err.Classification.StatusCode),
		slog.String("category", string(err.Classification.Category)),
		slog.Int("attempts", err.Attempts),
		slog.String("message", err.Classification.Message),
	)
}

// MultiAlerter fans an alert out to several alerters.
type MultiAlerter []Alerter

func (m MultiAlerter) Alert(ctx context.Context, err *APIError) {
	for _, a := range m {
		if a != nil {
			a.Alert(ctx, err)
		}
	}
}
