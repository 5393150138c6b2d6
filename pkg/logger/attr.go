package logger

import (
	"log/slog"
	"time"
)

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String("error", err.Error())
}

// JobID records the job identifier under the key "job_id".
func JobID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("job_id", id)
}

// Queue records the queue name under the key "queue".
func Queue(name string) slog.Attr {
	return slog.String("queue", name)
}

// WorkerID records the worker instance identifier under the key "worker_id".
func WorkerID(id string) slog.Attr {
	return slog.String("worker_id", id)
}

// BookingID records the booking identifier under the key "booking_id".
func BookingID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("booking_id", id)
}

// PaymentID records the payment identifier under the key "payment_id".
func PaymentID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("payment_id", id)
}

// Action records a processor action under the key "action".
func Action(name string) slog.Attr {
	return slog.String("action", name)
}

func RetryCount(count int) slog.Attr {
	return slog.Int("retry_count", count)
}

func MaxRetries(count int) slog.Attr {
	return slog.Int("max_retries", count)
}

func Attempt(n int) slog.Attr {
	return slog.Int("attempt", n)
}

func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

func RequestID(id string) slog.Attr {
	return slog.String("request_id", id)
}

func ClientIP(ip string) slog.Attr {
	return slog.String("client_ip", ip)
}
