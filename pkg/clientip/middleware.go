package clientip

import (
	"context"
	"net/http"

	"github.com/dmitrymomot/jobkit/pkg/logger"
)

type contextKey struct{}

// WithContext returns ctx carrying ip.
func WithContext(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, contextKey{}, ip)
}

// FromContext returns the address stored by Middleware, or "".
func FromContext(ctx context.Context) string {
	ip, _ := ctx.Value(contextKey{}).(string)
	return ip
}

// Middleware resolves the client address with GetIP and stores it in the
// request context and its log attributes as client_ip.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := GetIP(r)
		ctx := WithContext(r.Context(), ip)
		if ip != "" {
			ctx = logger.ContextWithAttrs(ctx, logger.ClientIP(ip))
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Key returns the stored client address for use as a rate limit key.
func Key(r *http.Request) string {
	if ip := FromContext(r.Context()); ip != "" {
		return ip
	}
	return GetIP(r)
}
