package requestid

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"

	"github.com/dmitrymomot/jobkit/pkg/logger"
)

const (
	Header      = "X-Request-ID"
	maxIDLength = 128
)

var validID = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Middleware reuses a valid inbound X-Request-ID or generates one, echoes it
// in the response and stores it in the request context. Loggers built by
// logger.New pick it up as request_id.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if !Valid(id) {
			id = uuid.NewString()
		}
		w.Header().Set(Header, id)

		ctx := WithContext(r.Context(), id)
		ctx = logger.ContextWithAttrs(ctx, logger.RequestID(id))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Valid reports whether id is an acceptable client-supplied request ID.
func Valid(id string) bool {
	if id == "" || len(id) > maxIDLength {
		return false
	}
	return validID.MatchString(id)
}
