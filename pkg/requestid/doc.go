// Package requestid attaches a correlation ID to every HTTP request.
//
// Middleware reuses a well-formed X-Request-ID header or generates a UUID,
// echoes it back and stores it in the request context. The ID is also added
// to the context log attributes so every record logged while serving the
// request carries request_id.
package requestid
