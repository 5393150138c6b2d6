// Package redis connects to the Redis server that backs the job store and the
// idempotency guard.
//
// Connect parses a redis:// URL, pings with retries and returns a ready
// *redis.Client. Healthcheck wraps a ping as a probe for the admin API.
// Config is populated from REDIS_* environment variables via pkg/config.
package redis
