// Package ratelimiter implements a token bucket limiter and HTTP middleware
// for the jobs API.
//
//	bucket, _ := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(nil), cfg)
//	r.Use(ratelimiter.Middleware(bucket, clientip.Key, log))
//
// Each key starts with Capacity tokens and regains RefillRate tokens every
// RefillInterval, up to Capacity.
package ratelimiter
