// Package httpserver runs an http.Handler with context-driven graceful
// shutdown and provides a JSON health-check handler.
//
// Run blocks until its context is cancelled, then shuts the server down with
// the configured deadline. RunFunc adapts it for errgroup:
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(srv.RunFunc(ctx, router))
//
// Signal handling belongs to the caller, typically signal.NotifyContext in
// main.
//
// HealthCheckHandler answers liveness when given no checks and readiness when
// given named dependency checks:
//
//	r.Get("/healthz", httpserver.HealthCheckHandler(log,
//	    httpserver.Check{Name: "redis", Fn: redis.Healthcheck(rdb)},
//	))
package httpserver
