// Package handler provides typed HTTP handlers with pluggable binding and a
// uniform JSON envelope.
//
// A HandlerFunc receives a Context and a request value already decoded by
// the configured binders, and returns a Response. Wrap turns it into an
// http.HandlerFunc:
//
//	r.Post("/jobs", handler.Wrap(enqueue,
//	    handler.WithBinders[handler.Context, EnqueueRequest](handler.BindJSON()),
//	))
//
// Errors from binding or rendering go to the ErrorHandler, which by default
// renders JSONError. Internal error messages are never exposed; HTTPError,
// validator.ValidationErrors and binding errors are.
package handler
