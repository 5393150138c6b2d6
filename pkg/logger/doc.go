// Package logger builds *slog.Logger instances for jobkit processes.
//
// New applies functional options (format, level, output, static attributes,
// per-environment defaults) and wraps the handler so that attributes stored in
// a context with ContextWithAttrs are added to every record logged with that
// context. The queue worker uses this to tag everything a processor logs with
// the job id and queue name.
//
//	log := logger.New(logger.WithEnvironment("production", "jobkit-worker"))
//	ctx := logger.ContextWithAttrs(ctx, logger.JobID(job.ID), logger.Queue("notification"))
//	log.InfoContext(ctx, "notification sent")
//
// Attribute helpers (Error, JobID, BookingID, ...) return an empty slog.Attr for
// empty values, so callers can pass them without nil checks.
package logger
