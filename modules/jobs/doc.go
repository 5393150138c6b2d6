// Package jobs exposes the job queue over HTTP.
//
// Producers that cannot link the queue client, such as the web frontend or
// an external scheduler, post typed job requests here. Every request is
// validated before it reaches the store and rejected with 422 otherwise.
// Operators can read queue depth from /stats and force a drain pass with
// /process.
package jobs
