// Package worker holds the job handlers that perform deferred note and task
// writes. Handlers are idempotent: creates are keyed by the job id, and
// task blobs are written to a key derived from the job, so a redelivered
// job leaves exactly one row and one object behind.
package worker
