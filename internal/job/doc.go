// Package job carries create and delete intents for notes and tasks from the
// request path to background workers. Jobs are persisted before they are
// queued, claimed by at most one worker at a time, retried with exponential
// backoff and buried once their attempts run out.
package job
