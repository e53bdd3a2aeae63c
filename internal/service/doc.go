// Package service contains the application use cases behind the HTTP
// handlers: user registration and lookup, and the note and task services.
//
// Reads and owner-only updates of notes and tasks are synchronous. Creation
// and deletion are only validated here and then handed to a job.Queue; the
// writes happen later in internal/worker. Services receive their
// dependencies through constructors and depend on the store interfaces,
// never on a concrete adapter.
//
// Authentication lives in the auth subpackage.
package service
