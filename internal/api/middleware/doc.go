// Package middleware holds the HTTP middleware of the API: bearer
// authentication, trace ids, access logging and per-client rate limits.
package middleware
