// Package config handles configuration loading, parsing, and validation
// from defaults, an optional YAML file and NOTES_-prefixed environment
// variables. It provides type-safe access to the settings needed by the
// HTTP server, session management, the job queue and storage adapters.
package config
