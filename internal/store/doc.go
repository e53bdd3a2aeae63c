// Package store defines the persistence interfaces the services depend on
// and the sentinel errors every implementation reports. Postgres and blob
// backends live under internal/platform.
package store
