// Package postgres implements the store interfaces and the job queue store
// on PostgreSQL through database/sql and the pgx stdlib driver. Schema
// migrations are embedded and applied with goose.
package postgres
