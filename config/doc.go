// Package config provides environment configuration for the circulation binaries,
// factories for PostgreSQL connections (pgx.Pool, sql.DB, sqlx.DB) and the
// OpenTelemetry providers used when observability is enabled.
//
// Values are read from the process environment after an optional .env file has been loaded.
// Unset or unparsable variables fall back to their defaults; Validate reports every
// remaining problem at once.
package config
