// Package adapters provide the database adapters of the PostgreSQL store.
//
// pgx.Pool, sql.DB, and sqlx.DB are supported behind the common DBAdapter interface,
// so the store runs unchanged on any of them.
package adapters
