// Package postgresstore provides a PostgreSQL implementation of store.Store.
//
// Every precondition is part of the write statement itself, so concurrent servers
// sharing one database cannot lend a book twice or register an id twice:
//
//   - AddBook is an INSERT ... ON CONFLICT DO NOTHING
//   - IssueBook is an UPDATE ... WHERE available feeding an INSERT into loans in one statement
//   - ReturnBook is a DELETE ... RETURNING feeding the UPDATE of the book in one statement
//
// Usage examples:
//
//	pool, _ := pgxpool.NewWithConfig(ctx, config.PGXPoolConfig(dsn))
//	s, _ := postgresstore.NewFromPGXPool(pool, postgresstore.WithLogger(logger))
//	_ = s.EnsureSchema(ctx, initialCredentials)
//
//	db, _ := config.OpenSQLDB(dsn)
//	s, _ := postgresstore.NewFromSQLDB(db)
package postgresstore
