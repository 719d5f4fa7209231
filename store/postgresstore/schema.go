package postgresstore

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"

	"github.com/AntonStoeckl/library-circulation-go/store"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS books (
		seq       bigserial NOT NULL,
		id        integer   PRIMARY KEY,
		title     text      NOT NULL,
		author    text      NOT NULL,
		available boolean   NOT NULL DEFAULT true
	)`,
	`CREATE TABLE IF NOT EXISTS loans (
		seq         bigserial NOT NULL,
		book_id     integer   PRIMARY KEY,
		name        text      NOT NULL,
		book_title  text      NOT NULL,
		date_issued date      NOT NULL,
		due_date    date      NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS admin_credentials (
		singleton     boolean PRIMARY KEY DEFAULT true CHECK (singleton),
		username      text    NOT NULL,
		password_hash text    NOT NULL
	)`,
}

// EnsureSchema creates the tables if they do not exist and seeds the administrator
// credentials with initial unless credentials are already stored.
func (s *Store) EnsureSchema(ctx context.Context, initial store.Credentials) error {
	for _, statement := range schemaStatements {
		if _, err := s.exec(ctx, opEnsureSchema, statement); err != nil {
			return err
		}
	}

	sqlQuery, _, err := s.builder.
		Insert(tableCredentials).
		Rows(goqu.Record{
			colSingleton:    true,
			colUsername:     initial.Username,
			colPasswordHash: string(initial.PasswordHash),
		}).
		OnConflict(goqu.DoNothing()).
		ToSQL()
	if err != nil {
		return errors.Join(ErrBuildingQueryFailed, err)
	}

	_, err = s.exec(ctx, opEnsureSchema, sqlQuery)

	return err
}

// truncate empties all tables and reseeds the credentials.
func (s *Store) truncate(ctx context.Context, initial store.Credentials) error {
	if _, err := s.exec(ctx, opEnsureSchema, "TRUNCATE TABLE books, loans, admin_credentials RESTART IDENTITY"); err != nil {
		return err
	}

	return s.EnsureSchema(ctx, initial)
}
