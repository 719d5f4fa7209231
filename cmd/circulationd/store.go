package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/library-circulation-go/config"
	"github.com/AntonStoeckl/library-circulation-go/internal/retry"
	"github.com/AntonStoeckl/library-circulation-go/lending"
	"github.com/AntonStoeckl/library-circulation-go/store"
	"github.com/AntonStoeckl/library-circulation-go/store/memstore"
	"github.com/AntonStoeckl/library-circulation-go/store/postgresstore"
)

const opConnectPostgres = "connect_postgres"

// openStore creates the configured store and returns a function releasing its connections.
func openStore(
	ctx context.Context,
	cfg *config.Config,
	logger lending.Logger,
	metrics lending.MetricsCollector,
) (store.Store, func(), error) {

	credentials, err := store.NewCredentials(cfg.Admin.Username, cfg.Admin.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("admin credentials: %w", err)
	}

	if !cfg.UsesPostgres() {
		return memstore.New(credentials), func() {}, nil
	}

	options := []postgresstore.Option{postgresstore.WithLogger(logger)}
	if metrics != nil {
		options = append(options, postgresstore.WithMetrics(metrics))
	}

	var pgStore *postgresstore.Store
	var closeFn func()

	_, err = retry.Do(ctx, func(ctx context.Context) error {
		var connectErr error
		pgStore, closeFn, connectErr = connectPostgres(ctx, cfg.Store, options)
		return connectErr
	}, retry.WithLogger(logger, opConnectPostgres))
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err = pgStore.EnsureSchema(ctx, credentials); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}

	return pgStore, closeFn, nil
}

func connectPostgres(
	ctx context.Context,
	cfg config.StoreConfig,
	options []postgresstore.Option,
) (*postgresstore.Store, func(), error) {

	switch cfg.Backend {
	case config.BackendPGX:
		pool, err := config.OpenPGXPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		s, err := postgresstore.NewFromPGXPool(pool, options...)
		return s, pool.Close, closeOnError(err, pool.Close)

	case config.BackendSQLDB:
		db, err := config.OpenSQLDB(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		s, err := postgresstore.NewFromSQLDB(db, options...)
		return s, closeSQL(db), closeOnError(err, closeSQL(db))

	default:
		db, err := config.OpenSQLX(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		s, err := postgresstore.NewFromSQLX(db, options...)
		return s, closeSQLX(db), closeOnError(err, closeSQLX(db))
	}
}

func closeSQL(db *sql.DB) func() {
	return func() { _ = db.Close() }
}

func closeSQLX(db *sqlx.DB) func() {
	return func() { _ = db.Close() }
}

func closeOnError(err error, closeFn func()) error {
	if err != nil {
		closeFn()
	}

	return err
}
