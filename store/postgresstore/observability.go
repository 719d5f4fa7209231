package postgresstore

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/AntonStoeckl/library-circulation-go/lending"
	"github.com/AntonStoeckl/library-circulation-go/store/postgresstore/internal/adapters"
)

// Statement names used as the operation label.
const (
	opListBooks       = "list_books"
	opListLoans       = "list_loans"
	opAddBook         = "add_book"
	opIssueBook       = "issue_book"
	opReturnBook      = "return_book"
	opDeleteBook      = "delete_book"
	opLoadCredentials = "load_credentials"
	opSwapCredentials = "swap_credentials"
	opEnsureSchema    = "ensure_schema"
)

// Metric names.
const (
	StatementDurationMetric = "store_statement_duration_seconds"
	StatementErrorsMetric   = "store_statement_errors_total"
)

const (
	logMsgSQLExecuted     = "store: sql executed: "
	logMsgStatementFailed = "store: sql statement failed"
	logMsgCloseRowsFailed = "store: failed to close database rows"
	logAttrQuery          = "query"
	logAttrError          = "error"
	logAttrDurationMS     = "duration_ms"

	statusSuccess = "success"
	statusError   = "error"
)

func (s *Store) query(ctx context.Context, operation string, sqlQuery string) (adapters.DBRows, error) {
	start := time.Now()
	rows, queryErr := s.db.Query(ctx, sqlQuery)
	s.observeStatement(operation, sqlQuery, time.Since(start), queryErr)

	if queryErr != nil {
		return nil, errors.Join(ErrQueryFailed, queryErr)
	}

	return rows, nil
}

func (s *Store) exec(ctx context.Context, operation string, sqlQuery string) (int64, error) {
	start := time.Now()
	result, execErr := s.db.Exec(ctx, sqlQuery)
	s.observeStatement(operation, sqlQuery, time.Since(start), execErr)

	if execErr != nil {
		return 0, errors.Join(ErrExecFailed, execErr)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Join(ErrExecFailed, err)
	}

	return rowsAffected, nil
}

func (s *Store) observeStatement(operation string, sqlQuery string, duration time.Duration, err error) {
	status := statusSuccess
	if err != nil {
		status = statusError
	}

	if s.logger != nil {
		s.logger.Debug(logMsgSQLExecuted+operation, logAttrDurationMS, durationToMilliseconds(duration), logAttrQuery, sqlQuery)

		if err != nil {
			s.logger.Error(logMsgStatementFailed, logAttrError, err.Error(), logAttrQuery, sqlQuery)
		}
	}

	if s.metricsCollector != nil {
		labels := lending.BuildOperationLabels(operation, status)
		s.metricsCollector.RecordDuration(StatementDurationMetric, duration, labels)

		if err != nil {
			s.metricsCollector.IncrementCounter(StatementErrorsMetric, labels)
		}
	}
}

// closeRows safely closes database rows and logs any errors.
func (s *Store) closeRows(rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		if s.logger != nil {
			s.logger.Warn(logMsgCloseRowsFailed, logAttrError, closeErr.Error())
		}
	}
}

// durationToMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func durationToMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
