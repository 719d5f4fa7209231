package postgresstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/library-circulation-go/lending"
	"github.com/AntonStoeckl/library-circulation-go/store"
	"github.com/AntonStoeckl/library-circulation-go/store/postgresstore/internal/adapters"
)

const (
	tableBooks       = "books"
	tableLoans       = "loans"
	tableCredentials = "admin_credentials"
	colSeq           = "seq"
	colID            = "id"
	colTitle         = "title"
	colAuthor        = "author"
	colAvailable     = "available"
	colBookID        = "book_id"
	colName          = "name"
	colBookTitle     = "book_title"
	colDateIssued    = "date_issued"
	colDueDate       = "due_date"
	colSingleton     = "singleton"
	colUsername      = "username"
	colPasswordHash  = "password_hash"
	cteIssued        = "issued"
	cteReturned      = "returned"
	cteFreed         = "freed"
	dialectPostgres  = "postgres"
	castDate         = "?::date"
	dateLayout       = "2006-01-02"
)

var (
	// ErrNilDatabaseConnection is returned when a constructor gets a nil connection.
	ErrNilDatabaseConnection = errors.New("database connection is nil")
	// ErrBuildingQueryFailed is returned when goqu cannot render a statement.
	ErrBuildingQueryFailed = errors.New("building query failed")
	// ErrQueryFailed is returned when a query fails in the database.
	ErrQueryFailed = errors.New("database query failed")
	// ErrExecFailed is returned when a statement fails in the database.
	ErrExecFailed = errors.New("database statement failed")
	// ErrScanningRowFailed is returned when a result row cannot be scanned.
	ErrScanningRowFailed = errors.New("scanning database row failed")
	// ErrCredentialsMissing is returned when the credentials table has not been seeded.
	ErrCredentialsMissing = errors.New("administrator credentials missing, run EnsureSchema")
)

// Store is the PostgreSQL store.Store.
type Store struct {
	db               adapters.DBAdapter
	builder          goqu.DialectWrapper
	logger           lending.Logger
	metricsCollector lending.MetricsCollector
}

var _ store.Store = (*Store)(nil)

// Option defines a functional option for configuring Store.
type Option func(*Store) error

// WithLogger sets the logger for the Store.
//
// Debug level: SQL statements with execution timing
// Error level: failed statements.
func WithLogger(logger lending.Logger) Option {
	return func(s *Store) error {
		s.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Store.
func WithMetrics(collector lending.MetricsCollector) Option {
	return func(s *Store) error {
		s.metricsCollector = collector
		return nil
	}
}

// NewFromPGXPool creates a Store using a pgx Pool.
func NewFromPGXPool(db *pgxpool.Pool, options ...Option) (*Store, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newStore(adapters.NewPGXAdapter(db), options)
}

// NewFromSQLDB creates a Store using a sql.DB.
func NewFromSQLDB(db *sql.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLAdapter(db), options)
}

// NewFromSQLX creates a Store using a sqlx.DB.
func NewFromSQLX(db *sqlx.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLXAdapter(db), options)
}

func newStore(db adapters.DBAdapter, options []Option) (*Store, error) {
	s := &Store{
		db:      db,
		builder: goqu.Dialect(dialectPostgres),
	}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// ListBooks implements store.Store.
func (s *Store) ListBooks(ctx context.Context) ([]lending.Book, error) {
	sqlQuery, _, err := s.builder.
		From(tableBooks).
		Select(colID, colTitle, colAuthor, colAvailable).
		Order(goqu.I(colSeq).Desc()).
		ToSQL()
	if err != nil {
		return nil, errors.Join(ErrBuildingQueryFailed, err)
	}

	rows, err := s.query(ctx, opListBooks, sqlQuery)
	if err != nil {
		return nil, err
	}
	defer s.closeRows(rows)

	books := make([]lending.Book, 0)

	for rows.Next() {
		var book lending.Book
		if err = rows.Scan(&book.ID, &book.Title, &book.Author, &book.Available); err != nil {
			return nil, errors.Join(ErrScanningRowFailed, err)
		}

		books = append(books, book)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}

	return books, nil
}

// ListLoans implements store.Store.
func (s *Store) ListLoans(ctx context.Context) ([]lending.Loan, error) {
	sqlQuery, _, err := s.builder.
		From(tableLoans).
		Select(colBookID, colName, colBookTitle, colDateIssued, colDueDate).
		Order(goqu.I(colSeq).Desc()).
		ToSQL()
	if err != nil {
		return nil, errors.Join(ErrBuildingQueryFailed, err)
	}

	rows, err := s.query(ctx, opListLoans, sqlQuery)
	if err != nil {
		return nil, err
	}
	defer s.closeRows(rows)

	return scanLoans(rows)
}

// AddBook implements store.Store.
func (s *Store) AddBook(ctx context.Context, book lending.Book) error {
	sqlQuery, _, err := s.builder.
		Insert(tableBooks).
		Rows(goqu.Record{
			colID:        book.ID,
			colTitle:     book.Title,
			colAuthor:    book.Author,
			colAvailable: true,
		}).
		OnConflict(goqu.DoNothing()).
		ToSQL()
	if err != nil {
		return errors.Join(ErrBuildingQueryFailed, err)
	}

	rowsAffected, err := s.exec(ctx, opAddBook, sqlQuery)
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w: %d", lending.ErrDuplicateBookID, book.ID)
	}

	return nil
}

// IssueBook implements store.Store.
func (s *Store) IssueBook(
	ctx context.Context,
	bookID lending.BookIDInt,
	borrowerName string,
	loanDays int,
	issuedOn time.Time,
) (lending.Loan, error) {

	loan := lending.BuildLoan(bookID, borrowerName, "", loanDays, issuedOn)

	sqlQuery, err := s.buildIssueQuery(loan)
	if err != nil {
		return lending.Loan{}, err
	}

	rows, err := s.query(ctx, opIssueBook, sqlQuery)
	if err != nil {
		return lending.Loan{}, err
	}
	defer s.closeRows(rows)

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return lending.Loan{}, errors.Join(ErrQueryFailed, err)
		}

		return lending.Loan{}, s.issueFailureCause(ctx, bookID)
	}

	if err = rows.Scan(&loan.BookTitle); err != nil {
		return lending.Loan{}, errors.Join(ErrScanningRowFailed, err)
	}

	return loan, nil
}

// buildIssueQuery flips the book to unavailable only if it is available and has no loan,
// and inserts the loan from the flipped row, in one statement.
func (s *Store) buildIssueQuery(loan lending.Loan) (string, error) {
	updateStmt := s.builder.
		Update(tableBooks).
		Set(goqu.Record{colAvailable: false}).
		Where(
			goqu.C(colID).Eq(loan.BookID),
			goqu.C(colAvailable).IsTrue(),
			goqu.C(colID).NotIn(s.builder.From(tableLoans).Select(colBookID)),
		).
		Returning(colID, colTitle)

	selectStmt := s.builder.
		From(cteIssued).
		Select(
			goqu.C(colID),
			goqu.V(loan.BorrowerName),
			goqu.C(colTitle),
			goqu.L(castDate, formatDate(loan.IssuedOn)),
			goqu.L(castDate, formatDate(loan.DueOn)),
		)

	insertStmt := s.builder.
		Insert(tableLoans).
		With(cteIssued, updateStmt).
		Cols(colBookID, colName, colBookTitle, colDateIssued, colDueDate).
		FromQuery(selectStmt).
		Returning(colBookTitle)

	sqlQuery, _, err := insertStmt.ToSQL()
	if err != nil {
		return "", errors.Join(ErrBuildingQueryFailed, err)
	}

	return sqlQuery, nil
}

// issueFailureCause tells an unknown book from an issued one after a conditional issue matched no row.
func (s *Store) issueFailureCause(ctx context.Context, bookID lending.BookIDInt) error {
	sqlQuery, _, err := s.builder.
		From(tableBooks).
		Select(colID).
		Where(goqu.C(colID).Eq(bookID)).
		ToSQL()
	if err != nil {
		return errors.Join(ErrBuildingQueryFailed, err)
	}

	rows, err := s.query(ctx, opIssueBook, sqlQuery)
	if err != nil {
		return err
	}
	defer s.closeRows(rows)

	if rows.Next() {
		return fmt.Errorf("%w: book id %d", lending.ErrAlreadyIssued, bookID)
	}

	if err = rows.Err(); err != nil {
		return errors.Join(ErrQueryFailed, err)
	}

	return fmt.Errorf("%w: book id %d", lending.ErrNotFound, bookID)
}

// ReturnBook implements store.Store.
func (s *Store) ReturnBook(ctx context.Context, bookID lending.BookIDInt) (lending.Loan, error) {
	deleteStmt := s.builder.
		Delete(tableLoans).
		Where(goqu.C(colBookID).Eq(bookID)).
		Returning(colBookID, colName, colBookTitle, colDateIssued, colDueDate)

	freeStmt := s.builder.
		Update(tableBooks).
		Set(goqu.Record{colAvailable: true}).
		Where(goqu.C(colID).In(s.builder.From(cteReturned).Select(colBookID)))

	sqlQuery, _, err := s.builder.
		From(cteReturned).
		With(cteReturned, deleteStmt).
		With(cteFreed, freeStmt).
		Select(colBookID, colName, colBookTitle, colDateIssued, colDueDate).
		ToSQL()
	if err != nil {
		return lending.Loan{}, errors.Join(ErrBuildingQueryFailed, err)
	}

	rows, err := s.query(ctx, opReturnBook, sqlQuery)
	if err != nil {
		return lending.Loan{}, err
	}
	defer s.closeRows(rows)

	loans, err := scanLoans(rows)
	if err != nil {
		return lending.Loan{}, err
	}

	if len(loans) == 0 {
		return lending.Loan{}, fmt.Errorf("%w: book id %d", lending.ErrNoSuchLoan, bookID)
	}

	return loans[0], nil
}

// DeleteBook implements store.Store. An open loan for the book is kept.
func (s *Store) DeleteBook(ctx context.Context, id lending.BookIDInt) error {
	sqlQuery, _, err := s.builder.
		Delete(tableBooks).
		Where(goqu.C(colID).Eq(id)).
		ToSQL()
	if err != nil {
		return errors.Join(ErrBuildingQueryFailed, err)
	}

	rowsAffected, err := s.exec(ctx, opDeleteBook, sqlQuery)
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w: book id %d", lending.ErrNotFound, id)
	}

	return nil
}

// LoadCredentials implements store.Store.
func (s *Store) LoadCredentials(ctx context.Context) (store.Credentials, error) {
	sqlQuery, _, err := s.builder.
		From(tableCredentials).
		Select(colUsername, colPasswordHash).
		Limit(1).
		ToSQL()
	if err != nil {
		return store.Credentials{}, errors.Join(ErrBuildingQueryFailed, err)
	}

	rows, err := s.query(ctx, opLoadCredentials, sqlQuery)
	if err != nil {
		return store.Credentials{}, err
	}
	defer s.closeRows(rows)

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return store.Credentials{}, errors.Join(ErrQueryFailed, err)
		}

		return store.Credentials{}, ErrCredentialsMissing
	}

	var username, hash string
	if err = rows.Scan(&username, &hash); err != nil {
		return store.Credentials{}, errors.Join(ErrScanningRowFailed, err)
	}

	return store.Credentials{Username: username, PasswordHash: []byte(hash)}, nil
}

// SwapCredentials implements store.Store.
func (s *Store) SwapCredentials(ctx context.Context, current store.Credentials, next store.Credentials) error {
	sqlQuery, _, err := s.builder.
		Update(tableCredentials).
		Set(goqu.Record{
			colUsername:     next.Username,
			colPasswordHash: string(next.PasswordHash),
		}).
		Where(
			goqu.C(colUsername).Eq(current.Username),
			goqu.C(colPasswordHash).Eq(string(current.PasswordHash)),
		).
		ToSQL()
	if err != nil {
		return errors.Join(ErrBuildingQueryFailed, err)
	}

	rowsAffected, err := s.exec(ctx, opSwapCredentials, sqlQuery)
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return store.ErrCredentialsChanged
	}

	return nil
}

func scanLoans(rows adapters.DBRows) ([]lending.Loan, error) {
	loans := make([]lending.Loan, 0)

	for rows.Next() {
		var loan lending.Loan
		if err := rows.Scan(&loan.BookID, &loan.BorrowerName, &loan.BookTitle, &loan.IssuedOn, &loan.DueOn); err != nil {
			return nil, errors.Join(ErrScanningRowFailed, err)
		}

		loan.IssuedOn = loan.IssuedOn.UTC()
		loan.DueOn = loan.DueOn.UTC()
		loans = append(loans, loan)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}

	return loans, nil
}

func formatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}
