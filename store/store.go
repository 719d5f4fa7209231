// Package store defines the authoritative remote store behind the HTTP API.
//
// Implementations re-check every precondition the client checked against its cache,
// with conditional writes, so concurrent clients cannot break the book/loan invariants:
//
//   - AddBook fails with lending.ErrDuplicateBookID for a taken id
//   - IssueBook fails with lending.ErrNotFound or lending.ErrAlreadyIssued
//   - ReturnBook fails with lending.ErrNoSuchLoan
//   - DeleteBook fails with lending.ErrNotFound; an open loan for the book is kept
//
// Listings are newest first.
package store

import (
	"context"
	"time"

	"github.com/AntonStoeckl/library-circulation-go/lending"
)

// Store is the authoritative state of books, loans, and administrator credentials.
type Store interface {
	ListBooks(ctx context.Context) ([]lending.Book, error)
	ListLoans(ctx context.Context) ([]lending.Loan, error)
	AddBook(ctx context.Context, book lending.Book) error
	IssueBook(ctx context.Context, bookID lending.BookIDInt, borrowerName string, loanDays int, issuedOn time.Time) (lending.Loan, error)
	ReturnBook(ctx context.Context, bookID lending.BookIDInt) (lending.Loan, error)
	DeleteBook(ctx context.Context, id lending.BookIDInt) error

	// LoadCredentials returns the current administrator credentials.
	LoadCredentials(ctx context.Context) (Credentials, error)

	// SwapCredentials replaces current with next if current is still stored,
	// otherwise it fails with ErrCredentialsChanged.
	SwapCredentials(ctx context.Context, current Credentials, next Credentials) error
}
