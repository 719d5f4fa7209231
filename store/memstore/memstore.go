// Package memstore is an in-memory store.Store. All writes are serialized by one mutex,
// which makes every precondition check and its write atomic.
package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/AntonStoeckl/library-circulation-go/lending"
	"github.com/AntonStoeckl/library-circulation-go/store"
)

// Store is the in-memory store.Store.
type Store struct {
	mu          sync.RWMutex
	books       []lending.Book // newest first
	loans       []lending.Loan // newest first
	credentials store.Credentials
}

// New creates an empty Store with the given administrator credentials.
func New(credentials store.Credentials) *Store {
	return &Store{credentials: credentials}
}

// ListBooks implements store.Store.
func (s *Store) ListBooks(_ context.Context) ([]lending.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]lending.Book(nil), s.books...), nil
}

// ListLoans implements store.Store.
func (s *Store) ListLoans(_ context.Context) ([]lending.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]lending.Loan(nil), s.loans...), nil
}

// AddBook implements store.Store.
func (s *Store) AddBook(_ context.Context, book lending.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bookIndex(book.ID) >= 0 {
		return fmt.Errorf("%w: %d", lending.ErrDuplicateBookID, book.ID)
	}

	book.Available = true
	s.books = append([]lending.Book{book}, s.books...)

	return nil
}

// IssueBook implements store.Store.
func (s *Store) IssueBook(
	_ context.Context,
	bookID lending.BookIDInt,
	borrowerName string,
	loanDays int,
	issuedOn time.Time,
) (lending.Loan, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.bookIndex(bookID)
	if i < 0 {
		return lending.Loan{}, fmt.Errorf("%w: book id %d", lending.ErrNotFound, bookID)
	}

	if !s.books[i].Available || s.loanIndex(bookID) >= 0 {
		return lending.Loan{}, fmt.Errorf("%w: book id %d", lending.ErrAlreadyIssued, bookID)
	}

	loan := lending.BuildLoan(bookID, borrowerName, s.books[i].Title, loanDays, issuedOn)
	s.books[i].Available = false
	s.loans = append([]lending.Loan{loan}, s.loans...)

	return loan, nil
}

// ReturnBook implements store.Store.
func (s *Store) ReturnBook(_ context.Context, bookID lending.BookIDInt) (lending.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j := s.loanIndex(bookID)
	if j < 0 {
		return lending.Loan{}, fmt.Errorf("%w: book id %d", lending.ErrNoSuchLoan, bookID)
	}

	loan := s.loans[j]
	s.loans = append(s.loans[:j], s.loans[j+1:]...)

	if i := s.bookIndex(bookID); i >= 0 {
		s.books[i].Available = true
	}

	return loan, nil
}

// DeleteBook implements store.Store.
func (s *Store) DeleteBook(_ context.Context, id lending.BookIDInt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.bookIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: book id %d", lending.ErrNotFound, id)
	}

	s.books = append(s.books[:i], s.books[i+1:]...)

	return nil
}

// LoadCredentials implements store.Store.
func (s *Store) LoadCredentials(_ context.Context) (store.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.credentials, nil
}

// SwapCredentials implements store.Store.
func (s *Store) SwapCredentials(_ context.Context, current store.Credentials, next store.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.credentials.Equal(current) {
		return store.ErrCredentialsChanged
	}

	s.credentials = next

	return nil
}

func (s *Store) bookIndex(id lending.BookIDInt) int {
	for i, book := range s.books {
		if book.ID == id {
			return i
		}
	}

	return -1
}

func (s *Store) loanIndex(bookID lending.BookIDInt) int {
	for i, loan := range s.loans {
		if loan.BookID == bookID {
			return i
		}
	}

	return -1
}
