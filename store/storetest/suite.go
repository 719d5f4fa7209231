// Package storetest provides the behavior suite every store.Store implementation must pass.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/AntonStoeckl/library-circulation-go/lending"
	"github.com/AntonStoeckl/library-circulation-go/store"
)

// Factory returns an empty store whose credentials are admin/admin.
type Factory func(t *testing.T) store.Store

var issuedOn = time.Date(2024, time.January, 25, 0, 0, 0, 0, time.UTC)

// Run executes the suite against stores created by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("AddBook_ListsNewestFirst", func(t *testing.T) { testAddBookListsNewestFirst(t, newStore(t)) })
	t.Run("AddBook_RejectsDuplicateID", func(t *testing.T) { testAddBookRejectsDuplicateID(t, newStore(t)) })
	t.Run("IssueBook_CreatesLoan", func(t *testing.T) { testIssueBookCreatesLoan(t, newStore(t)) })
	t.Run("IssueBook_Errors", func(t *testing.T) { testIssueBookErrors(t, newStore(t)) })
	t.Run("IssueBook_ConcurrentIssuesLendOnce", func(t *testing.T) { testConcurrentIssuesLendOnce(t, newStore(t)) })
	t.Run("ReturnBook", func(t *testing.T) { testReturnBook(t, newStore(t)) })
	t.Run("DeleteBook_KeepsLoan", func(t *testing.T) { testDeleteBookKeepsLoan(t, newStore(t)) })
	t.Run("Credentials", func(t *testing.T) { testCredentials(t, newStore(t)) })
}

func addBooks(t *testing.T, s store.Store, books ...lending.Book) {
	t.Helper()

	for _, book := range books {
		require.NoError(t, s.AddBook(context.Background(), book))
	}
}

func testAddBookListsNewestFirst(t *testing.T, s store.Store) {
	addBooks(t, s, lending.NewBook(1, "The Hobbit", "J.R.R. Tolkien"), lending.NewBook(2, "Refactoring", "Martin Fowler"))

	books, err := s.ListBooks(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []lending.Book{
		lending.NewBook(2, "Refactoring", "Martin Fowler"),
		lending.NewBook(1, "The Hobbit", "J.R.R. Tolkien"),
	}, books)
}

func testAddBookRejectsDuplicateID(t *testing.T, s store.Store) {
	addBooks(t, s, lending.NewBook(1, "The Hobbit", "J.R.R. Tolkien"))

	err := s.AddBook(context.Background(), lending.NewBook(1, "Dune", "Frank Herbert"))

	assert.ErrorIs(t, err, lending.ErrDuplicateBookID)

	books, err := s.ListBooks(context.Background())
	require.NoError(t, err)
	assert.Len(t, books, 1)
	assert.Equal(t, "The Hobbit", books[0].Title)
}

func testIssueBookCreatesLoan(t *testing.T, s store.Store) {
	addBooks(t, s, lending.NewBook(1, "The Hobbit", "J.R.R. Tolkien"))

	loan, err := s.IssueBook(context.Background(), 1, "Ada", 14, issuedOn)

	require.NoError(t, err)
	assert.Equal(t, lending.BuildLoan(1, "Ada", "The Hobbit", 14, issuedOn), loan)

	loans, err := s.ListLoans(context.Background())
	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.True(t, loans[0].DueOn.Equal(issuedOn.AddDate(0, 0, 14)))
	assert.Equal(t, "The Hobbit", loans[0].BookTitle)

	books, err := s.ListBooks(context.Background())
	require.NoError(t, err)
	assert.False(t, books[0].Available)
}

func testIssueBookErrors(t *testing.T, s store.Store) {
	addBooks(t, s, lending.NewBook(1, "The Hobbit", "J.R.R. Tolkien"))

	_, err := s.IssueBook(context.Background(), 99, "Ada", 14, issuedOn)
	assert.ErrorIs(t, err, lending.ErrNotFound)

	_, err = s.IssueBook(context.Background(), 1, "Ada", 14, issuedOn)
	require.NoError(t, err)

	_, err = s.IssueBook(context.Background(), 1, "Grace", 14, issuedOn)
	assert.ErrorIs(t, err, lending.ErrAlreadyIssued)

	loans, err := s.ListLoans(context.Background())
	require.NoError(t, err)
	assert.Len(t, loans, 1)
}

func testConcurrentIssuesLendOnce(t *testing.T, s store.Store) {
	addBooks(t, s, lending.NewBook(1, "The Hobbit", "J.R.R. Tolkien"))

	const borrowers = 8

	var wg sync.WaitGroup
	results := make(chan error, borrowers)

	for i := 0; i < borrowers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := s.IssueBook(context.Background(), 1, "Borrower", 14, issuedOn)
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}

		assert.ErrorIs(t, err, lending.ErrAlreadyIssued)
	}

	assert.Equal(t, 1, succeeded)
}

func testReturnBook(t *testing.T, s store.Store) {
	addBooks(t, s, lending.NewBook(1, "The Hobbit", "J.R.R. Tolkien"))

	_, err := s.ReturnBook(context.Background(), 1)
	assert.ErrorIs(t, err, lending.ErrNoSuchLoan)

	_, err = s.IssueBook(context.Background(), 1, "Ada", 7, issuedOn)
	require.NoError(t, err)

	loan, err := s.ReturnBook(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Ada", loan.BorrowerName)

	loans, err := s.ListLoans(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loans)

	books, err := s.ListBooks(context.Background())
	require.NoError(t, err)
	assert.True(t, books[0].Available)
}

func testDeleteBookKeepsLoan(t *testing.T, s store.Store) {
	addBooks(t, s, lending.NewBook(1, "The Hobbit", "J.R.R. Tolkien"))

	assert.ErrorIs(t, s.DeleteBook(context.Background(), 99), lending.ErrNotFound)

	_, err := s.IssueBook(context.Background(), 1, "Ada", 7, issuedOn)
	require.NoError(t, err)

	require.NoError(t, s.DeleteBook(context.Background(), 1))

	books, err := s.ListBooks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, books)

	loans, err := s.ListLoans(context.Background())
	require.NoError(t, err)
	assert.Len(t, loans, 1)
}

func testCredentials(t *testing.T, s store.Store) {
	current, err := s.LoadCredentials(context.Background())
	require.NoError(t, err)
	assert.NoError(t, current.Authenticate(store.DefaultAdminUsername, store.DefaultAdminPassword))

	next, err := store.NewCredentialsWithCost("root", "secret", bcrypt.MinCost)
	require.NoError(t, err)

	require.NoError(t, s.SwapCredentials(context.Background(), current, next))

	err = s.SwapCredentials(context.Background(), current, next)
	assert.ErrorIs(t, err, store.ErrCredentialsChanged)

	loaded, err := s.LoadCredentials(context.Background())
	require.NoError(t, err)
	assert.NoError(t, loaded.Authenticate("root", "secret"))
}
