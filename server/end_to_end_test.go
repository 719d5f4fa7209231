package server_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/lending"
	"github.com/AntonStoeckl/library-circulation-go/lending/remote"
)

func newClientService(t *testing.T, opts ...lending.Option) *lending.Service {
	t.Helper()

	ts := httptest.NewServer(newTestServer(t).Handler())
	t.Cleanup(ts.Close)

	client, err := remote.NewClient(ts.URL + "/api")
	require.NoError(t, err)

	opts = append([]lending.Option{lending.WithClock(func() time.Time { return fixedNow })}, opts...)

	return lending.NewService(client, opts...)
}

func Test_EndToEnd_LendingLifecycle(t *testing.T) {
	// arrange
	ctx := context.Background()
	svc := newClientService(t)
	require.NoError(t, svc.Refresh(ctx))

	// act
	require.NoError(t, svc.AddBook(ctx, 1, "The Hobbit", "J.R.R. Tolkien"))
	require.NoError(t, svc.AddBook(ctx, 2, "Refactoring", "Martin Fowler"))
	require.NoError(t, svc.IssueBook(ctx, 1, "Ada", 7))

	// assert
	loan, ok := svc.LoanFor(1)
	require.True(t, ok)
	assert.Equal(t, "The Hobbit", loan.BookTitle)
	assert.Equal(t, "2024-02-01", remote.FormatWireDate(loan.DueOn))
	assert.Equal(t, lending.Stats{TotalBooks: 2, AvailableBooks: 1, IssuedBooks: 1, OverdueLoans: 0}, svc.Stats(fixedNow))
	assert.Equal(t, 1, svc.Stats(fixedNow.AddDate(0, 0, 8)).OverdueLoans)

	require.NoError(t, svc.ReturnBook(ctx, 1))
	_, ok = svc.LoanFor(1)
	assert.False(t, ok)
	book, _ := svc.FindBook(1)
	assert.True(t, book.Available)
}

func Test_EndToEnd_RemoteRejectionsSurface(t *testing.T) {
	// arrange
	ctx := context.Background()
	svc := newClientService(t)

	// act
	err := svc.ReturnBook(ctx, 1)
	loginErr := svc.Login(ctx, "admin", "wrong")

	// assert
	assert.ErrorIs(t, err, lending.ErrNoSuchLoan)
	require.Error(t, loginErr)
	assert.True(t, lending.IsRemoteError(loginErr))
	assert.Equal(t, "Invalid credentials", lending.RemoteMessage(loginErr))
}

func Test_EndToEnd_StaleCacheRejectedRemotely(t *testing.T) {
	// arrange
	ctx := context.Background()
	ts := httptest.NewServer(newTestServer(t).Handler())
	t.Cleanup(ts.Close)

	first, err := remote.NewClient(ts.URL + "/api")
	require.NoError(t, err)
	second, err := remote.NewClient(ts.URL + "/api")
	require.NoError(t, err)

	alice := lending.NewService(first)
	bob := lending.NewService(second)
	require.NoError(t, alice.AddBook(ctx, 1, "The Hobbit", "J.R.R. Tolkien"))
	require.NoError(t, bob.Refresh(ctx))
	require.NoError(t, alice.IssueBook(ctx, 1, "Ada", 7))

	// act
	err = bob.IssueBook(ctx, 1, "Grace", 7)

	// assert
	require.Error(t, err)
	assert.True(t, lending.IsRemoteError(err))
	assert.Equal(t, "Book already issued", lending.RemoteMessage(err))
	_, ok := bob.LoanFor(1)
	assert.False(t, ok)

	require.NoError(t, bob.Refresh(ctx))
	loan, ok := bob.LoanFor(1)
	require.True(t, ok)
	assert.Equal(t, "Ada", loan.BorrowerName)
}

func Test_EndToEnd_ResetCredentials(t *testing.T) {
	// arrange
	ctx := context.Background()
	svc := newClientService(t)

	// act
	err := svc.ResetCredentials(ctx, "admin", "librarian", "s3cret", "s3cret")

	// assert
	require.NoError(t, err)
	assert.NoError(t, svc.Login(ctx, "librarian", "s3cret"))
}
