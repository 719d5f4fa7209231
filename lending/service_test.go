package lending_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/internal/testutil/spies"
	"github.com/AntonStoeckl/library-circulation-go/lending"
)

var fakeNow = time.Date(2024, time.June, 10, 9, 30, 0, 0, time.UTC)

func setupService(t *testing.T, opts ...lending.Option) (*lending.Service, *fakeGateway) {
	t.Helper()

	gateway := newFakeGateway(
		fakeNow,
		lending.NewBook(1, "The Hobbit", "J.R.R. Tolkien"),
		lending.NewBook(2, "Refactoring", "Martin Fowler"),
	)

	opts = append([]lending.Option{lending.WithClock(func() time.Time { return fakeNow })}, opts...)
	svc := lending.NewService(gateway, opts...)
	require.NoError(t, svc.Refresh(context.Background()))

	return svc, gateway
}

func assertConsistent(t *testing.T, svc *lending.Service) {
	t.Helper()

	for _, book := range svc.Books() {
		_, lent := svc.LoanFor(book.ID)
		assert.Equal(t, !lent, book.Available, "book %d available flag must match loan presence", book.ID)
	}
}

func Test_Service_IssueBook_Success(t *testing.T) {
	// arrange
	svc, gateway := setupService(t)

	// act
	err := svc.IssueBook(context.Background(), 1, "Ada Lovelace", 0)

	// assert
	require.NoError(t, err)

	book, found := svc.FindBook(1)
	assert.True(t, found)
	assert.False(t, book.Available)

	loan, found := svc.LoanFor(1)
	assert.True(t, found)
	assert.Equal(t, "Ada Lovelace", loan.BorrowerName)
	assert.Equal(t, "The Hobbit", loan.BookTitle)
	assert.Equal(t, fakeNow.AddDate(0, 0, lending.DefaultLoanDays), loan.DueOn)

	assert.Equal(t, 1, gateway.callCount("issue"))
	assert.Len(t, gateway.keys, 1, "write carries an idempotency key")
	assertConsistent(t, svc)
}

func Test_Service_IssueBook_AlreadyIssued_NeverCallsRemote(t *testing.T) {
	// arrange
	svc, gateway := setupService(t)
	require.NoError(t, svc.IssueBook(context.Background(), 1, "Ada", 7))

	// act
	err := svc.IssueBook(context.Background(), 1, "Grace", 7)

	// assert
	assert.ErrorIs(t, err, lending.ErrAlreadyIssued)
	assert.Equal(t, 1, gateway.callCount("issue"))

	loan, _ := svc.LoanFor(1)
	assert.Equal(t, "Ada", loan.BorrowerName)
}

func Test_Service_IssueBook_NotFound(t *testing.T) {
	svc, gateway := setupService(t)

	err := svc.IssueBook(context.Background(), 99, "Ada", 7)

	assert.ErrorIs(t, err, lending.ErrNotFound)
	assert.Equal(t, 0, gateway.callCount("issue"))
}

func Test_Service_IssueBook_RemoteFailure_LeavesStateUnchanged(t *testing.T) {
	// arrange
	svc, gateway := setupService(t)
	gateway.failWith("issue", &lending.RemoteError{Op: "issue", Err: errors.New("connection refused")})

	// act
	err := svc.IssueBook(context.Background(), 1, "Ada", 7)

	// assert
	assert.True(t, lending.IsRemoteError(err))

	book, _ := svc.FindBook(1)
	assert.True(t, book.Available)

	_, found := svc.LoanFor(1)
	assert.False(t, found)
	assert.Equal(t, 1, gateway.callCount("catalog"), "no refresh after a failed write")
}

func Test_Service_ReturnBook_Success(t *testing.T) {
	svc, _ := setupService(t)
	require.NoError(t, svc.IssueBook(context.Background(), 2, "Ada", 7))

	err := svc.ReturnBook(context.Background(), 2)

	require.NoError(t, err)
	book, _ := svc.FindBook(2)
	assert.True(t, book.Available)
	assert.Empty(t, svc.ActiveLoans())
	assertConsistent(t, svc)
}

func Test_Service_ReturnBook_NoSuchLoan_LeavesStateUnchanged(t *testing.T) {
	svc, gateway := setupService(t)
	before := svc.Books()

	err := svc.ReturnBook(context.Background(), 1)

	assert.ErrorIs(t, err, lending.ErrNoSuchLoan)
	assert.Equal(t, before, svc.Books())
	assert.Equal(t, 0, gateway.callCount("return"))
}

func Test_Service_IssueThenReturn_RestoresInitialState(t *testing.T) {
	svc, _ := setupService(t)
	before := svc.Books()

	require.NoError(t, svc.IssueBook(context.Background(), 1, "Ada", 3))
	require.NoError(t, svc.ReturnBook(context.Background(), 1))

	assert.Equal(t, before, svc.Books())
	assert.Empty(t, svc.ActiveLoans())
}

func Test_Service_AddBook(t *testing.T) {
	svc, gateway := setupService(t)

	require.NoError(t, svc.AddBook(context.Background(), 3, " Dune ", "Frank Herbert"))

	book, found := svc.FindBook(3)
	assert.True(t, found)
	assert.Equal(t, "Dune", book.Title)
	assert.True(t, book.Available)
	assert.Equal(t, 3, svc.Stats(fakeNow).TotalBooks)

	err := svc.AddBook(context.Background(), 3, "Dune", "Frank Herbert")
	assert.ErrorIs(t, err, lending.ErrDuplicateBookID)
	assert.Equal(t, 1, gateway.callCount("create"))

	err = svc.AddBook(context.Background(), 0, "Dune", "Frank Herbert")
	assert.ErrorIs(t, err, lending.ErrValidation)
}

func Test_Service_DeleteBook_ForceLeavesLoanUntilRefresh(t *testing.T) {
	svc, _ := setupService(t)
	require.NoError(t, svc.IssueBook(context.Background(), 1, "Ada", 7))

	require.NoError(t, svc.DeleteBook(context.Background(), 1))

	_, found := svc.FindBook(1)
	assert.False(t, found)
	assert.Len(t, svc.ActiveLoans(), 1, "loan stays until the remote store drops it")
}

func Test_Service_DeleteBook_RequireReturned(t *testing.T) {
	svc, gateway := setupService(t, lending.WithDeletePolicy(lending.DeleteRequireReturned))
	require.NoError(t, svc.IssueBook(context.Background(), 1, "Ada", 7))

	err := svc.DeleteBook(context.Background(), 1)
	assert.ErrorIs(t, err, lending.ErrAlreadyIssued)
	assert.Equal(t, 0, gateway.callCount("delete"))

	require.NoError(t, svc.DeleteBook(context.Background(), 2))
	_, found := svc.FindBook(2)
	assert.False(t, found)
}

func Test_Service_DeleteBook_RemoteNotFound(t *testing.T) {
	svc, _ := setupService(t)

	err := svc.DeleteBook(context.Background(), 99)

	assert.True(t, lending.IsRemoteError(err))
	assert.Equal(t, "Book not found", lending.RemoteMessage(err))
}

func Test_Service_RefreshFailureAfterWrite_IsReported(t *testing.T) {
	svc, gateway := setupService(t)
	gateway.failWith("loans", &lending.RemoteError{Op: "loans", StatusCode: http.StatusInternalServerError})

	err := svc.IssueBook(context.Background(), 1, "Ada", 7)

	assert.ErrorIs(t, err, lending.ErrRefreshFailed)
	assert.Equal(t, lending.StatusRefreshFailed, lending.ClassifyStatus(err))

	_, found := svc.LoanFor(1)
	assert.True(t, found, "the confirmed write is applied locally")
}

func Test_Service_StaleRefresh_IsDiscarded(t *testing.T) {
	// arrange
	logger, logSpy := spies.NewLogger()
	svc, gateway := setupService(t, lending.WithLogger(logger))

	entered, release := gateway.holdNextCatalogRefresh()
	done := make(chan error, 1)

	go func() {
		done <- svc.RefreshCatalog(context.Background())
	}()
	<-entered

	// act
	require.NoError(t, svc.IssueBook(context.Background(), 1, "Ada", 7))
	release()
	require.NoError(t, <-done)

	// assert
	book, _ := svc.FindBook(1)
	assert.False(t, book.Available, "snapshot taken before the issue must not resurrect availability")
	assert.True(t, logSpy.HasLog(slog.LevelDebug, lending.LogMsgStaleRefreshDiscarded).
		WithAttr(lending.LogAttrOperation, lending.OperationRefreshCatalog).Assert())
	assertConsistent(t, svc)
}

func Test_Service_Stats(t *testing.T) {
	svc, _ := setupService(t)
	require.NoError(t, svc.IssueBook(context.Background(), 1, "Ada", 7))

	stats := svc.Stats(fakeNow.AddDate(0, 0, 8))

	assert.Equal(t, lending.Stats{TotalBooks: 2, AvailableBooks: 1, IssuedBooks: 1, OverdueLoans: 1}, stats)
	assert.Equal(t, 0, svc.Stats(fakeNow).OverdueLoans)
}

func Test_Service_Search(t *testing.T) {
	svc, gateway := setupService(t)

	books := svc.Search("fowler")

	require.Len(t, books, 1)
	assert.Equal(t, 2, books[0].ID)
	assert.Equal(t, 1, gateway.callCount("catalog"), "search never contacts the remote store")
}

func Test_Service_ResetCredentials(t *testing.T) {
	svc, gateway := setupService(t)

	err := svc.ResetCredentials(context.Background(), "admin", "root", "secret", "other")
	assert.ErrorIs(t, err, lending.ErrValidation)
	assert.ErrorIs(t, err, lending.ErrPasswordMismatch)
	assert.Equal(t, 0, gateway.callCount("reset"))

	err = svc.ResetCredentials(context.Background(), "wrong", "root", "secret", "secret")
	assert.Equal(t, "Invalid old password", lending.RemoteMessage(err))

	assert.NoError(t, svc.ResetCredentials(context.Background(), "admin", "root", "secret", "secret"))
}

func Test_Service_Login(t *testing.T) {
	svc, _ := setupService(t)

	assert.NoError(t, svc.Login(context.Background(), "admin", "admin"))
	assert.Equal(t, "Invalid credentials", lending.RemoteMessage(svc.Login(context.Background(), "admin", "nope")))
	assert.ErrorIs(t, svc.Login(context.Background(), "", ""), lending.ErrValidation)
}

func Test_Service_Observability(t *testing.T) {
	// arrange
	metrics := spies.NewMetricsCollectorSpy()
	tracing := spies.NewTracingCollectorSpy()
	logger, logSpy := spies.NewLogger()
	svc, _ := setupService(t,
		lending.WithMetrics(metrics),
		lending.WithTracing(tracing),
		lending.WithContextualLogger(logger),
	)
	logSpy.Reset()

	// act
	require.NoError(t, svc.IssueBook(context.Background(), 1, "Ada", 7))
	_ = svc.IssueBook(context.Background(), 1, "Ada", 7)

	// assert
	assert.True(t, metrics.HasDurationRecordForMetric(lending.OperationDurationMetric).
		WithOperation(lending.OperationIssueBook).WithStatus(lending.StatusSuccess).Assert())
	assert.True(t, metrics.HasCounterRecordForMetric(lending.OperationCallsMetric).
		WithOperation(lending.OperationIssueBook).WithStatus(lending.StatusPreconditionFailed).Assert())
	assert.True(t, tracing.HasFinishedSpan(lending.SpanNameOperation, lending.StatusSuccess,
		lending.LogAttrOperation, lending.OperationIssueBook))
	assert.True(t, logSpy.HasLog(slog.LevelInfo, lending.LogMsgOperationCompleted).
		WithAttr(lending.LogAttrOperation, lending.OperationIssueBook).WithDurationMS().Assert())
	assert.True(t, logSpy.HasLog(slog.LevelWarn, lending.LogMsgOperationRejected).
		WithAttr(lending.LogAttrStatus, lending.StatusPreconditionFailed).Assert())
}

func Test_ClassifyStatus(t *testing.T) {
	assert.Equal(t, lending.StatusSuccess, lending.ClassifyStatus(nil))
	assert.Equal(t, lending.StatusCanceled, lending.ClassifyStatus(
		&lending.RemoteError{Op: "issue", Err: context.Canceled}))
	assert.Equal(t, lending.StatusTimeout, lending.ClassifyStatus(context.DeadlineExceeded))
	assert.Equal(t, lending.StatusPreconditionFailed, lending.ClassifyStatus(lending.ErrNoSuchLoan))
	assert.Equal(t, lending.StatusRemoteError, lending.ClassifyStatus(
		&lending.RemoteError{Op: "issue", StatusCode: http.StatusConflict}))
	assert.Equal(t, lending.StatusError, lending.ClassifyStatus(errors.New("boom")))
}
