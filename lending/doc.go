// Package lending implements the lending lifecycle engine of the library circulation tracker.
//
// It owns the locally cached Catalog (books and their availability) and the LoanLedger
// (active loans and their derived overdue status), and keeps both consistent with the
// authoritative remote store through a Gateway.
//
// The Service is the only mutator of the caches. Every write is checked locally first
// (NotFound, AlreadyIssued, NoSuchLoan, Validation), then confirmed by the remote store,
// and only then applied locally, followed by a full refresh from the remote store:
//
//	svc := lending.NewService(gateway, lending.WithLogger(logger))
//	if err := svc.Refresh(ctx); err != nil {
//		// remote store unreachable, caches stay empty
//	}
//
//	if err := svc.IssueBook(ctx, 7, "Ada Lovelace", 0); err != nil {
//		switch {
//		case errors.Is(err, lending.ErrNotFound):
//		case errors.Is(err, lending.ErrAlreadyIssued):
//		case lending.IsRemoteError(err):
//		}
//	}
//
// Read accessors (Search, Books, ActiveLoans, Stats) return copies, so presentation code
// never holds a reference into the caches.
package lending
