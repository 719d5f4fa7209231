package lending

import (
	"context"
	"fmt"
)

// decideReturnBook implements the local precondition for returning a book.
//
// Business Rules:
//
//	GIVEN: A book with BookID
//	WHEN: ReturnBook is requested
//	THEN: the return is sent to the remote store
//	ERROR: ErrNoSuchLoan if no loan for the book is cached
func decideReturnBook(ledger *LoanLedger, bookID BookIDInt) error {
	if _, found := ledger.LoanFor(bookID); !found {
		return fmt.Errorf("%w: book id %d", ErrNoSuchLoan, bookID)
	}

	return nil
}

// ReturnBook closes the loan for bookID. After the remote store confirmed it, the loan is
// closed and the book flipped to available locally, then both caches are reloaded.
func (s *Service) ReturnBook(ctx context.Context, bookID BookIDInt) error {
	return s.observe(ctx, OperationReturnBook, func(ctx context.Context) error {
		s.mu.RLock()
		err := decideReturnBook(s.ledger, bookID)
		s.mu.RUnlock()

		if err != nil {
			return err
		}

		if err = s.gateway.ReturnBook(withIdempotencyKey(ctx), bookID); err != nil {
			return err
		}

		s.applyReturned(bookID)

		return s.refreshAfterWrite(ctx, true, true)
	})
}

func (s *Service) applyReturned(bookID BookIDInt) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.catalogRefreshes.invalidate()
	s.loanRefreshes.invalidate()

	_, _ = s.ledger.close(bookID)
	s.catalog.markAvailable(bookID)
}
