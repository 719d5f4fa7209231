package lending

import (
	"context"
	"fmt"
)

// decideDeleteBook implements the local precondition for deleting a book.
//
// Business Rules:
//
//	GIVEN: A book with ID
//	WHEN: DeleteBook is requested
//	THEN: the delete is sent to the remote store
//	ERROR: ErrAlreadyIssued if the policy is DeleteRequireReturned and the book is issued
//
// With DeleteForce nothing is checked locally, not even existence; the remote store decides.
func decideDeleteBook(catalog *Catalog, ledger *LoanLedger, policy DeletePolicy, id BookIDInt) error {
	if policy != DeleteRequireReturned {
		return nil
	}

	book, found := catalog.FindByID(id)
	if found && !book.Available {
		return fmt.Errorf("%w: book id %d must be returned before it is deleted", ErrAlreadyIssued, id)
	}

	if _, lent := ledger.LoanFor(id); lent {
		return fmt.Errorf("%w: book id %d must be returned before it is deleted", ErrAlreadyIssued, id)
	}

	return nil
}

// DeleteBook removes a book from the remote store and then reloads the Catalog.
func (s *Service) DeleteBook(ctx context.Context, id BookIDInt) error {
	return s.observe(ctx, OperationDeleteBook, func(ctx context.Context) error {
		s.mu.RLock()
		err := decideDeleteBook(s.catalog, s.ledger, s.deletePolicy, id)
		s.mu.RUnlock()

		if err != nil {
			return err
		}

		if err = s.gateway.DeleteBook(withIdempotencyKey(ctx), id); err != nil {
			return err
		}

		return s.refreshAfterWrite(ctx, true, false)
	})
}
