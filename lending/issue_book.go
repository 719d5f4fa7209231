package lending

import (
	"context"
	"fmt"
	"strings"
)

type issueBookCommand struct {
	bookID       BookIDInt
	borrowerName string
	loanDays     int
}

func buildIssueBookCommand(bookID BookIDInt, borrowerName string, loanDays int) issueBookCommand {
	return issueBookCommand{
		bookID:       bookID,
		borrowerName: strings.TrimSpace(borrowerName),
		loanDays:     NormalizeLoanDays(loanDays),
	}
}

// decideIssueBook implements the local preconditions for issuing a book, checked in order.
//
// Business Rules:
//
//	GIVEN: A book with BookID and a borrower
//	WHEN: IssueBook is requested
//	THEN: the issue is sent to the remote store
//	ERROR: ErrNotFound if the book is not in the cached catalog
//	ERROR: ErrAlreadyIssued if the book is flagged issued or a loan for it is cached
//	ERROR: ErrValidation if the borrower name is empty
func decideIssueBook(catalog *Catalog, ledger *LoanLedger, command issueBookCommand) (Book, error) {
	book, found := catalog.FindByID(command.bookID)
	if !found {
		return Book{}, fmt.Errorf("%w: book id %d", ErrNotFound, command.bookID)
	}

	if !book.Available {
		return Book{}, fmt.Errorf("%w: book id %d", ErrAlreadyIssued, command.bookID)
	}

	if _, lent := ledger.LoanFor(command.bookID); lent {
		return Book{}, fmt.Errorf("%w: book id %d", ErrAlreadyIssued, command.bookID)
	}

	if command.borrowerName == "" {
		return Book{}, fmt.Errorf("%w: borrower name must not be empty", ErrValidation)
	}

	return book, nil
}

// IssueBook lends a book to a borrower for loanDays (DefaultLoanDays if not positive).
// Local state changes only after the remote store confirmed the issue, and both caches
// are reloaded right after.
func (s *Service) IssueBook(ctx context.Context, bookID BookIDInt, borrowerName string, loanDays int) error {
	return s.observe(ctx, OperationIssueBook, func(ctx context.Context) error {
		command := buildIssueBookCommand(bookID, borrowerName, loanDays)

		s.mu.RLock()
		book, err := decideIssueBook(s.catalog, s.ledger, command)
		s.mu.RUnlock()

		if err != nil {
			return err
		}

		err = s.gateway.Issue(withIdempotencyKey(ctx), command.bookID, command.borrowerName, command.loanDays)
		if err != nil {
			return err
		}

		s.applyIssued(command, book)

		return s.refreshAfterWrite(ctx, true, true)
	})
}

func (s *Service) applyIssued(command issueBookCommand, book Book) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.catalogRefreshes.invalidate()
	s.loanRefreshes.invalidate()

	// A concurrent refresh may already contain this loan; the flip below is idempotent then.
	_, _ = s.ledger.open(command.bookID, command.borrowerName, book.Title, command.loanDays, s.now())
	s.catalog.markIssued(command.bookID)
}
