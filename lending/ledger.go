package lending

import (
	"fmt"
	"time"
)

// LoanLedger is the locally cached set of active loans in remote order.
// At most one Loan per book id is held. It is not safe for concurrent use.
type LoanLedger struct {
	loans []Loan
}

// NewLoanLedger creates a LoanLedger holding copies of the given loans.
func NewLoanLedger(loans ...Loan) *LoanLedger {
	l := &LoanLedger{}
	l.replaceAll(loans)

	return l
}

// Active returns all loans with their overdue flag evaluated at now.
func (l *LoanLedger) Active(now time.Time) []LoanStatus {
	statuses := make([]LoanStatus, 0, len(l.loans))

	for _, loan := range l.loans {
		statuses = append(statuses, loan.StatusAt(now))
	}

	return statuses
}

// LoanFor returns the active loan for bookID.
func (l *LoanLedger) LoanFor(bookID BookIDInt) (Loan, bool) {
	if i := l.indexOf(bookID); i >= 0 {
		return l.loans[i], true
	}

	return Loan{}, false
}

// OverdueCount returns the number of loans due strictly before asOf.
func (l *LoanLedger) OverdueCount(asOf time.Time) int {
	count := 0

	for _, loan := range l.loans {
		if loan.DueOn.Before(asOf) {
			count++
		}
	}

	return count
}

// Len returns the number of active loans.
func (l *LoanLedger) Len() int {
	return len(l.loans)
}

func (l *LoanLedger) open(
	bookID BookIDInt,
	borrowerName string,
	bookTitle string,
	loanDays int,
	issuedOn time.Time,
) (Loan, error) {

	if _, found := l.LoanFor(bookID); found {
		return Loan{}, fmt.Errorf("%w: book id %d", ErrAlreadyIssued, bookID)
	}

	loan := BuildLoan(bookID, borrowerName, bookTitle, loanDays, issuedOn)
	l.loans = append(l.loans, loan)

	return loan, nil
}

func (l *LoanLedger) close(bookID BookIDInt) (Loan, error) {
	i := l.indexOf(bookID)
	if i < 0 {
		return Loan{}, fmt.Errorf("%w: book id %d", ErrNoSuchLoan, bookID)
	}

	loan := l.loans[i]
	l.loans = append(l.loans[:i], l.loans[i+1:]...)

	return loan, nil
}

// replaceAll keeps the first loan per book id if the remote store sends duplicates.
func (l *LoanLedger) replaceAll(loans []Loan) {
	l.loans = make([]Loan, 0, len(loans))

	for _, loan := range loans {
		if _, found := l.LoanFor(loan.BookID); found {
			continue
		}

		l.loans = append(l.loans, loan)
	}
}

func (l *LoanLedger) indexOf(bookID BookIDInt) int {
	for i, loan := range l.loans {
		if loan.BookID == bookID {
			return i
		}
	}

	return -1
}
