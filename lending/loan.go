package lending

import (
	"strconv"
	"strings"
	"time"
)

// DefaultLoanDays is used when no positive loan period is supplied.
const DefaultLoanDays = 14

// Loan is an open borrowing record linking a book to a borrower.
// BookTitle is a copy of the title at issue time and is not re-synced.
type Loan struct {
	BookID       BookIDInt
	BorrowerName string
	BookTitle    string
	IssuedOn     time.Time
	DueOn        time.Time
}

// LoanStatus is a Loan together with its overdue flag, evaluated when it was read.
type LoanStatus struct {
	Loan
	Overdue bool
}

// BuildLoan creates a Loan due loanDays after issuedOn.
// loanDays is normalized with NormalizeLoanDays, so DueOn is never before IssuedOn.
func BuildLoan(bookID BookIDInt, borrowerName string, bookTitle string, loanDays int, issuedOn time.Time) Loan {
	return Loan{
		BookID:       bookID,
		BorrowerName: borrowerName,
		BookTitle:    bookTitle,
		IssuedOn:     issuedOn,
		DueOn:        issuedOn.AddDate(0, 0, NormalizeLoanDays(loanDays)),
	}
}

// IsOverdue reports whether now is strictly after the due date.
func (l Loan) IsOverdue(now time.Time) bool {
	return now.After(l.DueOn)
}

// StatusAt returns the LoanStatus evaluated at now.
func (l Loan) StatusAt(now time.Time) LoanStatus {
	return LoanStatus{Loan: l, Overdue: l.IsOverdue(now)}
}

// NormalizeLoanDays coerces a loan period to a positive number of days.
func NormalizeLoanDays(days int) int {
	if days <= 0 {
		return DefaultLoanDays
	}

	return days
}

// ParseLoanDays converts user input to a loan period.
// Empty, non-numeric, and non-positive input yields DefaultLoanDays.
func ParseLoanDays(raw string) int {
	days, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return DefaultLoanDays
	}

	return NormalizeLoanDays(days)
}
