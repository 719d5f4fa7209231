package remote

import (
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/library-circulation-go/lending"
)

// WireDateLayout is the calendar date format of dateIssued and dueDate.
const WireDateLayout = "2006-01-02"

// IdempotencyKeyHeader carries the idempotency key of a write request.
const IdempotencyKeyHeader = "Idempotency-Key"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// BookDTO is a book as sent by GET /books.
type BookDTO struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Available bool   `json:"available"`
}

// LoanDTO is a loan as sent by GET /students.
type LoanDTO struct {
	BookID     int    `json:"bookId"`
	Name       string `json:"name"`
	BookTitle  string `json:"bookTitle"`
	DateIssued string `json:"dateIssued"`
	DueDate    string `json:"dueDate"`
}

// CreateBookRequest is the body of POST /books.
type CreateBookRequest struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

// IssueRequest is the body of POST /issue.
type IssueRequest struct {
	BookID      int    `json:"bookId"`
	StudentName string `json:"studentName"`
	Days        int    `json:"days"`
}

// ReturnRequest is the body of POST /return.
type ReturnRequest struct {
	BookID int `json:"bookId"`
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ResetPasswordRequest is the body of POST /reset-password.
type ResetPasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewUsername string `json:"newUsername"`
	NewPassword string `json:"newPassword"`
}

// StatusResponse is the body of every write response.
type StatusResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// BookToDTO converts a lending.Book to its wire form.
func BookToDTO(book lending.Book) BookDTO {
	return BookDTO{ID: book.ID, Title: book.Title, Author: book.Author, Available: book.Available}
}

// Book converts the wire form to a lending.Book.
func (d BookDTO) Book() lending.Book {
	return lending.Book{ID: d.ID, Title: d.Title, Author: d.Author, Available: d.Available}
}

// LoanToDTO converts a lending.Loan to its wire form.
func LoanToDTO(loan lending.Loan) LoanDTO {
	return LoanDTO{
		BookID:     loan.BookID,
		Name:       loan.BorrowerName,
		BookTitle:  loan.BookTitle,
		DateIssued: FormatWireDate(loan.IssuedOn),
		DueDate:    FormatWireDate(loan.DueOn),
	}
}

// Loan converts the wire form to a lending.Loan.
func (d LoanDTO) Loan() (lending.Loan, error) {
	issuedOn, err := ParseWireDate(d.DateIssued)
	if err != nil {
		return lending.Loan{}, fmt.Errorf("loan for book %d: dateIssued: %w", d.BookID, err)
	}

	dueOn, err := ParseWireDate(d.DueDate)
	if err != nil {
		return lending.Loan{}, fmt.Errorf("loan for book %d: dueDate: %w", d.BookID, err)
	}

	return lending.Loan{
		BookID:       d.BookID,
		BorrowerName: d.Name,
		BookTitle:    d.BookTitle,
		IssuedOn:     issuedOn,
		DueOn:        dueOn,
	}, nil
}

// FormatWireDate formats t as a calendar date in UTC.
func FormatWireDate(t time.Time) string {
	return t.UTC().Format(WireDateLayout)
}

// ParseWireDate parses a calendar date as UTC midnight. RFC 3339 timestamps are accepted too.
func ParseWireDate(raw string) (time.Time, error) {
	if t, err := time.ParseInLocation(WireDateLayout, raw, time.UTC); err == nil {
		return t, nil
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", raw)
	}

	return t.UTC(), nil
}
