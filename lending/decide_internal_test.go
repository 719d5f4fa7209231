package lending

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func decideFixture() (*Catalog, *LoanLedger) {
	issuedOn := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)

	catalog := NewCatalog(
		NewBook(1, "The Hobbit", "J.R.R. Tolkien"),
		Book{ID: 2, Title: "Refactoring", Author: "Martin Fowler", Available: false},
		NewBook(3, "Clean Code", "Robert C. Martin"),
	)
	ledger := NewLoanLedger(
		BuildLoan(2, "Ada", "Refactoring", 14, issuedOn),
		BuildLoan(3, "Grace", "Clean Code", 14, issuedOn),
	)

	return catalog, ledger
}

func Test_DecideIssueBook_Success_WhenAllPreconditionsMet(t *testing.T) {
	// arrange
	catalog, ledger := decideFixture()
	command := buildIssueBookCommand(1, "  Linus ", -1)

	// act
	book, err := decideIssueBook(catalog, ledger, command)

	// assert
	assert.NoError(t, err)
	assert.Equal(t, "The Hobbit", book.Title)
	assert.Equal(t, "Linus", command.borrowerName)
	assert.Equal(t, DefaultLoanDays, command.loanDays)
}

func Test_DecideIssueBook_Error_ChecksInOrder(t *testing.T) {
	catalog, ledger := decideFixture()

	_, err := decideIssueBook(catalog, ledger, buildIssueBookCommand(99, "", 14))
	assert.ErrorIs(t, err, ErrNotFound, "unknown book is reported before an empty borrower")

	_, err = decideIssueBook(catalog, ledger, buildIssueBookCommand(2, "", 14))
	assert.ErrorIs(t, err, ErrAlreadyIssued, "issued book is reported before an empty borrower")

	_, err = decideIssueBook(catalog, ledger, buildIssueBookCommand(3, "Linus", 14))
	assert.ErrorIs(t, err, ErrAlreadyIssued, "a cached loan blocks issuing even if the flag says available")

	_, err = decideIssueBook(catalog, ledger, buildIssueBookCommand(1, "   ", 14))
	assert.ErrorIs(t, err, ErrValidation)
}

func Test_DecideAddBook(t *testing.T) {
	catalog, _ := decideFixture()

	assert.NoError(t, decideAddBook(catalog, buildAddBookCommand(4, "Dune", "Frank Herbert")))
	assert.ErrorIs(t, decideAddBook(catalog, buildAddBookCommand(0, "Dune", "Frank Herbert")), ErrValidation)
	assert.ErrorIs(t, decideAddBook(catalog, buildAddBookCommand(-1, "Dune", "Frank Herbert")), ErrValidation)
	assert.ErrorIs(t, decideAddBook(catalog, buildAddBookCommand(4, " ", "Frank Herbert")), ErrValidation)
	assert.ErrorIs(t, decideAddBook(catalog, buildAddBookCommand(4, "Dune", "")), ErrValidation)

	err := decideAddBook(catalog, buildAddBookCommand(1, "Dune", "Frank Herbert"))
	assert.ErrorIs(t, err, ErrDuplicateBookID)
	assert.ErrorIs(t, err, ErrValidation)
}

func Test_DecideReturnBook(t *testing.T) {
	_, ledger := decideFixture()

	assert.NoError(t, decideReturnBook(ledger, 2))
	assert.ErrorIs(t, decideReturnBook(ledger, 1), ErrNoSuchLoan)
}

func Test_DecideDeleteBook_Policies(t *testing.T) {
	catalog, ledger := decideFixture()

	assert.NoError(t, decideDeleteBook(catalog, ledger, DeleteForce, 2))
	assert.NoError(t, decideDeleteBook(catalog, ledger, DeleteForce, 99), "existence is left to the remote store")

	assert.NoError(t, decideDeleteBook(catalog, ledger, DeleteRequireReturned, 1))
	assert.ErrorIs(t, decideDeleteBook(catalog, ledger, DeleteRequireReturned, 2), ErrAlreadyIssued)
	assert.ErrorIs(t, decideDeleteBook(catalog, ledger, DeleteRequireReturned, 3), ErrAlreadyIssued)
}

func Test_ParseDeletePolicy(t *testing.T) {
	policy, err := ParseDeletePolicy(" Require-Returned ")
	assert.NoError(t, err)
	assert.Equal(t, DeleteRequireReturned, policy)
	assert.Equal(t, "require-returned", policy.String())

	policy, err = ParseDeletePolicy("force")
	assert.NoError(t, err)
	assert.Equal(t, DeleteForce, policy)

	_, err = ParseDeletePolicy("sometimes")
	assert.ErrorIs(t, err, ErrValidation)
}
