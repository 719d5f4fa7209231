package lending

import "context"

// Gateway is the boundary to the authoritative remote store.
//
// Every method returns nil on confirmed success and a *RemoteError otherwise.
// Implementations never retry and never panic past this boundary.
type Gateway interface {
	CreateBook(ctx context.Context, book Book) error
	Issue(ctx context.Context, bookID BookIDInt, borrowerName string, loanDays int) error
	ReturnBook(ctx context.Context, bookID BookIDInt) error
	DeleteBook(ctx context.Context, id BookIDInt) error
	RefreshCatalog(ctx context.Context) ([]Book, error)
	RefreshLoans(ctx context.Context) ([]Loan, error)
	ResetCredentials(ctx context.Context, oldPassword, newUsername, newPassword string) error
	Login(ctx context.Context, username, password string) error
}
