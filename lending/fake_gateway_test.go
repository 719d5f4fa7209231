package lending_test

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/AntonStoeckl/library-circulation-go/lending"
)

// fakeGateway is an in-memory authoritative store with per-operation failure injection.
type fakeGateway struct {
	mu       sync.Mutex
	books    []lending.Book
	loans    []lending.Loan
	issuedOn time.Time
	failures map[string]error
	calls    map[string]int
	keys     []string

	catalogGate    chan struct{}
	catalogEntered chan struct{}
}

func newFakeGateway(issuedOn time.Time, books ...lending.Book) *fakeGateway {
	return &fakeGateway{
		books:    books,
		issuedOn: issuedOn,
		failures: make(map[string]error),
		calls:    make(map[string]int),
	}
}

func (g *fakeGateway) failWith(op string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures[op] = err
}

func (g *fakeGateway) callCount(op string) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.calls[op]
}

// holdNextCatalogRefresh makes the next RefreshCatalog take its snapshot and then wait for release.
func (g *fakeGateway) holdNextCatalogRefresh() (entered <-chan struct{}, release func()) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.catalogGate = make(chan struct{})
	g.catalogEntered = make(chan struct{})
	gate := g.catalogGate

	return g.catalogEntered, func() { close(gate) }
}

func (g *fakeGateway) begin(ctx context.Context, op string) error {
	g.calls[op]++

	if key := lending.IdempotencyKeyFrom(ctx); key != "" {
		g.keys = append(g.keys, key)
	}

	return g.failures[op]
}

func (g *fakeGateway) CreateBook(ctx context.Context, book lending.Book) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.begin(ctx, "create"); err != nil {
		return err
	}

	for _, existing := range g.books {
		if existing.ID == book.ID {
			return &lending.RemoteError{Op: "create", StatusCode: http.StatusConflict, Message: "Book ID already exists"}
		}
	}

	g.books = append([]lending.Book{book}, g.books...)

	return nil
}

func (g *fakeGateway) Issue(ctx context.Context, bookID lending.BookIDInt, borrowerName string, loanDays int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.begin(ctx, "issue"); err != nil {
		return err
	}

	for i := range g.books {
		if g.books[i].ID != bookID {
			continue
		}

		if !g.books[i].Available {
			return &lending.RemoteError{Op: "issue", StatusCode: http.StatusConflict, Message: "Book already issued"}
		}

		g.books[i].Available = false
		g.loans = append(g.loans, lending.BuildLoan(bookID, borrowerName, g.books[i].Title, loanDays, g.issuedOn))

		return nil
	}

	return &lending.RemoteError{Op: "issue", StatusCode: http.StatusNotFound, Message: "Book not found"}
}

func (g *fakeGateway) ReturnBook(ctx context.Context, bookID lending.BookIDInt) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.begin(ctx, "return"); err != nil {
		return err
	}

	for i, loan := range g.loans {
		if loan.BookID == bookID {
			g.loans = append(g.loans[:i], g.loans[i+1:]...)

			for j := range g.books {
				if g.books[j].ID == bookID {
					g.books[j].Available = true
				}
			}

			return nil
		}
	}

	return &lending.RemoteError{Op: "return", StatusCode: http.StatusNotFound, Message: "Book not found"}
}

func (g *fakeGateway) DeleteBook(ctx context.Context, id lending.BookIDInt) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.begin(ctx, "delete"); err != nil {
		return err
	}

	for i, book := range g.books {
		if book.ID == id {
			g.books = append(g.books[:i], g.books[i+1:]...)
			return nil
		}
	}

	return &lending.RemoteError{Op: "delete", StatusCode: http.StatusNotFound, Message: "Book not found"}
}

func (g *fakeGateway) RefreshCatalog(ctx context.Context) ([]lending.Book, error) {
	g.mu.Lock()

	if err := g.begin(ctx, "catalog"); err != nil {
		g.mu.Unlock()
		return nil, err
	}

	books := append([]lending.Book(nil), g.books...)
	gate, entered := g.catalogGate, g.catalogEntered
	g.catalogGate, g.catalogEntered = nil, nil
	g.mu.Unlock()

	if gate != nil {
		close(entered)
		<-gate
	}

	return books, nil
}

func (g *fakeGateway) RefreshLoans(ctx context.Context) ([]lending.Loan, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.begin(ctx, "loans"); err != nil {
		return nil, err
	}

	return append([]lending.Loan(nil), g.loans...), nil
}

func (g *fakeGateway) ResetCredentials(ctx context.Context, oldPassword, _, _ string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.begin(ctx, "reset"); err != nil {
		return err
	}

	if oldPassword != "admin" {
		return &lending.RemoteError{Op: "reset", StatusCode: http.StatusUnauthorized, Message: "Invalid old password"}
	}

	return nil
}

func (g *fakeGateway) Login(ctx context.Context, username, password string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.begin(ctx, "login"); err != nil {
		return err
	}

	if username != "admin" || password != "admin" {
		return &lending.RemoteError{Op: "login", StatusCode: http.StatusUnauthorized, Message: "Invalid credentials"}
	}

	return nil
}
