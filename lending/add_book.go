package lending

import (
	"context"
	"fmt"
	"strings"
)

type addBookCommand struct {
	book Book
}

func buildAddBookCommand(id BookIDInt, title string, author string) addBookCommand {
	return addBookCommand{
		book: NewBook(id, strings.TrimSpace(title), strings.TrimSpace(author)),
	}
}

// decideAddBook implements the local preconditions for adding a book.
//
// Business Rules:
//
//	GIVEN: A book with ID, Title, Author
//	WHEN: AddBook is requested
//	THEN: the book is sent to the remote store
//	ERROR: ErrValidation if the id is not positive or title/author are empty
//	ERROR: ErrDuplicateBookID if the id is already in the cached catalog
//
// Uniqueness is only checked against the cache; the remote store checks it again.
func decideAddBook(catalog *Catalog, command addBookCommand) error {
	book := command.book

	if book.ID <= 0 {
		return fmt.Errorf("%w: book id must be positive, got %d", ErrValidation, book.ID)
	}

	if book.Title == "" || book.Author == "" {
		return fmt.Errorf("%w: title and author must not be empty", ErrValidation)
	}

	if catalog.Exists(book.ID) {
		return fmt.Errorf("%w: %d", ErrDuplicateBookID, book.ID)
	}

	return nil
}

// AddBook creates a book in the remote store and then reloads the Catalog.
// The book is not appended locally, so canonicalization by the remote store is picked up.
func (s *Service) AddBook(ctx context.Context, id BookIDInt, title string, author string) error {
	return s.observe(ctx, OperationAddBook, func(ctx context.Context) error {
		command := buildAddBookCommand(id, title, author)

		s.mu.RLock()
		err := decideAddBook(s.catalog, command)
		s.mu.RUnlock()

		if err != nil {
			return err
		}

		if err = s.gateway.CreateBook(withIdempotencyKey(ctx), command.book); err != nil {
			return err
		}

		return s.refreshAfterWrite(ctx, true, false)
	})
}
