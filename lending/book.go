package lending

import (
	"strconv"
	"strings"
)

// BookIDInt is the caller-assigned identifier of a book.
type BookIDInt = int

// Book is a catalog entry. Available is false exactly while a Loan for ID exists.
type Book struct {
	ID        BookIDInt
	Title     string
	Author    string
	Available bool
}

// NewBook creates an available book.
func NewBook(id BookIDInt, title string, author string) Book {
	return Book{
		ID:        id,
		Title:     title,
		Author:    author,
		Available: true,
	}
}

// Matches reports whether the lower-cased term is contained in the book's id, title, or author.
// An empty term matches every book.
func (b Book) Matches(term string) bool {
	if term == "" {
		return true
	}

	term = strings.ToLower(term)

	return strings.Contains(strings.ToLower(b.Title), term) ||
		strings.Contains(strings.ToLower(b.Author), term) ||
		strings.Contains(strconv.Itoa(b.ID), term)
}
