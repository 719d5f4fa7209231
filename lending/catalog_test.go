package lending_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/library-circulation-go/lending"
)

func fixtureCatalog() *lending.Catalog {
	return lending.NewCatalog(
		lending.NewBook(1, "The Hobbit", "J.R.R. Tolkien"),
		lending.NewBook(2, "Refactoring", "Martin Fowler"),
		lending.Book{ID: 3, Title: "Clean Code", Author: "Robert C. Martin", Available: false},
	)
}

func Test_Catalog_List_FiltersCaseInsensitive(t *testing.T) {
	catalog := fixtureCatalog()

	books := catalog.List("the")
	assert.Len(t, books, 1)
	assert.Equal(t, 1, books[0].ID)

	books = catalog.List("2")
	assert.Len(t, books, 1)
	assert.Equal(t, 2, books[0].ID)

	books = catalog.List("MARTIN")
	assert.Len(t, books, 2)
	assert.Equal(t, 2, books[0].ID, "cached order must be kept")
	assert.Equal(t, 3, books[1].ID)
}

func Test_Catalog_List_EmptyFilterReturnsAll(t *testing.T) {
	catalog := fixtureCatalog()

	assert.Len(t, catalog.List(""), 3)
}

func Test_Catalog_List_ReturnsCopies(t *testing.T) {
	catalog := fixtureCatalog()

	books := catalog.List("")
	books[0].Title = "changed"

	book, found := catalog.FindByID(1)
	assert.True(t, found)
	assert.Equal(t, "The Hobbit", book.Title)
}

func Test_Catalog_Counts(t *testing.T) {
	catalog := fixtureCatalog()

	assert.Equal(t, 3, catalog.Len())
	assert.Equal(t, 2, catalog.AvailableCount())
	assert.Equal(t, 1, catalog.IssuedCount())
	assert.True(t, catalog.Exists(3))
	assert.False(t, catalog.Exists(4))
}
