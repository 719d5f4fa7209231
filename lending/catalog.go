package lending

// Catalog is the locally cached set of books in remote order.
// It is not safe for concurrent use; the Service serializes access to it.
type Catalog struct {
	books []Book
}

// NewCatalog creates a Catalog holding copies of the given books.
func NewCatalog(books ...Book) *Catalog {
	c := &Catalog{}
	c.replaceAll(books)

	return c
}

// List returns the books matching filter (see Book.Matches) in cached order.
func (c *Catalog) List(filter string) []Book {
	matches := make([]Book, 0, len(c.books))

	for _, book := range c.books {
		if book.Matches(filter) {
			matches = append(matches, book)
		}
	}

	return matches
}

// Exists reports whether a book with id is cached.
func (c *Catalog) Exists(id BookIDInt) bool {
	_, found := c.FindByID(id)
	return found
}

// FindByID returns the cached book with id.
func (c *Catalog) FindByID(id BookIDInt) (Book, bool) {
	if i := c.indexOf(id); i >= 0 {
		return c.books[i], true
	}

	return Book{}, false
}

// Len returns the number of cached books.
func (c *Catalog) Len() int {
	return len(c.books)
}

// AvailableCount returns the number of books that are not issued.
func (c *Catalog) AvailableCount() int {
	count := 0

	for _, book := range c.books {
		if book.Available {
			count++
		}
	}

	return count
}

// IssuedCount returns the number of books flagged as issued.
func (c *Catalog) IssuedCount() int {
	return len(c.books) - c.AvailableCount()
}

func (c *Catalog) replaceAll(books []Book) {
	c.books = make([]Book, len(books))
	copy(c.books, books)
}

func (c *Catalog) markIssued(id BookIDInt) {
	if i := c.indexOf(id); i >= 0 {
		c.books[i].Available = false
	}
}

func (c *Catalog) markAvailable(id BookIDInt) {
	if i := c.indexOf(id); i >= 0 {
		c.books[i].Available = true
	}
}

func (c *Catalog) indexOf(id BookIDInt) int {
	for i, book := range c.books {
		if book.ID == id {
			return i
		}
	}

	return -1
}
