package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/AntonStoeckl/library-circulation-go/lending"
)

const dateLayout = "2006-01-02"

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func renderBooks(w io.Writer, books []lending.Book) {
	if len(books) == 0 {
		_, _ = fmt.Fprintln(w, "No books found.")
		return
	}

	tw := newTable(w)
	_, _ = fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tSTATUS")

	for _, book := range books {
		status := "Available"
		if !book.Available {
			status = "Issued"
		}

		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", book.ID, book.Title, book.Author, status)
	}

	_ = tw.Flush()
}

func renderLoans(w io.Writer, loans []lending.LoanStatus, now time.Time) {
	if len(loans) == 0 {
		_, _ = fmt.Fprintln(w, "No active loans.")
		return
	}

	tw := newTable(w)
	_, _ = fmt.Fprintln(tw, "BOOK ID\tTITLE\tSTUDENT\tISSUED\tDUE\t")

	for _, loan := range loans {
		marker := ""
		if loan.Overdue {
			marker = "OVERDUE"
		}

		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s (%s)\t%s\n",
			loan.BookID,
			loan.BookTitle,
			loan.BorrowerName,
			loan.IssuedOn.Format(dateLayout),
			loan.DueOn.Format(dateLayout),
			humanize.RelTime(loan.DueOn, now, "ago", "from now"),
			marker,
		)
	}

	_ = tw.Flush()
}

func renderStats(w io.Writer, stats lending.Stats) {
	tw := newTable(w)

	rows := []struct {
		label string
		value int
	}{
		{"Total books", stats.TotalBooks},
		{"Available", stats.AvailableBooks},
		{"Issued", stats.IssuedBooks},
		{"Overdue", stats.OverdueLoans},
	}

	for _, row := range rows {
		_, _ = fmt.Fprintf(tw, "%s\t%s\n", row.label, humanize.Comma(int64(row.value)))
	}

	_ = tw.Flush()
}

// plural renders count with a naive English plural, e.g. "1 book" or "2 books".
func plural(count int, noun string) string {
	if count == 1 {
		return "1 " + noun
	}

	return strconv.Itoa(count) + " " + noun + "s"
}
