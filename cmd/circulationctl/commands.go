package main

import (
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/AntonStoeckl/library-circulation-go/lending"
)

const (
	cmdBooks         = "books"
	cmdLoans         = "loans"
	cmdStats         = "stats"
	cmdAdd           = "add"
	cmdIssue         = "issue"
	cmdReturn        = "return"
	cmdDelete        = "delete"
	cmdResetPassword = "reset-password"
	cmdLogin         = "login"
	cmdRefresh       = "refresh"
	cmdShell         = "shell"
	cmdHelp          = "help"
)

const usageText = `  books [filter]                                   list books, optionally filtered by id, title or author
  loans                                            list active loans
  stats                                            show totals
  add <id> <title> <author>                        add a book
  issue <id> <student> [days]                      issue a book, days defaults to 14
  return <id>                                      return an issued book
  delete <id>                                      delete a book
  reset-password <old> <new-user> <new> <confirm>  replace the administrator credentials
  login <user> <password>                          check administrator credentials
  refresh                                          reload books and loans
  shell                                            start an interactive session
`

// app executes commands against one lending.Service.
type app struct {
	service *lending.Service
	out     io.Writer
	now     func() time.Time
	synced  bool
}

// execute runs one command. Tables are written to out; the outcome is returned as a Notification.
func (a *app) execute(ctx context.Context, args []string) Notification {
	if len(args) == 0 {
		return Notification{}
	}

	name, params := strings.ToLower(args[0]), args[1:]

	if needsCache(name) && !a.synced {
		if err := a.service.Refresh(ctx); err != nil {
			return failure(cmdRefresh, err)
		}
		a.synced = true
	}

	switch name {
	case cmdBooks:
		renderBooks(a.out, a.service.Search(strings.Join(params, " ")))
		return Notification{}

	case cmdLoans:
		renderLoans(a.out, a.service.ActiveLoans(), a.now())
		return Notification{}

	case cmdStats:
		renderStats(a.out, a.service.Stats(a.now()))
		return Notification{}

	case cmdAdd:
		if len(params) != 3 {
			return usage("add <id> <title> <author>")
		}
		id, ok := parseBookID(params[0])
		if !ok {
			return invalidBookID(params[0])
		}
		err := a.service.AddBook(ctx, id, params[1], params[2])
		return outcome(cmdAdd, err, "Book added successfully!")

	case cmdIssue:
		if len(params) < 2 || len(params) > 3 {
			return usage("issue <id> <student> [days]")
		}
		id, ok := parseBookID(params[0])
		if !ok {
			return invalidBookID(params[0])
		}
		days := lending.DefaultLoanDays
		if len(params) == 3 {
			days = lending.ParseLoanDays(params[2])
		}
		err := a.service.IssueBook(ctx, id, params[1], days)
		return outcome(cmdIssue, err, "Book issued to "+params[1])

	case cmdReturn:
		if len(params) != 1 {
			return usage("return <id>")
		}
		id, ok := parseBookID(params[0])
		if !ok {
			return invalidBookID(params[0])
		}
		return outcome(cmdReturn, a.service.ReturnBook(ctx, id), "Book returned successfully!")

	case cmdDelete:
		if len(params) != 1 {
			return usage("delete <id>")
		}
		id, ok := parseBookID(params[0])
		if !ok {
			return invalidBookID(params[0])
		}
		return outcome(cmdDelete, a.service.DeleteBook(ctx, id), "Book deleted.")

	case cmdResetPassword:
		if len(params) != 4 {
			return usage("reset-password <old> <new-user> <new> <confirm>")
		}
		err := a.service.ResetCredentials(ctx, params[0], params[1], params[2], params[3])
		return outcome(cmdResetPassword, err, "Credentials updated! Please log in again.")

	case cmdLogin:
		if len(params) != 2 {
			return usage("login <user> <password>")
		}
		return outcome(cmdLogin, a.service.Login(ctx, params[0], params[1]), "Welcome back, "+params[0]+"!")

	case cmdRefresh:
		if err := a.service.Refresh(ctx); err != nil {
			return failure(cmdRefresh, err)
		}
		a.synced = true
		return Notification{Level: LevelInfo, Text: "Data refreshed."}

	case cmdHelp:
		_, _ = io.WriteString(a.out, usageText)
		return Notification{}

	default:
		return Notification{Level: LevelError, Text: "Unknown command " + strconv.Quote(args[0]) + ", try help."}
	}
}

// needsCache reports whether name reads or checks against the local copy.
func needsCache(name string) bool {
	switch name {
	case cmdBooks, cmdLoans, cmdStats, cmdAdd, cmdIssue, cmdReturn, cmdDelete:
		return true
	default:
		return false
	}
}

func parseBookID(raw string) (lending.BookIDInt, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}

	return id, true
}
