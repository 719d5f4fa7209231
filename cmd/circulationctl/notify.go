package main

import (
	"context"
	"errors"
	"strconv"

	"github.com/AntonStoeckl/library-circulation-go/lending"
)

// Level classifies a Notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

const msgConnectionFailed = "Failed to connect to server. Make sure circulationd is running!"

// Notification is the one-line outcome of a command.
type Notification struct {
	Level Level
	Text  string
}

// String renders the notification with its level tag.
func (n Notification) String() string {
	if n.Text == "" {
		return ""
	}

	return "[" + string(n.Level) + "] " + n.Text
}

// outcome maps the result of a write to a Notification.
// A write that was confirmed but could not be followed by a refresh still reports success.
func outcome(command string, err error, successText string) Notification {
	switch {
	case err == nil:
		return Notification{Level: LevelSuccess, Text: successText}
	case errors.Is(err, lending.ErrRefreshFailed):
		return Notification{Level: LevelWarning, Text: successText + " Local data may be outdated, run refresh."}
	default:
		return failure(command, err)
	}
}

// failure maps an error to a Notification.
func failure(command string, err error) Notification {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Notification{Level: LevelError, Text: "Request timed out."}
	case errors.Is(err, context.Canceled):
		return Notification{Level: LevelError, Text: "Canceled."}
	case errors.Is(err, lending.ErrDuplicateBookID):
		return Notification{Level: LevelError, Text: "Book ID already exists!"}
	case errors.Is(err, lending.ErrPasswordMismatch):
		return Notification{Level: LevelError, Text: "Passwords do not match!"}
	case errors.Is(err, lending.ErrAlreadyIssued):
		return Notification{Level: LevelWarning, Text: "Book already issued!"}
	case errors.Is(err, lending.ErrNoSuchLoan):
		return Notification{Level: LevelError, Text: "No record found for this book ID."}
	case errors.Is(err, lending.ErrNotFound):
		return Notification{Level: LevelError, Text: "Book not found!"}
	case errors.Is(err, lending.ErrValidation):
		return Notification{Level: LevelError, Text: "Invalid input: " + err.Error()}
	}

	var remoteErr *lending.RemoteError
	if errors.As(err, &remoteErr) {
		if remoteErr.StatusCode == 0 {
			return Notification{Level: LevelError, Text: msgConnectionFailed}
		}
		if remoteErr.Message != "" {
			return Notification{Level: LevelError, Text: remoteErr.Message}
		}
	}

	return Notification{Level: LevelError, Text: fallbackText(command)}
}

func fallbackText(command string) string {
	switch command {
	case cmdAdd:
		return "Failed to add book"
	case cmdIssue:
		return "Failed to issue book"
	case cmdReturn:
		return "Failed to return book"
	case cmdDelete:
		return "Failed to delete book"
	case cmdResetPassword:
		return "Failed to update credentials"
	case cmdLogin:
		return "Invalid credentials!"
	default:
		return "Failed to load data"
	}
}

func usage(synopsis string) Notification {
	return Notification{Level: LevelError, Text: "usage: " + synopsis}
}

func invalidBookID(raw string) Notification {
	return Notification{Level: LevelError, Text: "Invalid book ID " + strconv.Quote(raw) + "."}
}
