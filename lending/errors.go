package lending

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a book id is unknown to the local cache (or the remote store).
	ErrNotFound = errors.New("book not found")

	// ErrAlreadyIssued is returned when a book that is currently issued is issued (or strictly deleted) again.
	ErrAlreadyIssued = errors.New("book already issued")

	// ErrNoSuchLoan is returned when a book without an active loan is returned.
	ErrNoSuchLoan = errors.New("no loan record found")

	// ErrValidation is returned when input is rejected before reaching the remote store.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateBookID is returned when a book id is already taken. It is an ErrValidation.
	ErrDuplicateBookID = fmt.Errorf("%w: book id already exists", ErrValidation)

	// ErrPasswordMismatch is returned when a new password and its confirmation differ. It is an ErrValidation.
	ErrPasswordMismatch = fmt.Errorf("%w: passwords do not match", ErrValidation)

	// ErrRefreshFailed is returned when a confirmed write could not be followed by a refresh.
	// The write itself succeeded; the caches may be stale until the next refresh.
	ErrRefreshFailed = errors.New("refresh after write failed")
)

// RemoteError describes a failed call to the remote store: a transport failure (Err is set)
// or a non-2xx response (StatusCode is set, Message carries the server's error text if any).
type RemoteError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	msg := "remote " + e.Op + " failed"

	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" with status %d", e.StatusCode)
	}

	if e.Message != "" {
		msg += ": " + e.Message
	}

	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Unwrap returns the underlying transport error, if any.
func (e *RemoteError) Unwrap() error {
	return e.Err
}

// IsRemoteError reports whether err is or wraps a *RemoteError.
func IsRemoteError(err error) bool {
	var remoteErr *RemoteError
	return errors.As(err, &remoteErr)
}

// RemoteMessage returns the server supplied message of a wrapped *RemoteError, or "".
func RemoteMessage(err error) string {
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return remoteErr.Message
	}

	return ""
}

// IsPreconditionError reports whether err was detected locally and never reached the network.
func IsPreconditionError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAlreadyIssued) ||
		errors.Is(err, ErrNoSuchLoan) ||
		errors.Is(err, ErrValidation)
}
