package lending

import (
	"fmt"
	"strings"
)

// DeletePolicy decides whether a book that is currently issued may be deleted.
type DeletePolicy int

const (
	// DeleteForce deletes a book regardless of its issuance state.
	DeleteForce DeletePolicy = iota

	// DeleteRequireReturned rejects deleting an issued book with ErrAlreadyIssued.
	DeleteRequireReturned
)

// String provides a string representation of DeletePolicy for logging and configuration.
func (p DeletePolicy) String() string {
	switch p {
	case DeleteForce:
		return "force"
	case DeleteRequireReturned:
		return "require-returned"
	default:
		return "unknown"
	}
}

// ParseDeletePolicy parses the String representation of a DeletePolicy.
func ParseDeletePolicy(raw string) (DeletePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "force":
		return DeleteForce, nil
	case "require-returned":
		return DeleteRequireReturned, nil
	default:
		return DeleteForce, fmt.Errorf("%w: unknown delete policy %q", ErrValidation, raw)
	}
}
