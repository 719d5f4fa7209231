package store

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/AntonStoeckl/library-circulation-go/lending"
)

const (
	// DefaultAdminUsername is the administrator name of a fresh store.
	DefaultAdminUsername = "admin"
	// DefaultAdminPassword is the administrator password of a fresh store.
	DefaultAdminPassword = "admin"
)

var (
	// ErrInvalidCredentials is returned when a username or password does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrCredentialsChanged is returned by SwapCredentials when the credentials were replaced concurrently.
	ErrCredentialsChanged = errors.New("credentials changed concurrently")
)

// Credentials are the administrator username and bcrypt password hash.
type Credentials struct {
	Username     string
	PasswordHash []byte
}

// NewCredentials hashes password with bcrypt.DefaultCost.
func NewCredentials(username, password string) (Credentials, error) {
	return NewCredentialsWithCost(username, password, bcrypt.DefaultCost)
}

// NewCredentialsWithCost hashes password with an explicit bcrypt cost; tests use bcrypt.MinCost.
func NewCredentialsWithCost(username, password string, cost int) (Credentials, error) {
	username = strings.TrimSpace(username)

	if username == "" || password == "" {
		return Credentials{}, fmt.Errorf("%w: username and password must not be empty", lending.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return Credentials{}, fmt.Errorf("hash password: %w", err)
	}

	return Credentials{Username: username, PasswordHash: hash}, nil
}

// CheckPassword reports whether password matches the stored hash.
func (c Credentials) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword(c.PasswordHash, []byte(password)) == nil
}

// Authenticate checks both username and password.
func (c Credentials) Authenticate(username, password string) error {
	if username != c.Username || !c.CheckPassword(password) {
		return ErrInvalidCredentials
	}

	return nil
}

// Equal reports whether both credentials carry the same username and hash.
func (c Credentials) Equal(other Credentials) bool {
	return c.Username == other.Username && bytes.Equal(c.PasswordHash, other.PasswordHash)
}
