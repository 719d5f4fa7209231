package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/AntonStoeckl/library-circulation-go/lending"
	"github.com/AntonStoeckl/library-circulation-go/store"
)

func Test_Credentials_Authenticate(t *testing.T) {
	credentials, err := store.NewCredentialsWithCost(" admin ", "secret", bcrypt.MinCost)
	require.NoError(t, err)

	assert.Equal(t, "admin", credentials.Username)
	assert.NotEqual(t, []byte("secret"), credentials.PasswordHash)

	assert.NoError(t, credentials.Authenticate("admin", "secret"))
	assert.ErrorIs(t, credentials.Authenticate("admin", "wrong"), store.ErrInvalidCredentials)
	assert.ErrorIs(t, credentials.Authenticate("root", "secret"), store.ErrInvalidCredentials)
}

func Test_NewCredentials_RejectsEmptyInput(t *testing.T) {
	_, err := store.NewCredentialsWithCost("", "secret", bcrypt.MinCost)
	assert.ErrorIs(t, err, lending.ErrValidation)

	_, err = store.NewCredentialsWithCost("admin", "", bcrypt.MinCost)
	assert.ErrorIs(t, err, lending.ErrValidation)
}

func Test_Credentials_Equal(t *testing.T) {
	first, err := store.NewCredentialsWithCost("admin", "secret", bcrypt.MinCost)
	require.NoError(t, err)
	second, err := store.NewCredentialsWithCost("admin", "secret", bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, first.Equal(first))
	assert.False(t, first.Equal(second), "salted hashes differ")
}
