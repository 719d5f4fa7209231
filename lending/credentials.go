package lending

import (
	"context"
	"fmt"
	"strings"
)

// ResetCredentials replaces the administrator credentials in the remote store.
// A mismatched confirmation is rejected locally with ErrValidation. A rejection by the
// remote store is a *RemoteError whose Message is the server's text, see RemoteMessage.
func (s *Service) ResetCredentials(
	ctx context.Context,
	oldPassword string,
	newUsername string,
	newPassword string,
	confirmPassword string,
) error {

	return s.observe(ctx, OperationResetCredentials, func(ctx context.Context) error {
		if newPassword != confirmPassword {
			return ErrPasswordMismatch
		}

		if strings.TrimSpace(newUsername) == "" || newPassword == "" {
			return fmt.Errorf("%w: new username and password must not be empty", ErrValidation)
		}

		return s.gateway.ResetCredentials(withIdempotencyKey(ctx), oldPassword, newUsername, newPassword)
	})
}

// Login checks administrator credentials against the remote store.
func (s *Service) Login(ctx context.Context, username string, password string) error {
	return s.observe(ctx, OperationLogin, func(ctx context.Context) error {
		if username == "" || password == "" {
			return fmt.Errorf("%w: username and password must not be empty", ErrValidation)
		}

		return s.gateway.Login(ctx, username, password)
	})
}
