package session

import (
	"errors"
	"fmt"

	"github.com/pywhiz/pywhiz/internal/domain"
)

// AuthError is a surfaced failure of an account flow (login, signup, email
// verification, password reset). Error returns the message to show inline.
type AuthError struct {
	Op      string
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Is lets callers match any AuthError against domain.ErrAuth
func (e *AuthError) Is(target error) bool {
	return target == domain.ErrAuth
}

func authError(op string, err error) error {
	if err == nil {
		return nil
	}
	var already *AuthError
	if errors.As(err, &already) {
		return err
	}
	return &AuthError{Op: op, Message: err.Error(), Err: fmt.Errorf("%s: %w", op, err)}
}
