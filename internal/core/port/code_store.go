package port

import (
	"context"
	"errors"
)

var (
	// ErrCodeNotFound indicates no live code exists for the email, either
	// because none was issued or because the entry expired.
	ErrCodeNotFound = errors.New("verification code expired or not found")
	// ErrCodeMismatch indicates the submitted code differs from the stored
	// one. The entry is retained so the user may retry within the window.
	ErrCodeMismatch = errors.New("verification code mismatch")
)

// VerificationCodeStore holds short-lived, single-use verification codes
// keyed by lower-cased email. At most one live code exists per email;
// storing a new code replaces any previous one.
type VerificationCodeStore interface {
	// Store records a code for the email, overwriting any live entry.
	Store(ctx context.Context, email, code, userID string) error
	// CheckAndConsume compares the submitted code against the stored one.
	// On an exact match the entry is deleted and the associated user id is
	// returned; a mismatch leaves the entry intact.
	CheckAndConsume(ctx context.Context, email, code string) (string, error)
}
