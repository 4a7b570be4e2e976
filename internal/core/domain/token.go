package domain

import "time"

// TokenPurpose scopes a purpose token to exactly one state-changing operation.
type TokenPurpose string

const (
	PurposeEmailVerification TokenPurpose = "email_verification"
	PurposePasswordReset     TokenPurpose = "password_reset"
)

// Valid reports whether the purpose is one of the known values.
func (p TokenPurpose) Valid() bool {
	switch p {
	case PurposeEmailVerification, PurposePasswordReset:
		return true
	}
	return false
}

// SessionToken captures the verified claims of a bearer session token.
type SessionToken struct {
	UserID    string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
