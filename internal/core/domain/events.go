package domain

import "time"

// VerificationCodeIssuedEvent is published when a 6-digit verification code
// has been generated for an address and should be delivered out-of-band.
type VerificationCodeIssuedEvent struct {
	EventID   string
	UserID    string
	Email     string
	Username  string
	Code      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// VerificationLinkIssuedEvent is published when a link-based verification
// token has been generated for an address.
type VerificationLinkIssuedEvent struct {
	EventID   string
	UserID    string
	Email     string
	Username  string
	Link      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// EmailVerifiedEvent is published after an account transitions to verified.
type EmailVerifiedEvent struct {
	EventID    string
	UserID     string
	Email      string
	Username   string
	VerifiedAt time.Time
}

// PasswordResetRequestedEvent is published when a reset link has been issued.
type PasswordResetRequestedEvent struct {
	EventID     string
	UserID      string
	Email       string
	Username    string
	ResetLink   string
	RequestedAt time.Time
	ExpiresAt   time.Time
}

// PasswordChangedEvent is the security notice published after a successful
// password replacement.
type PasswordChangedEvent struct {
	EventID   string
	UserID    string
	Email     string
	Username  string
	ChangedAt time.Time
}

// UserSignedUpEvent is published when a new account has been created through
// a federated identity provider.
type UserSignedUpEvent struct {
	EventID      string
	UserID       string
	Email        string
	Username     string
	ReferralCode string
	Federated    bool
	SignedUpAt   time.Time
}
