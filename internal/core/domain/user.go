package domain

import "time"

// User mirrors the persisted representation in the users table.
type User struct {
	ID            string
	Username      string
	Email         string
	PasswordHash  string
	ReferralCode  string
	ReferredBy    string
	EmailVerified bool
	// Federated marks accounts created through an external identity
	// provider. They carry a placeholder password hash and must not
	// authenticate through the local credential flow.
	Federated bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
