package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Samdav2/confess-api/internal/core/domain"
)

var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
	ErrWrongPurpose   = errors.New("token purpose mismatch")
)

// sessionClaims carries the identity claims embedded in session tokens.
// Purpose is set only on purpose-scoped tokens and is absent from session
// tokens.
type sessionClaims struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuerConfig tunes token lifetimes per token kind.
type TokenIssuerConfig struct {
	SessionTTL           time.Duration
	EmailVerificationTTL time.Duration
	PasswordResetTTL     time.Duration
}

const (
	defaultSessionTTL           = 30 * time.Minute
	defaultEmailVerificationTTL = 24 * time.Hour
	defaultPasswordResetTTL     = time.Hour
)

// TokenIssuer mints and verifies signed session and purpose tokens.
type TokenIssuer struct {
	signer ClaimsSigner
	cfg    TokenIssuerConfig
	now    func() time.Time
}

// NewTokenIssuer constructs a TokenIssuer around the supplied signer.
// Zero TTLs fall back to defaults.
func NewTokenIssuer(signer ClaimsSigner, cfg TokenIssuerConfig) *TokenIssuer {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	if cfg.EmailVerificationTTL <= 0 {
		cfg.EmailVerificationTTL = defaultEmailVerificationTTL
	}
	if cfg.PasswordResetTTL <= 0 {
		cfg.PasswordResetTTL = defaultPasswordResetTTL
	}

	return &TokenIssuer{
		signer: signer,
		cfg:    cfg,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the issuer's time source. Intended for tests.
func (t *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	if now != nil {
		t.now = now
	}
	return t
}

// PurposeTTL reports the configured lifetime for tokens of the purpose.
func (t *TokenIssuer) PurposeTTL(purpose domain.TokenPurpose) time.Duration {
	if purpose == domain.PurposePasswordReset {
		return t.cfg.PasswordResetTTL
	}
	return t.cfg.EmailVerificationTTL
}

// IssueSessionToken mints a session token for the user.
func (t *TokenIssuer) IssueSessionToken(userID, email string) (string, error) {
	return t.issue(userID, email, "", t.cfg.SessionTTL)
}

// IssuePurposeToken mints a token bound to a single purpose, with the TTL
// configured for that purpose.
func (t *TokenIssuer) IssuePurposeToken(userID, email string, purpose domain.TokenPurpose) (string, error) {
	if !purpose.Valid() {
		return "", fmt.Errorf("unknown token purpose %q", purpose)
	}

	ttl := t.cfg.EmailVerificationTTL
	if purpose == domain.PurposePasswordReset {
		ttl = t.cfg.PasswordResetTTL
	}

	return t.issue(userID, email, string(purpose), ttl)
}

func (t *TokenIssuer) issue(userID, email, purpose string, ttl time.Duration) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", errors.New("user id is required")
	}

	now := t.now()
	claims := sessionClaims{
		Email:   strings.TrimSpace(email),
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := t.signer.Sign(&claims)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifySessionToken validates the signature and expiry of a session token
// and returns the embedded identity. Purpose-scoped tokens are rejected.
func (t *TokenIssuer) VerifySessionToken(raw string) (*domain.SessionToken, error) {
	claims, err := t.parse(raw)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != "" {
		return nil, ErrWrongPurpose
	}

	return &domain.SessionToken{
		UserID:    claims.Subject,
		Email:     claims.Email,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// ValidatePurposeToken validates a purpose-scoped token and returns the
// embedded identity. A token minted for a different purpose, or a plain
// session token, fails with ErrWrongPurpose; a token with no purpose claim
// at all is malformed for this path.
func (t *TokenIssuer) ValidatePurposeToken(raw string, purpose domain.TokenPurpose) (*domain.SessionToken, error) {
	claims, err := t.parse(raw)
	if err != nil {
		return nil, err
	}

	if claims.Purpose == "" {
		return nil, ErrTokenMalformed
	}
	if claims.Purpose != string(purpose) {
		return nil, ErrWrongPurpose
	}

	return &domain.SessionToken{
		UserID:    claims.Subject,
		Email:     claims.Email,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (t *TokenIssuer) parse(raw string) (*sessionClaims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrTokenMalformed
	}

	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, t.signer.Keyfunc,
		jwt.WithValidMethods([]string{t.signer.Method().Alg()}),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, ErrVerificationKeyMissing):
			return nil, ErrVerificationKeyMissing
		default:
			return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		}
	}

	if claims.Subject == "" || claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}
