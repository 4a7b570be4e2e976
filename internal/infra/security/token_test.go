package security

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/Samdav2/confess-api/internal/core/domain"
)

func newRSAIssuer(t *testing.T, cfg TokenIssuerConfig) *TokenIssuer {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}

	signer, err := NewRS256Signer(&KeyPair{Private: key, Public: &key.PublicKey})
	if err != nil {
		t.Fatalf("NewRS256Signer: %v", err)
	}

	return NewTokenIssuer(signer, cfg)
}

func TestSessionTokenRoundTrip(t *testing.T) {
	issuer := newRSAIssuer(t, TokenIssuerConfig{SessionTTL: 30 * time.Minute})

	raw, err := issuer.IssueSessionToken("user-1", "ada@example.com")
	if err != nil {
		t.Fatalf("IssueSessionToken returned error: %v", err)
	}

	token, err := issuer.VerifySessionToken(raw)
	if err != nil {
		t.Fatalf("VerifySessionToken returned error: %v", err)
	}

	if token.UserID != "user-1" {
		t.Fatalf("unexpected user id %q", token.UserID)
	}
	if token.Email != "ada@example.com" {
		t.Fatalf("unexpected email %q", token.Email)
	}
	if got := token.ExpiresAt.Sub(token.IssuedAt); got != 30*time.Minute {
		t.Fatalf("unexpected token lifetime %s", got)
	}
}

func TestSessionTokenExpires(t *testing.T) {
	issuer := newRSAIssuer(t, TokenIssuerConfig{SessionTTL: time.Minute})

	base := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	now := base
	issuer.WithClock(func() time.Time { return now })

	raw, err := issuer.IssueSessionToken("user-1", "ada@example.com")
	if err != nil {
		t.Fatalf("IssueSessionToken returned error: %v", err)
	}

	now = base.Add(2 * time.Minute)
	if _, err := issuer.VerifySessionToken(raw); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestSessionTokenTamperedSignature(t *testing.T) {
	issuer := newRSAIssuer(t, TokenIssuerConfig{})

	raw, err := issuer.IssueSessionToken("user-1", "ada@example.com")
	if err != nil {
		t.Fatalf("IssueSessionToken returned error: %v", err)
	}

	tampered := raw[:len(raw)-2] + "xx"
	if _, err := issuer.VerifySessionToken(tampered); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed, got %v", err)
	}
}

func TestSessionTokenRejectedByOtherKey(t *testing.T) {
	issuerA := newRSAIssuer(t, TokenIssuerConfig{})
	issuerB := newRSAIssuer(t, TokenIssuerConfig{})

	raw, err := issuerA.IssueSessionToken("user-1", "ada@example.com")
	if err != nil {
		t.Fatalf("IssueSessionToken returned error: %v", err)
	}

	if _, err := issuerB.VerifySessionToken(raw); err == nil {
		t.Fatal("token signed by a different key must not verify")
	}
}

func TestPurposeTokenRoundTrip(t *testing.T) {
	issuer := newRSAIssuer(t, TokenIssuerConfig{
		EmailVerificationTTL: 24 * time.Hour,
		PasswordResetTTL:     time.Hour,
	})

	for _, purpose := range []domain.TokenPurpose{domain.PurposeEmailVerification, domain.PurposePasswordReset} {
		raw, err := issuer.IssuePurposeToken("user-1", "ada@example.com", purpose)
		if err != nil {
			t.Fatalf("IssuePurposeToken(%s) returned error: %v", purpose, err)
		}

		token, err := issuer.ValidatePurposeToken(raw, purpose)
		if err != nil {
			t.Fatalf("ValidatePurposeToken(%s) returned error: %v", purpose, err)
		}
		if token.UserID != "user-1" {
			t.Fatalf("unexpected user id %q", token.UserID)
		}
	}
}

func TestPurposeTokenLifetimesDiffer(t *testing.T) {
	issuer := newRSAIssuer(t, TokenIssuerConfig{
		EmailVerificationTTL: 24 * time.Hour,
		PasswordResetTTL:     time.Hour,
	})

	verifyRaw, err := issuer.IssuePurposeToken("user-1", "ada@example.com", domain.PurposeEmailVerification)
	if err != nil {
		t.Fatalf("IssuePurposeToken returned error: %v", err)
	}
	resetRaw, err := issuer.IssuePurposeToken("user-1", "ada@example.com", domain.PurposePasswordReset)
	if err != nil {
		t.Fatalf("IssuePurposeToken returned error: %v", err)
	}

	verifyToken, err := issuer.ValidatePurposeToken(verifyRaw, domain.PurposeEmailVerification)
	if err != nil {
		t.Fatalf("ValidatePurposeToken returned error: %v", err)
	}
	resetToken, err := issuer.ValidatePurposeToken(resetRaw, domain.PurposePasswordReset)
	if err != nil {
		t.Fatalf("ValidatePurposeToken returned error: %v", err)
	}

	if got := verifyToken.ExpiresAt.Sub(verifyToken.IssuedAt); got != 24*time.Hour {
		t.Fatalf("unexpected email verification lifetime %s", got)
	}
	if got := resetToken.ExpiresAt.Sub(resetToken.IssuedAt); got != time.Hour {
		t.Fatalf("unexpected password reset lifetime %s", got)
	}
}

func TestPurposeTokenWrongPurpose(t *testing.T) {
	issuer := newRSAIssuer(t, TokenIssuerConfig{})

	raw, err := issuer.IssuePurposeToken("user-1", "ada@example.com", domain.PurposeEmailVerification)
	if err != nil {
		t.Fatalf("IssuePurposeToken returned error: %v", err)
	}

	if _, err := issuer.ValidatePurposeToken(raw, domain.PurposePasswordReset); !errors.Is(err, ErrWrongPurpose) {
		t.Fatalf("expected ErrWrongPurpose, got %v", err)
	}
}

func TestSessionTokenRejectedAsPurposeToken(t *testing.T) {
	issuer := newRSAIssuer(t, TokenIssuerConfig{})

	raw, err := issuer.IssueSessionToken("user-1", "ada@example.com")
	if err != nil {
		t.Fatalf("IssueSessionToken returned error: %v", err)
	}

	if _, err := issuer.ValidatePurposeToken(raw, domain.PurposePasswordReset); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed for token without purpose, got %v", err)
	}
}

func TestPurposeTokenRejectedAsSessionToken(t *testing.T) {
	issuer := newRSAIssuer(t, TokenIssuerConfig{})

	raw, err := issuer.IssuePurposeToken("user-1", "ada@example.com", domain.PurposeEmailVerification)
	if err != nil {
		t.Fatalf("IssuePurposeToken returned error: %v", err)
	}

	if _, err := issuer.VerifySessionToken(raw); !errors.Is(err, ErrWrongPurpose) {
		t.Fatalf("expected ErrWrongPurpose, got %v", err)
	}
}

func TestES256SignerRoundTrip(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate ecdsa key: %v", err)
	}

	signer, err := NewES256Signer(&KeyPair{Private: key, Public: &key.PublicKey})
	if err != nil {
		t.Fatalf("NewES256Signer: %v", err)
	}

	issuer := NewTokenIssuer(signer, TokenIssuerConfig{})
	raw, err := issuer.IssueSessionToken("user-9", "grace@example.com")
	if err != nil {
		t.Fatalf("IssueSessionToken returned error: %v", err)
	}

	token, err := issuer.VerifySessionToken(raw)
	if err != nil {
		t.Fatalf("VerifySessionToken returned error: %v", err)
	}
	if token.Email != "grace@example.com" {
		t.Fatalf("unexpected email %q", token.Email)
	}
}

func TestVerifyOnlySignerCannotSign(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}

	signer, err := NewRS256Signer(&KeyPair{Public: &key.PublicKey})
	if err != nil {
		t.Fatalf("NewRS256Signer: %v", err)
	}

	issuer := NewTokenIssuer(signer, TokenIssuerConfig{})
	if _, err := issuer.IssueSessionToken("user-1", "ada@example.com"); !errors.Is(err, ErrSigningKeyMissing) {
		t.Fatalf("expected ErrSigningKeyMissing, got %v", err)
	}
}

func TestGenerateVerificationCodeRange(t *testing.T) {
	for i := 0; i < 64; i++ {
		code, err := GenerateVerificationCode()
		if err != nil {
			t.Fatalf("GenerateVerificationCode returned error: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("code %q is not six digits", code)
		}

		n, err := strconv.Atoi(code)
		if err != nil {
			t.Fatalf("code %q is not numeric: %v", code, err)
		}
		if n < 100000 || n > 999999 {
			t.Fatalf("code %d outside [100000, 999999]", n)
		}
	}
}

func TestGenerateReferralCodeShape(t *testing.T) {
	code, err := GenerateReferralCode("samson")
	if err != nil {
		t.Fatalf("GenerateReferralCode returned error: %v", err)
	}

	if len(code) != 11 {
		t.Fatalf("unexpected referral code length %d (%q)", len(code), code)
	}
	if code[:3] != "SAM" {
		t.Fatalf("prefix not derived from username: %q", code)
	}
	if code[3:5] != "CS" {
		t.Fatalf("missing CS marker: %q", code)
	}
	for _, r := range code[5:] {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			t.Fatalf("suffix character %q outside alphabet in %q", r, code)
		}
	}
}

func TestGenerateReferralCodeShortUsername(t *testing.T) {
	code, err := GenerateReferralCode("al")
	if err != nil {
		t.Fatalf("GenerateReferralCode returned error: %v", err)
	}
	if code[:4] != "ALCS" {
		t.Fatalf("short usernames keep their full prefix: %q", code)
	}
}
