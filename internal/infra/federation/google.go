package federation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/Samdav2/confess-api/internal/core/port"
	"github.com/Samdav2/confess-api/internal/infra/config"
)

const googleIssuer = "https://accounts.google.com"

// googleClaims mirrors the subset of Google ID token claims the service
// consumes.
type googleClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	GivenName     string `json:"given_name"`
	jwt.RegisteredClaims
}

// GoogleVerifier validates Google-issued ID tokens against Google's JWKS
// endpoint and implements port.FederatedVerifier.
type GoogleVerifier struct {
	jwks     *keyfunc.JWKS
	clientID string
	logger   *zap.Logger
}

// NewGoogleVerifier fetches Google's JWK Set and starts the background
// refresh loop. The returned verifier is safe for concurrent use; call
// Close on shutdown to stop the refresh goroutine.
func NewGoogleVerifier(cfg config.GoogleSettings, log *zap.Logger) (*GoogleVerifier, error) {
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, fmt.Errorf("google client id is required")
	}

	jwks, err := keyfunc.Get(cfg.JWKSURL, keyfunc.Options{
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			log.Warn("google jwks refresh failed", zap.Error(err))
		},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch google jwks: %w", err)
	}

	return &GoogleVerifier{
		jwks:     jwks,
		clientID: cfg.ClientID,
		logger:   log,
	}, nil
}

// Verify validates the raw ID token's signature, issuer, audience, and
// expiry, and extracts the asserted identity. Any validation failure maps
// to port.ErrAssertionInvalid; callers must not leak the underlying cause
// to clients.
func (v *GoogleVerifier) Verify(ctx context.Context, rawToken string) (*port.FederatedIdentity, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, port.ErrAssertionInvalid
	}

	claims := &googleClaims{}
	_, err := jwt.ParseWithClaims(rawToken, claims, v.jwks.Keyfunc,
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(googleIssuer),
		jwt.WithAudience(v.clientID),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		v.logger.Debug("google id token rejected", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", port.ErrAssertionInvalid, err)
	}

	email := strings.ToLower(strings.TrimSpace(claims.Email))
	if email == "" {
		return nil, fmt.Errorf("%w: missing email claim", port.ErrAssertionInvalid)
	}

	return &port.FederatedIdentity{
		Email:     email,
		GivenName: strings.TrimSpace(claims.GivenName),
	}, nil
}

// Close stops the background JWKS refresh loop.
func (v *GoogleVerifier) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}

var _ port.FederatedVerifier = (*GoogleVerifier)(nil)
