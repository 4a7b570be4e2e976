package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Samdav2/confess-api/internal/core/domain"
	"github.com/Samdav2/confess-api/internal/core/port"
	"github.com/Samdav2/confess-api/internal/infra/security"
	"github.com/Samdav2/confess-api/internal/repository"
)

var (
	// ErrInvalidCredentials indicates the email or password is incorrect.
	// Also returned for unknown or federated accounts so a caller cannot
	// distinguish the cases.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidSessionToken indicates the presented session token failed
	// validation or references a user that no longer exists.
	ErrInvalidSessionToken = errors.New("invalid session token")
	// ErrSessionExpired indicates the session token expired.
	ErrSessionExpired = errors.New("session expired")
	// ErrInvalidAssertion indicates the federated identity assertion could
	// not be verified or lacked a usable email.
	ErrInvalidAssertion = errors.New("invalid identity assertion")
	// ErrFederatedDisabled indicates no federated identity verifier is
	// configured for this deployment.
	ErrFederatedDisabled = errors.New("federated authentication is not configured")
)

// AuthService coordinates credential and federated authentication flows.
type AuthService struct {
	users    port.UserRepository
	issuer   *security.TokenIssuer
	verifier port.FederatedVerifier
	notifier port.NotificationPublisher
	logger   *zap.Logger
	now      func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(
	users port.UserRepository,
	issuer *security.TokenIssuer,
	verifier port.FederatedVerifier,
	notifier port.NotificationPublisher,
	log *zap.Logger,
) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		users:    users,
		issuer:   issuer,
		verifier: verifier,
		notifier: notifier,
		logger:   log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the service clock, used in tests.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	if now != nil {
		s.now = now
	}
	return s
}

// Login validates the email/password pair and issues a session token.
// Unknown emails, federated accounts, and wrong passwords are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, "", fmt.Errorf("email is required")
	}
	if password == "" {
		return nil, "", fmt.Errorf("password is required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("lookup user: %w", err)
	}

	// Federated accounts hold a placeholder hash and never authenticate
	// through the credential path.
	if user.Federated {
		return nil, "", ErrInvalidCredentials
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, "", fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issuer.IssueSessionToken(user.ID, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("issue session token: %w", err)
	}

	sanitized := *user
	sanitized.PasswordHash = ""
	return &sanitized, token, nil
}

// ParseSessionToken validates a bearer token and resolves the current
// user. Tokens referencing deleted users are invalid.
func (s *AuthService) ParseSessionToken(ctx context.Context, raw string) (*domain.User, error) {
	claims, err := s.issuer.VerifySessionToken(raw)
	if err != nil {
		switch {
		case errors.Is(err, security.ErrTokenExpired):
			return nil, ErrSessionExpired
		default:
			return nil, ErrInvalidSessionToken
		}
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidSessionToken
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	sanitized := *user
	sanitized.PasswordHash = ""
	return &sanitized, nil
}

// FederatedLogin verifies a provider-issued identity assertion and issues
// a session token for the matching account. An email with no account maps
// to ErrInvalidCredentials, deliberately symmetric with local login.
func (s *AuthService) FederatedLogin(ctx context.Context, assertion string) (*domain.User, string, error) {
	if s.verifier == nil {
		return nil, "", ErrFederatedDisabled
	}

	identity, err := s.verifier.Verify(ctx, assertion)
	if err != nil {
		return nil, "", ErrInvalidAssertion
	}

	user, err := s.users.GetByEmail(ctx, identity.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("lookup user: %w", err)
	}

	token, err := s.issuer.IssueSessionToken(user.ID, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("issue session token: %w", err)
	}

	sanitized := *user
	sanitized.PasswordHash = ""
	return &sanitized, token, nil
}

// FederatedSignup provisions an account from a verified identity
// assertion. The account is created verified with a placeholder password
// hash; an existing account for the email is a conflict.
func (s *AuthService) FederatedSignup(ctx context.Context, assertion string) (*domain.User, string, error) {
	if s.verifier == nil {
		return nil, "", ErrFederatedDisabled
	}

	identity, err := s.verifier.Verify(ctx, assertion)
	if err != nil {
		return nil, "", ErrInvalidAssertion
	}

	if _, err := s.users.GetByEmail(ctx, identity.Email); err == nil {
		return nil, "", &repository.ConflictError{Field: "email"}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, "", fmt.Errorf("lookup user: %w", err)
	}

	username := identity.GivenName
	if username == "" {
		username = localPartOf(identity.Email)
	}

	referralCode, err := security.GenerateReferralCode(username)
	if err != nil {
		return nil, "", fmt.Errorf("generate referral code: %w", err)
	}

	// The placeholder hash keeps the column non-null while guaranteeing no
	// password can ever match it.
	placeholderHash, err := security.HashPassword("")
	if err != nil {
		return nil, "", fmt.Errorf("hash placeholder password: %w", err)
	}

	now := s.now()
	user := domain.User{
		ID:            uuid.NewString(),
		Username:      username,
		Email:         identity.Email,
		PasswordHash:  placeholderHash,
		ReferralCode:  referralCode,
		EmailVerified: true,
		Federated:     true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		var conflict *repository.ConflictError
		if errors.As(err, &conflict) {
			return nil, "", conflict
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.issuer.IssueSessionToken(user.ID, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("issue session token: %w", err)
	}

	if s.notifier != nil {
		event := domain.UserSignedUpEvent{
			EventID:      uuid.NewString(),
			UserID:       user.ID,
			Email:        user.Email,
			Username:     user.Username,
			ReferralCode: user.ReferralCode,
			Federated:    true,
			SignedUpAt:   now,
		}
		if err := s.notifier.PublishUserSignedUp(ctx, event); err != nil {
			s.logger.Warn("publish signup notification failed", zap.Error(err), zap.String("user_id", user.ID))
		}
	}

	user.PasswordHash = ""
	return &user, token, nil
}

func localPartOf(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
