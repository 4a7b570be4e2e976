package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Samdav2/confess-api/internal/core/domain"
	"github.com/Samdav2/confess-api/internal/core/port"
	"github.com/Samdav2/confess-api/internal/infra/logger"
	"github.com/Samdav2/confess-api/internal/infra/security"
	"github.com/Samdav2/confess-api/internal/repository"
)

var (
	// ErrUserNotFound indicates no account exists for the email.
	ErrUserNotFound = errors.New("user not found")
	// ErrAlreadyVerified indicates the account's email is already verified.
	ErrAlreadyVerified = errors.New("email already verified")
	// ErrEmailMismatch indicates the account's current email no longer
	// matches the address the code or token was issued for.
	ErrEmailMismatch = errors.New("email does not match")
	// ErrVerificationTokenInvalid indicates a malformed or wrongly scoped
	// verification token.
	ErrVerificationTokenInvalid = errors.New("invalid verification token")
	// ErrVerificationTokenExpired indicates the verification token lapsed.
	ErrVerificationTokenExpired = errors.New("verification token expired")
)

// VerificationService drives the email verification flows. Two channels
// share the same verified transition: a short-lived six digit code checked
// against the code store, and a signed purpose token delivered as a link.
type VerificationService struct {
	users    port.UserRepository
	codes    port.VerificationCodeStore
	issuer   *security.TokenIssuer
	notifier port.NotificationPublisher
	baseURL  string
	codeTTL  time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewVerificationService constructs a VerificationService instance.
func NewVerificationService(
	users port.UserRepository,
	codes port.VerificationCodeStore,
	issuer *security.TokenIssuer,
	notifier port.NotificationPublisher,
	baseURL string,
	codeTTL time.Duration,
	log *zap.Logger,
) *VerificationService {
	if codeTTL <= 0 {
		codeTTL = 5 * time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &VerificationService{
		users:    users,
		codes:    codes,
		issuer:   issuer,
		notifier: notifier,
		baseURL:  strings.TrimRight(baseURL, "/"),
		codeTTL:  codeTTL,
		logger:   log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the service clock, used in tests.
func (s *VerificationService) WithClock(now func() time.Time) *VerificationService {
	if now != nil {
		s.now = now
	}
	return s
}

// SendCode issues a fresh verification code for the email. The outcome is
// identical whether or not an account exists so the endpoint cannot be
// used to probe for registered addresses; absent users produce no stored
// code and no notification.
func (s *VerificationService) SendCode(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("email is required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Debug("verification code requested for unknown email",
				zap.String("email", logger.MaskEmail(email)))
			return nil
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	if user.EmailVerified {
		return nil
	}

	return s.issueCode(ctx, user)
}

// ResendForUser issues a fresh code for an authenticated user. Unlike
// SendCode the caller has proven who they are, so the already-verified
// state is revealed.
func (s *VerificationService) ResendForUser(ctx context.Context, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	if user.EmailVerified {
		return ErrAlreadyVerified
	}

	return s.issueCode(ctx, user)
}

func (s *VerificationService) issueCode(ctx context.Context, user *domain.User) error {
	code, err := security.GenerateVerificationCode()
	if err != nil {
		return fmt.Errorf("generate verification code: %w", err)
	}

	if err := s.codes.Store(ctx, user.Email, code, user.ID); err != nil {
		return fmt.Errorf("store verification code: %w", err)
	}

	now := s.now()
	event := domain.VerificationCodeIssuedEvent{
		EventID:   uuid.NewString(),
		UserID:    user.ID,
		Email:     user.Email,
		Username:  user.Username,
		Code:      code,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.codeTTL),
	}
	if err := s.notifier.PublishVerificationCode(ctx, event); err != nil {
		s.logger.Warn("publish verification code failed",
			zap.Error(err), zap.String("user_id", user.ID))
	}

	return nil
}

// ConfirmWithCode consumes the code and marks the account verified. On
// success a fresh session token is returned so the client proceeds
// authenticated.
func (s *VerificationService) ConfirmWithCode(ctx context.Context, email, code string) (*domain.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return nil, "", fmt.Errorf("email and code are required")
	}

	userID, err := s.codes.CheckAndConsume(ctx, email, code)
	if err != nil {
		return nil, "", err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrUserNotFound
		}
		return nil, "", fmt.Errorf("lookup user: %w", err)
	}

	if !strings.EqualFold(user.Email, email) {
		return nil, "", ErrEmailMismatch
	}
	if user.EmailVerified {
		return nil, "", ErrAlreadyVerified
	}

	if err := s.markVerified(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.issuer.IssueSessionToken(user.ID, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("issue session token: %w", err)
	}

	sanitized := *user
	sanitized.PasswordHash = ""
	sanitized.EmailVerified = true
	return &sanitized, token, nil
}

// SendLink issues a link-based verification token for the email. Carries
// the same anti-enumeration behavior as SendCode.
func (s *VerificationService) SendLink(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("email is required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	if user.EmailVerified {
		return nil
	}

	token, err := s.issuer.IssuePurposeToken(user.ID, user.Email, domain.PurposeEmailVerification)
	if err != nil {
		return fmt.Errorf("issue verification token: %w", err)
	}

	now := s.now()
	event := domain.VerificationLinkIssuedEvent{
		EventID:   uuid.NewString(),
		UserID:    user.ID,
		Email:     user.Email,
		Username:  user.Username,
		Link:      fmt.Sprintf("%s/verify-email?token=%s", s.baseURL, url.QueryEscape(token)),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.issuer.PurposeTTL(domain.PurposeEmailVerification)),
	}
	if err := s.notifier.PublishVerificationLink(ctx, event); err != nil {
		s.logger.Warn("publish verification link failed",
			zap.Error(err), zap.String("user_id", user.ID))
	}

	return nil
}

// ConfirmWithToken validates a link-channel verification token and marks
// the account verified, with the same post-conditions as ConfirmWithCode.
func (s *VerificationService) ConfirmWithToken(ctx context.Context, rawToken string) (*domain.User, string, error) {
	claims, err := s.issuer.ValidatePurposeToken(rawToken, domain.PurposeEmailVerification)
	if err != nil {
		switch {
		case errors.Is(err, security.ErrTokenExpired):
			return nil, "", ErrVerificationTokenExpired
		default:
			return nil, "", ErrVerificationTokenInvalid
		}
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrUserNotFound
		}
		return nil, "", fmt.Errorf("lookup user: %w", err)
	}

	if !strings.EqualFold(user.Email, claims.Email) {
		return nil, "", ErrEmailMismatch
	}
	if user.EmailVerified {
		return nil, "", ErrAlreadyVerified
	}

	if err := s.markVerified(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.issuer.IssueSessionToken(user.ID, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("issue session token: %w", err)
	}

	sanitized := *user
	sanitized.PasswordHash = ""
	sanitized.EmailVerified = true
	return &sanitized, token, nil
}

func (s *VerificationService) markVerified(ctx context.Context, user *domain.User) error {
	now := s.now()
	if err := s.users.SetEmailVerified(ctx, user.ID, now); err != nil {
		return fmt.Errorf("mark email verified: %w", err)
	}

	event := domain.EmailVerifiedEvent{
		EventID:    uuid.NewString(),
		UserID:     user.ID,
		Email:      user.Email,
		Username:   user.Username,
		VerifiedAt: now,
	}
	if err := s.notifier.PublishEmailVerified(ctx, event); err != nil {
		s.logger.Warn("publish email verified failed",
			zap.Error(err), zap.String("user_id", user.ID))
	}

	return nil
}
