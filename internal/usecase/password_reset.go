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
	// ErrResetTokenInvalid indicates a malformed or wrongly scoped reset token.
	ErrResetTokenInvalid = errors.New("invalid reset token")
	// ErrResetTokenExpired indicates the reset token lapsed.
	ErrResetTokenExpired = errors.New("reset token expired")
)

// PasswordResetService drives the forgot/reset password flow over
// single-purpose signed tokens. The stored credential is only ever mutated
// after the token and the new password both pass validation.
type PasswordResetService struct {
	users     port.UserRepository
	issuer    *security.TokenIssuer
	notifier  port.NotificationPublisher
	validator *security.PasswordValidator
	baseURL   string
	resetTTL  time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewPasswordResetService constructs a PasswordResetService instance.
func NewPasswordResetService(
	users port.UserRepository,
	issuer *security.TokenIssuer,
	notifier port.NotificationPublisher,
	validator *security.PasswordValidator,
	baseURL string,
	resetTTL time.Duration,
	log *zap.Logger,
) *PasswordResetService {
	if validator == nil {
		validator = security.DefaultPasswordValidator()
	}
	if resetTTL <= 0 {
		resetTTL = time.Hour
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &PasswordResetService{
		users:     users,
		issuer:    issuer,
		notifier:  notifier,
		validator: validator,
		baseURL:   strings.TrimRight(baseURL, "/"),
		resetTTL:  resetTTL,
		logger:    log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the service clock, used in tests.
func (s *PasswordResetService) WithClock(now func() time.Time) *PasswordResetService {
	if now != nil {
		s.now = now
	}
	return s
}

// Request issues a password reset link for the email. The outcome is the
// same whether or not an account exists; unknown addresses get no token
// and no notification.
func (s *PasswordResetService) Request(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("email is required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Debug("password reset requested for unknown email",
				zap.String("email", logger.MaskEmail(email)))
			return nil
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	token, err := s.issuer.IssuePurposeToken(user.ID, user.Email, domain.PurposePasswordReset)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}

	now := s.now()
	event := domain.PasswordResetRequestedEvent{
		EventID:     uuid.NewString(),
		UserID:      user.ID,
		Email:       user.Email,
		Username:    user.Username,
		ResetLink:   fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, url.QueryEscape(token)),
		RequestedAt: now,
		ExpiresAt:   now.Add(s.resetTTL),
	}
	if err := s.notifier.PublishPasswordResetRequested(ctx, event); err != nil {
		s.logger.Warn("publish password reset request failed",
			zap.Error(err), zap.String("user_id", user.ID))
	}

	return nil
}

// Confirm validates the reset token and replaces the password. Every
// failure path leaves the stored credential untouched.
func (s *PasswordResetService) Confirm(ctx context.Context, rawToken, newPassword string) error {
	claims, err := s.issuer.ValidatePurposeToken(rawToken, domain.PurposePasswordReset)
	if err != nil {
		switch {
		case errors.Is(err, security.ErrTokenExpired):
			return ErrResetTokenExpired
		default:
			return ErrResetTokenInvalid
		}
	}

	if err := s.validator.Validate(newPassword); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	if !strings.EqualFold(user.Email, claims.Email) {
		return ErrEmailMismatch
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	if err := s.users.UpdatePassword(ctx, user.ID, hash, now); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	event := domain.PasswordChangedEvent{
		EventID:   uuid.NewString(),
		UserID:    user.ID,
		Email:     user.Email,
		Username:  user.Username,
		ChangedAt: now,
	}
	if err := s.notifier.PublishPasswordChanged(ctx, event); err != nil {
		s.logger.Warn("publish password changed failed",
			zap.Error(err), zap.String("user_id", user.ID))
	}

	return nil
}
