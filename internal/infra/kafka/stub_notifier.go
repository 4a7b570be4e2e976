package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Samdav2/confess-api/internal/core/domain"
	"github.com/Samdav2/confess-api/internal/core/port"
	"github.com/Samdav2/confess-api/internal/infra/logger"
)

// StubPublisher logs notification events instead of sending them to Kafka.
// Selected automatically when no brokers are configured. Codes and links are
// logged in full so local development can complete the flows without a mail
// pipeline.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly notification publisher.
func NewStubPublisher(log *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: log}
}

func (p *StubPublisher) logEvent(eventType, userID, email string, at time.Time, fields ...zap.Field) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	base := []zap.Field{
		zap.String("event_type", eventType),
		zap.String("user_id", userID),
		zap.String("email", logger.MaskEmail(email)),
		zap.Time("timestamp", at.UTC()),
	}
	p.logger.Info("Stub notification published", append(base, fields...)...)
}

func (p *StubPublisher) PublishVerificationCode(_ context.Context, event domain.VerificationCodeIssuedEvent) error {
	p.logEvent("auth.verification.code_issued", event.UserID, event.Email, event.IssuedAt,
		zap.String("code", event.Code),
		zap.Time("expires_at", event.ExpiresAt),
	)
	return nil
}

func (p *StubPublisher) PublishVerificationLink(_ context.Context, event domain.VerificationLinkIssuedEvent) error {
	p.logEvent("auth.verification.link_issued", event.UserID, event.Email, event.IssuedAt,
		zap.String("link", event.Link),
		zap.Time("expires_at", event.ExpiresAt),
	)
	return nil
}

func (p *StubPublisher) PublishEmailVerified(_ context.Context, event domain.EmailVerifiedEvent) error {
	p.logEvent("auth.email.verified", event.UserID, event.Email, event.VerifiedAt)
	return nil
}

func (p *StubPublisher) PublishPasswordResetRequested(_ context.Context, event domain.PasswordResetRequestedEvent) error {
	p.logEvent("auth.password.reset_requested", event.UserID, event.Email, event.RequestedAt,
		zap.String("reset_link", event.ResetLink),
		zap.Time("expires_at", event.ExpiresAt),
	)
	return nil
}

func (p *StubPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	p.logEvent("auth.password.changed", event.UserID, event.Email, event.ChangedAt)
	return nil
}

func (p *StubPublisher) PublishUserSignedUp(_ context.Context, event domain.UserSignedUpEvent) error {
	p.logEvent("auth.user.signed_up", event.UserID, event.Email, event.SignedUpAt,
		zap.String("username", event.Username),
		zap.String("referral_code", event.ReferralCode),
		zap.Bool("federated", event.Federated),
	)
	return nil
}

var _ port.NotificationPublisher = (*StubPublisher)(nil)
