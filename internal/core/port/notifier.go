package port

import (
	"context"

	"github.com/Samdav2/confess-api/internal/core/domain"
)

// NotificationPublisher hands notification requests to the downstream
// delivery pipeline. Publishing is fire-and-forget from the caller's point
// of view: failures are logged by the caller and never surfaced to the
// request path.
type NotificationPublisher interface {
	PublishVerificationCode(ctx context.Context, event domain.VerificationCodeIssuedEvent) error
	PublishVerificationLink(ctx context.Context, event domain.VerificationLinkIssuedEvent) error
	PublishEmailVerified(ctx context.Context, event domain.EmailVerifiedEvent) error
	PublishPasswordResetRequested(ctx context.Context, event domain.PasswordResetRequestedEvent) error
	PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error
	PublishUserSignedUp(ctx context.Context, event domain.UserSignedUpEvent) error
}
