package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Samdav2/confess-api/internal/core/domain"
	"github.com/Samdav2/confess-api/internal/core/port"
	"github.com/Samdav2/confess-api/internal/infra/config"
)

const schemaVersion = "1.0"

// NotificationPublisher implements port.NotificationPublisher over Kafka.
// Each event type maps to its own topic; the notification worker on the
// other side renders the email and delivers it.
type NotificationPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewNotificationPublisher constructs a Kafka-backed notification publisher.
func NewNotificationPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *NotificationPublisher {
	return &NotificationPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type eventEnvelope struct {
	EventID   string            `json:"event_id"`
	EventType string            `json:"event_type"`
	UserID    string            `json:"user_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Payload   any               `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (p *NotificationPublisher) publish(ctx context.Context, eventID, eventType, userID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		UserID:    userID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata: map[string]string{
			"service":     p.appCfg.Name,
			"environment": p.appCfg.Env,
		},
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Key:   sarama.StringEncoder(userID),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishVerificationCode publishes auth.verification.code_issued events.
func (p *NotificationPublisher) PublishVerificationCode(ctx context.Context, event domain.VerificationCodeIssuedEvent) error {
	payload := struct {
		UserID    string    `json:"user_id"`
		Username  string    `json:"username"`
		Email     string    `json:"email"`
		Code      string    `json:"code"`
		IssuedAt  time.Time `json:"issued_at"`
		ExpiresAt time.Time `json:"expires_at"`
	}{
		UserID:    event.UserID,
		Username:  event.Username,
		Email:     event.Email,
		Code:      event.Code,
		IssuedAt:  event.IssuedAt.UTC(),
		ExpiresAt: event.ExpiresAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "auth.verification.code_issued", event.UserID, event.IssuedAt, payload)
}

// PublishVerificationLink publishes auth.verification.link_issued events.
func (p *NotificationPublisher) PublishVerificationLink(ctx context.Context, event domain.VerificationLinkIssuedEvent) error {
	payload := struct {
		UserID    string    `json:"user_id"`
		Username  string    `json:"username"`
		Email     string    `json:"email"`
		Link      string    `json:"link"`
		IssuedAt  time.Time `json:"issued_at"`
		ExpiresAt time.Time `json:"expires_at"`
	}{
		UserID:    event.UserID,
		Username:  event.Username,
		Email:     event.Email,
		Link:      event.Link,
		IssuedAt:  event.IssuedAt.UTC(),
		ExpiresAt: event.ExpiresAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "auth.verification.link_issued", event.UserID, event.IssuedAt, payload)
}

// PublishEmailVerified publishes auth.email.verified events.
func (p *NotificationPublisher) PublishEmailVerified(ctx context.Context, event domain.EmailVerifiedEvent) error {
	payload := struct {
		UserID     string    `json:"user_id"`
		Username   string    `json:"username"`
		Email      string    `json:"email"`
		VerifiedAt time.Time `json:"verified_at"`
	}{
		UserID:     event.UserID,
		Username:   event.Username,
		Email:      event.Email,
		VerifiedAt: event.VerifiedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "auth.email.verified", event.UserID, event.VerifiedAt, payload)
}

// PublishPasswordResetRequested publishes auth.password.reset_requested events.
func (p *NotificationPublisher) PublishPasswordResetRequested(ctx context.Context, event domain.PasswordResetRequestedEvent) error {
	payload := struct {
		UserID      string    `json:"user_id"`
		Username    string    `json:"username"`
		Email       string    `json:"email"`
		ResetLink   string    `json:"reset_link"`
		RequestedAt time.Time `json:"requested_at"`
		ExpiresAt   time.Time `json:"expires_at"`
	}{
		UserID:      event.UserID,
		Username:    event.Username,
		Email:       event.Email,
		ResetLink:   event.ResetLink,
		RequestedAt: event.RequestedAt.UTC(),
		ExpiresAt:   event.ExpiresAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "auth.password.reset_requested", event.UserID, event.RequestedAt, payload)
}

// PublishPasswordChanged publishes auth.password.changed events.
func (p *NotificationPublisher) PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error {
	payload := struct {
		UserID    string    `json:"user_id"`
		Username  string    `json:"username"`
		Email     string    `json:"email"`
		ChangedAt time.Time `json:"changed_at"`
	}{
		UserID:    event.UserID,
		Username:  event.Username,
		Email:     event.Email,
		ChangedAt: event.ChangedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "auth.password.changed", event.UserID, event.ChangedAt, payload)
}

// PublishUserSignedUp publishes auth.user.signed_up events.
func (p *NotificationPublisher) PublishUserSignedUp(ctx context.Context, event domain.UserSignedUpEvent) error {
	payload := struct {
		UserID       string    `json:"user_id"`
		Username     string    `json:"username"`
		Email        string    `json:"email"`
		ReferralCode string    `json:"referral_code"`
		Federated    bool      `json:"federated"`
		SignedUpAt   time.Time `json:"signed_up_at"`
	}{
		UserID:       event.UserID,
		Username:     event.Username,
		Email:        event.Email,
		ReferralCode: event.ReferralCode,
		Federated:    event.Federated,
		SignedUpAt:   event.SignedUpAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "auth.user.signed_up", event.UserID, event.SignedUpAt, payload)
}

var _ port.NotificationPublisher = (*NotificationPublisher)(nil)
