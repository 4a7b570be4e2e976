package port

import (
	"context"
	"time"

	"github.com/Samdav2/confess-api/internal/core/domain"
)

// UserRepository exposes persistence behavior for users. Email and referral
// code carry uniqueness constraints enforced by the backing store;
// violations surface as repository.ConflictError.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	SetEmailVerified(ctx context.Context, id string, verifiedAt time.Time) error
	UpdatePassword(ctx context.Context, id string, passwordHash string, changedAt time.Time) error
}
