package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/Samdav2/confess-api/internal/core/port"
)

const (
	defaultKeyPrefix = "confess:verify"

	fieldCode      = "code"
	fieldUserID    = "user_id"
	fieldCreatedAt = "created_at"
)

// CodeStore persists verification codes in Redis so every instance of the
// service shares one view of live codes. Expiry is delegated to Redis key
// TTLs; eviction beyond that is left to the server's maxmemory policy.
type CodeStore struct {
	client *red.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewCodeStore constructs a Redis-backed code store with the provided key
// prefix and entry TTL.
func NewCodeStore(client *red.Client, keyPrefix string, ttl time.Duration) *CodeStore {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &CodeStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock overrides the internal clock, used in tests.
func (s *CodeStore) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Store persists a code for the email, replacing any live entry.
func (s *CodeStore) Store(ctx context.Context, email, code, userID string) error {
	key := s.key(email)
	if key == "" {
		return errors.New("email is required")
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return errors.New("code is required")
	}

	now := s.now().UTC()

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, map[string]any{
		fieldCode:      code,
		fieldUserID:    userID,
		fieldCreatedAt: strconv.FormatInt(now.Unix(), 10),
	})
	pipe.Expire(ctx, key, s.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis store verification code: %w", err)
	}

	return nil
}

// CheckAndConsume compares the submitted code against the stored entry.
// A match deletes the key; a mismatch leaves it so the user can retry
// until the TTL lapses.
func (s *CodeStore) CheckAndConsume(ctx context.Context, email, code string) (string, error) {
	key := s.key(email)
	if key == "" {
		return "", port.ErrCodeNotFound
	}

	values, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return "", fmt.Errorf("redis fetch verification code: %w", err)
	}
	if len(values) == 0 || strings.TrimSpace(values[fieldCode]) == "" {
		return "", port.ErrCodeNotFound
	}

	if values[fieldCode] != strings.TrimSpace(code) {
		return "", port.ErrCodeMismatch
	}

	if err := s.client.Del(ctx, key).Err(); err != nil {
		return "", fmt.Errorf("redis consume verification code: %w", err)
	}

	return values[fieldUserID], nil
}

func (s *CodeStore) key(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s", s.prefix, email)
}

var _ port.VerificationCodeStore = (*CodeStore)(nil)
