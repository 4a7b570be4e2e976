package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Samdav2/confess-api/internal/core/port"
)

const (
	defaultCodeTTL    = 5 * time.Minute
	defaultMaxEntries = 1000
)

type codeEntry struct {
	code      string
	userID    string
	createdAt time.Time
}

// CodeStore is an in-process VerificationCodeStore. Entries expire after a
// fixed TTL and the store holds a bounded number of entries, evicting the
// oldest when full. Suitable for single-instance deployments; a multi-node
// deployment needs the Redis-backed store so every node sees the same codes.
type CodeStore struct {
	mu         sync.Mutex
	entries    map[string]codeEntry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// NewCodeStore constructs an in-memory code store. Non-positive ttl or
// maxEntries fall back to defaults.
func NewCodeStore(ttl time.Duration, maxEntries int) *CodeStore {
	if ttl <= 0 {
		ttl = defaultCodeTTL
	}
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}

	return &CodeStore{
		entries:    make(map[string]codeEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the store's time source. Intended for tests.
func (s *CodeStore) WithClock(now func() time.Time) *CodeStore {
	if now != nil {
		s.now = now
	}
	return s
}

// Store records a code for the email, overwriting any live entry for the
// same address.
func (s *CodeStore) Store(_ context.Context, email, code, userID string) error {
	key := normalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneExpiredLocked()

	if _, exists := s.entries[key]; !exists && len(s.entries) >= s.maxEntries {
		s.evictOldestLocked()
	}

	s.entries[key] = codeEntry{
		code:      code,
		userID:    userID,
		createdAt: s.now(),
	}
	return nil
}

// CheckAndConsume compares the submitted code with the stored entry. A
// match deletes the entry and returns the associated user id; a mismatch
// keeps the entry so the user can retry within the window.
func (s *CodeStore) CheckAndConsume(_ context.Context, email, code string) (string, error) {
	key := normalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return "", port.ErrCodeNotFound
	}

	if s.now().Sub(entry.createdAt) >= s.ttl {
		delete(s.entries, key)
		return "", port.ErrCodeNotFound
	}

	if entry.code != code {
		return "", port.ErrCodeMismatch
	}

	delete(s.entries, key)
	return entry.userID, nil
}

func (s *CodeStore) pruneExpiredLocked() {
	now := s.now()
	for key, entry := range s.entries {
		if now.Sub(entry.createdAt) >= s.ttl {
			delete(s.entries, key)
		}
	}
}

func (s *CodeStore) evictOldestLocked() {
	var (
		oldestKey string
		oldestAt  time.Time
	)
	for key, entry := range s.entries {
		if oldestKey == "" || entry.createdAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.createdAt
		}
	}
	if oldestKey != "" {
		delete(s.entries, oldestKey)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var _ port.VerificationCodeStore = (*CodeStore)(nil)
