package usecase

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Samdav2/confess-api/internal/core/domain"
	"github.com/Samdav2/confess-api/internal/core/port"
	"github.com/Samdav2/confess-api/internal/infra/security"
	"github.com/Samdav2/confess-api/internal/repository"
)

type stubUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User

	createErr error
}

func newStubUserRepo(users ...domain.User) *stubUserRepo {
	repo := &stubUserRepo{users: make(map[string]*domain.User)}
	for i := range users {
		u := users[i]
		repo.users[u.ID] = &u
	}
	return repo
}

func (r *stubUserRepo) Create(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return &repository.ConflictError{Field: "email"}
		}
	}
	stored := user
	r.users[user.ID] = &stored
	return nil
}

func (r *stubUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *stubUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if strings.EqualFold(user.Email, strings.TrimSpace(email)) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubUserRepo) SetEmailVerified(_ context.Context, id string, verifiedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.EmailVerified = true
	user.UpdatedAt = verifiedAt
	return nil
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, id string, passwordHash string, changedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = changedAt
	return nil
}

func (r *stubUserRepo) snapshot(id string) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil
	}
	copied := *user
	return &copied
}

type stubCodeStore struct {
	mu      sync.Mutex
	entries map[string]struct {
		code   string
		userID string
	}
	storeErr error
}

func newStubCodeStore() *stubCodeStore {
	return &stubCodeStore{entries: make(map[string]struct {
		code   string
		userID string
	})}
}

func (s *stubCodeStore) Store(_ context.Context, email, code, userID string) error {
	if s.storeErr != nil {
		return s.storeErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[strings.ToLower(email)] = struct {
		code   string
		userID string
	}{code, userID}
	return nil
}

func (s *stubCodeStore) CheckAndConsume(_ context.Context, email, code string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(email)
	entry, ok := s.entries[key]
	if !ok {
		return "", port.ErrCodeNotFound
	}
	if entry.code != code {
		return "", port.ErrCodeMismatch
	}
	delete(s.entries, key)
	return entry.userID, nil
}

func (s *stubCodeStore) storedCode(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[strings.ToLower(email)].code
}

func (s *stubCodeStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

type recordingNotifier struct {
	mu             sync.Mutex
	codeEvents     []domain.VerificationCodeIssuedEvent
	linkEvents     []domain.VerificationLinkIssuedEvent
	verifiedEvents []domain.EmailVerifiedEvent
	resetEvents    []domain.PasswordResetRequestedEvent
	changedEvents  []domain.PasswordChangedEvent
	signupEvents   []domain.UserSignedUpEvent
}

func (n *recordingNotifier) PublishVerificationCode(_ context.Context, event domain.VerificationCodeIssuedEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.codeEvents = append(n.codeEvents, event)
	return nil
}

func (n *recordingNotifier) PublishVerificationLink(_ context.Context, event domain.VerificationLinkIssuedEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.linkEvents = append(n.linkEvents, event)
	return nil
}

func (n *recordingNotifier) PublishEmailVerified(_ context.Context, event domain.EmailVerifiedEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.verifiedEvents = append(n.verifiedEvents, event)
	return nil
}

func (n *recordingNotifier) PublishPasswordResetRequested(_ context.Context, event domain.PasswordResetRequestedEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resetEvents = append(n.resetEvents, event)
	return nil
}

func (n *recordingNotifier) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changedEvents = append(n.changedEvents, event)
	return nil
}

func (n *recordingNotifier) PublishUserSignedUp(_ context.Context, event domain.UserSignedUpEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.signupEvents = append(n.signupEvents, event)
	return nil
}

type stubVerifier struct {
	identity *port.FederatedIdentity
	err      error
}

func (v *stubVerifier) Verify(_ context.Context, _ string) (*port.FederatedIdentity, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.identity, nil
}

func newTestIssuer(t *testing.T) *security.TokenIssuer {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}

	signer, err := security.NewRS256Signer(&security.KeyPair{Private: key, Public: &key.PublicKey})
	if err != nil {
		t.Fatalf("NewRS256Signer: %v", err)
	}

	return security.NewTokenIssuer(signer, security.TokenIssuerConfig{
		SessionTTL:           30 * time.Minute,
		EmailVerificationTTL: 24 * time.Hour,
		PasswordResetTTL:     time.Hour,
	})
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	return hash
}
