package middleware

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Samdav2/confess-api/internal/core/domain"
	"github.com/Samdav2/confess-api/internal/core/port"
	"github.com/Samdav2/confess-api/internal/infra/security"
	"github.com/Samdav2/confess-api/internal/repository"
	"github.com/Samdav2/confess-api/internal/usecase"
)

type fixedUserRepo struct {
	user *domain.User
}

func (r *fixedUserRepo) Create(context.Context, domain.User) error { return nil }

func (r *fixedUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	if r.user != nil && r.user.ID == id {
		copied := *r.user
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fixedUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if r.user != nil && r.user.Email == email {
		copied := *r.user
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fixedUserRepo) SetEmailVerified(context.Context, string, time.Time) error { return nil }

func (r *fixedUserRepo) UpdatePassword(context.Context, string, string, time.Time) error { return nil }

var _ port.UserRepository = (*fixedUserRepo)(nil)

func newAuthFixture(t *testing.T, user *domain.User) (*usecase.AuthService, *security.TokenIssuer) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}

	signer, err := security.NewRS256Signer(&security.KeyPair{Private: key, Public: &key.PublicKey})
	if err != nil {
		t.Fatalf("build signer: %v", err)
	}

	issuer := security.NewTokenIssuer(signer, security.TokenIssuerConfig{SessionTTL: time.Minute})
	return usecase.NewAuthService(&fixedUserRepo{user: user}, issuer, nil, nil, nil), issuer
}

func newProtectedRouter(auth *usecase.AuthService, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	chain := append([]gin.HandlerFunc{RequireAuth(auth)}, extra...)
	chain = append(chain, func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, user.ID)
	})
	r.GET("/protected", chain...)

	return r
}

func TestRequireAuthMissingHeader(t *testing.T) {
	auth, _ := newAuthFixture(t, nil)
	router := newProtectedRouter(auth)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestRequireAuthBadScheme(t *testing.T) {
	auth, _ := newAuthFixture(t, nil)
	router := newProtectedRouter(auth)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Basic abc123")
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestRequireAuthResolvesUser(t *testing.T) {
	user := &domain.User{ID: "u1", Email: "dora@example.com", EmailVerified: true}
	auth, issuer := newAuthFixture(t, user)
	router := newProtectedRouter(auth)

	token, err := issuer.IssueSessionToken(user.ID, user.Email)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rr.Code, rr.Body.String())
	}
	if rr.Body.String() != user.ID {
		t.Fatalf("expected body %q, got %q", user.ID, rr.Body.String())
	}
}

func TestRequireAuthRejectsTokenForDeletedUser(t *testing.T) {
	auth, issuer := newAuthFixture(t, nil)
	router := newProtectedRouter(auth)

	token, err := issuer.IssueSessionToken("ghost", "ghost@example.com")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestRequireVerifiedEmail(t *testing.T) {
	cases := []struct {
		name     string
		verified bool
		want     int
	}{
		{name: "verified account passes", verified: true, want: http.StatusOK},
		{name: "unverified account is forbidden", verified: false, want: http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			user := &domain.User{ID: "u1", Email: "dora@example.com", EmailVerified: tc.verified}
			auth, issuer := newAuthFixture(t, user)
			router := newProtectedRouter(auth, RequireVerifiedEmail())

			token, err := issuer.IssueSessionToken(user.ID, user.Email)
			if err != nil {
				t.Fatalf("issue token: %v", err)
			}

			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			router.ServeHTTP(rr, req)

			if rr.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rr.Code)
			}
		})
	}
}
