package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Samdav2/confess-api/internal/repository"
	"github.com/Samdav2/confess-api/internal/transport/http/middleware"
	"github.com/Samdav2/confess-api/internal/usecase"
)

// AuthHandler exposes credential and federated authentication endpoints.
type AuthHandler struct {
	auth       *usecase.AuthService
	sessionTTL time.Duration
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *usecase.AuthService, sessionTTL time.Duration) *AuthHandler {
	if sessionTTL <= 0 {
		sessionTTL = 30 * time.Minute
	}
	return &AuthHandler{auth: auth, sessionTTL: sessionTTL}
}

var loginErrorCases = []ErrorCase{
	{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid email or password"},
}

// Login handles POST /login with a JSON payload.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "email and password are required"))
		return
	}

	h.login(c, req.Email, req.Password)
}

// LoginForm handles POST /token, the form-encoded alias used by OAuth2
// style clients. The username field carries the email.
func (h *AuthHandler) LoginForm(c *gin.Context) {
	email := c.PostForm("username")
	password := c.PostForm("password")
	if email == "" || password == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "username and password are required"))
		return
	}

	h.login(c, email, password)
}

func (h *AuthHandler) login(c *gin.Context, email, password string) {
	user, token, err := h.auth.Login(c.Request.Context(), email, password)
	if err != nil {
		RespondWithMappedError(c, err, loginErrorCases, http.StatusInternalServerError, "login failed")
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(h.sessionTTL.Seconds()),
		User:        newUserSummary(user),
	})
}

// Me handles GET /me for authenticated callers.
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	c.JSON(http.StatusOK, newUserSummary(user))
}

// GoogleLogin handles POST /google/login with a provider ID token.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req FederatedAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "id_token is required"))
		return
	}

	user, token, err := h.auth.FederatedLogin(c.Request.Context(), req.IDToken)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrFederatedDisabled, Status: http.StatusServiceUnavailable, Message: "google login is not available"},
			{Err: usecase.ErrInvalidAssertion, Status: http.StatusUnauthorized, Message: "invalid identity token"},
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid email or password"},
		}, http.StatusInternalServerError, "login failed")
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(h.sessionTTL.Seconds()),
		User:        newUserSummary(user),
	})
}

// GoogleSignup handles POST /google/signup with a provider ID token.
func (h *AuthHandler) GoogleSignup(c *gin.Context) {
	var req FederatedAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "id_token is required"))
		return
	}

	user, token, err := h.auth.FederatedSignup(c.Request.Context(), req.IDToken)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrFederatedDisabled, Status: http.StatusServiceUnavailable, Message: "google signup is not available"},
			{Err: usecase.ErrInvalidAssertion, Status: http.StatusUnauthorized, Message: "invalid identity token"},
			{Err: repository.ErrConflict, Status: http.StatusConflict, Message: "an account already exists for this email"},
		}, http.StatusInternalServerError, "signup failed")
		return
	}

	c.JSON(http.StatusCreated, LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(h.sessionTTL.Seconds()),
		User:        newUserSummary(user),
	})
}
