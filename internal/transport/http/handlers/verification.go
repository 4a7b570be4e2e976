package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Samdav2/confess-api/internal/core/port"
	"github.com/Samdav2/confess-api/internal/transport/http/middleware"
	"github.com/Samdav2/confess-api/internal/usecase"
)

// VerificationHandler exposes the email verification endpoints.
type VerificationHandler struct {
	verification *usecase.VerificationService
	sessionTTL   time.Duration
}

// NewVerificationHandler constructs VerificationHandler.
func NewVerificationHandler(verification *usecase.VerificationService, sessionTTL time.Duration) *VerificationHandler {
	if sessionTTL <= 0 {
		sessionTTL = 30 * time.Minute
	}
	return &VerificationHandler{verification: verification, sessionTTL: sessionTTL}
}

var verifyErrorCases = []ErrorCase{
	{Err: port.ErrCodeNotFound, Status: http.StatusBadRequest, Message: "verification code expired or not found"},
	{Err: port.ErrCodeMismatch, Status: http.StatusBadRequest, Message: "incorrect verification code"},
	{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
	{Err: usecase.ErrEmailMismatch, Status: http.StatusBadRequest, Message: "email does not match"},
	{Err: usecase.ErrAlreadyVerified, Status: http.StatusBadRequest, Message: "email already verified"},
	{Err: usecase.ErrVerificationTokenExpired, Status: http.StatusBadRequest, Message: "verification link expired"},
	{Err: usecase.ErrVerificationTokenInvalid, Status: http.StatusBadRequest, Message: "invalid verification link"},
}

// SendVerification handles POST /send-verification. The response is the
// same whether or not an account exists for the address.
func (h *VerificationHandler) SendVerification(c *gin.Context) {
	var req SendVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "email is required"))
		return
	}

	var err error
	if req.Channel == "link" {
		err = h.verification.SendLink(c.Request.Context(), req.Email)
	} else {
		err = h.verification.SendCode(c.Request.Context(), req.Email)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to send verification"))
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "if the email is registered, a verification message has been sent"})
}

// VerifyWithCode handles POST /verify-email with email and code.
func (h *VerificationHandler) VerifyWithCode(c *gin.Context) {
	var req VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "email and code are required"))
		return
	}

	user, token, err := h.verification.ConfirmWithCode(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		RespondWithMappedError(c, err, verifyErrorCases, http.StatusInternalServerError, "verification failed")
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(h.sessionTTL.Seconds()),
		User:        newUserSummary(user),
	})
}

// VerifyWithToken handles GET /verify-email?token=... from emailed links.
func (h *VerificationHandler) VerifyWithToken(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "token is required"))
		return
	}

	user, session, err := h.verification.ConfirmWithToken(c.Request.Context(), token)
	if err != nil {
		RespondWithMappedError(c, err, verifyErrorCases, http.StatusInternalServerError, "verification failed")
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken: session,
		TokenType:   "bearer",
		ExpiresIn:   int(h.sessionTTL.Seconds()),
		User:        newUserSummary(user),
	})
}

// Resend handles GET /resend-verification for authenticated callers.
func (h *VerificationHandler) Resend(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	if err := h.verification.ResendForUser(c.Request.Context(), user.ID); err != nil {
		RespondWithMappedError(c, err, verifyErrorCases, http.StatusInternalServerError, "failed to resend verification")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "verification code sent"})
}
