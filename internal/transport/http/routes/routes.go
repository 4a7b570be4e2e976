package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Samdav2/confess-api/internal/infra/config"
	"github.com/Samdav2/confess-api/internal/transport/http/handlers"
	"github.com/Samdav2/confess-api/internal/transport/http/middleware"
	"github.com/Samdav2/confess-api/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth          *usecase.AuthService
	Verification  *usecase.VerificationService
	PasswordReset *usecase.PasswordResetService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config   *config.AppConfig
	Logger   *zap.Logger
	Services ServiceSet
	Database DatabaseChecker
	Cache    CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) (*gin.Engine, error) {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS(deps.Config.CORS.AllowedOrigins))

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		return nil, err
	}
	r.Use(metrics.Handler())

	authMiddleware := middleware.RequireAuth(deps.Services.Auth)

	healthOptions := make([]handlers.HealthOption, 0, 2)

	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}

	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}

	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	sessionTTL := deps.Config.JWT.SessionTokenTTL
	if sessionTTL <= 0 {
		sessionTTL = 30 * time.Minute
	}

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")

		authHandler := handlers.NewAuthHandler(deps.Services.Auth, sessionTTL)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/token", authHandler.LoginForm)
		authGroup.GET("/me", authMiddleware, authHandler.Me)
		authGroup.POST("/google/login", authHandler.GoogleLogin)
		authGroup.POST("/google/signup", authHandler.GoogleSignup)

		verificationHandler := handlers.NewVerificationHandler(deps.Services.Verification, sessionTTL)
		authGroup.POST("/send-verification", verificationHandler.SendVerification)
		authGroup.POST("/verify-email", verificationHandler.VerifyWithCode)
		authGroup.GET("/verify-email", verificationHandler.VerifyWithToken)
		authGroup.GET("/resend-verification", authMiddleware, verificationHandler.Resend)

		passwordHandler := handlers.NewPasswordHandler(deps.Services.PasswordReset)
		authGroup.POST("/forgot-password", passwordHandler.Forgot)
		authGroup.POST("/reset-password", passwordHandler.Reset)
	}

	return r, nil
}
