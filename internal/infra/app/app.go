package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Samdav2/confess-api/internal/core/port"
	"github.com/Samdav2/confess-api/internal/infra/config"
	"github.com/Samdav2/confess-api/internal/infra/database"
	"github.com/Samdav2/confess-api/internal/infra/federation"
	kafkainfra "github.com/Samdav2/confess-api/internal/infra/kafka"
	"github.com/Samdav2/confess-api/internal/infra/logger"
	redisinfra "github.com/Samdav2/confess-api/internal/infra/redis"
	"github.com/Samdav2/confess-api/internal/infra/security"
	memoryrepo "github.com/Samdav2/confess-api/internal/repository/memory"
	postgresrepo "github.com/Samdav2/confess-api/internal/repository/postgres"
	redisrepo "github.com/Samdav2/confess-api/internal/repository/redis"
	"github.com/Samdav2/confess-api/internal/transport/http/routes"
	"github.com/Samdav2/confess-api/internal/usecase"
)

type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	producer *kafkainfra.Producer
	verifier *federation.GoogleVerifier
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	argonCfg := security.Argon2Config{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	}
	if err := security.ConfigureArgon2(argonCfg); err != nil {
		return nil, fmt.Errorf("configure argon2: %w", err)
	}

	keyPair, err := security.LoadKeyPair(security.KeyMaterial{
		PrivateKeyPEM:  cfg.JWT.PrivateKey,
		PublicKeyPEM:   cfg.JWT.PublicKey,
		PrivateKeyFile: cfg.JWT.PrivateKeyFile,
		PublicKeyFile:  cfg.JWT.PublicKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("load signing keys: %w", err)
	}

	signer, err := security.NewSigner(cfg.JWT.Algorithm, keyPair)
	if err != nil {
		return nil, fmt.Errorf("init claims signer: %w", err)
	}

	issuer := security.NewTokenIssuer(signer, security.TokenIssuerConfig{
		SessionTTL:           cfg.JWT.SessionTokenTTL,
		EmailVerificationTTL: cfg.JWT.EmailVerificationTTL,
		PasswordResetTTL:     cfg.JWT.PasswordResetTTL,
	})

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	users := postgresrepo.NewUserRepository(pool)

	var (
		redisClient *redisinfra.Client
		codes       port.VerificationCodeStore
	)
	if cfg.Verification.Store == "redis" {
		redisClient, err = redisinfra.NewClient(cfg.Redis, log)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("init redis: %w", err)
		}
		codes = redisrepo.NewCodeStore(redisClient.Client(), cfg.Redis.KeyPrefix, cfg.Verification.CodeTTL)
		log.Info("using redis verification code store")
	} else {
		codes = memoryrepo.NewCodeStore(cfg.Verification.CodeTTL, cfg.Verification.MaxEntries)
		log.Info("using in-memory verification code store")
	}

	var (
		producer *kafkainfra.Producer
		notifier port.NotificationPublisher
	)
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			notifier = kafkainfra.NewStubPublisher(log)
		} else {
			notifier = kafkainfra.NewNotificationPublisher(producer, cfg.App, log)
			log.Info("kafka notification publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		notifier = kafkainfra.NewStubPublisher(log)
	}

	var (
		googleVerifier *federation.GoogleVerifier
		verifier       port.FederatedVerifier
	)
	if cfg.Google.ClientID != "" {
		googleVerifier, err = federation.NewGoogleVerifier(cfg.Google, log)
		if err != nil {
			closeAll(pool, redisClient, producer, nil)
			return nil, fmt.Errorf("init google verifier: %w", err)
		}
		verifier = googleVerifier
	} else {
		log.Info("google client id not configured, federated auth disabled")
	}

	authService := usecase.NewAuthService(users, issuer, verifier, notifier, log)
	verificationService := usecase.NewVerificationService(users, codes, issuer, notifier, cfg.App.BaseURL, cfg.Verification.CodeTTL, log)
	passwordResetService := usecase.NewPasswordResetService(users, issuer, notifier, security.DefaultPasswordValidator(), cfg.App.BaseURL, cfg.JWT.PasswordResetTTL, log)

	routeDeps := routes.Dependencies{
		Config:   cfg,
		Logger:   log,
		Database: pool,
		Services: routes.ServiceSet{
			Auth:          authService,
			Verification:  verificationService,
			PasswordReset: passwordResetService,
		},
	}
	if redisClient != nil {
		routeDeps.Cache = redisClient
	}

	engine, err := routes.Register(routeDeps)
	if err != nil {
		closeAll(pool, redisClient, producer, googleVerifier)
		return nil, fmt.Errorf("register routes: %w", err)
	}

	return &Application{
		cfg:      cfg,
		engine:   engine,
		logger:   log,
		pool:     pool,
		redis:    redisClient,
		producer: producer,
		verifier: googleVerifier,
	}, nil
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer closeAll(a.pool, a.redis, a.producer, a.verifier)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting auth API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}

func closeAll(pool *pgxpool.Pool, redisClient *redisinfra.Client, producer *kafkainfra.Producer, verifier *federation.GoogleVerifier) {
	if verifier != nil {
		verifier.Close()
	}
	if producer != nil {
		_ = producer.Close()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if pool != nil {
		pool.Close()
	}
}
