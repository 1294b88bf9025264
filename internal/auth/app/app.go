package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/skygate/internal/auth/http"
	"github.com/aussiebroadwan/skygate/internal/auth/provider"
	"github.com/aussiebroadwan/skygate/internal/auth/service"
	"github.com/aussiebroadwan/skygate/internal/auth/store"
	redisstore "github.com/aussiebroadwan/skygate/internal/auth/store/drivers/redis"
	"github.com/aussiebroadwan/skygate/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/skygate/pkg/cryptox"
	"github.com/aussiebroadwan/skygate/pkg/httpx"
	"github.com/aussiebroadwan/skygate/pkg/jwtx"
	"github.com/aussiebroadwan/skygate/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags.
var BuildVersion = "v0.1.0"

// closer is anything torn down at shutdown after the HTTP server.
type closer interface {
	Close() error
}

// Application encapsulates the auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db          *sqlite.Store
	sealer      *cryptox.Sealer
	keyManager  *jwtx.KeyManager
	revocations store.Revocations
	redis       closer // nil unless REDIS_ADDR is set

	// Services
	tokens       *service.TokenIssuer
	login        *service.LoginOrchestrator
	accounts     *service.AccountService
	mfa          *service.MFAManager
	reset        *service.PasswordResetManager
	verification *service.EmailVerificationService
	registration *service.RegistrationService
	bootstrap    *service.BootstrapService
	keyRotation  *service.KeyRotationService
	housekeeping *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "skygate-auth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	cryptox.SetPepperPath(cfg.PepperFile)
	if err := cryptox.LoadPepper(); err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}

	sealer, persistent, err := cryptox.LoadSealer(cfg.MasterKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load master key: %w", err)
	}
	if !persistent {
		app.logger.Warn("no master key configured, using a random one; MFA backup codes will not survive a restart")
	}
	app.sealer = sealer

	// Database first: persistent keys live in it.
	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := app.initRevocations(ctx); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	keyManager, err := InitAuthKeys(ctx, cfg, app.db, sealer, persistent, app.logger)
	if err != nil {
		app.closeStores()
		return nil, fmt.Errorf("failed to initialize JWT keys: %w", err)
	}
	app.keyManager = keyManager

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeeping.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.housekeeping.Stop()
			app.closeStores()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeeping.Stop()

	if err := app.closeStores(); err != nil {
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

func (app *Application) closeStores() error {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}
	return nil
}

// initDatabase opens sqlite and applies migrations.
func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf(
		"file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)",
		app.cfg.DatabaseFile,
	)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initRevocations picks redis when configured and the sqlite table otherwise.
func (app *Application) initRevocations(ctx context.Context) error {
	if app.cfg.RedisAddr == "" {
		app.revocations = app.db.Revocations()
		return nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client, err := redisstore.NewClient(dialCtx, redisstore.Options{
		Addr:     app.cfg.RedisAddr,
		Password: app.cfg.RedisPassword,
		DB:       app.cfg.RedisDB,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	app.redis = client
	app.revocations = redisstore.NewRevocations(client, "")
	app.logger.Info("token revocations stored in redis", "addr", app.cfg.RedisAddr)
	return nil
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	cfg := app.cfg
	mailer := service.LogMailer{}
	recaptcha := provider.NewRecaptcha(cfg.RecaptchaSecret, cfg.RecaptchaVerifyURL, nil)

	app.tokens = &service.TokenIssuer{
		Signer:        app.keyManager,
		Store:         app.db,
		Revocations:   app.revocations,
		Issuer:        cfg.Issuer,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
		MFASessionTTL: cfg.MFASessionTTL,
	}
	app.mfa = &service.MFAManager{
		Store: app.db,
		TOTP:  &service.TOTP{Issuer: cfg.TOTPIssuer},
		Vault: &service.BackupCodeVault{Sealer: app.sealer},
	}
	checker := &service.CredentialChecker{
		Store:                    app.db,
		MaxFailedLogins:          cfg.MaxFailedLogins,
		RequireEmailVerification: cfg.RequireEmailVerification,
	}
	app.login = &service.LoginOrchestrator{
		Selector: service.NewStrategySelector(
			service.NewEmailStrategy(recaptcha, checker, app.tokens),
			service.NewGoogleStrategy(recaptcha, provider.NewGoogle(cfg.GoogleUserInfoURL, nil), app.db, app.tokens, nil),
			service.NewFacebookStrategy(recaptcha, provider.NewFacebook(cfg.FacebookUserInfoURL, nil), app.db, app.tokens, nil),
		),
		MFA:    app.mfa,
		Tokens: app.tokens,
		Store:  app.db,
	}
	app.accounts = &service.AccountService{Store: app.db}
	app.reset = &service.PasswordResetManager{
		Store:     app.db,
		Mailer:    mailer,
		TokenTTL:  cfg.ResetTokenTTL,
		PublicURL: cfg.PublicURL,
	}
	app.verification = &service.EmailVerificationService{
		Store:     app.db,
		Mailer:    mailer,
		TokenTTL:  cfg.VerifyTokenTTL,
		PublicURL: cfg.PublicURL,
	}
	app.registration = &service.RegistrationService{
		Store:        app.db,
		Recaptcha:    recaptcha,
		Verification: app.verification,
	}
	app.bootstrap = &service.BootstrapService{
		Store: app.db,
		Token: cfg.BootstrapToken,
	}

	// Rotation works in both modes; only persistent mode writes keys to the
	// database.
	app.keyRotation = &service.KeyRotationService{
		KeyManager:  app.keyManager,
		Algorithm:   cfg.Algorithm,
		RSABits:     cfg.RSABits,
		Lifetime:    cfg.KeyLifetime,
		GracePeriod: cfg.KeyGracePeriod,
	}
	if cfg.KeyStorageMode == keyModePersistent {
		app.keyRotation.Store = app.db
		app.keyRotation.Sealer = app.sealer
	}

	app.housekeeping = service.NewHousekeepingService(
		app.db,
		app.revocations,
		app.logger,
		cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	httpx.LoadRateLimitsFromEnv()

	router := httpapi.NewRouter(app.keyManager, BuildVersion, app.db, app.logger)
	router.Tokens = app.tokens
	router.Login = app.login
	router.Accounts = app.accounts
	router.PasswordReset = app.reset
	router.Registration = app.registration
	router.Verification = app.verification
	router.MFA = app.mfa
	router.BootstrapService = app.bootstrap
	router.KeyRotationService = app.keyRotation
	if p, ok := app.revocations.(httpapi.Pinger); ok && app.redis != nil {
		router.RevocationBackend = p
	}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
