package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/aussiebroadwan/skygate/api/auth" // Swagger docs
	"github.com/aussiebroadwan/skygate/internal/auth/domain"
	"github.com/aussiebroadwan/skygate/internal/auth/metrics"
	"github.com/aussiebroadwan/skygate/internal/auth/service"
	"github.com/aussiebroadwan/skygate/internal/auth/store"
	"github.com/aussiebroadwan/skygate/pkg/httpx"
	"github.com/aussiebroadwan/skygate/pkg/jwtx"
	"github.com/aussiebroadwan/skygate/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeyManager
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	// RevocationBackend is pinged by /readyz when redis holds revocations.
	RevocationBackend Pinger

	Tokens             *service.TokenIssuer
	Login              *service.LoginOrchestrator
	Accounts           *service.AccountService
	PasswordReset      *service.PasswordResetManager
	Registration       *service.RegistrationService
	Verification       *service.EmailVerificationService
	MFA                *service.MFAManager
	BootstrapService   *service.BootstrapService
	KeyRotationService *service.KeyRotationService
}

func NewRouter(
	keys *jwtx.KeyManager,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// metrics must sit next to the mux to see r.Pattern.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		metrics.HTTPMiddleware,
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerPassword()
	r.registerRegistration()
	r.registerMFA()
	r.registerBootstrap()
	r.registerKeyRotation()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Skygate Authentication Service API
//	@version		0.1.0
//	@description	Authentication for the airline ticketing platform: email/password and social login, TOTP MFA with backup codes, password reset, and JWT access/refresh tokens.
//	@description
//	@description				Tokens are signed with the configured algorithm (EdDSA by default) and can be verified using the JWKS endpoint.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/skygate
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// authed verifies an unrevoked access token, then applies mws.
func (r *Router) authed(h http.HandlerFunc, mws ...httpx.Middleware) http.Handler {
	return httpx.Chain(h, append([]httpx.Middleware{httpx.AuthnMiddleware(r.keys, r.Tokens)}, mws...)...)
}

func (r *Router) registerAuth() {
	h := &LoginHandler{Login: r.Login}

	// Credential checks are limited per IP and per targeted email.
	r.Mux.Handle("POST /api/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "email"),
		),
	)
	r.Mux.Handle("POST /api/auth/login/google",
		httpx.Chain(http.HandlerFunc(h.HandleGoogle), httpx.RateLimitByIP(httpx.StrictLimit)),
	)
	r.Mux.Handle("POST /api/auth/login/facebook",
		httpx.Chain(http.HandlerFunc(h.HandleFacebook), httpx.RateLimitByIP(httpx.StrictLimit)),
	)
	r.Mux.Handle("POST /api/auth/verify-mfa",
		httpx.Chain(http.HandlerFunc(h.HandleVerifyMFA), httpx.RateLimitByIP(httpx.StrictLimit)),
	)
	r.Mux.Handle("POST /api/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh), httpx.RateLimitByIP(httpx.ModerateLimit)),
	)

	// Logout takes any of our tokens, so it reads the bearer header itself.
	r.Mux.Handle("POST /api/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout), httpx.RateLimitByIP(httpx.ModerateLimit)),
	)

	me := &MeHandler{Accounts: r.Accounts}
	r.Mux.Handle("GET /api/auth/me",
		r.authed(me.ServeHTTP, httpx.RateLimitByUser(httpx.LenientLimit)),
	)
}

func (r *Router) registerPassword() {
	h := &PasswordHandler{Reset: r.PasswordReset}

	r.Mux.Handle("POST /api/auth/forgot-password",
		httpx.Chain(http.HandlerFunc(h.HandleForgot),
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "email"),
		),
	)
	r.Mux.Handle("POST /api/auth/reset-password",
		httpx.Chain(http.HandlerFunc(h.HandleReset), httpx.RateLimitByIP(httpx.StrictLimit)),
	)
}

func (r *Router) registerRegistration() {
	h := &RegistrationHandler{Registration: r.Registration, Verification: r.Verification}

	r.Mux.Handle("POST /api/register/user",
		httpx.Chain(http.HandlerFunc(h.HandleRegisterUser), httpx.RateLimitByIP(httpx.StrictLimit)),
	)
	r.Mux.Handle("POST /api/register/admin",
		r.authed(h.HandleRegisterAdmin,
			httpx.RequireRole(domain.RoleSuperadmin.String()),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /api/email/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerifyEmail), httpx.RateLimitByIP(httpx.ModerateLimit)),
	)
	r.Mux.Handle("POST /api/email/resend-verification",
		httpx.Chain(http.HandlerFunc(h.HandleResend), httpx.RateLimitByIP(httpx.StrictLimit)),
	)
}

func (r *Router) registerMFA() {
	h := &MFAHandler{MFA: r.MFA}

	// Anything that checks a code is strict to slow down guessing.
	r.Mux.Handle("POST /api/mfa/setup",
		r.authed(h.HandleSetup, httpx.RateLimitByUser(httpx.ModerateLimit)),
	)
	r.Mux.Handle("POST /api/mfa/validate",
		r.authed(h.HandleValidate, httpx.RateLimitByUser(httpx.StrictLimit)),
	)
	r.Mux.Handle("POST /api/mfa/disable",
		r.authed(h.HandleDisable, httpx.RateLimitByUser(httpx.StrictLimit)),
	)
	r.Mux.Handle("GET /api/mfa/status",
		r.authed(h.HandleStatus, httpx.RateLimitByUser(httpx.LenientLimit)),
	)
	r.Mux.Handle("POST /api/mfa/regenerate-backup-codes",
		r.authed(h.HandleRegenerateBackupCodes, httpx.RateLimitByUser(httpx.StrictLimit)),
	)
}

func (r *Router) registerBootstrap() {
	// POST /bootstrap - very strict rate limit by IP (one-time setup endpoint)
	h := &BootstrapHandler{BootstrapService: r.BootstrapService}
	r.Mux.Handle("POST /api/bootstrap",
		httpx.Chain(h, httpx.RateLimitByIP(httpx.StrictLimit)),
	)
}

func (r *Router) registerKeyRotation() {
	h := &KeyRotationHandler{KeyRotationService: r.KeyRotationService}
	superadmin := httpx.RequireRole(domain.RoleSuperadmin.String())

	r.Mux.Handle("GET /api/admin/keys",
		r.authed(h.HandleListKeys, superadmin, httpx.RateLimitByUser(httpx.ModerateLimit)),
	)
	r.Mux.Handle("POST /api/admin/keys/rotate",
		r.authed(h.HandleRotate, superadmin, httpx.RateLimitByUser(httpx.ModerateLimit)),
	)
	r.Mux.Handle("POST /api/admin/keys/{kid}/retire",
		r.authed(h.HandleRetireKey, superadmin, httpx.RateLimitByUser(httpx.ModerateLimit)),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.keys.KeySet()), httpx.RateLimitByIP(httpx.PublicLimit)),
	)

	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys, r.RevocationBackend),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /metrics",
		httpx.Chain(promhttp.Handler(), httpx.RateLimitByIP(httpx.LenientLimit)),
	)
}
