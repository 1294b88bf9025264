package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/skygate/internal/auth/provider"
	"github.com/aussiebroadwan/skygate/pkg/jwtx"
)

type Config struct {
	Issuer         string // Issuer claim for tokens (default: skygate-auth)
	BootstrapToken string // Optional: token required to create the first superadmin

	Algorithm      string        // JWT signing algorithm (RS256, ES256, EdDSA) (default: EdDSA)
	RSABits        int           // RSA key size for RS256 (default: 4096)
	NumKeys        int           // Active signing keys (default: 3, min: 1, max: 10)
	KeyStorageMode string        // ephemeral or persistent (default: ephemeral)
	KeyGracePeriod time.Duration // Retired key verification window (default: 30 days)
	KeyLifetime    time.Duration // Lifetime of keys created by rotation (default: 90 days)
	MasterKeyPath  string        // Master key sealing signing keys and backup-code keys
	DatabaseFile   string        // SQLite database file (default: ./auth.db)
	PepperFile     string        // Password hashing pepper (default: ./pepper)

	AccessTTL                time.Duration
	RefreshTTL               time.Duration
	MFASessionTTL            time.Duration
	ResetTokenTTL            time.Duration
	VerifyTokenTTL           time.Duration
	RequireEmailVerification bool   // Block unverified USER logins (default: true)
	MaxFailedLogins          int    // Lock threshold (default: 5)
	TOTPIssuer               string // otpauth issuer label (default: AirlineTicketing)
	PublicURL                string // Base for reset and verification links

	RecaptchaSecret     string // Empty disables reCAPTCHA checks
	RecaptchaVerifyURL  string
	GoogleUserInfoURL   string
	FacebookUserInfoURL string

	RedisAddr     string // Optional: revocations live in redis when set
	RedisPassword string
	RedisDB       int

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		Issuer:         getEnvOrDefault("AUTH_ISSUER", "skygate-auth"),
		BootstrapToken: os.Getenv("BOOTSTRAP_TOKEN"),

		Algorithm:      getEnvOrDefault("AUTH_ALGORITHM", jwtx.AlgorithmEdDSA),
		RSABits:        getEnvIntOrDefault("AUTH_RSA_BITS", 4096),
		NumKeys:        getEnvIntOrDefault("AUTH_NUM_KEYS", 3),
		KeyStorageMode: getEnvOrDefault("AUTH_KEY_STORAGE_MODE", "ephemeral"),
		KeyGracePeriod: getEnvDurationOrDefault("AUTH_KEY_GRACE_PERIOD", 30*24*time.Hour),
		KeyLifetime:    getEnvDurationOrDefault("AUTH_KEY_LIFETIME", 90*24*time.Hour),
		MasterKeyPath:  os.Getenv("AUTH_MASTER_KEY_PATH"),
		DatabaseFile:   getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		PepperFile:     getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),

		AccessTTL:                getEnvDurationOrDefault("AUTH_ACCESS_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL:               getEnvDurationOrDefault("AUTH_REFRESH_TTL", jwtx.DefaultRefreshTokenTTL),
		MFASessionTTL:            getEnvDurationOrDefault("AUTH_MFA_SESSION_TTL", jwtx.DefaultMFASessionTTL),
		ResetTokenTTL:            getEnvDurationOrDefault("AUTH_RESET_TOKEN_TTL", time.Hour),
		VerifyTokenTTL:           getEnvDurationOrDefault("AUTH_VERIFY_TOKEN_TTL", 24*time.Hour),
		RequireEmailVerification: getEnvBoolOrDefault("AUTH_REQUIRE_EMAIL_VERIFICATION", true),
		MaxFailedLogins:          getEnvIntOrDefault("AUTH_MAX_FAILED_LOGINS", 5),
		TOTPIssuer:               getEnvOrDefault("AUTH_TOTP_ISSUER", "AirlineTicketing"),
		PublicURL:                strings.TrimRight(getEnvOrDefault("AUTH_PUBLIC_URL", "http://localhost:3000"), "/"),

		RecaptchaSecret:     os.Getenv("RECAPTCHA_SECRET"),
		RecaptchaVerifyURL:  getEnvOrDefault("RECAPTCHA_VERIFY_URL", provider.DefaultRecaptchaVerifyURL),
		GoogleUserInfoURL:   getEnvOrDefault("GOOGLE_USERINFO_URL", provider.DefaultGoogleUserInfoURL),
		FacebookUserInfoURL: getEnvOrDefault("FACEBOOK_USERINFO_URL", provider.DefaultFacebookUserInfoURL),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvIntOrDefault("REDIS_DB", 0),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
