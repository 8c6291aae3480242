// Package config loads the server configuration from environment variables.
//
// Load reads everything once at startup; the result is treated as immutable.
// Required variables that are missing are reported together, so a
// misconfigured deployment fails with one complete message.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds the server configuration.
type Config struct {
	// Server
	Port int

	// Store
	StoreURI      string
	StoreDatabase string

	// Identity provider
	FirebaseProjectID       string
	FirebaseCredentialsJSON []byte
	JWTSecret               string

	// Payment
	StripeSecretKey     string
	StripeWebhookSecret string
	PaymentCurrency     string
	SiteDomain          string

	// HTTP
	CORSAllowedOrigin string
	ListingMaxLimit   int
	RateLimitRPS      float64
	RateLimitBurst    int

	// Logging
	LogLevel  string
	LogFormat string
}

// UsesMongo reports whether StoreURI selects the MongoDB backend.
func (c *Config) UsesMongo() bool {
	return strings.HasPrefix(c.StoreURI, "mongodb://") || strings.HasPrefix(c.StoreURI, "mongodb+srv://")
}

// UsesFirebase reports whether bearer tokens are verified against the
// identity provider rather than the local HS256 secret.
func (c *Config) UsesFirebase() bool {
	return c.FirebaseProjectID != ""
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var (
		missing []string
		invalid []string
	)

	cfg := &Config{
		StoreURI:            getEnv("STORE_URI", "data/scholar-stream.db"),
		StoreDatabase:       getEnv("STORE_DATABASE", "scholarStream"),
		FirebaseProjectID:   os.Getenv("FIREBASE_PROJECT_ID"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		PaymentCurrency:     strings.ToLower(getEnv("PAYMENT_CURRENCY", "usd")),
		SiteDomain:          strings.TrimRight(os.Getenv("SITE_DOMAIN"), "/"),
		CORSAllowedOrigin:   getEnv("CORS_ALLOWED_ORIGIN", "*"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "text"),
	}

	var err error
	if cfg.Port, err = getEnvInt("PORT", 3000); err != nil || cfg.Port < 1 || cfg.Port > 65535 {
		invalid = append(invalid, "PORT")
	}
	if cfg.ListingMaxLimit, err = getEnvInt("LISTING_MAX_LIMIT", 100); err != nil || cfg.ListingMaxLimit < 1 {
		invalid = append(invalid, "LISTING_MAX_LIMIT")
	}
	if cfg.RateLimitRPS, err = getEnvFloat("RATE_LIMIT_RPS", 10); err != nil || cfg.RateLimitRPS <= 0 {
		invalid = append(invalid, "RATE_LIMIT_RPS")
	}
	if cfg.RateLimitBurst, err = getEnvInt("RATE_LIMIT_BURST", 40); err != nil || cfg.RateLimitBurst < 1 {
		invalid = append(invalid, "RATE_LIMIT_BURST")
	}

	creds, err := credentials()
	if err != nil {
		return nil, err
	}
	cfg.FirebaseCredentialsJSON = creds

	if !cfg.UsesFirebase() && cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET (or FIREBASE_PROJECT_ID)")
	}
	if cfg.StripeSecretKey == "" {
		missing = append(missing, "STRIPE_SECRET_KEY")
	}
	if cfg.SiteDomain == "" {
		missing = append(missing, "SITE_DOMAIN")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("config: required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return nil, fmt.Errorf("config: invalid values for: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}

// credentials returns the service-account JSON from FIREBASE_CREDENTIALS_JSON,
// or from the file named by FIREBASE_CREDENTIALS_FILE. Both unset is not an
// error: deprovisioning then falls back to a no-op.
func credentials() ([]byte, error) {
	if raw := os.Getenv("FIREBASE_CREDENTIALS_JSON"); raw != "" {
		return []byte(raw), nil
	}
	path := os.Getenv("FIREBASE_CREDENTIALS_FILE")
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading FIREBASE_CREDENTIALS_FILE: %w", err)
	}
	return data, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}
