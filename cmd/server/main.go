// Package main is the entry point for the Scholar-Stream API server.
//
// main only reads configuration and decides which implementation of each
// external collaborator to build:
//
//	STORE_URI=mongodb://...        → MongoDB        else SQLite file (default)
//	FIREBASE_PROJECT_ID set        → Firebase tokens else local HS256 tokens
//	FIREBASE_CREDENTIALS_* set     → Firebase admin  else no-op deprovisioning
//
// Everything else lives in internal/server and below.
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"github.com/sakif/scholar-stream/internal/auth"
	"github.com/sakif/scholar-stream/internal/config"
	"github.com/sakif/scholar-stream/internal/identity"
	"github.com/sakif/scholar-stream/internal/logger"
	"github.com/sakif/scholar-stream/internal/middleware"
	"github.com/sakif/scholar-stream/internal/payment"
	"github.com/sakif/scholar-stream/internal/repository"
	"github.com/sakif/scholar-stream/internal/repository/mongo"
	"github.com/sakif/scholar-stream/internal/repository/sqlite"
	"github.com/sakif/scholar-stream/internal/server"
)

func main() {
	// === 1. CONFIGURATION ===
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. LOGGING ===
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	// === 3. COLLABORATORS ===
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	verifier, err := newVerifier(cfg, log)
	if err != nil {
		log.Error("failed to set up token verification", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ident, err := newIdentity(ctx, cfg, log)
	if err != nil {
		log.Error("failed to set up identity provider", slog.String("error", err.Error()))
		os.Exit(1)
	}

	payments := payment.NewStripe(payment.StripeConfig{
		SecretKey:     cfg.StripeSecretKey,
		WebhookSecret: cfg.StripeWebhookSecret,
		Currency:      cfg.PaymentCurrency,
		SiteDomain:    cfg.SiteDomain,
	})
	if cfg.StripeWebhookSecret == "" {
		log.Warn("STRIPE_WEBHOOK_SECRET not set, payment webhooks will be rejected")
	}

	// === 4. SERVE ===
	limits := middleware.DefaultRateLimiterConfig()
	limits.Rate = rate.Limit(cfg.RateLimitRPS)
	limits.Burst = cfg.RateLimitBurst

	srv, err := server.New(server.Config{
		Port:              cfg.Port,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		ListingMaxLimit:   cfg.ListingMaxLimit,
		RateLimit:         limits,
	}, server.Deps{
		Store:    store,
		Verifier: verifier,
		Identity: ident,
		Payments: payments,
	}, log)
	if err != nil {
		_ = store.Close(context.Background())
		log.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM and closes the store on the way out.
	if err := srv.Start(); err != nil {
		log.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (repository.Store, error) {
	if cfg.UsesMongo() {
		log.Info("using MongoDB store", slog.String("database", cfg.StoreDatabase))
		return mongo.Connect(ctx, cfg.StoreURI, cfg.StoreDatabase)
	}

	// Anything else is a SQLite path; make sure its directory exists.
	if dir := filepath.Dir(cfg.StoreURI); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	log.Info("using SQLite store", slog.String("path", cfg.StoreURI))
	return sqlite.New(cfg.StoreURI)
}

func newVerifier(cfg *config.Config, log *slog.Logger) (auth.Verifier, error) {
	if cfg.UsesFirebase() {
		log.Info("verifying Firebase ID tokens", slog.String("project", cfg.FirebaseProjectID))
		return auth.NewFirebaseVerifier(cfg.FirebaseProjectID)
	}
	log.Warn("FIREBASE_PROJECT_ID not set, accepting locally signed tokens (see cmd/devtoken)")
	return auth.NewTokenService(cfg.JWTSecret)
}

func newIdentity(ctx context.Context, cfg *config.Config, log *slog.Logger) (identity.Deprovisioner, error) {
	if cfg.UsesFirebase() && len(cfg.FirebaseCredentialsJSON) > 0 {
		return identity.NewAdmin(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsJSON)
	}
	return identity.Noop{Logger: log}, nil
}
