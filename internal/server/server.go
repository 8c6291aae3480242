// Package server wires handlers, middleware and routes, and runs the HTTP
// server.
//
// It is the composition root: New receives the external collaborators (the
// store, the token verifier, the identity and payment providers), builds the
// service layer on top of them and mounts every route. main.go only decides
// which implementation of each collaborator to pass in.
package server

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

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sakif/scholar-stream/internal/apperror"
	"github.com/sakif/scholar-stream/internal/auth"
	"github.com/sakif/scholar-stream/internal/handler"
	"github.com/sakif/scholar-stream/internal/identity"
	"github.com/sakif/scholar-stream/internal/middleware"
	"github.com/sakif/scholar-stream/internal/payment"
	"github.com/sakif/scholar-stream/internal/repository"
	"github.com/sakif/scholar-stream/internal/service"
)

// Config holds the HTTP-level settings. A zero RateLimit means
// middleware.DefaultRateLimiterConfig.
type Config struct {
	Port              int
	CORSAllowedOrigin string
	ListingMaxLimit   int
	RateLimit         middleware.RateLimiterConfig
}

// Deps are the external collaborators. Store is owned by the Server from
// here on and closed on shutdown.
type Deps struct {
	Store    repository.Store
	Verifier auth.Verifier
	Identity identity.Deprovisioner
	Payments payment.Provider
	// Registry receives the HTTP metrics and backs GET /metrics. Nil means a
	// fresh registry with the Go and process collectors.
	Registry *prometheus.Registry
}

// Server is the HTTP server and everything it owns.
type Server struct {
	router  *chi.Mux
	config  Config
	store   repository.Store
	limiter *middleware.RateLimiter
	logger  *slog.Logger
}

// New builds the service layer and the router.
//
// DEPENDENCY CHAIN:
//
//	Store.Users()        → UserService        → UserHandler, auth.Guard (RoleLookup)
//	Store.Scholarships() → ScholarshipService → ScholarshipHandler
//	Store.Reviews()      → ReviewService      → ReviewHandler
//	Store.Applications() → ApplicationService → ApplicationHandler
//	Payments             → PaymentService     → PaymentHandler
func New(cfg Config, deps Deps, logger *slog.Logger) (*Server, error) {
	if deps.Store == nil || deps.Verifier == nil || deps.Identity == nil || deps.Payments == nil {
		return nil, errors.New("server: store, verifier, identity and payments are required")
	}
	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
		deps.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	if cfg.RateLimit.Rate <= 0 || cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit = middleware.DefaultRateLimiterConfig()
	}

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		store:   deps.Store,
		limiter: middleware.NewRateLimiter(cfg.RateLimit, logger),
		logger:  logger,
	}
	s.setupRoutes(deps)
	return s, nil
}

// Handler exposes the router, for tests and for embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes mounts the middleware stack and every route.
//
// MIDDLEWARE ORDER:
// 1. RequestID, RealIP: identify the request and the client
// 2. Logger, Metrics: observe everything below, including 429s and panics
// 3. Recoverer: turns a panic into a 500
// 4. CORS: answers preflights before rate limiting counts them
// 5. RateLimiter: per client IP
func (s *Server) setupRoutes(deps Deps) {
	users := deps.Store.Users()
	userService := service.NewUserService(users, deps.Identity, s.logger)
	scholarshipService := service.NewScholarshipService(deps.Store.Scholarships(), s.logger)
	reviewService := service.NewReviewService(deps.Store.Reviews(), deps.Store.Scholarships(), users, s.logger)
	applicationService := service.NewApplicationService(deps.Store.Applications(), deps.Store.Scholarships(), users, s.logger)
	paymentService := service.NewPaymentService(deps.Payments, applicationService, s.logger)

	health := handler.NewHealthHandler(deps.Store, s.logger)
	userHandler := handler.NewUserHandler(userService, s.logger)
	scholarshipHandler := handler.NewScholarshipHandler(scholarshipService, s.config.ListingMaxLimit, s.logger)
	reviewHandler := handler.NewReviewHandler(reviewService, s.logger)
	applicationHandler := handler.NewApplicationHandler(applicationService, s.logger)
	paymentHandler := handler.NewPaymentHandler(paymentService, s.logger)

	guard := auth.NewGuard(deps.Verifier, userService, handler.WriteError, s.logger)
	admin := guard.Require(auth.AdminOnly)
	staff := guard.Require(auth.ModeratorOrAdmin)

	metrics := middleware.NewMetrics(deps.Registry)

	r := s.router
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(metrics.Middleware)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(s.config.CORSAllowedOrigin))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		handler.WriteError(w, req, apperror.NotFoundBy("route", "path", req.URL.Path))
	})

	// Probes and scraping are exempt from rate limiting.
	r.Get("/", health.HandleRoot)
	r.Get("/healthz", health.HandleHealth)
	r.Handle("/metrics", middleware.Handler(deps.Registry))

	// The provider retries deliveries itself and is not a browser client.
	r.Post("/webhooks/payment", paymentHandler.HandleWebhook)

	r.Group(func(r chi.Router) {
		r.Use(s.limiter.Middleware)

		// === Public ===
		r.Post("/users", userHandler.HandleCreate)
		r.Get("/users/{email}/role", userHandler.HandleGetRole)
		r.Get("/scholarships", scholarshipHandler.HandleList)
		r.Get("/scholarship/{id}", scholarshipHandler.HandleGet)
		r.Get("/reviews/{id}", reviewHandler.HandleListByScholarship)

		// === Authenticated ===
		r.Group(func(r chi.Router) {
			r.Use(guard.Authenticate)

			r.Get("/users", userHandler.HandleList)
			r.Patch("/users", userHandler.HandleUpdateProfile)

			r.Post("/reviews", reviewHandler.HandleCreate)
			r.Get("/my-reviews", reviewHandler.HandleListMine)
			r.Patch("/reviews/{id}", reviewHandler.HandleUpdate)
			r.Delete("/reviews/{id}", reviewHandler.HandleDelete)

			r.Post("/applications", applicationHandler.HandleCreate)
			r.Get("/applications", applicationHandler.HandleList)
			r.Get("/applications/{id}", applicationHandler.HandleGet)
			r.Patch("/applications/payment/{id}", applicationHandler.HandleMarkPaid)
			r.Delete("/applications/{id}", applicationHandler.HandleDelete)

			r.Post("/create-payment-intent", paymentHandler.HandleCheckout)

			// === Admin ===
			r.With(admin).Patch("/users/role/{id}", userHandler.HandleUpdateRole)
			r.With(admin).Delete("/users/{id}", userHandler.HandleDelete)
			r.With(admin).Post("/add-scholarship", scholarshipHandler.HandleCreate)
			r.With(admin).Patch("/scholarship/{id}", scholarshipHandler.HandleUpdate)
			r.With(admin).Delete("/scholarship/{id}", scholarshipHandler.HandleDelete)

			// === Moderator or Admin ===
			r.With(staff).Get("/moderator/reviews", reviewHandler.HandleListAll)
			r.With(staff).Get("/moderator/applications", applicationHandler.HandleListAll)
			r.With(staff).Patch("/applications/status/{id}", applicationHandler.HandleSetStatus)
			r.With(staff).Patch("/applications/feedback/{id}", applicationHandler.HandleSetFeedback)
			r.With(staff).Patch("/applications/reject/{id}", applicationHandler.HandleReject)
		})
	})
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully: stop
// accepting connections, give in-flight requests 30 seconds, then release
// the rate limiter and close the store.
func (s *Server) Start() error {
	defer s.close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}
	return nil
}

// Close releases what the server owns without serving; Start calls it on exit.
func (s *Server) Close() {
	s.close()
}

func (s *Server) close() {
	s.limiter.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.store.Close(ctx); err != nil {
		s.logger.Error("closing store", slog.String("error", err.Error()))
	}
}
