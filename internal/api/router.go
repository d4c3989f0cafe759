package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/crewbase/crewbase/internal/api/auth"
	"github.com/crewbase/crewbase/internal/api/companies"
	"github.com/crewbase/crewbase/internal/api/middleware"
	"github.com/crewbase/crewbase/internal/api/projects"
)

// setupRouter creates and configures the chi router with all routes.
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	// Create token service
	tokenService := auth.NewTokenService(s.config.TokenSecret, s.config.TokenTTL)

	// Create lockout tracker
	lockoutTracker := auth.NewLockoutTracker(s.config.LockoutThreshold, s.config.LockoutDuration)

	// Create rate limiters
	ipLimiter := middleware.NewRateLimiter(s.config.RateLimitPerIP)
	userLimiter := middleware.NewRateLimiter(s.config.RateLimitPerUser)

	// Global middleware
	r.Use(middleware.RequestLogger(s.config.Verbose))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.PrometheusMiddleware)

	// Unknown routes answer in the same JSON envelope as everything else
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		JSONError(w, ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		JSONError(w, ErrMethodNotAllowed)
	})

	r.Route("/api", func(r chi.Router) {
		// Health check (public, no rate limit)
		r.Get("/health", s.healthHandler.Health)
		r.Get("/health/ready", s.healthHandler.Ready)

		// Auth routes (public, IP rate limited)
		r.Route("/auth", func(r chi.Router) {
			authHandler := auth.NewHandler(s.storage, tokenService, lockoutTracker)

			r.Use(middleware.RateLimitByIP(ipLimiter))
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		// Protected routes: every operation below acts as the verified
		// token identity, never a client-supplied header.
		r.Group(func(r chi.Router) {
			r.Use(middleware.TokenAuth(tokenService))
			r.Use(middleware.RateLimitByUser(userLimiter))

			companyHandler := companies.NewHandler(s.storage, s.config.ReturnEmptyOnReadFailure)
			projectHandler := projects.NewHandler(s.storage, s.config.ReturnEmptyOnReadFailure)

			r.Route("/companies", func(r chi.Router) {
				r.Get("/", companyHandler.List)
				r.Route("/{id}/members", func(r chi.Router) {
					r.Get("/", companyHandler.Members)
					r.Post("/", companyHandler.AddMember)
				})
			})

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", projectHandler.ListByCompany)
				r.Post("/", projectHandler.Create)
				r.Get("/{id}/members", projectHandler.Members)
			})
		})
	})

	return r
}
