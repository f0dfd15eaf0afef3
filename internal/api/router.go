package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/uniconnect/uniconnect/internal/api/middleware"
	"github.com/uniconnect/uniconnect/internal/config"
	"github.com/uniconnect/uniconnect/internal/handlers"
	"github.com/uniconnect/uniconnect/internal/realtime"
	"github.com/uniconnect/uniconnect/internal/store"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(
	cfg *config.Config,
	logger zerolog.Logger,
	db store.DataStore,
	redisStore *store.RedisStore,
	hub *realtime.Hub,
	notifier handlers.InsertNotifier,
) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(8 * 1024)) // 8KB max body
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// Rate limiting needs Redis; single-instance dev mode runs without it
	if redisStore != nil {
		limiter := middleware.NewRateLimiter(redisStore.Client(), logger, middleware.RateLimiterConfig{
			Whitelist:        cfg.RateLimitWhitelist,
			AutoBlockEnabled: cfg.AutoBlockEnabled,
		})
		r.Use(limiter.Middleware)
	}

	// CORS - the web client calls from campus subdomains
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	secret := []byte(cfg.JWTSecret)
	h := handlers.NewHandler(db, redisStore, notifier, logger)

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// Public routes (no auth required)
	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Get("/channels", h.ListChannels)
	r.Get("/channels/{id}/messages", h.ListMessages)
	r.Get("/channels/{id}/members/count", h.MemberCount)
	r.Post("/profiles/resolve", h.ResolveProfiles)
	r.Get("/profiles/{id}", h.GetProfile)
	r.Get("/organizations/{id}", h.GetOrganization)

	// Realtime subscriptions authenticate inside the upgrade handler since
	// browsers cannot set headers on websocket requests.
	r.Get("/realtime/channels/{id}", hub.ServeWS(secret))

	// Authenticated routes (require bearer token)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(secret))

		r.Post("/channels/{id}/join", h.JoinChannel)
		r.Post("/channels/{id}/messages", h.PostMessage)
		r.Get("/memberships", h.ListMemberships)
	})

	return r
}
