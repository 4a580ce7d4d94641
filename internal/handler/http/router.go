package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/OmSonawane4/Roxiler-Assignment/internal/domain"
	"github.com/OmSonawane4/Roxiler-Assignment/pkg/health"
	"github.com/OmSonawane4/Roxiler-Assignment/pkg/middleware"
)

// Services groups the application services behind the HTTP API.
type Services struct {
	Users      UserService
	Stores     StoreService
	Ratings    RatingService
	Dashboards DashboardService
	Photos     PhotoService
}

// RouterConfig holds the optional cross-cutting pieces of the router.
type RouterConfig struct {
	ServiceName string
	CORS        middleware.CORSConfig
	PprofCIDRs  []string
	// Metrics records per-route request metrics when set.
	Metrics *middleware.HTTPMetrics
	// Gatherer backs /metrics. Defaults to the global registry.
	Gatherer prometheus.Gatherer
	// WriteLimiter throttles auth and rating writes when set.
	WriteLimiter *middleware.RateLimiter
	// PhotoFiles serves uploaded photos under /photos when set.
	PhotoFiles ObjectReader
}

// NewRouter creates a chi router with all store rating routes registered.
func NewRouter(
	svc Services,
	validate middleware.TokenValidator,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogging(logger))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Handler)
	}

	// Health, metrics and profiling
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	authn := middleware.Auth(validate)
	limit := func(next http.Handler) http.Handler {
		if cfg.WriteLimiter == nil {
			return next
		}
		return cfg.WriteLimiter.Handler(next)
	}

	authHandler := NewAuthHandler(svc.Users, logger)
	userHandler := NewUserHandler(svc.Users, logger)
	storeHandler := NewStoreHandler(svc.Stores, logger)
	ratingHandler := NewRatingHandler(svc.Ratings, logger)
	dashboardHandler := NewDashboardHandler(svc.Dashboards, logger)
	photoHandler := NewPhotoHandler(svc.Photos, cfg.PhotoFiles, logger)

	if cfg.PhotoFiles != nil {
		r.Get("/photos/*", photoHandler.Serve)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(ContentTypeJSON)
			r.Use(limit)

			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(ContentTypeJSON)
			r.Use(authn)
			r.Use(middleware.CacheControl("no-store"))

			r.Get("/me", userHandler.GetProfile)
			r.Put("/me", userHandler.UpdateProfile)
			r.Put("/me/password", userHandler.ChangePassword)

			r.Group(func(r chi.Router) {
				r.Use(requireCapability(domain.CapManageUsers))

				r.Get("/", userHandler.ListUsers)
				r.Post("/", userHandler.CreateUser)
				r.Delete("/{id}", userHandler.DeleteUser)
			})
		})

		r.Route("/stores", func(r chi.Router) {
			r.Use(ContentTypeJSON)

			r.Get("/", storeHandler.ListStores)
			r.Get("/search", storeHandler.SearchStores)
			r.Get("/{id}", storeHandler.GetStore)

			r.Group(func(r chi.Router) {
				r.Use(authn)

				r.Get("/owner/{ownerId}", storeHandler.ListByOwner)

				r.Group(func(r chi.Router) {
					r.Use(requireCapability(domain.CapManageStores))

					r.Post("/", storeHandler.CreateStore)
					r.Put("/{id}", storeHandler.UpdateStore)
					r.Delete("/{id}", storeHandler.DeleteStore)
				})
			})
		})

		r.Route("/ratings", func(r chi.Router) {
			r.Get("/store/{storeId}", ratingHandler.ListByStore)
			r.Get("/store/{storeId}/stats", ratingHandler.Stats)
			r.Get("/{id}", ratingHandler.GetRating)

			r.Group(func(r chi.Router) {
				r.Use(authn)

				r.Get("/user/{userId}", ratingHandler.ListByUser)
				// Multipart, so outside ContentTypeJSON.
				r.With(limit).Post("/photos", photoHandler.Upload)

				r.Group(func(r chi.Router) {
					r.Use(ContentTypeJSON)

					r.Post("/{id}/helpful", ratingHandler.MarkHelpful)
					r.Delete("/{id}/helpful", ratingHandler.UnmarkHelpful)
					r.With(limit).Put("/{id}", ratingHandler.Update)
					r.Delete("/{id}", ratingHandler.Delete)

					r.Group(func(r chi.Router) {
						r.Use(requireCapability(domain.CapRateStores))
						r.Use(limit)

						r.Post("/", ratingHandler.Submit)
						r.Put("/upsert", ratingHandler.Upsert)
					})
				})
			})
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Use(authn)
			r.Use(middleware.CacheControl("no-store"))

			r.With(requireCapability(domain.CapViewAdminDashboard)).Get("/admin", dashboardHandler.Admin)
			r.With(requireCapability(domain.CapViewOwnerDashboard)).Get("/store-owner", dashboardHandler.Owner)
			r.With(requireCapability(domain.CapViewCustomerDashboard)).Get("/customer", dashboardHandler.Customer)
		})
	})

	return r
}
