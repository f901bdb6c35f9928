package api

import (
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/hellavor/careers-api/internal/api/handlers"
	"github.com/hellavor/careers-api/internal/auth"
	"github.com/hellavor/careers-api/internal/metrics"
	"github.com/hellavor/careers-api/internal/services"
	"github.com/hellavor/careers-api/internal/websocket"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	AuthService        services.AuthServiceProvider
	ApplicationService services.ApplicationServiceProvider
	Jobs               handlers.JobLister
	Issuer             *auth.Issuer
	Hub                *websocket.Hub
	Readiness          handlers.ReadinessSource

	AllowedOrigins     []string
	TrustedProxies     []netip.Prefix
	LoginRatePerMinute int
	SecureCookies      bool
	StartedAt          time.Time
}

// NewRouter creates and configures a new Chi router.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(RealIP(d.TrustedProxies))
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(SecurityHeaders)
	r.Use(Metrics)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(d.AuthService, d.SecureCookies)
	applicationHandler := handlers.NewApplicationHandler(d.ApplicationService)
	jobHandler := handlers.NewJobHandler(d.Jobs)
	healthHandler := handlers.NewHealthHandler(d.Readiness, d.StartedAt)
	wsHandler := handlers.NewWebSocketHandler(d.Hub, d.AllowedOrigins)

	loginLimiter := NewRateLimiter(d.LoginRatePerMinute)

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/admin", func(r chi.Router) {
			r.With(loginLimiter.Handler).Post("/login", authHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(auth.JWTMiddleware(d.Issuer))
				r.Get("/me", authHandler.GetMe)
				r.Get("/ws", wsHandler.Serve)
			})
		})

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", jobHandler.List)
			r.Get("/{id}", jobHandler.Get)
			r.Post("/apply", applicationHandler.Submit)
			r.With(auth.JWTMiddleware(d.Issuer)).Get("/applications", applicationHandler.List)
		})
	})

	return r
}
