package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/FACorreiaa/go-place-recs/internal/api/discover"
)

// Config contains dependencies needed for the router setup
type Config struct {
	DiscoverHandler        discover.Handler
	AuthenticateMiddleware func(http.Handler) http.Handler
	AuthEnabled            bool
	RateLimit              int
	RateWindow             time.Duration
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (logger, requestID, recoverer) are expected to be
// applied *before* mounting this router in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any major browsers
	}))

	// Heartbeat/Health check endpoint
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimit > 0 {
			window := cfg.RateWindow
			if window <= 0 {
				window = time.Minute
			}
			r.Use(httprate.LimitByIP(cfg.RateLimit, window))
		}

		r.Group(func(r chi.Router) {
			// Bearer auth is optional for this API and off by default.
			if cfg.AuthEnabled && cfg.AuthenticateMiddleware != nil {
				r.Use(cfg.AuthenticateMiddleware)
			}

			r.Route("/discover/sessions", func(r chi.Router) {
				r.Post("/", cfg.DiscoverHandler.CreateSession)

				r.Route("/{sessionID}", func(r chi.Router) {
					r.Get("/", cfg.DiscoverHandler.GetSession)
					r.Delete("/", cfg.DiscoverHandler.DeleteSession)
					r.Post("/destination", cfg.DiscoverHandler.VerifyDestination)
					r.Post("/recommendations", cfg.DiscoverHandler.RequestRecommendations)
					r.Post("/recommendations/more", cfg.DiscoverHandler.MoreRecommendations)
				})
			})
		})
	})

	return r
}
