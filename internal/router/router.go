package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/FACorreiaa/isitsafe/internal/api/city"
)

// Config contains dependencies needed for the router setup.
type Config struct {
	CityHandler    *city.Handler
	AllowedOrigins []string
}

// SetupRouter builds the API router. Server-wide middleware (logger, request
// ID, recoverer) is applied in main before mounting it.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		h := cfg.CityHandler

		r.Get("/metadata", h.Metadata)
		r.Get("/stats", h.Stats)
		r.Get("/rankings", h.Rankings)
		r.Get("/stale", h.StaleCities)

		r.Route("/cities", func(r chi.Router) {
			r.Get("/", h.ListCities)
			r.Get("/slugs", h.ListSlugs)
			r.Get("/{slug}", h.GetCity)
			r.Get("/{slug}/related", h.RelatedCities)
		})

		r.Route("/regions", func(r chi.Router) {
			r.Get("/", h.ListRegions)
			r.Get("/{regionSlug}/cities", h.CitiesByRegion)
		})
	})

	return r
}
