package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	appLogger "github.com/FACorreiaa/go-korea-tour-explorer/app/logger"
	appMiddleware "github.com/FACorreiaa/go-korea-tour-explorer/app/middleware"
	_ "github.com/FACorreiaa/go-korea-tour-explorer/docs"
	"github.com/FACorreiaa/go-korea-tour-explorer/internal/api"
	"github.com/FACorreiaa/go-korea-tour-explorer/internal/api/bookmark"
	"github.com/FACorreiaa/go-korea-tour-explorer/internal/api/place"
	"github.com/FACorreiaa/go-korea-tour-explorer/internal/api/stats"
)

const (
	defaultRequestTimeout    = 60 * time.Second
	defaultRequestsPerMinute = 120
)

// Config contains dependencies needed for the router setup.
type Config struct {
	PlaceHandler      *place.HandlerImpl
	StatsHandler      *stats.HandlerImpl
	BookmarkHandler   *bookmark.HandlerImpl
	Verifier          *appMiddleware.Verifier
	Logger            *slog.Logger
	AllowedOrigins    []string
	RequestsPerMinute int
	RequestTimeout    time.Duration
}

// SetupRouter builds the full HTTP handler including server-wide middleware.
func SetupRouter(cfg *Config) http.Handler {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = defaultRequestsPerMinute
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appLogger.StructuredLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.Compress(5, "application/json"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
	))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.ErrorResponse(w, r, http.StatusNotFound, "Route not found")
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(rpm, time.Minute))
		r.Use(appMiddleware.OptionalAuth(cfg.Verifier, cfg.Logger))

		// Public routes; identity is attached when present.
		r.Group(func(r chi.Router) {
			r.Get("/areas", cfg.PlaceHandler.ListAreas)
			r.Get("/places", cfg.PlaceHandler.ListPlaces)
			r.Get("/places/{contentID}", cfg.PlaceHandler.GetPlace)
			r.Get("/places/{contentID}/pet", cfg.PlaceHandler.GetPetInfo)

			r.Get("/stats/summary", cfg.StatsHandler.GetSummary)
			r.Get("/stats/regions", cfg.StatsHandler.GetRegions)
			r.Get("/stats/types", cfg.StatsHandler.GetTypes)

			r.Get("/bookmarks/{contentID}", cfg.BookmarkHandler.IsBookmarked)
		})

		// Routes that require a verified identity.
		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.RequireAuth(cfg.Logger))

			r.Post("/stats/refresh", cfg.StatsHandler.Refresh)

			r.Get("/bookmarks", cfg.PlaceHandler.ListBookmarkedPlaces)
			r.Put("/bookmarks/{contentID}", cfg.BookmarkHandler.AddBookmark)
			r.Delete("/bookmarks/{contentID}", cfg.BookmarkHandler.RemoveBookmark)

			r.Post("/users/sync", cfg.BookmarkHandler.SyncUser)
		})
	})

	return otelhttp.NewHandler(r, "korea-tour-explorer",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}
