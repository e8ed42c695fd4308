package container

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	database "github.com/FACorreiaa/go-korea-tour-explorer/app/db"
	appMiddleware "github.com/FACorreiaa/go-korea-tour-explorer/app/middleware"
	"github.com/FACorreiaa/go-korea-tour-explorer/config"
	"github.com/FACorreiaa/go-korea-tour-explorer/internal/api/bookmark"
	"github.com/FACorreiaa/go-korea-tour-explorer/internal/api/place"
	"github.com/FACorreiaa/go-korea-tour-explorer/internal/api/stats"
	"github.com/FACorreiaa/go-korea-tour-explorer/internal/api/tourapi"
	"github.com/FACorreiaa/go-korea-tour-explorer/internal/router"
)

// Container holds all application dependencies.
type Container struct {
	Config          *config.Config
	Logger          *slog.Logger
	Pool            *pgxpool.Pool
	Redis           *redis.Client
	TourClient      tourapi.Client
	Verifier        *appMiddleware.Verifier
	StatsService    *stats.ServiceImpl
	PlaceHandler    *place.HandlerImpl
	StatsHandler    *stats.HandlerImpl
	BookmarkHandler *bookmark.HandlerImpl
}

// NewContainer wires the tour API client, stats cache, bookmark store and handlers.
// The caller owns pool and must have run migrations on it.
func NewContainer(cfg *config.Config, pool *pgxpool.Pool, logger *slog.Logger) (*Container, error) {
	verifier, err := appMiddleware.NewVerifier(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to build token verifier: %w", err)
	}
	if !verifier.Enabled() {
		logger.Warn("No auth verification key configured, every request is anonymous")
	}

	var client tourapi.Client = tourapi.NewClient(cfg.TourAPI, logger)
	if cfg.TourAPI.CircuitBreaker.Enabled {
		client = tourapi.NewCircuitBreakerClient(client, logger)
	}
	if cfg.TourAPI.ServiceKey == "" {
		logger.Warn("Tour API service key is not configured, tourism endpoints will fail")
	}

	c := &Container{
		Config:     cfg,
		Logger:     logger,
		Pool:       pool,
		TourClient: client,
		Verifier:   verifier,
	}

	var cache stats.Cache
	switch cfg.Stats.CacheBackend {
	case "redis":
		c.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Repositories.Redis.Addr,
			Password: cfg.Repositories.Redis.Password,
			DB:       cfg.Repositories.Redis.DB,
		})
		cache = stats.NewRedisCache(c.Redis)
		logger.Info("Stats cache backend: redis", slog.String("addr", cfg.Repositories.Redis.Addr))
	default:
		cache = stats.NewMemoryCache(cfg.Stats.CacheTTL)
		logger.Info("Stats cache backend: memory")
	}

	c.StatsService = stats.NewServiceImpl(client, cache, cfg.Stats.CacheTTL, cfg.Stats.MaxConcurrency, logger)
	c.StatsHandler = stats.NewHandlerImpl(c.StatsService, logger)

	bookmarkRepo := bookmark.NewRepository(pool, logger)
	bookmarkService := bookmark.NewServiceImpl(bookmarkRepo, logger)
	c.BookmarkHandler = bookmark.NewHandlerImpl(bookmarkService, logger)

	placeService := place.NewServiceImpl(client, bookmarkService, logger)
	c.PlaceHandler = place.NewHandlerImpl(placeService, logger)

	return c, nil
}

// RouterConfig exposes the handlers and HTTP settings to the router.
func (c *Container) RouterConfig() *router.Config {
	return &router.Config{
		PlaceHandler:      c.PlaceHandler,
		StatsHandler:      c.StatsHandler,
		BookmarkHandler:   c.BookmarkHandler,
		Verifier:          c.Verifier,
		Logger:            c.Logger,
		AllowedOrigins:    c.Config.CORS.AllowedOrigins,
		RequestsPerMinute: c.Config.RateLimit.RequestsPerMinute,
		RequestTimeout:    c.Config.Server.Timeout,
	}
}

// Close releases all resources held by the container.
func (c *Container) Close() {
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Warn("Error closing redis client", slog.Any("error", err))
		}
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready.
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}
