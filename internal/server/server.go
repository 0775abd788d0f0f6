package server

import (
	"net/http"
	"time"

	"github.com/shiveshkaul/puprouteapp-sub001/internal/auth"
	"github.com/shiveshkaul/puprouteapp-sub001/internal/config"
	"github.com/shiveshkaul/puprouteapp-sub001/internal/engine"
	"github.com/shiveshkaul/puprouteapp-sub001/internal/enrich"
	"github.com/shiveshkaul/puprouteapp-sub001/internal/storage"
	"github.com/shiveshkaul/puprouteapp-sub001/internal/stream"
	"github.com/shiveshkaul/puprouteapp-sub001/internal/walk"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Stream *stream.Hub
	Walks  *walk.Manager
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient),
	}
	s.Walks = walk.NewManager(archiverFor(db), weatherFor(cfg, redisClient), s.Stream, engineConfig(cfg))

	registerRoutes(s)
	return s
}

func archiverFor(db *pgxpool.Pool) walk.Archiver {
	if db == nil {
		return nil
	}
	return storage.NewStore(db)
}

func weatherFor(cfg config.Config, redisClient *redis.Client) enrich.Provider {
	if cfg.WeatherBaseURL == "" {
		return nil
	}
	var provider enrich.Provider = enrich.NewHTTPProvider(cfg.WeatherBaseURL, &http.Client{Timeout: 5 * time.Second})
	if redisClient != nil {
		provider = enrich.NewCachedProvider(provider, redisClient)
	}
	return provider
}

func engineConfig(cfg config.Config) engine.Config {
	return engine.Config{
		NoiseFloorM:       cfg.NoiseFloorM,
		AutoPauseSpeedMps: cfg.AutoPauseSpeedMps,
		AutoPauseWindow:   time.Duration(cfg.AutoPauseWindowMs) * time.Millisecond,
		TickInterval:      time.Duration(cfg.TickIntervalMs) * time.Millisecond,
		CaloriesPerMeter:  cfg.CaloriesPerMeter,
	}
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	walk.RegisterRoutes(s.App.Group("/walks"), s.Walks, jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
