package server

import (
	"log/slog"

	"github.com/RENEILPH10/Step-Counter/internal/config"
	"github.com/RENEILPH10/Step-Counter/internal/storage"
	"github.com/RENEILPH10/Step-Counter/internal/stream"
	"github.com/RENEILPH10/Step-Counter/internal/tracking"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App      *fiber.App
	Cfg      config.Config
	Store    storage.Store
	Redis    *redis.Client
	Stream   *stream.Hub
	Tracking *tracking.Service
}

func NewServer(cfg config.Config, store storage.Store, redisClient *redis.Client, tracker *tracking.Tracker, log *slog.Logger) *Server {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(recover.New())
	app.Use(logger.New())

	hub := stream.NewHub(redisClient, log)
	s := &Server{
		App:      app,
		Cfg:      cfg,
		Store:    store,
		Redis:    redisClient,
		Stream:   hub,
		Tracking: tracking.NewService(tracker, store, hub, log).WithHistoryLimit(cfg.HistoryLimit),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "state": s.Tracking.Tracker().State()})
	})

	tracking.RegisterRoutes(s.App.Group("/api"), s.Tracking)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
