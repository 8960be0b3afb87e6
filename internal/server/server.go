package server

import (
	"backend-tripplanner/internal/clock"
	"backend-tripplanner/internal/config"
	"backend-tripplanner/internal/mailer"
	"backend-tripplanner/internal/participant"
	"backend-tripplanner/internal/trip"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App   *fiber.App
	Cfg   config.Config
	DB    *pgxpool.Pool
	Redis *redis.Client
	Mail  mailer.Mailer
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:   app,
		Cfg:   cfg,
		DB:    db,
		Redis: redisClient,
		Mail:  mailer.FromConfig(cfg),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	tripSvc := trip.NewService(s.DB, s.Redis, s.Mail, clock.System(), s.Cfg.APIBaseURL, s.Cfg.WebBaseURL)
	participantSvc := participant.NewService(s.DB, s.Mail, s.Cfg.APIBaseURL, s.Cfg.WebBaseURL)

	trips := s.App.Group("/trips")
	trip.RegisterRoutes(trips, tripSvc)
	participant.RegisterTripRoutes(trips, participantSvc)
	participant.RegisterRoutes(s.App.Group("/participants"), participantSvc)
}
