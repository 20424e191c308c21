// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"time"

	"vibefeed/internal/cache"
	"vibefeed/internal/config"
	"vibefeed/internal/dispatch"
	"vibefeed/internal/featureflags"
	"vibefeed/internal/middleware"
	"vibefeed/internal/notifications"
	"vibefeed/internal/observability"
	"vibefeed/internal/repository"
	"vibefeed/internal/seed"
	"vibefeed/internal/service"
	"vibefeed/internal/view"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	now            func() time.Time
	sessionKey     string
	store          *repository.Session
	feedService    *service.FeedService
	projector      *view.Projector
	dispatcher     *dispatch.Dispatcher
	hub            *notifications.Hub
	featureFlags   *featureflags.Manager
}

// NewServer creates a server for one session seeded from cfg.Seed, connecting
// to Redis when REDIS_URL is set.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	return NewServerWithDeps(cfg, cache.Connect(ctx, cfg.RedisURL), time.Now)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; now is the session clock.
func NewServerWithDeps(cfg *config.Config, redisClient *redis.Client, now func() time.Time) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if now == nil {
		now = time.Now
	}

	s := &Server{
		config:         cfg,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("vibefeed"),
		now:            now,
		sessionKey:     uuid.NewString(),
		hub:            notifications.NewHub(),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
	}

	s.store = repository.NewSession(seed.Sample(now(), seed.DefaultOptions(cfg.Seed)), repository.WithClock(now))
	s.feedService = service.NewFeedService(s.store)

	var viewCache view.Cache
	if redisClient != nil && s.flag(featureflags.ViewCache) {
		viewCache = cache.NewViewCache(redisClient, s.sessionKey, cfg.ViewCacheTTL())
	}
	s.projector = view.NewProjector(s.store, now, viewCache)

	s.dispatcher = dispatch.NewDispatcher(s.feedService, dispatch.Options{
		Latency:   cfg.SimulatedLatency(),
		ReadDelay: cfg.NotificationReadDelay(),
	}, s.settle)

	observability.GlobalLogger.Info("session started",
		"session", s.sessionKey,
		"redis", redisClient != nil,
		"flags", s.featureFlags.Snapshot(s.sessionKey))
	return s, nil
}

func (s *Server) flag(name string) bool {
	return s.featureFlags.Enabled(name, s.sessionKey)
}

// App builds the fiber application once.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName:      "vibefeed",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.TracingMiddleware())
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}
	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the rate limiter so error responses still carry CORS headers.
	app.Use(cors.New(cors.Config{
		AllowOrigins: s.config.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version, " + middleware.CorrelationHeader,
		MaxAge:       86400,
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health", s.HealthCheck)
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api", middleware.RateLimit(s.redis, s.config.RateLimitPerMinute, time.Minute, "api"))

	api.Get("/feed", s.GetFeed)
	api.Post("/feed/more", s.LoadMore)
	api.Get("/search", s.SearchPosts)
	api.Get("/profile", s.GetProfile)
	api.Put("/profile", s.UpdateProfile)
	api.Get("/notifications", s.GetNotifications)
	api.Post("/notifications/read", s.MarkNotificationsRead)
	api.Get("/users/:id/posts", s.GetUserPosts)
	api.Post("/actions", s.PostAction)

	posts := api.Group("/posts")
	posts.Post("/", s.CreatePost)
	// Specific /:id/:resource routes before the generic /:id routes.
	posts.Get("/:id/comments", s.GetComments)
	posts.Post("/:id/comments", s.AddComment)
	posts.Post("/:id/like", s.ToggleLike)
	posts.Post("/:id/share", s.SharePost)
	posts.Post("/:id/report", s.ReportPost)
	posts.Get("/:id", s.GetPost)
	posts.Put("/:id", s.EditPost)
	posts.Delete("/:id", s.DeletePost)

	app.Get("/ws", s.WebSocketUpgrade, s.WebsocketHandler())
}

// HealthCheck handles liveness check requests
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	redisStatus := "disabled"
	if s.redis != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	return c.JSON(fiber.Map{
		"status":        "up",
		"time":          s.now().UTC(),
		"version":       s.store.Version(),
		"redis":         redisStatus,
		"ws_clients":    s.hub.Len(),
		"feature_flags": s.featureFlags.Snapshot(s.sessionKey),
	})
}

// Start listens on the configured port until Shutdown.
func (s *Server) Start() error {
	return s.App().Listen(":" + s.config.Port)
}

// Shutdown stops accepting requests, drops pending completions and closes
// websocket clients and Redis.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.dispatcher.Close()
	if err := s.hub.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
