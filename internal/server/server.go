// Package server contains the HTTP handlers and page rendering for the web application.
package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chirp/internal/config"
	"chirp/internal/database"
	"chirp/internal/featureflags"
	"chirp/internal/middleware"
	"chirp/internal/repository"
	"chirp/internal/service"
	"chirp/internal/session"
	"chirp/internal/textpipeline"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	sessions       *session.Manager
	promMiddleware *fiberprometheus.FiberPrometheus
	featureFlags   *featureflags.Manager

	authService       *service.AuthService
	feedService       *service.FeedService
	tweetService      *service.TweetService
	engagementService *service.EngagementService
	imageService      *service.ImageService
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; pipeline may be nil to store posts undecorated.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, pipeline textpipeline.Pipeline) (*Server, error) {
	if cfg == nil || db == nil {
		return nil, errors.New("server requires config and database")
	}

	userRepo := repository.NewUserRepository(db)
	tweetRepo := repository.NewTweetRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		sessions:       session.NewManager(cfg.SessionSecret, cfg.SessionLifetime(), redisClient),
		promMiddleware: middleware.InitMetrics("chirp"),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		imageService:   service.NewImageService(cfg),
	}

	server.authService = service.NewAuthService(userRepo)
	server.feedService = service.NewFeedService(tweetRepo, commentRepo)
	server.tweetService = service.NewTweetService(tweetRepo, server.imageService, pipeline, cfg.TextPipelineTimeout(), server.featureFlags)
	server.engagementService = service.NewEngagementService(tweetRepo, commentRepo)

	return server, nil
}

// NewApp builds the Fiber application with views, middleware and routes.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Chirp",
		// oversized images up to this limit reach the form and fail validation inline
		BodyLimit:    bodyLimit(s.imageService.MaxUploadSizeBytes()),
		Views:        newViewEngine(),
		ViewsLayout:  "layouts/main",
		ErrorHandler: s.errorHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// bodyLimit allows four times the largest accepted image plus room for the form fields.
func bodyLimit(maxUpload int64) int {
	return int(4*maxUpload) + 1<<20
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	app.Use(middleware.TracingMiddleware())

	// Session before context so user_id reaches the request context
	app.Use(middleware.LoadSession(s.sessions, s.config.IsProduction()))
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Static("/uploads", s.imageService.UploadDir(), fiber.Static{
		ByteRange: true,
		MaxAge:    3600,
	})

	app.Get("/", s.Home)
	app.Get("/profile", middleware.AuthRequired(), s.Profile)

	// Auth routes
	auth := app.Group("/auth")
	auth.Get("/register", middleware.GuestOnly(), s.RegisterPage)
	auth.Post("/register", middleware.GuestOnly(), middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "register"), s.Register)
	auth.Get("/login", middleware.GuestOnly(), s.LoginPage)
	auth.Post("/login", middleware.GuestOnly(), middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Get("/logout", middleware.AuthRequired(), s.Logout)

	tweets := app.Group("/tweets")
	// Define /new before the generic /:id routes
	tweets.Get("/new", middleware.AuthRequired(), s.NewTweetPage)
	tweets.Post("/new", middleware.AuthRequired(), middleware.RateLimit(
		s.redis, 10, time.Minute, "create_tweet"), s.CreateTweet)
	tweets.Get("/:id/edit", middleware.AuthRequired(), s.EditTweetPage)
	tweets.Post("/:id/edit", middleware.AuthRequired(), s.EditTweet)
	tweets.Post("/:id/delete", middleware.AuthRequired(), s.DeleteTweet)
	tweets.Post("/:id/like", middleware.AuthRequired(), s.ToggleLike)
	tweets.Post("/:id/comment/:commentId/delete", middleware.AuthRequired(), s.DeleteComment)
	tweets.Post("/:id/comment", middleware.AuthRequired(), middleware.RateLimit(
		s.redis, 20, time.Minute, "create_comment"), s.AddComment)
	tweets.Get("/:id", s.ViewTweet)
	tweets.Post("/:id", middleware.AuthRequired(), middleware.RateLimit(
		s.redis, 20, time.Minute, "create_comment"), s.AddComment)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now().UTC(),
	})
}

// ReadinessCheck reports database health and, when configured, Redis health.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now().UTC(),
	})
}

// Shutdown releases the Redis and database connections.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close database: %w", err))
			}
		}
	}
	middleware.Logger.InfoContext(ctx, "Server resources released")
	return errors.Join(errs...)
}
