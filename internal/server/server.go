// Package server contains the HTTP handlers and routing for the API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "socialconnect/docs"
	"socialconnect/internal/auth"
	"socialconnect/internal/authz"
	"socialconnect/internal/blob"
	"socialconnect/internal/cache"
	"socialconnect/internal/config"
	"socialconnect/internal/database"
	"socialconnect/internal/expiry"
	"socialconnect/internal/featureflags"
	"socialconnect/internal/middleware"
	"socialconnect/internal/models"
	"socialconnect/internal/repository"
	"socialconnect/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// sharedMetrics registers the HTTP collectors once per process.
func sharedMetrics() *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		prom = middleware.InitMetrics("socialconnect-api")
	})
	return prom
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	reaperDone     chan struct{}

	resolver     middleware.IdentityResolver
	blobs        blob.Store
	featureFlags *featureflags.Manager
	reaper       *expiry.Reaper

	graph    *service.GraphService
	content  *service.ContentService
	feeds    *service.FeedService
	identity *service.IdentityService
}

// Option customizes a Server built by NewServerWithDeps.
type Option func(*serverOptions)

type serverOptions struct {
	blobs blob.Store
	auth  *auth.Provider
	now   func() time.Time
}

// WithBlobStore replaces the disk-backed blob store.
func WithBlobStore(store blob.Store) Option {
	return func(o *serverOptions) { o.blobs = store }
}

// WithAuthProvider replaces the provider built from config.
func WithAuthProvider(p *auth.Provider) Option {
	return func(o *serverOptions) { o.auth = p }
}

// WithClock replaces the time source used for story visibility.
func WithClock(now func() time.Time) Option {
	return func(o *serverOptions) { o.now = now }
}

// NewServer connects to the database and Redis and builds the server.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, opts ...Option) (*Server, error) {
	o := serverOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	if o.blobs == nil {
		store, err := blob.NewDiskStore(cfg.UploadDir, cfg.UploadMaxBytes())
		if err != nil {
			return nil, fmt.Errorf("blob store: %w", err)
		}
		o.blobs = store
	}
	if o.auth == nil {
		o.auth = auth.NewProvider(cfg.JWTSecret, cfg.JWTTTL(), redisClient)
	}

	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	postRepo := repository.NewPostRepository(db)
	storyRepo := repository.NewStoryRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	flags := featureflags.NewManager(cfg.FeatureFlags)
	guard := authz.NewOwnerGuard()

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: sharedMetrics(),
		resolver:       o.auth,
		blobs:          o.blobs,
		featureFlags:   flags,
		graph:          service.NewGraphService(followRepo, userRepo),
		content:        service.NewContentService(postRepo, storyRepo, commentRepo, userRepo, o.blobs, guard),
		feeds:          service.NewFeedService(postRepo, storyRepo, followRepo, userRepo, flags),
		identity:       service.NewIdentityService(userRepo, followRepo, o.auth, o.blobs, guard),
		reaper: expiry.NewReaper(storyRepo, o.blobs, middleware.Logger,
			expiry.WithInterval(cfg.StoryReaperInterval()),
			expiry.WithGrace(cfg.StoryReaperGrace()),
			expiry.WithFlags(flags),
		),
	}
	if o.now != nil {
		s.feeds.WithClock(o.now)
	}
	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New(helmet.Config{
		// Uploaded images are embedded by clients on other origins.
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.StructuredLogger())

	// CORS runs before anything that can short-circuit so error responses
	// still carry the headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Static("/uploads", s.config.UploadDir, fiber.Static{
		MaxAge: 3600,
	})

	api := app.Group("/api")
	api.Get("/swagger/*", swagger.HandlerDefault)

	authRequired := middleware.AuthRequired(s.resolver)

	authGroup := api.Group("/auth")
	authGroup.Post("/signup", middleware.RateLimit(s.redis, middleware.SignupPolicy), s.Signup)
	authGroup.Post("/login", middleware.RateLimit(s.redis, middleware.LoginPolicy), s.Login)
	authGroup.Post("/logout", authRequired, s.Logout)

	posts := api.Group("/posts", authRequired)
	posts.Post("/create", middleware.RateLimit(s.redis, middleware.PostPolicy), s.CreatePost)
	posts.Get("/feed", s.HomeFeed)
	posts.Get("/all", s.ExploreFeed)
	posts.Get("/user/:username", s.AuthorFeed)
	posts.Post("/:postId/comments", middleware.RateLimit(s.redis, middleware.CommentPolicy), s.AddComment)
	posts.Put("/:postId", s.EditPost)
	posts.Delete("/:postId", s.DeletePost)

	stories := api.Group("/stories", authRequired)
	stories.Post("/upload", middleware.RateLimit(s.redis, middleware.StoryPolicy), s.UploadStory)
	stories.Get("/feed", s.StoryFeed)

	social := api.Group("/social", authRequired)
	social.Post("/follow/:userId", middleware.RateLimit(s.redis, middleware.FollowPolicy), s.Follow)
	social.Post("/unfollow/:userId", s.Unfollow)
	social.Get("/:userId/followers", s.Followers)
	social.Get("/:userId/following", s.Following)

	users := api.Group("/user", authRequired)
	users.Get("/search", middleware.RateLimit(s.redis, middleware.SearchPolicy), s.SearchUsers)
	users.Get("/profile/:username", s.GetProfile)
	users.Put("/update", s.UpdateProfile)
}

// LivenessCheck reports that the process is serving requests.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database and Redis health. Redis only backs caches
// and revocation, so a client that was never configured does not fail
// readiness; one that stops answering does.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if sqlDB, err := s.db.DB(); err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
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
	overall := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// errorHandler serves errors that escape a handler, including Fiber's own.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
	}
	middleware.Logger.ErrorContext(c.UserContext(), "Unhandled error",
		slog.String("path", c.Path()),
		slog.String("error", err.Error()),
	)
	return models.Respond(c, err)
}

// App builds the Fiber application with middleware and routes.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName:      "SocialConnect API",
		BodyLimit:    int(s.config.UploadMaxBytes()) + 1024*1024,
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// Start starts the story reaper and the HTTP listener.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.reaperDone = make(chan struct{})
	go func() {
		defer close(s.reaperDone)
		s.reaper.Run(ctx)
	}()

	app := s.App()
	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if s.reaperDone != nil {
		select {
		case <-s.reaperDone:
		case <-ctx.Done():
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
