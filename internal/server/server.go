// Package server contains the HTTP handlers of the blog.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "yatube/docs" // swagger docs
	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/media"
	"yatube/internal/middleware"
	"yatube/internal/repository"
	"yatube/internal/service"
	"yatube/internal/session"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	pageCache      cache.Store
	sessions       *session.Manager
	uploader       *media.Uploader

	userRepo    repository.UserRepository
	groupRepo   repository.GroupRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	followRepo  repository.FollowRepository

	postService    *service.PostService
	commentService *service.CommentService
	followService  *service.FollowService
	groupService   *service.GroupService
	authService    *service.AuthService
}

// NewServer connects to the database and Redis and builds a Server.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// A nil client switches the page cache to memory and disables revocation.
	cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("yatube"),
		pageCache:      cache.NewStore(redisClient),
		uploader:       media.NewUploader(media.NewLocalStorage(cfg.MediaRoot), cfg.MaxUploadMB),
		userRepo:       repository.NewUserRepository(db),
		groupRepo:      repository.NewGroupRepository(db),
		postRepo:       repository.NewPostRepository(db),
		commentRepo:    repository.NewCommentRepository(db),
		followRepo:     repository.NewFollowRepository(db),
	}

	s.postService = service.NewPostService(s.postRepo, s.groupRepo, s.userRepo, s.followRepo, s.commentRepo, s.uploader)
	s.commentService = service.NewCommentService(s.postRepo, s.commentRepo)
	s.followService = service.NewFollowService(s.userRepo, s.followRepo)
	s.groupService = service.NewGroupService(s.groupRepo)
	s.authService = service.NewAuthService(s.userRepo)
	s.sessions = session.NewManager(cfg.JWTSecret, cfg.SessionTTL(), cfg.IsProduction(), s.userRepo, redisClient)

	return s, nil
}

// App builds the Fiber application on first use.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName:      "Yatube",
		Views:        newViewEngine(s.uploader.Storage().URL),
		ErrorHandler: s.ErrorHandler,
		BodyLimit:    (s.config.MaxUploadMB + 1) << 20,
		// Route params arrive decoded, so /profile/a%20b/ finds "a b".
		UnescapePath: true,
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
	app.Use(middleware.TracingMiddleware())

	// The session resolves the user before the logging context is built.
	app.Use(s.sessions.Middleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New(helmet.Config{
		// Post images are served from /media on the same origin.
		CrossOriginEmbedderPolicy: "unsafe-none",
	}))

	app.Use(middleware.StructuredLogger())

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many requests, please try again later.")
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
	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Static("/media", s.config.MediaRoot)

	loginRequired := session.LoginRequired()

	// Listings
	app.Get("/", cache.Page(s.pageCache, s.config.PageCacheTTL(), nil), s.Index)
	app.Get("/group/:slug/", s.GroupPosts)
	app.Get("/follow/", loginRequired, s.FollowIndex)

	// Profile and following; both actions answer any of GET and POST.
	app.Get("/profile/:username/", s.Profile)
	getPost(app, "/profile/:username/follow/", loginRequired, s.ProfileFollow)
	getPost(app, "/profile/:username/unfollow/", loginRequired, s.ProfileUnfollow)

	// Posts. Specific /:id/:action routes before the generic /:id route.
	getPost(app, "/create/", loginRequired, s.PostCreate)
	getPost(app, "/posts/:id/edit/", loginRequired, s.PostEdit)
	getPost(app, "/posts/:id/comment/", loginRequired, s.AddComment)
	app.Get("/posts/:id/", s.PostDetail)

	about := app.Group("/about")
	about.Get("/author/", s.AboutAuthor)
	about.Get("/tech/", s.AboutTech)

	auth := app.Group("/auth")
	getPost(auth, "/signup/", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup", middleware.FailOpen), s.Signup)
	getPost(auth, "/login/", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login", middleware.FailOpen), s.Login)
	getPost(auth, "/logout/", s.Logout)

	admin := app.Group("/admin", session.StaffRequired())
	admin.Get("/", s.AdminIndex)
	admin.Get("/monitor", monitor.New(monitor.Config{
		Title: "Yatube Metrics Dashboard",
	}))
	admin.Post("/groups/", s.AdminCreateGroup)
	admin.Post("/groups/:slug/delete/", s.AdminDeleteGroup)
	admin.Post("/posts/:id/delete/", s.AdminDeletePost)
	admin.Post("/cache/clear/", s.AdminClearCache)
}

func getPost(r fiber.Router, path string, handlers ...fiber.Handler) {
	r.Get(path, handlers...)
	r.Post(path, handlers...)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database and Redis health. Redis is optional: the
// page cache falls back to memory without it.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	} else if redisStatus != "healthy" {
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start listens on the configured port until Shutdown.
func (s *Server) Start() error {
	app := s.App()
	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := database.Close(s.db); err != nil {
		middleware.Logger.Error("error closing database", slog.String("error", err.Error()))
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
