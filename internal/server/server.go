// Package server contains the HTTP handlers and route wiring for the application.
package server

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"warbler/internal/cache"
	"warbler/internal/config"
	"warbler/internal/database"
	"warbler/internal/middleware"
	"warbler/internal/models"
	"warbler/internal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/template/html/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	sessionCookieName = "warbler_session"
	sessionUserKey    = "user_id"
	csrfContextKey    = "csrfToken"
	csrfFormField     = "csrf_token"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config      *config.Config
	db          *gorm.DB
	redis       *redis.Client
	app         *fiber.App
	sessions    *session.Store
	userRepo    repository.UserRepository
	messageRepo repository.MessageRepository
	followRepo  repository.FollowRepository
	likeRepo    repository.LikeRepository
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	return NewServerWithDeps(cfg, db, redisClient), nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	s := &Server{
		config:      cfg,
		db:          db,
		redis:       redisClient,
		userRepo:    repository.NewUserRepository(db),
		messageRepo: repository.NewMessageRepository(db),
		followRepo:  repository.NewFollowRepository(db),
		likeRepo:    repository.NewLikeRepository(db),
	}
	s.sessions = s.newSessionStore()
	return s
}

// newSessionStore builds the cookie-keyed session store, persisted in Redis
// when available and in process memory otherwise.
func (s *Server) newSessionStore() *session.Store {
	cfg := session.Config{
		KeyLookup:      "cookie:" + sessionCookieName,
		Expiration:     14 * 24 * time.Hour,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
		CookieSecure:   s.config.IsProduction(),
	}
	if s.redis != nil {
		cfg.Storage = cache.NewSessionStorage(s.redis)
	}
	return session.New(cfg)
}

// cookieEncryptionKey derives the 32-byte key encryptcookie expects from the
// configured session secret, which may be any length.
func cookieEncryptionKey(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// csrfMiddleware validates the anti-forgery token on every state-changing
// request. The token is bound to the session and exposed to templates.
func (s *Server) csrfMiddleware() fiber.Handler {
	return csrf.New(csrf.Config{
		KeyLookup:      "form:" + csrfFormField,
		CookieName:     "warbler_csrf",
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
		CookieSecure:   s.config.IsProduction(),
		Expiration:     1 * time.Hour,
		KeyGenerator:   uuid.NewString,
		ContextKey:     csrfContextKey,
		Session:        s.sessions,
		SessionKey:     "csrf_token",
		ErrorHandler:   s.csrfErrorHandler,
	})
}

// csrfErrorHandler implements the failure split for anti-forgery checks:
// logout hard-fails with 401 while every other action flashes a warning and
// soft-redirects home.
func (s *Server) csrfErrorHandler(c *fiber.Ctx, _ error) error {
	if c.Path() == "/logout" {
		return fiber.ErrUnauthorized
	}
	s.flash(c, flashDanger, "Access unauthorized.")
	return c.Redirect("/", fiber.StatusFound)
}

// NewApp builds the Fiber application with views, middleware and routes.
// viewsDir points at the template root (tests pass a relative path).
func (s *Server) NewApp(viewsDir string) *fiber.App {
	engine := html.New(viewsDir, ".html")
	app := fiber.New(fiber.Config{
		AppName:      "Warbler",
		Views:        engine,
		ViewsLayout:  "layouts/main",
		ErrorHandler: s.errorHandler,
	})

	app.Static("/static", "./static")

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// All cookies are encrypted with a key derived from the session secret
	app.Use(encryptcookie.New(encryptcookie.Config{
		Key: cookieEncryptionKey(s.config.SessionSecret),
	}))

	// Request ID for log correlation
	app.Use(requestid.New())

	// Context middleware to propagate request ID into the user context
	app.Use(middleware.ContextMiddleware())

	// Prometheus metrics
	prom := middleware.InitMetrics("warbler")
	prom.RegisterAt(app, "/metrics")
	app.Use(prom.Middleware)

	// Security headers
	app.Use(helmet.New())

	// Every response is uncacheable: pages are per-session.
	app.Use(func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.Next()
	})

	// Structured logging (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// Anti-forgery token check on unsafe methods
	app.Use(s.csrfMiddleware())

	// Resolve the session's user id to a full user for this request
	app.Use(s.LoadCurrentUser())
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	app.Get("/", s.Homepage)

	app.Get("/signup", s.SignupPage)
	app.Post("/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	app.Get("/login", s.LoginPage)
	app.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	app.Post("/logout", s.Logout)

	users := app.Group("/users", s.RequireAuth())
	users.Get("/", s.ListUsers)
	// Define specific routes BEFORE the generic /:id route
	users.Get("/profile", s.ProfilePage)
	users.Post("/profile", s.UpdateProfile)
	users.Post("/delete", s.DeleteUser)
	users.Post("/follow/:id", s.StartFollowing)
	users.Post("/stop-following/:id", s.StopFollowing)
	users.Get("/:id/following", s.ShowFollowing)
	users.Get("/:id/followers", s.ShowFollowers)
	users.Get("/:id/liked-messages", s.ShowLikedMessages)
	users.Get("/:id", s.ShowUser)

	messages := app.Group("/messages", s.RequireAuth())
	messages.Get("/new", s.NewMessagePage)
	messages.Post("/new", s.CreateMessage)
	messages.Post("/:id/like", s.LikeMessage)
	messages.Post("/:id/unlike", s.UnlikeMessage)
	messages.Post("/:id/delete", s.DeleteMessage)
	messages.Get("/:id", s.ShowMessage)
}

// LoadCurrentUser resolves the session's stored user id to a full user record
// for every request. The session holds only the id; the user is re-fetched so
// handlers never act on stale data.
func (s *Server) LoadCurrentUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := s.sessions.Get(c)
		if err != nil {
			return c.Next()
		}

		id, ok := sess.Get(sessionUserKey).(uint)
		if !ok {
			return c.Next()
		}

		user, err := s.userRepo.GetByID(c.Context(), id)
		if err != nil {
			// Stale session pointing at a deleted user: drop it.
			sess.Delete(sessionUserKey)
			_ = sess.Save()
			return c.Next()
		}

		c.Locals(localUserKey, user)
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, user.ID)
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// RequireAuth gates a route group on an authenticated session. Anonymous
// requests are flashed a warning and redirected home, never given an HTTP error.
func (s *Server) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if currentUser(c) == nil {
			s.flash(c, flashDanger, "Access unauthorized.")
			return c.Redirect("/", fiber.StatusFound)
		}
		return c.Next()
	}
}

// errorHandler maps errors that escape handlers to terminal responses.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).SendString(fiberErr.Message)
	}

	if models.HasCode(err, models.CodeNotFound) {
		c.Status(fiber.StatusNotFound)
		return s.render(c, "404", nil)
	}

	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
		"path", c.Path(), "error", err.Error())
	return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
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

// Start starts the server
func (s *Server) Start() error {
	app := s.NewApp("./views")
	s.app = app

	middleware.Logger.Info("Server starting", "port", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err.Error())
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", "error", cerr.Error())
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr.Error())
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
