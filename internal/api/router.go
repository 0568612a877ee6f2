package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/quizdesk/exam-platform/internal/api/handler"
	"github.com/quizdesk/exam-platform/internal/api/middleware"
	"github.com/quizdesk/exam-platform/internal/core/service"
	mongostore "github.com/quizdesk/exam-platform/internal/infrastructure/db/mongo"
	redisstore "github.com/quizdesk/exam-platform/internal/infrastructure/db/redis"
	"github.com/quizdesk/exam-platform/internal/pkg/config"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(db *mongo.Database, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("quizdesk"))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowCredentials: true,
	}))

	// --- Dependencies ---
	userRepo := mongostore.NewUserRepository(db)
	throttle := redisstore.NewLoginThrottle(rdb, cfg.LoginMaxAttempts, cfg.LoginAttemptWindow)
	tokenService := service.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	authService := service.NewAuthService(userRepo, tokenService, throttle, log)
	authHandler := handler.NewAuthHandler(authService)

	requireAuth := middleware.RequireAuth(tokenService, authService)
	guestOnly := middleware.GuestOnly(tokenService, authService)

	// --- User / auth routes ---
	users := e.Group("/api/users")
	users.POST("/register", authHandler.Register, guestOnly)
	users.POST("/login", authHandler.Login, guestOnly)
	users.GET("/session", authHandler.Session, requireAuth)
	users.GET("/sessions", authHandler.Sessions, requireAuth)
	users.DELETE("/logout", authHandler.Logout, requireAuth)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)          // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
