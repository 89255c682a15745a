package router

import (
	"log/slog"

	"github.com/anonto42/nano-midea/stories/internal/handlers"
	"github.com/anonto42/nano-midea/stories/internal/middleware"
	"github.com/anonto42/nano-midea/stories/internal/playback"
	"github.com/anonto42/nano-midea/stories/internal/repositories"
	"github.com/anonto42/nano-midea/stories/internal/services"
	"github.com/labstack/echo/v4"
)

// Dependencies are the collaborators the routes are wired to
type Dependencies struct {
	Users         repositories.UserRepository
	Notifications repositories.NotificationRepository
	Stories       *services.StoryStore
	Tracker       *services.StoryTracker
	Sessions      *playback.Manager
	FirebaseAuth  handlers.IDTokenVerifier
	JWTSecret     string
	Logger        *slog.Logger
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Dependencies) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(deps.Users, deps.FirebaseAuth, deps.JWTSecret)
	authHandler.RegisterAuthRoutes(authGroup)
	logger.Debug("auth routes configured", "firebase", deps.FirebaseAuth != nil)

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(deps.JWTSecret))

	userHandler := handlers.NewUserHandler(deps.Users)
	userHandler.RegisterProfileRoutes(api)

	storyHandler := handlers.NewStoryHandler(deps.Stories, deps.Tracker, deps.Users)
	storyHandler.RegisterStoryRoutes(api)

	sessionHandler := handlers.NewSessionHandler(deps.Sessions, deps.Stories, deps.Users)
	sessionHandler.RegisterSessionRoutes(api)

	if deps.Notifications != nil {
		notificationHandler := handlers.NewNotificationHandler(deps.Notifications, deps.Users)
		notificationHandler.RegisterNotificationRoutes(api)
	}

	logger.Info("routes configured")
}
