package api

import (
	"errors"
	"sync"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	authAPI "github.com/killallgit/sermon-api/api/auth"
	"github.com/killallgit/sermon-api/api/health"
	"github.com/killallgit/sermon-api/api/sermons"
	"github.com/killallgit/sermon-api/api/subscriptions"
	"github.com/killallgit/sermon-api/api/transcription"
	"github.com/killallgit/sermon-api/api/types"
	"github.com/killallgit/sermon-api/api/usage"
	"github.com/killallgit/sermon-api/api/version"
	_ "github.com/killallgit/sermon-api/docs/swagger"
)

// DefaultUploadSize caps sermon uploads when Dependencies.UploadMaxBytes is unset
const DefaultUploadSize = 512 << 20

// RegisterRoutes registers all API routes
func RegisterRoutes(engine *gin.Engine, deps *types.Dependencies, rateLimiters *sync.Map, cleanupStop chan struct{}, cleanupInitialized *sync.Once) error {
	if deps == nil {
		return errors.New("dependencies are required")
	}
	if deps.Auth == nil || deps.Users == nil {
		return errors.New("auth and user services are required")
	}

	// Register public routes (no rate limiting)
	health.RegisterRoutes(engine, deps)
	version.RegisterRoutes(engine, deps)

	// Register Swagger documentation route
	engine.GET("/docs", func(c *gin.Context) {
		c.Redirect(301, "/docs/index.html")
	})
	docsGroup := engine.Group("/docs")
	docsGroup.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Setup 404 handler
	engine.NoRoute(NotFoundHandler())

	// API v1 routes
	v1 := engine.Group("/api/v1")
	authHandler := authAPI.NewHandler(deps.Auth, deps.Users)

	// Credential endpoints get a tight per-IP limit (5 req/s, burst of 10)
	authGroup := v1.Group("/auth", RequestSizeLimit(), PerClientRateLimit(rateLimiters, cleanupStop, cleanupInitialized, 5, 10))
	authAPI.RegisterRoutes(authGroup, authHandler)

	planGroup := v1.Group("/plans", PerClientRateLimit(rateLimiters, cleanupStop, cleanupInitialized, 10, 20))
	subscriptions.RegisterPlanRoutes(planGroup, deps)

	// Everything below requires a bearer token (10 req/s, burst of 20)
	protected := v1.Group("", authHandler.AuthMiddleware(), PerClientRateLimit(rateLimiters, cleanupStop, cleanupInitialized, 10, 20))
	protected.GET("/me", authHandler.Me)

	sermonGroup := protected.Group("/sermons")
	transcription.RegisterRoutes(sermonGroup, deps, uploadMiddleware(deps)...)
	sermons.RegisterRoutes(sermonGroup.Group("", RequestSizeLimit()), deps)

	usage.RegisterRoutes(protected.Group("/usage"), deps)
	subscriptions.RegisterRoutes(protected.Group("/subscription", RequestSizeLimit()), deps)

	return nil
}

// uploadMiddleware raises the body limit for audio and applies the upload
// limiter when one is configured
func uploadMiddleware(deps *types.Dependencies) []gin.HandlerFunc {
	maxBytes := deps.UploadMaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultUploadSize
	}

	handlers := []gin.HandlerFunc{RequestSizeLimitWithSize(maxBytes)}
	if deps.UploadLimiter != nil {
		handlers = append(handlers, LimitPerUser(deps.UploadLimiter, "uploads per minute"))
	}
	return handlers
}

// NotFoundHandler handles 404 errors
func NotFoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(404, gin.H{
			"status":  "error",
			"message": "The requested endpoint was not found",
			"path":    c.Request.URL.Path,
		})
	}
}
