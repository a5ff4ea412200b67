package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/marketplace-bot/internal/config"
	"github.com/ignatzorin/marketplace-bot/internal/http/handlers"
	"github.com/ignatzorin/marketplace-bot/internal/http/middleware"
	"github.com/ignatzorin/marketplace-bot/internal/service"
)

// SetupRouter собирает маршруты ops API.
func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	listingHandler *handlers.ListingHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		authGroup.POST("/login", authHandler.Login)
	}

	// Токен передаётся query параметром: браузерный WebSocket
	// не умеет выставлять заголовок Authorization.
	api.GET("/ws", wsHandler.Handle)

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/listings", listingHandler.ListListings)
		protected.GET("/listings/:id", middleware.UUIDValidator("id"), listingHandler.GetListing)
	}

	return r
}
