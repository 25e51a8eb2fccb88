package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/example/inventory-backend/internal/config"
	"github.com/example/inventory-backend/internal/core"
	"github.com/example/inventory-backend/internal/feed"
	"github.com/example/inventory-backend/internal/middleware"
)

// Dependencies are the services the routes are built on. Feed, RecentLogs,
// RateLimitStore and Gatherer are optional. Closing, when set, ends open
// activity streams.
type Dependencies struct {
	ProductService core.ProductService
	AuthService    core.AuthService
	Feed           *feed.Client
	RecentLogs     RecentLogReader
	RateLimitStore middleware.RateLimitStore
	Gatherer       prometheus.Gatherer
	Closing        <-chan struct{}
}

// SetupRoutes configures all the application routes with their handlers and
// middleware. Global middleware (request id, logging, recovery, CORS) is
// applied to router by the caller.
func SetupRoutes(router *gin.Engine, appConfig *config.Config, logger *zap.Logger, deps Dependencies) {
	RegisterValidation()

	detailed := appConfig.IsDevelopment()
	authMW := middleware.NewAuthMiddleware(deps.AuthService, logger)

	productHandler := NewProductHandler(deps.ProductService, logger, detailed)
	authHandler := NewAuthHandler(deps.AuthService, logger, detailed)
	activityHandler := NewActivityHandler(deps.Feed, deps.RecentLogs, appConfig.FeedLimit, deps.Closing, logger, detailed)

	var registerLimit, loginLimit gin.HandlerFunc = passThrough, passThrough
	if appConfig.RateLimitEnabled() && deps.RateLimitStore != nil {
		registerLimit = middleware.AuthRateLimit(
			middleware.NewAuthRateLimitPolicy("register", appConfig.AuthRateLimitWindow, appConfig.AuthRateLimitIP, appConfig.AuthRateLimitEmail),
			deps.RateLimitStore, logger)
		loginLimit = middleware.AuthRateLimit(
			middleware.NewAuthRateLimitPolicy("login", appConfig.AuthRateLimitWindow, appConfig.AuthRateLimitIP, appConfig.AuthRateLimitEmail),
			deps.RateLimitStore, logger)
	}

	apiGroup := router.Group("/api")
	{
		products := apiGroup.Group("/products")
		{
			products.GET("", productHandler.ListProducts)
			products.GET("/:id", authMW.VerifyToken(), productHandler.GetProduct)
			products.POST("", authMW.VerifyToken(), productHandler.CreateProduct)
			products.PUT("/:id", authMW.VerifyToken(), productHandler.UpdateProduct)
			products.DELETE("/:id", authMW.VerifyToken(), productHandler.DeleteProduct)
		}

		authGroup := apiGroup.Group("/auth")
		{
			authGroup.POST("/register", registerLimit, authHandler.Register)
			authGroup.POST("/login", loginLimit, authHandler.Login)
			authGroup.GET("/profile/me", authMW.VerifyToken(), authHandler.Me)

			users := authGroup.Group("/users", authMW.VerifyToken())
			{
				users.GET("/:id", authHandler.GetUser)
				users.PUT("/:id", authHandler.UpdateUser)
				users.DELETE("/:id", authHandler.DeleteUser)
			}
		}

		if deps.RecentLogs != nil {
			apiGroup.GET("/activity", activityHandler.ListRecent)
		}
		if deps.Feed != nil {
			apiGroup.GET("/activity/stream", activityHandler.Stream)
		}
	}

	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	logger.Info("API routes configured successfully under /api")
}

func passThrough(c *gin.Context) { c.Next() }
