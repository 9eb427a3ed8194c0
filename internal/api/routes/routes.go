package routes

import (
	"market-backend/internal/api/handlers"
	"market-backend/internal/api/middleware"
	"market-backend/internal/config"
	"market-backend/internal/repository"
	"market-backend/internal/services"
	"market-backend/pkg/cache"
	"market-backend/pkg/email"
	"market-backend/pkg/media"
	"market-backend/pkg/ratelimit"
	"market-backend/pkg/redis"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

// Dependencies carries the shared infrastructure the route tree is wired
// against. Optional fields (cache, media, email, limiter) may be nil.
type Dependencies struct {
	DB           *mongo.Database
	RedisClient  *redis.Client
	CacheManager cache.CacheManager
	Limiter      *ratelimit.AdmissionLimiter
	MediaService *media.Service
	EmailService *email.EmailService
	Config       *config.Config
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	// Repositories
	userRepo := repository.NewUserRepository(deps.DB)
	appRepo := repository.NewApplicationRepository(deps.DB)
	templateRepo := repository.NewTemplateRepository(deps.DB)
	platformRepo := repository.NewPlatformRepository(deps.DB)
	orderRepo := repository.NewOrderRepository(deps.DB)

	// Services
	authService := services.NewAuthService(userRepo, deps.EmailService)
	userService := services.NewUserService(userRepo)
	appService := services.NewApplicationService(appRepo)
	templateService := services.NewTemplateService(templateRepo)
	platformService := services.NewPlatformService(platformRepo)
	orderService := services.NewOrderService(orderRepo, appRepo, templateRepo, platformRepo)

	if deps.CacheManager != nil {
		appService.SetCacheManager(deps.CacheManager)
	}
	orderService.SetApplicationService(appService)
	orderService.SetTemplateService(templateService)
	if deps.EmailService != nil {
		orderService.SetEmailService(deps.EmailService)
	}

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	appHandler := handlers.NewApplicationHandler(appService)
	templateHandler := handlers.NewTemplateHandler(templateService)
	platformHandler := handlers.NewPlatformHandler(platformService)
	orderHandler := handlers.NewOrderHandler(orderService)
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.RedisClient)
	uploadHandler := handlers.NewUploadHandler(deps.MediaService)

	// Per-group admission policies. When the limiter is disabled every
	// preset middleware collapses to a no-op.
	limit := func(preset string) gin.HandlerFunc {
		if deps.Limiter == nil {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimitPreset(deps.Limiter, preset)
	}

	api := router.Group("/api/v1")

	api.GET("/health", healthHandler.HealthCheck)

	// Unauthenticated storefront reads of the published catalog
	catalog := api.Group("/catalog")
	catalog.Use(limit(ratelimit.PresetPublic))
	{
		catalog.GET("/applications", appHandler.GetPublicApplications)
		catalog.GET("/applications/:slug", appHandler.GetApplicationBySlug)
		catalog.GET("/templates", templateHandler.GetPublicTemplates)
		catalog.GET("/templates/:slug", templateHandler.GetTemplateBySlug)
	}

	// Auth endpoints carry the strictest window and are keyed by submitted
	// email where possible.
	auth := api.Group("/auth")
	auth.Use(limit(ratelimit.PresetAuth))
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", authHandler.Logout)
		auth.POST("/refresh", authHandler.RefreshTokenPublic)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)
	}

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware())
	protected.Use(limit(ratelimit.PresetAuthenticated))
	{
		protected.GET("/auth/profile", authHandler.GetProfile)
		protected.POST("/auth/refresh-session", authHandler.RefreshToken)

		applications := protected.Group("/applications")
		{
			applications.GET("", appHandler.GetApplications)
			applications.GET("/:id", appHandler.GetApplication)
			applications.POST("", limit(ratelimit.PresetMutation), appHandler.CreateApplication)
			applications.PATCH("/:id", limit(ratelimit.PresetMutation), appHandler.UpdateApplication)
			applications.DELETE("/:id", limit(ratelimit.PresetMutation), appHandler.DeleteApplication)
		}

		templates := protected.Group("/templates")
		{
			templates.GET("", templateHandler.GetTemplates)
			templates.GET("/:id", templateHandler.GetTemplate)
			templates.POST("", limit(ratelimit.PresetMutation), templateHandler.CreateTemplate)
			templates.PATCH("/:id", limit(ratelimit.PresetMutation), templateHandler.UpdateTemplate)
			templates.DELETE("/:id", limit(ratelimit.PresetMutation), templateHandler.DeleteTemplate)
		}

		orders := protected.Group("/orders")
		{
			orders.GET("", orderHandler.GetOrders)
			orders.GET("/:id", orderHandler.GetOrder)
			orders.GET("/reference/:reference", orderHandler.GetOrderByReference)
			orders.POST("", limit(ratelimit.PresetMutation), orderHandler.CreateOrder)
			orders.POST("/:id/pay", limit(ratelimit.PresetMutation), orderHandler.MarkOrderPaid)
			orders.POST("/:id/refund", limit(ratelimit.PresetMutation), orderHandler.RefundOrder)
			orders.POST("/:id/cancel", limit(ratelimit.PresetMutation), orderHandler.CancelOrder)
		}

		uploads := protected.Group("/uploads")
		uploads.Use(limit(ratelimit.PresetUpload))
		{
			uploads.POST("/presign", uploadHandler.PresignUpload)
			uploads.DELETE("", uploadHandler.DeleteMedia)
		}

		// Admin-only surfaces
		admin := protected.Group("/")
		admin.Use(middleware.RequireRole("admin"))
		{
			users := admin.Group("/users")
			{
				users.GET("", userHandler.GetUsers)
				users.GET("/:id", userHandler.GetUser)
				users.POST("", userHandler.CreateUser)
				users.PATCH("/:id", userHandler.UpdateUser)
				users.DELETE("/:id", userHandler.DeleteUser)
			}

			platforms := admin.Group("/platforms")
			{
				platforms.GET("", platformHandler.GetPlatforms)
				platforms.GET("/:id", platformHandler.GetPlatform)
				platforms.POST("", platformHandler.CreatePlatform)
				platforms.PATCH("/:id", platformHandler.UpdatePlatform)
				platforms.DELETE("/:id", platformHandler.DeletePlatform)
			}

			if deps.Limiter != nil {
				limiterHandler := handlers.NewRateLimitAdminHandler(deps.Limiter)
				limiterAdmin := admin.Group("/rate-limiter")
				{
					limiterAdmin.GET("/snapshot", limiterHandler.GetSnapshot)
					limiterAdmin.POST("/allowlist", limiterHandler.AddToAllowlist)
					limiterAdmin.DELETE("/allowlist/:address", limiterHandler.RemoveFromAllowlist)
					limiterAdmin.POST("/blocks", limiterHandler.BlockAddress)
					limiterAdmin.DELETE("/blocks/:address", limiterHandler.UnblockAddress)
					limiterAdmin.POST("/reset", limiterHandler.ResetLimiter)
				}
			}
		}
	}
}
