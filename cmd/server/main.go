package main

import (
	"context"
	"time"

	"market-backend/internal/api/routes"
	"market-backend/internal/config"
	"market-backend/internal/repository"
	"market-backend/pkg/cache"
	"market-backend/pkg/cleanup"
	"market-backend/pkg/database"
	"market-backend/pkg/email"
	"market-backend/pkg/logger"
	"market-backend/pkg/media"
	"market-backend/pkg/ratelimit"
	"market-backend/pkg/redis"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	defer logger.Sync()

	cfg := config.Load()

	db, err := database.Connect(cfg.MongoURI)
	if err != nil {
		logger.Logger().Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Disconnect(db.Client())

	redisClient := redis.NewClient(cfg.Redis)
	defer redisClient.Close()

	var cacheManager cache.CacheManager
	healthStatus := redisClient.HealthCheck()
	if healthStatus.IsConnected {
		logger.Logger().Info("Redis connected", zap.String("addr", healthStatus.ConnectionInfo))
		cacheManager = cache.NewDefaultCacheManager(redisClient)
	} else {
		logger.Logger().Warn("Redis connection failed, catalog cache disabled",
			zap.String("error", healthStatus.Error))
	}

	emailService := email.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Username,
		cfg.SMTP.Password,
		cfg.SMTP.FromEmail,
		cfg.SMTP.FromName,
		cfg.SMTP.AppURL,
	)

	var mediaService *media.Service
	if cfg.Media.Bucket != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		mediaService, err = media.NewService(ctx, cfg.Media)
		cancel()
		if err != nil {
			logger.Logger().Warn("media storage unavailable, uploads disabled", zap.Error(err))
		}
	}

	var limiter *ratelimit.AdmissionLimiter
	if cfg.RateLimitEnabled {
		limiter = ratelimit.NewAdmissionLimiter(
			ratelimit.WithMaxTrackedKeys(cfg.RateLimitMaxKeys),
		)
	}

	// Periodic cleanup of expired reset tokens and stale pending orders
	cleanupService := cleanup.NewCleanupService(
		repository.NewUserRepository(db),
		repository.NewOrderRepository(db),
		time.Hour,
	)
	go cleanupService.Start()
	defer cleanupService.Stop()

	router := gin.Default()

	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
	}

	// Wildcard origin is only for development; credentials cannot be combined
	// with AllowAllOrigins.
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowCredentials = true
	}

	router.Use(cors.New(corsConfig))

	routes.SetupRoutes(router, routes.Dependencies{
		DB:           db,
		RedisClient:  redisClient,
		CacheManager: cacheManager,
		Limiter:      limiter,
		MediaService: mediaService,
		EmailService: emailService,
		Config:       cfg,
	})

	logger.Logger().Info("server starting", zap.String("port", cfg.Port))
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Logger().Fatal("server exited", zap.Error(err))
	}
}
